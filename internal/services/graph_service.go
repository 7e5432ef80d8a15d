package services

import (
	"context"
	"time"

	"github.com/yoockh/yoosocial/internal/events"
	"github.com/yoockh/yoosocial/internal/repositories"
	"github.com/yoockh/yoosocial/internal/utils"
)

type GraphService interface {
	Follow(ctx context.Context, followerID, targetID string) error
	Unfollow(ctx context.Context, followerID, targetID string) error
	JoinGroup(ctx context.Context, groupID, userID string) error
	LeaveGroup(ctx context.Context, groupID, userID string) error
}

type graphService struct {
	graph   repositories.SocialGraph
	users   UserService
	events  events.Publisher
	timeout time.Duration
}

func NewGraphService(graph repositories.SocialGraph, users UserService, pub events.Publisher, timeout time.Duration) GraphService {
	return &graphService{graph: graph, users: users, events: pub, timeout: timeout}
}

func (s *graphService) Follow(ctx context.Context, followerID, targetID string) error {
	return s.follow(ctx, "GraphService.Follow", "follow", followerID, targetID, s.graph.Follow)
}

func (s *graphService) Unfollow(ctx context.Context, followerID, targetID string) error {
	return s.follow(ctx, "GraphService.Unfollow", "unfollow", followerID, targetID, s.graph.Unfollow)
}

func (s *graphService) follow(ctx context.Context, op, change, followerID, targetID string, write func(ctx context.Context, a, b string) error) error {
	if followerID != "" && followerID == targetID {
		return utils.E(utils.CodeInvalidArgument, op, "users cannot follow themselves", nil)
	}
	if err := s.users.RequireUsers(ctx, followerID, targetID); err != nil {
		return err
	}

	wctx, cancel := withStoreTimeout(ctx, s.timeout)
	err := write(wctx, followerID, targetID)
	cancel()
	if err != nil {
		return utils.Wrap(utils.CodeInternal, op, "failed to update follow", err)
	}

	s.events.Publish(ctx, events.GraphChanged{UserID: followerID, TargetID: targetID, Change: change})
	return nil
}

func (s *graphService) JoinGroup(ctx context.Context, groupID, userID string) error {
	return s.membership(ctx, "GraphService.JoinGroup", "join", groupID, userID, s.graph.JoinGroup)
}

func (s *graphService) LeaveGroup(ctx context.Context, groupID, userID string) error {
	return s.membership(ctx, "GraphService.LeaveGroup", "leave", groupID, userID, s.graph.LeaveGroup)
}

// membership changes who shares a group with userID, so every member's
// feed is affected, not only the joiner's.
func (s *graphService) membership(ctx context.Context, op, change, groupID, userID string, write func(ctx context.Context, g, u string) error) error {
	if groupID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "group_id is required", nil)
	}
	if err := s.users.RequireUsers(ctx, userID); err != nil {
		return err
	}

	wctx, cancel := withStoreTimeout(ctx, s.timeout)
	err := write(wctx, groupID, userID)
	cancel()
	if err != nil {
		return utils.Wrap(utils.CodeInternal, op, "failed to update group membership", err)
	}

	members, err := utils.CallStore(ctx, s.timeout, op, func(ctx context.Context) ([]string, error) {
		return s.graph.GroupMemberIDs(ctx, groupID)
	})
	if err != nil {
		members = nil
	}
	s.events.Publish(ctx, events.GraphChanged{UserID: userID, TargetID: groupID, Change: change, Affected: members})
	return nil
}
