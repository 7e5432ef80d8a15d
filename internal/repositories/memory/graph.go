package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/yoockh/yoosocial/internal/repositories"
)

type edgeSet map[string]map[string]struct{}

func (e edgeSet) add(from, to string) {
	if e[from] == nil {
		e[from] = map[string]struct{}{}
	}
	e[from][to] = struct{}{}
}

func (e edgeSet) remove(from, to string) {
	delete(e[from], to)
	if len(e[from]) == 0 {
		delete(e, from)
	}
}

func (e edgeSet) sorted(from string) []string {
	out := make([]string, 0, len(e[from]))
	for id := range e[from] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

type Graph struct {
	mu        sync.RWMutex
	following edgeSet // follower -> followees
	followers edgeSet // followee -> followers
	groupsOf  edgeSet // user -> groups
	membersOf edgeSet // group -> users
	groupErr  error
	followErr error
}

var _ repositories.SocialGraph = (*Graph)(nil)

func NewGraph() *Graph {
	return &Graph{
		following: edgeSet{},
		followers: edgeSet{},
		groupsOf:  edgeSet{},
		membersOf: edgeSet{},
	}
}

// FailGroupLookups makes group lookups return err; nil restores them.
func (g *Graph) FailGroupLookups(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.groupErr = err
}

// FailFollowedLookups makes FollowedIDs return err; nil restores it.
func (g *Graph) FailFollowedLookups(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.followErr = err
}

func (g *Graph) FollowedIDs(ctx context.Context, userID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.followErr != nil {
		return nil, g.followErr
	}
	return g.following.sorted(userID), nil
}

func (g *Graph) FollowerIDs(ctx context.Context, userID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.followers.sorted(userID), nil
}

func (g *Graph) GroupIDsOf(ctx context.Context, userID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.groupErr != nil {
		return nil, g.groupErr
	}
	return g.groupsOf.sorted(userID), nil
}

func (g *Graph) GroupMemberIDs(ctx context.Context, groupID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.groupErr != nil {
		return nil, g.groupErr
	}
	return g.membersOf.sorted(groupID), nil
}

func (g *Graph) Follow(ctx context.Context, followerID, followeeID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.following.add(followerID, followeeID)
	g.followers.add(followeeID, followerID)
	return nil
}

func (g *Graph) Unfollow(ctx context.Context, followerID, followeeID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.following.remove(followerID, followeeID)
	g.followers.remove(followeeID, followerID)
	return nil
}

func (g *Graph) JoinGroup(ctx context.Context, groupID, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.groupsOf.add(userID, groupID)
	g.membersOf.add(groupID, userID)
	return nil
}

func (g *Graph) LeaveGroup(ctx context.Context, groupID, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.groupsOf.remove(userID, groupID)
	g.membersOf.remove(groupID, userID)
	return nil
}
