package postgres

import (
	"context"
	"time"

	"github.com/yoockh/yoosocial/internal/models"
	"github.com/yoockh/yoosocial/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type graphRepo struct {
	db *gorm.DB
}

func NewGraphRepo(db *gorm.DB) repositories.SocialGraph {
	return &graphRepo{db: db}
}

func (r *graphRepo) FollowedIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ?", userID).
		Order("followee_id ASC").
		Pluck("followee_id", &ids).Error
	return ids, err
}

func (r *graphRepo) FollowerIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("followee_id = ?", userID).
		Order("follower_id ASC").
		Pluck("follower_id", &ids).Error
	return ids, err
}

func (r *graphRepo) GroupIDsOf(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.GroupMembership{}).
		Where("user_id = ?", userID).
		Order("group_id ASC").
		Pluck("group_id", &ids).Error
	return ids, err
}

func (r *graphRepo) GroupMemberIDs(ctx context.Context, groupID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.GroupMembership{}).
		Where("group_id = ?", groupID).
		Order("user_id ASC").
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *graphRepo) Follow(ctx context.Context, followerID, followeeID string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Follow{FollowerID: followerID, FolloweeID: followeeID, CreatedAt: time.Now().UTC()}).Error
}

func (r *graphRepo) Unfollow(ctx context.Context, followerID, followeeID string) error {
	return r.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Delete(&models.Follow{}).Error
}

func (r *graphRepo) JoinGroup(ctx context.Context, groupID, userID string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.GroupMembership{GroupID: groupID, UserID: userID, Role: "member", JoinedAt: time.Now().UTC()}).Error
}

func (r *graphRepo) LeaveGroup(ctx context.Context, groupID, userID string) error {
	return r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.GroupMembership{}).Error
}
