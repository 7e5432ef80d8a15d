package models

import "time"

type Follow struct {
	FollowerID string    `gorm:"column:follower_id;type:text;primaryKey" json:"followerId"`
	FolloweeID string    `gorm:"column:followee_id;type:text;primaryKey;index" json:"followeeId"`
	CreatedAt  time.Time `gorm:"column:created_at;type:timestamptz" json:"createdAt"`
}

func (Follow) TableName() string { return "follows" }

type GroupMembership struct {
	GroupID  string    `gorm:"column:group_id;type:text;primaryKey" json:"groupId"`
	UserID   string    `gorm:"column:user_id;type:text;primaryKey;index" json:"userId"`
	Role     string    `gorm:"column:role;type:text" json:"role"`
	JoinedAt time.Time `gorm:"column:joined_at;type:timestamptz" json:"joinedAt"`
}

func (GroupMembership) TableName() string { return "group_memberships" }
