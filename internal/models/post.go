package models

import "time"

type Post struct {
	ID              string    `gorm:"column:id;type:text;primaryKey" json:"postId"`
	AuthorID        string    `gorm:"column:author_id;type:text;index:idx_posts_author_created,priority:1" json:"authorId"`
	Text            string    `gorm:"column:text;type:text" json:"text"`
	EngagementScore float64   `gorm:"column:engagement_score" json:"engagementScore"`
	CreatedAt       time.Time `gorm:"column:created_at;type:timestamptz;index:idx_posts_author_created,priority:2" json:"createdAt"`
}

func (Post) TableName() string { return "posts" }
