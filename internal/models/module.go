package models

import (
	"time"

	"github.com/lib/pq"
)

type LearningModule struct {
	ID                       string         `gorm:"column:id;type:text;primaryKey" json:"moduleId"`
	Title                    string         `gorm:"column:title;type:text" json:"title"`
	Description              string         `gorm:"column:description;type:text" json:"description"`
	ContentType              string         `gorm:"column:content_type;type:text" json:"contentType"`
	ContentURL               string         `gorm:"column:content_url;type:text" json:"contentUrl,omitempty"`
	EstimatedDurationMinutes int            `gorm:"column:estimated_duration_minutes" json:"estimatedDurationMinutes"`
	Difficulty               string         `gorm:"column:difficulty;type:text" json:"difficulty,omitempty"`
	Topics                   pq.StringArray `gorm:"column:topics;type:text[]" json:"topics"`
	CreatedAt                time.Time      `gorm:"column:created_at;type:timestamptz" json:"createdAt"`
}

func (LearningModule) TableName() string { return "learning_modules" }
