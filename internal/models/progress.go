package models

import "time"

type ProgressStatus string

const (
	StatusNotStarted ProgressStatus = "not_started"
	StatusInProgress ProgressStatus = "in_progress"
	StatusCompleted  ProgressStatus = "completed"
)

func (s ProgressStatus) Valid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// ProgressRecord is unique per (user, module).
type ProgressRecord struct {
	UserID      string         `gorm:"column:user_id;type:text;primaryKey" json:"userId"`
	ModuleID    string         `gorm:"column:module_id;type:text;primaryKey;index" json:"moduleId"`
	Status      ProgressStatus `gorm:"column:status;type:text;index" json:"status"`
	StartedAt   *time.Time     `gorm:"column:started_at;type:timestamptz" json:"startedAt,omitempty"`
	CompletedAt *time.Time     `gorm:"column:completed_at;type:timestamptz" json:"completedAt,omitempty"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;type:timestamptz" json:"updatedAt"`
}

func (ProgressRecord) TableName() string { return "user_progress" }
