package models

import "time"

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

// User is a read-only mirror of the user service, used to validate ids.
type User struct {
	ID        string    `gorm:"column:id;type:text;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"createdAt"`
}

func (User) TableName() string { return "users" }
