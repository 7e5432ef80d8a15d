package postgres

import "github.com/yoockh/yoosocial/internal/models"

// Models lists every table owned by this package, for AutoMigrate.
func Models() []any {
	return []any{
		&models.User{},
		&models.Conversation{},
		&models.LearningModule{},
		&models.ProgressRecord{},
		&preferenceRow{},
		&models.Post{},
		&models.Follow{},
		&models.GroupMembership{},
	}
}
