package postgres

import (
	"context"
	"errors"

	"github.com/yoockh/yoosocial/internal/models"
	"github.com/yoockh/yoosocial/internal/repositories"
	"github.com/yoockh/yoosocial/internal/utils"
	"gorm.io/gorm"
)

type moduleRepo struct {
	db *gorm.DB
}

func NewModuleRepo(db *gorm.DB) repositories.ModuleCatalog {
	return &moduleRepo{db: db}
}

func (r *moduleRepo) Create(ctx context.Context, m *models.LearningModule) error {
	err := r.db.WithContext(ctx).Create(m).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return utils.ErrConflict
	}
	return err
}

func (r *moduleRepo) Get(ctx context.Context, id string) (*models.LearningModule, error) {
	var row models.LearningModule
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &row, err
}

func (r *moduleRepo) List(ctx context.Context) ([]models.LearningModule, error) {
	var rows []models.LearningModule
	err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error
	return rows, err
}
