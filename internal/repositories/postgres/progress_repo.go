package postgres

import (
	"context"
	"errors"

	"github.com/yoockh/yoosocial/internal/models"
	"github.com/yoockh/yoosocial/internal/repositories"
	"github.com/yoockh/yoosocial/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type progressRepo struct {
	db *gorm.DB
}

func NewProgressRepo(db *gorm.DB) repositories.ProgressRepository {
	return &progressRepo{db: db}
}

func (r *progressRepo) Get(ctx context.Context, userID, moduleID string) (*models.ProgressRecord, error) {
	var row models.ProgressRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND module_id = ?", userID, moduleID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &row, err
}

func (r *progressRepo) InsertIfAbsent(ctx context.Context, rec *models.ProgressRecord) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(rec)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *progressRepo) CompareAndSet(ctx context.Context, rec, expected *models.ProgressRecord) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ProgressRecord{}).
		Where("user_id = ? AND module_id = ? AND status = ? AND updated_at = ?",
			rec.UserID, rec.ModuleID, expected.Status, expected.UpdatedAt).
		Updates(map[string]any{
			"status":       rec.Status,
			"started_at":   rec.StartedAt,
			"completed_at": rec.CompletedAt,
			"updated_at":   rec.UpdatedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *progressRepo) ListByUser(ctx context.Context, userID string) ([]models.ProgressRecord, error) {
	var rows []models.ProgressRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("module_id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *progressRepo) CompletionCounts(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		ModuleID    string
		Completions int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.ProgressRecord{}).
		Select("module_id, count(*) AS completions").
		Where("status = ?", models.StatusCompleted).
		Group("module_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.ModuleID] = row.Completions
	}
	return out, nil
}
