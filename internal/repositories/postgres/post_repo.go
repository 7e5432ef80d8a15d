package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/yoockh/yoosocial/internal/models"
	"github.com/yoockh/yoosocial/internal/repositories"
	"github.com/yoockh/yoosocial/internal/utils"
	"gorm.io/gorm"
)

type postRepo struct {
	db *gorm.DB
}

func NewPostRepo(db *gorm.DB) repositories.PostRepository {
	return &postRepo{db: db}
}

func (r *postRepo) Create(ctx context.Context, p *models.Post) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *postRepo) GetByID(ctx context.Context, id string) (*models.Post, error) {
	var row models.Post
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &row, err
}

func (r *postRepo) UpdateEngagement(ctx context.Context, id string, score float64) error {
	res := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", id).
		Update("engagement_score", score)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *postRepo) ByAuthors(ctx context.Context, authorIDs []string, since time.Time, limit int) ([]models.Post, error) {
	if len(authorIDs) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 500
	}

	var rows []models.Post
	err := r.db.WithContext(ctx).
		Where("author_id IN ? AND created_at >= ?", authorIDs, since).
		Order("created_at DESC, id ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
