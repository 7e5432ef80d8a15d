package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/yoockh/yoosocial/internal/models"
	"github.com/yoockh/yoosocial/internal/repositories"
	"github.com/yoockh/yoosocial/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type conversationRepo struct {
	db *gorm.DB
}

func NewConversationRepo(db *gorm.DB) repositories.ConversationRepository {
	return &conversationRepo{db: db}
}

func (r *conversationRepo) InsertIfAbsent(ctx context.Context, c *models.Conversation) (*models.Conversation, bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "participant_key"}},
			DoNothing: true,
		}).
		Create(c)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 1 {
		return c, true, nil
	}

	existing, err := r.GetByKey(ctx, c.ParticipantKey)
	if errors.Is(err, utils.ErrNotFound) {
		// conflicting row vanished between insert and read
		return nil, false, utils.ErrConflict
	}
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *conversationRepo) GetByID(ctx context.Context, id string) (*models.Conversation, error) {
	var row models.Conversation
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &row, err
}

func (r *conversationRepo) GetByKey(ctx context.Context, key string) (*models.Conversation, error) {
	var row models.Conversation
	err := r.db.WithContext(ctx).Where("participant_key = ?", key).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &row, err
}

func (r *conversationRepo) TouchLastMessage(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Conversation{}).
		Where("id = ? AND last_message_at < ?", id, at).
		Update("last_message_at", at).Error
}

func (r *conversationRepo) ListByParticipant(ctx context.Context, userID string, limit int) ([]models.Conversation, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []models.Conversation
	err := r.db.WithContext(ctx).
		Where("? = ANY(participant_ids)", userID).
		Order("last_message_at DESC, id ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
