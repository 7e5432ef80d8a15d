package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/yoockh/yoosocial/internal/models"
	"github.com/yoockh/yoosocial/internal/repositories"
	"github.com/yoockh/yoosocial/internal/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type preferenceRow struct {
	UserID          string                                 `gorm:"column:user_id;type:text;primaryKey"`
	InterestWeights datatypes.JSONType[map[string]float64] `gorm:"column:interest_weights;type:jsonb"`
	ExplicitTopics  pq.StringArray                         `gorm:"column:explicit_topics;type:text[]"`
	LastUpdated     time.Time                              `gorm:"column:last_updated;type:timestamptz"`
	Revision        int64                                  `gorm:"column:revision"`
}

func (preferenceRow) TableName() string { return "user_preferences" }

func (row preferenceRow) toModel() *models.PreferenceVector {
	v := &models.PreferenceVector{
		UserID:          row.UserID,
		InterestWeights: row.InterestWeights.Data(),
		ExplicitTopics:  []string(row.ExplicitTopics),
		LastUpdated:     row.LastUpdated,
		Revision:        row.Revision,
	}
	return v.Clone()
}

type preferenceRepo struct {
	db *gorm.DB
}

func NewPreferenceRepo(db *gorm.DB) repositories.PreferenceRepository {
	return &preferenceRepo{db: db}
}

func (r *preferenceRepo) Get(ctx context.Context, userID string) (*models.PreferenceVector, error) {
	var row preferenceRow
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

func (r *preferenceRepo) Save(ctx context.Context, v *models.PreferenceVector, expectedRevision int64) (bool, error) {
	next := expectedRevision + 1

	if expectedRevision == 0 {
		row := preferenceRow{
			UserID:          v.UserID,
			InterestWeights: datatypes.NewJSONType(v.InterestWeights),
			ExplicitTopics:  pq.StringArray(v.ExplicitTopics),
			LastUpdated:     v.LastUpdated,
			Revision:        next,
		}
		res := r.db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&row)
		if res.Error != nil {
			return false, res.Error
		}
		if res.RowsAffected == 1 {
			v.Revision = next
			return true, nil
		}
		return false, nil
	}

	res := r.db.WithContext(ctx).
		Model(&preferenceRow{}).
		Where("user_id = ? AND revision = ?", v.UserID, expectedRevision).
		Updates(map[string]any{
			"interest_weights": datatypes.NewJSONType(v.InterestWeights),
			"explicit_topics":  pq.StringArray(v.ExplicitTopics),
			"last_updated":     v.LastUpdated,
			"revision":         next,
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 1 {
		v.Revision = next
		return true, nil
	}
	return false, nil
}

func (r *preferenceRepo) ListUserIDs(ctx context.Context, after string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 500
	}
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&preferenceRow{}).
		Where("user_id > ?", after).
		Order("user_id ASC").
		Limit(limit).
		Pluck("user_id", &ids).Error
	return ids, err
}
