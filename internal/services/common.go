package services

import (
	"context"
	"strconv"
	"time"

	"github.com/yoockh/yoosocial/internal/cache"
	"github.com/yoockh/yoosocial/internal/models"
	"github.com/yoockh/yoosocial/internal/ranking"
)

const defaultStoreTimeout = 5 * time.Second

// withStoreTimeout bounds a single, non-retried store write.
func withStoreTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = defaultStoreTimeout
	}
	return context.WithTimeout(ctx, d)
}

// rankedView serves a ranker's pages through the aggregation cache.
type rankedView[T any] struct {
	ranker *ranking.Ranker[T]
	agg    *cache.Aggregator
}

func (v rankedView[T]) page(ctx context.Context, subjectID, cursor string, limit int) (*models.RankedResult, error) {
	limit = v.ranker.Limit(limit)
	key := cache.Key{
		Subject: subjectID,
		Kind:    v.ranker.Kind(),
		Cursor:  cursor + "|" + strconv.Itoa(limit),
	}
	return v.agg.Get(ctx, key, func(ctx context.Context) (*models.RankedResult, error) {
		return v.ranker.Page(ctx, subjectID, cursor, limit)
	})
}
