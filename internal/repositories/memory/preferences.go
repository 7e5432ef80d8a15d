package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/yoockh/yoosocial/internal/models"
	"github.com/yoockh/yoosocial/internal/repositories"
	"github.com/yoockh/yoosocial/internal/utils"
)

type Preferences struct {
	mu     sync.RWMutex
	byUser map[string]*models.PreferenceVector
}

var _ repositories.PreferenceRepository = (*Preferences)(nil)

func NewPreferences() *Preferences {
	return &Preferences{byUser: map[string]*models.PreferenceVector{}}
}

func (s *Preferences) Get(ctx context.Context, userID string) (*models.PreferenceVector, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.byUser[userID]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return v.Clone(), nil
}

func (s *Preferences) Save(ctx context.Context, v *models.PreferenceVector, expectedRevision int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var current int64
	if cur, ok := s.byUser[v.UserID]; ok {
		current = cur.Revision
	}
	if current != expectedRevision {
		return false, nil
	}
	v.Revision = expectedRevision + 1
	s.byUser[v.UserID] = v.Clone()
	return true, nil
}

func (s *Preferences) ListUserIDs(ctx context.Context, after string, limit int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 500
	}
	s.mu.RLock()
	ids := make([]string, 0, len(s.byUser))
	for id := range s.byUser {
		if id > after {
			ids = append(ids, id)
		}
	}
	s.mu.RUnlock()

	sort.Strings(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}
