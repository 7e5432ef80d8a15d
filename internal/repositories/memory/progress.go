package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/yoockh/yoosocial/internal/models"
	"github.com/yoockh/yoosocial/internal/repositories"
	"github.com/yoockh/yoosocial/internal/utils"
)

type progressKey struct{ user, module string }

type Progress struct {
	mu   sync.RWMutex
	rows map[progressKey]models.ProgressRecord
}

var _ repositories.ProgressRepository = (*Progress)(nil)

func NewProgress() *Progress {
	return &Progress{rows: map[progressKey]models.ProgressRecord{}}
}

func (s *Progress) Get(ctx context.Context, userID, moduleID string) (*models.ProgressRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.rows[progressKey{userID, moduleID}]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return &rec, nil
}

func (s *Progress) InsertIfAbsent(ctx context.Context, rec *models.ProgressRecord) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	k := progressKey{rec.UserID, rec.ModuleID}
	if _, ok := s.rows[k]; ok {
		return false, nil
	}
	s.rows[k] = *rec
	return true, nil
}

func (s *Progress) CompareAndSet(ctx context.Context, rec, expected *models.ProgressRecord) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	k := progressKey{rec.UserID, rec.ModuleID}
	cur, ok := s.rows[k]
	if !ok || cur.Status != expected.Status || !cur.UpdatedAt.Equal(expected.UpdatedAt) {
		return false, nil
	}
	s.rows[k] = *rec
	return true, nil
}

func (s *Progress) ListByUser(ctx context.Context, userID string) ([]models.ProgressRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]models.ProgressRecord, 0)
	for k, rec := range s.rows {
		if k.user == userID {
			out = append(out, rec)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ModuleID < out[j].ModuleID })
	return out, nil
}

func (s *Progress) CompletionCounts(ctx context.Context) (map[string]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := map[string]int64{}
	for k, rec := range s.rows {
		if rec.Status == models.StatusCompleted {
			out[k.module]++
		}
	}
	return out, nil
}
