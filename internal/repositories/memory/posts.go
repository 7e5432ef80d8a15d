package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/yoockh/yoosocial/internal/models"
	"github.com/yoockh/yoosocial/internal/repositories"
	"github.com/yoockh/yoosocial/internal/utils"
)

type Posts struct {
	mu   sync.RWMutex
	byID map[string]models.Post
}

var _ repositories.PostRepository = (*Posts)(nil)

func NewPosts() *Posts {
	return &Posts{byID: map[string]models.Post{}}
}

func (s *Posts) Create(ctx context.Context, p *models.Post) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[p.ID]; ok {
		return utils.ErrConflict
	}
	s.byID[p.ID] = *p
	return nil
}

func (s *Posts) GetByID(ctx context.Context, id string) (*models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byID[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return &p, nil
}

func (s *Posts) UpdateEngagement(ctx context.Context, id string, score float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[id]
	if !ok {
		return utils.ErrNotFound
	}
	p.EngagementScore = score
	s.byID[id] = p
	return nil
}

func (s *Posts) ByAuthors(ctx context.Context, authorIDs []string, since time.Time, limit int) ([]models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(authorIDs) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 500
	}
	authors := make(map[string]struct{}, len(authorIDs))
	for _, id := range authorIDs {
		authors[id] = struct{}{}
	}

	s.mu.RLock()
	out := make([]models.Post, 0)
	for _, p := range s.byID {
		if _, ok := authors[p.AuthorID]; ok && !p.CreatedAt.Before(since) {
			out = append(out, p)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
