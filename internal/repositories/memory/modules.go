package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/yoockh/yoosocial/internal/models"
	"github.com/yoockh/yoosocial/internal/repositories"
	"github.com/yoockh/yoosocial/internal/utils"
)

type Modules struct {
	mu   sync.RWMutex
	byID map[string]models.LearningModule
}

var _ repositories.ModuleCatalog = (*Modules)(nil)

func NewModules(seed ...models.LearningModule) *Modules {
	s := &Modules{byID: map[string]models.LearningModule{}}
	for _, m := range seed {
		m.Topics = slices.Clone(m.Topics)
		s.byID[m.ID] = m
	}
	return s
}

func (s *Modules) Create(ctx context.Context, m *models.LearningModule) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[m.ID]; ok {
		return utils.ErrConflict
	}
	cp := *m
	cp.Topics = slices.Clone(m.Topics)
	s.byID[m.ID] = cp
	return nil
}

func (s *Modules) Get(ctx context.Context, id string) (*models.LearningModule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.byID[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	m.Topics = slices.Clone(m.Topics)
	return &m, nil
}

func (s *Modules) List(ctx context.Context) ([]models.LearningModule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]models.LearningModule, 0, len(s.byID))
	for _, m := range s.byID {
		m.Topics = slices.Clone(m.Topics)
		out = append(out, m)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
