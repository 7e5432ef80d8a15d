package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/yoockh/yoosocial/internal/models"
	"github.com/yoockh/yoosocial/internal/participants"
	"github.com/yoockh/yoosocial/internal/repositories"
	"github.com/yoockh/yoosocial/internal/utils"
)

type Conversations struct {
	mu    sync.RWMutex
	byID  map[string]*models.Conversation
	byKey map[string]string
}

var _ repositories.ConversationRepository = (*Conversations)(nil)

func NewConversations() *Conversations {
	return &Conversations{
		byID:  map[string]*models.Conversation{},
		byKey: map[string]string{},
	}
}

func cloneConversation(c *models.Conversation) *models.Conversation {
	out := *c
	out.ParticipantIDs = slices.Clone(c.ParticipantIDs)
	return &out
}

func (s *Conversations) InsertIfAbsent(ctx context.Context, c *models.Conversation) (*models.Conversation, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byKey[c.ParticipantKey]; ok {
		return cloneConversation(s.byID[id]), false, nil
	}
	s.byID[c.ID] = cloneConversation(c)
	s.byKey[c.ParticipantKey] = c.ID
	return cloneConversation(c), true, nil
}

func (s *Conversations) GetByID(ctx context.Context, id string) (*models.Conversation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.byID[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return cloneConversation(c), nil
}

func (s *Conversations) GetByKey(ctx context.Context, key string) (*models.Conversation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byKey[key]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return cloneConversation(s.byID[id]), nil
}

func (s *Conversations) TouchLastMessage(ctx context.Context, id string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.byID[id]
	if !ok {
		return nil
	}
	if c.LastMessageAt.Before(at) {
		next := cloneConversation(c)
		next.LastMessageAt = at
		s.byID[id] = next
	}
	return nil
}

func (s *Conversations) ListByParticipant(ctx context.Context, userID string, limit int) ([]models.Conversation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	s.mu.RLock()
	out := make([]models.Conversation, 0)
	for _, c := range s.byID {
		if participants.Contains(c.ParticipantIDs, userID) {
			out = append(out, *cloneConversation(c))
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastMessageAt.Equal(out[j].LastMessageAt) {
			return out[i].LastMessageAt.After(out[j].LastMessageAt)
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
