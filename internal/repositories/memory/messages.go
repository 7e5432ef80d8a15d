package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/yoockh/yoosocial/internal/models"
	"github.com/yoockh/yoosocial/internal/repositories"
)

type Messages struct {
	mu     sync.RWMutex
	byConv map[string][]models.Message
}

var _ repositories.MessageRepository = (*Messages)(nil)

func NewMessages() *Messages {
	return &Messages{byConv: map[string][]models.Message{}}
}

func (s *Messages) Insert(ctx context.Context, m *models.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	s.byConv[m.ConversationID] = append(s.byConv[m.ConversationID], *m)
	s.mu.Unlock()
	return nil
}

func (s *Messages) ListByConversation(ctx context.Context, conversationID string, limit int64) ([]models.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 200
	}
	s.mu.RLock()
	out := append([]models.Message(nil), s.byConv[conversationID]...)
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].MessageID < out[j].MessageID
	})
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}
