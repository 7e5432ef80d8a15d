package memory

import (
	"context"
	"sync"

	"github.com/yoockh/yoosocial/internal/repositories"
)

// Users is a UserDirectory. An open directory accepts every non-empty id.
type Users struct {
	mu    sync.RWMutex
	open  bool
	known map[string]struct{}
}

var _ repositories.UserDirectory = (*Users)(nil)

func NewUsers(ids ...string) *Users {
	u := &Users{known: map[string]struct{}{}}
	for _, id := range ids {
		u.known[id] = struct{}{}
	}
	return u
}

func NewOpenUsers() *Users {
	return &Users{open: true, known: map[string]struct{}{}}
}

func (u *Users) Add(ids ...string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, id := range ids {
		u.known[id] = struct{}{}
	}
}

func (u *Users) MissingUsers(ctx context.Context, userIDs []string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	u.mu.RLock()
	defer u.mu.RUnlock()

	var missing []string
	for _, id := range userIDs {
		if id == "" {
			missing = append(missing, id)
			continue
		}
		if _, ok := u.known[id]; !ok && !u.open {
			missing = append(missing, id)
		}
	}
	return missing, nil
}
