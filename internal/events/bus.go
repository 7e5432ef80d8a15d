package events

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

type Handler func(ctx context.Context, e Event) error

// Publisher is what services depend on.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

type subscription struct {
	name  string
	kinds map[Kind]struct{}
	h     Handler
}

// Bus delivers each event synchronously to subscribers in subscription
// order. Delivery ignores cancellation of the publishing request.
type Bus struct {
	mu     sync.RWMutex
	subs   []subscription
	logger *logrus.Logger
}

func NewBus(l *logrus.Logger) *Bus {
	if l == nil {
		l = logrus.New()
	}
	return &Bus{logger: l}
}

// Subscribe registers h for the given kinds, or for every kind when none
// are given.
func (b *Bus) Subscribe(name string, h Handler, kinds ...Kind) {
	s := subscription{name: name, h: h}
	if len(kinds) > 0 {
		s.kinds = make(map[Kind]struct{}, len(kinds))
		for _, k := range kinds {
			s.kinds[k] = struct{}{}
		}
	}
	b.mu.Lock()
	b.subs = append(b.subs, s)
	b.mu.Unlock()
}

func (b *Bus) Publish(ctx context.Context, e Event) {
	ctx = context.WithoutCancel(ctx)

	b.mu.RLock()
	subs := b.subs
	b.mu.RUnlock()

	for _, s := range subs {
		if s.kinds != nil {
			if _, ok := s.kinds[e.Kind()]; !ok {
				continue
			}
		}
		if err := s.h(ctx, e); err != nil {
			b.logger.WithError(err).WithFields(logrus.Fields{
				"subscriber": s.name,
				"event":      e.Kind(),
			}).Error("event handler failed")
		}
	}
}
