package cache

import (
	"context"
	"time"
)

// Cache stores JSON payloads. A corrupt payload reads as a miss.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// VersionStore holds a monotonically increasing version per subject.
type VersionStore interface {
	Current(ctx context.Context, subject string) (int64, error)
	Bump(ctx context.Context, subject string) (int64, error)
}

// SeenStore keeps the item ids already served along a pagination chain.
type SeenStore interface {
	Members(ctx context.Context, key string) (map[string]struct{}, error)
	// Extend writes to = from ∪ ids, with ttl.
	Extend(ctx context.Context, from, to string, ids []string, ttl time.Duration) error
}
