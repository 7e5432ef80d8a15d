package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type memEntry struct {
	payload []byte
	expires time.Time
}

// MemoryCache is a size-bounded LRU. Entries expire after the smaller of
// the per-call ttl and the cache-wide ttl.
type MemoryCache struct {
	lru *expirable.LRU[string, memEntry]
	now func() time.Time
}

func NewMemoryCache(size int, maxTTL time.Duration) *MemoryCache {
	if size <= 0 {
		size = 10000
	}
	return &MemoryCache{
		lru: expirable.NewLRU[string, memEntry](size, nil, maxTTL),
		now: time.Now,
	}
}

func (c *MemoryCache) GetJSON(_ context.Context, key string, dst any) (bool, error) {
	e, ok := c.lru.Get(key)
	if !ok {
		return false, nil
	}
	if !e.expires.IsZero() && c.now().After(e.expires) {
		c.lru.Remove(key)
		return false, nil
	}
	if err := json.Unmarshal(e.payload, dst); err != nil {
		c.lru.Remove(key)
		return false, nil
	}
	return true, nil
}

func (c *MemoryCache) SetJSON(_ context.Context, key string, val any, ttl time.Duration) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}
	e := memEntry{payload: b}
	if ttl > 0 {
		e.expires = c.now().Add(ttl)
	}
	c.lru.Add(key, e)
	return nil
}

func (c *MemoryCache) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		c.lru.Remove(k)
	}
	return nil
}

type MemoryVersions struct {
	mu sync.Mutex
	v  map[string]int64
}

func NewMemoryVersions() *MemoryVersions {
	return &MemoryVersions{v: map[string]int64{}}
}

func (m *MemoryVersions) Current(_ context.Context, subject string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.v[subject], nil
}

func (m *MemoryVersions) Bump(_ context.Context, subject string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.v[subject]++
	return m.v[subject], nil
}

// MemorySeen stores each chain position as its own immutable set.
type MemorySeen struct {
	lru *expirable.LRU[string, map[string]struct{}]
}

func NewMemorySeen(size int, ttl time.Duration) *MemorySeen {
	if size <= 0 {
		size = 10000
	}
	return &MemorySeen{lru: expirable.NewLRU[string, map[string]struct{}](size, nil, ttl)}
}

func (m *MemorySeen) Members(_ context.Context, key string) (map[string]struct{}, error) {
	set, ok := m.lru.Get(key)
	if !ok {
		return map[string]struct{}{}, nil
	}
	return set, nil
}

func (m *MemorySeen) Extend(_ context.Context, from, to string, ids []string, _ time.Duration) error {
	prev, _ := m.lru.Get(from)
	next := make(map[string]struct{}, len(prev)+len(ids))
	for id := range prev {
		next[id] = struct{}{}
	}
	for _, id := range ids {
		next[id] = struct{}{}
	}
	m.lru.Add(to, next)
	return nil
}
