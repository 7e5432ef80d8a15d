package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheHonoursPerEntryTTL(t *testing.T) {
	c := NewMemoryCache(10, time.Hour)
	now := time.Now()
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.SetJSON(ctx, "k", map[string]int{"a": 1}, time.Minute))

	var got map[string]int
	hit, err := c.GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, got["a"])

	now = now.Add(2 * time.Minute)
	hit, err = c.GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewMemoryCache(2, time.Hour)
	ctx := context.Background()
	require.NoError(t, c.SetJSON(ctx, "a", 1, 0))
	require.NoError(t, c.SetJSON(ctx, "b", 2, 0))

	var v int
	_, _ = c.GetJSON(ctx, "a", &v)
	require.NoError(t, c.SetJSON(ctx, "c", 3, 0))

	hit, _ := c.GetJSON(ctx, "b", &v)
	assert.False(t, hit)
	hit, _ = c.GetJSON(ctx, "a", &v)
	assert.True(t, hit)
}

func TestMemorySeenExtendBuildsChain(t *testing.T) {
	s := NewMemorySeen(10, time.Hour)
	ctx := context.Background()

	require.NoError(t, s.Extend(ctx, "", "p1", []string{"a", "b"}, time.Hour))
	require.NoError(t, s.Extend(ctx, "p1", "p2", []string{"c"}, time.Hour))

	p1, err := s.Members(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, p1, 2)

	p2, err := s.Members(ctx, "p2")
	require.NoError(t, err)
	assert.Len(t, p2, 3)
	assert.Contains(t, p2, "c")
}
