package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/yoosocial/internal/models"
)

func TestProgressCompareAndSetRejectsStaleSnapshot(t *testing.T) {
	store := NewProgress()
	ctx := context.Background()
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	rec := models.ProgressRecord{UserID: "u1", ModuleID: "m1", Status: models.StatusInProgress, UpdatedAt: t0}
	ok, err := store.InsertIfAbsent(ctx, &rec)
	require.NoError(t, err)
	require.True(t, ok)

	step := func(from *models.ProgressRecord, to models.ProgressStatus, at time.Time) *models.ProgressRecord {
		next := *from
		next.Status = to
		next.UpdatedAt = at
		ok, err := store.CompareAndSet(ctx, &next, from)
		require.NoError(t, err)
		require.True(t, ok, "moving to %s", to)
		return &next
	}

	done := step(&rec, models.StatusCompleted, t0.Add(time.Second))
	resumed := step(done, models.StatusInProgress, t0.Add(2*time.Second))
	step(resumed, models.StatusCompleted, t0.Add(3*time.Second))

	// same status as the stored row, older updated_at
	late := *done
	late.UpdatedAt = t0.Add(4 * time.Second)
	ok, err = store.CompareAndSet(ctx, &late, done)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := store.Get(ctx, "u1", "m1")
	require.NoError(t, err)
	assert.True(t, got.UpdatedAt.Equal(t0.Add(3*time.Second)))
}

func TestProgressCompareAndSetMissingRow(t *testing.T) {
	store := NewProgress()
	rec := models.ProgressRecord{UserID: "u1", ModuleID: "m1", Status: models.StatusCompleted}

	ok, err := store.CompareAndSet(context.Background(), &rec, &models.ProgressRecord{Status: models.StatusInProgress})
	require.NoError(t, err)
	assert.False(t, ok)
}
