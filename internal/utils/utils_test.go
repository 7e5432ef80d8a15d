package utils

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallStoreRetriesUnavailableOnce(t *testing.T) {
	var calls atomic.Int32
	v, err := CallStore(context.Background(), time.Second, "op", func(ctx context.Context) (int, error) {
		if calls.Add(1) == 1 {
			return 0, ErrUnavailable
		}
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.EqualValues(t, 2, calls.Load())
}

func TestCallStoreSurfacesUnavailableAfterRetry(t *testing.T) {
	var calls atomic.Int32
	_, err := CallStore(context.Background(), 10*time.Millisecond, "Store.Get", func(ctx context.Context) (int, error) {
		calls.Add(1)
		<-ctx.Done()
		return 0, ctx.Err()
	})
	require.Error(t, err)
	assert.Equal(t, CodeUnavailable, CodeOf(err))
	assert.EqualValues(t, 2, calls.Load())
}

func TestCallStoreDoesNotRetryOtherErrors(t *testing.T) {
	var calls atomic.Int32
	_, err := CallStore(context.Background(), time.Second, "op", func(ctx context.Context) (int, error) {
		calls.Add(1)
		return 0, ErrNotFound
	})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualValues(t, 1, calls.Load())
}

func TestHTTPStatusAndPublicMessage(t *testing.T) {
	cases := []struct {
		err     error
		status  int
		message string
	}{
		{E(CodeInvalidArgument, "op", "limit must be a number", nil), http.StatusBadRequest, "limit must be a number"},
		{E(CodeInvalidTransition, "op", "invalid transition: completed -> not_started", nil), http.StatusUnprocessableEntity, "invalid transition: completed -> not_started"},
		{E(CodeConflict, "op", "busy", nil), http.StatusConflict, "busy"},
		{E(CodeUnavailable, "op", "redis down at 10.0.0.3", nil), http.StatusServiceUnavailable, "Service Unavailable"},
		{E(CodeInternal, "op", "pq: relation missing", nil), http.StatusInternalServerError, "Internal Server Error"},
		{fmt.Errorf("wrapped: %w", ErrNotFound), http.StatusNotFound, "Not Found"},
		{errors.New("boom"), http.StatusInternalServerError, "Internal Server Error"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, HTTPStatus(tc.err), tc.err.Error())
		assert.Equal(t, tc.message, PublicMessage(tc.err), tc.err.Error())
	}
}

func TestWrapKeepsExistingCode(t *testing.T) {
	inner := E(CodeNotFound, "Repo.Get", "module not found", nil)
	assert.Equal(t, CodeNotFound, CodeOf(Wrap(CodeInternal, "Service.Get", "failed", inner)))
	assert.Equal(t, CodeUnavailable, CodeOf(Wrap(CodeInternal, "op", "failed", context.DeadlineExceeded)))
	assert.Nil(t, Wrap(CodeInternal, "op", "failed", nil))
}
