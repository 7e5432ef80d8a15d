package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/yoosocial/internal/models"
	"github.com/yoockh/yoosocial/internal/utils"
)

func seedPost(t *testing.T, w *world, id, author string, age time.Duration, engagement float64) {
	t.Helper()
	require.NoError(t, w.posts.Create(context.Background(), &models.Post{
		ID:              id,
		AuthorID:        author,
		Text:            id,
		EngagementScore: engagement,
		CreatedAt:       time.Now().UTC().Add(-age),
	}))
}

func follow(t *testing.T, w *world, from, to string) {
	t.Helper()
	require.NoError(t, w.graph.Follow(context.Background(), from, to))
}

func TestRecencyDecay(t *testing.T) {
	day := 24 * time.Hour
	assert.InDelta(t, 1.0, RecencyDecay(0, day), 1e-9)
	assert.InDelta(t, 0.5, RecencyDecay(day, day), 1e-9)
	assert.InDelta(t, 0.25, RecencyDecay(2*day, day), 1e-9)
	assert.InDelta(t, 1.0, RecencyDecay(-time.Hour, day), 1e-9)
}

func TestFeedOnlyShowsConnectedAuthors(t *testing.T) {
	w := newWorld()
	follow(t, w, "u1", "u2")
	seedPost(t, w, "p-followed", "u2", time.Hour, 0)
	seedPost(t, w, "p-stranger", "u3", time.Hour, 0)
	seedPost(t, w, "p-own", "u1", time.Hour, 0)

	res, err := w.Feed.Feed(context.Background(), "u1", "", 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"p-followed", "p-own"}, itemIDs(res))
}

func TestFeedOrdering(t *testing.T) {
	w := newWorld()
	follow(t, w, "u1", "u2")
	seedPost(t, w, "fresh", "u2", time.Hour, 0)
	seedPost(t, w, "stale", "u2", 72*time.Hour, 0)
	seedPost(t, w, "viral", "u2", 30*time.Hour, 10)

	res, err := w.Feed.Feed(context.Background(), "u1", "", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"viral", "fresh", "stale"}, itemIDs(res))
	for i := 1; i < len(res.Items); i++ {
		assert.GreaterOrEqual(t, res.Items[i-1].Score, res.Items[i].Score)
	}
}

func TestFeedTiesBreakByID(t *testing.T) {
	w := newWorld()
	follow(t, w, "u1", "u2")
	at := time.Now().UTC().Add(-time.Hour)
	for _, id := range []string{"p3", "p1", "p2"} {
		require.NoError(t, w.posts.Create(context.Background(), &models.Post{ID: id, AuthorID: "u2", CreatedAt: at}))
	}

	res, err := w.Feed.Feed(context.Background(), "u1", "", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2", "p3"}, itemIDs(res))
}

func TestFeedSecondDegreeAffinity(t *testing.T) {
	w := newWorld()
	follow(t, w, "u1", "u2")
	follow(t, w, "u2", "u4")
	seedPost(t, w, "direct", "u2", time.Hour, 0)
	seedPost(t, w, "friend-of-friend", "u4", time.Hour, 0)

	res, err := w.Feed.Feed(context.Background(), "u1", "", 10)
	require.NoError(t, err)
	require.Equal(t, []string{"direct", "friend-of-friend"}, itemIDs(res))
	assert.InDelta(t, res.Items[0].Score*0.25, res.Items[1].Score, 1e-6)
}

func TestFeedGroupPeersAndDegradation(t *testing.T) {
	w := newWorld()
	ctx := context.Background()
	follow(t, w, "u1", "u2")
	require.NoError(t, w.graph.JoinGroup(ctx, "g1", "u1"))
	require.NoError(t, w.graph.JoinGroup(ctx, "g1", "u5"))
	seedPost(t, w, "followed", "u2", time.Hour, 0)
	seedPost(t, w, "group", "u5", time.Hour, 0)

	res, err := w.Feed.Feed(ctx, "u1", "", 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"followed", "group"}, itemIDs(res))

	w.graph.FailGroupLookups(utils.ErrUnavailable)
	require.NoError(t, w.Graph.Follow(ctx, "u1", "u3"))

	res, err = w.Feed.Feed(ctx, "u1", "", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"followed"}, itemIDs(res))
}

func TestFeedSeesNewPostsAfterInvalidation(t *testing.T) {
	w := newWorld()
	ctx := context.Background()
	require.NoError(t, w.Graph.Follow(ctx, "u1", "u2"))

	empty, err := w.Feed.Feed(ctx, "u1", "", 10)
	require.NoError(t, err)
	assert.Empty(t, empty.Items)

	p, err := w.Posts.Create(ctx, "u2", "hello followers")
	require.NoError(t, err)

	res, err := w.Feed.Feed(ctx, "u1", "", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{p.ID}, itemIDs(res))
}

func TestFeedPagination(t *testing.T) {
	w := newWorld()
	follow(t, w, "u1", "u2")
	for i, id := range []string{"a", "b", "c", "d", "e"} {
		seedPost(t, w, id, "u2", time.Duration(i+1)*time.Hour, 0)
	}
	ctx := context.Background()

	first, err := w.Feed.Feed(ctx, "u1", "", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, itemIDs(first))
	require.True(t, first.HasMore)

	// a post landing mid-scroll must not shift later pages
	seedPost(t, w, "late", "u2", 0, 0)

	second, err := w.Feed.Feed(ctx, "u1", first.NextCursor, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "d"}, itemIDs(second))

	third, err := w.Feed.Feed(ctx, "u1", second.NextCursor, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"e"}, itemIDs(third))
	assert.False(t, third.HasMore)
}

func TestFeedFailsWhenFollowedLookupFails(t *testing.T) {
	w := newWorld()
	ctx := context.Background()
	follow(t, w, "u1", "u2")
	seedPost(t, w, "p1", "u2", time.Hour, 0)

	boom := errors.New("boom")
	w.graph.FailFollowedLookups(boom)

	res, err := w.Feed.Feed(ctx, "u1", "", 10)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, utils.CodeInternal, utils.CodeOf(err))
}

func TestFeedServesLastGoodPageWhenFollowedLookupUnavailable(t *testing.T) {
	w := newWorld()
	ctx := context.Background()
	follow(t, w, "u1", "u2")
	seedPost(t, w, "p1", "u2", time.Hour, 0)

	fresh, err := w.Feed.Feed(ctx, "u1", "", 10)
	require.NoError(t, err)
	require.Equal(t, []string{"p1"}, itemIDs(fresh))
	assert.False(t, fresh.Degraded)

	w.graph.FailFollowedLookups(utils.ErrUnavailable)
	_, err = w.versions.Bump(ctx, "u1")
	require.NoError(t, err)

	res, err := w.Feed.Feed(ctx, "u1", "", 10)
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	assert.Equal(t, []string{"p1"}, itemIDs(res))

	w.graph.FailFollowedLookups(nil)
	res, err = w.Feed.Feed(ctx, "u1", "", 10)
	require.NoError(t, err)
	assert.False(t, res.Degraded)
}

func TestFeedUnavailableWithoutLastGoodPage(t *testing.T) {
	w := newWorld()
	w.graph.FailFollowedLookups(utils.ErrUnavailable)

	_, err := w.Feed.Feed(context.Background(), "u1", "", 10)
	require.Error(t, err)
	assert.Equal(t, utils.CodeUnavailable, utils.CodeOf(err))
}
