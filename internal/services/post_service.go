package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/yoosocial/internal/events"
	"github.com/yoockh/yoosocial/internal/idgen"
	"github.com/yoockh/yoosocial/internal/models"
	"github.com/yoockh/yoosocial/internal/repositories"
	"github.com/yoockh/yoosocial/internal/utils"
)

const maxPostLength = 8000

type PostService interface {
	Create(ctx context.Context, authorID, text string) (*models.Post, error)
	Get(ctx context.Context, postID string) (*models.Post, error)
	RefreshEngagement(ctx context.Context, postID string, score float64) (*models.Post, error)
}

type postService struct {
	posts   repositories.PostRepository
	graph   repositories.SocialGraph
	users   UserService
	events  events.Publisher
	timeout time.Duration
	logger  *logrus.Logger
	now     func() time.Time
}

func NewPostService(
	posts repositories.PostRepository,
	graph repositories.SocialGraph,
	users UserService,
	pub events.Publisher,
	timeout time.Duration,
	l *logrus.Logger,
) PostService {
	if l == nil {
		l = logrus.New()
	}
	return &postService{
		posts:   posts,
		graph:   graph,
		users:   users,
		events:  pub,
		timeout: timeout,
		logger:  l,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *postService) Create(ctx context.Context, authorID, text string) (*models.Post, error) {
	const op = "PostService.Create"

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "text is required", nil)
	}
	if utf8.RuneCountInString(text) > maxPostLength {
		return nil, utils.E(utils.CodeInvalidArgument, op, "text is too long", nil)
	}
	if err := s.users.RequireUsers(ctx, authorID); err != nil {
		return nil, err
	}

	p := &models.Post{
		ID:        idgen.New(),
		AuthorID:  authorID,
		Text:      text,
		CreatedAt: s.now(),
	}
	wctx, cancel := withStoreTimeout(ctx, s.timeout)
	err := s.posts.Create(wctx, p)
	cancel()
	if err != nil {
		return nil, utils.Wrap(utils.CodeInternal, op, "failed to create post", err)
	}

	s.events.Publish(ctx, events.PostCreated{
		PostID:   p.ID,
		AuthorID: authorID,
		Audience: s.audience(ctx, authorID),
		At:       p.CreatedAt,
	})
	return p, nil
}

// audience is every user whose feed gives the author full affinity.
// Second-degree readers are left to the cache TTL.
func (s *postService) audience(ctx context.Context, authorID string) []string {
	const op = "PostService.audience"
	log := s.logger.WithField("author_id", authorID)

	followers, err := utils.CallStore(ctx, s.timeout, op, func(ctx context.Context) ([]string, error) {
		return s.graph.FollowerIDs(ctx, authorID)
	})
	if err != nil {
		log.WithError(err).Warn("follower lookup failed; followers' feeds refresh on expiry")
	}
	peers, err := groupPeers(ctx, s.graph, authorID, s.timeout)
	if err != nil {
		log.WithError(err).Warn("group lookup failed; group feeds refresh on expiry")
	}
	return append(followers, peers...)
}

func (s *postService) Get(ctx context.Context, postID string) (*models.Post, error) {
	const op = "PostService.Get"

	if postID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "post_id is required", nil)
	}
	p, err := utils.CallStore(ctx, s.timeout, op, func(ctx context.Context) (*models.Post, error) {
		return s.posts.GetByID(ctx, postID)
	})
	if errors.Is(err, utils.ErrNotFound) {
		return nil, utils.E(utils.CodeNotFound, op, "post not found", err)
	}
	if err != nil {
		return nil, utils.Wrap(utils.CodeInternal, op, "failed to get post", err)
	}
	return p, nil
}

// RefreshEngagement records an externally computed engagement score.
// Cached feeds pick it up when they expire.
func (s *postService) RefreshEngagement(ctx context.Context, postID string, score float64) (*models.Post, error) {
	const op = "PostService.RefreshEngagement"

	if score < 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "engagement score must not be negative", nil)
	}
	if _, err := s.Get(ctx, postID); err != nil {
		return nil, err
	}

	wctx, cancel := withStoreTimeout(ctx, s.timeout)
	err := s.posts.UpdateEngagement(wctx, postID, score)
	cancel()
	if errors.Is(err, utils.ErrNotFound) {
		return nil, utils.E(utils.CodeNotFound, op, "post not found", err)
	}
	if err != nil {
		return nil, utils.Wrap(utils.CodeInternal, op, "failed to update engagement", err)
	}
	return s.Get(ctx, postID)
}
