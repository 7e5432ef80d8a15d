package services

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yoockh/yoosocial/internal/cache"
	"github.com/yoockh/yoosocial/internal/models"
	"github.com/yoockh/yoosocial/internal/ranking"
	"github.com/yoockh/yoosocial/internal/repositories"
	"github.com/yoockh/yoosocial/internal/utils"
)

const (
	KindFeed           = "feed"
	graphLookupWorkers = 8
)

type FeedConfig struct {
	HalfLife             time.Duration
	Window               time.Duration
	CandidateLimit       int
	SecondDegreeAffinity float64
	SecondDegreeFanout   int
	Timeout              time.Duration
	Ranking              ranking.Config
}

type FeedService interface {
	Feed(ctx context.Context, userID, cursor string, limit int) (*models.RankedResult, error)
}

type feedService struct {
	view rankedView[models.Post]
}

func NewFeedService(
	graph repositories.SocialGraph,
	posts repositories.PostRepository,
	agg *cache.Aggregator,
	seen cache.SeenStore,
	cfg FeedConfig,
	l *logrus.Logger,
) FeedService {
	if cfg.HalfLife <= 0 {
		cfg.HalfLife = 24 * time.Hour
	}
	if cfg.Window <= 0 {
		cfg.Window = 7 * 24 * time.Hour
	}
	if l == nil {
		l = logrus.New()
	}
	strategy := &postStrategy{graph: graph, posts: posts, cfg: cfg, logger: l}
	return &feedService{view: rankedView[models.Post]{
		ranker: ranking.NewRanker[models.Post](strategy, seen, cfg.Ranking, l),
		agg:    agg,
	}}
}

func (s *feedService) Feed(ctx context.Context, userID, cursor string, limit int) (*models.RankedResult, error) {
	const op = "FeedService.Feed"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "userId is required", nil)
	}
	return s.view.page(ctx, userID, cursor, limit)
}

type postStrategy struct {
	graph  repositories.SocialGraph
	posts  repositories.PostRepository
	cfg    FeedConfig
	logger *logrus.Logger
}

func (s *postStrategy) Kind() string { return KindFeed }

func (s *postStrategy) ItemID(p models.Post) string { return p.ID }

// RecencyDecay halves every halfLife.
func RecencyDecay(age, halfLife time.Duration) float64 {
	if age < 0 {
		age = 0
	}
	return math.Exp2(-age.Seconds() / halfLife.Seconds())
}

func (s *postStrategy) Prepare(ctx context.Context, userID string, asOf time.Time) ([]models.Post, ranking.ScoreFunc[models.Post], error) {
	const op = "FeedService.prepare"

	affinity, err := s.affinities(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	authors := make([]string, 0, len(affinity))
	for id := range affinity {
		authors = append(authors, id)
	}
	sort.Strings(authors)

	posts, err := utils.CallStore(ctx, s.cfg.Timeout, op, func(ctx context.Context) ([]models.Post, error) {
		return s.posts.ByAuthors(ctx, authors, asOf.Add(-s.cfg.Window), s.cfg.CandidateLimit)
	})
	if err != nil {
		return nil, nil, err
	}

	score := func(p models.Post) (float64, bool) {
		a := affinity[p.AuthorID]
		if a <= 0 {
			return 0, false
		}
		engagement := math.Max(0, p.EngagementScore)
		return RecencyDecay(asOf.Sub(p.CreatedAt), s.cfg.HalfLife) * (1 + engagement) * a, true
	}
	return posts, score, nil
}

// affinities maps every author the user may see to a weight in (0, 1].
// Only the followed lookup is required; group and second-degree lookups
// shrink the audience when they fail.
func (s *postStrategy) affinities(ctx context.Context, userID string) (map[string]float64, error) {
	const op = "FeedService.affinities"
	log := s.logger.WithFields(logrus.Fields{"kind": KindFeed, "subject": userID})

	var followed, peers []string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		followed, err = utils.CallStore(gctx, s.cfg.Timeout, op, func(ctx context.Context) ([]string, error) {
			return s.graph.FollowedIDs(ctx, userID)
		})
		return err
	})
	g.Go(func() error {
		found, err := groupPeers(gctx, s.graph, userID, s.cfg.Timeout)
		if err != nil {
			log.WithError(err).Warn("group lookup failed; feed limited to followed users")
			return nil
		}
		peers = found
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	affinity := map[string]float64{userID: 1}
	for _, id := range followed {
		affinity[id] = 1
	}
	for _, id := range peers {
		affinity[id] = 1
	}

	if s.cfg.SecondDegreeAffinity <= 0 || len(followed) == 0 {
		return affinity, nil
	}

	expand := followed
	if s.cfg.SecondDegreeFanout > 0 && len(expand) > s.cfg.SecondDegreeFanout {
		expand = expand[:s.cfg.SecondDegreeFanout]
	}
	var mu sync.Mutex
	second := map[string]struct{}{}
	sg, sctx := errgroup.WithContext(ctx)
	sg.SetLimit(graphLookupWorkers)
	for _, f := range expand {
		sg.Go(func() error {
			ids, err := utils.CallStore(sctx, s.cfg.Timeout, op, func(ctx context.Context) ([]string, error) {
				return s.graph.FollowedIDs(ctx, f)
			})
			if err != nil {
				log.WithError(err).WithField("via", f).Debug("second-degree lookup failed")
				return nil
			}
			mu.Lock()
			for _, id := range ids {
				second[id] = struct{}{}
			}
			mu.Unlock()
			return nil
		})
	}
	_ = sg.Wait()

	for id := range second {
		if _, direct := affinity[id]; !direct {
			affinity[id] = s.cfg.SecondDegreeAffinity
		}
	}
	return affinity, nil
}

// groupPeers returns everyone sharing a group with userID.
func groupPeers(ctx context.Context, graph repositories.SocialGraph, userID string, timeout time.Duration) ([]string, error) {
	const op = "groupPeers"

	groups, err := utils.CallStore(ctx, timeout, op, func(ctx context.Context) ([]string, error) {
		return graph.GroupIDsOf(ctx, userID)
	})
	if err != nil || len(groups) == 0 {
		return nil, err
	}

	var mu sync.Mutex
	peers := map[string]struct{}{}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(graphLookupWorkers)
	for _, groupID := range groups {
		g.Go(func() error {
			members, err := utils.CallStore(gctx, timeout, op, func(ctx context.Context) ([]string, error) {
				return graph.GroupMemberIDs(ctx, groupID)
			})
			if err != nil {
				return err
			}
			mu.Lock()
			for _, id := range members {
				if id != userID {
					peers[id] = struct{}{}
				}
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(peers))
	for id := range peers {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}
