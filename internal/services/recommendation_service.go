package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yoockh/yoosocial/internal/cache"
	"github.com/yoockh/yoosocial/internal/models"
	"github.com/yoockh/yoosocial/internal/ranking"
	"github.com/yoockh/yoosocial/internal/repositories"
	"github.com/yoockh/yoosocial/internal/utils"
)

const KindRecommendations = "recommendations"

type RecommendationConfig struct {
	PopularityWeight float64
	Timeout          time.Duration
	Ranking          ranking.Config
}

type RecommendationService interface {
	Recommend(ctx context.Context, userID, cursor string, limit int) (*models.RankedResult, error)
}

type recommendationService struct {
	view rankedView[models.LearningModule]
}

func NewRecommendationService(
	modules repositories.ModuleCatalog,
	progress repositories.ProgressRepository,
	prefs PreferenceService,
	agg *cache.Aggregator,
	seen cache.SeenStore,
	cfg RecommendationConfig,
	l *logrus.Logger,
) RecommendationService {
	strategy := &moduleStrategy{modules: modules, progress: progress, prefs: prefs, cfg: cfg}
	return &recommendationService{view: rankedView[models.LearningModule]{
		ranker: ranking.NewRanker[models.LearningModule](strategy, seen, cfg.Ranking, l),
		agg:    agg,
	}}
}

func (s *recommendationService) Recommend(ctx context.Context, userID, cursor string, limit int) (*models.RankedResult, error) {
	const op = "RecommendationService.Recommend"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	return s.view.page(ctx, userID, cursor, limit)
}

// moduleStrategy scores unconsumed catalog modules against the user's
// topic weights, plus a popularity term that alone orders cold starts.
type moduleStrategy struct {
	modules  repositories.ModuleCatalog
	progress repositories.ProgressRepository
	prefs    PreferenceService
	cfg      RecommendationConfig
}

func (s *moduleStrategy) Kind() string { return KindRecommendations }

func (s *moduleStrategy) ItemID(m models.LearningModule) string { return m.ID }

func (s *moduleStrategy) Prepare(ctx context.Context, userID string, _ time.Time) ([]models.LearningModule, ranking.ScoreFunc[models.LearningModule], error) {
	const op = "RecommendationService.prepare"

	var (
		catalog     []models.LearningModule
		records     []models.ProgressRecord
		vector      *models.PreferenceVector
		completions map[string]int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		catalog, err = utils.CallStore(gctx, s.cfg.Timeout, op, func(ctx context.Context) ([]models.LearningModule, error) {
			return s.modules.List(ctx)
		})
		return err
	})
	g.Go(func() (err error) {
		records, err = utils.CallStore(gctx, s.cfg.Timeout, op, func(ctx context.Context) ([]models.ProgressRecord, error) {
			return s.progress.ListByUser(ctx, userID)
		})
		return err
	})
	g.Go(func() (err error) {
		vector, err = s.prefs.GetVector(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		completions, err = utils.CallStore(gctx, s.cfg.Timeout, op, func(ctx context.Context) (map[string]int64, error) {
			return s.progress.CompletionCounts(ctx)
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	completed := make(map[string]struct{}, len(records))
	for _, r := range records {
		if r.Status == models.StatusCompleted {
			completed[r.ModuleID] = struct{}{}
		}
	}

	candidates := make([]models.LearningModule, 0, len(catalog))
	for _, m := range catalog {
		if _, done := completed[m.ID]; !done {
			candidates = append(candidates, m)
		}
	}

	var maxCompletions int64
	for _, n := range completions {
		maxCompletions = max(maxCompletions, n)
	}

	weights := vector.InterestWeights
	score := func(m models.LearningModule) (float64, bool) {
		var interest float64
		if len(m.Topics) > 0 {
			relevance := 1 / float64(len(m.Topics))
			for _, t := range m.Topics {
				interest += weights[t] * relevance
			}
		}
		var popularity float64
		if maxCompletions > 0 {
			popularity = float64(completions[m.ID]) / float64(maxCompletions)
		}
		return interest + s.cfg.PopularityWeight*popularity, true
	}
	return candidates, score, nil
}
