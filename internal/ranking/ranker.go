// Package ranking turns candidates and a scoring rule into stable,
// cursor-paginated pages. Recommendations and the feed are both built on it.
package ranking

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/yoosocial/internal/cache"
	"github.com/yoockh/yoosocial/internal/models"
	"github.com/yoockh/yoosocial/internal/utils"
)

// ScoreFunc scores one candidate. Ineligible candidates are dropped.
type ScoreFunc[T any] func(item T) (score float64, eligible bool)

// Strategy supplies the candidates for a subject and how to score them at
// a fixed reference time.
type Strategy[T any] interface {
	Kind() string
	Prepare(ctx context.Context, subjectID string, asOf time.Time) ([]T, ScoreFunc[T], error)
	ItemID(item T) string
}

type Config struct {
	DefaultLimit int
	MaxLimit     int
	// Resolution truncates the first page's reference time so repeated
	// first-page requests score identically.
	Resolution time.Duration
	SeenTTL    time.Duration
	Timeout    time.Duration
}

type Ranker[T any] struct {
	strategy Strategy[T]
	seen     cache.SeenStore
	cfg      Config
	logger   *logrus.Logger
	now      func() time.Time
}

func NewRanker[T any](s Strategy[T], seen cache.SeenStore, cfg Config, l *logrus.Logger) *Ranker[T] {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 20
	}
	if cfg.MaxLimit < cfg.DefaultLimit {
		cfg.MaxLimit = cfg.DefaultLimit
	}
	if cfg.SeenTTL <= 0 {
		cfg.SeenTTL = 30 * time.Minute
	}
	if l == nil {
		l = logrus.New()
	}
	return &Ranker[T]{strategy: s, seen: seen, cfg: cfg, logger: l, now: time.Now}
}

func (r *Ranker[T]) Kind() string { return r.strategy.Kind() }

// WithClock replaces the time source.
func (r *Ranker[T]) WithClock(now func() time.Time) *Ranker[T] {
	r.now = now
	return r
}

// Limit clamps a requested page size.
func (r *Ranker[T]) Limit(limit int) int {
	switch {
	case limit <= 0:
		return r.cfg.DefaultLimit
	case limit > r.cfg.MaxLimit:
		return r.cfg.MaxLimit
	}
	return limit
}

func (r *Ranker[T]) seenKey(subjectID, session string, page int) string {
	return fmt.Sprintf("seen:%s:%s:%s:%d", r.strategy.Kind(), subjectID, session, page)
}

func (r *Ranker[T]) Page(ctx context.Context, subjectID, rawCursor string, limit int) (*models.RankedResult, error) {
	const op = "Ranker.Page"
	log := r.logger.WithFields(logrus.Fields{"kind": r.strategy.Kind(), "subject": subjectID})

	cur, err := DecodeCursor(rawCursor)
	if err != nil {
		return nil, err
	}
	limit = r.Limit(limit)

	asOf := r.now().UTC()
	if r.cfg.Resolution > 0 {
		asOf = asOf.Truncate(r.cfg.Resolution)
	}
	session, page := uuid.NewString(), 0
	if cur != nil {
		asOf = time.Unix(0, cur.AsOf).UTC()
		session, page = cur.Session, cur.Page
	}

	items, score, err := r.strategy.Prepare(ctx, subjectID, asOf)
	if err != nil {
		return nil, utils.Wrap(utils.CodeInternal, op, "failed to rank items", err)
	}

	var seen map[string]struct{}
	if cur != nil && r.seen != nil {
		seen, err = utils.CallStore(ctx, r.cfg.Timeout, op, func(ctx context.Context) (map[string]struct{}, error) {
			return r.seen.Members(ctx, r.seenKey(subjectID, session, page))
		})
		if err != nil {
			log.WithError(err).Warn("seen-set lookup failed; relying on cursor position only")
		}
	}

	best := make(map[string]float64, len(items))
	for _, item := range items {
		s, ok := score(item)
		if !ok {
			continue
		}
		id := r.strategy.ItemID(item)
		if prev, dup := best[id]; !dup || s > prev {
			best[id] = s
		}
	}

	ranked := make([]models.RankedItem, 0, len(best))
	for id, s := range best {
		if _, served := seen[id]; served {
			continue
		}
		if cur != nil && !cur.After(s, id) {
			continue
		}
		ranked = append(ranked, models.RankedItem{ItemID: id, Score: s})
	}
	sort.Slice(ranked, func(i, j int) bool {
		return Before(ranked[i].Score, ranked[i].ItemID, ranked[j].Score, ranked[j].ItemID)
	})

	hasMore := len(ranked) > limit
	if hasMore {
		ranked = ranked[:limit]
	}

	res := &models.RankedResult{
		SubjectID:  subjectID,
		Kind:       r.strategy.Kind(),
		Items:      ranked,
		HasMore:    hasMore,
		ComputedAt: r.now().UTC(),
	}
	if !hasMore {
		return res, nil
	}

	last := ranked[len(ranked)-1]
	next := Cursor{Score: last.Score, ItemID: last.ItemID, AsOf: asOf.UnixNano(), Session: session, Page: page + 1}
	res.NextCursor = next.Encode()

	if r.seen != nil {
		from := ""
		if cur != nil {
			from = r.seenKey(subjectID, session, page)
		}
		ids := make([]string, len(ranked))
		for i, it := range ranked {
			ids[i] = it.ItemID
		}
		_, err := utils.CallStore(ctx, r.cfg.Timeout, op, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, r.seen.Extend(ctx, from, r.seenKey(subjectID, session, page+1), ids, r.cfg.SeenTTL)
		})
		if err != nil {
			log.WithError(err).Warn("seen-set update failed")
		}
	}
	return res, nil
}
