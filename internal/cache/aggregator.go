package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/yoockh/yoosocial/internal/events"
	"github.com/yoockh/yoosocial/internal/models"
	"github.com/yoockh/yoosocial/internal/utils"
)

// Key identifies one ranked page before versioning. Cursor also carries
// the page size so different limits never share an entry.
type Key struct {
	Subject string
	Kind    string
	Cursor  string
}

func (k Key) versioned(version int64) string {
	return fmt.Sprintf("agg:%s:%s:v%d:%s", k.Kind, k.Subject, version, k.Cursor)
}

func (k Key) lastGood() string {
	return fmt.Sprintf("agg:last:%s:%s:%s", k.Kind, k.Subject, k.Cursor)
}

type ComputeFunc func(ctx context.Context) (*models.RankedResult, error)

type AggregatorConfig struct {
	TTL         time.Duration
	FallbackTTL time.Duration
	Timeout     time.Duration
}

// Aggregator memoizes ranked pages per (subject, kind, cursor, version).
// Writers invalidate by bumping the subject version; stale entries are
// never read again and age out by TTL.
type Aggregator struct {
	cache    Cache
	versions VersionStore
	cfg      AggregatorConfig
	logger   *logrus.Logger
	group    singleflight.Group
}

func NewAggregator(c Cache, v VersionStore, cfg AggregatorConfig, l *logrus.Logger) *Aggregator {
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	if cfg.FallbackTTL < cfg.TTL {
		cfg.FallbackTTL = cfg.TTL
	}
	if l == nil {
		l = logrus.New()
	}
	return &Aggregator{cache: c, versions: v, cfg: cfg, logger: l}
}

func (a *Aggregator) Get(ctx context.Context, k Key, compute ComputeFunc) (*models.RankedResult, error) {
	const op = "Aggregator.Get"
	log := a.logger.WithFields(logrus.Fields{"kind": k.Kind, "subject": k.Subject})

	version, err := utils.CallStore(ctx, a.cfg.Timeout, op, func(ctx context.Context) (int64, error) {
		return a.versions.Current(ctx, k.Subject)
	})
	if err != nil {
		log.WithError(err).Warn("version lookup failed; computing without cache")
		return a.computeDirect(ctx, k, compute)
	}

	key := k.versioned(version)
	cached, err := a.read(ctx, key)
	if err != nil {
		log.WithError(err).Warn("cache read failed")
	}
	if cached != nil {
		return cached, nil
	}

	v, err, _ := a.group.Do(key, func() (any, error) {
		res, err := compute(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		res.CacheVersion = version
		a.write(ctx, key, res, a.cfg.TTL, log)
		a.write(ctx, k.lastGood(), res, a.cfg.FallbackTTL, log)
		return res, nil
	})
	if err != nil {
		if utils.IsUnavailable(err) {
			if fb := a.fallback(ctx, k, log); fb != nil {
				return fb, nil
			}
		}
		return nil, err
	}
	return v.(*models.RankedResult), nil
}

// Invalidate makes every cached page of subject unreachable.
func (a *Aggregator) Invalidate(ctx context.Context, subject string) error {
	_, err := utils.CallStore(ctx, a.cfg.Timeout, "Aggregator.Invalidate", func(ctx context.Context) (int64, error) {
		return a.versions.Bump(ctx, subject)
	})
	return err
}

// HandleEvent invalidates every subject of an invalidating event.
func (a *Aggregator) HandleEvent(ctx context.Context, e events.Event) error {
	seen := map[string]struct{}{}
	var errs error
	for _, s := range e.Subjects() {
		if _, dup := seen[s]; dup || s == "" {
			continue
		}
		seen[s] = struct{}{}
		errs = errors.Join(errs, a.Invalidate(ctx, s))
	}
	return errs
}

func (a *Aggregator) computeDirect(ctx context.Context, k Key, compute ComputeFunc) (*models.RankedResult, error) {
	res, err := compute(ctx)
	if err == nil {
		return res, nil
	}
	if utils.IsUnavailable(err) {
		if fb := a.fallback(ctx, k, a.logger.WithField("kind", k.Kind)); fb != nil {
			return fb, nil
		}
	}
	return nil, err
}

func (a *Aggregator) read(ctx context.Context, key string) (*models.RankedResult, error) {
	return utils.CallStore(ctx, a.cfg.Timeout, "Aggregator.read", func(ctx context.Context) (*models.RankedResult, error) {
		var res models.RankedResult
		hit, err := a.cache.GetJSON(ctx, key, &res)
		if err != nil || !hit {
			return nil, err
		}
		return &res, nil
	})
}

func (a *Aggregator) write(ctx context.Context, key string, res *models.RankedResult, ttl time.Duration, log *logrus.Entry) {
	_, err := utils.CallStore(context.WithoutCancel(ctx), a.cfg.Timeout, "Aggregator.write", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, a.cache.SetJSON(ctx, key, res, ttl)
	})
	if err != nil {
		log.WithError(err).Warn("cache write failed")
	}
}

func (a *Aggregator) fallback(ctx context.Context, k Key, log *logrus.Entry) *models.RankedResult {
	res, err := a.read(ctx, k.lastGood())
	if err != nil || res == nil {
		return nil
	}
	log.Warn("serving last known result")
	res.Degraded = true
	return res
}
