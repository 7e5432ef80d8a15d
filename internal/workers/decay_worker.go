package workers

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yoockh/yoosocial/internal/services"
)

const defaultLockKey = "worker:preference-decay:lock"

// DecayWorker periodically applies the decay factor to every stored
// preference vector. With Redis set, only one instance runs per interval.
type DecayWorker struct {
	Redis       *redis.Client
	Preferences services.PreferenceService
	NumWorkers  int
	Interval    time.Duration

	Logger *logrus.Logger

	LockKey string

	wg sync.WaitGroup
}

func (w *DecayWorker) Start(ctx context.Context) error {
	if w.Preferences == nil {
		return errors.New("DecayWorker missing dependency: Preferences must be set")
	}
	if w.Interval <= 0 {
		w.Interval = 24 * time.Hour
	}
	if w.NumWorkers <= 0 {
		w.NumWorkers = 4
	}
	if w.LockKey == "" {
		w.LockKey = defaultLockKey
	}
	if w.Logger == nil {
		w.Logger = logrus.New()
	}

	w.wg.Add(1)
	go w.loop(ctx)
	return nil
}

// Wait blocks until the loop started by Start has returned.
func (w *DecayWorker) Wait() { w.wg.Wait() }

func (w *DecayWorker) loop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		acquired, err := w.acquire(ctx)
		if err != nil {
			w.Logger.WithError(err).Warn("decay lock unavailable; skipping run")
			continue
		}
		if !acquired {
			continue
		}
		if _, err := w.RunOnce(ctx); err != nil && ctx.Err() == nil {
			w.Logger.WithError(err).Error("preference decay run failed")
		}
	}
}

func (w *DecayWorker) acquire(ctx context.Context) (bool, error) {
	if w.Redis == nil {
		return true, nil
	}
	// held for most of the interval so a slower peer cannot start the same run
	return w.Redis.SetNX(ctx, w.LockKey, time.Now().UTC().Format(time.RFC3339), w.Interval*9/10).Result()
}

// RunOnce decays every stored vector and returns how many were visited.
// A failure for one user is logged and does not stop the run.
func (w *DecayWorker) RunOnce(ctx context.Context) (int, error) {
	start := time.Now()
	limit := w.NumWorkers
	if limit <= 0 {
		limit = 1
	}

	var visited, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	err := w.Preferences.ForEachUser(gctx, func(ctx context.Context, userID string) error {
		visited.Add(1)
		g.Go(func() error {
			if err := w.Preferences.ApplyDecay(ctx, userID); err != nil {
				failed.Add(1)
				w.logger().WithError(err).WithField("user_id", userID).Warn("decay failed")
			}
			return nil
		})
		return nil
	})
	werr := g.Wait()

	w.logger().WithFields(logrus.Fields{
		"users":      visited.Load(),
		"failed":     failed.Load(),
		"latency_ms": time.Since(start).Milliseconds(),
	}).Info("preference decay run")

	return int(visited.Load()), errors.Join(err, werr)
}

func (w *DecayWorker) logger() *logrus.Logger {
	if w.Logger == nil {
		return logrus.StandardLogger()
	}
	return w.Logger
}
