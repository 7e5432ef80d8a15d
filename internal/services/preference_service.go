package services

import (
	"context"
	"errors"
	"time"

	"github.com/yoockh/yoosocial/internal/events"
	"github.com/yoockh/yoosocial/internal/models"
	"github.com/yoockh/yoosocial/internal/repositories"
	"github.com/yoockh/yoosocial/internal/syncx"
	"github.com/yoockh/yoosocial/internal/utils"
)

type PreferenceConfig struct {
	CompletionIncrement float64
	StartIncrement      float64
	ExplicitIncrement   float64
	ExplicitFloor       float64
	DecayFactor         float64
	PruneBelow          float64
	Timeout             time.Duration
}

type PreferenceService interface {
	GetVector(ctx context.Context, userID string) (*models.PreferenceVector, error)
	EditExplicit(ctx context.Context, userID string, add, remove []string) (*models.PreferenceVector, error)
	ApplyDecay(ctx context.Context, userID string) error
	Recompute(ctx context.Context, userID string) (*models.PreferenceVector, error)
	// HandleEvent folds progress transitions into the user's vector.
	HandleEvent(ctx context.Context, e events.Event) error
	ForEachUser(ctx context.Context, fn func(ctx context.Context, userID string) error) error
}

type preferenceService struct {
	prefs    repositories.PreferenceRepository
	progress repositories.ProgressRepository
	modules  repositories.ModuleCatalog
	events   events.Publisher
	cfg      PreferenceConfig
	locks    *syncx.KeyedMutex
	now      func() time.Time
}

func NewPreferenceService(
	prefs repositories.PreferenceRepository,
	progress repositories.ProgressRepository,
	modules repositories.ModuleCatalog,
	pub events.Publisher,
	cfg PreferenceConfig,
) PreferenceService {
	return &preferenceService{
		prefs:    prefs,
		progress: progress,
		modules:  modules,
		events:   pub,
		cfg:      cfg,
		locks:    syncx.NewKeyedMutex(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *preferenceService) GetVector(ctx context.Context, userID string) (*models.PreferenceVector, error) {
	const op = "PreferenceService.GetVector"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	return s.load(ctx, op, userID)
}

func (s *preferenceService) load(ctx context.Context, op, userID string) (*models.PreferenceVector, error) {
	v, err := utils.CallStore(ctx, s.cfg.Timeout, op, func(ctx context.Context) (*models.PreferenceVector, error) {
		return s.prefs.Get(ctx, userID)
	})
	if errors.Is(err, utils.ErrNotFound) {
		return models.NewPreferenceVector(userID), nil
	}
	if err != nil {
		return nil, utils.Wrap(utils.CodeInternal, op, "failed to load preferences", err)
	}
	return v, nil
}

// mutate applies fn to a copy of the latest vector and commits it against
// the revision it was read at. Writers for one user are serialized here
// and, across processes, by the revision check.
func (s *preferenceService) mutate(ctx context.Context, op, userID string, fn func(v *models.PreferenceVector) bool) (*models.PreferenceVector, bool, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	for attempt := 0; attempt < maxTransitionAttempts; attempt++ {
		current, err := s.load(ctx, op, userID)
		if err != nil {
			return nil, false, err
		}
		next := current.Clone()
		if !fn(next) {
			return current, false, nil
		}
		next.LastUpdated = s.now()

		wctx, cancel := withStoreTimeout(ctx, s.cfg.Timeout)
		ok, err := s.prefs.Save(wctx, next, current.Revision)
		cancel()
		if err != nil {
			return nil, false, utils.Wrap(utils.CodeInternal, op, "failed to save preferences", err)
		}
		if ok {
			return next, true, nil
		}
	}
	return nil, false, utils.E(utils.CodeConflict, op, "preferences are being updated concurrently, retry", nil)
}

func (s *preferenceService) EditExplicit(ctx context.Context, userID string, add, remove []string) (*models.PreferenceVector, error) {
	const op = "PreferenceService.EditExplicit"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	add, remove = NormalizeTopics(add), NormalizeTopics(remove)
	if len(add) == 0 && len(remove) == 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "no interests provided for update", nil)
	}

	v, changed, err := s.mutate(ctx, op, userID, func(v *models.PreferenceVector) bool {
		for _, t := range add {
			v.InterestWeights[t] += s.cfg.ExplicitIncrement
			v.MarkExplicit(t)
		}
		for _, t := range remove {
			delete(v.InterestWeights, t)
			v.UnmarkExplicit(t)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.events.Publish(ctx, events.PreferenceEdited{UserID: userID, Reason: "explicit"})
	}
	return v, nil
}

func (s *preferenceService) ApplyDecay(ctx context.Context, userID string) error {
	const op = "PreferenceService.ApplyDecay"

	_, changed, err := s.mutate(ctx, op, userID, func(v *models.PreferenceVector) bool {
		changed := false
		for t, w := range v.InterestWeights {
			nw := w * s.cfg.DecayFactor
			if v.IsExplicit(t) {
				if nw < s.cfg.ExplicitFloor {
					nw = s.cfg.ExplicitFloor
				}
			} else if nw < s.cfg.PruneBelow {
				delete(v.InterestWeights, t)
				changed = true
				continue
			}
			if nw != w {
				v.InterestWeights[t] = nw
				changed = true
			}
		}
		return changed
	})
	if err != nil {
		return err
	}
	if changed {
		s.events.Publish(ctx, events.PreferenceEdited{UserID: userID, Reason: "decay"})
	}
	return nil
}

func (s *preferenceService) Recompute(ctx context.Context, userID string) (*models.PreferenceVector, error) {
	const op = "PreferenceService.Recompute"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	records, err := utils.CallStore(ctx, s.cfg.Timeout, op, func(ctx context.Context) ([]models.ProgressRecord, error) {
		return s.progress.ListByUser(ctx, userID)
	})
	if err != nil {
		return nil, utils.Wrap(utils.CodeInternal, op, "failed to load progress", err)
	}
	catalog, err := utils.CallStore(ctx, s.cfg.Timeout, op, func(ctx context.Context) ([]models.LearningModule, error) {
		return s.modules.List(ctx)
	})
	if err != nil {
		return nil, utils.Wrap(utils.CodeInternal, op, "failed to load modules", err)
	}
	topics := make(map[string][]string, len(catalog))
	for _, m := range catalog {
		topics[m.ID] = m.Topics
	}

	inferred := map[string]float64{}
	for _, rec := range records {
		var inc float64
		switch rec.Status {
		case models.StatusInProgress:
			inc = s.cfg.StartIncrement
		case models.StatusCompleted:
			inc = s.cfg.StartIncrement + s.cfg.CompletionIncrement
		}
		for _, t := range topics[rec.ModuleID] {
			inferred[t] += inc
		}
	}

	v, _, err := s.mutate(ctx, op, userID, func(v *models.PreferenceVector) bool {
		weights := make(map[string]float64, len(inferred)+len(v.ExplicitTopics))
		for t, w := range inferred {
			weights[t] = w
		}
		for _, t := range v.ExplicitTopics {
			weights[t] += s.cfg.ExplicitIncrement
		}
		v.InterestWeights = weights
		return true
	})
	if err != nil {
		return nil, err
	}
	s.events.Publish(ctx, events.PreferenceEdited{UserID: userID, Reason: "recompute"})
	return v, nil
}

func (s *preferenceService) HandleEvent(ctx context.Context, e events.Event) error {
	const op = "PreferenceService.HandleEvent"

	pc, ok := e.(events.ProgressChanged)
	if !ok {
		return nil
	}

	var inc float64
	switch {
	case pc.To == models.StatusCompleted:
		inc = s.cfg.CompletionIncrement
	case pc.From == models.StatusNotStarted && pc.To == models.StatusInProgress:
		inc = s.cfg.StartIncrement
	default:
		return nil
	}

	m, err := utils.CallStore(ctx, s.cfg.Timeout, op, func(ctx context.Context) (*models.LearningModule, error) {
		return s.modules.Get(ctx, pc.ModuleID)
	})
	if err != nil {
		return utils.Wrap(utils.CodeInternal, op, "failed to load module", err)
	}
	if len(m.Topics) == 0 {
		return nil
	}

	_, _, err = s.mutate(ctx, op, pc.UserID, func(v *models.PreferenceVector) bool {
		for _, t := range m.Topics {
			v.InterestWeights[t] += inc
		}
		return true
	})
	return err
}

const userPageSize = 500

func (s *preferenceService) ForEachUser(ctx context.Context, fn func(ctx context.Context, userID string) error) error {
	const op = "PreferenceService.ForEachUser"

	after := ""
	for {
		ids, err := utils.CallStore(ctx, s.cfg.Timeout, op, func(ctx context.Context) ([]string, error) {
			return s.prefs.ListUserIDs(ctx, after, userPageSize)
		})
		if err != nil {
			return utils.Wrap(utils.CodeInternal, op, "failed to list users", err)
		}
		for _, id := range ids {
			if err := fn(ctx, id); err != nil {
				return err
			}
		}
		if len(ids) < userPageSize {
			return nil
		}
		after = ids[len(ids)-1]
	}
}
