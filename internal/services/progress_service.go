package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yoockh/yoosocial/internal/events"
	"github.com/yoockh/yoosocial/internal/models"
	"github.com/yoockh/yoosocial/internal/repositories"
	"github.com/yoockh/yoosocial/internal/syncx"
	"github.com/yoockh/yoosocial/internal/utils"
)

const maxTransitionAttempts = 3

type ProgressService interface {
	Update(ctx context.Context, userID, moduleID string, status models.ProgressStatus) (*models.ProgressRecord, error)
	Get(ctx context.Context, userID, moduleID string) (*models.ProgressRecord, error)
	List(ctx context.Context, userID string) ([]models.ProgressRecord, error)
}

type progressService struct {
	progress repositories.ProgressRepository
	modules  repositories.ModuleCatalog
	users    UserService
	events   events.Publisher
	locks    *syncx.KeyedMutex
	timeout  time.Duration
	now      func() time.Time
}

func NewProgressService(
	progress repositories.ProgressRepository,
	modules repositories.ModuleCatalog,
	users UserService,
	pub events.Publisher,
	timeout time.Duration,
) ProgressService {
	return &progressService{
		progress: progress,
		modules:  modules,
		users:    users,
		events:   pub,
		locks:    syncx.NewKeyedMutex(),
		timeout:  timeout,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// allowed lists every accepted state change. Same-state requests are
// handled separately as no-ops.
var allowed = map[models.ProgressStatus]map[models.ProgressStatus]bool{
	models.StatusNotStarted: {models.StatusInProgress: true},
	models.StatusInProgress: {models.StatusCompleted: true},
	models.StatusCompleted:  {models.StatusInProgress: true},
}

func invalidTransition(op string, from, to models.ProgressStatus) error {
	return utils.E(utils.CodeInvalidTransition, op, fmt.Sprintf("invalid transition: %s -> %s", from, to), nil)
}

func (s *progressService) Update(ctx context.Context, userID, moduleID string, status models.ProgressStatus) (*models.ProgressRecord, error) {
	const op = "ProgressService.Update"

	if userID == "" || moduleID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id and module_id are required", nil)
	}
	if !status.Valid() {
		return nil, utils.E(utils.CodeInvalidArgument, op, "status must be one of not_started, in_progress, completed", nil)
	}
	if _, err := s.module(ctx, moduleID); err != nil {
		return nil, err
	}
	if err := s.users.RequireUsers(ctx, userID); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(userID + "\x00" + moduleID)
	defer unlock()

	for attempt := 0; attempt < maxTransitionAttempts; attempt++ {
		current, exists, err := s.load(ctx, userID, moduleID)
		if err != nil {
			return nil, err
		}

		if current.Status == status {
			return current, nil
		}
		if !allowed[current.Status][status] {
			return nil, invalidTransition(op, current.Status, status)
		}

		next := s.apply(current, status)
		ok, err := s.commit(ctx, next, current, exists)
		if err != nil {
			return nil, utils.Wrap(utils.CodeInternal, op, "failed to save progress", err)
		}
		if !ok {
			// another writer got there first; re-evaluate against its state
			continue
		}

		s.events.Publish(ctx, events.ProgressChanged{
			UserID:   userID,
			ModuleID: moduleID,
			From:     current.Status,
			To:       status,
			At:       next.UpdatedAt,
		})
		return next, nil
	}
	return nil, utils.E(utils.CodeConflict, op, "progress is being updated concurrently, retry", nil)
}

func (s *progressService) apply(current *models.ProgressRecord, to models.ProgressStatus) *models.ProgressRecord {
	// updated_at is the CAS token: strictly increasing, microsecond precision.
	now := s.now().Truncate(time.Microsecond)
	if !now.After(current.UpdatedAt) {
		now = current.UpdatedAt.Add(time.Microsecond)
	}
	next := *current
	next.Status = to
	next.UpdatedAt = now

	switch to {
	case models.StatusInProgress:
		if next.StartedAt == nil {
			next.StartedAt = &now
		}
		// resume clears the previous completion
		next.CompletedAt = nil
	case models.StatusCompleted:
		next.CompletedAt = &now
	}
	return &next
}

func (s *progressService) commit(ctx context.Context, next, current *models.ProgressRecord, exists bool) (bool, error) {
	ctx, cancel := withStoreTimeout(ctx, s.timeout)
	defer cancel()

	if !exists {
		return s.progress.InsertIfAbsent(ctx, next)
	}
	return s.progress.CompareAndSet(ctx, next, current)
}

// load returns the stored record, or a not_started placeholder.
func (s *progressService) load(ctx context.Context, userID, moduleID string) (*models.ProgressRecord, bool, error) {
	const op = "ProgressService.load"

	rec, err := utils.CallStore(ctx, s.timeout, op, func(ctx context.Context) (*models.ProgressRecord, error) {
		return s.progress.Get(ctx, userID, moduleID)
	})
	if errors.Is(err, utils.ErrNotFound) {
		return &models.ProgressRecord{UserID: userID, ModuleID: moduleID, Status: models.StatusNotStarted}, false, nil
	}
	if err != nil {
		return nil, false, utils.Wrap(utils.CodeInternal, op, "failed to load progress", err)
	}
	return rec, true, nil
}

func (s *progressService) module(ctx context.Context, moduleID string) (*models.LearningModule, error) {
	const op = "ProgressService.module"

	m, err := utils.CallStore(ctx, s.timeout, op, func(ctx context.Context) (*models.LearningModule, error) {
		return s.modules.Get(ctx, moduleID)
	})
	if errors.Is(err, utils.ErrNotFound) {
		return nil, utils.E(utils.CodeNotFound, op, "module not found", err)
	}
	if err != nil {
		return nil, utils.Wrap(utils.CodeInternal, op, "failed to load module", err)
	}
	return m, nil
}

func (s *progressService) Get(ctx context.Context, userID, moduleID string) (*models.ProgressRecord, error) {
	const op = "ProgressService.Get"

	if userID == "" || moduleID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id and module_id are required", nil)
	}
	if _, err := s.module(ctx, moduleID); err != nil {
		return nil, err
	}
	rec, _, err := s.load(ctx, userID, moduleID)
	return rec, err
}

func (s *progressService) List(ctx context.Context, userID string) ([]models.ProgressRecord, error) {
	const op = "ProgressService.List"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	rows, err := utils.CallStore(ctx, s.timeout, op, func(ctx context.Context) ([]models.ProgressRecord, error) {
		return s.progress.ListByUser(ctx, userID)
	})
	if err != nil {
		return nil, utils.Wrap(utils.CodeInternal, op, "failed to list progress", err)
	}
	return rows, nil
}
