package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/yoockh/yoosocial/internal/idgen"
	"github.com/yoockh/yoosocial/internal/models"
	"github.com/yoockh/yoosocial/internal/repositories"
	"github.com/yoockh/yoosocial/internal/utils"
)

type CreateModuleInput struct {
	Title                    string
	Description              string
	ContentType              string
	ContentURL               string
	EstimatedDurationMinutes int
	Difficulty               string
	Topics                   []string
}

type ModuleService interface {
	Create(ctx context.Context, in CreateModuleInput) (*models.LearningModule, error)
	Get(ctx context.Context, moduleID string) (*models.LearningModule, error)
	List(ctx context.Context) ([]models.LearningModule, error)
}

type moduleService struct {
	modules repositories.ModuleCatalog
	timeout time.Duration
}

func NewModuleService(modules repositories.ModuleCatalog, timeout time.Duration) ModuleService {
	return &moduleService{modules: modules, timeout: timeout}
}

// DeriveTopics picks interest tags from a title: lower-cased words longer
// than three letters, first occurrence wins.
func DeriveTopics(title string) []string {
	words := strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make([]string, 0, len(words))
	for _, w := range words {
		if len([]rune(w)) > 3 {
			out = append(out, w)
		}
	}
	return NormalizeTopics(out)
}

// NormalizeTopics trims, lower-cases and de-duplicates, keeping order.
func NormalizeTopics(topics []string) []string {
	seen := make(map[string]struct{}, len(topics))
	out := make([]string, 0, len(topics))
	for _, t := range topics {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func (s *moduleService) Create(ctx context.Context, in CreateModuleInput) (*models.LearningModule, error) {
	const op = "ModuleService.Create"

	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" || strings.TrimSpace(in.ContentType) == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "title and content_type are required", nil)
	}
	if in.EstimatedDurationMinutes < 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "estimated duration must not be negative", nil)
	}

	topics := NormalizeTopics(in.Topics)
	if len(topics) == 0 {
		topics = DeriveTopics(in.Title)
	}

	m := &models.LearningModule{
		ID:                       idgen.New(),
		Title:                    in.Title,
		Description:              in.Description,
		ContentType:              strings.TrimSpace(in.ContentType),
		ContentURL:               in.ContentURL,
		EstimatedDurationMinutes: in.EstimatedDurationMinutes,
		Difficulty:               in.Difficulty,
		Topics:                   topics,
		CreatedAt:                time.Now().UTC(),
	}

	wctx, cancel := withStoreTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.modules.Create(wctx, m); err != nil {
		if errors.Is(err, utils.ErrConflict) {
			return nil, utils.E(utils.CodeConflict, op, "module already exists", err)
		}
		return nil, utils.Wrap(utils.CodeInternal, op, "failed to create module", err)
	}
	return m, nil
}

func (s *moduleService) Get(ctx context.Context, moduleID string) (*models.LearningModule, error) {
	const op = "ModuleService.Get"

	if moduleID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "module_id is required", nil)
	}
	m, err := utils.CallStore(ctx, s.timeout, op, func(ctx context.Context) (*models.LearningModule, error) {
		return s.modules.Get(ctx, moduleID)
	})
	if errors.Is(err, utils.ErrNotFound) {
		return nil, utils.E(utils.CodeNotFound, op, "module not found", err)
	}
	if err != nil {
		return nil, utils.Wrap(utils.CodeInternal, op, "failed to get module", err)
	}
	return m, nil
}

func (s *moduleService) List(ctx context.Context) ([]models.LearningModule, error) {
	const op = "ModuleService.List"

	rows, err := utils.CallStore(ctx, s.timeout, op, func(ctx context.Context) ([]models.LearningModule, error) {
		return s.modules.List(ctx)
	})
	if err != nil {
		return nil, utils.Wrap(utils.CodeInternal, op, "failed to list modules", err)
	}
	return rows, nil
}
