package handlers_test

import (
	"context"

	"github.com/yoockh/yoosocial/internal/events"
	"github.com/yoockh/yoosocial/internal/models"
)

type mockConversationService struct {
	resolveFn      func(ctx context.Context, ids []string) (*models.Conversation, bool, error)
	getFn          func(ctx context.Context, id string) (*models.Conversation, error)
	appendFn       func(ctx context.Context, conversationID, senderID, text string) (*models.Message, error)
	listMessagesFn func(ctx context.Context, conversationID string, limit int64) ([]models.Message, error)
	listForUserFn  func(ctx context.Context, userID string, limit int) ([]models.Conversation, error)
}

func (m *mockConversationService) Resolve(ctx context.Context, ids []string) (*models.Conversation, bool, error) {
	if m.resolveFn != nil {
		return m.resolveFn(ctx, ids)
	}
	return nil, false, nil
}

func (m *mockConversationService) Get(ctx context.Context, id string) (*models.Conversation, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, nil
}

func (m *mockConversationService) AppendMessage(ctx context.Context, conversationID, senderID, text string) (*models.Message, error) {
	if m.appendFn != nil {
		return m.appendFn(ctx, conversationID, senderID, text)
	}
	return nil, nil
}

func (m *mockConversationService) ListMessages(ctx context.Context, conversationID string, limit int64) ([]models.Message, error) {
	if m.listMessagesFn != nil {
		return m.listMessagesFn(ctx, conversationID, limit)
	}
	return nil, nil
}

func (m *mockConversationService) ListForUser(ctx context.Context, userID string, limit int) ([]models.Conversation, error) {
	if m.listForUserFn != nil {
		return m.listForUserFn(ctx, userID, limit)
	}
	return nil, nil
}

type mockProgressService struct {
	updateFn func(ctx context.Context, userID, moduleID string, status models.ProgressStatus) (*models.ProgressRecord, error)
	getFn    func(ctx context.Context, userID, moduleID string) (*models.ProgressRecord, error)
	listFn   func(ctx context.Context, userID string) ([]models.ProgressRecord, error)
}

func (m *mockProgressService) Update(ctx context.Context, userID, moduleID string, status models.ProgressStatus) (*models.ProgressRecord, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, userID, moduleID, status)
	}
	return nil, nil
}

func (m *mockProgressService) Get(ctx context.Context, userID, moduleID string) (*models.ProgressRecord, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID, moduleID)
	}
	return nil, nil
}

func (m *mockProgressService) List(ctx context.Context, userID string) ([]models.ProgressRecord, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID)
	}
	return nil, nil
}

type mockRecommendationService struct {
	recommendFn func(ctx context.Context, userID, cursor string, limit int) (*models.RankedResult, error)
}

func (m *mockRecommendationService) Recommend(ctx context.Context, userID, cursor string, limit int) (*models.RankedResult, error) {
	if m.recommendFn != nil {
		return m.recommendFn(ctx, userID, cursor, limit)
	}
	return &models.RankedResult{}, nil
}

type mockFeedService struct {
	feedFn func(ctx context.Context, userID, cursor string, limit int) (*models.RankedResult, error)
}

func (m *mockFeedService) Feed(ctx context.Context, userID, cursor string, limit int) (*models.RankedResult, error) {
	if m.feedFn != nil {
		return m.feedFn(ctx, userID, cursor, limit)
	}
	return &models.RankedResult{}, nil
}

type mockPreferenceService struct {
	editFn func(ctx context.Context, userID string, add, remove []string) (*models.PreferenceVector, error)
}

func (m *mockPreferenceService) GetVector(_ context.Context, userID string) (*models.PreferenceVector, error) {
	return models.NewPreferenceVector(userID), nil
}

func (m *mockPreferenceService) EditExplicit(ctx context.Context, userID string, add, remove []string) (*models.PreferenceVector, error) {
	if m.editFn != nil {
		return m.editFn(ctx, userID, add, remove)
	}
	return models.NewPreferenceVector(userID), nil
}

func (m *mockPreferenceService) ApplyDecay(context.Context, string) error { return nil }

func (m *mockPreferenceService) Recompute(_ context.Context, userID string) (*models.PreferenceVector, error) {
	return models.NewPreferenceVector(userID), nil
}

func (m *mockPreferenceService) HandleEvent(context.Context, events.Event) error { return nil }

func (m *mockPreferenceService) ForEachUser(context.Context, func(ctx context.Context, userID string) error) error {
	return nil
}
