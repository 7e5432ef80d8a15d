package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/yoockh/yoosocial/internal/events"
	"github.com/yoockh/yoosocial/internal/idgen"
	"github.com/yoockh/yoosocial/internal/models"
	"github.com/yoockh/yoosocial/internal/participants"
	"github.com/yoockh/yoosocial/internal/repositories"
	"github.com/yoockh/yoosocial/internal/utils"
)

const maxMessageLength = 4000

type ConversationService interface {
	// Resolve returns the one conversation for this participant set,
	// creating it if absent.
	Resolve(ctx context.Context, participantIDs []string) (*models.Conversation, bool, error)
	Get(ctx context.Context, conversationID string) (*models.Conversation, error)
	AppendMessage(ctx context.Context, conversationID, senderID, text string) (*models.Message, error)
	ListMessages(ctx context.Context, conversationID string, limit int64) ([]models.Message, error)
	ListForUser(ctx context.Context, userID string, limit int) ([]models.Conversation, error)
}

type conversationService struct {
	convos   repositories.ConversationRepository
	messages repositories.MessageRepository
	users    UserService
	events   events.Publisher
	timeout  time.Duration
}

func NewConversationService(
	convos repositories.ConversationRepository,
	messages repositories.MessageRepository,
	users UserService,
	pub events.Publisher,
	timeout time.Duration,
) ConversationService {
	return &conversationService{convos: convos, messages: messages, users: users, events: pub, timeout: timeout}
}

func (s *conversationService) Resolve(ctx context.Context, participantIDs []string) (*models.Conversation, bool, error) {
	const op = "ConversationService.Resolve"

	set, err := participants.Canonicalize(participantIDs)
	if err != nil {
		return nil, false, err
	}
	if err := s.users.RequireUsers(ctx, set.IDs...); err != nil {
		return nil, false, err
	}

	existing, err := utils.CallStore(ctx, s.timeout, op, func(ctx context.Context) (*models.Conversation, error) {
		return s.convos.GetByKey(ctx, set.Key)
	})
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, utils.ErrNotFound) {
		return nil, false, utils.Wrap(utils.CodeInternal, op, "failed to look up conversation", err)
	}

	now := time.Now().UTC()
	candidate := &models.Conversation{
		ID:             idgen.New(),
		ParticipantKey: set.Key,
		ParticipantIDs: set.IDs,
		CreatedAt:      now,
		LastMessageAt:  now,
	}

	// not wrapped in CallStore: a retried insert could report created=false
	// for the row this very call wrote
	insCtx, cancel := withStoreTimeout(ctx, s.timeout)
	stored, created, err := s.convos.InsertIfAbsent(insCtx, candidate)
	cancel()
	if errors.Is(err, utils.ErrConflict) {
		return nil, false, utils.E(utils.CodeConflict, op, "conversation could not be resolved", err)
	}
	if err != nil {
		return nil, false, utils.Wrap(utils.CodeInternal, op, "failed to create conversation", err)
	}

	if created {
		s.events.Publish(ctx, events.ConversationCreated{
			ConversationID: stored.ID,
			ParticipantIDs: set.IDs,
			At:             stored.CreatedAt,
		})
	}
	return stored, created, nil
}

func (s *conversationService) Get(ctx context.Context, conversationID string) (*models.Conversation, error) {
	const op = "ConversationService.Get"

	if conversationID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "conversation_id is required", nil)
	}
	c, err := utils.CallStore(ctx, s.timeout, op, func(ctx context.Context) (*models.Conversation, error) {
		return s.convos.GetByID(ctx, conversationID)
	})
	if errors.Is(err, utils.ErrNotFound) {
		return nil, utils.E(utils.CodeNotFound, op, "conversation not found", err)
	}
	if err != nil {
		return nil, utils.Wrap(utils.CodeInternal, op, "failed to get conversation", err)
	}
	return c, nil
}

func (s *conversationService) AppendMessage(ctx context.Context, conversationID, senderID, text string) (*models.Message, error) {
	const op = "ConversationService.AppendMessage"

	text = strings.TrimSpace(text)
	if senderID == "" || text == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "sender_id and text are required", nil)
	}
	if len(text) > maxMessageLength {
		return nil, utils.E(utils.CodeInvalidArgument, op, "message is too long", nil)
	}

	conv, err := s.Get(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !participants.Contains(conv.ParticipantIDs, senderID) {
		return nil, utils.E(utils.CodeForbidden, op, "sender is not a participant of this conversation", nil)
	}

	msg := &models.Message{
		MessageID:      idgen.New(),
		ConversationID: conv.ID,
		SenderID:       senderID,
		Text:           text,
		CreatedAt:      time.Now().UTC(),
	}
	insCtx, cancel := withStoreTimeout(ctx, s.timeout)
	err = s.messages.Insert(insCtx, msg)
	cancel()
	if err != nil {
		return nil, utils.Wrap(utils.CodeInternal, op, "failed to store message", err)
	}

	_, err = utils.CallStore(context.WithoutCancel(ctx), s.timeout, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.convos.TouchLastMessage(ctx, conv.ID, msg.CreatedAt)
	})
	if err != nil {
		return nil, utils.Wrap(utils.CodeInternal, op, "failed to update conversation", err)
	}

	s.events.Publish(ctx, events.MessageAppended{Message: *msg, ParticipantIDs: conv.ParticipantIDs})
	return msg, nil
}

func (s *conversationService) ListMessages(ctx context.Context, conversationID string, limit int64) ([]models.Message, error) {
	const op = "ConversationService.ListMessages"

	if _, err := s.Get(ctx, conversationID); err != nil {
		return nil, err
	}
	rows, err := utils.CallStore(ctx, s.timeout, op, func(ctx context.Context) ([]models.Message, error) {
		return s.messages.ListByConversation(ctx, conversationID, limit)
	})
	if err != nil {
		return nil, utils.Wrap(utils.CodeInternal, op, "failed to list messages", err)
	}
	return rows, nil
}

func (s *conversationService) ListForUser(ctx context.Context, userID string, limit int) ([]models.Conversation, error) {
	const op = "ConversationService.ListForUser"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	rows, err := utils.CallStore(ctx, s.timeout, op, func(ctx context.Context) ([]models.Conversation, error) {
		return s.convos.ListByParticipant(ctx, userID, limit)
	})
	if err != nil {
		return nil, utils.Wrap(utils.CodeInternal, op, "failed to list conversations", err)
	}
	return rows, nil
}
