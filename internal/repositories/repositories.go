// Package repositories declares the storage contracts the services depend on.
// Implementations live in postgres, mongo and memory.
package repositories

import (
	"context"
	"time"

	"github.com/yoockh/yoosocial/internal/models"
)

type ConversationRepository interface {
	// InsertIfAbsent stores c unless a conversation with the same
	// ParticipantKey exists. It returns the stored row and whether c won.
	InsertIfAbsent(ctx context.Context, c *models.Conversation) (*models.Conversation, bool, error)
	GetByID(ctx context.Context, id string) (*models.Conversation, error)
	GetByKey(ctx context.Context, key string) (*models.Conversation, error)
	// TouchLastMessage moves last_message_at forward to at, never backwards.
	TouchLastMessage(ctx context.Context, id string, at time.Time) error
	ListByParticipant(ctx context.Context, userID string, limit int) ([]models.Conversation, error)
}

type MessageRepository interface {
	Insert(ctx context.Context, m *models.Message) error
	ListByConversation(ctx context.Context, conversationID string, limit int64) ([]models.Message, error)
}

type ProgressRepository interface {
	Get(ctx context.Context, userID, moduleID string) (*models.ProgressRecord, error)
	// InsertIfAbsent creates rec unless a record for (user, module) exists.
	InsertIfAbsent(ctx context.Context, rec *models.ProgressRecord) (bool, error)
	// CompareAndSet replaces the stored record only if it still has
	// expected's status and updated_at.
	CompareAndSet(ctx context.Context, rec, expected *models.ProgressRecord) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]models.ProgressRecord, error)
	CompletionCounts(ctx context.Context) (map[string]int64, error)
}

type ModuleCatalog interface {
	Create(ctx context.Context, m *models.LearningModule) error
	Get(ctx context.Context, id string) (*models.LearningModule, error)
	List(ctx context.Context) ([]models.LearningModule, error)
}

type PreferenceRepository interface {
	Get(ctx context.Context, userID string) (*models.PreferenceVector, error)
	// Save commits v when the stored revision equals expectedRevision
	// (0 meaning "no row yet"). v.Revision is set to the new revision.
	Save(ctx context.Context, v *models.PreferenceVector, expectedRevision int64) (bool, error)
	// ListUserIDs pages through users with a stored vector, ordered by id.
	ListUserIDs(ctx context.Context, after string, limit int) ([]string, error)
}

type PostRepository interface {
	Create(ctx context.Context, p *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	UpdateEngagement(ctx context.Context, id string, score float64) error
	// ByAuthors returns posts newer than since, newest first.
	ByAuthors(ctx context.Context, authorIDs []string, since time.Time, limit int) ([]models.Post, error)
}

type SocialGraph interface {
	FollowedIDs(ctx context.Context, userID string) ([]string, error)
	FollowerIDs(ctx context.Context, userID string) ([]string, error)
	GroupIDsOf(ctx context.Context, userID string) ([]string, error)
	GroupMemberIDs(ctx context.Context, groupID string) ([]string, error)
	Follow(ctx context.Context, followerID, followeeID string) error
	Unfollow(ctx context.Context, followerID, followeeID string) error
	JoinGroup(ctx context.Context, groupID, userID string) error
	LeaveGroup(ctx context.Context, groupID, userID string) error
}

type UserDirectory interface {
	// MissingUsers returns the ids from userIDs that are not known, in
	// input order.
	MissingUsers(ctx context.Context, userIDs []string) ([]string, error)
}
