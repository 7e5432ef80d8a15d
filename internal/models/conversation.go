package models

import (
	"time"

	"github.com/lib/pq"
)

// Conversation is identified by the set of its participants; at most one
// exists per ParticipantKey.
type Conversation struct {
	ID             string         `gorm:"column:id;type:text;primaryKey" json:"conversationId"`
	ParticipantKey string         `gorm:"column:participant_key;type:text;uniqueIndex:uniq_conversation_participants" json:"-"`
	ParticipantIDs pq.StringArray `gorm:"column:participant_ids;type:text[]" json:"participantIds"`
	CreatedAt      time.Time      `gorm:"column:created_at;type:timestamptz" json:"createdAt"`
	LastMessageAt  time.Time      `gorm:"column:last_message_at;type:timestamptz;index" json:"lastMessageAt"`
}

func (Conversation) TableName() string { return "conversations" }

// Message lives in MongoDB (collection: conversation_messages).
type Message struct {
	MessageID      string    `bson:"message_id" json:"messageId"`
	ConversationID string    `bson:"conversation_id" json:"conversationId"`
	SenderID       string    `bson:"sender_id" json:"senderId"`
	Text           string    `bson:"text" json:"text"`
	CreatedAt      time.Time `bson:"created_at" json:"createdAt"`
}
