// Package events carries domain events from the services that commit a
// write to the components that react to it.
package events

import (
	"time"

	"github.com/yoockh/yoosocial/internal/models"
)

type Kind string

const (
	KindConversationCreated Kind = "conversation.created"
	KindMessageAppended     Kind = "conversation.message_appended"
	KindProgressChanged     Kind = "progress.changed"
	KindPostCreated         Kind = "post.created"
	KindPreferenceEdited    Kind = "preference.edited"
	KindGraphChanged        Kind = "graph.changed"
)

// Event is a committed fact. Subjects are the users it concerns.
type Event interface {
	Kind() Kind
	Subjects() []string
}

// Invalidating lists the kinds after which cached aggregates of the
// event's subjects are stale.
var Invalidating = []Kind{
	KindConversationCreated,
	KindProgressChanged,
	KindPostCreated,
	KindPreferenceEdited,
	KindGraphChanged,
}

type ConversationCreated struct {
	ConversationID string    `json:"conversationId"`
	ParticipantIDs []string  `json:"participantIds"`
	At             time.Time `json:"at"`
}

func (ConversationCreated) Kind() Kind           { return KindConversationCreated }
func (e ConversationCreated) Subjects() []string { return e.ParticipantIDs }

type MessageAppended struct {
	Message        models.Message `json:"message"`
	ParticipantIDs []string       `json:"participantIds"`
}

func (MessageAppended) Kind() Kind           { return KindMessageAppended }
func (e MessageAppended) Subjects() []string { return e.ParticipantIDs }

type ProgressChanged struct {
	UserID   string                `json:"userId"`
	ModuleID string                `json:"moduleId"`
	From     models.ProgressStatus `json:"from"`
	To       models.ProgressStatus `json:"to"`
	At       time.Time             `json:"at"`
}

func (ProgressChanged) Kind() Kind           { return KindProgressChanged }
func (e ProgressChanged) Subjects() []string { return []string{e.UserID} }

// PostCreated reaches everyone whose feed can contain the post.
type PostCreated struct {
	PostID   string    `json:"postId"`
	AuthorID string    `json:"authorId"`
	Audience []string  `json:"audience"`
	At       time.Time `json:"at"`
}

func (PostCreated) Kind() Kind { return KindPostCreated }
func (e PostCreated) Subjects() []string {
	return append([]string{e.AuthorID}, e.Audience...)
}

type PreferenceEdited struct {
	UserID string `json:"userId"`
	Reason string `json:"reason"` // explicit, decay, recompute
}

func (PreferenceEdited) Kind() Kind           { return KindPreferenceEdited }
func (e PreferenceEdited) Subjects() []string { return []string{e.UserID} }

// GraphChanged affects UserID and, for group changes, the other members.
type GraphChanged struct {
	UserID   string   `json:"userId"`
	TargetID string   `json:"targetId"`
	Change   string   `json:"change"` // follow, unfollow, join, leave
	Affected []string `json:"affected,omitempty"`
}

func (GraphChanged) Kind() Kind { return KindGraphChanged }
func (e GraphChanged) Subjects() []string {
	return append([]string{e.UserID}, e.Affected...)
}
