package domain

import (
	"time"

	"github.com/google/uuid"
)

// MessageRole identifies the author of a chat message.
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// Valid checks if the role is one the counsellor understands.
func (r MessageRole) Valid() bool {
	switch r {
	case MessageRoleUser, MessageRoleAssistant:
		return true
	default:
		return false
	}
}

// Conversation is a named thread of counsellor chat messages owned by a user.
type Conversation struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message is a single chat turn within a conversation.
type Message struct {
	ID             uuid.UUID
	ConversationID uuid.UUID
	Role           MessageRole
	Content        string
	CreatedAt      time.Time
}

// ChatTurn is the transport shape of a prior message passed back by the
// client as conversation history.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
