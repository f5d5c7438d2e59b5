package types

import (
	"time"

	"github.com/google/uuid"
)

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Turn is one entry of the append-only conversation history.
type Turn struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

// ChatSession is what the HTTP layer keeps between requests for one conversation.
type ChatSession struct {
	ID        uuid.UUID           `json:"id"`
	Context   SerializableContext `json:"context"`
	History   []Turn              `json:"history"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// QueryResult is the outcome of one pass of the query pipeline. Context and
// History are the updated values the caller should persist and send back on
// the next turn.
type QueryResult struct {
	Response string              `json:"response"`
	Context  SerializableContext `json:"context"`
	History  []Turn              `json:"history,omitempty"`
	State    DispatchState       `json:"state"`
	Tool     string              `json:"tool,omitempty"`
}

// Request/Response types for the chat API

type CreateSessionRequest struct {
	Location    string         `json:"location,omitempty"`
	Preferences map[string]any `json:"preferences,omitempty"`
}

type ChatMessageRequest struct {
	Message string `json:"message"`
}

type ChatMessageResponse struct {
	SessionID uuid.UUID           `json:"session_id"`
	Response  string              `json:"response"`
	Context   SerializableContext `json:"context"`
	Tool      string              `json:"tool,omitempty"`
}

type HandleQueryRequest struct {
	Query   string              `json:"query"`
	Context SerializableContext `json:"context"`
	History []Turn              `json:"history,omitempty"`
}

type UpdateLocationRequest struct {
	Location string `json:"location"`
}

type UpdatePreferencesRequest struct {
	Preferences map[string]any `json:"preferences"`
}
