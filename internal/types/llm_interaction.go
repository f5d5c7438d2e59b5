package types

import (
	"time"

	"github.com/google/uuid"
)

// LlmInteraction is one row of the interaction log: a single user turn and how it was answered.
type LlmInteraction struct {
	ID           uuid.UUID     `json:"id"`
	SessionID    uuid.UUID     `json:"session_id"`
	Query        string        `json:"query"`
	ResponseText string        `json:"response_text"`
	ModelUsed    string        `json:"model_used"`
	ToolName     string        `json:"tool_name,omitempty"`
	FinalState   DispatchState `json:"final_state"`
	LatencyMs    int           `json:"latency_ms"`
	CreatedAt    time.Time     `json:"created_at"`
}
