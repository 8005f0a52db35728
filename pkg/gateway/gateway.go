package gateway

import (
	"context"
	"encoding/json"
	"time"
)

// ThoughtPayload is the thought slice of the process request wire format.
type ThoughtPayload struct {
	Id        string    `json:"id"`
	Text      string    `json:"text"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"createdAt"`
}

// ToolDescription describes one capability the model may target.
type ToolDescription struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ActionType  string `json:"actionType"`
}

// ProcessRequest is the body POSTed to /process-thought.
type ProcessRequest struct {
	Thought          ThoughtPayload    `json:"thought"`
	ApiKey           string            `json:"apiKey"`
	ToolDescriptions []ToolDescription `json:"toolDescriptions"`
	Context          string            `json:"context,omitempty"`
}

// Action is one suggested mutation as returned by the Gateway. Data is kept
// raw here; the caller decodes it into the typed payload for its type.
type Action struct {
	Type      string          `json:"type"`
	Tool      string          `json:"tool,omitempty"`
	Data      json.RawMessage `json:"data"`
	Reasoning string          `json:"reasoning,omitempty"`
}

type ThoughtEnhancement struct {
	ShouldApply  bool     `json:"shouldApply"`
	ImprovedText string   `json:"improvedText"`
	Changes      []string `json:"changes,omitempty"`
}

type ProcessResult struct {
	Actions            []Action            `json:"actions"`
	ThoughtEnhancement *ThoughtEnhancement `json:"thoughtEnhancement,omitempty"`
	SuggestedTools     []string            `json:"suggestedTools,omitempty"`
}

// ProcessResponse is the full response envelope. Exactly one of Result and
// Error is meaningful; a non-empty Error is a Gateway-reported failure.
type ProcessResponse struct {
	Result *ProcessResult `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// Provider defines the contract for any thought-analysis backend.
type Provider interface {
	// ProcessThought submits a thought with its context and returns the raw
	// response envelope plus the raw body for audit storage.
	ProcessThought(ctx context.Context, req *ProcessRequest) (*ProcessResponse, json.RawMessage, error)
}
