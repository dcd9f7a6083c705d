package models

import (
	"context"

	chat "github.com/strandchat/strand/internal/orchestrator/models"
)

// Provider is the interface to a language-model backend. Both operations
// may fail; a failure is terminal for the whole generation run and is
// never retried by the orchestrator.
type Provider interface {
	// Generate runs a single-shot generation round.
	Generate(ctx context.Context, req *GenerateRequest) (*Delta, error)

	// GenerateStream runs a streaming generation round. The returned
	// stream yields deltas in provider-delivery order and ends with io.EOF.
	GenerateStream(ctx context.Context, req *GenerateRequest) (ResponseStream, error)
}

// GenerateRequest carries everything a provider needs for one round.
type GenerateRequest struct {
	// Model is the provider-specific model identifier.
	Model string

	// System is the fully assembled system prompt for this round.
	System string

	// Messages is the (already truncated) conversation history.
	Messages []chat.Message

	// Tools the model may invoke this round.
	Tools []ToolDefinition

	// Config holds optional generation parameters.
	Config *GenerateConfig
}

// GenerateConfig contains optional generation parameters. All fields are
// pointers to distinguish "not set" from zero.
type GenerateConfig struct {
	Temperature *float32
	TopP        *float32
	MaxTokens   *int

	// Headers and ExtraBody are assistant-configured passthroughs.
	Headers   map[string]string
	ExtraBody map[string]any
}

// Delta is one increment of generated content. A non-streaming round
// produces exactly one Delta holding the whole result.
type Delta struct {
	// Text is appended to the assistant message's trailing text part.
	Text string

	// ToolCalls are tool-call increments, applied in order.
	ToolCalls []ToolCallDelta

	// Usage, when present, is merged by addition.
	Usage *chat.Usage
}

// ToolCallDelta creates or extends a tool-call part on the assistant
// message. Index addresses the call within the round: the first delta for
// an index creates the part, later deltas with the same index append
// ArgsDelta to its argument JSON.
type ToolCallDelta struct {
	Index     int
	ID        string
	ToolName  string
	ArgsDelta string
}

// ResponseStream provides access to streaming deltas.
type ResponseStream interface {
	// Next returns the next delta, or io.EOF when the round is complete.
	Next() (*Delta, error)

	// Close releases the underlying connection.
	Close() error
}

// ToolDefinition is the schema a provider advertises to the model.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  *ParameterSchema
}

// ParameterSchema maps directly to standard JSON Schema.
type ParameterSchema struct {
	Type       string                    `json:"type"`
	Properties map[string]PropertySchema `json:"properties"`
	Required   []string                  `json:"required,omitempty"`
}

// PropertySchema defines a single parameter property.
type PropertySchema struct {
	Type        string          `json:"type"`
	Description string          `json:"description,omitempty"`
	Enum        []string        `json:"enum,omitempty"`
	Items       *PropertySchema `json:"items,omitempty"`
}
