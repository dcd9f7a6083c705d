package adapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/strandchat/strand/internal/orchestrator/models"
	provider "github.com/strandchat/strand/internal/provider/models"
)

// Validator is implemented by request types that support validation.
type Validator interface {
	Validate() error
}

// Executor is a tool body working on typed request/response values.
type Executor[Req, Resp any] func(ctx context.Context, req Req) (Resp, error)

// BaseAdapter implements Tool over a typed executor, centralizing
// argument decoding (mapstructure), validation, execution and response
// marshaling. The parameter schema is derived from Req (see SchemaFor).
type BaseAdapter[Req, Resp any] struct {
	name          string
	description   string
	prompt        string
	needsApproval bool
	definition    provider.ToolDefinition
	executor      Executor[Req, Resp]
}

// NewBaseAdapter creates an adapter for the given executor. prompt is the
// tool's static system-prompt fragment ("" for none).
func NewBaseAdapter[Req, Resp any](
	name string,
	description string,
	prompt string,
	needsApproval bool,
	executor Executor[Req, Resp],
) *BaseAdapter[Req, Resp] {
	var req Req
	return &BaseAdapter[Req, Resp]{
		name:          name,
		description:   description,
		prompt:        prompt,
		needsApproval: needsApproval,
		definition: provider.ToolDefinition{
			Name:        name,
			Description: description,
			Parameters:  SchemaFor(req),
		},
		executor: executor,
	}
}

// Name implements Tool.
func (b *BaseAdapter[Req, Resp]) Name() string { return b.name }

// Description implements Tool.
func (b *BaseAdapter[Req, Resp]) Description() string { return b.description }

// Definition implements Tool.
func (b *BaseAdapter[Req, Resp]) Definition() provider.ToolDefinition { return b.definition }

// NeedsApproval implements Tool.
func (b *BaseAdapter[Req, Resp]) NeedsApproval() bool { return b.needsApproval }

// Prompt implements Tool. The fragment is static; model and history are
// accepted for tools that want to specialize later.
func (b *BaseAdapter[Req, Resp]) Prompt(model string, history []models.Message) string {
	return b.prompt
}

// Execute implements Tool. The raw JSON arguments are decoded into a
// typed request via an intermediate map so mapstructure can apply field
// tags and weak typing uniformly across tools.
func (b *BaseAdapter[Req, Resp]) Execute(ctx context.Context, argsJSON string) ([]models.TextPart, error) {
	args := map[string]any{}
	if argsJSON != "" {
		if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
	}

	var req Req
	if err := mapstructure.Decode(args, &req); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}

	if v, ok := any(req).(Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("%s validation failed: %w", b.name, err)
		}
	}

	resp, err := b.executor(ctx, req)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}

	return []models.TextPart{{Content: string(data)}}, nil
}
