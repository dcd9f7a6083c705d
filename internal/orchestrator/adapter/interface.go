package adapter

import (
	"context"

	"github.com/strandchat/strand/internal/orchestrator/models"
	provider "github.com/strandchat/strand/internal/provider/models"
)

// Tool represents a capability the model can invoke. Implementations must
// be stateless and safe for concurrent use; the orchestrator still calls
// Execute sequentially within a step.
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description.
	Description() string

	// Definition returns the structured tool definition for the provider.
	Definition() provider.ToolDefinition

	// NeedsApproval reports whether calls to this tool must be approved by
	// an external actor before execution.
	NeedsApproval() bool

	// Prompt returns the tool's system-prompt fragment for this round, or
	// "" when the tool contributes nothing.
	Prompt(model string, history []models.Message) string

	// Execute runs the tool with the call's raw JSON arguments.
	Execute(ctx context.Context, argsJSON string) ([]models.TextPart, error)
}
