package models

// WorkflowPhase is a coarse operating mode restricting which tool
// operations may run. The zero value means no phase gating: all tools
// behave as in PhaseExecute.
type WorkflowPhase string

const (
	PhaseNone    WorkflowPhase = ""
	PhasePlan    WorkflowPhase = "plan"
	PhaseExecute WorkflowPhase = "execute"
	PhaseReview  WorkflowPhase = "review"
)

// Assistant is the configuration of the active assistant for one
// generation run. All generation parameters are pointers so "not set"
// is distinguishable from zero.
type Assistant struct {
	Name         string
	SystemPrompt string

	// EnableMemory turns on the built-in memory tools and the memory
	// summary block in the assembled prompt.
	EnableMemory bool

	// SummarizeHistory prepends a short recap of older messages that were
	// truncated out of the provider request.
	SummarizeHistory bool

	Temperature *float32
	TopP        *float32
	MaxTokens   *int

	// CustomHeaders and ExtraBody are passed through to the provider
	// request untouched.
	CustomHeaders map[string]string
	ExtraBody     map[string]any

	// ContextLimit caps how many trailing history messages are sent per
	// generation round. Zero means no cap.
	ContextLimit int

	// Stream selects the provider's streaming generate operation.
	Stream bool
}
