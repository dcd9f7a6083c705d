// Package orchestrator drives multi-step tool-calling generation: it asks
// the model for a response, gates requested tool calls against the
// workflow phase and approval requirements, executes or defers them,
// merges results back into the conversation and repeats until the model
// stops requesting tools or the step budget runs out.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/strandchat/strand/internal/memory"
	"github.com/strandchat/strand/internal/orchestrator/adapter"
	"github.com/strandchat/strand/internal/orchestrator/models"
	provider "github.com/strandchat/strand/internal/provider/models"
)

// DefaultMaxSteps bounds the generation loop when the request does not
// set its own budget.
const DefaultMaxSteps = 256

// Transform rewrites the last message after a generation round (output
// formatting, display normalization). conversationID lets a transform
// scope side effects per conversation.
type Transform func(conversationID string, msg models.Message) models.Message

// Orchestrator runs generation calls. It is safe for concurrent use as
// long as each conversation runs at most one call at a time.
type Orchestrator struct {
	provider   provider.Provider
	memory     memory.Store
	transforms []Transform
	logger     *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMemory enables the built-in memory tools and the memory summary
// block for assistants that opt in.
func WithMemory(store memory.Store) Option {
	return func(o *Orchestrator) { o.memory = store }
}

// WithTransforms installs post-round message transforms, applied in order.
func WithTransforms(transforms ...Transform) Option {
	return func(o *Orchestrator) { o.transforms = transforms }
}

// WithLogger overrides the default slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// New creates an Orchestrator backed by the given provider.
func New(p provider.Provider, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		provider: p,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// GenerateRequest is one generation invocation. The orchestrator works on
// copies of Messages; the caller owns the list before and after the call.
type GenerateRequest struct {
	Assistant models.Assistant

	// Model is the provider-specific model identifier.
	Model string

	// Messages is the conversation history, including any tool calls
	// resolved since the previous invocation (see ResolveApproval).
	Messages []models.Message

	// Tools supplied by the caller, unioned with the built-in memory
	// tools each step. On name collisions the first occurrence wins;
	// built-ins are assembled first.
	Tools []adapter.Tool

	// Phase restricts tool operations; the zero value disables gating.
	Phase models.WorkflowPhase

	// TruncateBefore drops messages[:TruncateBefore] from provider
	// requests (they still appear in emitted snapshots).
	TruncateBefore int

	// MaxSteps overrides DefaultMaxSteps when positive.
	MaxSteps int

	// ConversationID scopes tool and transform side effects.
	ConversationID string
}

// Generate starts a generation run and returns its chunk stream. The run
// executes on its own goroutine; the caller consumes chunks via Next and
// may stop at any boundary with Close.
func (o *Orchestrator) Generate(ctx context.Context, req *GenerateRequest) *GenerationStream {
	ctx, cancel := context.WithCancel(ctx)
	stream := newGenerationStream(cancel)

	go func() {
		defer close(stream.ch)
		if err := o.run(ctx, req, stream); err != nil && !errors.Is(err, context.Canceled) {
			o.logger.Error("generation run failed", "conversation", req.ConversationID, "error", err)
			stream.err = err
		}
	}()

	return stream
}

// run is the step loop. Per step: assemble tools, either resume already
// resolved approvals or run a generation round, gate fresh calls, execute
// what is executable, merge results and emit. Suspension (any call left
// pending) and step-budget exhaustion end the stream without error.
func (o *Orchestrator) run(ctx context.Context, req *GenerateRequest, stream *GenerationStream) error {
	messages := models.CloneMessages(req.Messages)

	maxSteps := req.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}

	emit := func(snapshot []models.Message) bool {
		select {
		case stream.ch <- models.NewChunk(snapshot):
			return true
		case <-ctx.Done():
			return false
		}
	}

	for step := 0; step < maxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		tools := o.assembleTools(req)

		// Resume path: approvals resolved between invocations skip the
		// generation round and go straight to execution.
		if !hasResolvedUnexecuted(messages) {
			var err error
			messages, err = o.generationRound(ctx, req, tools, messages, emit)
			if err != nil {
				return err
			}

			if len(unexecutedCalls(messages)) == 0 {
				return nil
			}

			// Approval gating. A step ending with any pending call
			// suspends the whole loop until an external actor resolves it
			// and the orchestrator is invoked again.
			var pending bool
			messages, pending = gateApprovals(messages, tools)
			if pending {
				o.logger.Info("generation suspended awaiting approval",
					"conversation", req.ConversationID, "step", step)
				emit(messages)
				return nil
			}
		}

		executed := o.executeCalls(ctx, req, tools, messages)
		if len(executed) == 0 {
			return nil
		}

		messages = replaceLast(messages, replaceExecuted(lastMessage(messages), executed))
		if !emit(messages) {
			return ctx.Err()
		}
	}

	// Reaching the step cap is not a failure; the sequence just ends.
	o.logger.Warn("step budget exhausted", "conversation", req.ConversationID, "maxSteps", maxSteps)
	return nil
}

// generationRound runs one provider round: assemble the prompt, merge the
// response (incrementally when streaming) into a fresh assistant message,
// apply transforms, stamp completion and emit.
func (o *Orchestrator) generationRound(ctx context.Context, req *GenerateRequest, tools *toolSet, messages []models.Message, emit func([]models.Message) bool) ([]models.Message, error) {
	history, truncated := truncateHistory(messages, req.TruncateBefore, req.Assistant.ContextLimit)

	system, err := o.buildSystemPrompt(ctx, req, tools, truncated)
	if err != nil {
		return nil, err
	}

	preq := &provider.GenerateRequest{
		Model:    req.Model,
		System:   system,
		Messages: history,
		Tools:    tools.definitions(),
		Config: &provider.GenerateConfig{
			Temperature: req.Assistant.Temperature,
			TopP:        req.Assistant.TopP,
			MaxTokens:   req.Assistant.MaxTokens,
			Headers:     req.Assistant.CustomHeaders,
			ExtraBody:   req.Assistant.ExtraBody,
		},
	}

	messages = append(messages, models.Message{Role: models.RoleAssistant})

	if req.Assistant.Stream {
		respStream, err := o.provider.GenerateStream(ctx, preq)
		if err != nil {
			return nil, fmt.Errorf("provider stream: %w", err)
		}
		defer respStream.Close()

		for {
			delta, err := respStream.Next()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("provider stream: %w", err)
			}
			messages = replaceLast(messages, applyDelta(lastMessage(messages), delta))
			if !emit(messages) {
				return nil, ctx.Err()
			}
		}
	} else {
		delta, err := o.provider.Generate(ctx, preq)
		if err != nil {
			return nil, fmt.Errorf("provider generate: %w", err)
		}
		messages = replaceLast(messages, applyDelta(lastMessage(messages), delta))
	}

	last := assignCallIDs(lastMessage(messages).Clone())
	for _, transform := range o.transforms {
		last = transform(req.ConversationID, last)
	}
	now := time.Now()
	last.FinishedAt = &now
	messages = replaceLast(messages, last)

	if !emit(messages) {
		return nil, ctx.Err()
	}
	return messages, nil
}

// gateApprovals transitions fresh calls of approval-requiring tools from
// Auto to Pending and reports whether any call is now pending.
func gateApprovals(messages []models.Message, tools *toolSet) ([]models.Message, bool) {
	last := lastMessage(messages).Clone()
	pending := false
	for pi, part := range last.Parts {
		tc, ok := part.(models.ToolCallPart)
		if !ok || tc.Executed {
			continue
		}
		switch {
		case tc.Approval == models.ApprovalPending:
			pending = true
		case tc.Approval == models.ApprovalAuto:
			// Lookup failures surface as tool_not_found at execution time;
			// gating only consults the approval requirement.
			if tool, found := tools.lookup(tc.ToolName); found && tool.NeedsApproval() {
				tc.Approval = models.ApprovalPending
				last.Parts[pi] = tc
				pending = true
			}
		}
	}
	return replaceLast(messages, last), pending
}

// executeCalls runs the last message's executable tool calls sequentially
// in part order and returns their executed versions. Calls still pending
// are skipped; per-call failures become synthesized outputs.
func (o *Orchestrator) executeCalls(ctx context.Context, req *GenerateRequest, tools *toolSet, messages []models.Message) []models.ToolCallPart {
	var executed []models.ToolCallPart
	for _, tc := range lastMessage(messages).ToolCalls() {
		if tc.Executed || tc.Approval == models.ApprovalPending {
			continue
		}
		run := tc.Clone()
		run.Output = o.executeCall(ctx, req, tools, tc)
		run.Executed = true
		executed = append(executed, run)
	}
	return executed
}

// executeCall produces the output for a single resolved call. It never
// fails the loop: every failure mode is folded into a synthesized error
// output the model can read.
func (o *Orchestrator) executeCall(ctx context.Context, req *GenerateRequest, tools *toolSet, tc models.ToolCallPart) (output []models.TextPart) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("tool panicked", "tool", tc.ToolName, "conversation", req.ConversationID, "panic", r)
			output = synthesizeError(errKindExecution, fmt.Sprintf("tool %q panicked: %v", tc.ToolName, r))
		}
	}()

	if tc.Approval == models.ApprovalDenied {
		reason := strings.TrimSpace(tc.DeniedReason)
		if reason == "" {
			reason = noReasonFallback
		}
		return synthesizeError(errKindDenied, reason)
	}

	tool, found := tools.lookup(tc.ToolName)
	if !found {
		return synthesizeError(errKindToolNotFound, fmt.Sprintf("tool %q not found", tc.ToolName))
	}

	if req.Phase != models.PhaseNone {
		operation := OperationFromArgs(tc.ArgsJSON)
		if !IsAllowed(req.Phase, tc.ToolName, operation) {
			o.logger.Info("tool call rejected by phase gate",
				"tool", tc.ToolName, "operation", operation, "phase", req.Phase)
			return synthesizeError(errKindPolicy, RejectionMessage(req.Phase, tc.ToolName))
		}
	}

	result, err := tool.Execute(ctx, tc.ArgsJSON)
	if err != nil {
		o.logger.Warn("tool execution failed", "tool", tc.ToolName, "error", err)
		return synthesizeError(errKindExecution, err.Error())
	}
	if result == nil {
		// Executed calls always carry non-nil output.
		result = []models.TextPart{}
	}
	return result
}

// assembleTools builds the per-step tool set: built-in memory tools (when
// the assistant enables memory and a store is wired) before the caller's
// tools. Duplicate names resolve to the first occurrence.
func (o *Orchestrator) assembleTools(req *GenerateRequest) *toolSet {
	var builtin []adapter.Tool
	if req.Assistant.EnableMemory && o.memory != nil {
		scope := req.Assistant.Name
		if scope == "" {
			scope = memory.GlobalScope
		}
		builtin = memory.Tools(o.memory, scope)
	}
	return newToolSet(builtin, req.Tools)
}

// toolSet is a per-step tool collection with first-wins name lookup.
type toolSet struct {
	ordered []adapter.Tool
	byName  map[string]adapter.Tool
}

func newToolSet(lists ...[]adapter.Tool) *toolSet {
	ts := &toolSet{byName: make(map[string]adapter.Tool)}
	for _, list := range lists {
		for _, tool := range list {
			if _, exists := ts.byName[tool.Name()]; exists {
				continue
			}
			ts.byName[tool.Name()] = tool
			ts.ordered = append(ts.ordered, tool)
		}
	}
	return ts
}

func (ts *toolSet) lookup(name string) (adapter.Tool, bool) {
	tool, ok := ts.byName[name]
	return tool, ok
}

func (ts *toolSet) definitions() []provider.ToolDefinition {
	defs := make([]provider.ToolDefinition, 0, len(ts.ordered))
	for _, tool := range ts.ordered {
		defs = append(defs, tool.Definition())
	}
	return defs
}

func lastMessage(messages []models.Message) models.Message {
	if len(messages) == 0 {
		return models.Message{}
	}
	return messages[len(messages)-1]
}

// hasResolvedUnexecuted reports whether the last message carries tool
// calls resolved by an external actor but not yet executed, the resume
// condition after an approval suspension.
func hasResolvedUnexecuted(messages []models.Message) bool {
	for _, tc := range lastMessage(messages).ToolCalls() {
		if !tc.Executed && tc.Approval.Resolved() {
			return true
		}
	}
	return false
}

// unexecutedCalls collects the last message's tool calls still awaiting
// execution.
func unexecutedCalls(messages []models.Message) []models.ToolCallPart {
	var calls []models.ToolCallPart
	for _, tc := range lastMessage(messages).ToolCalls() {
		if !tc.Executed {
			calls = append(calls, tc)
		}
	}
	return calls
}
