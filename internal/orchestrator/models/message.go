package models

import "time"

// Role identifies the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	// RoleTool carries tool results back to the model. Providers that fold
	// tool output into function-response parts map it during conversion.
	RoleTool Role = "tool"
)

// Message is a single entry in the conversation history.
// Messages are never mutated in place by the orchestrator; every step
// produces a replacement snapshot (see CloneMessages).
type Message struct {
	Role       Role
	Parts      []Part
	Usage      *Usage
	FinishedAt *time.Time
}

// Part is one typed segment of a message. The variant set is closed:
// TextPart and ToolCallPart. Consumers must type-switch exhaustively.
type Part interface {
	isPart()
}

// TextPart is plain generated or synthesized text.
type TextPart struct {
	Content string
}

func (TextPart) isPart() {}

// ToolCallPart is a structured tool invocation requested by the model.
//
// Invariant: Executed implies Output != nil; an unexecuted call never
// carries output.
type ToolCallPart struct {
	ID       string
	ToolName string
	ArgsJSON string

	Approval     ApprovalState
	DeniedReason string

	Executed bool
	Output   []TextPart
}

func (ToolCallPart) isPart() {}

// Clone returns a deep copy of the part's mutable state.
func (p ToolCallPart) Clone() ToolCallPart {
	out := p
	if p.Output != nil {
		out.Output = make([]TextPart, len(p.Output))
		copy(out.Output, p.Output)
	}
	return out
}

// Usage accumulates token counts across a generation round.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Add merges another usage report by addition.
func (u *Usage) Add(other Usage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// Clone returns a deep copy of the message.
func (m Message) Clone() Message {
	out := m
	if m.Parts != nil {
		out.Parts = make([]Part, len(m.Parts))
		for i, p := range m.Parts {
			if tc, ok := p.(ToolCallPart); ok {
				out.Parts[i] = tc.Clone()
				continue
			}
			out.Parts[i] = p
		}
	}
	if m.Usage != nil {
		u := *m.Usage
		out.Usage = &u
	}
	if m.FinishedAt != nil {
		t := *m.FinishedAt
		out.FinishedAt = &t
	}
	return out
}

// CloneMessages deep-copies a conversation snapshot.
func CloneMessages(messages []Message) []Message {
	out := make([]Message, len(messages))
	for i, m := range messages {
		out[i] = m.Clone()
	}
	return out
}

// Text concatenates the message's text parts. Tool calls are skipped.
func (m Message) Text() string {
	var s string
	for _, p := range m.Parts {
		if t, ok := p.(TextPart); ok {
			s += t.Content
		}
	}
	return s
}

// ToolCalls returns the message's tool-call parts in order.
func (m Message) ToolCalls() []ToolCallPart {
	var calls []ToolCallPart
	for _, p := range m.Parts {
		if tc, ok := p.(ToolCallPart); ok {
			calls = append(calls, tc)
		}
	}
	return calls
}
