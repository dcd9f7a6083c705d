package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/strandchat/strand/internal/memory"
	"github.com/strandchat/strand/internal/orchestrator/models"
)

// buildSystemPrompt assembles the internal prompt for one generation
// round: assistant prompt, memory summary, recap of truncated history,
// phase instructions, then each tool's own fragment.
func (o *Orchestrator) buildSystemPrompt(ctx context.Context, req *GenerateRequest, tools *toolSet, truncated []models.Message) (string, error) {
	var sections []string

	if req.Assistant.SystemPrompt != "" {
		sections = append(sections, req.Assistant.SystemPrompt)
	}

	if req.Assistant.EnableMemory && o.memory != nil {
		scope := req.Assistant.Name
		if scope == "" {
			scope = memory.GlobalScope
		}
		summary, err := memory.Summary(ctx, o.memory, scope)
		if err != nil {
			return "", fmt.Errorf("memory summary: %w", err)
		}
		if summary != "" {
			sections = append(sections, summary)
		}
	}

	if req.Assistant.SummarizeHistory && len(truncated) > 0 {
		sections = append(sections, historyRecap(truncated))
	}

	if req.Phase != models.PhaseNone {
		sections = append(sections, phaseInstructions(req.Phase))
	}

	for _, tool := range tools.ordered {
		if fragment := tool.Prompt(req.Model, req.Messages); fragment != "" {
			sections = append(sections, fragment)
		}
	}

	return strings.Join(sections, "\n\n"), nil
}

// historyRecap renders a short recap of messages dropped by truncation.
func historyRecap(truncated []models.Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Earlier conversation (%d older messages not shown in full):\n", len(truncated))
	for _, msg := range truncated {
		text := strings.TrimSpace(msg.Text())
		if text == "" {
			continue
		}
		// Truncate on rune boundaries so multibyte text stays valid UTF-8.
		if runes := []rune(text); len(runes) > 120 {
			text = string(runes[:120]) + "…"
		}
		fmt.Fprintf(&b, "- %s: %s\n", msg.Role, text)
	}
	return strings.TrimRight(b.String(), "\n")
}

// phaseInstructions is the workflow-phase block injected into the system
// prompt so the model knows which operations are currently permitted.
func phaseInstructions(phase models.WorkflowPhase) string {
	switch phase {
	case models.PhasePlan:
		return "Current workflow phase: PLAN. This phase is read-only. " +
			"Inspect files and gather context, but do not modify anything or run arbitrary code. " +
			"Write-capable tool operations will be rejected; propose a plan and ask the user to switch to the execute phase."
	case models.PhaseReview:
		return "Current workflow phase: REVIEW. This phase is read-only. " +
			"Examine the completed work and report findings. " +
			"Write-capable tool operations will be rejected until the user switches back to the execute phase."
	case models.PhaseExecute:
		return "Current workflow phase: EXECUTE. All tool operations are available."
	default:
		return ""
	}
}

// truncateHistory applies the caller's truncation index and the
// assistant's context limit, returning the kept tail and the dropped
// prefix (for the recap block).
func truncateHistory(messages []models.Message, truncateBefore, contextLimit int) (kept, truncated []models.Message) {
	kept = messages
	if truncateBefore > 0 && truncateBefore < len(kept) {
		truncated = append(truncated, kept[:truncateBefore]...)
		kept = kept[truncateBefore:]
	}
	if contextLimit > 0 && len(kept) > contextLimit {
		truncated = append(truncated, kept[:len(kept)-contextLimit]...)
		kept = kept[len(kept)-contextLimit:]
	}
	return kept, truncated
}
