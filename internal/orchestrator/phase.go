package orchestrator

import (
	"fmt"
	"slices"

	"github.com/strandchat/strand/internal/orchestrator/models"
	"github.com/tidwall/gjson"
)

// Built-in tool names recognized by the phase gate.
const (
	// ToolSandboxFS operates on the conversation's sandboxed filesystem.
	// Its operations need operation-level gating, not just tool-level.
	ToolSandboxFS = "sandbox_fs"

	// ToolSandboxShell runs commands inside the sandbox. Always mutating,
	// so no operation of it is whitelisted outside Execute.
	ToolSandboxShell = "sandbox_shell"

	// ToolScriptEval and ToolWebSearch are side-effect free and allowed in
	// every phase.
	ToolScriptEval = "script_eval"
	ToolWebSearch  = "web_search"
)

// sandboxToolNames are the recognized sandbox-capability tools whose
// phase decision depends on the requested operation.
var sandboxToolNames = []string{ToolSandboxFS, ToolSandboxShell}

// readOnlyOperations is the fixed whitelist of sandbox operations allowed
// in the read-only phases (Plan, Review).
var readOnlyOperations = []string{
	"read", "list", "stat", "exists",
	"gitStatus", "gitLog", "gitDiff",
}

// IsAllowed decides whether a tool operation may run in the given phase.
// Pure and side-effect free; safe to call repeatedly and concurrently.
//
// Plan and Review are read-only analysis phases: only the always-safe
// tools and the read-only sandbox operations pass. A sandbox call without
// a recognizable operation is denied (fail closed). Execute allows
// everything, as does the absence of a phase.
func IsAllowed(phase models.WorkflowPhase, toolName, operation string) bool {
	switch phase {
	case models.PhaseNone, models.PhaseExecute:
		return true
	case models.PhasePlan, models.PhaseReview:
		if !slices.Contains(sandboxToolNames, toolName) {
			return toolName == ToolScriptEval || toolName == ToolWebSearch
		}
		if operation == "" {
			return false
		}
		return slices.Contains(readOnlyOperations, operation)
	default:
		return false
	}
}

// OperationFromArgs extracts the "operation" field from a tool call's JSON
// arguments. Malformed JSON or a missing/non-string field yields "".
func OperationFromArgs(argsJSON string) string {
	if !gjson.Valid(argsJSON) {
		return ""
	}
	v := gjson.Get(argsJSON, "operation")
	if v.Type != gjson.String {
		return ""
	}
	return v.String()
}

// RejectionMessage explains a phase denial to the model so it can adjust
// (typically by asking the user to switch phase).
func RejectionMessage(phase models.WorkflowPhase, toolName string) string {
	switch phase {
	case models.PhasePlan:
		return fmt.Sprintf(
			"Tool %q is not available while planning. The plan phase is read-only: inspect files and gather context, then ask the user to switch to the execute phase before making changes.",
			toolName)
	case models.PhaseReview:
		return fmt.Sprintf(
			"Tool %q is not available during review. The review phase is read-only: examine the work and report findings; switching to the execute phase is required for further changes.",
			toolName)
	default:
		return fmt.Sprintf("tool %q is not allowed in the current phase", toolName)
	}
}
