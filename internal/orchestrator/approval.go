package orchestrator

import (
	"encoding/json"
	"fmt"

	"github.com/strandchat/strand/internal/orchestrator/models"
)

// noReasonFallback is embedded in the synthesized output when a denial
// carries no explanation.
const noReasonFallback = "No reason provided"

// toolErrorKind classifies a synthesized tool-error output for model
// consumption. These land in conversation text, never in the run's error.
type toolErrorKind string

const (
	errKindDenied       toolErrorKind = "denied"
	errKindToolNotFound toolErrorKind = "tool_not_found"
	errKindPolicy       toolErrorKind = "policy_violation"
	errKindInvalidArgs  toolErrorKind = "invalid_arguments"
	errKindExecution    toolErrorKind = "execution_error"
)

// toolErrorPayload is the structured body of a synthesized error output.
type toolErrorPayload struct {
	Error string `json:"error"`
	Type  string `json:"type"`
}

// synthesizeError renders a per-call failure as ordinary tool output text.
func synthesizeError(kind toolErrorKind, detail string) []models.TextPart {
	payload := toolErrorPayload{Error: detail, Type: string(kind)}
	data, err := json.Marshal(payload)
	if err != nil {
		// Payload is two plain strings; marshal cannot realistically fail.
		data = []byte(fmt.Sprintf(`{"error":%q,"type":%q}`, detail, kind))
	}
	return []models.TextPart{{Content: string(data)}}
}

// ResolveApproval marks the pending tool call with the given ID as
// approved or denied and returns a new message list; the input is not
// mutated. External actors call this between orchestrator invocations;
// the next Generate call picks the resolution up on its resume path.
func ResolveApproval(messages []models.Message, callID string, approved bool, reason string) ([]models.Message, error) {
	out := models.CloneMessages(messages)
	for mi := len(out) - 1; mi >= 0; mi-- {
		for pi, part := range out[mi].Parts {
			tc, ok := part.(models.ToolCallPart)
			if !ok || tc.ID != callID {
				continue
			}
			if tc.Approval != models.ApprovalPending {
				return nil, fmt.Errorf("tool call %s is %s, not pending", callID, tc.Approval)
			}
			if approved {
				tc.Approval = models.ApprovalApproved
			} else {
				tc.Approval = models.ApprovalDenied
				tc.DeniedReason = reason
			}
			out[mi].Parts[pi] = tc
			return out, nil
		}
	}
	return nil, fmt.Errorf("tool call %s not found", callID)
}

// PendingCalls lists the unexecuted pending tool calls of the last
// message, the ones an external actor must resolve before the
// orchestrator can make progress again.
func PendingCalls(messages []models.Message) []models.ToolCallPart {
	if len(messages) == 0 {
		return nil
	}
	var pending []models.ToolCallPart
	for _, tc := range messages[len(messages)-1].ToolCalls() {
		if !tc.Executed && tc.Approval == models.ApprovalPending {
			pending = append(pending, tc)
		}
	}
	return pending
}
