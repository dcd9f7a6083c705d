package orchestrator

import (
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/strandchat/strand/internal/orchestrator/models"
	provider "github.com/strandchat/strand/internal/provider/models"
)

// applyDelta merges one provider delta into the in-progress assistant
// message and returns the updated copy. Deltas are applied strictly in
// delivery order; the input message is not mutated.
func applyDelta(msg models.Message, d *provider.Delta) models.Message {
	out := msg.Clone()

	if d.Text != "" {
		appended := false
		if n := len(out.Parts); n > 0 {
			if t, ok := out.Parts[n-1].(models.TextPart); ok {
				t.Content += d.Text
				out.Parts[n-1] = t
				appended = true
			}
		}
		if !appended {
			out.Parts = append(out.Parts, models.TextPart{Content: d.Text})
		}
	}

	for _, tcd := range d.ToolCalls {
		out = applyToolCallDelta(out, tcd)
	}

	if d.Usage != nil {
		if out.Usage == nil {
			out.Usage = &models.Usage{}
		}
		out.Usage.Add(*d.Usage)
	}

	return out
}

// applyToolCallDelta creates or extends the tool-call part addressed by
// the delta. A delta carrying an ID binds to the part with that ID first;
// otherwise the index counts tool-call parts within the message, and the
// assistant message of a round starts empty so positions line up with
// provider call indices. A positional match whose ID conflicts with the
// delta's is never extended; the delta starts a new part instead.
func applyToolCallDelta(msg models.Message, tcd provider.ToolCallDelta) models.Message {
	if tcd.ID != "" {
		for pi, part := range msg.Parts {
			tc, ok := part.(models.ToolCallPart)
			if !ok || tc.ID != tcd.ID {
				continue
			}
			if tcd.ToolName != "" && tc.ToolName == "" {
				tc.ToolName = tcd.ToolName
			}
			tc.ArgsJSON += tcd.ArgsDelta
			msg.Parts[pi] = tc
			return msg
		}
	}

	seen := 0
	for pi, part := range msg.Parts {
		tc, ok := part.(models.ToolCallPart)
		if !ok {
			continue
		}
		if seen == tcd.Index {
			if tcd.ID != "" && tc.ID != "" && tc.ID != tcd.ID {
				break
			}
			if tcd.ID != "" && tc.ID == "" {
				tc.ID = tcd.ID
			}
			if tcd.ToolName != "" && tc.ToolName == "" {
				tc.ToolName = tcd.ToolName
			}
			tc.ArgsJSON += tcd.ArgsDelta
			msg.Parts[pi] = tc
			return msg
		}
		seen++
	}

	msg.Parts = append(msg.Parts, models.ToolCallPart{
		ID:       tcd.ID,
		ToolName: tcd.ToolName,
		ArgsJSON: tcd.ArgsDelta,
		Approval: models.ApprovalAuto,
	})
	return msg
}

// assignCallIDs backfills IDs on tool calls whose provider did not supply
// one, so approval resolution can address them.
func assignCallIDs(msg models.Message) models.Message {
	for pi, part := range msg.Parts {
		tc, ok := part.(models.ToolCallPart)
		if !ok || tc.ID != "" {
			continue
		}
		tc.ID = gonanoid.Must()
		msg.Parts[pi] = tc
	}
	return msg
}

// replaceExecuted swaps each named tool call of the message for its
// executed version, matched by ID, keeping positions and every other part
// unchanged. Calls already executed with identical state are untouched,
// which makes the operation idempotent.
func replaceExecuted(msg models.Message, executed []models.ToolCallPart) models.Message {
	out := msg.Clone()
	for _, e := range executed {
		for pi, part := range out.Parts {
			tc, ok := part.(models.ToolCallPart)
			if !ok || tc.ID != e.ID {
				continue
			}
			out.Parts[pi] = e.Clone()
			break
		}
	}
	return out
}

// replaceLast returns a copy of the conversation with its final message
// swapped out.
func replaceLast(messages []models.Message, last models.Message) []models.Message {
	out := make([]models.Message, len(messages))
	copy(out, messages[:len(messages)-1])
	out[len(messages)-1] = last
	return out
}
