package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strandchat/strand/internal/orchestrator/models"
	provider "github.com/strandchat/strand/internal/provider/models"
)

func TestApplyDelta_TextAppendsToTrailingPart(t *testing.T) {
	msg := models.Message{Role: models.RoleAssistant}

	msg = applyDelta(msg, &provider.Delta{Text: "Hel"})
	msg = applyDelta(msg, &provider.Delta{Text: "lo"})

	require.Len(t, msg.Parts, 1)
	assert.Equal(t, "Hello", msg.Text())
}

func TestApplyDelta_TextAfterToolCallStartsNewPart(t *testing.T) {
	msg := models.Message{Role: models.RoleAssistant}

	msg = applyDelta(msg, &provider.Delta{Text: "Thinking."})
	msg = applyDelta(msg, &provider.Delta{ToolCalls: []provider.ToolCallDelta{
		{Index: 0, ID: "c1", ToolName: "lookup", ArgsDelta: `{}`},
	}})
	msg = applyDelta(msg, &provider.Delta{Text: "Done."})

	require.Len(t, msg.Parts, 3)
	assert.Equal(t, "Thinking.Done.", msg.Text())
}

func TestApplyDelta_ToolCallArgsAccumulate(t *testing.T) {
	msg := models.Message{Role: models.RoleAssistant}

	msg = applyDelta(msg, &provider.Delta{ToolCalls: []provider.ToolCallDelta{
		{Index: 0, ID: "c1", ToolName: "lookup", ArgsDelta: `{"query":`},
	}})
	msg = applyDelta(msg, &provider.Delta{ToolCalls: []provider.ToolCallDelta{
		{Index: 0, ArgsDelta: `"weather"}`},
	}})

	calls := msg.ToolCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "c1", calls[0].ID)
	assert.Equal(t, "lookup", calls[0].ToolName)
	assert.Equal(t, `{"query":"weather"}`, calls[0].ArgsJSON)
	assert.Equal(t, models.ApprovalAuto, calls[0].Approval)
}

func TestApplyDelta_ParallelToolCallsByIndex(t *testing.T) {
	msg := models.Message{Role: models.RoleAssistant}

	msg = applyDelta(msg, &provider.Delta{ToolCalls: []provider.ToolCallDelta{
		{Index: 0, ID: "c1", ToolName: "first", ArgsDelta: `{"a":1}`},
		{Index: 1, ID: "c2", ToolName: "second", ArgsDelta: `{"b":`},
	}})
	msg = applyDelta(msg, &provider.Delta{ToolCalls: []provider.ToolCallDelta{
		{Index: 1, ArgsDelta: `2}`},
	}})

	calls := msg.ToolCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, "first", calls[0].ToolName)
	assert.Equal(t, `{"b":2}`, calls[1].ArgsJSON)
}

func TestApplyDelta_PrefersIDMatchOverIndex(t *testing.T) {
	msg := models.Message{Role: models.RoleAssistant}

	msg = applyDelta(msg, &provider.Delta{ToolCalls: []provider.ToolCallDelta{
		{Index: 0, ID: "c1", ToolName: "lookup", ArgsDelta: `{"query":`},
	}})
	// Continuation addressed by ID binds to the right part even when the
	// index disagrees.
	msg = applyDelta(msg, &provider.Delta{ToolCalls: []provider.ToolCallDelta{
		{Index: 3, ID: "c1", ArgsDelta: `"weather"}`},
	}})

	calls := msg.ToolCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, `{"query":"weather"}`, calls[0].ArgsJSON)
}

func TestApplyDelta_ConflictingIDStartsNewPart(t *testing.T) {
	msg := models.Message{Role: models.RoleAssistant}

	// Two distinct calls that both claim index 0 must not collapse into
	// one part with concatenated argument JSON.
	msg = applyDelta(msg, &provider.Delta{ToolCalls: []provider.ToolCallDelta{
		{Index: 0, ID: "c1", ToolName: "alpha", ArgsDelta: `{"n":"alpha"}`},
	}})
	msg = applyDelta(msg, &provider.Delta{ToolCalls: []provider.ToolCallDelta{
		{Index: 0, ID: "c2", ToolName: "beta", ArgsDelta: `{"n":"beta"}`},
	}})

	calls := msg.ToolCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, "alpha", calls[0].ToolName)
	assert.Equal(t, `{"n":"alpha"}`, calls[0].ArgsJSON)
	assert.Equal(t, "beta", calls[1].ToolName)
	assert.Equal(t, `{"n":"beta"}`, calls[1].ArgsJSON)
}

func TestApplyDelta_UsageMergesByAddition(t *testing.T) {
	msg := models.Message{Role: models.RoleAssistant}

	msg = applyDelta(msg, &provider.Delta{Usage: &models.Usage{PromptTokens: 10, TotalTokens: 10}})
	msg = applyDelta(msg, &provider.Delta{Usage: &models.Usage{CompletionTokens: 4, TotalTokens: 4}})

	require.NotNil(t, msg.Usage)
	assert.Equal(t, 10, msg.Usage.PromptTokens)
	assert.Equal(t, 4, msg.Usage.CompletionTokens)
	assert.Equal(t, 14, msg.Usage.TotalTokens)
}

func TestApplyDelta_DoesNotMutateInput(t *testing.T) {
	msg := models.Message{Role: models.RoleAssistant, Parts: []models.Part{models.TextPart{Content: "a"}}}

	_ = applyDelta(msg, &provider.Delta{Text: "b"})

	assert.Equal(t, "a", msg.Text())
}

func TestAssignCallIDs_BackfillsOnlyMissing(t *testing.T) {
	msg := models.Message{Parts: []models.Part{
		models.ToolCallPart{ID: "keep", ToolName: "first"},
		models.ToolCallPart{ToolName: "second"},
	}}

	msg = assignCallIDs(msg)

	calls := msg.ToolCalls()
	assert.Equal(t, "keep", calls[0].ID)
	assert.NotEmpty(t, calls[1].ID)
	assert.NotEqual(t, calls[0].ID, calls[1].ID)
}

func TestReplaceExecuted_PositionalAndIdempotent(t *testing.T) {
	msg := models.Message{Parts: []models.Part{
		models.TextPart{Content: "leading"},
		models.ToolCallPart{ID: "c1", ToolName: "first"},
		models.ToolCallPart{ID: "c2", ToolName: "second"},
	}}

	executed := models.ToolCallPart{
		ID:       "c2",
		ToolName: "second",
		Executed: true,
		Output:   []models.TextPart{{Content: "out"}},
	}

	once := replaceExecuted(msg, []models.ToolCallPart{executed})
	twice := replaceExecuted(once, []models.ToolCallPart{executed})

	require.Len(t, once.Parts, 3)
	assert.Equal(t, "leading", once.Text())
	assert.False(t, once.ToolCalls()[0].Executed)
	assert.True(t, once.ToolCalls()[1].Executed)
	assert.Equal(t, once, twice)
}

func TestReplaceExecuted_UnknownIDIsNoop(t *testing.T) {
	msg := models.Message{Parts: []models.Part{
		models.ToolCallPart{ID: "c1", ToolName: "first"},
	}}

	out := replaceExecuted(msg, []models.ToolCallPart{{ID: "missing", Executed: true, Output: []models.TextPart{}}})

	assert.Equal(t, msg, out)
}
