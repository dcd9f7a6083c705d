package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	entry, err := store.Create(ctx, "helper", "likes jazz")
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "likes jazz", entry.Content)

	require.NoError(t, store.Update(ctx, "helper", entry.ID, "likes bebop"))

	entries, err := store.List(ctx, "helper")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "likes bebop", entries[0].Content)

	require.NoError(t, store.Delete(ctx, "helper", entry.ID))
	entries, err = store.List(ctx, "helper")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestInMemoryStore_ScopesAreIsolated(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	_, err := store.Create(ctx, "alpha", "fact a")
	require.NoError(t, err)

	entries, err := store.List(ctx, "beta")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestInMemoryStore_NotFound(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	assert.ErrorIs(t, store.Update(ctx, "helper", "missing", "x"), ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "helper", "missing"), ErrNotFound)
}

func TestSummary_IncludesGlobalScope(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	_, err := store.Create(ctx, "helper", "scoped fact")
	require.NoError(t, err)
	_, err = store.Create(ctx, GlobalScope, "global fact")
	require.NoError(t, err)

	summary, err := Summary(ctx, store, "helper")
	require.NoError(t, err)
	assert.Contains(t, summary, "scoped fact")
	assert.Contains(t, summary, "global fact")
}

func TestSummary_EmptyStore(t *testing.T) {
	summary, err := Summary(context.Background(), NewInMemoryStore(), "helper")
	require.NoError(t, err)
	assert.Empty(t, summary)
}

func TestTools_CreateUpdateDelete(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	tools := Tools(store, "helper")
	require.Len(t, tools, 3)

	byName := map[string]int{}
	for i, tool := range tools {
		byName[tool.Name()] = i
		assert.False(t, tool.NeedsApproval())
	}

	_, err := tools[byName["memory_create"]].Execute(ctx, `{"content":"likes jazz"}`)
	require.NoError(t, err)

	entries, err := store.List(ctx, "helper")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	args := `{"id":"` + entries[0].ID + `","content":"likes bebop"}`
	_, err = tools[byName["memory_update"]].Execute(ctx, args)
	require.NoError(t, err)

	entries, err = store.List(ctx, "helper")
	require.NoError(t, err)
	assert.Equal(t, "likes bebop", entries[0].Content)

	_, err = tools[byName["memory_delete"]].Execute(ctx, `{"id":"`+entries[0].ID+`"}`)
	require.NoError(t, err)

	entries, err = store.List(ctx, "helper")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestTools_ValidationErrors(t *testing.T) {
	ctx := context.Background()
	tools := Tools(NewInMemoryStore(), "helper")

	_, err := tools[0].Execute(ctx, `{}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "content is required")

	_, err = tools[1].Execute(ctx, `{"content":"x"}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "id is required")
}

func TestTools_PromptAppearsOnce(t *testing.T) {
	tools := Tools(NewInMemoryStore(), "helper")

	withPrompt := 0
	for _, tool := range tools {
		if tool.Prompt("", nil) != "" {
			withPrompt++
		}
	}
	assert.Equal(t, 1, withPrompt)
}
