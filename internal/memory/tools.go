package memory

import (
	"context"
	"fmt"

	"github.com/strandchat/strand/internal/orchestrator/adapter"
)

const memoryPrompt = `You can persist important facts about the user across conversations with
memory_create, memory_update and memory_delete. Store concise, durable facts only.`

type createRequest struct {
	Content string `json:"content" jsonschema:"description=The fact to remember"`
}

func (r createRequest) Validate() error {
	if r.Content == "" {
		return fmt.Errorf("content is required")
	}
	return nil
}

type updateRequest struct {
	ID      string `json:"id" jsonschema:"description=ID of the memory to update"`
	Content string `json:"content" jsonschema:"description=Replacement content"`
}

func (r updateRequest) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("id is required")
	}
	if r.Content == "" {
		return fmt.Errorf("content is required")
	}
	return nil
}

type deleteRequest struct {
	ID string `json:"id" jsonschema:"description=ID of the memory to delete"`
}

func (r deleteRequest) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("id is required")
	}
	return nil
}

type memoryResponse struct {
	ID   string `json:"id,omitempty"`
	Done bool   `json:"done"`
}

// Tools returns the built-in memory tool set bound to a store and scope.
// None of them require approval. Only memory_create carries the shared
// prompt fragment so the block appears once per round.
func Tools(store Store, scope string) []adapter.Tool {
	if scope == "" {
		scope = GlobalScope
	}
	return []adapter.Tool{
		adapter.NewBaseAdapter[createRequest, memoryResponse](
			"memory_create",
			"Remember a new fact about the user or conversation.",
			memoryPrompt,
			false,
			func(ctx context.Context, req createRequest) (memoryResponse, error) {
				entry, err := store.Create(ctx, scope, req.Content)
				if err != nil {
					return memoryResponse{}, err
				}
				return memoryResponse{ID: entry.ID, Done: true}, nil
			},
		),
		adapter.NewBaseAdapter[updateRequest, memoryResponse](
			"memory_update",
			"Replace the content of an existing memory.",
			"",
			false,
			func(ctx context.Context, req updateRequest) (memoryResponse, error) {
				if err := store.Update(ctx, scope, req.ID, req.Content); err != nil {
					return memoryResponse{}, err
				}
				return memoryResponse{ID: req.ID, Done: true}, nil
			},
		),
		adapter.NewBaseAdapter[deleteRequest, memoryResponse](
			"memory_delete",
			"Forget a memory by ID.",
			"",
			false,
			func(ctx context.Context, req deleteRequest) (memoryResponse, error) {
				if err := store.Delete(ctx, scope, req.ID); err != nil {
					return memoryResponse{}, err
				}
				return memoryResponse{ID: req.ID, Done: true}, nil
			},
		),
	}
}
