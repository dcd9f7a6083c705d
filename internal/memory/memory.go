// Package memory stores long-lived assistant memories and exposes them to
// the generation loop as built-in tools plus a prompt summary block.
package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// GlobalScope is the scope identifier for memories shared by every
// assistant.
const GlobalScope = "global"

// ErrNotFound is returned when a memory entry does not exist in a scope.
var ErrNotFound = errors.New("memory entry not found")

// Entry is a single remembered fact.
type Entry struct {
	ID      string
	Content string
}

// Store persists memory entries keyed by an assistant or global scope
// identifier. Implementations must be safe for concurrent use.
type Store interface {
	Create(ctx context.Context, scope, content string) (Entry, error)
	Update(ctx context.Context, scope, id, content string) error
	Delete(ctx context.Context, scope, id string) error
	List(ctx context.Context, scope string) ([]Entry, error)
}

// InMemoryStore is a process-local Store.
type InMemoryStore struct {
	mu     sync.RWMutex
	scopes map[string]map[string]string
}

// NewInMemoryStore returns an empty in-process store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{scopes: make(map[string]map[string]string)}
}

func (s *InMemoryStore) Create(ctx context.Context, scope, content string) (Entry, error) {
	id, err := gonanoid.New()
	if err != nil {
		return Entry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scopes[scope] == nil {
		s.scopes[scope] = make(map[string]string)
	}
	s.scopes[scope][id] = content
	return Entry{ID: id, Content: content}, nil
}

func (s *InMemoryStore) Update(ctx context.Context, scope, id, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.scopes[scope][id]; !ok {
		return ErrNotFound
	}
	s.scopes[scope][id] = content
	return nil
}

func (s *InMemoryStore) Delete(ctx context.Context, scope, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.scopes[scope][id]; !ok {
		return ErrNotFound
	}
	delete(s.scopes[scope], id)
	return nil
}

func (s *InMemoryStore) List(ctx context.Context, scope string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]Entry, 0, len(s.scopes[scope]))
	for id, content := range s.scopes[scope] {
		entries = append(entries, Entry{ID: id, Content: content})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}

// Summary renders the assistant's memories (scope plus global) as a
// prompt block. Returns "" when nothing is remembered.
func Summary(ctx context.Context, store Store, scope string) (string, error) {
	var b strings.Builder
	scopes := []string{scope}
	if scope != GlobalScope {
		scopes = append(scopes, GlobalScope)
	}
	for _, sc := range scopes {
		entries, err := store.List(ctx, sc)
		if err != nil {
			return "", err
		}
		for _, e := range entries {
			b.WriteString("- [")
			b.WriteString(e.ID)
			b.WriteString("] ")
			b.WriteString(e.Content)
			b.WriteByte('\n')
		}
	}
	if b.Len() == 0 {
		return "", nil
	}
	return "Memories about the user and past conversations:\n" + b.String(), nil
}
