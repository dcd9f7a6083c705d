package orchestrator

import (
	"context"
	"io"

	"github.com/strandchat/strand/internal/orchestrator/models"
)

// GenerationStream is the lazy, single-use sequence of conversation
// snapshots produced by one Generate invocation. Chunks arrive in emission
// order; every chunk is an internally consistent conversation state, so
// the consumer may stop at any boundary.
type GenerationStream struct {
	ch     chan models.GenerationChunk
	cancel context.CancelFunc

	// err is written by the producing goroutine before ch is closed and
	// read only after the close is observed.
	err  error
	done bool
}

func newGenerationStream(cancel context.CancelFunc) *GenerationStream {
	return &GenerationStream{
		ch:     make(chan models.GenerationChunk),
		cancel: cancel,
	}
}

// Next returns the next emitted chunk. It returns io.EOF when the run
// finished (including step-budget exhaustion and approval suspension) and
// the run's failure for provider errors.
func (s *GenerationStream) Next() (*models.GenerationChunk, error) {
	if s.done {
		return nil, s.finalErr()
	}
	chunk, ok := <-s.ch
	if !ok {
		s.done = true
		return nil, s.finalErr()
	}
	return &chunk, nil
}

// Close stops the run. In-flight provider calls and tool executions are
// cancelled through context propagation.
func (s *GenerationStream) Close() error {
	s.cancel()
	return nil
}

func (s *GenerationStream) finalErr() error {
	if s.err != nil {
		return s.err
	}
	return io.EOF
}
