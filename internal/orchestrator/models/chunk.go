package models

// GenerationChunk is one emitted snapshot of the conversation. Chunks are
// immutable once emitted; each one holds its own deep copy of the
// message list so later steps cannot alias into it.
type GenerationChunk struct {
	Messages []Message
}

// NewChunk snapshots the given conversation state.
func NewChunk(messages []Message) GenerationChunk {
	return GenerationChunk{Messages: CloneMessages(messages)}
}

// Last returns the final message of the snapshot, or a zero Message when
// the snapshot is empty.
func (c GenerationChunk) Last() Message {
	if len(c.Messages) == 0 {
		return Message{}
	}
	return c.Messages[len(c.Messages)-1]
}
