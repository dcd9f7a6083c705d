// Package gemini implements the provider interface on top of the Google
// Gemini API.
package gemini

import (
	"context"
	"io"
	"iter"

	"google.golang.org/genai"

	provider "github.com/strandchat/strand/internal/provider/models"
)

// Provider implements provider.Provider for Google Gemini.
//
// Per-request header and body passthrough is not supported by this
// backend; custom headers belong on the SDK client's HTTP options.
type Provider struct {
	client Client
}

// New creates a Provider from a Client.
func New(client Client) *Provider {
	return &Provider{client: client}
}

// Generate sends a single-shot request to the Gemini API.
func (p *Provider) Generate(ctx context.Context, req *provider.GenerateRequest) (*provider.Delta, error) {
	contents := toGeminiContents(req.Messages)
	config := toGeminiConfig(req)

	resp, err := p.client.GenerateContent(ctx, req.Model, contents, config)
	if err != nil {
		return nil, mapGeminiError(err)
	}
	return fromGeminiResponse(resp, 0)
}

// GenerateStream opens a streaming request to the Gemini API.
func (p *Provider) GenerateStream(ctx context.Context, req *provider.GenerateRequest) (provider.ResponseStream, error) {
	contents := toGeminiContents(req.Messages)
	config := toGeminiConfig(req)

	seq := p.client.GenerateContentStream(ctx, req.Model, contents, config)
	next, stop := iter.Pull2(seq)
	return &responseStream{next: next, stop: stop}, nil
}

// responseStream adapts the SDK's pull iterator to provider.ResponseStream.
// callIndex carries the round-scoped function-call index across responses
// so calls split over several stream increments keep distinct indices.
type responseStream struct {
	next      func() (*genai.GenerateContentResponse, error, bool)
	stop      func()
	callIndex int
}

func (s *responseStream) Next() (*provider.Delta, error) {
	resp, err, ok := s.next()
	if !ok {
		return nil, io.EOF
	}
	if err != nil {
		return nil, mapGeminiError(err)
	}
	delta, err := fromGeminiResponse(resp, s.callIndex)
	if err != nil {
		return nil, err
	}
	s.callIndex += len(delta.ToolCalls)
	return delta, nil
}

func (s *responseStream) Close() error {
	s.stop()
	return nil
}
