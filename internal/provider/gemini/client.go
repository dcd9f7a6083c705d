package gemini

import (
	"context"
	"iter"

	"google.golang.org/genai"
)

// Client defines the interface for interacting with the Gemini API. The
// abstraction keeps the provider testable without network access.
type Client interface {
	// GenerateContent sends a single-shot request to the Gemini API.
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

	// GenerateContentStream opens a streaming request.
	GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]
}

// SDKClient wraps the official SDK client to satisfy Client.
type SDKClient struct {
	client *genai.Client
}

// NewSDKClient creates an SDKClient from an SDK client.
func NewSDKClient(client *genai.Client) *SDKClient {
	return &SDKClient{client: client}
}

// GenerateContent calls the SDK's GenerateContent method.
func (c *SDKClient) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return c.client.Models.GenerateContent(ctx, model, contents, config)
}

// GenerateContentStream calls the SDK's GenerateContentStream method.
func (c *SDKClient) GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error] {
	return c.client.Models.GenerateContentStream(ctx, model, contents, config)
}
