// Package openai implements the provider interface on top of the OpenAI
// chat completions API (and OpenAI-compatible backends via base URL).
package openai

import (
	"context"
	"io"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"

	provider "github.com/strandchat/strand/internal/provider/models"
)

// Provider implements provider.Provider for OpenAI chat completions.
type Provider struct {
	client *openai.Client
}

// New creates a Provider. baseURL may be "" for the default endpoint.
func New(apiKey, baseURL string) *Provider {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Provider{client: openai.NewClient(opts...)}
}

// Generate sends a single-shot chat completion request.
func (p *Provider) Generate(ctx context.Context, req *provider.GenerateRequest) (*provider.Delta, error) {
	completion, err := p.client.Chat.Completions.New(ctx, p.params(req, false), requestOptions(req)...)
	if err != nil {
		return nil, mapOpenAIError(err)
	}
	return fromCompletion(completion), nil
}

// GenerateStream opens a streaming chat completion request.
func (p *Provider) GenerateStream(ctx context.Context, req *provider.GenerateRequest) (provider.ResponseStream, error) {
	stream := p.client.Chat.Completions.NewStreaming(ctx, p.params(req, true), requestOptions(req)...)
	return &responseStream{stream: stream}, nil
}

func (p *Provider) params(req *provider.GenerateRequest, streaming bool) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model:    openai.F(req.Model),
		Messages: openai.F(toChatMessages(req)),
	}

	if streaming {
		params.StreamOptions = openai.F(openai.ChatCompletionStreamOptionsParam{
			IncludeUsage: openai.F(true),
		})
	}

	if cfg := req.Config; cfg != nil {
		if cfg.Temperature != nil {
			params.Temperature = openai.F(float64(*cfg.Temperature))
		}
		if cfg.TopP != nil {
			params.TopP = openai.F(float64(*cfg.TopP))
		}
		if cfg.MaxTokens != nil {
			params.MaxTokens = openai.F(int64(*cfg.MaxTokens))
		}
	}

	if tools := toChatTools(req.Tools); len(tools) > 0 {
		params.Tools = openai.F(tools)
	}

	return params
}

// requestOptions applies the assistant's custom headers and extra body
// fields to a single request.
func requestOptions(req *provider.GenerateRequest) []option.RequestOption {
	var opts []option.RequestOption
	if cfg := req.Config; cfg != nil {
		for key, value := range cfg.Headers {
			opts = append(opts, option.WithHeader(key, value))
		}
		for key, value := range cfg.ExtraBody {
			opts = append(opts, option.WithJSONSet(key, value))
		}
	}
	return opts
}

// responseStream adapts the SDK's SSE stream to provider.ResponseStream.
type responseStream struct {
	stream *ssestream.Stream[openai.ChatCompletionChunk]
}

func (s *responseStream) Next() (*provider.Delta, error) {
	if !s.stream.Next() {
		if err := s.stream.Err(); err != nil {
			return nil, mapOpenAIError(err)
		}
		return nil, io.EOF
	}
	return fromChunk(s.stream.Current()), nil
}

func (s *responseStream) Close() error {
	return s.stream.Close()
}

// mapOpenAIError classifies backend failures.
func mapOpenAIError(err error) error {
	if err == nil {
		return nil
	}
	if apiErr, ok := err.(*openai.Error); ok {
		switch apiErr.StatusCode {
		case 401, 403:
			return &provider.ProviderError{
				Code:       provider.ErrorCodeAuth,
				Message:    "authentication failed",
				Underlying: err,
			}
		case 429:
			return &provider.ProviderError{
				Code:       provider.ErrorCodeRateLimit,
				Message:    "rate limit exceeded",
				Underlying: err,
				Retryable:  true,
			}
		case 400:
			return &provider.ProviderError{
				Code:       provider.ErrorCodeInvalidRequest,
				Message:    "invalid request",
				Underlying: err,
			}
		default:
			return &provider.ProviderError{
				Code:       provider.ErrorCodeNetwork,
				Message:    "API error",
				Underlying: err,
				Retryable:  apiErr.StatusCode >= 500,
			}
		}
	}
	return &provider.ProviderError{
		Code:       provider.ErrorCodeNetwork,
		Message:    "network error",
		Underlying: err,
		Retryable:  true,
	}
}
