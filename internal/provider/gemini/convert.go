package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	chat "github.com/strandchat/strand/internal/orchestrator/models"
	provider "github.com/strandchat/strand/internal/provider/models"
)

// toGeminiContents converts conversation history to Gemini contents.
// Executed tool calls expand into a model content (the call) followed by
// a user content carrying the function responses, which is the shape the
// API expects.
func toGeminiContents(messages []chat.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		call, response := messageToGeminiContents(msg)
		if call != nil {
			contents = append(contents, call)
		}
		if response != nil {
			contents = append(contents, response)
		}
	}
	return contents
}

func messageToGeminiContents(msg chat.Message) (content, response *genai.Content) {
	role := genai.RoleUser
	if msg.Role == chat.RoleAssistant {
		role = genai.RoleModel
	}

	var parts []*genai.Part
	var responseParts []*genai.Part

	for _, part := range msg.Parts {
		switch p := part.(type) {
		case chat.TextPart:
			if p.Content != "" {
				parts = append(parts, genai.NewPartFromText(p.Content))
			}
		case chat.ToolCallPart:
			args := map[string]any{}
			if p.ArgsJSON != "" {
				// Undecodable args still round-trip as a raw string.
				if err := json.Unmarshal([]byte(p.ArgsJSON), &args); err != nil {
					args = map[string]any{"raw": p.ArgsJSON}
				}
			}
			parts = append(parts, &genai.Part{
				FunctionCall: &genai.FunctionCall{
					ID:   p.ID,
					Name: p.ToolName,
					Args: args,
				},
			})
			if p.Executed {
				var output strings.Builder
				for _, t := range p.Output {
					output.WriteString(t.Content)
				}
				responseParts = append(responseParts, &genai.Part{
					FunctionResponse: &genai.FunctionResponse{
						ID:       p.ID,
						Name:     p.ToolName,
						Response: map[string]any{"content": output.String()},
					},
				})
			}
		}
	}

	if len(parts) > 0 {
		content = &genai.Content{Role: role, Parts: parts}
	}
	if len(responseParts) > 0 {
		response = &genai.Content{Role: genai.RoleUser, Parts: responseParts}
	}
	return content, response
}

// toGeminiConfig converts a generate request to Gemini config.
func toGeminiConfig(req *provider.GenerateRequest) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		SafetySettings: defaultSafetySettings(),
	}

	if req.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(req.System)},
		}
	}

	if cfg := req.Config; cfg != nil {
		if cfg.Temperature != nil {
			config.Temperature = cfg.Temperature
		}
		if cfg.TopP != nil {
			config.TopP = cfg.TopP
		}
		if cfg.MaxTokens != nil {
			config.MaxOutputTokens = int32(*cfg.MaxTokens)
		}
	}

	if len(req.Tools) > 0 {
		config.Tools = toGeminiTools(req.Tools)
	}

	return config
}

// defaultSafetySettings disables SDK-side blocking; content policy is the
// application's concern.
func defaultSafetySettings() []*genai.SafetySetting {
	categories := []genai.HarmCategory{
		genai.HarmCategoryHateSpeech,
		genai.HarmCategoryDangerousContent,
		genai.HarmCategoryHarassment,
		genai.HarmCategorySexuallyExplicit,
	}
	settings := make([]*genai.SafetySetting, 0, len(categories))
	for _, c := range categories {
		settings = append(settings, &genai.SafetySetting{
			Category:  c,
			Threshold: genai.HarmBlockThresholdOff,
		})
	}
	return settings
}

// toGeminiTools converts tool definitions to Gemini function declarations.
func toGeminiTools(tools []provider.ToolDefinition) []*genai.Tool {
	declarations := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, tool := range tools {
		fd := &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
		}
		if tool.Parameters != nil {
			fd.Parameters = toGeminiSchema(tool.Parameters)
		}
		declarations = append(declarations, fd)
	}
	return []*genai.Tool{{FunctionDeclarations: declarations}}
}

func toGeminiSchema(params *provider.ParameterSchema) *genai.Schema {
	schema := &genai.Schema{Type: genai.TypeObject}

	if params.Properties != nil {
		schema.Properties = make(map[string]*genai.Schema)
		for name, prop := range params.Properties {
			s := &genai.Schema{
				Type:        toGeminiType(prop.Type),
				Description: prop.Description,
			}
			if len(prop.Enum) > 0 {
				s.Enum = prop.Enum
			}
			if prop.Items != nil {
				s.Items = &genai.Schema{
					Type:        toGeminiType(prop.Items.Type),
					Description: prop.Items.Description,
				}
			}
			schema.Properties[name] = s
		}
	}

	if len(params.Required) > 0 {
		schema.Required = params.Required
	}
	return schema
}

func toGeminiType(typeStr string) genai.Type {
	switch typeStr {
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}

// fromGeminiResponse converts one API response into a provider delta.
// Used for both single-shot results and stream increments. callIndex is
// the round-scoped index of the next function call; a stream that spreads
// calls over several responses must carry it across them.
func fromGeminiResponse(resp *genai.GenerateContentResponse, callIndex int) (*provider.Delta, error) {
	if len(resp.Candidates) == 0 {
		if usage := fromGeminiUsage(resp.UsageMetadata); usage != nil {
			return &provider.Delta{Usage: usage}, nil
		}
		return nil, &provider.ProviderError{
			Code:    provider.ErrorCodeInvalidRequest,
			Message: "no candidates in response",
		}
	}

	candidate := resp.Candidates[0]

	if candidate.FinishReason == genai.FinishReasonSafety {
		return nil, &provider.ProviderError{
			Code:       provider.ErrorCodeContentBlocked,
			Message:    "content blocked by safety filters",
			Underlying: provider.ErrContentBlocked,
		}
	}

	delta := &provider.Delta{Usage: fromGeminiUsage(resp.UsageMetadata)}

	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				delta.Text += part.Text
			}
			if part.FunctionCall != nil {
				args, err := json.Marshal(part.FunctionCall.Args)
				if err != nil {
					return nil, fmt.Errorf("marshal function call args: %w", err)
				}
				delta.ToolCalls = append(delta.ToolCalls, provider.ToolCallDelta{
					Index:     callIndex,
					ID:        part.FunctionCall.ID,
					ToolName:  part.FunctionCall.Name,
					ArgsDelta: string(args),
				})
				callIndex++
			}
		}
	}

	return delta, nil
}

func fromGeminiUsage(usage *genai.GenerateContentResponseUsageMetadata) *chat.Usage {
	if usage == nil {
		return nil
	}
	return &chat.Usage{
		PromptTokens:     int(usage.PromptTokenCount),
		CompletionTokens: int(usage.CandidatesTokenCount),
		TotalTokens:      int(usage.TotalTokenCount),
	}
}

// mapGeminiError classifies backend failures.
func mapGeminiError(err error) error {
	if err == nil {
		return nil
	}

	if apiErr, ok := err.(genai.APIError); ok {
		return mapAPIError(&apiErr, err)
	}
	if apiErr, ok := err.(*genai.APIError); ok {
		return mapAPIError(apiErr, err)
	}

	return &provider.ProviderError{
		Code:       provider.ErrorCodeNetwork,
		Message:    "network error",
		Underlying: err,
		Retryable:  true,
	}
}

func mapAPIError(apiErr *genai.APIError, err error) error {
	switch apiErr.Code {
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
			Message:    fmt.Sprintf("invalid request: %s", apiErr.Message),
			Underlying: err,
		}
	default:
		return &provider.ProviderError{
			Code:       provider.ErrorCodeNetwork,
			Message:    fmt.Sprintf("API error: %s", apiErr.Message),
			Underlying: err,
			Retryable:  apiErr.Code >= 500,
		}
	}
}
