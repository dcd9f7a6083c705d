package openai

import (
	"strings"

	"github.com/openai/openai-go"

	chat "github.com/strandchat/strand/internal/orchestrator/models"
	provider "github.com/strandchat/strand/internal/provider/models"
)

// toChatMessages converts conversation history to OpenAI chat messages.
// Executed tool calls expand into the assistant message carrying the
// calls followed by one tool message per call output.
func toChatMessages(req *provider.GenerateRequest) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)

	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}

	for _, msg := range req.Messages {
		switch msg.Role {
		case chat.RoleSystem:
			if text := msg.Text(); text != "" {
				messages = append(messages, openai.SystemMessage(text))
			}
		case chat.RoleAssistant:
			assistant, toolResults := assistantMessage(msg)
			messages = append(messages, assistant)
			messages = append(messages, toolResults...)
		default:
			if text := msg.Text(); text != "" {
				messages = append(messages, openai.UserMessage(text))
			}
		}
	}

	return messages
}

func assistantMessage(msg chat.Message) (openai.ChatCompletionMessageParamUnion, []openai.ChatCompletionMessageParamUnion) {
	var toolCalls []openai.ChatCompletionMessageToolCallParam
	var toolResults []openai.ChatCompletionMessageParamUnion

	for _, tc := range msg.ToolCalls() {
		toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallParam{
			ID:   openai.F(tc.ID),
			Type: openai.F(openai.ChatCompletionMessageToolCallTypeFunction),
			Function: openai.F(openai.ChatCompletionMessageToolCallFunctionParam{
				Name:      openai.F(tc.ToolName),
				Arguments: openai.F(tc.ArgsJSON),
			}),
		})
		if tc.Executed {
			var output strings.Builder
			for _, t := range tc.Output {
				output.WriteString(t.Content)
			}
			toolResults = append(toolResults, openai.ToolMessage(tc.ID, output.String()))
		}
	}

	if len(toolCalls) == 0 {
		return openai.AssistantMessage(msg.Text()), nil
	}

	param := openai.ChatCompletionAssistantMessageParam{
		Role:      openai.F(openai.ChatCompletionAssistantMessageParamRoleAssistant),
		ToolCalls: openai.F(toolCalls),
	}
	if text := msg.Text(); text != "" {
		param.Content = openai.F([]openai.ChatCompletionAssistantMessageParamContentUnion{
			openai.ChatCompletionContentPartTextParam{
				Type: openai.F(openai.ChatCompletionContentPartTextTypeText),
				Text: openai.F(text),
			},
		})
	}
	return param, toolResults
}

// toChatTools converts tool definitions to OpenAI tool params.
func toChatTools(tools []provider.ToolDefinition) []openai.ChatCompletionToolParam {
	params := make([]openai.ChatCompletionToolParam, 0, len(tools))
	for _, tool := range tools {
		fn := openai.FunctionDefinitionParam{
			Name:        openai.F(tool.Name),
			Description: openai.F(tool.Description),
		}
		if tool.Parameters != nil {
			fn.Parameters = openai.F(openai.FunctionParameters(parametersMap(tool.Parameters)))
		}
		params = append(params, openai.ChatCompletionToolParam{
			Type:     openai.F(openai.ChatCompletionToolTypeFunction),
			Function: openai.F(fn),
		})
	}
	return params
}

func parametersMap(schema *provider.ParameterSchema) map[string]any {
	properties := make(map[string]any, len(schema.Properties))
	for name, prop := range schema.Properties {
		properties[name] = propertyMap(prop)
	}
	out := map[string]any{
		"type":       schema.Type,
		"properties": properties,
	}
	if len(schema.Required) > 0 {
		out["required"] = schema.Required
	}
	return out
}

func propertyMap(prop provider.PropertySchema) map[string]any {
	out := map[string]any{"type": prop.Type}
	if prop.Description != "" {
		out["description"] = prop.Description
	}
	if len(prop.Enum) > 0 {
		out["enum"] = prop.Enum
	}
	if prop.Items != nil {
		out["items"] = propertyMap(*prop.Items)
	}
	return out
}

// fromCompletion converts a single-shot completion into a provider delta.
func fromCompletion(completion *openai.ChatCompletion) *provider.Delta {
	delta := &provider.Delta{}

	if completion.Usage.TotalTokens > 0 {
		delta.Usage = &chat.Usage{
			PromptTokens:     int(completion.Usage.PromptTokens),
			CompletionTokens: int(completion.Usage.CompletionTokens),
			TotalTokens:      int(completion.Usage.TotalTokens),
		}
	}

	if len(completion.Choices) == 0 {
		return delta
	}
	message := completion.Choices[0].Message
	delta.Text = message.Content
	for i, call := range message.ToolCalls {
		delta.ToolCalls = append(delta.ToolCalls, provider.ToolCallDelta{
			Index:     i,
			ID:        call.ID,
			ToolName:  call.Function.Name,
			ArgsDelta: call.Function.Arguments,
		})
	}
	return delta
}

// fromChunk converts a stream chunk into a provider delta.
func fromChunk(chunk openai.ChatCompletionChunk) *provider.Delta {
	delta := &provider.Delta{}

	if chunk.Usage.TotalTokens > 0 {
		delta.Usage = &chat.Usage{
			PromptTokens:     int(chunk.Usage.PromptTokens),
			CompletionTokens: int(chunk.Usage.CompletionTokens),
			TotalTokens:      int(chunk.Usage.TotalTokens),
		}
	}

	if len(chunk.Choices) == 0 {
		return delta
	}
	d := chunk.Choices[0].Delta
	delta.Text = d.Content
	for _, call := range d.ToolCalls {
		delta.ToolCalls = append(delta.ToolCalls, provider.ToolCallDelta{
			Index:     int(call.Index),
			ID:        call.ID,
			ToolName:  call.Function.Name,
			ArgsDelta: call.Function.Arguments,
		})
	}
	return delta
}
