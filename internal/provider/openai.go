package provider

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements LLMProvider against the OpenAI chat-completions
// API via the go-openai client.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

func NewOpenAIProvider(apiKey, model string) *OpenAIProvider {
	return &OpenAIProvider{client: openai.NewClient(apiKey), model: model}
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if err := ValidateRequest(&req); err != nil {
		return nil, err
	}

	chatReq := openai.ChatCompletionRequest{
		Model:    p.model,
		Messages: convertMessagesToOpenAI(req.Messages),
	}
	if req.MaxTokens > 0 {
		chatReq.MaxTokens = req.MaxTokens
	}
	if req.Temperature != 0 {
		chatReq.Temperature = float32(req.Temperature)
	}
	if len(req.Tools) > 0 {
		chatReq.Tools = convertToolsToOpenAI(req.Tools)
		if req.ToolChoice != "" {
			chatReq.ToolChoice = req.ToolChoice
		}
	}

	logRequest(p.Name(), p.model, len(chatReq.Messages))

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		statusCode := 0
		if apiErr, ok := err.(*openai.APIError); ok {
			statusCode = apiErr.HTTPStatusCode
		}
		return nil, ClassifyError(fmt.Errorf("openai: %w", err), statusCode, "")
	}

	out := convertOpenAIResponse(&resp)
	logResponse(p.Name(), p.model, out.Usage, out.FinishReason)
	return out, nil
}

func convertMessagesToOpenAI(messages []ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case RoleTool:
			out = append(out, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    msg.Content,
				ToolCallID: msg.ToolCallID,
			})
		case RoleAssistant:
			oaiMsg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: msg.Content}
			for _, inv := range msg.ToolInvocations {
				args := inv.ArgumentsJSON
				if args == "" {
					args = "{}"
				}
				oaiMsg.ToolCalls = append(oaiMsg.ToolCalls, openai.ToolCall{
					ID:       inv.ID,
					Type:     openai.ToolTypeFunction,
					Function: openai.FunctionCall{Name: inv.Name, Arguments: args},
				})
			}
			out = append(out, oaiMsg)
		case RoleSystem:
			out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: msg.Content})
		default:
			out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: msg.Content})
		}
	}
	return out
}

func convertToolsToOpenAI(tools []ToolSchema) []openai.Tool {
	out := make([]openai.Tool, len(tools))
	for i, t := range tools {
		out[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.ArgumentSchema,
			},
		}
	}
	return out
}

func convertOpenAIResponse(resp *openai.ChatCompletionResponse) *ChatResponse {
	out := &ChatResponse{
		Usage: Usage{InputTokens: resp.Usage.PromptTokens, OutputTokens: resp.Usage.CompletionTokens},
	}
	if len(resp.Choices) == 0 {
		out.FinishReason = FinishUnknown
		return out
	}

	choice := resp.Choices[0]
	out.AssistantText = choice.Message.Content

	for _, tc := range choice.Message.ToolCalls {
		if tc.Function.Name == "" {
			continue
		}
		id := tc.ID
		if id == "" {
			id = generateToolCallID()
		}
		out.ToolInvocations = append(out.ToolInvocations, ToolInvocation{
			ID:            id,
			Name:          tc.Function.Name,
			ArgumentsJSON: tc.Function.Arguments,
		})
	}

	switch choice.FinishReason {
	case openai.FinishReasonToolCalls:
		out.FinishReason = FinishToolCalls
	case openai.FinishReasonStop:
		out.FinishReason = FinishStop
	default:
		if len(out.ToolInvocations) > 0 {
			out.FinishReason = FinishToolCalls
		} else {
			out.FinishReason = FinishStop
		}
	}
	return out
}

func generateToolCallID() string {
	return "call_" + uuid.New().String()
}
