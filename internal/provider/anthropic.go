package provider

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicModel = "claude-sonnet-4-20250514"

// AnthropicProvider implements LLMProvider against the Anthropic Messages
// API via the official SDK's synchronous (non-streaming) call, satisfying
// spec.md §4.6's single round-trip contract.
type AnthropicProvider struct {
	client anthropic.Client
	model  string
}

func NewAnthropicProvider(apiKey, model string) *AnthropicProvider {
	if model == "" {
		model = defaultAnthropicModel
	}
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicProvider{client: client, model: model}
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

func (p *AnthropicProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if err := ValidateRequest(&req); err != nil {
		return nil, err
	}

	messages, systemText := splitSystemMessage(req.Messages)
	anthMessages, err := convertMessagesToAnthropic(messages)
	if err != nil {
		return nil, fmt.Errorf("anthropic: convert messages: %w", err)
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		Messages:  anthMessages,
		MaxTokens: int64(maxTokens),
	}
	if systemText != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemText}}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}
	if len(req.Tools) > 0 {
		tools, err := convertToolsToAnthropic(req.Tools)
		if err != nil {
			return nil, fmt.Errorf("anthropic: convert tools: %w", err)
		}
		params.Tools = tools
	}

	logRequest(p.Name(), p.model, len(anthMessages))

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, ClassifyError(fmt.Errorf("anthropic: %w", err), anthropicStatusCode(err), "")
	}

	out := convertAnthropicResponse(msg)
	logResponse(p.Name(), p.model, out.Usage, out.FinishReason)
	return out, nil
}

func splitSystemMessage(messages []ChatMessage) (rest []ChatMessage, system string) {
	for _, m := range messages {
		if m.Role == RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
			continue
		}
		rest = append(rest, m)
	}
	return rest, system
}

func convertMessagesToAnthropic(messages []ChatMessage) ([]anthropic.MessageParam, error) {
	result := make([]anthropic.MessageParam, 0, len(messages))
	for _, msg := range messages {
		var content []anthropic.ContentBlockParamUnion

		if msg.Content != "" {
			if msg.Role == RoleTool {
				content = append(content, anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, false))
			} else {
				content = append(content, anthropic.NewTextBlock(msg.Content))
			}
		}

		for _, inv := range msg.ToolInvocations {
			input := map[string]interface{}{}
			if inv.ArgumentsJSON != "" {
				if err := json.Unmarshal([]byte(inv.ArgumentsJSON), &input); err != nil {
					return nil, fmt.Errorf("invalid tool call input for %s: %w", inv.Name, err)
				}
			}
			content = append(content, anthropic.NewToolUseBlock(inv.ID, input, inv.Name))
		}

		if len(content) == 0 {
			continue
		}

		if msg.Role == RoleAssistant {
			result = append(result, anthropic.NewAssistantMessage(content...))
		} else {
			// user and tool roles both map onto Anthropic's "user" turn.
			result = append(result, anthropic.NewUserMessage(content...))
		}
	}
	return result, nil
}

func convertToolsToAnthropic(tools []ToolSchema) ([]anthropic.ToolUnionParam, error) {
	result := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		schemaJSON, err := json.Marshal(t.ArgumentSchema)
		if err != nil {
			return nil, fmt.Errorf("marshal schema for %s: %w", t.Name, err)
		}
		var schema anthropic.ToolInputSchemaParam
		if err := json.Unmarshal(schemaJSON, &schema); err != nil {
			return nil, fmt.Errorf("invalid tool schema for %s: %w", t.Name, err)
		}
		toolParam := anthropic.ToolUnionParamOfTool(schema, t.Name)
		if toolParam.OfTool == nil {
			return nil, fmt.Errorf("invalid tool schema for %s: missing tool definition", t.Name)
		}
		toolParam.OfTool.Description = anthropic.String(t.Description)
		result = append(result, toolParam)
	}
	return result, nil
}

func convertAnthropicResponse(msg *anthropic.Message) *ChatResponse {
	out := &ChatResponse{
		Usage: Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
	}

	for _, block := range msg.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			out.AssistantText += variant.Text
		case anthropic.ToolUseBlock:
			argsJSON, _ := json.Marshal(variant.Input)
			out.ToolInvocations = append(out.ToolInvocations, ToolInvocation{
				ID:            variant.ID,
				Name:          variant.Name,
				ArgumentsJSON: string(argsJSON),
			})
		}
	}

	switch msg.StopReason {
	case anthropic.StopReasonToolUse:
		out.FinishReason = FinishToolCalls
	case anthropic.StopReasonEndTurn, anthropic.StopReasonStopSequence:
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

func anthropicStatusCode(err error) int {
	var apiErr *anthropic.Error
	if ok := asAnthropicError(err, &apiErr); ok {
		return apiErr.StatusCode
	}
	return 0
}

func asAnthropicError(err error, target **anthropic.Error) bool {
	for err != nil {
		if ae, ok := err.(*anthropic.Error); ok {
			*target = ae
			return true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}
