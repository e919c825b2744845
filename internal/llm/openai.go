package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAIClient talks to an OpenAI-compatible chat-completion endpoint.
type OpenAIClient struct {
	client openai.Client
	model  string
}

// Options configures the OpenAI client.
type Options struct {
	APIKey     string
	BaseURL    string        // Empty = platform default
	Model      string        // Required
	Timeout    time.Duration // Per-request timeout (default 2 minutes)
	MaxRetries int           // Transport retries for transient failures
}

// NewOpenAIClient creates a client for the configured endpoint. The
// request timeout and bounded retry apply to every call; a request that
// still fails after retries surfaces to the caller as a fatal error for
// that chat turn.
func NewOpenAIClient(opts Options) *OpenAIClient {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithRequestTimeout(timeout),
		option.WithMaxRetries(opts.MaxRetries),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}

	return &OpenAIClient{
		client: openai.NewClient(reqOpts...),
		model:  opts.Model,
	}
}

// Chat sends a chat-completion request and maps the response back to
// wire-neutral types.
func (c *OpenAIClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	completion, err := c.client.Chat.Completions.New(ctx, toParams(c.model, req))
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("chat completion: empty choices")
	}

	message := completion.Choices[0].Message
	resp := &ChatResponse{
		Content:      message.Content,
		Model:        completion.Model,
		InputTokens:  int(completion.Usage.PromptTokens),
		OutputTokens: int(completion.Usage.CompletionTokens),
	}
	for _, tc := range message.ToolCalls {
		resp.ToolCalls = append(resp.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return resp, nil
}

// toParams maps a wire-neutral request onto the SDK's param types.
func toParams(model string, req ChatRequest) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model:    model,
		Messages: toParamMessages(req.Messages),
		Tools:    toParamTools(req.Tools),
	}
	if req.DisableTools {
		params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{
			OfAuto: openai.String("none"),
		}
	}
	return params
}

// toParamMessages converts wire-neutral messages to the request union
// types, preserving assistant tool-call payloads and tool-result
// correlation ids.
func toParamMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		var param openai.ChatCompletionMessageParamUnion

		switch m.Role {
		case RoleSystem:
			param = openai.SystemMessage(m.Content)
		case RoleAssistant:
			param = openai.AssistantMessage(m.Content)
			if len(m.ToolCalls) > 0 {
				param.OfAssistant.ToolCalls = toParamToolCalls(m.ToolCalls)
			}
		case RoleTool:
			param = openai.ToolMessage(m.Content, m.ToolCallID)
		default:
			param = openai.UserMessage(m.Content)
		}

		out = append(out, param)
	}
	return out
}

func toParamToolCalls(calls []ToolCall) []openai.ChatCompletionMessageToolCallUnionParam {
	out := make([]openai.ChatCompletionMessageToolCallUnionParam, 0, len(calls))
	for _, call := range calls {
		out = append(out, openai.ChatCompletionMessageToolCallUnionParam{
			OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
				ID: call.ID,
				Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
					Name:      call.Name,
					Arguments: call.Arguments,
				},
			},
		})
	}
	return out
}

func toParamTools(tools []ToolDef) []openai.ChatCompletionToolUnionParam {
	out := make([]openai.ChatCompletionToolUnionParam, 0, len(tools))
	for _, t := range tools {
		out = append(out, openai.ChatCompletionToolUnionParam{
			OfFunction: &openai.ChatCompletionFunctionToolParam{
				Function: openai.FunctionDefinitionParam{
					Name:        t.Name,
					Description: openai.String(t.Description),
					Parameters:  openai.FunctionParameters(t.Parameters),
				},
			},
		})
	}
	return out
}
