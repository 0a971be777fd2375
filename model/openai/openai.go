// Package openai provides an implementation of model.Model using the OpenAI
// Chat Completions API (including streaming + function/tool calling). It is
// the default provider of the tour planner and also serves OpenAI compatible
// endpoints through Options.BaseURL.
package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/tourmesh/core"
	"github.com/hupe1980/tourmesh/model"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultModel is used when no model name is configured.
const DefaultModel = "gpt-4.1-mini"

// aggCall aggregates partial tool call streaming deltas.
type aggCall struct{ id, name, args string }

// Options configure the OpenAI model adapter.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	APIKey              string // falls back to OPENAI_API_KEY when empty
	BaseURL             string // optional OpenAI compatible endpoint
}

// Model wraps the OpenAI Chat Completions API behind the generic model.Model interface.
type Model struct {
	client *openai.Client
	opts   Options
}

// NewModel creates a new OpenAI model using the official client.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}

	client := openai.NewClient(clientOpts...)

	return &Model{client: &client, opts: opts}
}

// NewModelFromClient creates a new OpenAI model from an existing client.
func NewModelFromClient(client *openai.Client, optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Model{client: client, opts: opts}
}

func defaultOptions() Options {
	return Options{
		Model:               DefaultModel,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
}

// Generate adapts OpenAI Chat Completions into model.Response events.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		params := m.buildParams(req, buildMessages(req))
		if req.Stream {
			m.handleStreaming(ctx, params, out, errCh)
			return
		}

		m.handleNonStreaming(ctx, params, out, errCh)
	}()

	return out, errCh
}

// buildMessages converts normalized contents into OpenAI chat messages. Tool
// responses are placed directly after the assistant message that requested
// them; orphans are appended at the end.
func buildMessages(req model.Request) []openai.ChatCompletionMessageParamUnion {
	responses := map[string]string{}
	var order []string

	for _, c := range req.Contents {
		if c.Role != core.RoleTool {
			continue
		}
		for _, fr := range c.FunctionResponses() {
			if fr.ID == "" {
				continue
			}
			if _, seen := responses[fr.ID]; seen {
				continue
			}
			responses[fr.ID] = model.FunctionResponseText(fr)
			order = append(order, fr.ID)
		}
	}

	var messages []openai.ChatCompletionMessageParamUnion
	if req.Instructions != "" {
		messages = append(messages, openai.SystemMessage(req.Instructions))
	}

	for _, c := range req.Contents {
		text := c.Text()

		switch c.Role {
		case core.RoleTool:
			continue
		case core.RoleSystem:
			messages = append(messages, openai.SystemMessage(text))
		case core.RoleAssistant:
			calls := c.FunctionCalls()
			if len(calls) == 0 {
				messages = append(messages, openai.AssistantMessage(text))
				continue
			}

			toolCalls := make([]openai.ChatCompletionMessageToolCallParam, 0, len(calls))
			for _, fc := range calls {
				toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallParam{
					ID:   fc.ID,
					Type: "function",
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      fc.Name,
						Arguments: fc.Arguments,
					},
				})
			}

			assistant := openai.ChatCompletionAssistantMessageParam{Role: "assistant", ToolCalls: toolCalls}
			if text != "" {
				assistant.Content.OfString = openai.String(text)
			}
			messages = append(messages, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})

			for _, fc := range calls {
				if resp, ok := responses[fc.ID]; ok {
					messages = append(messages, openai.ToolMessage(resp, fc.ID))
					delete(responses, fc.ID)
				}
			}
		default:
			if text != "" {
				messages = append(messages, openai.UserMessage(text))
			}
		}
	}

	for _, id := range order {
		if resp, ok := responses[id]; ok {
			messages = append(messages, openai.ToolMessage(resp, id))
		}
	}

	return messages
}

// buildParams assembles the OpenAI request parameters including tool definitions.
func (m *Model) buildParams(
	req model.Request,
	messages []openai.ChatCompletionMessageParamUnion,
) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               m.opts.Model,
		Temperature:         openai.Float(m.opts.Temperature),
		MaxCompletionTokens: openai.Int(m.opts.MaxCompletionTokens),
	}

	if len(req.Tools) == 0 {
		return params
	}

	tools := make([]openai.ChatCompletionToolParam, len(req.Tools))
	for i, tdef := range req.Tools {
		tools[i] = openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        tdef.Function.Name,
				Description: openai.String(tdef.Function.Description),
				Parameters:  tdef.Function.Parameters,
			},
		}
	}
	params.Tools = tools

	return params
}

// handleStreaming forwards text deltas as partial responses and emits one
// final response carrying the aggregated text and tool calls.
func (m *Model) handleStreaming(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
	out chan<- model.Response,
	errCh chan<- error,
) {
	stream := m.client.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	var text strings.Builder
	agg := map[int64]*aggCall{}
	var order []int64

	for stream.Next() {
		chunk := stream.Current()
		for _, ch := range chunk.Choices {
			if ch.Delta.Content != "" {
				text.WriteString(ch.Delta.Content)
				out <- model.Response{
					ID:      chunk.ID,
					Partial: true,
					Content: core.NewTextContent(core.RoleAssistant, ch.Delta.Content),
				}
			}

			for _, tc := range ch.Delta.ToolCalls {
				ac, ok := agg[tc.Index]
				if !ok {
					ac = &aggCall{}
					agg[tc.Index] = ac
					order = append(order, tc.Index)
				}
				if tc.ID != "" {
					ac.id = tc.ID
				}
				if tc.Function.Name != "" {
					ac.name = tc.Function.Name
				}
				ac.args += tc.Function.Arguments
			}

			if ch.FinishReason == "" {
				continue
			}

			parts := make([]core.Part, 0, len(agg)+1)
			if text.Len() > 0 {
				parts = append(parts, core.TextPart{Text: text.String()})
			}
			for _, idx := range order {
				ac := agg[idx]
				parts = append(parts, core.FunctionCallPart{FunctionCall: core.FunctionCall{
					ID:        ac.id,
					Name:      ac.name,
					Arguments: ac.args,
				}})
			}

			out <- model.Response{
				ID:           chunk.ID,
				Content:      core.Content{Role: core.RoleAssistant, Parts: parts},
				FinishReason: ch.FinishReason,
			}
		}
	}

	if err := stream.Err(); err != nil {
		errCh <- fmt.Errorf("openai streaming error: %w", err)
	}
}

// handleNonStreaming processes a normal (non-streaming) completion.
func (m *Model) handleNonStreaming(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
	out chan<- model.Response,
	errCh chan<- error,
) {
	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		errCh <- fmt.Errorf("openai api error: %w", err)
		return
	}

	if len(resp.Choices) == 0 {
		errCh <- fmt.Errorf("openai api error: no choices returned")
		return
	}

	choice := resp.Choices[0]

	parts := make([]core.Part, 0, len(choice.Message.ToolCalls)+1)
	if choice.Message.Content != "" {
		parts = append(parts, core.TextPart{Text: choice.Message.Content})
	}
	for _, tc := range choice.Message.ToolCalls {
		parts = append(parts, core.FunctionCallPart{FunctionCall: core.FunctionCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		}})
	}

	out <- model.Response{
		ID:           resp.ID,
		Content:      core.Content{Role: core.RoleAssistant, Parts: parts},
		FinishReason: choice.FinishReason,
		Usage: &model.TokenUsage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}
}

// Info returns metadata describing this OpenAI model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          m.opts.Model,
		Provider:      "openai",
		SupportsTools: true,
	}
}
