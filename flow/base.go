package flow

import (
	"errors"
	"fmt"
	"sort"

	"github.com/hupe1980/tourmesh/core"
	"github.com/hupe1980/tourmesh/model"
)

// ErrEmptyResponse is returned when a model closes its stream without a final response.
var ErrEmptyResponse = errors.New("model returned no response")

// BaseFlow is a single-agent flow implementing the
// request -> model -> (optional tool loop) cycle with pluggable processors.
type BaseFlow struct {
	agent             FlowAgent
	requestProcessors []RequestProcessor
	executor          FunctionExecutor
}

// NewBaseFlow creates a flow without processors and a sequential executor.
func NewBaseFlow(agent FlowAgent) *BaseFlow {
	return &BaseFlow{
		agent:    agent,
		executor: NewParallelFunctionExecutor(FunctionExecutorConfig{MaxParallel: 1, PreserveOrder: true}),
	}
}

// AddRequestProcessor appends a request processor; registration order defines execution order.
func (f *BaseFlow) AddRequestProcessor(processor RequestProcessor) {
	f.requestProcessors = append(f.requestProcessors, processor)
}

// SetFunctionExecutor replaces the executor used for tool calls.
func (f *BaseFlow) SetFunctionExecutor(executor FunctionExecutor) {
	f.executor = executor
}

// Execute runs model turns until the model replies without tool calls and
// returns that reply's text. Every non-partial model reply and every tool
// response is emitted through runCtx.
func (f *BaseFlow) Execute(runCtx *core.RunContext) (string, error) {
	var produced []core.Content

	for {
		if err := runCtx.Err(); err != nil {
			return "", err
		}

		if err := runCtx.Limiter.Increment(); err != nil {
			return "", err
		}

		req, err := f.buildRequest(runCtx, produced)
		if err != nil {
			return "", err
		}

		resp, err := f.generate(runCtx, req)
		if err != nil {
			return "", err
		}

		for i, p := range resp.Content.Parts {
			if fc, ok := p.(core.FunctionCallPart); ok && fc.FunctionCall.ID == "" {
				fc.FunctionCall.ID = core.NewID()
				resp.Content.Parts[i] = fc
			}
		}
		calls := resp.Content.FunctionCalls()

		ev := runCtx.NewEvent()
		ev.Content = &resp.Content
		ev.TurnComplete = len(calls) == 0

		if err := runCtx.EmitEvent(ev); err != nil {
			return "", err
		}

		produced = append(produced, resp.Content)

		if len(calls) == 0 {
			return resp.Content.Text(), nil
		}

		turnID := resp.ID
		if turnID == "" {
			turnID = ev.ID
		}

		responses := f.executor.Execute(runCtx, f.agent, calls, turnID, runCtx.EmitEvent)
		if err := runCtx.Err(); err != nil {
			return "", err
		}

		for _, r := range responses {
			if r.Content != nil {
				produced = append(produced, *r.Content)
			}
		}
	}
}

func (f *BaseFlow) buildRequest(runCtx *core.RunContext, produced []core.Content) (model.Request, error) {
	req := model.Request{Stream: f.agent.IsStreamingEnabled()}

	for _, processor := range f.requestProcessors {
		if err := processor.ProcessRequest(runCtx, &req, f.agent); err != nil {
			return req, fmt.Errorf("request processor %s failed: %w", processor.Name(), err)
		}
	}

	req.Contents = append(req.Contents, produced...)

	tools := f.agent.Tools()
	if len(tools) == 0 {
		return req, nil
	}

	names := make([]string, 0, len(tools))
	for name := range tools {
		names = append(names, name)
	}
	sort.Strings(names)

	req.Tools = make([]model.ToolDefinition, 0, len(names))
	for _, name := range names {
		t := tools[name]
		req.Tools = append(req.Tools, model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}

	return req, nil
}

// generate drains the model stream. Partial chunks are forwarded as partial
// events; the last non-partial response is returned.
func (f *BaseFlow) generate(runCtx *core.RunContext, req model.Request) (model.Response, error) {
	m := f.agent.Model()
	if m == nil {
		return model.Response{}, fmt.Errorf("agent %s has no model", f.agent.Name())
	}

	respCh, errCh := m.Generate(runCtx.Context, req)

	var (
		final    model.Response
		hasFinal bool
	)

	for resp := range respCh {
		if resp.Partial {
			ev := runCtx.NewEvent()
			content := resp.Content
			ev.Content = &content
			ev.Partial = true

			if err := runCtx.EmitEvent(ev); err != nil {
				return model.Response{}, err
			}

			continue
		}

		final, hasFinal = resp, true
	}

	if err := <-errCh; err != nil {
		return model.Response{}, fmt.Errorf("model %s: %w", m.Info().Name, err)
	}

	if !hasFinal {
		return model.Response{}, fmt.Errorf("model %s: %w", m.Info().Name, ErrEmptyResponse)
	}

	final.Content.Role = core.RoleAssistant

	return final, nil
}
