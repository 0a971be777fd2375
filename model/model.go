package model

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/hupe1980/tourmesh/core"
)

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the model.
// Parameters is a JSON Schema object (draft agnostic, minimal subset expected).
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

// Request captures the normalized model input produced by flows.
type Request struct {
	Instructions string           `json:"instructions"` // System prompt for the model
	Contents     []core.Content   `json:"contents"`     // Conversation converted to provider messages
	Tools        []ToolDefinition `json:"tools,omitempty"`
	Stream       bool             `json:"stream,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a model.
type Response struct {
	ID           string       `json:"id"`
	Partial      bool         `json:"partial"`
	Content      core.Content `json:"content"`
	FinishReason string       `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock"
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required by flows & agents to drive generation.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// FunctionResponseText renders a function response as the text payload sent
// back to a provider. Strings pass through, errors become {"error": ...} and
// everything else is JSON encoded.
func FunctionResponseText(fr core.FunctionResponse) string {
	if fr.Error != "" {
		b, _ := json.Marshal(map[string]string{"error": fr.Error})
		return string(b)
	}

	if s, ok := fr.Response.(string); ok {
		return s
	}

	b, err := json.Marshal(fr.Response)
	if err != nil {
		return fmt.Sprintf("%v", fr.Response)
	}

	return string(b)
}

// ScriptedModel is an in-memory Model replaying a fixed queue of responses.
// It is used by tests, examples and the "mock" provider. Once the script is
// exhausted it echoes the last user text.
type ScriptedModel struct {
	info Info

	mu       sync.Mutex
	script   []core.Content
	requests []Request
}

// NewScriptedModel constructs a ScriptedModel that replays the given contents
// in order, one per Generate call.
func NewScriptedModel(name string, script ...core.Content) *ScriptedModel {
	return &ScriptedModel{
		info:   Info{Name: name, Provider: "mock", SupportsTools: true},
		script: script,
	}
}

// Say appends a plain text reply to the script.
func (m *ScriptedModel) Say(text string) *ScriptedModel {
	return m.Push(core.NewTextContent(core.RoleAssistant, text))
}

// Call appends a reply requesting the named tool with JSON arguments.
func (m *ScriptedModel) Call(name, arguments string) *ScriptedModel {
	return m.Push(core.Content{Role: core.RoleAssistant, Parts: []core.Part{
		core.FunctionCallPart{FunctionCall: core.FunctionCall{ID: core.NewID(), Name: name, Arguments: arguments}},
	}})
}

// Push appends an arbitrary reply to the script.
func (m *ScriptedModel) Push(c core.Content) *ScriptedModel {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.script = append(m.script, c)

	return m
}

// Requests returns a copy of all requests received so far.
func (m *ScriptedModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Request, len(m.requests))
	copy(out, m.requests)

	return out
}

// Generate implements Model.
func (m *ScriptedModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 1)
	errCh := make(chan error, 1)

	m.mu.Lock()
	m.requests = append(m.requests, req)

	var next core.Content
	if len(m.script) > 0 {
		next = m.script[0]
		m.script = m.script[1:]
	} else {
		next = core.NewTextContent(core.RoleAssistant, fmt.Sprintf("Mock response to: %s", lastUserText(req.Contents)))
	}
	m.mu.Unlock()

	go func() {
		defer close(respCh)
		defer close(errCh)

		if err := ctx.Err(); err != nil {
			errCh <- err
			return
		}

		finish := "stop"
		if len(next.FunctionCalls()) > 0 {
			finish = "tool_calls"
		}

		respCh <- Response{ID: core.NewID(), Content: next, FinishReason: finish}
	}()

	return respCh, errCh
}

// Info implements Model.
func (m *ScriptedModel) Info() Info { return m.info }

func lastUserText(contents []core.Content) string {
	for i := len(contents) - 1; i >= 0; i-- {
		if contents[i].Role == core.RoleUser {
			return contents[i].Text()
		}
	}

	return ""
}
