// Package flow drives the model loop of a single agent.
//
// A flow builds a model request from the agent's instructions and the run
// history, emits the model's reply as an event, executes requested tools and
// repeats until the model answers without tool calls.
package flow

import (
	"time"

	"github.com/hupe1980/tourmesh/core"
	"github.com/hupe1980/tourmesh/model"
	"github.com/hupe1980/tourmesh/tool"
)

// Flow defines the interface for agent execution flows.
type Flow interface {
	// Execute runs the model loop and returns the agent's final text.
	Execute(runCtx *core.RunContext) (string, error)
}

// FlowAgent is the view of an agent a flow needs.
type FlowAgent interface {
	// Name returns the agent's name used as event author.
	Name() string

	// Model returns the language model instance.
	Model() model.Model

	// ResolveInstructions returns the raw (untemplated) system prompt.
	ResolveInstructions(runCtx *core.RunContext) (string, error)

	// Tools returns the registered tools keyed by name.
	Tools() map[string]tool.Tool

	// IsStreamingEnabled reports whether partial chunks are requested.
	IsStreamingEnabled() bool

	// MaxHistoryMessages bounds the history sent to the model (0 = unbounded).
	MaxHistoryMessages() int

	// ToolTimeout bounds a single tool call (0 = no limit).
	ToolTimeout() time.Duration
}

// RequestProcessor processes the request before sending it to the model.
type RequestProcessor interface {
	// Name returns the processor's identifier.
	Name() string
	// ProcessRequest modifies the request before model execution.
	ProcessRequest(runCtx *core.RunContext, req *model.Request, agent FlowAgent) error
}
