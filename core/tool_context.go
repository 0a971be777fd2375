package core

import (
	"context"

	"github.com/hupe1980/tourmesh/logging"
)

// ToolContext provides a constrained surface for tool implementations invoked
// by an agent: cancellation, identifiers, logging and access to the parent
// run for tools that spawn nested agents.
type ToolContext struct {
	runCtx         *RunContext
	functionCallID string
	turnID         string

	*loggerAdapter
}

// NewToolContext constructs a tool context bound to a parent RunContext.
// turnID identifies the model response that requested the call, so tools can
// tell calls of the same turn apart from calls of later turns.
func NewToolContext(runCtx *RunContext, functionCallID, turnID string) *ToolContext {
	return &ToolContext{
		runCtx:         runCtx,
		functionCallID: functionCallID,
		turnID:         turnID,
		loggerAdapter:  newLoggerAdapter(runCtx.Logger()),
	}
}

// Context returns the context associated with the tool invocation.
func (tc *ToolContext) Context() context.Context { return tc.runCtx.Context }

// RunID returns the run ID associated with the tool invocation.
func (tc *ToolContext) RunID() string { return tc.runCtx.RunID }

// Logger returns the logger associated with the tool invocation.
func (tc *ToolContext) Logger() logging.Logger { return tc.loggerAdapter.Logger() }

// FunctionCallID returns the function call ID associated with the tool invocation.
func (tc *ToolContext) FunctionCallID() string { return tc.functionCallID }

// TurnID returns the id of the model turn that requested this call.
func (tc *ToolContext) TurnID() string { return tc.turnID }

// AgentName returns the agent name associated with the tool invocation.
func (tc *ToolContext) AgentName() string { return tc.runCtx.Agent.Name }

// Branch returns the branch of the calling agent.
func (tc *ToolContext) Branch() string { return tc.runCtx.Branch }

// RunContext exposes the calling agent's run context.
func (tc *ToolContext) RunContext() *RunContext { return tc.runCtx }
