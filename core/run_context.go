package core

import (
	"context"
	"maps"

	"github.com/hupe1980/tourmesh/logging"
)

// RunContext carries execution state & helpers for an agent run.
// It aggregates:
//   - The ambient cancellation Context
//   - Identifiers (RunID, Agent info, Branch)
//   - The input conversation History
//   - The Emit channel events are delivered on
//   - The shared ModelLimiter
//   - Read-only template State used when rendering instructions
//
// A RunContext is owned by a single goroutine; subagents receive their own
// context through NewChildContext.
type RunContext struct {
	Context context.Context
	RunID   string
	Agent   AgentInfo
	History []Content
	Emit    chan<- Event
	Limiter *ModelLimiter
	State   map[string]any
	Branch  string

	*loggerAdapter
}

// NewRunContext constructs a RunContext for a root agent run.
func NewRunContext(
	ctx context.Context,
	runID string,
	agent AgentInfo,
	history []Content,
	emit chan<- Event,
	maxModelCalls int,
	logger logging.Logger,
) *RunContext {
	return &RunContext{
		Context:       ctx,
		RunID:         runID,
		Agent:         agent,
		History:       history,
		Emit:          emit,
		Limiter:       NewModelLimiter(maxModelCalls),
		State:         map[string]any{},
		loggerAdapter: newLoggerAdapter(logger),
	}
}

// Done returns a channel closed when the underlying context is cancelled.
func (rc *RunContext) Done() <-chan struct{} { return rc.Context.Done() }

// Err returns the cancellation error (if any) from the underlying context.
func (rc *RunContext) Err() error { return rc.Context.Err() }

// GetState returns a template state value.
func (rc *RunContext) GetState(k string) (any, bool) {
	v, ok := rc.State[k]
	return v, ok
}

// SetState sets a template state value.
func (rc *RunContext) SetState(k string, v any) { rc.State[k] = v }

// NewChildContext derives a context for a subagent. The child shares the
// emit channel, limiter and logger but starts from its own history, state
// copy and branch.
func (rc *RunContext) NewChildContext(agent AgentInfo, history []Content, branch string) *RunContext {
	state := make(map[string]any, len(rc.State))
	maps.Copy(state, rc.State)

	return &RunContext{
		Context:       rc.Context,
		RunID:         rc.RunID,
		Agent:         agent,
		History:       history,
		Emit:          rc.Emit,
		Limiter:       rc.Limiter,
		State:         state,
		Branch:        branch,
		loggerAdapter: rc.loggerAdapter,
	}
}

// NewEvent creates an event bound to this run, authored by the current agent
// and stamped with the current branch.
func (rc *RunContext) NewEvent() Event {
	ev := NewEvent(rc.RunID, rc.Agent.Name)
	ev.Branch = rc.Branch
	return ev
}

// EmitEvent stamps run id and branch then delivers the event, blocking until
// it is accepted or the context is cancelled.
func (rc *RunContext) EmitEvent(ev Event) error {
	if ev.RunID == "" {
		ev.RunID = rc.RunID
	}
	if ev.Branch == "" {
		ev.Branch = rc.Branch
	}

	select {
	case <-rc.Context.Done():
		return rc.Context.Err()
	case rc.Emit <- ev:
	}

	return nil
}
