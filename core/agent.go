package core

// Agent defines the interface all agents implement.
//
// An agent receives its input through a RunContext (history, emit channel,
// logger) and emits events describing its progress. Run blocks until the
// agent has produced its final response or failed.
//
// Implementations must:
//   - Respect context cancellation
//   - Emit events through the provided RunContext
//   - Return an error only for failures that abort the run
type Agent interface {
	Name() string
	Description() string
	Run(runCtx *RunContext) error
}

// AgentInfo carries identifying details about an agent used in contexts & events.
// Name is the external identifier; Type categorizes implementation (e.g. "lead", "subagent").
type AgentInfo struct{ Name, Type string }
