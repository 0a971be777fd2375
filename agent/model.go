package agent

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/hupe1980/tourmesh/core"
	"github.com/hupe1980/tourmesh/flow"
	"github.com/hupe1980/tourmesh/model"
	"github.com/hupe1980/tourmesh/tool"
)

// Executor is an agent that can report its final answer text.
type Executor interface {
	core.Agent
	Execute(runCtx *core.RunContext) (string, error)
}

// ModelAgentOptions configures a ModelAgent instance.
type ModelAgentOptions struct {
	Description        string
	Instruction        Instruction
	EnableStreaming    bool
	ToolTimeout        time.Duration
	MaxHistoryMessages int
	Tools              []tool.Tool
}

// ModelAgent drives a language model through the flow loop with a fixed
// instruction and tool set.
type ModelAgent struct {
	BaseAgent
	llm                model.Model
	instruction        Instruction
	tools              map[string]tool.Tool
	enableStreaming    bool
	toolTimeout        time.Duration
	maxHistoryMessages int
}

// NewModelAgent creates a new model-based agent.
//
// Defaults:
//   - Instruction "You are <name>, a helpful AI assistant."
//   - Streaming disabled
//   - 2 minute tool timeout
//   - 50 history messages
func NewModelAgent(name string, llm model.Model, optFns ...func(o *ModelAgentOptions)) *ModelAgent {
	opts := ModelAgentOptions{
		Instruction:        NewInstructionFromText(fmt.Sprintf("You are %s, a helpful AI assistant.", name)),
		ToolTimeout:        2 * time.Minute,
		MaxHistoryMessages: 50,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	a := &ModelAgent{
		BaseAgent:          NewBaseAgent(name),
		llm:                llm,
		instruction:        opts.Instruction,
		enableStreaming:    opts.EnableStreaming,
		toolTimeout:        opts.ToolTimeout,
		maxHistoryMessages: opts.MaxHistoryMessages,
		tools:              make(map[string]tool.Tool, len(opts.Tools)),
	}

	if opts.Description != "" {
		a.SetDescription(opts.Description)
	}

	a.RegisterTools(opts.Tools...)

	return a
}

// RegisterTool adds a tool to the agent's capability set.
func (a *ModelAgent) RegisterTool(t tool.Tool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.tools[t.Name()] = t
}

// RegisterTools adds multiple tools.
func (a *ModelAgent) RegisterTools(tools ...tool.Tool) {
	for _, t := range tools {
		a.RegisterTool(t)
	}
}

// HasTool checks if a tool is registered with the agent.
func (a *ModelAgent) HasTool(name string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	_, exists := a.tools[name]

	return exists
}

// ListTools returns the sorted names of all registered tools.
func (a *ModelAgent) ListTools() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	return slices.Sorted(maps.Keys(a.tools))
}

// Model returns the language model instance.
func (a *ModelAgent) Model() model.Model { return a.llm }

// Tools returns a copy of the registered tools.
func (a *ModelAgent) Tools() map[string]tool.Tool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return maps.Clone(a.tools)
}

// IsStreamingEnabled returns whether streaming responses are enabled.
func (a *ModelAgent) IsStreamingEnabled() bool { return a.enableStreaming }

// MaxHistoryMessages returns the history window.
func (a *ModelAgent) MaxHistoryMessages() int { return a.maxHistoryMessages }

// ToolTimeout returns the per tool call timeout.
func (a *ModelAgent) ToolTimeout() time.Duration { return a.toolTimeout }

// ResolveInstructions resolves the static or dynamic instruction.
func (a *ModelAgent) ResolveInstructions(runCtx *core.RunContext) (string, error) {
	return a.instruction.Resolve(runCtx)
}

// Run implements core.Agent.
func (a *ModelAgent) Run(runCtx *core.RunContext) error {
	_, err := a.Execute(runCtx)
	return err
}

// Execute runs the flow and returns the final answer text.
func (a *ModelAgent) Execute(runCtx *core.RunContext) (string, error) {
	runCtx.LogDebug("agent.run.start", "agent", a.Name(), "run", runCtx.RunID, "branch", runCtx.Branch)

	answer, err := flow.NewSingleAgentFlow(a).Execute(runCtx)
	if err != nil {
		runCtx.LogWarn("agent.run.error", "agent", a.Name(), "branch", runCtx.Branch, "error", err.Error())
		return "", fmt.Errorf("agent %s: %w", a.Name(), err)
	}

	runCtx.LogDebug("agent.run.complete", "agent", a.Name(), "answer_length", len(answer))

	return answer, nil
}
