package agent

import (
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/tourmesh/core"
	"github.com/hupe1980/tourmesh/model"
	"github.com/hupe1980/tourmesh/tool"
)

// SubAgentSpec is the static configuration of a subagent.
type SubAgentSpec struct {
	Name        string
	Description string
	Instruction Instruction
	Tools       []tool.Tool
	Model       model.Model // nil uses the lead's model
}

// DeepAgentOptions configures a DeepAgent.
type DeepAgentOptions struct {
	Description        string
	Instruction        Instruction
	Tools              []tool.Tool
	SubAgents          []SubAgentSpec
	Policy             TaskPolicy
	ToolTimeout        time.Duration
	MaxHistoryMessages int
}

// DeepAgent is a lead ModelAgent that can delegate work to subagents through
// the task tool.
type DeepAgent struct {
	*ModelAgent
}

// NewDeepAgent builds the subagents, the task tool and the lead agent.
func NewDeepAgent(name string, llm model.Model, optFns ...func(o *DeepAgentOptions)) (*DeepAgent, error) {
	if llm == nil {
		return nil, errors.New("deep agent requires a model")
	}

	opts := DeepAgentOptions{
		ToolTimeout:        10 * time.Minute,
		MaxHistoryMessages: 50,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	subagents := make([]Executor, 0, len(opts.SubAgents))
	children := make([]core.Agent, 0, len(opts.SubAgents))

	for _, spec := range opts.SubAgents {
		if spec.Name == "" {
			return nil, errors.New("subagent name must not be empty")
		}

		subLLM := spec.Model
		if subLLM == nil {
			subLLM = llm
		}

		sub := NewModelAgent(spec.Name, subLLM, func(o *ModelAgentOptions) {
			o.Description = spec.Description
			if !spec.Instruction.IsZero() {
				o.Instruction = spec.Instruction
			}
			o.Tools = spec.Tools
		})

		subagents = append(subagents, sub)
		children = append(children, sub)
	}

	tools := append([]tool.Tool(nil), opts.Tools...)
	if len(subagents) > 0 {
		tools = append(tools, NewTaskTool(subagents, opts.Policy))
	}

	lead := NewModelAgent(name, llm, func(o *ModelAgentOptions) {
		o.Description = opts.Description
		if !opts.Instruction.IsZero() {
			o.Instruction = opts.Instruction
		}
		o.Tools = tools
		o.ToolTimeout = opts.ToolTimeout
		o.MaxHistoryMessages = opts.MaxHistoryMessages
	})

	if err := lead.SetSubAgents(children...); err != nil {
		return nil, fmt.Errorf("deep agent %s: %w", name, err)
	}

	return &DeepAgent{ModelAgent: lead}, nil
}
