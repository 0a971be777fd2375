package flow

import (
	"fmt"

	"github.com/hupe1980/tourmesh/core"
	internalutil "github.com/hupe1980/tourmesh/internal/util"
	"github.com/hupe1980/tourmesh/model"
)

// InstructionsProcessor resolves the agent instruction and renders it as a
// text/template against the run state.
type InstructionsProcessor struct{}

// NewInstructionsProcessor creates a new instructions processor.
func NewInstructionsProcessor() *InstructionsProcessor { return &InstructionsProcessor{} }

// Name returns the processor's identifier.
func (p *InstructionsProcessor) Name() string { return "instructions" }

// ProcessRequest sets req.Instructions.
func (p *InstructionsProcessor) ProcessRequest(runCtx *core.RunContext, req *model.Request, agent FlowAgent) error {
	instructions, err := agent.ResolveInstructions(runCtx)
	if err != nil {
		return fmt.Errorf("failed to resolve instruction: %w", err)
	}

	runCtx.LogDebug("agent.instruction.resolved", "agent", agent.Name(), "length", len(instructions))

	req.Instructions, err = internalutil.RenderTemplate(instructions, runCtx.State)
	if err != nil {
		return fmt.Errorf("failed to render template: %w", err)
	}

	return nil
}

// ContentsProcessor copies the run history into the request, keeping only
// the most recent MaxHistoryMessages entries.
type ContentsProcessor struct{}

// NewContentsProcessor creates a new contents processor.
func NewContentsProcessor() *ContentsProcessor { return &ContentsProcessor{} }

// Name returns the processor's identifier.
func (p *ContentsProcessor) Name() string { return "contents" }

// ProcessRequest sets req.Contents.
func (p *ContentsProcessor) ProcessRequest(runCtx *core.RunContext, req *model.Request, agent FlowAgent) error {
	history := runCtx.History
	if limit := agent.MaxHistoryMessages(); limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}

	contents := make([]core.Content, 0, len(history))
	for _, c := range history {
		if len(c.Parts) > 0 {
			contents = append(contents, c)
		}
	}

	req.Contents = contents

	return nil
}
