package tour

import (
	"errors"
	"fmt"
	"sync"
)

// Errors returned by SequencePolicy.Allow.
var (
	ErrOneTaskPerTurn = errors.New("only one task may be started per assistant turn")
	ErrOutOfOrder     = errors.New("planner must complete before budget_calculator")
	ErrAlreadyRan     = errors.New("subagent already completed in this phase")
)

// SequencePolicy enforces the delegation rules of the planning protocol:
// at most one task per model turn and, while finalizing, planner strictly
// before budget_calculator with each running once.
type SequencePolicy struct {
	phase Phase

	mu        sync.Mutex
	turns     map[string]int
	completed map[string]int
}

// NewSequencePolicy returns a policy for a conversation in the given phase.
func NewSequencePolicy(phase Phase) *SequencePolicy {
	return &SequencePolicy{
		phase:     phase,
		turns:     make(map[string]int),
		completed: make(map[string]int),
	}
}

// Phase returns the phase the policy was built for.
func (p *SequencePolicy) Phase() Phase { return p.phase }

// Allow implements agent.TaskPolicy.
func (p *SequencePolicy) Allow(turnID, subagent string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.turns[turnID] > 0 {
		return fmt.Errorf("%w: %s rejected", ErrOneTaskPerTurn, subagent)
	}

	if p.phase == PhaseFinalizing {
		switch subagent {
		case Planner:
			if p.completed[Planner] > 0 {
				return fmt.Errorf("%w: %s", ErrAlreadyRan, Planner)
			}
		case BudgetCalculator:
			if p.completed[Planner] == 0 {
				return ErrOutOfOrder
			}
			if p.completed[BudgetCalculator] > 0 {
				return fmt.Errorf("%w: %s", ErrAlreadyRan, BudgetCalculator)
			}
		}
	}

	p.turns[turnID]++

	return nil
}

// Complete implements agent.TaskPolicy. Only successful runs count.
func (p *SequencePolicy) Complete(subagent string, err error) {
	if err != nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.completed[subagent]++
}

// Completed reports how often subagent finished successfully.
func (p *SequencePolicy) Completed(subagent string) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.completed[subagent]
}
