package tour

import (
	"strings"

	"github.com/hupe1980/tourmesh/core"
)

// Phase is the position of a conversation in the planning protocol.
type Phase int

const (
	// PhaseProposing: research and present three options.
	PhaseProposing Phase = iota
	// PhaseAwaitingSelection: options were presented, the traveller has not answered yet.
	PhaseAwaitingSelection
	// PhaseFinalizing: the traveller picked an option, write and cost the plan.
	PhaseFinalizing
	// PhaseDone: the final plan was delivered.
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseProposing:
		return "proposing"
	case PhaseAwaitingSelection:
		return "awaiting-selection"
	case PhaseFinalizing:
		return "finalizing"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// DetectPhase derives the phase from a conversation history.
//
// A user message that follows a delivered plan starts a new proposal round.
func DetectPhase(history []core.Message) Phase {
	lastAssistant := -1
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == core.RoleAssistant {
			lastAssistant = i
			break
		}
	}

	if lastAssistant < 0 {
		return PhaseProposing
	}

	delivered := strings.Contains(history[lastAssistant].Content, ClosingPhrase)

	if lastAssistant == len(history)-1 {
		if delivered {
			return PhaseDone
		}
		return PhaseAwaitingSelection
	}

	if delivered {
		return PhaseProposing
	}

	return PhaseFinalizing
}

func phaseNote(p Phase) string {
	switch p {
	case PhaseFinalizing:
		return "# CURRENT PHASE\nYou are in Phase 2. The user has replied with a selection. Run `planner` first, then `budget_calculator`, then present the plan and end with: \"" + ClosingPhrase + "\""
	default:
		return "# CURRENT PHASE\nYou are in Phase 1. The user message is the initial query. Propose 3 distinct options and ask: \"" + SelectionQuestion + "\""
	}
}
