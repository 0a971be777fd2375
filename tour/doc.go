// Package tour builds the tour planning deep agent: a lead agent that talks
// to the traveller and three subagents (researcher, planner and
// budget_calculator) it delegates to through the task tool.
//
// Conversations follow a two phase protocol. First the lead researches and
// proposes three options, then, after the traveller picked one, it has the
// planner write the itinerary and the budget_calculator check it, strictly in
// that order. The phase is derived from the conversation history on every
// request and enforced by SequencePolicy.
package tour
