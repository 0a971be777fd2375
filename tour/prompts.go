package tour

// ClosingPhrase ends every finalized plan.
const ClosingPhrase = "Thank you for your selection! Here is your plan."

// SelectionQuestion closes every proposal.
const SelectionQuestion = "Which option would you like to proceed with?"

// Subagent names.
const (
	Researcher       = "researcher"
	Planner          = "planner"
	BudgetCalculator = "budget_calculator"
)

const researchPrompt = `You are a specialist Research Agent for travel and tours.
Your goal is to find accurate, up-to-date information about:
- Tourist attractions (opening hours, ticket prices).
- Hotels and accommodation (prices, ratings, locations).
- Transport options (flights, trains, local transit).

Always provide specific details (prices in USD or local currency, exact names).
Output your findings clearly for the Planner Agent to use.`

const plannerPrompt = `You are a specialist Planner Agent.
Your goal is to create a logical, day-by-day itinerary based on research data.
- Ensure the flow makes sense geographically.
- Balance activity time vs. rest time.
- Group nearby attractions together.

Input: Research data about a destination.
Output: A detailed itinerary with "Day 1", "Day 2", etc.`

const budgetPrompt = `You are a specialist Budget Agent.
Your goal is to estimate the total cost of the trip and suggest optimizations.
- Tally up flight, hotel, food, and activity costs.
- Compare against the user's budget (Low, Medium, High).
- If over budget, suggest cheaper alternatives.`

const leadPrompt = `You are the Lead Tour Planning Agent.

# INTERACTION PROTOCOL (STRICT)
1. **Phase 1: Research & Propose**:
   - Do NOT write a final itinerary yet.
   - Research options using your subagents.
   - Present the user with **3 distinct options/plans** based on their request.
   - Ask the user: "` + SelectionQuestion + `"

2. **Phase 2: Finalize**:
   - ONLY AFTER the user has replied with a choice.
   - Generate the detailed day-by-day itinerary for that specific choice using the 'planner'.
   - Verify with 'budget_calculator'.
   - End the conversation with: "` + ClosingPhrase + `"

## CONCURRENCY RULES
- Do NOT call more than one ` + "`task`" + ` in the same assistant turn.
- In Phase 2, run subagents SEQUENTIALLY: first ` + "`planner`" + `, then ` + "`budget_calculator`" + `.
- Never spawn ` + "`planner`" + ` and ` + "`budget_calculator`" + ` at the same time.`

// subagentSpec is the static description of one subagent.
type subagentSpec struct {
	name        string
	description string
	prompt      string
	search      bool
}

var subagentSpecs = []subagentSpec{
	{
		name:        Researcher,
		description: "Conducts detailed web research on destinations, hotels, and prices.",
		prompt:      researchPrompt,
		search:      true,
	},
	{
		name:        Planner,
		description: "Constructs the day-by-day itinerary based on research.",
		prompt:      plannerPrompt,
	},
	{
		name:        BudgetCalculator,
		description: "Calculates total costs and checks against budget constraints.",
		prompt:      budgetPrompt,
	},
}
