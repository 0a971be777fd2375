package flow

// NewSingleAgentFlow creates a BaseFlow with the default processors
// (instructions then contents) and a sequential function executor.
func NewSingleAgentFlow(agent FlowAgent) *BaseFlow {
	f := NewBaseFlow(agent)

	f.AddRequestProcessor(NewInstructionsProcessor())
	f.AddRequestProcessor(NewContentsProcessor())

	return f
}
