// Package agent contains the agent implementations of tourmesh.
//
//   - BaseAgent: identity and sub-agent hierarchy plumbing
//   - ModelAgent: model-centric tool-calling agent driven by the flow loop
//   - DeepAgent: a lead ModelAgent that delegates isolated work to named
//     subagents through the task tool
//
// Subagents run on a fresh history holding only the task description. Their
// events share the parent's stream on branch "task/<name>", and only their
// final text is returned to the lead.
package agent
