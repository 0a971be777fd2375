// Package core provides the foundational domain types, interfaces and execution
// contexts shared by the tourmesh agent framework. It defines:
//
//   - Agents (units of autonomous work driven by a model)
//   - Content, Parts and conversation Messages
//   - Events (immutable records streamed while an agent runs)
//   - RunContext / ToolContext (scoped execution and tool sandboxing)
//   - ModelLimiter (model call budget per run)
//
// Implementation concerns (model providers, flows, concrete agents, the
// engine) live in sibling packages and depend on these small abstractions.
package core
