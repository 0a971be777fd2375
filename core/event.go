package core

import (
	"time"

	"github.com/google/uuid"
)

// Event is the primary unit of communication between agents, the engine and
// external clients. After emission it should be treated as immutable. It
// captures:
//   - Correlation (RunID, ID, Author, Branch)
//   - Conversational content (optional role-based Parts)
//   - Streaming and turn completion hints
//   - Error metadata
//
// Branch is empty for events of the root agent and "task/<name>" for events
// produced by a subagent spawned through the task tool.
type Event struct {
	ID           string     `json:"id"`
	RunID        string     `json:"run_id"`
	Author       string     `json:"author"`
	Branch       string     `json:"branch,omitempty"`
	Timestamp    time.Time  `json:"timestamp"`
	Content      *Content   `json:"content,omitempty"`
	Partial      bool       `json:"partial,omitempty"`
	TurnComplete bool       `json:"turn_complete,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	Task         *TaskStart `json:"task,omitempty"`
}

// TaskStart marks a subagent that the task tool accepted and is about to run.
type TaskStart struct {
	Subagent    string `json:"subagent"`
	Description string `json:"description"`
}

// NewEvent creates a bare event authored by 'author' bound to a run.
func NewEvent(runID, author string) Event {
	return Event{
		ID:        NewID(),
		RunID:     runID,
		Author:    author,
		Timestamp: time.Now().UTC(),
	}
}

// NewMessageEvent creates an assistant message event with a single text part.
func NewMessageEvent(runID, author, message string) Event {
	e := NewEvent(runID, author)
	c := NewTextContent(RoleAssistant, message)
	e.Content = &c
	return e
}

// NewFunctionCallEvent represents an agent requesting execution of a named function/tool.
func NewFunctionCallEvent(runID, author string, call FunctionCall) Event {
	e := NewEvent(runID, author)
	e.Content = &Content{Role: RoleAssistant, Parts: []Part{FunctionCallPart{FunctionCall: call}}}
	return e
}

// NewFunctionResponseEvent records the completion result (or error) of a tool invocation.
// If err is non-nil its message is copied into the response Error field.
func NewFunctionResponseEvent(runID, author, id, functionName string, result any, err error) Event {
	e := NewEvent(runID, author)
	fr := FunctionResponse{ID: id, Name: functionName, Response: result}
	if err != nil {
		fr.Error = err.Error()
	}
	e.Content = &Content{Role: RoleTool, Parts: []Part{FunctionResponsePart{FunctionResponse: fr}}}
	return e
}

// NewErrorEvent creates an event carrying only an error message.
func NewErrorEvent(runID, author string, err error) Event {
	e := NewEvent(runID, author)
	e.ErrorMessage = err.Error()
	return e
}

// NewTaskStartEvent announces that subagent starts working on description.
func NewTaskStartEvent(runID, author, subagent, description string) Event {
	e := NewEvent(runID, author)
	e.Task = &TaskStart{Subagent: subagent, Description: description}
	return e
}

// NewID generates a new unique identifier for events and runs.
func NewID() string { return uuid.NewString() }

// IsRoot reports whether the event belongs to the root agent branch.
func (e Event) IsRoot() bool { return e.Branch == "" }

// GetFunctionCalls returns any FunctionCall parts preserving their order.
func (e Event) GetFunctionCalls() []FunctionCall {
	if e.Content == nil {
		return nil
	}
	return e.Content.FunctionCalls()
}

// GetFunctionResponses returns any FunctionResponse parts preserving their order.
func (e Event) GetFunctionResponses() []FunctionResponse {
	if e.Content == nil {
		return nil
	}
	return e.Content.FunctionResponses()
}

// Text returns the concatenated text parts of the event content.
func (e Event) Text() string {
	if e.Content == nil {
		return ""
	}
	return e.Content.Text()
}

// IsFinalResponse reports whether the event completes an assistant turn: no
// pending tool calls or responses, not a partial chunk, no task start and no
// error.
func (e Event) IsFinalResponse() bool {
	return e.Task == nil &&
		len(e.GetFunctionCalls()) == 0 &&
		len(e.GetFunctionResponses()) == 0 &&
		!e.Partial &&
		e.ErrorMessage == ""
}
