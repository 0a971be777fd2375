package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/tourmesh/core"
	"github.com/hupe1980/tourmesh/logging"
)

// CallbackType defines the lifecycle points where callbacks run.
//
// Tool callbacks observe the event stream: before_tool fires for every
// function-call event and after_tool for every function-response event, on
// any branch. Callbacks run synchronously on the engine's event goroutine;
// a returned error stops the invocation.
type CallbackType string

const (
	// CallbackBeforeAgent is triggered before the root agent starts.
	CallbackBeforeAgent CallbackType = "before_agent"

	// CallbackAfterAgent is triggered after the root agent returned successfully.
	CallbackAfterAgent CallbackType = "after_agent"

	// CallbackBeforeTool is triggered for each function-call event.
	CallbackBeforeTool CallbackType = "before_tool"

	// CallbackAfterTool is triggered for each function-response event.
	CallbackAfterTool CallbackType = "after_tool"

	// CallbackOnError is triggered when the invocation fails.
	CallbackOnError CallbackType = "on_error"
)

// CallbackContext carries the information available to a callback.
type CallbackContext struct {
	// RunID identifies the invocation.
	RunID string

	// AgentName is the root agent name.
	AgentName string

	// CallbackType indicates which lifecycle point triggered the callback.
	CallbackType CallbackType

	// Event is the event being processed (tool callbacks only).
	Event *core.Event

	// Err is the terminal error (on_error only).
	Err error
}

// Callback defines the interface for execution lifecycle hooks.
//
// Implementations should be fast; they run synchronously and block event
// delivery while they execute.
type Callback interface {
	// Type returns the callback type this implementation handles.
	Type() CallbackType

	// Execute performs the callback logic. Returning an error stops the invocation.
	Execute(ctx context.Context, callbackCtx *CallbackContext) error
}

// FunctionCallback wraps a function as a callback implementation.
//
// Example:
//
//	counter := NewFunctionCallback(
//	    CallbackAfterTool,
//	    func(ctx context.Context, cc *CallbackContext) error {
//	        for _, fr := range cc.Event.GetFunctionResponses() {
//	            toolCalls.WithLabelValues(fr.Name).Inc()
//	        }
//	        return nil
//	    },
//	)
type FunctionCallback struct {
	callbackType CallbackType
	fn           func(ctx context.Context, callbackCtx *CallbackContext) error
}

// NewFunctionCallback creates a new function-based callback.
func NewFunctionCallback(
	callbackType CallbackType,
	fn func(ctx context.Context, callbackCtx *CallbackContext) error,
) *FunctionCallback {
	return &FunctionCallback{
		callbackType: callbackType,
		fn:           fn,
	}
}

// Type returns the callback type this function handles.
func (c *FunctionCallback) Type() CallbackType { return c.callbackType }

// Execute calls the wrapped function with the provided context.
func (c *FunctionCallback) Execute(ctx context.Context, callbackCtx *CallbackContext) error {
	return c.fn(ctx, callbackCtx)
}

// CallbackManager is a registry of callbacks executed in registration order.
// The first error stops execution of the remaining callbacks. It is safe for
// concurrent use.
type CallbackManager struct {
	mu        sync.RWMutex
	callbacks map[CallbackType][]Callback
}

// NewCallbackManager creates an empty callback manager.
func NewCallbackManager() *CallbackManager {
	return &CallbackManager{
		callbacks: make(map[CallbackType][]Callback),
	}
}

// RegisterCallback adds a callback for its type.
func (cm *CallbackManager) RegisterCallback(callback Callback) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	callbackType := callback.Type()
	cm.callbacks[callbackType] = append(cm.callbacks[callbackType], callback)
}

// ExecuteCallbacks executes all registered callbacks for the given type.
func (cm *CallbackManager) ExecuteCallbacks(
	ctx context.Context,
	callbackType CallbackType,
	callbackCtx *CallbackContext,
) error {
	cm.mu.RLock()
	callbacks := append([]Callback(nil), cm.callbacks[callbackType]...)
	cm.mu.RUnlock()

	callbackCtx.CallbackType = callbackType

	for _, callback := range callbacks {
		if err := callback.Execute(ctx, callbackCtx); err != nil {
			return fmt.Errorf("%s callback: %w", callbackType, err)
		}
	}

	return nil
}

// LoggingCallback writes one debug line per lifecycle event.
type LoggingCallback struct {
	callbackType CallbackType
	logger       logging.Logger
}

// NewLoggingCallback creates a new logging callback.
func NewLoggingCallback(callbackType CallbackType, logger logging.Logger) *LoggingCallback {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	return &LoggingCallback{
		callbackType: callbackType,
		logger:       logger,
	}
}

// Type returns the callback type this logger handles.
func (c *LoggingCallback) Type() CallbackType { return c.callbackType }

// Execute logs the lifecycle event.
func (c *LoggingCallback) Execute(_ context.Context, callbackCtx *CallbackContext) error {
	args := []any{"callback", string(c.callbackType), "run_id", callbackCtx.RunID, "agent", callbackCtx.AgentName}

	if ev := callbackCtx.Event; ev != nil {
		args = append(args, "event_id", ev.ID, "author", ev.Author, "branch", ev.Branch)
		for _, fc := range ev.GetFunctionCalls() {
			args = append(args, "tool", fc.Name)
		}
		for _, fr := range ev.GetFunctionResponses() {
			args = append(args, "tool", fr.Name, "tool_error", fr.Error != "")
		}
	}

	if callbackCtx.Err != nil {
		args = append(args, "error", callbackCtx.Err.Error())
	}

	c.logger.Debug("engine.callback", args...)

	return nil
}
