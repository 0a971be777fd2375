package tool

import (
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/tourmesh/core"
	"github.com/hupe1980/tourmesh/internal/util"
)

// FunctionFunc is the implementation signature wrapped by FunctionTool.
type FunctionFunc func(toolCtx *core.ToolContext, args map[string]any) (any, error)

// FunctionTool exposes a plain Go function as a tool.
//
// Arguments are validated against the declared schema before the function
// runs. Failures are normalized to *ToolError:
//
//	*ToolError returned by fn  -> forwarded unchanged
//	validation failure         -> Code VALIDATION_ERROR
//	any other error            -> Code EXECUTION_ERROR
//
// A FunctionTool holds no mutable state and is safe for concurrent use.
type FunctionTool struct {
	name        string
	description string
	parameters  map[string]any
	fn          FunctionFunc
}

// NewFunctionTool constructs a FunctionTool from explicit schema and function.
func NewFunctionTool(name, description string, parameters map[string]any, fn FunctionFunc) *FunctionTool {
	return &FunctionTool{
		name:        name,
		description: description,
		parameters:  parameters,
		fn:          fn,
	}
}

// NewFunctionToolFromStruct derives the parameter schema from a struct using
// reflection. Supported tags: json, description, enum (comma separated) and
// default.
//
// Example:
//
//	type searchArgs struct {
//	  Query string `json:"query" description:"Search query"`
//	  Topic string `json:"topic,omitempty" enum:"general,news,finance"`
//	}
func NewFunctionToolFromStruct(name, description string, structType any, fn FunctionFunc) *FunctionTool {
	return NewFunctionTool(name, description, util.CreateSchema(structType), fn)
}

// Name returns the unique tool name.
func (t *FunctionTool) Name() string { return t.name }

// Description returns the description exposed to models.
func (t *FunctionTool) Description() string { return t.description }

// Parameters returns the JSON schema describing expected arguments.
func (t *FunctionTool) Parameters() map[string]any { return t.parameters }

// Call validates args then invokes the wrapped function.
func (t *FunctionTool) Call(toolCtx *core.ToolContext, args map[string]any) (any, error) {
	logger := toolCtx.Logger()
	start := time.Now()

	logger.Debug("tool.call.start", "tool", t.name, "fc_id", toolCtx.FunctionCallID())

	if err := util.ValidateParameters(args, t.parameters); err != nil {
		logger.Warn("tool.call.validation_failed", "tool", t.name, "error", err.Error())

		return nil, &ToolError{
			Tool:    t.name,
			Message: fmt.Sprintf("parameter validation failed: %v", err),
			Code:    CodeValidation,
			Details: err,
		}
	}

	result, err := t.fn(toolCtx, args)
	if err != nil {
		var toolErr *ToolError
		if errors.As(err, &toolErr) {
			logger.Warn("tool.call.error", "tool", t.name, "code", toolErr.Code, "error", toolErr.Message)

			return nil, toolErr
		}

		logger.Error("tool.call.error", "tool", t.name, "error", err.Error())

		return nil, &ToolError{
			Tool:    t.name,
			Message: err.Error(),
			Code:    CodeExecution,
		}
	}

	logger.Info("tool.call.success", "tool", t.name, "duration_ms", time.Since(start).Milliseconds())

	return result, nil
}
