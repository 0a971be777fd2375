package flow

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/hupe1980/tourmesh/core"
	"github.com/hupe1980/tourmesh/tool"
)

// FunctionExecutor executes the function calls of one model turn and emits
// one function response event per call. Implementations must:
//   - Respect runCtx cancellation
//   - Never panic (recover and report a tool error instead)
//   - Return the emitted response events in call order
type FunctionExecutor interface {
	Execute(runCtx *core.RunContext, agent FlowAgent, fnCalls []core.FunctionCall, turnID string, emit func(core.Event) error) []core.Event
}

// FunctionExecutorConfig configures the default executor.
type FunctionExecutorConfig struct {
	MaxParallel    int  // <1 means one goroutine per call
	PreserveOrder  bool // buffer results and emit in original order
	LogStartEvents bool // log a start line per function
}

type parallelFunctionExecutor struct {
	cfg FunctionExecutorConfig
}

// NewParallelFunctionExecutor constructs a new executor with the given config.
// MaxParallel 1 executes calls strictly one after another.
func NewParallelFunctionExecutor(cfg FunctionExecutorConfig) FunctionExecutor {
	return &parallelFunctionExecutor{cfg: cfg}
}

func (e *parallelFunctionExecutor) Execute(
	runCtx *core.RunContext,
	agent FlowAgent,
	fnCalls []core.FunctionCall,
	turnID string,
	emit func(core.Event) error,
) []core.Event {
	n := len(fnCalls)
	if n == 0 {
		return nil
	}

	maxPar := e.cfg.MaxParallel
	if maxPar <= 0 || maxPar > n {
		maxPar = n
	}

	results := make([]core.Event, n)

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	sem := make(chan struct{}, maxPar)
	batchStart := time.Now()

	for i := range fnCalls {
		if runCtx.Err() != nil {
			break
		}

		wg.Add(1)
		sem <- struct{}{}

		go func(idx int, fc core.FunctionCall) {
			defer wg.Done()
			defer func() { <-sem }()

			if runCtx.Err() != nil {
				return
			}

			ev := e.executeOne(runCtx, agent, fc, turnID)

			mu.Lock()
			results[idx] = ev
			mu.Unlock()

			if !e.cfg.PreserveOrder {
				if err := emit(ev); err != nil {
					runCtx.LogError("agent.function.emit.error", "function", fc.Name, "error", err.Error())
				}
			}
		}(i, fnCalls[i])
	}

	wg.Wait()

	emitted := make([]core.Event, 0, n)
	for i, ev := range results {
		if ev.ID == "" {
			continue
		}

		if e.cfg.PreserveOrder {
			if err := emit(ev); err != nil {
				runCtx.LogError("agent.function.emit.error", "function", fnCalls[i].Name, "error", err.Error())
			}
		}

		emitted = append(emitted, ev)
	}

	runCtx.LogDebug(
		"agent.functions.batch.complete",
		"agent", agent.Name(),
		"count", n,
		"parallelism", maxPar,
		"duration_ms", time.Since(batchStart).Milliseconds(),
	)

	return emitted
}

func (e *parallelFunctionExecutor) executeOne(runCtx *core.RunContext, agent FlowAgent, fc core.FunctionCall, turnID string) core.Event {
	callCtx := runCtx
	if timeout := agent.ToolTimeout(); timeout > 0 {
		ctx, cancel := context.WithTimeout(runCtx.Context, timeout)
		defer cancel()

		scoped := *runCtx
		scoped.Context = ctx
		callCtx = &scoped
	}

	toolCtx := core.NewToolContext(callCtx, fc.ID, turnID)
	if e.cfg.LogStartEvents {
		runCtx.LogInfo("agent.function.start", "agent", agent.Name(), "function", fc.Name, "function_call_id", fc.ID)
	}

	start := time.Now()

	var (
		result any
		err    error
	)

	func() {
		defer func() {
			if r := recover(); r != nil {
				err = panicError(fc.Name, r)
				runCtx.LogError("agent.function.panic", "agent", agent.Name(), "function", fc.Name, "recover", r, "stack", string(debug.Stack()))
			}
		}()
		result, err = executeTool(agent.Tools(), toolCtx, fc.Name, fc.Arguments)
	}()

	runCtx.LogInfo(
		"agent.function.executed",
		"agent", agent.Name(),
		"function", fc.Name,
		"duration_ms", time.Since(start).Milliseconds(),
		"error", err != nil,
	)

	ev := core.NewFunctionResponseEvent(runCtx.RunID, agent.Name(), fc.ID, fc.Name, result, err)
	ev.Branch = runCtx.Branch

	return ev
}

// panicError converts a recovered panic value into a tool error.
func panicError(toolName string, r any) error {
	return tool.NewToolError(toolName, fmt.Sprintf("panic recovered: %v", r), tool.CodeExecution)
}

// executeTool centralizes tool lookup and argument decoding.
func executeTool(registry map[string]tool.Tool, toolCtx *core.ToolContext, toolName, args string) (any, error) {
	impl, ok := registry[toolName]
	if !ok {
		return nil, tool.NewToolError(toolName, fmt.Sprintf("tool %s not found", toolName), tool.CodeUnknownTool)
	}

	argMap := map[string]any{}
	if args != "" {
		if err := json.Unmarshal([]byte(args), &argMap); err != nil {
			return nil, tool.NewToolError(toolName, fmt.Sprintf("failed to unmarshal args: %v", err), tool.CodeValidation)
		}
	}

	return impl.Call(toolCtx, argMap)
}
