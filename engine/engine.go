package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hupe1980/tourmesh/core"
	"github.com/hupe1980/tourmesh/logging"
)

// ErrNoFinalResponse is returned when a run produced no final answer text.
var ErrNoFinalResponse = errors.New("no final response")

// Config defines tuning parameters for the Engine.
type Config struct {
	// MaxConcurrentInvocations limits the number of runs executing at the
	// same time. Invoke blocks (honouring its context) while the limit is
	// reached. 0 means unlimited.
	MaxConcurrentInvocations int

	// EventBufferSize sets the buffer of the internal and outgoing event channels.
	EventBufferSize int

	// MaxModelCalls bounds the model calls of one run across the root agent
	// and all subagents. 0 means unlimited.
	MaxModelCalls int
}

// DefaultConfig provides the default configuration values.
var DefaultConfig = Config{
	MaxConcurrentInvocations: 10,
	EventBufferSize:          100,
	MaxModelCalls:            40,
}

// Options configures an Engine instance.
type Options struct {
	Config Config

	// Logger defaults to NoOp.
	Logger logging.Logger

	// Callbacks defaults to an empty manager.
	Callbacks *CallbackManager
}

// Engine runs agents and streams their events. Each invocation runs in its
// own goroutine with its own cancellable context.
type Engine struct {
	config    Config
	logger    logging.Logger
	callbacks *CallbackManager
	slots     chan struct{}

	activeInvocations map[string]context.CancelFunc
	invocationsMu     sync.RWMutex
}

// New creates a new Engine.
//
//	eng := engine.New(func(o *engine.Options) {
//	    o.Config.MaxConcurrentInvocations = 4
//	    o.Logger = logger
//	})
func New(optFns ...func(o *Options)) *Engine {
	opts := Options{
		Config: DefaultConfig,
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Callbacks == nil {
		opts.Callbacks = NewCallbackManager()
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	var slots chan struct{}
	if opts.Config.MaxConcurrentInvocations > 0 {
		slots = make(chan struct{}, opts.Config.MaxConcurrentInvocations)
	}

	return &Engine{
		config:            opts.Config,
		logger:            opts.Logger,
		callbacks:         opts.Callbacks,
		slots:             slots,
		activeInvocations: make(map[string]context.CancelFunc),
	}
}

// Callbacks returns the engine's callback manager.
func (e *Engine) Callbacks() *CallbackManager { return e.callbacks }

// Invoke runs agent asynchronously on the given conversation history.
//
// It returns the run id, a channel of events and a channel carrying at most
// one terminal error. Both channels are closed when the run ends; callers
// should drain the events channel then read the errors channel. Cancelling
// ctx (or calling StopInvocation) stops the run.
func (e *Engine) Invoke(
	ctx context.Context,
	agent core.Agent,
	history []core.Message,
) (string, <-chan core.Event, <-chan error, error) {
	if agent == nil {
		return "", nil, nil, errors.New("agent must not be nil")
	}

	if err := e.acquire(ctx); err != nil {
		return "", nil, nil, fmt.Errorf("waiting for invocation slot: %w", err)
	}

	runID := core.NewID()

	eventsCh := make(chan core.Event, e.config.EventBufferSize)
	errorsCh := make(chan error, 1)
	agentEmit := make(chan core.Event, e.config.EventBufferSize)

	runCtx, cancel := context.WithCancel(ctx)

	e.invocationsMu.Lock()
	e.activeInvocations[runID] = cancel
	e.invocationsMu.Unlock()

	rc := core.NewRunContext(
		runCtx,
		runID,
		core.AgentInfo{Name: agent.Name(), Type: "lead"},
		core.ToContents(history),
		agentEmit,
		e.config.MaxModelCalls,
		e.logger,
	)

	var once sync.Once
	report := func(err error) {
		once.Do(func() {
			errorsCh <- err
		})
	}

	go func() {
		defer close(agentEmit)

		if err := e.runAgent(rc, agent); err != nil {
			e.logger.Warn("engine.run.error", "run_id", runID, "agent", agent.Name(), "error", err.Error())
			report(err)
		}
	}()

	go func() {
		defer func() {
			cancel()

			e.invocationsMu.Lock()
			delete(e.activeInvocations, runID)
			e.invocationsMu.Unlock()

			e.release()

			close(eventsCh)
			close(errorsCh)
		}()

		e.processEvents(runCtx, cancel, runID, agent.Name(), agentEmit, eventsCh, report)
	}()

	return runID, eventsCh, errorsCh, nil
}

// InvokeSync runs agent and collects all events.
func (e *Engine) InvokeSync(
	ctx context.Context,
	agent core.Agent,
	history []core.Message,
) (string, []core.Event, error) {
	runID, eventsCh, errorsCh, err := e.Invoke(ctx, agent, history)
	if err != nil {
		return "", nil, err
	}

	var events []core.Event
	for ev := range eventsCh {
		events = append(events, ev)
	}

	if err := <-errorsCh; err != nil {
		return runID, events, err
	}

	return runID, events, nil
}

// StopInvocation cancels an in-flight run.
func (e *Engine) StopInvocation(runID string) error {
	e.invocationsMu.RLock()
	cancel, exists := e.activeInvocations[runID]
	e.invocationsMu.RUnlock()

	if !exists {
		return fmt.Errorf("invocation %s not found", runID)
	}

	cancel()

	return nil
}

// ActiveInvocations returns the number of runs in flight.
func (e *Engine) ActiveInvocations() int {
	e.invocationsMu.RLock()
	defer e.invocationsMu.RUnlock()

	return len(e.activeInvocations)
}

func (e *Engine) acquire(ctx context.Context) error {
	if e.slots == nil {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case e.slots <- struct{}{}:
		return nil
	}
}

func (e *Engine) release() {
	if e.slots != nil {
		<-e.slots
	}
}

func (e *Engine) runAgent(rc *core.RunContext, agent core.Agent) error {
	cc := &CallbackContext{RunID: rc.RunID, AgentName: agent.Name()}

	if err := e.callbacks.ExecuteCallbacks(rc.Context, CallbackBeforeAgent, cc); err != nil {
		return err
	}

	if err := agent.Run(rc); err != nil {
		errCC := &CallbackContext{RunID: rc.RunID, AgentName: agent.Name(), Err: err}
		if cbErr := e.callbacks.ExecuteCallbacks(context.WithoutCancel(rc.Context), CallbackOnError, errCC); cbErr != nil {
			e.logger.Warn("engine.callback.on_error.failed", "run_id", rc.RunID, "error", cbErr.Error())
		}

		return err
	}

	return e.callbacks.ExecuteCallbacks(rc.Context, CallbackAfterAgent, cc)
}

// processEvents forwards agent events to the caller and runs tool callbacks.
// It always drains agentEmit so the agent goroutine never blocks on a
// cancelled run.
func (e *Engine) processEvents(
	ctx context.Context,
	cancel context.CancelFunc,
	runID, agentName string,
	agentEmit <-chan core.Event,
	eventsCh chan<- core.Event,
	report func(error),
) {
	for ev := range agentEmit {
		if ctx.Err() != nil {
			continue
		}

		if err := e.runToolCallbacks(ctx, runID, agentName, &ev); err != nil {
			report(err)
			cancel()

			continue
		}

		select {
		case <-ctx.Done():
		case eventsCh <- ev:
			e.logger.Debug("engine.event.delivered", "event_id", ev.ID, "run_id", runID, "branch", ev.Branch)
		}
	}
}

func (e *Engine) runToolCallbacks(ctx context.Context, runID, agentName string, ev *core.Event) error {
	if ev.Partial {
		return nil
	}

	cc := &CallbackContext{RunID: runID, AgentName: agentName, Event: ev}

	if len(ev.GetFunctionCalls()) > 0 {
		if err := e.callbacks.ExecuteCallbacks(ctx, CallbackBeforeTool, cc); err != nil {
			return err
		}
	}

	if len(ev.GetFunctionResponses()) > 0 {
		if err := e.callbacks.ExecuteCallbacks(ctx, CallbackAfterTool, cc); err != nil {
			return err
		}
	}

	return nil
}

// FinalResponse returns the text of the last final response authored by
// author on the root branch. Subagent answers never qualify.
func FinalResponse(events []core.Event, author string) (string, error) {
	for i := len(events) - 1; i >= 0; i-- {
		ev := events[i]
		if !ev.IsRoot() || ev.Author != author || !ev.IsFinalResponse() {
			continue
		}

		if text := ev.Text(); text != "" {
			return text, nil
		}
	}

	return "", ErrNoFinalResponse
}
