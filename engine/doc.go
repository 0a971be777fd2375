// Package engine runs agents and exposes their output as an event stream.
//
// An Engine invocation owns one goroutine for the agent and one for event
// processing. Events are delivered on a buffered channel; a terminal error,
// if any, is delivered on a second channel. Both channels close when the run
// ends.
//
// # Usage
//
//	eng := engine.New(func(o *engine.Options) {
//	    o.Logger = logger
//	    o.Config.MaxModelCalls = 40
//	})
//
//	runID, events, errs, err := eng.Invoke(ctx, lead, history)
//	if err != nil {
//	    return err
//	}
//	_ = runID // use with StopInvocation
//	for ev := range events {
//	    handle(ev)
//	}
//	if err := <-errs; err != nil {
//	    return err
//	}
//
// # Concurrency
//
// MaxConcurrentInvocations bounds the number of runs in flight. Invoke blocks
// until a slot frees up or its context is done. Cancelling the context passed
// to Invoke cancels the run; remaining agent events are drained and dropped.
//
// # Callbacks
//
// A CallbackManager carries hooks for before_agent, after_agent, before_tool,
// after_tool and on_error. Tool callbacks observe function-call and
// function-response events of every branch, which makes them the natural
// place for metrics and journaling.
//
// # Final answers
//
// FinalResponse picks the lead agent's last complete text on the root branch
// out of the collected events, so one invocation yields both the progress
// stream and the answer.
package engine
