package action

import (
	"context"
	"fmt"
)

// executeWait parks as Async; the engine's timer, a one-shot signal
// connection, or a matching bus message resumes it by calling
// Context.SetDone (spec §4.8 `wait`). The three wait shapes are mutually
// exclusive; which one applies is recorded for the engine to act on via
// the action's Current params, since package action has no engine access
// of its own.
func executeWait(ctx context.Context, sc Context, a *Action) (Result, error) {
	_, hasDuration := a.Current.Duration("duration")
	_, hasSignal := a.Current.String("signal-name")
	_, hasMessage := a.Current.String("message-type")

	if !hasDuration && !hasSignal && !hasMessage {
		return ResultError, fmt.Errorf("wait action needs one of duration, signal-name, message-type")
	}
	// The actual parking (timer registration / signal connect / bus
	// filter install) is performed by the engine, which inspects
	// a.Current after Prepare and owns the one true main-context timer
	// and bus subscription; this hook only validates shape and always
	// yields Async.
	return ResultAsync, nil
}

// dotNameCounter mirrors media-descriptor-writer.h's incrementing-suffix
// convention for avoiding filename collisions on repeated dumps of the
// same base name within one run.
type dotNameCounter struct {
	counts map[string]int
}

func newDotNameCounter() *dotNameCounter {
	return &dotNameCounter{counts: make(map[string]int)}
}

func (c *dotNameCounter) next(base string) string {
	n := c.counts[base]
	c.counts[base] = n + 1
	if n == 0 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, n)
}

var dotCounter = newDotNameCounter()

func executeDotPipeline(ctx context.Context, sc Context, a *Action) (Result, error) {
	pipe := sc.Pipeline()
	if pipe == nil {
		return ResultError, nil
	}
	name, ok := a.Current.String("name")
	if !ok || name == "" {
		name = "scenario"
	}
	details, _ := a.Current.String("details")
	path := dotCounter.next(name) + ".dot"
	if err := pipe.DumpDot(ctx, path, details); err != nil {
		return ResultError, err
	}
	return ResultOk, nil
}

func registerWaitTypes(r *Registry) {
	r.MustRegister(&Type{
		Name: "wait", Namespace: "core",
		Description: "Wait for a duration, a signal, or a bus message type",
		Flags:       FlagAsync,
		Prepare:     DefaultPrepare,
		Execute:     executeWait,
	})
	r.MustRegister(&Type{
		Name: "dot-pipeline", Namespace: "core",
		Description: "Dump a topology snapshot of the pipeline",
		Flags:       FlagNone,
		Prepare:     DefaultPrepare,
		Execute:     executeDotPipeline,
	})
}
