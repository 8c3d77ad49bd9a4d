// Package engine implements the Scenario Engine's tick loop (spec §4.6)
// and Bus Message Handler (spec §4.7): the single-main-thread cooperative
// driver that pops actions off a Scenario's queues, prepares and executes
// them, and reacts to pipeline bus messages.
package engine

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/streamvalidate/scenario/domain/action"
	"github.com/streamvalidate/scenario/domain/scenario"
	"github.com/streamvalidate/scenario/internal/logging"
	"github.com/streamvalidate/scenario/internal/metrics"
	"github.com/streamvalidate/scenario/pkg/pipeline"
)

// mainTask is a deferred closure posted onto the engine's main context —
// the mechanism set_done and bus-driven completions use to hop back onto
// the single thread that owns scenario state (spec §5).
type mainTask func()

// Engine drives one Scenario to completion.
type Engine struct {
	sc  *scenario.Scenario
	log *logging.Logger
	met *metrics.Metrics

	limiter *rate.Limiter

	tasks  chan mainTask
	stopCh chan struct{}
	wg     sync.WaitGroup

	busCh    <-chan pipeline.BusMessage
	busUnsub func()

	eosMu sync.Mutex // held across set_done during EOS handling (spec §4.7 ordering rule)

	waiters []waitWaiter
}

// New builds an Engine for sc. tickInterval of zero means the tick runs
// as idle work (scheduled via Post whenever there's nothing else to do)
// rather than on a fixed period.
func New(sc *scenario.Scenario, log *logging.Logger, met *metrics.Metrics) *Engine {
	if log == nil {
		log = logging.Nop()
	}
	e := &Engine{
		sc:     sc,
		log:    log,
		met:    met,
		tasks:  make(chan mainTask, 256),
		stopCh: make(chan struct{}),
	}
	if sc.TickInterval > 0 {
		e.limiter = rate.NewLimiter(rate.Every(sc.TickInterval), 1)
	}
	return e
}

// Post enqueues f to run on the engine's main context. Safe to call from
// any goroutine (pad probes, signal handlers, timers) — this is the only
// sanctioned way those callers may affect scenario state (spec §5).
func (e *Engine) Post(f func()) {
	select {
	case e.tasks <- f:
	case <-e.stopCh:
	}
}

// SetDone is the main-context-safe wrapper around Scenario.SetDone (spec
// §4.6 `set_done`): it posts the transition as a deferred task so the
// caller's own stack unwinds first, then wakes the tick loop.
func (e *Engine) SetDone(a *action.Action) {
	e.Post(func() {
		e.sc.SetDone(a)
		e.scheduleTick()
	})
}

func (e *Engine) scheduleTick() {
	e.Post(e.tick)
}

// Run starts the engine's main loop: it subscribes to the pipeline bus,
// arms the tick source, and processes tasks until ctx is done or Stop is
// called.
func (e *Engine) Run(ctx context.Context) {
	if e.sc.Pipe != nil {
		e.busCh, e.busUnsub = e.sc.Pipe.Subscribe(ctx)
	}

	e.wg.Add(1)
	go e.loop(ctx)
}

func (e *Engine) loop(ctx context.Context) {
	defer e.wg.Done()

	e.scheduleTick()

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.stopCh:
			return
		case msg, ok := <-e.busCh:
			if !ok {
				e.busCh = nil
				continue
			}
			e.handleBusMessage(msg)
		case task := <-e.tasks:
			task()
		}
	}
}

// Stop halts the main loop and releases the bus subscription.
func (e *Engine) Stop() {
	select {
	case <-e.stopCh:
	default:
		close(e.stopCh)
	}
	if e.busUnsub != nil {
		e.busUnsub()
	}
	e.wg.Wait()
}

// tick implements the 9-step algorithm of spec §4.6. It always re-arms
// itself (via a timer or the rate limiter) before returning.
func (e *Engine) tick() {
	defer e.armNextTick()

	sc := e.sc

	if sc.Sink != nil {
		sc.Sink.Tick()
	}

	// Step 1: gate conditions.
	if sc.Buffering || sc.ChangingState || sc.NeedsAsyncDone {
		return
	}

	if len(sc.MainQueue) == 0 {
		return
	}

	for {
		if len(sc.MainQueue) == 0 {
			return
		}
		a := sc.MainQueue[0]

		// Step 3.
		if a.State == action.StateInProgress {
			return
		}

		// Step 4: pop completed, non-repeating actions and recurse.
		if a.State == action.StateOk && a.Repeat <= 0 {
			sc.MainQueue = sc.MainQueue[1:]
			if len(sc.MainQueue) > 0 {
				parseNextPlaybackTime(sc.MainQueue[0])
			}
			continue
		}

		// Step 5: async timeout check.
		if a.State == action.StateAsync {
			if a.Timeout > 0 && !a.Started.IsZero() && sc.Now().Sub(a.Started) > a.Timeout {
				sc.Report("scenario::action-timeout", "action "+a.TypeName+" timed out")
				e.met.ActionTimedOut(a.TypeName)
			}
			return
		}

		// Step 6: decide whether to execute now.
		if !e.shouldExecute(sc, a) {
			return
		}

		e.dispatch(sc, a)
		return
	}
}

func parseNextPlaybackTime(a *action.Action) {
	if d, ok := a.Original.Duration("playback-time"); ok {
		a.PlaybackTime, a.PlaybackTimeSet = d, true
	}
}

func (e *Engine) shouldExecute(sc *scenario.Scenario, a *action.Action) bool {
	if sc.Pipe == nil {
		return a.Type != nil && a.Type.Flags.Has(action.FlagDoesntNeedPipeline)
	}

	if sc.Pipe.CurrentState() < pipeline.StatePaused {
		return true
	}

	if sc.GotEOS {
		sc.GotEOS = false
		return true
	}

	if !a.PlaybackTimeSet {
		return true
	}

	pos, ok := sc.Pipe.Position(context.Background())
	if !ok {
		return false
	}
	playbackRate := sc.Pipe.Rate()
	if playbackRate > 0 {
		return pos >= a.PlaybackTime
	}
	return pos <= a.PlaybackTime
}

func (e *Engine) dispatch(sc *scenario.Scenario, a *action.Action) {
	if a.Type == nil {
		sc.Report("scenario::action-execution-error", "action "+a.TypeName+" has no registered type")
		sc.MainQueue = sc.MainQueue[1:]
		return
	}

	if sc.Pipe == nil && a.Type.NeedsPipeline() {
		sc.Report("scenario::action-execution-error", "pipeline is gone, cannot execute "+a.TypeName)
		return
	}

	ctx := context.Background()
	if a.Type.Prepare != nil {
		if err := a.Type.Prepare(ctx, sc, a); err != nil {
			sc.Report("scenario::action-execution-error", err.Error())
		}
	}

	e.log.WithFields(map[string]interface{}{"action": a.TypeName, "number": a.Number}).
		Info("Executing " + a.TypeName)

	a.State = action.StateInProgress
	a.Started = sc.Now()

	result, err := a.Type.Execute(ctx, sc, a)
	if err != nil {
		sc.Report("scenario::action-execution-error", err.Error())
	}
	e.met.ActionDispatched(a.TypeName, resultOutcome(result))
	e.met.ObserveActionDuration(a.TypeName, sc.Now().Sub(a.Started).Seconds())

	if a.TypeName == "pause" && result != action.ResultError {
		e.schedulePauseResume(a)
	}

	switch result {
	case action.ResultOk:
		e.onSynchronousCompletion(sc, a)
	case action.ResultAsync:
		a.State = action.StateAsync
		switch a.TypeName {
		case "wait":
			e.parkWait(a)
		case "switch-track":
			e.parkTrackSwitch(a)
		case "appsrc-push":
			e.parkAppsrcPush(a)
		}
	case action.ResultInterlaced:
		a.State = action.StateInterlaced
		sc.MainQueue = sc.MainQueue[1:]
		sc.Interlaced = append(sc.Interlaced, a)
		e.met.SetInterlacedInFlight(len(sc.Interlaced))
		e.scheduleTick()
	case action.ResultError:
		sc.Report("scenario::action-execution-error", "execution of "+a.TypeName+" failed")
		a.State = action.StateOk
		e.onSynchronousCompletion(sc, a)
	}
}

func resultOutcome(r action.Result) string {
	switch r {
	case action.ResultOk:
		return "ok"
	case action.ResultAsync:
		return "async"
	case action.ResultInterlaced:
		return "interlaced"
	default:
		return "error"
	}
}

// onSynchronousCompletion implements spec §4.6 step 8-9: decrement
// repeat, drive any sub-actions, pop on completion, and fast-chain into
// the next action unless execute-on-idle is set.
func (e *Engine) onSynchronousCompletion(sc *scenario.Scenario, a *action.Action) {
	a.State = action.StateOk
	if a.Repeat > 0 {
		a.Repeat--
	}

	if len(a.SubActions) > 0 {
		// Thread the remaining chain onto the popped sub-action so its own
		// completion continues the chain (spec §4.6 step 8); the original
		// engine re-parses one sub-action at a time the same way.
		sub := a.SubActions[0]
		sub.SubActions = a.SubActions[1:]
		sub.ResetForRepeat()
		e.dispatch(sc, sub)
		return
	}

	if a.Type != nil && a.Repeat <= 0 {
		sc.MainQueue = sc.MainQueue[1:]
	}

	if a.Type == nil || !a.Type.Flags.Has(action.FlagExecuteOnIdle) {
		e.scheduleTick()
	}
}

// schedulePauseResume arms a `pause, duration=...` action's automatic
// return to Playing (spec §4.8 `pause`, S1 end-to-end scenario §8). Unlike
// parkWait this doesn't gate the pause action's own completion — pause
// completes the normal set-state way, via the bus's state-changed
// handler — it only fires the later resume once the timer elapses.
func (e *Engine) schedulePauseResume(a *action.Action) {
	d, ok := a.Current.Duration("duration")
	if !ok || d <= 0 {
		return
	}
	time.AfterFunc(d, func() {
		e.Post(func() {
			if e.sc.Pipe == nil {
				return
			}
			if _, err := e.sc.Pipe.SetState(context.Background(), pipeline.StatePlaying); err != nil {
				e.sc.Report("scenario::action-execution-error", "pause: auto-resume to playing failed: "+err.Error())
			}
		})
	})
}

func (e *Engine) armNextTick() {
	if e.limiter == nil {
		e.scheduleTick()
		return
	}
	d := e.limiter.Reserve().Delay()
	if d <= 0 {
		e.scheduleTick()
		return
	}
	time.AfterFunc(d, e.scheduleTick)
}
