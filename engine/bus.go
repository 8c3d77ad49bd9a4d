package engine

import (
	"context"
	"strings"

	"github.com/streamvalidate/scenario/domain/action"
	"github.com/streamvalidate/scenario/domain/scenario"
	"github.com/streamvalidate/scenario/pkg/pipeline"
)

// handleBusMessage implements the Bus Message Handler dispatch table
// (spec §4.7). It always runs on the engine's main goroutine (the select
// loop in loop, started by Run), so it never needs e.Post to touch scenario state itself —
// only completions triggered from other threads do.
func (e *Engine) handleBusMessage(msg pipeline.BusMessage) {
	sc := e.sc

	switch msg.Type {
	case pipeline.MessageAsyncDone:
		e.handleAsyncDone()

	case pipeline.MessageStateChanged:
		e.handleStateChanged(msg)

	case pipeline.MessageEOS:
		e.handleTermination(true)

	case pipeline.MessageError:
		e.handleTermination(false)

	case pipeline.MessageBuffering:
		sc.Buffering = msg.BufferingPercent < 100

	case pipeline.MessageStreamsSelected:
		e.handleStreamsSelected(msg)

	case pipeline.MessageLatency:
		e.checkLatency()

	case pipeline.MessageQoS:
		sc.DroppedBuffers += int(msg.DroppedIncrement)
	}

	// A `wait, message-type=...` action can park on any message type, not
	// just the ones with no dedicated handling above, so this always runs
	// alongside whichever case just fired (spec §4.7 last row).
	e.handleWaitMessageType(msg)
}

func headAction(sc *scenario.Scenario) *action.Action {
	if len(sc.MainQueue) == 0 {
		return nil
	}
	return sc.MainQueue[0]
}

func isStateSetting(a *action.Action) bool {
	switch a.TypeName {
	case "set-state", "play", "pause", "stop":
		return true
	default:
		return false
	}
}

func containsStream(set []string, want string) bool {
	for _, s := range set {
		if s == want {
			return true
		}
	}
	return false
}

func (e *Engine) checkLatency() {
	sc := e.sc
	if sc.Pipe == nil {
		return
	}
	min, max, err := sc.Pipe.Latency(context.Background())
	if err != nil {
		return
	}
	if min > max {
		sc.Report("config::latency-too-high", "pipeline latency is higher than allowed")
	}
}

func (e *Engine) handleStateChanged(msg pipeline.BusMessage) {
	sc := e.sc
	if !msg.SourceIsPipeline {
		return
	}
	if sc.TargetState == msg.NewState && sc.ChangingState {
		sc.ChangingState = false
		if head := headAction(sc); head != nil && isStateSetting(head) && !sc.NeedsAsyncDone {
			e.sc.SetDone(head)
		}
	}
	if msg.OldState == pipeline.StateReady && msg.NewState == pipeline.StatePaused {
		e.scheduleTick()
	}
	if msg.NewState == pipeline.StatePlaying {
		e.checkLatency()
	}
}

func (e *Engine) handleAsyncDone() {
	sc := e.sc

	if sc.PendingSeek != nil {
		pending := sc.PendingSeek
		sc.Segment.Start = pending.Start
		sc.Segment.Stop = pending.Stop
		sc.Segment.Flags = pending.Flags
		if pending.TargetState == pipeline.StatePaused {
			sc.SeekedInPause = true
		}
		sc.PendingSeek = nil
		if pending.AwaitingAction != nil {
			sc.SetDone(pending.AwaitingAction)
		}
		e.scheduleTick()
		return
	}

	if sc.NeedsAsyncDone {
		sc.NeedsAsyncDone = false
		if head := headAction(sc); head != nil && isStateSetting(head) && !sc.ChangingState {
			sc.SetDone(head)
		}
	}
	e.scheduleTick()
}

func (e *Engine) handleStreamsSelected(msg pipeline.BusMessage) {
	sc := e.sc
	head := headAction(sc)
	if head == nil || head.TypeName != "switch-track" || head.State != action.StateAsync {
		return
	}
	expected, _ := head.Current.String("expected-stream-ids")
	if expected != "" && !containsStream(msg.SelectedStreamIDs, expected) {
		sc.Report("scenario::action-execution-error", "switch-track: streams-selected mismatch")
	}
	sc.SetDone(head)
}

// waitWaiter tracks a parked `wait` action awaiting a bus message of a
// specific type; registered by the engine's wait dispatch (see waits.go)
// and consumed here.
type waitWaiter struct {
	messageType pipeline.BusMessageType
	action      *action.Action
}

// handleWaitMessageType unparks any `wait` action currently parked on a
// message type matching msg (spec §4.7 last row).
func (e *Engine) handleWaitMessageType(msg pipeline.BusMessage) {
	remaining := e.waiters[:0]
	for _, w := range e.waiters {
		if w.messageType == msg.Type {
			e.SetDone(w.action)
			continue
		}
		remaining = append(remaining, w)
	}
	e.waiters = remaining
}

// handleTermination implements the shared eos/error tail of the bus
// table: dump remaining non-terminal actions as a `scenario-not-ended`
// report, then synthesize a `stop` action. The EOS-handling lock is held
// across the whole sequence (including any SetDone calls it triggers) so
// a set_done posted from an action handler on another thread cannot race
// with this report (spec §4.7 critical ordering rule).
func (e *Engine) handleTermination(isEOS bool) {
	e.eosMu.Lock()
	defer e.eosMu.Unlock()

	sc := e.sc
	if isEOS {
		sc.GotEOS = true
	}

	var remaining []string
	for _, a := range sc.MainQueue {
		if a.State == action.StateOk || a.State == action.StateError {
			continue
		}
		if a.Type != nil && a.Type.Flags.Has(action.FlagNoExecutionNotFatal) {
			continue
		}
		remaining = append(remaining, a.TypeName)
	}
	if len(remaining) > 0 {
		sc.Report("scenario::not-ended", "actions left unexecuted at termination: "+strings.Join(remaining, ", "))
	}

	if stopType, ok := action.Default().Lookup("stop"); ok {
		stop := action.NewAction("stop", stopType, action.Params{})
		sc.MainQueue = append([]*action.Action{stop}, sc.MainQueue...)
	}
	e.scheduleTick()
}
