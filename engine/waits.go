package engine

import (
	"context"
	"time"

	"github.com/streamvalidate/scenario/domain/action"
	"github.com/streamvalidate/scenario/pkg/pipeline"
)

// parkWait installs the actual suspension mechanism for a `wait` action
// after its Execute hook has validated shape and returned Async (spec
// §4.8 `wait`): a timer, a one-shot signal connection, or registration
// against the bus-message waiter list, whichever of the three mutually
// exclusive shapes the action carries.
func (e *Engine) parkWait(a *action.Action) {
	if d, ok := a.Current.Duration("duration"); ok {
		time.AfterFunc(d, func() { e.SetDone(a) })
		return
	}

	if signal, ok := a.Current.String("signal-name"); ok {
		name, _ := a.Current.String("target-element-name")
		if e.sc.Pipe == nil {
			return
		}
		el, found := e.sc.Pipe.ElementByName(context.Background(), name)
		if !found {
			return
		}
		var disconnect func()
		disconnect = el.Connect(signal, func(args ...any) {
			e.SetDone(a)
			if disconnect != nil {
				disconnect()
			}
		})
		return
	}

	if msgType, ok := a.Current.String("message-type"); ok {
		e.waiters = append(e.waiters, waitWaiter{
			messageType: parseBusMessageType(msgType),
			action:      a,
		})
	}
}

func parseBusMessageType(name string) pipeline.BusMessageType {
	switch name {
	case "async-done":
		return pipeline.MessageAsyncDone
	case "state-changed":
		return pipeline.MessageStateChanged
	case "eos":
		return pipeline.MessageEOS
	case "error":
		return pipeline.MessageError
	case "buffering":
		return pipeline.MessageBuffering
	case "streams-selected":
		return pipeline.MessageStreamsSelected
	case "latency":
		return pipeline.MessageLatency
	case "qos":
		return pipeline.MessageQoS
	default:
		return pipeline.MessageOther
	}
}
