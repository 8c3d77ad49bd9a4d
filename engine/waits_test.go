package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamvalidate/scenario/domain/action"
	"github.com/streamvalidate/scenario/pkg/pipeline"
	"github.com/streamvalidate/scenario/pkg/pipeline/pipelinetest"
)

func TestParkWaitDurationCompletesAfterTimer(t *testing.T) {
	pipe := pipelinetest.New()
	sc := newTestScenario(t, pipe, nil)
	e := New(sc, nil, nil)

	a := action.NewAction("wait", mustLookup(t, "wait"), action.Params{"duration": "0.01"})
	a.State = action.StateAsync
	sc.MainQueue = append(sc.MainQueue, a)

	e.parkWait(a)

	require.Eventually(t, func() bool {
		select {
		case task := <-e.tasks:
			task()
			return a.State == action.StateOk
		default:
			return false
		}
	}, time.Second, time.Millisecond, "the duration timer must call SetDone")
}

func TestParkWaitSignalCompletesOnConnectedSignal(t *testing.T) {
	pipe := pipelinetest.New()
	el := pipelinetest.NewElement("src", "Source", "fakesrc")
	pipe.AddElement(el)
	sc := newTestScenario(t, pipe, nil)
	e := New(sc, nil, nil)

	a := action.NewAction("wait", mustLookup(t, "wait"), action.Params{
		"signal-name": "handoff", "target-element-name": "src",
	})
	a.State = action.StateAsync
	sc.MainQueue = append(sc.MainQueue, a)

	e.parkWait(a)
	el.Emit("handoff")

	task := <-e.tasks
	task()
	assert.Equal(t, action.StateOk, a.State)
}

func TestParkWaitMessageTypeRegistersWaiterAndBusHandlerCompletesIt(t *testing.T) {
	pipe := pipelinetest.New()
	sc := newTestScenario(t, pipe, nil)
	e := New(sc, nil, nil)

	a := action.NewAction("wait", mustLookup(t, "wait"), action.Params{"message-type": "buffering"})
	a.State = action.StateAsync
	sc.MainQueue = append(sc.MainQueue, a)

	e.parkWait(a)
	require.Len(t, e.waiters, 1)

	e.handleBusMessage(pipeline.BusMessage{Type: pipeline.MessageBuffering, BufferingPercent: 0})

	assert.Empty(t, e.waiters)
	task := <-e.tasks
	task()
	assert.Equal(t, action.StateOk, a.State)
}

func TestParseBusMessageTypeKnownAndUnknown(t *testing.T) {
	assert.Equal(t, pipeline.MessageEOS, parseBusMessageType("eos"))
	assert.Equal(t, pipeline.MessageOther, parseBusMessageType("something-custom"))
}
