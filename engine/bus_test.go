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

func TestHandleStateChangedCompletesSetStateAction(t *testing.T) {
	pipe := pipelinetest.New()
	sc := newTestScenario(t, pipe, nil)

	a := action.NewAction("set-state", mustLookup(t, "set-state"), action.Params{"state": "playing"})
	a.State = action.StateAsync
	sc.MainQueue = append(sc.MainQueue, a)
	sc.TargetState = pipeline.StatePlaying
	sc.ChangingState = true

	e := New(sc, nil, nil)
	e.handleBusMessage(pipeline.BusMessage{
		Type: pipeline.MessageStateChanged, SourceIsPipeline: true,
		OldState: pipeline.StatePaused, NewState: pipeline.StatePlaying,
	})

	assert.False(t, sc.ChangingState)
	assert.Equal(t, action.StateOk, a.State)
}

func TestHandleStateChangedIgnoresNonPipelineSource(t *testing.T) {
	pipe := pipelinetest.New()
	sc := newTestScenario(t, pipe, nil)
	sc.TargetState = pipeline.StatePlaying
	sc.ChangingState = true

	e := New(sc, nil, nil)
	e.handleBusMessage(pipeline.BusMessage{
		Type: pipeline.MessageStateChanged, SourceIsPipeline: false,
		NewState: pipeline.StatePlaying,
	})

	assert.True(t, sc.ChangingState, "a state-changed from an element, not the pipeline, must not clear ChangingState")
}

func TestHandleAsyncDoneCommitsPendingSeekAndCompletesAwaiter(t *testing.T) {
	pipe := pipelinetest.New()
	sc := newTestScenario(t, pipe, nil)

	a := action.NewAction("seek", mustLookup(t, "seek"), action.Params{})
	a.State = action.StateAsync
	sc.BeginSeek(2*time.Second, 5*time.Second, pipeline.SeekFlagFlush, pipeline.StatePaused, a)

	e := New(sc, nil, nil)
	e.handleBusMessage(pipeline.BusMessage{Type: pipeline.MessageAsyncDone})

	assert.Nil(t, sc.PendingSeek)
	assert.Equal(t, 2*time.Second, sc.Segment.Start)
	assert.Equal(t, 5*time.Second, sc.Segment.Stop)
	assert.True(t, sc.SeekedInPause)
	assert.Equal(t, action.StateOk, a.State)
}

func TestHandleStreamsSelectedCompletesMatchingSwitchTrack(t *testing.T) {
	pipe := pipelinetest.New()
	sc := newTestScenario(t, pipe, nil)

	a := action.NewAction("switch-track", mustLookup(t, "switch-track"), action.Params{"type": "audio"})
	a.Current["expected-stream-ids"] = "audio-0"
	a.State = action.StateAsync
	sc.MainQueue = append(sc.MainQueue, a)

	e := New(sc, nil, nil)
	e.handleBusMessage(pipeline.BusMessage{
		Type: pipeline.MessageStreamsSelected, SelectedStreamIDs: []string{"audio-0", "video-0"},
	})

	assert.Equal(t, action.StateOk, a.State)
}

func TestHandleStreamsSelectedReportsMismatch(t *testing.T) {
	pipe := pipelinetest.New()
	sink := &captureSink{}
	sc := newTestScenario(t, pipe, sink)

	a := action.NewAction("switch-track", mustLookup(t, "switch-track"), action.Params{"type": "audio"})
	a.Current["expected-stream-ids"] = "audio-1"
	a.State = action.StateAsync
	sc.MainQueue = append(sc.MainQueue, a)

	e := New(sc, nil, nil)
	e.handleBusMessage(pipeline.BusMessage{
		Type: pipeline.MessageStreamsSelected, SelectedStreamIDs: []string{"audio-0"},
	})

	require.Len(t, sink.reports, 1)
	assert.Equal(t, action.StateOk, a.State, "a mismatch still reports but the action completes")
}

func TestHandleTerminationPrependsStopAndReportsUnexecutedActions(t *testing.T) {
	pipe := pipelinetest.New()
	sink := &captureSink{}
	sc := newTestScenario(t, pipe, sink)

	pending := action.NewAction("eos", mustLookup(t, "eos"), action.Params{})
	sc.MainQueue = append(sc.MainQueue, pending)

	e := New(sc, nil, nil)
	e.handleTermination(true)

	require.Len(t, sink.reports, 1)
	assert.Equal(t, "stop", sc.MainQueue[0].TypeName)
	assert.True(t, sc.GotEOS)
}

func TestHandleTerminationSkipsNoExecutionNotFatalActions(t *testing.T) {
	pipe := pipelinetest.New()
	sink := &captureSink{}
	sc := newTestScenario(t, pipe, sink)

	stopAction := action.NewAction("stop", mustLookup(t, "stop"), action.Params{})
	sc.MainQueue = append(sc.MainQueue, stopAction)

	e := New(sc, nil, nil)
	e.handleTermination(false)

	assert.Empty(t, sink.reports, "a stop action left unexecuted is flagged no-execution-not-fatal")
}
