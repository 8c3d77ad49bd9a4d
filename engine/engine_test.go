package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamvalidate/scenario/domain/action"
	"github.com/streamvalidate/scenario/domain/issue"
	"github.com/streamvalidate/scenario/domain/report"
	"github.com/streamvalidate/scenario/domain/scenario"
	"github.com/streamvalidate/scenario/pkg/pipeline"
	"github.com/streamvalidate/scenario/pkg/pipeline/pipelinetest"
)

type captureSink struct {
	reports []*report.Report
	events  []string
}

func (f *captureSink) EmitReport(r *report.Report) { f.reports = append(f.reports, r) }
func (f *captureSink) EmitActionEvent(eventType string, a *action.Action, d float64) {
	f.events = append(f.events, eventType)
}
func (f *captureSink) ShouldAbort(sev issue.Severity) bool { return false }
func (f *captureSink) Tick()                               {}

func newTestScenario(t *testing.T, pipe *pipelinetest.Pipeline, sink scenario.Sink) *scenario.Scenario {
	t.Helper()
	var p pipeline.Pipeline
	if pipe != nil {
		p = pipe
	}
	sc := scenario.New("t", p, nil, sink)
	return sc
}

func mustLookup(t *testing.T, name string) *action.Type {
	t.Helper()
	ty, ok := action.Default().Lookup(name)
	require.True(t, ok, "missing built-in action type %q", name)
	return ty
}

func TestTickDispatchesHeadActionAndPopsOnSynchronousCompletion(t *testing.T) {
	pipe := pipelinetest.New()
	sc := newTestScenario(t, pipe, nil)

	a := action.NewAction("eos", mustLookup(t, "eos"), action.Params{})
	sc.MainQueue = append(sc.MainQueue, a)

	e := New(sc, nil, nil)
	e.tick()

	assert.Empty(t, sc.MainQueue)
	assert.Equal(t, action.StateOk, a.State)
}

func TestTickReportsActionTimeoutWithoutPoppingTheQueue(t *testing.T) {
	pipe := pipelinetest.New()
	sink := &captureSink{}
	sc := newTestScenario(t, pipe, sink)

	a := action.NewAction("wait", mustLookup(t, "wait"), action.Params{"duration": "9999"})
	a.State = action.StateAsync
	a.Timeout = time.Second
	a.Started = time.Now().Add(-2 * time.Second)
	sc.MainQueue = append(sc.MainQueue, a)

	e := New(sc, nil, nil)
	e.tick()

	require.Len(t, sink.reports, 1)
	assert.Equal(t, issue.Key("scenario::action-timeout"), sink.reports[0].Issue.ID)
	require.Len(t, sc.MainQueue, 1, "a timed-out async action stays queued, it is not popped")
}

func TestTickGatesOnBufferingAndAsyncDoneFlags(t *testing.T) {
	pipe := pipelinetest.New()
	sc := newTestScenario(t, pipe, nil)
	sc.MainQueue = append(sc.MainQueue, action.NewAction("eos", mustLookup(t, "eos"), action.Params{}))

	e := New(sc, nil, nil)

	sc.Buffering = true
	e.tick()
	assert.Len(t, sc.MainQueue, 1, "buffering must gate the whole tick")
	sc.Buffering = false

	sc.NeedsAsyncDone = true
	e.tick()
	assert.Len(t, sc.MainQueue, 1, "a pending async-done must gate the whole tick")
	sc.NeedsAsyncDone = false

	e.tick()
	assert.Empty(t, sc.MainQueue)
}

func TestTickWaitsForPlaybackTimeOnPlayingPipeline(t *testing.T) {
	pipe := pipelinetest.New()
	pipe.SetState(context.Background(), pipeline.StatePlaying)
	sc := newTestScenario(t, pipe, nil)

	future := action.NewAction("eos", mustLookup(t, "eos"), action.Params{"playback-time": "10"})
	future.PlaybackTime = 10 * time.Second
	future.PlaybackTimeSet = true
	sc.MainQueue = append(sc.MainQueue, future)

	e := New(sc, nil, nil)
	e.tick()

	assert.Len(t, sc.MainQueue, 1, "position hasn't reached the action's playback time yet")

	pipe.SetPosition(10 * time.Second)
	e.tick()
	assert.Empty(t, sc.MainQueue)
}

func TestDispatchChainsSubActionsInOrder(t *testing.T) {
	pipe := pipelinetest.New()
	sc := newTestScenario(t, pipe, nil)

	parent := action.NewAction("eos", mustLookup(t, "eos"), action.Params{})
	first := action.NewAction("eos", mustLookup(t, "eos"), action.Params{})
	second := action.NewAction("eos", mustLookup(t, "eos"), action.Params{})
	parent.SubActions = []*action.Action{first, second}
	sc.MainQueue = append(sc.MainQueue, parent)

	e := New(sc, nil, nil)
	e.tick()

	assert.Equal(t, action.StateOk, parent.State)
	assert.Equal(t, action.StateOk, first.State)
	assert.Equal(t, action.StateOk, second.State)
	assert.Empty(t, sc.MainQueue)
}
