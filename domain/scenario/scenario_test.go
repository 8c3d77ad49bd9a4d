package scenario

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamvalidate/scenario/domain/action"
	"github.com/streamvalidate/scenario/domain/issue"
	"github.com/streamvalidate/scenario/domain/report"
)

type fakeSink struct {
	reports []*report.Report
	events  []string
}

func (f *fakeSink) EmitReport(r *report.Report) { f.reports = append(f.reports, r) }
func (f *fakeSink) EmitActionEvent(eventType string, a *action.Action, d float64) {
	f.events = append(f.events, eventType)
}
func (f *fakeSink) ShouldAbort(sev issue.Severity) bool { return false }
func (f *fakeSink) Tick()                               {}

func TestScenarioVariablesSeededWithPositionAndDuration(t *testing.T) {
	sc := New("t", nil, nil, nil)
	_, ok := sc.Lookup("position")
	assert.True(t, ok)
	_, ok = sc.Lookup("duration")
	assert.True(t, ok)
}

func TestScenarioReportUsesIssueDefaultSeverity(t *testing.T) {
	sink := &fakeSink{}
	sc := New("t", nil, nil, sink)
	sc.Report(issue.Key("scenario::not-ended"), "boom")
	require.Len(t, sink.reports, 1)
	assert.Equal(t, issue.Critical, sink.reports[0].Severity)
}

func TestScenarioReportHonorsReporterOverride(t *testing.T) {
	sink := &fakeSink{}
	key := issue.Key("scenario::not-ended")
	reporter := &report.SimpleReporter{
		Name:      "monitor-0",
		Overrides: map[issue.Key]issue.Severity{key: issue.Ignore},
	}
	sc := New("t", nil, reporter, sink)
	sc.Report(key, "boom")
	assert.Empty(t, sink.reports, "ignored severity must not reach the sink")
}

func TestScenarioSetDoneTransitionsActionAndNotifiesSink(t *testing.T) {
	sink := &fakeSink{}
	sc := New("t", nil, nil, sink)
	sc.SetClock(func() time.Time { return time.Unix(100, 0) })

	a := action.NewAction("wait", nil, action.Params{})
	a.State = action.StateAsync
	a.Started = time.Unix(99, 0)

	sc.SetDone(a)
	assert.Equal(t, action.StateOk, a.State)
	require.Len(t, sink.events, 1)
	assert.Equal(t, "action-done", sink.events[0])
}
