// Package scenario implements the Scenario model (spec §3) and its
// Loader (spec §4.5): the three action queues, the pending-seek/segment
// state, the boolean condition set the tick loop and bus handler gate on,
// and the variables map the Expression Evaluator resolves against.
package scenario

import (
	"sync"
	"time"

	"github.com/streamvalidate/scenario/domain/action"
	"github.com/streamvalidate/scenario/domain/issue"
	"github.com/streamvalidate/scenario/domain/report"
	"github.com/streamvalidate/scenario/internal/logging"
	"github.com/streamvalidate/scenario/internal/metrics"
	"github.com/streamvalidate/scenario/pkg/pipeline"
)

// PendingSeek tracks a seek action's requested segment ahead of the
// async-done bus message that commits it into Segment (spec §4.7).
type PendingSeek struct {
	Start, Stop           time.Duration
	Flags                 pipeline.SeekFlags
	TargetState           pipeline.State
	AwaitingAction        *action.Action
}

// Segment is the committed playback segment (spec §3).
type Segment struct {
	Start, Stop time.Duration
	Flags       pipeline.SeekFlags
}

// Description carries scenario-level metadata parsed from a `description`
// structure (spec §4.5).
type Description struct {
	IsConfig      bool
	HandlesStates bool
	PipelineName  string
	MaxLatency    time.Duration
	MaxDropped    int
}

// Sink is the subset of pkg/reportsink.Sink a Scenario needs: somewhere
// to send reports and action-lifecycle frames. Declared here to avoid an
// import cycle (pkg/reportsink will in turn reference domain types, not
// the other way around).
type Sink interface {
	EmitReport(r *report.Report)
	EmitActionEvent(eventType string, a *action.Action, durationSeconds float64)

	// ShouldAbort reports whether the sink's abort policy applies to sev,
	// so a report at that severity captures a stack trace even when the
	// reporter's own detail level wouldn't otherwise call for one (spec §3).
	ShouldAbort(sev issue.Severity) bool

	// Tick retries any queued remote frames; called once per idle engine
	// tick (spec §4.3 "retried on the next idle tick").
	Tick()
}

// Scenario is one loaded, running scenario (spec §3 "Scenario").
type Scenario struct {
	mu sync.Mutex

	Name        string
	Description Description

	Pipe pipeline.Pipeline

	MainQueue       []*action.Action
	OnAdditionQueue []*action.Action
	Interlaced      []*action.Action

	PendingSeek *PendingSeek
	Segment     Segment
	TargetState pipeline.State

	Buffering      bool
	GotEOS         bool
	ChangingState  bool
	NeedsAsyncDone bool
	SeekedInPause  bool

	DroppedBuffers int

	Vars map[string]float64

	TickInterval time.Duration

	Reporter report.Reporter
	Issues   *issue.Registry
	Sink     Sink
	Severity func(key issue.Key) issue.Severity // scenario-wide override, may be nil

	Log     *logging.Logger
	Metrics *metrics.Metrics

	nowFunc func() time.Time

	// masters tracks, per issue key, the report currently acting as
	// master for that issue's shadow/repeat coalescing (spec §4.2).
	masters map[issue.Key]*report.Report
}

// New constructs an empty Scenario with its variables map seeded per
// spec §3 (`position`, `duration`).
func New(name string, pipe pipeline.Pipeline, reporter report.Reporter, sink Sink) *Scenario {
	return &Scenario{
		Name:     name,
		Pipe:     pipe,
		Reporter: reporter,
		Issues:   issue.Default(),
		Sink:     sink,
		Vars: map[string]float64{
			"position": 0,
			"duration": 0,
		},
		TickInterval: 10 * time.Millisecond,
		Log:          logging.Nop(),
		nowFunc:      time.Now,
	}
}

// SetClock overrides the clock used by Now(), for deterministic tests.
func (s *Scenario) SetClock(f func() time.Time) { s.nowFunc = f }

// --- action.Context implementation -----------------------------------

func (s *Scenario) Pipeline() pipeline.Pipeline { return s.Pipe }

func (s *Scenario) Logger() *logging.Logger { return s.Log }

func (s *Scenario) Lookup(name string) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.Vars[name]
	return v, ok
}

func (s *Scenario) SetVar(name string, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Vars == nil {
		s.Vars = make(map[string]float64)
	}
	s.Vars[name] = value
}

// Report resolves severity (issue default, scenario override, reporter
// override, in that order — spec §4.2), coalesces it against any existing
// master report for the same issue key (shadow/repeat linking, spec §4.2
// property #7), and raises whatever survives coalescing through the sink.
func (s *Scenario) Report(key issue.Key, message string) {
	iss, ok := s.Issues.Lookup(key)
	if !ok {
		s.Log.WithFields(map[string]interface{}{"issue": string(key)}).Warn("report raised for unknown issue key")
		return
	}

	severity := iss.DefaultSeverity
	if s.Severity != nil {
		severity = s.Severity(key)
	}
	if s.Reporter != nil {
		severity = s.Reporter.OverrideSeverity(key, severity)
	}
	if severity == issue.Ignore {
		return
	}

	detail := report.DetailSynthetic
	name := "engine"
	if s.Reporter != nil {
		detail = s.Reporter.ReportingDetail()
		name = s.Reporter.ReporterName()
	}

	abortPolicy := s.Sink != nil && s.Sink.ShouldAbort(severity)

	s.mu.Lock()
	master := s.masters[key]
	s.mu.Unlock()

	if master != nil {
		if master.Reporter == name {
			master.AddRepeat()
			return
		}
		if master.Detail() < report.DetailMonitor {
			shadow := report.New(iss, name, severity, message, detail, abortPolicy)
			if !master.AttachShadow(master.Detail(), shadow) {
				// A shadow from this reporter was already attached; the
				// new occurrence folds into its repeat count instead.
				return
			}
			return
		}
		// The master's own detail level is at or above "monitor": per
		// spec §4.2 it refuses further shadows, so this occurrence is
		// raised and emitted independently instead of being coalesced.
	}

	r := report.New(iss, name, severity, message, detail, abortPolicy)
	s.mu.Lock()
	if s.masters == nil {
		s.masters = make(map[issue.Key]*report.Report)
	}
	if master == nil {
		s.masters[key] = r
	}
	s.mu.Unlock()

	s.Metrics.ReportRaised(severity.String(), string(key))
	if s.Sink != nil {
		s.Sink.EmitReport(r)
	}
}

// SetDone transitions a from Async to Ok and emits its action-done event.
// The main-context hop and tick wake-up live in package engine, which wraps
// this with its own scheduling; this method only performs the state
// transition and sink notification so it stays usable from unit tests
// without a running engine.
func (s *Scenario) SetDone(a *action.Action) {
	s.mu.Lock()
	a.State = action.StateOk
	started := a.Started
	s.mu.Unlock()

	var elapsed float64
	if !started.IsZero() {
		elapsed = s.Now().Sub(started).Seconds()
	}
	if s.Sink != nil {
		s.Sink.EmitActionEvent("action-done", a, elapsed)
	}
}

// BeginSeek records a seek action's requested segment as pending; the bus
// handler's `async-done` case commits it into Segment and calls SetDone
// on awaiting once the pipeline confirms (spec §4.7).
func (s *Scenario) BeginSeek(start, stop time.Duration, flags pipeline.SeekFlags, targetState pipeline.State, awaiting *action.Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PendingSeek = &PendingSeek{
		Start:          start,
		Stop:           stop,
		Flags:          flags,
		TargetState:    targetState,
		AwaitingAction: awaiting,
	}
}

func (s *Scenario) Now() time.Time {
	if s.nowFunc != nil {
		return s.nowFunc()
	}
	return time.Now()
}

// IsActionScenario reports whether this scenario contains at least one
// non-config action, per the action-scenario/config-scenario
// classification (spec §4.5).
func (s *Scenario) IsActionScenario() bool {
	return len(s.MainQueue) > 0 || len(s.OnAdditionQueue) > 0
}
