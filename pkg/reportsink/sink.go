// Package reportsink implements the Report Sink (spec §4.3): fan-out to
// log files, an optional length-prefixed JSON remote stream, and the
// print/abort severity policy.
package reportsink

import (
	"io"
	"os"

	"github.com/streamvalidate/scenario/domain/action"
	"github.com/streamvalidate/scenario/domain/issue"
	"github.com/streamvalidate/scenario/domain/report"
	"github.com/streamvalidate/scenario/internal/logging"
	"github.com/streamvalidate/scenario/internal/metrics"
)

// Exit is called when a report's severity is in the abort set; tests
// override it to avoid actually exiting the process.
type Exit func(code int)

// Sink is the concrete Report Sink, usable directly as a
// domain/scenario.Sink.
type Sink struct {
	writers   []io.Writer
	closeLogs func()
	remote    *remoteStream
	policy    Policy
	log       *logging.Logger
	metrics   *metrics.Metrics
	exit      Exit
}

// Options configures a new Sink.
type Options struct {
	LogFiles    []string
	RemoteURL   string
	SessionUUID string
	Policy      Policy
	Log         *logging.Logger
	Metrics     *metrics.Metrics
	Exit        Exit
}

// New builds a Sink from opts. A RemoteURL failure to dial is returned as
// an error rather than silently degrading to log-only, since a
// misconfigured remote endpoint is a setup mistake the operator needs to
// see immediately.
func New(opts Options) (*Sink, error) {
	writers, closeLogs, err := openLogFiles(opts.LogFiles)
	if err != nil {
		return nil, err
	}

	log := opts.Log
	if log == nil {
		log = logging.Nop()
	}

	s := &Sink{
		writers:   writers,
		closeLogs: closeLogs,
		policy:    opts.Policy,
		log:       log,
		metrics:   opts.Metrics,
		exit:      opts.Exit,
	}
	if s.exit == nil {
		s.exit = defaultExit
	}

	if opts.RemoteURL != "" {
		rs, err := dialRemote(opts.RemoteURL, opts.SessionUUID, log)
		if err != nil {
			closeLogs()
			return nil, err
		}
		s.remote = rs
	}

	return s, nil
}

// EmitReport writes r to every log file (subject to the print policy)
// and, if configured, as a `report` frame on the remote stream; applies
// the abort policy last, after both outputs have been attempted.
func (s *Sink) EmitReport(r *report.Report) {
	if s.policy.ShouldPrint(r.Severity) {
		rendered := formatReport(r)
		for _, w := range s.writers {
			if _, err := io.WriteString(w, rendered); err != nil {
				s.metrics.SinkWriteFailed()
			}
		}
	}

	if s.remote != nil {
		s.remote.Send(map[string]any{
			"type":        "report",
			"issue-id":    string(r.Issue.ID),
			"summary":     r.Issue.Summary,
			"level":       r.Severity.String(),
			"detected-on": r.Reporter,
			"details":     r.Message,
		})
	}

	if s.policy.ShouldAbort(r.Severity) {
		s.exit(1)
	}
}

// EmitActionEvent writes an `action`/`action-done` frame to the remote
// stream (spec §4.3). Action lifecycle events are not written to log
// files — only reports are (spec §4.3 enumerates log-file content as
// report text only).
func (s *Sink) EmitActionEvent(eventType string, a *action.Action, durationSeconds float64) {
	if s.remote == nil {
		return
	}
	frame := map[string]any{
		"type":        eventType,
		"action-type": a.TypeName,
		"number":      a.Number,
	}
	if eventType == "action-done" {
		frame["duration"] = durationSeconds
	}
	s.remote.Send(frame)
}

// ShouldAbort reports whether sev falls in the sink's abort set, so a
// caller deciding whether to capture a stack trace ahead of EmitReport
// can match the policy EmitReport will itself apply (spec §3).
func (s *Sink) ShouldAbort(sev issue.Severity) bool {
	return s.policy.ShouldAbort(sev)
}

// Tick retries any queued remote frames; called once per idle engine
// tick (spec §4.3 "retried on the next idle tick").
func (s *Sink) Tick() {
	if s.remote != nil {
		s.remote.Flush()
	}
}

// Close releases log files and the remote connection.
func (s *Sink) Close() error {
	if s.closeLogs != nil {
		s.closeLogs()
	}
	if s.remote != nil {
		return s.remote.Close()
	}
	return nil
}

func defaultExit(code int) {
	// os.Exit is deferred to a function value so tests can substitute a
	// no-op and assert on the intended exit code instead.
	os.Exit(code)
}
