package report

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/streamvalidate/scenario/domain/issue"
)

// Report is a single reported occurrence of an Issue (spec §3, §4.2). Once
// constructed it is logically immutable except for its shadow/repeat
// lists, which grow under mu as later reports of the same issue by other
// or the same reporter arrive.
type Report struct {
	mu sync.Mutex

	Issue    *issue.Issue
	Reporter string // cached ReporterName(), survives the reporter's lifetime
	Severity issue.Severity
	Message  string

	// Timestamp is a monotonic wall-clock capture time, not a pipeline
	// position: reports must sort in raise order even across a seek.
	Timestamp time.Time

	// Stack is captured only when the raising reporter's detail level is
	// DetailAll or above, the severity is Critical, or the sink's abort
	// policy applies to this severity (spec §3).
	Stack string

	// DotFile is the basename of a .dot dump taken alongside this report,
	// if any; the log-file format prints it when set. Nothing in this
	// module sets it: neither dot-pipeline nor critical reports fill it in.
	DotFile string

	detail   DetailLevel
	shadows  []*Report
	repeated int
}

// New constructs a Report. severity is the already-resolved severity
// (issue default, possibly adjusted by scenario override and then by the
// reporter's OverrideSeverity) — New performs no further resolution.
// abortPolicy reports whether the sink's abort policy applies to severity;
// combined with severity == Critical and detail, it decides stack capture.
func New(iss *issue.Issue, reporterName string, severity issue.Severity, message string, detail DetailLevel, abortPolicy bool) *Report {
	r := &Report{
		Issue:     iss,
		Reporter:  reporterName,
		Severity:  severity,
		Message:   message,
		Timestamp: time.Now(),
		detail:    detail,
	}
	if detail >= DetailAll || severity == issue.Critical || abortPolicy {
		r.Stack = captureStack()
	}
	return r
}

// Detail returns the detail level this report was created with — the
// level AttachShadow checks against a prospective master (spec §4.2).
func (r *Report) Detail() DetailLevel {
	return r.detail
}

func captureStack() string {
	buf := make([]byte, 4096)
	for {
		n := runtime.Stack(buf, false)
		if n < len(buf) {
			return string(buf[:n])
		}
		buf = make([]byte, len(buf)*2)
	}
}

// AttachShadow records a later report of the same issue raised by a
// different (or the same) reporter while this report is still the
// "master". Per spec §4.2: a shadow is attached only if the master's own
// detail level is below DetailMonitor, and at most one shadow per distinct
// reporter identity is kept — later duplicates from a reporter that
// already has a shadow instead bump the repeat counter.
func (r *Report) AttachShadow(masterDetail DetailLevel, shadow *Report) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if masterDetail >= DetailMonitor {
		return false
	}

	for _, existing := range r.shadows {
		if existing.Reporter == shadow.Reporter {
			r.repeated++
			return false
		}
	}

	r.shadows = append(r.shadows, shadow)
	return true
}

// AddRepeat records a further occurrence of this exact report (same issue,
// same reporter) without creating a distinct shadow.
func (r *Report) AddRepeat() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.repeated++
}

// Shadows returns a snapshot of the shadow reports attached so far.
func (r *Report) Shadows() []*Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Report, len(r.shadows))
	copy(out, r.shadows)
	return out
}

// RepeatCount returns how many additional identical occurrences were
// folded into this report instead of becoming distinct reports.
func (r *Report) RepeatCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.repeated
}

func (r *Report) String() string {
	return fmt.Sprintf("%s: %s (%s) - %s", r.Severity, r.Issue.ID, r.Reporter, r.Message)
}
