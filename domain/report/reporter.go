// Package report implements the Report object and Reporter interface
// (spec §4.2, §3 "Report"): a single reported occurrence of an issue, and
// the polymorphic role anything raising one must satisfy.
package report

import (
	"github.com/streamvalidate/scenario/domain/issue"
	"github.com/streamvalidate/scenario/pkg/pipeline"
)

// DetailLevel controls how much a reporter wants to know about a given
// issue: it gates stack-trace capture and shadow-report eligibility.
type DetailLevel int

const (
	DetailNone DetailLevel = iota
	DetailSynthetic
	DetailSubchain
	DetailMonitor
	DetailAll
)

// Reporter is anything entitled to raise reports (spec Glossary). It
// carries per-instance severity overrides and a detail level, plus a
// non-owning back-pointer to the pipeline it observes.
type Reporter interface {
	// ReporterName is the display name cached into every Report it raises,
	// so reports outlive their reporter.
	ReporterName() string

	// OverrideSeverity is given an issue key and the proposed severity
	// (issue default, possibly adjusted by a scenario-wide override) and
	// returns the level to actually use. Most reporters return proposed
	// unchanged.
	OverrideSeverity(key issue.Key, proposed issue.Severity) issue.Severity

	// ReportingDetail controls stack-trace capture and shadow eligibility.
	ReportingDetail() DetailLevel

	// Pipeline is the (possibly nil) pipeline this reporter observes.
	Pipeline() pipeline.Pipeline
}

// SimpleReporter is a minimal Reporter usable directly by action handlers
// and tests that don't need per-issue override logic.
type SimpleReporter struct {
	Name   string
	Detail DetailLevel
	Pipe   pipeline.Pipeline

	// Overrides optionally maps an issue key to a forced severity.
	Overrides map[issue.Key]issue.Severity
}

func (s *SimpleReporter) ReporterName() string { return s.Name }

func (s *SimpleReporter) OverrideSeverity(key issue.Key, proposed issue.Severity) issue.Severity {
	if s.Overrides == nil {
		return proposed
	}
	if forced, ok := s.Overrides[key]; ok {
		return forced
	}
	return proposed
}

func (s *SimpleReporter) ReportingDetail() DetailLevel { return s.Detail }

func (s *SimpleReporter) Pipeline() pipeline.Pipeline { return s.Pipe }
