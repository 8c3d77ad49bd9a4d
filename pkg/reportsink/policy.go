package reportsink

import (
	"strings"

	"github.com/streamvalidate/scenario/domain/issue"
)

// LevelBit is the per-severity bit used by both the print-set and the
// abort-set (spec §4.3).
type LevelBit uint8

const (
	BitIssue LevelBit = 1 << iota
	BitWarning
	BitCritical
)

func bitFor(s issue.Severity) LevelBit {
	switch s {
	case issue.Issue:
		return BitIssue
	case issue.Warning:
		return BitWarning
	case issue.Critical:
		return BitCritical
	default:
		return 0
	}
}

// Policy is the print-vs-abort bit-set pair (spec §4.3): a report prints
// if its level's bit is in PrintSet, or if PrintSet is empty (print
// everything by default); a report aborts if its level's bit is in
// AbortSet.
type Policy struct {
	PrintSet LevelBit
	AbortSet LevelBit
}

// ParsePolicy parses an environment string like
// "fatal_warnings+print_issues" into a Policy. Unknown tokens are
// ignored — the policy string is advisory configuration, not scenario
// content, so a stray token shouldn't be fatal.
func ParsePolicy(s string) Policy {
	var p Policy
	for _, tok := range strings.Split(s, "+") {
		tok = strings.TrimSpace(tok)
		switch {
		case strings.HasPrefix(tok, "print_"):
			p.PrintSet |= bitForName(strings.TrimPrefix(tok, "print_"))
		case strings.HasPrefix(tok, "fatal_"):
			p.AbortSet |= bitForName(strings.TrimPrefix(tok, "fatal_"))
		}
	}
	return p
}

func bitForName(name string) LevelBit {
	switch strings.TrimSuffix(strings.ToLower(name), "s") {
	case "issue":
		return BitIssue
	case "warning":
		return BitWarning
	case "critical":
		return BitCritical
	default:
		return 0
	}
}

// ShouldPrint reports whether sev should be written to the log sinks.
func (p Policy) ShouldPrint(sev issue.Severity) bool {
	if p.PrintSet == 0 {
		return true
	}
	return p.PrintSet&bitFor(sev) != 0
}

// ShouldAbort reports whether sev should terminate the process.
func (p Policy) ShouldAbort(sev issue.Severity) bool {
	return p.AbortSet&bitFor(sev) != 0
}
