package report

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/streamvalidate/scenario/domain/issue"
)

func TestSimpleReporterDefaults(t *testing.T) {
	r := &SimpleReporter{Name: "monitor-0", Detail: DetailSynthetic}
	assert.Equal(t, "monitor-0", r.ReporterName())
	assert.Equal(t, DetailSynthetic, r.ReportingDetail())
	assert.Nil(t, r.Pipeline())
	assert.Equal(t, issue.Warning, r.OverrideSeverity("event::seek-not-handled", issue.Warning))
}

func TestSimpleReporterAppliesOverride(t *testing.T) {
	key := issue.Key("event::seek-not-handled")
	r := &SimpleReporter{
		Name:      "monitor-0",
		Overrides: map[issue.Key]issue.Severity{key: issue.Ignore},
	}
	assert.Equal(t, issue.Ignore, r.OverrideSeverity(key, issue.Critical))
	assert.Equal(t, issue.Warning, r.OverrideSeverity("other::key", issue.Warning))
}
