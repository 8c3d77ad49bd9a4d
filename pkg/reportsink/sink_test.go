package reportsink

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamvalidate/scenario/domain/issue"
	"github.com/streamvalidate/scenario/domain/report"
)

func testReport(t *testing.T, sev issue.Severity) *report.Report {
	t.Helper()
	reg := issue.NewRegistry()
	iss, err := reg.Register("scenario", "not-ended", "the program stopped before some actions were executed", "long description", sev)
	require.NoError(t, err)
	return report.New(iss, "monitor-0", sev, "3 actions remaining", report.DetailSynthetic, false)
}

func TestSinkWritesReportToLogFile(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "out.log")

	s, err := New(Options{LogFiles: []string{logPath}})
	require.NoError(t, err)
	defer s.Close()

	s.EmitReport(testReport(t, issue.Critical))

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "CRITICAL")
	assert.Contains(t, content, "monitor-0")
	assert.Contains(t, content, "3 actions remaining")
	assert.Contains(t, content, "long description")
}

func TestSinkAbortsOnPolicyMatch(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "out.log")

	exited := -1
	s, err := New(Options{
		LogFiles: []string{logPath},
		Policy:   ParsePolicy("fatal_criticals"),
		Exit:     func(code int) { exited = code },
	})
	require.NoError(t, err)
	defer s.Close()

	s.EmitReport(testReport(t, issue.Critical))
	assert.Equal(t, 1, exited)
}

func TestSinkDoesNotAbortWhenPolicyDoesNotMatch(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "out.log")

	exited := -1
	s, err := New(Options{
		LogFiles: []string{logPath},
		Policy:   ParsePolicy("fatal_criticals"),
		Exit:     func(code int) { exited = code },
	})
	require.NoError(t, err)
	defer s.Close()

	s.EmitReport(testReport(t, issue.Warning))
	assert.Equal(t, -1, exited)
}

func TestSinkSkipsWritingWhenPrintPolicyExcludesLevel(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "out.log")

	s, err := New(Options{
		LogFiles: []string{logPath},
		Policy:   ParsePolicy("print_criticals"),
	})
	require.NoError(t, err)
	defer s.Close()

	s.EmitReport(testReport(t, issue.Warning))

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Empty(t, data)
}
