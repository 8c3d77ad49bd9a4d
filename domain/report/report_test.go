package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamvalidate/scenario/domain/issue"
)

func testIssue(t *testing.T) *issue.Issue {
	t.Helper()
	reg := issue.NewRegistry()
	iss, err := reg.Register("event", "seek-not-handled", "seek event wasn't handled", "", issue.Critical)
	require.NoError(t, err)
	return iss
}

func testWarningIssue(t *testing.T) *issue.Issue {
	t.Helper()
	reg := issue.NewRegistry()
	iss, err := reg.Register("buffer", "wrong-buffer", "buffer content didn't match", "", issue.Warning)
	require.NoError(t, err)
	return iss
}

func TestNewCapturesStackOnlyAtDetailAllOrCriticalOrAbortPolicy(t *testing.T) {
	warn := testWarningIssue(t)

	r := New(warn, "monitor-0", issue.Warning, "boom", DetailMonitor, false)
	assert.Empty(t, r.Stack, "below DetailAll, non-critical, and no abort policy: no stack")

	r = New(warn, "monitor-0", issue.Warning, "boom", DetailAll, false)
	assert.NotEmpty(t, r.Stack, "DetailAll always captures a stack")

	r = New(warn, "monitor-0", issue.Warning, "boom", DetailMonitor, true)
	assert.NotEmpty(t, r.Stack, "abort policy applying to this severity captures a stack")

	crit := testIssue(t)
	r = New(crit, "monitor-0", issue.Critical, "boom", DetailMonitor, false)
	assert.NotEmpty(t, r.Stack, "Critical severity always captures a stack")
}

func TestAttachShadowOncePerReporter(t *testing.T) {
	iss := testIssue(t)
	master := New(iss, "monitor-0", issue.Critical, "first", DetailSynthetic, false)

	shadowA := New(iss, "monitor-1", issue.Critical, "dup", DetailSynthetic, false)
	ok := master.AttachShadow(DetailSynthetic, shadowA)
	assert.True(t, ok)

	shadowAAgain := New(iss, "monitor-1", issue.Critical, "dup again", DetailSynthetic, false)
	ok = master.AttachShadow(DetailSynthetic, shadowAAgain)
	assert.False(t, ok, "a second shadow from the same reporter must not be attached")
	assert.Equal(t, 1, master.RepeatCount())

	shadowB := New(iss, "monitor-2", issue.Critical, "dup from another reporter", DetailSynthetic, false)
	ok = master.AttachShadow(DetailSynthetic, shadowB)
	assert.True(t, ok)

	assert.Len(t, master.Shadows(), 2)
}

func TestAttachShadowRefusedAboveMonitorDetail(t *testing.T) {
	iss := testIssue(t)
	master := New(iss, "monitor-0", issue.Critical, "first", DetailAll, false)
	shadow := New(iss, "monitor-1", issue.Critical, "dup", DetailAll, false)

	ok := master.AttachShadow(DetailMonitor, shadow)
	assert.False(t, ok)
	ok = master.AttachShadow(DetailAll, shadow)
	assert.False(t, ok)
}

func TestAddRepeatIncrementsCounter(t *testing.T) {
	iss := testIssue(t)
	r := New(iss, "monitor-0", issue.Critical, "first", DetailSynthetic, false)
	r.AddRepeat()
	r.AddRepeat()
	assert.Equal(t, 2, r.RepeatCount())
}

func TestStringIncludesIdentifyingFields(t *testing.T) {
	iss := testIssue(t)
	r := New(iss, "monitor-0", issue.Critical, "boom", DetailSynthetic, false)
	s := r.String()
	assert.Contains(t, s, "monitor-0")
	assert.Contains(t, s, "boom")
	assert.Contains(t, s, "event::seek-not-handled")
}
