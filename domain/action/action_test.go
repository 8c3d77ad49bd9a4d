package action

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamvalidate/scenario/domain/issue"
	"github.com/streamvalidate/scenario/internal/logging"
	"github.com/streamvalidate/scenario/pkg/pipeline"
)

// fakeContext is a minimal action.Context for unit tests that don't need
// a real pipeline.
type fakeContext struct {
	pipe      pipeline.Pipeline
	vars      map[string]float64
	reports   []string
	doneCalls []*Action
	now       time.Time
}

func newFakeContext() *fakeContext {
	return &fakeContext{vars: make(map[string]float64), now: time.Unix(0, 0)}
}

func (f *fakeContext) Pipeline() pipeline.Pipeline { return f.pipe }
func (f *fakeContext) Lookup(name string) (float64, bool) {
	v, ok := f.vars[name]
	return v, ok
}
func (f *fakeContext) SetVar(name string, value float64) { f.vars[name] = value }
func (f *fakeContext) Report(key issue.Key, message string) {
	f.reports = append(f.reports, string(key)+": "+message)
}
func (f *fakeContext) SetDone(a *Action) { f.doneCalls = append(f.doneCalls, a) }
func (f *fakeContext) Now() time.Time    { return f.now }
func (f *fakeContext) BeginSeek(start, stop time.Duration, flags pipeline.SeekFlags, targetState pipeline.State, awaiting *Action) {
}
func (f *fakeContext) Logger() *logging.Logger { return logging.Nop() }

func TestRegistryRejectsDuplicateName(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&Type{Name: "seek"}))
	assert.Error(t, r.Register(&Type{Name: "seek"}))
}

func TestDefaultRegistryHasAllBuiltinTypes(t *testing.T) {
	r := Default()
	for _, name := range []string{
		"seek", "set-state", "play", "pause", "stop", "eos", "switch-track",
		"wait", "dot-pipeline", "set-property", "set-rank", "set-feature-rank",
		"set-debug-threshold", "set-vars", "emit-signal", "appsrc-push",
		"appsrc-eos", "flush", "disable-plugin", "check-last-sample",
	} {
		_, ok := r.Lookup(name)
		assert.Truef(t, ok, "expected built-in action type %q", name)
	}
}

func TestParseSeekFlagsCombines(t *testing.T) {
	f, err := ParseSeekFlags("flush+accurate")
	require.NoError(t, err)
	assert.True(t, f.Has(pipeline.SeekFlagFlush))
	assert.True(t, f.Has(pipeline.SeekFlagAccurate))
	assert.False(t, f.Has(pipeline.SeekFlagSkip))
}

func TestParseSeekFlagsRejectsUnknownToken(t *testing.T) {
	_, err := ParseSeekFlags("flush+bogus")
	assert.Error(t, err)
}

func TestParamsDuration(t *testing.T) {
	p := Params{"start": "1.5", "other": "2s"}
	d, ok := p.Duration("start")
	require.True(t, ok)
	assert.Equal(t, 1500*time.Millisecond, d)

	d, ok = p.Duration("other")
	require.True(t, ok)
	assert.Equal(t, 2*time.Second, d)
}

func TestResetForRepeatRestoresOriginal(t *testing.T) {
	a := NewAction("wait", nil, Params{"duration": "1"})
	a.Current["duration"] = "mutated"
	a.ResetForRepeat()
	assert.Equal(t, "1", a.Current["duration"])
}

func TestDefaultPrepareSubstitutesVariables(t *testing.T) {
	sc := newFakeContext()
	sc.SetVar("position", 42)
	a := NewAction("set-property", nil, Params{"property-value": "$(position)"})

	err := DefaultPrepare(context.Background(), sc, a)
	require.NoError(t, err)
	assert.Equal(t, "42", a.Current["property-value"])
}

func TestExecuteSetVarsCopiesNumericFields(t *testing.T) {
	sc := newFakeContext()
	a := NewAction("set-vars", nil, Params{"position": "3"})
	a.Current = a.Original.Clone()

	res, err := executeSetVars(context.Background(), sc, a)
	require.NoError(t, err)
	assert.Equal(t, ResultOk, res)
	v, ok := sc.Lookup("position")
	require.True(t, ok)
	assert.Equal(t, 3.0, v)
}
