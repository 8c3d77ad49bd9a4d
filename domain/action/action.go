// Package action implements the Action Type Catalog (spec §4.8): the
// Action instance model, its execution-state machine, and the registry of
// built-in action types the Scenario Loader and Engine dispatch through.
package action

import (
	"context"
	"time"

	"github.com/streamvalidate/scenario/domain/issue"
	"github.com/streamvalidate/scenario/internal/logging"
	"github.com/streamvalidate/scenario/pkg/pipeline"
)

// Context is the slice of Scenario an action's Prepare/Execute hooks are
// allowed to touch. Declaring it here (rather than importing package
// scenario directly) avoids an import cycle, since package scenario in
// turn imports package action to hold its queues.
type Context interface {
	Pipeline() pipeline.Pipeline

	// Lookup/SetVar expose the scenario's variables map to pkg/expr-based
	// substitution and to the set-vars action type.
	Lookup(name string) (float64, bool)
	SetVar(name string, value float64)

	// Report raises a report against the scenario's reporter, applying
	// registry default + scenario override + reporter override in that
	// order (spec §4.2).
	Report(key issue.Key, message string)

	// SetDone transitions a in-flight Async action back to Ok (spec §4.6
	// `set_done`). It does not wake the tick loop itself; engine.Engine's
	// SetDone wraps it and schedules the tick.
	SetDone(a *Action)

	// BeginSeek records a pending seek's requested segment, to be
	// committed once the pipeline's async-done bus message arrives
	// (spec §4.7 `async-done` row).
	BeginSeek(start, stop time.Duration, flags pipeline.SeekFlags, targetState pipeline.State, awaiting *Action)

	// Now is the engine's clock, indirected for deterministic tests.
	Now() time.Time

	// Logger is the scenario's ambient logger; set-debug-threshold
	// reconfigures its level at runtime (spec's Ambient Stack section).
	Logger() *logging.Logger
}

// State is an action's position in its own lifecycle (spec §4.6).
type State int

const (
	StateNone State = iota
	StateInProgress
	StateAsync
	StateInterlaced
	StateOk
	StateError
	StateErrorReported
)

func (s State) String() string {
	switch s {
	case StateNone:
		return "none"
	case StateInProgress:
		return "in-progress"
	case StateAsync:
		return "async"
	case StateInterlaced:
		return "interlaced"
	case StateOk:
		return "ok"
	case StateError:
		return "error"
	case StateErrorReported:
		return "error-reported"
	default:
		return "unknown"
	}
}

// Flags is the bit-set of behavioral attributes carried by an ActionType
// (spec §4.8).
type Flags uint32

const (
	FlagNone Flags = 0
	FlagConfig Flags = 1 << iota
	FlagNeedsClock
	FlagAsync
	FlagInterlaced
	FlagDoesntNeedPipeline
	FlagCanBeOptional
	FlagCanExecuteOnAddition
	FlagNoExecutionNotFatal
	FlagHandledInConfig
	FlagNeedsClockSync
	FlagExecuteOnIdle
)

// iota above starts at 1 since FlagNone occupies position 0 in the block;
// FlagConfig is therefore bit 1 (value 2), not bit 0 — intentional, so
// FlagNone stays the distinguishable zero value.

func (f Flags) Has(bit Flags) bool { return f&bit != 0 }

// Params is an action's parsed parameter structure: the raw string/number
// fields straight from the scenario file, looked up by name. Prepare
// mutates a working copy (variable substitution, repeat computation)
// without disturbing the original — repeated/sub-actions reset from the
// original (spec §4.6 step 8).
type Params map[string]string

// Clone returns an independent copy.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Action is one scenario instruction in flight (spec §3 "Action").
type Action struct {
	TypeName string
	Type     *Type

	Original Params // as parsed from the scenario file, never mutated
	Current  Params // working copy Prepare operates on

	PlaybackTime    time.Duration
	PlaybackTimeSet bool

	Timeout time.Duration
	Repeat  int
	Number  int // ordinal position in its queue, for trace/error messages

	State State

	// Started marks when execution began, for Async timeout checks
	// (spec §4.6 step 5).
	Started time.Time

	// SubActions are nested structures queued under `sub-action` (spec
	// §4.6 step 8); executed in order after the parent's own execute
	// returns Ok.
	SubActions []*Action
}

// NewAction constructs an Action from its parsed parameters; Current
// starts as a clone of Original.
func NewAction(typeName string, t *Type, params Params) *Action {
	return &Action{
		TypeName: typeName,
		Type:     t,
		Original: params,
		Current:  params.Clone(),
		Repeat:   1,
	}
}

// ResetForRepeat restores Current from Original ahead of a repeat or
// sub-action re-entry (spec §4.6 step 8), per the supplemented rule that
// set-vars variables in the scenario's variable map are NOT reset —only
// the action's own parameter structure is.
func (a *Action) ResetForRepeat() {
	a.Current = a.Original.Clone()
}

// Result is what ActionType.Execute returns, interpreted by the tick loop
// (spec §4.6 step 7).
type Result int

const (
	ResultOk Result = iota
	ResultAsync
	ResultInterlaced
	ResultError
)

// ExecuteFunc performs an action's effect against the scenario.
type ExecuteFunc func(ctx context.Context, sc Context, a *Action) (Result, error)

// PrepareFunc performs variable substitution into a.Current and computes
// a.Repeat ahead of execution (spec §4.6 step 7). The default prepare
// (DefaultPrepare) substitutes every string field via pkg/expr and is
// sufficient for most types.
type PrepareFunc func(ctx context.Context, sc Context, a *Action) error

// Type is a registered action type (spec §4.8 table row).
type Type struct {
	Name        string
	Namespace   string
	Description string
	Flags       Flags

	// Mandatory lists parameter names that must be present in Original;
	// the loader validates this before queuing (spec §4.5).
	Mandatory []string

	Prepare PrepareFunc
	Execute ExecuteFunc
}

func (t *Type) IsConfig() bool    { return t.Flags.Has(FlagConfig) }
func (t *Type) CanBeAsync() bool  { return t.Flags.Has(FlagAsync) }
func (t *Type) NeedsPipeline() bool { return !t.Flags.Has(FlagDoesntNeedPipeline) }
