// Package pipeline defines the narrow capability interface the scenario
// engine uses to talk to an externally-owned media pipeline (spec Design
// Notes §9 "Pipeline-interface abstraction"). The pipeline itself, its
// elements, and the media graph are out of scope (spec §1); this package
// only names the operations the engine actually calls: query position,
// query duration, send event, set state, query latency, bus subscription,
// recursive element iteration, element lookup, pad-probe installation,
// signal emission/connection, and property get/set.
package pipeline

import (
	"context"
	"time"
)

// State mirrors the pipeline state lattice the engine reasons about
// (§4.6, §4.8 set-state): Null < Ready < Paused < Playing.
type State int

const (
	StateNull State = iota
	StateReady
	StatePaused
	StatePlaying
)

func (s State) String() string {
	switch s {
	case StateNull:
		return "null"
	case StateReady:
		return "ready"
	case StatePaused:
		return "paused"
	case StatePlaying:
		return "playing"
	default:
		return "unknown"
	}
}

// ParseState parses the `state` parameter accepted by the set-state action
// family (spec §4.8).
func ParseState(s string) (State, bool) {
	switch s {
	case "null":
		return StateNull, true
	case "ready":
		return StateReady, true
	case "paused":
		return StatePaused, true
	case "playing":
		return StatePlaying, true
	default:
		return StateNull, false
	}
}

// StateChangeResult mirrors a GStreamer-style state-change return: the
// change completed synchronously, is pending asynchronously, or failed.
type StateChangeResult int

const (
	StateChangeFailure StateChangeResult = iota
	StateChangeSuccess
	StateChangeAsync
	StateChangeNoPreroll
)

// EventType enumerates the pipeline events the engine can send or observe.
type EventType int

const (
	EventSeek EventType = iota
	EventEOS
	EventFlushStart
	EventFlushStop
	EventSelectStreams
)

// Event is a typed pipeline event the engine sends via Pipeline.SendEvent.
type Event struct {
	Type EventType

	// Seek fields (spec §4.8 `seek`).
	Rate      float64
	Start     time.Duration
	Stop      time.Duration
	StartType SeekType
	StopType  SeekType
	Flags     SeekFlags

	// SelectStreams fields (spec §4.8 `switch-track`, playbin3 path).
	StreamIDs []string

	// Flush fields.
	ResetTime bool
}

// SeekType is the seek-from-position semantics of a start/stop bound.
type SeekType int

const (
	SeekTypeNone SeekType = iota
	SeekTypeSet
)

// SeekFlags is the bit-set parsed from a scenario's `flags=flush+accurate`
// syntax (spec §4.8 `seek`).
type SeekFlags uint32

const (
	SeekFlagNone SeekFlags = 1 << iota >> 1
	SeekFlagFlush
	SeekFlagAccurate
	SeekFlagKeyUnit
	SeekFlagSegment
	SeekFlagSkip
	SeekFlagSnapBefore
	SeekFlagSnapAfter
	SeekFlagTrickMode
)

func (f SeekFlags) Has(bit SeekFlags) bool { return f&bit != 0 }

// BusMessageType enumerates the bus message kinds the Bus Message Handler
// (spec §4.7) reacts to.
type BusMessageType int

const (
	MessageAsyncDone BusMessageType = iota
	MessageStateChanged
	MessageEOS
	MessageError
	MessageBuffering
	MessageStreamsSelected
	MessageLatency
	MessageQoS
	MessageOther
)

// BusMessage is a minimal, typed view of a pipeline bus message —
// narrowed to the fields the bus handler actually reads (§4.7).
type BusMessage struct {
	Type BusMessageType

	// Source identifies the originating element; SourceIsPipeline is true
	// when the message's source was the pipeline object itself (state-
	// changed messages only react to that case, per §4.7).
	Source           string
	SourceIsPipeline bool

	// state-changed
	OldState, NewState State

	// buffering
	BufferingPercent int

	// streams-selected
	SelectedStreamIDs []string

	// latency
	MinLatency, MaxLatency time.Duration

	// qos
	DroppedIncrement uint64

	// error/eos carry no extra fields the engine needs beyond Type.
}

// Element is a single pipeline element, narrowed to the operations the
// engine's action types call (§4.8 set-property, emit-signal,
// check-last-sample, switch-track, appsrc-push/eos).
type Element interface {
	Name() string
	Klass() string
	FactoryName() string

	GetProperty(name string) (any, error)
	SetProperty(name string, value any) error

	Emit(signal string, args ...any) (any, error)
	// Connect registers a handler for signal, returning a disconnect
	// func. Handlers may fire on arbitrary pipeline worker threads (spec
	// §5): they must never run scenario logic directly, only call
	// set_done through the engine's hop-to-main-context path.
	Connect(signal string, handler func(args ...any)) (disconnect func())

	// AddPadProbe installs a probe on the named pad; the probe is invoked
	// on an arbitrary thread and returns true to keep the buffer/event
	// flowing, false to drop it. remove() uninstalls the probe.
	AddPadProbe(padName string, probe PadProbe) (remove func())
}

// PadProbeKind distinguishes buffer probes from event probes (spec §2
// "Pipeline Probes").
type PadProbeKind int

const (
	ProbeBuffer PadProbeKind = iota
	ProbeEvent
)

// PadProbe is invoked from a pipeline worker thread for every
// buffer/event matching kind; data carries the buffer or event payload the
// probe needs to inspect (e.g. a DISCONT flag, an event type).
type PadProbe struct {
	Kind    PadProbeKind
	Handler func(data ProbeData) bool
}

// ProbeData narrows what a pad probe can observe to what the built-in
// action types need.
type ProbeData struct {
	IsDiscont bool
	EventType EventType
	HasEvent  bool
}

// Pipeline is the engine's entire contract with the externally-owned
// media pipeline.
type Pipeline interface {
	Position(ctx context.Context) (time.Duration, bool)
	Duration(ctx context.Context) (time.Duration, bool)
	Rate() float64

	SendEvent(ctx context.Context, ev Event) error
	SetState(ctx context.Context, state State) (StateChangeResult, error)
	CurrentState() State

	Latency(ctx context.Context) (min, max time.Duration, err error)

	// Subscribe returns a channel of bus messages and an unsubscribe
	// func. The channel is read by the engine's Bus Message Handler on
	// the main context; messages may be produced from any thread.
	Subscribe(ctx context.Context) (<-chan BusMessage, func())

	Elements(ctx context.Context) ([]Element, error)
	ElementByName(ctx context.Context, name string) (Element, bool)
	ElementsByKlass(ctx context.Context, klass string) ([]Element, error)
	ElementsByFactory(ctx context.Context, factory string) ([]Element, error)

	// MonitorFlavor distinguishes playbin3 / playbin / legacy pipelines
	// for the switch-track action's three distinct strategies (§4.8).
	MonitorFlavor() MonitorFlavor

	// DumpDot writes a topology snapshot to path (dot-pipeline action).
	DumpDot(ctx context.Context, path string, details string) error
}

// MonitorFlavor selects which switch-track strategy applies (§4.8).
type MonitorFlavor int

const (
	FlavorPlaybin3 MonitorFlavor = iota
	FlavorPlaybin
	FlavorLegacy
)
