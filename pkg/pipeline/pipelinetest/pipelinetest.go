// Package pipelinetest is an in-memory stub implementation of
// pkg/pipeline's capability interfaces, for exercising the engine, bus
// handler, and action types without a real media pipeline (spec Design
// Notes §9).
package pipelinetest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/streamvalidate/scenario/pkg/pipeline"
)

// Pipeline is a synchronous, single-threaded fake satisfying
// pkg/pipeline.Pipeline. All methods are safe to call from tests only —
// there is no internal locking beyond what's needed for Subscribe/bus
// delivery, since the fake is meant to be driven from one goroutine.
type Pipeline struct {
	mu sync.Mutex

	position time.Duration
	duration time.Duration
	rate     float64
	state    pipeline.State
	flavor   pipeline.MonitorFlavor
	minLat   time.Duration
	maxLat   time.Duration

	elements map[string]*Element

	subs []chan pipeline.BusMessage

	// SendEventErr, if set, is returned by SendEvent instead of nil —
	// tests use this to exercise the seek-not-handled / error paths.
	SendEventErr error
	// SetStateResult lets tests force what SetState returns.
	SetStateResult pipeline.StateChangeResult
	SetStateErr    error

	DumpedDots []string
	Gone       bool
}

func New() *Pipeline {
	return &Pipeline{
		rate:           1.0,
		elements:       make(map[string]*Element),
		SetStateResult: pipeline.StateChangeSuccess,
	}
}

func (p *Pipeline) SetPosition(d time.Duration) { p.mu.Lock(); defer p.mu.Unlock(); p.position = d }
func (p *Pipeline) SetDuration(d time.Duration) { p.mu.Lock(); defer p.mu.Unlock(); p.duration = d }
func (p *Pipeline) SetFlavor(f pipeline.MonitorFlavor) { p.flavor = f }

func (p *Pipeline) AddElement(e *Element) { p.elements[e.NameVal] = e }

func (p *Pipeline) Position(ctx context.Context) (time.Duration, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position, true
}

func (p *Pipeline) Duration(ctx context.Context) (time.Duration, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration, true
}

func (p *Pipeline) Rate() float64 { return p.rate }

func (p *Pipeline) SendEvent(ctx context.Context, ev pipeline.Event) error {
	if p.Gone {
		return fmt.Errorf("pipelinetest: pipeline is gone")
	}
	return p.SendEventErr
}

func (p *Pipeline) SetState(ctx context.Context, state pipeline.State) (pipeline.StateChangeResult, error) {
	if p.SetStateErr != nil {
		return pipeline.StateChangeFailure, p.SetStateErr
	}
	p.mu.Lock()
	p.state = state
	p.mu.Unlock()
	return p.SetStateResult, nil
}

func (p *Pipeline) CurrentState() pipeline.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Pipeline) Latency(ctx context.Context) (time.Duration, time.Duration, error) {
	return p.minLat, p.maxLat, nil
}

func (p *Pipeline) SetLatency(min, max time.Duration) { p.minLat, p.maxLat = min, max }

func (p *Pipeline) Subscribe(ctx context.Context) (<-chan pipeline.BusMessage, func()) {
	ch := make(chan pipeline.BusMessage, 64)
	p.mu.Lock()
	p.subs = append(p.subs, ch)
	p.mu.Unlock()
	return ch, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		for i, s := range p.subs {
			if s == ch {
				p.subs = append(p.subs[:i], p.subs[i+1:]...)
				close(ch)
				return
			}
		}
	}
}

// Post delivers msg to every current subscriber; tests use this to drive
// the bus handler under test.
func (p *Pipeline) Post(msg pipeline.BusMessage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, ch := range p.subs {
		ch <- msg
	}
}

func (p *Pipeline) Elements(ctx context.Context) ([]pipeline.Element, error) {
	out := make([]pipeline.Element, 0, len(p.elements))
	for _, e := range p.elements {
		out = append(out, e)
	}
	return out, nil
}

func (p *Pipeline) ElementByName(ctx context.Context, name string) (pipeline.Element, bool) {
	e, ok := p.elements[name]
	if !ok {
		return nil, false
	}
	return e, true
}

func (p *Pipeline) ElementsByKlass(ctx context.Context, klass string) ([]pipeline.Element, error) {
	var out []pipeline.Element
	for _, e := range p.elements {
		if e.KlassVal == klass {
			out = append(out, e)
		}
	}
	return out, nil
}

func (p *Pipeline) ElementsByFactory(ctx context.Context, factory string) ([]pipeline.Element, error) {
	var out []pipeline.Element
	for _, e := range p.elements {
		if e.FactoryVal == factory {
			out = append(out, e)
		}
	}
	return out, nil
}

func (p *Pipeline) MonitorFlavor() pipeline.MonitorFlavor { return p.flavor }

func (p *Pipeline) DumpDot(ctx context.Context, path string, details string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.DumpedDots = append(p.DumpedDots, path)
	return nil
}

// Element is a fake pipeline.Element backed by a property map.
type Element struct {
	mu sync.Mutex

	NameVal    string
	KlassVal   string
	FactoryVal string

	props     map[string]any
	handlers  map[string][]func(args ...any)
	probes    map[string][]pipeline.PadProbe
	EmitErr   error
	Emitted   []EmitCall
}

type EmitCall struct {
	Signal string
	Args   []any
}

func NewElement(name, klass, factory string) *Element {
	return &Element{
		NameVal:    name,
		KlassVal:   klass,
		FactoryVal: factory,
		props:      make(map[string]any),
		handlers:   make(map[string][]func(args ...any)),
		probes:     make(map[string][]pipeline.PadProbe),
	}
}

func (e *Element) Name() string        { return e.NameVal }
func (e *Element) Klass() string       { return e.KlassVal }
func (e *Element) FactoryName() string { return e.FactoryVal }

func (e *Element) GetProperty(name string) (any, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.props[name]
	if !ok {
		return nil, fmt.Errorf("pipelinetest: element %s has no property %q", e.NameVal, name)
	}
	return v, nil
}

func (e *Element) SetProperty(name string, value any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.props[name] = value
	return nil
}

func (e *Element) Emit(signal string, args ...any) (any, error) {
	e.mu.Lock()
	e.Emitted = append(e.Emitted, EmitCall{Signal: signal, Args: args})
	handlers := append([]func(args ...any){}, e.handlers[signal]...)
	e.mu.Unlock()

	if e.EmitErr != nil {
		return nil, e.EmitErr
	}
	for _, h := range handlers {
		h(args...)
	}
	return nil, nil
}

func (e *Element) Connect(signal string, handler func(args ...any)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[signal] = append(e.handlers[signal], handler)
	idx := len(e.handlers[signal]) - 1
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		hs := e.handlers[signal]
		if idx < len(hs) {
			e.handlers[signal] = append(hs[:idx], hs[idx+1:]...)
		}
	}
}

func (e *Element) AddPadProbe(padName string, probe pipeline.PadProbe) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.probes[padName] = append(e.probes[padName], probe)
	idx := len(e.probes[padName]) - 1
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		ps := e.probes[padName]
		if idx < len(ps) {
			e.probes[padName] = append(ps[:idx], ps[idx+1:]...)
		}
	}
}

// FireProbe feeds data through every probe installed on padName of the
// matching kind, returning false if any probe dropped it.
func (e *Element) FireProbe(padName string, data pipeline.ProbeData) bool {
	e.mu.Lock()
	probes := append([]pipeline.PadProbe{}, e.probes[padName]...)
	e.mu.Unlock()

	keep := true
	for _, p := range probes {
		if !p.Handler(data) {
			keep = false
		}
	}
	return keep
}
