package pipelinetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamvalidate/scenario/pkg/pipeline"
)

func TestPipelinePositionAndDuration(t *testing.T) {
	p := New()
	p.SetPosition(5 * time.Second)
	p.SetDuration(100 * time.Second)

	pos, ok := p.Position(context.Background())
	require.True(t, ok)
	assert.Equal(t, 5*time.Second, pos)

	dur, ok := p.Duration(context.Background())
	require.True(t, ok)
	assert.Equal(t, 100*time.Second, dur)
}

func TestSubscribeReceivesPostedMessages(t *testing.T) {
	p := New()
	ch, unsub := p.Subscribe(context.Background())
	defer unsub()

	p.Post(pipeline.BusMessage{Type: pipeline.MessageEOS})
	msg := <-ch
	assert.Equal(t, pipeline.MessageEOS, msg.Type)
}

func TestElementPropertyRoundTrip(t *testing.T) {
	e := NewElement("sink0", "Sink", "fakesink")
	require.NoError(t, e.SetProperty("sync", true))
	v, err := e.GetProperty("sync")
	require.NoError(t, err)
	assert.Equal(t, true, v)
}

func TestElementEmitInvokesConnectedHandlers(t *testing.T) {
	e := NewElement("src0", "Source", "appsrc")
	called := false
	disconnect := e.Connect("push-buffer", func(args ...any) { called = true })
	_, err := e.Emit("push-buffer", []byte("data"))
	require.NoError(t, err)
	assert.True(t, called)

	disconnect()
	called = false
	_, _ = e.Emit("push-buffer")
	assert.False(t, called)
}

func TestElementPadProbeCanDropData(t *testing.T) {
	e := NewElement("sel0", "Selector", "input-selector")
	e.AddPadProbe("sink_0", pipeline.PadProbe{
		Kind: pipeline.ProbeBuffer,
		Handler: func(d pipeline.ProbeData) bool {
			return !d.IsDiscont
		},
	})
	assert.False(t, e.FireProbe("sink_0", pipeline.ProbeData{IsDiscont: true}))
	assert.True(t, e.FireProbe("sink_0", pipeline.ProbeData{IsDiscont: false}))
}

func TestElementsByKlassAndFactory(t *testing.T) {
	p := New()
	p.AddElement(NewElement("sel0", "Selector/Audio", "input-selector"))
	p.AddElement(NewElement("sel1", "Selector/Video", "input-selector"))

	byFactory, err := p.ElementsByFactory(context.Background(), "input-selector")
	require.NoError(t, err)
	assert.Len(t, byFactory, 2)

	byKlass, err := p.ElementsByKlass(context.Background(), "Selector/Audio")
	require.NoError(t, err)
	assert.Len(t, byKlass, 1)
}
