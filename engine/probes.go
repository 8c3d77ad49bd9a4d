package engine

import (
	"context"

	"github.com/streamvalidate/scenario/domain/action"
	"github.com/streamvalidate/scenario/pkg/pipeline"
)

// parkTrackSwitch installs the pad probe a switch-track action parks on
// after its Execute hook has issued the property/pad change and returned
// Async (spec §4.8 switch-track): the playbin strategy parks on an
// event-probe for the stream-changed confirmation, the legacy
// input-selector strategy parks on a buffer probe until the first
// DISCONT buffer flows through the newly active pad. The two Execute
// hooks (builtin_track.go) leave probe-element/probe-pad/probe-kind in
// a.Current for this to pick up; an action without those params wasn't
// issued by one of those two strategies and is left alone.
func (e *Engine) parkTrackSwitch(a *action.Action) bool {
	elName, ok := a.Current.String("probe-element")
	if !ok {
		return false
	}
	padName, ok := a.Current.String("probe-pad")
	if !ok {
		return false
	}
	kind, _ := a.Current.String("probe-kind")

	if e.sc.Pipe == nil {
		return false
	}
	el, found := e.sc.Pipe.ElementByName(context.Background(), elName)
	if !found {
		return false
	}

	var remove func()
	probe := pipeline.PadProbe{}
	switch kind {
	case "buffer":
		probe.Kind = pipeline.ProbeBuffer
		probe.Handler = func(data pipeline.ProbeData) bool {
			if data.IsDiscont {
				e.SetDone(a)
				if remove != nil {
					e.Post(remove)
				}
			}
			return true
		}
	default:
		probe.Kind = pipeline.ProbeEvent
		probe.Handler = func(data pipeline.ProbeData) bool {
			if data.HasEvent && data.EventType == pipeline.EventSelectStreams {
				e.SetDone(a)
				if remove != nil {
					e.Post(remove)
				}
			}
			return true
		}
	}
	remove = el.AddPadProbe(padName, probe)
	return true
}

// parkAppsrcPush installs the buffer probe an appsrc-push action parks on
// after it has emitted push-buffer and returned Async (spec §4.8
// appsrc-push): downstream acceptance of that one buffer completes the
// action, mirroring the original's peer-pad chain-function wrapper
// (gst-validate-scenario.c appsrc_push_chain_wrapper). Unlike
// parkTrackSwitch's buffer probe, any buffer completes it — there's no
// DISCONT condition to wait for.
func (e *Engine) parkAppsrcPush(a *action.Action) bool {
	elName, ok := a.Current.String("probe-element")
	if !ok {
		return false
	}
	padName, ok := a.Current.String("probe-pad")
	if !ok {
		return false
	}

	if e.sc.Pipe == nil {
		return false
	}
	el, found := e.sc.Pipe.ElementByName(context.Background(), elName)
	if !found {
		return false
	}

	var remove func()
	probe := pipeline.PadProbe{
		Kind: pipeline.ProbeBuffer,
		Handler: func(data pipeline.ProbeData) bool {
			e.SetDone(a)
			if remove != nil {
				e.Post(remove)
			}
			return true
		},
	}
	remove = el.AddPadProbe(padName, probe)
	return true
}
