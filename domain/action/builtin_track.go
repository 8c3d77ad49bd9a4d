package action

import (
	"context"

	"github.com/streamvalidate/scenario/domain/issue"
	"github.com/streamvalidate/scenario/pkg/pipeline"
)

// executeSwitchTrack implements the three monitor-flavor strategies from
// spec §4.8: playbin3 selects streams by id, playbin toggles current-*
// properties, legacy pipelines switch an input-selector's active pad.
// The supplemented Open Question on relative (signed) index wraparound is
// resolved here: a relative index wraps around the track count, and
// aborts with an execution error only when no track of the type exists.
func executeSwitchTrack(ctx context.Context, sc Context, a *Action) (Result, error) {
	pipe := sc.Pipeline()
	if pipe == nil {
		return ResultError, nil
	}

	switch pipe.MonitorFlavor() {
	case pipeline.FlavorPlaybin3:
		return switchTrackPlaybin3(ctx, sc, pipe, a)
	case pipeline.FlavorPlaybin:
		return switchTrackPlaybin(ctx, sc, pipe, a)
	default:
		return switchTrackLegacy(ctx, sc, pipe, a)
	}
}

// asInt coerces a property value read back through Element.GetProperty —
// which may come back as any of Go's numeric kinds depending on what the
// concrete pipeline adapter stores — into an int.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

// resolveTrackIndex resolves the `index`/`disable` action parameters
// against current/count queried live from the pipeline (not from scenario
// action parameters — nothing populates those; gst-validate-scenario.c's
// execute_switch_track_pb/input-selector branches query the pipeline's own
// active-pad/n-pads or current-<type>/n-<type> properties directly). An
// absent `index` defaults to a relative +1, matching the original's
// "No index given, defaulting to +1" fallback.
func resolveTrackIndex(current, count int, a *Action) (int, bool) {
	idxStr, hasIdx := a.Current.String("index")
	relative := !hasIdx || (len(idxStr) > 0 && (idxStr[0] == '+' || idxStr[0] == '-'))

	n := 1
	if hasIdx {
		parsed, ok := a.Current.Int("index")
		if !ok {
			return 0, false
		}
		n = parsed
	}

	if relative {
		if count <= 0 {
			return 0, false // no track of this type available: caller aborts
		}
		target := ((current+n)%count + count) % count
		return target, true
	}
	if n < 0 || n >= count {
		return 0, false
	}
	return n, true
}

func switchTrackPlaybin3(ctx context.Context, sc Context, pipe pipeline.Pipeline, a *Action) (Result, error) {
	streamIDs, ok := a.Current.String("expected-stream-ids")
	if !ok {
		streamIDs = ""
	}
	ev := pipeline.Event{Type: pipeline.EventSelectStreams}
	if streamIDs != "" {
		ev.StreamIDs = []string{streamIDs}
	}
	if err := pipe.SendEvent(ctx, ev); err != nil {
		sc.Report(issue.Key("scenario::action-execution-error"), "select-streams failed: "+err.Error())
		return ResultError, err
	}
	return ResultAsync, nil
}

func switchTrackPlaybin(ctx context.Context, sc Context, pipe pipeline.Pipeline, a *Action) (Result, error) {
	trackType := a.Current.MustString("type")
	el, ok := pipe.ElementByName(ctx, "playbin")
	if !ok {
		sc.Report(issue.Key("scenario::action-execution-error"), "no playbin element found for switch-track")
		return ResultError, nil
	}
	prop := "current-" + trackType
	if disable, _ := a.Current.Bool("disable"); disable {
		if err := el.SetProperty(prop, -1); err != nil {
			return ResultError, err
		}
		return ResultOk, nil
	}

	// Query the playbin's own current-<type>/n-<type> properties rather
	// than expecting them as scenario parameters (gst-validate-scenario.c
	// execute_switch_track_pb reads g_object_get(pipeline, "n-<type>",
	// "current-<type>", ...) the same way).
	count := 0
	if v, err := el.GetProperty("n-" + trackType); err == nil {
		count, _ = asInt(v)
	}
	current := 0
	if v, err := el.GetProperty(prop); err == nil {
		if n, ok := asInt(v); ok && n != -1 {
			current = n
		}
	}

	idx, ok := resolveTrackIndex(current, count, a)
	if !ok {
		sc.Report(issue.Key("scenario::action-execution-error"),
			"switch-track index for type "+trackType+" does not resolve to an available track")
		return ResultError, nil
	}

	if err := el.SetProperty(prop, idx); err != nil {
		return ResultError, err
	}
	// Park on the playbin's own event-probe for the stream-changed
	// confirmation (spec §4.8); engine.parkTrackSwitch picks these up.
	a.Current["probe-element"] = "playbin"
	a.Current["probe-pad"] = "sink"
	a.Current["probe-kind"] = "event"
	return ResultAsync, nil
}

func switchTrackLegacy(ctx context.Context, sc Context, pipe pipeline.Pipeline, a *Action) (Result, error) {
	trackType := a.Current.MustString("type")
	selectors, err := pipe.ElementsByFactory(ctx, "input-selector")
	if err != nil {
		return ResultError, err
	}
	var target pipeline.Element
	for _, s := range selectors {
		if s.Klass() == trackType || s.Name() == trackType+"-selector" {
			target = s
			break
		}
	}
	if target == nil {
		sc.Report(issue.Key("scenario::action-execution-error"), "no input-selector found for type "+trackType)
		return ResultError, nil
	}

	// Query the selector's own n-pads/active-pad properties rather than
	// expecting them as scenario parameters (gst-validate-scenario.c's
	// input-selector branch of execute_switch_track reads
	// g_object_get(input_selector, "active-pad", "n-pads", ...)).
	count := 0
	if v, err := target.GetProperty("n-pads"); err == nil {
		count, _ = asInt(v)
	}
	current := 0
	if v, err := target.GetProperty("active-pad"); err == nil {
		if padName, ok := v.(string); ok {
			current = sinkPadIndex(padName)
		}
	}
	idx, ok := resolveTrackIndex(current, count, a)
	if !ok {
		sc.Report(issue.Key("scenario::action-execution-error"),
			"switch-track index for type "+trackType+" does not resolve to an available track")
		return ResultError, nil
	}

	padName := trackType + "_" + itoa(idx)
	if err := target.SetProperty("active-pad", padName); err != nil {
		return ResultError, err
	}
	// Park on a buffer probe on the newly active pad until the first
	// DISCONT buffer confirms the switch (spec §4.8).
	a.Current["probe-element"] = target.Name()
	a.Current["probe-pad"] = padName
	a.Current["probe-kind"] = "buffer"
	return ResultAsync, nil
}

// sinkPadIndex extracts the trailing integer from a pad name like
// "audio_1", mirroring find_sink_pad_index's reverse operation in the
// original (it walks the selector's sink pads to find the one matching
// the active-pad object; here the pad names this package itself
// generates already carry the index, so parsing the suffix is enough).
func sinkPadIndex(padName string) int {
	i := len(padName)
	for i > 0 && padName[i-1] >= '0' && padName[i-1] <= '9' {
		i--
	}
	if i == len(padName) {
		return 0
	}
	n := 0
	for _, c := range padName[i:] {
		n = n*10 + int(c-'0')
	}
	return n
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func registerTrackType(r *Registry) {
	r.MustRegister(&Type{
		Name: "switch-track", Namespace: "core",
		Description: "Switch the active track of a given type (audio, video, or text)",
		Flags:       FlagAsync,
		Mandatory:   []string{"type"},
		Prepare:     DefaultPrepare,
		Execute:     executeSwitchTrack,
	})
}
