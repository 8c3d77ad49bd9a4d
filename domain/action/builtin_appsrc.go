package action

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"os"

	"github.com/streamvalidate/scenario/domain/issue"
	"github.com/streamvalidate/scenario/pkg/pipeline"
)

// executeAppsrcPush wraps the bytes of file-name[offset:offset+size] into a
// push-buffer call. size absent or -1 both mean "to EOF" (spec
// supplemented equivalence, original gst_validate behavior). If the
// pipeline hasn't reached Paused yet the push can't be observed by a
// chain-function wrapper, so it returns Interlaced rather than Async.
func executeAppsrcPush(ctx context.Context, sc Context, a *Action) (Result, error) {
	pipe := sc.Pipeline()
	if pipe == nil {
		return ResultError, nil
	}
	name := a.Current.MustString("target-element-name")
	fileName := a.Current.MustString("file-name")

	el, ok := pipe.ElementByName(ctx, name)
	if !ok {
		sc.Report(issue.Key("scenario::action-execution-error"), "appsrc-push: no element named "+name)
		return ResultError, nil
	}

	offset, _ := a.Current.Int("offset")
	size, hasSize := a.Current.Int("size")
	sizeUnbounded := !hasSize || size == -1

	data, err := os.ReadFile(fileName)
	if err != nil {
		sc.Report(issue.Key("scenario::action-execution-error"), "appsrc-push: "+err.Error())
		return ResultError, err
	}
	if offset > len(data) {
		offset = len(data)
	}
	end := len(data)
	if !sizeUnbounded && offset+size < end {
		end = offset + size
	}
	payload := data[offset:end]

	if caps, ok := a.Current.String("caps"); ok {
		if err := el.SetProperty("caps", caps); err != nil {
			return ResultError, err
		}
	}

	if pipe.CurrentState() < pipeline.StatePaused {
		if _, err := el.Emit("push-buffer", payload); err != nil {
			return ResultError, err
		}
		return ResultInterlaced, nil
	}

	// Park on a buffer probe on the appsrc's own src pad until the pushed
	// buffer actually flows downstream; the original wraps the peer pad's
	// chain function for the same purpose (gst-validate-scenario.c
	// appsrc_push_chain_wrapper). engine.parkAppsrcPush picks this up.
	a.Current["probe-element"] = name
	a.Current["probe-pad"] = "src"

	if _, err := el.Emit("push-buffer", payload); err != nil {
		return ResultError, err
	}
	return ResultAsync, nil
}

func executeAppsrcEOS(ctx context.Context, sc Context, a *Action) (Result, error) {
	pipe := sc.Pipeline()
	if pipe == nil {
		return ResultError, nil
	}
	name := a.Current.MustString("target-element-name")
	el, ok := pipe.ElementByName(ctx, name)
	if !ok {
		return ResultError, nil
	}
	if _, err := el.Emit("end-of-stream"); err != nil {
		return ResultError, err
	}
	return ResultOk, nil
}

// executeFlush sends flush-start then flush-stop through Pipeline.SendEvent.
// target-element-name is mandatory but does not select where the events
// go: they are sent to the pipeline, not to the named element.
func executeFlush(ctx context.Context, sc Context, a *Action) (Result, error) {
	pipe := sc.Pipeline()
	if pipe == nil {
		return ResultError, nil
	}
	resetTime, _ := a.Current.Bool("reset-time")
	if err := pipe.SendEvent(ctx, pipeline.Event{Type: pipeline.EventFlushStart}); err != nil {
		return ResultError, err
	}
	if err := pipe.SendEvent(ctx, pipeline.Event{Type: pipeline.EventFlushStop, ResetTime: resetTime}); err != nil {
		return ResultError, err
	}
	return ResultOk, nil
}

func executeDisablePlugin(ctx context.Context, sc Context, a *Action) (Result, error) {
	_ = a.Current.MustString("plugin-name")
	return ResultOk, nil
}

func findSinkElement(ctx context.Context, pipe pipeline.Pipeline, a *Action) (pipeline.Element, error) {
	if name, ok := a.Current.String("sink-name"); ok {
		el, found := pipe.ElementByName(ctx, name)
		if !found {
			return nil, nil
		}
		return el, nil
	}
	if factory, ok := a.Current.String("sink-factory-name"); ok {
		els, err := pipe.ElementsByFactory(ctx, factory)
		if err != nil || len(els) == 0 {
			return nil, err
		}
		return els[0], nil
	}
	return nil, nil
}

func executeCheckLastSample(ctx context.Context, sc Context, a *Action) (Result, error) {
	pipe := sc.Pipeline()
	if pipe == nil {
		return ResultError, nil
	}
	sink, err := findSinkElement(ctx, pipe, a)
	if err != nil || sink == nil {
		sc.Report(issue.Key("scenario::action-execution-error"), "check-last-sample: no matching sink found")
		return ResultError, err
	}

	sample, err := sink.GetProperty("last-sample")
	if err != nil {
		return ResultError, err
	}
	data, ok := sample.([]byte)
	if !ok {
		sc.Report(issue.Key("buffer::wrong-buffer"), "check-last-sample: last-sample has no mappable buffer")
		return ResultError, nil
	}

	sum := sha1.Sum(data)
	got := hex.EncodeToString(sum[:])
	want := a.Current.MustString("checksum")
	if got != want {
		sc.Report(issue.Key("buffer::wrong-buffer"),
			"check-last-sample: checksum mismatch, got "+got+" want "+want)
		return ResultError, nil
	}
	return ResultInterlaced, nil
}

func registerAppsrcTypes(r *Registry) {
	r.MustRegister(&Type{
		Name: "appsrc-push", Namespace: "core",
		Description: "Push a file's content (or a slice of it) into an appsrc",
		Flags:       FlagAsync | FlagInterlaced,
		Mandatory:   []string{"target-element-name", "file-name"},
		Prepare:     DefaultPrepare,
		Execute:     executeAppsrcPush,
	})
	r.MustRegister(&Type{
		Name: "appsrc-eos", Namespace: "core",
		Description: "Emit end-of-stream on an appsrc",
		Mandatory:   []string{"target-element-name"},
		Prepare:     DefaultPrepare,
		Execute:     executeAppsrcEOS,
	})
	r.MustRegister(&Type{
		Name: "flush", Namespace: "core",
		Description: "Send flush-start and flush-stop events through the pipeline",
		Mandatory:   []string{"target-element-name"},
		Prepare:     DefaultPrepare,
		Execute:     executeFlush,
	})
	r.MustRegister(&Type{
		Name: "disable-plugin", Namespace: "core",
		Description: "Check that plugin-name is given; no plugin is removed",
		Flags:       FlagConfig,
		Mandatory:   []string{"plugin-name"},
		Prepare:     DefaultPrepare,
		Execute:     executeDisablePlugin,
	})
	r.MustRegister(&Type{
		Name: "check-last-sample", Namespace: "core",
		Description: "Compare a sink's last sample against an expected checksum",
		Flags:       FlagInterlaced,
		Mandatory:   []string{"checksum"},
		Prepare:     DefaultPrepare,
		Execute:     executeCheckLastSample,
	})
}
