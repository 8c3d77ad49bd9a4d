package action

import (
	"context"

	"github.com/streamvalidate/scenario/domain/issue"
	"github.com/streamvalidate/scenario/pkg/pipeline"
)

func seekType(name string) pipeline.SeekType {
	if name == "none" {
		return pipeline.SeekTypeNone
	}
	return pipeline.SeekTypeSet
}

func executeSeek(ctx context.Context, sc Context, a *Action) (Result, error) {
	startStr := a.Current.MustString("start")
	flagsStr := a.Current.MustString("flags")

	start, ok := a.Current.Duration("start")
	if !ok {
		return ResultError, nil
	}

	flags, err := ParseSeekFlags(flagsStr)
	if err != nil {
		sc.Report(issue.Key("scenario::file-malformed"), err.Error())
		return ResultError, err
	}

	rate := 1.0
	if r, ok := a.Current.Float("rate"); ok {
		rate = r
	}

	ev := pipeline.Event{
		Type:      pipeline.EventSeek,
		Rate:      rate,
		Start:     start,
		StartType: pipeline.SeekTypeSet,
		Flags:     flags,
	}
	if stop, ok := a.Current.Duration("stop"); ok {
		ev.Stop = stop
		ev.StopType = pipeline.SeekTypeSet
	}
	if st, ok := a.Current.String("start_type"); ok {
		ev.StartType = seekType(st)
	}
	if st, ok := a.Current.String("stop_type"); ok {
		ev.StopType = seekType(st)
	}

	pipe := sc.Pipeline()
	if pipe == nil {
		return ResultError, nil
	}
	if err := pipe.SendEvent(ctx, ev); err != nil {
		sc.Report(issue.Key("event::seek-not-handled"), "seek to "+startStr+" failed: "+err.Error())
		return ResultError, err
	}
	sc.BeginSeek(ev.Start, ev.Stop, flags, pipe.CurrentState(), a)
	return ResultAsync, nil
}

func executeSetState(ctx context.Context, sc Context, a *Action) (Result, error) {
	stateStr := a.Current.MustString("state")
	state, ok := pipeline.ParseState(stateStr)
	if !ok {
		return ResultError, nil
	}

	pipe := sc.Pipeline()
	if pipe == nil {
		return ResultError, nil
	}
	res, err := pipe.SetState(ctx, state)
	if err != nil {
		sc.Report(issue.Key("state::change-failure"), "set-state to "+stateStr+" failed: "+err.Error())
		return ResultError, err
	}
	switch res {
	case pipeline.StateChangeAsync:
		return ResultAsync, nil
	case pipeline.StateChangeFailure:
		sc.Report(issue.Key("state::change-failure"), "set-state to "+stateStr+" failed")
		return ResultError, nil
	default:
		return ResultOk, nil
	}
}

func wrapSetState(state string) ExecuteFunc {
	return func(ctx context.Context, sc Context, a *Action) (Result, error) {
		a.Current["state"] = state
		return executeSetState(ctx, sc, a)
	}
}

func executeEOS(ctx context.Context, sc Context, a *Action) (Result, error) {
	pipe := sc.Pipeline()
	if pipe == nil {
		return ResultError, nil
	}
	if err := pipe.SendEvent(ctx, pipeline.Event{Type: pipeline.EventEOS}); err != nil {
		return ResultError, err
	}
	return ResultOk, nil
}

func registerStateTypes(r *Registry) {
	r.MustRegister(&Type{
		Name: "seek", Namespace: "core",
		Description: "Seek within the stream, as described by the GstEvent API",
		Flags:       FlagAsync,
		Mandatory:   []string{"start", "flags"},
		Prepare:     DefaultPrepare,
		Execute:     executeSeek,
	})
	r.MustRegister(&Type{
		Name: "set-state", Namespace: "core",
		Description: "Change the state of the pipeline",
		Flags:       FlagAsync,
		Mandatory:   []string{"state"},
		Prepare:     DefaultPrepare,
		Execute:     executeSetState,
	})
	r.MustRegister(&Type{
		Name: "play", Namespace: "core",
		Description: "Set the pipeline state to playing",
		Flags:       FlagAsync,
		Prepare:     DefaultPrepare,
		Execute:     wrapSetState("playing"),
	})
	r.MustRegister(&Type{
		Name: "pause", Namespace: "core",
		Description: "Set the pipeline state to paused, optionally for a fixed duration",
		Flags:       FlagAsync,
		Prepare:     DefaultPrepare,
		Execute:     wrapSetState("paused"),
	})
	r.MustRegister(&Type{
		Name: "stop", Namespace: "core",
		Description: "Stop the pipeline, ending the scenario",
		Flags:       FlagNoExecutionNotFatal,
		Prepare:     DefaultPrepare,
		Execute: func(ctx context.Context, sc Context, a *Action) (Result, error) {
			return wrapSetState("null")(ctx, sc, a)
		},
	})
	r.MustRegister(&Type{
		Name: "eos", Namespace: "core",
		Description: "Send an EOS event to the pipeline",
		Flags:       FlagNone,
		Prepare:     DefaultPrepare,
		Execute:     executeEOS,
	})
}
