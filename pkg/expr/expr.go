// Package expr implements the scenario expression grammar (spec §4.4) on
// top of gval, plus the `$(name)` string-template substitutor used inside
// action parameter strings.
package expr

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/PaesslerAG/gval"
)

// tolerance is the equality slop applied by the `==`/`!=` operators.
const tolerance = 1e-10

// Language is the gval grammar matching spec §4.4's precedence table:
// power > unary > term > expr > cmp > eq > and_expr > or_expr (gval
// builds this bottom-up via operator precedence levels, highest binds
// tightest).
var Language = gval.NewLanguage(
	gval.Full(),
	gval.Function("min", func(args ...interface{}) (interface{}, error) {
		return minMax(args, math.Min)
	}),
	gval.Function("max", func(args ...interface{}) (interface{}, error) {
		return minMax(args, math.Max)
	}),
	gval.InfixOperator("==", func(a, b interface{}) (interface{}, error) {
		af, bf, err := pair(a, b)
		if err != nil {
			return nil, err
		}
		return boolToFloat(math.Abs(af-bf) < tolerance), nil
	}),
	gval.InfixOperator("!=", func(a, b interface{}) (interface{}, error) {
		af, bf, err := pair(a, b)
		if err != nil {
			return nil, err
		}
		return boolToFloat(math.Abs(af-bf) >= tolerance), nil
	}),
)

func boolToFloat(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}

func pair(a, b interface{}) (float64, float64, error) {
	af, err := toFloat(a)
	if err != nil {
		return 0, 0, err
	}
	bf, err := toFloat(b)
	if err != nil {
		return 0, 0, err
	}
	return af, bf, nil
}

func toFloat(v interface{}) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case bool:
		return boolToFloat(t), nil
	default:
		return 0, fmt.Errorf("expr: value %v is not numeric", v)
	}
}

func minMax(args []interface{}, op func(a, b float64) float64) (interface{}, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("expr: min/max take exactly 2 arguments, got %d", len(args))
	}
	a, err := toFloat(args[0])
	if err != nil {
		return nil, err
	}
	b, err := toFloat(args[1])
	if err != nil {
		return nil, err
	}
	return op(a, b), nil
}

// Variables resolves identifier lookups during evaluation; unknown
// identifiers are a hard error (spec §4.4): Evaluate hands vars to gval
// through paramsAdapter, whose selector returns an error for any name
// Lookup does not know.
type Variables interface {
	Lookup(name string) (float64, bool)
}

// paramsAdapter exposes a Variables source to gval as a parameter object
// implementing gval's selector hook (SelectGVal): each identifier is
// looked up lazily through Lookup when the evaluator reaches it.
type paramsAdapter struct {
	vars Variables
}

func (p paramsAdapter) SelectGVal(ctx context.Context, k string) (interface{}, error) {
	v, ok := p.vars.Lookup(k)
	if !ok {
		return nil, fmt.Errorf("expr: unknown identifier %q", k)
	}
	return v, nil
}

// Evaluate parses and evaluates expression against vars, returning the
// numeric result. Unknown identifiers are a hard error.
func Evaluate(ctx context.Context, expression string, vars Variables) (float64, error) {
	val, err := Language.Evaluate(expression, paramsAdapter{vars: vars})
	if err != nil {
		return 0, fmt.Errorf("expr: evaluating %q: %w", expression, err)
	}
	f, err := toFloat(val)
	if err != nil {
		return 0, fmt.Errorf("expr: result of %q: %w", expression, err)
	}
	return f, nil
}

// EvaluateBool evaluates expression and interprets the 1.0/0.0 boolean
// convention (spec §4.4): any non-zero result is true.
func EvaluateBool(ctx context.Context, expression string, vars Variables) (bool, error) {
	f, err := Evaluate(ctx, expression, vars)
	if err != nil {
		return false, err
	}
	return f != 0, nil
}

var templateToken = regexp.MustCompile(`\$\(([^)]+)\)`)

// Substitute replaces every `$(name)` occurrence in s by looking name up
// in vars. A string with no `$(...)` token is returned unchanged
// (identity, per spec §8 testable property 5). An undefined variable is a
// hard error — there is no silent fallback.
func Substitute(s string, vars Variables) (string, error) {
	if !strings.Contains(s, "$(") {
		return s, nil
	}

	var firstErr error
	out := templateToken.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}
		name := templateToken.FindStringSubmatch(match)[1]
		v, ok := vars.Lookup(name)
		if !ok {
			firstErr = fmt.Errorf("expr: undefined variable %q in template %q", name, s)
			return match
		}
		return formatFloat(v)
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && !math.IsInf(f, 0) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
