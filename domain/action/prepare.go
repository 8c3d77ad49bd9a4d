package action

import (
	"context"

	"github.com/streamvalidate/scenario/pkg/expr"
)

// ctxVars adapts a Context's variable map to expr.Variables.
type ctxVars struct{ sc Context }

func (c ctxVars) Lookup(name string) (float64, bool) { return c.sc.Lookup(name) }

// DefaultPrepare performs `$(name)` substitution on every string field of
// a.Current (spec §4.4, §4.6 step 7) and leaves a.Repeat untouched. Action
// types with no repeat/variable behavior of their own can use this
// directly as their Type.Prepare.
func DefaultPrepare(ctx context.Context, sc Context, a *Action) error {
	a.ResetForRepeat()
	vars := ctxVars{sc: sc}
	for k, v := range a.Current {
		substituted, err := expr.Substitute(v, vars)
		if err != nil {
			return err
		}
		a.Current[k] = substituted
	}
	return nil
}
