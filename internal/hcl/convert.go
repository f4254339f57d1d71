package hcl

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// newEvalContext exposes the process environment as `env.<NAME>`.
func newEvalContext() *hcl.EvalContext {
	vars := make(map[string]cty.Value)
	for _, e := range os.Environ() {
		pair := strings.SplitN(e, "=", 2)
		if len(pair) == 2 && pair[0] != "" {
			vars[pair[0]] = cty.StringVal(pair[1])
		}
	}
	env := cty.EmptyObjectVal
	if len(vars) > 0 {
		env = cty.ObjectVal(vars)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": env},
	}
}

// decodeOptional evaluates expr into the Go value pointed to by target. It
// reports false, leaving target untouched, when the attribute was omitted.
func decodeOptional(expr hcl.Expression, evalCtx *hcl.EvalContext, target any) (bool, error) {
	if expr == nil {
		return false, nil
	}
	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return false, diags
	}
	if val.IsNull() {
		return false, nil
	}

	if reflect.ValueOf(target).Kind() != reflect.Ptr {
		return false, fmt.Errorf("target for decoding must be a pointer, got %T", target)
	}
	ty, err := gocty.ImpliedType(target)
	if err != nil {
		return false, fmt.Errorf("unable to infer cty.Type for %T: %w", target, err)
	}
	converted, err := convert.Convert(val, ty)
	if err != nil {
		return false, fmt.Errorf("cannot convert %s to %s: %w", val.Type().FriendlyName(), ty.FriendlyName(), err)
	}
	if err := gocty.FromCtyValue(converted, target); err != nil {
		return false, err
	}
	return true, nil
}
