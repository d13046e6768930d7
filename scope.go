package asserts

import (
	"fmt"
	"reflect"
)

// Vars maps names used inside an assertion expression to their values at the
// call site.
type Vars map[string]any

// scope resolves names the way the failing call site would: locals first,
// then globals, then builtin functions.
type scope struct {
	locals  Vars
	globals Vars
}

func (s *scope) lookup(name string) (any, bool) {
	if v, ok := s.locals[name]; ok {
		return v, true
	}
	if v, ok := s.globals[name]; ok {
		return v, true
	}
	v, ok := builtins[name]
	return v, ok
}

var builtins = map[string]any{
	"len": builtinLen,
	"cap": builtinCap,
	"min": builtinMin,
	"max": builtinMax,
}

func builtinLen(x any) int {
	return reflect.ValueOf(x).Len()
}

func builtinCap(x any) int {
	return reflect.ValueOf(x).Cap()
}

func builtinMin(xs ...any) any {
	return pickOrdered(xs, false)
}

func builtinMax(xs ...any) any {
	return pickOrdered(xs, true)
}

func pickOrdered(xs []any, greatest bool) any {
	if len(xs) == 0 {
		panic(fmt.Errorf("min/max requires at least one argument"))
	}
	best := xs[0]
	for _, x := range xs[1:] {
		less, err := orderedLess(x, best)
		if err != nil {
			panic(err)
		}
		if less != greatest {
			best = x
		}
	}
	return best
}
