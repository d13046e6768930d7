package asserts

import (
	"errors"
	"fmt"
	"reflect"
)

// Raises runs fn and consumes an expected panic. It returns nil when fn
// panics with a value matching one of the targets, a diagnostic when fn
// does not panic at all, and a diagnostic naming the value when fn panics
// with something unexpected. Error targets match with errors.Is or by
// dynamic type; other targets match by type or structural equality.
func Raises(fn func(), targets ...any) error {
	frame, _ := captureFrame(2)

	panicked, val := runRecovered(fn)
	if !panicked {
		e, err := newError(0, []Option{
			WithDescription(fmt.Sprintf("panic %s was not raised", describeTargets(targets))),
			withFrame(frame),
			withoutEvaluation(),
		})
		if err != nil {
			return err
		}
		return e
	}

	// With no explicit targets any panic is accepted.
	if len(targets) == 0 {
		return nil
	}
	for _, target := range targets {
		if panicMatches(val, target) {
			return nil
		}
	}

	e, err := newError(0, []Option{
		WithDescription(fmt.Sprintf("unexpected panic %s", safeRepr(val))),
		withFrame(frame),
		withoutEvaluation(),
	})
	if err != nil {
		return err
	}
	return e
}

func runRecovered(fn func()) (panicked bool, val any) {
	defer func() {
		if r := recover(); r != nil {
			panicked = true
			val = r
		}
	}()
	fn()
	return
}

func panicMatches(val, target any) bool {
	if tErr, ok := target.(error); ok {
		if vErr, ok := val.(error); ok && errors.Is(vErr, tErr) {
			return true
		}
	}
	if reflect.TypeOf(val) == reflect.TypeOf(target) {
		if deepEqual(val, target) {
			return true
		}
		// A zero-valued target matches any panic of its type.
		if reflect.ValueOf(target).IsZero() {
			return true
		}
	}
	return false
}

func describeTargets(targets []any) string {
	if len(targets) == 0 {
		return "<any>"
	}
	s := ""
	for i, t := range targets {
		if i > 0 {
			s += ", "
		}
		s += safeRepr(t)
	}
	return s
}
