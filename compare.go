package asserts

import (
	"fmt"
	"reflect"
)

const maxComparisonDepth = 200

// truthy reports whether a value counts as true in an assertion result:
// nil, false, zero numbers and empty strings/collections are false,
// everything else is true.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.String:
		return rv.Len() != 0
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Chan:
		return rv.Len() != 0
	case reflect.Pointer, reflect.Interface, reflect.Func:
		return !rv.IsNil()
	default:
		return true
	}
}

// deepEqual compares two values structurally, coercing numeric kinds so
// that a dynamically built []any{1, 2} equals []int{1, 2}.
func deepEqual(a, b any) bool {
	return deepEqualValues(reflect.ValueOf(a), reflect.ValueOf(b), 0)
}

func deepEqualValues(a, b reflect.Value, depth int) bool {
	if depth > maxComparisonDepth {
		return false
	}

	a = unwrapValue(a)
	b = unwrapValue(b)

	if !a.IsValid() || !b.IsValid() {
		return a.IsValid() == b.IsValid()
	}

	if af, aNum := floatValue(a); aNum {
		bf, bNum := floatValue(b)
		return bNum && af == bf
	}

	ak, bk := a.Kind(), b.Kind()

	switch {
	case isSequenceKind(ak) && isSequenceKind(bk):
		if a.Len() != b.Len() {
			return false
		}
		for i := 0; i < a.Len(); i++ {
			if !deepEqualValues(a.Index(i), b.Index(i), depth+1) {
				return false
			}
		}
		return true
	case ak == reflect.Map && bk == reflect.Map:
		if a.Len() != b.Len() {
			return false
		}
		for _, key := range a.MapKeys() {
			av := a.MapIndex(key)
			if !mapContainsPair(b, key, av, depth) {
				return false
			}
		}
		return true
	case ak == reflect.String && bk == reflect.String:
		return a.String() == b.String()
	case ak == reflect.Bool && bk == reflect.Bool:
		return a.Bool() == b.Bool()
	case ak != bk:
		return false
	default:
		if !a.CanInterface() || !b.CanInterface() {
			return false
		}
		return reflect.DeepEqual(a.Interface(), b.Interface())
	}
}

// mapContainsPair looks b up for a key structurally equal to key with a
// structurally equal value. Key types may differ (map[any]any vs
// map[string]int), so the lookup walks b's keys.
func mapContainsPair(b, key, value reflect.Value, depth int) bool {
	for _, bk := range b.MapKeys() {
		if deepEqualValues(key, bk, depth+1) {
			return deepEqualValues(value, b.MapIndex(bk), depth+1)
		}
	}
	return false
}

// orderedLess implements `<` over numbers and strings.
func orderedLess(a, b any) (bool, error) {
	av := unwrapValue(reflect.ValueOf(a))
	bv := unwrapValue(reflect.ValueOf(b))

	if af, ok := floatValue(av); ok {
		if bf, ok := floatValue(bv); ok {
			return af < bf, nil
		}
	}
	if av.IsValid() && bv.IsValid() && av.Kind() == reflect.String && bv.Kind() == reflect.String {
		return av.String() < bv.String(), nil
	}
	return false, fmt.Errorf("values of types %T and %T are not ordered", a, b)
}

func unwrapValue(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func isSequenceKind(k reflect.Kind) bool {
	return k == reflect.Slice || k == reflect.Array
}

func floatValue(v reflect.Value) (float64, bool) {
	if !v.IsValid() {
		return 0, false
	}
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(v.Uint()), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	default:
		return 0, false
	}
}
