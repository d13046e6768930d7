package asserts

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"

	"github.com/inoxlang/asserts/internal/utils"
)

// reprer lets wrapper values (results, diffed results, the unknown
// sentinel) control their own rendering inside the values section.
type reprer interface {
	repr() string
}

// dumpConfig produces the deterministic multi-line printable form used for
// diffing collections: sorted map keys, no addresses or capacities.
var dumpConfig = spew.ConfigState{
	Indent:                  " ",
	SortKeys:                true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}

// safeRepr renders a value for an annotation line. Panics raised while
// formatting are contained and replaced with a placeholder naming the
// failure. Continuation lines are indented by two spaces so multi-line
// representations stay aligned under the caret.
func safeRepr(v any) (s string) {
	defer func() {
		if e := recover(); e != nil {
			err := utils.ConvertPanicValueToError(e)
			s = fmt.Sprintf("<unknown> (repr failed with '%s')", err)
		}
	}()

	r := reprOf(v)
	return strings.ReplaceAll(r, "\n", "\n  ")
}

func reprOf(v any) string {
	if w, ok := v.(reprer); ok {
		return w.repr()
	}

	switch x := v.(type) {
	case nil:
		return "nil"
	case string:
		return strconv.Quote(x)
	case error:
		return fmt.Sprintf("%v", x)
	}

	// Function addresses are not stable across runs, print the type instead.
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Func {
		return rv.Type().String()
	}

	return fmt.Sprintf("%v", v)
}

// printableLines is the diffable form of a value: strings line by line,
// collections as a deterministic dump.
func printableLines(v any) []string {
	rv := unwrapValue(reflect.ValueOf(v))
	if rv.IsValid() && rv.Kind() == reflect.String {
		return strings.Split(rv.String(), "\n")
	}
	dump := strings.TrimRight(dumpConfig.Sdump(v), "\n")
	return strings.Split(dump, "\n")
}
