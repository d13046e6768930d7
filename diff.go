package asserts

import (
	"go/token"
	"reflect"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// wrappedResult marks a recorded value as the computed result of an
// operator, call or literal rather than a plain operand.
type wrappedResult struct {
	result any
}

func (w wrappedResult) repr() string {
	return "= " + safeRepr(w.result)
}

// diffedResult is a comparison result carrying a line diff of the two
// operands' printable forms.
type diffedResult struct {
	result any
	diff   string
}

func (d diffedResult) repr() string {
	return safeRepr(d.result) + "\n" + d.diff
}

// maybeDiff returns the comparison result unchanged unless the operator is
// equality, the result is false and both operands are like-typed diffable
// collections or strings; in that case the result is wrapped together with
// a unified zero-context line diff of the operands' printable forms.
func maybeDiff(op token.Token, result bool, left, right any) any {
	if op != token.EQL || result {
		return result
	}

	lk, lDiffable := diffableKind(left)
	rk, rDiffable := diffableKind(right)
	if !lDiffable || !rDiffable || lk != rk {
		return result
	}

	diff := unifiedDiff(printableLines(left), printableLines(right))
	if diff == "" {
		return result
	}
	return diffedResult{result: result, diff: diff}
}

func diffableKind(v any) (reflect.Kind, bool) {
	rv := unwrapValue(reflect.ValueOf(v))
	if !rv.IsValid() {
		return reflect.Invalid, false
	}
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map:
		return rv.Kind(), true
	}
	return rv.Kind(), false
}

// unifiedDiff renders a zero-context unified diff with the two header lines
// stripped.
func unifiedDiff(a, b []string) string {
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        terminateLines(a),
		B:        terminateLines(b),
		FromFile: "left",
		ToFile:   "right",
		Context:  0,
	})
	if err != nil {
		return ""
	}

	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for len(lines) > 0 && (strings.HasPrefix(lines[0], "---") || strings.HasPrefix(lines[0], "+++")) {
		lines = lines[1:]
	}
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n")
}

// terminateLines gives every line the trailing newline difflib expects.
func terminateLines(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l + "\n"
	}
	return out
}
