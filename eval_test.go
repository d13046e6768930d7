package asserts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/inoxlang/asserts/internal/sourcecode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// locateIn writes src to a temporary file and locates the statement at the
// given 1-based line, so expressions that would not compile as live Go
// (chained comparisons, slice equality) can still be replayed.
func locateIn(t *testing.T, src string, line int) *sourcecode.Statement {
	t.Helper()

	path := filepath.Join(t.TempDir(), "src.go")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))

	st, ok := sourcecode.LocateStatement(path, line)
	require.True(t, ok, "statement not found at line %d", line)
	return st
}

func locateAssertion(t *testing.T, condition string) *sourcecode.Statement {
	t.Helper()
	src := "package main\n\nfunc check() {\n\tAssert(" + condition + ")\n}\n"
	return locateIn(t, src, 4)
}

func TestEvalArithmeticOperatorPositions(t *testing.T) {
	st := locateAssertion(t, "1 + 3 - 4 == 1")

	result, records, err := evalAssertion(st, &scope{})
	require.NoError(t, err)
	assert.False(t, result)

	// Intermediary results of the two arithmetic operators, the comparison,
	// and the final result. Literal operands are not recorded.
	require.Len(t, records, 4)

	line := st.Lines[0]
	assert.Equal(t, "+", line[records[0].col:records[0].col+1])
	assert.Equal(t, "-", line[records[1].col:records[1].col+1])
	assert.Equal(t, "==", line[records[2].col:records[2].col+2])
	assert.Equal(t, 0, records[3].col)

	assert.Equal(t, wrappedResult{int64(4)}, records[0].value)
	assert.Equal(t, wrappedResult{int64(0)}, records[1].value)
	assert.Equal(t, false, records[3].value)
}

func TestEvalChainedComparison(t *testing.T) {
	t.Run("all pairs hold", func(t *testing.T) {
		st := locateAssertion(t, "1 < x <= 3")
		result, _, err := evalAssertion(st, &scope{locals: Vars{"x": 2}})
		require.NoError(t, err)
		assert.True(t, result)
	})

	t.Run("second pair fails", func(t *testing.T) {
		st := locateAssertion(t, "1 < x <= 3")
		result, records, err := evalAssertion(st, &scope{locals: Vars{"x": 5}})
		require.NoError(t, err)
		assert.False(t, result)

		// x, the two pairwise results and the final result.
		require.Len(t, records, 4)
		assert.Equal(t, 5, records[0].value)
		assert.Equal(t, wrappedResult{true}, records[1].value)
		assert.Equal(t, wrappedResult{false}, records[2].value)

		line := st.Lines[0]
		assert.Equal(t, "<", line[records[1].col:records[1].col+1])
		assert.Equal(t, "<=", line[records[2].col:records[2].col+2])
	})

	t.Run("parentheses block flattening", func(t *testing.T) {
		st := locateAssertion(t, "(1 < x) == true")
		result, _, err := evalAssertion(st, &scope{locals: Vars{"x": 5}})
		require.NoError(t, err)
		assert.True(t, result)
	})
}

func TestEvalBooleanOperatorsAreEager(t *testing.T) {
	a, b := true, false
	err := Assert(a && b, WithVars(Vars{"a": a, "b": b}))
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "^ is true")
	assert.Contains(t, msg, "^ is false")
	assert.Contains(t, msg, "^ is = false")
}

func TestEvalBooleanOperatorsReturnOperands(t *testing.T) {
	st := locateAssertion(t, `x || "fallback"`)
	_, records, err := evalAssertion(st, &scope{locals: Vars{"x": ""}})
	require.NoError(t, err)

	// x, the operator result (right operand since x is falsy), final result.
	require.Len(t, records, 3)
	assert.Equal(t, "", records[0].value)
	assert.Equal(t, wrappedResult{"fallback"}, records[1].value)
	assert.Equal(t, true, records[2].value)
}

func TestEvalUnaryNot(t *testing.T) {
	ok := true
	err := Assert(!ok, WithVars(Vars{"ok": ok}))
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "^ is true")
	assert.Contains(t, msg, "^ is = false")
}

func returnArg(x int) int { return x }

func TestEvalCallRecordsArgumentsAndResult(t *testing.T) {
	n := 1
	err := Assert(returnArg(n) == 2, WithVars(Vars{"n": n, "returnArg": returnArg}))
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "^ is 1")
	assert.Contains(t, msg, "^ is = 1")
	assert.Contains(t, msg, "^ is = false")
}

func TestEvalBuiltinLen(t *testing.T) {
	xs := []int{1, 2, 3}
	err := Assert(len(xs) == 5, WithVars(Vars{"xs": xs}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "^ is = 3")
}

func TestEvalVariadicCall(t *testing.T) {
	st := locateAssertion(t, "max(1, x, 2) == 9")
	result, records, err := evalAssertion(st, &scope{locals: Vars{"x": 7}})
	require.NoError(t, err)
	assert.False(t, result)

	var callResult any
	for _, r := range records {
		if w, ok := r.value.(wrappedResult); ok {
			callResult = w.result
			break
		}
	}
	assert.Equal(t, 7, callResult)
}

type point struct{ X, Y int }

func TestEvalSelectorRecordsBaseAndField(t *testing.T) {
	p := point{X: 1, Y: 2}
	err := Assert(p.X == 5, WithVars(Vars{"p": p}))
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "^ is {1 2}")
	assert.Contains(t, msg, "^ is = 1")
}

type word string

func (w word) Upper() string { return strings.ToUpper(string(w)) }

func TestEvalMethodCall(t *testing.T) {
	w := word("a")
	err := Assert(w.Upper() == "B", WithVars(Vars{"w": w}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `^ is = "A"`)
}

func TestEvalCompositeLiteral(t *testing.T) {
	st := locateAssertion(t, "xs == []int{1, n, 3}")
	sc := &scope{locals: Vars{"xs": []int{1, 2, 3}, "n": 2}}
	result, _, err := evalAssertion(st, sc)
	require.NoError(t, err)
	assert.True(t, result)
}

func TestEvalMapLiteral(t *testing.T) {
	st := locateAssertion(t, `m == map[string]int{"a": n}`)
	sc := &scope{locals: Vars{"m": map[string]int{"a": 1}, "n": 1}}
	result, _, err := evalAssertion(st, sc)
	require.NoError(t, err)
	assert.True(t, result)
}

func TestEvalIndexExpressionIsOpaque(t *testing.T) {
	xs := []int{1, 2, 3}
	err := Assert(xs[0] == 2, WithVars(Vars{"xs": xs}))
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "^ is 1")
	assert.NotContains(t, msg, "len=3")
}

func TestEvalMapIndexWalksKeys(t *testing.T) {
	st := locateAssertion(t, `m["a"] == 2`)
	sc := &scope{locals: Vars{"m": map[string]int{"a": 1}}}
	result, records, err := evalAssertion(st, sc)
	require.NoError(t, err)
	assert.False(t, result)
	assert.Equal(t, 1, records[0].value)
}

func TestEvalSliceExpression(t *testing.T) {
	st := locateAssertion(t, `s[1:3] == "bc"`)
	sc := &scope{locals: Vars{"s": "abcd"}}
	result, _, err := evalAssertion(st, sc)
	require.NoError(t, err)
	assert.True(t, result)
}

func TestEvalNumericCoercion(t *testing.T) {
	st := locateAssertion(t, "x == 1.0")
	result, _, err := evalAssertion(st, &scope{locals: Vars{"x": 1}})
	require.NoError(t, err)
	assert.True(t, result)
}

func TestEvalMultiLineAssertion(t *testing.T) {
	x := 2
	err := Assert(
		x == 1,
		WithVars(Vars{"x": x}),
	)
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "err := Assert(")
	assert.Contains(t, msg, "x == 1,")
	assert.Contains(t, msg, "^ is 2")
}

func TestEvalAddressOperatorIsRejected(t *testing.T) {
	st := locateAssertion(t, "&x == nil")
	_, _, err := evalAssertion(st, &scope{locals: Vars{"x": 1}})
	require.Error(t, err)
}

func TestEvalPanicIsContained(t *testing.T) {
	st := locateAssertion(t, "boom() == 1")
	sc := &scope{locals: Vars{"boom": func() int { panic("kaboom") }}}
	_, _, err := evalAssertion(st, sc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "assertion replay")
	assert.Contains(t, err.Error(), "kaboom")
}

func TestEvalStatementWithoutAssertCall(t *testing.T) {
	src := "package main\n\nfunc check() {\n\tprintln(1)\n}\n"
	st := locateIn(t, src, 4)
	_, _, err := evalAssertion(st, &scope{})
	require.ErrorIs(t, err, errNotFromAssert)
}
