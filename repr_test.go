package asserts

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type panickyRepr struct{}

func (panickyRepr) repr() string { panic("no printable form") }

func TestSafeRepr(t *testing.T) {
	testCases := []struct {
		name  string
		value any
		want  string
	}{
		{"nil", nil, "nil"},
		{"int", 42, "42"},
		{"string is quoted", "a\nb", `"a\nb"`},
		{"bool", true, "true"},
		{"error", errors.New("boom"), "boom"},
		{"slice", []int{1, 2}, "[1 2]"},
		{"wrapped", wrappedResult{1}, "= 1"},
		{"unknown", unknown, "<unknown>"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.want, safeRepr(testCase.value))
		})
	}
}

func TestSafeReprContainsPanics(t *testing.T) {
	got := safeRepr(panickyRepr{})
	assert.Contains(t, got, "<unknown>")
	assert.Contains(t, got, "no printable form")
}

func TestSafeReprIndentsContinuationLines(t *testing.T) {
	got := safeRepr(diffedResult{result: false, diff: "-a\n+b"})
	assert.Equal(t, "false\n  -a\n  +b", got)
}

func TestFuncValuesPrintAsTheirType(t *testing.T) {
	got := safeRepr(func(int) string { return "" })
	assert.Equal(t, "func(int) string", got)

	again := safeRepr(func(int) string { return "" })
	assert.Equal(t, got, again)
}

func TestPrintableLines(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, printableLines("a\nb"))

	lines := printableLines([]int{1, 2})
	assert.True(t, strings.HasPrefix(lines[0], "([]int)"))
	assert.Contains(t, strings.Join(lines, "\n"), "(int) 1")
}
