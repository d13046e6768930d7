package asserts

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errSentinel = errors.New("sentinel")

func TestRaisesMatchesPanicValue(t *testing.T) {
	assert.NoError(t, Raises(func() { panic("boom") }, "boom"))
	assert.NoError(t, Raises(func() { panic(42) }, 42))
}

func TestRaisesMatchesErrorTargets(t *testing.T) {
	t.Run("errors.Is", func(t *testing.T) {
		wrapped := fmt.Errorf("context: %w", errSentinel)
		assert.NoError(t, Raises(func() { panic(wrapped) }, errSentinel))
	})

	t.Run("several targets", func(t *testing.T) {
		assert.NoError(t, Raises(func() { panic("b") }, "a", "b"))
	})
}

func TestRaisesZeroValuedTargetMatchesByType(t *testing.T) {
	type failure struct{ code int }
	assert.NoError(t, Raises(func() { panic(failure{code: 7}) }, failure{}))
	assert.NoError(t, Raises(func() { panic(failure{code: 7}) }, failure{code: 7}))
	assert.Error(t, Raises(func() { panic(failure{code: 7}) }, failure{code: 8}))
}

func TestRaisesWithoutTargetsAcceptsAnyPanic(t *testing.T) {
	assert.NoError(t, Raises(func() { panic("anything") }))
}

func TestRaisesReportsMissingPanic(t *testing.T) {
	err := Raises(func() {}, "boom")
	require.Error(t, err)

	var e *Error
	require.ErrorAs(t, err, &e)

	msg := err.Error()
	assert.Contains(t, msg, "was not raised")
	assert.Contains(t, msg, `"boom"`)
	assert.Contains(t, msg, "raises_test.go")
	assert.NotContains(t, msg, "Assertion values")
}

func TestRaisesReportsUnexpectedPanic(t *testing.T) {
	err := Raises(func() { panic("other") }, "boom")
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "unexpected panic")
	assert.Contains(t, msg, `"other"`)
}
