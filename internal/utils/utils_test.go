package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMust(t *testing.T) {
	assert.Equal(t, 1, Must(1, nil))
	assert.Panics(t, func() { Must(0, errors.New("boom")) })
}

func TestConvertPanicValueToError(t *testing.T) {
	err := errors.New("boom")
	assert.Same(t, err, ConvertPanicValueToError(err))
	assert.EqualError(t, ConvertPanicValueToError("boom"), `"boom"`)
}

func TestMinMax(t *testing.T) {
	assert.Equal(t, 1, Min(1, 2))
	assert.Equal(t, 2, Max(1, 2))
	assert.Equal(t, "a", Min("a", "b"))
}
