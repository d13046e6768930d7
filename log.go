package asserts

import (
	"github.com/rs/zerolog"

	"github.com/inoxlang/asserts/internal/sourcecode"
)

var logger = zerolog.Nop()

// SetLogger replaces the package logger (a no-op logger by default) used
// for debug traces of statement location and snapshot IO.
func SetLogger(l zerolog.Logger) {
	logger = l
	sourcecode.SetLogger(l)
}
