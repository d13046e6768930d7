package sourcecode

import "github.com/rs/zerolog"

var logger = zerolog.Nop()

// SetLogger replaces the package logger used to trace statement scans.
func SetLogger(l zerolog.Logger) {
	logger = l
}
