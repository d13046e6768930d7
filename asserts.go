// Package asserts turns failed boolean assertions into detailed failure
// reports: the source text of the failing assertion is located and
// re-parsed, every sub-expression is re-evaluated against the caller's
// bindings, and the recorded values are rendered aligned under their
// source positions, together with a description and a source excerpt.
package asserts

import (
	"errors"
	"runtime"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/muesli/termenv"

	"github.com/inoxlang/asserts/internal/sourcecode"
)

const (
	// Excerpt window of the where section.
	whereLinesBefore = 8
	whereLinesAfter  = 4
)

// sections controls which report sections are rendered.
type sections struct {
	expression  bool
	description bool
	values      bool
	where       bool
}

var allSections = sections{expression: true, description: true, values: true, where: true}

type frameInfo struct {
	file     string
	line     int
	function string
}

func captureFrame(skip int) (frameInfo, bool) {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return frameInfo{}, false
	}
	name := ""
	if fn := runtime.FuncForPC(pc); fn != nil {
		name = fn.Name()
		if i := strings.LastIndexByte(name, '.'); i >= 0 {
			name = name[i+1:]
		}
	}
	return frameInfo{file: file, line: line, function: name}, true
}

type errorConfig struct {
	desc     string
	hasDesc  bool
	locals   Vars
	globals  Vars
	sections sections
	colors   bool
	frame    *frameInfo
	noEval   bool
}

// Option configures diagnostic construction and rendering.
type Option func(*errorConfig)

// WithDescription attaches a description rendered in its own section.
func WithDescription(desc string) Option {
	return func(cfg *errorConfig) {
		cfg.desc = desc
		cfg.hasDesc = true
	}
}

// WithVars provides the local variable bindings of the call site, used to
// re-evaluate the assertion expression.
func WithVars(vars Vars) Option {
	return func(cfg *errorConfig) { cfg.locals = vars }
}

// WithGlobals provides bindings consulted after the locals.
func WithGlobals(vars Vars) Option {
	return func(cfg *errorConfig) { cfg.globals = vars }
}

func WithoutExpressionSection() Option {
	return func(cfg *errorConfig) { cfg.sections.expression = false }
}

func WithoutDescriptionSection() Option {
	return func(cfg *errorConfig) { cfg.sections.description = false }
}

func WithoutValuesSection() Option {
	return func(cfg *errorConfig) { cfg.sections.values = false }
}

func WithoutWhereSection() Option {
	return func(cfg *errorConfig) { cfg.sections.where = false }
}

// WithColors wraps carets and excerpt markers in ANSI color sequences.
func WithColors() Option {
	return func(cfg *errorConfig) { cfg.colors = true }
}

func withFrame(f frameInfo) Option {
	return func(cfg *errorConfig) {
		frame := f
		cfg.frame = &frame
	}
}

func withoutEvaluation() Option {
	return func(cfg *errorConfig) { cfg.noEval = true }
}

// Error is the diagnostic built from a failed assertion: the located
// expression text, a description, the evaluation records and the caller's
// identity. It is immutable once its message is generated; only the section
// toggles vary when a collector re-renders it.
type Error struct {
	desc       string
	hasDesc    bool
	frame      frameInfo
	hasFrame   bool
	expression []string
	records    []record
	sections   sections
	colors     bool
	message    string
}

// Assert returns nil when ok is true. Otherwise it locates the source text
// of this call, re-evaluates its first argument against the bindings given
// via WithVars/WithGlobals and returns an *Error rendering the failure.
// Evaluation failures during replay (an unresolvable name, an undefined
// callee) are returned instead of a diagnostic.
func Assert(ok bool, opts ...Option) error {
	if ok {
		return nil
	}
	e, err := newError(3, opts)
	if err != nil {
		return err
	}
	return e
}

// NewError builds a diagnostic for the statement at the caller's line
// without checking a condition; the assertion's failure path is expected to
// have been taken already. When the statement holds no Assert call the
// report carries the located text without evaluation records.
func NewError(opts ...Option) (*Error, error) {
	return newError(3, opts)
}

func newError(skip int, opts []Option) (*Error, error) {
	cfg := errorConfig{sections: allSections}
	for _, opt := range opts {
		opt(&cfg)
	}

	e := &Error{
		desc:     cfg.desc,
		hasDesc:  cfg.hasDesc,
		sections: cfg.sections,
		colors:   cfg.colors,
	}

	if cfg.frame != nil {
		e.frame = *cfg.frame
		e.hasFrame = true
	} else {
		e.frame, e.hasFrame = captureFrame(skip)
	}

	if !cfg.noEval && e.hasFrame {
		st, ok := sourcecode.LocateStatement(e.frame.file, e.frame.line)
		if ok {
			sc := &scope{locals: cfg.locals, globals: cfg.globals}
			_, records, err := evalAssertion(st, sc)
			switch {
			case err == nil:
				e.expression = st.Lines
				e.records = records
			case errors.Is(err, errNotFromAssert):
				// Explicit construction (NewError) on a statement with no
				// Assert call: keep the located text, skip the records.
				e.expression = st.Lines
			default:
				return nil, err
			}
		} else {
			logger.Debug().Str("file", e.frame.file).Int("line", e.frame.line).
				Msg("no parseable statement found, rendering without values")
		}
	}

	e.message = e.render(e.sections)
	return e, nil
}

func (e *Error) Error() string {
	return e.message
}

func (e *Error) render(s sections) string {
	var b strings.Builder
	b.WriteString("assertion failed")
	e.writeExpressionSection(&b, s)
	e.writeDescriptionSection(&b, s)
	e.writeValuesSection(&b, s)
	e.writeWhereSection(&b, s)
	return b.String()
}

func (e *Error) writeExpressionSection(b *strings.Builder, s sections) {
	if !s.expression || len(e.expression) == 0 {
		return
	}
	b.WriteString("\n\nThe following assertion was not satisfied")
	for _, line := range e.expression {
		b.WriteString("\n  ")
		b.WriteString(line)
	}
}

func (e *Error) writeDescriptionSection(b *strings.Builder, s sections) {
	if !s.description || !e.hasDesc || e.desc == "" {
		return
	}
	b.WriteString("\n\nDescription\n  ")
	b.WriteString(capitalize(e.desc))
}

func (e *Error) writeValuesSection(b *strings.Builder, s sections) {
	if !s.values || len(e.records) == 0 {
		return
	}
	b.WriteString("\n\nAssertion values")
	for _, rec := range e.records {
		for i, line := range e.expression {
			b.WriteString("\n  ")
			b.WriteString(line)
			if rec.line != i+1 {
				continue
			}
			col := rec.col
			if col < 0 {
				col = indentWidth(line)
			}
			caret := strings.Repeat(" ", col) + "^ is " + safeRepr(rec.value)
			if e.colors {
				caret = caretColorSeq + caret + resetColorSeq
			}
			b.WriteString("\n  ")
			b.WriteString(caret)
		}
	}
}

func (e *Error) writeWhereSection(b *strings.Builder, s sections) {
	if !s.where || !e.hasFrame || !sourcecode.HasSource(e.frame.file) {
		return
	}
	b.WriteString("\n\nWhere\n  File '")
	b.WriteString(e.frame.file)
	b.WriteString("', line ")
	b.WriteString(strconv.Itoa(e.frame.line))
	b.WriteString(" in '")
	b.WriteString(e.frame.function)
	b.WriteString("'\n")

	for _, line := range sourcecode.CodeBlock(e.frame.file, e.frame.line, whereLinesBefore, whereLinesAfter) {
		if e.colors && strings.Contains(line, "|> ") {
			line = markerColorSeq + line + resetColorSeq
		}
		b.WriteString("\n")
		b.WriteString(line)
	}
}

func indentWidth(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

var (
	caretColorSeq  = colorSequence(termenv.ANSIBrightRed)
	markerColorSeq = colorSequence(termenv.ANSIRed)
	resetColorSeq  = termenv.CSI + termenv.ResetSeq + "m"
)

func colorSequence(c termenv.Color) string {
	return termenv.CSI + c.Sequence(false) + "m"
}
