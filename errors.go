package asserts

import (
	"errors"
	"strings"
)

// aggregateSeparator joins the diagnostics of an aggregate failure.
const aggregateSeparator = "\n\nas well as the following assertion\n\n"

// Errors collects soft assertion failures so that several independent
// assertions can all be attempted before a single aggregate failure is
// raised. A collector is single-use: collected failures are never cleared.
type Errors struct {
	collected []*Error
	sections  sections
}

// NewErrors returns a collector. Section toggle options control how the
// collected diagnostics are re-rendered in the aggregate message.
func NewErrors(opts ...Option) *Errors {
	cfg := errorConfig{sections: allSections}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Errors{sections: cfg.sections}
}

// Soft is a nested soft-assertion scope: an assertion failure is collected
// and suppressed (nil is returned) so sibling assertions still run; any
// other error is passed through unchanged.
func (es *Errors) Soft(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		es.collected = append(es.collected, e)
		return nil
	}
	return err
}

// Result is the collector's scope exit. An assertion failure raised
// directly in the collector body is only folded into the aggregate when
// soft failures were already collected, otherwise it propagates as-is; a
// non-assertion error always propagates unchanged, dropping anything
// collected. If soft failures were collected, a single aggregate failure
// joining all their messages is returned.
func (es *Errors) Result(bodyErr error) error {
	if bodyErr != nil {
		var e *Error
		if !errors.As(bodyErr, &e) {
			return bodyErr
		}
		if len(es.collected) == 0 {
			return bodyErr
		}
		es.collected = append(es.collected, e)
	}

	if len(es.collected) == 0 {
		return nil
	}
	return &AggregateError{Errors: es.collected, sections: es.sections}
}

// Err is Result for a body that completed without a terminal error.
func (es *Errors) Err() error {
	return es.Result(nil)
}

func (es *Errors) String() string {
	return joinDiagnostics(es.collected, es.sections)
}

// AggregateError is the single failure raised for one or more collected
// soft assertion failures.
type AggregateError struct {
	Errors   []*Error
	sections sections
}

func (a *AggregateError) Error() string {
	return joinDiagnostics(a.Errors, a.sections)
}

func joinDiagnostics(errs []*Error, s sections) string {
	messages := make([]string, len(errs))
	for i, e := range errs {
		messages[i] = e.render(s)
	}
	return strings.Join(messages, aggregateSeparator)
}
