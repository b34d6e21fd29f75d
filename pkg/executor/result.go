package executor

import (
	"fmt"
	"time"

	"github.com/entrhq/replay/pkg/recording"
)

// ErrorKind classifies an execution failure.
type ErrorKind string

const (
	// ErrorKindLoad covers failures before the candidate runs: forbidden
	// imports, code that does not evaluate, or a missing or misshapen
	// entry point.
	ErrorKindLoad ErrorKind = "load"

	// ErrorKindRuntime covers errors and panics raised by the candidate
	// itself.
	ErrorKindRuntime ErrorKind = "runtime"

	// ErrorKindTimeout marks runs cut off by the execution deadline.
	ErrorKindTimeout ErrorKind = "timeout"
)

// Error is an execution failure with its classification.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Result is the outcome of one candidate execution. Recording is set
// whenever the candidate opened a recording session, even on timeout and
// error paths, so callers can always inspect what the run did.
type Result struct {
	Success   bool
	Value     any
	Recording *recording.Info
	Err       *Error
	Duration  time.Duration
}
