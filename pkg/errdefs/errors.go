package errdefs

import (
	"errors"
	"fmt"
)

// Exit codes reported by the dnsrig process. Setup and usage problems share
// code 2, matching the getopt-era convention the harness inherited.
const (
	ExitOK    = 0
	ExitTest  = 1
	ExitSetup = 2
)

// SetupError reports that the rig could not be brought to a runnable state:
// the topology failed to allocate, or a service instance never became ready.
// It is fatal to the current scenario and maps to exit code 2.
type SetupError struct {
	Err error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("setup: %v", e.Err)
}

func (e *SetupError) Unwrap() error {
	return e.Err
}

// TestError reports that a control-plane call failed or an assertion did not
// hold. The scenario is aborted, cleanup still runs, and the process exits
// with code 1.
type TestError struct {
	Err error
}

func (e *TestError) Error() string {
	return fmt.Sprintf("test: %v", e.Err)
}

func (e *TestError) Unwrap() error {
	return e.Err
}

// Setupf formats a new SetupError.
func Setupf(format string, args ...interface{}) error {
	return &SetupError{Err: fmt.Errorf(format, args...)}
}

// Testf formats a new TestError.
func Testf(format string, args ...interface{}) error {
	return &TestError{Err: fmt.Errorf(format, args...)}
}

// WrapSetup wraps err as a SetupError with a message prefix. A nil err
// passes through unchanged.
func WrapSetup(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &SetupError{Err: fmt.Errorf("%s: %w", msg, err)}
}

// WrapTest wraps err as a TestError with a message prefix. A nil err passes
// through unchanged.
func WrapTest(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &TestError{Err: fmt.Errorf("%s: %w", msg, err)}
}

// IsSetup reports whether any error in err's chain is a SetupError.
func IsSetup(err error) bool {
	var se *SetupError
	return errors.As(err, &se)
}

// IsTest reports whether any error in err's chain is a TestError.
func IsTest(err error) bool {
	var te *TestError
	return errors.As(err, &te)
}

// ExitCode maps an error to the process exit code at the outer boundary.
// Setup failures dominate test failures when both appear in a chain, and
// any unclassified error is reported as a test failure rather than being
// swallowed.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case IsSetup(err):
		return ExitSetup
	case IsTest(err):
		return ExitTest
	default:
		return ExitTest
	}
}
