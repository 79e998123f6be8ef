package health

import (
	"context"
	"errors"
	"net"
	"syscall"
	"time"
)

// CheckType represents the type of health check
type CheckType string

const (
	CheckTypeHTTP CheckType = "http"
	CheckTypeExec CheckType = "exec"
)

// Failure classifies why a check did not succeed. The readiness loop logs
// the classes differently, so the distinction must survive the trip through
// net/http's error wrapping.
type Failure string

const (
	// FailureNone means the check succeeded.
	FailureNone Failure = ""

	// FailureRefused means the endpoint actively refused the connection,
	// typical while the service process is still starting up.
	FailureRefused Failure = "refused"

	// FailureTimeout means no response arrived within the probe timeout.
	FailureTimeout Failure = "timeout"

	// FailureStatus means the endpoint answered outside the accepted range.
	FailureStatus Failure = "status"

	// FailureOther covers everything else (resets, bad URLs, exec errors).
	FailureOther Failure = "other"
)

// Result represents the outcome of a health check
type Result struct {
	Healthy   bool
	Failure   Failure
	Message   string
	Output    string
	CheckedAt time.Time
	Duration  time.Duration
}

// Checker is the interface that all health checkers must implement
type Checker interface {
	// Check performs the health check and returns the result
	Check(ctx context.Context) Result

	// Type returns the type of health check
	Type() CheckType
}

// Classify maps a transport error to a Failure class. It understands the
// wrapping applied by net/http (url.Error), the os package (SyscallError)
// and context deadlines.
func Classify(err error) Failure {
	if err == nil {
		return FailureNone
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return FailureRefused
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return FailureTimeout
	}
	return FailureOther
}
