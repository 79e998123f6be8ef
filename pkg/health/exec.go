package health

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ExecChecker probes by running a command and inspecting its exit status.
// The connectivity pre-check uses it for ping probes inside host namespaces.
type ExecChecker struct {
	// Command is the command to execute (e.g., ["ping", "-c1", "-W1", "10.0.0.2"])
	Command []string

	// Timeout is the command execution timeout (default: 10 seconds)
	Timeout time.Duration
}

// NewExecChecker creates a new exec health checker
func NewExecChecker(command ...string) *ExecChecker {
	return &ExecChecker{
		Command: command,
		Timeout: 10 * time.Second,
	}
}

// Check runs the command and reports success iff it exits zero. Combined
// stdout/stderr is preserved in Result.Output for diagnostics dumps.
func (e *ExecChecker) Check(ctx context.Context) Result {
	start := time.Now()

	if len(e.Command) == 0 {
		return Result{
			Healthy:   false,
			Failure:   FailureOther,
			Message:   "no command specified",
			CheckedAt: start,
			Duration:  time.Since(start),
		}
	}

	execCtx, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, e.Command[0], e.Command[1:]...)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	output := strings.TrimRight(out.String(), "\n")

	if err != nil {
		failure := FailureOther
		if execCtx.Err() == context.DeadlineExceeded {
			failure = FailureTimeout
		}
		return Result{
			Healthy:   false,
			Failure:   failure,
			Message:   fmt.Sprintf("%s: %v", e.Command[0], err),
			Output:    output,
			CheckedAt: start,
			Duration:  time.Since(start),
		}
	}

	return Result{
		Healthy:   true,
		Message:   fmt.Sprintf("%s exited 0", e.Command[0]),
		Output:    output,
		CheckedAt: start,
		Duration:  time.Since(start),
	}
}

// Type returns the health check type
func (e *ExecChecker) Type() CheckType {
	return CheckTypeExec
}

// WithTimeout sets the execution timeout
func (e *ExecChecker) WithTimeout(timeout time.Duration) *ExecChecker {
	e.Timeout = timeout
	return e
}
