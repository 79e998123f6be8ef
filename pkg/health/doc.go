/*
Package health provides the probe primitives the harness readies and
verifies instances with.

Two checker types cover the harness's needs: HTTP for the service's
status endpoint and Exec for connectivity probes like ping. A check
returns a Result rather than an error, carrying a failure class the
retry loop can log meaningfully: a refused connection while a process
boots is routine, a timeout after readiness is news.

# Architecture

	┌────────────────────── HEALTH CHECKS ─────────────────────┐
	│                                                          │
	│            Checker interface                             │
	│            Check(ctx) Result · Type()                    │
	│                 │                                        │
	│        ┌────────┴─────────┐                              │
	│        ▼                  ▼                              │
	│  ┌───────────┐      ┌───────────┐                        │
	│  │HTTPChecker│      │ExecChecker│                        │
	│  │ GET url   │      │ run cmd   │                        │
	│  │ 2xx = ok  │      │ rc 0 = ok │                        │
	│  └─────┬─────┘      └─────┬─────┘                        │
	│        │                  │                              │
	│        ▼                  ▼                              │
	│  Result{Healthy, Failure, Message, Output, Duration}     │
	│                                                          │
	│  Failure: refused | timeout | status | other             │
	└──────────────────────────────────────────────────────────┘

# Core Components

Checker Interface:
  - Check(ctx) Result performs one probe
  - Type() names the mechanism for logs

HTTPChecker:
  - GET by default, accepted status range 200-299
  - WithMethod, WithStatusRange, WithTimeout to adjust
  - The message carries the status line for the probe log

ExecChecker:
  - Runs a command, exit 0 means healthy
  - Captures combined output into Result.Output
  - WithTimeout bounds the run

Classify:
  - Maps transport errors to Failure classes
  - Sees through url.Error, SyscallError and context wrapping

# Usage

Probing a status endpoint:

	checker := health.NewHTTPChecker("http://10.0.0.1:6785/status").
		WithTimeout(10 * time.Second)

	result := checker.Check(ctx)
	if !result.Healthy {
		switch result.Failure {
		case health.FailureRefused:
			// still booting, retry
		case health.FailureTimeout:
			// wedged, worth alarm
		}
	}

Pinging between hosts:

	checker := health.NewExecChecker("ping", "-c1", "10.0.0.2").
		WithTimeout(2 * time.Second)
	result := checker.Check(ctx)

# Integration Points

This package integrates with:

  - pkg/launcher: RetryPolicy.Await drives an HTTPChecker per launch
  - pkg/topology: preflight pings through ExecChecker

# Design Patterns

Result Over Error:
  - A failed probe is data, not an error to propagate
  - Retry loops branch on Failure without unwrapping

Builder Configuration:
  - With* methods return the receiver for chaining
  - Zero-value defaults cover the common probes

# Troubleshooting

Every probe reports refused:
  - Check: the process actually started (launcher logs its pid)
  - Check: probing the host's address, not the bridge's

Exec checks fail with "other":
  - Cause: the binary is missing from PATH inside the namespace
  - Check: Result.Output carries the exec error text

# Best Practices

Do:
  - Give each probe its own timeout; context alone is not enough
  - Log Result.Failure, not just the boolean

Don't:
  - Treat FailureRefused during startup as a fault
  - Reuse one Result across probes; each Check returns a fresh one

# See Also

  - pkg/launcher for the retry loop around these probes
  - pkg/topology for the preflight built on ExecChecker
*/
package health
