/*
Package log provides structured logging for the harness using zerolog.

The log package wraps the zerolog library to provide JSON-structured
logging with component-specific loggers, configurable log levels, and
helper functions for common logging patterns. All logs include
timestamps and support filtering by severity, so a failed run's console
output doubles as its diagnostic record.

# Architecture

	┌──────────────────── LOGGING SYSTEM ──────────────────────┐
	│                                                          │
	│  ┌────────────────────────────────────────────┐          │
	│  │            Global Logger                   │          │
	│  │  - Zerolog instance                        │          │
	│  │  - Initialized via log.Init()              │          │
	│  │  - Thread-safe for concurrent use          │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                    │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Configuration                    │          │
	│  │  - Level: debug/info/warn/error            │          │
	│  │  - Format: JSON or console (human)         │          │
	│  │  - Output: stdout, file, or custom writer  │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                    │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │         Context Loggers                    │          │
	│  │  - WithComponent("topology")               │          │
	│  │  - WithScenario("forward-expiry")          │          │
	│  │  - WithHost("h1")                          │          │
	│  │  - WithRunID("f81d4fae-...")               │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                    │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │            Log Output                      │          │
	│  │                                            │          │
	│  │  JSON Format:                              │          │
	│  │  {                                         │          │
	│  │    "level": "info",                        │          │
	│  │    "component": "topology",                │          │
	│  │    "time": "2026-08-25T10:30:00Z",         │          │
	│  │    "message": "network ready"              │          │
	│  │  }                                         │          │
	│  │                                            │          │
	│  │  Console Format:                           │          │
	│  │  10:30AM INF network ready component=topology │       │
	│  └────────────────────────────────────────────┘          │
	└──────────────────────────────────────────────────────────┘

# Core Components

Global Logger:
  - Package-level zerolog.Logger instance
  - Initialized once via log.Init()
  - Accessible from all harness packages
  - Thread-safe concurrent writes

Log Levels:
  - Debug: per-probe and per-netlink-call detail
  - Info: run lifecycle milestones
  - Warn: recoverable oddities worth a second look
  - Error: failed operations
  - Fatal: unrecoverable faults (process exits)

Configuration:
  - Level: filter messages below threshold
  - JSONOutput: JSON vs human-readable console
  - Output: io.Writer for log destination

Context Loggers:
  - WithComponent: subsystem name on every line
  - WithScenario: the scenario a line belongs to
  - WithHost: the emulated host involved
  - WithRunID: correlate lines across one run

# Usage

Initializing the Logger:

	import "github.com/stackmesh/dnsrig/pkg/log"

	// JSON output (CI)
	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

	// Console output (interactive debugging)
	log.Init(log.Config{
		Level:      log.DebugLevel,
		JSONOutput: false,
		Output:     os.Stdout,
	})

Simple Logging:

	log.Info("harness starting")
	log.Debug("probing status endpoint")
	log.Warn("instance answered late")
	log.Error("teardown left a namespace behind")

Structured Logging:

	log.Logger.Info().
		Str("scenario", "forward-expiry").
		Int("hosts", 2).
		Msg("run started")

	log.Logger.Error().
		Err(err).
		Str("host", "h1").
		Msg("launch failed")

Component Loggers:

	topoLog := log.WithComponent("topology")
	topoLog.Info().Msg("bridge up")
	topoLog.Debug().Str("host", "h2").Msg("namespace created")

# Integration Points

This package integrates with:

  - pkg/topology: netlink operations and preflight results
  - pkg/launcher: process lifecycle and readiness probes
  - pkg/scenario: run milestones and outcome lines
  - pkg/nameapi and pkg/resolve: request failures
  - cmd/dnsrig: level and format come from CLI flags

# Design Patterns

Global Logger Pattern:
  - Single package-level Logger instance
  - Initialized once at process start
  - No logger plumbed through call chains

Context Logger Pattern:
  - Child loggers carry component/scenario/host fields
  - One With* call replaces repeating fields per line

Structured Logging Pattern:
  - Typed fields (.Str, .Int, .Err) over fmt.Sprintf
  - A failed CI run greps cleanly by scenario or host

# Troubleshooting

No Log Output:
  - Symptom: no logs appearing
  - Check: log.Init() called before logging
  - Check: level threshold (Debug < Info < Warn < Error)
  - Solution: initialize in main() before any logging

Per-probe Detail Missing:
  - Symptom: readiness failures without probe lines
  - Cause: probes log at debug, default level is info
  - Solution: run with --log-level debug

Interleaved Service Output:
  - Symptom: non-JSON lines mixed into JSON output
  - Cause: -debug echoes service output verbatim
  - Solution: drop -d, read drained tails from error logs instead

# Best Practices

Do:
  - Use structured fields for anything a query might filter on
  - Attach .Err(err) rather than formatting errors into messages
  - Tag lines with the component that produced them

Don't:
  - Log inside per-packet or per-probe hot loops at info level
  - Concatenate values into the message string
  - Re-Init after goroutines have started logging

# See Also

  - Zerolog documentation: https://github.com/rs/zerolog
  - 12-Factor App Logs: https://12factor.net/logs
*/
package log
