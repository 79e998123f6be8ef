/*
Package launcher starts DNS service instances on emulated hosts and
polls them to readiness.

Each launch runs the service binary inside a host's network namespace
with a fixed flag set (-watch=false -debug -iface=<dev> -wait=0),
captures its combined output into a ring of recent lines, and probes the
HTTP status endpoint until the instance answers or the attempt budget is
spent. A failed launch is killed and its output tail surfaced, so the
harness log alone explains what went wrong.

# Architecture

	┌──────────────────────── LAUNCHER ────────────────────────┐
	│                                                          │
	│  Launch(ctx, host)                                       │
	│     │                                                    │
	│     ▼                                                    │
	│  stagger (1s) ──► Process.Start inside host namespace    │
	│                        │                                 │
	│            stdout/stderr│  readiness                     │
	│                        ▼  probes                         │
	│                  ┌───────────┐   ┌──────────────────┐    │
	│                  │ LogBuffer │   │ RetryPolicy.Await│    │
	│                  │ (lines)   │   │ 10 × 1s, 10s cap │    │
	│                  └───────────┘   └────────┬─────────┘    │
	│                                           │              │
	│                     ready ◄───────────────┘              │
	│                        │                                 │
	│                        ▼                                 │
	│                 ServiceInstance                          │
	│            Stop / DrainOutput / Server                   │
	└──────────────────────────────────────────────────────────┘

# Core Components

Launcher:
  - Launch starts one instance per call, staggered by Config.Stagger
  - Readiness is the control-plane status endpoint, probed per policy
  - drainFailedLaunch kills and logs the tail when readiness fails

Process:
  - Wraps exec.Cmd with lifecycle control and output capture
  - Stop sends SIGINT, escalates to SIGKILL after a grace period
  - Output is captured line-by-line into a LogBuffer as it arrives
  - Reaps only after both pipes drain, so no output tail is lost

LogBuffer:
  - Thread-safe, timestamped accumulation of output lines
  - Tail and Contains support post-mortem diagnostics

RetryPolicy:
  - Attempts, Interval and ProbeTimeout for the readiness loop
  - Default: 10 attempts, 1s apart, 10s per probe

# Usage

	l := launcher.New(launcher.Config{
		Binary: "/usr/local/bin/weavedns",
		Debug:  true,
	})

	inst, err := l.Launch(ctx, host)
	if err != nil {
		return err // SetupError; process already killed and drained
	}
	defer func() {
		inst.Stop()
		inst.DrainOutput()
	}()

	fmt.Println(inst.Server()) // host address for DNS/control clients

# Integration Points

This package integrates with:

  - pkg/topology: Host.InNamespace places the process on its host
  - pkg/health: HTTP checker drives the readiness probes
  - pkg/nameapi: status endpoint path and control port defaults
  - pkg/scenario: Env launches one instance per provisioned host
  - pkg/metrics: launch, setup-failure and probe counters

# Design Patterns

Fail Loud, Fail Clean:
  - A launch that never becomes ready is killed before Launch returns
  - The last output lines travel with the error into the log

Drain Before Reap:
  - cmd.Wait runs only after both capture goroutines finish
  - The last lines a dying service prints always land in the buffer

# Troubleshooting

Instance never becomes ready:
  - Check: the binary path exists and is executable
  - Check: the output tail in the log, it usually names the fault
  - Solution: raise Policy.Attempts for slow-starting builds

Stop hangs for about a second:
  - Cause: the service ignored SIGINT; the kill escalation fired
  - Check: service logs for a wedged shutdown path

# Best Practices

Do:
  - Defer Stop and DrainOutput immediately after a successful Launch
  - Enable Debug when chasing service-side faults; output streams live

Don't:
  - Reuse a ServiceInstance after Stop
  - Launch onto a host before the topology preflight passes

# See Also

  - pkg/topology for the namespaces instances run in
  - pkg/health for the probe machinery
  - pkg/scenario for the orchestration above this package
*/
package launcher
