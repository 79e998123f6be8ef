/*
Package scenario defines the test scenarios and the machinery that runs
them.

A scenario is a named function exercising the DNS service end to end:
publish a record through the control API, resolve it, delete it, and
verify the negative-cache window behaves. The runner wraps each scenario
with environment setup, guaranteed teardown, outcome classification,
journaling and live events. Scenarios register themselves at init time,
so the CLI and the test framework discover them by name.

# Architecture

	┌───────────────────────── SCENARIO RUN ───────────────────────┐
	│                                                              │
	│  Runner.Run("forward-expiry", env)                           │
	│      │                                                       │
	│      ▼                                                       │
	│  registry lookup ──► Env.Setup                               │
	│                        │  provision topology                 │
	│                        │  launch instance per host           │
	│                        ▼                                     │
	│                   scenario body                              │
	│            publish ► query ► delete ► wait ► query           │
	│                        │                                     │
	│        panic? error?   ▼                                     │
	│      ┌──────────────────────────────┐                        │
	│      │ Env.Close (always, LIFO)     │                        │
	│      │  stop instances, teardown    │                        │
	│      └──────────────┬───────────────┘                        │
	│                     ▼                                        │
	│     classify ──► Report ──► journal + events + metrics       │
	│   passed / test-failed / setup-failed / error                │
	└──────────────────────────────────────────────────────────────┘

# Core Components

Registry:
  - Register, Get, All, Names over the package-level scenario table
  - Built-ins register in init: resolution, forward-expiry,
    reverse-expiry
  - UnknownScenarioError lets callers treat typos as setup faults

Env:
  - One run's world: topology, instances, API clients, cleanups
  - Setup provisions and launches; Close unwinds LIFO exactly once
  - Defer stacks extra cleanups; CleanupName deletes leftover records
  - WaitExpiry sleeps out the negative-cache window (TTL plus slack)

Runner:
  - Runs one scenario against one Env, recovering panics
  - Classifies the returned error into an Outcome
  - Writes the journal record and publishes lifecycle events

Assertions:
  - ExpectContains and ExpectEmpty turn resolution results into
    TestErrors with consistent wording

# Usage

Running a registered scenario:

	runner := &scenario.Runner{Journal: j, Broker: b}
	env := scenario.NewEnv(
		scenario.Config{Hosts: 2},
		scenario.Deps{
			Provisioner: prov,
			Launcher:    l,
			Names:       nameapi.NewClient(),
			Resolver:    resolve.NewResolver(),
		},
	)

	report := runner.Run(ctx, "forward-expiry", env)
	if report.Outcome != scenario.OutcomePassed {
		return report.Err
	}

Defining a new scenario:

	func init() {
		scenario.Register(scenario.Scenario{
			Name:        "my-check",
			Description: "One-line summary for the CLI listing",
			Run:         runMyCheck,
		})
	}

	func runMyCheck(ctx context.Context, env *scenario.Env) error {
		inst, _, err := env.Pair()
		if err != nil {
			return err
		}
		// errdefs.Testf for assertion failures,
		// anything else is infrastructure
		...
	}

# Integration Points

This package integrates with:

  - pkg/topology: Env.Setup provisions, Env.Close tears down
  - pkg/launcher: one service instance per provisioned host
  - pkg/nameapi and pkg/resolve: the clients scenarios drive
  - pkg/errdefs: the error taxonomy classification keys off
  - pkg/journal and pkg/events: persistence and live feed per run
  - cmd/dnsrig and test/framework: the two callers of Runner

# Design Patterns

Registry Pattern:
  - Scenarios self-register in init
  - Adding a scenario touches no runner or CLI code

Guaranteed Teardown:
  - Close runs under sync.Once regardless of panic or error
  - Cleanups unwind in reverse registration order

Error-Driven Classification:
  - Scenario bodies return errors, never call os.Exit
  - errdefs types carry the verdict; the runner only inspects

# Troubleshooting

Run reports setup-failed instantly:
  - Check: running as root; provisioning needs CAP_NET_ADMIN
  - Check: the scenario name exists in `dnsrig scenarios`

Forward-expiry fails with "after delete":
  - Cause: the record outlived the negative-cache window
  - Check: harness TTL (--ttl) matches the service build's TTL

Runs take half a minute even on failure:
  - Cause: WaitExpiry honors the full 31s window before asserting
  - Solution: lower the TTL when iterating against a patched build

# Best Practices

Do:
  - Return errdefs.Testf for behavior deviations, plain errors for
    infrastructure trouble
  - Register cleanup via Env.Defer as soon as state is created
  - Use Env.CleanupName for records the scenario publishes

Don't:
  - Call Env.Setup twice on the same Env; build a fresh one per run
  - Sleep ad hoc; WaitExpiry encodes the one interval that matters

# See Also

  - pkg/errdefs for the taxonomy the classifier relies on
  - pkg/journal for where reports end up
  - cmd/dnsrig for the CLI that drives this package
*/
package scenario
