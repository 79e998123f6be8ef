/*
Package topology provisions the emulated network the test scenarios run on.

The topology package builds N hosts as network namespaces hanging off a
Linux bridge, each connected by a veth pair, plus a root-namespace
attachment so the harness itself can reach every host. Everything is
created through netlink, torn down in reverse, and survives partial
failures: whatever was built when an error hits is rolled back.

# Architecture

	┌────────────────── EMULATED NETWORK ──────────────────────┐
	│                                                          │
	│                 root namespace                           │
	│                                                          │
	│   dnsrig-root (10.123.123.1/8)     route 10.0.0.0/8      │
	│        │                                                 │
	│        ▼                                                 │
	│   ┌─────────────────────────────────────────┐            │
	│   │            bridge dnsrig0               │            │
	│   └──┬──────────────┬──────────────┬────────┘            │
	│      │              │              │                     │
	│   h1-link        h2-link        hN-link     (veth peers) │
	│      │              │              │                     │
	│  ┌───┴────┐     ┌───┴────┐     ┌───┴────┐                │
	│  │ns      │     │ns      │     │ns      │                │
	│  │dnsrig- │     │dnsrig- │     │dnsrig- │                │
	│  │h1      │     │h2      │     │hN      │                │
	│  │        │     │        │     │        │                │
	│  │h1-eth0 │     │h2-eth0 │     │hN-eth0 │                │
	│  │10.0.0.1│     │10.0.0.2│     │10.0.0.N│                │
	│  │  lo    │     │  lo    │     │  lo    │                │
	│  └────────┘     └────────┘     └────────┘                │
	│                                                          │
	│  per host: route 224.0.0.251/32 dev hX-eth0 (mDNS)       │
	└──────────────────────────────────────────────────────────┘

# Core Components

Provisioner:
  - Builds the bridge, the per-host namespaces and the root attachment
  - Rolls the whole topology back when any step fails
  - Teardown is idempotent and removes everything by name

Host:
  - One emulated endpoint: name (h1..hN), address 10.0.0.i, interface
  - InNamespace runs a function with the calling thread switched into
    the host's namespace; processes started there inherit it
  - NewLocalHost builds a namespace-less host for tests and doubles

Network:
  - The provisioned host set plus the bridge and root link names
  - Pair returns the first two hosts for two-party scenarios

Preflight:
  - Optional connectivity check before any instance launches
  - Unicast: ping between the first two hosts, both directions
  - Multicast: a probe datagram to the mDNS group across the bridge

DumpDevices:
  - Logs a host's links, addresses and routes for diagnostics

# Usage

Provisioning and tearing down:

	prov := topology.NewProvisioner(topology.Config{Hosts: 2})

	nw, err := prov.Provision(ctx)
	if err != nil {
		return err // already a SetupError, nothing left behind
	}
	defer prov.Teardown(nw)

Running code on a host:

	host := nw.Hosts[0]
	err := host.InNamespace(func() error {
		// the calling thread now sits inside the host's namespace
		return cmd.Start()
	})

Checking connectivity first:

	if err := topology.Preflight(ctx, nw); err != nil {
		return err
	}

# Integration Points

This package integrates with:

  - pkg/launcher: starts service processes via Host.InNamespace
  - pkg/scenario: provisions/tears down around every run
  - pkg/health: preflight reuses the exec checker for ping
  - pkg/metrics: reports the provisioned host gauge

# Design Patterns

Build With Rollback:
  - Hosts are recorded before their provisioning finishes
  - Any failure hands the partial network to Teardown
  - Provision either returns a complete network or none

Thread Pinning:
  - Namespace switches act on the calling OS thread
  - The provisioner locks its thread for the whole build
  - The origin namespace is restored after every excursion

Name-Based Teardown:
  - Namespaces and links are deleted by well-known names
  - Absent objects are not errors, so Teardown can run twice

# Performance Characteristics

  - Provisioning: tens of milliseconds per host, plus a 1s settle wait
    for the bridge to start forwarding
  - Host ceiling: 250 hosts (one 10.0.0.x octet)
  - Teardown: one netlink call per namespace and link

# Troubleshooting

Provisioning fails immediately:
  - Check: running as root (netlink mutations need CAP_NET_ADMIN)
  - Check: no leftover dnsrig0 bridge from an aborted run
  - Solution: run Teardown (or `ip link del dnsrig0`) and retry

Hosts cannot reach each other:
  - Check: DumpDevices shows the interface up with its address
  - Check: bridge has the veth peers enslaved
  - Solution: run the preflight to localize the failing direction

Multicast probe fails, unicast works:
  - Cause: bridge multicast snooping withholding group traffic
  - Check: the 224.0.0.251/32 route exists inside each namespace

# Best Practices

Do:
  - Always defer Teardown right after a successful Provision
  - Re-fetch links by name before operating on them
  - Keep namespace excursions short and single-purpose

Don't:
  - Start goroutines inside InNamespace callbacks
  - Assume interface indices survive across namespace moves
  - Skip the settle wait before traffic-sensitive checks

# See Also

  - pkg/launcher for what runs inside the namespaces
  - pkg/scenario for the lifecycle around provisioning
  - netlink library: https://github.com/vishvananda/netlink
*/
package topology
