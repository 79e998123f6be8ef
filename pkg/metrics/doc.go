/*
Package metrics provides Prometheus metrics collection and exposition
for the harness.

The metrics package defines and registers every harness metric with the
Prometheus client library: scenario outcomes and durations, topology and
launcher setup counters, DNS query latencies, and control API request
results. When runs repeat in CI, a scrape of these series shows flake
rates and latency drift across builds without re-reading logs.

# Architecture

	┌──────────────────── METRICS SYSTEM ──────────────────────┐
	│                                                          │
	│  pkg/scenario ──► dnsrig_scenario_runs_total             │
	│                   dnsrig_scenario_duration_seconds       │
	│                                                          │
	│  pkg/topology ──► dnsrig_hosts_provisioned               │
	│  topology +   ──► dnsrig_setup_failures_total            │
	│  pkg/launcher ──► dnsrig_instances_launched_total        │
	│                   dnsrig_readiness_probes_total          │
	│                                                          │
	│  pkg/resolve ───► dnsrig_dns_queries_total               │
	│                   dnsrig_dns_query_duration_seconds      │
	│                                                          │
	│  pkg/nameapi ───► dnsrig_nameapi_requests_total          │
	│                                                          │
	│        all registered in init() ──► Handler()            │
	│                  GET /metrics (--metrics-addr)           │
	└──────────────────────────────────────────────────────────┘

# Core Components

Scenario Metrics:
  - ScenarioRunsTotal: counter by scenario and outcome
  - ScenarioDuration: histogram bucketed around the expiry window

Setup Metrics:
  - HostsProvisioned: gauge of hosts currently provisioned
  - SetupFailures: counter of topology and launcher faults
  - InstancesLaunched: counter of service instances started
  - ReadinessProbes: counter by probe result class

Data-Plane Metrics:
  - DNSQueriesTotal: counter by query type and response status
  - DNSQueryDuration: per-type latency histogram
  - NameAPIRequestsTotal: counter by operation and HTTP status

Timer:
  - NewTimer plus ObserveDuration/ObserveDurationVec
  - One-liner latency capture for histograms

# Usage

Recording metrics:

	metrics.ScenarioRunsTotal.WithLabelValues("forward-expiry", "passed").Inc()

	timer := metrics.NewTimer()
	// ... the operation ...
	timer.ObserveDurationVec(metrics.ScenarioDuration, "forward-expiry")

Exposing the endpoint:

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	go http.ListenAndServe(":9100", mux)

Useful queries:

	# Flake rate per scenario over a day
	sum by (scenario) (increase(dnsrig_scenario_runs_total{outcome!="passed"}[1d]))
	  / sum by (scenario) (increase(dnsrig_scenario_runs_total[1d]))

	# Readiness probes that were not clean successes
	sum by (result) (increase(dnsrig_readiness_probes_total{result!="ok"}[1h]))

	# DNS query latency p95 by type
	histogram_quantile(0.95, rate(dnsrig_dns_query_duration_seconds_bucket[5m]))

# Integration Points

This package integrates with:

  - pkg/scenario: run outcomes and durations
  - pkg/topology: host gauge on provision and teardown
  - pkg/launcher: launch, failure and probe counters
  - pkg/resolve: query counters and latency
  - pkg/nameapi: request counter
  - cmd/dnsrig: serves Handler when --metrics-addr is set

# Design Patterns

Package-Level Registration:
  - Metrics are package vars, registered once in init()
  - Recording sites import and increment, no plumbing

Label Discipline:
  - Labels are small closed sets (scenario, outcome, qtype)
  - Never label by record name or run ID; cardinality stays flat

# Troubleshooting

Endpoint serves nothing:
  - Check: --metrics-addr was passed; the listener is opt-in
  - Check: the run is still in flight, the server stops with it

Duplicate registration panic in tests:
  - Cause: MustRegister runs once per process; a second init
    path registered the same collector
  - Solution: import this package for its side effect only once

# Best Practices

Do:
  - Time operations with Timer instead of hand math
  - Keep new labels to values you could enumerate in a sentence

Don't:
  - Add per-run or per-record labels
  - Scrape across harness restarts and expect counter continuity

# See Also

  - Prometheus client: https://github.com/prometheus/client_golang
  - Histogram queries: https://prometheus.io/docs/practices/histograms/
*/
package metrics
