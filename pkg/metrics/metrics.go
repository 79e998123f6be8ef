package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Scenario metrics
	ScenarioRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dnsrig_scenario_runs_total",
			Help: "Total number of scenario runs by scenario and outcome",
		},
		[]string{"scenario", "outcome"},
	)

	ScenarioDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dnsrig_scenario_duration_seconds",
			Help:    "Scenario wall-clock duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 90, 120, 180, 300},
		},
		[]string{"scenario"},
	)

	// Topology metrics
	HostsProvisioned = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dnsrig_hosts_provisioned",
			Help: "Number of emulated hosts currently provisioned",
		},
	)

	SetupFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dnsrig_setup_failures_total",
			Help: "Total number of topology or launcher setup failures",
		},
	)

	// Launcher metrics
	InstancesLaunched = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dnsrig_instances_launched_total",
			Help: "Total number of DNS service instances launched",
		},
	)

	ReadinessProbes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dnsrig_readiness_probes_total",
			Help: "Total number of readiness probes by result",
		},
		[]string{"result"},
	)

	// Resolution metrics
	DNSQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dnsrig_dns_queries_total",
			Help: "Total number of DNS queries by type and status",
		},
		[]string{"qtype", "status"},
	)

	DNSQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dnsrig_dns_query_duration_seconds",
			Help:    "DNS query duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"qtype"},
	)

	// Control API metrics
	NameAPIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dnsrig_nameapi_requests_total",
			Help: "Total number of naming API requests by operation and status",
		},
		[]string{"operation", "status"},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(ScenarioRunsTotal)
	prometheus.MustRegister(ScenarioDuration)
	prometheus.MustRegister(HostsProvisioned)
	prometheus.MustRegister(SetupFailures)
	prometheus.MustRegister(InstancesLaunched)
	prometheus.MustRegister(ReadinessProbes)
	prometheus.MustRegister(DNSQueriesTotal)
	prometheus.MustRegister(DNSQueryDuration)
	prometheus.MustRegister(NameAPIRequestsTotal)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
