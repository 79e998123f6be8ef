package launcher

import (
	"context"
	"fmt"
	"time"

	"github.com/stackmesh/dnsrig/pkg/errdefs"
	"github.com/stackmesh/dnsrig/pkg/health"
	"github.com/stackmesh/dnsrig/pkg/log"
	"github.com/stackmesh/dnsrig/pkg/metrics"
	"github.com/stackmesh/dnsrig/pkg/nameapi"
	"github.com/stackmesh/dnsrig/pkg/topology"
)

// DefaultStagger is the pause before each launch. The legacy harness spaced
// instance starts by a second so the instances don't race each other onto
// the multicast group.
const DefaultStagger = 1 * time.Second

// diagnosticTailLines bounds the output drained into the log when an
// instance fails to become ready
const diagnosticTailLines = 50

// Config configures the launcher
type Config struct {
	// Binary is the path to the DNS service executable
	Binary string

	// Debug echoes captured service output into the harness log live
	Debug bool

	// ControlPort is the control-plane port (default 6785)
	ControlPort int

	// Stagger is the pause before each launch (default 1s)
	Stagger time.Duration

	// Policy bounds the readiness poll
	Policy RetryPolicy
}

// Launcher starts DNS service instances inside host namespaces and polls
// them to readiness
type Launcher struct {
	cfg Config
	api *nameapi.Client
}

// New creates a launcher, filling in defaults for unset config fields
func New(cfg Config) *Launcher {
	if cfg.ControlPort == 0 {
		cfg.ControlPort = nameapi.DefaultPort
	}
	if cfg.Stagger == 0 {
		cfg.Stagger = DefaultStagger
	}
	if cfg.Policy.Attempts == 0 {
		cfg.Policy = DefaultRetryPolicy()
	}
	return &Launcher{
		cfg: cfg,
		api: nameapi.NewClient().WithPort(cfg.ControlPort),
	}
}

// ServiceInstance is a running service process bound to one host
type ServiceInstance struct {
	Host        *topology.Host
	Proc        *Process
	ControlPort int
}

// Server returns the address DNS and control queries should target
func (s *ServiceInstance) Server() string {
	return s.Host.IP()
}

// Name returns the owning host's name
func (s *ServiceInstance) Name() string {
	return s.Host.Name
}

// Stop interrupts the service process, then force-terminates it after the
// grace period
func (s *ServiceInstance) Stop() error {
	log.Logger.Info().
		Str("component", "launcher").
		Str("host", s.Host.Name).
		Int("pid", s.Proc.PID).
		Msg("stopping service instance")
	return s.Proc.Stop()
}

// DrainOutput writes the captured service output into the harness log for
// post-run diagnostics
func (s *ServiceInstance) DrainOutput() {
	for _, line := range s.Proc.OutputLines() {
		log.Logger.Debug().
			Str("component", "launcher").
			Str("host", s.Host.Name).
			Str("stream", "service").
			Msg(line)
	}
}

// Launch starts the service on host with the fixed flag set and polls its
// status endpoint until it is ready. If readiness polling exhausts its
// attempts the spawned process is killed, its output drained into the log,
// and a SetupError returned.
func (l *Launcher) Launch(ctx context.Context, host *topology.Host) (*ServiceInstance, error) {
	if l.cfg.Stagger > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.cfg.Stagger):
		}
	}

	args := serviceArgs(host.Iface)

	log.Logger.Info().
		Str("component", "launcher").
		Str("host", host.Name).
		Str("ip", host.IP()).
		Str("iface", host.Iface).
		Str("binary", l.cfg.Binary).
		Strs("args", args).
		Msg("launching service instance")

	proc := NewProcess(l.cfg.Binary, args...)
	proc.Echo = l.cfg.Debug

	// The child inherits the namespace of the spawning thread
	if err := host.InNamespace(proc.Start); err != nil {
		metrics.SetupFailures.Inc()
		return nil, errdefs.WrapSetup(err, fmt.Sprintf("start service on %s", host.Name))
	}

	metrics.InstancesLaunched.Inc()

	checker := health.NewHTTPChecker(l.api.StatusURL(host.IP())).
		WithTimeout(l.cfg.Policy.ProbeTimeout)

	if err := l.cfg.Policy.Await(ctx, checker); err != nil {
		l.drainFailedLaunch(host, proc)
		metrics.SetupFailures.Inc()
		return nil, errdefs.WrapSetup(err, fmt.Sprintf("service on %s", host.Name))
	}

	log.Logger.Info().
		Str("component", "launcher").
		Str("host", host.Name).
		Int("pid", proc.PID).
		Msg("service instance ready")

	return &ServiceInstance{
		Host:        host,
		Proc:        proc,
		ControlPort: l.cfg.ControlPort,
	}, nil
}

// serviceArgs builds the fixed invocation of the service under test: watch
// mode off, verbose logging on, bound to the host's interface, no startup
// delay.
func serviceArgs(iface string) []string {
	return []string{
		"-watch=false",
		"-debug",
		fmt.Sprintf("-iface=%s", iface),
		"-wait=0",
	}
}

// drainFailedLaunch kills the process and surfaces its output tail so the
// failure is diagnosable from the harness log alone
func (l *Launcher) drainFailedLaunch(host *topology.Host, proc *Process) {
	_ = proc.Kill()

	tail := proc.OutputTail(diagnosticTailLines)
	log.Logger.Error().
		Str("component", "launcher").
		Str("host", host.Name).
		Int("lines", len(tail)).
		Msg("service never became ready, draining output")
	for _, line := range tail {
		log.Logger.Info().
			Str("component", "launcher").
			Str("host", host.Name).
			Str("stream", "service").
			Msg(line)
	}
}
