package framework

import (
	"context"
	"fmt"
	"net/netip"
	"time"

	"github.com/stackmesh/dnsrig/pkg/events"
	"github.com/stackmesh/dnsrig/pkg/journal"
	"github.com/stackmesh/dnsrig/pkg/launcher"
	"github.com/stackmesh/dnsrig/pkg/nameapi"
	"github.com/stackmesh/dnsrig/pkg/resolve"
	"github.com/stackmesh/dnsrig/pkg/scenario"
	"github.com/stackmesh/dnsrig/pkg/topology"
	"github.com/stackmesh/dnsrig/test/fakedns"
)

// Rig is a ready-to-run test harness: a backing runtime (fake or netns),
// the clients pointed at it, a started event broker and an optional
// journal. Environments are created fresh per scenario run.
type Rig struct {
	Config *RigConfig

	// Fake is the in-process service double (fake runtime only)
	Fake *fakedns.Server

	// Broker carries run events while the rig is up
	Broker *events.Broker

	// Journal records run outcomes when JournalDir is set
	Journal *journal.Journal

	provisioner scenario.Provisioner
	launcher    scenario.Launcher
	names       *nameapi.Client
	resolver    *resolve.Resolver
	runner      *scenario.Runner
	started     bool
}

// NewRig creates a rig, filling in defaults for unset config fields
func NewRig(config *RigConfig) (*Rig, error) {
	if config == nil {
		config = &RigConfig{}
	}
	if config.Runtime == "" {
		config.Runtime = RuntimeFake
	}
	if config.Hosts == 0 {
		config.Hosts = topology.DefaultHosts
	}
	switch config.Runtime {
	case RuntimeFake:
		if config.ServiceTTL == 0 {
			config.ServiceTTL = 100 * time.Millisecond
		}
		if config.HarnessTTL == 0 {
			config.HarnessTTL = config.ServiceTTL
		}
		if config.CacheSlack == 0 {
			config.CacheSlack = 50 * time.Millisecond
		}
	case RuntimeNetns:
		if config.HarnessTTL == 0 {
			config.HarnessTTL = scenario.DefaultNegCacheTTL
		}
		if config.CacheSlack == 0 {
			config.CacheSlack = scenario.DefaultCacheSlack
		}
		if config.Binary == "" {
			return nil, fmt.Errorf("netns runtime needs a service binary")
		}
	default:
		return nil, fmt.Errorf("unknown runtime %q", config.Runtime)
	}
	return &Rig{Config: config}, nil
}

// Start brings the backing runtime up and wires the clients to it
func (r *Rig) Start() error {
	if r.started {
		return fmt.Errorf("rig already started")
	}

	switch r.Config.Runtime {
	case RuntimeFake:
		r.Fake = fakedns.New(fakedns.Config{TTL: r.Config.ServiceTTL})
		if err := r.Fake.Start(); err != nil {
			return fmt.Errorf("start service double: %w", err)
		}
		r.provisioner = &localProvisioner{hosts: r.Config.Hosts}
		r.launcher = &localLauncher{}
		r.names = nameapi.NewClient().WithPort(r.Fake.ControlPort())
		r.resolver = resolve.NewResolver().WithPort(r.Fake.DNSPort()).WithTimeout(time.Second)
	case RuntimeNetns:
		r.provisioner = topology.NewProvisioner(topology.Config{Hosts: r.Config.Hosts})
		r.launcher = &netnsLauncher{launcher.New(launcher.Config{
			Binary: r.Config.Binary,
			Debug:  r.Config.Debug,
		})}
		r.names = nameapi.NewClient()
		r.resolver = resolve.NewResolver()
	}

	if r.Config.JournalDir != "" {
		jnl, err := journal.Open(r.Config.JournalDir)
		if err != nil {
			r.shutdownRuntime()
			return fmt.Errorf("open journal: %w", err)
		}
		r.Journal = jnl
	}

	r.Broker = events.NewBroker()
	r.Broker.Start()
	r.runner = &scenario.Runner{Journal: r.Journal, Broker: r.Broker}
	r.started = true
	return nil
}

// Stop releases everything the rig holds. Environments created by NewEnv
// are owned by their runs and are not touched here.
func (r *Rig) Stop() error {
	if !r.started {
		return nil
	}
	r.started = false

	var firstErr error
	if r.Broker != nil {
		r.Broker.Stop()
	}
	if r.Journal != nil {
		if err := r.Journal.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := r.shutdownRuntime(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Cleanup is Stop for deferred use
func (r *Rig) Cleanup() {
	_ = r.Stop()
}

func (r *Rig) shutdownRuntime() error {
	if r.Fake != nil {
		err := r.Fake.Stop()
		r.Fake = nil
		return err
	}
	return nil
}

// NewEnv builds a fresh single-use environment wired to the rig
func (r *Rig) NewEnv() *scenario.Env {
	return scenario.NewEnv(
		scenario.Config{
			Hosts:       r.Config.Hosts,
			NegCacheTTL: r.Config.HarnessTTL,
			CacheSlack:  r.Config.CacheSlack,
			ConnCheck:   r.Config.ConnCheck,
		},
		scenario.Deps{
			Provisioner: r.provisioner,
			Launcher:    r.launcher,
			Names:       r.names,
			Resolver:    r.resolver,
			Broker:      r.Broker,
		},
	)
}

// RunScenario executes one named scenario against a fresh environment
func (r *Rig) RunScenario(ctx context.Context, name string) scenario.Report {
	return r.runner.Run(ctx, name, r.NewEnv())
}

// Client returns a test client addressing the first host's instance. For
// the fake runtime every host resolves to the same double.
func (r *Rig) Client() *Client {
	server := "10.0.0.1"
	if r.Config.Runtime == RuntimeFake {
		server = r.Fake.Addr()
	}
	return &Client{
		Server:   server,
		Names:    r.names,
		Resolver: r.resolver,
	}
}

// localProvisioner hands out loopback hosts for the fake runtime
type localProvisioner struct {
	hosts int
}

func (p *localProvisioner) Provision(ctx context.Context) (*topology.Network, error) {
	nw := &topology.Network{}
	for i := 0; i < p.hosts; i++ {
		nw.Hosts = append(nw.Hosts, topology.NewLocalHost(
			fmt.Sprintf("h%d", i+1),
			netip.MustParseAddr("127.0.0.1"),
			"lo",
		))
	}
	return nw, nil
}

func (p *localProvisioner) Teardown(nw *topology.Network) error {
	return nil
}

// localLauncher pairs each host with the shared service double
type localLauncher struct{}

func (l *localLauncher) Launch(ctx context.Context, host *topology.Host) (scenario.Instance, error) {
	return &localInstance{name: host.Name, server: host.IP()}, nil
}

type localInstance struct {
	name   string
	server string
}

func (i *localInstance) Name() string   { return i.name }
func (i *localInstance) Server() string { return i.server }
func (i *localInstance) Stop() error    { return nil }
func (i *localInstance) DrainOutput()   {}

// netnsLauncher adapts the concrete launcher to the scenario interface
type netnsLauncher struct {
	l *launcher.Launcher
}

func (n *netnsLauncher) Launch(ctx context.Context, host *topology.Host) (scenario.Instance, error) {
	inst, err := n.l.Launch(ctx, host)
	if err != nil {
		return nil, err
	}
	return inst, nil
}
