package scenario

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/stackmesh/dnsrig/pkg/events"
	"github.com/stackmesh/dnsrig/pkg/log"
	"github.com/stackmesh/dnsrig/pkg/nameapi"
	"github.com/stackmesh/dnsrig/pkg/resolve"
	"github.com/stackmesh/dnsrig/pkg/topology"
)

const (
	// DefaultNegCacheTTL matches the negative-cache TTL of the service
	// under test; deletions and re-publications become observable only
	// after it passes.
	DefaultNegCacheTTL = 30 * time.Second

	// DefaultCacheSlack is added on top of the TTL before re-querying
	DefaultCacheSlack = 1 * time.Second

	cleanupTimeout = 5 * time.Second
)

// Provisioner builds and tears down the emulated network
type Provisioner interface {
	Provision(ctx context.Context) (*topology.Network, error)
	Teardown(nw *topology.Network) error
}

// Launcher starts one service instance on a host
type Launcher interface {
	Launch(ctx context.Context, host *topology.Host) (Instance, error)
}

// Instance is one running service instance under test
type Instance interface {
	Name() string
	Server() string
	Stop() error
	DrainOutput()
}

// Config carries the scenario-facing knobs of a run
type Config struct {
	// Hosts is the number of emulated hosts (default 2)
	Hosts int

	// NegCacheTTL is the cache TTL of the service under test
	NegCacheTTL time.Duration

	// CacheSlack is added to NegCacheTTL when waiting out the cache
	CacheSlack time.Duration

	// ConnCheck runs the topology preflight before launching instances
	ConnCheck bool
}

// Deps are the collaborators an Env drives. Nil optional fields get real
// implementations; the provisioner and launcher are required.
type Deps struct {
	Provisioner Provisioner
	Launcher    Launcher

	// Names is the control API client (default: standard port, no TLS)
	Names *nameapi.Client

	// Resolver issues the DNS queries (default: port 53, 3s timeout)
	Resolver *resolve.Resolver

	// Broker receives run events when set
	Broker *events.Broker

	// Preflight overrides the connectivity check (default: the real one)
	Preflight func(ctx context.Context, nw *topology.Network) error
}

// Env is the prepared environment a scenario runs against: the provisioned
// network, one ready service instance per host, and the clients to talk to
// them. Cleanup is collected as setup progresses and released LIFO by
// Close, so a failure at any stage unwinds exactly what was built.
type Env struct {
	cfg  Config
	deps Deps

	runID    string
	scenario string

	network   *topology.Network
	instances []Instance

	mu       sync.Mutex
	cleanups []func()
	closed   sync.Once
}

// NewEnv creates an environment, filling in defaults for unset config
// fields and optional deps
func NewEnv(cfg Config, deps Deps) *Env {
	if cfg.Hosts == 0 {
		cfg.Hosts = topology.DefaultHosts
	}
	if cfg.NegCacheTTL == 0 {
		cfg.NegCacheTTL = DefaultNegCacheTTL
	}
	if cfg.CacheSlack == 0 {
		cfg.CacheSlack = DefaultCacheSlack
	}
	if deps.Names == nil {
		deps.Names = nameapi.NewClient()
	}
	if deps.Resolver == nil {
		deps.Resolver = resolve.NewResolver()
	}
	if deps.Preflight == nil {
		deps.Preflight = topology.Preflight
	}
	return &Env{cfg: cfg, deps: deps}
}

// Tag stamps the env with the run identity, used on emitted events
func (e *Env) Tag(runID, scenario string) {
	e.runID = runID
	e.scenario = scenario
}

// Setup provisions the network and launches one service instance per
// host. Every resource that comes up registers its own cleanup, so the
// caller only ever needs Close.
func (e *Env) Setup(ctx context.Context) error {
	nw, err := e.deps.Provisioner.Provision(ctx)
	if err != nil {
		return err
	}
	e.network = nw
	e.Defer(func() {
		if err := e.deps.Provisioner.Teardown(nw); err != nil {
			log.Logger.Warn().
				Str("component", "scenario").
				Err(err).
				Msg("topology teardown failed")
		}
		e.emit(events.EventTopologyDown, "", nil)
	})
	e.emit(events.EventTopologyUp, "", map[string]string{
		"hosts": fmt.Sprintf("%d", len(nw.Hosts)),
	})

	if e.cfg.ConnCheck {
		if err := e.deps.Preflight(ctx, nw); err != nil {
			return err
		}
	}

	for _, host := range nw.Hosts {
		inst, err := e.deps.Launcher.Launch(ctx, host)
		if err != nil {
			return err
		}
		e.instances = append(e.instances, inst)

		e.Defer(func() {
			if err := inst.Stop(); err != nil {
				log.Logger.Warn().
					Str("component", "scenario").
					Str("host", inst.Name()).
					Err(err).
					Msg("instance stop failed")
			}
			inst.DrainOutput()
			e.emit(events.EventInstanceStopped, inst.Name(), nil)
		})
		e.emit(events.EventInstanceReady, inst.Name(), map[string]string{
			"server": inst.Server(),
		})
	}

	return nil
}

// Defer registers a cleanup to run on Close. Cleanups run in reverse
// registration order.
func (e *Env) Defer(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cleanups = append(e.cleanups, fn)
}

// Close releases everything the env built, newest first. Safe to call
// more than once; only the first call does work.
func (e *Env) Close() {
	e.closed.Do(func() {
		e.mu.Lock()
		cleanups := e.cleanups
		e.cleanups = nil
		e.mu.Unlock()

		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	})
}

// CleanupName registers a best-effort deletion of a published record, so
// the record disappears even when the scenario fails mid-sequence. Runs
// with its own deadline: by cleanup time the scenario context is often
// already canceled.
func (e *Env) CleanupName(server, containerID, fqdn, ip string) {
	e.Defer(func() {
		ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
		defer cancel()

		if err := e.deps.Names.Delete(ctx, server, containerID, fqdn, ip); err != nil {
			log.Logger.Warn().
				Str("component", "scenario").
				Str("fqdn", fqdn).
				Err(err).
				Msg("record cleanup failed")
		}
	})
}

// WaitExpiry sleeps until the previous answer has aged out of the service
// cache
func (e *Env) WaitExpiry(ctx context.Context, reason string) error {
	wait := e.ExpiryWait()
	log.Logger.Info().
		Str("component", "scenario").
		Dur("wait", wait).
		Msgf("waiting for %s to expire", reason)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}

// ExpiryWait returns the full cache-expiry wait: TTL plus slack
func (e *Env) ExpiryWait() time.Duration {
	return e.cfg.NegCacheTTL + e.cfg.CacheSlack
}

// Network returns the provisioned network, nil before Setup
func (e *Env) Network() *topology.Network {
	return e.network
}

// Instances returns the ready service instances in host order
func (e *Env) Instances() []Instance {
	return e.instances
}

// Pair returns the first two instances
func (e *Env) Pair() (Instance, Instance, error) {
	if len(e.instances) < 2 {
		return nil, nil, fmt.Errorf("need at least 2 instances, have %d", len(e.instances))
	}
	return e.instances[0], e.instances[1], nil
}

// Names returns the control API client
func (e *Env) Names() *nameapi.Client {
	return e.deps.Names
}

// Resolver returns the DNS client
func (e *Env) Resolver() *resolve.Resolver {
	return e.deps.Resolver
}

// Hosts returns the configured host count
func (e *Env) Hosts() int {
	return e.cfg.Hosts
}

func (e *Env) emit(t events.EventType, msg string, meta map[string]string) {
	if e.deps.Broker == nil {
		return
	}
	e.deps.Broker.Publish(&events.Event{
		RunID:    e.runID,
		Scenario: e.scenario,
		Type:     t,
		Message:  msg,
		Metadata: meta,
	})
}
