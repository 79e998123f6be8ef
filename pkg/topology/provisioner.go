package topology

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"os"
	"runtime"
	"time"

	"github.com/vishvananda/netlink"
	"github.com/vishvananda/netns"

	"github.com/stackmesh/dnsrig/pkg/errdefs"
	"github.com/stackmesh/dnsrig/pkg/log"
	"github.com/stackmesh/dnsrig/pkg/metrics"
)

const (
	// DefaultHosts is the number of emulated hosts when none is requested
	DefaultHosts = 2

	// MaxHosts bounds host addresses to the 10.0.0.x range
	MaxHosts = 250

	bridgeName   = "dnsrig0"
	nsPrefix     = "dnsrig-"
	rootLinkName = "dnsrig-root"
	rootPeerName = "dnsrig-rootbr"

	// settleDelay gives the root link time to come up before traffic
	settleDelay = 1 * time.Second

	subnetBits = 8
)

var (
	// RootAddr is the root namespace's address on the test subnet
	RootAddr = netip.MustParseAddr("10.123.123.1")

	// mdnsGroup is the multicast group the service under test discovers
	// peers on; every host gets an explicit route for it
	mdnsGroup = netip.MustParseAddr("224.0.0.251")
)

// Config configures the provisioner
type Config struct {
	// Hosts is the number of emulated hosts (default 2)
	Hosts int
}

// Provisioner builds and tears down emulated test networks in the kernel:
// a bridge as the switch, a named namespace plus veth pair per host, and a
// veth link from the bridge into the root namespace.
type Provisioner struct {
	cfg Config
}

// NewProvisioner creates a provisioner, filling in defaults for unset
// config fields
func NewProvisioner(cfg Config) *Provisioner {
	if cfg.Hosts == 0 {
		cfg.Hosts = DefaultHosts
	}
	return &Provisioner{cfg: cfg}
}

// Provision builds the topology. On any failure the partial topology is
// torn down before the error is returned, so a failed Provision leaves no
// kernel state behind. Failures are SetupErrors.
func (p *Provisioner) Provision(ctx context.Context) (*Network, error) {
	if p.cfg.Hosts < 1 || p.cfg.Hosts > MaxHosts {
		return nil, errdefs.Setupf("host count %d out of range 1..%d", p.cfg.Hosts, MaxHosts)
	}

	log.Logger.Info().
		Str("component", "topology").
		Int("hosts", p.cfg.Hosts).
		Msg("provisioning topology")

	// Namespace switches bind to the OS thread
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	origin, err := netns.Get()
	if err != nil {
		return nil, errdefs.WrapSetup(err, "get root namespace")
	}
	defer origin.Close()

	nw := &Network{}
	if err := p.build(ctx, origin, nw); err != nil {
		metrics.SetupFailures.Inc()
		if terr := p.Teardown(nw); terr != nil {
			log.Logger.Warn().
				Str("component", "topology").
				Err(terr).
				Msg("cleanup after failed provisioning left state behind")
		}
		return nil, errdefs.WrapSetup(err, "provision topology")
	}

	metrics.HostsProvisioned.Set(float64(len(nw.Hosts)))
	log.Logger.Info().
		Str("component", "topology").
		Int("hosts", len(nw.Hosts)).
		Str("root", RootAddr.String()).
		Msg("topology up")
	return nw, nil
}

func (p *Provisioner) build(ctx context.Context, origin netns.NsHandle, nw *Network) error {
	br := &netlink.Bridge{LinkAttrs: netlink.LinkAttrs{Name: bridgeName}}
	if err := netlink.LinkAdd(br); err != nil {
		return fmt.Errorf("create bridge %s: %w", bridgeName, err)
	}
	nw.bridge = bridgeName
	if err := netlink.LinkSetUp(br); err != nil {
		return fmt.Errorf("bring up bridge %s: %w", bridgeName, err)
	}

	for i := 0; i < p.cfg.Hosts; i++ {
		host, err := p.provisionHost(origin, br, i)
		if host != nil {
			nw.Hosts = append(nw.Hosts, host)
		}
		if err != nil {
			return err
		}
	}

	if err := p.connectRoot(origin, br, nw); err != nil {
		return err
	}

	// Let the bridge learn the new ports before anything sends
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(settleDelay):
	}
	return nil
}

// provisionHost creates one host: a named namespace, a veth pair with one
// end enslaved to the bridge and the other moved into the namespace, the
// host address, and the multicast route the service under test needs. The
// host is returned even on error so the caller can tear it down.
func (p *Provisioner) provisionHost(origin netns.NsHandle, br *netlink.Bridge, i int) (*Host, error) {
	name := fmt.Sprintf("h%d", i+1)
	addr := netip.AddrFrom4([4]byte{10, 0, 0, byte(i + 1)})
	iface := name + "-eth0"
	peer := name + "-link"

	log.Logger.Debug().
		Str("component", "topology").
		Str("host", name).
		Str("ip", addr.String()).
		Str("iface", iface).
		Msg("provisioning host")

	// NewNamed moves the calling thread into the new namespace
	handle, err := netns.NewNamed(nsPrefix + name)
	if err != nil {
		return nil, fmt.Errorf("create namespace for %s: %w", name, err)
	}
	host := &Host{Name: name, Addr: addr, Iface: iface, ns: handle, hasNS: true}

	if err := netns.Set(origin); err != nil {
		return host, fmt.Errorf("return to root namespace: %w", err)
	}

	veth := &netlink.Veth{
		LinkAttrs: netlink.LinkAttrs{Name: iface},
		PeerName:  peer,
	}
	if err := netlink.LinkAdd(veth); err != nil {
		return host, fmt.Errorf("create veth pair for %s: %w", name, err)
	}

	peerLink, err := netlink.LinkByName(peer)
	if err != nil {
		return host, fmt.Errorf("find bridge end of %s: %w", name, err)
	}
	if err := netlink.LinkSetMaster(peerLink, br); err != nil {
		return host, fmt.Errorf("attach %s to bridge: %w", peer, err)
	}
	if err := netlink.LinkSetUp(peerLink); err != nil {
		return host, fmt.Errorf("bring up %s: %w", peer, err)
	}

	hostLink, err := netlink.LinkByName(iface)
	if err != nil {
		return host, fmt.Errorf("find host end of %s: %w", name, err)
	}
	if err := netlink.LinkSetNsFd(hostLink, int(handle)); err != nil {
		return host, fmt.Errorf("move %s into namespace: %w", iface, err)
	}

	if err := netns.Set(handle); err != nil {
		return host, fmt.Errorf("enter namespace of %s: %w", name, err)
	}
	defer func() {
		_ = netns.Set(origin)
	}()

	lo, err := netlink.LinkByName("lo")
	if err == nil {
		err = netlink.LinkSetUp(lo)
	}
	if err != nil {
		return host, fmt.Errorf("bring up loopback in %s: %w", name, err)
	}

	link, err := netlink.LinkByName(iface)
	if err != nil {
		return host, fmt.Errorf("find %s in namespace: %w", iface, err)
	}
	if err := netlink.AddrAdd(link, hostNetlinkAddr(addr)); err != nil {
		return host, fmt.Errorf("add %s to %s: %w", addr, iface, err)
	}
	if err := netlink.LinkSetUp(link); err != nil {
		return host, fmt.Errorf("bring up %s: %w", iface, err)
	}

	// The route must exist before the service instance starts, or its
	// first mDNS announcements go nowhere
	mdnsRoute := &netlink.Route{
		LinkIndex: link.Attrs().Index,
		Scope:     netlink.SCOPE_LINK,
		Dst: &net.IPNet{
			IP:   mdnsGroup.AsSlice(),
			Mask: net.CIDRMask(32, 32),
		},
	}
	if err := netlink.RouteAdd(mdnsRoute); err != nil {
		return host, fmt.Errorf("add multicast route in %s: %w", name, err)
	}

	return host, nil
}

// connectRoot links the root namespace onto the bridge so the harness can
// reach the hosts' control and DNS ports directly.
func (p *Provisioner) connectRoot(origin netns.NsHandle, br *netlink.Bridge, nw *Network) error {
	log.Logger.Debug().
		Str("component", "topology").
		Str("ip", RootAddr.String()).
		Str("iface", rootLinkName).
		Msg("connecting root namespace")

	veth := &netlink.Veth{
		LinkAttrs: netlink.LinkAttrs{Name: rootLinkName},
		PeerName:  rootPeerName,
	}
	if err := netlink.LinkAdd(veth); err != nil {
		return fmt.Errorf("create root link: %w", err)
	}
	nw.rootLink = rootLinkName

	peerLink, err := netlink.LinkByName(rootPeerName)
	if err != nil {
		return fmt.Errorf("find bridge end of root link: %w", err)
	}
	if err := netlink.LinkSetMaster(peerLink, br); err != nil {
		return fmt.Errorf("attach root link to bridge: %w", err)
	}
	if err := netlink.LinkSetUp(peerLink); err != nil {
		return fmt.Errorf("bring up %s: %w", rootPeerName, err)
	}

	rootEnd, err := netlink.LinkByName(rootLinkName)
	if err != nil {
		return fmt.Errorf("find root end of root link: %w", err)
	}
	if err := netlink.AddrAdd(rootEnd, hostNetlinkAddr(RootAddr)); err != nil {
		return fmt.Errorf("add %s to root link: %w", RootAddr, err)
	}
	if err := netlink.LinkSetUp(rootEnd); err != nil {
		return fmt.Errorf("bring up %s: %w", rootLinkName, err)
	}

	// The kernel usually installs the connected route with the address;
	// add it explicitly and tolerate the duplicate
	route := &netlink.Route{
		LinkIndex: rootEnd.Attrs().Index,
		Scope:     netlink.SCOPE_LINK,
		Dst: &net.IPNet{
			IP:   net.IPv4(10, 0, 0, 0),
			Mask: net.CIDRMask(subnetBits, 32),
		},
	}
	if err := netlink.RouteAdd(route); err != nil && !errors.Is(err, os.ErrExist) {
		return fmt.Errorf("add subnet route: %w", err)
	}
	return nil
}

// Teardown removes the topology from the kernel: namespaces first, which
// destroys the veth pairs inside them, then the root link and the bridge.
// It keeps going past individual failures and returns the first one. Safe
// on nil networks and safe to call twice.
func (p *Provisioner) Teardown(nw *Network) error {
	if nw == nil {
		return nil
	}

	log.Logger.Info().
		Str("component", "topology").
		Int("hosts", len(nw.Hosts)).
		Msg("tearing down topology")

	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	for _, h := range nw.Hosts {
		if !h.hasNS {
			continue
		}
		h.ns.Close()
		h.hasNS = false
		if err := netns.DeleteNamed(nsPrefix + h.Name); err != nil && !errors.Is(err, os.ErrNotExist) {
			keep(fmt.Errorf("delete namespace of %s: %w", h.Name, err))
		}
	}
	nw.Hosts = nil

	if nw.rootLink != "" {
		keep(deleteLink(nw.rootLink))
		nw.rootLink = ""
	}
	if nw.bridge != "" {
		keep(deleteLink(nw.bridge))
		nw.bridge = ""
	}

	metrics.HostsProvisioned.Set(0)
	return firstErr
}

func deleteLink(name string) error {
	link, err := netlink.LinkByName(name)
	if err != nil {
		var notFound netlink.LinkNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("find %s: %w", name, err)
	}
	if err := netlink.LinkDel(link); err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	return nil
}

func hostNetlinkAddr(addr netip.Addr) *netlink.Addr {
	return &netlink.Addr{
		IPNet: &net.IPNet{
			IP:   addr.AsSlice(),
			Mask: net.CIDRMask(subnetBits, 32),
		},
	}
}
