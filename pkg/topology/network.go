package topology

import (
	"fmt"
	"net/netip"
	"runtime"

	"github.com/vishvananda/netns"
)

// Host is one emulated host on the test network. Real hosts own a named
// network namespace; hosts built with NewLocalHost run in the caller's
// namespace, which keeps the scenario layer testable without root.
type Host struct {
	// Name is the short host name (h1, h2, ...)
	Name string

	// Addr is the host's address on the test subnet
	Addr netip.Addr

	// Iface is the name of the host's data interface, as seen inside its
	// namespace
	Iface string

	ns    netns.NsHandle
	hasNS bool
}

// NewLocalHost creates a host that runs in the caller's namespace. Used by
// tests and by runs against an in-process service double.
func NewLocalHost(name string, addr netip.Addr, iface string) *Host {
	return &Host{Name: name, Addr: addr, Iface: iface}
}

// IP returns the host's address as a string
func (h *Host) IP() string {
	return h.Addr.String()
}

// InNamespace runs fn on an OS thread switched into the host's network
// namespace, restoring the thread's original namespace afterwards. Any
// process spawned by fn inherits the host's namespace, because a child
// process takes the namespace of the thread that forks it. Sockets opened
// by fn stay bound to the host's namespace and may be used from any
// goroutine afterwards.
//
// For hosts without a namespace fn runs directly.
func (h *Host) InNamespace(fn func() error) error {
	if !h.hasNS {
		return fn()
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	origin, err := netns.Get()
	if err != nil {
		return fmt.Errorf("get current namespace: %w", err)
	}
	defer origin.Close()

	if err := netns.Set(h.ns); err != nil {
		return fmt.Errorf("enter namespace of %s: %w", h.Name, err)
	}
	defer func() {
		// The thread is unusable for anything else if this fails, but it
		// is locked and will be thrown away with the goroutine.
		_ = netns.Set(origin)
	}()

	return fn()
}

// Network is a provisioned test topology: hosts on a shared switch, plus a
// link into the root namespace so the harness can reach them.
type Network struct {
	// Hosts are the emulated hosts, in creation order
	Hosts []*Host

	bridge   string
	rootLink string
}

// Pair returns the first two hosts, which the stock scenarios and the
// connectivity preflight operate on.
func (n *Network) Pair() (*Host, *Host, error) {
	if len(n.Hosts) < 2 {
		return nil, nil, fmt.Errorf("need at least 2 hosts, have %d", len(n.Hosts))
	}
	return n.Hosts[0], n.Hosts[1], nil
}
