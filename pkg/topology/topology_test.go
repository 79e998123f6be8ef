package topology

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackmesh/dnsrig/pkg/errdefs"
)

func TestLocalHostRunsInCallerNamespace(t *testing.T) {
	h := NewLocalHost("h1", netip.MustParseAddr("127.0.0.1"), "lo")

	if got := h.IP(); got != "127.0.0.1" {
		t.Errorf("IP() = %q, want %q", got, "127.0.0.1")
	}

	ran := false
	if err := h.InNamespace(func() error {
		ran = true
		return nil
	}); err != nil {
		t.Fatalf("InNamespace() error = %v", err)
	}
	if !ran {
		t.Error("InNamespace() did not run the function")
	}

	want := errors.New("boom")
	if err := h.InNamespace(func() error { return want }); !errors.Is(err, want) {
		t.Errorf("InNamespace() error = %v, want %v", err, want)
	}
}

func TestPair(t *testing.T) {
	nw := &Network{}
	if _, _, err := nw.Pair(); err == nil {
		t.Error("Pair() on an empty network should fail")
	}

	nw.Hosts = []*Host{
		NewLocalHost("h1", netip.MustParseAddr("10.0.0.1"), "h1-eth0"),
		NewLocalHost("h2", netip.MustParseAddr("10.0.0.2"), "h2-eth0"),
		NewLocalHost("h3", netip.MustParseAddr("10.0.0.3"), "h3-eth0"),
	}
	a, b, err := nw.Pair()
	if err != nil {
		t.Fatalf("Pair() error = %v", err)
	}
	if a.Name != "h1" || b.Name != "h2" {
		t.Errorf("Pair() = %s, %s, want h1, h2", a.Name, b.Name)
	}
}

func TestHostNetlinkAddr(t *testing.T) {
	addr := hostNetlinkAddr(netip.MustParseAddr("10.0.0.7"))
	if got := addr.IPNet.String(); got != "10.0.0.7/8" {
		t.Errorf("hostNetlinkAddr() = %q, want %q", got, "10.0.0.7/8")
	}
}

func TestNewProvisionerDefaults(t *testing.T) {
	p := NewProvisioner(Config{})
	if p.cfg.Hosts != DefaultHosts {
		t.Errorf("Hosts = %d, want %d", p.cfg.Hosts, DefaultHosts)
	}
}

func TestProvisionRejectsHostCountOutOfRange(t *testing.T) {
	for _, hosts := range []int{-1, MaxHosts + 1} {
		p := &Provisioner{cfg: Config{Hosts: hosts}}
		_, err := p.Provision(context.Background())
		if err == nil {
			t.Fatalf("Provision() with %d hosts should fail", hosts)
		}
		if !errdefs.IsSetup(err) {
			t.Errorf("Provision() with %d hosts error = %v, want setup error", hosts, err)
		}
	}
}

func TestTeardownNilNetwork(t *testing.T) {
	p := NewProvisioner(Config{})
	if err := p.Teardown(nil); err != nil {
		t.Errorf("Teardown(nil) error = %v", err)
	}
}

func TestDumpDevicesLocalHost(t *testing.T) {
	h := NewLocalHost("local", netip.MustParseAddr("127.0.0.1"), "lo")
	if err := DumpDevices(h); err != nil {
		t.Fatalf("DumpDevices() error = %v", err)
	}
}

func TestProvisionLifecycle(t *testing.T) {
	if os.Getuid() != 0 {
		t.Skip("test requires root")
	}

	p := NewProvisioner(Config{Hosts: 2})
	nw, err := p.Provision(context.Background())
	require.NoError(t, err)
	defer p.Teardown(nw)

	require.Len(t, nw.Hosts, 2)

	h1, h2, err := nw.Pair()
	require.NoError(t, err)
	assert.Equal(t, "h1", h1.Name)
	assert.Equal(t, "10.0.0.1", h1.IP())
	assert.Equal(t, "h1-eth0", h1.Iface)
	assert.Equal(t, "h2", h2.Name)
	assert.Equal(t, "10.0.0.2", h2.IP())

	// The data interface must be visible inside the namespace
	err = h1.InNamespace(func() error {
		_, err := net.InterfaceByName(h1.Iface)
		return err
	})
	assert.NoError(t, err)

	require.NoError(t, DumpDevices(h1))

	require.NoError(t, p.Teardown(nw))
	require.NoError(t, p.Teardown(nw), "teardown must be safe to repeat")
}

func TestMulticastAcrossBridge(t *testing.T) {
	if os.Getuid() != 0 {
		t.Skip("test requires root")
	}

	p := NewProvisioner(Config{Hosts: 2})
	nw, err := p.Provision(context.Background())
	require.NoError(t, err)
	defer p.Teardown(nw)

	h1, h2, err := nw.Pair()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, checkMulticast(ctx, h1, h2))
}
