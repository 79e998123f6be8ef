package topology

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/stackmesh/dnsrig/pkg/errdefs"
	"github.com/stackmesh/dnsrig/pkg/health"
	"github.com/stackmesh/dnsrig/pkg/log"
)

const (
	pingTimeout   = 5 * time.Second
	multicastPort = 5001
	multicastWait = 3 * time.Second
	probeInterval = 200 * time.Millisecond
	probePayload  = "dnsrig-probe"
)

// Preflight verifies the provisioned topology actually carries traffic
// before any scenario runs on it: unicast both ways between the first two
// hosts, then one multicast datagram across the bridge. Failures are
// SetupErrors.
func Preflight(ctx context.Context, nw *Network) error {
	a, b, err := nw.Pair()
	if err != nil {
		return errdefs.WrapSetup(err, "preflight")
	}

	if err := checkUnicast(ctx, a, b); err != nil {
		return errdefs.WrapSetup(err, "preflight")
	}
	if err := checkUnicast(ctx, b, a); err != nil {
		return errdefs.WrapSetup(err, "preflight")
	}
	if err := checkMulticast(ctx, a, b); err != nil {
		return errdefs.WrapSetup(err, "preflight")
	}

	log.Logger.Info().
		Str("component", "topology").
		Msg("preflight passed")
	return nil
}

// checkUnicast pings to from inside from's namespace
func checkUnicast(ctx context.Context, from, to *Host) error {
	checker := health.NewExecChecker("ping", "-c1", to.IP()).WithTimeout(pingTimeout)

	var result health.Result
	err := from.InNamespace(func() error {
		result = checker.Check(ctx)
		return nil
	})
	if err != nil {
		return err
	}
	if !result.Healthy {
		return fmt.Errorf("ping %s -> %s failed: %s: %s", from.Name, to.Name, result.Message, result.Output)
	}

	log.Logger.Debug().
		Str("component", "topology").
		Str("from", from.Name).
		Str("to", to.Name).
		Msg("unicast check passed")
	return nil
}

// checkMulticast joins the mDNS group inside the receiver's namespace and
// sends datagrams to it from the sender's, proving the bridge forwards
// multicast between host ports.
func checkMulticast(ctx context.Context, receiver, sender *Host) error {
	group := &net.UDPAddr{IP: mdnsGroup.AsSlice(), Port: multicastPort}

	var in *net.UDPConn
	err := receiver.InNamespace(func() error {
		iface, err := net.InterfaceByName(receiver.Iface)
		if err != nil {
			return fmt.Errorf("find %s on %s: %w", receiver.Iface, receiver.Name, err)
		}
		in, err = net.ListenMulticastUDP("udp4", iface, group)
		if err != nil {
			return fmt.Errorf("join %s on %s: %w", group, receiver.Name, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	defer in.Close()

	received := make(chan error, 1)
	go func() {
		buf := make([]byte, 64)
		_ = in.SetReadDeadline(time.Now().Add(multicastWait))
		_, _, err := in.ReadFromUDP(buf)
		received <- err
	}()

	var out *net.UDPConn
	err = sender.InNamespace(func() error {
		local := &net.UDPAddr{IP: sender.Addr.AsSlice()}
		var err error
		out, err = net.DialUDP("udp4", local, group)
		if err != nil {
			return fmt.Errorf("dial %s from %s: %w", group, sender.Name, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := out.Write([]byte(probePayload)); err != nil {
		return fmt.Errorf("send multicast probe from %s: %w", sender.Name, err)
	}

	ticker := time.NewTicker(probeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-received:
			if err != nil {
				return fmt.Errorf("multicast %s -> %s: no datagram received: %w", sender.Name, receiver.Name, err)
			}
			log.Logger.Debug().
				Str("component", "topology").
				Str("from", sender.Name).
				Str("to", receiver.Name).
				Msg("multicast check passed")
			return nil
		case <-ticker.C:
			// Resend until the receiver hears one; datagrams sent before
			// the group join settles may be dropped
			_, _ = out.Write([]byte(probePayload))
		}
	}
}
