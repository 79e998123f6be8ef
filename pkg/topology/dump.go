package topology

import (
	"fmt"

	"github.com/vishvananda/netlink"

	"github.com/stackmesh/dnsrig/pkg/log"
)

// DumpDevices logs every link, address and route visible inside the
// host's namespace. Diagnostic aid for debug runs.
func DumpDevices(h *Host) error {
	return h.InNamespace(func() error {
		links, err := netlink.LinkList()
		if err != nil {
			return fmt.Errorf("list links on %s: %w", h.Name, err)
		}
		for _, link := range links {
			attrs := link.Attrs()
			addrs, err := netlink.AddrList(link, netlink.FAMILY_V4)
			if err != nil {
				return fmt.Errorf("list addresses of %s on %s: %w", attrs.Name, h.Name, err)
			}
			strs := make([]string, 0, len(addrs))
			for _, a := range addrs {
				strs = append(strs, a.IPNet.String())
			}
			log.Logger.Info().
				Str("component", "topology").
				Str("host", h.Name).
				Str("device", attrs.Name).
				Str("state", attrs.OperState.String()).
				Strs("addrs", strs).
				Msg("device state")
		}

		routes, err := netlink.RouteList(nil, netlink.FAMILY_V4)
		if err != nil {
			return fmt.Errorf("list routes on %s: %w", h.Name, err)
		}
		for _, r := range routes {
			dst := "default"
			if r.Dst != nil {
				dst = r.Dst.String()
			}
			log.Logger.Info().
				Str("component", "topology").
				Str("host", h.Name).
				Str("dst", dst).
				Int("link", r.LinkIndex).
				Msg("route")
		}
		return nil
	})
}
