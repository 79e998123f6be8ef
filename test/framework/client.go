package framework

import (
	"context"

	"github.com/stackmesh/dnsrig/pkg/nameapi"
	"github.com/stackmesh/dnsrig/pkg/resolve"
)

// Client bundles the control-API and DNS clients for one server with
// test-friendly methods
type Client struct {
	// Server is the instance address queries are sent to
	Server string
	// Names is the control API client
	Names *nameapi.Client
	// Resolver issues the DNS queries
	Resolver *resolve.Resolver
}

// Publish registers a container/FQDN/IP association on the server
func (c *Client) Publish(ctx context.Context, containerID, fqdn, ip string) error {
	return c.Names.Publish(ctx, c.Server, containerID, fqdn, ip)
}

// Delete removes a container/FQDN/IP association from the server
func (c *Client) Delete(ctx context.Context, containerID, fqdn, ip string) error {
	return c.Names.Delete(ctx, c.Server, containerID, fqdn, ip)
}

// Status probes the server's status endpoint
func (c *Client) Status(ctx context.Context) error {
	return c.Names.Status(ctx, c.Server)
}

// Lookup runs a forward query against the server
func (c *Client) Lookup(ctx context.Context, fqdn string) (*resolve.Result, error) {
	return c.Resolver.Forward(ctx, fqdn, c.Server)
}

// LookupPTR runs a reverse query against the server
func (c *Client) LookupPTR(ctx context.Context, ip string) (*resolve.Result, error) {
	return c.Resolver.Reverse(ctx, ip, c.Server)
}
