package nameapi

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/stackmesh/dnsrig/pkg/errdefs"
	"github.com/stackmesh/dnsrig/pkg/log"
	"github.com/stackmesh/dnsrig/pkg/metrics"
)

// DefaultPort is the control-plane port every service instance listens on
const DefaultPort = 6785

// Client drives the naming HTTP API of a service instance: publish and
// delete of (container, fqdn, ip) records plus the /status readiness probe.
// Publish and delete are control-plane setup actions, not resilience-tested
// paths, so the client never retries; one connection failure is a hard test
// failure.
type Client struct {
	// Port is the control-plane port on the target server
	Port int

	httpc *http.Client
}

// NewClient creates a control API client with the standard port
func NewClient() *Client {
	return &Client{
		Port: DefaultPort,
		httpc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// WithPort sets the control-plane port
func (c *Client) WithPort(port int) *Client {
	c.Port = port
	return c
}

// WithTimeout sets the HTTP client timeout
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.httpc.Timeout = timeout
	return c
}

// Publish registers fqdn -> ip for a container on the instance at server.
// Returns a TestError on connection failure.
func (c *Client) Publish(ctx context.Context, server, containerID, fqdn, ip string) error {
	log.Logger.Info().
		Str("component", "nameapi").
		Str("fqdn", fqdn).
		Str("ip", ip).
		Str("server", server).
		Msg("publishing name")

	err := c.do(ctx, http.MethodPut, "publish", server, containerID, fqdn, ip)
	return errdefs.WrapTest(err, fmt.Sprintf("publish %s at %s", fqdn, server))
}

// Delete removes the fqdn -> ip record for a container on the instance at
// server. Returns a TestError on connection failure.
func (c *Client) Delete(ctx context.Context, server, containerID, fqdn, ip string) error {
	log.Logger.Info().
		Str("component", "nameapi").
		Str("fqdn", fqdn).
		Str("ip", ip).
		Str("server", server).
		Msg("deleting name")

	err := c.do(ctx, http.MethodDelete, "delete", server, containerID, fqdn, ip)
	return errdefs.WrapTest(err, fmt.Sprintf("delete %s at %s", fqdn, server))
}

// Status asks the instance at server whether it is ready. Any 2xx answer
// counts as ready; everything else, including connection failures, is an
// error.
func (c *Client) Status(ctx context.Context, server string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.StatusURL(server), nil)
	if err != nil {
		return err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("status endpoint returned HTTP %d", resp.StatusCode)
	}
	return nil
}

// StatusURL returns the readiness endpoint URL for the instance at server
func (c *Client) StatusURL(server string) string {
	return fmt.Sprintf("http://%s/status", net.JoinHostPort(server, strconv.Itoa(c.Port)))
}

// do issues a single name operation. The response status is logged but not
// interpreted: the legacy harness ignored it, and the assertions downstream
// observe the record through resolution instead.
func (c *Client) do(ctx context.Context, method, operation, server, containerID, fqdn, ip string) error {
	u := url.URL{
		Scheme:   "http",
		Host:     net.JoinHostPort(server, strconv.Itoa(c.Port)),
		Path:     fmt.Sprintf("/name/%s/%s", containerID, ip),
		RawQuery: url.Values{"fqdn": []string{fqdn}}.Encode(),
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		metrics.NameAPIRequestsTotal.WithLabelValues(operation, "error").Inc()
		return err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		metrics.NameAPIRequestsTotal.WithLabelValues(operation, "error").Inc()
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	metrics.NameAPIRequestsTotal.WithLabelValues(operation, strconv.Itoa(resp.StatusCode)).Inc()

	log.Logger.Debug().
		Str("component", "nameapi").
		Str("method", method).
		Str("url", u.String()).
		Int("status", resp.StatusCode).
		Msg("control API response")

	return nil
}
