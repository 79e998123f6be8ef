package nameapi

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackmesh/dnsrig/pkg/errdefs"
)

// recorded captures one control API request for inspection
type recorded struct {
	Method string
	Path   string
	Query  url.Values
}

// startControlServer runs an httptest server that records name operations
// and returns a client pointed at it plus the request log
func startControlServer(t *testing.T, status int) (*Client, string, *[]recorded) {
	t.Helper()

	var mu sync.Mutex
	var requests []recorded

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests = append(requests, recorded{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
		})
		mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)

	u, err := url.Parse(server.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	return NewClient().WithPort(port), u.Hostname(), &requests
}

func TestPublish_RequestShape(t *testing.T) {
	client, server, requests := startControlServer(t, http.StatusOK)

	err := client.Publish(context.Background(), server, "container", "something.weave.local.", "10.0.0.9")
	require.NoError(t, err)

	require.Len(t, *requests, 1)
	req := (*requests)[0]
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/name/container/10.0.0.9", req.Path)
	assert.Equal(t, "something.weave.local.", req.Query.Get("fqdn"))
}

func TestDelete_RequestShape(t *testing.T) {
	client, server, requests := startControlServer(t, http.StatusOK)

	err := client.Delete(context.Background(), server, "container", "something.weave.local.", "10.0.0.9")
	require.NoError(t, err)

	require.Len(t, *requests, 1)
	req := (*requests)[0]
	assert.Equal(t, http.MethodDelete, req.Method)
	assert.Equal(t, "/name/container/10.0.0.9", req.Path)
	assert.Equal(t, "something.weave.local.", req.Query.Get("fqdn"))
}

func TestPublish_IgnoresResponseStatus(t *testing.T) {
	// The legacy harness never looked at the response; record liveness is
	// asserted through resolution instead.
	client, server, _ := startControlServer(t, http.StatusNotFound)

	err := client.Publish(context.Background(), server, "container", "something.weave.local.", "10.0.0.9")
	assert.NoError(t, err)
}

func TestPublish_ConnectionFailureIsTestError(t *testing.T) {
	client, server := refusingClient(t)

	err := client.Publish(context.Background(), server, "container", "something.weave.local.", "10.0.0.9")
	require.Error(t, err)
	assert.True(t, errdefs.IsTest(err), "connection failure must be a test error, got %v", err)
}

func TestDelete_ConnectionFailureIsTestError(t *testing.T) {
	client, server := refusingClient(t)

	err := client.Delete(context.Background(), server, "container", "something.weave.local.", "10.0.0.9")
	require.Error(t, err)
	assert.True(t, errdefs.IsTest(err), "connection failure must be a test error, got %v", err)
}

func TestStatus_Ready(t *testing.T) {
	client, server, requests := startControlServer(t, http.StatusOK)

	err := client.Status(context.Background(), server)
	require.NoError(t, err)

	require.Len(t, *requests, 1)
	assert.Equal(t, "/status", (*requests)[0].Path)
}

func TestStatus_NotReady(t *testing.T) {
	client, server, _ := startControlServer(t, http.StatusServiceUnavailable)

	err := client.Status(context.Background(), server)
	assert.Error(t, err)
}

func TestStatus_ConnectionRefused(t *testing.T) {
	client, server := refusingClient(t)

	err := client.Status(context.Background(), server)
	assert.Error(t, err)
}

func TestStatusURL(t *testing.T) {
	client := NewClient()
	assert.Equal(t, "http://10.0.0.2:6785/status", client.StatusURL("10.0.0.2"))
}

// refusingClient returns a client pointed at a port that refuses connections
func refusingClient(t *testing.T) (*Client, string) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().(*net.TCPAddr)
	require.NoError(t, ln.Close())

	return NewClient().WithPort(addr.Port), addr.IP.String()
}
