package launcher

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackmesh/dnsrig/pkg/errdefs"
	"github.com/stackmesh/dnsrig/pkg/topology"
)

func TestServiceArgs(t *testing.T) {
	got := serviceArgs("h1-eth0")
	want := []string{"-watch=false", "-debug", "-iface=h1-eth0", "-wait=0"}

	require.Equal(t, want, got)
}

func TestNewFillsDefaults(t *testing.T) {
	l := New(Config{Binary: "/usr/local/bin/weavedns"})

	assert.Equal(t, 6785, l.cfg.ControlPort)
	assert.Equal(t, DefaultStagger, l.cfg.Stagger)
	assert.Equal(t, 10, l.cfg.Policy.Attempts)
}

// fakeServiceScript writes a do-nothing service binary that ignores the
// harness flags and stays alive until signaled
func fakeServiceScript(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fakesvc")
	script := "#!/bin/sh\nsleep 30\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

// statusServer runs a control endpoint on loopback and returns the port it
// listens on
func statusServer(t *testing.T, status int) int {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)

	u, err := net.ResolveTCPAddr("tcp", srv.Listener.Addr().String())
	require.NoError(t, err)
	return u.Port
}

func localHost() *topology.Host {
	return topology.NewLocalHost("h1", netip.MustParseAddr("127.0.0.1"), "lo")
}

func TestLaunchReadyInstance(t *testing.T) {
	port := statusServer(t, http.StatusOK)

	l := New(Config{
		Binary:      fakeServiceScript(t),
		ControlPort: port,
		Stagger:     time.Millisecond,
		Policy:      fastPolicy(3),
	})

	inst, err := l.Launch(context.Background(), localHost())
	require.NoError(t, err)
	defer inst.Stop()

	assert.Equal(t, "h1", inst.Name())
	assert.Equal(t, "127.0.0.1", inst.Server())
	assert.Equal(t, port, inst.ControlPort)
	assert.True(t, inst.Proc.IsRunning())

	require.NoError(t, inst.Stop())
	assert.False(t, inst.Proc.IsRunning())
}

func TestLaunchReadinessFailureKillsProcess(t *testing.T) {
	port := statusServer(t, http.StatusInternalServerError)

	// The script records its PID so the test can verify the failed launch
	// did not leave it running
	dir := t.TempDir()
	pidFile := filepath.Join(dir, "pid")
	binary := filepath.Join(dir, "fakesvc")
	script := "#!/bin/sh\necho $$ > " + pidFile + "\nsleep 30\n"
	require.NoError(t, os.WriteFile(binary, []byte(script), 0o755))

	l := New(Config{
		Binary:      binary,
		ControlPort: port,
		Stagger:     time.Millisecond,
		Policy:      fastPolicy(2),
	})

	inst, err := l.Launch(context.Background(), localHost())
	require.Error(t, err)
	assert.Nil(t, inst)
	assert.True(t, errdefs.IsSetup(err), "readiness exhaustion must be a setup error, got %v", err)
	assert.Contains(t, err.Error(), "2 attempts")

	raw, err := os.ReadFile(pidFile)
	require.NoError(t, err)
	pid, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return syscall.Kill(pid, 0) != nil
	}, 2*time.Second, 10*time.Millisecond, "service process %d still alive after failed launch", pid)
}

func TestLaunchConnectionRefusedIsSetupError(t *testing.T) {
	// Reserve a port and close it again so nothing listens there
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr, err := net.ResolveTCPAddr("tcp", ln.Addr().String())
	require.NoError(t, err)
	require.NoError(t, ln.Close())

	l := New(Config{
		Binary:      fakeServiceScript(t),
		ControlPort: addr.Port,
		Stagger:     time.Millisecond,
		Policy:      fastPolicy(2),
	})

	inst, err := l.Launch(context.Background(), localHost())
	require.Error(t, err)
	assert.Nil(t, inst)
	assert.True(t, errdefs.IsSetup(err))
}

func TestLaunchCanceledDuringStagger(t *testing.T) {
	l := New(Config{
		Binary:  fakeServiceScript(t),
		Stagger: 10 * time.Second,
		Policy:  fastPolicy(1),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	inst, err := l.Launch(ctx, localHost())
	require.Error(t, err)
	assert.Nil(t, inst)
	assert.Less(t, time.Since(start), 2*time.Second)
}
