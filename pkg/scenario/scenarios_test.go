package scenario

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackmesh/dnsrig/pkg/errdefs"
	"github.com/stackmesh/dnsrig/pkg/nameapi"
	"github.com/stackmesh/dnsrig/pkg/resolve"
	"github.com/stackmesh/dnsrig/test/fakedns"
)

// fakednsEnv prepares a two-host env whose instances are both backed by
// the same in-process DNS double, with cache TTLs shrunk from seconds to
// milliseconds so the expiry scenarios run in well under a second.
func fakednsEnv(t *testing.T, serviceTTL, harnessTTL, slack time.Duration) *Env {
	t.Helper()

	srv := fakedns.New(fakedns.Config{TTL: serviceTTL})
	require.NoError(t, srv.Start())
	t.Cleanup(func() { _ = srv.Stop() })

	w := &world{}
	return NewEnv(
		Config{Hosts: 2, NegCacheTTL: harnessTTL, CacheSlack: slack},
		Deps{
			Provisioner: &fakeProvisioner{w: w, hosts: 2},
			Launcher:    &fakeLauncher{w: w},
			Names:       nameapi.NewClient().WithPort(srv.ControlPort()),
			Resolver:    resolve.NewResolver().WithPort(srv.DNSPort()).WithTimeout(time.Second),
		},
	)
}

func TestForwardExpiryScenario(t *testing.T) {
	env := fakednsEnv(t, 100*time.Millisecond, 100*time.Millisecond, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	report := (&Runner{}).Run(ctx, "forward-expiry", env)
	assert.Equal(t, OutcomePassed, report.Outcome, "run failed: %v", report.Err)
}

func TestReverseExpiryScenario(t *testing.T) {
	env := fakednsEnv(t, 100*time.Millisecond, 100*time.Millisecond, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	report := (&Runner{}).Run(ctx, "reverse-expiry", env)
	assert.Equal(t, OutcomePassed, report.Outcome, "run failed: %v", report.Err)
}

func TestResolutionScenario(t *testing.T) {
	env := fakednsEnv(t, time.Minute, time.Minute, time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	report := (&Runner{}).Run(ctx, "resolution", env)
	assert.Equal(t, OutcomePassed, report.Outcome, "run failed: %v", report.Err)
}

func TestExpiryCatchesLingeringRecord(t *testing.T) {
	// The service caches far longer than the harness is told, so the
	// deleted record is still visible when the harness re-queries
	env := fakednsEnv(t, 10*time.Second, 50*time.Millisecond, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	report := (&Runner{}).Run(ctx, "forward-expiry", env)

	assert.Equal(t, OutcomeTestFailed, report.Outcome)
	require.Error(t, report.Err)
	assert.True(t, errdefs.IsTest(report.Err))
	assert.Contains(t, report.Err.Error(), "after delete")
}

func TestScenarioCleanupDeletesRecord(t *testing.T) {
	serviceTTL := 100 * time.Millisecond

	srv := fakedns.New(fakedns.Config{TTL: serviceTTL})
	require.NoError(t, srv.Start())
	t.Cleanup(func() { _ = srv.Stop() })

	w := &world{}
	env := NewEnv(
		Config{Hosts: 2, NegCacheTTL: serviceTTL, CacheSlack: 50 * time.Millisecond},
		Deps{
			Provisioner: &fakeProvisioner{w: w, hosts: 2},
			Launcher:    &fakeLauncher{w: w},
			Names:       nameapi.NewClient().WithPort(srv.ControlPort()),
			Resolver:    resolve.NewResolver().WithPort(srv.DNSPort()).WithTimeout(time.Second),
		},
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	report := (&Runner{}).Run(ctx, "forward-expiry", env)
	require.Equal(t, OutcomePassed, report.Outcome, "run failed: %v", report.Err)

	// The scenario re-published the record in its final step; cleanup
	// must have deleted it on the way out
	time.Sleep(serviceTTL + 50*time.Millisecond)

	r := resolve.NewResolver().WithPort(srv.DNSPort()).WithTimeout(time.Second)
	res, err := r.Forward(ctx, "something.weave.local.", "127.0.0.1")
	require.NoError(t, err)
	assert.True(t, res.Empty(), "cleanup should have removed the record, got %v", res.Values)
}
