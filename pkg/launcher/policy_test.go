package launcher

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stackmesh/dnsrig/pkg/health"
)

// stubChecker reports a scripted sequence of failures before turning
// healthy
type stubChecker struct {
	mu           sync.Mutex
	calls        int
	healthyAfter int
	failures     []health.Failure
}

func (c *stubChecker) Check(ctx context.Context) health.Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls++
	if c.healthyAfter > 0 && c.calls >= c.healthyAfter {
		return health.Result{Healthy: true}
	}

	failure := health.FailureRefused
	if len(c.failures) > 0 {
		failure = c.failures[(c.calls-1)%len(c.failures)]
	}
	return health.Result{
		Healthy: false,
		Failure: failure,
		Message: "not yet",
	}
}

func (c *stubChecker) Type() health.CheckType { return health.CheckTypeHTTP }

func (c *stubChecker) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func fastPolicy(attempts int) RetryPolicy {
	return RetryPolicy{
		Attempts:     attempts,
		Interval:     time.Millisecond,
		ProbeTimeout: 100 * time.Millisecond,
	}
}

func TestAwaitSucceedsImmediately(t *testing.T) {
	checker := &stubChecker{healthyAfter: 1}
	if err := fastPolicy(3).Await(context.Background(), checker); err != nil {
		t.Fatalf("Await() error = %v", err)
	}
	if got := checker.callCount(); got != 1 {
		t.Errorf("probe count = %d, want 1", got)
	}
}

func TestAwaitRetriesUntilHealthy(t *testing.T) {
	checker := &stubChecker{healthyAfter: 3}
	if err := fastPolicy(5).Await(context.Background(), checker); err != nil {
		t.Fatalf("Await() error = %v", err)
	}
	if got := checker.callCount(); got != 3 {
		t.Errorf("probe count = %d, want 3", got)
	}
}

func TestAwaitExhaustsAttempts(t *testing.T) {
	checker := &stubChecker{}
	err := fastPolicy(3).Await(context.Background(), checker)
	if err == nil {
		t.Fatal("Await() should fail when the service never becomes ready")
	}
	if got := checker.callCount(); got != 3 {
		t.Errorf("probe count = %d, want 3", got)
	}
	if !strings.Contains(err.Error(), "3 attempts") {
		t.Errorf("error %q should mention the attempt budget", err)
	}
	if !strings.Contains(err.Error(), string(health.FailureRefused)) {
		t.Errorf("error %q should carry the last failure class", err)
	}
}

// Refused connections and probe timeouts draw from the same attempt
// budget: a service that alternates between them gets no extra time.
func TestAwaitAllFailureClassesShareBudget(t *testing.T) {
	checker := &stubChecker{
		failures: []health.Failure{health.FailureRefused, health.FailureTimeout},
	}
	err := fastPolicy(4).Await(context.Background(), checker)
	if err == nil {
		t.Fatal("Await() should fail")
	}
	if got := checker.callCount(); got != 4 {
		t.Errorf("probe count = %d, want 4", got)
	}
}

func TestAwaitCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	checker := &stubChecker{healthyAfter: 1}
	if err := fastPolicy(3).Await(ctx, checker); err == nil {
		t.Fatal("Await() with canceled context should fail")
	}
	if got := checker.callCount(); got != 0 {
		t.Errorf("probe count = %d, want 0", got)
	}
}

func TestDefaultRetryPolicy(t *testing.T) {
	p := DefaultRetryPolicy()
	if p.Attempts != 10 {
		t.Errorf("Attempts = %d, want 10", p.Attempts)
	}
	if p.Interval != 1*time.Second {
		t.Errorf("Interval = %v, want 1s", p.Interval)
	}
	if p.ProbeTimeout != 10*time.Second {
		t.Errorf("ProbeTimeout = %v, want 10s", p.ProbeTimeout)
	}
}
