package e2e

import (
	"context"
	"testing"
	"time"

	"github.com/stackmesh/dnsrig/pkg/scenario"
	"github.com/stackmesh/dnsrig/test/framework"
)

// TestExpiryScenarios runs the stock scenarios against the in-process
// service double, with the cache TTLs shrunk from seconds to
// milliseconds so the full publish/delete/re-publish walks finish in
// under a second each.
func TestExpiryScenarios(t *testing.T) {
	rig, err := framework.NewRig(&framework.RigConfig{
		Runtime:    framework.RuntimeFake,
		ServiceTTL: 100 * time.Millisecond,
		CacheSlack: 50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Failed to create rig: %v", err)
	}
	if err := rig.Start(); err != nil {
		t.Fatalf("Failed to start rig: %v", err)
	}
	defer rig.Cleanup()

	for _, name := range []string{"resolution", "forward-expiry", "reverse-expiry"} {
		name := name
		t.Run(name, func(t *testing.T) {
			assert := framework.NewAssertions(t)

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			report := rig.RunScenario(ctx, name)
			assert.RunPassed(report)
			assert.Success(name + " passed in " + report.Duration().Round(time.Millisecond).String())
		})
	}
}

// TestScenarioCleanup checks that a finished run leaves no record behind,
// even though its last step re-published one.
func TestScenarioCleanup(t *testing.T) {
	rig, err := framework.NewRig(&framework.RigConfig{
		Runtime:    framework.RuntimeFake,
		ServiceTTL: 100 * time.Millisecond,
		CacheSlack: 50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Failed to create rig: %v", err)
	}
	if err := rig.Start(); err != nil {
		t.Fatalf("Failed to start rig: %v", err)
	}
	defer rig.Cleanup()

	assert := framework.NewAssertions(t)
	waiter := framework.FastWaiter()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	report := rig.RunScenario(ctx, "forward-expiry")
	assert.RunPassed(report)

	// The record was deleted on the way out; once its stale window
	// passes, queries must come back empty
	client := rig.Client()
	if err := waiter.WaitForRecordGone(ctx, client, "something.weave.local."); err != nil {
		t.Fatalf("Record survived cleanup: %v", err)
	}
	assert.Success("published record cleaned up after the run")
}

// TestStaleCacheDetection points the harness at a service whose cache
// holds answers far longer than the harness is told, and expects the
// expiry scenario to call it out as a test failure.
func TestStaleCacheDetection(t *testing.T) {
	rig, err := framework.NewRig(&framework.RigConfig{
		Runtime:    framework.RuntimeFake,
		ServiceTTL: 10 * time.Second,
		HarnessTTL: 50 * time.Millisecond,
		CacheSlack: 10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Failed to create rig: %v", err)
	}
	if err := rig.Start(); err != nil {
		t.Fatalf("Failed to start rig: %v", err)
	}
	defer rig.Cleanup()

	assert := framework.NewAssertions(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	report := rig.RunScenario(ctx, "forward-expiry")
	assert.RunOutcome(report, scenario.OutcomeTestFailed)
	assert.Contains(report.Err.Error(), "after delete", "failure should name the step")
	assert.Success("lingering record reported as a test failure")
}
