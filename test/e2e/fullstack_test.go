package e2e

import (
	"context"
	"testing"
	"time"

	"github.com/stackmesh/dnsrig/test/framework"
)

// TestFullStackResolution provisions the real bridge/namespace topology,
// launches the real service on every host and checks forward and reverse
// resolution across the mesh. Needs root and DNSRIG_SERVICE_BINARY.
func TestFullStackResolution(t *testing.T) {
	framework.RequireRoot(t)
	binary := framework.RequireServiceBinary(t)

	rig, err := framework.NewRig(&framework.RigConfig{
		Runtime:   framework.RuntimeNetns,
		Binary:    binary,
		ConnCheck: true,
	})
	if err != nil {
		t.Fatalf("Failed to create rig: %v", err)
	}
	if err := rig.Start(); err != nil {
		t.Fatalf("Failed to start rig: %v", err)
	}
	defer rig.Cleanup()

	assert := framework.NewAssertions(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	report := rig.RunScenario(ctx, "resolution")
	assert.RunPassed(report)
	assert.Success("resolution passed in " + report.Duration().Round(time.Second).String())
}

// TestFullStackExpiry runs the full expiry walk against the real
// service, including both 31-second cache waits.
func TestFullStackExpiry(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping expiry walk in short mode")
	}
	framework.RequireRoot(t)
	binary := framework.RequireServiceBinary(t)

	rig, err := framework.NewRig(&framework.RigConfig{
		Runtime: framework.RuntimeNetns,
		Binary:  binary,
	})
	if err != nil {
		t.Fatalf("Failed to create rig: %v", err)
	}
	if err := rig.Start(); err != nil {
		t.Fatalf("Failed to start rig: %v", err)
	}
	defer rig.Cleanup()

	for _, name := range []string{"forward-expiry", "reverse-expiry"} {
		name := name
		t.Run(name, func(t *testing.T) {
			assert := framework.NewAssertions(t)

			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
			defer cancel()

			report := rig.RunScenario(ctx, name)
			assert.RunPassed(report)
			assert.Success(name + " passed in " + report.Duration().Round(time.Second).String())
		})
	}
}
