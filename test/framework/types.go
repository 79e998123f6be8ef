package framework

import (
	"os"
	"time"
)

// RuntimeType selects how the rig backs its service instances
type RuntimeType string

const (
	// RuntimeFake backs the rig with an in-process service double. No
	// root, no kernel state, loopback only.
	RuntimeFake RuntimeType = "fake"
	// RuntimeNetns provisions the real bridge/namespace topology and
	// launches the real service binary. Needs root.
	RuntimeNetns RuntimeType = "netns"
)

// RigConfig defines the configuration for a test rig
type RigConfig struct {
	// Runtime selects the backing runtime (fake or netns)
	Runtime RuntimeType
	// Hosts is the number of emulated hosts
	Hosts int
	// ServiceTTL is the cache TTL the fake service answers with
	ServiceTTL time.Duration
	// HarnessTTL is the cache TTL the harness waits out between steps
	HarnessTTL time.Duration
	// CacheSlack is added on top of HarnessTTL before re-querying
	CacheSlack time.Duration
	// Binary is the service executable (netns runtime only)
	Binary string
	// Debug echoes captured service output into the log
	Debug bool
	// ConnCheck runs the topology preflight before launching (netns
	// runtime only)
	ConnCheck bool
	// JournalDir persists run records when set
	JournalDir string
}

// TestingT is an interface matching testing.T
type TestingT interface {
	Logf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
	FailNow()
	Failed() bool
	Name() string
	Helper()
}

type skippableT interface {
	TestingT
	Skipf(format string, args ...interface{})
}

// RequireRoot skips the test unless it runs with the privileges the
// netns runtime needs
func RequireRoot(t skippableT) {
	t.Helper()
	if os.Getuid() != 0 {
		t.Skipf("test requires root")
	}
}

// ServiceBinaryEnv names the environment variable pointing at the real
// service executable for full-stack runs
const ServiceBinaryEnv = "DNSRIG_SERVICE_BINARY"

// RequireServiceBinary returns the configured service executable,
// skipping the test when none is set
func RequireServiceBinary(t skippableT) string {
	t.Helper()
	binary := os.Getenv(ServiceBinaryEnv)
	if binary == "" {
		t.Skipf("set %s to run against the real service", ServiceBinaryEnv)
	}
	return binary
}
