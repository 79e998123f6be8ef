package framework

import (
	"context"
	"strings"
	"time"

	"github.com/stackmesh/dnsrig/pkg/scenario"
)

// Assertions provides test assertion helpers
type Assertions struct {
	t TestingT
}

// NewAssertions creates a new Assertions instance
func NewAssertions(t TestingT) *Assertions {
	return &Assertions{t: t}
}

// RecordResolves asserts that a forward query for fqdn includes ip
func (a *Assertions) RecordResolves(ctx context.Context, client *Client, fqdn, ip string) {
	a.t.Helper()

	res, err := client.Lookup(ctx, fqdn)
	if err != nil {
		a.t.Fatalf("Lookup %s failed: %v", fqdn, err)
	}
	if !res.Contains(ip) {
		a.t.Fatalf("%s resolved to %v, expected it to include %s", fqdn, res.Values, ip)
	}
}

// RecordAbsent asserts that a forward query for fqdn comes back empty
func (a *Assertions) RecordAbsent(ctx context.Context, client *Client, fqdn string) {
	a.t.Helper()

	res, err := client.Lookup(ctx, fqdn)
	if err != nil {
		a.t.Fatalf("Lookup %s failed: %v", fqdn, err)
	}
	if !res.Empty() {
		a.t.Fatalf("%s still resolves to %v, expected no records", fqdn, res.Values)
	}
}

// ReverseResolves asserts that a reverse query for ip includes fqdn
func (a *Assertions) ReverseResolves(ctx context.Context, client *Client, ip, fqdn string) {
	a.t.Helper()

	res, err := client.LookupPTR(ctx, ip)
	if err != nil {
		a.t.Fatalf("Reverse lookup %s failed: %v", ip, err)
	}
	if !res.Contains(fqdn) {
		a.t.Fatalf("%s reverse-resolved to %v, expected it to include %s", ip, res.Values, fqdn)
	}
}

// StatusOK asserts that the server's status endpoint answers
func (a *Assertions) StatusOK(ctx context.Context, client *Client) {
	a.t.Helper()

	if err := client.Status(ctx); err != nil {
		a.t.Fatalf("Server %s not ready: %v", client.Server, err)
	}
}

// RunPassed asserts that a scenario run passed
func (a *Assertions) RunPassed(report scenario.Report) {
	a.t.Helper()

	if report.Outcome != scenario.OutcomePassed {
		a.t.Fatalf("Scenario %s finished %s: %v", report.Scenario, report.Outcome, report.Err)
	}
}

// RunOutcome asserts that a scenario run finished with the given outcome
func (a *Assertions) RunOutcome(report scenario.Report, expected scenario.Outcome) {
	a.t.Helper()

	if report.Outcome != expected {
		a.t.Fatalf("Scenario %s finished %s (err: %v), expected %s",
			report.Scenario, report.Outcome, report.Err, expected)
	}
}

// Eventually repeatedly runs a condition until it returns true or timeout occurs
func (a *Assertions) Eventually(condition func() bool, timeout, interval time.Duration, msg string) {
	a.t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.t.Fatalf("Timeout waiting for condition: %s (timeout: %v)", msg, timeout)
		case <-ticker.C:
			if condition() {
				return
			}
		}
	}
}

// NoError asserts that the error is nil
func (a *Assertions) NoError(err error, msg string) {
	a.t.Helper()

	if err != nil {
		a.t.Fatalf("%s: %v", msg, err)
	}
}

// Error asserts that the error is not nil
func (a *Assertions) Error(err error, msg string) {
	a.t.Helper()

	if err == nil {
		a.t.Fatalf("%s: expected error but got nil", msg)
	}
}

// Equal asserts that two values are equal
func (a *Assertions) Equal(expected, actual interface{}, msg string) {
	a.t.Helper()

	if expected != actual {
		a.t.Fatalf("%s: expected %v, got %v", msg, expected, actual)
	}
}

// True asserts that a condition is true
func (a *Assertions) True(condition bool, msg string) {
	a.t.Helper()

	if !condition {
		a.t.Fatalf("%s: expected true, got false", msg)
	}
}

// False asserts that a condition is false
func (a *Assertions) False(condition bool, msg string) {
	a.t.Helper()

	if condition {
		a.t.Fatalf("%s: expected false, got true", msg)
	}
}

// Contains asserts that a string contains a substring
func (a *Assertions) Contains(haystack, needle, msg string) {
	a.t.Helper()

	if !strings.Contains(haystack, needle) {
		a.t.Fatalf("%s: expected %q to contain %q", msg, haystack, needle)
	}
}

// Step logs a test step (for visibility in test output)
func (a *Assertions) Step(step string) {
	a.t.Helper()
	a.t.Logf("\n==> %s", step)
}

// Success logs a success message
func (a *Assertions) Success(msg string) {
	a.t.Helper()
	a.t.Logf("✓ %s", msg)
}

// Info logs an informational message
func (a *Assertions) Info(msg string) {
	a.t.Helper()
	a.t.Logf("ℹ %s", msg)
}

// Fatalf logs a fatal error and stops the test immediately
func (a *Assertions) Fatalf(format string, args ...interface{}) {
	a.t.Helper()
	a.t.Fatalf(format, args...)
}
