package framework

import (
	"context"
	"fmt"
	"time"
)

// Waiter provides utilities for waiting on conditions with timeouts
type Waiter struct {
	timeout  time.Duration
	interval time.Duration
}

// NewWaiter creates a new Waiter with the given timeout and polling interval
func NewWaiter(timeout, interval time.Duration) *Waiter {
	return &Waiter{
		timeout:  timeout,
		interval: interval,
	}
}

// DefaultWaiter returns a waiter with sensible defaults (30s timeout, 1s interval)
func DefaultWaiter() *Waiter {
	return NewWaiter(30*time.Second, 1*time.Second)
}

// FastWaiter returns a waiter tuned for the fake runtime's millisecond
// TTLs (2s timeout, 20ms interval)
func FastWaiter() *Waiter {
	return NewWaiter(2*time.Second, 20*time.Millisecond)
}

// WaitFor waits for a condition to become true
func (w *Waiter) WaitFor(ctx context.Context, condition func() bool, description string) error {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Check immediately
	if condition() {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for: %s (timeout: %v)", description, w.timeout)
		case <-ticker.C:
			if condition() {
				return nil
			}
		}
	}
}

// WaitForStatus waits for the server's status endpoint to answer OK
func (w *Waiter) WaitForStatus(ctx context.Context, client *Client) error {
	return w.WaitFor(ctx, func() bool {
		return client.Status(ctx) == nil
	}, fmt.Sprintf("server %s to report ready", client.Server))
}

// WaitForRecord waits for a forward query to include ip in its answer
func (w *Waiter) WaitForRecord(ctx context.Context, client *Client, fqdn, ip string) error {
	return w.WaitFor(ctx, func() bool {
		res, err := client.Lookup(ctx, fqdn)
		return err == nil && res.Contains(ip)
	}, fmt.Sprintf("%s to resolve to %s", fqdn, ip))
}

// WaitForRecordGone waits for a forward query to come back empty
func (w *Waiter) WaitForRecordGone(ctx context.Context, client *Client, fqdn string) error {
	return w.WaitFor(ctx, func() bool {
		res, err := client.Lookup(ctx, fqdn)
		return err == nil && res.Empty()
	}, fmt.Sprintf("%s to stop resolving", fqdn))
}

// WaitForReverse waits for a reverse query on ip to include fqdn
func (w *Waiter) WaitForReverse(ctx context.Context, client *Client, ip, fqdn string) error {
	return w.WaitFor(ctx, func() bool {
		res, err := client.LookupPTR(ctx, ip)
		return err == nil && res.Contains(fqdn)
	}, fmt.Sprintf("%s to reverse-resolve to %s", ip, fqdn))
}

// PollUntil polls a condition until it returns true or context is cancelled
func PollUntil(ctx context.Context, interval time.Duration, condition func() bool) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Check immediately
	if condition() {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if condition() {
				return nil
			}
		}
	}
}

// Retry retries an operation with exponential backoff
func Retry(ctx context.Context, attempts int, initialDelay time.Duration, operation func() error) error {
	var err error
	delay := initialDelay

	for i := 0; i < attempts; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("retry cancelled: %w", ctx.Err())
			case <-time.After(delay):
				delay = delay * 2
			}
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w", attempts, err)
}
