package launcher

import (
	"context"
	"fmt"
	"time"

	"github.com/stackmesh/dnsrig/pkg/health"
	"github.com/stackmesh/dnsrig/pkg/log"
	"github.com/stackmesh/dnsrig/pkg/metrics"
)

// RetryPolicy bounds the readiness poll: how many probe attempts, how long
// between them, and how long a single probe may take. A refused connection
// and a probe timeout both consume one attempt; the classes stay separate
// in logs and metrics so a hung service is distinguishable from a slow
// starter.
type RetryPolicy struct {
	// Attempts is the maximum number of probes
	Attempts int

	// Interval is the delay between probes
	Interval time.Duration

	// ProbeTimeout bounds one probe
	ProbeTimeout time.Duration
}

// DefaultRetryPolicy returns the standard readiness policy: 10 attempts,
// 1-second spacing, 10-second probe timeout.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:     10,
		Interval:     1 * time.Second,
		ProbeTimeout: 10 * time.Second,
	}
}

// Await probes checker until it reports healthy or the attempt budget is
// spent. Context cancellation aborts between probes and bounds the probe
// itself.
func (p RetryPolicy) Await(ctx context.Context, checker health.Checker) error {
	var last health.Result

	for attempt := 1; attempt <= p.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		probeCtx, cancel := context.WithTimeout(ctx, p.ProbeTimeout)
		result := checker.Check(probeCtx)
		cancel()

		if result.Healthy {
			metrics.ReadinessProbes.WithLabelValues("ok").Inc()
			log.Logger.Debug().
				Str("component", "launcher").
				Int("attempt", attempt).
				Dur("took", result.Duration).
				Msg("readiness probe succeeded")
			return nil
		}

		last = result
		metrics.ReadinessProbes.WithLabelValues(string(result.Failure)).Inc()

		log.Logger.Debug().
			Str("component", "launcher").
			Int("attempt", attempt).
			Int("attempts", p.Attempts).
			Str("failure", string(result.Failure)).
			Str("detail", result.Message).
			Msg("readiness probe failed")

		if attempt < p.Attempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.Interval):
			}
		}
	}

	return fmt.Errorf("not ready after %d attempts (last failure: %s, %s)",
		p.Attempts, last.Failure, last.Message)
}
