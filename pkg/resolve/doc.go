/*
Package resolve issues the DNS queries scenarios assert on.

The resolver speaks plain UDP with a short timeout and shapes its
queries the way the service under test expects them: recursion desired,
the AD bit set, and an OPT record in the additional section whose class
advertises a large receive buffer. A query that times out is not an
error here; it comes back as an empty result, because "no answer inside
the window" is a legitimate observation the expiry scenarios assert on.

# Core Components

Resolver:
  - Forward resolves a name to A-record addresses
  - Reverse resolves an address to PTR names
  - WithPort and WithTimeout adjust the defaults (53, 3s)

Result:
  - Status NOERROR or TIMEOUT plus the raw response code
  - Values are deduplicated and sorted for stable assertions
  - Empty and Contains are the two predicates scenarios need

# Usage

	r := resolve.NewResolver()

	res, err := r.Forward(ctx, "thing.weave.local", "10.0.0.1")
	if err != nil {
		return err // transport fault, not a resolution outcome
	}
	if res.Empty() {
		// NXDOMAIN, no answers, or timed out
	}
	if res.Contains("10.0.0.2") {
		// the record is live
	}

Reverse lookups take the dotted address and build the in-addr.arpa
name internally:

	res, err := r.Reverse(ctx, "10.0.0.2", "10.0.0.1")

# Integration Points

This package integrates with:

  - pkg/scenario: every query a scenario makes goes through here
  - pkg/metrics: per-type query counters and latency histogram
  - test/framework: waiters poll Forward/Reverse until records move

# Design Patterns

Timeout As Data:
  - UDP timeouts return (empty Result, nil), not an error
  - Callers assert on emptiness instead of unwrapping net errors

Normalized Results:
  - Values arrive deduplicated and sorted
  - Equality checks in tests stay order-independent

# Troubleshooting

Queries always come back TIMEOUT:
  - Check: the server address is the host's, not the bridge's
  - Check: the instance passed its readiness probe before querying

Contains misses an address you can see in tcpdump:
  - Cause: comparing a trailing-dot form against a plain one
  - Solution: pass addresses as dotted quads, names get FQDN-ed
    internally

# See Also

  - pkg/nameapi for the write side of the records queried here
  - pkg/scenario for the assertions built on Result
  - DNS library: https://github.com/miekg/dns
*/
package resolve
