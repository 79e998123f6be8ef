/*
Package nameapi is the HTTP client for the service's naming control
plane.

Records are created with PUT /name/{containerId}/{ip}?fqdn={fqdn} and
removed with DELETE on the same path, against port 6785 on the target
instance. The client deliberately never retries: publish and delete are
setup actions in a test, and a flaky control plane is exactly the kind
of fault the harness exists to surface, so every failure comes back as a
TestError immediately.

# Core Components

Client:
  - Publish and Delete mutate one (container, fqdn, ip) record
  - Status probes the /status endpoint used for readiness
  - WithPort and WithTimeout adjust per-instance wiring

# Usage

	api := nameapi.NewClient()

	err := api.Publish(ctx, inst.Server(), containerID,
		"thing.weave.local.", "10.0.0.2")
	if err != nil {
		return err // already a TestError with method and URL
	}
	defer api.Delete(context.Background(), inst.Server(),
		containerID, "thing.weave.local.", "10.0.0.2")

# Integration Points

This package integrates with:

  - pkg/scenario: record lifecycle steps and leftover-record cleanup
  - pkg/launcher: readiness probing hits StatusURL
  - pkg/metrics: request counter labeled by operation and status

# Troubleshooting

Publish fails with connection refused:
  - Check: the instance reported ready before the scenario ran
  - Check: the server address is the host's own, the control plane
    does not listen on the bridge

Delete succeeds but the record still resolves:
  - Cause: the service caches positively until the record's TTL
  - Solution: that window is the point; assert after WaitExpiry

# See Also

  - pkg/resolve for the read side of these records
  - pkg/errdefs for the TestError wrapping every failure
*/
package nameapi
