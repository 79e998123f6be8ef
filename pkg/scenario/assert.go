package scenario

import (
	"github.com/stackmesh/dnsrig/pkg/errdefs"
	"github.com/stackmesh/dnsrig/pkg/resolve"
)

// ExpectContains returns a test failure unless the result contains value.
// A timed-out query carries an empty result and fails here like any other
// missing answer.
func ExpectContains(res *resolve.Result, value, what string) error {
	if !res.Contains(value) {
		return errdefs.Testf("%s: expected %s in answer, got %v", what, value, res.Values)
	}
	return nil
}

// ExpectEmpty returns a test failure unless the result has no records
func ExpectEmpty(res *resolve.Result, what string) error {
	if !res.Empty() {
		return errdefs.Testf("%s: expected no records, got %v", what, res.Values)
	}
	return nil
}
