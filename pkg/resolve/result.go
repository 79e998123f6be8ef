package resolve

import "sort"

// Status is the transport-level outcome of a single query. A timeout is a
// status, not an error: the expiry scenarios deliberately probe windows in
// which no answer is an acceptable observation.
type Status string

const (
	StatusNoError Status = "NOERROR"
	StatusTimeout Status = "TIMEOUT"
)

// Result is the outcome of one DNS query: a deduplicated value set
// (addresses for forward lookups, target names for reverse lookups) plus
// the status and response code.
type Result struct {
	Status Status
	Values []string
	Rcode  int
}

// newResult builds a Result from raw answer values, collapsing duplicates
// and sorting for stable output. Order carries no meaning.
func newResult(status Status, rcode int, values []string) *Result {
	seen := make(map[string]struct{}, len(values))
	var set []string
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		set = append(set, v)
	}
	sort.Strings(set)
	return &Result{
		Status: status,
		Values: set,
		Rcode:  rcode,
	}
}

// Empty reports whether the query produced no values
func (r *Result) Empty() bool {
	return len(r.Values) == 0
}

// Contains reports whether the value set includes v
func (r *Result) Contains(v string) bool {
	for _, have := range r.Values {
		if have == v {
			return true
		}
	}
	return false
}
