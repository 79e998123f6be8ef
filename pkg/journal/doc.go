/*
Package journal persists scenario run records across harness invocations.

Each completed run becomes one Record (scenario, outcome, timestamps,
error text, host count) appended to a BoltDB file under the data
directory. Keys are the start timestamp followed by the run's UUID, so
a plain bucket scan lists runs in the order they happened. The journal
is the durable side of run reporting; the live side is pkg/events.

# Core Components

Journal:
  - Open creates the data directory and the runs bucket on first use
  - Append stores one record, generating its ID when unset
  - List returns all records oldest-first; Get fetches one by ID

Record:
  - The JSON-encoded unit of storage
  - Duration derives from the start and finish stamps

# Usage

	j, err := journal.Open("./dnsrig-data")
	if err != nil {
		return err
	}
	defer j.Close()

	recs, err := j.List()
	for _, rec := range recs {
		fmt.Println(rec.ID, rec.Scenario, rec.Outcome, rec.Duration())
	}

# Integration Points

This package integrates with:

  - pkg/scenario: the runner appends a record per finished run
  - cmd/dnsrig: `dnsrig runs` lists the stored history

# Troubleshooting

Open fails with a timeout:
  - Cause: BoltDB allows one writer; another harness holds the file
  - Solution: finish or kill the other run, or use a separate
    --journal-dir

# See Also

  - pkg/events for the live counterpart to this history
  - BoltDB: https://github.com/etcd-io/bbolt
*/
package journal
