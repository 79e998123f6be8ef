package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

var bucketRuns = []byte("runs")

// Record is one completed scenario run
type Record struct {
	ID         string    `json:"id"`
	Scenario   string    `json:"scenario"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Outcome    string    `json:"outcome"`
	Error      string    `json:"error,omitempty"`
	Hosts      int       `json:"hosts"`
}

// Duration returns how long the run took
func (r *Record) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Journal persists scenario run records in BoltDB so results survive the
// process and can be listed later
type Journal struct {
	db *bolt.DB
}

// Open opens (or creates) the journal under dataDir
func Open(dataDir string) (*Journal, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "dnsrig.db")
	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketRuns); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketRuns, err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Journal{db: db}, nil
}

// Close closes the database
func (j *Journal) Close() error {
	return j.db.Close()
}

// Append stores a run record. A missing ID is filled in.
func (j *Journal) Append(rec *Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	return j.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRuns)
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		// Fixed-width timestamp so keys sort chronologically
		key := rec.StartedAt.UTC().Format("2006-01-02T15:04:05.000000000") + "/" + rec.ID
		return b.Put([]byte(key), data)
	})
}

// List returns all run records in chronological order
func (j *Journal) List() ([]*Record, error) {
	var records []*Record
	err := j.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRuns)
		return b.ForEach(func(k, v []byte) error {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			records = append(records, &rec)
			return nil
		})
	})
	return records, err
}

// Get returns the record with the given run ID
func (j *Journal) Get(id string) (*Record, error) {
	var found *Record
	err := j.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRuns)
		return b.ForEach(func(k, v []byte) error {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			if rec.ID == id {
				found = &rec
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	return found, nil
}
