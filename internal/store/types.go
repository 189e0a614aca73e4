package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/errbank/internal/record"
)

// Errors for store operations.
var (
	ErrNotFound = errors.New("record not found")
)

// DefaultMaxAgeDays is the retention window applied when Cleanup is called
// with a non-positive age.
const DefaultMaxAgeDays = 365

// Fields holds optional field overrides for Update. Nil pointers leave the
// existing value unchanged; set pointers overwrite it (shallow,
// last-write-wins per field).
type Fields struct {
	Status        *record.Status
	Severity      *record.Severity
	Category      *record.Category
	Component     *string
	Title         *string
	ErrorMessage  *string
	ErrorCode     *string
	StackTrace    *string
	Tags          []string
	Investigation *record.Investigation
	Resolution    *record.Resolution
	Prevention    *record.Prevention
	ResolvedAt    *time.Time
}

// LoadResult reports how the initial load went. Degraded means the backing
// file existed but could not be read or parsed; the store starts empty and
// Err carries the cause.
type LoadResult struct {
	Degraded bool
	Err      error
}

// entry is one [id, record] pair in the persisted snapshot.
type entry struct {
	ID     string
	Record *record.Record
}

func (e entry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{e.ID, e.Record})
}

func (e *entry) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("record entry must be an [id, record] pair, got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &e.ID); err != nil {
		return fmt.Errorf("record entry id: %w", err)
	}
	rec := new(record.Record)
	if err := json.Unmarshal(pair[1], rec); err != nil {
		return fmt.Errorf("record entry %s: %w", e.ID, err)
	}
	e.Record = rec
	return nil
}

// snapshot is the persisted store structure: the full record set, the
// sequence counter, and a last-updated timestamp.
type snapshot struct {
	Version     int       `json:"version"`
	Records     []entry   `json:"records"`
	RecordSeq   int       `json:"record_seq"`
	LastUpdated time.Time `json:"last_updated"`
}
