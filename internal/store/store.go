package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/errbank/internal/record"
)

// Store is the canonical owner of the record map and its durable copy.
//
// The model assumes a single writer process. Concurrent external processes
// mutating the same backing file race on save; the last full-snapshot write
// wins, there is no merge.
type Store struct {
	mu     sync.RWMutex
	path   string
	logger *zap.Logger

	records map[string]*record.Record
	seq     int
	load    LoadResult
}

// Open creates the data directory if needed and loads the snapshot at path.
// A missing file yields a clean empty store; any other read failure is
// logged, recorded in LoadResult, and degrades to an empty store.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("store path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &Store{
		path:    path,
		logger:  logger,
		records: make(map[string]*record.Record),
	}

	if err := s.loadSnapshot(); err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		// Degrade to an empty store rather than failing startup. True
		// corruption is indistinguishable from "missing" under this policy.
		s.logger.Warn("failed to load record snapshot, starting empty",
			zap.String("path", path),
			zap.Error(err),
		)
		s.records = make(map[string]*record.Record)
		s.seq = 0
		s.load = LoadResult{Degraded: true, Err: err}
	}

	return s, nil
}

// LoadResult reports whether the initial load degraded to an empty store.
func (s *Store) LoadResult() LoadResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.load
}

// Add persists rec, assigning an identifier, timestamp, status, and
// component defaults where absent, and returns the identifier. The whole
// record set is rewritten, not just the delta.
func (s *Store) Add(rec *record.Record) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := rec.Clone()
	if cp.ID == "" {
		s.seq++
		cp.ID = fmt.Sprintf("ERR-%d-%03d", time.Now().Year(), s.seq)
	}
	if cp.Timestamp.IsZero() {
		cp.Timestamp = time.Now()
	}
	if cp.Status == "" {
		cp.Status = record.StatusDetected
	}
	if cp.Component == "" {
		cp.Component = "unknown"
	}

	s.records[cp.ID] = cp
	if err := s.save(); err != nil {
		delete(s.records, cp.ID)
		return "", err
	}

	s.logger.Info("record added",
		zap.String("id", cp.ID),
		zap.String("severity", string(cp.Severity)),
		zap.String("title", cp.Title),
	)
	return cp.ID, nil
}

// Get returns a copy of the record, or ok=false when the identifier is
// unknown.
func (s *Store) Get(id string) (*record.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, false
	}
	return rec.Clone(), true
}

// Update merges the set fields into the existing record and persists.
// Returns ErrNotFound when the identifier is absent.
func (s *Store) Update(id string, f Fields) (*record.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("update %s: %w", id, ErrNotFound)
	}

	prev := rec.Clone()
	applyFields(rec, f)

	if err := s.save(); err != nil {
		s.records[id] = prev
		return nil, err
	}
	return rec.Clone(), nil
}

// SetInvestigation attaches investigation findings to a record.
func (s *Store) SetInvestigation(id string, inv record.Investigation) (*record.Record, error) {
	return s.Update(id, Fields{Investigation: &inv})
}

// SetResolution attaches a resolution, marks the record resolved, and stamps
// ResolvedAt.
func (s *Store) SetResolution(id string, res record.Resolution) (*record.Record, error) {
	status := record.StatusResolved
	now := time.Now()
	return s.Update(id, Fields{
		Resolution: &res,
		Status:     &status,
		ResolvedAt: &now,
	})
}

// SetPrevention attaches prevention actions to a record.
func (s *Store) SetPrevention(id string, prev record.Prevention) (*record.Record, error) {
	return s.Update(id, Fields{Prevention: &prev})
}

// All returns a copy of every record. Order is unspecified; consumers that
// need ordering sort themselves.
func (s *Store) All() []*record.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*record.Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec.Clone())
	}
	return out
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Cleanup removes every record older than maxAgeDays (DefaultMaxAgeDays when
// non-positive) and returns the removed count. The snapshot is persisted
// only when at least one record was removed.
func (s *Store) Cleanup(maxAgeDays int) (int, error) {
	if maxAgeDays <= 0 {
		maxAgeDays = DefaultMaxAgeDays
	}
	cutoff := time.Now().AddDate(0, 0, -maxAgeDays)

	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []string
	for id, rec := range s.records {
		if rec.Timestamp.Before(cutoff) {
			removed = append(removed, id)
		}
	}
	if len(removed) == 0 {
		return 0, nil
	}

	for _, id := range removed {
		delete(s.records, id)
	}
	if err := s.save(); err != nil {
		return 0, err
	}

	s.logger.Info("cleaned up old records",
		zap.Int("removed", len(removed)),
		zap.Int("max_age_days", maxAgeDays),
	)
	return len(removed), nil
}

// loadSnapshot reads the backing file and replaces the in-memory state.
func (s *Store) loadSnapshot() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("snapshot corrupted: %w", err)
	}

	records := make(map[string]*record.Record, len(snap.Records))
	for _, e := range snap.Records {
		records[e.ID] = e.Record
	}
	s.records = records
	s.seq = snap.RecordSeq
	return nil
}

// save writes the full snapshot atomically. Callers must hold the write
// lock. Write failures propagate; nothing is swallowed on the save path.
func (s *Store) save() error {
	entries := make([]entry, 0, len(s.records))
	for id, rec := range s.records {
		entries = append(entries, entry{ID: id, Record: rec})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })

	snap := snapshot{
		Version:     1,
		Records:     entries,
		RecordSeq:   s.seq,
		LastUpdated: time.Now(),
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename snapshot: %w", err)
	}
	return nil
}

// applyFields merges set fields into rec, shallow last-write-wins.
func applyFields(rec *record.Record, f Fields) {
	if f.Status != nil {
		rec.Status = *f.Status
	}
	if f.Severity != nil {
		rec.Severity = *f.Severity
	}
	if f.Category != nil {
		rec.Category = *f.Category
	}
	if f.Component != nil {
		rec.Component = *f.Component
	}
	if f.Title != nil {
		rec.Title = *f.Title
	}
	if f.ErrorMessage != nil {
		rec.ErrorMessage = *f.ErrorMessage
	}
	if f.ErrorCode != nil {
		rec.ErrorCode = *f.ErrorCode
	}
	if f.StackTrace != nil {
		rec.StackTrace = *f.StackTrace
	}
	if f.Tags != nil {
		rec.Tags = append([]string(nil), f.Tags...)
	}
	if f.Investigation != nil {
		inv := *f.Investigation
		rec.Investigation = &inv
	}
	if f.Resolution != nil {
		res := *f.Resolution
		rec.Resolution = &res
	}
	if f.Prevention != nil {
		prev := *f.Prevention
		rec.Prevention = &prev
	}
	if f.ResolvedAt != nil {
		t := *f.ResolvedAt
		rec.ResolvedAt = &t
	}
}
