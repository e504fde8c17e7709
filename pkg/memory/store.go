// Package memory provides the shared key-value space and the append-only
// execution history of a single workflow run.
package memory

import (
	"sync"
	"time"

	"github.com/goalflow/goalflow/pkg/models"
)

// Store lives exactly as long as its workflow. Values are opaque and
// last-writer-wins; every mutation is attributed to the writing task. The
// scheduler is the only writer, but snapshots may be read from executor
// goroutines, so access is guarded.
type Store struct {
	mu      sync.RWMutex
	values  map[string]any
	history []models.ExecutionRecord
	audit   []models.MemoryAudit
	now     func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		values: make(map[string]any),
		now:    time.Now,
	}
}

// Get returns the value for key.
func (s *Store) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]

	return value, ok
}

// Set stores value under key, attributing the write to writerTaskID.
func (s *Store) Set(key string, value any, writerTaskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	s.audit = append(s.audit, models.MemoryAudit{
		Key:    key,
		TaskID: writerTaskID,
		At:     s.now(),
	})
}

// Snapshot returns a copy of the current key-value space for an in-flight
// executor call. Later writes never affect a snapshot already taken. The copy
// is shallow: values are opaque payloads executors must treat as read-only.
func (s *Store) Snapshot() models.MemorySnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make(models.MemorySnapshot, len(s.values))
	for k, v := range s.values {
		snapshot[k] = v
	}

	return snapshot
}

// Append adds a record to the execution history. History supports no deletion
// or mutation of past entries.
func (s *Store) Append(record models.ExecutionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, record)
}

// History returns a copy of the execution history in append order.
func (s *Store) History() []models.ExecutionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]models.ExecutionRecord(nil), s.history...)
}

// Audit returns a copy of the memory write audit trail in write order.
func (s *Store) Audit() []models.MemoryAudit {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]models.MemoryAudit(nil), s.audit...)
}

// Contents returns a copy of the key-value space for the terminal result.
func (s *Store) Contents() map[string]any {
	return s.Snapshot()
}
