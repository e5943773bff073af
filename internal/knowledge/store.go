// Package knowledge holds the authoritative in-memory record of every task's
// current state and output. The execution engine is the only writer; context
// resolution strategies and builders are read-only consumers.
package knowledge

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/planweave/planweave/models"
)

// Reader is the read-only view of the store consumed by context resolution.
type Reader interface {
	// GetRecord returns the record for the id, or nil when absent. It never
	// returns an error; missing ids are a normal condition.
	GetRecord(taskID string) *models.TaskRecord

	// GetChildRecords returns the records for the parent's declared children
	// in plan-enumeration order. Missing children are silently skipped; an
	// unknown parent yields nil.
	GetChildRecords(parentTaskID string) []*models.TaskRecord

	// Checksum returns a digest of the store contents. Any record mutation
	// changes the digest, which makes it usable as a cache-key component.
	Checksum() string
}

// RecordStore is the full store contract: the read model plus the write
// operations reserved for the execution engine.
type RecordStore interface {
	Reader
	AddOrUpdateRecordFromNode(node *models.TaskNode)
	Clear()
}

// Store is a process-wide mapping from task id to TaskRecord. Created once
// per run, populated incrementally by the execution engine, read continuously
// by strategies, and cleared between runs.
type Store struct {
	mu      sync.RWMutex
	records map[string]*models.TaskRecord
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{records: make(map[string]*models.TaskRecord)}
}

// GetRecord returns a copy of the record for the id, or nil when absent.
func (s *Store) GetRecord(taskID string) *models.TaskRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records[taskID].Clone()
}

// AddOrUpdateRecordFromNode upserts a record derived from the live node's
// current fields. All mutable fields are overwritten; task identity is fixed.
// An invalid record is stored anyway so the execution engine never loses
// state, but the violation is logged.
func (s *Store) AddOrUpdateRecordFromNode(node *models.TaskNode) {
	if node == nil || node.TaskID == "" {
		return
	}
	rec := node.ToRecord()
	if err := models.ValidateRecord(rec); err != nil {
		slog.Warn("storing record that fails validation", "task_id", node.TaskID, "error", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[node.TaskID] = rec
}

// GetChildRecords returns copies of the records for all ids in the parent's
// ChildTaskIDs, preserving that order. Missing children are skipped.
func (s *Store) GetChildRecords(parentTaskID string) []*models.TaskRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	parent := s.records[parentTaskID]
	if parent == nil {
		return nil
	}
	children := make([]*models.TaskRecord, 0, len(parent.ChildTaskIDs))
	for _, id := range parent.ChildTaskIDs {
		if child := s.records[id]; child != nil {
			children = append(children, child.Clone())
		}
	}
	return children
}

// Clear empties all records. Used between runs.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]*models.TaskRecord)
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Checksum digests id, status, and update instant of every record in sorted
// id order. Strategies never mutate the store, so within one context build
// the checksum is stable.
func (s *Store) Checksum() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	h := sha256.New()
	for _, id := range ids {
		rec := s.records[id]
		fmt.Fprintf(h, "%s|%s|%d\n", id, rec.Status, rec.UpdatedAt.UnixNano())
	}
	return hex.EncodeToString(h.Sum(nil))
}
