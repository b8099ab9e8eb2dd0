package store

import (
	"fmt"
	"sort"
	"sync"

	"tripledger/internal/models"
)

type violationKey struct {
	auditID string
	field   string
}

// MemoryStore is an in-process Store
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*models.AuditRecord

	logMu      sync.Mutex
	violations []models.ViolationRecord
	seen       map[violationKey]struct{}
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*models.AuditRecord),
		seen:    make(map[violationKey]struct{}),
	}
}

func (s *MemoryStore) Get(tripID string) (*models.AuditRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[tripID]
	if !ok {
		return nil, fmt.Errorf("trip %q: %w", tripID, ErrNotFound)
	}
	return r.Clone(), nil
}

func (s *MemoryStore) Put(record *models.AuditRecord) error {
	if record == nil || record.TripID == "" {
		return fmt.Errorf("record must have a trip_id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.TripID] = record.Clone()
	return nil
}

func (s *MemoryStore) Update(tripID string, fn func(*models.AuditRecord)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[tripID]
	if !ok {
		return fmt.Errorf("trip %q: %w", tripID, ErrNotFound)
	}
	fn(r)
	return nil
}

func (s *MemoryStore) ReplaceAll(records map[string]*models.AuditRecord) {
	next := make(map[string]*models.AuditRecord, len(records))
	for id, r := range records {
		next[id] = r.Clone()
	}
	s.mu.Lock()
	s.records = next
	s.mu.Unlock()
}

func (s *MemoryStore) TripIDs() []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

func (s *MemoryStore) Records() map[string]*models.AuditRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*models.AuditRecord, len(s.records))
	for id, r := range s.records {
		out[id] = r.Clone()
	}
	return out
}

func (s *MemoryStore) AppendViolation(v models.ViolationRecord) bool {
	key := violationKey{auditID: v.AuditID, field: v.Field}
	s.logMu.Lock()
	defer s.logMu.Unlock()
	if _, dup := s.seen[key]; dup {
		return false
	}
	s.seen[key] = struct{}{}
	s.violations = append(s.violations, v)
	return true
}

func (s *MemoryStore) Violations() []models.ViolationRecord {
	s.logMu.Lock()
	defer s.logMu.Unlock()
	out := make([]models.ViolationRecord, len(s.violations))
	copy(out, s.violations)
	return out
}

func (s *MemoryStore) Reset() {
	s.mu.Lock()
	s.records = make(map[string]*models.AuditRecord)
	s.mu.Unlock()
	s.ResetViolations()
}

func (s *MemoryStore) ResetViolations() {
	s.logMu.Lock()
	s.violations = nil
	s.seen = make(map[violationKey]struct{})
	s.logMu.Unlock()
}

var _ Store = (*MemoryStore)(nil)
