package store

import (
	"errors"

	"tripledger/internal/models"
)

// ErrNotFound is returned for an unknown trip ID
var ErrNotFound = errors.New("audit record not found")

// Store holds the sealed audit records of the current run and the
// append-only violation log. It has a single owner, the record builder.
type Store interface {
	// Get returns a copy of the record for tripID.
	Get(tripID string) (*models.AuditRecord, error)

	// Put stores a single record, replacing any record for the same trip.
	Put(record *models.AuditRecord) error

	// Update mutates the stored record in place under the write lock.
	Update(tripID string, fn func(*models.AuditRecord)) error

	// ReplaceAll swaps in a complete record set in one step.
	// Readers see either the old set or the new one, never a mix.
	ReplaceAll(records map[string]*models.AuditRecord)

	// TripIDs lists the stored trip IDs in sorted order.
	TripIDs() []string

	// Records returns copies of every stored record keyed by trip ID.
	Records() map[string]*models.AuditRecord

	// AppendViolation appends v unless an entry for the same (AuditID, Field)
	// already exists. The check and the append are atomic.
	AppendViolation(v models.ViolationRecord) bool

	// Violations returns the log in append order.
	Violations() []models.ViolationRecord

	// Reset drops every record and the violation log. Administrative use only.
	Reset()

	// ResetViolations drops only the violation log. Administrative use only.
	ResetViolations()
}
