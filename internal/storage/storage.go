// Package storage defines the Storage interface, the contract any
// persistence backend must satisfy to sit underneath the record store.
//
// WHY AN INTERFACE?
// ─────────────────
// The record store should not know or care where records end up. By
// depending only on this interface:
//
//   - Switching backends = pick another driver in the config file.
//     The store, the validator and the handlers do not change.
//
//   - Writing tests = pass the in-memory adapter (storage/memory) or a
//     fake that fails on purpose. No real database needed.
//
// Four realizations live in sub-packages: memory (volatile), sqlite
// (local file), postgres (remote JSONB document table) and s3 (one JSON
// document per record in a bucket).
package storage

import (
	"context"
	"errors"

	"github.com/aanand-mishra/student-records/internal/types"
)

// ErrNotFound is returned by Replace and Remove when no record has the
// given id. Adapters wrap it, so check with errors.Is.
var ErrNotFound = errors.New("record not found")

// Storage is the persistence contract.
type Storage interface {
	// LoadAll returns every stored record, oldest first where the backend
	// can tell. Returns an empty slice (not nil) when there are none.
	LoadAll(ctx context.Context) ([]types.Student, error)

	// Insert stores a new record. The ID field of student is ignored: the
	// adapter generates a fresh one and returns the record as stored.
	Insert(ctx context.Context, student types.Student) (types.Student, error)

	// Replace overwrites the record with the given id and returns it as
	// stored. Returns ErrNotFound if there is no such record.
	Replace(ctx context.Context, id string, student types.Student) (types.Student, error)

	// Remove deletes the record permanently. Returns ErrNotFound if there
	// is no such record.
	Remove(ctx context.Context, id string) error
}
