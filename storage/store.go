// (c) 2025, Lux Collective Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package storage defines the key/value store interface the cell core
// consumes (spec.md §6). Implementing a real backend is explicitly out
// of scope for the core (spec.md §1 Non-goals / Out of scope); this
// package only specifies the contract and a small in-memory reference
// implementation used by tests and single-process tooling.
package storage

import "errors"

// ErrNotFound is returned when a document does not exist at the given key.
var ErrNotFound = errors.New("storage: document not found")

// ErrRevisionConflict is returned by Put when the caller's expected
// revision does not match the store's current revision for that key
// (optimistic concurrency, spec.md §6: "every document carries a
// revision token").
var ErrRevisionConflict = errors.New("storage: revision conflict")

// Revision is an opaque optimistic-concurrency token. The zero value
// means "no document yet" and is only valid as the expected revision on
// a create.
type Revision string

// Document is a stored value plus its current revision token.
type Document struct {
	Key      string
	Value    []byte
	Revision Revision
}

// Store is the key/value interface the engines are built against.
// Query walks a key prefix, the composite-key convention key/value
// backends such as the teacher's rawdb layer use in place of a query
// planner. The packages in this module write only primary documents
// (e.g. "tx/{id}"); no secondary index entries are written.
type Store interface {
	// Get fetches the document at key. Returns ErrNotFound if absent.
	Get(key string) (Document, error)

	// Put creates or updates the document at key. expectedRevision must
	// match the store's current revision (or be "" for a fresh key);
	// otherwise ErrRevisionConflict is returned and the store is
	// unchanged. Returns the new revision on success.
	Put(key string, value []byte, expectedRevision Revision) (Revision, error)

	// Remove deletes the document at key. Not an error if absent.
	Remove(key string) error

	// Query returns all documents whose key starts with prefix, ordered
	// lexicographically by key.
	Query(prefix string) ([]Document, error)
}
