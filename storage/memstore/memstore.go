// (c) 2025, Lux Collective Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package memstore is an in-memory storage.Store reference
// implementation, used by engine tests and single-process tooling. It
// is not a production persistence backend (spec.md §1 Non-goals).
package memstore

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/luxfi/cellcore/storage"
)

// Store is a mutex-guarded in-memory map satisfying storage.Store.
type Store struct {
	mu   sync.RWMutex
	docs map[string]storage.Document
	rev  uint64
}

var _ storage.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{docs: make(map[string]storage.Document)}
}

func (s *Store) Get(key string) (storage.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[key]
	if !ok {
		return storage.Document{}, storage.ErrNotFound
	}
	return doc, nil
}

func (s *Store) Put(key string, value []byte, expectedRevision storage.Revision) (storage.Revision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.docs[key]
	var currentRev storage.Revision
	if ok {
		currentRev = existing.Revision
	}
	if expectedRevision != currentRev {
		return "", storage.ErrRevisionConflict
	}

	s.rev++
	next := storage.Revision(strconv.FormatUint(s.rev, 10))
	cp := make([]byte, len(value))
	copy(cp, value)
	s.docs[key] = storage.Document{Key: key, Value: cp, Revision: next}
	return next, nil
}

func (s *Store) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, key)
	return nil
}

func (s *Store) Query(prefix string) ([]storage.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []storage.Document
	for k, doc := range s.docs {
		if strings.HasPrefix(k, prefix) {
			out = append(out, doc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}
