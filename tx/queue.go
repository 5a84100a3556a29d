// (c) 2025, Lux Collective Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package tx

import (
	"sort"
	"sync"

	"github.com/luxfi/cellcore/ids"
)

// QueueEntry is one pending submission awaiting sync (spec.md §4.3).
type QueueEntry struct {
	Input  CreateSpotTransactionInput
	Failed bool
	Err    error
}

// Queue is a buffer for signed transactions accepted for later
// execution, ordered by timestamp. It never holds balances; sync
// re-validates each entry against live state (spec.md §4.3).
type Queue struct {
	mu      sync.Mutex
	engine  *Engine
	entries map[ids.TransactionID]*QueueEntry
}

// NewQueue creates an empty offline queue bound to the engine that
// will execute entries at sync time.
func NewQueue(engine *Engine) *Queue {
	return &Queue{engine: engine, entries: make(map[ids.TransactionID]*QueueEntry)}
}

// Submit accepts a signed transaction for later execution. The
// transaction is not validated against live state here; Sync does
// that.
func (q *Queue) Submit(in CreateSpotTransactionInput) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries[in.ID] = &QueueEntry{Input: in}
}

// Sync re-validates every queued, not-yet-failed entry against live
// ledger state in timestamp order. INSUFFICIENT_CAPACITY keeps an
// entry queued for a later sync; any other failure marks it failed and
// it is surfaced to the caller but left in the queue for inspection
// (spec.md §4.3). Successfully executed entries are removed.
func (q *Queue) Sync() []QueueEntry {
	q.mu.Lock()
	pending := make([]*QueueEntry, 0, len(q.entries))
	for _, e := range q.entries {
		if !e.Failed {
			pending = append(pending, e)
		}
	}
	q.mu.Unlock()

	sort.Slice(pending, func(i, j int) bool {
		return pending[i].Input.Timestamp.Before(pending[j].Input.Timestamp)
	})

	var results []QueueEntry
	for _, e := range pending {
		_, err := q.engine.Submit(e.Input)
		if err == nil {
			q.mu.Lock()
			delete(q.entries, e.Input.ID)
			q.mu.Unlock()
			results = append(results, QueueEntry{Input: e.Input})
			continue
		}

		var dup *DuplicateTransactionError
		if isDuplicate(err, &dup) {
			q.mu.Lock()
			delete(q.entries, e.Input.ID)
			q.mu.Unlock()
			continue
		}

		var insufficient *InsufficientCapacityError
		if isInsufficientCapacity(err, &insufficient) {
			results = append(results, QueueEntry{Input: e.Input, Failed: false, Err: err})
			continue
		}

		q.mu.Lock()
		if stored, ok := q.entries[e.Input.ID]; ok {
			stored.Failed = true
			stored.Err = err
		}
		q.mu.Unlock()
		results = append(results, QueueEntry{Input: e.Input, Failed: true, Err: err})
	}
	return results
}

func isDuplicate(err error, target **DuplicateTransactionError) bool {
	d, ok := err.(*DuplicateTransactionError)
	if ok {
		*target = d
	}
	return ok
}

func isInsufficientCapacity(err error, target **InsufficientCapacityError) bool {
	c, ok := err.(*InsufficientCapacityError)
	if ok {
		*target = c
	}
	return ok
}

// Stats summarizes the current queue contents.
type Stats struct {
	Pending int
	Failed  int
}

// Stats returns the current queue composition.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	var s Stats
	for _, e := range q.entries {
		if e.Failed {
			s.Failed++
		} else {
			s.Pending++
		}
	}
	return s
}
