// (c) 2025, Lux Collective Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package eventlog

import (
	"fmt"
	"sync"

	"github.com/luxfi/cellcore/crypto"
	"github.com/luxfi/cellcore/ids"
	"github.com/luxfi/cellcore/utils"
)

// Log is the per-cell append-only event sequence. Sequence numbers are
// strictly increasing and contiguous (I7); Append is the only mutator
// and is safe for concurrent use, though the engines above only ever
// call it from within their own single-writer critical section
// (spec.md §5).
type Log struct {
	mu       sync.Mutex
	cellID   ids.CellID
	clock    utils.Clock
	next     uint64
	events   []Event
}

// New creates an empty log for the given cell.
func New(cellID ids.CellID, clock utils.Clock) *Log {
	return &Log{cellID: cellID, clock: clock, next: 1}
}

// Append assigns the next sequence number and records a new event.
// triggeringOperationID may be empty for engine-internal mutations that
// are not a response to a single external operation (e.g. an emergency
// auto-transition).
func (l *Log) Append(typ Type, triggeringOperationID string, payload any) Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	seq := l.next
	l.next++
	ts := l.clock.Time()

	// The id is content-derived (hashes cell, sequence, type, timestamp
	// and the triggering operation) rather than a bare counter, so two
	// independently replayed logs that reach the same state agree on
	// event ids without needing to exchange them.
	digest := utils.ComputeHash256Array(crypto.NewCanonical().
		String(string(l.cellID)).
		Uint64(seq).
		String(string(typ)).
		Int64(ts.UnixNano()).
		String(triggeringOperationID).
		Bytes())

	ev := Event{
		ID:                    ids.EventID(fmt.Sprintf("%s-%d-%x", l.cellID, seq, digest[:8])),
		CellID:                l.cellID,
		SequenceNumber:        seq,
		Type:                  typ,
		Timestamp:             ts,
		TriggeringOperationID: triggeringOperationID,
		Payload:               payload,
	}
	l.events = append(l.events, ev)
	return ev
}

// Len returns the number of events recorded.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

// All returns a copy of every event in sequence order. Intended for
// replay and for tests; not for hot-path use by engines.
func (l *Log) All() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// Since returns every event with SequenceNumber > after, in order.
func (l *Log) Since(after uint64) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Event
	for _, ev := range l.events {
		if ev.SequenceNumber > after {
			out = append(out, ev)
		}
	}
	return out
}
