// (c) 2025, Lux Collective Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package commitment

import (
	"sort"
	"sync"
	"time"

	"github.com/luxfi/cellcore/crypto"
	"github.com/luxfi/cellcore/eventlog"
	"github.com/luxfi/cellcore/ids"
	"github.com/luxfi/cellcore/ledger"
	"github.com/luxfi/cellcore/utils"
	"github.com/luxfi/log"
)

// IdentityLookup resolves a member's bound public key (spec.md §9
// redesign flag: acyclic construction via narrow interfaces, the same
// pattern used by tx.IdentityLookup).
type IdentityLookup interface {
	PublicKeyOf(member ids.MemberID) (ids.PublicKey, error)
}

// Engine owns every commitment in a cell and their reserve-interacting
// lifecycle transitions (spec.md §4.4).
type Engine struct {
	mu sync.RWMutex

	ledger   *ledger.Ledger
	identity IdentityLookup
	verifier crypto.Verifier
	eventLog *eventlog.Log
	clock    utils.Clock

	byID map[ids.CommitmentID]*Commitment

	logger log.Logger
}

// New creates an empty commitment engine.
func New(l *ledger.Ledger, identity IdentityLookup, verifier crypto.Verifier, eventLog *eventlog.Log, clock utils.Clock) *Engine {
	return &Engine{
		ledger:   l,
		identity: identity,
		verifier: verifier,
		eventLog: eventLog,
		clock:    clock,
		byID:     make(map[ids.CommitmentID]*Commitment),
		logger:   log.Root(),
	}
}

func canonicalPayload(id ids.CommitmentID, promisor, promisee ids.MemberID, value int64, shape Shape, category, description string, dueDate time.Time) []byte {
	return crypto.NewCanonical().
		String(string(id)).
		String(string(promisor)).
		String(string(promisee)).
		Int64(value).
		String(shape.String()).
		String(category).
		String(description).
		Int64(dueDate.UnixNano()).
		Bytes()
}

// Propose creates a commitment in PROPOSED state, signed by the
// promisor only. For ESCROWED commitments the promisor's reserve is
// increased by value immediately (spec.md §4.4: "on creation").
func (e *Engine) Propose(in CreateCommitmentInput) (Commitment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.byID[in.ID]; exists {
		return Commitment{}, &AlreadyFulfilledError{ID: in.ID}
	}
	if !in.DueDate.After(in.CreatedAt) {
		return Commitment{}, &InvalidDueDateError{DueDate: in.DueDate.String()}
	}

	promisorState, err := e.ledger.GetMemberState(in.Promisor)
	if err != nil || promisorState.Status != ledger.StatusActive {
		return Commitment{}, &MemberNotActiveError{Member: in.Promisor}
	}
	promiseeState, err := e.ledger.GetMemberState(in.Promisee)
	if err != nil || promiseeState.Status != ledger.StatusActive {
		return Commitment{}, &MemberNotActiveError{Member: in.Promisee}
	}

	payload := canonicalPayload(in.ID, in.Promisor, in.Promisee, in.Value, in.Shape, in.Category, in.Description, in.DueDate)
	promisorKey, err := e.identity.PublicKeyOf(in.Promisor)
	if err != nil {
		return Commitment{}, &MemberNotActiveError{Member: in.Promisor}
	}
	if !e.verifier.Verify(promisorKey, payload, in.PromisorSignature) {
		return Commitment{}, &InvalidSignatureError{ID: in.ID}
	}

	if in.Shape == ShapeEscrowed {
		if _, err := e.ledger.ApplyReserveUpdate(ledger.ReserveUpdate{Member: in.Promisor, Delta: in.Value}); err != nil {
			return Commitment{}, &InsufficientReserveCapacityError{Promisor: in.Promisor, Value: in.Value}
		}
	}

	c := &Commitment{
		ID:                in.ID,
		Promisor:          in.Promisor,
		Promisee:          in.Promisee,
		Value:             in.Value,
		Shape:             in.Shape,
		Category:          in.Category,
		Description:       in.Description,
		DueDate:           in.DueDate,
		Status:            StatusProposed,
		CreatedAt:         in.CreatedAt,
		PromisorSignature: in.PromisorSignature,
	}
	e.byID[in.ID] = c
	e.eventLog.Append(eventlog.TypeCommitmentCreated, string(in.ID), nil)
	return c.Clone(), nil
}

// Activate moves a PROPOSED commitment to ACTIVE once the promisee
// co-signs (spec.md §4.4).
func (e *Engine) Activate(id ids.CommitmentID, promiseeSignature crypto.Signature) (Commitment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, ok := e.byID[id]
	if !ok {
		return Commitment{}, &NotFoundError{ID: id}
	}
	if c.Status != StatusProposed {
		return Commitment{}, &InvalidStatusTransitionError{ID: id, From: c.Status, Want: "PROPOSED"}
	}

	payload := canonicalPayload(c.ID, c.Promisor, c.Promisee, c.Value, c.Shape, c.Category, c.Description, c.DueDate)
	promiseeKey, err := e.identity.PublicKeyOf(c.Promisee)
	if err != nil {
		return Commitment{}, &MemberNotActiveError{Member: c.Promisee}
	}
	if !e.verifier.Verify(promiseeKey, payload, promiseeSignature) {
		return Commitment{}, &InvalidSignatureError{ID: id}
	}

	c.PromiseeSignature = promiseeSignature
	c.Status = StatusActive
	e.eventLog.Append(eventlog.TypeCommitmentActivated, string(id), nil)
	return c.Clone(), nil
}

// Fulfill confirms delivery: releases any reserve, then executes the
// underlying transaction payer=promisee, payee=promisor, amount=value
// (spec.md §4.4, the mandated one-way fulfillment convention). If the
// transfer fails after the reserve release, the release is reversed in
// the same failure path (rollback rule).
func (e *Engine) Fulfill(id ids.CommitmentID, rating int) (Commitment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, ok := e.byID[id]
	if !ok {
		return Commitment{}, &NotFoundError{ID: id}
	}
	if c.Status != StatusActive {
		return Commitment{}, &InvalidStatusTransitionError{ID: id, From: c.Status, Want: "ACTIVE"}
	}

	promisorState, err := e.ledger.GetMemberState(c.Promisor)
	if err != nil {
		return Commitment{}, &LedgerError{Err: err}
	}
	if promisorState.Status != ledger.StatusActive {
		return Commitment{}, &MemberNotActiveError{Member: c.Promisor}
	}
	promiseeState, err := e.ledger.GetMemberState(c.Promisee)
	if err != nil {
		return Commitment{}, &LedgerError{Err: err}
	}
	if promiseeState.Status != ledger.StatusActive {
		return Commitment{}, &MemberNotActiveError{Member: c.Promisee}
	}

	releasedReserve := false
	if c.Shape == ShapeEscrowed {
		if _, err := e.ledger.ApplyReserveUpdate(ledger.ReserveUpdate{Member: c.Promisor, Delta: -c.Value}); err != nil {
			return Commitment{}, &LedgerError{Err: err}
		}
		releasedReserve = true
	}

	ev, err := e.ledger.ApplyBalanceUpdates([]ledger.BalanceDelta{
		{Member: c.Promisee, Delta: -c.Value, Reason: ledger.ReasonCommitmentFulfill, RelatedEventID: ids.EventID(id)},
		{Member: c.Promisor, Delta: c.Value, Reason: ledger.ReasonCommitmentFulfill, RelatedEventID: ids.EventID(id)},
	})
	if err != nil {
		if releasedReserve {
			// Rollback: restore the reserve we just released.
			if _, rbErr := e.ledger.ApplyReserveUpdate(ledger.ReserveUpdate{Member: c.Promisor, Delta: c.Value}); rbErr != nil {
				e.logger.Error("commitment: reserve rollback failed after fulfillment failure", "id", id, "err", rbErr)
			}
		}
		return Commitment{}, &LedgerError{Err: err}
	}

	c.Status = StatusFulfilled
	c.Rating = rating
	e.eventLog.Append(eventlog.TypeCommitmentFulfilled, string(id), nil)
	e.logger.Info("commitment: fulfilled", "id", id, "event", ev.ID)
	return c.Clone(), nil
}

// Cancel releases any reserve without executing a transaction
// (spec.md §4.4). caller must be the promisor, the promisee, or
// governance acting via CancelByGovernance.
func (e *Engine) Cancel(id ids.CommitmentID, caller ids.MemberID) (Commitment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cancelLocked(id, &caller)
}

// CancelByGovernance cancels a commitment on governance authority,
// bypassing the promisor/promisee check.
func (e *Engine) CancelByGovernance(id ids.CommitmentID) (Commitment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cancelLocked(id, nil)
}

func (e *Engine) cancelLocked(id ids.CommitmentID, caller *ids.MemberID) (Commitment, error) {
	c, ok := e.byID[id]
	if !ok {
		return Commitment{}, &NotFoundError{ID: id}
	}
	if c.Status != StatusProposed && c.Status != StatusActive {
		return Commitment{}, &AlreadyFulfilledError{ID: id}
	}
	if caller != nil && *caller != c.Promisor && *caller != c.Promisee {
		return Commitment{}, &CancellationNotAuthorizedError{ID: id}
	}

	if c.Shape == ShapeEscrowed {
		if _, err := e.ledger.ApplyReserveUpdate(ledger.ReserveUpdate{Member: c.Promisor, Delta: -c.Value}); err != nil {
			return Commitment{}, &LedgerError{Err: err}
		}
	}

	c.Status = StatusCancelled
	e.eventLog.Append(eventlog.TypeCommitmentCancelled, string(id), nil)
	return c.Clone(), nil
}

// MarkDisputed transitions an ACTIVE commitment to DISPUTED, called by
// the governance package when a dispute is opened against it.
func (e *Engine) MarkDisputed(id ids.CommitmentID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, ok := e.byID[id]
	if !ok {
		return &NotFoundError{ID: id}
	}
	if c.Status != StatusActive {
		return &InvalidStatusTransitionError{ID: id, From: c.Status, Want: "ACTIVE"}
	}
	c.Status = StatusDisputed
	e.eventLog.Append(eventlog.TypeCommitmentDisputed, string(id), nil)
	return nil
}

// Get returns a single commitment by id.
func (e *Engine) Get(id ids.CommitmentID) (Commitment, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	c, ok := e.byID[id]
	if !ok {
		return Commitment{}, &NotFoundError{ID: id}
	}
	return c.Clone(), nil
}

// HasActiveCommitment implements identity.ActiveCommitmentChecker:
// reports whether member is party to any ACTIVE commitment, blocking
// removal while true.
func (e *Engine) HasActiveCommitment(member ids.MemberID) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, c := range e.byID {
		if c.Status == StatusActive && (c.Promisor == member || c.Promisee == member) {
			return true
		}
	}
	return false
}

// QueryFilter narrows ByStatus/ByCategory/ByDateRange queries. Zero
// values leave the corresponding dimension unfiltered.
type QueryFilter struct {
	Status       *Status
	Category     string
	DueAfter     time.Time
	DueBefore    time.Time
	OverdueAsOf  time.Time
	OnlyOverdue  bool
}

// Query returns every commitment matching filter, sorted by id for
// deterministic iteration.
func (e *Engine) Query(filter QueryFilter) []Commitment {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var out []Commitment
	for _, c := range e.byID {
		if filter.Status != nil && c.Status != *filter.Status {
			continue
		}
		if filter.Category != "" && c.Category != filter.Category {
			continue
		}
		if !filter.DueAfter.IsZero() && c.DueDate.Before(filter.DueAfter) {
			continue
		}
		if !filter.DueBefore.IsZero() && c.DueDate.After(filter.DueBefore) {
			continue
		}
		if filter.OnlyOverdue && !c.IsOverdue(filter.OverdueAsOf) {
			continue
		}
		out = append(out, c.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
