// (c) 2025, Lux Collective Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"sort"
	"sync"

	"github.com/luxfi/cellcore/eventlog"
	"github.com/luxfi/cellcore/ids"
	"github.com/luxfi/cellcore/utils"
	"github.com/luxfi/log"
)

// Ledger owns the authoritative member-state map for one cell. All
// mutation arrives through ApplyBalanceUpdates/ApplyReserveUpdate or
// the membership mutators below; there is no other write path.
//
// Atomicity (spec.md §4.1): every mutator stages its changes in a
// working copy and only swaps it into members after every invariant
// check has passed, mirroring the teacher's txpool pattern of building
// a full result set before acting on any of it.
type Ledger struct {
	mu sync.RWMutex

	cellID     ids.CellID
	params     Parameters
	members    map[ids.MemberID]*MemberState
	version    uint64
	eventLog   *eventlog.Log
	clock      utils.Clock
	statsCache *ledgerStatsCache

	logger log.Logger
}

// New creates an empty ledger for a cell with the given parameters.
func New(cellID ids.CellID, params Parameters, eventLog *eventlog.Log, clock utils.Clock) *Ledger {
	return &Ledger{
		cellID:     cellID,
		params:     params,
		members:    make(map[ids.MemberID]*MemberState),
		eventLog:   eventLog,
		clock:      clock,
		statsCache: newLedgerStatsCache(),
		logger:     log.Root(),
	}
}

// Version returns the current ledger version, bumped once per
// successfully committed batch.
func (l *Ledger) Version() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.version
}

// Parameters returns the ledger's immutable parameters.
func (l *Ledger) Parameters() Parameters {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.params
}

// GetMemberState returns a copy of a member's full state.
func (l *Ledger) GetMemberState(id ids.MemberID) (MemberState, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	m, ok := l.members[id]
	if !ok {
		return MemberState{}, &MemberNotFoundError{Member: id}
	}
	return m.Clone(), nil
}

// GetBalance returns a member's current balance.
func (l *Ledger) GetBalance(id ids.MemberID) (int64, error) {
	m, err := l.GetMemberState(id)
	if err != nil {
		return 0, err
	}
	return m.Balance, nil
}

// CanSpend reports whether member id can spend v more units right now
// (spec.md §4.1): in ESCROWED mode, balance - reserve - v >= -limit;
// otherwise balance - v >= -limit.
func (l *Ledger) CanSpend(id ids.MemberID, v int64) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	m, ok := l.members[id]
	if !ok {
		return false, &MemberNotFoundError{Member: id}
	}
	return l.canSpendLocked(m, v), nil
}

// Available returns the maximum amount id can currently spend without
// breaching its floor, given the active commitment mode. Used to build
// InsufficientCapacity{available, required} errors at call sites.
func (l *Ledger) Available(id ids.MemberID) (int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	m, ok := l.members[id]
	if !ok {
		return 0, &MemberNotFoundError{Member: id}
	}
	usable := m.Balance
	if l.params.CommitmentMode == CommitmentEscrowed {
		usable -= m.Reserve
	}
	available := usable + m.Limit
	if available < 0 {
		available = 0
	}
	return available, nil
}

func (l *Ledger) canSpendLocked(m *MemberState, v int64) bool {
	usable := m.Balance
	if l.params.CommitmentMode == CommitmentEscrowed {
		usable -= m.Reserve
	}
	return usable-v >= -m.Limit
}

// ApplyBalanceUpdates commits a batch of balance deltas atomically
// (spec.md §4.1). The batch either commits entirely or the ledger is
// left unchanged.
func (l *Ledger) ApplyBalanceUpdates(batch []BalanceDelta) (eventlog.Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(batch) == 0 {
		return eventlog.Event{}, nil
	}

	var sum int64
	staged := make(map[ids.MemberID]MemberState, len(batch))
	for _, d := range batch {
		m, ok := l.members[d.Member]
		if !ok {
			return eventlog.Event{}, &MemberNotFoundError{Member: d.Member}
		}
		if d.Delta < 0 && m.Status == StatusFrozen {
			return eventlog.Event{}, &MemberFrozenError{Member: d.Member}
		}
		sum += d.Delta

		working, already := staged[d.Member]
		if !already {
			working = m.Clone()
		}
		working.Balance += d.Delta
		staged[d.Member] = working
	}
	if sum != 0 {
		return eventlog.Event{}, ErrConservationViolation
	}

	for member, working := range staged {
		if working.Balance < -working.Limit {
			return eventlog.Event{}, &FloorViolationError{
				Member:       member,
				WouldBalance: working.Balance,
				Limit:        working.Limit,
			}
		}
		if l.params.CommitmentMode == CommitmentEscrowed && working.Balance-working.Reserve < -working.Limit {
			return eventlog.Event{}, &EscrowViolationError{
				Member:       member,
				WouldBalance: working.Balance,
				Reserve:      working.Reserve,
				Limit:        working.Limit,
			}
		}
	}

	// All checks passed: commit.
	records := make([]eventlog.BalanceDeltaRecord, 0, len(batch))
	for _, d := range batch {
		l.members[d.Member].Balance = staged[d.Member].Balance
		records = append(records, eventlog.BalanceDeltaRecord{
			Member: d.Member,
			Delta:  d.Delta,
			Reason: d.Reason,
		})
	}
	l.version++
	l.statsCache.invalidate()

	triggeringID := ""
	if len(batch) > 0 {
		triggeringID = string(batch[0].RelatedEventID)
	}
	ev := l.eventLog.Append(eventlog.TypeBalanceUpdate, triggeringID, eventlog.BalanceUpdatePayload{Deltas: records})
	l.logger.Debug("ledger: applied balance batch", "version", l.version, "legs", len(batch))
	return ev, nil
}

// ApplyReserveUpdate changes one member's reserve (spec.md §4.1).
func (l *Ledger) ApplyReserveUpdate(update ReserveUpdate) (eventlog.Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.members[update.Member]
	if !ok {
		return eventlog.Event{}, &MemberNotFoundError{Member: update.Member}
	}
	newReserve := m.Reserve + update.Delta
	if newReserve < 0 {
		return eventlog.Event{}, ErrReserveNegative
	}
	if l.params.CommitmentMode == CommitmentEscrowed && m.Balance-newReserve < -m.Limit {
		return eventlog.Event{}, &EscrowViolationError{
			Member:       update.Member,
			WouldBalance: m.Balance,
			Reserve:      newReserve,
			Limit:        m.Limit,
		}
	}

	m.Reserve = newReserve
	l.version++
	l.statsCache.invalidate()

	ev := l.eventLog.Append(eventlog.TypeReserveUpdate, "", eventlog.ReserveUpdatePayload{
		Member: update.Member,
		Delta:  update.Delta,
	})
	l.logger.Debug("ledger: applied reserve update", "member", update.Member, "delta", update.Delta)
	return ev, nil
}

// SetMemberLimit changes a member's limit (spec.md §4.1). Fails if
// newLimit is outside [limit_min, limit_max] or would make balance <
// -newLimit (decreasing the limit below current debt). Equality
// (newLimit == -balance) is allowed (spec.md §9 Open Questions).
func (l *Ledger) SetMemberLimit(id ids.MemberID, newLimit int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.members[id]
	if !ok {
		return &MemberNotFoundError{Member: id}
	}
	if newLimit < l.params.LimitMin || newLimit > l.params.LimitMax {
		return ErrLimitOutOfBounds
	}
	if m.Balance < -newLimit {
		return &FloorViolationError{Member: id, WouldBalance: m.Balance, Limit: newLimit}
	}

	m.Limit = newLimit
	l.version++
	l.eventLog.Append(eventlog.TypeMemberLimitChanged, "", eventlog.ReserveUpdatePayload{Member: id, Delta: newLimit})
	return nil
}

// AddMember inserts a new member at PENDING_PROFILE with the given
// initial limit. Callable only by Identity/Governance.
func (l *Ledger) AddMember(id ids.MemberID, initialLimit int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.members[id]; exists {
		return &MemberAlreadyExistsError{Member: id}
	}
	if initialLimit < l.params.LimitMin || initialLimit > l.params.LimitMax {
		return ErrLimitOutOfBounds
	}

	now := l.clock.Time()
	l.members[id] = &MemberState{
		ID:             id,
		Limit:          initialLimit,
		Status:         StatusPendingProfile,
		JoinedAt:       now,
		LastActivityAt: now,
	}
	l.version++
	l.statsCache.invalidate()
	l.eventLog.Append(eventlog.TypeMemberAdded, "", id)
	return nil
}

// RemoveMember soft-deletes a member (status -> EXCLUDED). Requires
// balance = 0; outstanding-commitment checks are the identity package's
// responsibility (the ledger has no notion of a commitment).
func (l *Ledger) RemoveMember(id ids.MemberID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.members[id]
	if !ok {
		return &MemberNotFoundError{Member: id}
	}
	if m.Balance != 0 {
		return &RemovalNotEligibleError{Member: id, Balance: m.Balance}
	}

	m.Status = StatusExcluded
	l.version++
	l.eventLog.Append(eventlog.TypeMemberRemoved, "", id)
	return nil
}

// FreezeMember transitions a member to FROZEN. Existing credits may
// still land on a frozen member; ApplyBalanceUpdates rejects any batch
// that would debit one (spec.md §4.1).
func (l *Ledger) FreezeMember(id ids.MemberID) error {
	return l.SetStatus(id, StatusFrozen)
}

// UnfreezeMember transitions a frozen member back to ACTIVE.
func (l *Ledger) UnfreezeMember(id ids.MemberID) error {
	return l.SetStatus(id, StatusActive)
}

// SetStatus transitions a member to a new status (used by Identity for
// PENDING_PROFILE->REVIEW->PROBATION/ACTIVE and by Governance/Identity
// for FREEZE/UNFREEZE). Never changes balances.
func (l *Ledger) SetStatus(id ids.MemberID, status Status) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.members[id]
	if !ok {
		return &MemberNotFoundError{Member: id}
	}
	m.Status = status
	l.version++
	l.eventLog.Append(eventlog.TypeMemberStatusChanged, "", id)
	return nil
}

// Touch updates a member's lastActivityAt marker to now. Called by
// engines after any operation that references the member; not itself a
// batched mutation subject to invariant checks.
func (l *Ledger) Touch(id ids.MemberID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if m, ok := l.members[id]; ok {
		m.LastActivityAt = l.clock.Time()
	}
}

// SetCommitmentMode changes the cell-wide commitment mode, e.g. when
// the emergency risk-state machine forces ESCROWED under PANIC
// (spec.md §4.6). Existing reserves are left untouched; only the mode
// used by future capacity checks changes.
func (l *Ledger) SetCommitmentMode(mode CommitmentMode) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.params.CommitmentMode = mode
}

// MemberIDs returns all member ids, sorted, for deterministic iteration
// (spec.md §9: "iteration for statistics must be deterministic").
func (l *Ledger) MemberIDs() []ids.MemberID {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]ids.MemberID, 0, len(l.members))
	for id := range l.members {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
