// (c) 2025, Lux Collective Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package identity maintains the bijection between public keys and
// member ids and the membership-change audit trail (spec.md §4.2). It
// never touches balances directly; every state change it makes is
// routed through the ledger so I1–I5 stay the single arbiter of what
// is allowed.
package identity

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/luxfi/cellcore/ids"
	"github.com/luxfi/cellcore/ledger"
	"github.com/luxfi/cellcore/utils"
	"github.com/luxfi/log"
)

// Record is the durable identity entry for one member.
type Record struct {
	Member      ids.MemberID
	PublicKey   ids.PublicKey
	DisplayName string
	Status      ledger.Status
	CreatedAt   time.Time
}

// Clone returns a copy safe to hand to callers.
func (r Record) Clone() Record { return r }

// ChangeRecord is one append-only entry in the membership audit trail.
type ChangeRecord struct {
	Member ids.MemberID
	Kind   string
	At     time.Time
	Detail string
}

// Change kinds recorded in the audit trail.
const (
	ChangeAdmitted = "ADMITTED"
	ChangeAccepted = "ACCEPTED"
	ChangeFrozen   = "FROZEN"
	ChangeUnfrozen = "UNFROZEN"
	ChangeRemoved  = "REMOVED"
)

// ActiveCommitmentChecker reports whether a member has any ACTIVE
// commitment outstanding; removal is blocked while true. Implemented by
// the commitment package; declared here as a narrow observer interface
// to avoid a circular import (spec.md §9 redesign flag on acyclic
// construction).
type ActiveCommitmentChecker interface {
	HasActiveCommitment(member ids.MemberID) bool
}

// Registry owns identity records and the audit trail for one cell.
type Registry struct {
	mu sync.RWMutex

	ledger     *ledger.Ledger
	clock      utils.Clock
	commitment ActiveCommitmentChecker

	byMember    map[ids.MemberID]*Record
	byPublicKey map[ids.PublicKey]ids.MemberID
	changes     []ChangeRecord

	logger log.Logger
}

// New creates an empty identity registry bound to a ledger. commitment
// may be nil until the commitment engine is wired, in which case
// removal skips the outstanding-commitment check. The commitment
// engine's own constructor takes this registry as its IdentityLookup,
// so the two are necessarily wired in two steps: construct identity
// with a nil checker, construct commitment against it, then call
// SetCommitmentChecker (spec.md §9 redesign flag: acyclic construction
// via narrow observer interfaces, wired post-construction to break the
// identity↔commitment cycle).
func New(l *ledger.Ledger, clock utils.Clock, commitment ActiveCommitmentChecker) *Registry {
	return &Registry{
		ledger:      l,
		clock:       clock,
		commitment:  commitment,
		byMember:    make(map[ids.MemberID]*Record),
		byPublicKey: make(map[ids.PublicKey]ids.MemberID),
		logger:      log.Root(),
	}
}

// SetCommitmentChecker wires the commitment engine in after both it and
// this registry have been constructed, resolving the identity↔commitment
// construction cycle without either package importing the other.
func (r *Registry) SetCommitmentChecker(commitment ActiveCommitmentChecker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commitment = commitment
}

// AlreadyExistsError is returned when admission targets a public key
// already bound to a member.
type AlreadyExistsError struct {
	PublicKey ids.PublicKey
}

func (e *AlreadyExistsError) Error() string {
	return "identity: public key already bound to a member"
}

// NotFoundError is returned when a lookup misses.
type NotFoundError struct {
	Member ids.MemberID
}

func (e *NotFoundError) Error() string {
	return "identity: member not found"
}

// ActiveCommitmentsError blocks removal while obligations remain open.
type ActiveCommitmentsError struct {
	Member ids.MemberID
}

func (e *ActiveCommitmentsError) Error() string {
	return "identity: member has active commitments, cannot be removed"
}

// AddMember admits an applicant: creates an identity at
// PENDING_PROFILE and inserts a ledger member with limit_default
// (spec.md §4.2). Public-key collision fails with AlreadyExistsError.
func (r *Registry) AddMember(member ids.MemberID, pub ids.PublicKey, displayName string) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byPublicKey[pub]; exists {
		return Record{}, &AlreadyExistsError{PublicKey: pub}
	}
	if _, exists := r.byMember[member]; exists {
		return Record{}, &AlreadyExistsError{PublicKey: pub}
	}

	params := r.ledger.Parameters()
	if err := r.ledger.AddMember(member, params.LimitDefault); err != nil {
		return Record{}, err
	}

	now := r.clock.Time()
	rec := &Record{
		Member:      member,
		PublicKey:   pub,
		DisplayName: displayName,
		Status:      ledger.StatusPendingProfile,
		CreatedAt:   now,
	}
	r.byMember[member] = rec
	r.byPublicKey[pub] = member
	r.record(member, ChangeAdmitted, now, "")
	r.logger.Info("identity: member admitted", "member", member)
	return rec.Clone(), nil
}

// AcceptMember moves an identity from PENDING_PROFILE/REVIEW to ACTIVE
// once vetting completes, mirroring the ledger status transition.
func (r *Registry) AcceptMember(member ids.MemberID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byMember[member]
	if !ok {
		return &NotFoundError{Member: member}
	}
	if err := r.ledger.SetStatus(member, ledger.StatusActive); err != nil {
		return err
	}
	rec.Status = ledger.StatusActive
	r.record(member, ChangeAccepted, r.clock.Time(), "")
	return nil
}

// Freeze flips the member to FROZEN: it may still receive credits but
// cannot spend, propose transactions, vote, or create commitments
// (spec.md §4.2); those restrictions are enforced by the respective
// engines checking Status == FROZEN, not by this package.
func (r *Registry) Freeze(member ids.MemberID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byMember[member]
	if !ok {
		return &NotFoundError{Member: member}
	}
	if err := r.ledger.FreezeMember(member); err != nil {
		return err
	}
	rec.Status = ledger.StatusFrozen
	r.record(member, ChangeFrozen, r.clock.Time(), "")
	return nil
}

// Unfreeze restores a FROZEN member to ACTIVE.
func (r *Registry) Unfreeze(member ids.MemberID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byMember[member]
	if !ok {
		return &NotFoundError{Member: member}
	}
	if err := r.ledger.UnfreezeMember(member); err != nil {
		return err
	}
	rec.Status = ledger.StatusActive
	r.record(member, ChangeUnfrozen, r.clock.Time(), "")
	return nil
}

// RemoveMember requires balance = 0 and no ACTIVE commitments (spec.md
// §4.2); it soft-deletes via ledger.RemoveMember (status -> EXCLUDED)
// and appends a change record rather than erasing the identity record,
// preserving the public-key bijection's history for audit.
func (r *Registry) RemoveMember(member ids.MemberID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byMember[member]
	if !ok {
		return &NotFoundError{Member: member}
	}
	if r.commitment != nil && r.commitment.HasActiveCommitment(member) {
		return &ActiveCommitmentsError{Member: member}
	}
	if err := r.ledger.RemoveMember(member); err != nil {
		return err
	}
	rec.Status = ledger.StatusExcluded
	r.record(member, ChangeRemoved, r.clock.Time(), "")
	return nil
}

// GetIdentity returns a member's identity record.
func (r *Registry) GetIdentity(member ids.MemberID) (Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byMember[member]
	if !ok {
		return Record{}, &NotFoundError{Member: member}
	}
	return rec.Clone(), nil
}

// PublicKeyOf resolves a member's bound public key. Satisfies the
// narrow lookup interfaces the tx and commitment engines depend on
// instead of importing this package directly.
func (r *Registry) PublicKeyOf(member ids.MemberID) (ids.PublicKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byMember[member]
	if !ok {
		return ids.PublicKey{}, &NotFoundError{Member: member}
	}
	return rec.PublicKey, nil
}

// GetIdentityByPublicKey resolves a member by its bound public key.
func (r *Registry) GetIdentityByPublicKey(pub ids.PublicKey) (Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	member, ok := r.byPublicKey[pub]
	if !ok {
		return Record{}, &NotFoundError{}
	}
	return r.byMember[member].Clone(), nil
}

// Search returns every identity record whose display name contains
// query as a substring, sorted by member id for determinism. A small
// linear scan is sufficient at cell scale (tens to low hundreds of
// members); no index is warranted.
func (r *Registry) Search(query string) []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Record
	for _, rec := range r.byMember {
		if strings.Contains(strings.ToLower(rec.DisplayName), strings.ToLower(query)) {
			out = append(out, rec.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Member < out[j].Member })
	return out
}

// ChangeHistory returns the full membership-change audit trail for a
// member, in chronological order.
func (r *Registry) ChangeHistory(member ids.MemberID) []ChangeRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []ChangeRecord
	for _, c := range r.changes {
		if c.Member == member {
			out = append(out, c)
		}
	}
	return out
}

func (r *Registry) record(member ids.MemberID, kind string, at time.Time, detail string) {
	r.changes = append(r.changes, ChangeRecord{Member: member, Kind: kind, At: at, Detail: detail})
}
