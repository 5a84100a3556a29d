// (c) 2025, Lux Collective Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"errors"
	"fmt"

	"github.com/luxfi/cellcore/ids"
)

// Sentinel errors for the disjoint cases that carry no extra context,
// mirroring the teacher's vmerrs package (package-level errors.New
// values, no behavior hung off the error type).
var (
	ErrConservationViolation = errors.New("ledger: batch deltas do not sum to zero")
	ErrReserveNegative       = errors.New("ledger: reserve update would go negative")
	ErrLimitOutOfBounds      = errors.New("ledger: limit outside [limit_min, limit_max]")
)

// MemberNotFoundError is returned whenever a mutating or querying
// operation references an unknown member id.
type MemberNotFoundError struct {
	Member ids.MemberID
}

func (e *MemberNotFoundError) Error() string {
	return fmt.Sprintf("ledger: member %q not found", e.Member)
}

// MemberFrozenError is returned when a batch would debit a FROZEN
// member (credits to frozen members are allowed, spec.md §4.1).
type MemberFrozenError struct {
	Member ids.MemberID
}

func (e *MemberFrozenError) Error() string {
	return fmt.Sprintf("ledger: member %q is frozen and cannot be debited", e.Member)
}

// FloorViolationError is returned when a batch would push a member's
// balance below -limit (I2).
type FloorViolationError struct {
	Member       ids.MemberID
	WouldBalance int64
	Limit        int64
}

func (e *FloorViolationError) Error() string {
	return fmt.Sprintf("ledger: member %q would reach balance %d below floor -%d", e.Member, e.WouldBalance, e.Limit)
}

// EscrowViolationError is returned when a batch would push a member's
// usable balance (balance - reserve) below -limit under ESCROWED mode (I4).
type EscrowViolationError struct {
	Member       ids.MemberID
	WouldBalance int64
	Reserve      int64
	Limit        int64
}

func (e *EscrowViolationError) Error() string {
	return fmt.Sprintf("ledger: member %q would reach usable balance %d below floor -%d (reserve %d)",
		e.Member, e.WouldBalance-e.Reserve, e.Limit, e.Reserve)
}

// MemberAlreadyExistsError is returned when addMember targets an id
// already present in the ledger.
type MemberAlreadyExistsError struct {
	Member ids.MemberID
}

func (e *MemberAlreadyExistsError) Error() string {
	return fmt.Sprintf("ledger: member %q already exists", e.Member)
}

// RemovalNotEligibleError is returned when removeMember is attempted on
// a member whose balance is nonzero (removal requires balance = 0,
// spec.md §3 Lifecycles; outstanding ACTIVE commitments are checked by
// the identity package, which owns the commitment-aware removal path).
type RemovalNotEligibleError struct {
	Member  ids.MemberID
	Balance int64
}

func (e *RemovalNotEligibleError) Error() string {
	return fmt.Sprintf("ledger: member %q has nonzero balance %d, cannot be removed", e.Member, e.Balance)
}
