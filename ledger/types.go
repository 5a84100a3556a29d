// (c) 2025, Lux Collective Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ledger owns the authoritative per-member balance/limit/
// reserve/status map for a cell and is the single arbiter of I1–I5
// (spec.md §3, §4.1). All mutation arrives as a batch and is applied
// atomically with invariant verification; nothing outside this package
// ever writes balances directly.
package ledger

import (
	"time"

	"github.com/luxfi/cellcore/ids"
)

// Status is a member's position in the admission/removal lifecycle
// (spec.md §3 Lifecycles).
type Status int

const (
	StatusPendingProfile Status = iota
	StatusReview
	StatusProbation
	StatusActive
	StatusFrozen
	StatusExcluded
)

func (s Status) String() string {
	switch s {
	case StatusPendingProfile:
		return "PENDING_PROFILE"
	case StatusReview:
		return "REVIEW"
	case StatusProbation:
		return "PROBATION"
	case StatusActive:
		return "ACTIVE"
	case StatusFrozen:
		return "FROZEN"
	case StatusExcluded:
		return "EXCLUDED"
	default:
		return "UNKNOWN"
	}
}

// CommitmentMode tunes how the ledger treats outstanding reserve when
// checking feasibility (spec.md §3 Ledger parameters, §4.6 Emergency).
type CommitmentMode int

const (
	CommitmentDisabled CommitmentMode = iota
	CommitmentSoft
	CommitmentEscrowed
)

func (m CommitmentMode) String() string {
	switch m {
	case CommitmentDisabled:
		return "DISABLED"
	case CommitmentSoft:
		return "SOFT"
	case CommitmentEscrowed:
		return "ESCROWED"
	default:
		return "UNKNOWN"
	}
}

// MemberState is the authoritative per-member record (spec.md §3).
type MemberState struct {
	ID              ids.MemberID
	Balance         int64
	Limit           int64
	Reserve         int64
	Status          Status
	JoinedAt        time.Time
	LastActivityAt  time.Time
}

// Clone returns a deep copy safe to hand to callers without risking a
// mutation of ledger-internal state.
func (m MemberState) Clone() MemberState {
	return m
}

// Parameters are the cell-wide, ledger-owned constants (spec.md §3).
// Parameters are immutable except through a governance-gated update
// that still passes through the ledger's own bounds checks.
type Parameters struct {
	LimitMin       int64
	LimitMax       int64
	LimitDefault   int64
	CommitmentMode CommitmentMode
	FloorThreshold float64 // ρ used by FloorMass(ρ)
}

// BalanceDelta is one leg of a balance-update batch (spec.md §4.1).
type BalanceDelta struct {
	Member         ids.MemberID
	Delta          int64
	Reason         string
	RelatedEventID ids.EventID
}

// ReserveUpdate changes one member's reserve (spec.md §4.1).
type ReserveUpdate struct {
	Member ids.MemberID
	Delta  int64
}

// Reason tags used across engines when building balance-update batches.
const (
	ReasonSpotPayer           = "SPOT_PAYER"
	ReasonSpotPayee           = "SPOT_PAYEE"
	ReasonCommitmentFulfill   = "COMMITMENT_FULFILL"
	ReasonDisputeCompensation = "DISPUTE_COMPENSATION"
)
