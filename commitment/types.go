// (c) 2025, Lux Collective Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package commitment implements the future-dated promise contract
// (spec.md §4.4): a promisor commits to deliver value to a promisee,
// optionally backed by a reserve hold, resolved later by fulfillment,
// cancellation, or dispute.
package commitment

import (
	"time"

	"github.com/luxfi/cellcore/crypto"
	"github.com/luxfi/cellcore/ids"
)

// Status is a commitment's position in its state machine (spec.md
// §4.4): PROPOSED -> ACTIVE -> FULFILLED | CANCELLED | DISPUTED.
type Status int

const (
	StatusProposed Status = iota
	StatusActive
	StatusFulfilled
	StatusCancelled
	StatusDisputed
)

func (s Status) String() string {
	switch s {
	case StatusProposed:
		return "PROPOSED"
	case StatusActive:
		return "ACTIVE"
	case StatusFulfilled:
		return "FULFILLED"
	case StatusCancelled:
		return "CANCELLED"
	case StatusDisputed:
		return "DISPUTED"
	default:
		return "UNKNOWN"
	}
}

// Shape distinguishes a plain promise from one backed by reserve.
type Shape int

const (
	ShapeSoft Shape = iota
	ShapeEscrowed
)

func (s Shape) String() string {
	if s == ShapeEscrowed {
		return "ESCROWED"
	}
	return "SOFT"
}

// Commitment is a future-dated promise of value from Promisor to
// Promisee (spec.md §4.4).
type Commitment struct {
	ID          ids.CommitmentID
	Promisor    ids.MemberID
	Promisee    ids.MemberID
	Value       int64
	Shape       Shape
	Category    string
	Description string
	DueDate     time.Time
	Status      Status
	Rating      int // set on fulfillment, 0 means unrated

	CreatedAt time.Time

	PromisorSignature crypto.Signature
	PromiseeSignature crypto.Signature
}

// Clone returns a value copy safe to hand to callers.
func (c Commitment) Clone() Commitment { return c }

// IsOverdue reports whether an ACTIVE commitment is past its due date.
// Overdue is computed, never stored (spec.md §4.4).
func (c Commitment) IsOverdue(now time.Time) bool {
	return c.Status == StatusActive && now.After(c.DueDate)
}

// CreateCommitmentInput is the caller-supplied request to propose a
// commitment (promisor signature only; spec.md §4.4 PROPOSED state).
type CreateCommitmentInput struct {
	ID                ids.CommitmentID
	Promisor          ids.MemberID
	Promisee          ids.MemberID
	Value             int64
	Shape             Shape
	Category          string
	Description       string
	DueDate           time.Time
	CreatedAt         time.Time
	PromisorSignature crypto.Signature
}
