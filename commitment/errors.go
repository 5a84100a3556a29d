// (c) 2025, Lux Collective Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package commitment

import (
	"fmt"

	"github.com/luxfi/cellcore/ids"
)

// MemberNotActiveError is returned when promisor or promisee is not
// ACTIVE at the point an operation requires it.
type MemberNotActiveError struct {
	Member ids.MemberID
}

func (e *MemberNotActiveError) Error() string {
	return fmt.Sprintf("commitment: member %q is not active", e.Member)
}

// InsufficientReserveCapacityError is returned when reserving value
// against an ESCROWED commitment would breach I4.
type InsufficientReserveCapacityError struct {
	Promisor ids.MemberID
	Value    int64
}

func (e *InsufficientReserveCapacityError) Error() string {
	return fmt.Sprintf("commitment: promisor %q cannot reserve %d without breaching its floor", e.Promisor, e.Value)
}

// InvalidDueDateError is returned when a due date is not strictly
// after creation time.
type InvalidDueDateError struct {
	DueDate string
}

func (e *InvalidDueDateError) Error() string {
	return fmt.Sprintf("commitment: invalid due date %s", e.DueDate)
}

// NotFoundError is returned for lookups against an unknown commitment.
type NotFoundError struct {
	ID ids.CommitmentID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("commitment: %q not found", e.ID)
}

// InvalidStatusTransitionError is returned when an operation is
// attempted from a status that does not permit it.
type InvalidStatusTransitionError struct {
	ID   ids.CommitmentID
	From Status
	Want string
}

func (e *InvalidStatusTransitionError) Error() string {
	return fmt.Sprintf("commitment: %q is %s, expected %s", e.ID, e.From, e.Want)
}

// InvalidSignatureError is returned when a required signature fails
// verification.
type InvalidSignatureError struct {
	ID ids.CommitmentID
}

func (e *InvalidSignatureError) Error() string {
	return fmt.Sprintf("commitment: %q has an invalid signature", e.ID)
}

// CancellationNotAuthorizedError is returned when a party not entitled
// to cancel a commitment attempts to.
type CancellationNotAuthorizedError struct {
	ID ids.CommitmentID
}

func (e *CancellationNotAuthorizedError) Error() string {
	return fmt.Sprintf("commitment: cancellation of %q not authorized for that caller", e.ID)
}

// AlreadyFulfilledError is returned when cancellation targets a
// commitment that is no longer PROPOSED or ACTIVE, and when Propose is
// given an id that is already in use.
type AlreadyFulfilledError struct {
	ID ids.CommitmentID
}

func (e *AlreadyFulfilledError) Error() string {
	return fmt.Sprintf("commitment: %q is already resolved", e.ID)
}

// LedgerError wraps a ledger-surfaced failure.
type LedgerError struct {
	Err error
}

func (e *LedgerError) Error() string {
	return fmt.Sprintf("commitment: ledger rejected operation: %v", e.Err)
}

func (e *LedgerError) Unwrap() error {
	return e.Err
}
