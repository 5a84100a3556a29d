// (c) 2025, Lux Collective Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package tx

import (
	"fmt"

	"github.com/luxfi/cellcore/ids"
)

// MemberNotFoundError is returned when payer or payee is unknown.
type MemberNotFoundError struct {
	Member ids.MemberID
}

func (e *MemberNotFoundError) Error() string {
	return fmt.Sprintf("tx: member %q not found", e.Member)
}

// MemberNotActiveError is returned when payer or payee is not ACTIVE.
type MemberNotActiveError struct {
	Member ids.MemberID
}

func (e *MemberNotActiveError) Error() string {
	return fmt.Sprintf("tx: member %q is not active", e.Member)
}

// SelfTransactionError is returned when payer equals payee.
type SelfTransactionError struct {
	Member ids.MemberID
}

func (e *SelfTransactionError) Error() string {
	return fmt.Sprintf("tx: member %q cannot transact with itself", e.Member)
}

// InvalidAmountError is returned when amount <= 0.
type InvalidAmountError struct {
	Amount int64
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("tx: invalid amount %d, must be > 0", e.Amount)
}

// InsufficientCapacityError is returned when the payer cannot absorb
// the requested spend without breaching its floor.
type InsufficientCapacityError struct {
	Available int64
	Required  int64
}

func (e *InsufficientCapacityError) Error() string {
	return fmt.Sprintf("tx: insufficient capacity: available %d, required %d", e.Available, e.Required)
}

// DuplicateTransactionError is returned when id has already been
// committed; resubmission is a no-op, not a failure of the original.
type DuplicateTransactionError struct {
	ID ids.TransactionID
}

func (e *DuplicateTransactionError) Error() string {
	return fmt.Sprintf("tx: transaction %q already recorded", e.ID)
}

// Party identifies which signer failed verification.
type Party string

const (
	PartyPayer Party = "PAYER"
	PartyPayee Party = "PAYEE"
)

// InvalidSignatureError is returned when a party's signature does not
// verify against its stored public key.
type InvalidSignatureError struct {
	Party Party
}

func (e *InvalidSignatureError) Error() string {
	return fmt.Sprintf("tx: invalid signature from %s", e.Party)
}

// LedgerError wraps any error surfaced by the ledger during execution,
// preserving it via errors.Unwrap for callers that care about the
// underlying invariant violated.
type LedgerError struct {
	Err error
}

func (e *LedgerError) Error() string {
	return fmt.Sprintf("tx: ledger rejected transaction: %v", e.Err)
}

func (e *LedgerError) Unwrap() error {
	return e.Err
}
