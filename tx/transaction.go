// (c) 2025, Lux Collective Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package tx implements the spot-transaction contract (spec.md §4.3):
// two-signature transfer of value between two ACTIVE members, executed
// as an atomic two-entry ledger batch, content-addressed and
// idempotent by transaction id.
package tx

import (
	"time"

	"github.com/luxfi/cellcore/crypto"
	"github.com/luxfi/cellcore/ids"
)

// Transaction is a committed or pending spot transfer.
type Transaction struct {
	ID          ids.TransactionID
	Payer       ids.MemberID
	Payee       ids.MemberID
	Amount      int64
	Description string
	Category    string
	Timestamp   time.Time

	PayerSignature crypto.Signature
	PayeeSignature crypto.Signature
}

// CreateSpotTransactionInput is the caller-supplied request to submit a
// spot transaction (spec.md §4.3).
type CreateSpotTransactionInput struct {
	ID          ids.TransactionID
	Payer       ids.MemberID
	Payee       ids.MemberID
	Amount      int64
	Description string
	Category    string
	Timestamp   time.Time

	PayerSignature crypto.Signature
	PayeeSignature crypto.Signature
}

// canonicalPayload builds the deterministic byte encoding both parties
// sign over: (id, payer, payee, amount, description, category,
// timestamp), fixed field order per spec.md §4.3.
func canonicalPayload(id ids.TransactionID, payer, payee ids.MemberID, amount int64, description, category string, timestamp time.Time) []byte {
	return crypto.NewCanonical().
		String(string(id)).
		String(string(payer)).
		String(string(payee)).
		Int64(amount).
		String(description).
		String(category).
		Int64(timestamp.UnixNano()).
		Bytes()
}
