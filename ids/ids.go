// (c) 2025, Lux Collective Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ids defines the identifier types shared across the cell core:
// members, cells, public keys, and the content-addressed ids used by
// transactions, commitments, proposals, disputes, and events.
package ids

import "fmt"

// CellID identifies a single cell (one ledger, one event log).
type CellID string

// MemberID identifies a member within a cell. Stable for the lifetime of
// the membership, including through FREEZE/EXCLUDE transitions.
type MemberID string

// PublicKey is an opaque edwards-curve public key. The core never
// interprets its bytes beyond passing them to the crypto.Verifier.
type PublicKey [32]byte

func (pk PublicKey) String() string {
	return fmt.Sprintf("%x", [32]byte(pk))
}

// IsZero reports whether pk is the zero value (no key assigned).
func (pk PublicKey) IsZero() bool {
	return pk == PublicKey{}
}

// TransactionID is the client-chosen, content-bound id of a spot
// transaction. Re-submission under the same id is idempotent.
type TransactionID string

// CommitmentID identifies a commitment.
type CommitmentID string

// ProposalID identifies a governance proposal.
type ProposalID string

// DisputeID identifies a dispute.
type DisputeID string

// EventID identifies an event-log entry. Distinct from sequenceNumber:
// the id is content-derived and stable, the sequence number is
// position-derived and assigned at append time.
type EventID string
