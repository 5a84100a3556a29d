// (c) 2025, Lux Collective Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package eventlog is the cell's append-only, strictly monotonic record
// of every committed mutation (spec.md §4.7, I7). The log is the system
// of record: replaying it over an empty ledger must reproduce the
// current state bit-for-bit (P4).
package eventlog

import (
	"time"

	"github.com/luxfi/cellcore/ids"
)

// Type tags one event payload shape. Each committed mutation emits
// exactly one event of exactly one type.
type Type string

const (
	TypeBalanceUpdate       Type = "BALANCE_UPDATE"
	TypeReserveUpdate       Type = "RESERVE_UPDATE"
	TypeMemberAdded         Type = "MEMBER_ADDED"
	TypeMemberStatusChanged Type = "MEMBER_STATUS_CHANGED"
	TypeMemberLimitChanged  Type = "MEMBER_LIMIT_CHANGED"
	TypeMemberRemoved       Type = "MEMBER_REMOVED"
	TypeTransactionComplete Type = "TRANSACTION_COMPLETE"
	TypeCommitmentCreated   Type = "COMMITMENT_CREATED"
	TypeCommitmentActivated Type = "COMMITMENT_ACTIVATED"
	TypeCommitmentFulfilled Type = "COMMITMENT_FULFILLED"
	TypeCommitmentCancelled Type = "COMMITMENT_CANCELLED"
	TypeCommitmentDisputed  Type = "COMMITMENT_DISPUTED"
	TypeProposalOpened      Type = "PROPOSAL_OPENED"
	TypeProposalClosed      Type = "PROPOSAL_CLOSED"
	TypeProposalExecuted    Type = "PROPOSAL_EXECUTED"
	TypeProposalExpired     Type = "PROPOSAL_EXPIRED"
	TypeDisputeResolved     Type = "DISPUTE_RESOLVED"
	TypeEmergencyTransition Type = "EMERGENCY_TRANSITION"
)

// Event is one durable, sequenced record (spec.md §6 Event schema).
type Event struct {
	ID             ids.EventID
	CellID         ids.CellID
	SequenceNumber uint64
	Type           Type
	Timestamp      time.Time
	// TriggeringOperationID links the event back to the caller-supplied
	// or content-derived id of the operation that produced it (a
	// transaction id, commitment id, proposal id, ...).
	TriggeringOperationID string
	Payload               any
}

// BalanceUpdatePayload captures the deltas of an applied batch, enough
// to replay the mutation (spec.md §4.7).
type BalanceUpdatePayload struct {
	Deltas []BalanceDeltaRecord
}

// BalanceDeltaRecord is one leg of a replayed balance-update batch.
type BalanceDeltaRecord struct {
	Member ids.MemberID
	Delta  int64
	Reason string
}

// ReserveUpdatePayload captures a single member's reserve delta.
type ReserveUpdatePayload struct {
	Member ids.MemberID
	Delta  int64
}
