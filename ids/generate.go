// (c) 2025, Lux Collective Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package ids

import "github.com/google/uuid"

// NewTransactionID mints a client-default transaction id for callers
// that have no natural content-bound id to submit (spec.md §4.3
// transactions are normally id'd by the caller; this covers thin
// front-ends). No package in this module calls these generators.
func NewTransactionID() TransactionID {
	return TransactionID(uuid.NewString())
}

// NewCommitmentID mints a client-default commitment id.
func NewCommitmentID() CommitmentID {
	return CommitmentID(uuid.NewString())
}

// NewProposalID mints a client-default governance proposal id.
func NewProposalID() ProposalID {
	return ProposalID(uuid.NewString())
}

// NewDisputeID mints a client-default dispute id.
func NewDisputeID() DisputeID {
	return DisputeID(uuid.NewString())
}
