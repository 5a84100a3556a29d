// (c) 2025, Lux Collective Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package governance

import (
	"fmt"

	"github.com/luxfi/cellcore/ids"
)

// NotCouncilMemberError is returned when a non-council actor attempts
// a council-gated operation.
type NotCouncilMemberError struct {
	Member ids.MemberID
}

func (e *NotCouncilMemberError) Error() string {
	return fmt.Sprintf("governance: %q is not a current council member", e.Member)
}

// ProposalNotFoundError is returned for an unknown proposal id.
type ProposalNotFoundError struct {
	ID ids.ProposalID
}

func (e *ProposalNotFoundError) Error() string {
	return fmt.Sprintf("governance: proposal %q not found", e.ID)
}

// InvalidProposalStatusError is returned when an operation is
// attempted from a status that does not permit it.
type InvalidProposalStatusError struct {
	ID   ids.ProposalID
	From ProposalStatus
	Want string
}

func (e *InvalidProposalStatusError) Error() string {
	return fmt.Sprintf("governance: proposal %q is %s, expected %s", e.ID, e.From, e.Want)
}

// AlreadyVotedError is returned when a member casts a second ballot on
// the same proposal; votes are final (spec.md §4.5).
type AlreadyVotedError struct {
	ID     ids.ProposalID
	Member ids.MemberID
}

func (e *AlreadyVotedError) Error() string {
	return fmt.Sprintf("governance: %q already voted on proposal %q", e.Member, e.ID)
}

// InvalidSignatureError is returned when a ballot's signature fails
// verification.
type InvalidSignatureError struct {
	ID ids.ProposalID
}

func (e *InvalidSignatureError) Error() string {
	return fmt.Sprintf("governance: invalid ballot signature on proposal %q", e.ID)
}

// RateLimitExceededError is returned when a limit adjustment exceeds
// eta, the per-adjustment rate limit (spec.md §4.5 Hard constraints).
type RateLimitExceededError struct {
	Member ids.MemberID
	Delta  int64
	Eta    int64
}

func (e *RateLimitExceededError) Error() string {
	return fmt.Sprintf("governance: limit delta %d for %q exceeds rate limit %d", e.Delta, e.Member, e.Eta)
}

// DisputeNotFoundError is returned for an unknown dispute id.
type DisputeNotFoundError struct {
	ID ids.DisputeID
}

func (e *DisputeNotFoundError) Error() string {
	return fmt.Sprintf("governance: dispute %q not found", e.ID)
}

// InvalidDisputeStatusError is returned when a dispute transition is
// attempted out of order.
type InvalidDisputeStatusError struct {
	ID   ids.DisputeID
	From DisputeStatus
	Want string
}

func (e *InvalidDisputeStatusError) Error() string {
	return fmt.Sprintf("governance: dispute %q is %s, expected %s", e.ID, e.From, e.Want)
}

// ReviewerConflictError is returned when the assigned reviewer is a
// party to the dispute (spec.md §4.5: "reviewer must not be a party").
type ReviewerConflictError struct {
	Reviewer ids.MemberID
}

func (e *ReviewerConflictError) Error() string {
	return fmt.Sprintf("governance: reviewer %q is a party to the dispute", e.Reviewer)
}

// LedgerError wraps a ledger-surfaced failure encountered while
// executing a proposal or dispute resolution side effect.
type LedgerError struct {
	Err error
}

func (e *LedgerError) Error() string {
	return fmt.Sprintf("governance: ledger rejected side effect: %v", e.Err)
}

func (e *LedgerError) Unwrap() error {
	return e.Err
}
