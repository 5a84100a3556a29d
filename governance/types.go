// (c) 2025, Lux Collective Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package governance implements bounded council authority over a cell
// (spec.md §4.5): proposals, voting, direct council actions, and
// disputes. Every mutation it produces is re-validated by the ledger;
// governance has no privileged write path of its own.
package governance

import (
	"time"

	"github.com/luxfi/cellcore/crypto"
	"github.com/luxfi/cellcore/ids"
)

// Category determines a proposal's quorum/threshold (spec.md §4.5).
type Category int

const (
	CategoryStandard Category = iota
	CategorySuper
	CategoryConstitutional
)

// Quorum and Threshold return the participation/approval fractions
// required for this category to pass (spec.md §4.5: 0.5/0.67/0.75).
func (c Category) Quorum() float64    { return c.Threshold() }
func (c Category) Threshold() float64 {
	switch c {
	case CategorySuper:
		return 0.67
	case CategoryConstitutional:
		return 0.75
	default:
		return 0.5
	}
}

func (c Category) String() string {
	switch c {
	case CategorySuper:
		return "SUPER"
	case CategoryConstitutional:
		return "CONSTITUTIONAL"
	default:
		return "STANDARD"
	}
}

// ProposalStatus is a proposal's position in its lifecycle.
type ProposalStatus int

const (
	ProposalDraft ProposalStatus = iota
	ProposalVoting
	ProposalClosed
	ProposalPassed
	ProposalRejected
	ProposalFailed
	ProposalExecuted
	ProposalExpired
)

func (s ProposalStatus) String() string {
	switch s {
	case ProposalDraft:
		return "DRAFT"
	case ProposalVoting:
		return "VOTING"
	case ProposalClosed:
		return "CLOSED"
	case ProposalPassed:
		return "PASSED"
	case ProposalRejected:
		return "REJECTED"
	case ProposalFailed:
		return "FAILED"
	case ProposalExecuted:
		return "EXECUTED"
	case ProposalExpired:
		return "EXPIRED"
	default:
		return "UNKNOWN"
	}
}

// Ballot is one member's vote.
type Ballot int

const (
	BallotApprove Ballot = iota
	BallotReject
	BallotAbstain
)

// Payload describes the mutation a proposal executes if it passes.
// Exactly one field should be set; ExecuteProposal dispatches on it.
type Payload struct {
	SetMemberLimit  *SetMemberLimitPayload
	FreezeMember    *ids.MemberID
	UnfreezeMember  *ids.MemberID
	ExcludeMember   *ids.MemberID
}

// SetMemberLimitPayload adjusts a member's limit, subject to the rate
// limit eta and [limit_min, limit_max] (spec.md §4.5 Hard constraints).
type SetMemberLimitPayload struct {
	Member   ids.MemberID
	NewLimit int64
}

// Proposal is one governance item moving through DRAFT -> VOTING ->
// CLOSED -> (PASSED -> EXECUTED|FAILED) | REJECTED | EXPIRED
// (spec.md §3/§4.5).
type Proposal struct {
	ID          ids.ProposalID
	Category    Category
	Title       string
	Description string
	Payload     Payload
	Proposer    ids.MemberID
	Status      ProposalStatus

	OpenedAt  time.Time
	ClosesAt  time.Time
	Votes     map[ids.MemberID]Ballot
	VoteOrder []ids.MemberID
}

// Clone returns a deep-enough copy safe to hand to callers.
func (p Proposal) Clone() Proposal {
	cp := p
	cp.Votes = make(map[ids.MemberID]Ballot, len(p.Votes))
	for k, v := range p.Votes {
		cp.Votes[k] = v
	}
	cp.VoteOrder = append([]ids.MemberID(nil), p.VoteOrder...)
	return cp
}

// CouncilMember is one seat on the rotating council roster.
type CouncilMember struct {
	Member    ids.MemberID
	TermStart time.Time
	TermEnd   time.Time
}

// DisputeStatus tracks a dispute's lifecycle (spec.md §4.5).
type DisputeStatus int

const (
	DisputeFiled DisputeStatus = iota
	DisputeUnderReview
	DisputeHearingScheduled
	DisputeResolved
)

func (s DisputeStatus) String() string {
	switch s {
	case DisputeFiled:
		return "FILED"
	case DisputeUnderReview:
		return "UNDER_REVIEW"
	case DisputeHearingScheduled:
		return "HEARING_SCHEDULED"
	case DisputeResolved:
		return "RESOLVED"
	default:
		return "UNKNOWN"
	}
}

// Dispute is a contested commitment or transaction escalated to
// governance (spec.md §4.5).
type Dispute struct {
	ID            ids.DisputeID
	CommitmentID  ids.CommitmentID
	Filer         ids.MemberID
	Respondent    ids.MemberID
	Reason        string
	Status        DisputeStatus
	Reviewer      ids.MemberID
	FiledAt       time.Time
	HearingAt     time.Time
	Resolution    *DisputeResolution
}

// Clone returns a copy safe to hand to callers.
func (d Dispute) Clone() Dispute { return d }

// DisputeResolution is the outcome of a resolved dispute (spec.md
// §4.5): may include a compensating transaction, freezes, limit
// adjustments, or exclusions. Each side effect is re-validated by the
// ledger when Resolve applies it.
type DisputeResolution struct {
	CompensatingTransfer *CompensatingTransfer
	FreezeMembers        []ids.MemberID
	LimitAdjustments     []SetMemberLimitPayload
	ExcludeMembers       []ids.MemberID
	Notes                string
}

// CompensatingTransfer moves value from From to To as part of a
// dispute resolution, executed as an ordinary balance-update batch.
type CompensatingTransfer struct {
	From   ids.MemberID
	To     ids.MemberID
	Amount int64
}

func ballotCanonicalPayload(proposalID ids.ProposalID, voter ids.MemberID, ballot Ballot) []byte {
	return crypto.NewCanonical().
		String(string(proposalID)).
		String(string(voter)).
		Int64(int64(ballot)).
		Bytes()
}
