// (c) 2025, Lux Collective Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package governance

import (
	"sort"
	"sync"
	"time"

	"github.com/luxfi/cellcore/crypto"
	"github.com/luxfi/cellcore/eventlog"
	"github.com/luxfi/cellcore/ids"
	"github.com/luxfi/cellcore/ledger"
	"github.com/luxfi/cellcore/utils"
	"github.com/luxfi/log"
)

// IdentityLookup resolves a member's bound public key (same narrow
// pattern as tx.IdentityLookup / commitment.IdentityLookup, spec.md §9
// redesign flag).
type IdentityLookup interface {
	PublicKeyOf(member ids.MemberID) (ids.PublicKey, error)
}

// CommitmentDisputer marks a commitment DISPUTED; implemented by
// commitment.Engine. A narrow interface avoids governance importing
// commitment directly.
type CommitmentDisputer interface {
	MarkDisputed(id ids.CommitmentID) error
}

// VotingDuration maps a category to how long its voting window stays
// open once opened (spec.md §4.5: "category-dependent duration").
type VotingDuration map[Category]time.Duration

// DefaultVotingDuration is a reasonable default: one day for standard
// proposals, longer for higher-stakes categories (three days for super,
// seven for constitutional) so more members get a chance to weigh in.
var DefaultVotingDuration = VotingDuration{
	CategoryStandard:       24 * time.Hour,
	CategorySuper:          72 * time.Hour,
	CategoryConstitutional: 7 * 24 * time.Hour,
}

// Engine owns the council roster, proposal lifecycle, and dispute flow
// for one cell (spec.md §4.5).
type Engine struct {
	mu sync.RWMutex

	ledger     *ledger.Ledger
	identity   IdentityLookup
	verifier   crypto.Verifier
	eventLog   *eventlog.Log
	clock      utils.Clock
	commitment CommitmentDisputer

	eta            int64
	votingDuration VotingDuration

	council   map[ids.MemberID]CouncilMember
	proposals map[ids.ProposalID]*Proposal
	disputes  map[ids.DisputeID]*Dispute

	logger log.Logger
}

// New creates a governance engine. eta is the per-adjustment rate
// limit on member limit changes (spec.md §4.5 Hard constraints).
func New(l *ledger.Ledger, identity IdentityLookup, verifier crypto.Verifier, eventLog *eventlog.Log, clock utils.Clock, commitment CommitmentDisputer, eta int64) *Engine {
	return &Engine{
		ledger:         l,
		identity:       identity,
		verifier:       verifier,
		eventLog:       eventLog,
		clock:          clock,
		commitment:     commitment,
		eta:            eta,
		votingDuration: DefaultVotingDuration,
		council:        make(map[ids.MemberID]CouncilMember),
		proposals:      make(map[ids.ProposalID]*Proposal),
		disputes:       make(map[ids.DisputeID]*Dispute),
		logger:         log.Root(),
	}
}

// SeatCouncilMember installs or replaces a council seat. Called by
// whatever bootstrap/administration path establishes the initial
// roster; subsequent term rotations call this again.
func (e *Engine) SeatCouncilMember(member ids.MemberID, termStart, termEnd time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.council[member] = CouncilMember{Member: member, TermStart: termStart, TermEnd: termEnd}
}

// VacateCouncilSeat removes a member from the roster, e.g. at term end.
func (e *Engine) VacateCouncilSeat(member ids.MemberID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.council, member)
}

// IsCouncilMember reports whether member currently holds a seat whose
// term covers now.
func (e *Engine) IsCouncilMember(member ids.MemberID, now time.Time) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	seat, ok := e.council[member]
	if !ok {
		return false
	}
	return !now.Before(seat.TermStart) && now.Before(seat.TermEnd)
}

func (e *Engine) requireCouncil(member ids.MemberID) error {
	if !e.IsCouncilMember(member, e.clock.Time()) {
		return &NotCouncilMemberError{Member: member}
	}
	return nil
}

// CreateProposal drafts a new proposal (spec.md §4.5). The proposer
// must be a current council member.
func (e *Engine) CreateProposal(id ids.ProposalID, proposer ids.MemberID, category Category, title, description string, payload Payload) (Proposal, error) {
	if err := e.requireCouncil(proposer); err != nil {
		return Proposal{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	p := &Proposal{
		ID:          id,
		Category:    category,
		Title:       title,
		Description: description,
		Payload:     payload,
		Proposer:    proposer,
		Status:      ProposalDraft,
		Votes:       make(map[ids.MemberID]Ballot),
	}
	e.proposals[id] = p
	return p.Clone(), nil
}

// OpenVoting moves a DRAFT proposal to VOTING with a category-dependent
// deadline.
func (e *Engine) OpenVoting(id ids.ProposalID) (Proposal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.proposals[id]
	if !ok {
		return Proposal{}, &ProposalNotFoundError{ID: id}
	}
	if p.Status != ProposalDraft {
		return Proposal{}, &InvalidProposalStatusError{ID: id, From: p.Status, Want: "DRAFT"}
	}

	now := e.clock.Time()
	p.OpenedAt = now
	p.ClosesAt = now.Add(e.votingDuration[p.Category])
	p.Status = ProposalVoting
	e.eventLog.Append(eventlog.TypeProposalOpened, string(id), nil)
	return p.Clone(), nil
}

// CastVote records a member's ballot, signed over (proposalId, voter,
// ballot). Each member votes at most once; votes are final (spec.md
// §4.5).
func (e *Engine) CastVote(id ids.ProposalID, voter ids.MemberID, ballot Ballot, signature crypto.Signature) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.proposals[id]
	if !ok {
		return &ProposalNotFoundError{ID: id}
	}
	if p.Status != ProposalVoting {
		return &InvalidProposalStatusError{ID: id, From: p.Status, Want: "VOTING"}
	}
	if _, already := p.Votes[voter]; already {
		return &AlreadyVotedError{ID: id, Member: voter}
	}

	voterKey, err := e.identity.PublicKeyOf(voter)
	if err != nil {
		return &InvalidSignatureError{ID: id}
	}
	payload := ballotCanonicalPayload(id, voter, ballot)
	if !e.verifier.Verify(voterKey, payload, signature) {
		return &InvalidSignatureError{ID: id}
	}

	p.Votes[voter] = ballot
	p.VoteOrder = append(p.VoteOrder, voter)
	return nil
}

// CloseVoting tallies a VOTING proposal against eligibleVoters (the
// full current membership, or whatever electorate the caller defines)
// and transitions it through CLOSED to PASSED or REJECTED (spec.md §3:
// "OPEN → CLOSED → (PASSED... | REJECTED | ...)"): PASSED iff
// participation/eligibleVoters >= quorum and approve/participation >=
// threshold, REJECTED otherwise. REJECTED is distinct from FAILED,
// which is reserved for a PASSED proposal whose payload execution
// errors (see ExecuteProposal).
func (e *Engine) CloseVoting(id ids.ProposalID, eligibleVoters int) (Proposal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.proposals[id]
	if !ok {
		return Proposal{}, &ProposalNotFoundError{ID: id}
	}
	if p.Status != ProposalVoting {
		return Proposal{}, &InvalidProposalStatusError{ID: id, From: p.Status, Want: "VOTING"}
	}

	p.Status = ProposalClosed
	e.eventLog.Append(eventlog.TypeProposalClosed, string(id), nil)

	var approve, participation int
	for _, b := range p.Votes {
		participation++
		if b == BallotApprove {
			approve++
		}
	}

	passed := false
	if eligibleVoters > 0 {
		participationRate := float64(participation) / float64(eligibleVoters)
		var approveShare float64
		if participation > 0 {
			approveShare = float64(approve) / float64(participation)
		}
		passed = participationRate >= p.Category.Quorum() && approveShare >= p.Category.Threshold()
	}

	if passed {
		p.Status = ProposalPassed
	} else {
		p.Status = ProposalRejected
	}
	return p.Clone(), nil
}

// ExpireOverdueProposals transitions every VOTING proposal whose
// ClosesAt has passed to EXPIRED without tallying it (spec.md §3: a
// proposal the council never explicitly closed before its deadline
// lapses rather than silently resolving). CloseVoting remains the only
// path to PASSED/REJECTED.
func (e *Engine) ExpireOverdueProposals(now time.Time) []Proposal {
	e.mu.Lock()
	defer e.mu.Unlock()

	var expired []Proposal
	for _, p := range e.proposals {
		if p.Status != ProposalVoting || now.Before(p.ClosesAt) {
			continue
		}
		p.Status = ProposalExpired
		e.eventLog.Append(eventlog.TypeProposalExpired, string(p.ID), nil)
		expired = append(expired, p.Clone())
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i].ID < expired[j].ID })
	return expired
}

// ExecuteProposal applies a PASSED proposal's payload through the
// ledger's own invariant checks, then marks it EXECUTED or FAILED
// (spec.md §3/§4.5: "execute payload -> EXECUTED or FAILED"). FAILED
// here means execution of an already-PASSED proposal errored; it never
// describes a proposal that simply didn't pass (see CloseVoting's
// REJECTED).
func (e *Engine) ExecuteProposal(id ids.ProposalID) (Proposal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.proposals[id]
	if !ok {
		return Proposal{}, &ProposalNotFoundError{ID: id}
	}
	if p.Status != ProposalPassed {
		return Proposal{}, &InvalidProposalStatusError{ID: id, From: p.Status, Want: "PASSED"}
	}

	if err := e.applyPayload(p.Payload); err != nil {
		p.Status = ProposalFailed
		e.eventLog.Append(eventlog.TypeProposalExecuted, string(id), nil)
		return p.Clone(), err
	}

	p.Status = ProposalExecuted
	e.eventLog.Append(eventlog.TypeProposalExecuted, string(id), nil)
	return p.Clone(), nil
}

func (e *Engine) applyPayload(payload Payload) error {
	switch {
	case payload.SetMemberLimit != nil:
		return e.setMemberLimitLocked(*payload.SetMemberLimit)
	case payload.FreezeMember != nil:
		if err := e.ledger.FreezeMember(*payload.FreezeMember); err != nil {
			return &LedgerError{Err: err}
		}
		return nil
	case payload.UnfreezeMember != nil:
		if err := e.ledger.UnfreezeMember(*payload.UnfreezeMember); err != nil {
			return &LedgerError{Err: err}
		}
		return nil
	case payload.ExcludeMember != nil:
		if err := e.ledger.RemoveMember(*payload.ExcludeMember); err != nil {
			return &LedgerError{Err: err}
		}
		return nil
	default:
		return nil
	}
}

func (e *Engine) setMemberLimitLocked(req SetMemberLimitPayload) error {
	state, err := e.ledger.GetMemberState(req.Member)
	if err != nil {
		return &LedgerError{Err: err}
	}
	delta := req.NewLimit - state.Limit
	if abs64(delta) > e.eta {
		return &RateLimitExceededError{Member: req.Member, Delta: delta, Eta: e.eta}
	}
	if err := e.ledger.SetMemberLimit(req.Member, req.NewLimit); err != nil {
		return &LedgerError{Err: err}
	}
	return nil
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// DirectSetMemberLimit performs a rate-limited limit adjustment
// without going through a vote (spec.md §4.5: "direct council actions
// ... bypass voting but still go through the ledger check"). actor
// must be a current council member.
func (e *Engine) DirectSetMemberLimit(actor ids.MemberID, req SetMemberLimitPayload) error {
	if err := e.requireCouncil(actor); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.setMemberLimitLocked(req)
}

// DirectFreezeMember freezes a member outside the voting process.
func (e *Engine) DirectFreezeMember(actor, target ids.MemberID) error {
	if err := e.requireCouncil(actor); err != nil {
		return err
	}
	if err := e.ledger.FreezeMember(target); err != nil {
		return &LedgerError{Err: err}
	}
	return nil
}

// DirectUnfreezeMember unfreezes a member outside the voting process.
func (e *Engine) DirectUnfreezeMember(actor, target ids.MemberID) error {
	if err := e.requireCouncil(actor); err != nil {
		return err
	}
	if err := e.ledger.UnfreezeMember(target); err != nil {
		return &LedgerError{Err: err}
	}
	return nil
}

// GetProposal returns a single proposal by id.
func (e *Engine) GetProposal(id ids.ProposalID) (Proposal, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	p, ok := e.proposals[id]
	if !ok {
		return Proposal{}, &ProposalNotFoundError{ID: id}
	}
	return p.Clone(), nil
}

// Proposals returns every proposal, sorted by id for deterministic
// iteration.
func (e *Engine) Proposals() []Proposal {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Proposal, 0, len(e.proposals))
	for _, p := range e.proposals {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// FileDispute opens a dispute against a commitment (spec.md §4.5:
// FILED state) and marks the commitment DISPUTED.
func (e *Engine) FileDispute(id ids.DisputeID, commitmentID ids.CommitmentID, filer, respondent ids.MemberID, reason string) (Dispute, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.commitment != nil {
		if err := e.commitment.MarkDisputed(commitmentID); err != nil {
			return Dispute{}, &LedgerError{Err: err}
		}
	}

	d := &Dispute{
		ID:           id,
		CommitmentID: commitmentID,
		Filer:        filer,
		Respondent:   respondent,
		Reason:       reason,
		Status:       DisputeFiled,
		FiledAt:      e.clock.Time(),
	}
	e.disputes[id] = d
	return d.Clone(), nil
}

// AssignReviewer moves a FILED dispute to UNDER_REVIEW. The reviewer
// must not be a party to the dispute (spec.md §4.5).
func (e *Engine) AssignReviewer(id ids.DisputeID, reviewer ids.MemberID) (Dispute, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	d, ok := e.disputes[id]
	if !ok {
		return Dispute{}, &DisputeNotFoundError{ID: id}
	}
	if d.Status != DisputeFiled {
		return Dispute{}, &InvalidDisputeStatusError{ID: id, From: d.Status, Want: "FILED"}
	}
	if reviewer == d.Filer || reviewer == d.Respondent {
		return Dispute{}, &ReviewerConflictError{Reviewer: reviewer}
	}

	d.Reviewer = reviewer
	d.Status = DisputeUnderReview
	return d.Clone(), nil
}

// ScheduleHearing moves an UNDER_REVIEW dispute to HEARING_SCHEDULED.
func (e *Engine) ScheduleHearing(id ids.DisputeID, at time.Time) (Dispute, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	d, ok := e.disputes[id]
	if !ok {
		return Dispute{}, &DisputeNotFoundError{ID: id}
	}
	if d.Status != DisputeUnderReview {
		return Dispute{}, &InvalidDisputeStatusError{ID: id, From: d.Status, Want: "UNDER_REVIEW"}
	}
	d.HearingAt = at
	d.Status = DisputeHearingScheduled
	return d.Clone(), nil
}

// Resolve applies a DisputeResolution's side effects through the
// ledger's own checks and marks the dispute RESOLVED (spec.md §4.5).
// Each side effect is independently re-validated; a failing side
// effect aborts the whole resolution before any later effect runs, but
// effects already applied are not rolled back automatically — the
// caller (governance's own proposal-execution audit trail) is
// responsible for a compensating follow-up resolution if that happens.
func (e *Engine) Resolve(id ids.DisputeID, resolution DisputeResolution) (Dispute, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	d, ok := e.disputes[id]
	if !ok {
		return Dispute{}, &DisputeNotFoundError{ID: id}
	}
	if d.Status != DisputeHearingScheduled && d.Status != DisputeUnderReview {
		return Dispute{}, &InvalidDisputeStatusError{ID: id, From: d.Status, Want: "UNDER_REVIEW or HEARING_SCHEDULED"}
	}

	if ct := resolution.CompensatingTransfer; ct != nil {
		if _, err := e.ledger.ApplyBalanceUpdates([]ledger.BalanceDelta{
			{Member: ct.From, Delta: -ct.Amount, Reason: ledger.ReasonDisputeCompensation, RelatedEventID: ids.EventID(id)},
			{Member: ct.To, Delta: ct.Amount, Reason: ledger.ReasonDisputeCompensation, RelatedEventID: ids.EventID(id)},
		}); err != nil {
			return Dispute{}, &LedgerError{Err: err}
		}
	}
	for _, m := range resolution.FreezeMembers {
		if err := e.ledger.FreezeMember(m); err != nil {
			return Dispute{}, &LedgerError{Err: err}
		}
	}
	for _, adj := range resolution.LimitAdjustments {
		if err := e.setMemberLimitLocked(adj); err != nil {
			return Dispute{}, err
		}
	}
	for _, m := range resolution.ExcludeMembers {
		if err := e.ledger.RemoveMember(m); err != nil {
			return Dispute{}, &LedgerError{Err: err}
		}
	}

	d.Resolution = &resolution
	d.Status = DisputeResolved
	e.eventLog.Append(eventlog.TypeDisputeResolved, string(id), nil)
	return d.Clone(), nil
}

// GetDispute returns a single dispute by id.
func (e *Engine) GetDispute(id ids.DisputeID) (Dispute, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	d, ok := e.disputes[id]
	if !ok {
		return Dispute{}, &DisputeNotFoundError{ID: id}
	}
	return d.Clone(), nil
}

// CouncilRoster returns the current council, sorted by member id.
func (e *Engine) CouncilRoster() []CouncilMember {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]CouncilMember, 0, len(e.council))
	for _, seat := range e.council {
		out = append(out, seat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Member < out[j].Member })
	return out
}
