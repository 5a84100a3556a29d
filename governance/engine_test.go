// (c) 2025, Lux Collective Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package governance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/luxfi/cellcore/crypto"
	"github.com/luxfi/cellcore/eventlog"
	"github.com/luxfi/cellcore/ids"
	"github.com/luxfi/cellcore/ledger"
	"github.com/luxfi/cellcore/utils"
)

type fakeIdentity struct {
	keys map[ids.MemberID]ids.PublicKey
}

func (f *fakeIdentity) PublicKeyOf(member ids.MemberID) (ids.PublicKey, error) {
	pk, ok := f.keys[member]
	if !ok {
		return ids.PublicKey{}, &NotCouncilMemberError{Member: member}
	}
	return pk, nil
}

type noopDisputer struct{ marked []ids.CommitmentID }

func (n *noopDisputer) MarkDisputed(id ids.CommitmentID) error {
	n.marked = append(n.marked, id)
	return nil
}

type harness struct {
	ledger *ledger.Ledger
	engine *Engine
	signer map[ids.MemberID]*crypto.LocalSigner
	clock  *utils.MockableClock
}

func newHarness(t *testing.T, eta int64, members ...ids.MemberID) *harness {
	t.Helper()
	clock := utils.NewMockableClock()
	clock.Set(time.Unix(1700000000, 0).UTC())
	elog := eventlog.New(ids.CellID("cell-1"), clock)
	params := ledger.Parameters{LimitMin: 0, LimitMax: 1000, LimitDefault: 100}
	l := ledger.New(ids.CellID("cell-1"), params, elog, clock)

	identity := &fakeIdentity{keys: make(map[ids.MemberID]ids.PublicKey)}
	signers := make(map[ids.MemberID]*crypto.LocalSigner)
	for _, m := range members {
		require.NoError(t, l.AddMember(m, 100))
		require.NoError(t, l.SetStatus(m, ledger.StatusActive))
		signer, err := crypto.NewLocalSigner()
		require.NoError(t, err)
		signers[m] = signer
		identity.keys[m] = signer.PublicKey()
	}

	engine := New(l, identity, crypto.Ed25519Verifier{}, elog, clock, &noopDisputer{}, eta)
	for _, m := range members {
		engine.SeatCouncilMember(m, clock.Time().Add(-time.Hour), clock.Time().Add(365*24*time.Hour))
	}
	return &harness{ledger: l, engine: engine, signer: signers, clock: clock}
}

func (h *harness) vote(t *testing.T, proposalID ids.ProposalID, voter ids.MemberID, ballot Ballot) {
	t.Helper()
	payload := ballotCanonicalPayload(proposalID, voter, ballot)
	sig, err := h.signer[voter].Sign(payload)
	require.NoError(t, err)
	require.NoError(t, h.engine.CastVote(proposalID, voter, ballot, sig))
}

func TestProposalLifecycle_PassesAndExecutes(t *testing.T) {
	h := newHarness(t, 50, "alice", "bob", "carol", "dave")

	payload := Payload{SetMemberLimit: &SetMemberLimitPayload{Member: "alice", NewLimit: 120}}
	_, err := h.engine.CreateProposal("prop-1", "alice", CategoryStandard, "raise alice's limit", "", payload)
	require.NoError(t, err)

	_, err = h.engine.OpenVoting("prop-1")
	require.NoError(t, err)

	h.vote(t, "prop-1", "alice", BallotApprove)
	h.vote(t, "prop-1", "bob", BallotApprove)
	h.vote(t, "prop-1", "carol", BallotApprove)

	closed, err := h.engine.CloseVoting("prop-1", 4)
	require.NoError(t, err)
	require.Equal(t, ProposalPassed, closed.Status)

	executed, err := h.engine.ExecuteProposal("prop-1")
	require.NoError(t, err)
	require.Equal(t, ProposalExecuted, executed.Status)

	state, err := h.ledger.GetMemberState("alice")
	require.NoError(t, err)
	require.Equal(t, int64(120), state.Limit)
}

func TestProposalLifecycle_RejectedBelowQuorum(t *testing.T) {
	h := newHarness(t, 50, "alice", "bob", "carol", "dave")

	payload := Payload{SetMemberLimit: &SetMemberLimitPayload{Member: "alice", NewLimit: 120}}
	_, err := h.engine.CreateProposal("prop-1", "alice", CategoryStandard, "raise alice's limit", "", payload)
	require.NoError(t, err)
	_, err = h.engine.OpenVoting("prop-1")
	require.NoError(t, err)

	h.vote(t, "prop-1", "alice", BallotApprove)

	// Below quorum is a REJECTED vote, distinct from FAILED (which is
	// reserved for a PASSED proposal whose execution errors).
	closed, err := h.engine.CloseVoting("prop-1", 4)
	require.NoError(t, err)
	require.Equal(t, ProposalRejected, closed.Status)
}

func TestExpireOverdueProposals_MarksLapsedVotingAsExpired(t *testing.T) {
	h := newHarness(t, 50, "alice", "bob")

	_, err := h.engine.CreateProposal("prop-1", "alice", CategoryStandard, "t", "", Payload{})
	require.NoError(t, err)
	opened, err := h.engine.OpenVoting("prop-1")
	require.NoError(t, err)

	expired := h.engine.ExpireOverdueProposals(opened.ClosesAt.Add(time.Second))
	require.Len(t, expired, 1)
	require.Equal(t, ProposalExpired, expired[0].Status)

	// CloseVoting no longer applies to an expired proposal.
	_, err = h.engine.CloseVoting("prop-1", 2)
	require.Error(t, err)
}

func TestCastVote_RejectsDoubleVoting(t *testing.T) {
	h := newHarness(t, 50, "alice", "bob")
	_, err := h.engine.CreateProposal("prop-1", "alice", CategoryStandard, "t", "", Payload{})
	require.NoError(t, err)
	_, err = h.engine.OpenVoting("prop-1")
	require.NoError(t, err)

	h.vote(t, "prop-1", "alice", BallotApprove)

	payload := ballotCanonicalPayload("prop-1", "alice", BallotReject)
	sig, err := h.signer["alice"].Sign(payload)
	require.NoError(t, err)
	err = h.engine.CastVote("prop-1", "alice", BallotReject, sig)
	require.Error(t, err)
	var dup *AlreadyVotedError
	require.ErrorAs(t, err, &dup)
}

func TestDirectSetMemberLimit_RespectsRateLimit(t *testing.T) {
	h := newHarness(t, 10, "alice", "bob")

	err := h.engine.DirectSetMemberLimit("alice", SetMemberLimitPayload{Member: "bob", NewLimit: 105})
	require.NoError(t, err)

	err = h.engine.DirectSetMemberLimit("alice", SetMemberLimitPayload{Member: "bob", NewLimit: 200})
	require.Error(t, err)
	var rateErr *RateLimitExceededError
	require.ErrorAs(t, err, &rateErr)
}

func TestDirectAction_RequiresCouncilMembership(t *testing.T) {
	h := newHarness(t, 50, "alice", "bob")
	h.engine.VacateCouncilSeat("bob")

	err := h.engine.DirectFreezeMember("bob", "alice")
	require.Error(t, err)
	var notCouncil *NotCouncilMemberError
	require.ErrorAs(t, err, &notCouncil)
}

func TestFileDispute_MarksTheUnderlyingCommitmentDisputed(t *testing.T) {
	clock := utils.NewMockableClock()
	clock.Set(time.Unix(1700000000, 0).UTC())
	elog := eventlog.New(ids.CellID("cell-1"), clock)
	params := ledger.Parameters{LimitMin: 0, LimitMax: 1000, LimitDefault: 100}
	l := ledger.New(ids.CellID("cell-1"), params, elog, clock)
	for _, m := range []ids.MemberID{"alice", "bob"} {
		require.NoError(t, l.AddMember(m, 100))
		require.NoError(t, l.SetStatus(m, ledger.StatusActive))
	}

	ctrl := gomock.NewController(t)
	disputer := NewMockCommitmentDisputer(ctrl)
	disputer.EXPECT().MarkDisputed(ids.CommitmentID("commit-1")).Return(nil).Times(1)

	identity := &fakeIdentity{keys: make(map[ids.MemberID]ids.PublicKey)}
	engine := New(l, identity, crypto.Ed25519Verifier{}, elog, clock, disputer, 50)

	d, err := engine.FileDispute("dispute-1", "commit-1", "alice", "bob", "goods not delivered")
	require.NoError(t, err)
	require.Equal(t, DisputeFiled, d.Status)
}

func TestDisputeFlow_FiledToResolved(t *testing.T) {
	h := newHarness(t, 50, "alice", "bob", "carol")

	d, err := h.engine.FileDispute("dispute-1", "commit-1", "alice", "bob", "goods not delivered")
	require.NoError(t, err)
	require.Equal(t, DisputeFiled, d.Status)

	_, err = h.engine.AssignReviewer("dispute-1", "alice")
	require.Error(t, err, "reviewer cannot be a party")
	var conflict *ReviewerConflictError
	require.ErrorAs(t, err, &conflict)

	d, err = h.engine.AssignReviewer("dispute-1", "carol")
	require.NoError(t, err)
	require.Equal(t, DisputeUnderReview, d.Status)

	d, err = h.engine.ScheduleHearing("dispute-1", h.clock.Time().Add(24*time.Hour))
	require.NoError(t, err)
	require.Equal(t, DisputeHearingScheduled, d.Status)

	resolved, err := h.engine.Resolve("dispute-1", DisputeResolution{
		CompensatingTransfer: &CompensatingTransfer{From: "bob", To: "alice", Amount: 20},
	})
	require.NoError(t, err)
	require.Equal(t, DisputeResolved, resolved.Status)

	alice, err := h.ledger.GetMemberState("alice")
	require.NoError(t, err)
	require.Equal(t, int64(20), alice.Balance)
}
