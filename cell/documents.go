// (c) 2025, Lux Collective Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package cell

import (
	"encoding/json"
	"time"

	"github.com/luxfi/cellcore/commitment"
	"github.com/luxfi/cellcore/crypto"
	"github.com/luxfi/cellcore/emergency"
	"github.com/luxfi/cellcore/governance"
	"github.com/luxfi/cellcore/ids"
)

// Document key prefixes (spec.md §6). commitment, governance, and
// emergency are built store-less (see their own DESIGN.md entries); this
// package is the single place that persists their documents, so no
// mid-level engine repeats its own store wiring.
const (
	keyCommitment = "commitment/"
	keyProposal   = "proposal/"
	keyDispute    = "dispute/"
	keyCouncil    = "council/"
	keyEmergency  = "emergency/"
)

func put(c *Cell, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = c.store.Put(key, raw, "")
	if err != nil {
		c.logger.Error("cell: failed to persist document", "key", key, "err", err)
	}
	return err
}

// ProposeCommitment creates a commitment through the commitment engine
// and persists it under commitment/{id}.
func (c *Cell) ProposeCommitment(in commitment.CreateCommitmentInput) (commitment.Commitment, error) {
	out, err := c.Commitments.Propose(in)
	if err != nil {
		return out, err
	}
	put(c, keyCommitment+string(out.ID), out)
	return out, nil
}

// ActivateCommitment co-signs a proposed commitment and persists it.
func (c *Cell) ActivateCommitment(id ids.CommitmentID, promiseeSignature crypto.Signature) (commitment.Commitment, error) {
	out, err := c.Commitments.Activate(id, promiseeSignature)
	if err != nil {
		return out, err
	}
	put(c, keyCommitment+string(out.ID), out)
	return out, nil
}

// FulfillCommitment fulfills an active commitment and persists it.
func (c *Cell) FulfillCommitment(id ids.CommitmentID, rating int) (commitment.Commitment, error) {
	out, err := c.Commitments.Fulfill(id, rating)
	if err != nil {
		return out, err
	}
	put(c, keyCommitment+string(out.ID), out)
	return out, nil
}

// CancelCommitment cancels a commitment on behalf of a party and persists it.
func (c *Cell) CancelCommitment(id ids.CommitmentID, caller ids.MemberID) (commitment.Commitment, error) {
	out, err := c.Commitments.Cancel(id, caller)
	if err != nil {
		return out, err
	}
	put(c, keyCommitment+string(out.ID), out)
	return out, nil
}

// CancelCommitmentByGovernance cancels a commitment on governance
// authority and persists it.
func (c *Cell) CancelCommitmentByGovernance(id ids.CommitmentID) (commitment.Commitment, error) {
	out, err := c.Commitments.CancelByGovernance(id)
	if err != nil {
		return out, err
	}
	put(c, keyCommitment+string(out.ID), out)
	return out, nil
}

// CreateProposal drafts a proposal and persists it under proposal/{id}.
func (c *Cell) CreateProposal(id ids.ProposalID, proposer ids.MemberID, category governance.Category, title, description string, payload governance.Payload) (governance.Proposal, error) {
	out, err := c.Governance.CreateProposal(id, proposer, category, title, description, payload)
	if err != nil {
		return out, err
	}
	put(c, keyProposal+string(out.ID), out)
	return out, nil
}

// OpenVoting opens a draft proposal's voting window and persists it.
func (c *Cell) OpenVoting(id ids.ProposalID) (governance.Proposal, error) {
	out, err := c.Governance.OpenVoting(id)
	if err != nil {
		return out, err
	}
	put(c, keyProposal+string(out.ID), out)
	return out, nil
}

// CastVote records a ballot and persists the proposal's updated vote tally.
func (c *Cell) CastVote(id ids.ProposalID, voter ids.MemberID, ballot governance.Ballot, signature crypto.Signature) error {
	if err := c.Governance.CastVote(id, voter, ballot, signature); err != nil {
		return err
	}
	p, err := c.Governance.GetProposal(id)
	if err != nil {
		return err
	}
	return put(c, keyProposal+string(id), p)
}

// CloseVoting tallies a proposal and persists its PASSED/REJECTED outcome.
func (c *Cell) CloseVoting(id ids.ProposalID, eligibleVoters int) (governance.Proposal, error) {
	out, err := c.Governance.CloseVoting(id, eligibleVoters)
	if err != nil {
		return out, err
	}
	put(c, keyProposal+string(out.ID), out)
	return out, nil
}

// ExpireOverdueProposals sweeps proposals whose voting window lapsed
// without an explicit CloseVoting call and persists their EXPIRED
// status.
func (c *Cell) ExpireOverdueProposals(now time.Time) []governance.Proposal {
	expired := c.Governance.ExpireOverdueProposals(now)
	for _, p := range expired {
		put(c, keyProposal+string(p.ID), p)
	}
	return expired
}

// ExecuteProposal executes a passed proposal's payload and persists the
// resulting EXECUTED/FAILED status.
func (c *Cell) ExecuteProposal(id ids.ProposalID) (governance.Proposal, error) {
	out, err := c.Governance.ExecuteProposal(id)
	put(c, keyProposal+string(out.ID), out)
	return out, err
}

// SeatCouncilMember installs a council seat and persists the full roster.
func (c *Cell) SeatCouncilMember(member ids.MemberID, termStart, termEnd time.Time) {
	c.Governance.SeatCouncilMember(member, termStart, termEnd)
	c.persistCouncilRoster()
}

// VacateCouncilSeat removes a council seat and persists the full roster.
func (c *Cell) VacateCouncilSeat(member ids.MemberID) {
	c.Governance.VacateCouncilSeat(member)
	c.persistCouncilRoster()
}

func (c *Cell) persistCouncilRoster() {
	put(c, keyCouncil+string(c.ID), c.Governance.CouncilRoster())
}

// FileDispute opens a dispute and persists it under dispute/{id}.
func (c *Cell) FileDispute(id ids.DisputeID, commitmentID ids.CommitmentID, filer, respondent ids.MemberID, reason string) (governance.Dispute, error) {
	out, err := c.Governance.FileDispute(id, commitmentID, filer, respondent, reason)
	if err != nil {
		return out, err
	}
	put(c, keyDispute+string(out.ID), out)
	return out, nil
}

// AssignReviewer assigns a dispute reviewer and persists it.
func (c *Cell) AssignReviewer(id ids.DisputeID, reviewer ids.MemberID) (governance.Dispute, error) {
	out, err := c.Governance.AssignReviewer(id, reviewer)
	if err != nil {
		return out, err
	}
	put(c, keyDispute+string(out.ID), out)
	return out, nil
}

// ScheduleHearing schedules a dispute hearing and persists it.
func (c *Cell) ScheduleHearing(id ids.DisputeID, at time.Time) (governance.Dispute, error) {
	out, err := c.Governance.ScheduleHearing(id, at)
	if err != nil {
		return out, err
	}
	put(c, keyDispute+string(out.ID), out)
	return out, nil
}

// ResolveDispute applies a dispute resolution and persists it.
func (c *Cell) ResolveDispute(id ids.DisputeID, resolution governance.DisputeResolution) (governance.Dispute, error) {
	out, err := c.Governance.Resolve(id, resolution)
	if err != nil {
		return out, err
	}
	put(c, keyDispute+string(out.ID), out)
	return out, nil
}

type emergencyDocument struct {
	State  string
	Policy emergency.Policy
}

func (c *Cell) persistEmergencyState() {
	doc := emergencyDocument{
		State:  c.Emergency.State().String(),
		Policy: c.Emergency.Policy(),
	}
	put(c, keyEmergency+string(c.ID), doc)
}

// OverrideEmergencyState forces a risk-state transition on governance
// authority and persists the result.
func (c *Cell) OverrideEmergencyState(target emergency.State, reason string) {
	c.Emergency.Override(target, reason)
	c.persistEmergencyState()
}
