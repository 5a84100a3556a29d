// (c) 2025, Lux Collective Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package cell composes the ledger and every mid-level engine
// (identity, transactions, commitments, governance, emergency) behind
// one per-cell API. It is the only package that constructs the full
// graph; everything below it stays acyclic via the narrow observer
// interfaces each engine declares (spec.md §9 redesign flag).
package cell

import (
	"github.com/luxfi/cellcore/commitment"
	"github.com/luxfi/cellcore/crypto"
	"github.com/luxfi/cellcore/emergency"
	"github.com/luxfi/cellcore/eventlog"
	"github.com/luxfi/cellcore/governance"
	"github.com/luxfi/cellcore/identity"
	"github.com/luxfi/cellcore/ids"
	"github.com/luxfi/cellcore/ledger"
	"github.com/luxfi/cellcore/storage"
	"github.com/luxfi/cellcore/tx"
	"github.com/luxfi/cellcore/utils"
	"github.com/luxfi/log"
)

// Config is everything needed to stand up one cell.
type Config struct {
	CellID     ids.CellID
	Parameters ledger.Parameters

	// GovernanceEta is the per-adjustment rate limit on member limit
	// changes (spec.md §4.5 Hard constraints).
	GovernanceEta int64

	EmergencyThresholds emergency.Thresholds

	// Store persists commitment/proposal/dispute/council/emergency
	// documents (spec.md §6). Required.
	Store storage.Store

	// Clock defaults to utils.RealClock{} if nil.
	Clock utils.Clock

	// Verifier defaults to crypto.Ed25519Verifier{} if nil.
	Verifier crypto.Verifier
}

// Cell is one closed peer group's full engine graph, ready to serve
// requests.
type Cell struct {
	ID ids.CellID

	Ledger      *ledger.Ledger
	Identity    *identity.Registry
	Tx          *tx.Engine
	Queue       *tx.Queue
	Commitments *commitment.Engine
	Governance  *governance.Engine
	Emergency   *emergency.Machine
	EventLog    *eventlog.Log

	store  storage.Store
	clock  utils.Clock
	logger log.Logger

	metrics *metricSet
}

// New constructs a fully wired cell. Construction order:
//  1. clock, event log, ledger
//  2. identity, with a nil commitment checker (resolved in step 4)
//  3. tx engine and commitment engine, both against identity
//  4. identity.SetCommitmentChecker(commitment), breaking the
//     identity<->commitment construction cycle
//  5. governance, against identity and commitment
//  6. emergency, against the ledger
func New(cfg Config) *Cell {
	clock := cfg.Clock
	if clock == nil {
		clock = utils.RealClock{}
	}
	verifier := cfg.Verifier
	if verifier == nil {
		verifier = crypto.Ed25519Verifier{}
	}

	elog := eventlog.New(cfg.CellID, clock)
	l := ledger.New(cfg.CellID, cfg.Parameters, elog, clock)

	idRegistry := identity.New(l, clock, nil)
	txEngine := tx.New(l, idRegistry, verifier, elog, cfg.Store)
	commitEngine := commitment.New(l, idRegistry, verifier, elog, clock)
	idRegistry.SetCommitmentChecker(commitEngine)

	govEngine := governance.New(l, idRegistry, verifier, elog, clock, commitEngine, cfg.GovernanceEta)
	emergencyMachine := emergency.New(l, elog, clock, cfg.EmergencyThresholds)

	c := &Cell{
		ID:          cfg.CellID,
		Ledger:      l,
		Identity:    idRegistry,
		Tx:          txEngine,
		Queue:       tx.NewQueue(txEngine),
		Commitments: commitEngine,
		Governance:  govEngine,
		Emergency:   emergencyMachine,
		EventLog:    elog,
		store:       cfg.Store,
		clock:       clock,
		logger:      log.Root(),
		metrics:     newMetricSet(),
	}
	c.metrics.observe(c)
	return c
}

// Tick runs periodic, non-request-driven maintenance: re-evaluates the
// emergency state machine, expires governance proposals whose voting
// window lapsed without being closed, and re-syncs the offline
// transaction queue. Callers (e.g. cmd/cellnode) are expected to call
// this on a ticker.
func (c *Cell) Tick(recentDefaultRate float64) []tx.QueueEntry {
	c.Emergency.Evaluate(recentDefaultRate)
	c.persistEmergencyState()
	c.ExpireOverdueProposals(c.clock.Time())
	results := c.Queue.Sync()
	c.metrics.observe(c)
	return results
}

// SubmitTransaction submits a spot transaction through the tx engine,
// counting it for cell/tx/submitted regardless of outcome.
func (c *Cell) SubmitTransaction(in tx.CreateSpotTransactionInput) (tx.Transaction, error) {
	out, err := c.Tx.Submit(in)
	c.metrics.txSubmitted.Inc(1)
	c.metrics.observe(c)
	return out, err
}
