// (c) 2025, Lux Collective Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package emergency implements the cell-wide risk state machine
// (spec.md §4.6): NORMAL ⇄ STRESSED ⇄ PANIC → RECOVERY → NORMAL, driven
// by stress indicators and bound to the ledger's commitment mode, the
// only core-binding policy effect.
package emergency

import (
	"sync"
	"time"

	"github.com/luxfi/cellcore/eventlog"
	"github.com/luxfi/cellcore/ledger"
	"github.com/luxfi/cellcore/utils"
	"github.com/luxfi/log"
)

// State is a position in the risk state machine.
type State int

const (
	StateNormal State = iota
	StateStressed
	StatePanic
	StateRecovery
)

func (s State) String() string {
	switch s {
	case StateStressed:
		return "STRESSED"
	case StatePanic:
		return "PANIC"
	case StateRecovery:
		return "RECOVERY"
	default:
		return "NORMAL"
	}
}

// AdmissionMode gates new-member admission under stress.
type AdmissionMode int

const (
	AdmissionOpen AdmissionMode = iota
	AdmissionReviewOnly
	AdmissionClosed
)

// SchedulerPriority hints at how a caller should prioritize background
// work (e.g. overdue-commitment sweeps) under stress. The core itself
// does no scheduling; this is advisory state exposed to callers.
type SchedulerPriority int

const (
	PriorityNormal SchedulerPriority = iota
	PriorityElevated
	PriorityCritical
)

// Policy is the tuple bound to one State (spec.md §4.6).
type Policy struct {
	AdmissionMode     AdmissionMode
	CommitmentMode    ledger.CommitmentMode
	SchedulerPriority SchedulerPriority
}

// DefaultPolicies maps each state to its policy tuple. PANIC forces
// ESCROWED commitments cell-wide, the one policy effect binding on the
// ledger (spec.md §4.6).
var DefaultPolicies = map[State]Policy{
	StateNormal:   {AdmissionMode: AdmissionOpen, CommitmentMode: ledger.CommitmentSoft, SchedulerPriority: PriorityNormal},
	StateStressed: {AdmissionMode: AdmissionReviewOnly, CommitmentMode: ledger.CommitmentSoft, SchedulerPriority: PriorityElevated},
	StatePanic:    {AdmissionMode: AdmissionClosed, CommitmentMode: ledger.CommitmentEscrowed, SchedulerPriority: PriorityCritical},
	StateRecovery: {AdmissionMode: AdmissionReviewOnly, CommitmentMode: ledger.CommitmentEscrowed, SchedulerPriority: PriorityElevated},
}

// Thresholds tune when automatic transitions trigger (spec.md §4.6:
// "thresholds crossed for a hold-down period").
type Thresholds struct {
	StressedFloorMass     float64
	PanicFloorMass        float64
	StressedVariance      float64
	PanicVariance         float64
	RecentDefaultRate     float64
	HoldDown              time.Duration
	ExternalEnergyStress  func() float64 // optional external input, 0 if nil
}

// DefaultThresholds are conservative starting points; cells are
// expected to tune these via governance override.
var DefaultThresholds = Thresholds{
	StressedFloorMass: 0.25,
	PanicFloorMass:    0.5,
	StressedVariance:  2500,
	PanicVariance:     10000,
	RecentDefaultRate: 0.1,
	HoldDown:          10 * time.Minute,
}

// Machine owns the current risk state for one cell and evaluates
// automatic transitions against live ledger statistics.
type Machine struct {
	mu sync.Mutex

	ledger   *ledger.Ledger
	eventLog *eventlog.Log
	clock    utils.Clock

	state          State
	thresholds     Thresholds
	sinceCandidate time.Time // when the current candidate-state crossing began
	candidate      State

	logger log.Logger
}

// New creates a machine starting in NORMAL.
func New(l *ledger.Ledger, eventLog *eventlog.Log, clock utils.Clock, thresholds Thresholds) *Machine {
	return &Machine{
		ledger:     l,
		eventLog:   eventLog,
		clock:      clock,
		state:      StateNormal,
		thresholds: thresholds,
		logger:     log.Root(),
	}
}

// State returns the current risk state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Policy returns the policy tuple bound to the current state.
func (m *Machine) Policy() Policy {
	m.mu.Lock()
	defer m.mu.Unlock()
	return DefaultPolicies[m.state]
}

// Evaluate recomputes stress indicators from live ledger statistics and
// advances the state machine if a threshold has been crossed for the
// full hold-down period (spec.md §4.6). Call this periodically (e.g.
// from a background tick); it is idempotent and cheap.
func (m *Machine) Evaluate(recentDefaultRate float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	floorMass := m.ledger.FloorMass(0.1)
	variance := m.ledger.BalanceVariance()
	external := 0.0
	if m.thresholds.ExternalEnergyStress != nil {
		external = m.thresholds.ExternalEnergyStress()
	}

	target := m.targetState(floorMass, variance, recentDefaultRate, external)
	now := m.clock.Time()

	if target == m.state {
		m.candidate = m.state
		m.sinceCandidate = time.Time{}
		return
	}
	if target != m.candidate {
		m.candidate = target
		m.sinceCandidate = now
		return
	}
	if now.Sub(m.sinceCandidate) >= m.thresholds.HoldDown {
		m.transitionLocked(target, "")
	}
}

func (m *Machine) targetState(floorMass, variance, defaultRate, external float64) State {
	switch m.state {
	case StatePanic:
		if floorMass < m.thresholds.StressedFloorMass && variance < m.thresholds.StressedVariance {
			return StateRecovery
		}
		return StatePanic
	case StateRecovery:
		if floorMass >= m.thresholds.PanicFloorMass || variance >= m.thresholds.PanicVariance {
			return StatePanic
		}
		if floorMass < m.thresholds.StressedFloorMass/2 && variance < m.thresholds.StressedVariance/2 {
			return StateNormal
		}
		return StateRecovery
	default: // NORMAL or STRESSED
		if floorMass >= m.thresholds.PanicFloorMass || variance >= m.thresholds.PanicVariance ||
			defaultRate >= m.thresholds.RecentDefaultRate {
			return StatePanic
		}
		if floorMass >= m.thresholds.StressedFloorMass || variance >= m.thresholds.StressedVariance || external > 0.5 {
			return StateStressed
		}
		return StateNormal
	}
}

// Override forces a transition on governance authority, bypassing the
// hold-down timer (spec.md §4.6: "or by governance override").
func (m *Machine) Override(target State, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitionLocked(target, reason)
}

func (m *Machine) transitionLocked(target State, reason string) {
	if target == m.state {
		return
	}
	from := m.state
	m.state = target
	m.sinceCandidate = time.Time{}
	m.ledger.SetCommitmentMode(DefaultPolicies[target].CommitmentMode)
	m.eventLog.Append(eventlog.TypeEmergencyTransition, "", emergencyTransitionPayload{
		From:   from.String(),
		To:     target.String(),
		Reason: reason,
	})
	m.logger.Warn("emergency: risk state transition", "from", from, "to", target, "reason", reason)
}

// emergencyTransitionPayload is the event payload recorded for every
// state transition, automatic or overridden.
type emergencyTransitionPayload struct {
	From   string
	To     string
	Reason string
}
