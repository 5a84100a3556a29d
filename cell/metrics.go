// (c) 2025, Lux Collective Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package cell

import (
	"github.com/luxfi/geth/metrics"

	"github.com/luxfi/cellcore/commitment"
	"github.com/luxfi/cellcore/ledger"
	"github.com/luxfi/cellcore/metrics/gatherer"
	metricsprom "github.com/luxfi/cellcore/metrics/prometheus"
)

// metricSet holds every gauge/counter exported for one cell, registered
// under a dedicated registry so a cell's metrics never collide with
// another cell's in the same process (spec.md §6: metrics/observability
// are ambient, not feature scope, but still wired the way the teacher
// wires theirs).
type metricSet struct {
	registry metrics.Registry

	memberCount     metrics.Gauge
	activeMembers   metrics.Gauge
	frozenMembers   metrics.Gauge
	totalReserve    metrics.Gauge
	balanceVariance metrics.GaugeFloat64
	floorMass       metrics.GaugeFloat64
	emergencyState  metrics.Gauge
	eventCount      metrics.Gauge
	txSubmitted     metrics.Counter
	commitmentCount metrics.Gauge
	proposalCount   metrics.Gauge
	queuePending    metrics.Gauge
	queueFailed     metrics.Gauge
}

func newMetricSet() *metricSet {
	r := metrics.NewRegistry()
	ms := &metricSet{
		registry:        r,
		memberCount:     metrics.NewGauge(),
		activeMembers:   metrics.NewGauge(),
		frozenMembers:   metrics.NewGauge(),
		totalReserve:    metrics.NewGauge(),
		balanceVariance: metrics.NewGaugeFloat64(),
		floorMass:       metrics.NewGaugeFloat64(),
		emergencyState:  metrics.NewGauge(),
		eventCount:      metrics.NewGauge(),
		txSubmitted:     metrics.NewCounter(),
		commitmentCount: metrics.NewGauge(),
		proposalCount:   metrics.NewGauge(),
		queuePending:    metrics.NewGauge(),
		queueFailed:     metrics.NewGauge(),
	}
	_ = r.Register("cell/members/total", ms.memberCount)
	_ = r.Register("cell/members/active", ms.activeMembers)
	_ = r.Register("cell/members/frozen", ms.frozenMembers)
	_ = r.Register("cell/ledger/total_reserve", ms.totalReserve)
	_ = r.Register("cell/ledger/balance_variance", ms.balanceVariance)
	_ = r.Register("cell/ledger/floor_mass", ms.floorMass)
	_ = r.Register("cell/emergency/state", ms.emergencyState)
	_ = r.Register("cell/events/total", ms.eventCount)
	_ = r.Register("cell/tx/submitted", ms.txSubmitted)
	_ = r.Register("cell/commitments/total", ms.commitmentCount)
	_ = r.Register("cell/proposals/total", ms.proposalCount)
	_ = r.Register("cell/queue/pending", ms.queuePending)
	_ = r.Register("cell/queue/failed", ms.queueFailed)
	return ms
}

// observe recomputes every gauge from live state. Call after any
// mutation whose effect should be visible to scrapers; Tick calls it
// unconditionally so metrics never go stale between requests.
func (ms *metricSet) observe(c *Cell) {
	memberIDs := c.Ledger.MemberIDs()
	ms.memberCount.Update(int64(len(memberIDs)))

	var active, frozen int64
	for _, id := range memberIDs {
		state, err := c.Ledger.GetMemberState(id)
		if err != nil {
			continue
		}
		switch state.Status {
		case ledger.StatusActive:
			active++
		case ledger.StatusFrozen:
			frozen++
		}
	}
	ms.activeMembers.Update(active)
	ms.frozenMembers.Update(frozen)
	ms.totalReserve.Update(c.Ledger.TotalReserve())
	ms.balanceVariance.Update(c.Ledger.BalanceVariance())
	ms.floorMass.Update(c.Ledger.FloorMass(c.Ledger.Parameters().FloorThreshold))
	ms.emergencyState.Update(int64(c.Emergency.State()))
	ms.eventCount.Update(int64(c.EventLog.Len()))

	stats := c.Queue.Stats()
	ms.queuePending.Update(int64(stats.Pending))
	ms.queueFailed.Update(int64(stats.Failed))

	ms.commitmentCount.Update(int64(len(c.Commitments.Query(commitment.QueryFilter{}))))
	ms.proposalCount.Update(int64(len(c.Governance.Proposals())))
}

// Gatherer exposes the cell's metrics as a github.com/luxfi/metric
// Gatherer, suitable for an HTTP metrics endpoint (cmd/cellnode wires
// this to a handler).
func (c *Cell) Gatherer() *gatherer.Gatherer {
	return gatherer.NewGatherer(c.metrics.registry)
}

// PrometheusGatherer exposes the cell's metrics as a standard
// prometheus.Gatherer for a /metrics HTTP endpoint.
func (c *Cell) PrometheusGatherer() *metricsprom.Gatherer {
	return metricsprom.NewGatherer(c.metrics.registry)
}
