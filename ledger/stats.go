// (c) 2025, Lux Collective Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"fmt"
	"math"
	"sync"

	"github.com/luxfi/cellcore/utils"
)

// ledgerStatsCache memoizes the O(N) aggregate statistics keyed by the
// ledger version they were computed against, so repeated stats queries
// between mutations don't re-walk the member map (spec.md §9:
// "statistics must be cheap enough to compute on every balance query").
type ledgerStatsCache struct {
	mu      sync.Mutex
	values  utils.Cacher[string, float64]
	version uint64
}

func newLedgerStatsCache() *ledgerStatsCache {
	return &ledgerStatsCache{
		values: utils.NewLRUCache[string, float64](4),
	}
}

func (c *ledgerStatsCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values.Flush()
}

func (c *ledgerStatsCache) get(key string, atVersion uint64, compute func() float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if atVersion != c.version {
		c.values.Flush()
		c.version = atVersion
	}
	if v, ok := c.values.Get(key); ok {
		return v
	}
	v := compute()
	c.values.Put(key, v)
	return v
}

// BalanceVariance returns the population variance of all ACTIVE and
// PROBATION members' balances, used as a dispersion indicator feeding
// the emergency risk-state machine (spec.md §9 supplemented stats).
// Excluded, pending, and frozen members don't contribute live exposure
// and are skipped.
func (l *Ledger) BalanceVariance() float64 {
	l.mu.RLock()
	version := l.version
	l.mu.RUnlock()

	return l.statsCache.get("variance", version, func() float64 {
		l.mu.RLock()
		defer l.mu.RUnlock()

		var n int
		var sum, sumSq float64
		for _, m := range l.members {
			if m.Status != StatusActive && m.Status != StatusProbation {
				continue
			}
			b := float64(m.Balance)
			sum += b
			sumSq += b * b
			n++
		}
		if n == 0 {
			return 0
		}
		mean := sum / float64(n)
		return sumSq/float64(n) - mean*mean
	})
}

// FloorMass reports the fraction of live (ACTIVE or PROBATION) members
// whose balance is at or below -rho·limit, rho being a proportion of
// each member's own limit.
// A rising floor mass is the primary stress indicator consumed by the
// emergency risk-state machine (spec.md §9 supplemented stats).
func (l *Ledger) FloorMass(rho float64) float64 {
	if rho < 0 {
		rho = 0
	}
	l.mu.RLock()
	version := l.version
	l.mu.RUnlock()

	key := fmt.Sprintf("floormass:%f", rho)
	return l.statsCache.get(key, version, func() float64 {
		l.mu.RLock()
		defer l.mu.RUnlock()

		var n, near int
		for _, m := range l.members {
			if m.Status != StatusActive && m.Status != StatusProbation {
				continue
			}
			n++
			if m.Limit <= 0 {
				continue
			}
			if float64(m.Balance) <= -rho*float64(m.Limit) {
				near++
			}
		}
		if n == 0 {
			return 0
		}
		return float64(near) / float64(n)
	})
}

// TotalReserve sums reserve across all members, a cheap sanity figure
// exposed alongside the richer statistics above.
func (l *Ledger) TotalReserve() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var total int64
	for _, m := range l.members {
		total += m.Reserve
	}
	return total
}

// StandardDeviation is a convenience wrapper over BalanceVariance.
func (l *Ledger) StandardDeviation() float64 {
	return math.Sqrt(l.BalanceVariance())
}
