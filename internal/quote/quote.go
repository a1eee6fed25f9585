// Package quote turns a Route plus a starting amount into the output amount
// after every hop, reading pool snapshots through the cache exactly as
// spec.md §4.5 describes, with a panic guard around each hop so one curve
// bug degrades a single route to "no profit" instead of taking down the
// finder goroutine that's evaluating it (spec.md §4.5/§9, grounded on
// core/liquidity_pools.go's recover-wrapped Swap entry points).
package quote

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/solarb/engine/internal/cache"
	"github.com/solarb/engine/internal/curve"
	"github.com/solarb/engine/internal/types"
)

type Evaluator struct {
	log   *logrus.Entry
	cache *cache.Cache
}

func New(log *logrus.Logger, c *cache.Cache) *Evaluator {
	return &Evaluator{log: log.WithField("component", "quote"), cache: c}
}

// SwapCompute runs amountIn through every hop of route in order, returning
// the final output amount. Any hop that errors aborts the whole route with
// that error — a partial amount out is meaningless for an arbitrage check.
// When adjustSlippage is true, the output of each hop is shrunk by
// slippageBps basis points (down-rounded) before it becomes the next hop's
// input, per spec.md §4.5.
func (e *Evaluator) SwapCompute(route types.Route, clock types.ClockSnapshot, amountIn uint64, adjustSlippage bool, slippageBps int64) (amountOut uint64, err error) {
	current := amountIn
	mint := route.StartMint
	for _, hop := range route.Hops {
		current, err = e.quoteHop(hop, clock, current, mint)
		if err != nil {
			return 0, fmt.Errorf("quote: hop %s: %w", hop.PoolKey, err)
		}
		if current == 0 {
			return 0, nil
		}
		if adjustSlippage && slippageBps > 0 {
			current -= current * uint64(slippageBps) / 10_000
		}
		mint = hop.ToMint
	}
	return current, nil
}

// SafeSwapCompute is SwapCompute wrapped in a panic guard: an implementation
// bug in a specific curve's Quote degrades this one route to zero instead of
// crashing the caller's goroutine.
func (e *Evaluator) SafeSwapCompute(route types.Route, clock types.ClockSnapshot, amountIn uint64, adjustSlippage bool, slippageBps int64) (amountOut uint64, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.log.WithFields(logrus.Fields{
				"start_mint": route.StartMint.String(),
				"hops":       route.MaxHops(),
				"panic":      r,
			}).Error("quote: recovered panic evaluating route")
			amountOut, err = 0, fmt.Errorf("quote: panic evaluating route: %v", r)
		}
	}()
	return e.SwapCompute(route, clock, amountIn, adjustSlippage, slippageBps)
}

// Snapshot exposes the cached snapshot for a pool key. The optimizer's
// post-processing step needs it to special-case the bonding-curve pool
// kind's threshold rule (spec.md §4.6), which otherwise has no seam into
// the cache from outside this package.
func (e *Evaluator) Snapshot(poolKey types.AccountKey) (types.Snapshot, bool) {
	return e.cache.Get(poolKey)
}

func (e *Evaluator) quoteHop(hop types.Hop, clock types.ClockSnapshot, amountIn uint64, mintIn types.AccountKey) (uint64, error) {
	snap, ok := e.cache.Get(hop.PoolKey)
	if !ok {
		return 0, fmt.Errorf("pool %s not in cache", hop.PoolKey)
	}
	crv, ok := curve.Lookup(hop.Kind)
	if !ok {
		return 0, fmt.Errorf("no curve registered for kind %s", hop.Kind)
	}
	return crv.Quote(snap, clock, amountIn, mintIn)
}

// Product computes the multiplicative spot-price product of a route using
// the cache's fast-path price entries rather than full Quote calls — the
// cheap heuristic the finder uses to pre-rank routes before running the
// optimizer on the survivors (spec.md §4.5/§4.6).
func (e *Evaluator) Product(route types.Route) (float64, bool) {
	product := 1.0
	for _, hop := range route.Hops {
		entry, ok := e.cache.Price(hop.PoolKey)
		if !ok {
			return 0, false
		}
		if entry.FromMint == hop.FromMint {
			product *= entry.Rate
		} else if entry.ToMint == hop.FromMint && entry.Rate != 0 {
			product *= 1 / entry.Rate
		} else {
			return 0, false
		}
	}
	return product, true
}
