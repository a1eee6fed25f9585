// Package finder turns routes from the route index into ranked candidates
// in the route store, by running each route's profit function through an
// optimizer (spec.md §4.6/§4.7). Two finders share the evaluation logic: a
// MintScopedFinder reacts to individual pool updates (the common case — most
// account updates touch one pool, so only routes through its two mints need
// re-evaluation), and a GlobalFinder periodically re-sweeps every known
// route as a correctness backstop against missed events, grounded on
// original_source's split between targeted and periodic re-optimization.
package finder

import (
	"context"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/solarb/engine/internal/curve"
	"github.com/solarb/engine/internal/optimize"
	"github.com/solarb/engine/internal/quote"
	"github.com/solarb/engine/internal/routeindex"
	"github.com/solarb/engine/internal/routestore"
	"github.com/solarb/engine/internal/types"
)

// defaultSentinelAmountIn is spec.md §4.7's example sentinel size (50,000
// base units): cheap enough to evaluate on every route before the optimizer
// ever runs, while still large enough not to round to zero against a real
// pool's curve.
const defaultSentinelAmountIn = 50_000

// Config bundles the tunables both finders share.
type Config struct {
	MinAmountIn                 int64
	MaxAmountIn                 int64
	OptimizationAmountPercent   int64
	PriceThreshold              float64 // product filter: route passes if product >= 1 + PriceThreshold
	PriceThresholdBps           int64
	SentinelAmountIn            int64 // defaults to defaultSentinelAmountIn when <= 0
	RejectTinyHighRoi           bool
	BondingCurveThresholdMargin int64
	AdjustSlippage              bool
	SlippageBps                 int64
	Strategy                    optimize.Strategy
}

type shared struct {
	log        *logrus.Entry
	routeIndex *routeindex.Index
	evaluator  *quote.Evaluator
	store      *routestore.Store
	clockFunc  func() types.ClockSnapshot
	cfg        Config
}

// evaluateRoute runs a route through the product pre-filter, the sentinel
// cheap-reject, the optimizer, and postprocessing, inserting a passing
// candidate into the store. Both finders call this with identical logic;
// only what triggers the call differs (spec.md §4.6/§4.7).
func (s *shared) evaluateRoute(ctx context.Context, route types.Route, insert func(types.RouteCandidate)) {
	if !route.Valid() {
		return
	}
	clock := s.clockFunc()

	// Cheap necessary-condition filter: a route whose current spot-price
	// product doesn't clear 1+price_threshold can't be arbitrageable in the
	// small-amount limit, so it's never worth the optimizer's cost.
	product, ok := s.evaluator.Product(route)
	if !ok || product < 1+s.cfg.PriceThreshold {
		return
	}

	objective := func(ctx context.Context, amountIn int64) int64 {
		if amountIn <= 0 {
			return 0
		}
		out, err := s.evaluator.SafeSwapCompute(route, clock, uint64(amountIn), s.cfg.AdjustSlippage, s.cfg.SlippageBps)
		if err != nil {
			return -amountIn
		}
		return int64(out) - amountIn
	}

	// Sentinel evaluation: O(hops) and vastly cheaper than optimization, so
	// it rejects the vast majority of product-filter survivors before the
	// 1-D search ever runs (spec.md §4.7's stated rationale).
	sentinelAmount := s.cfg.SentinelAmountIn
	if sentinelAmount <= 0 {
		sentinelAmount = defaultSentinelAmountIn
	}
	if objective(ctx, sentinelAmount) <= 0 {
		return
	}

	rawAmount, rawProfit := s.cfg.Strategy.Maximize(ctx, objective, s.cfg.MinAmountIn, s.cfg.MaxAmountIn, 1)
	if rawProfit <= 0 {
		return
	}

	kind := types.KindUnknown
	if len(route.Hops) > 0 {
		kind = route.Hops[0].Kind
	}
	result, ok := optimize.Postprocess(rawAmount, rawProfit, s.cfg.OptimizationAmountPercent, s.cfg.PriceThresholdBps, s.cfg.RejectTinyHighRoi, kind, s.cfg.BondingCurveThresholdMargin, s.bondingDerivedBaseAmount(route), func(amountIn int64) int64 {
		return objective(ctx, amountIn)
	})
	if !ok {
		return
	}

	pools := make([]types.TokenPool, len(route.Hops))
	for i, hop := range route.Hops {
		pools[i] = types.TokenPool{PoolKey: hop.PoolKey, Kind: hop.Kind, MintA: hop.FromMint, MintB: hop.ToMint}
	}
	candidate := types.RouteCandidate{
		Swap: types.SwapRoutes{
			Pools:     pools,
			Profit:    result.Profit,
			AmountIn:  result.AmountIn,
			Threshold: result.Threshold,
			Mint:      route.StartMint,
		},
		QuoteTime: timeNow(),
	}
	insert(candidate)
}

// bondingDerivedBaseAmount reports the entry pool's remaining native-side
// room before graduation when the route's first hop is a bonding-curve pool,
// so Postprocess can apply spec.md §4.6's threshold/amount-rewrite override.
// Returns 0 when the route doesn't start on a bonding-curve pool or the
// snapshot can't yield a derived amount, in which case Postprocess falls
// back to the generic threshold.
func (s *shared) bondingDerivedBaseAmount(route types.Route) int64 {
	if len(route.Hops) == 0 || route.Hops[0].Kind != types.KindPoolBondingCurve {
		return 0
	}
	snap, ok := s.evaluator.Snapshot(route.Hops[0].PoolKey)
	if !ok {
		return 0
	}
	remaining, ok := curve.BondingRemainingCapacity(snap)
	if !ok {
		return 0
	}
	return int64(remaining)
}

var timeNow = time.Now

// MintScopedFinder evaluates every route passing through a mint whenever a
// pool touching that mint changes.
type MintScopedFinder struct {
	shared
}

func NewMintScopedFinder(log *logrus.Logger, ri *routeindex.Index, ev *quote.Evaluator, store *routestore.Store, clockFunc func() types.ClockSnapshot, cfg Config) *MintScopedFinder {
	return &MintScopedFinder{shared{
		log:        log.WithField("component", "finder.mint_scoped"),
		routeIndex: ri,
		evaluator:  ev,
		store:      store,
		clockFunc:  clockFunc,
		cfg:        cfg,
	}}
}

// OnPoolUpdated re-evaluates every route passing through mintA or mintB (the
// route index does not key routes by the base mint itself).
func (f *MintScopedFinder) OnPoolUpdated(ctx context.Context, mintA, mintB types.AccountKey) {
	for _, mint := range []types.AccountKey{mintA, mintB} {
		for _, route := range f.routeIndex.RoutesFrom(mint) {
			f.evaluateRoute(ctx, route, f.store.SmartInsert)
		}
	}
}

// GlobalFinder periodically re-sweeps every route the route index knows
// about as a correctness backstop against missed pool-update events. Every
// route the index stores is, by construction, already rooted at its one
// configured base mint (see routeindex.Index.AllRoutes), so unlike the
// mint-scoped finder this has nothing further to filter by mint.
type GlobalFinder struct {
	shared
	tick time.Duration
}

func NewGlobalFinder(log *logrus.Logger, ri *routeindex.Index, ev *quote.Evaluator, store *routestore.Store, clockFunc func() types.ClockSnapshot, cfg Config, tick time.Duration) *GlobalFinder {
	return &GlobalFinder{
		shared: shared{
			log:        log.WithField("component", "finder.global"),
			routeIndex: ri,
			evaluator:  ev,
			store:      store,
			clockFunc:  clockFunc,
			cfg:        cfg,
		},
		tick: tick,
	}
}

// Run sweeps every route from the configured base mint on each tick,
// parallelized across up to NumCPU workers via errgroup, until ctx is
// cancelled.
func (f *GlobalFinder) Run(ctx context.Context) error {
	ticker := time.NewTicker(f.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := f.sweepOnce(ctx); err != nil && ctx.Err() == nil {
				f.log.WithError(err).Warn("finder: sweep iteration failed")
			}
		}
	}
}

func (f *GlobalFinder) sweepOnce(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for _, route := range f.routeIndex.AllRoutes() {
		route := route
		g.Go(func() error {
			f.evaluateRoute(gctx, route, f.store.SmartInsert)
			return nil
		})
	}
	return g.Wait()
}
