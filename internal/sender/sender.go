// Package sender drains the route store and submits profitable candidates
// as Solana transactions, grounded on core/connection_pool.go's bounded
// concurrency pattern (golang.org/x/sync/semaphore instead of a hand-rolled
// channel pool) and on original_source's tight submission loop: spec.md
// §4.9 calls for a 1ms tick rather than draining reactively, so a route
// still in flight doesn't get resubmitted by the very next tick.
package sender

import (
	"context"
	"math/rand"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/solarb/engine/internal/ata"
	"github.com/solarb/engine/internal/flashloan"
	"github.com/solarb/engine/internal/quote"
	"github.com/solarb/engine/internal/ratelimit"
	"github.com/solarb/engine/internal/routestore"
	"github.com/solarb/engine/internal/types"
	"github.com/solarb/engine/internal/wallet"
)

// Config bundles the sender's tunables.
type Config struct {
	Tick          time.Duration // 1ms
	Parallelism   int64         // concurrent in-flight submissions
	UseFlashLoans bool
	FlashLoanFeeBps  uint16
	FlashLoanReserve types.AccountKey

	MinimumProfit  int64 // config.MinimumProfit: submission floor, spec.md §4.9(d)
	AdjustSlippage bool
	SlippageBps    int64
}

type Sender struct {
	log       *logrus.Entry
	rpc       *rpc.Client
	store     *routestore.Store
	evaluator *quote.Evaluator
	ata       *ata.Worker
	wallet    *wallet.Wallet
	flash     *flashloan.Wrapper
	limiter   *ratelimit.Limiter
	clockFunc func() types.ClockSnapshot
	cfg       Config

	sem *semaphore.Weighted
}

// New builds a Sender. It deliberately does not take a lookuptable.Cache:
// MaxHops keeps routes short enough that a legacy transaction's account
// limit is never the bottleneck, so there is nothing for an address lookup
// table to shrink here. The lookup-table cache still runs at the top level
// for its own sake (warmed and exposed on the debug HTTP server), ready to
// be threaded into a versioned-transaction builder if route length grows.
func New(log *logrus.Logger, client *rpc.Client, store *routestore.Store, ev *quote.Evaluator, ataWorker *ata.Worker, w *wallet.Wallet, flash *flashloan.Wrapper, limiter *ratelimit.Limiter, clockFunc func() types.ClockSnapshot, cfg Config) *Sender {
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 8
	}
	if cfg.Tick <= 0 {
		cfg.Tick = time.Millisecond
	}
	if limiter == nil {
		limiter = ratelimit.New()
	}
	return &Sender{
		log:       log.WithField("component", "sender"),
		rpc:       client,
		store:     store,
		evaluator: ev,
		ata:       ataWorker,
		wallet:    w,
		flash:     flash,
		limiter:   limiter,
		clockFunc: clockFunc,
		cfg:       cfg,
		sem:       semaphore.NewWeighted(cfg.Parallelism),
	}
}

// Run drains the route store every tick, submitting whatever is waiting up
// to the configured parallelism, until ctx is cancelled.
func (s *Sender) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for _, candidate := range s.store.Drain() {
				candidate := candidate
				if !s.sem.TryAcquire(1) {
					continue // at capacity this tick; candidate is dropped, not requeued
				}
				go func() {
					defer s.sem.Release(1)
					s.submit(ctx, candidate)
				}()
			}
		}
	}
}

// submit runs candidate through spec.md §4.9's ordered submission checks
// (a-f): drop single-hop routes, ensure ATAs, rate-limit, re-quote, build,
// and send.
func (s *Sender) submit(ctx context.Context, candidate types.RouteCandidate) {
	// A per-submission correlation ID so every log line from this one
	// attempt — ATA-ensure, rate-limit, re-quote, submit — can be joined.
	submissionID := uuid.NewString()
	log := s.log.WithField("submission_id", submissionID)

	// (a) a route with fewer than 2 pools can't be a closed loop worth
	// sending — a single hop never returns to the base mint.
	if len(candidate.Swap.Pools) < 2 {
		return
	}

	// (b) every distinct mint on the route needs a ready ATA before this
	// engine can receive/spend it mid-transaction.
	for _, pool := range candidate.Swap.Pools {
		if err := s.ata.Ensure(ctx, s.wallet.PublicKey(), pool.MintA); err != nil {
			return
		}
		if err := s.ata.Ensure(ctx, s.wallet.PublicKey(), pool.MintB); err != nil {
			return
		}
	}

	// (c) suppress a duplicate submission of the same logical trade within
	// the rate-limit window (spec.md §3/§8 property 3).
	key := ratelimit.KeyFor(candidate.Swap.Pools, candidate.Swap.AmountIn)
	if !s.limiter.Allow(key) {
		return
	}

	// (d) re-quote under the current clock and the configured slippage
	// flag; the candidate may be several milliseconds stale since the
	// finder produced it. Drop if profit no longer clears either the
	// route's own threshold or the configured minimum_profit floor.
	route := routeFromPools(candidate.Swap.Mint, candidate.Swap.Pools)
	clock := s.clockFunc()

	out, err := s.evaluator.SafeSwapCompute(route, clock, uint64(candidate.Swap.AmountIn), s.cfg.AdjustSlippage, s.cfg.SlippageBps)
	if err != nil {
		return
	}
	freshProfit := int64(out) - candidate.Swap.AmountIn
	minProfit := candidate.Swap.Threshold
	if s.cfg.MinimumProfit > minProfit {
		minProfit = s.cfg.MinimumProfit
	}
	if freshProfit <= minProfit {
		log.WithFields(logrus.Fields{
			"mint":  candidate.Swap.Mint.String(),
			"stale": candidate.Swap.Profit,
			"fresh": freshProfit,
		}).Debug("sender: candidate no longer profitable after re-quote, dropping")
		return
	}

	// (e) assemble the transaction: compute-budget instructions (price
	// first, then limit) sized off the fresh profit and hop count, then the
	// route instructions, optionally flash-loan wrapped.
	ixs := s.buildComputeBudgetInstructions(freshProfit, len(candidate.Swap.Pools), s.cfg.UseFlashLoans)
	swapIxs, err := s.buildSwapInstructions(candidate)
	if err != nil {
		log.WithError(err).Debug("sender: failed building swap instructions")
		return
	}
	ixs = append(ixs, swapIxs...)

	if s.cfg.UseFlashLoans {
		wrapped, err := s.flash.Wrap(ixs, candidate.Swap.Mint, s.cfg.FlashLoanReserve, uint64(candidate.Swap.AmountIn), s.cfg.FlashLoanFeeBps, s.wallet.PublicKey())
		if err != nil {
			log.WithError(err).Debug("sender: flash loan wrap failed")
			return
		}
		ixs = wrapped
	}

	// (f) sign and submit.
	if err := s.sendTransaction(ctx, ixs); err != nil {
		log.WithError(err).WithField("mint", candidate.Swap.Mint.String()).Warn("sender: submission failed")
	}
}

// buildComputeBudgetInstructions orders the price instruction before the
// limit instruction, per spec.md §4.9(e): "the first instruction sets a
// compute-unit price ... the next sets a compute-unit limit".
func (s *Sender) buildComputeBudgetInstructions(profit int64, hops int, useFlashLoan bool) []solana.Instruction {
	limit := computeUnitLimitFor(hops, useFlashLoan, rand.Float64())
	price := computeUnitPriceForProfit(profit)
	out := make([]solana.Instruction, 0, 2)
	out = append(out, newComputeBudgetInstruction(computeBudgetTagSetPrice, price, 8))
	out = append(out, newComputeBudgetInstruction(computeBudgetTagSetLimit, uint64(limit), 4))
	return out
}

func routeFromPools(startMint types.AccountKey, pools []types.TokenPool) types.Route {
	hops := make([]types.Hop, len(pools))
	mint := startMint
	for i, p := range pools {
		other, _ := p.OtherMint(mint)
		hops[i] = types.Hop{FromMint: mint, ToMint: other, PoolKey: p.PoolKey, Kind: p.Kind}
		mint = other
	}
	return types.Route{StartMint: startMint, Hops: hops}
}
