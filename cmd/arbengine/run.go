package main

import (
	"context"
	"encoding/binary"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/solarb/engine/internal/admitter"
	"github.com/solarb/engine/internal/ata"
	"github.com/solarb/engine/internal/cache"
	"github.com/solarb/engine/internal/discovery"
	"github.com/solarb/engine/internal/finder"
	"github.com/solarb/engine/internal/flashloan"
	"github.com/solarb/engine/internal/lookuptable"
	"github.com/solarb/engine/internal/observability"
	"github.com/solarb/engine/internal/optimize"
	"github.com/solarb/engine/internal/quote"
	"github.com/solarb/engine/internal/ratelimit"
	"github.com/solarb/engine/internal/routeindex"
	"github.com/solarb/engine/internal/routestore"
	"github.com/solarb/engine/internal/sender"
	"github.com/solarb/engine/internal/transport"
	"github.com/solarb/engine/internal/types"
	"github.com/solarb/engine/internal/wallet"
	"github.com/solarb/engine/pkg/config"
)

func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "run the arbitrage engine until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			configureLogging(cfg)
			return run(cmd.Context(), cfg)
		},
	}
}

func run(parentCtx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(parentCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	baseMint := solana.PublicKey(parsePubkeyOrZero(cfg.BaseMint))

	c := cache.New(log)
	ri := routeindex.New(cfg.MaxHops, types.AccountKey(baseMint))
	t := transport.New(log, cfg.RPCEndpoint, cfg.WSEndpoint)
	adm := admitter.New(log, c, ri, types.AccountKey(baseMint), cfg.MinWsolLiquidity)
	ev := quote.New(log, c)

	w, err := wallet.Load(cfg.KeypairPath)
	if err != nil {
		log.WithError(err).Warn("run: no wallet loaded, sender will be unable to sign")
		w = &wallet.Wallet{}
	}

	lookupCache := lookuptable.New(log, t.RPC, cfg.LookupTableTTL, 10_000)
	ataLimiter := rate.NewLimiter(rate.Every(cfg.RateLimitWindow/100), 10)
	ataWorker := ata.NewWorker(log, t.RPC, ataLimiter)
	go ataWorker.Run(ctx)

	strategy := optimize.ByMethod(string(cfg.OptimizationMethod))
	store := routestore.New()

	clockFunc := clockReader(t.RPC)

	finderCfg := finder.Config{
		MinAmountIn:                 1,
		MaxAmountIn:                 10_000_000_000,
		OptimizationAmountPercent:   cfg.OptimizationAmountPercent,
		PriceThreshold:              cfg.PriceThreshold,
		PriceThresholdBps:           cfg.PriceThresholdBps,
		RejectTinyHighRoi:           cfg.RejectTinyHighRoi,
		BondingCurveThresholdMargin: cfg.BondingCurveThresholdMargin,
		AdjustSlippage:              cfg.EnabledSlippage,
		SlippageBps:                 int64(cfg.SlippageBps),
		Strategy:                    strategy,
	}
	globalFinder := finder.NewGlobalFinder(log, ri, ev, store, clockFunc, finderCfg, 100*time.Millisecond)

	flashWrapper := flashloan.New(flashloan.Provider{Name: "solend", ProgramID: solana.MustPublicKeyFromBase58("So1endDq2YkqhipRh3WViPa8hdiSpxWy6z3Z6tMCpAo")})
	limiter := ratelimit.New()
	snd := sender.New(log, t.RPC, store, ev, ataWorker, w, flashWrapper, limiter, clockFunc, sender.Config{
		Tick:           cfg.SenderTick,
		Parallelism:    int64(cfg.SenderParallelism),
		MinimumProfit:  cfg.MinimumProfit,
		AdjustSlippage: cfg.EnabledSlippage,
		SlippageBps:    int64(cfg.SlippageBps),
	})

	programs, programKindsMap := loadProgramList(cfg.ProgramsFile)
	watcher := discovery.New(log, t, t.RPC, c, adm, discovery.Config{
		Programs:     programs,
		ProgramKinds: programKindsMap,
	})

	debugServer := &http.Server{
		Addr: cfg.DebugHTTPAddr,
		Handler: observability.NewServer(
			func() any { return c.Stats() },
			func() any { return ri.Stats() },
			func() any { return lookupCache.Stats() },
		),
	}
	go func() {
		if err := debugServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Warn("run: debug server exited")
		}
	}()

	go func() {
		if err := globalFinder.Run(ctx); err != nil && ctx.Err() == nil {
			log.WithError(err).Warn("run: global finder exited")
		}
	}()
	go func() {
		if err := snd.Run(ctx); err != nil && ctx.Err() == nil {
			log.WithError(err).Warn("run: sender exited")
		}
	}()

	log.Info("run: engine started")
	err = watcher.Run(ctx)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = debugServer.Shutdown(shutdownCtx)
	if ctx.Err() != nil {
		log.Info("run: shutting down")
		return nil
	}
	return err
}

func parsePubkeyOrZero(s string) solana.PublicKey {
	key, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return solana.PublicKey{}
	}
	return key
}

// fallbackPrograms is the built-in program list used when cfg.ProgramsFile
// can't be read, so `run` still has something to subscribe to on a bare
// checkout with no config/ directory deployed alongside the binary.
func fallbackPrograms() []config.ProgramEntry {
	return []config.ProgramEntry{
		{Name: "raydium_amm_v4", ProgramID: "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8", Kind: "constant_product"},
		{Name: "whirlpool", ProgramID: "whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc", Kind: "concentrated_liquidity"},
		{Name: "meteora_dlmm", ProgramID: "LBUZKhRxPF3XUpBCjp4YzTKgLccjZhTSDM9YcPyuZeZ", Kind: "discretized_bin"},
		{Name: "pump_fun", ProgramID: "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P", Kind: "bonding_curve"},
	}
}

// loadProgramList reads the programs.yaml companion file named by path and
// turns it into the program key list and kind map the discovery watcher
// needs, falling back to fallbackPrograms on any read/parse error.
func loadProgramList(path string) ([]solana.PublicKey, map[solana.PublicKey]types.AccountKind) {
	entries, err := config.LoadPrograms(path)
	if err != nil || len(entries) == 0 {
		if err != nil {
			log.WithError(err).WithField("path", path).Warn("run: falling back to built-in program list")
		}
		entries = fallbackPrograms()
	}

	programs := make([]solana.PublicKey, 0, len(entries))
	kinds := make(map[solana.PublicKey]types.AccountKind, len(entries))
	for _, e := range entries {
		key, err := solana.PublicKeyFromBase58(e.ProgramID)
		if err != nil {
			log.WithError(err).WithField("program", e.Name).Warn("run: skipping program with invalid id")
			continue
		}
		programs = append(programs, key)
		kinds[key] = kindFromString(e.Kind)
	}
	return programs, kinds
}

// kindFromString maps a programs.yaml kind label to its AccountKind.
func kindFromString(s string) types.AccountKind {
	switch s {
	case "constant_product":
		return types.KindPoolConstantProduct
	case "concentrated_liquidity":
		return types.KindPoolConcentratedLiquidity
	case "discretized_bin":
		return types.KindPoolDiscretizedBin
	case "stable":
		return types.KindPoolStable
	case "bonding_curve":
		return types.KindPoolBondingCurve
	default:
		return types.KindUnknown
	}
}

// clockReader returns a function that reads the chain's current Clock
// sysvar on demand. Queried lazily rather than streamed, since the quote
// evaluator only needs it for concentrated-liquidity oracle staleness
// checks that this build does not yet implement strictly.
func clockReader(client *rpc.Client) func() types.ClockSnapshot {
	return func() types.ClockSnapshot {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		info, err := client.GetAccountInfo(ctx, solana.SysVarClockPubkey)
		if err != nil || info == nil || info.Value == nil {
			return types.ClockSnapshot{}
		}
		raw := info.Value.Data.GetBinary()
		if len(raw) < 40 {
			return types.ClockSnapshot{}
		}
		return types.ClockSnapshot{
			Slot:      binary.LittleEndian.Uint64(raw[0:8]),
			EpochTime: int64(binary.LittleEndian.Uint64(raw[8:16])),
			UnixTime:  int64(binary.LittleEndian.Uint64(raw[32:40])),
		}
	}
}
