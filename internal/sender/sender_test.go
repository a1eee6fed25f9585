package sender

import (
	"context"
	"crypto/ed25519"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/solarb/engine/internal/routestore"
	"github.com/solarb/engine/internal/types"
	"github.com/solarb/engine/internal/wallet"
)

func keySender(b byte) types.AccountKey {
	var k types.AccountKey
	k[0] = b
	return k
}

// testWallet builds a deterministic signing wallet from a fixed seed so
// tests don't depend on any randomness source.
func testWallet(seedByte byte) *wallet.Wallet {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = seedByte
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return &wallet.Wallet{PrivateKey: solana.PrivateKey(priv)}
}

func mustPoolSender(t *testing.T, poolKey byte, a, b types.AccountKey) types.TokenPool {
	t.Helper()
	p, err := types.NewTokenPool(keySender(poolKey), types.KindPoolConstantProduct, a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return p
}

func TestRouteFromPoolsBuildsHopsInOrder(t *testing.T) {
	base, mid, other := keySender(1), keySender(2), keySender(3)
	pools := []types.TokenPool{
		mustPoolSender(t, 10, base, mid),
		mustPoolSender(t, 11, mid, other),
		mustPoolSender(t, 12, other, base),
	}

	route := routeFromPools(base, pools)
	if route.StartMint != base {
		t.Fatalf("expected StartMint to be preserved")
	}
	if len(route.Hops) != 3 {
		t.Fatalf("expected 3 hops, got %d", len(route.Hops))
	}
	if route.Hops[0].FromMint != base || route.Hops[0].ToMint != mid {
		t.Fatalf("unexpected first hop: %#v", route.Hops[0])
	}
	if route.Hops[2].ToMint != base {
		t.Fatalf("expected the route to close back to base mint, got %#v", route.Hops[2])
	}
	if !route.Valid() {
		t.Fatalf("expected routeFromPools to produce a structurally valid closed route")
	}
}

func TestProgramForKindMapsEveryKnownKind(t *testing.T) {
	cases := []types.AccountKind{
		types.KindPoolConstantProduct,
		types.KindPoolConcentratedLiquidity,
		types.KindPoolDiscretizedBin,
		types.KindPoolBondingCurve,
		types.KindPoolStable,
	}
	seen := make(map[string]bool)
	for _, kind := range cases {
		prog := programForKind(kind)
		if prog.IsZero() {
			t.Fatalf("expected a non-zero program id for kind %s", kind)
		}
		if seen[prog.String()] {
			t.Fatalf("expected each pool kind to map to a distinct program, got a repeat for %s", kind)
		}
		seen[prog.String()] = true
	}
}

func TestProgramForKindUnknownReturnsZero(t *testing.T) {
	if !programForKind(types.KindUnknown).IsZero() {
		t.Fatalf("expected the zero pubkey for an unrecognized pool kind")
	}
}

func TestNewSwapInstructionEncodesTagAndAmount(t *testing.T) {
	pool := mustPoolSender(t, 10, keySender(1), keySender(2))
	owner := testWallet(99).PublicKey()

	ix := newSwapInstruction(pool, owner, 123_456)
	data, err := ix.Data()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data[0] != swapInstructionTag {
		t.Fatalf("expected the swap instruction tag as the first byte")
	}
	var amount uint64
	for i := 0; i < 8; i++ {
		amount |= uint64(data[1+i]) << (8 * i)
	}
	if amount != 123_456 {
		t.Fatalf("expected amountIn 123456 encoded little-endian, got %d", amount)
	}
	if !ix.ProgramID().Equals(programForKind(pool.Kind)) {
		t.Fatalf("expected the instruction's program id to match programForKind")
	}
}

func TestBuildSwapInstructionsOneHopEachAndFirstAmountOnly(t *testing.T) {
	base, mid, other := keySender(1), keySender(2), keySender(3)
	pools := []types.TokenPool{
		mustPoolSender(t, 10, base, mid),
		mustPoolSender(t, 11, mid, other),
	}
	s := &Sender{wallet: testWallet(50)}
	candidate := types.RouteCandidate{Swap: types.SwapRoutes{Pools: pools, Mint: base, AmountIn: 1000}}

	ixs, err := s.buildSwapInstructions(candidate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ixs) != 2 {
		t.Fatalf("expected one instruction per hop, got %d", len(ixs))
	}
	first, err := ixs[0].Data()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var firstAmount uint64
	for i := 0; i < 8; i++ {
		firstAmount |= uint64(first[1+i]) << (8 * i)
	}
	if firstAmount != 1000 {
		t.Fatalf("expected the first hop to carry the route's amountIn, got %d", firstAmount)
	}
	second, err := ixs[1].Data()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var secondAmount uint64
	for i := 0; i < 8; i++ {
		secondAmount |= uint64(second[1+i]) << (8 * i)
	}
	if secondAmount != 0 {
		t.Fatalf("expected downstream hops to carry a zero amountIn, got %d", secondAmount)
	}
}

func TestBuildSwapInstructionsDisconnectedRouteErrors(t *testing.T) {
	base, mid, unrelated := keySender(1), keySender(2), keySender(4)
	pools := []types.TokenPool{
		mustPoolSender(t, 10, base, mid),
		mustPoolSender(t, 11, unrelated, keySender(5)), // doesn't connect to mid
	}
	s := &Sender{wallet: testWallet(50)}
	candidate := types.RouteCandidate{Swap: types.SwapRoutes{Pools: pools, Mint: base, AmountIn: 1000}}

	if _, err := s.buildSwapInstructions(candidate); err == nil {
		t.Fatalf("expected an error when a hop does not connect to the running mint")
	}
}

// TestSubmitDropsSingleHopRoutes covers step (a) of the ordered submission
// checks: a route with fewer than 2 pools can't be a closed loop, so submit
// must return before touching the ATA worker, limiter, or RPC client (all
// left nil here -- any further access would panic).
func TestSubmitDropsSingleHopRoutes(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	s := &Sender{log: log.WithField("component", "sender")}
	candidate := types.RouteCandidate{Swap: types.SwapRoutes{
		Pools: []types.TokenPool{mustPoolSender(t, 10, keySender(1), keySender(2))},
	}}

	s.submit(context.Background(), candidate)
}

func TestSubmitDropsZeroPoolRoutes(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	s := &Sender{log: log.WithField("component", "sender")}
	s.submit(context.Background(), types.RouteCandidate{})
}

func TestNewAppliesParallelismAndTickDefaults(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	store := routestore.New()
	s := New(log, nil, store, nil, nil, testWallet(1), nil, nil, nil, Config{})
	if s.cfg.Parallelism != 8 {
		t.Fatalf("expected a default parallelism of 8, got %d", s.cfg.Parallelism)
	}
	if s.cfg.Tick != time.Millisecond {
		t.Fatalf("expected a default tick of 1ms, got %v", s.cfg.Tick)
	}
	if s.limiter == nil {
		t.Fatalf("expected New to construct a default limiter when none is given")
	}
}
