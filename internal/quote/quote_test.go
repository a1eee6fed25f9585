package quote

import (
	"encoding/binary"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/solarb/engine/internal/cache"
	"github.com/solarb/engine/internal/types"
)

func key(b byte) types.AccountKey {
	var k types.AccountKey
	k[0] = b
	return k
}

func cpmmAccountBytes(mintA, mintB, vaultA, vaultB types.AccountKey, feeNum, feeDen uint64) []byte {
	buf := make([]byte, 1+32+32+32+32+8+8)
	off := 1
	copy(buf[off:], mintA[:])
	off += 32
	copy(buf[off:], mintB[:])
	off += 32
	copy(buf[off:], vaultA[:])
	off += 32
	copy(buf[off:], vaultB[:])
	off += 32
	binary.LittleEndian.PutUint64(buf[off:], feeNum)
	off += 8
	binary.LittleEndian.PutUint64(buf[off:], feeDen)
	return buf
}

func tokenAccountBytes(mint types.AccountKey, amount uint64) []byte {
	buf := make([]byte, 165)
	copy(buf[0:32], mint[:])
	binary.LittleEndian.PutUint64(buf[64:72], amount)
	return buf
}

func newTestCache(t *testing.T) *cache.Cache {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return cache.New(log)
}

// triangle builds base<->mid<->other<->base, three zero-fee equal-reserve
// CPMM pools, so a quoted round trip pays no fees and loses only to each
// hop's price impact.
func triangle(t *testing.T, c *cache.Cache, base, mid, other types.AccountKey) types.Route {
	t.Helper()
	pools := []struct {
		poolKey, mintA, mintB, vaultA, vaultB types.AccountKey
	}{
		{key(10), base, mid, key(110), key(111)},
		{key(11), mid, other, key(112), key(113)},
		{key(12), other, base, key(114), key(115)},
	}
	for _, p := range pools {
		c.Register(p.vaultA, types.KindReserveVault)
		c.Register(p.vaultB, types.KindReserveVault)
		if err := c.Ingest(p.vaultA, tokenAccountBytes(p.mintA, 1_000_000)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := c.Ingest(p.vaultB, tokenAccountBytes(p.mintB, 1_000_000)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		c.Register(p.poolKey, types.KindPoolConstantProduct)
		if err := c.Ingest(p.poolKey, cpmmAccountBytes(p.mintA, p.mintB, p.vaultA, p.vaultB, 0, 10_000)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	return types.Route{
		StartMint: base,
		Hops: []types.Hop{
			{FromMint: base, ToMint: mid, PoolKey: pools[0].poolKey, Kind: types.KindPoolConstantProduct},
			{FromMint: mid, ToMint: other, PoolKey: pools[1].poolKey, Kind: types.KindPoolConstantProduct},
			{FromMint: other, ToMint: base, PoolKey: pools[2].poolKey, Kind: types.KindPoolConstantProduct},
		},
	}
}

func TestSwapComputeZeroFeeTriangleRoundTrips(t *testing.T) {
	c := newTestCache(t)
	base, mid, other := key(1), key(2), key(3)
	route := triangle(t, c, base, mid, other)

	ev := New(logrus.New(), c)
	out, err := ev.SwapCompute(route, types.ClockSnapshot{}, 10_000, false, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Even with zero fees, each hop's constant-product curve still costs
	// some amount to price impact (amount_in/reserve is non-negligible at
	// this size): three hops compound that slippage, so the round trip
	// comes back noticeably under 10000 but must never exceed it (no fees,
	// no curve, should ever manufacture value) and must stay well clear of
	// zero (three pools of equal, ample reserves).
	if out == 0 || out >= 10_000 {
		t.Fatalf("expected a reduced but nonzero output from compounded price impact, got %d from 10000", out)
	}
	if out < 9_000 {
		t.Fatalf("expected output not to have lost more than ~10%% of value across three equal-reserve hops, got %d", out)
	}
}

func TestSwapComputeAppliesSlippageAfterEachHop(t *testing.T) {
	c := newTestCache(t)
	base, mid, other := key(1), key(2), key(3)
	route := triangle(t, c, base, mid, other)

	ev := New(logrus.New(), c)
	without, err := ev.SwapCompute(route, types.ClockSnapshot{}, 10_000, false, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	withSlippage, err := ev.SwapCompute(route, types.ClockSnapshot{}, 10_000, true, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if withSlippage >= without {
		t.Fatalf("expected a 1%% per-hop slippage shrink to yield less than the unadjusted output: %d >= %d", withSlippage, without)
	}
}

func TestSwapComputeMissingHopPoolErrors(t *testing.T) {
	c := newTestCache(t)
	ev := New(logrus.New(), c)
	route := types.Route{
		StartMint: key(1),
		Hops: []types.Hop{
			{FromMint: key(1), ToMint: key(2), PoolKey: key(99), Kind: types.KindPoolConstantProduct},
		},
	}
	if _, err := ev.SwapCompute(route, types.ClockSnapshot{}, 100, false, 0); err == nil {
		t.Fatalf("expected an error for a hop whose pool was never cached")
	}
}

func TestSafeSwapComputeDegradesUnregisteredCurveToError(t *testing.T) {
	c := newTestCache(t)
	// Register the pool key under a kind with no registered curve.
	c.Register(key(50), types.KindUnknown)
	ev := New(logrus.New(), c)
	route := types.Route{
		StartMint: key(1),
		Hops: []types.Hop{
			{FromMint: key(1), ToMint: key(2), PoolKey: key(50), Kind: types.KindUnknown},
		},
	}
	out, err := ev.SafeSwapCompute(route, types.ClockSnapshot{}, 100, false, 0)
	if err == nil {
		t.Fatalf("expected an error for an unregistered curve kind")
	}
	if out != 0 {
		t.Fatalf("expected zero output on failure, got %d", out)
	}
}

func TestProductUsesCachedPriceEntries(t *testing.T) {
	c := newTestCache(t)
	base, mid, other := key(1), key(2), key(3)
	route := triangle(t, c, base, mid, other)

	ev := New(logrus.New(), c)
	product, ok := ev.Product(route)
	if !ok {
		t.Fatalf("expected Product to succeed once every hop's pool has a cached price entry")
	}
	// Equal reserves on every hop make every leg's rate 1.0.
	if product < 0.99 || product > 1.01 {
		t.Fatalf("expected a product near 1.0 for equal-reserve hops, got %f", product)
	}
}

func TestProductMissingPriceEntry(t *testing.T) {
	c := newTestCache(t)
	ev := New(logrus.New(), c)
	route := types.Route{
		StartMint: key(1),
		Hops: []types.Hop{
			{FromMint: key(1), ToMint: key(2), PoolKey: key(99), Kind: types.KindPoolConstantProduct},
		},
	}
	if _, ok := ev.Product(route); ok {
		t.Fatalf("expected Product to fail when a hop's pool has no cached price entry")
	}
}
