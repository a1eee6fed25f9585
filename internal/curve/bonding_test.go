package curve

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/solarb/engine/internal/types"
)

func keyBonding(b byte) types.AccountKey {
	var k types.AccountKey
	k[0] = b
	return k
}

func TestDecodeBondingRoundTrip(t *testing.T) {
	poolKey := keyBonding(1)
	mintA, mintB := keyBonding(2), keyBonding(3)

	buf := make([]byte, bondingAccountLen)
	off := 1
	copy(buf[off:], mintA[:])
	off += 32
	copy(buf[off:], mintB[:])
	off += 32
	binary.LittleEndian.PutUint64(buf[off:], 1_000_000_000)
	off += 8
	binary.LittleEndian.PutUint64(buf[off:], 30_000_000_000)
	off += 8
	binary.LittleEndian.PutUint64(buf[off:], 0)
	off += 8
	binary.LittleEndian.PutUint64(buf[off:], 0)
	off += 8
	binary.LittleEndian.PutUint16(buf[off:], 100)
	off += 2
	binary.LittleEndian.PutUint64(buf[off:], 85_000_000_000)
	off += 8
	buf[off] = 0

	snap, err := DecodeBonding(poolKey, buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.MintA != mintA || snap.MintB != mintB {
		t.Fatalf("unexpected mints: %#v", snap)
	}
	if snap.VirtualReserveA != 1_000_000_000 || snap.VirtualReserveB != 30_000_000_000 {
		t.Fatalf("unexpected virtual reserves: %#v", snap)
	}
	if snap.FeeBps != 100 || snap.GraduationCapB != 85_000_000_000 || snap.Graduated {
		t.Fatalf("unexpected tail fields: %#v", snap)
	}
}

func TestDecodeBondingTooShort(t *testing.T) {
	if _, err := DecodeBonding(keyBonding(1), make([]byte, 10)); err == nil {
		t.Fatalf("expected an error for too-short bonding account data")
	}
}

func bondingSnapshot() BondingSnapshot {
	return BondingSnapshot{
		MintA:           keyBonding(1),
		MintB:           keyBonding(2),
		VirtualReserveA: 1_000_000,
		VirtualReserveB: 30,
		FeeBps:          0,
	}
}

func TestBondingQuoteAppliesConstantProductOverVirtualReserves(t *testing.T) {
	c := bondingCurve{}
	snap := bondingSnapshot()

	out, err := c.Quote(snap, types.ClockSnapshot{}, 1, snap.MintB)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// numerator = 1 * 1_000_000, denominator = 30 + 1 = 31, floor division.
	expected := uint64(1_000_000 / 31)
	if out != expected {
		t.Fatalf("expected %d, got %d", expected, out)
	}
}

func TestBondingQuoteRejectsPastGraduationCap(t *testing.T) {
	c := bondingCurve{}
	snap := bondingSnapshot()
	snap.GraduationCapB = 100
	snap.RealReserveB = 95

	if _, err := c.Quote(snap, types.ClockSnapshot{}, 10, snap.MintB); err != ErrPriceRange {
		t.Fatalf("expected ErrPriceRange when the swap would cross the graduation cap, got %v", err)
	}
}

func TestBondingQuoteAllowsUpToGraduationCap(t *testing.T) {
	c := bondingCurve{}
	snap := bondingSnapshot()
	snap.GraduationCapB = 100
	snap.RealReserveB = 95

	if _, err := c.Quote(snap, types.ClockSnapshot{}, 5, snap.MintB); err != nil {
		t.Fatalf("expected a swap landing exactly on the graduation cap to quote, got %v", err)
	}
}

func TestBondingQuoteGraduatedCurveErrors(t *testing.T) {
	c := bondingCurve{}
	snap := bondingSnapshot()
	snap.Graduated = true

	if _, err := c.Quote(snap, types.ClockSnapshot{}, 10, snap.MintB); err != ErrPriceRange {
		t.Fatalf("expected ErrPriceRange for a graduated curve, got %v", err)
	}
	if _, _, err := c.Price(snap, snap.MintB); err != ErrPriceRange {
		t.Fatalf("expected ErrPriceRange pricing a graduated curve, got %v", err)
	}
}

func TestBondingQuoteWrongMintErrors(t *testing.T) {
	c := bondingCurve{}
	snap := bondingSnapshot()
	if _, err := c.Quote(snap, types.ClockSnapshot{}, 10, keyBonding(99)); err != ErrMintNotInPool {
		t.Fatalf("expected ErrMintNotInPool, got %v", err)
	}
}

func TestBondingPriceBothDirections(t *testing.T) {
	c := bondingCurve{}
	snap := bondingSnapshot()

	priceAinB, other, err := c.Price(snap, snap.MintA)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if other != snap.MintB {
		t.Fatalf("expected MintB as the other side")
	}
	expected := 30.0 / 1_000_000.0
	if math.Abs(priceAinB-expected) > 1e-12 {
		t.Fatalf("expected price %.12f, got %.12f", expected, priceAinB)
	}

	priceBinA, _, err := c.Price(snap, snap.MintB)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(priceBinA-1/expected) > 1e-6 {
		t.Fatalf("expected inverse price %.6f, got %.6f", 1/expected, priceBinA)
	}
}

func TestBondingDoesNotRequireNativeLiquidityFloor(t *testing.T) {
	if (bondingCurve{}).RequiresNativeLiquidityFloor() {
		t.Fatalf("expected bonding-curve pools to not require the native liquidity floor")
	}
}

func TestBondingOtherMint(t *testing.T) {
	c := bondingCurve{}
	snap := bondingSnapshot()
	other, err := c.OtherMint(snap, snap.MintA)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if other != snap.MintB {
		t.Fatalf("expected mint B, got %v", other)
	}
}
