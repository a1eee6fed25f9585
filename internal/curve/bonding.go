package curve

import (
	"encoding/binary"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/solarb/engine/internal/types"
)

// BondingSnapshot is the Snapshot installed for a bonding-curve pool key
// (pump.fun-style), grounded on guidebee-SolRoute's pump-amm.go and
// original_source's src/dex/pumpfun/curve.rs. Unlike the other pool kinds it
// is fully self-contained: virtual and real reserves are fields of the pool
// account itself, so it never implements Resolvable.
type BondingSnapshot struct {
	PoolKey types.AccountKey
	MintA   types.AccountKey // the token being launched
	MintB   types.AccountKey // the native/quote mint (SOL/WSOL)

	VirtualReserveA uint64
	VirtualReserveB uint64
	RealReserveA    uint64
	RealReserveB    uint64

	FeeBps          uint16
	GraduationCapB  uint64 // RealReserveB threshold at which the curve migrates to an AMM
	Graduated       bool
}

func (BondingSnapshot) Kind() types.AccountKind { return types.KindPoolBondingCurve }

const bondingAccountLen = 1 + 32 + 32 + 8 + 8 + 8 + 8 + 2 + 8 + 1

func DecodeBonding(poolKey types.AccountKey, data []byte) (BondingSnapshot, error) {
	if len(data) < bondingAccountLen {
		return BondingSnapshot{}, fmt.Errorf("curve: bonding account too short: %d < %d", len(data), bondingAccountLen)
	}
	var snap BondingSnapshot
	snap.PoolKey = poolKey
	off := 1
	copy(snap.MintA[:], data[off:off+32])
	off += 32
	copy(snap.MintB[:], data[off:off+32])
	off += 32
	snap.VirtualReserveA = binary.LittleEndian.Uint64(data[off : off+8])
	off += 8
	snap.VirtualReserveB = binary.LittleEndian.Uint64(data[off : off+8])
	off += 8
	snap.RealReserveA = binary.LittleEndian.Uint64(data[off : off+8])
	off += 8
	snap.RealReserveB = binary.LittleEndian.Uint64(data[off : off+8])
	off += 8
	snap.FeeBps = binary.LittleEndian.Uint16(data[off : off+2])
	off += 2
	snap.GraduationCapB = binary.LittleEndian.Uint64(data[off : off+8])
	off += 8
	snap.Graduated = data[off] != 0
	return snap, nil
}

type bondingCurve struct{}

func (bondingCurve) Kind() types.AccountKind { return types.KindPoolBondingCurve }

// RequiresNativeLiquidityFloor is false: a bonding-curve pool's entire point
// is to exist before it has meaningful native-side liquidity (spec.md §4.3's
// MIN_WSOL_LIQ gate is for constant-sum-style pools, not launches).
func (bondingCurve) RequiresNativeLiquidityFloor() bool { return false }

func (bondingCurve) Price(snap types.Snapshot, baseMint types.AccountKey) (float64, types.AccountKey, error) {
	s, ok := snap.(BondingSnapshot)
	if !ok {
		return 0, types.AccountKey{}, ErrWrongSnapshot
	}
	if s.Graduated {
		return 0, types.AccountKey{}, ErrPriceRange
	}
	totalA := s.VirtualReserveA + s.RealReserveA
	totalB := s.VirtualReserveB + s.RealReserveB
	if totalA == 0 {
		return 0, types.AccountKey{}, ErrZeroLiquidity
	}
	priceAinB := float64(totalB) / float64(totalA)
	switch baseMint {
	case s.MintA:
		return priceAinB, s.MintB, nil
	case s.MintB:
		if priceAinB == 0 {
			return 0, types.AccountKey{}, ErrZeroLiquidity
		}
		return 1 / priceAinB, s.MintA, nil
	default:
		return 0, types.AccountKey{}, ErrMintNotInPool
	}
}

// Quote applies the constant-product formula over virtual+real reserves
// (pump.fun's well-known model: quoting never touches real reserves
// directly, only their sum with the fixed virtual offset). A graduated
// curve has migrated to a regular AMM pool and no longer quotes here.
func (bondingCurve) Quote(snap types.Snapshot, _ types.ClockSnapshot, amountIn uint64, mintIn types.AccountKey) (uint64, error) {
	s, ok := snap.(BondingSnapshot)
	if !ok {
		return 0, ErrWrongSnapshot
	}
	if s.Graduated {
		return 0, ErrPriceRange
	}

	totalA := uint256.NewInt(s.VirtualReserveA + s.RealReserveA)
	totalB := uint256.NewInt(s.VirtualReserveB + s.RealReserveB)

	var reserveIn, reserveOut *uint256.Int
	switch mintIn {
	case s.MintA:
		reserveIn, reserveOut = totalA, totalB
	case s.MintB:
		reserveIn, reserveOut = totalB, totalA
	default:
		return 0, ErrMintNotInPool
	}
	if reserveIn.IsZero() || reserveOut.IsZero() {
		return 0, ErrZeroLiquidity
	}

	amtIn := uint256.NewInt(amountIn)
	feeBps := uint256.NewInt(uint64(s.FeeBps))
	amtInAfterFee, overflow := new(uint256.Int).MulDivOverflow(amtIn, new(uint256.Int).Sub(uint256.NewInt(10_000), feeBps), uint256.NewInt(10_000))
	if overflow {
		return 0, ErrOverflow
	}

	numerator, overflow := new(uint256.Int).MulOverflow(amtInAfterFee, reserveOut)
	if overflow {
		return 0, ErrOverflow
	}
	denominator, overflow := new(uint256.Int).AddOverflow(reserveIn, amtInAfterFee)
	if overflow {
		return 0, ErrOverflow
	}
	out := new(uint256.Int).Div(numerator, denominator)
	if !out.IsUint64() {
		return 0, ErrOverflow
	}

	// Quoting past the graduation cap on the native side is priced as
	// unreachable: the transaction would migrate the curve mid-swap, which
	// this engine never attempts to model (spec.md Non-goals).
	if mintIn == s.MintB && s.GraduationCapB > 0 {
		if amountIn+s.RealReserveB > s.GraduationCapB {
			return 0, ErrPriceRange
		}
	}

	return out.Uint64(), nil
}

// BondingRemainingCapacity returns the native-side room remaining before a
// bonding-curve pool graduates to a regular AMM pool — the value spec.md
// §4.6's bonding-curve threshold override rewrites amount_in to. ok is false
// for a non-bonding snapshot, a graduated curve, or a curve with no
// configured graduation cap.
func BondingRemainingCapacity(snap types.Snapshot) (uint64, bool) {
	s, ok := snap.(BondingSnapshot)
	if !ok || s.Graduated || s.GraduationCapB == 0 || s.RealReserveB >= s.GraduationCapB {
		return 0, false
	}
	return s.GraduationCapB - s.RealReserveB, true
}

func (bondingCurve) OtherMint(snap types.Snapshot, mint types.AccountKey) (types.AccountKey, error) {
	s, ok := snap.(BondingSnapshot)
	if !ok {
		return types.AccountKey{}, ErrWrongSnapshot
	}
	other, ok := (types.TokenPool{MintA: s.MintA, MintB: s.MintB}).OtherMint(mint)
	if !ok {
		return types.AccountKey{}, ErrMintNotInPool
	}
	return other, nil
}

func init() {
	Register(bondingCurve{})
}
