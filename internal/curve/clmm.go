package curve

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/holiman/uint256"
	"github.com/solarb/engine/internal/types"
)

// TickSnapshot is one initialized tick inside a TickArraySnapshot, grounded
// on original_source's src/dex/whirlpool/tick_array.rs: each tick carries the
// net liquidity change crossing it in the direction of increasing price.
// LiquidityNet is signed, so it is kept as a plain int64 delta rather than
// forced into the unsigned uint256 reserves used elsewhere in this package.
type TickSnapshot struct {
	Index        int32
	LiquidityNet int64
}

// TickArraySnapshot is the decoded form of one tick-array account: a
// contiguous block of ticks starting at StartTickIndex, spaced TickSpacing
// apart (original_source's tick_array.rs again). It is a satellite of a
// KindPoolConcentratedLiquidity pool, never installed on its own.
type TickArraySnapshot struct {
	StartTickIndex int32
	TickSpacing    uint16
	Ticks          []TickSnapshot
}

func (TickArraySnapshot) Kind() types.AccountKind { return types.KindTickArray }

// BitmapExtensionSnapshot records which additional tick-array start indices
// beyond a pool's default window hold initialized ticks, letting the watcher
// fetch exactly the extra arrays a route actually needs instead of the whole
// range (original_source's bitmap_extension handling). It carries no
// quoting math of its own.
type BitmapExtensionSnapshot struct {
	InitializedStartIndices []int32
}

func (BitmapExtensionSnapshot) Kind() types.AccountKind { return types.KindBitmapExtension }

// CLMMSnapshot is the Snapshot installed for a concentrated-liquidity pool
// key (Orca Whirlpool-style). SqrtPriceX64 and Liquidity are the pool's own
// fields; TickArrayKeys name the handful of tick-array satellites the
// watcher keeps warm around the current tick, resolved into TickArrays by
// Resolve.
type CLMMSnapshot struct {
	PoolKey types.AccountKey
	MintA   types.AccountKey
	MintB   types.AccountKey

	TickSpacing  uint16
	FeeBps       uint16
	SqrtPriceX64 *uint256.Int
	Liquidity    *uint256.Int
	TickCurrent  int32

	TickArrayKeys []types.AccountKey
	TickArrays    []TickArraySnapshot // filled by Resolve
}

func (CLMMSnapshot) Kind() types.AccountKind { return types.KindPoolConcentratedLiquidity }

const (
	clmmFixedLen = 1 + 32 + 32 + 2 + 2 + 16 + 16 + 4 + 1 // + variable tick-array-key list
)

// DecodeCLMM decodes a concentrated-liquidity pool account's static header.
// The trailing bytes are a count-prefixed list of tick-array keys, the
// tick-array satellites quoting reads around TickCurrent.
func DecodeCLMM(poolKey types.AccountKey, data []byte) (CLMMSnapshot, error) {
	if len(data) < clmmFixedLen {
		return CLMMSnapshot{}, fmt.Errorf("curve: clmm account too short: %d < %d", len(data), clmmFixedLen)
	}
	var snap CLMMSnapshot
	snap.PoolKey = poolKey
	off := 1
	copy(snap.MintA[:], data[off:off+32])
	off += 32
	copy(snap.MintB[:], data[off:off+32])
	off += 32
	snap.TickSpacing = binary.LittleEndian.Uint16(data[off : off+2])
	off += 2
	snap.FeeBps = binary.LittleEndian.Uint16(data[off : off+2])
	off += 2
	snap.SqrtPriceX64 = new(uint256.Int).SetBytes(data[off : off+16])
	off += 16
	snap.Liquidity = new(uint256.Int).SetBytes(data[off : off+16])
	off += 16
	snap.TickCurrent = int32(binary.LittleEndian.Uint32(data[off : off+4]))
	off += 4
	count := int(data[off])
	off++
	if len(data) < off+count*32 {
		return CLMMSnapshot{}, fmt.Errorf("curve: clmm tick-array key list truncated")
	}
	snap.TickArrayKeys = make([]types.AccountKey, count)
	for i := 0; i < count; i++ {
		copy(snap.TickArrayKeys[i][:], data[off:off+32])
		off += 32
	}
	return snap, nil
}

// Resolve fetches the current contents of every tick-array satellite named
// in TickArrayKeys, so the quote loop below walks live, not stale, ticks.
func (s CLMMSnapshot) Resolve(lookup Lookup) (types.Snapshot, error) {
	arrays := make([]TickArraySnapshot, 0, len(s.TickArrayKeys))
	for _, key := range s.TickArrayKeys {
		snap, ok := lookup(key)
		if !ok {
			continue // tick array not yet warm; swap loop tolerates a narrower window
		}
		arr, ok := snap.(TickArraySnapshot)
		if !ok {
			return nil, fmt.Errorf("curve: satellite %s is not a tick array", key)
		}
		arrays = append(arrays, arr)
	}
	s.TickArrays = arrays
	return s, nil
}

func q64ToFloat(x *uint256.Int) float64 {
	if x == nil {
		return 0
	}
	return ratioFloat64(x, new(uint256.Int).Lsh(uint256.NewInt(1), 64))
}

// orderedTicks flattens every resolved tick array into one ascending list.
func (s CLMMSnapshot) orderedTicks() []TickSnapshot {
	out := make([]TickSnapshot, 0, 64)
	for _, arr := range s.TickArrays {
		out = append(out, arr.Ticks...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

type clmmCurve struct{}

func (clmmCurve) Kind() types.AccountKind { return types.KindPoolConcentratedLiquidity }

func (clmmCurve) RequiresNativeLiquidityFloor() bool { return true }

func (clmmCurve) Price(snap types.Snapshot, baseMint types.AccountKey) (float64, types.AccountKey, error) {
	s, ok := snap.(CLMMSnapshot)
	if !ok {
		return 0, types.AccountKey{}, ErrWrongSnapshot
	}
	if s.SqrtPriceX64 == nil {
		return 0, types.AccountKey{}, ErrZeroLiquidity
	}
	sqrtP := q64ToFloat(s.SqrtPriceX64)
	priceAinB := sqrtP * sqrtP
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

// Quote walks the resolved tick range exactly like a Whirlpool-style swap
// loop (original_source's src/dex/whirlpool/swap.rs): within each tick
// interval liquidity is constant, so the constant-product formula applies
// to that interval alone; crossing a tick applies its signed liquidity_net
// and the loop continues until amountIn is exhausted or the resolved
// window runs out, in which case the route is priced at ErrPriceRange
// rather than guessed at.
func (clmmCurve) Quote(snap types.Snapshot, _ types.ClockSnapshot, amountIn uint64, mintIn types.AccountKey) (uint64, error) {
	s, ok := snap.(CLMMSnapshot)
	if !ok {
		return 0, ErrWrongSnapshot
	}
	if s.Liquidity == nil || s.SqrtPriceX64 == nil {
		return 0, ErrZeroLiquidity
	}
	var aToB bool
	switch mintIn {
	case s.MintA:
		aToB = true
	case s.MintB:
		aToB = false
	default:
		return 0, ErrMintNotInPool
	}

	liquidity := ratioFloat64(s.Liquidity, uint256.NewInt(1))
	sqrtPrice := q64ToFloat(s.SqrtPriceX64)
	if liquidity <= 0 || sqrtPrice <= 0 {
		return 0, ErrZeroLiquidity
	}

	ticks := s.orderedTicks()
	remainingIn := feeAdjustedInput(amountIn, s.FeeBps)
	var amountOut float64

	idx := sort.Search(len(ticks), func(i int) bool {
		if aToB {
			return ticks[i].Index > s.TickCurrent
		}
		return ticks[i].Index >= s.TickCurrent
	})
	if aToB {
		idx--
	}

	for remainingIn > 0 {
		var targetSqrtPrice float64
		var crossingLiquidityNet int64
		haveTarget := false
		if aToB {
			if idx >= 0 && idx < len(ticks) {
				targetSqrtPrice = tickToSqrtPrice(ticks[idx].Index)
				crossingLiquidityNet = ticks[idx].LiquidityNet
				haveTarget = true
			}
		} else {
			if idx+1 >= 0 && idx+1 < len(ticks) {
				targetSqrtPrice = tickToSqrtPrice(ticks[idx+1].Index)
				crossingLiquidityNet = ticks[idx+1].LiquidityNet
				haveTarget = true
			}
		}
		if !haveTarget {
			return 0, ErrPriceRange
		}

		var stepIn, stepOut, nextSqrtPrice float64
		if aToB {
			// Token A in, price moves down.
			maxIn := liquidity*(1/targetSqrtPrice-1/sqrtPrice)
			if maxIn < 0 {
				maxIn = 0
			}
			if remainingIn <= maxIn {
				nextSqrtPrice = 1 / (1/sqrtPrice + remainingIn/liquidity)
				stepIn = remainingIn
			} else {
				nextSqrtPrice = targetSqrtPrice
				stepIn = maxIn
			}
			stepOut = liquidity * (sqrtPrice - nextSqrtPrice)
			liquidity -= float64(crossingLiquidityNet)
			idx--
		} else {
			maxIn := liquidity * (targetSqrtPrice - sqrtPrice)
			if maxIn < 0 {
				maxIn = 0
			}
			if remainingIn <= maxIn {
				nextSqrtPrice = sqrtPrice + remainingIn/liquidity
				stepIn = remainingIn
			} else {
				nextSqrtPrice = targetSqrtPrice
				stepIn = maxIn
			}
			stepOut = liquidity * (1/sqrtPrice - 1/nextSqrtPrice)
			liquidity += float64(crossingLiquidityNet)
			idx++
		}
		if liquidity <= 0 {
			return 0, ErrZeroLiquidity
		}
		amountOut += stepOut
		remainingIn -= stepIn
		sqrtPrice = nextSqrtPrice
		if stepIn <= 0 {
			return 0, ErrPriceRange
		}
	}
	if amountOut < 0 || math.IsNaN(amountOut) || math.IsInf(amountOut, 0) {
		return 0, ErrOverflow
	}
	return uint64(amountOut), nil
}

func (clmmCurve) OtherMint(snap types.Snapshot, mint types.AccountKey) (types.AccountKey, error) {
	s, ok := snap.(CLMMSnapshot)
	if !ok {
		return types.AccountKey{}, ErrWrongSnapshot
	}
	other, ok := (types.TokenPool{MintA: s.MintA, MintB: s.MintB}).OtherMint(mint)
	if !ok {
		return types.AccountKey{}, ErrMintNotInPool
	}
	return other, nil
}

func feeAdjustedInput(amountIn uint64, feeBps uint16) float64 {
	return float64(amountIn) * (1 - float64(feeBps)/10_000)
}

// tickToSqrtPrice is the standard tick-to-price mapping: price = 1.0001^tick.
func tickToSqrtPrice(tick int32) float64 {
	return math.Pow(1.0001, float64(tick)/2)
}

func init() {
	Register(clmmCurve{})
}
