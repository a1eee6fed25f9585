package curve

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/solarb/engine/internal/types"
)

// BinSnapshot is one liquidity bin of a discretized-bin pool (Meteora DLMM),
// grounded on other_examples' meteora/dlmm.go decode and
// original_source's src/dex/meteora/bin_array.rs. Each bin trades at a fixed
// price derived from its index and the pool's bin_step; liquidity inside a
// bin is split between the two mints.
type BinSnapshot struct {
	Index   int32
	ReserveA uint64
	ReserveB uint64
}

// BinArraySnapshot is the decoded satellite holding a contiguous run of
// bins.
type BinArraySnapshot struct {
	StartBinIndex int32
	Bins          []BinSnapshot
}

func (BinArraySnapshot) Kind() types.AccountKind { return types.KindBinArray }

// DLMMSnapshot is the Snapshot installed for a discretized-bin pool key.
type DLMMSnapshot struct {
	PoolKey types.AccountKey
	MintA   types.AccountKey
	MintB   types.AccountKey

	BinStepBps  uint16
	FeeBps      uint16
	ActiveBinID int32

	BinArrayKeys []types.AccountKey
	BinArrays    []BinArraySnapshot // filled by Resolve
}

func (DLMMSnapshot) Kind() types.AccountKind { return types.KindPoolDiscretizedBin }

const dlmmFixedLen = 1 + 32 + 32 + 2 + 2 + 4 + 1

// DecodeDLMM decodes a discretized-bin pool account's static header,
// followed by a count-prefixed list of bin-array satellite keys.
func DecodeDLMM(poolKey types.AccountKey, data []byte) (DLMMSnapshot, error) {
	if len(data) < dlmmFixedLen {
		return DLMMSnapshot{}, fmt.Errorf("curve: dlmm account too short: %d < %d", len(data), dlmmFixedLen)
	}
	var snap DLMMSnapshot
	snap.PoolKey = poolKey
	off := 1
	copy(snap.MintA[:], data[off:off+32])
	off += 32
	copy(snap.MintB[:], data[off:off+32])
	off += 32
	snap.BinStepBps = binary.LittleEndian.Uint16(data[off : off+2])
	off += 2
	snap.FeeBps = binary.LittleEndian.Uint16(data[off : off+2])
	off += 2
	snap.ActiveBinID = int32(binary.LittleEndian.Uint32(data[off : off+4]))
	off += 4
	count := int(data[off])
	off++
	if len(data) < off+count*32 {
		return DLMMSnapshot{}, fmt.Errorf("curve: dlmm bin-array key list truncated")
	}
	snap.BinArrayKeys = make([]types.AccountKey, count)
	for i := 0; i < count; i++ {
		copy(snap.BinArrayKeys[i][:], data[off:off+32])
		off += 32
	}
	return snap, nil
}

func (s DLMMSnapshot) Resolve(lookup Lookup) (types.Snapshot, error) {
	arrays := make([]BinArraySnapshot, 0, len(s.BinArrayKeys))
	for _, key := range s.BinArrayKeys {
		snap, ok := lookup(key)
		if !ok {
			continue
		}
		arr, ok := snap.(BinArraySnapshot)
		if !ok {
			return nil, fmt.Errorf("curve: satellite %s is not a bin array", key)
		}
		arrays = append(arrays, arr)
	}
	s.BinArrays = arrays
	return s, nil
}

func (s DLMMSnapshot) binPrice(index int32) float64 {
	return math.Pow(1+float64(s.BinStepBps)/10_000, float64(index))
}

func (s DLMMSnapshot) findBin(index int32) (BinSnapshot, bool) {
	for _, arr := range s.BinArrays {
		for _, b := range arr.Bins {
			if b.Index == index {
				return b, true
			}
		}
	}
	return BinSnapshot{}, false
}

type dlmmCurve struct{}

func (dlmmCurve) Kind() types.AccountKind { return types.KindPoolDiscretizedBin }

func (dlmmCurve) RequiresNativeLiquidityFloor() bool { return true }

func (dlmmCurve) Price(snap types.Snapshot, baseMint types.AccountKey) (float64, types.AccountKey, error) {
	s, ok := snap.(DLMMSnapshot)
	if !ok {
		return 0, types.AccountKey{}, ErrWrongSnapshot
	}
	priceAinB := s.binPrice(s.ActiveBinID)
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

// Quote walks consecutive bins starting at ActiveBinID, draining each bin's
// opposite-side reserve before moving to the next (original_source's
// src/dex/meteora/swap.rs "fill-then-advance" loop). A bin with insufficient
// reserve to continue and no further resolved bin ends the quote in
// ErrPriceRange.
func (dlmmCurve) Quote(snap types.Snapshot, _ types.ClockSnapshot, amountIn uint64, mintIn types.AccountKey) (uint64, error) {
	s, ok := snap.(DLMMSnapshot)
	if !ok {
		return 0, ErrWrongSnapshot
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

	remaining := feeAdjustedInput(amountIn, s.FeeBps)
	var out float64
	index := s.ActiveBinID
	steps := 0
	for remaining > 0.5 {
		steps++
		if steps > 4096 {
			return 0, ErrPriceRange
		}
		bin, ok := s.findBin(index)
		if !ok {
			return 0, ErrPriceRange
		}
		price := s.binPrice(index)
		if price <= 0 {
			return 0, ErrZeroLiquidity
		}

		if aToB {
			available := float64(bin.ReserveB)
			potentialOut := remaining * price
			if potentialOut <= available {
				out += potentialOut
				remaining = 0
			} else {
				consumedIn := available / price
				out += available
				remaining -= consumedIn
				index++
			}
		} else {
			available := float64(bin.ReserveA)
			potentialOut := remaining / price
			if potentialOut <= available {
				out += potentialOut
				remaining = 0
			} else {
				consumedIn := available * price
				out += available
				remaining -= consumedIn
				index--
			}
		}
	}
	if out < 0 || math.IsNaN(out) || math.IsInf(out, 0) {
		return 0, ErrOverflow
	}
	return uint64(out), nil
}

func (dlmmCurve) OtherMint(snap types.Snapshot, mint types.AccountKey) (types.AccountKey, error) {
	s, ok := snap.(DLMMSnapshot)
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
	Register(dlmmCurve{})
}
