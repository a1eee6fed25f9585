package types

import "errors"

// ErrSameMint is returned when a TokenPool is constructed with mint_a ==
// mint_b (spec.md §3 invariant).
var ErrSameMint = errors.New("types: mint_a equals mint_b")

// TokenPool is the immutable identity of an admitted pool. Only its
// satellite snapshots change over time once admitted (spec.md §3).
type TokenPool struct {
	PoolKey AccountKey
	Kind    AccountKind
	MintA   AccountKey
	MintB   AccountKey
}

// NewTokenPool validates and constructs a TokenPool.
func NewTokenPool(poolKey AccountKey, kind AccountKind, mintA, mintB AccountKey) (TokenPool, error) {
	if mintA == mintB {
		return TokenPool{}, ErrSameMint
	}
	return TokenPool{PoolKey: poolKey, Kind: kind, MintA: mintA, MintB: mintB}, nil
}

// PairKey returns the canonical (min,max) pair key for this pool's mints.
func (p TokenPool) PairKey() PairKey {
	return CanonicalPair(p.MintA, p.MintB)
}

// OtherMint returns the mint on the opposite side of mint from this pool.
// Returns ok=false if mint is not one of the pool's two mints.
func (p TokenPool) OtherMint(mint AccountKey) (AccountKey, bool) {
	switch mint {
	case p.MintA:
		return p.MintB, true
	case p.MintB:
		return p.MintA, true
	default:
		return AccountKey{}, false
	}
}

// Hop is one edge of a Route: swapping from_mint into to_mint through a
// single pool. Its "rate" (spot price) is read lazily from the cache, not
// stored here, per spec.md §3.
type Hop struct {
	FromMint AccountKey
	ToMint   AccountKey
	PoolKey  AccountKey
	Kind     AccountKind
}

// ClockSnapshot is the decoded Clock sysvar, passed to every curve Quote call
// so concentrated-liquidity/oracle-backed kinds can reason about staleness.
type ClockSnapshot struct {
	Slot      uint64
	UnixTime  int64
	EpochTime int64
}

func (ClockSnapshot) Kind() AccountKind { return KindClockSysvar }
