package types

import "time"

// Route is a closed sequence of hops starting and ending at a base mint (spec.md
// §3). Product is not stored — it is computed on demand by the quote
// evaluator from currently cached spot prices.
type Route struct {
	StartMint AccountKey
	Hops      []Hop
}

// MaxHops reports the hop count, the quantity spec.md bounds by config.
func (r Route) MaxHops() int { return len(r.Hops) }

// PoolKeys returns the pool_key of every hop, in order.
func (r Route) PoolKeys() []AccountKey {
	out := make([]AccountKey, len(r.Hops))
	for i, h := range r.Hops {
		out[i] = h.PoolKey
	}
	return out
}

// Valid checks the structural invariants from spec.md §3 and §8 (property 1):
// hops[0].from_mint == hops[-1].to_mint == start_mint, no repeated pool_key.
func (r Route) Valid() bool {
	if len(r.Hops) == 0 {
		return false
	}
	if r.Hops[0].FromMint != r.StartMint {
		return false
	}
	if r.Hops[len(r.Hops)-1].ToMint != r.StartMint {
		return false
	}
	seen := make(map[AccountKey]struct{}, len(r.Hops))
	for i, h := range r.Hops {
		if _, dup := seen[h.PoolKey]; dup {
			return false
		}
		seen[h.PoolKey] = struct{}{}
		if i > 0 && r.Hops[i-1].ToMint != h.FromMint {
			return false
		}
	}
	return true
}

// StructuralHash is H(pool_key_i, from_i, to_i) over every hop in order. Two
// Routes with the same hash are the same candidate (spec.md §3).
func (r Route) StructuralHash() [32]byte {
	buf := make([]byte, 0, len(r.Hops)*96)
	for _, h := range r.Hops {
		buf = append(buf, h.PoolKey[:]...)
		buf = append(buf, h.FromMint[:]...)
		buf = append(buf, h.ToMint[:]...)
	}
	return HashBytes(buf)
}

// MintSequenceIdentity canonicalizes each hop's mint pair into sorted order
// before hashing, so two routes that differ only in direction over the same
// logical pools collapse to one identity key (spec.md §4.8/§8). The route
// store's SmartInsert computes the same identity from a pool list with its
// own mintSequenceIdentity rather than calling this method.
func (r Route) MintSequenceIdentity() [32]byte {
	buf := make([]byte, 0, len(r.Hops)*64)
	for _, h := range r.Hops {
		lo, hi := SortPair(h.FromMint, h.ToMint)
		buf = append(buf, lo[:]...)
		buf = append(buf, hi[:]...)
	}
	return HashBytes(buf)
}

// SwapRoutes is the materialized, profitable form of a Route at the moment
// the optimizer produced it (spec.md §3/§4.6).
type SwapRoutes struct {
	Pools     []TokenPool
	Profit    int64
	AmountIn  int64
	Threshold int64
	Mint      AccountKey
}

// RouteCandidate pairs a SwapRoutes with timing metadata used by the sender's
// re-quote step (spec.md §3).
type RouteCandidate struct {
	Swap       SwapRoutes
	QuoteTime  time.Time
	EnqueueTime time.Time
}
