// Package types holds the vocabulary shared by every subsystem: account
// identity, account kind tagging, pools, hops, routes and the candidates the
// optimizer/finder/store/sender pass between each other. Keeping these in one
// leaf package (no dependents import each other across subsystem boundaries)
// mirrors spec.md §9's "cyclic/self-referential state" note: routes reference
// pools, pools reference mints, mints index back to routes — represented here
// purely by AccountKey values in maps, never owning pointers between entities.
package types

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

// AccountKey is the 32-byte opaque identifier used as the primary key
// everywhere in the engine. It is totally ordered (see Less) and is exactly
// the on-chain address type, so no translation is needed at the RPC/stream
// boundary.
type AccountKey = solana.PublicKey

// Less gives AccountKey a total order, used for canonical-pair keys (spec.md
// §3: "(min(mint_a,mint_b), max(mint_a,mint_b))").
func Less(a, b AccountKey) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// SortPair returns (a, b) reordered so the first element is the smaller one.
func SortPair(a, b AccountKey) (AccountKey, AccountKey) {
	if Less(b, a) {
		return b, a
	}
	return a, b
}

// PairKey is a canonical, order-independent identifier for a two-mint pair.
type PairKey [64]byte

// CanonicalPair builds the canonical pair key for two mints.
func CanonicalPair(a, b AccountKey) PairKey {
	lo, hi := SortPair(a, b)
	var k PairKey
	copy(k[:32], lo[:])
	copy(k[32:], hi[:])
	return k
}

// HashBytes returns the sha256 digest of arbitrary bytes, used for route
// structural hashes and rate-limit keys.
func HashBytes(b []byte) [32]byte {
	return sha256.Sum256(b)
}

// AppendUint64 is a small helper for building hash inputs deterministically.
func AppendUint64(b []byte, v uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return append(b, tmp[:]...)
}
