package curve

import "github.com/solarb/engine/internal/types"

// Lookup resolves a satellite AccountKey to its current cached Snapshot. The
// account cache (internal/cache) passes its internal lookup method, which
// returns a satellite's stored snapshot without resolving it further, as a
// Lookup when materializing a pool snapshot for quoting, which is how a pool's own
// decoded bytes (installed once per ingest) get composed with its
// satellites' *current* values on every read (spec.md §4.2: "Quote
// computations always read through the cache").
type Lookup func(types.AccountKey) (types.Snapshot, bool)

// Resolvable is implemented by any PoolKind snapshot whose quoting math
// depends on satellite accounts (reserve vaults, tick arrays, bins, an
// oracle) rather than being fully self-contained. Resolve returns a new,
// fully materialized snapshot; it must not mutate the receiver (snapshots
// are copy-on-read, spec.md §3).
type Resolvable interface {
	Resolve(lookup Lookup) (types.Snapshot, error)
}

// ResolveSnapshot materializes snap if it implements Resolvable, otherwise
// returns it unchanged (self-contained kinds, e.g. the bonding curve, carry
// everything they need directly in the pool account).
func ResolveSnapshot(snap types.Snapshot, lookup Lookup) (types.Snapshot, error) {
	if r, ok := snap.(Resolvable); ok {
		return r.Resolve(lookup)
	}
	return snap, nil
}
