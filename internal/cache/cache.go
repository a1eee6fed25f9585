// Package cache holds the process's one shared view of on-chain account
// state: three concurrent maps from AccountKey to its kind, its decoded
// Snapshot, and (for pools) a cached spot-price entry, exactly as spec.md §4.2
// describes. It is the single place that knows how to decode each AccountKind
// and how to materialize a pool snapshot's satellite data on read, mirroring
// core/liquidity_pools.go's Manager: one mutex-guarded map of pools behind a
// small set of named operations, generalized here to lock-free sync.Maps
// because reads vastly outnumber writes on the hot path.
package cache

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/solarb/engine/internal/accounts"
	"github.com/solarb/engine/internal/curve"
	"github.com/solarb/engine/internal/types"
)

// PriceEntry is the cached spot rate for one pool, recomputed every time that
// pool's own account is ingested (spec.md §4.2).
type PriceEntry struct {
	FromMint types.AccountKey
	ToMint   types.AccountKey
	Rate     float64
}

// Cache is safe for concurrent use. The zero value is not usable; construct
// with New.
type Cache struct {
	log *logrus.Entry

	kinds     sync.Map // types.AccountKey -> types.AccountKind
	snapshots sync.Map // types.AccountKey -> types.Snapshot
	prices    sync.Map // types.AccountKey (pool key) -> PriceEntry

	decodeFailures atomic.Int64
	ingestCount    atomic.Int64
}

func New(log *logrus.Logger) *Cache {
	return &Cache{log: log.WithField("component", "cache")}
}

// Register installs key with kind, seeding an EmptySnapshot if the key has
// never been seen. Re-registering an already-known key with the same kind is
// a no-op; registering with a different kind overwrites the tag (spec.md
// §3: kinds are fixed going forward from the watcher's perspective, but
// neither the cache nor the admitter enforces that; the discovery watcher
// only admits keys the cache has not seen).
func (c *Cache) Register(key types.AccountKey, kind types.AccountKind) {
	c.kinds.Store(key, kind)
	if _, ok := c.snapshots.Load(key); !ok {
		c.snapshots.Store(key, types.EmptySnapshot{K: kind})
	}
}

// RegisterBulk registers many keys under one kind, e.g. a pool admission
// installing all of a pool's satellites at once.
func (c *Cache) RegisterBulk(kind types.AccountKind, keys []types.AccountKey) {
	for _, k := range keys {
		c.Register(k, kind)
	}
}

// Kind reports the registered kind for key, or KindUnknown if never seen.
func (c *Cache) Kind(key types.AccountKey) types.AccountKind {
	v, ok := c.kinds.Load(key)
	if !ok {
		return types.KindUnknown
	}
	return v.(types.AccountKind)
}

// Nonexistent reports whether key has never been registered.
func (c *Cache) Nonexistent(key types.AccountKey) bool {
	_, ok := c.kinds.Load(key)
	return !ok
}

// Ingest decodes raw bytes for key according to its registered kind and
// installs the result. A decode failure retains the previous snapshot
// untouched and increments the decode-failure counter rather than
// propagating — one bad account update must never take down the pipeline
// (spec.md §4.2/§7).
func (c *Cache) Ingest(key types.AccountKey, raw []byte) error {
	kind := c.Kind(key)
	if kind == types.KindUnknown {
		return fmt.Errorf("cache: ingest of unregistered key %s", key)
	}

	snap, err := decode(kind, key, raw)
	if err != nil {
		c.decodeFailures.Add(1)
		c.log.WithFields(logrus.Fields{
			"key":  key.String(),
			"kind": kind.String(),
			"err":  err,
		}).Warn("cache: decode failed, retaining previous snapshot")
		return err
	}

	c.snapshots.Store(key, snap)
	c.ingestCount.Add(1)

	if kind.IsPool() {
		c.refreshPrice(key, snap)
	}
	return nil
}

func decode(kind types.AccountKind, key types.AccountKey, raw []byte) (types.Snapshot, error) {
	switch kind {
	case types.KindPoolConstantProduct:
		return curve.DecodeCPMM(key, raw)
	case types.KindPoolConcentratedLiquidity:
		return curve.DecodeCLMM(key, raw)
	case types.KindPoolDiscretizedBin:
		return curve.DecodeDLMM(key, raw)
	case types.KindPoolStable:
		return curve.DecodeStable(key, raw)
	case types.KindPoolBondingCurve:
		return curve.DecodeBonding(key, raw)
	case types.KindTokenAccount, types.KindReserveVault:
		return accounts.DecodeTokenAccount(raw)
	case types.KindMintAccount:
		return accounts.DecodeMint(raw)
	case types.KindTickArray:
		return decodeTickArray(raw)
	case types.KindBinArray:
		return decodeBinArray(raw)
	default:
		return types.UnknownSnapshot{Raw: raw}, nil
	}
}

// refreshPrice recomputes the cached spot-price entry for a pool key right
// after its own account is ingested, reading through to current satellite
// values exactly like Get does.
func (c *Cache) refreshPrice(poolKey types.AccountKey, raw types.Snapshot) {
	resolved, err := curve.ResolveSnapshot(raw, c.lookup)
	if err != nil {
		return
	}
	crv, ok := curve.Lookup(resolved.Kind())
	if !ok {
		return
	}
	pool, ok := poolMints(resolved)
	if !ok {
		return
	}
	rate, quoteMint, err := crv.Price(resolved, pool.MintA)
	if err != nil {
		return
	}
	c.prices.Store(poolKey, PriceEntry{FromMint: pool.MintA, ToMint: quoteMint, Rate: rate})
}

// Price returns the last cached spot-price entry for a pool key without
// recomputing it — the fast path spec.md §4.2 calls out for route scoring
// heuristics that don't need a full Quote.
func (c *Cache) Price(poolKey types.AccountKey) (PriceEntry, bool) {
	v, ok := c.prices.Load(poolKey)
	if !ok {
		return PriceEntry{}, false
	}
	return v.(PriceEntry), true
}

// Get returns the current materialized Snapshot for key: the pool's own
// decoded bytes composed with its satellites' current values, read fresh on
// every call (spec.md §4.2).
func (c *Cache) Get(key types.AccountKey) (types.Snapshot, bool) {
	v, ok := c.snapshots.Load(key)
	if !ok {
		return nil, false
	}
	snap := v.(types.Snapshot)
	resolved, err := curve.ResolveSnapshot(snap, c.lookup)
	if err != nil {
		return snap, true
	}
	return resolved, true
}

// lookup adapts Get to curve.Lookup's signature for satellite resolution.
// It intentionally does NOT recursively resolve satellites — a tick array
// or vault is never itself a pool kind, so there is no risk of unbounded
// recursion here, only one level of composition.
func (c *Cache) lookup(key types.AccountKey) (types.Snapshot, bool) {
	v, ok := c.snapshots.Load(key)
	if !ok {
		return nil, false
	}
	return v.(types.Snapshot), true
}

// Stats reports running counters for the debug HTTP surface and Prometheus
// exporter (internal/observability).
type Stats struct {
	Registered     int64
	Ingested       int64
	DecodeFailures int64
}

func (c *Cache) Stats() Stats {
	var registered int64
	c.kinds.Range(func(_, _ any) bool {
		registered++
		return true
	})
	return Stats{
		Registered:     registered,
		Ingested:       c.ingestCount.Load(),
		DecodeFailures: c.decodeFailures.Load(),
	}
}

func poolMints(snap types.Snapshot) (types.TokenPool, bool) {
	switch s := snap.(type) {
	case curve.CPMMSnapshot:
		return types.TokenPool{MintA: s.MintA, MintB: s.MintB}, true
	case curve.CLMMSnapshot:
		return types.TokenPool{MintA: s.MintA, MintB: s.MintB}, true
	case curve.DLMMSnapshot:
		return types.TokenPool{MintA: s.MintA, MintB: s.MintB}, true
	case curve.StableSnapshot:
		return types.TokenPool{MintA: s.MintA, MintB: s.MintB}, true
	case curve.BondingSnapshot:
		return types.TokenPool{MintA: s.MintA, MintB: s.MintB}, true
	default:
		return types.TokenPool{}, false
	}
}
