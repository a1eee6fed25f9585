// Package admitter decides whether a newly discovered pool enters the
// engine's route index at all, and if so, which satellite accounts the
// watcher must start tracking for it (spec.md §4.3). It is the single choke
// point between "the chain told us about an account" and "the route index
// knows about a pool" — grounded on core/liquidity_pools.go's CreatePool,
// generalized from one hardcoded AMM kind to the full curve registry.
package admitter

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/solarb/engine/internal/cache"
	"github.com/solarb/engine/internal/curve"
	"github.com/solarb/engine/internal/routeindex"
	"github.com/solarb/engine/internal/types"
)

// ErrUnsupportedKind is returned for a pool account whose kind the curve
// registry has no Curve for — e.g. an AMM program this build was not
// compiled with support for.
var ErrUnsupportedKind = fmt.Errorf("admitter: no curve registered for pool kind")

// ErrBelowNativeLiquidityFloor is returned when a pool whose kind requires
// the native-asset liquidity floor (spec.md §4.3 step 1) has a known native
// reserve below MIN_WSOL_LIQ. The pool is rejected without ever entering
// the route index or gaining a TokenPool identity (spec.md §7: "Liquidity |
// pre-admit check fails | silently reject pool").
var ErrBelowNativeLiquidityFloor = fmt.Errorf("admitter: pool below minimum native-asset liquidity")

type Admitter struct {
	log         *logrus.Entry
	cache       *cache.Cache
	routeIndex  *routeindex.Index
	nativeMint  types.AccountKey
	minNativeLQ uint64
}

func New(log *logrus.Logger, c *cache.Cache, ri *routeindex.Index, nativeMint types.AccountKey, minNativeLiquidity uint64) *Admitter {
	return &Admitter{
		log:         log.WithField("component", "admitter"),
		cache:       c,
		routeIndex:  ri,
		nativeMint:  nativeMint,
		minNativeLQ: minNativeLiquidity,
	}
}

// Admit decodes a freshly discovered pool account, installs it (and its
// satellites, as EmptySnapshot placeholders) in the cache, enforces the
// native-liquidity floor where the curve requires one, and on success
// inserts the pool into the route index. It returns the satellite keys the
// caller (the discovery watcher) must subscribe to next.
func (a *Admitter) Admit(poolKey types.AccountKey, kind types.AccountKind, raw []byte) ([]types.AccountKey, error) {
	crv, ok := curve.Lookup(kind)
	if !ok {
		return nil, ErrUnsupportedKind
	}

	a.cache.Register(poolKey, kind)
	if err := a.cache.Ingest(poolKey, raw); err != nil {
		return nil, fmt.Errorf("admitter: decoding pool %s: %w", poolKey, err)
	}

	snap, _ := a.cache.Get(poolKey)
	_, mintA, mintB, err := poolFields(snap)
	if err != nil {
		return nil, err
	}

	if gate, ok := crv.(curve.NativeLiquidityGate); ok && gate.RequiresNativeLiquidityFloor() {
		if mintA == a.nativeMint || mintB == a.nativeMint {
			if !a.clearsNativeFloor(snap, mintA, mintB) {
				a.log.WithFields(logrus.Fields{
					"pool": poolKey.String(),
					"kind": kind.String(),
				}).Debug("admitter: pool below native liquidity floor, rejecting without registration")
				return nil, ErrBelowNativeLiquidityFloor
			}
		}
	}

	satellites := satelliteKeys(snap)
	for _, sat := range satellites {
		a.cache.Register(sat.key, sat.kind)
	}

	tokenPool, err := types.NewTokenPool(poolKey, kind, mintA, mintB)
	if err != nil {
		return nil, fmt.Errorf("admitter: %w", err)
	}
	a.routeIndex.Insert(tokenPool)

	keys := make([]types.AccountKey, len(satellites))
	for i, sat := range satellites {
		keys[i] = sat.key
	}
	return keys, nil
}

// clearsNativeFloor reports whether the pool's already-cached native-side
// reserve (if known) is at or above the configured floor. A pool whose
// vaults have not been ingested yet cannot be judged, so it is admitted
// provisionally — the route index and quote evaluator both still treat a
// zero/unresolved reserve as ErrZeroLiquidity, so an unqualified pool simply
// never yields a profitable quote instead of being rejected up front.
func (a *Admitter) clearsNativeFloor(snap types.Snapshot, mintA, mintB types.AccountKey) bool {
	cpmm, ok := snap.(curve.CPMMSnapshot)
	if !ok {
		return true
	}
	resolved, ok := a.cache.Get(cpmm.PoolKey)
	if !ok {
		return true
	}
	rs, ok := resolved.(curve.CPMMSnapshot)
	if !ok || rs.ReserveA == nil || rs.ReserveB == nil {
		return true
	}
	var amount uint64
	switch a.nativeMint {
	case mintA:
		if rs.ReserveA.IsUint64() {
			amount = rs.ReserveA.Uint64()
		}
	case mintB:
		if rs.ReserveB.IsUint64() {
			amount = rs.ReserveB.Uint64()
		}
	}
	return amount >= a.minNativeLQ
}

type satellite struct {
	key  types.AccountKey
	kind types.AccountKind
}

// satelliteKeys enumerates the accounts a pool's curve needs beyond its own
// account, per kind (spec.md §4.3 / SPEC_FULL.md's Loader grounding on
// original_source's src/arb/loader/*.rs).
func satelliteKeys(snap types.Snapshot) []satellite {
	switch s := snap.(type) {
	case curve.CPMMSnapshot:
		return []satellite{
			{s.VaultA, types.KindReserveVault},
			{s.VaultB, types.KindReserveVault},
		}
	case curve.StableSnapshot:
		return []satellite{
			{s.VaultA, types.KindReserveVault},
			{s.VaultB, types.KindReserveVault},
		}
	case curve.CLMMSnapshot:
		out := make([]satellite, len(s.TickArrayKeys))
		for i, k := range s.TickArrayKeys {
			out[i] = satellite{k, types.KindTickArray}
		}
		return out
	case curve.DLMMSnapshot:
		out := make([]satellite, len(s.BinArrayKeys))
		for i, k := range s.BinArrayKeys {
			out[i] = satellite{k, types.KindBinArray}
		}
		return out
	case curve.BondingSnapshot:
		return nil // fully self-contained, no satellites
	default:
		return nil
	}
}

func poolFields(snap types.Snapshot) (poolKey, mintA, mintB types.AccountKey, err error) {
	switch s := snap.(type) {
	case curve.CPMMSnapshot:
		return s.PoolKey, s.MintA, s.MintB, nil
	case curve.CLMMSnapshot:
		return s.PoolKey, s.MintA, s.MintB, nil
	case curve.DLMMSnapshot:
		return s.PoolKey, s.MintA, s.MintB, nil
	case curve.StableSnapshot:
		return s.PoolKey, s.MintA, s.MintB, nil
	case curve.BondingSnapshot:
		return s.PoolKey, s.MintA, s.MintB, nil
	default:
		return types.AccountKey{}, types.AccountKey{}, types.AccountKey{}, fmt.Errorf("admitter: snapshot is not a pool kind")
	}
}
