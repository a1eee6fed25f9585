// Package routeindex maintains the bidirectional mint/pool graph the finder
// walks to enumerate candidate routes (spec.md §4.4). It is organized as
// plain maps guarded by a single RWMutex; Insert enumerates new routes while
// holding the write lock, so readers wait for an insertion to finish.
package routeindex

import (
	"sync"

	"github.com/solarb/engine/internal/types"
)

// Index is safe for concurrent use.
type Index struct {
	mu sync.RWMutex

	byPool      map[types.AccountKey]types.TokenPool
	byMint      map[types.AccountKey]map[types.AccountKey]struct{} // mint -> pool keys touching it
	byPair      map[types.PairKey][]types.AccountKey               // canonical mint pair -> pool keys
	routes      map[[32]byte]types.Route                           // structural hash -> route
	routesByMint map[types.AccountKey]map[[32]byte]struct{}        // every mint on a route's path -> route hashes

	baseMint types.AccountKey
	maxHops  int
}

// New constructs an Index. baseMint is the single asset every enumerated
// route must start and end at (spec.md §4.4: "seeded at the base mint") —
// a pool touching two arbitrary mints never itself becomes a walk's start
// point.
func New(maxHops int, baseMint types.AccountKey) *Index {
	return &Index{
		byPool:       make(map[types.AccountKey]types.TokenPool),
		byMint:       make(map[types.AccountKey]map[types.AccountKey]struct{}),
		byPair:       make(map[types.PairKey][]types.AccountKey),
		routes:       make(map[[32]byte]types.Route),
		routesByMint: make(map[types.AccountKey]map[[32]byte]struct{}),
		baseMint:     baseMint,
		maxHops:      maxHops,
	}
}

// Insert records pool in the graph and re-walks every closed route from the
// base mint up to maxHops (spec.md §4.4 allows the simplest "re-enumerate on
// every insert" strategy rather than incremental maintenance, as long as
// every loop using the new pool ends up indexed).
func (idx *Index) Insert(pool types.TokenPool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, exists := idx.byPool[pool.PoolKey]; exists {
		idx.byPool[pool.PoolKey] = pool
		return
	}
	idx.byPool[pool.PoolKey] = pool

	idx.indexMint(pool.MintA, pool.PoolKey)
	idx.indexMint(pool.MintB, pool.PoolKey)

	pairKey := pool.PairKey()
	idx.byPair[pairKey] = append(idx.byPair[pairKey], pool.PoolKey)

	idx.enumerateFrom(idx.baseMint)
}

func (idx *Index) indexMint(mint, poolKey types.AccountKey) {
	set, ok := idx.byMint[mint]
	if !ok {
		set = make(map[types.AccountKey]struct{})
		idx.byMint[mint] = set
	}
	set[poolKey] = struct{}{}
}

// enumerateFrom runs a bounded depth-first search over the pool graph
// starting and ending at mint, installing every closed route it finds.
// Called with idx.mu already held for writing.
func (idx *Index) enumerateFrom(mint types.AccountKey) {
	var hops []types.Hop
	visited := make(map[types.AccountKey]struct{}, idx.maxHops)
	idx.dfs(mint, mint, hops, visited)
}

func (idx *Index) dfs(startMint, currentMint types.AccountKey, hops []types.Hop, visited map[types.AccountKey]struct{}) {
	if len(hops) > 0 && currentMint == startMint {
		route := types.Route{StartMint: startMint, Hops: append([]types.Hop(nil), hops...)}
		if route.Valid() {
			idx.installRoute(route)
		}
		return
	}
	if len(hops) >= idx.maxHops {
		return
	}
	for poolKey := range idx.byMint[currentMint] {
		if _, seen := visited[poolKey]; seen {
			continue
		}
		pool := idx.byPool[poolKey]
		other, ok := pool.OtherMint(currentMint)
		if !ok {
			continue
		}
		hop := types.Hop{FromMint: currentMint, ToMint: other, PoolKey: poolKey, Kind: pool.Kind}
		visited[poolKey] = struct{}{}
		idx.dfs(startMint, other, append(hops, hop), visited)
		delete(visited, poolKey)
	}
}

// installRoute indexes a newly discovered route under every non-base mint
// on its path (spec.md §4.4), so the mint-scoped finder can react to a pool
// update touching any hop of the route, not only its start/end.
func (idx *Index) installRoute(route types.Route) {
	hash := route.StructuralHash()
	if _, exists := idx.routes[hash]; exists {
		return
	}
	idx.routes[hash] = route
	for _, hop := range route.Hops {
		if hop.FromMint == route.StartMint {
			continue
		}
		idx.indexRouteByMint(hop.FromMint, hash)
	}
}

func (idx *Index) indexRouteByMint(mint types.AccountKey, hash [32]byte) {
	set, ok := idx.routesByMint[mint]
	if !ok {
		set = make(map[[32]byte]struct{})
		idx.routesByMint[mint] = set
	}
	set[hash] = struct{}{}
}

// RoutesFrom returns every known route that touches mint somewhere on its
// path (the base mint itself is served separately by the global finder's
// periodic sweep, per spec.md §4.7's mint-scoped/global split).
func (idx *Index) RoutesFrom(mint types.AccountKey) []types.Route {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	hashes := idx.routesByMint[mint]
	out := make([]types.Route, 0, len(hashes))
	for h := range hashes {
		out = append(out, idx.routes[h])
	}
	return out
}

// AllRoutes returns every closed route currently known, each one rooted at
// the configured base mint by construction (enumerateFrom only ever walks
// from baseMint). This is how the global finder gets its sweep set —
// RoutesFrom(baseMint) is deliberately empty, since a route's own start mint
// is never one of the "touches this mint mid-path" keys in routesByMint.
func (idx *Index) AllRoutes() []types.Route {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]types.Route, 0, len(idx.routes))
	for _, r := range idx.routes {
		out = append(out, r)
	}
	return out
}

// PoolsForPair returns every pool key trading the canonical pair of a, b.
func (idx *Index) PoolsForPair(a, b types.AccountKey) []types.AccountKey {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return append([]types.AccountKey(nil), idx.byPair[types.CanonicalPair(a, b)]...)
}

// Pool returns the pool registered under poolKey.
func (idx *Index) Pool(poolKey types.AccountKey) (types.TokenPool, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	p, ok := idx.byPool[poolKey]
	return p, ok
}

// Stats for the debug HTTP surface.
type Stats struct {
	Pools  int
	Mints  int
	Routes int
}

func (idx *Index) Stats() Stats {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return Stats{Pools: len(idx.byPool), Mints: len(idx.byMint), Routes: len(idx.routes)}
}
