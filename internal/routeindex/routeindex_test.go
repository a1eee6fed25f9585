package routeindex

import (
	"testing"

	"github.com/solarb/engine/internal/types"
)

func mint(b byte) types.AccountKey {
	var k types.AccountKey
	k[0] = b
	return k
}

func pool(t *testing.T, poolKey byte, a, b types.AccountKey) types.TokenPool {
	t.Helper()
	p, err := types.NewTokenPool(mint(poolKey), types.KindPoolConstantProduct, a, b)
	if err != nil {
		t.Fatalf("unexpected error building pool: %v", err)
	}
	return p
}

// TestInsertOnlyEnumeratesFromBaseMint is the regression test for spec.md
// §4.4/§8 property 1: a pool whose two mints are both unrelated to the
// configured base mint must not itself become a route's start/end point.
func TestInsertOnlyEnumeratesFromBaseMint(t *testing.T) {
	base := mint(1)
	idx := New(4, base)

	unrelatedA, unrelatedB := mint(50), mint(51)
	idx.Insert(pool(t, 100, unrelatedA, unrelatedB))

	if stats := idx.Stats(); stats.Routes != 0 {
		t.Fatalf("expected no routes from a pool touching neither mint of the base pair, got %d", stats.Routes)
	}
}

// TestInsertEnumeratesTriangleFromBaseMint covers scenario S1: a triangle of
// pools base->mid->other->base should produce two closed routes, one per
// traversal direction, once all three pools are present.
func TestInsertEnumeratesTriangleFromBaseMint(t *testing.T) {
	base, mid, other := mint(1), mint(2), mint(3)
	idx := New(4, base)

	idx.Insert(pool(t, 10, base, mid))
	idx.Insert(pool(t, 11, mid, other))
	idx.Insert(pool(t, 12, other, base))

	if stats := idx.Stats(); stats.Routes != 2 {
		t.Fatalf("expected two closed triangle routes (one per direction), got %d", stats.Routes)
	}

	routesFromMid := idx.RoutesFrom(mid)
	if len(routesFromMid) != 2 {
		t.Fatalf("expected both triangle routes to be indexed under the intermediate mint, got %d", len(routesFromMid))
	}
	routesFromOther := idx.RoutesFrom(other)
	if len(routesFromOther) != 2 {
		t.Fatalf("expected both triangle routes to be indexed under the other intermediate mint, got %d", len(routesFromOther))
	}
}

// TestInsertTwoParallelPoolsFormTwoHopLoops covers scenario S2's topology:
// two pools on the same base/other pair close a two-hop loop in each
// direction (out through one pool, back through the other). Whether such a
// loop is profitable is left to the finder.
func TestInsertTwoParallelPoolsFormTwoHopLoops(t *testing.T) {
	base, other := mint(1), mint(2)
	idx := New(4, base)

	idx.Insert(pool(t, 10, base, other))
	idx.Insert(pool(t, 11, base, other)) // a second, parallel pool on the same pair

	if stats := idx.Stats(); stats.Routes != 2 {
		t.Fatalf("expected two two-hop loops from two parallel pools on the same pair, got %d", stats.Routes)
	}
}

func TestRoutesFromBaseMintNotIndexedUnderItself(t *testing.T) {
	base, mid := mint(1), mint(2)
	idx := New(4, base)
	idx.Insert(pool(t, 10, base, mid))
	idx.Insert(pool(t, 11, mid, base))

	if routes := idx.RoutesFrom(base); len(routes) != 0 {
		t.Fatalf("expected the base mint itself to not be used as a mint-scoped lookup key, got %d routes", len(routes))
	}
	if routes := idx.RoutesFrom(mid); len(routes) != 2 {
		t.Fatalf("expected both directions of the loop to be indexed under the intermediate mint, got %d", len(routes))
	}
}

func TestPoolsForPairAndPoolLookup(t *testing.T) {
	base, mid := mint(1), mint(2)
	idx := New(4, base)
	p := pool(t, 10, base, mid)
	idx.Insert(p)

	keys := idx.PoolsForPair(base, mid)
	if len(keys) != 1 || keys[0] != p.PoolKey {
		t.Fatalf("expected PoolsForPair to return the inserted pool key, got %v", keys)
	}
	// Order-independence of the pair lookup.
	keys = idx.PoolsForPair(mid, base)
	if len(keys) != 1 || keys[0] != p.PoolKey {
		t.Fatalf("expected PoolsForPair to be order-independent, got %v", keys)
	}

	got, ok := idx.Pool(p.PoolKey)
	if !ok || got.PoolKey != p.PoolKey {
		t.Fatalf("expected Pool lookup to find the inserted pool")
	}
}

func TestInsertUpdateExistingPoolDoesNotDuplicate(t *testing.T) {
	base, mid := mint(1), mint(2)
	idx := New(4, base)
	p := pool(t, 10, base, mid)
	idx.Insert(p)
	idx.Insert(p) // re-insert same pool key

	if stats := idx.Stats(); stats.Pools != 1 {
		t.Fatalf("expected re-inserting the same pool key to not duplicate it, got %d pools", stats.Pools)
	}
}
