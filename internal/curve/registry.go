package curve

import (
	"fmt"
	"sync"

	"github.com/solarb/engine/internal/types"
)

// registry is the dispatch table keyed by PoolKind (spec.md §9: "the curve
// library is a dispatch table keyed by the variant"). It is populated once
// at package init by each kind's own file (cpmm.go, clmm.go, ...) and is
// read-only thereafter, so a plain map behind a RWMutex is sufficient — no
// hot-path writer ever touches it.
var (
	registryMu sync.RWMutex
	registry   = map[types.AccountKind]Curve{}
)

// Register installs c as the Curve for c.Kind(). Called from each kind
// file's init(). Panics on duplicate registration — a programmer error, not
// a runtime condition.
func Register(c Curve) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[c.Kind()]; exists {
		panic(fmt.Sprintf("curve: duplicate registration for kind %s", c.Kind()))
	}
	registry[c.Kind()] = c
}

// Lookup returns the Curve registered for kind, or ok=false if none is.
func Lookup(kind types.AccountKind) (Curve, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	c, ok := registry[kind]
	return c, ok
}
