package optimize

import "context"

// TernarySearch repeatedly narrows [lo, hi] to its middle third, grounded on
// original_source's src/arb/optimization/ternary_search.rs. Cheapest of the
// three strategies per iteration (two evaluations), slowest to converge.
type TernarySearch struct{}

func (TernarySearch) Name() string { return "ternary" }

func (TernarySearch) Maximize(ctx context.Context, f ObjectiveFunc, lo, hi int64, epsilon int64) (int64, int64) {
	bestX, bestFx := lo, f(ctx, lo)
	const maxIter = 200
	for iter := 0; hi-lo > epsilon && iter < maxIter; iter++ {
		if ctx.Err() != nil {
			break
		}
		m1 := lo + (hi-lo)/3
		m2 := hi - (hi-lo)/3
		f1 := f(ctx, m1)
		f2 := f(ctx, m2)
		if f1 > bestFx {
			bestX, bestFx = m1, f1
		}
		if f2 > bestFx {
			bestX, bestFx = m2, f2
		}
		if f1 < f2 {
			lo = m1
		} else {
			hi = m2
		}
	}
	mid := lo + (hi-lo)/2
	if fx := f(ctx, mid); fx > bestFx {
		bestX, bestFx = mid, fx
	}
	return bestX, bestFx
}
