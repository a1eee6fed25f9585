// Package optimize finds the input amount that maximizes a route's profit
// function over a bounded range, grounded on original_source's
// src/arb/optimization/{golden_section,ternary_search,brent_method}.rs. Each
// algorithm is unimodal-only — the profit curve of an AMM route is assumed
// to rise then fall exactly once across the search interval, which holds for
// the constant-product/concentrated-liquidity/stable kinds this engine
// quotes (spec.md §4.6).
package optimize

import "context"

// ObjectiveFunc evaluates profit (can be negative) for a candidate input
// amount. Implementations call back into internal/quote's SafeSwapCompute.
type ObjectiveFunc func(ctx context.Context, amountIn int64) int64

// Strategy is one maximization algorithm.
type Strategy interface {
	Name() string
	// Maximize searches [lo, hi] for the amountIn that maximizes f, to
	// within epsilon of the true optimum's amount, and returns both the
	// amount and the profit observed there.
	Maximize(ctx context.Context, f ObjectiveFunc, lo, hi int64, epsilon int64) (amountIn int64, profit int64)
}

// ByMethod maps config.OptimizationMethod's string values to a Strategy.
func ByMethod(method string) Strategy {
	switch method {
	case "ternary":
		return TernarySearch{}
	case "golden_section":
		return GoldenSection{}
	case "brent":
		return Brent{}
	default:
		return Brent{}
	}
}
