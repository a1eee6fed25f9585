package optimize

import "github.com/solarb/engine/internal/types"

// Result is what the finder keeps from one optimizer run over a route,
// after the shared postprocessing every strategy goes through regardless of
// which search algorithm produced the raw (amountIn, profit) pair.
type Result struct {
	AmountIn  int64
	Profit    int64
	Threshold int64
}

// ScaleAmount applies config.OptimizationAmountPercent to a raw optimizer
// output before it's ever used to size a real swap — the optimizer searches
// the full available range, but the sender only risks a configured
// percentage of the optimum (spec.md §4.6's sizing guard).
func ScaleAmount(amountIn int64, percent int64) int64 {
	if percent <= 0 {
		return 0
	}
	if percent >= 100 {
		return amountIn
	}
	return amountIn * percent / 100
}

// Threshold derives the minimum acceptable profit for a route given its
// input size, as a fixed basis-point margin — the profit must clear not
// just zero but a configurable cushion against slippage incurred between
// quote time and send time (spec.md §6's "profit measured against a
// threshold, not just zero").
func Threshold(amountIn int64, priceThresholdBps int64) int64 {
	if priceThresholdBps <= 0 {
		return 0
	}
	return amountIn * priceThresholdBps / 10_000
}

// BondingCurveOverride applies spec.md §4.6's bonding-curve-kind special
// case: the threshold becomes a flat margin over the scaled optimal amount
// rather than a basis-point cushion, and the amount itself is rewritten to
// the curve's derived base amount (the remaining native-side room before it
// graduates to a regular AMM pool).
func BondingCurveOverride(amountIn, margin, derivedBaseAmount int64) (rewrittenAmountIn, threshold int64) {
	return derivedBaseAmount, amountIn + margin
}

// PassesROIFilter rejects candidates whose profit is large relative to
// amountIn in a way no real trade produces: a tiny size paired with a more
// than 5x return is treated as a numerical artifact rather than a genuine
// opportunity (spec.md §4.6/§9 — an Open Question the original left
// unresolved; see DESIGN.md).
func PassesROIFilter(amountIn, profit int64, rejectTinyHighRoi bool) bool {
	if !rejectTinyHighRoi {
		return true
	}
	if amountIn <= 0 {
		return false
	}
	const maxPlausibleRoi = 5
	const minAmountForHighRoi = 10_000_000
	if amountIn < minAmountForHighRoi && profit > maxPlausibleRoi*amountIn {
		return false
	}
	return true
}

// Postprocess runs a raw optimizer output through scaling, a profit
// recompute at the scaled amount, the per-kind threshold rule, and the ROI
// filter, in the order spec.md §4.6 describes. recomputeProfit is called
// with the scaled amount and must return the profit that amount actually
// yields — the raw optimizer profit is only valid at the raw, unscaled
// amount optimization_amount_percent shrinks away from.
func Postprocess(amountIn, profit int64, amountPercent, priceThresholdBps int64, rejectTinyHighRoi bool, kind types.AccountKind, bondingMargin, derivedBaseAmount int64, recomputeProfit func(int64) int64) (Result, bool) {
	scaled := ScaleAmount(amountIn, amountPercent)
	if scaled <= 0 {
		return Result{}, false
	}

	scaledProfit := recomputeProfit(scaled)
	if scaledProfit <= 0 {
		return Result{}, false
	}

	var threshold int64
	if kind == types.KindPoolBondingCurve && derivedBaseAmount > 0 {
		scaled, threshold = BondingCurveOverride(scaled, bondingMargin, derivedBaseAmount)
	} else {
		threshold = Threshold(scaled, priceThresholdBps)
	}
	if scaledProfit < threshold {
		return Result{}, false
	}

	if !PassesROIFilter(scaled, scaledProfit, rejectTinyHighRoi) {
		return Result{}, false
	}
	return Result{AmountIn: scaled, Profit: scaledProfit, Threshold: threshold}, true
}
