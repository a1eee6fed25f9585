// Package curve implements the per-AMM-kind pure quoting math described in
// spec.md §4.1: a deterministic function from (pool snapshot, direction,
// amount-in) to amount-out, with no side effects and no shared mutable
// state. Each PoolKind is modeled as one Curve implementation, dispatched by
// a lookup table rather than interface embedding/inheritance — spec.md §9
// is explicit that per-kind snapshot layouts "share no fields".
//
// Rounding follows spec.md §4.1 throughout: outputs round down, required
// inputs round up (the producer rounds against the taker); fee computation
// precedes amount derivation for "fees on input" kinds and follows it
// otherwise.
package curve

import (
	"errors"

	"github.com/solarb/engine/internal/types"
)

// Sentinel errors a Curve.Quote implementation returns for the three
// documented failure modes (spec.md §4.1/§7). Callers — specifically
// internal/quote's evaluator — treat any error identically: "worst possible
// output", i.e. zero.
var (
	ErrPriceRange     = errors.New("curve: amount outside valid price range")
	ErrZeroLiquidity  = errors.New("curve: pool has zero liquidity on the requested side")
	ErrOverflow       = errors.New("curve: arithmetic overflow computing output amount")
	ErrWrongSnapshot  = errors.New("curve: snapshot does not match the curve's pool kind")
	ErrMintNotInPool  = errors.New("curve: mint is not one of the pool's two mints")
)

// Curve is the contract every PoolKind implements. Implementations must be
// side-effect free and must never panic on adversarial snapshots — but the
// evaluator wraps every call in a panic guard anyway (spec.md §4.5/§9), so an
// implementation bug here degrades a single quote to zero instead of
// crashing the process.
type Curve interface {
	// Kind identifies which AccountKind this Curve decodes/quotes.
	Kind() types.AccountKind

	// Price returns the spot rate of 1 unit of baseMint expressed in the
	// pool's other mint, plus that other mint.
	Price(snap types.Snapshot, baseMint types.AccountKey) (rate float64, quoteMint types.AccountKey, err error)

	// Quote returns the expected output amount for swapping amountIn of
	// mintIn through the pool's curve, under its own fee schedule and (where
	// applicable) tick/bin traversal.
	Quote(snap types.Snapshot, clock types.ClockSnapshot, amountIn uint64, mintIn types.AccountKey) (amountOut uint64, err error)

	// OtherMint is a trivial accessor: the mint opposite mint in the pool.
	OtherMint(snap types.Snapshot, mint types.AccountKey) (types.AccountKey, error)
}

// NativeLiquidityGate is implemented by curves whose PoolKind opts into the
// pool admitter's "minimum native-asset liquidity" policy (spec.md §4.3 step
// 1). Kinds that don't need the floor simply don't implement it.
type NativeLiquidityGate interface {
	// RequiresNativeLiquidityFloor reports whether pools of this kind must
	// clear MIN_WSOL_LIQ on both sides (expressed in the native asset)
	// before admission, when one side is the native mint.
	RequiresNativeLiquidityFloor() bool
}
