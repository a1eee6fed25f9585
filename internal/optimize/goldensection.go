package optimize

import "context"

// invPhi and invPhi2 are the golden-ratio reduction constants; they let
// golden-section search reuse one of the two interior evaluations between
// iterations instead of recomputing both, grounded on original_source's
// src/arb/optimization/golden_section.rs.
const (
	invPhi  = 0.6180339887498949
	invPhi2 = 0.3819660112501051
)

type GoldenSection struct{}

func (GoldenSection) Name() string { return "golden_section" }

func (GoldenSection) Maximize(ctx context.Context, f ObjectiveFunc, lo, hi int64, epsilon int64) (int64, int64) {
	a, b := float64(lo), float64(hi)
	h := b - a
	if h <= float64(epsilon) {
		x := lo + (hi-lo)/2
		return x, f(ctx, x)
	}

	c := a + invPhi2*h
	d := a + invPhi*h
	fc := f(ctx, int64(c))
	fd := f(ctx, int64(d))

	bestX, bestFx := lo, f(ctx, lo)
	if fc > bestFx {
		bestX, bestFx = int64(c), fc
	}
	if fd > bestFx {
		bestX, bestFx = int64(d), fd
	}

	const maxIter = 128
	for iter := 0; h > float64(epsilon) && iter < maxIter; iter++ {
		if ctx.Err() != nil {
			break
		}
		if fc > fd {
			b = d
			d = c
			fd = fc
			h = b - a
			c = a + invPhi2*h
			fc = f(ctx, int64(c))
		} else {
			a = c
			c = d
			fc = fd
			h = b - a
			d = a + invPhi*h
			fd = f(ctx, int64(d))
		}
		if fc > bestFx {
			bestX, bestFx = int64(c), fc
		}
		if fd > bestFx {
			bestX, bestFx = int64(d), fd
		}
	}
	return bestX, bestFx
}
