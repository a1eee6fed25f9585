package optimize

import (
	"context"
	"math"
)

// Brent combines golden-section steps with parabolic interpolation,
// grounded on original_source's src/arb/optimization/brent_method.rs (itself
// the standard Brent/Fibonacci hybrid). It is the default strategy
// (config.OptimizationMethod "brent_method") because it converges superlinearly
// near the optimum while still falling back to a golden-section step
// whenever the parabolic guess is untrustworthy.
type Brent struct{}

func (Brent) Name() string { return "brent" }

const brentGoldenRatio = 0.3819660112501051

func (Brent) Maximize(ctx context.Context, f ObjectiveFunc, lo, hi int64, epsilon int64) (int64, int64) {
	a, b := float64(lo), float64(hi)
	x := a + brentGoldenRatio*(b-a)
	w, v := x, x
	fx := float64(f(ctx, int64(x)))
	fw, fv := fx, fx

	bestX, bestFx := int64(x), int64(fx)
	update := func(candidate, fCandidate float64) {
		if fCandidate > float64(bestFx) {
			bestX, bestFx = int64(candidate), int64(fCandidate)
		}
	}

	d, e := 0.0, 0.0
	const maxIter = 100
	tol := float64(epsilon)
	if tol <= 0 {
		tol = 1
	}

	for i := 0; i < maxIter; i++ {
		if ctx.Err() != nil {
			break
		}
		m := 0.5 * (a + b)
		tol1 := tol
		tol2 := 2 * tol1
		if math.Abs(x-m) <= tol2-0.5*(b-a) {
			break
		}

		useGolden := true
		if math.Abs(e) > tol1 {
			// Parabolic interpolation through (x,fx), (w,fw), (v,fv) —
			// maximizing, so the sign conventions are flipped from the
			// textbook minimizing derivation.
			r := (x - w) * (fx - fv)
			q := (x - v) * (fx - fw)
			p := (x-v)*q - (x-w)*r
			q2 := 2 * (q - r)
			if q2 > 0 {
				p = -p
			}
			q2 = math.Abs(q2)
			etemp := e
			e = d
			if math.Abs(p) < math.Abs(0.5*q2*etemp) && p > q2*(a-x) && p < q2*(b-x) {
				d = p / q2
				u := x + d
				if u-a < tol2 || b-u < tol2 {
					d = math.Copysign(tol1, m-x)
				}
				useGolden = false
			}
		}
		if useGolden {
			if x < m {
				e = b - x
			} else {
				e = a - x
			}
			d = brentGoldenRatio * e
		}

		var u float64
		if math.Abs(d) >= tol1 {
			u = x + d
		} else {
			u = x + math.Copysign(tol1, d)
		}
		fu := float64(f(ctx, int64(u)))
		update(u, fu)

		if fu >= fx {
			if u < x {
				b = x
			} else {
				a = x
			}
			v, fv = w, fw
			w, fw = x, fx
			x, fx = u, fu
		} else {
			if u < x {
				a = u
			} else {
				b = u
			}
			if fu >= fw || w == x {
				v, fv = w, fw
				w, fw = u, fu
			} else if fu >= fv || v == x || v == w {
				v, fv = u, fu
			}
		}
	}
	return bestX, bestFx
}
