package curve

import (
	"math/big"

	"github.com/holiman/uint256"
)

// ratioFloat64 approximates num/den as a float64, the precision spec.md's
// price-field consumers (route discovery heuristics, logging) actually need.
// The CLMM and DLMM Quote paths also compute their swap steps in float64;
// the CPMM, bonding-curve and stable Quote paths stay in integer arithmetic.
func ratioFloat64(num, den *uint256.Int) float64 {
	if den == nil || den.IsZero() || num == nil {
		return 0
	}
	n := new(big.Float).SetInt(num.ToBig())
	d := new(big.Float).SetInt(den.ToBig())
	f, _ := new(big.Float).Quo(n, d).Float64()
	return f
}
