package curve

import (
	"encoding/binary"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/solarb/engine/internal/types"
)

// StableSnapshot is the Snapshot installed for a stable-swap pool key
// (Curve-style invariant, two-sided, equal decimals assumed per spec.md's
// scope). AmplificationCoefficient is the pool's "A" parameter; reserves
// live in vault satellites exactly like the constant-product kind.
type StableSnapshot struct {
	PoolKey types.AccountKey
	MintA   types.AccountKey
	MintB   types.AccountKey
	VaultA  types.AccountKey
	VaultB  types.AccountKey

	AmplificationCoefficient uint64
	FeeBps                   uint16

	ReserveA *uint256.Int
	ReserveB *uint256.Int
}

func (StableSnapshot) Kind() types.AccountKind { return types.KindPoolStable }

const stableAccountLen = 1 + 32 + 32 + 32 + 32 + 8 + 2

func DecodeStable(poolKey types.AccountKey, data []byte) (StableSnapshot, error) {
	if len(data) < stableAccountLen {
		return StableSnapshot{}, fmt.Errorf("curve: stable account too short: %d < %d", len(data), stableAccountLen)
	}
	var snap StableSnapshot
	snap.PoolKey = poolKey
	off := 1
	copy(snap.MintA[:], data[off:off+32])
	off += 32
	copy(snap.MintB[:], data[off:off+32])
	off += 32
	copy(snap.VaultA[:], data[off:off+32])
	off += 32
	copy(snap.VaultB[:], data[off:off+32])
	off += 32
	snap.AmplificationCoefficient = binary.LittleEndian.Uint64(data[off : off+8])
	off += 8
	snap.FeeBps = binary.LittleEndian.Uint16(data[off : off+2])
	return snap, nil
}

func (s StableSnapshot) Resolve(lookup Lookup) (types.Snapshot, error) {
	a, err := resolveVaultBalance(lookup, s.VaultA)
	if err != nil {
		return nil, err
	}
	b, err := resolveVaultBalance(lookup, s.VaultB)
	if err != nil {
		return nil, err
	}
	s.ReserveA = uint256.NewInt(a)
	s.ReserveB = uint256.NewInt(b)
	return s, nil
}

func (s StableSnapshot) reservesFor(mintIn types.AccountKey) (in, out *uint256.Int, err error) {
	switch mintIn {
	case s.MintA:
		return s.ReserveA, s.ReserveB, nil
	case s.MintB:
		return s.ReserveB, s.ReserveA, nil
	default:
		return nil, nil, ErrMintNotInPool
	}
}

type stableCurve struct{}

func (stableCurve) Kind() types.AccountKind { return types.KindPoolStable }

func (stableCurve) RequiresNativeLiquidityFloor() bool { return false }

func (stableCurve) Price(snap types.Snapshot, baseMint types.AccountKey) (float64, types.AccountKey, error) {
	s, ok := snap.(StableSnapshot)
	if !ok {
		return 0, types.AccountKey{}, ErrWrongSnapshot
	}
	in, out, err := s.reservesFor(baseMint)
	if err != nil {
		return 0, types.AccountKey{}, err
	}
	if in == nil || out == nil || in.IsZero() {
		return 0, types.AccountKey{}, ErrZeroLiquidity
	}
	quoteMint := s.MintB
	if baseMint == s.MintB {
		quoteMint = s.MintA
	}
	return ratioFloat64(out, in), quoteMint, nil
}

// Quote computes the output of the StableSwap invariant
// A*n^n*sum(x) + D = A*D*n^n + D^(n+1) / (n^n * prod(x))
// for n=2 via the standard Newton iteration on the new balance of the
// output side, rounding the final result down (spec.md §4.1). Grounded on
// the Curve-style invariant solver every stable-swap fork implements; no
// single example repo in the pack carries one verbatim, so this follows the
// textbook iteration used across the ecosystem (Saber/Mercurial-style
// Solana stable pools).
func (stableCurve) Quote(snap types.Snapshot, _ types.ClockSnapshot, amountIn uint64, mintIn types.AccountKey) (uint64, error) {
	s, ok := snap.(StableSnapshot)
	if !ok {
		return 0, ErrWrongSnapshot
	}
	reserveIn, reserveOut, err := s.reservesFor(mintIn)
	if err != nil {
		return 0, err
	}
	if reserveIn == nil || reserveOut == nil || reserveIn.IsZero() || reserveOut.IsZero() {
		return 0, ErrZeroLiquidity
	}
	if !reserveIn.IsUint64() || !reserveOut.IsUint64() {
		return 0, ErrOverflow
	}

	x0 := reserveIn.Uint64()
	y0 := reserveOut.Uint64()
	amp := s.AmplificationCoefficient
	if amp == 0 {
		return 0, ErrOverflow
	}

	d := stableInvariant(amp, x0, y0)
	if d == 0 {
		return 0, ErrZeroLiquidity
	}

	amtInAfterFee := amountIn - amountIn*uint64(s.FeeBps)/10_000
	newX := x0 + amtInAfterFee
	newY := stableSolveY(amp, newX, d)
	if newY >= y0 {
		return 0, ErrPriceRange
	}
	out := y0 - newY
	return out, nil
}

// stableInvariant solves for D given balances x, y and amplification amp,
// n=2, via Newton's method starting from the sum of balances.
func stableInvariant(amp, x, y uint64) uint64 {
	s := x + y
	if s == 0 {
		return 0
	}
	d := s
	ann := amp * 4 // A * n^n, n=2
	for i := 0; i < 255; i++ {
		dP := d * d / x * d / y / 4
		prevD := d
		numerator := (ann*s + dP*2) * d
		denominator := (ann-1)*d + 3*dP
		if denominator == 0 {
			break
		}
		d = numerator / denominator
		if d > prevD && d-prevD <= 1 {
			break
		}
		if d <= prevD && prevD-d <= 1 {
			break
		}
	}
	return d
}

// stableSolveY solves for the new balance of the output side given the new
// balance of the input side and the invariant D, via Newton's method.
func stableSolveY(amp, newX, d uint64) uint64 {
	ann := amp * 4
	// c = D^3 / (4 * newX * A*n^n), b = newX + D/(A*n^n)
	c := d * d / (newX * 2) * d / (ann * 2)
	b := newX + d/ann
	y := d
	for i := 0; i < 255; i++ {
		prevY := y
		numerator := y*y + c
		denominator := 2*y + b - d
		if denominator == 0 {
			break
		}
		y = numerator / denominator
		if y > prevY && y-prevY <= 1 {
			break
		}
		if y <= prevY && prevY-y <= 1 {
			break
		}
	}
	return y
}

func (stableCurve) OtherMint(snap types.Snapshot, mint types.AccountKey) (types.AccountKey, error) {
	s, ok := snap.(StableSnapshot)
	if !ok {
		return types.AccountKey{}, ErrWrongSnapshot
	}
	other, ok := (types.TokenPool{MintA: s.MintA, MintB: s.MintB}).OtherMint(mint)
	if !ok {
		return types.AccountKey{}, ErrMintNotInPool
	}
	return other, nil
}

func init() {
	Register(stableCurve{})
}
