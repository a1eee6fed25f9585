package curve

import (
	"encoding/binary"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/solarb/engine/internal/types"
)

// CPMMSnapshot is the Snapshot installed for a constant-product pool key
// (Raydium-style AMM v4, grounded on core/liquidity_pools.go's fee-on-input
// Swap and SolRoute's Raydium AMMPool.Quote). The pool account itself only
// carries the mints, the fee schedule and the two vault keys; reserves live
// in the vault token accounts as separate cache entries and are filled in by
// Resolve at read time.
type CPMMSnapshot struct {
	PoolKey types.AccountKey
	MintA   types.AccountKey
	MintB   types.AccountKey
	VaultA  types.AccountKey
	VaultB  types.AccountKey

	FeeNumerator   uint64
	FeeDenominator uint64

	// ReserveA/ReserveB are populated by Resolve from the current vault
	// balances. They are nil on the copy installed directly by ingest.
	ReserveA *uint256.Int
	ReserveB *uint256.Int
}

func (CPMMSnapshot) Kind() types.AccountKind { return types.KindPoolConstantProduct }

const (
	cpmmAccountLen = 1 + 32 + 32 + 32 + 32 + 8 + 8

	cpmmMintAOffset  = 1
	cpmmMintBOffset  = cpmmMintAOffset + 32
	cpmmVaultAOffset = cpmmMintBOffset + 32
	cpmmVaultBOffset = cpmmVaultAOffset + 32
	cpmmFeeNumOffset = cpmmVaultBOffset + 32
	cpmmFeeDenOffset = cpmmFeeNumOffset + 8
)

// DecodeCPMM decodes a constant-product pool account's raw bytes into its
// static fields. Reserves are left nil; callers resolve them via Resolve.
func DecodeCPMM(poolKey types.AccountKey, data []byte) (CPMMSnapshot, error) {
	if len(data) < cpmmAccountLen {
		return CPMMSnapshot{}, fmt.Errorf("curve: cpmm account too short: %d < %d", len(data), cpmmAccountLen)
	}
	var snap CPMMSnapshot
	snap.PoolKey = poolKey
	copy(snap.MintA[:], data[cpmmMintAOffset:cpmmMintAOffset+32])
	copy(snap.MintB[:], data[cpmmMintBOffset:cpmmMintBOffset+32])
	copy(snap.VaultA[:], data[cpmmVaultAOffset:cpmmVaultAOffset+32])
	copy(snap.VaultB[:], data[cpmmVaultBOffset:cpmmVaultBOffset+32])
	snap.FeeNumerator = binary.LittleEndian.Uint64(data[cpmmFeeNumOffset : cpmmFeeNumOffset+8])
	snap.FeeDenominator = binary.LittleEndian.Uint64(data[cpmmFeeDenOffset : cpmmFeeDenOffset+8])
	return snap, nil
}

// Resolve fills in ReserveA/ReserveB from the vault accounts' current cached
// balances, returning a new value (spec.md §3: snapshots are copy-on-read).
func (s CPMMSnapshot) Resolve(lookup Lookup) (types.Snapshot, error) {
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

func resolveVaultBalance(lookup Lookup, vault types.AccountKey) (uint64, error) {
	snap, ok := lookup(vault)
	if !ok {
		return 0, ErrZeroLiquidity
	}
	tok, ok := snap.(interface{ TokenAmount() uint64 })
	if ok {
		return tok.TokenAmount(), nil
	}
	return 0, fmt.Errorf("curve: vault %s snapshot does not expose a token amount", vault)
}

func (s CPMMSnapshot) reservesFor(mintIn types.AccountKey) (in, out *uint256.Int, mintOut types.AccountKey, err error) {
	switch mintIn {
	case s.MintA:
		return s.ReserveA, s.ReserveB, s.MintB, nil
	case s.MintB:
		return s.ReserveB, s.ReserveA, s.MintA, nil
	default:
		return nil, nil, types.AccountKey{}, ErrMintNotInPool
	}
}

type cpmmCurve struct{}

func (cpmmCurve) Kind() types.AccountKind { return types.KindPoolConstantProduct }

func (cpmmCurve) RequiresNativeLiquidityFloor() bool { return true }

func (cpmmCurve) Price(snap types.Snapshot, baseMint types.AccountKey) (float64, types.AccountKey, error) {
	s, ok := snap.(CPMMSnapshot)
	if !ok {
		return 0, types.AccountKey{}, ErrWrongSnapshot
	}
	reserveIn, reserveOut, quoteMint, err := s.reservesFor(baseMint)
	if err != nil {
		return 0, types.AccountKey{}, err
	}
	if reserveIn == nil || reserveOut == nil || reserveIn.IsZero() {
		return 0, types.AccountKey{}, ErrZeroLiquidity
	}
	rate := ratioFloat64(reserveOut, reserveIn)
	return rate, quoteMint, nil
}

func (cpmmCurve) Quote(snap types.Snapshot, _ types.ClockSnapshot, amountIn uint64, mintIn types.AccountKey) (uint64, error) {
	s, ok := snap.(CPMMSnapshot)
	if !ok {
		return 0, ErrWrongSnapshot
	}
	reserveIn, reserveOut, _, err := s.reservesFor(mintIn)
	if err != nil {
		return 0, err
	}
	if reserveIn == nil || reserveOut == nil {
		return 0, ErrZeroLiquidity
	}
	if reserveIn.IsZero() || reserveOut.IsZero() {
		return 0, ErrZeroLiquidity
	}
	if s.FeeDenominator == 0 {
		return 0, ErrOverflow
	}

	amtIn := uint256.NewInt(amountIn)
	feeNum := uint256.NewInt(s.FeeNumerator)
	feeDen := uint256.NewInt(s.FeeDenominator)

	// Fee is charged on input, rounded down, per spec.md §4.1 for
	// fee-on-input kinds (core/liquidity_pools.go's Swap does the same).
	amtInAfterFee, overflow := new(uint256.Int).MulDivOverflow(amtIn, new(uint256.Int).Sub(feeDen, feeNum), feeDen)
	if overflow {
		return 0, ErrOverflow
	}

	numerator, overflow := new(uint256.Int).MulOverflow(amtInAfterFee, reserveOut)
	if overflow {
		return 0, ErrOverflow
	}
	denominator, overflow := new(uint256.Int).AddOverflow(reserveIn, amtInAfterFee)
	if overflow {
		return 0, ErrOverflow
	}
	if denominator.IsZero() {
		return 0, ErrZeroLiquidity
	}
	out := new(uint256.Int).Div(numerator, denominator)
	if !out.IsUint64() {
		return 0, ErrOverflow
	}
	return out.Uint64(), nil
}

func (cpmmCurve) OtherMint(snap types.Snapshot, mint types.AccountKey) (types.AccountKey, error) {
	s, ok := snap.(CPMMSnapshot)
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
	Register(cpmmCurve{})
}
