package sender

import (
	"github.com/gagliardetto/solana-go"

	"github.com/solarb/engine/internal/types"
)

// Well-known AMM program IDs, grounded on other_examples'
// aman-zulfiqar-solana-swap-indexer constants.go.
var (
	raydiumAMMV4Program = solana.MustPublicKeyFromBase58("675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8")
	whirlpoolProgram     = solana.MustPublicKeyFromBase58("whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc")
	meteoraDLMMProgram   = solana.MustPublicKeyFromBase58("LBUZKhRxPF3XUpBCjp4YzTKgLccjZhTSDM9YcPyuZeZ")
	pumpFunProgram       = solana.MustPublicKeyFromBase58("6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P")
	stableSwapProgram    = solana.MustPublicKeyFromBase58("SSwpkEEcbUqx4vtoEByFjSkhKdCT0XEnFr9D8a8uNj6")
)

func programForKind(kind types.AccountKind) solana.PublicKey {
	switch kind {
	case types.KindPoolConstantProduct:
		return raydiumAMMV4Program
	case types.KindPoolConcentratedLiquidity:
		return whirlpoolProgram
	case types.KindPoolDiscretizedBin:
		return meteoraDLMMProgram
	case types.KindPoolBondingCurve:
		return pumpFunProgram
	case types.KindPoolStable:
		return stableSwapProgram
	default:
		return solana.PublicKey{}
	}
}
