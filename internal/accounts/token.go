// Package accounts decodes the generic SPL account layouts (token accounts,
// mints) that almost every pool kind depends on as satellites, independent of
// which AMM program owns the pool itself. The offsets mirror the ones
// SolRoute's Raydium pool reads directly out of raw account bytes
// (`result.Data.GetBinary()[64:72]` for a token account's amount field), kept
// here as named constants instead of magic numbers scattered through curve
// code.
package accounts

import (
	"encoding/binary"
	"fmt"

	"github.com/solarb/engine/internal/types"
)

const (
	tokenAccountLen = 165
	mintAccountLen  = 82

	tokenAccountAmountOffset = 64
	tokenAccountMintOffset   = 0
	tokenAccountOwnerOffset  = 32
)

// TokenAccountSnapshot is the decoded form of an SPL token account — used
// both as a pool's ReserveVault satellite and as a plain TokenAccount kind.
type TokenAccountSnapshot struct {
	Mint   types.AccountKey
	Owner  types.AccountKey
	Amount uint64
}

func (TokenAccountSnapshot) Kind() types.AccountKind { return types.KindTokenAccount }

// TokenAmount lets curve implementations treat any vault satellite uniformly
// without importing this package's concrete type (see curve.Resolve).
func (s TokenAccountSnapshot) TokenAmount() uint64 { return s.Amount }

// DecodeTokenAccount decodes an SPL token account's raw bytes.
func DecodeTokenAccount(data []byte) (TokenAccountSnapshot, error) {
	if len(data) < tokenAccountLen {
		return TokenAccountSnapshot{}, fmt.Errorf("accounts: token account too short: %d < %d", len(data), tokenAccountLen)
	}
	var snap TokenAccountSnapshot
	copy(snap.Mint[:], data[tokenAccountMintOffset:tokenAccountMintOffset+32])
	copy(snap.Owner[:], data[tokenAccountOwnerOffset:tokenAccountOwnerOffset+32])
	snap.Amount = binary.LittleEndian.Uint64(data[tokenAccountAmountOffset : tokenAccountAmountOffset+8])
	return snap, nil
}

// MintSnapshot is the decoded form of an SPL mint account.
type MintSnapshot struct {
	Supply   uint64
	Decimals uint8
}

func (MintSnapshot) Kind() types.AccountKind { return types.KindMintAccount }

// DecodeMint decodes an SPL mint account's raw bytes.
func DecodeMint(data []byte) (MintSnapshot, error) {
	if len(data) < mintAccountLen {
		return MintSnapshot{}, fmt.Errorf("accounts: mint account too short: %d < %d", len(data), mintAccountLen)
	}
	return MintSnapshot{
		Supply:   binary.LittleEndian.Uint64(data[36:44]),
		Decimals: data[44],
	}, nil
}

// ReserveAccountSnapshot models a pool's own native-liquidity reserve
// bookkeeping account (spec.md §3's "ReserveAccount (vault holding pool
// liquidity)"), distinct from a plain SPL TokenAccount wherever a program
// wraps the vault balance with extra accounting fields. Engines that need no
// extra fields beyond the token account itself simply reuse
// TokenAccountSnapshot and never populate this type.
type ReserveAccountSnapshot struct {
	TokenAccountSnapshot
	PendingWithdrawals uint64
}

func (ReserveAccountSnapshot) Kind() types.AccountKind { return types.KindReserveAccount }
