package sender

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/solarb/engine/internal/types"
)

// swapInstructionTag is the shared instruction discriminant byte this
// engine sends to whichever AMM program owns a given hop's pool, with the
// account list ordered (pool, mintA, mintB, owner) and an 8-byte
// little-endian amountIn following the tag. No program-specific accounts
// (tick arrays for CLMM, bin arrays for DLMM) are appended to that list.
const swapInstructionTag byte = 0x09

// buildSwapInstructions builds one instruction per hop of candidate's
// route, in order.
func (s *Sender) buildSwapInstructions(candidate types.RouteCandidate) ([]solana.Instruction, error) {
	owner := s.wallet.PublicKey()
	out := make([]solana.Instruction, 0, len(candidate.Swap.Pools))

	mint := candidate.Swap.Mint
	amountIn := uint64(candidate.Swap.AmountIn)
	for _, pool := range candidate.Swap.Pools {
		other, ok := pool.OtherMint(mint)
		if !ok {
			return nil, fmt.Errorf("sender: pool %s does not connect to mint %s", pool.PoolKey, mint)
		}
		ix := newSwapInstruction(pool, owner, amountIn)
		out = append(out, ix)
		mint = other
		// Downstream hop amounts are determined on-chain by the program's
		// own accounting; this engine only needs to supply the first
		// instruction's amountIn accurately for re-quote parity.
		amountIn = 0
	}
	return out, nil
}

func newSwapInstruction(pool types.TokenPool, owner solana.PublicKey, amountIn uint64) solana.Instruction {
	data := make([]byte, 9)
	data[0] = swapInstructionTag
	for i := 0; i < 8; i++ {
		data[1+i] = byte(amountIn >> (8 * i))
	}
	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(pool.PoolKey, true, false),
		solana.NewAccountMeta(pool.MintA, false, false),
		solana.NewAccountMeta(pool.MintB, false, false),
		solana.NewAccountMeta(owner, true, true),
	}
	return solana.NewInstruction(programForKind(pool.Kind), accounts, data)
}

// sendTransaction assembles a legacy transaction from ixs, signs it, and
// submits it with preflight skipped — re-quoting in submit already serves
// the purpose preflight simulation would, and skipping it shaves the
// latency that matters most for an arbitrage route (spec.md §4.9).
func (s *Sender) sendTransaction(ctx context.Context, ixs []solana.Instruction) error {
	recent, err := s.rpc.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return fmt.Errorf("sender: fetching blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(ixs, recent.Value.Blockhash, solana.TransactionPayer(s.wallet.PublicKey()))
	if err != nil {
		return fmt.Errorf("sender: building transaction: %w", err)
	}

	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(s.wallet.PublicKey()) {
			return &s.wallet.PrivateKey
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("sender: signing transaction: %w", err)
	}

	sig, err := s.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{SkipPreflight: true})
	if err != nil {
		return fmt.Errorf("sender: submitting transaction: %w", err)
	}
	s.log.WithField("sig", sig.String()).Info("sender: transaction submitted")
	return nil
}
