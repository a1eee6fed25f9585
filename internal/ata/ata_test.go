package ata

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"

	"github.com/solarb/engine/internal/types"
)

func key(b byte) types.AccountKey {
	var k types.AccountKey
	k[0] = b
	return k
}

func TestCreateInstructionBuildsValidInstruction(t *testing.T) {
	payer := solana.PublicKey(key(1))
	owner := solana.PublicKey(key(2))
	mint := key(3)

	ix, err := CreateInstruction(payer, owner, mint)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := ix.Data()
	if err != nil {
		t.Fatalf("unexpected error reading instruction data: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("expected the create-idempotent instruction to carry data")
	}
	if ix.ProgramID().IsZero() {
		t.Fatalf("expected a non-zero associated-token-account program id")
	}
}

// TestEnsureShortCircuitsWhenAlreadyDone covers the cache-hit path of Ensure,
// which never touches the mailbox/RPC client at all -- exercising it doesn't
// require a live *rpc.Client.
func TestEnsureShortCircuitsWhenAlreadyDone(t *testing.T) {
	w := &Worker{
		mailbox:  make(chan request, 1),
		done:     make(map[solana.PublicKey]struct{}),
		inFlight: make(map[solana.PublicKey]struct{}),
	}
	owner := solana.PublicKey(key(1))
	mint := key(2)
	ataKey, _, err := solana.FindAssociatedTokenAddress(owner, solana.PublicKey(mint))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w.done[ataKey] = struct{}{}

	if err := w.Ensure(context.Background(), owner, mint); err != nil {
		t.Fatalf("expected a cached ATA to short-circuit without error, got %v", err)
	}
	select {
	case <-w.mailbox:
		t.Fatalf("expected Ensure to never enqueue a request for an already-done ATA")
	default:
	}
}

func TestEnsureRespectsContextCancellationWhenMailboxFull(t *testing.T) {
	w := &Worker{
		mailbox:  make(chan request), // unbuffered, nothing draining it
		done:     make(map[solana.PublicKey]struct{}),
		inFlight: make(map[solana.PublicKey]struct{}),
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := w.Ensure(ctx, solana.PublicKey(key(1)), key(2)); err == nil {
		t.Fatalf("expected a cancelled context to surface an error rather than block forever")
	}
}
