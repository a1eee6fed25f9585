package flashloan

import (
	"testing"

	"github.com/gagliardetto/solana-go"

	"github.com/solarb/engine/internal/types"
)

func key(b byte) types.AccountKey {
	var k types.AccountKey
	k[0] = b
	return k
}

func TestWrapPrependsBorrowAndAppendsRepay(t *testing.T) {
	w := New(Provider{Name: "test", ProgramID: key(99)})
	swapIxs := []solana.Instruction{
		solana.NewInstruction(key(50), solana.AccountMetaSlice{}, []byte{1}),
		solana.NewInstruction(key(51), solana.AccountMetaSlice{}, []byte{2}),
	}

	out, err := w.Wrap(swapIxs, key(1), key(2), 1_000_000, 30, key(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != len(swapIxs)+2 {
		t.Fatalf("expected borrow + swaps + repay, got %d instructions", len(out))
	}

	borrowData, err := out[0].Data()
	if err != nil {
		t.Fatalf("unexpected error reading borrow data: %v", err)
	}
	if borrowData[0] != flashLoanTagBorrow {
		t.Fatalf("expected the first instruction to carry the borrow tag")
	}

	repayData, err := out[len(out)-1].Data()
	if err != nil {
		t.Fatalf("unexpected error reading repay data: %v", err)
	}
	if repayData[0] != flashLoanTagRepay {
		t.Fatalf("expected the last instruction to carry the repay tag")
	}
}

func TestWrapRepayIncludesFee(t *testing.T) {
	w := New(Provider{Name: "test", ProgramID: key(99)})
	out, err := w.Wrap(nil, key(1), key(2), 1_000_000, 100, key(3)) // 1% fee
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	repayData, err := out[len(out)-1].Data()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var repayAmount uint64
	for i := 0; i < 8; i++ {
		repayAmount |= uint64(repayData[1+i]) << (8 * i)
	}
	if repayAmount != 1_010_000 {
		t.Fatalf("expected repay amount of 1010000 (1%% fee on 1000000), got %d", repayAmount)
	}
}

func TestWrapRejectsZeroAmount(t *testing.T) {
	w := New(Provider{Name: "test", ProgramID: key(99)})
	if _, err := w.Wrap(nil, key(1), key(2), 0, 30, key(3)); err == nil {
		t.Fatalf("expected an error when borrowing zero")
	}
}
