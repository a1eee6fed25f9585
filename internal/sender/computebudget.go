package sender

import "github.com/gagliardetto/solana-go"

// computeBudgetProgram is Solana's native ComputeBudget111... program; its
// instruction tags and argument widths are part of the runtime ABI, not an
// account layout, so they're reproduced here directly rather than through a
// library.
var computeBudgetProgram = solana.MustPublicKeyFromBase58("ComputeBudget111111111111111111111111111111")

const (
	computeBudgetTagSetLimit byte = 2
	computeBudgetTagSetPrice byte = 3
)

// microPriceTier is one row of spec.md §4.9's compute-unit-price table: a
// profit ceiling (exclusive) and the microprice a profit below it earns.
// Rows are checked in order; the last row (profitCeiling == 0) is the
// catch-all ">= 5e9 -> 1e6".
type microPriceTier struct {
	profitCeiling int64 // 0 means "no ceiling, catch-all"
	microPrice    uint64
}

var microPriceTable = []microPriceTier{
	{50_000, 5_000},
	{1_000_000, 10_000},
	{5_000_000, 15_000},
	{50_000_000, 20_000},
	{100_000_000, 50_000},
	{500_000_000, 200_000},
	{1_000_000_000, 500_000},
	{5_000_000_000, 800_000},
	{0, 1_000_000},
}

// computeUnitPriceForProfit maps a candidate's profit (in base units) to the
// micro-lamport compute-unit price spec.md §4.9's table specifies, so a more
// profitable route bids more aggressively for block inclusion.
func computeUnitPriceForProfit(profit int64) uint64 {
	for _, tier := range microPriceTable {
		if tier.profitCeiling == 0 || profit < tier.profitCeiling {
			return tier.microPrice
		}
	}
	return microPriceTable[len(microPriceTable)-1].microPrice
}

// computeUnitLimitFor sizes the compute-unit limit per spec.md §4.9: a
// pseudo-random base in [300000, 350000] plus 120000 per hop beyond two,
// plus 80000 more when the transaction is flash-loan wrapped. randFrac must
// be in [0,1) and is supplied by the caller (time-seeded) since this
// package's math must stay deterministic and side-effect free for testing.
func computeUnitLimitFor(hops int, useFlashLoan bool, randFrac float64) uint32 {
	base := uint32(300_000 + randFrac*50_000)
	if hops > 2 {
		base += uint32(120_000 * (hops - 2))
	}
	if useFlashLoan {
		base += 80_000
	}
	return base
}

// newComputeBudgetInstruction builds a ComputeBudget instruction carrying a
// little-endian integer argument of the given byte width (4 for the u32
// unit limit, 8 for the u64 micro-lamport price).
func newComputeBudgetInstruction(tag byte, value uint64, width int) solana.Instruction {
	data := make([]byte, 1+width)
	data[0] = tag
	for i := 0; i < width; i++ {
		data[1+i] = byte(value >> (8 * i))
	}
	return solana.NewInstruction(computeBudgetProgram, solana.AccountMetaSlice{}, data)
}
