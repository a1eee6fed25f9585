// Package wallet loads the engine's signing keypair from disk, the same
// JSON-array-of-bytes format the Solana CLI writes and solana-go's
// PrivateKeyFromSolanaKeygenFile already parses.
package wallet

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Wallet holds the loaded keypair used to sign every transaction this
// engine submits.
type Wallet struct {
	PrivateKey solana.PrivateKey
}

// Load reads a Solana CLI keypair JSON file from path.
func Load(path string) (*Wallet, error) {
	pk, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, fmt.Errorf("wallet: loading keypair from %s: %w", path, err)
	}
	return &Wallet{PrivateKey: pk}, nil
}

func (w *Wallet) PublicKey() solana.PublicKey {
	return w.PrivateKey.PublicKey()
}
