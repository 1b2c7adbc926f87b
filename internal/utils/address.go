package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// EscrowAddress generates a synthetic escrow account identifier in the
// address format native to the traded asset. No on-chain account is created;
// the identifier is opaque to the engines.
func EscrowAddress(currency string) (string, error) {
	switch currency {
	case "SOL", "USDC", "PUMP":
		key, err := solana.NewRandomPrivateKey()
		if err != nil {
			return "", fmt.Errorf("failed to generate escrow keypair: %w", err)
		}
		return key.PublicKey().String(), nil
	default:
		buf := make([]byte, 20)
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to generate escrow address: %w", err)
		}
		return "0x" + hex.EncodeToString(buf), nil
	}
}
