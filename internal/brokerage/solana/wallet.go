package solana

import (
	"errors"
	"os"

	solana "github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
)

// PrivateKeyEnv names the variable holding the wallet's base58 private key.
const PrivateKeyEnv = "SOLANA_PRIVATE_KEY_BASE58"

// LoadPrivateKeyFromEnv reads the wallet key, loading a .env file first when present.
func LoadPrivateKeyFromEnv() (solana.PrivateKey, error) {
	_ = godotenv.Load() // best-effort
	b58 := os.Getenv(PrivateKeyEnv)
	if b58 == "" {
		return nil, errors.New(PrivateKeyEnv + " not set")
	}
	return solana.PrivateKeyFromBase58(b58)
}

// ResolveOwner parses owner as a public key, falling back to the key in the environment.
func ResolveOwner(owner string) (solana.PublicKey, error) {
	if owner != "" {
		return solana.PublicKeyFromBase58(owner)
	}
	key, err := LoadPrivateKeyFromEnv()
	if err != nil {
		return solana.PublicKey{}, err
	}
	return key.PublicKey(), nil
}
