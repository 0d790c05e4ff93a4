// Package wallet creates chain wallets, persists their seeds and keeps a registry of them.
package wallet

import (
	"crypto/ecdsa"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"

	"agentkit-workers/internal/models"
)

// Wallet is a registry record together with its signing key. The key is nil for a
// wallet fetched from the registry until its seed is loaded.
type Wallet struct {
	models.WalletRecord
	key *ecdsa.PrivateKey
}

// Create generates a fresh key for networkID.
func Create(networkID string) (*Wallet, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return &Wallet{
		WalletRecord: models.WalletRecord{
			ID:        uuid.NewString(),
			Address:   crypto.PubkeyToAddress(key.PublicKey).Hex(),
			NetworkID: networkID,
			CreatedAt: time.Now().UTC(),
		},
		key: key,
	}, nil
}

// FromRecord returns a wallet without key material.
func FromRecord(rec models.WalletRecord) *Wallet {
	return &Wallet{WalletRecord: rec}
}

// Key returns the signing key, or nil when the seed has not been loaded.
func (w *Wallet) Key() *ecdsa.PrivateKey {
	return w.key
}

// HasSeed reports whether the wallet can sign.
func (w *Wallet) HasSeed() bool {
	return w.key != nil
}
