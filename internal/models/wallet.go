// internal/models/wallet.go
package models

import "time"

// WalletRecord is the registry entry of a wallet. Key material is never part of it.
type WalletRecord struct {
	ID        string    `json:"id"`
	Address   string    `json:"address"`
	NetworkID string    `json:"networkId"`
	CreatedAt time.Time `json:"createdAt"`
}

// FaucetResult is the transaction funded by a faucet request.
type FaucetResult struct {
	WalletID        string `json:"walletId"`
	Address         string `json:"address"`
	TransactionHash string `json:"transactionHash"`
	TransactionLink string `json:"transactionLink,omitempty"`
}
