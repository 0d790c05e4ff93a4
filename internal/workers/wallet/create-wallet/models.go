// internal/workers/wallet/create-wallet/models.go
package createwallet

import "agentkit-workers/internal/models"

type Input struct {
	NetworkID     string `json:"networkId,omitempty"`
	EncryptSeed   bool   `json:"encryptSeed"`
	RequestFaucet bool   `json:"requestFaucet"`
}

type Output struct {
	Wallet   models.WalletRecord  `json:"wallet"`
	SeedFile string               `json:"seedFile"`
	Faucet   *models.FaucetResult `json:"faucet,omitempty"`
}
