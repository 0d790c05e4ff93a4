// internal/workers/wallet/request-faucet/models.go
package requestfaucet

import "agentkit-workers/internal/models"

type Input struct {
	WalletID string `json:"walletId"`
}

type Output struct {
	Faucet models.FaucetResult `json:"faucet"`
}
