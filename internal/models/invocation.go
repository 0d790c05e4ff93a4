// internal/models/invocation.go
package models

import "time"

const (
	InvocationPending   = "pending"
	InvocationConfirmed = "confirmed"
	InvocationReverted  = "reverted"
	InvocationFailed    = "failed"
)

// Invocation is one contract method call and its on-chain outcome.
type Invocation struct {
	ID              string                 `json:"id"`
	WalletID        string                 `json:"walletId"`
	ContractAddress string                 `json:"contractAddress"`
	Method          string                 `json:"method"`
	Args            map[string]interface{} `json:"args"`
	TxHash          string                 `json:"txHash,omitempty"`
	Status          string                 `json:"status"`
	BlockNumber     uint64                 `json:"blockNumber,omitempty"`
	CreatedAt       time.Time              `json:"createdAt"`
}
