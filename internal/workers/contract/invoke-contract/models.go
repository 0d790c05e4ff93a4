// internal/workers/contract/invoke-contract/models.go
package invokecontract

import "agentkit-workers/internal/models"

type Input struct {
	WalletID        string `json:"walletId" yaml:"walletId"`
	ContractAddress string `json:"contractAddress" yaml:"contractAddress"`
	// ABI is the contract ABI as decoded JSON or as JSON text.
	ABI    interface{}            `json:"abi" yaml:"abi"`
	Method string                 `json:"method" yaml:"method"`
	Args   map[string]interface{} `json:"args" yaml:"args"`
}

type Output struct {
	Invocation models.Invocation `json:"invocation"`
}
