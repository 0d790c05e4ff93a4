// internal/common/chain/client.go
package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"agentkit-workers/internal/common/cdp"
)

// Backend is the part of an RPC client needed to send a call and await its receipt.
type Backend interface {
	bind.DeployBackend
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// Dial connects to rpcURL. When signer is set, requests carry a bearer token scoped
// to the endpoint.
func Dial(ctx context.Context, rpcURL string, signer *cdp.Signer) (*ethclient.Client, error) {
	var opts []rpc.ClientOption
	if signer != nil {
		token, err := signer.Token(http.MethodPost, rpcURL)
		if err != nil {
			return nil, fmt.Errorf("sign rpc token: %w", err)
		}
		opts = append(opts, rpc.WithHeader("Authorization", "Bearer "+token))
	}
	rc, err := rpc.DialOptions(ctx, rpcURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rpc endpoint: %w", err)
	}
	return ethclient.NewClient(rc), nil
}

// Invoker signs and sends contract calls on one chain.
type Invoker struct {
	backend Backend
	chainID *big.Int
}

func NewInvoker(backend Backend, chainID int64) *Invoker {
	return &Invoker{backend: backend, chainID: big.NewInt(chainID)}
}

// Send signs a call of data to contract with key and broadcasts it.
func (i *Invoker) Send(ctx context.Context, key *ecdsa.PrivateKey, contract common.Address, data []byte) (*types.Transaction, error) {
	from := crypto.PubkeyToAddress(key.PublicKey)

	nonce, err := i.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}

	gasPrice, err := i.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gas price: %w", err)
	}

	gasLimit, err := i.backend.EstimateGas(ctx, ethereum.CallMsg{
		From: from,
		To:   &contract,
		Data: data,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to estimate gas: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &contract,
		Value:    big.NewInt(0),
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})

	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(i.chainID), key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := i.backend.SendTransaction(ctx, signedTx); err != nil {
		return nil, fmt.Errorf("failed to send transaction: %w", err)
	}
	return signedTx, nil
}

// Wait blocks until tx is mined or ctx ends.
func (i *Invoker) Wait(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	receipt, err := bind.WaitMined(ctx, i.backend, tx)
	if err != nil {
		return nil, fmt.Errorf("failed waiting for transaction %s: %w", tx.Hash().Hex(), err)
	}
	return receipt, nil
}

// Sender returns the address that signs with key.
func Sender(key *ecdsa.PrivateKey) common.Address {
	return crypto.PubkeyToAddress(key.PublicKey)
}
