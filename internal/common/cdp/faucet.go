// internal/common/cdp/faucet.go
package cdp

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "agentkit-workers/internal/common/errors"
	httpclient "agentkit-workers/internal/common/http"
	"agentkit-workers/internal/models"
)

type Config struct {
	BaseURL   string
	NetworkID string
	Timeout   time.Duration
}

// Client calls the platform API on behalf of one API key.
type Client struct {
	config *Config
	signer *Signer
	http   *httpclient.Client
}

func NewClient(config *Config, signer *Signer) *Client {
	return &Client{
		config: config,
		signer: signer,
		http:   httpclient.NewClient(config.Timeout),
	}
}

type faucetResponse struct {
	TransactionHash string `json:"transaction_hash"`
	TransactionLink string `json:"transaction_link"`
}

// RequestFaucet asks the network faucet to fund address with test funds.
func (c *Client) RequestFaucet(ctx context.Context, walletID, address string) (*models.FaucetResult, error) {
	endpoint := fmt.Sprintf("%s/v1/networks/%s/addresses/%s/faucet",
		strings.TrimRight(c.config.BaseURL, "/"),
		url.PathEscape(c.config.NetworkID),
		url.PathEscape(address))

	token, err := c.signer.Token(http.MethodPost, endpoint)
	if err != nil {
		return nil, apperrors.NewFaucetRequestFailedError(err)
	}

	var out faucetResponse
	resp, err := c.http.R(ctx).
		SetAuthToken(token).
		SetResult(&out).
		Post(endpoint)
	if err := httpclient.CheckResponse(resp, err); err != nil {
		return nil, apperrors.NewFaucetRequestFailedError(err)
	}
	if out.TransactionHash == "" {
		return nil, apperrors.NewFaucetRequestFailedError(fmt.Errorf("response carried no transaction hash"))
	}

	return &models.FaucetResult{
		WalletID:        walletID,
		Address:         address,
		TransactionHash: out.TransactionHash,
		TransactionLink: out.TransactionLink,
	}, nil
}
