package createwallet

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentkit-workers/internal/common/config"
	"agentkit-workers/internal/common/database"
	apperrors "agentkit-workers/internal/common/errors"
	"agentkit-workers/internal/common/logger"
	"agentkit-workers/internal/common/wallet"
	"agentkit-workers/internal/models"
)

type fakeFaucet struct {
	calls int
	err   error
}

func (f *fakeFaucet) RequestFaucet(ctx context.Context, walletID, address string) (*models.FaucetResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &models.FaucetResult{WalletID: walletID, Address: address, TransactionHash: "0xabc"}, nil
}

func setupStore(t *testing.T) *wallet.Store {
	mr := miniredis.RunT(t)
	rc, err := database.NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })
	return wallet.NewStore(rc)
}

func createTestConfig(t *testing.T) *Config {
	return &Config{
		NetworkID:      "base-sepolia",
		SeedFile:       filepath.Join(t.TempDir(), "wallet_seed.json"),
		SeedPassphrase: "passphrase",
		Timeout:        5 * time.Second,
	}
}

func TestExecute_CreatesRegistersAndSavesSeed(t *testing.T) {
	cfg := createTestConfig(t)
	store := setupStore(t)
	h := NewHandler(cfg, store, nil, logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{EncryptSeed: true})
	require.NoError(t, err)
	assert.Equal(t, "base-sepolia", out.Wallet.NetworkID)
	assert.Equal(t, cfg.SeedFile, out.SeedFile)
	assert.Nil(t, out.Faucet)

	fetched, err := store.Get(context.Background(), out.Wallet.ID)
	require.NoError(t, err)
	assert.Equal(t, out.Wallet.Address, fetched.Address)

	require.NoError(t, wallet.LoadSeed(cfg.SeedFile, fetched, cfg.SeedPassphrase))
	assert.True(t, fetched.HasSeed())
}

func TestExecute_RequestsFaucetWhenAsked(t *testing.T) {
	faucet := &fakeFaucet{}
	h := NewHandler(createTestConfig(t), setupStore(t), faucet, logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{NetworkID: "base-sepolia", RequestFaucet: true})
	require.NoError(t, err)
	require.NotNil(t, out.Faucet)
	assert.Equal(t, "0xabc", out.Faucet.TransactionHash)
	assert.Equal(t, out.Wallet.ID, out.Faucet.WalletID)
	assert.Equal(t, 1, faucet.calls)
}

func TestExecute_FaucetWithoutCredentials(t *testing.T) {
	h := NewHandler(createTestConfig(t), setupStore(t), nil, logger.NewTestLogger(t))

	_, err := h.Execute(context.Background(), &Input{RequestFaucet: true})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeConfigurationMissing))
}

func TestExecute_FaucetFailurePropagates(t *testing.T) {
	faucet := &fakeFaucet{err: apperrors.NewFaucetRequestFailedError(errors.New("rate limited"))}
	store := setupStore(t)
	h := NewHandler(createTestConfig(t), store, faucet, logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{RequestFaucet: true})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeFaucetRequestFailed))

	require.NotNil(t, out)
	assert.Nil(t, out.Faucet)
	assert.Contains(t, err.Error(), out.Wallet.ID)
	assert.Contains(t, err.Error(), "rate limited")

	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, out.Wallet.ID, stdErr.Metadata["walletId"])

	registered, err := store.Get(context.Background(), out.Wallet.ID)
	require.NoError(t, err)
	assert.Equal(t, out.Wallet.Address, registered.Address)
}

func TestExecute_EncryptWithoutPassphrase(t *testing.T) {
	cfg := createTestConfig(t)
	cfg.SeedPassphrase = ""
	h := NewHandler(cfg, setupStore(t), nil, logger.NewTestLogger(t))

	_, err := h.Execute(context.Background(), &Input{EncryptSeed: true})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeConfigurationMissing))
}
