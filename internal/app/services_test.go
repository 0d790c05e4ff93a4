package app

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentkit-workers/internal/common/config"
	apperrors "agentkit-workers/internal/common/errors"
	"agentkit-workers/internal/common/logger"
	"agentkit-workers/internal/models"
)

func baseConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Twitter.BaseURL = "http://127.0.0.1:1"
	cfg.Twitter.Timeout = 1000
	cfg.GenAI.Provider = "openai"
	cfg.GenAI.Timeout = 1000
	cfg.CDP.Timeout = 1000
	cfg.CDP.NetworkID = "base-sepolia"
	cfg.CDP.SeedFile = "wallet_seed.json"
	cfg.Export.Path = "tweets.csv"
	cfg.Workers = map[string]config.WorkerConfig{}
	return cfg
}

func TestRoutine_ChecksCredentialsFirst(t *testing.T) {
	cfg := baseConfig()
	s := New(cfg, logger.NewTestLogger(t))
	defer s.Close()

	_, err := s.Routine(context.Background(), RoutineSteps{}, &bytes.Buffer{})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeConfigurationMissing))
	assert.ErrorContains(t, err, "TWITTER_BEARER_TOKEN")

	cfg.Twitter.BearerToken = "token"
	_, err = s.Routine(context.Background(), RoutineSteps{Summarize: true}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "GENAI_API_KEY")

	_, err = s.Routine(context.Background(), RoutineSteps{}, &bytes.Buffer{})
	assert.NoError(t, err)
}

func TestRoutine_PublishNeedsTopic(t *testing.T) {
	cfg := baseConfig()
	cfg.Twitter.BearerToken = "token"
	cfg.GenAI.APIKey = "sk-test"
	s := New(cfg, logger.NewTestLogger(t))

	_, err := s.Routine(context.Background(), RoutineSteps{Summarize: true, Publish: true}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "NOTIFICATIONS_SNS_TOPIC_ARN")

	_, err = s.Routine(context.Background(), RoutineSteps{Archive: true}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "DATABASE_ELASTICSEARCH_ADDRESSES")
}

func TestWalletStore(t *testing.T) {
	cfg := baseConfig()
	s := New(cfg, logger.NewTestLogger(t))
	defer s.Close()

	_, err := s.WalletStore(context.Background())
	assert.ErrorContains(t, err, "DATABASE_REDIS_ADDRESS")

	mr := miniredis.RunT(t)
	cfg.Database.Redis.Address = mr.Addr()

	store, err := s.WalletStore(context.Background())
	require.NoError(t, err)

	rec := models.WalletRecord{ID: "w1", Address: "0xabc", NetworkID: "base-sepolia", CreatedAt: time.Now().UTC()}
	require.NoError(t, store.Save(context.Background(), rec))

	again, err := s.WalletStore(context.Background())
	require.NoError(t, err)
	got, err := again.Get(context.Background(), "w1")
	require.NoError(t, err)
	assert.Equal(t, "0xabc", got.Address)
}

func TestInvokeContractHandler_ChecksChainBeforeConnecting(t *testing.T) {
	cfg := baseConfig()
	cfg.Database.Redis.Address = "127.0.0.1:1"
	s := New(cfg, logger.NewTestLogger(t))

	_, err := s.InvokeContractHandler(context.Background())
	assert.ErrorContains(t, err, "CDP_API_KEY_NAME")

	cfg.CDP.APIKeyName = "organizations/o/apiKeys/k"
	cfg.CDP.PrivateKey = "pem"
	_, err = s.InvokeContractHandler(context.Background())
	assert.ErrorContains(t, err, "CDP_RPC_URL")
}

func TestCreateWalletHandler_FaucetNeedsCredentials(t *testing.T) {
	cfg := baseConfig()
	cfg.Database.Redis.Address = miniredis.RunT(t).Addr()
	s := New(cfg, logger.NewTestLogger(t))
	defer s.Close()

	_, err := s.CreateWalletHandler(context.Background(), false)
	require.NoError(t, err)

	_, err = s.CreateWalletHandler(context.Background(), true)
	assert.ErrorContains(t, err, "CDP_API_KEY_NAME")
}

func TestLedger_DisabledWithoutDatabase(t *testing.T) {
	s := New(baseConfig(), logger.NewTestLogger(t))
	ledger, err := s.Ledger(context.Background())
	require.NoError(t, err)
	assert.Nil(t, ledger)
}
