// internal/app/services.go
package app

import (
	"context"
	"fmt"

	"agentkit-workers/internal/common/aws"
	"agentkit-workers/internal/common/cdp"
	"agentkit-workers/internal/common/chain"
	"agentkit-workers/internal/common/config"
	"agentkit-workers/internal/common/database"
	apperrors "agentkit-workers/internal/common/errors"
	"agentkit-workers/internal/common/genai"
	"agentkit-workers/internal/common/logger"
	"agentkit-workers/internal/common/observability"
	"agentkit-workers/internal/common/twitter"
	"agentkit-workers/internal/common/wallet"
	invokecontract "agentkit-workers/internal/workers/contract/invoke-contract"
)

// Services builds the outbound clients a command or worker needs, on first use.
// Every getter checks its configuration before it opens a connection.
type Services struct {
	cfg    *config.Config
	logger logger.Logger
	obs    *observability.Observability

	redis   *database.RedisClient
	pg      *database.PostgresClient
	es      *database.ElasticsearchClient
	sns     *aws.SNSClient
	signer  *cdp.Signer
	invoker *chain.Invoker

	closers []func() error
}

func New(cfg *config.Config, log logger.Logger) *Services {
	return &Services{
		cfg:    cfg,
		logger: log.WithFields(map[string]interface{}{"component": "services"}),
	}
}

// WithObservability hands obs to the handlers and routines built afterwards.
func (s *Services) WithObservability(obs *observability.Observability) *Services {
	s.obs = obs
	return s
}

func (s *Services) Config() *config.Config {
	return s.cfg
}

// Close releases every connection opened so far.
func (s *Services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			s.logger.Warn("failed to close connection", map[string]interface{}{"error": err.Error()})
		}
	}
	s.closers = nil
}

func (s *Services) Searcher() (*twitter.Client, error) {
	if err := s.cfg.RequireSearch(); err != nil {
		return nil, err
	}
	return twitter.NewClient(&twitter.Config{
		BaseURL:     s.cfg.Twitter.BaseURL,
		BearerToken: s.cfg.Twitter.BearerToken,
		Timeout:     config.GetDuration(s.cfg.Twitter.Timeout),
	}), nil
}

func (s *Services) Provider() (genai.Provider, error) {
	if err := s.cfg.RequireGenAI(); err != nil {
		return nil, err
	}
	return genai.NewProvider(genai.Config{
		Provider:  s.cfg.GenAI.Provider,
		Model:     s.cfg.GenAI.Model,
		APIKey:    s.cfg.GenAI.APIKey,
		APIURL:    s.cfg.GenAI.BaseURL,
		MaxTokens: s.cfg.GenAI.MaxTokens,
		Timeout:   config.GetDuration(s.cfg.GenAI.Timeout),
	})
}

// WalletStore connects to the wallet registry and checks that it answers.
func (s *Services) WalletStore(ctx context.Context) (*wallet.Store, error) {
	if s.redis == nil {
		if err := s.cfg.RequireWalletRegistry(); err != nil {
			return nil, err
		}
		rc, err := database.NewRedis(s.cfg.Database.Redis)
		if err != nil {
			return nil, apperrors.NewWalletStoreFailedError(err)
		}
		if err := rc.Ping(ctx); err != nil {
			rc.Close()
			return nil, apperrors.NewWalletStoreFailedError(err)
		}
		s.redis = rc
		s.closers = append(s.closers, rc.Close)
	}
	return wallet.NewStore(s.redis), nil
}

func (s *Services) Signer() (*cdp.Signer, error) {
	if s.signer == nil {
		if err := s.cfg.RequireCDP(); err != nil {
			return nil, err
		}
		signer, err := cdp.NewSigner(s.cfg.CDP.APIKeyName, s.cfg.CDP.PrivateKey)
		if err != nil {
			return nil, err
		}
		s.signer = signer
	}
	return s.signer, nil
}

func (s *Services) Faucet() (*cdp.Client, error) {
	signer, err := s.Signer()
	if err != nil {
		return nil, err
	}
	return cdp.NewClient(&cdp.Config{
		BaseURL:   s.cfg.CDP.BaseURL,
		NetworkID: s.cfg.CDP.NetworkID,
		Timeout:   config.GetDuration(s.cfg.CDP.Timeout),
	}, signer), nil
}

// Invoker dials the chain RPC endpoint. The bearer token is issued at dial time.
func (s *Services) Invoker(ctx context.Context) (*chain.Invoker, error) {
	if s.invoker == nil {
		if err := s.cfg.RequireChain(); err != nil {
			return nil, err
		}
		signer, err := s.Signer()
		if err != nil {
			return nil, err
		}
		client, err := chain.Dial(ctx, s.cfg.CDP.RPCURL, signer)
		if err != nil {
			return nil, apperrors.NewContractInvocationFailedError(err)
		}
		s.closers = append(s.closers, func() error { client.Close(); return nil })
		s.invoker = chain.NewInvoker(client, s.cfg.CDP.ChainID)
	}
	return s.invoker, nil
}

// Ledger returns the invocation ledger, or nil when no ledger database is configured.
func (s *Services) Ledger(ctx context.Context) (invokecontract.Ledger, error) {
	if !s.cfg.Postgres().Enabled() {
		return nil, nil
	}
	return s.InvocationLedger(ctx)
}

// InvocationLedger connects to the ledger database and creates its table if needed.
func (s *Services) InvocationLedger(ctx context.Context) (*invokecontract.PostgresLedger, error) {
	if !s.cfg.Postgres().Enabled() {
		return nil, apperrors.NewConfigurationMissingError("database.postgres.host", "DATABASE_POSTGRES_HOST")
	}
	if s.pg == nil {
		pg, err := database.NewPostgres(s.cfg.Postgres())
		if err != nil {
			return nil, fmt.Errorf("ledger database: %w", err)
		}
		if err := pg.Ping(ctx); err != nil {
			pg.Close()
			return nil, fmt.Errorf("ledger database: %w", err)
		}
		s.pg = pg
		s.closers = append(s.closers, pg.Close)
	}
	ledger := invokecontract.NewPostgresLedger(s.pg)
	if err := ledger.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ledger schema: %w", err)
	}
	return ledger, nil
}

func (s *Services) Indexer(ctx context.Context) (*database.ElasticsearchClient, error) {
	if s.es == nil {
		if !s.cfg.Database.Elasticsearch.Enabled() {
			return nil, apperrors.NewConfigurationMissingError("database.elasticsearch.addresses", "DATABASE_ELASTICSEARCH_ADDRESSES")
		}
		es, err := database.NewElasticsearch(s.cfg.Database.Elasticsearch)
		if err != nil {
			return nil, apperrors.NewArchiveFailedError(s.cfg.Database.Elasticsearch.Index, err)
		}
		if err := es.Ping(ctx); err != nil {
			return nil, apperrors.NewArchiveFailedError(s.cfg.Database.Elasticsearch.Index, err)
		}
		s.es = es
	}
	return s.es, nil
}

func (s *Services) Publisher(ctx context.Context) (*aws.SNSClient, error) {
	if s.sns == nil {
		if s.cfg.Notifications.SNS.TopicARN == "" {
			return nil, apperrors.NewConfigurationMissingError("notifications.sns.topic_arn", "NOTIFICATIONS_SNS_TOPIC_ARN")
		}
		client, err := aws.NewSNSClient(ctx, s.cfg.Notifications.SNS.Region)
		if err != nil {
			return nil, apperrors.NewPublishFailedError(s.cfg.Notifications.SNS.TopicARN, err)
		}
		s.sns = client
	}
	return s.sns, nil
}
