// internal/app/handlers.go
package app

import (
	"context"
	"io"

	"agentkit-workers/internal/pipeline"
	summarizerecords "agentkit-workers/internal/workers/ai/summarize-records"
	invokecontract "agentkit-workers/internal/workers/contract/invoke-contract"
	archiverecords "agentkit-workers/internal/workers/export/archive-records"
	exporttabular "agentkit-workers/internal/workers/export/export-tabular"
	publishresults "agentkit-workers/internal/workers/export/publish-results"
	fetchrecords "agentkit-workers/internal/workers/social/fetch-records"
	createwallet "agentkit-workers/internal/workers/wallet/create-wallet"
	requestfaucet "agentkit-workers/internal/workers/wallet/request-faucet"
)

func (s *Services) FetchHandler() (*fetchrecords.Handler, error) {
	searcher, err := s.Searcher()
	if err != nil {
		return nil, err
	}
	return fetchrecords.NewHandler(fetchrecords.LoadConfig(s.cfg), searcher, s.logger), nil
}

func (s *Services) SummarizeHandler() (*summarizerecords.Handler, error) {
	provider, err := s.Provider()
	if err != nil {
		return nil, err
	}
	return summarizerecords.NewHandler(summarizerecords.LoadConfig(s.cfg), provider, s.logger).
		WithObservability(s.obs), nil
}

func (s *Services) ExportHandler() *exporttabular.Handler {
	return exporttabular.NewHandler(exporttabular.LoadConfig(s.cfg), s.logger)
}

func (s *Services) ArchiveHandler(ctx context.Context) (*archiverecords.Handler, error) {
	es, err := s.Indexer(ctx)
	if err != nil {
		return nil, err
	}
	return archiverecords.NewHandler(archiverecords.LoadConfig(s.cfg), es, s.logger), nil
}

func (s *Services) PublishHandler(ctx context.Context) (*publishresults.Handler, error) {
	sns, err := s.Publisher(ctx)
	if err != nil {
		return nil, err
	}
	return publishresults.NewHandler(publishresults.LoadConfig(s.cfg), sns, s.logger), nil
}

// CreateWalletHandler wires the faucet only when withFaucet is set.
func (s *Services) CreateWalletHandler(ctx context.Context, withFaucet bool) (*createwallet.Handler, error) {
	store, err := s.WalletStore(ctx)
	if err != nil {
		return nil, err
	}
	var faucet createwallet.Faucet
	if withFaucet {
		client, err := s.Faucet()
		if err != nil {
			return nil, err
		}
		faucet = client
	}
	return createwallet.NewHandler(createwallet.LoadConfig(s.cfg), store, faucet, s.logger), nil
}

func (s *Services) RequestFaucetHandler(ctx context.Context) (*requestfaucet.Handler, error) {
	faucet, err := s.Faucet()
	if err != nil {
		return nil, err
	}
	store, err := s.WalletStore(ctx)
	if err != nil {
		return nil, err
	}
	return requestfaucet.NewHandler(requestfaucet.LoadConfig(s.cfg), store, faucet, s.logger), nil
}

// InvokeContractHandler checks the chain credentials before it connects to anything.
func (s *Services) InvokeContractHandler(ctx context.Context) (*invokecontract.Handler, error) {
	if err := s.cfg.RequireChain(); err != nil {
		return nil, err
	}
	store, err := s.WalletStore(ctx)
	if err != nil {
		return nil, err
	}
	invoker, err := s.Invoker(ctx)
	if err != nil {
		return nil, err
	}
	ledger, err := s.Ledger(ctx)
	if err != nil {
		return nil, err
	}
	return invokecontract.NewHandler(invokecontract.LoadConfig(s.cfg), store, invoker, ledger, s.logger), nil
}

// RoutineSteps selects which optional steps a routine run needs.
type RoutineSteps struct {
	Summarize bool
	Archive   bool
	Publish   bool
}

// Routine builds a pipeline with the fetch and export steps plus the requested ones.
// Credentials are checked for every requested step before any handler is built.
func (s *Services) Routine(ctx context.Context, want RoutineSteps, out io.Writer) (*pipeline.Routine, error) {
	if err := s.cfg.RequireSearch(); err != nil {
		return nil, err
	}
	if want.Summarize {
		if err := s.cfg.RequireGenAI(); err != nil {
			return nil, err
		}
	}

	fetch, err := s.FetchHandler()
	if err != nil {
		return nil, err
	}
	steps := pipeline.Steps{Fetch: fetch, Export: s.ExportHandler()}

	if want.Summarize {
		if steps.Summarize, err = s.SummarizeHandler(); err != nil {
			return nil, err
		}
	}
	if want.Archive {
		if steps.Archive, err = s.ArchiveHandler(ctx); err != nil {
			return nil, err
		}
	}
	if want.Publish {
		if steps.Publish, err = s.PublishHandler(ctx); err != nil {
			return nil, err
		}
	}
	return pipeline.New(steps, out, s.logger).WithObservability(s.obs), nil
}
