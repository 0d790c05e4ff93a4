// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"agentkit-workers/internal/app"
	"agentkit-workers/internal/common/camunda"
	"agentkit-workers/internal/common/config"
	"agentkit-workers/internal/common/logger"
	"agentkit-workers/internal/common/observability"
	summarizerecords "agentkit-workers/internal/workers/ai/summarize-records"
	invokecontract "agentkit-workers/internal/workers/contract/invoke-contract"
	archiverecords "agentkit-workers/internal/workers/export/archive-records"
	exporttabular "agentkit-workers/internal/workers/export/export-tabular"
	publishresults "agentkit-workers/internal/workers/export/publish-results"
	fetchrecords "agentkit-workers/internal/workers/social/fetch-records"
	createwallet "agentkit-workers/internal/workers/wallet/create-wallet"
	requestfaucet "agentkit-workers/internal/workers/wallet/request-faucet"
)

// retryWithBackoff is only used to wait for the broker at startup. Job handlers never retry.
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// registration builds the handler of one task type. It fails when the configuration
// the handler needs is missing.
type registration struct {
	taskType string
	build    func(ctx context.Context, s *app.Services) (camunda.JobHandler, error)
}

func registrations() []registration {
	return []registration{
		{fetchrecords.TaskType, func(ctx context.Context, s *app.Services) (camunda.JobHandler, error) {
			return s.FetchHandler()
		}},
		{summarizerecords.TaskType, func(ctx context.Context, s *app.Services) (camunda.JobHandler, error) {
			return s.SummarizeHandler()
		}},
		{exporttabular.TaskType, func(ctx context.Context, s *app.Services) (camunda.JobHandler, error) {
			return s.ExportHandler(), nil
		}},
		{archiverecords.TaskType, func(ctx context.Context, s *app.Services) (camunda.JobHandler, error) {
			return s.ArchiveHandler(ctx)
		}},
		{publishresults.TaskType, func(ctx context.Context, s *app.Services) (camunda.JobHandler, error) {
			return s.PublishHandler(ctx)
		}},
		{createwallet.TaskType, func(ctx context.Context, s *app.Services) (camunda.JobHandler, error) {
			return s.CreateWalletHandler(ctx, s.Config().RequireCDP() == nil)
		}},
		{requestfaucet.TaskType, func(ctx context.Context, s *app.Services) (camunda.JobHandler, error) {
			return s.RequestFaucetHandler(ctx)
		}},
		{invokecontract.TaskType, func(ctx context.Context, s *app.Services) (camunda.JobHandler, error) {
			return s.InvokeContractHandler(ctx)
		}},
	}
}

func main() {
	configPath := flag.String("config", "", "config file (default is ./configs/config.yaml)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config load failed:", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...", zap.String("version", cfg.App.Version))

	var obsOpts []observability.Option
	if endpoint := cfg.Observability.Tracing.Endpoint; endpoint != "" {
		sp, err := observability.NewOTLPSpanProcessor(context.Background(), endpoint)
		if err != nil {
			zapLog.Warn("job spans will not be exported", zap.String("endpoint", endpoint), zap.Error(err))
		} else {
			obsOpts = append(obsOpts, observability.WithSpanProcessor(sp))
			zapLog.Info("exporting job spans", zap.String("endpoint", endpoint))
		}
	}
	obs := observability.New("worker-manager", log, obsOpts...)
	defer obs.Shutdown()

	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClient(cfg.Camunda.BrokerAddress)
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	ctx := context.Background()
	services := app.New(cfg, log).WithObservability(obs)
	defer services.Close()

	var workers []*camunda.CamundaWorker
	for _, reg := range registrations() {
		wcfg := config.GetWorkerConfig(cfg, reg.taskType)
		if !wcfg.Enabled {
			zapLog.Info("worker disabled", zap.String("taskType", reg.taskType))
			continue
		}
		handler, err := reg.build(ctx, services)
		if err != nil {
			zapLog.Warn("worker not started", zap.String("taskType", reg.taskType), zap.Error(err))
			continue
		}
		if w := camunda.StartWorker(zeebe.GetClient(), reg.taskType, wcfg, handler, obs, log); w != nil {
			workers = append(workers, w)
		}
	}
	zapLog.Info("workers registered", zap.Int("count", len(workers)))

	srv := newHealthServer(cfg.Camunda.HealthAddr, zeebe)
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

func newHealthServer(addr string, broker healthChecker) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := broker.HealthCheck(r.Context()); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "unavailable")
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	})
	mux.Handle("/metrics", promhttp.Handler())
	return &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	})
}
