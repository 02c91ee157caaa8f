package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"enhancer/internal/adapter/repo"
	"enhancer/internal/enhance"
	"enhancer/internal/http/handlers"
	"enhancer/internal/http/httpapi"
	"enhancer/internal/infra"
	"enhancer/internal/lifecycle"
	"enhancer/internal/prompt"
	"enhancer/internal/providers/genai"
	"enhancer/internal/retry"
	"enhancer/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer pool.Close()

	blobs, err := newBlobStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure storage")
	}

	// The generative capability is constructed once here and injected; the
	// engine holds no lazily-built global client handles.
	capability, err := genai.NewClient(genai.Options{
		APIKey:     cfg.GenAIAPIKey,
		BaseURL:    cfg.GenAIBaseURL,
		Model:      cfg.GenAIModel,
		HTTPClient: &http.Client{Timeout: cfg.RetryPerAttemptTimeout + 5*time.Second},
		Logger:     &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure generative client")
	}

	policy := retry.Policy{
		MaxAttempts:       cfg.RetryMaxAttempts,
		BaseDelay:         cfg.RetryBaseDelay,
		MaxDelay:          cfg.RetryMaxDelay,
		BackoffMultiplier: 2,
		PerAttemptTimeout: cfg.RetryPerAttemptTimeout,
	}
	pipeline := enhance.NewPipeline(enhance.NewGenerativeStage(capability, policy), logger)

	assets := repo.NewAssetRepository(pool)
	ledger := repo.NewLedgerRepository(pool)
	manager := lifecycle.NewManager(assets, ledger, blobs, pipeline,
		prompt.Options{TruncateOverBudget: cfg.TruncateOverBudget}, logger)

	app := handlers.NewApp(manager, ledger, logger)
	router := httpapi.NewRouter(app, logger, cfg.RateLimitPerMin, cfg.RequestDeadline)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Str("port", cfg.Port).Str("model", capability.Model()).Msg("enhancement api listening")
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

func newBlobStore(ctx context.Context, cfg *infra.Config) (storage.BlobStore, error) {
	if cfg.StorageBackend == "minio" {
		return storage.NewMinioStore(ctx, storage.MinioOptions{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			Secure:    cfg.MinioSecure,
		})
	}
	return storage.NewFileStore(cfg.StoragePath)
}
