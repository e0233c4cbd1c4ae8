package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"content-engine/internal/config"
	"content-engine/internal/domain/ports/adapter"
	"content-engine/internal/infra/adapters/ai"
	"content-engine/internal/infra/db/postgres"
	"content-engine/internal/infra/logging"
	"content-engine/internal/infra/metrics"
	"content-engine/internal/infra/pricing"
	red "content-engine/internal/infra/redis"
	"content-engine/internal/infra/sched"
	"content-engine/internal/infra/web"
	"content-engine/internal/infra/worker"
	"content-engine/internal/usecase"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	dev := flag.Bool("dev", false, "dev mode (console logs, relaxed auth)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath, *dev)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ----- infrastructure -----
	pool, err := postgres.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect")
	}
	defer pool.Close()

	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect")
	}
	defer func() { _ = redisClient.Close() }()

	tm := postgres.NewTxManager(pool)

	// ----- repositories -----
	jobRepo := postgres.NewGenerationJobRepo(pool, tm)
	contentRepo := postgres.NewGeneratedContentRepo(pool)
	pricingRepo := postgres.NewModelPricingRepoCacheDecorator(
		postgres.NewModelPricingRepo(pool), redisClient)
	staticPricing := pricing.NewStaticRepo(cfg.Pricing)

	progressStore := red.NewProgressStore(redisClient, logger)
	limiter := red.NewRateLimiter(redisClient)

	// ----- use cases -----
	pricingUC := usecase.NewPricingUseCase(pricingRepo, staticPricing, logger)
	queueUC := usecase.NewQueueUseCase(jobRepo, limiter, cfg.RateLimit.SubmissionsPerMinute, logger)
	contentUC := usecase.NewContentUseCase(contentRepo, logger)

	// ----- AI providers -----
	aiAdapter, err := buildAIAdapter(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("ai adapter setup")
	}
	aiAdapter = ai.NewLimitedAI(aiAdapter, cfg.AI.ConcurrentLimit)

	// ----- background workers -----
	workerPool := worker.NewPool(cfg.Queue.Workers, logger)
	workerPool.Start(ctx)
	defer workerPool.Stop()

	processor := worker.NewJobProcessor(
		jobRepo, contentRepo, progressStore, pricingUC, aiAdapter, tm,
		cfg.AI.DefaultModel, cfg.AI.Temperature, cfg.AI.MaxTokens, logger)
	go processor.Start(ctx, workerPool, cfg.Queue.PollInterval)

	reclaimer := sched.NewReclaimer(
		cfg.Queue.ReclaimInterval, cfg.Queue.ProcessingLease, cfg.Queue.MaxRetries,
		jobRepo, logger)
	go func() {
		if err := reclaimer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("reclaimer stopped")
		}
	}()

	// ----- HTTP -----
	auth := web.NewAuthManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	server := web.NewServer(queueUC, contentUC, pricingUC, progressStore, auth, cfg.Auth.AdminAPIKey, logger)

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("http server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}

// buildAIAdapter assembles the provider router from whichever vendor keys are
// configured. Dev mode with no keys falls back to the deterministic echo
// provider so the pipeline stays runnable offline.
func buildAIAdapter(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (adapter.AIServiceAdapter, error) {
	providers := map[string]adapter.AIServiceAdapter{}
	defaultProvider := ""

	if cfg.AI.OpenAIKey != "" {
		oa, err := ai.NewOpenAIAdapter(cfg.AI.OpenAIKey, "", cfg.AI.DefaultModel)
		if err != nil {
			return nil, err
		}
		providers["openai"] = oa
		defaultProvider = "openai"
	}
	if cfg.AI.GeminiKey != "" {
		ga, err := ai.NewGeminiAdapter(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiURL, cfg.AI.DefaultModel)
		if err != nil {
			return nil, err
		}
		providers["gemini"] = ga
		if defaultProvider == "" {
			defaultProvider = "gemini"
		}
	}

	if len(providers) == 0 {
		if !cfg.Runtime.Dev {
			return nil, errors.New("no AI provider configured")
		}
		logger.Warn().Msg("no AI provider configured, using echo provider")
		return ai.NewNoopAI(), nil
	}
	return ai.NewMultiAIAdapter(defaultProvider, providers), nil
}
