package main

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"

	"broksum/internal/api"
	"broksum/internal/api/apiobs"
	"broksum/internal/interfaces"
	"broksum/internal/logger"
	"broksum/internal/pipeline"
	"broksum/internal/scraper"
	"broksum/internal/store"
	"broksum/internal/trace"
)

// initializeSystem loads .env and sets up logging and tracing
func initializeSystem() error {
	// Load environment variables
	_ = godotenv.Load()

	// Initialize logger (and the tracer when LOG_TRACING_ENABLED is set)
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// shutdownSystem flushes spans and buffered logs
func shutdownSystem() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = trace.Shutdown(ctx)
	logger.Sync()
}

// loadConfig loads and returns the configuration
func loadConfig(ctx context.Context, path string) (*store.Config, error) {
	cfg, err := store.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "Configuration loaded",
		"path", path,
		"codes", cfg.ListSaham,
		"mode", cfg.Mode,
		"variant", string(cfg.Variant),
		"max_rank", cfg.MaxRank,
		"fetcher", cfg.Fetcher,
	)
	return cfg, nil
}

// initializeFetcher builds the configured fetch backend with observability
func initializeFetcher(ctx context.Context, cfg *store.Config) interfaces.Fetcher {
	var fetcher interfaces.Fetcher

	switch cfg.Fetcher {
	case store.FetcherColly:
		fetcher = scraper.NewScraper(cfg.HTTPTimeout())
		logger.Info(ctx, "Using colly collector for page fetches")
	default:
		fetcher = api.NewClient(
			api.WithTimeout(cfg.HTTPTimeout()),
			api.WithHeader("Referer", "https://www.indopremier.com/"),
			api.WithRetry(cfg.RetryAttempts, cfg.RetryWait()),
			api.WithLogging(logger.IsDebugEnabled()),
		)
	}

	// Wrap with observability middleware
	return apiobs.Wrap(fetcher, cfg.Fetcher)
}

// initializePipeline wires the fetcher into the per-item pipeline
func initializePipeline(cfg *store.Config, fetcher interfaces.Fetcher) *pipeline.Pipeline {
	return pipeline.New(fetcher, pipeline.Config{
		SummaryURL: cfg.BrokerSummaryURL,
		ChartURL:   cfg.ChartURL,
		MaxRank:    cfg.MaxRank,
		Variant:    cfg.Variant,
	})
}
