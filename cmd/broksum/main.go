package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"broksum/internal/api"
	"broksum/internal/crawl"
	"broksum/internal/export"
	"broksum/internal/logger"
	"broksum/internal/report"
	"broksum/internal/store"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the crawl configuration")
	flag.Parse()

	if err := initializeSystem(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer shutdownSystem()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runID := uuid.NewString()

	cfg, err := loadConfig(ctx, *configPath)
	if errors.Is(err, store.ErrEmptyConfiguration) {
		logger.Info(ctx, "No ticker codes configured, nothing to crawl", "path", *configPath)
		return 0
	}
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", *configPath)
		return 1
	}

	plan, err := cfg.Plan()
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to build crawl plan", err)
		return 1
	}

	fetcher := initializeFetcher(ctx, cfg)
	pipe := initializePipeline(cfg, fetcher)
	scheduler := crawl.NewScheduler(cfg.Threshold(), cfg.Cooldown())

	op := logger.StartOperation(ctx, "broksum.run", "run_id", runID)
	res, err := scheduler.Run(op.GetContext(), plan, pipe.Process)
	if err != nil {
		op.EndWithError(err)
		switch classifyFailure(ctx, err) {
		case failureInterrupted:
			logger.Warn(ctx, "Interrupted, no output written", "run_id", runID, "records", len(res.Records))
		case failureFetch:
			var fe *api.FetchError
			errors.As(err, &fe)
			logger.ErrorWithErr(ctx, "Fetch failed, no output written", err, "run_id", runID, "url", fe.URL, "status", fe.StatusCode)
		default:
			logger.ErrorWithErr(ctx, "Crawl aborted, no output written", err, "run_id", runID)
		}
		return 1
	}
	op.End("records", len(res.Records))

	for _, f := range res.Failed {
		logger.Warn(ctx, "Item skipped", "run_id", runID, "item", f.Item.String(), "error", f.Err)
	}

	rep := report.Assemble(cfg.Variant, res.Records, cfg.MaxRank, cfg.ListSaham)
	paths, err := export.WriteAll(ctx, rep, cfg.OutputDir, cfg.FileStem(), cfg.Formats)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to write report", err, "run_id", runID)
		return 1
	}

	logger.Info(ctx, "Run summary",
		"run_id", runID,
		"processed", len(res.Records)+len(res.Failed),
		"records", len(res.Records),
		"failed", len(res.Failed),
		"skipped", res.Skipped,
		"pauses", res.Pauses,
		"files", paths,
	)
	return 0
}

type failureKind int

const (
	failureAborted failureKind = iota
	failureInterrupted
	failureFetch
)

// classifyFailure decides how a failed run is reported. A cancelled run
// context wins over the error type: the fetcher wraps context.Canceled in
// an *api.FetchError when a signal lands mid-request.
func classifyFailure(ctx context.Context, err error) failureKind {
	if ctx.Err() != nil {
		return failureInterrupted
	}
	var fe *api.FetchError
	if errors.As(err, &fe) {
		return failureFetch
	}
	return failureAborted
}
