package apiobs

import (
	"context"
	"time"

	"broksum/internal/interfaces"
	"broksum/internal/logger"
	"broksum/internal/trace"
)

type observableFetcher struct {
	fetcher interfaces.Fetcher
	name    string
}

var _ interfaces.Fetcher = (*observableFetcher)(nil)

// Wrap adds a span and structured logs around every fetch. name labels the
// backend ("http" or "colly").
func Wrap(fetcher interfaces.Fetcher, name string) interfaces.Fetcher {
	return &observableFetcher{
		fetcher: fetcher,
		name:    name,
	}
}

func (of *observableFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	ctx, span := trace.StartSpan(ctx, "fetcher.Fetch")
	defer span.End()

	start := time.Now()
	logger.DebugSkip(ctx, 1, "Fetching page",
		"fetcher", of.name,
		"url", url,
	)

	body, err := of.fetcher.Fetch(ctx, url)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Fetch failed", err,
			"fetcher", of.name,
			"url", url,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Fetch completed",
		"fetcher", of.name,
		"url", url,
		"bytes", len(body),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return body, nil
}
