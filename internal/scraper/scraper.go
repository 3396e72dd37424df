// Package scraper fetches pages through a colly collector. It is the
// alternative to the plain net/http client for hosts that need a
// browser-like crawler.
package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/gocolly/colly/v2"

	"broksum/internal/api"
	"broksum/internal/interfaces"
	"broksum/internal/logger"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Scraper implements interfaces.Fetcher on top of colly.
type Scraper struct {
	base    *colly.Collector
	timeout time.Duration
}

var _ interfaces.Fetcher = (*Scraper)(nil)

// NewScraper creates a synchronous collector that may revisit URLs.
func NewScraper(timeout time.Duration) *Scraper {
	c := colly.NewCollector(
		colly.Async(false),
		colly.AllowURLRevisit(),
		colly.UserAgent(defaultUserAgent),
	)
	c.SetRequestTimeout(timeout)
	return &Scraper{base: c, timeout: timeout}
}

// Fetch visits url and returns the raw response body. Failures are reported
// as *api.FetchError so callers see one error type for either backend.
func (s *Scraper) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &api.FetchError{URL: url, Err: err}
	}

	// Clone shares configuration but not callbacks. The context bounds the
	// request itself, not just the checks around it.
	c := s.base.Clone()
	c.Context = ctx

	var (
		body     []byte
		status   int
		fetchErr error
	)

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
	})

	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = r.Body
	})

	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		fetchErr = err
	})

	if err := c.Visit(url); err != nil && fetchErr == nil {
		fetchErr = err
	}
	if err := ctx.Err(); err != nil {
		return nil, &api.FetchError{URL: url, Err: err}
	}
	if fetchErr != nil {
		return nil, &api.FetchError{URL: url, StatusCode: status, Err: fetchErr}
	}
	if body == nil {
		return nil, &api.FetchError{URL: url, StatusCode: status, Err: fmt.Errorf("empty response")}
	}

	logger.Debug(ctx, "Scraped page", "url", url, "status", status, "bytes", len(body))
	return body, nil
}
