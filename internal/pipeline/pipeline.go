// Package pipeline turns one crawl work item into a daily record: fetch the
// broker summary, extract the ranked tables and, for the merge variant,
// attach the day's price bar.
package pipeline

import (
	"context"
	"strings"
	"time"

	"broksum/internal/chart"
	"broksum/internal/crawl"
	"broksum/internal/extract"
	"broksum/internal/interfaces"
	"broksum/internal/logger"
	"broksum/internal/types"
)

// Config selects the endpoints and the shape of each record.
type Config struct {
	SummaryURL string
	ChartURL   string
	MaxRank    int
	Variant    types.Variant
}

type Pipeline struct {
	fetcher   interfaces.Fetcher
	extractor *extract.Extractor
	cfg       Config
}

func New(fetcher interfaces.Fetcher, cfg Config) *Pipeline {
	return &Pipeline{
		fetcher:   fetcher,
		extractor: extract.New(cfg.MaxRank),
		cfg:       cfg,
	}
}

// ExpandURL fills {code} with the lower-cased code and {date} with the
// MM/DD/YYYY form of date.
func ExpandURL(template, code string, date time.Time) string {
	r := strings.NewReplacer(
		"{code}", strings.ToLower(code),
		"{date}", date.Format(types.RequestDateLayout),
	)
	return r.Replace(template)
}

// Process implements crawl.ItemFunc. Parse failures of a single report are
// marked with crawl.SkipItem; fetch failures are returned as is.
func (p *Pipeline) Process(ctx context.Context, item crawl.WorkItem) (types.DailyRecord, error) {
	body, err := p.fetcher.Fetch(ctx, ExpandURL(p.cfg.SummaryURL, item.Code, item.Date))
	if err != nil {
		return types.DailyRecord{}, err
	}

	agg, malformed, err := p.extractor.ExtractAggregate(item.Code, item.Date, body)
	for _, m := range malformed {
		logger.Warn(ctx, "Malformed broker summary row", "code", item.Code, "date", item.Date.Format("2006-01-02"), "row", m.Row, "columns", m.Columns)
	}
	if err != nil {
		// unknown unit, bad number or unparsable page
		return types.DailyRecord{}, crawl.SkipItem(err)
	}

	rec := types.DailyRecord{Aggregate: agg}
	if p.cfg.Variant != types.VariantMerge {
		return rec, nil
	}

	payload, err := p.fetcher.Fetch(ctx, ExpandURL(p.cfg.ChartURL, item.Code, item.Date))
	if err != nil {
		return types.DailyRecord{}, err
	}
	bars, err := chart.ParseBars(payload)
	if err != nil {
		return types.DailyRecord{}, crawl.SkipItem(err)
	}
	bar := chart.Align(bars, item.Date)
	if bar.IsZero() {
		logger.Debug(ctx, "No price bar for date", "code", item.Code, "date", item.Date.Format("2006-01-02"))
	}
	rec.Bar = &bar
	return rec, nil
}
