package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// RequestDateLayout is the date format the broker-summary source expects in
// its query string (MM/DD/YYYY).
const RequestDateLayout = "01/02/2006"

// BrokerRow is one broker's position at a given rank. Fields hold the raw
// display text of the table cells.
type BrokerRow struct {
	Name string `json:"name"`
	Lot  string `json:"lot"`
	Val  string `json:"val"`
	Avg  string `json:"avg"`
}

// RankedSide holds one side of the broker table, rank 1 first.
type RankedSide []BrokerRow

// LotTotal is a summed lot count plus its compact display form (e.g. 12.5M).
type LotTotal struct {
	Value     float64 `json:"value"`
	Formatted string  `json:"formatted"`
}

// DailyAggregate is the broker-summary result for one (code, trading day).
type DailyAggregate struct {
	Code         string     `json:"code"`
	Date         time.Time  `json:"-"`
	Buyer        RankedSide `json:"buyer"`
	Seller       RankedSide `json:"seller"`
	TotalBuyLot  LotTotal   `json:"totalBuyLot"`
	TotalSellLot LotTotal   `json:"totalSellLot"`
}

type dailyAggregateJSON struct {
	Code         string     `json:"code"`
	Date         string     `json:"date"`
	Buyer        RankedSide `json:"buyer"`
	Seller       RankedSide `json:"seller"`
	TotalBuyLot  LotTotal   `json:"totalBuyLot"`
	TotalSellLot LotTotal   `json:"totalSellLot"`
}

// MarshalJSON writes Date in the request layout the source uses.
func (a DailyAggregate) MarshalJSON() ([]byte, error) {
	return json.Marshal(dailyAggregateJSON{
		Code:         a.Code,
		Date:         a.Date.Format(RequestDateLayout),
		Buyer:        a.Buyer,
		Seller:       a.Seller,
		TotalBuyLot:  a.TotalBuyLot,
		TotalSellLot: a.TotalSellLot,
	})
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (a *DailyAggregate) UnmarshalJSON(b []byte) error {
	var raw dailyAggregateJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	d, err := time.ParseInLocation(RequestDateLayout, raw.Date, time.UTC)
	if err != nil {
		return fmt.Errorf("invalid aggregate date %q: %w", raw.Date, err)
	}
	*a = DailyAggregate{
		Code:         raw.Code,
		Date:         d,
		Buyer:        raw.Buyer,
		Seller:       raw.Seller,
		TotalBuyLot:  raw.TotalBuyLot,
		TotalSellLot: raw.TotalSellLot,
	}
	return nil
}

// NetFlow is net buy minus net sell lots.
func (a DailyAggregate) NetFlow() float64 {
	return a.TotalBuyLot.Value - a.TotalSellLot.Value
}

// ChartBar is one daily OHLCV bar. Timestamp is Unix milliseconds.
type ChartBar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// IsZero reports whether the bar is the zero-filled placeholder.
func (b ChartBar) IsZero() bool {
	return b == ChartBar{}
}

// DailyRecord is the result of one crawl item. Bar is nil unless the run
// merges chart bars.
type DailyRecord struct {
	Aggregate DailyAggregate `json:"aggregate"`
	Bar       *ChartBar      `json:"bar,omitempty"`
}

// Variant selects what each crawl item produces.
type Variant string

const (
	VariantSummary Variant = "summary"
	VariantMerge   Variant = "merge"
)
