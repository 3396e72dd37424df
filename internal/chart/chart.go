// Package chart parses charting-endpoint payloads and picks the daily bar
// for a trading date.
package chart

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"broksum/internal/types"
)

// BarOffset is added to a date's UTC midnight to get the timestamp the
// charting source stamps its daily bars with.
const BarOffset = 7 * time.Hour

// BarTimestamp returns the Unix-millisecond timestamp of the bar for date.
// Only the calendar date of the argument is used.
func BarTimestamp(date time.Time) int64 {
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Add(BarOffset).UnixMilli()
}

// ParseBars decodes a JSON array of [timestamp, open, high, low, close,
// volume] tuples. Short tuples are zero padded.
func ParseBars(payload []byte) ([]types.ChartBar, error) {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
		return nil, nil
	}

	var tuples [][]float64
	if err := json.Unmarshal(payload, &tuples); err != nil {
		return nil, fmt.Errorf("failed to parse chart payload: %w", err)
	}

	bars := make([]types.ChartBar, 0, len(tuples))
	for _, t := range tuples {
		var v [6]float64
		copy(v[:], t)
		bars = append(bars, types.ChartBar{
			Timestamp: int64(v[0]),
			Open:      v[1],
			High:      v[2],
			Low:       v[3],
			Close:     v[4],
			Volume:    v[5],
		})
	}
	return bars, nil
}

// Align returns the bar stamped for date, or the zero bar when the payload
// has none (holiday, suspended or delisted instrument).
func Align(bars []types.ChartBar, date time.Time) types.ChartBar {
	ts := BarTimestamp(date)
	for _, b := range bars {
		if b.Timestamp == ts {
			return b
		}
	}
	return types.ChartBar{}
}
