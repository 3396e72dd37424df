// Package report turns crawl records into flat output rows and the
// groupings and line encodings the writers need. Nothing here fetches or
// writes.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"broksum/internal/types"
)

const (
	// SummaryDateLayout renders dates like 02/Jan/2023.
	SummaryDateLayout = "02/Jan/2006"
	// MergeDateLayout renders dates like 20230102.
	MergeDateLayout = "20060102"
)

// Row is one output record with a stable column order.
type Row interface {
	Header() []string
	Fields() []any
	Ticker() string
}

// SummaryRow is the net buy/sell row of one ticker and day.
type SummaryRow struct {
	Saham            string  `parquet:"saham"`
	Tanggal          string  `parquet:"tanggal"`
	NetBuy           float64 `parquet:"net_buy"`
	NetBuyFormatted  string  `parquet:"net_buy_formatted"`
	NetSell          float64 `parquet:"net_sell"`
	NetSellFormatted string  `parquet:"net_sell_formatted"`
	MaxRank          int     `parquet:"max_rank"`
}

func (r SummaryRow) Header() []string {
	n := r.MaxRank
	return []string{
		"Saham",
		"Tanggal",
		fmt.Sprintf("Net %d Buy", n),
		fmt.Sprintf("Net %d Buy Formatted", n),
		fmt.Sprintf("Net %d Sell", n),
		fmt.Sprintf("Net %d Sell Formatted", n),
	}
}

func (r SummaryRow) Fields() []any {
	return []any{r.Saham, r.Tanggal, r.NetBuy, r.NetBuyFormatted, r.NetSell, r.NetSellFormatted}
}

func (r SummaryRow) Ticker() string { return r.Saham }

func (r SummaryRow) MarshalJSON() ([]byte, error) {
	return orderedObject(r.Header(), r.Fields())
}

// MergeRow is an OHLCV row whose open-interest column carries the day's
// net broker flow.
type MergeRow struct {
	Code   string  `parquet:"ticker"`
	Date   string  `parquet:"date"`
	Open   float64 `parquet:"open"`
	High   float64 `parquet:"high"`
	Low    float64 `parquet:"low"`
	Close  float64 `parquet:"close"`
	Volume float64 `parquet:"volume"`
	OI     float64 `parquet:"oi"`
}

var mergeHeader = []string{"ticker", "date", "open", "high", "low", "close", "volume", "oi"}

func (r MergeRow) Header() []string { return append([]string(nil), mergeHeader...) }

func (r MergeRow) Fields() []any {
	return []any{r.Code, r.Date, r.Open, r.High, r.Low, r.Close, r.Volume, r.OI}
}

func (r MergeRow) Ticker() string { return r.Code }

func (r MergeRow) MarshalJSON() ([]byte, error) {
	return orderedObject(mergeHeader, r.Fields())
}

// orderedObject encodes a JSON object whose keys keep header order.
func orderedObject(header []string, fields []any) ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, h := range header {
		if i > 0 {
			b.WriteByte(',')
		}
		k, err := json.Marshal(h)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(fields[i])
		if err != nil {
			return nil, err
		}
		b.Write(k)
		b.WriteByte(':')
		b.Write(v)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

// SummaryRows builds one SummaryRow per record, in record order.
func SummaryRows(records []types.DailyRecord, maxRank int) []SummaryRow {
	rows := make([]SummaryRow, 0, len(records))
	for _, rec := range records {
		a := rec.Aggregate
		rows = append(rows, SummaryRow{
			Saham:            strings.ToUpper(a.Code),
			Tanggal:          a.Date.Format(SummaryDateLayout),
			NetBuy:           a.TotalBuyLot.Value,
			NetBuyFormatted:  a.TotalBuyLot.Formatted,
			NetSell:          a.TotalSellLot.Value,
			NetSellFormatted: a.TotalSellLot.Formatted,
			MaxRank:          maxRank,
		})
	}
	return rows
}

// MergeRows builds one MergeRow per record. A record without a bar gets
// zero prices.
func MergeRows(records []types.DailyRecord) []MergeRow {
	rows := make([]MergeRow, 0, len(records))
	for _, rec := range records {
		a := rec.Aggregate
		var bar types.ChartBar
		if rec.Bar != nil {
			bar = *rec.Bar
		}
		rows = append(rows, MergeRow{
			Code:   strings.ToUpper(a.Code),
			Date:   a.Date.Format(MergeDateLayout),
			Open:   bar.Open,
			High:   bar.High,
			Low:    bar.Low,
			Close:  bar.Close,
			Volume: bar.Volume,
			OI:     a.NetFlow(),
		})
	}
	return rows
}

// Rows picks the row shape for variant.
func Rows(variant types.Variant, records []types.DailyRecord, maxRank int) []Row {
	var rows []Row
	if variant == types.VariantMerge {
		for _, r := range MergeRows(records) {
			rows = append(rows, r)
		}
		return rows
	}
	for _, r := range SummaryRows(records, maxRank) {
		rows = append(rows, r)
	}
	return rows
}

// Sheet is the rows of one configured code.
type Sheet struct {
	Name string
	Rows []Row
}

// GroupByTicker returns one sheet per code, in codes order. A code with no
// rows still gets an empty sheet.
func GroupByTicker(rows []Row, codes []string) []Sheet {
	sheets := make([]Sheet, 0, len(codes))
	for _, code := range codes {
		want := strings.ToUpper(code)
		sheet := Sheet{Name: code}
		for _, r := range rows {
			if r.Ticker() == want {
				sheet.Rows = append(sheet.Rows, r)
			}
		}
		sheets = append(sheets, sheet)
	}
	return sheets
}

// Lines renders a header line and one line per row. Each field is JSON
// encoded, double quotes are dropped and fields are joined with commas.
func Lines(rows []Row) ([]string, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, strings.Join(rows[0].Header(), ","))
	for _, r := range rows {
		fields := r.Fields()
		cells := make([]string, len(fields))
		for i, f := range fields {
			b, err := json.Marshal(f)
			if err != nil {
				return nil, fmt.Errorf("encode %s field %d: %w", r.Ticker(), i, err)
			}
			cells[i] = strings.ReplaceAll(string(b), `"`, "")
		}
		lines = append(lines, strings.Join(cells, ","))
	}
	return lines, nil
}

// Delimited joins Lines with CRLF.
func Delimited(rows []Row) (string, error) {
	lines, err := Lines(rows)
	if err != nil {
		return "", err
	}
	return strings.Join(lines, "\r\n"), nil
}

// Report is everything the writers need from one run.
type Report struct {
	Variant types.Variant
	Records []types.DailyRecord
	Rows    []Row
	Sheets  []Sheet
}

// Assemble derives rows and per-code sheets from records.
func Assemble(variant types.Variant, records []types.DailyRecord, maxRank int, codes []string) *Report {
	rows := Rows(variant, records, maxRank)
	return &Report{
		Variant: variant,
		Records: records,
		Rows:    rows,
		Sheets:  GroupByTicker(rows, codes),
	}
}
