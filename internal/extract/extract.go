// Package extract turns a broker-summary HTML report into ranked buyer and
// seller sides.
package extract

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"broksum/internal/siunit"
	"broksum/internal/types"
)

// RowSelector matches the body rows of the results table.
const RowSelector = ".table tbody tr"

// MinColumns is the number of cells a complete row carries: four buyer
// columns, a separator and four seller columns.
const MinColumns = 9

type side int

const (
	buySide side = iota
	sellSide
)

type field int

const (
	fieldName field = iota
	fieldLot
	fieldVal
	fieldAvg
)

type target struct {
	side  side
	field field
}

// columns maps a cell index to the single field it populates. Column 4 is
// the separator between the two sides.
var columns = map[int]target{
	0: {buySide, fieldName},
	1: {buySide, fieldLot},
	2: {buySide, fieldVal},
	3: {buySide, fieldAvg},
	5: {sellSide, fieldName},
	6: {sellSide, fieldLot},
	7: {sellSide, fieldVal},
	8: {sellSide, fieldAvg},
}

func (f field) set(row *types.BrokerRow, text string) {
	switch f {
	case fieldName:
		row.Name = text
	case fieldLot:
		row.Lot = text
	case fieldVal:
		row.Val = text
	case fieldAvg:
		row.Avg = text
	}
}

// MalformedTableError describes a retained row with fewer cells than
// MinColumns. Missing fields are left empty.
type MalformedTableError struct {
	Row     int
	Columns int
}

func (e *MalformedTableError) Error() string {
	return fmt.Sprintf("row %d has %d columns, want at least %d", e.Row, e.Columns, MinColumns)
}

// Tables is the extracted content of one report.
type Tables struct {
	Buyer     types.RankedSide
	Seller    types.RankedSide
	Malformed []*MalformedTableError
}

// Totals aggregates both sides.
func (t *Tables) Totals() (buy, sell types.LotTotal, err error) {
	buy, err = siunit.Aggregate(t.Buyer)
	if err != nil {
		return types.LotTotal{}, types.LotTotal{}, fmt.Errorf("buy side: %w", err)
	}
	sell, err = siunit.Aggregate(t.Seller)
	if err != nil {
		return types.LotTotal{}, types.LotTotal{}, fmt.Errorf("sell side: %w", err)
	}
	return buy, sell, nil
}

// Extractor keeps the top MaxRank rows of a report.
type Extractor struct {
	MaxRank int
}

// New creates an extractor for the given rank cutoff.
func New(maxRank int) *Extractor {
	return &Extractor{MaxRank: maxRank}
}

// Extract parses the report body. Rows at index MaxRank and beyond are
// ignored.
func (e *Extractor) Extract(body []byte) (*Tables, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse broker summary: %w", err)
	}
	return e.FromDocument(doc), nil
}

// FromDocument extracts from an already parsed document.
func (e *Extractor) FromDocument(doc *goquery.Document) *Tables {
	tables := &Tables{
		Buyer:  types.RankedSide{},
		Seller: types.RankedSide{},
	}

	doc.Find(RowSelector).EachWithBreak(func(rowIndex int, row *goquery.Selection) bool {
		if rowIndex >= e.MaxRank {
			return false
		}

		var buy, sell types.BrokerRow
		cells := row.Children()
		cells.Each(func(colIndex int, cell *goquery.Selection) {
			t, ok := columns[colIndex]
			if !ok {
				return
			}
			text := strings.TrimSpace(cell.Text())
			if t.side == buySide {
				t.field.set(&buy, text)
			} else {
				t.field.set(&sell, text)
			}
		})

		if n := cells.Length(); n < MinColumns {
			tables.Malformed = append(tables.Malformed, &MalformedTableError{Row: rowIndex, Columns: n})
		}

		tables.Buyer = append(tables.Buyer, buy)
		tables.Seller = append(tables.Seller, sell)
		return true
	})

	return tables
}

// ExtractAggregate builds the full DailyAggregate for one report.
func (e *Extractor) ExtractAggregate(code string, date time.Time, body []byte) (types.DailyAggregate, []*MalformedTableError, error) {
	tables, err := e.Extract(body)
	if err != nil {
		return types.DailyAggregate{}, nil, err
	}
	buy, sell, err := tables.Totals()
	if err != nil {
		return types.DailyAggregate{}, tables.Malformed, err
	}
	return types.DailyAggregate{
		Code:         code,
		Date:         date,
		Buyer:        tables.Buyer,
		Seller:       tables.Seller,
		TotalBuyLot:  buy,
		TotalSellLot: sell,
	}, tables.Malformed, nil
}
