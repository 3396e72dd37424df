package export

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"broksum/internal/report"
	"broksum/internal/types"
)

func testRecords() []types.DailyRecord {
	d := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	return []types.DailyRecord{
		{Aggregate: types.DailyAggregate{
			Code:         "BBCA",
			Date:         d,
			Buyer:        types.RankedSide{{Name: "AK", Lot: "1.5M", Val: "12.3B", Avg: "8,200"}},
			Seller:       types.RankedSide{{Name: "YP", Lot: "900k", Val: "7.4B", Avg: "8,150"}},
			TotalBuyLot:  types.LotTotal{Value: 1500000, Formatted: "1.5M"},
			TotalSellLot: types.LotTotal{Value: 900000, Formatted: "900k"},
		}},
		{Aggregate: types.DailyAggregate{
			Code:         "BBCA",
			Date:         d.AddDate(0, 0, 1),
			TotalBuyLot:  types.LotTotal{Value: 2000, Formatted: "2k"},
			TotalSellLot: types.LotTotal{Value: 1000, Formatted: "1k"},
		}, Bar: &types.ChartBar{Timestamp: 1672729200000, Open: 8750, High: 8800, Low: 8700, Close: 8725, Volume: 40110200}},
	}
}

func TestNewReportWriter(t *testing.T) {
	for _, f := range []string{"json", "ndjson", "csv", "xlsx", "parquet", " JSON "} {
		w, err := NewReportWriter(f)
		require.NoError(t, err, f)
		assert.Equal(t, strings.ToLower(strings.TrimSpace(f)), w.Extension())
	}

	_, err := NewReportWriter("pdf")
	assert.Error(t, err)
}

func TestWriteAllSummary(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	rep := report.Assemble(types.VariantSummary, testRecords(), 5, []string{"BBCA", "TLKM"})

	paths, err := WriteAll(context.Background(), rep, dir, "02-01-2023-03-01-2023",
		[]string{"json", "ndjson", "csv", "xlsx", "parquet"})
	require.NoError(t, err)
	require.Len(t, paths, 5)
	assert.Equal(t, filepath.Join(dir, "02-01-2023-03-01-2023.json"), paths[0])

	t.Run("json", func(t *testing.T) {
		b, err := os.ReadFile(paths[0])
		require.NoError(t, err)
		var got []types.DailyRecord
		require.NoError(t, json.Unmarshal(b, &got))
		require.Len(t, got, 2)
		assert.Equal(t, "AK", got[0].Aggregate.Buyer[0].Name)
		assert.True(t, got[0].Aggregate.Date.Equal(testRecords()[0].Aggregate.Date))
		assert.Contains(t, string(b), `"date": "01/02/2023"`)
	})

	t.Run("ndjson", func(t *testing.T) {
		b, err := os.ReadFile(paths[1])
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(string(b)), "\n")
		require.Len(t, lines, 2)
		assert.True(t, strings.HasPrefix(lines[0], `{"Saham":"BBCA","Tanggal":"02/Jan/2023","Net 5 Buy":1500000`))
	})

	t.Run("csv", func(t *testing.T) {
		b, err := os.ReadFile(paths[2])
		require.NoError(t, err)
		assert.Equal(t,
			"Saham,Tanggal,Net 5 Buy,Net 5 Buy Formatted,Net 5 Sell,Net 5 Sell Formatted\r\n"+
				"BBCA,02/Jan/2023,1500000,1.5M,900000,900k\r\n"+
				"BBCA,03/Jan/2023,2000,2k,1000,1k\r\n",
			string(b))
	})

	t.Run("xlsx", func(t *testing.T) {
		f, err := excelize.OpenFile(paths[3])
		require.NoError(t, err)
		defer f.Close()

		assert.Equal(t, []string{"BBCA", "TLKM"}, f.GetSheetList())

		rows, err := f.GetRows("BBCA")
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, "Saham", rows[0][0])
		assert.Equal(t, "Net 5 Sell Formatted", rows[0][5])
		assert.Equal(t, "BBCA", rows[1][0])
		assert.Equal(t, "1.5M", rows[1][3])

		empty, err := f.GetRows("TLKM")
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("parquet", func(t *testing.T) {
		rows, err := parquet.ReadFile[report.SummaryRow](paths[4])
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "BBCA", rows[0].Saham)
		assert.Equal(t, 1500000.0, rows[0].NetBuy)
		assert.Equal(t, "1k", rows[1].NetSellFormatted)
	})
}

func TestWriteMergeParquetAndCSV(t *testing.T) {
	dir := t.TempDir()
	rep := report.Assemble(types.VariantMerge, testRecords(), 5, []string{"BBCA"})

	paths, err := WriteAll(context.Background(), rep, dir, "01-2023", []string{"parquet", "csv"})
	require.NoError(t, err)

	rows, err := parquet.ReadFile[report.MergeRow](paths[0])
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "20230103", rows[1].Date)
	assert.Equal(t, 8725.0, rows[1].Close)
	assert.Equal(t, 1000.0, rows[1].OI)
	assert.Equal(t, 600000.0, rows[0].OI)

	b, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	lines := strings.Split(string(b), "\r\n")
	assert.Equal(t, "ticker,date,open,high,low,close,volume,oi", lines[0])
	assert.Equal(t, "BBCA,20230103,8750,8800,8700,8725,40110200,1000", lines[2])
}

func TestWriteAllEmptyReport(t *testing.T) {
	dir := t.TempDir()
	rep := report.Assemble(types.VariantSummary, nil, 5, []string{"BBCA"})

	paths, err := WriteAll(context.Background(), rep, dir, "empty", []string{"json", "csv", "xlsx"})
	require.NoError(t, err)

	b, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Equal(t, "[]", string(b))

	b, err = os.ReadFile(paths[1])
	require.NoError(t, err)
	assert.Empty(t, b)
}

func TestWriteAllRejectsUnknownFormatBeforeWriting(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "never")
	rep := report.Assemble(types.VariantSummary, testRecords(), 5, []string{"BBCA"})

	_, err := WriteAll(context.Background(), rep, dir, "x", []string{"json", "pdf"})
	require.Error(t, err)
	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr))
}
