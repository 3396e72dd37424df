package export

import (
	"fmt"

	"github.com/parquet-go/parquet-go"

	"broksum/internal/report"
	"broksum/internal/types"
)

// ParquetWriter writes the flat output rows, one column per field.
type ParquetWriter struct{}

func (ParquetWriter) Extension() string { return "parquet" }

func (ParquetWriter) Write(rep *report.Report, path string) error {
	if rep.Variant == types.VariantMerge {
		rows, err := typedRows[report.MergeRow](rep.Rows)
		if err != nil {
			return err
		}
		return parquet.WriteFile(path, rows)
	}
	rows, err := typedRows[report.SummaryRow](rep.Rows)
	if err != nil {
		return err
	}
	return parquet.WriteFile(path, rows)
}

func typedRows[T report.Row](rows []report.Row) ([]T, error) {
	out := make([]T, 0, len(rows))
	for i, r := range rows {
		t, ok := r.(T)
		if !ok {
			return nil, fmt.Errorf("row %d is %T, not a single row type", i, r)
		}
		out = append(out, t)
	}
	return out, nil
}
