package export

import (
	"bufio"
	"encoding/json"
	"os"

	"broksum/internal/report"
	"broksum/internal/types"
)

// JSONWriter dumps the full daily records, broker detail included, as an
// indented array.
type JSONWriter struct{}

func (JSONWriter) Extension() string { return "json" }

func (JSONWriter) Write(rep *report.Report, path string) error {
	records := rep.Records
	if records == nil {
		records = []types.DailyRecord{}
	}
	b, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// NDJSONWriter writes one output row object per line.
type NDJSONWriter struct{}

func (NDJSONWriter) Extension() string { return "ndjson" }

func (NDJSONWriter) Write(rep *report.Report, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, r := range rep.Rows {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Close()
}
