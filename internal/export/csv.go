package export

import (
	"os"

	"broksum/internal/report"
)

// CSVWriter writes the CRLF-delimited table. Fields are JSON encoded with
// double quotes removed, so no CSV quoting is applied.
type CSVWriter struct{}

func (CSVWriter) Extension() string { return "csv" }

func (CSVWriter) Write(rep *report.Report, path string) error {
	text, err := report.Delimited(rep.Rows)
	if err != nil {
		return err
	}
	if text != "" {
		text += "\r\n"
	}
	return os.WriteFile(path, []byte(text), 0o644)
}
