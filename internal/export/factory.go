package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"broksum/internal/interfaces"
	"broksum/internal/logger"
	"broksum/internal/report"
)

// NewReportWriter returns the writer for format: json, ndjson, csv, xlsx
// or parquet.
func NewReportWriter(format string) (interfaces.ReportWriter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return JSONWriter{}, nil
	case "ndjson":
		return NDJSONWriter{}, nil
	case "csv":
		return CSVWriter{}, nil
	case "xlsx":
		return XLSXWriter{}, nil
	case "parquet":
		return ParquetWriter{}, nil
	default:
		return nil, fmt.Errorf("export: unsupported format %q (use json, ndjson, csv, xlsx, parquet)", format)
	}
}

// WriteAll writes rep once per format as dir/stem.ext and returns the paths
// written. It stops at the first failure.
func WriteAll(ctx context.Context, rep *report.Report, dir, stem string, formats []string) ([]string, error) {
	writers := make([]interfaces.ReportWriter, 0, len(formats))
	for _, f := range formats {
		w, err := NewReportWriter(f)
		if err != nil {
			return nil, err
		}
		writers = append(writers, w)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	paths := make([]string, 0, len(writers))
	for _, w := range writers {
		path := filepath.Join(dir, stem+"."+w.Extension())
		op := logger.StartOperation(ctx, "export.write", "path", path)
		if err := w.Write(rep, path); err != nil {
			op.EndWithError(err)
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		op.End("rows", len(rep.Rows))
		logger.Info(ctx, "Report written", "path", path, "rows", len(rep.Rows))
		paths = append(paths, path)
	}
	return paths, nil
}
