package interfaces

import "broksum/internal/report"

// ReportWriter persists an assembled report in one file format.
type ReportWriter interface {
	Write(rep *report.Report, path string) error
	Extension() string
}
