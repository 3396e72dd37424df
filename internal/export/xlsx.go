package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"broksum/internal/report"
)

// XLSXWriter writes one worksheet per configured code. Each sheet has a
// header row followed by the code's rows; a code without rows gets an empty
// sheet.
type XLSXWriter struct{}

func (XLSXWriter) Extension() string { return "xlsx" }

func (XLSXWriter) Write(rep *report.Report, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range rep.Sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet.Name); err != nil {
				return fmt.Errorf("rename sheet %s: %w", sheet.Name, err)
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			return fmt.Errorf("add sheet %s: %w", sheet.Name, err)
		}
		if err := writeSheet(f, sheet); err != nil {
			return err
		}
	}

	return f.SaveAs(path)
}

func writeSheet(f *excelize.File, sheet report.Sheet) error {
	if len(sheet.Rows) == 0 {
		return nil
	}
	header := sheet.Rows[0].Header()
	if err := f.SetSheetRow(sheet.Name, "A1", &header); err != nil {
		return fmt.Errorf("sheet %s header: %w", sheet.Name, err)
	}
	for i, r := range sheet.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		fields := r.Fields()
		if err := f.SetSheetRow(sheet.Name, cell, &fields); err != nil {
			return fmt.Errorf("sheet %s row %d: %w", sheet.Name, i+1, err)
		}
	}
	return nil
}
