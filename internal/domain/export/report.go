package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// ReportSummary carries batch-level counters for the XLSX report.
type ReportSummary struct {
	RunID         string
	InputPath     string
	Started       time.Time
	Finished      time.Time
	Processed     int
	SkippedCached int
	SkippedWindow int
	Failed        int
}

// ReportRow is one file's outcome in the XLSX report.
type ReportRow struct {
	File    string
	Bank    string
	Status  string
	Records int
	Flags   []string
	Error   string
}

// WriteXLSXReport writes a two-sheet batch report: run-level counters on
// Summary, per-file outcomes on Files.
func WriteXLSXReport(path string, sum ReportSummary, rows []ReportRow) error {
	f := excelize.NewFile()
	defer f.Close()

	const summarySheet = "Summary"
	f.SetSheetName("Sheet1", summarySheet)

	summary := [][2]any{
		{"Run ID", sum.RunID},
		{"Input", sum.InputPath},
		{"Started", sum.Started.Format(time.RFC3339)},
		{"Finished", sum.Finished.Format(time.RFC3339)},
		{"Processed", sum.Processed},
		{"Skipped (cached)", sum.SkippedCached},
		{"Skipped (window)", sum.SkippedWindow},
		{"Failed", sum.Failed},
	}
	for i, kv := range summary {
		keyCell, _ := excelize.CoordinatesToCellName(1, i+1)
		valCell, _ := excelize.CoordinatesToCellName(2, i+1)
		if err := f.SetCellValue(summarySheet, keyCell, kv[0]); err != nil {
			return fmt.Errorf("report summary: %w", err)
		}
		if err := f.SetCellValue(summarySheet, valCell, kv[1]); err != nil {
			return fmt.Errorf("report summary: %w", err)
		}
	}

	const filesSheet = "Files"
	if _, err := f.NewSheet(filesSheet); err != nil {
		return fmt.Errorf("report files sheet: %w", err)
	}
	headers := []string{"File", "Bank", "Status", "Records", "Flags", "Error"}
	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(filesSheet, cell, h); err != nil {
			return fmt.Errorf("report files header: %w", err)
		}
	}
	for i, row := range rows {
		values := []any{row.File, row.Bank, row.Status, row.Records, strings.Join(row.Flags, ";"), row.Error}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(filesSheet, cell, v); err != nil {
				return fmt.Errorf("report files row %d: %w", i+1, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save report %s: %w", path, err)
	}
	return nil
}
