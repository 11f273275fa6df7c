package export

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/abelzeko/morocco-water/internal/analysis"
	"github.com/abelzeko/morocco-water/internal/dataset"
	"github.com/xuri/excelize/v2"
)

// WorkbookFile is the default name of the Excel export
const WorkbookFile = "morocco_water_statistics.xlsx"

// Sheet names in the workbook, in tab order
const (
	NationalSheet   = "National_Metrics"
	RegionalSheet   = "Regional_Dams"
	InvestmentSheet = "Investments"
	TrendSheet      = "Water_Trends"
	SummarySheet    = "Summary"
)

// WorkbookExporter writes every table to one sheet of an Excel workbook
type WorkbookExporter struct {
	Path string
}

// NewWorkbookExporter creates a workbook exporter writing to path, WorkbookFile when empty
func NewWorkbookExporter(path string) *WorkbookExporter {
	if path == "" {
		path = WorkbookFile
	}
	return &WorkbookExporter{Path: path}
}

// NewWorkbookExporterInDir creates a workbook exporter writing WorkbookFile into dir
func NewWorkbookExporterInDir(dir string) *WorkbookExporter {
	return NewWorkbookExporter(filepath.Join(dir, WorkbookFile))
}

// Export writes the workbook, replacing any existing file
func (e *WorkbookExporter) Export(ds *dataset.Dataset) error {
	summary, err := analysis.NewAggregator(ds).Summary()
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", NationalSheet); err != nil {
		return fmt.Errorf("failed to rename default sheet: %w", err)
	}

	sheets := []struct {
		name    string
		records [][]string
		numeric map[int]bool
	}{
		{NationalSheet, EncodeNationalMetrics(ds.NationalMetrics()), map[int]bool{1: true, 3: true}},
		{RegionalSheet, EncodeRegionalDams(ds.RegionalDams(dataset.ViewAll)), map[int]bool{1: true, 2: true, 5: true}},
		{InvestmentSheet, EncodeInvestments(ds.Investments()), map[int]bool{1: true, 3: true}},
		{TrendSheet, EncodeTrends(ds.Trends()), map[int]bool{0: true, 1: true, 2: true}},
	}

	for i, sheet := range sheets {
		if i > 0 {
			if _, err := f.NewSheet(sheet.name); err != nil {
				return fmt.Errorf("failed to create sheet %s: %w", sheet.name, err)
			}
		}
		if err := writeSheet(f, sheet.name, sheet.records, sheet.numeric); err != nil {
			return err
		}
	}

	if err := writeSummarySheet(f, summary); err != nil {
		return err
	}

	if err := f.SaveAs(e.Path); err != nil {
		return &FileError{File: e.Path, Err: err}
	}

	log.Printf("Exported workbook with %d sheets to %s", len(sheets)+1, e.Path)
	return nil
}

// writeSheet copies CSV-shaped records into a sheet. Cells in numeric columns are
// stored as numbers and empty cells stay blank.
func writeSheet(f *excelize.File, sheet string, records [][]string, numeric map[int]bool) error {
	for r, rec := range records {
		row := make([]interface{}, len(rec))
		for c, value := range rec {
			switch {
			case value == "":
				row[c] = nil
			case r > 0 && numeric[c]:
				n, err := parseFloat(value)
				if err != nil {
					return fmt.Errorf("sheet %s row %d: %w", sheet, r+1, err)
				}
				row[c] = n
			default:
				row[c] = value
			}
		}

		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write sheet %s row %d: %w", sheet, r+1, err)
		}
	}

	if len(records) > 0 {
		last, err := excelize.ColumnNumberToName(len(records[0]))
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, "A", last, 24); err != nil {
			return err
		}
	}
	return nil
}

func writeSummarySheet(f *excelize.File, summary analysis.Summary) error {
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", SummarySheet, err)
	}

	rows := [][]interface{}{
		{"indicator", "value"},
		{"critical_regions", strings.Join(summary.CriticalRegions, ";")},
		{"regional_critical_regions", strings.Join(summary.RegionalCriticalRegions, ";")},
		{"average_filling_rate", summary.AverageFillingRate},
		{"regional_average_filling_rate", summary.RegionalAverageFillingRate},
		{"total_government_investment", summary.TotalGovernmentInvestment},
		{"water_stress_severity", summary.WaterStressSeverity},
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary row %d: %w", i+1, err)
		}
	}
	return f.SetColWidth(SummarySheet, "A", "B", 32)
}
