package export

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/abelzeko/morocco-water/internal/analysis"
	"github.com/abelzeko/morocco-water/internal/dataset"
	"github.com/abelzeko/morocco-water/internal/entities"
	"go.uber.org/multierr"
)

// Output file names, one per table
const (
	NationalFile   = "morocco_national_water_data.csv"
	RegionalFile   = "morocco_regional_dam_data.csv"
	InvestmentFile = "morocco_investment_data.csv"
	TrendFile      = "morocco_water_trends.csv"
)

// FileError reports a table that could not be written or read
type FileError struct {
	File string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// CSVExporter writes each table to its own comma-separated file
type CSVExporter struct {
	Dir string
}

// NewCSVExporter creates an exporter writing into dir, the working directory when empty
func NewCSVExporter(dir string) *CSVExporter {
	if dir == "" {
		dir = "."
	}
	return &CSVExporter{Dir: dir}
}

// Path returns where the exporter writes the named file
func (e *CSVExporter) Path(name string) string {
	return filepath.Join(e.Dir, name)
}

// Export writes the four tables and returns the run summary. Every table is
// attempted even when an earlier one fails; failures come back as *FileError
// values combined into one error, and files already written are left in place.
func (e *CSVExporter) Export(ds *dataset.Dataset) (analysis.Summary, error) {
	tables := []struct {
		name    string
		records [][]string
	}{
		{NationalFile, EncodeNationalMetrics(ds.NationalMetrics())},
		{RegionalFile, EncodeRegionalDams(ds.RegionalDams(dataset.ViewAll))},
		{InvestmentFile, EncodeInvestments(ds.Investments())},
		{TrendFile, EncodeTrends(ds.Trends())},
	}

	var errs error
	for _, table := range tables {
		path := e.Path(table.name)
		if err := writeCSV(path, table.records); err != nil {
			log.Printf("Error exporting %s: %v", path, err)
			errs = multierr.Append(errs, &FileError{File: path, Err: err})
			continue
		}
		log.Printf("Exported %d rows to %s", len(table.records)-1, path)
	}

	summary, err := analysis.NewAggregator(ds).Summary()
	if err != nil {
		errs = multierr.Append(errs, err)
	}
	return summary, errs
}

func writeCSV(path string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		f.Close()
		return fmt.Errorf("failed to write records: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	return nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &FileError{File: path, Err: err}
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, &FileError{File: path, Err: err}
	}
	return records, nil
}

// ReadNationalMetrics loads a file written by Export
func ReadNationalMetrics(path string) ([]entities.NationalMetric, error) {
	records, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	rows, err := DecodeNationalMetrics(records)
	if err != nil {
		return nil, &FileError{File: path, Err: err}
	}
	return rows, nil
}

// ReadRegionalDams loads a file written by Export
func ReadRegionalDams(path string) ([]entities.RegionalDam, error) {
	records, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	rows, err := DecodeRegionalDams(records)
	if err != nil {
		return nil, &FileError{File: path, Err: err}
	}
	return rows, nil
}

// ReadInvestments loads a file written by Export
func ReadInvestments(path string) ([]entities.InvestmentRecord, error) {
	records, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	rows, err := DecodeInvestments(records)
	if err != nil {
		return nil, &FileError{File: path, Err: err}
	}
	return rows, nil
}

// ReadTrends loads a file written by Export
func ReadTrends(path string) ([]entities.TrendPoint, error) {
	records, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	rows, err := DecodeTrends(records)
	if err != nil {
		return nil, &FileError{File: path, Err: err}
	}
	return rows, nil
}
