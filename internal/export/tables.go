// Package export writes the water statistics tables to files
package export

import (
	"database/sql"
	"fmt"
	"strconv"

	"github.com/abelzeko/morocco-water/internal/dataset"
	"github.com/abelzeko/morocco-water/internal/entities"
	"github.com/shopspring/decimal"
)

// Column headers, in file order
var (
	NationalHeader   = []string{"metric", "value", "unit", "year", "source", "criticality"}
	RegionalHeader   = []string{"basin_name", "filling_rate_percent", "capacity_million_m3", "performance_status", "priority_for_awg", "market_opportunity_score"}
	InvestmentHeader = []string{"agency", "investment_million_usd", "purpose", "target_production_bcm", "relevance_to_awg"}
	TrendHeader      = []string{"year", "per_capita_m3", "population_millions", "water_stress_level"}
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Null values are written as empty cells
func formatNullFloat(v sql.NullFloat64) string {
	if !v.Valid {
		return ""
	}
	return formatFloat(v.Float64)
}

func formatNullDecimal(v decimal.NullDecimal) string {
	if !v.Valid {
		return ""
	}
	return v.Decimal.String()
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

func parseNullFloat(s string) (sql.NullFloat64, error) {
	if s == "" {
		return sql.NullFloat64{}, nil
	}
	v, err := parseFloat(s)
	if err != nil {
		return sql.NullFloat64{}, err
	}
	return sql.NullFloat64{Float64: v, Valid: true}, nil
}

func parseNullDecimal(s string) (decimal.NullDecimal, error) {
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

// EncodeNationalMetrics renders the national table with its header row
func EncodeNationalMetrics(rows []entities.NationalMetric) [][]string {
	records := [][]string{NationalHeader}
	for _, m := range rows {
		records = append(records, []string{
			m.Metric,
			formatFloat(m.Value),
			m.Unit,
			strconv.Itoa(m.Year),
			m.Source,
			string(m.Criticality),
		})
	}
	return records
}

// EncodeRegionalDams renders the dam table with its header row
func EncodeRegionalDams(rows []entities.RegionalDam) [][]string {
	records := [][]string{RegionalHeader}
	for _, d := range rows {
		records = append(records, []string{
			d.BasinName,
			formatFloat(d.FillingRatePercent),
			formatNullFloat(d.CapacityMillionM3),
			string(d.PerformanceStatus),
			string(d.PriorityForAWG),
			strconv.Itoa(d.MarketOpportunityScore),
		})
	}
	return records
}

// EncodeInvestments renders the investment table with its header row
func EncodeInvestments(rows []entities.InvestmentRecord) [][]string {
	records := [][]string{InvestmentHeader}
	for _, inv := range rows {
		records = append(records, []string{
			inv.Agency,
			formatNullDecimal(inv.InvestmentMillionUSD),
			inv.Purpose,
			formatNullFloat(inv.TargetProductionBCM),
			string(inv.Relevance),
		})
	}
	return records
}

// EncodeTrends renders the trend table with its header row
func EncodeTrends(rows []entities.TrendPoint) [][]string {
	records := [][]string{TrendHeader}
	for _, tp := range rows {
		records = append(records, []string{
			strconv.Itoa(tp.Year),
			formatFloat(tp.PerCapitaM3),
			formatFloat(tp.PopulationMillions),
			string(tp.WaterStressLevel),
		})
	}
	return records
}

func checkHeader(records [][]string, header []string) error {
	if len(records) == 0 {
		return fmt.Errorf("missing header row")
	}
	if len(records[0]) != len(header) {
		return fmt.Errorf("expected %d columns, got %d", len(header), len(records[0]))
	}
	for i, name := range header {
		if records[0][i] != name {
			return fmt.Errorf("column %d: expected %q, got %q", i+1, name, records[0][i])
		}
	}
	return nil
}

// DecodeNationalMetrics parses records produced by EncodeNationalMetrics
func DecodeNationalMetrics(records [][]string) ([]entities.NationalMetric, error) {
	if err := checkHeader(records, NationalHeader); err != nil {
		return nil, err
	}

	var rows []entities.NationalMetric
	for i, rec := range records[1:] {
		if len(rec) != len(NationalHeader) {
			return nil, fmt.Errorf("row %d: expected %d columns, got %d", i+1, len(NationalHeader), len(rec))
		}
		value, err := parseFloat(rec[1])
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid value: %w", i+1, err)
		}
		year, err := strconv.Atoi(rec[3])
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid year: %w", i+1, err)
		}
		rows = append(rows, entities.NationalMetric{
			Metric:      rec[0],
			Value:       value,
			Unit:        rec[2],
			Year:        year,
			Source:      rec[4],
			Criticality: entities.Criticality(rec[5]),
		})
	}
	return rows, nil
}

// DecodeRegionalDams parses records produced by EncodeRegionalDams.
// The national average row is re-tagged as an aggregate by name.
func DecodeRegionalDams(records [][]string) ([]entities.RegionalDam, error) {
	if err := checkHeader(records, RegionalHeader); err != nil {
		return nil, err
	}

	var rows []entities.RegionalDam
	for i, rec := range records[1:] {
		if len(rec) != len(RegionalHeader) {
			return nil, fmt.Errorf("row %d: expected %d columns, got %d", i+1, len(RegionalHeader), len(rec))
		}
		filling, err := parseFloat(rec[1])
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid filling rate: %w", i+1, err)
		}
		capacity, err := parseNullFloat(rec[2])
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid capacity: %w", i+1, err)
		}
		score, err := strconv.Atoi(rec[5])
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid score: %w", i+1, err)
		}

		kind := entities.RowRegion
		if rec[0] == dataset.NationalAverageBasin {
			kind = entities.RowAggregate
		}

		rows = append(rows, entities.RegionalDam{
			BasinName:              rec[0],
			Kind:                   kind,
			FillingRatePercent:     filling,
			CapacityMillionM3:      capacity,
			PerformanceStatus:      entities.PerformanceStatus(rec[3]),
			PriorityForAWG:         entities.Priority(rec[4]),
			MarketOpportunityScore: score,
		})
	}
	return rows, nil
}

// DecodeInvestments parses records produced by EncodeInvestments
func DecodeInvestments(records [][]string) ([]entities.InvestmentRecord, error) {
	if err := checkHeader(records, InvestmentHeader); err != nil {
		return nil, err
	}

	var rows []entities.InvestmentRecord
	for i, rec := range records[1:] {
		if len(rec) != len(InvestmentHeader) {
			return nil, fmt.Errorf("row %d: expected %d columns, got %d", i+1, len(InvestmentHeader), len(rec))
		}
		amount, err := parseNullDecimal(rec[1])
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid investment: %w", i+1, err)
		}
		production, err := parseNullFloat(rec[3])
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid target production: %w", i+1, err)
		}
		rows = append(rows, entities.InvestmentRecord{
			Agency:               rec[0],
			InvestmentMillionUSD: amount,
			Purpose:              rec[2],
			TargetProductionBCM:  production,
			Relevance:            entities.Relevance(rec[4]),
		})
	}
	return rows, nil
}

// DecodeTrends parses records produced by EncodeTrends
func DecodeTrends(records [][]string) ([]entities.TrendPoint, error) {
	if err := checkHeader(records, TrendHeader); err != nil {
		return nil, err
	}

	var rows []entities.TrendPoint
	for i, rec := range records[1:] {
		if len(rec) != len(TrendHeader) {
			return nil, fmt.Errorf("row %d: expected %d columns, got %d", i+1, len(TrendHeader), len(rec))
		}
		year, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid year: %w", i+1, err)
		}
		perCapita, err := parseFloat(rec[1])
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid per capita volume: %w", i+1, err)
		}
		population, err := parseFloat(rec[2])
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid population: %w", i+1, err)
		}
		rows = append(rows, entities.TrendPoint{
			Year:               year,
			PerCapitaM3:        perCapita,
			PopulationMillions: population,
			WaterStressLevel:   entities.StressLevel(rec[3]),
		})
	}
	return rows, nil
}
