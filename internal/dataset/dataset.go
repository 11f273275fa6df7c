// Package dataset builds the fixed Morocco water statistics tables
package dataset

import (
	"database/sql"
	"fmt"

	"github.com/abelzeko/morocco-water/internal/entities"
	"github.com/abelzeko/morocco-water/internal/scoring"
	"github.com/shopspring/decimal"
)

const (
	referenceYear  = 2024
	ministrySource = "Ministry_Equipment_Water"

	// NationalAverageBasin names the synthetic row summarising every basin
	NationalAverageBasin = "National_Average"
)

// View selects which regional dam rows an operation sees
type View int

const (
	// ViewAll includes the synthetic National_Average row
	ViewAll View = iota
	// ViewRegions keeps real basins only
	ViewRegions
)

// Dataset holds the four water statistics tables. It is never modified after
// Build returns and every accessor hands out a copy.
type Dataset struct {
	national    []entities.NationalMetric
	dams        []entities.RegionalDam
	investments []entities.InvestmentRecord
	trends      []entities.TrendPoint
	ladder      scoring.Ladder
}

// Build materializes the tables from literal values, scoring each dam row with scoring.DefaultLadder
func Build() *Dataset {
	return BuildWithLadder(scoring.DefaultLadder)
}

// BuildWithLadder materializes the tables, scoring each dam row with ladder
func BuildWithLadder(ladder scoring.Ladder) *Dataset {
	dams := regionalDams()
	for i := range dams {
		dams[i].MarketOpportunityScore = ladder.Score(dams[i].FillingRatePercent)
	}

	return &Dataset{
		national:    nationalMetrics(),
		dams:        dams,
		investments: investments(),
		trends:      trends(),
		ladder:      ladder,
	}
}

// NationalMetrics returns the national indicator table in table order
func (d *Dataset) NationalMetrics() []entities.NationalMetric {
	return append([]entities.NationalMetric(nil), d.national...)
}

// RegionalDams returns the dam performance rows visible through view, in table order
func (d *Dataset) RegionalDams(view View) []entities.RegionalDam {
	rows := make([]entities.RegionalDam, 0, len(d.dams))
	for _, dam := range d.dams {
		if view == ViewRegions && dam.IsAggregate() {
			continue
		}
		rows = append(rows, dam)
	}
	return rows
}

// Investments returns the government investment table in table order
func (d *Dataset) Investments() []entities.InvestmentRecord {
	return append([]entities.InvestmentRecord(nil), d.investments...)
}

// Trends returns the availability series ordered by year
func (d *Dataset) Trends() []entities.TrendPoint {
	return append([]entities.TrendPoint(nil), d.trends...)
}

// Validate checks the table invariants: unique keys, known enum values,
// sane numeric ranges and dam scores matching the ladder they were built with
func (d *Dataset) Validate() error {
	scores := make(map[int]bool)
	for _, score := range d.ladder.Scores() {
		scores[score] = true
	}

	metrics := make(map[string]bool, len(d.national))
	for _, m := range d.national {
		if metrics[m.Metric] {
			return fmt.Errorf("duplicate national metric %q", m.Metric)
		}
		metrics[m.Metric] = true
		if !m.Criticality.Valid() {
			return fmt.Errorf("metric %q has unknown criticality %q", m.Metric, m.Criticality)
		}
	}

	basins := make(map[string]bool, len(d.dams))
	for _, dam := range d.dams {
		if basins[dam.BasinName] {
			return fmt.Errorf("duplicate basin %q", dam.BasinName)
		}
		basins[dam.BasinName] = true
		if dam.FillingRatePercent < 0 || dam.FillingRatePercent > 100 {
			return fmt.Errorf("basin %q filling rate %.2f outside 0-100", dam.BasinName, dam.FillingRatePercent)
		}
		if !dam.PerformanceStatus.Valid() {
			return fmt.Errorf("basin %q has unknown performance status %q", dam.BasinName, dam.PerformanceStatus)
		}
		if !dam.PriorityForAWG.Valid() {
			return fmt.Errorf("basin %q has unknown priority %q", dam.BasinName, dam.PriorityForAWG)
		}
		if !scores[dam.MarketOpportunityScore] {
			return fmt.Errorf("basin %q has score %d outside the ladder %v", dam.BasinName, dam.MarketOpportunityScore, d.ladder.Scores())
		}
		if want := d.ladder.Score(dam.FillingRatePercent); dam.MarketOpportunityScore != want {
			return fmt.Errorf("basin %q scored %d, filling rate %.2f earns %d", dam.BasinName, dam.MarketOpportunityScore, dam.FillingRatePercent, want)
		}
	}

	for _, inv := range d.investments {
		if !inv.Relevance.Valid() {
			return fmt.Errorf("agency %q has unknown relevance %q", inv.Agency, inv.Relevance)
		}
	}

	for i, tp := range d.trends {
		if !tp.WaterStressLevel.Valid() {
			return fmt.Errorf("year %d has unknown stress level %q", tp.Year, tp.WaterStressLevel)
		}
		if i > 0 && tp.Year <= d.trends[i-1].Year {
			return fmt.Errorf("trend year %d out of order", tp.Year)
		}
	}

	return nil
}

func metric(name string, value float64, unit string, criticality entities.Criticality) entities.NationalMetric {
	return entities.NationalMetric{
		Metric:      name,
		Value:       value,
		Unit:        unit,
		Year:        referenceYear,
		Source:      ministrySource,
		Criticality: criticality,
	}
}

func nationalMetrics() []entities.NationalMetric {
	return []entities.NationalMetric{
		metric("total_large_dams", 149, "count", entities.CriticalityMedium),
		metric("total_dam_capacity_bcm", 19.1, "billion_m3", entities.CriticalityHigh),
		metric("small_medium_dams", 137, "count", entities.CriticalityLow),
		metric("national_dam_filling_rate_percent", 23.17, "percent", entities.CriticalityCritical),
		metric("agricultural_dam_filling_rate_percent", 28.0, "percent", entities.CriticalityCritical),
		metric("per_capita_water_availability_m3", 650, "m3_per_capita", entities.CriticalityCritical),
		metric("water_stress_threshold_m3", 1000, "m3_per_capita", entities.CriticalityReference),
		metric("total_renewable_freshwater_bcm_yr", 2.5, "BCM/yr", entities.CriticalityHigh),
		metric("groundwater_withdrawals_mcm_yr", 3170, "MCM/yr", entities.CriticalityHigh),
		metric("groundwater_overexploitation_bcm_yr", 4.2, "BCM/yr", entities.CriticalityCritical),
		metric("agriculture_water_usage_percent", 86, "percent", entities.CriticalityHigh),
		metric("agriculture_gdp_contribution_percent", 13, "percent", entities.CriticalityMedium),
		metric("rainfall_reduction_2024_percent", 70, "percent", entities.CriticalityCritical),
		metric("water_decline_since_1960s_percent", 77, "percent", entities.CriticalityCritical),
	}
}

func capacity(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: true}
}

func regionalDams() []entities.RegionalDam {
	return []entities.RegionalDam{
		{BasinName: "Oum_Errabia", FillingRatePercent: 11.1, CapacityMillionM3: capacity(553), PerformanceStatus: entities.PerformanceCritical, PriorityForAWG: entities.PriorityHigh},
		{BasinName: "El_Nahla", FillingRatePercent: 100, PerformanceStatus: entities.PerformanceExcellent, PriorityForAWG: entities.PriorityLow},
		{BasinName: "Chefchaouen", FillingRatePercent: 100, PerformanceStatus: entities.PerformanceExcellent, PriorityForAWG: entities.PriorityLow},
		{BasinName: "Cherif_Al", FillingRatePercent: 100, PerformanceStatus: entities.PerformanceExcellent, PriorityForAWG: entities.PriorityLow},
		{BasinName: "El_Kensera", FillingRatePercent: 24, CapacityMillionM3: capacity(54), PerformanceStatus: entities.PerformancePoor, PriorityForAWG: entities.PriorityHigh},
		{BasinName: "Bab_Louta", FillingRatePercent: 70, CapacityMillionM3: capacity(23.9), PerformanceStatus: entities.PerformanceGood, PriorityForAWG: entities.PriorityMedium},
		{BasinName: NationalAverageBasin, Kind: entities.RowAggregate, FillingRatePercent: 23.17, CapacityMillionM3: capacity(20000), PerformanceStatus: entities.PerformanceCritical, PriorityForAWG: entities.PriorityHigh},
	}
}

func investments() []entities.InvestmentRecord {
	return []entities.InvestmentRecord{
		{
			Agency:               "Department_of_Water",
			InvestmentMillionUSD: decimal.NewNullDecimal(decimal.NewFromInt(80)),
			Purpose:              "groundwater_search",
			Relevance:            entities.RelevanceMedium,
		},
		{
			Agency:               "ONEE",
			InvestmentMillionUSD: decimal.NewNullDecimal(decimal.NewFromInt(56)),
			Purpose:              "utility_infrastructure",
			Relevance:            entities.RelevanceHigh,
		},
		{
			Agency:              "Desalination_Program",
			Purpose:             "desalination_plants",
			TargetProductionBCM: sql.NullFloat64{Float64: 1.7, Valid: true},
			Relevance:           entities.RelevanceCompetitiveThreat,
		},
	}
}

func trends() []entities.TrendPoint {
	return []entities.TrendPoint{
		{Year: 1960, PerCapitaM3: 2600, PopulationMillions: 12, WaterStressLevel: entities.StressNone},
		{Year: 1990, PerCapitaM3: 1500, PopulationMillions: 25, WaterStressLevel: entities.StressLow},
		{Year: 2020, PerCapitaM3: 700, PopulationMillions: 37, WaterStressLevel: entities.StressHigh},
		{Year: 2024, PerCapitaM3: 650, PopulationMillions: 38, WaterStressLevel: entities.StressCritical},
	}
}
