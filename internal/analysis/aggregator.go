// Package analysis derives summary figures from the water statistics tables
package analysis

import (
	"errors"
	"fmt"
	"strings"

	"github.com/abelzeko/morocco-water/internal/dataset"
	"github.com/abelzeko/morocco-water/internal/entities"
	"github.com/shopspring/decimal"
)

// Metric names the aggregator reads
const (
	MetricNationalFillingRate   = "national_dam_filling_rate_percent"
	MetricPerCapitaAvailability = "per_capita_water_availability_m3"
	MetricStressThreshold       = "water_stress_threshold_m3"
	MetricAgricultureUsage      = "agriculture_water_usage_percent"
)

// TargetScore is the minimum opportunity score of a target region
const TargetScore = 7

// ErrMetricNotFound is returned when no national metric matches a name
var ErrMetricNotFound = errors.New("metric not found")

// Aggregator answers lookup and reduce questions over a dataset
type Aggregator struct {
	ds *dataset.Dataset
}

// NewAggregator creates an aggregator over ds
func NewAggregator(ds *dataset.Dataset) *Aggregator {
	return &Aggregator{ds: ds}
}

// Dataset returns the underlying tables
func (a *Aggregator) Dataset() *dataset.Dataset {
	return a.ds
}

// MetricValue looks up a national metric by exact name
func (a *Aggregator) MetricValue(name string) (float64, error) {
	for _, m := range a.ds.NationalMetrics() {
		if m.Metric == name {
			return m.Value, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrMetricNotFound, name)
}

// FindBasin looks up a dam row by basin name, ignoring case
func (a *Aggregator) FindBasin(name string) (entities.RegionalDam, bool) {
	for _, dam := range a.ds.RegionalDams(dataset.ViewAll) {
		if strings.EqualFold(dam.BasinName, name) {
			return dam, true
		}
	}
	return entities.RegionalDam{}, false
}

// HighPriorityRegions returns the real basins flagged high priority, in table order
func (a *Aggregator) HighPriorityRegions() []entities.RegionalDam {
	return a.HighPriorityRegionsIn(dataset.ViewRegions)
}

// HighPriorityRegionsIn returns the rows of view flagged high priority, in table order
func (a *Aggregator) HighPriorityRegionsIn(view dataset.View) []entities.RegionalDam {
	var result []entities.RegionalDam
	for _, dam := range a.ds.RegionalDams(view) {
		if dam.PriorityForAWG == entities.PriorityHigh {
			result = append(result, dam)
		}
	}
	return result
}

// TargetRegionCount counts every dam row, the national average included, scoring at least minScore
func (a *Aggregator) TargetRegionCount(minScore int) int {
	return a.TargetRegionCountIn(dataset.ViewAll, minScore)
}

// TargetRegionCountIn counts the rows of view scoring at least minScore
func (a *Aggregator) TargetRegionCountIn(view dataset.View, minScore int) int {
	return len(a.TargetRegionsIn(view, minScore))
}

// TargetRegionsIn returns the rows of view scoring at least minScore, in table order
func (a *Aggregator) TargetRegionsIn(view dataset.View, minScore int) []entities.RegionalDam {
	var result []entities.RegionalDam
	for _, dam := range a.ds.RegionalDams(view) {
		if dam.MarketOpportunityScore >= minScore {
			result = append(result, dam)
		}
	}
	return result
}

// AverageFillingRate is the mean filling rate over every dam row, the national average included
func (a *Aggregator) AverageFillingRate() float64 {
	return a.AverageFillingRateIn(dataset.ViewAll)
}

// AverageFillingRateIn is the mean filling rate over the rows of view, 0 when view is empty
func (a *Aggregator) AverageFillingRateIn(view dataset.View) float64 {
	dams := a.ds.RegionalDams(view)
	if len(dams) == 0 {
		return 0
	}

	var sum float64
	for _, dam := range dams {
		sum += dam.FillingRatePercent
	}
	return sum / float64(len(dams))
}

// TotalCapacity sums the known reservoir capacities of view; unknown capacities are skipped
func (a *Aggregator) TotalCapacity(view dataset.View) float64 {
	var sum float64
	for _, dam := range a.ds.RegionalDams(view) {
		if dam.CapacityMillionM3.Valid {
			sum += dam.CapacityMillionM3.Float64
		}
	}
	return sum
}

// TotalInvestmentDecimal sums the investments in millions of USD, skipping null amounts
func (a *Aggregator) TotalInvestmentDecimal() decimal.Decimal {
	total := decimal.Zero
	for _, inv := range a.ds.Investments() {
		if inv.InvestmentMillionUSD.Valid {
			total = total.Add(inv.InvestmentMillionUSD.Decimal)
		}
	}
	return total
}

// TotalInvestment sums the investments in millions of USD, skipping null amounts
func (a *Aggregator) TotalInvestment() float64 {
	return a.TotalInvestmentDecimal().InexactFloat64()
}

// WaterCrisisSeverity is per-capita availability as a fraction of the stress threshold
func (a *Aggregator) WaterCrisisSeverity() (float64, error) {
	perCapita, err := a.MetricValue(MetricPerCapitaAvailability)
	if err != nil {
		return 0, err
	}
	threshold, err := a.MetricValue(MetricStressThreshold)
	if err != nil {
		return 0, err
	}
	if threshold == 0 {
		return 0, fmt.Errorf("metric %s is zero", MetricStressThreshold)
	}
	return perCapita / threshold, nil
}

// InfrastructureFailureRate is the share of national dam capacity left empty
func (a *Aggregator) InfrastructureFailureRate() (float64, error) {
	filling, err := a.MetricValue(MetricNationalFillingRate)
	if err != nil {
		return 0, err
	}
	return decimal.NewFromInt(100).Sub(decimal.NewFromFloat(filling)).InexactFloat64(), nil
}

// LatestTrend returns the most recent point of the availability series
func (a *Aggregator) LatestTrend() (entities.TrendPoint, bool) {
	trends := a.ds.Trends()
	if len(trends) == 0 {
		return entities.TrendPoint{}, false
	}
	return trends[len(trends)-1], true
}

// StressedPopulation estimates how many people live under water stress:
// the latest population scaled by the water crisis severity ratio
func (a *Aggregator) StressedPopulation() (float64, error) {
	latest, ok := a.LatestTrend()
	if !ok {
		return 0, errors.New("no trend data available")
	}
	severity, err := a.WaterCrisisSeverity()
	if err != nil {
		return 0, err
	}
	return latest.PopulationMillions * 1_000_000 * severity, nil
}
