package analysis

import (
	"fmt"

	"github.com/abelzeko/morocco-water/internal/dataset"
	"github.com/shopspring/decimal"
)

// Summary is the headline result of an export run
type Summary struct {
	CriticalRegions            []string `json:"critical_regions"`
	RegionalCriticalRegions    []string `json:"regional_critical_regions"`
	AverageFillingRate         float64  `json:"average_filling_rate"`
	RegionalAverageFillingRate float64  `json:"regional_average_filling_rate"`
	TotalGovernmentInvestment  float64  `json:"total_government_investment"`
	WaterStressSeverity        float64  `json:"water_stress_severity"`
}

// MarketMetrics are the key figures for sizing the AWG market
type MarketMetrics struct {
	WaterCrisisSeverity           float64 `json:"water_crisis_severity"`
	InfrastructureFailureRate     float64 `json:"infrastructure_failure_rate"`
	GovernmentInvestmentReadyUSD  int64   `json:"government_investment_ready_usd"`
	TargetRegionsCount            int     `json:"target_regions_count"`
	AgriculturalMarketSizePercent float64 `json:"agricultural_market_size_percent"`
}

// Summary collects the rows scoring at least TargetScore, filling rate means, total investment and severity
func (a *Aggregator) Summary() (Summary, error) {
	severity, err := a.WaterCrisisSeverity()
	if err != nil {
		return Summary{}, fmt.Errorf("failed to compute water stress severity: %w", err)
	}

	return Summary{
		CriticalRegions:            a.basinNames(dataset.ViewAll, TargetScore),
		RegionalCriticalRegions:    a.basinNames(dataset.ViewRegions, TargetScore),
		AverageFillingRate:         a.AverageFillingRate(),
		RegionalAverageFillingRate: a.AverageFillingRateIn(dataset.ViewRegions),
		TotalGovernmentInvestment:  a.TotalInvestment(),
		WaterStressSeverity:        severity,
	}, nil
}

// MarketMetrics gathers the AWG market sizing figures
func (a *Aggregator) MarketMetrics() (MarketMetrics, error) {
	severity, err := a.WaterCrisisSeverity()
	if err != nil {
		return MarketMetrics{}, err
	}
	failure, err := a.InfrastructureFailureRate()
	if err != nil {
		return MarketMetrics{}, err
	}
	agriculture, err := a.MetricValue(MetricAgricultureUsage)
	if err != nil {
		return MarketMetrics{}, err
	}

	return MarketMetrics{
		WaterCrisisSeverity:           severity,
		InfrastructureFailureRate:     failure,
		GovernmentInvestmentReadyUSD:  a.TotalInvestmentDecimal().Mul(decimal.NewFromInt(1_000_000)).IntPart(),
		TargetRegionsCount:            a.TargetRegionCount(TargetScore),
		AgriculturalMarketSizePercent: agriculture,
	}, nil
}

func (a *Aggregator) basinNames(view dataset.View, minScore int) []string {
	names := []string{}
	for _, dam := range a.TargetRegionsIn(view, minScore) {
		names = append(names, dam.BasinName)
	}
	return names
}
