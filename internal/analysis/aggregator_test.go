package analysis

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/abelzeko/morocco-water/internal/dataset"
)

const epsilon = 1e-9

func newTestAggregator() *Aggregator {
	return NewAggregator(dataset.Build())
}

func TestMetricValue(t *testing.T) {
	agg := newTestAggregator()

	value, err := agg.MetricValue(MetricNationalFillingRate)
	if err != nil {
		t.Fatalf("Failed to look up %s: %v", MetricNationalFillingRate, err)
	}
	if value != 23.17 {
		t.Errorf("Expected national filling rate 23.17, got %v", value)
	}

	_, err = agg.MetricValue("national_dam_filling_rate")
	if !errors.Is(err, ErrMetricNotFound) {
		t.Errorf("Expected ErrMetricNotFound for a partial name, got %v", err)
	}
}

func TestHighPriorityRegions(t *testing.T) {
	agg := newTestAggregator()

	regions := agg.HighPriorityRegions()
	want := []string{"Oum_Errabia", "El_Kensera"}
	if len(regions) != len(want) {
		t.Fatalf("Expected %d high priority regions, got %d", len(want), len(regions))
	}
	for i, name := range want {
		if regions[i].BasinName != name {
			t.Errorf("Region %d: expected %s, got %s", i, name, regions[i].BasinName)
		}
	}

	// The aggregate row is also flagged high and shows up in the all-rows view
	if got := len(agg.HighPriorityRegionsIn(dataset.ViewAll)); got != 3 {
		t.Errorf("Expected 3 high priority rows including the national average, got %d", got)
	}
}

func TestTargetRegionCount(t *testing.T) {
	agg := newTestAggregator()

	if got := agg.TargetRegionCount(TargetScore); got != 3 {
		t.Errorf("Expected 3 target rows over all rows, got %d", got)
	}
	if got := agg.TargetRegionCountIn(dataset.ViewRegions, TargetScore); got != 2 {
		t.Errorf("Expected 2 target basins, got %d", got)
	}
	if got := agg.TargetRegionCount(9); got != 1 {
		t.Errorf("Expected 1 row scoring 9, got %d", got)
	}
	if got := agg.TargetRegionCount(3); got != 7 {
		t.Errorf("Expected every row to score at least 3, got %d", got)
	}
}

func TestAverageFillingRate(t *testing.T) {
	agg := newTestAggregator()

	all := (11.1 + 100 + 100 + 100 + 24 + 70 + 23.17) / 7
	if got := agg.AverageFillingRate(); math.Abs(got-all) > epsilon {
		t.Errorf("Expected all-rows mean %v, got %v", all, got)
	}

	regions := (11.1 + 100 + 100 + 100 + 24 + 70) / 6
	if got := agg.AverageFillingRateIn(dataset.ViewRegions); math.Abs(got-regions) > epsilon {
		t.Errorf("Expected regions-only mean %v, got %v", regions, got)
	}
}

// TestTotalsSkipNulls guards against null amounts being counted as zero or dropping the sum
func TestTotalsSkipNulls(t *testing.T) {
	agg := newTestAggregator()

	if got := agg.TotalInvestment(); got != 136 {
		t.Errorf("Expected total investment 136, got %v", got)
	}
	if got := agg.TotalInvestmentDecimal().String(); got != "136" {
		t.Errorf("Expected exact decimal total 136, got %s", got)
	}

	if got := agg.TotalCapacity(dataset.ViewRegions); math.Abs(got-630.9) > epsilon {
		t.Errorf("Expected known regional capacity 630.9, got %v", got)
	}
}

func TestDerivedRatios(t *testing.T) {
	agg := newTestAggregator()

	severity, err := agg.WaterCrisisSeverity()
	if err != nil {
		t.Fatalf("Failed to compute severity: %v", err)
	}
	if severity != 0.65 {
		t.Errorf("Expected severity 0.65, got %v", severity)
	}

	failure, err := agg.InfrastructureFailureRate()
	if err != nil {
		t.Fatalf("Failed to compute failure rate: %v", err)
	}
	if failure != 76.83 {
		t.Errorf("Expected failure rate 76.83, got %v", failure)
	}

	population, err := agg.StressedPopulation()
	if err != nil {
		t.Fatalf("Failed to compute stressed population: %v", err)
	}
	if math.Abs(population-24_700_000) > 1e-3 {
		t.Errorf("Expected 24,700,000 people under stress, got %v", population)
	}
}

func TestSummary(t *testing.T) {
	summary, err := newTestAggregator().Summary()
	if err != nil {
		t.Fatalf("Failed to build summary: %v", err)
	}

	wantAll := []string{"Oum_Errabia", "El_Kensera", dataset.NationalAverageBasin}
	if strings.Join(summary.CriticalRegions, ",") != strings.Join(wantAll, ",") {
		t.Errorf("Expected critical rows %v, got %v", wantAll, summary.CriticalRegions)
	}
	wantRegions := []string{"Oum_Errabia", "El_Kensera"}
	if strings.Join(summary.RegionalCriticalRegions, ",") != strings.Join(wantRegions, ",") {
		t.Errorf("Expected critical basins %v, got %v", wantRegions, summary.RegionalCriticalRegions)
	}
	if summary.TotalGovernmentInvestment != 136 {
		t.Errorf("Expected investment 136, got %v", summary.TotalGovernmentInvestment)
	}
	if summary.WaterStressSeverity != 0.65 {
		t.Errorf("Expected severity 0.65, got %v", summary.WaterStressSeverity)
	}
	if summary.AverageFillingRate >= summary.RegionalAverageFillingRate {
		t.Errorf("National average row should pull the all-rows mean below the regional mean")
	}
}

func TestMarketMetrics(t *testing.T) {
	metrics, err := newTestAggregator().MarketMetrics()
	if err != nil {
		t.Fatalf("Failed to build market metrics: %v", err)
	}

	if metrics.GovernmentInvestmentReadyUSD != 136_000_000 {
		t.Errorf("Expected 136,000,000 USD ready, got %d", metrics.GovernmentInvestmentReadyUSD)
	}
	if metrics.TargetRegionsCount != 3 {
		t.Errorf("Expected 3 target regions, got %d", metrics.TargetRegionsCount)
	}
	if metrics.AgriculturalMarketSizePercent != 86 {
		t.Errorf("Expected agricultural usage 86, got %v", metrics.AgriculturalMarketSizePercent)
	}
	if metrics.InfrastructureFailureRate != 76.83 {
		t.Errorf("Expected failure rate 76.83, got %v", metrics.InfrastructureFailureRate)
	}
}

func TestFindBasin(t *testing.T) {
	agg := newTestAggregator()

	dam, ok := agg.FindBasin("el_kensera")
	if !ok {
		t.Fatal("Expected case-insensitive basin lookup to succeed")
	}
	if dam.BasinName != "El_Kensera" || dam.MarketOpportunityScore != 7 {
		t.Errorf("Unexpected basin %+v", dam)
	}

	if _, ok := agg.FindBasin("Sebou"); ok {
		t.Error("Expected unknown basin lookup to fail")
	}
}

// TestSummaryAgreesWithTargetCount keeps the summary list and the market metrics count on the same rows
func TestSummaryAgreesWithTargetCount(t *testing.T) {
	agg := newTestAggregator()

	summary, err := agg.Summary()
	if err != nil {
		t.Fatalf("Failed to build summary: %v", err)
	}
	metrics, err := agg.MarketMetrics()
	if err != nil {
		t.Fatalf("Failed to build market metrics: %v", err)
	}

	if len(summary.CriticalRegions) != agg.TargetRegionCount(TargetScore) {
		t.Errorf("Summary lists %d critical rows, target count is %d", len(summary.CriticalRegions), agg.TargetRegionCount(TargetScore))
	}
	if len(summary.CriticalRegions) != metrics.TargetRegionsCount {
		t.Errorf("Summary lists %d critical rows, market metrics count %d", len(summary.CriticalRegions), metrics.TargetRegionsCount)
	}
	if len(summary.RegionalCriticalRegions) != agg.TargetRegionCountIn(dataset.ViewRegions, TargetScore) {
		t.Errorf("Regional list has %d basins, regional target count is %d", len(summary.RegionalCriticalRegions), agg.TargetRegionCountIn(dataset.ViewRegions, TargetScore))
	}
}
