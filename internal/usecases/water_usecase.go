// Package usecases contains the application's business logic
package usecases

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"math"
	"strings"

	"github.com/abelzeko/morocco-water/internal/analysis"
	"github.com/abelzeko/morocco-water/internal/dataset"
	"github.com/abelzeko/morocco-water/internal/export"
	"github.com/abelzeko/morocco-water/internal/integration/openai"
	"github.com/abelzeko/morocco-water/internal/repository"
	"go.uber.org/multierr"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ErrNoInterpreter is returned for free-text queries when no AI service is configured
var ErrNoInterpreter = errors.New("free-text queries are not configured")

// WaterUseCase handles business logic related to the water statistics
type WaterUseCase struct {
	agg           *analysis.Aggregator
	repo          repository.WaterRepository
	openAIService openai.OpenAIService
	printer       *message.Printer
}

// NewWaterUseCase creates a new water use case. repo and openAIService may be
// nil when snapshots or free-text queries are not needed.
func NewWaterUseCase(ds *dataset.Dataset, repo repository.WaterRepository, openAIService openai.OpenAIService) *WaterUseCase {
	return &WaterUseCase{
		agg:           analysis.NewAggregator(ds),
		repo:          repo,
		openAIService: openAIService,
		printer:       message.NewPrinter(language.English),
	}
}

// Aggregator exposes the lookups behind the use case
func (uc *WaterUseCase) Aggregator() *analysis.Aggregator {
	return uc.agg
}

// ExportTables writes the four CSV tables into dir and returns the run summary
func (uc *WaterUseCase) ExportTables(dir string) (analysis.Summary, error) {
	log.Printf("Exporting water statistics tables to %s", dir)
	return export.NewCSVExporter(dir).Export(uc.agg.Dataset())
}

// ExportAll writes every artifact into dir: the CSV tables, the Excel workbook,
// the charts and, when a repository is configured, the SQLite snapshot.
// Each artifact is attempted regardless of earlier failures.
func (uc *WaterUseCase) ExportAll(dir string) (analysis.Summary, error) {
	ds := uc.agg.Dataset()

	summary, errs := uc.ExportTables(dir)

	if err := export.NewWorkbookExporterInDir(dir).Export(ds); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("failed to export workbook: %w", err))
	}

	if _, err := export.NewChartExporter(dir).Export(ds); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("failed to render charts: %w", err))
	}

	if uc.repo != nil {
		if err := uc.repo.SaveSnapshot(ds); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("failed to save snapshot: %w", err))
		} else if err := uc.VerifySnapshot(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("snapshot does not match dataset: %w", err))
		}
	}

	if errs != nil {
		log.Printf("Export finished with %d error(s)", len(multierr.Errors(errs)))
	} else {
		log.Println("Export finished successfully")
	}
	return summary, errs
}

// VerifySnapshot reads every stored table back and checks it holds the same
// keys, in the same order, as the in-memory dataset
func (uc *WaterUseCase) VerifySnapshot() error {
	if uc.repo == nil {
		return errors.New("no repository configured")
	}
	ds := uc.agg.Dataset()

	metrics, err := uc.repo.GetNationalMetrics()
	if err != nil {
		return err
	}
	var stored, want []string
	for _, m := range metrics {
		stored = append(stored, m.Metric)
	}
	for _, m := range ds.NationalMetrics() {
		want = append(want, m.Metric)
	}
	errs := compareKeys("national metrics", stored, want)

	dams, err := uc.repo.GetRegionalDams()
	if err != nil {
		return err
	}
	stored, want = nil, nil
	for _, d := range dams {
		stored = append(stored, fmt.Sprintf("%s/%t", d.BasinName, d.IsAggregate()))
	}
	for _, d := range ds.RegionalDams(dataset.ViewAll) {
		want = append(want, fmt.Sprintf("%s/%t", d.BasinName, d.IsAggregate()))
	}
	errs = multierr.Append(errs, compareKeys("regional dams", stored, want))

	investments, err := uc.repo.GetInvestments()
	if err != nil {
		return err
	}
	stored, want = nil, nil
	for _, inv := range investments {
		stored = append(stored, inv.Agency)
	}
	for _, inv := range ds.Investments() {
		want = append(want, inv.Agency)
	}
	errs = multierr.Append(errs, compareKeys("investments", stored, want))

	trends, err := uc.repo.GetTrends()
	if err != nil {
		return err
	}
	stored, want = nil, nil
	for _, tp := range trends {
		stored = append(stored, fmt.Sprint(tp.Year))
	}
	for _, tp := range ds.Trends() {
		want = append(want, fmt.Sprint(tp.Year))
	}
	return multierr.Append(errs, compareKeys("water trends", stored, want))
}

func compareKeys(table string, stored, want []string) error {
	if strings.Join(stored, ",") != strings.Join(want, ",") {
		return fmt.Errorf("%s: stored %v, expected %v", table, stored, want)
	}
	return nil
}

// FormatHighPriorityTable renders the high-priority basins with filling rate and score
func (uc *WaterUseCase) FormatHighPriorityTable() string {
	var result strings.Builder
	result.WriteString(fmt.Sprintf("%-14s %22s %26s\n", "basin_name", "filling_rate_percent", "market_opportunity_score"))
	for _, dam := range uc.agg.HighPriorityRegions() {
		result.WriteString(fmt.Sprintf("%-14s %22s %26d\n", dam.BasinName, formatNumber(dam.FillingRatePercent), dam.MarketOpportunityScore))
	}
	return result.String()
}

// FormatFindings renders the console report: high-priority regions, stressed
// population, government investment and infrastructure failure rate
func (uc *WaterUseCase) FormatFindings() (string, error) {
	population, err := uc.agg.StressedPopulation()
	if err != nil {
		return "", fmt.Errorf("failed to estimate stressed population: %w", err)
	}
	failure, err := uc.agg.InfrastructureFailureRate()
	if err != nil {
		return "", fmt.Errorf("failed to compute infrastructure failure rate: %w", err)
	}

	var result strings.Builder
	result.WriteString("High Priority Regions for AWG:\n")
	result.WriteString(uc.FormatHighPriorityTable())
	result.WriteString(uc.printer.Sprintf("Population affected by water stress: %d\n", int64(math.Round(population))))
	result.WriteString(fmt.Sprintf("Total government water investment: $%sM USD\n", uc.agg.TotalInvestmentDecimal().String()))
	result.WriteString(fmt.Sprintf("Traditional infrastructure failure rate: %.1f%%\n", failure))
	return result.String(), nil
}

// FormatSummary renders an export summary for the console
func (uc *WaterUseCase) FormatSummary(summary analysis.Summary) string {
	var result strings.Builder
	result.WriteString("Export summary:\n")
	result.WriteString(fmt.Sprintf("  Critical regions: %s (basins only: %s)\n",
		strings.Join(summary.CriticalRegions, ", "), strings.Join(summary.RegionalCriticalRegions, ", ")))
	result.WriteString(fmt.Sprintf("  Average filling rate: %.2f%% (basins only: %.2f%%)\n", summary.AverageFillingRate, summary.RegionalAverageFillingRate))
	result.WriteString(fmt.Sprintf("  Total government investment: $%sM USD\n", formatNumber(summary.TotalGovernmentInvestment)))
	result.WriteString(fmt.Sprintf("  Water stress severity: %.2f of threshold\n", summary.WaterStressSeverity))
	return result.String()
}

// FormatSummaryHTML renders the headline figures using the HTML subset Telegram accepts
func (uc *WaterUseCase) FormatSummaryHTML() (string, error) {
	summary, err := uc.agg.Summary()
	if err != nil {
		return "", err
	}
	metrics, err := uc.agg.MarketMetrics()
	if err != nil {
		return "", err
	}
	population, err := uc.agg.StressedPopulation()
	if err != nil {
		return "", err
	}

	var result strings.Builder
	result.WriteString("<b>💧 Morocco water situation</b>\n\n")
	result.WriteString(fmt.Sprintf("📉 Water stress severity: <code>%.2f</code> of threshold\n", summary.WaterStressSeverity))
	result.WriteString(fmt.Sprintf("🏗️ Infrastructure failure rate: <code>%.1f%%</code>\n", metrics.InfrastructureFailureRate))
	result.WriteString(fmt.Sprintf("🪣 Average filling rate: <code>%.2f%%</code>\n", summary.RegionalAverageFillingRate))
	result.WriteString(fmt.Sprintf("🏞️ Known basin capacity: <code>%s million m³</code>\n", formatNumber(uc.agg.TotalCapacity(dataset.ViewRegions))))
	result.WriteString(uc.printer.Sprintf("👥 Population under water stress: <code>%d</code>\n", int64(math.Round(population))))
	result.WriteString(fmt.Sprintf("💰 Government investment: <code>$%sM USD</code>\n", formatNumber(summary.TotalGovernmentInvestment)))
	result.WriteString(fmt.Sprintf("🌾 Agriculture water usage: <code>%s%%</code>\n\n", formatNumber(metrics.AgriculturalMarketSizePercent)))

	result.WriteString("<b>🎯 Critical regions</b>\n")
	for _, name := range summary.RegionalCriticalRegions {
		dam, _ := uc.agg.FindBasin(name)
		result.WriteString(fmt.Sprintf("• <i>%s</i> filling %s%%, score %d\n",
			html.EscapeString(dam.BasinName), formatNumber(dam.FillingRatePercent), dam.MarketOpportunityScore))
	}
	return result.String(), nil
}

// MetricNames lists every national metric name in table order
func (uc *WaterUseCase) MetricNames() []string {
	metrics := uc.agg.Dataset().NationalMetrics()
	names := make([]string, 0, len(metrics))
	for _, m := range metrics {
		names = append(names, m.Metric)
	}
	return names
}

// BasinNames lists every dam row name in table order
func (uc *WaterUseCase) BasinNames() []string {
	dams := uc.agg.Dataset().RegionalDams(dataset.ViewAll)
	names := make([]string, 0, len(dams))
	for _, d := range dams {
		names = append(names, d.BasinName)
	}
	return names
}

// FormatMetric renders a single national metric with its unit and criticality
func (uc *WaterUseCase) FormatMetric(name string) (string, error) {
	for _, m := range uc.agg.Dataset().NationalMetrics() {
		if m.Metric == name {
			return fmt.Sprintf("📊 %s: %s %s\n🗓️ Year: %d\n⚠️ Criticality: %s\n📚 Source: %s",
				m.Metric, formatNumber(m.Value), m.Unit, m.Year, m.Criticality, m.Source), nil
		}
	}
	return "", fmt.Errorf("%w: %s", analysis.ErrMetricNotFound, name)
}

// FormatBasin renders the performance of one basin, or a not-found message
func (uc *WaterUseCase) FormatBasin(name string) string {
	dam, ok := uc.agg.FindBasin(name)
	if !ok {
		return fmt.Sprintf("No information found for basin '%s'. Use /regions to see the high priority basins.", name)
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Information for basin %s:\n\n", dam.BasinName))
	if dam.IsAggregate() {
		result.WriteString("ℹ️ National aggregate, not a single basin\n")
	}
	result.WriteString(fmt.Sprintf("💧 Filling rate: %s%%\n", formatNumber(dam.FillingRatePercent)))
	if dam.CapacityMillionM3.Valid {
		result.WriteString(fmt.Sprintf("🏞️ Capacity: %s million m³\n", formatNumber(dam.CapacityMillionM3.Float64)))
	}
	result.WriteString(fmt.Sprintf("📈 Performance: %s\n", dam.PerformanceStatus))
	result.WriteString(fmt.Sprintf("🎯 AWG priority: %s\n", dam.PriorityForAWG))
	result.WriteString(fmt.Sprintf("⭐ Opportunity score: %d", dam.MarketOpportunityScore))
	return result.String()
}

// FormatInvestments renders the government investment table
func (uc *WaterUseCase) FormatInvestments() string {
	var result strings.Builder
	result.WriteString("Government water investments:\n\n")
	for _, inv := range uc.agg.Dataset().Investments() {
		result.WriteString(fmt.Sprintf("🏛️ %s (%s)\n", inv.Agency, inv.Purpose))
		if inv.InvestmentMillionUSD.Valid {
			result.WriteString(fmt.Sprintf("💰 $%sM USD\n", inv.InvestmentMillionUSD.Decimal.String()))
		}
		if inv.TargetProductionBCM.Valid {
			result.WriteString(fmt.Sprintf("🏭 Target production: %s BCM\n", formatNumber(inv.TargetProductionBCM.Float64)))
		}
		result.WriteString(fmt.Sprintf("🔎 Relevance: %s\n\n", inv.Relevance))
	}
	result.WriteString(fmt.Sprintf("Total: $%sM USD", uc.agg.TotalInvestmentDecimal().String()))
	return result.String()
}

// FormatTrends renders the availability series
func (uc *WaterUseCase) FormatTrends() string {
	var result strings.Builder
	result.WriteString("Water availability per capita:\n\n")
	for _, tp := range uc.agg.Dataset().Trends() {
		result.WriteString(fmt.Sprintf("%d: %s m³ for %s M people (stress: %s)\n",
			tp.Year, formatNumber(tp.PerCapitaM3), formatNumber(tp.PopulationMillions), tp.WaterStressLevel))
	}
	return result.String()
}

// HandleNaturalLanguageQuery interprets a user's free-text query using the AI service
// and returns an appropriate response string.
func (uc *WaterUseCase) HandleNaturalLanguageQuery(ctx context.Context, query string) (string, error) {
	if uc.openAIService == nil {
		return "", ErrNoInterpreter
	}
	log.Printf("Interpreting natural language query: %s", query)

	agentResp, err := uc.openAIService.InterpretUserQuery(ctx, query, uc.MetricNames(), uc.BasinNames())
	if err != nil {
		log.Printf("Error interpreting user query via OpenAI: %v", err)
		return "Sorry, I'm having trouble understanding right now. Please try again later or use /help.", nil
	}

	log.Printf("Agent response: Command='%s', Metric='%s', Basin='%s', Message='%s'",
		agentResp.CommandName, agentResp.MetricName, agentResp.BasinName, agentResp.UserMessage)

	switch agentResp.CommandName {
	case openai.CommandGetMetric:
		if agentResp.MetricName == "" {
			return agentResp.UserMessage, nil
		}
		text, err := uc.FormatMetric(agentResp.MetricName)
		if err != nil {
			log.Printf("Agent picked unknown metric: %v", err)
			return withPrefix(agentResp.UserMessage, fmt.Sprintf("However, I couldn't find metric '%s'. Use /metrics to see available ones.", agentResp.MetricName)), nil
		}
		return withPrefix(agentResp.UserMessage, text), nil
	case openai.CommandGetBasin:
		if agentResp.BasinName == "" {
			return agentResp.UserMessage, nil
		}
		return withPrefix(agentResp.UserMessage, uc.FormatBasin(agentResp.BasinName)), nil
	case openai.CommandGetSummary:
		summary, err := uc.agg.Summary()
		if err != nil {
			log.Printf("Error building summary: %v", err)
			return "Sorry, I couldn't build the summary right now.", nil
		}
		return withPrefix(agentResp.UserMessage, uc.FormatSummary(summary)), nil
	case openai.CommandGeneralQuery:
		return agentResp.UserMessage, nil
	default:
		log.Printf("Agent returned unexpected command: %s", agentResp.CommandName)
		return "I'm not sure how to respond to that. You can use /help for commands.", nil
	}
}

func withPrefix(prefix, text string) string {
	if prefix == "" {
		return text
	}
	return prefix + "\n\n" + text
}

// formatNumber prints at most two decimals and drops trailing zeros
func formatNumber(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}
