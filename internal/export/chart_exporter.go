package export

import (
	"fmt"
	"image/color"
	"log"
	"path/filepath"
	"strconv"

	"github.com/abelzeko/morocco-water/internal/analysis"
	"github.com/abelzeko/morocco-water/internal/dataset"
	"go.uber.org/multierr"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Chart file names
const (
	TrendChartFile   = "morocco_water_availability_trend.png"
	FillingChartFile = "morocco_dam_filling_rates.png"
)

var (
	availabilityColor = color.RGBA{R: 0, G: 90, B: 160, A: 255}
	thresholdColor    = color.RGBA{R: 200, G: 30, B: 30, A: 255}
	fillingColor      = color.RGBA{R: 0, G: 130, B: 110, A: 255}
)

// ChartExporter renders the trend and dam tables as PNG charts
type ChartExporter struct {
	Dir string
}

// NewChartExporter creates a chart exporter writing into dir, the working directory when empty
func NewChartExporter(dir string) *ChartExporter {
	if dir == "" {
		dir = "."
	}
	return &ChartExporter{Dir: dir}
}

// Export renders both charts and returns the paths written. A failing chart
// does not stop the other from being rendered.
func (e *ChartExporter) Export(ds *dataset.Dataset) ([]string, error) {
	charts := []struct {
		path   string
		render func(*dataset.Dataset, string) error
	}{
		{filepath.Join(e.Dir, TrendChartFile), e.renderTrend},
		{filepath.Join(e.Dir, FillingChartFile), e.renderFillingRates},
	}

	var written []string
	var errs error
	for _, chart := range charts {
		if err := chart.render(ds, chart.path); err != nil {
			log.Printf("Error rendering %s: %v", chart.path, err)
			errs = multierr.Append(errs, err)
			continue
		}
		log.Printf("Rendered chart %s", chart.path)
		written = append(written, chart.path)
	}
	return written, errs
}

// renderTrend draws per-capita availability per year against the stress threshold
func (e *ChartExporter) renderTrend(ds *dataset.Dataset, path string) error {
	threshold, err := analysis.NewAggregator(ds).MetricValue(analysis.MetricStressThreshold)
	if err != nil {
		return err
	}

	trends := ds.Trends()
	if len(trends) == 0 {
		return fmt.Errorf("no trend data to plot")
	}

	p := plot.New()
	p.Title.Text = "Morocco per-capita water availability"
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = "Year"
	p.Y.Label.Text = "m³ per capita per year"

	points := make(plotter.XYs, len(trends))
	for i, tp := range trends {
		points[i].X = float64(tp.Year)
		points[i].Y = tp.PerCapitaM3
	}

	line, err := plotter.NewLine(points)
	if err != nil {
		return fmt.Errorf("failed to build trend line: %w", err)
	}
	line.Color = availabilityColor
	line.Width = vg.Points(2)

	stress := plotter.NewFunction(func(float64) float64 { return threshold })
	stress.XMin = float64(trends[0].Year)
	stress.XMax = float64(trends[len(trends)-1].Year)
	stress.Color = thresholdColor
	stress.Dashes = []vg.Length{vg.Points(5), vg.Points(5)}
	stress.Width = vg.Points(1.5)

	p.Add(line, stress, plotter.NewGrid())
	p.Legend.Add("availability", line)
	p.Legend.Add("stress threshold", stress)
	p.Legend.Top = true

	if err := p.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return &FileError{File: path, Err: err}
	}
	return nil
}

// renderFillingRates draws one bar per real basin labelled with its opportunity score
func (e *ChartExporter) renderFillingRates(ds *dataset.Dataset, path string) error {
	dams := ds.RegionalDams(dataset.ViewRegions)
	if len(dams) == 0 {
		return fmt.Errorf("no basins to plot")
	}

	p := plot.New()
	p.Title.Text = "Dam filling rate by basin"
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.Y.Label.Text = "Filling rate (%)"
	p.Y.Min = 0
	p.Y.Max = 110

	values := make(plotter.Values, len(dams))
	names := make([]string, len(dams))
	labels := make([]string, len(dams))
	xys := make([]plotter.XY, len(dams))
	for i, dam := range dams {
		values[i] = dam.FillingRatePercent
		names[i] = dam.BasinName
		labels[i] = "score " + strconv.Itoa(dam.MarketOpportunityScore)
		xys[i] = plotter.XY{X: float64(i), Y: dam.FillingRatePercent + 2}
	}

	bars, err := plotter.NewBarChart(values, vg.Points(30))
	if err != nil {
		return fmt.Errorf("failed to build bar chart: %w", err)
	}
	bars.Color = fillingColor
	bars.LineStyle.Width = vg.Length(0)

	scoreLabels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
	if err != nil {
		return fmt.Errorf("failed to build score labels: %w", err)
	}

	p.Add(bars, scoreLabels, plotter.NewGrid())
	p.NominalX(names...)

	if err := p.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return &FileError{File: path, Err: err}
	}
	return nil
}
