package repository

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/abelzeko/morocco-water/internal/dataset"
)

func newTestRepository(t *testing.T) *SQLiteWaterRepository {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "morocco-water-test")
	if err != nil {
		t.Fatalf("Failed to create temp directory: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	repo, err := NewSQLiteWaterRepository(filepath.Join(tempDir, "test-water.db"))
	if err != nil {
		t.Fatalf("Failed to initialize repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

// TestSnapshotRoundTrip saves the dataset and checks every table reads back unchanged
func TestSnapshotRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ds := dataset.Build()

	if err := repo.SaveSnapshot(ds); err != nil {
		t.Fatalf("Failed to save snapshot: %v", err)
	}

	metrics, err := repo.GetNationalMetrics()
	if err != nil {
		t.Fatalf("Failed to load metrics: %v", err)
	}
	wantMetrics := ds.NationalMetrics()
	if len(metrics) != len(wantMetrics) {
		t.Fatalf("Expected %d metrics, got %d", len(wantMetrics), len(metrics))
	}
	for i := range wantMetrics {
		if metrics[i] != wantMetrics[i] {
			t.Errorf("Metric %d: expected %+v, got %+v", i, wantMetrics[i], metrics[i])
		}
	}

	dams, err := repo.GetRegionalDams()
	if err != nil {
		t.Fatalf("Failed to load dams: %v", err)
	}
	wantDams := ds.RegionalDams(dataset.ViewAll)
	if len(dams) != len(wantDams) {
		t.Fatalf("Expected %d dams, got %d", len(wantDams), len(dams))
	}
	for i := range wantDams {
		if dams[i] != wantDams[i] {
			t.Errorf("Dam %d: expected %+v, got %+v", i, wantDams[i], dams[i])
		}
	}

	investments, err := repo.GetInvestments()
	if err != nil {
		t.Fatalf("Failed to load investments: %v", err)
	}
	wantInv := ds.Investments()
	if len(investments) != len(wantInv) {
		t.Fatalf("Expected %d investments, got %d", len(wantInv), len(investments))
	}
	for i := range wantInv {
		got, exp := investments[i], wantInv[i]
		if got.Agency != exp.Agency {
			t.Errorf("Investment %d: expected agency %s, got %s", i, exp.Agency, got.Agency)
		}
		if got.InvestmentMillionUSD.Valid != exp.InvestmentMillionUSD.Valid {
			t.Errorf("Investment %d: amount null-ness changed for %s", i, exp.Agency)
		} else if exp.InvestmentMillionUSD.Valid && !got.InvestmentMillionUSD.Decimal.Equal(exp.InvestmentMillionUSD.Decimal) {
			t.Errorf("Investment %d: expected %s, got %s", i, exp.InvestmentMillionUSD.Decimal, got.InvestmentMillionUSD.Decimal)
		}
		if got.TargetProductionBCM != exp.TargetProductionBCM {
			t.Errorf("Investment %d: expected production %+v, got %+v", i, exp.TargetProductionBCM, got.TargetProductionBCM)
		}
	}

	trends, err := repo.GetTrends()
	if err != nil {
		t.Fatalf("Failed to load trends: %v", err)
	}
	wantTrends := ds.Trends()
	if len(trends) != len(wantTrends) {
		t.Fatalf("Expected %d trend points, got %d", len(wantTrends), len(trends))
	}
	for i := range wantTrends {
		if trends[i] != wantTrends[i] {
			t.Errorf("Trend %d: expected %+v, got %+v", i, wantTrends[i], trends[i])
		}
	}
}

// TestSnapshotReplacesPreviousContents saves twice and expects no duplicated rows
func TestSnapshotReplacesPreviousContents(t *testing.T) {
	repo := newTestRepository(t)
	ds := dataset.Build()

	for i := 0; i < 2; i++ {
		if err := repo.SaveSnapshot(ds); err != nil {
			t.Fatalf("Save %d failed: %v", i+1, err)
		}
	}

	dams, err := repo.GetRegionalDams()
	if err != nil {
		t.Fatalf("Failed to load dams: %v", err)
	}
	if len(dams) != 7 {
		t.Errorf("Expected 7 dam rows after two saves, got %d", len(dams))
	}
	if !dams[len(dams)-1].IsAggregate() {
		t.Errorf("Expected the national average to keep its aggregate tag")
	}
}
