package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/abelzeko/morocco-water/internal/export"
	"github.com/robfig/cron/v3"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("EXPORT_DIR", "")
	t.Setenv("EXPORT_SCHEDULE", "")

	cfg := loadConfig()
	if cfg.ExportDir != defaultExportDir || cfg.Schedule != defaultSchedule {
		t.Errorf("Unexpected defaults %+v", cfg)
	}

	t.Setenv("EXPORT_DIR", "/tmp/exports")
	t.Setenv("EXPORT_SCHEDULE", "*/5 * * * *")
	cfg = loadConfig()
	if cfg.ExportDir != "/tmp/exports" || cfg.Schedule != "*/5 * * * *" {
		t.Errorf("Environment not honoured: %+v", cfg)
	}
}

func TestDefaultScheduleParses(t *testing.T) {
	if _, err := cron.ParseStandard(defaultSchedule); err != nil {
		t.Errorf("Default schedule %q does not parse: %v", defaultSchedule, err)
	}
}

// TestRepeatedExportIsStable runs the scheduled job twice and compares the CSV output
func TestRepeatedExportIsStable(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "morocco-water-scheduler-test")
	if err != nil {
		t.Fatalf("Failed to create temp directory: %v", err)
	}
	defer os.RemoveAll(tempDir)

	exportDir := filepath.Join(tempDir, "exports")
	useCase, repo, err := newUseCase(exportDir)
	if err != nil {
		t.Fatalf("Failed to initialize exporter: %v", err)
	}
	defer repo.Close()

	if err := runExport(useCase, exportDir); err != nil {
		t.Fatalf("First export failed: %v", err)
	}
	first, err := os.ReadFile(filepath.Join(exportDir, export.RegionalFile))
	if err != nil {
		t.Fatalf("Failed to read dam export: %v", err)
	}

	if err := runExport(useCase, exportDir); err != nil {
		t.Fatalf("Second export failed: %v", err)
	}
	second, err := os.ReadFile(filepath.Join(exportDir, export.RegionalFile))
	if err != nil {
		t.Fatalf("Failed to read dam export: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Errorf("Dam export changed between runs:\n%s\n---\n%s", first, second)
	}

	dams, err := repo.GetRegionalDams()
	if err != nil {
		t.Fatalf("Failed to read snapshot: %v", err)
	}
	if len(dams) != 7 {
		t.Errorf("Expected snapshot to hold 7 dams after two runs, got %d", len(dams))
	}
}
