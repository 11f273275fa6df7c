package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/abelzeko/morocco-water/internal/dataset"
	"github.com/abelzeko/morocco-water/internal/repository"
	"github.com/abelzeko/morocco-water/internal/usecases"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

const (
	defaultExportDir = "data"
	defaultSchedule  = "0 * * * *"
)

// config holds the scheduler settings read from the environment
type config struct {
	ExportDir string
	Schedule  string
}

func loadConfig() config {
	cfg := config{
		ExportDir: os.Getenv("EXPORT_DIR"),
		Schedule:  os.Getenv("EXPORT_SCHEDULE"),
	}
	if cfg.ExportDir == "" {
		cfg.ExportDir = defaultExportDir
	}
	if cfg.Schedule == "" {
		cfg.Schedule = defaultSchedule
	}
	return cfg
}

// newUseCase prepares the export directory and snapshot database
func newUseCase(exportDir string) (*usecases.WaterUseCase, *repository.SQLiteWaterRepository, error) {
	if err := os.MkdirAll(exportDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create export directory: %w", err)
	}

	ds := dataset.Build()
	if err := ds.Validate(); err != nil {
		return nil, nil, fmt.Errorf("dataset is inconsistent: %w", err)
	}

	repo, err := repository.NewSQLiteWaterRepository(filepath.Join(exportDir, repository.DefaultDBFile))
	if err != nil {
		return nil, nil, err
	}

	return usecases.NewWaterUseCase(ds, repo, nil), repo, nil
}

func runExport(useCase *usecases.WaterUseCase, exportDir string) error {
	summary, err := useCase.ExportAll(exportDir)
	if err != nil {
		return err
	}
	log.Printf("Export summary: critical regions %v, investment $%.0fM", summary.CriticalRegions, summary.TotalGovernmentInvestment)
	return nil
}

func main() {
	// Configure logging
	log.SetOutput(os.Stdout)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("Starting Morocco Water export scheduler...")

	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}
	cfg := loadConfig()

	useCase, repo, err := newUseCase(cfg.ExportDir)
	if err != nil {
		log.Fatalf("Failed to initialize exporter: %v", err)
	}
	defer repo.Close()

	// Run export immediately on startup
	if err := runExport(useCase, cfg.ExportDir); err != nil {
		log.Printf("Initial export failed: %v", err)
	}

	c := cron.New()
	_, err = c.AddFunc(cfg.Schedule, func() {
		if err := runExport(useCase, cfg.ExportDir); err != nil {
			log.Printf("Scheduled export failed: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("Failed to set up cron job: %v", err)
	}

	log.Printf("Export has been scheduled with '%s' into %s", cfg.Schedule, cfg.ExportDir)
	c.Start()

	// Keep the program running
	select {}
}
