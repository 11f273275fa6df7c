package main

import (
	"fmt"
	"log"
	"os"

	"github.com/abelzeko/morocco-water/internal/dataset"
	"github.com/abelzeko/morocco-water/internal/usecases"
)

func main() {
	// Configure logging
	log.SetOutput(os.Stdout)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("Building Morocco water statistics...")

	ds := dataset.Build()
	if err := ds.Validate(); err != nil {
		log.Fatalf("Dataset is inconsistent: %v", err)
	}

	useCase := usecases.NewWaterUseCase(ds, nil, nil)

	findings, err := useCase.FormatFindings()
	if err != nil {
		log.Fatalf("Failed to compute findings: %v", err)
	}
	fmt.Print(findings)

	summary, err := useCase.ExportTables(".")
	if err != nil {
		log.Fatalf("Failed to export tables: %v", err)
	}
	fmt.Print(useCase.FormatSummary(summary))
}
