// Package repository provides data access implementations
package repository

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/abelzeko/morocco-water/internal/dataset"
	"github.com/abelzeko/morocco-water/internal/entities"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDBFile is the snapshot database name used when no path is given
const DefaultDBFile = "morocco_water.db"

// WaterRepository defines snapshot storage for the water statistics tables
type WaterRepository interface {
	SaveSnapshot(ds *dataset.Dataset) error
	GetNationalMetrics() ([]entities.NationalMetric, error)
	GetRegionalDams() ([]entities.RegionalDam, error)
	GetInvestments() ([]entities.InvestmentRecord, error)
	GetTrends() ([]entities.TrendPoint, error)
	Close() error
}

// SQLiteWaterRepository implements WaterRepository using SQLite.
// Every save replaces the previous snapshot; no history is kept.
type SQLiteWaterRepository struct {
	db     *sql.DB
	DBPath string
}

// NewSQLiteWaterRepository creates and initializes a new SQLite repository
func NewSQLiteWaterRepository(dbPath string) (*SQLiteWaterRepository, error) {
	if dbPath == "" {
		// Set default path if not specified
		dbDir := "data"
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %v", err)
		}
		dbPath = filepath.Join(dbDir, DefaultDBFile)
	}

	log.Printf("Opening database at %s", dbPath)
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	// Positions keep table order stable across saves
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS national_metrics (
		position INTEGER NOT NULL,
		metric TEXT PRIMARY KEY,
		value REAL NOT NULL,
		unit TEXT NOT NULL,
		year INTEGER NOT NULL,
		source TEXT NOT NULL,
		criticality TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS regional_dams (
		position INTEGER NOT NULL,
		basin_name TEXT PRIMARY KEY,
		is_aggregate INTEGER NOT NULL DEFAULT 0,
		filling_rate_percent REAL NOT NULL,
		capacity_million_m3 REAL,
		performance_status TEXT NOT NULL,
		priority_for_awg TEXT NOT NULL,
		market_opportunity_score INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS investments (
		position INTEGER PRIMARY KEY,
		agency TEXT NOT NULL,
		investment_million_usd TEXT,
		purpose TEXT NOT NULL,
		target_production_bcm REAL,
		relevance_to_awg TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS water_trends (
		year INTEGER PRIMARY KEY,
		per_capita_m3 REAL NOT NULL,
		population_millions REAL NOT NULL,
		water_stress_level TEXT NOT NULL
	);`

	_, err = db.Exec(createTableSQL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %v", err)
	}

	return &SQLiteWaterRepository{
		db:     db,
		DBPath: dbPath,
	}, nil
}

// Close closes the database connection
func (r *SQLiteWaterRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SaveSnapshot replaces the stored tables with the contents of ds in one transaction
func (r *SQLiteWaterRepository) SaveSnapshot(ds *dataset.Dataset) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}

	for _, table := range []string{"national_metrics", "regional_dams", "investments", "water_trends"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to clear %s: %v", table, err)
		}
	}

	if err := insertNationalMetrics(tx, ds.NationalMetrics()); err != nil {
		tx.Rollback()
		return err
	}
	if err := insertRegionalDams(tx, ds.RegionalDams(dataset.ViewAll)); err != nil {
		tx.Rollback()
		return err
	}
	if err := insertInvestments(tx, ds.Investments()); err != nil {
		tx.Rollback()
		return err
	}
	if err := insertTrends(tx, ds.Trends()); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}

	log.Printf("Successfully saved water statistics snapshot to %s", r.DBPath)
	return nil
}

func insertNationalMetrics(tx *sql.Tx, rows []entities.NationalMetric) error {
	stmt, err := tx.Prepare(`
		INSERT INTO national_metrics(position, metric, value, unit, year, source, criticality)
		VALUES(?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %v", err)
	}
	defer stmt.Close()

	for i, m := range rows {
		if _, err := stmt.Exec(i, m.Metric, m.Value, m.Unit, m.Year, m.Source, string(m.Criticality)); err != nil {
			return fmt.Errorf("failed to insert metric %s: %v", m.Metric, err)
		}
	}
	return nil
}

func insertRegionalDams(tx *sql.Tx, rows []entities.RegionalDam) error {
	stmt, err := tx.Prepare(`
		INSERT INTO regional_dams(position, basin_name, is_aggregate, filling_rate_percent,
			capacity_million_m3, performance_status, priority_for_awg, market_opportunity_score)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %v", err)
	}
	defer stmt.Close()

	for i, d := range rows {
		_, err := stmt.Exec(
			i,
			d.BasinName,
			d.IsAggregate(),
			d.FillingRatePercent,
			d.CapacityMillionM3,
			string(d.PerformanceStatus),
			string(d.PriorityForAWG),
			d.MarketOpportunityScore,
		)
		if err != nil {
			return fmt.Errorf("failed to insert basin %s: %v", d.BasinName, err)
		}
	}
	return nil
}

func insertInvestments(tx *sql.Tx, rows []entities.InvestmentRecord) error {
	stmt, err := tx.Prepare(`
		INSERT INTO investments(position, agency, investment_million_usd, purpose,
			target_production_bcm, relevance_to_awg)
		VALUES(?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %v", err)
	}
	defer stmt.Close()

	for i, inv := range rows {
		_, err := stmt.Exec(
			i,
			inv.Agency,
			inv.InvestmentMillionUSD,
			inv.Purpose,
			inv.TargetProductionBCM,
			string(inv.Relevance),
		)
		if err != nil {
			return fmt.Errorf("failed to insert investment for %s: %v", inv.Agency, err)
		}
	}
	return nil
}

func insertTrends(tx *sql.Tx, rows []entities.TrendPoint) error {
	stmt, err := tx.Prepare(`
		INSERT INTO water_trends(year, per_capita_m3, population_millions, water_stress_level)
		VALUES(?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %v", err)
	}
	defer stmt.Close()

	for _, tp := range rows {
		if _, err := stmt.Exec(tp.Year, tp.PerCapitaM3, tp.PopulationMillions, string(tp.WaterStressLevel)); err != nil {
			return fmt.Errorf("failed to insert trend for %d: %v", tp.Year, err)
		}
	}
	return nil
}

// GetNationalMetrics returns the stored national metrics in table order
func (r *SQLiteWaterRepository) GetNationalMetrics() ([]entities.NationalMetric, error) {
	rows, err := r.db.Query(`
		SELECT metric, value, unit, year, source, criticality
		FROM national_metrics
		ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query national metrics: %v", err)
	}
	defer rows.Close()

	var result []entities.NationalMetric
	for rows.Next() {
		var m entities.NationalMetric
		var criticality string
		if err := rows.Scan(&m.Metric, &m.Value, &m.Unit, &m.Year, &m.Source, &criticality); err != nil {
			return nil, fmt.Errorf("failed to scan row: %v", err)
		}
		m.Criticality = entities.Criticality(criticality)
		result = append(result, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %v", err)
	}
	return result, nil
}

// GetRegionalDams returns every stored dam row, the aggregate included, in table order
func (r *SQLiteWaterRepository) GetRegionalDams() ([]entities.RegionalDam, error) {
	rows, err := r.db.Query(`
		SELECT basin_name, is_aggregate, filling_rate_percent, capacity_million_m3,
			performance_status, priority_for_awg, market_opportunity_score
		FROM regional_dams
		ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query regional dams: %v", err)
	}
	defer rows.Close()

	var result []entities.RegionalDam
	for rows.Next() {
		var d entities.RegionalDam
		var aggregate bool
		var status, priority string
		if err := rows.Scan(
			&d.BasinName,
			&aggregate,
			&d.FillingRatePercent,
			&d.CapacityMillionM3,
			&status,
			&priority,
			&d.MarketOpportunityScore,
		); err != nil {
			return nil, fmt.Errorf("failed to scan row: %v", err)
		}
		if aggregate {
			d.Kind = entities.RowAggregate
		}
		d.PerformanceStatus = entities.PerformanceStatus(status)
		d.PriorityForAWG = entities.Priority(priority)
		result = append(result, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %v", err)
	}
	return result, nil
}

// GetInvestments returns the stored investment records in table order
func (r *SQLiteWaterRepository) GetInvestments() ([]entities.InvestmentRecord, error) {
	rows, err := r.db.Query(`
		SELECT agency, investment_million_usd, purpose, target_production_bcm, relevance_to_awg
		FROM investments
		ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query investments: %v", err)
	}
	defer rows.Close()

	var result []entities.InvestmentRecord
	for rows.Next() {
		var inv entities.InvestmentRecord
		var relevance string
		if err := rows.Scan(&inv.Agency, &inv.InvestmentMillionUSD, &inv.Purpose, &inv.TargetProductionBCM, &relevance); err != nil {
			return nil, fmt.Errorf("failed to scan row: %v", err)
		}
		inv.Relevance = entities.Relevance(relevance)
		result = append(result, inv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %v", err)
	}
	return result, nil
}

// GetTrends returns the stored availability series ordered by year
func (r *SQLiteWaterRepository) GetTrends() ([]entities.TrendPoint, error) {
	rows, err := r.db.Query(`
		SELECT year, per_capita_m3, population_millions, water_stress_level
		FROM water_trends
		ORDER BY year`)
	if err != nil {
		return nil, fmt.Errorf("failed to query water trends: %v", err)
	}
	defer rows.Close()

	var result []entities.TrendPoint
	for rows.Next() {
		var tp entities.TrendPoint
		var level string
		if err := rows.Scan(&tp.Year, &tp.PerCapitaM3, &tp.PopulationMillions, &level); err != nil {
			return nil, fmt.Errorf("failed to scan row: %v", err)
		}
		tp.WaterStressLevel = entities.StressLevel(level)
		result = append(result, tp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %v", err)
	}
	return result, nil
}
