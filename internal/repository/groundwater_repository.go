// Package repository provides data access implementations
package repository

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/aquiferwatch/groundwater-insight/internal/entities"
)

// GroundwaterRepository defines the interface for station, reading and
// metrics persistence. Readings are append-only: saving an already-recorded
// (station, date) pair is silently ignored, never updated.
type GroundwaterRepository interface {
	SaveStation(station entities.Station) error
	GetStation(stationID string) (*entities.Station, error)
	GetAllStations() ([]entities.Station, error)
	SaveReadings(readings []entities.Reading) error
	GetReadings(stationID string, from, to time.Time) ([]entities.Reading, error)
	CountReadings(stationID string) (int, error)
	GetMaxReadingDate(stationID string) (time.Time, error)
	GetMaxReadingDateAll() (time.Time, error)
	SaveMetrics(snapshot entities.MetricsSnapshot) error
	GetLatestMetrics(stationID string) (*entities.MetricsSnapshot, error)
	Close() error
}

// SQLiteGroundwaterRepository implements GroundwaterRepository using SQLite
type SQLiteGroundwaterRepository struct {
	db     *sql.DB
	DBPath string
}

// NewSQLiteGroundwaterRepository creates and initializes a new SQLite repository
func NewSQLiteGroundwaterRepository(dbPath string) (*SQLiteGroundwaterRepository, error) {
	if dbPath == "" {
		// Set default path if not specified
		dbDir := "data"
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %v", err)
		}
		dbPath = filepath.Join(dbDir, "groundwater.db")
	}

	log.Printf("Opening database at %s", dbPath)
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS stations (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		district TEXT,
		state TEXT,
		latitude REAL,
		longitude REAL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS readings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		station_id TEXT NOT NULL,
		date TEXT NOT NULL,
		water_level_m REAL NOT NULL,
		quality_flag TEXT,
		source TEXT,
		UNIQUE(station_id, date)
	);
	CREATE INDEX IF NOT EXISTS idx_readings_station_date ON readings(station_id, date);
	CREATE TABLE IF NOT EXISTS metrics (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		station_id TEXT NOT NULL,
		calculation_date TEXT NOT NULL,
		trend_available INTEGER NOT NULL,
		trend_classification TEXT,
		slope_m_per_day REAL,
		magnitude_m REAL,
		trend_window_days INTEGER,
		seasonal_available INTEGER NOT NULL,
		seasonal_reason TEXT,
		deviation_m REAL,
		baseline_mean_m REAL,
		risk_available INTEGER NOT NULL,
		risk_index REAL,
		risk_level TEXT,
		data_points INTEGER,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(station_id, calculation_date)
	);
	CREATE INDEX IF NOT EXISTS idx_metrics_station_date ON metrics(station_id, calculation_date);`

	_, err = db.Exec(createTableSQL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %v", err)
	}

	return &SQLiteGroundwaterRepository{
		db:     db,
		DBPath: dbPath,
	}, nil
}

// Close closes the database connection
func (r *SQLiteGroundwaterRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SaveStation inserts a station or refreshes its metadata. The id is the
// identity and never changes; everything else is editable.
func (r *SQLiteGroundwaterRepository) SaveStation(station entities.Station) error {
	_, err := r.db.Exec(`
		INSERT INTO stations(id, name, district, state, latitude, longitude)
		VALUES(?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		name=excluded.name,
		district=excluded.district,
		state=excluded.state,
		latitude=excluded.latitude,
		longitude=excluded.longitude,
		updated_at=CURRENT_TIMESTAMP
	`, station.ID, station.Name, station.District, station.State, station.Latitude, station.Longitude)
	if err != nil {
		return fmt.Errorf("failed to save station %s: %v", station.ID, err)
	}
	return nil
}

// GetStation retrieves one station by id, or nil when it is unknown.
func (r *SQLiteGroundwaterRepository) GetStation(stationID string) (*entities.Station, error) {
	var s entities.Station
	err := r.db.QueryRow(`
		SELECT id, name, district, state, latitude, longitude
		FROM stations WHERE id = ?`, stationID).
		Scan(&s.ID, &s.Name, &s.District, &s.State, &s.Latitude, &s.Longitude)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query station %s: %v", stationID, err)
	}
	return &s, nil
}

// GetAllStations returns every known station ordered by id.
func (r *SQLiteGroundwaterRepository) GetAllStations() ([]entities.Station, error) {
	rows, err := r.db.Query(`
		SELECT id, name, district, state, latitude, longitude
		FROM stations ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stations: %v", err)
	}
	defer rows.Close()

	var stations []entities.Station
	for rows.Next() {
		var s entities.Station
		if err := rows.Scan(&s.ID, &s.Name, &s.District, &s.State, &s.Latitude, &s.Longitude); err != nil {
			return nil, fmt.Errorf("failed to scan row: %v", err)
		}
		stations = append(stations, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %v", err)
	}

	return stations, nil
}

// SaveReadings stores readings in one transaction. Duplicate (station, date)
// pairs are ignored, which keeps the store append-only: a stored observation
// is never rewritten by a later ingest run.
func (r *SQLiteGroundwaterRepository) SaveReadings(readings []entities.Reading) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO readings(station_id, date, water_level_m, quality_flag, source)
		VALUES(?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare statement: %v", err)
	}
	defer stmt.Close()

	for _, rd := range readings {
		_, err := stmt.Exec(
			rd.StationID,
			rd.Day().Format("2006-01-02"),
			rd.WaterLevelM,
			rd.QualityFlag,
			rd.Source,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert reading for %s on %s: %v",
				rd.StationID, rd.Day().Format("2006-01-02"), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}

	log.Printf("Successfully saved %d readings", len(readings))
	return nil
}

// GetReadings retrieves a station's readings ordered by date, optionally
// bounded by from and to (inclusive observation days; zero means unbounded).
func (r *SQLiteGroundwaterRepository) GetReadings(stationID string, from, to time.Time) ([]entities.Reading, error) {
	query := `
		SELECT id, station_id, date, water_level_m, quality_flag, source
		FROM readings
		WHERE station_id = ?`
	args := []interface{}{stationID}

	if !from.IsZero() {
		query += " AND date >= ?"
		args = append(args, from.UTC().Format("2006-01-02"))
	}
	if !to.IsZero() {
		query += " AND date <= ?"
		args = append(args, to.UTC().Format("2006-01-02"))
	}
	query += " ORDER BY date"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query readings for %s: %v", stationID, err)
	}
	defer rows.Close()

	var readings []entities.Reading
	for rows.Next() {
		var rd entities.Reading
		var dateStr string
		if err := rows.Scan(&rd.ID, &rd.StationID, &dateStr, &rd.WaterLevelM, &rd.QualityFlag, &rd.Source); err != nil {
			return nil, fmt.Errorf("failed to scan row: %v", err)
		}
		date, err := parseStoredDate(dateStr)
		if err != nil {
			return nil, err
		}
		rd.Date = date
		readings = append(readings, rd)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %v", err)
	}

	return readings, nil
}

// CountReadings returns how many readings a station has.
func (r *SQLiteGroundwaterRepository) CountReadings(stationID string) (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM readings WHERE station_id = ?", stationID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count readings for %s: %v", stationID, err)
	}
	return count, nil
}

// GetMaxReadingDate returns the most recent observation day stored for a
// station, or zero time when the station has no readings.
func (r *SQLiteGroundwaterRepository) GetMaxReadingDate(stationID string) (time.Time, error) {
	return r.maxDate("SELECT MAX(date) FROM readings WHERE station_id = ?", stationID)
}

// GetMaxReadingDateAll returns the most recent observation day across every
// station, or zero time when the store is empty.
func (r *SQLiteGroundwaterRepository) GetMaxReadingDateAll() (time.Time, error) {
	return r.maxDate("SELECT MAX(date) FROM readings")
}

func (r *SQLiteGroundwaterRepository) maxDate(query string, args ...interface{}) (time.Time, error) {
	var dateStr sql.NullString
	err := r.db.QueryRow(query, args...).Scan(&dateStr)
	if err != nil {
		if err == sql.ErrNoRows {
			return time.Time{}, nil // Return zero time if no data
		}
		return time.Time{}, fmt.Errorf("failed to get max reading date: %v", err)
	}

	// MAX over an empty set scans as NULL
	if !dateStr.Valid || dateStr.String == "" {
		return time.Time{}, nil
	}

	return parseStoredDate(dateStr.String)
}

// parseStoredDate reads a date column back. Dates are written as plain
// "2006-01-02" strings, but rows imported from older dumps may carry a
// DATETIME suffix, so both forms parse.
func parseStoredDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err == nil {
		return t, nil
	}
	t, err2 := time.ParseInLocation("2006-01-02 15:04:05", s, time.UTC)
	if err2 == nil {
		return dayFromStored(t), nil
	}
	return time.Time{}, fmt.Errorf("failed to parse stored date '%s': %v", s, err)
}

func dayFromStored(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SaveMetrics records one audit snapshot. Re-running an ingest against the
// same calculation date replaces the station's previous snapshot for it.
func (r *SQLiteGroundwaterRepository) SaveMetrics(snapshot entities.MetricsSnapshot) error {
	_, err := r.db.Exec(`
		INSERT INTO metrics(
			run_id, station_id, calculation_date,
			trend_available, trend_classification, slope_m_per_day, magnitude_m, trend_window_days,
			seasonal_available, seasonal_reason, deviation_m, baseline_mean_m,
			risk_available, risk_index, risk_level, data_points)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(station_id, calculation_date) DO UPDATE SET
		run_id=excluded.run_id,
		trend_available=excluded.trend_available,
		trend_classification=excluded.trend_classification,
		slope_m_per_day=excluded.slope_m_per_day,
		magnitude_m=excluded.magnitude_m,
		trend_window_days=excluded.trend_window_days,
		seasonal_available=excluded.seasonal_available,
		seasonal_reason=excluded.seasonal_reason,
		deviation_m=excluded.deviation_m,
		baseline_mean_m=excluded.baseline_mean_m,
		risk_available=excluded.risk_available,
		risk_index=excluded.risk_index,
		risk_level=excluded.risk_level,
		data_points=excluded.data_points
	`,
		snapshot.RunID,
		snapshot.StationID,
		snapshot.CalculationDate.UTC().Format("2006-01-02"),
		snapshot.TrendAvailable,
		string(snapshot.TrendClassification),
		snapshot.SlopeMPerDay,
		snapshot.MagnitudeM,
		snapshot.TrendWindowDays,
		snapshot.SeasonalAvailable,
		string(snapshot.SeasonalReason),
		snapshot.DeviationM,
		snapshot.BaselineMeanM,
		snapshot.RiskAvailable,
		snapshot.RiskIndex,
		string(snapshot.RiskLevel),
		snapshot.DataPoints,
	)
	if err != nil {
		return fmt.Errorf("failed to save metrics for %s: %v", snapshot.StationID, err)
	}
	return nil
}

// GetLatestMetrics returns the station's most recent audit snapshot, or nil
// when none has been recorded yet.
func (r *SQLiteGroundwaterRepository) GetLatestMetrics(stationID string) (*entities.MetricsSnapshot, error) {
	var m entities.MetricsSnapshot
	var calcDateStr string
	var classification, reason, level string
	err := r.db.QueryRow(`
		SELECT run_id, station_id, calculation_date,
			trend_available, trend_classification, slope_m_per_day, magnitude_m, trend_window_days,
			seasonal_available, seasonal_reason, deviation_m, baseline_mean_m,
			risk_available, risk_index, risk_level, data_points
		FROM metrics
		WHERE station_id = ?
		ORDER BY calculation_date DESC
		LIMIT 1`, stationID).Scan(
		&m.RunID, &m.StationID, &calcDateStr,
		&m.TrendAvailable, &classification, &m.SlopeMPerDay, &m.MagnitudeM, &m.TrendWindowDays,
		&m.SeasonalAvailable, &reason, &m.DeviationM, &m.BaselineMeanM,
		&m.RiskAvailable, &m.RiskIndex, &level, &m.DataPoints,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest metrics for %s: %v", stationID, err)
	}

	calcDate, err := parseStoredDate(calcDateStr)
	if err != nil {
		return nil, err
	}
	m.CalculationDate = calcDate
	m.TrendClassification = entities.TrendClassification(classification)
	m.SeasonalReason = entities.SeasonalReason(reason)
	m.RiskLevel = entities.RiskLevel(level)
	return &m, nil
}
