// Package usecases contains the application's business logic
package usecases

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/aquiferwatch/groundwater-insight/internal/analytics"
	"github.com/aquiferwatch/groundwater-insight/internal/entities"
	"github.com/aquiferwatch/groundwater-insight/internal/insights"
	"github.com/aquiferwatch/groundwater-insight/internal/integration"
	"github.com/aquiferwatch/groundwater-insight/internal/repository"
)

// AnalyticsConfig bundles the calculator settings one StationUseCase runs with.
type AnalyticsConfig struct {
	Trend    analytics.TrendConfig
	Seasonal analytics.SeasonalConfig
	Risk     analytics.RiskConfig
}

// StationUseCase orchestrates ingestion and the per-request analytics pass.
// Analytics are recomputed from stored readings on every call; nothing is
// cached between requests.
type StationUseCase struct {
	repo        repository.GroundwaterRepository
	source      integration.DataSource
	interpreter insights.Interpreter
	cfg         AnalyticsConfig
}

// NewStationUseCase creates a new station use case
func NewStationUseCase(repo repository.GroundwaterRepository, source integration.DataSource,
	interpreter insights.Interpreter, cfg AnalyticsConfig) *StationUseCase {
	return &StationUseCase{
		repo:        repo,
		source:      source,
		interpreter: interpreter,
		cfg:         cfg,
	}
}

// RefreshStationData fetches stations and readings from the configured
// source, persists them and records one metrics audit snapshot per station.
// A station that fails to fetch or compute is logged and skipped so the rest
// of the run still completes.
func (uc *StationUseCase) RefreshStationData(ctx context.Context) error {
	log.Println("Starting station data refresh process...")

	stations, err := uc.source.FetchStations()
	if err != nil {
		return fmt.Errorf("failed to fetch stations: %v", err)
	}
	log.Printf("Successfully fetched %d stations", len(stations))

	runID := uuid.NewString()
	refreshed := 0
	for _, station := range stations {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err := uc.repo.SaveStation(station); err != nil {
			log.Printf("Warning: failed to save station %s: %v", station.ID, err)
			continue
		}

		readings, err := uc.source.FetchReadings(station.ID, time.Time{}, time.Time{})
		if err != nil {
			log.Printf("Warning: failed to fetch readings for station %s: %v", station.ID, err)
			continue
		}
		if err := uc.repo.SaveReadings(readings); err != nil {
			log.Printf("Warning: failed to save readings for station %s: %v", station.ID, err)
			continue
		}

		if err := uc.recordMetricsSnapshot(runID, station); err != nil {
			log.Printf("Warning: failed to record metrics for station %s: %v", station.ID, err)
			continue
		}
		refreshed++
	}

	log.Printf("Refresh run %s complete: %d of %d stations refreshed", runID, refreshed, len(stations))
	return nil
}

// recordMetricsSnapshot recomputes a station's analytics from the freshly
// stored readings and writes the audit row for this run.
func (uc *StationUseCase) recordMetricsSnapshot(runID string, station entities.Station) error {
	bundle, err := uc.GetStationAnalytics(station.ID)
	if err != nil {
		if errors.Is(err, analytics.ErrNoData) {
			log.Printf("Warning: station %s has no readings, skipping metrics snapshot", station.ID)
			return nil
		}
		return err
	}

	snapshot := entities.MetricsSnapshot{
		RunID:             runID,
		StationID:         station.ID,
		CalculationDate:   bundle.ReferenceDate,
		SeasonalAvailable: bundle.Seasonal.Available,
		SeasonalReason:    bundle.Seasonal.Reason,
		DeviationM:        bundle.Seasonal.DeviationM,
		BaselineMeanM:     bundle.Seasonal.BaselineMeanM,
		RiskAvailable:     bundle.Risk.Available,
		RiskIndex:         bundle.Risk.Index,
		RiskLevel:         bundle.Risk.Level,
		DataPoints:        bundle.DataPoints,
	}
	if bundle.Trend != nil {
		snapshot.TrendAvailable = true
		snapshot.TrendClassification = bundle.Trend.Classification
		snapshot.SlopeMPerDay = bundle.Trend.SlopeMPerDay
		snapshot.MagnitudeM = bundle.Trend.MagnitudeM
		snapshot.TrendWindowDays = uc.cfg.Trend.WindowDays
	}
	return uc.repo.SaveMetrics(snapshot)
}

// GetStationAnalytics runs the full analytics pass for one station: load the
// stored history, resolve the reference date from it, then trend, seasonal,
// risk and narrative. Everything is computed fresh from this call's snapshot
// of the readings.
//
// Returns analytics.ErrNoData when the station has no readings at all; an
// underpopulated trend window is not an error and comes back as a bundle
// with Trend nil and a worded explanation.
func (uc *StationUseCase) GetStationAnalytics(stationID string) (*entities.StationAnalytics, error) {
	station, err := uc.repo.GetStation(stationID)
	if err != nil {
		return nil, err
	}
	if station == nil {
		return nil, fmt.Errorf("unknown station %s: %w", stationID, analytics.ErrNoData)
	}

	readings, err := uc.repo.GetReadings(stationID, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}

	referenceDate, err := analytics.ResolveReferenceDate(readings)
	if err != nil {
		return nil, fmt.Errorf("station %s: %w", stationID, err)
	}

	bundle := &entities.StationAnalytics{
		Station:       *station,
		ReferenceDate: referenceDate,
		DataPoints:    len(readings),
	}

	trend, err := analytics.ComputeTrend(readings, referenceDate, uc.cfg.Trend)
	if err != nil {
		if !errors.Is(err, analytics.ErrInsufficientData) {
			return nil, err
		}
		log.Printf("Trend unavailable for station %s: %v", stationID, err)
		bundle.TrendUnavailable = err.Error()
	} else {
		bundle.Trend = trend
	}

	bundle.Seasonal = analytics.ComputeSeasonalDeviation(readings, referenceDate, uc.cfg.Seasonal)
	bundle.Risk = analytics.AssessRisk(bundle.Trend, bundle.Seasonal, uc.cfg.Risk)
	bundle.Insight = uc.interpreter.Generate(*station, referenceDate, bundle.Trend, bundle.Seasonal, bundle.Risk)

	return bundle, nil
}

// ListStations returns every known station.
func (uc *StationUseCase) ListStations() ([]entities.Station, error) {
	log.Println("Retrieving list of stations")
	return uc.repo.GetAllStations()
}

// GetStationReadings returns a station's stored readings for charting,
// optionally bounded by from and to.
func (uc *StationUseCase) GetStationReadings(stationID string, from, to time.Time) ([]entities.Reading, error) {
	log.Printf("Retrieving readings for station: %s", stationID)
	return uc.repo.GetReadings(stationID, from, to)
}

// GetLastComputed returns the station's most recent ingest-time metrics
// snapshot, or nil when no ingest run has processed it yet. This is audit
// data labelled with its calculation date, not a substitute for a fresh
// analytics pass.
func (uc *StationUseCase) GetLastComputed(stationID string) (*entities.MetricsSnapshot, error) {
	return uc.repo.GetLatestMetrics(stationID)
}
