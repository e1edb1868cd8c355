package usecases

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aquiferwatch/groundwater-insight/internal/analytics"
	"github.com/aquiferwatch/groundwater-insight/internal/entities"
	"github.com/aquiferwatch/groundwater-insight/internal/insights"
	"github.com/aquiferwatch/groundwater-insight/internal/integration"
	"github.com/aquiferwatch/groundwater-insight/internal/repository"
)

func defaultAnalyticsConfig() AnalyticsConfig {
	return AnalyticsConfig{
		Trend:    analytics.DefaultTrendConfig(),
		Seasonal: analytics.DefaultSeasonalConfig(),
		Risk:     analytics.DefaultRiskConfig(),
	}
}

func newTestUseCase(t *testing.T, source integration.DataSource) (*StationUseCase, repository.GroundwaterRepository) {
	t.Helper()
	dir, err := os.MkdirTemp("", "usecase-test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	repo, err := repository.NewSQLiteGroundwaterRepository(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	uc := NewStationUseCase(repo, source, insights.NewRuleInterpreter(0.5), defaultAnalyticsConfig())
	return uc, repo
}

// seedStation stores a station and its readings directly, bypassing the source.
func seedStation(t *testing.T, repo repository.GroundwaterRepository, station entities.Station, readings []entities.Reading) {
	t.Helper()
	if err := repo.SaveStation(station); err != nil {
		t.Fatalf("Failed to seed station: %v", err)
	}
	if len(readings) > 0 {
		if err := repo.SaveReadings(readings); err != nil {
			t.Fatalf("Failed to seed readings: %v", err)
		}
	}
}

func declineSeries(stationID string, start time.Time, days int, base, driftPerDay float64) []entities.Reading {
	readings := make([]entities.Reading, 0, days)
	for i := 0; i < days; i++ {
		readings = append(readings, entities.Reading{
			StationID:   stationID,
			Date:        start.AddDate(0, 0, i),
			WaterLevelM: base + driftPerDay*float64(i),
			QualityFlag: "GOOD",
			Source:      "MOCK",
		})
	}
	return readings
}

func TestGetStationAnalyticsFiveYearDecline(t *testing.T) {
	uc, repo := newTestUseCase(t, integration.NewMockGenerator(integration.DefaultMockConfig()))

	start := time.Date(2019, time.January, 1, 0, 0, 0, 0, time.UTC)
	station := entities.Station{ID: "S1", Name: "Decline Well"}
	seedStation(t, repo, station, declineSeries("S1", start, 1825, 15, -0.002))

	bundle, err := uc.GetStationAnalytics("S1")
	if err != nil {
		t.Fatalf("GetStationAnalytics failed: %v", err)
	}

	// Reference date comes from the data, not the clock.
	wantRef := start.AddDate(0, 0, 1824)
	if !bundle.ReferenceDate.Equal(wantRef) {
		t.Errorf("Expected reference date %s, got %s", wantRef, bundle.ReferenceDate)
	}

	if bundle.Trend == nil {
		t.Fatalf("Expected a trend result, unavailable: %s", bundle.TrendUnavailable)
	}
	if bundle.Trend.Classification != entities.TrendDepleting {
		t.Errorf("Expected Depleting classification, got %s", bundle.Trend.Classification)
	}
	if !strings.Contains(bundle.Insight.Narrative, "depleting trend") {
		t.Errorf("Expected a depletion narrative, got: %s", bundle.Insight.Narrative)
	}

	// Five years of aligned history: the seasonal comparison must resolve.
	if !bundle.Seasonal.Available {
		t.Errorf("Expected seasonal availability with 5 years of history, got reason %s", bundle.Seasonal.Reason)
	}
	if !bundle.Risk.Available {
		t.Error("Expected an available risk assessment")
	}
}

func TestGetStationAnalyticsYoungStation(t *testing.T) {
	uc, repo := newTestUseCase(t, integration.NewMockGenerator(integration.DefaultMockConfig()))

	start := time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC)
	station := entities.Station{ID: "S2", Name: "Young Well"}
	seedStation(t, repo, station, declineSeries("S2", start, 200, 11, 0.0001))

	bundle, err := uc.GetStationAnalytics("S2")
	if err != nil {
		t.Fatalf("GetStationAnalytics failed: %v", err)
	}

	// Trend still computes normally on 200 days of data.
	if bundle.Trend == nil {
		t.Fatalf("Expected a trend result, unavailable: %s", bundle.TrendUnavailable)
	}

	if bundle.Seasonal.Available {
		t.Fatal("Expected seasonal comparison to be unavailable for 200 days of history")
	}
	if bundle.Seasonal.Reason != entities.ReasonInsufficientHistory {
		t.Errorf("Expected reason %s, got %s", entities.ReasonInsufficientHistory, bundle.Seasonal.Reason)
	}
	if !strings.Contains(bundle.Insight.Narrative, "Seasonal comparison unavailable") {
		t.Errorf("Expected the narrative to word the unavailability, got: %s", bundle.Insight.Narrative)
	}

	// Risk falls back to the trend component alone.
	if !bundle.Risk.Available {
		t.Error("Expected risk to remain available without seasonal data")
	}
	if bundle.Risk.SeasonalUsed {
		t.Error("Expected risk to record that seasonal was not used")
	}
}

func TestGetStationAnalyticsEmptyStation(t *testing.T) {
	uc, repo := newTestUseCase(t, integration.NewMockGenerator(integration.DefaultMockConfig()))

	seedStation(t, repo, entities.Station{ID: "S3", Name: "Empty Well"}, nil)

	_, err := uc.GetStationAnalytics("S3")
	if err == nil {
		t.Fatal("Expected an error for a station without readings")
	}
	if !errors.Is(err, analytics.ErrNoData) {
		t.Errorf("Expected ErrNoData, got %v", err)
	}
}

func TestGetStationAnalyticsUnknownStation(t *testing.T) {
	uc, _ := newTestUseCase(t, integration.NewMockGenerator(integration.DefaultMockConfig()))

	_, err := uc.GetStationAnalytics("NOPE")
	if !errors.Is(err, analytics.ErrNoData) {
		t.Errorf("Expected ErrNoData for an unknown station, got %v", err)
	}
}

func TestGetStationAnalyticsTrendUnavailableBundle(t *testing.T) {
	uc, repo := newTestUseCase(t, integration.NewMockGenerator(integration.DefaultMockConfig()))

	// One reading: a reference date exists, but no trend window can fill.
	station := entities.Station{ID: "S4", Name: "Sparse Well"}
	seedStation(t, repo, station, []entities.Reading{
		{StationID: "S4", Date: time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC), WaterLevelM: 10},
	})

	bundle, err := uc.GetStationAnalytics("S4")
	if err != nil {
		t.Fatalf("Expected a bundle for a sparse station, got error: %v", err)
	}
	if bundle.Trend != nil {
		t.Error("Expected no trend result")
	}
	if bundle.TrendUnavailable == "" {
		t.Error("Expected a worded trend-unavailable explanation")
	}
	if bundle.Risk.Available {
		t.Error("Expected risk to be unavailable without a trend")
	}
	if !strings.Contains(bundle.Insight.Narrative, "Insufficient data") {
		t.Errorf("Expected the insufficient-data narrative, got: %s", bundle.Insight.Narrative)
	}
}

func TestRefreshStationDataEndToEnd(t *testing.T) {
	cfg := integration.DefaultMockConfig()
	uc, repo := newTestUseCase(t, integration.NewMockGenerator(cfg))

	if err := uc.RefreshStationData(context.Background()); err != nil {
		t.Fatalf("RefreshStationData failed: %v", err)
	}

	stations, err := uc.ListStations()
	if err != nil {
		t.Fatalf("ListStations failed: %v", err)
	}
	if len(stations) != 3 {
		t.Fatalf("Expected 3 mock stations after refresh, got %d", len(stations))
	}

	// DWLR-001 carries the declining regime.
	bundle, err := uc.GetStationAnalytics("DWLR-001")
	if err != nil {
		t.Fatalf("GetStationAnalytics failed: %v", err)
	}
	if bundle.Trend == nil || bundle.Trend.Classification != entities.TrendDepleting {
		t.Errorf("Expected DWLR-001 to classify as Depleting, got %+v", bundle.Trend)
	}
	if bundle.DataPoints != cfg.DurationDays {
		t.Errorf("Expected %d stored readings, got %d", cfg.DurationDays, bundle.DataPoints)
	}

	// Each refreshed station gets an audit snapshot at its reference date.
	snapshot, err := uc.GetLastComputed("DWLR-001")
	if err != nil {
		t.Fatalf("GetLastComputed failed: %v", err)
	}
	if snapshot == nil {
		t.Fatal("Expected a metrics snapshot after refresh")
	}
	if !snapshot.CalculationDate.Equal(bundle.ReferenceDate) {
		t.Errorf("Expected snapshot at reference date %s, got %s", bundle.ReferenceDate, snapshot.CalculationDate)
	}
	if snapshot.TrendClassification != entities.TrendDepleting {
		t.Errorf("Expected Depleting in the snapshot, got %s", snapshot.TrendClassification)
	}

	// A second refresh must not duplicate append-only readings.
	if err := uc.RefreshStationData(context.Background()); err != nil {
		t.Fatalf("Second RefreshStationData failed: %v", err)
	}
	count, err := repo.CountReadings("DWLR-001")
	if err != nil {
		t.Fatalf("CountReadings failed: %v", err)
	}
	if count != cfg.DurationDays {
		t.Errorf("Expected %d readings after repeated refresh, got %d", cfg.DurationDays, count)
	}
}

func TestRefreshToleratesFailingStation(t *testing.T) {
	uc, _ := newTestUseCase(t, &flakySource{})

	if err := uc.RefreshStationData(context.Background()); err != nil {
		t.Fatalf("Expected refresh to tolerate a failing station, got %v", err)
	}

	// The healthy station still made it through.
	bundle, err := uc.GetStationAnalytics("GOOD-1")
	if err != nil {
		t.Fatalf("GetStationAnalytics failed for the healthy station: %v", err)
	}
	if bundle.Trend == nil {
		t.Error("Expected a trend for the healthy station")
	}
}

// flakySource serves one healthy station and one whose readings always fail.
type flakySource struct{}

func (f *flakySource) FetchStations() ([]entities.Station, error) {
	return []entities.Station{
		{ID: "BAD-1", Name: "Broken Well"},
		{ID: "GOOD-1", Name: "Healthy Well"},
	}, nil
}

func (f *flakySource) FetchReadings(stationID string, from, to time.Time) ([]entities.Reading, error) {
	if stationID == "BAD-1" {
		return nil, errors.New("simulated fetch failure")
	}
	start := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	return declineSeries("GOOD-1", start, 120, 10, 0.001), nil
}
