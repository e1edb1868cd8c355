package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/aquiferwatch/groundwater-insight/internal/entities"
)

func TestSeasonalUnavailableForYoungStation(t *testing.T) {
	cfg := DefaultSeasonalConfig()
	end := day(2023, time.December, 31)

	// 200 days of history: well-populated recent window, no prior year.
	readings := dailySeries("DWLR-001", end, 200, func(i int) float64 {
		return 10 + 0.001*float64(i)
	})

	result := ComputeSeasonalDeviation(readings, end, cfg)
	if result.Available {
		t.Fatalf("Expected unavailable result for 200 days of history, got available with deviation %g", result.DeviationM)
	}
	if result.Reason != entities.ReasonInsufficientHistory {
		t.Errorf("Expected reason %s, got %s", entities.ReasonInsufficientHistory, result.Reason)
	}
	if result.Detail == "" {
		t.Error("Expected a worded detail explaining the unavailability")
	}
}

func TestSeasonalUnavailableEmptySeries(t *testing.T) {
	result := ComputeSeasonalDeviation(nil, day(2023, time.December, 31), DefaultSeasonalConfig())
	if result.Available {
		t.Fatal("Expected unavailable result for an empty series")
	}
	if result.Reason != entities.ReasonInsufficientHistory {
		t.Errorf("Expected reason %s, got %s", entities.ReasonInsufficientHistory, result.Reason)
	}
}

func TestSeasonalMisalignedCalendar(t *testing.T) {
	cfg := DefaultSeasonalConfig()
	end := day(2023, time.December, 31)

	// A recent window plus a lone reading 500 days back: the history spans
	// over a year but the aligned prior-year window is empty.
	readings := dailySeries("DWLR-001", end, 90, func(i int) float64 {
		return 10
	})
	readings = append(readings, entities.Reading{
		StationID:   "DWLR-001",
		Date:        end.AddDate(0, 0, -500),
		WaterLevelM: 12,
	})

	result := ComputeSeasonalDeviation(readings, end, cfg)
	if result.Available {
		t.Fatal("Expected unavailable result when no prior-year window is populated")
	}
	if result.Reason != entities.ReasonMisalignedCalendar {
		t.Errorf("Expected reason %s, got %s", entities.ReasonMisalignedCalendar, result.Reason)
	}
}

func TestSeasonalDeviationTwoYearSeries(t *testing.T) {
	cfg := DefaultSeasonalConfig()
	cfg.Alignment = AlignmentPriorYear
	end := day(2023, time.December, 31)

	// Two years of daily readings: last year's level 9.0, the year before
	// 10.0. Prior-year alignment shifts the 90-day window back 365 days,
	// which lands entirely in the 10.0 segment.
	readings := dailySeries("DWLR-001", end, 730, func(i int) float64 {
		if i < 365 {
			return 10
		}
		return 9
	})

	result := ComputeSeasonalDeviation(readings, end, cfg)
	if !result.Available {
		t.Fatalf("Expected available result, got reason %s (%s)", result.Reason, result.Detail)
	}
	if math.Abs(result.RecentMeanM-9) > 1e-9 {
		t.Errorf("Expected recent mean 9.0, got %g", result.RecentMeanM)
	}
	if math.Abs(result.BaselineMeanM-10) > 1e-9 {
		t.Errorf("Expected baseline mean 10.0, got %g", result.BaselineMeanM)
	}
	if math.Abs(result.DeviationM-(-1)) > 1e-9 {
		t.Errorf("Expected deviation -1.0, got %g", result.DeviationM)
	}
	if result.BaselineYears != 1 {
		t.Errorf("Expected 1 baseline year under prior-year alignment, got %d", result.BaselineYears)
	}
}

func TestSeasonalMultiYearAveragesBaselines(t *testing.T) {
	cfg := DefaultSeasonalConfig()
	cfg.Alignment = AlignmentMultiYear
	cfg.BaselineYears = 2
	end := day(2023, time.December, 31)

	// Three years: oldest at 12.0, middle at 10.0, latest at 9.0. The
	// multi-year baseline averages the two prior aligned windows.
	readings := dailySeries("DWLR-001", end, 1095, func(i int) float64 {
		switch {
		case i < 365:
			return 12
		case i < 730:
			return 10
		default:
			return 9
		}
	})

	result := ComputeSeasonalDeviation(readings, end, cfg)
	if !result.Available {
		t.Fatalf("Expected available result, got reason %s (%s)", result.Reason, result.Detail)
	}
	if result.BaselineYears != 2 {
		t.Errorf("Expected 2 baseline years, got %d", result.BaselineYears)
	}
	if math.Abs(result.BaselineMeanM-11) > 1e-9 {
		t.Errorf("Expected baseline mean 11.0, got %g", result.BaselineMeanM)
	}
	if math.Abs(result.DeviationM-(-2)) > 1e-9 {
		t.Errorf("Expected deviation -2.0, got %g", result.DeviationM)
	}
}

func TestSeasonalSeasonLabels(t *testing.T) {
	tests := []struct {
		month time.Month
		want  string
	}{
		{time.April, "Summer / Pre-Monsoon"},
		{time.July, "Monsoon"},
		{time.October, "Post-Monsoon"},
		{time.January, "Winter"},
	}
	for _, tt := range tests {
		result := ComputeSeasonalDeviation(nil, day(2023, tt.month, 15), DefaultSeasonalConfig())
		if result.SeasonLabel != tt.want {
			t.Errorf("Expected season %q for %s, got %q", tt.want, tt.month, result.SeasonLabel)
		}
	}
}
