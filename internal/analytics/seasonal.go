package analytics

import (
	"fmt"
	"time"

	"github.com/aquiferwatch/groundwater-insight/internal/entities"
)

// BaselineAlignment selects how the seasonal baseline window is built
type BaselineAlignment string

const (
	// AlignmentPriorYear compares against the same calendar window one year back
	AlignmentPriorYear BaselineAlignment = "prior_year"
	// AlignmentMultiYear averages the same calendar window across several prior years
	AlignmentMultiYear BaselineAlignment = "multi_year"
)

// SeasonalConfig controls the seasonal deviation comparison
type SeasonalConfig struct {
	WindowDays    int               // Length of the compared calendar window
	BaselineYears int               // Prior years inspected under AlignmentMultiYear
	MinPoints     int               // Fewest readings a window may hold and still count
	Alignment     BaselineAlignment // Prior-year or multi-year baseline
}

// DefaultSeasonalConfig compares the trailing 90 days against the same window
// averaged over the two prior years.
func DefaultSeasonalConfig() SeasonalConfig {
	return SeasonalConfig{
		WindowDays:    90,
		BaselineYears: 2,
		MinPoints:     2,
		Alignment:     AlignmentMultiYear,
	}
}

// ComputeSeasonalDeviation compares the mean level of the trailing window
// against the mean of the same calendar window in prior years, shifted by 365
// days per year. It never fails: when the station is too young or its history
// does not cover the aligned windows, the result comes back unavailable with
// a typed reason. Young stations are the normal case, not an error.
func ComputeSeasonalDeviation(readings []entities.Reading, referenceDate time.Time, cfg SeasonalConfig) entities.SeasonalResult {
	result := entities.SeasonalResult{
		Available:   false,
		RecentStart: referenceDate.AddDate(0, 0, -cfg.WindowDays),
		RecentEnd:   referenceDate,
		SeasonLabel: seasonLabel(referenceDate),
	}
	if len(readings) == 0 {
		result.Reason = entities.ReasonInsufficientHistory
		result.Detail = "no readings recorded"
		return result
	}
	result.StationID = readings[0].StationID

	earliest := readings[0].Day()
	for _, r := range readings[1:] {
		if d := r.Day(); d.Before(earliest) {
			earliest = d
		}
	}

	recent := filterWindow(readings, result.RecentStart, result.RecentEnd)
	result.RecentPoints = len(recent)
	if len(recent) < cfg.MinPoints {
		result.Reason = entities.ReasonInsufficientHistory
		result.Detail = fmt.Sprintf("%d readings in the current %d-day window, need at least %d",
			len(recent), cfg.WindowDays, cfg.MinPoints)
		return result
	}

	// A station needs a full year behind the reference date before any
	// prior-year window can exist.
	spanDays := int(referenceDate.Sub(earliest).Hours() / 24)
	if spanDays < 365 {
		result.Reason = entities.ReasonInsufficientHistory
		result.Detail = fmt.Sprintf("history spans %d days, need at least 365 for a prior-year baseline", spanDays)
		return result
	}

	years := cfg.BaselineYears
	if cfg.Alignment == AlignmentPriorYear || years < 1 {
		years = 1
	}

	var yearMeans []float64
	for y := 1; y <= years; y++ {
		baseStart := result.RecentStart.AddDate(0, 0, -365*y)
		baseEnd := result.RecentEnd.AddDate(0, 0, -365*y)
		baseline := filterWindow(readings, baseStart, baseEnd)
		if len(baseline) >= cfg.MinPoints {
			yearMeans = append(yearMeans, meanLevel(baseline))
		}
	}
	if len(yearMeans) == 0 {
		result.Reason = entities.ReasonMisalignedCalendar
		result.Detail = fmt.Sprintf("history spans %d days but no prior-year %d-day window held %d readings",
			spanDays, cfg.WindowDays, cfg.MinPoints)
		return result
	}

	var baselineMean float64
	for _, m := range yearMeans {
		baselineMean += m
	}
	baselineMean /= float64(len(yearMeans))

	result.Available = true
	result.Reason = ""
	result.RecentMeanM = meanLevel(recent)
	result.BaselineMeanM = baselineMean
	result.DeviationM = result.RecentMeanM - baselineMean
	result.BaselineYears = len(yearMeans)
	return result
}

func filterWindow(readings []entities.Reading, start, end time.Time) []entities.Reading {
	var out []entities.Reading
	for _, r := range readings {
		d := r.Day()
		if !d.Before(start) && !d.After(end) {
			out = append(out, r)
		}
	}
	return out
}

func meanLevel(readings []entities.Reading) float64 {
	var sum float64
	for _, r := range readings {
		sum += r.WaterLevelM
	}
	return sum / float64(len(readings))
}

// seasonLabel names the Indian hydrological season the date falls in
func seasonLabel(t time.Time) string {
	switch t.Month() {
	case time.March, time.April, time.May:
		return "Summer / Pre-Monsoon"
	case time.June, time.July, time.August, time.September:
		return "Monsoon"
	case time.October, time.November:
		return "Post-Monsoon"
	default:
		return "Winter"
	}
}
