package analytics

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aquiferwatch/groundwater-insight/internal/entities"
)

// ErrInsufficientData means a station has readings, but too few inside the
// requested window for a regression to mean anything.
var ErrInsufficientData = errors.New("insufficient readings")

// TrendConfig controls the level trend regression. Slope thresholds are in
// metres per day and bracket zero: above Upper the station is recharging,
// below Lower it is depleting, in between it is stable.
type TrendConfig struct {
	WindowDays      int
	LowerThresholdM float64 // Slope below this classifies as Depleting
	UpperThresholdM float64 // Slope above this classifies as Recharging
	MinPoints       int     // Fewest readings the window may hold, never below 2
	MediumSlopeM    float64 // |slope| at or above this grades Medium
	StrongSlopeM    float64 // |slope| at or above this grades Strong
}

// DefaultTrendConfig returns the standard 90-day window with a ±0.0005 m/day
// deadband around zero.
func DefaultTrendConfig() TrendConfig {
	return TrendConfig{
		WindowDays:      90,
		LowerThresholdM: -0.0005,
		UpperThresholdM: 0.0005,
		MinPoints:       2,
		MediumSlopeM:    0.0007,
		StrongSlopeM:    0.0015,
	}
}

// ComputeTrend fits an ordinary least squares line through the readings that
// fall inside the trailing window ending at referenceDate and classifies the
// slope. The x axis is whole days since the first reading in the window, so
// the slope is in metres per day regardless of gaps in the series.
//
// Returns ErrInsufficientData when the window holds fewer than cfg.MinPoints
// readings. Readings outside the window never influence the fit.
func ComputeTrend(readings []entities.Reading, referenceDate time.Time, cfg TrendConfig) (*entities.TrendResult, error) {
	minPoints := cfg.MinPoints
	if minPoints < 2 {
		minPoints = 2
	}

	windowStart := referenceDate.AddDate(0, 0, -cfg.WindowDays)
	window := make([]entities.Reading, 0, len(readings))
	for _, r := range readings {
		d := r.Day()
		if !d.Before(windowStart) && !d.After(referenceDate) {
			window = append(window, r)
		}
	}
	if len(window) < minPoints {
		return nil, fmt.Errorf("%w: %d readings in the %d-day window ending %s, need at least %d",
			ErrInsufficientData, len(window), cfg.WindowDays, referenceDate.Format("2006-01-02"), minPoints)
	}

	sort.Slice(window, func(i, j int) bool {
		return window[i].Day().Before(window[j].Day())
	})

	slope := regressionSlope(window)

	result := &entities.TrendResult{
		StationID:    window[0].StationID,
		WindowStart:  windowStart,
		WindowEnd:    referenceDate,
		SlopeMPerDay: slope,
		MagnitudeM:   slope * float64(cfg.WindowDays),
		DataPoints:   len(window),
	}

	switch {
	case slope > cfg.UpperThresholdM:
		result.Classification = entities.TrendRecharging
	case slope < cfg.LowerThresholdM:
		result.Classification = entities.TrendDepleting
	default:
		result.Classification = entities.TrendStable
	}
	result.Strength = gradeStrength(slope, cfg)

	return result, nil
}

// regressionSlope computes the OLS slope of level against whole-day offsets.
// A flat series short-circuits to exactly zero so float noise in the sums can
// never push a constant station out of the stable band.
func regressionSlope(window []entities.Reading) float64 {
	flat := true
	for _, r := range window[1:] {
		if r.WaterLevelM != window[0].WaterLevelM {
			flat = false
			break
		}
	}
	if flat {
		return 0
	}

	first := window[0].Day()
	var sumX, sumY, sumXY, sumXX float64
	for _, r := range window {
		x := r.Day().Sub(first).Hours() / 24
		y := r.WaterLevelM
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	n := float64(len(window))
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

func gradeStrength(slope float64, cfg TrendConfig) entities.TrendStrength {
	abs := slope
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= cfg.StrongSlopeM:
		return entities.StrengthStrong
	case abs >= cfg.MediumSlopeM:
		return entities.StrengthMedium
	default:
		return entities.StrengthLow
	}
}
