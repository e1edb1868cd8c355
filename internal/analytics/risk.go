package analytics

import (
	"github.com/aquiferwatch/groundwater-insight/internal/entities"
)

// RiskConfig controls the composite stress index. Scales set how much decline
// maps to a full stress swing; weights must sum to 1 and thresholds must rise
// in order, which config validation enforces.
type RiskConfig struct {
	TrendWeight       float64
	SeasonalWeight    float64
	SlopeScaleM       float64 // m/day of decline mapping to full trend stress
	DeviationScaleM   float64 // m below baseline mapping to full seasonal stress
	LowThreshold      float64 // Index below this is Low Risk
	ModerateThreshold float64 // ... below this is Moderate Risk
	CriticalThreshold float64 // At or above this is Critical Risk
}

// DefaultRiskConfig weights trend 60/40 over seasonal with bands at 30/60/85.
func DefaultRiskConfig() RiskConfig {
	return RiskConfig{
		TrendWeight:       0.6,
		SeasonalWeight:    0.4,
		SlopeScaleM:       0.0015,
		DeviationScaleM:   1.0,
		LowThreshold:      30,
		ModerateThreshold: 60,
		CriticalThreshold: 85,
	}
}

// AssessRisk folds trend and seasonal stress into one 0-100 index. A neutral
// station sits at 50; decline pushes the index up, recharge pulls it down.
// Without a trend there is no index at all. Without a seasonal comparison the
// trend stress carries full weight, which SeasonalUsed records so consumers
// can tell a one-signal index from a two-signal one.
func AssessRisk(trend *entities.TrendResult, seasonal entities.SeasonalResult, cfg RiskConfig) entities.RiskAssessment {
	if trend == nil {
		return entities.RiskAssessment{
			StationID: seasonal.StationID,
			Available: false,
			Reason:    "no usable level trend for this station",
		}
	}

	result := entities.RiskAssessment{
		StationID:   trend.StationID,
		Available:   true,
		TrendStress: clamp(50-50*(trend.SlopeMPerDay/cfg.SlopeScaleM), 0, 100),
	}

	if seasonal.Available {
		result.SeasonalStress = clamp(50-50*(seasonal.DeviationM/cfg.DeviationScaleM), 0, 100)
		result.SeasonalUsed = true
		result.Index = cfg.TrendWeight*result.TrendStress + cfg.SeasonalWeight*result.SeasonalStress
	} else {
		result.Index = result.TrendStress
	}

	switch {
	case result.Index < cfg.LowThreshold:
		result.Level = entities.RiskLow
	case result.Index < cfg.ModerateThreshold:
		result.Level = entities.RiskModerate
	case result.Index < cfg.CriticalThreshold:
		result.Level = entities.RiskHigh
	default:
		result.Level = entities.RiskCritical
	}
	return result
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
