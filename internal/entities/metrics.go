package entities

import (
	"time"
)

// MetricsSnapshot is one audit row written after an ingest run recomputed a
// station's analytics. Snapshots record what was calculated and when; live
// API responses always recompute from readings and never serve these rows.
type MetricsSnapshot struct {
	ID                  int64
	RunID               string    // Shared by every station processed in one ingest run
	StationID           string
	CalculationDate     time.Time // Reference date the analytics were computed against
	TrendAvailable      bool
	TrendClassification TrendClassification
	SlopeMPerDay        float64
	MagnitudeM          float64
	TrendWindowDays     int
	SeasonalAvailable   bool
	SeasonalReason      SeasonalReason
	DeviationM          float64
	BaselineMeanM       float64
	RiskAvailable       bool
	RiskIndex           float64
	RiskLevel           RiskLevel
	DataPoints          int
	CreatedAt           time.Time
}
