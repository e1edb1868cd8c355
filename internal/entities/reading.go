package entities

import (
	"time"
)

// Reading represents one daily water level observation for a station.
//
// WaterLevelM is the water level in metres above the station datum: a higher
// value means more stored water. Rising levels therefore indicate recharge and
// falling levels indicate depletion, and every trend threshold in the analytics
// packages is expressed in this orientation.
type Reading struct {
	ID          int64     `json:"-"`
	StationID   string    `json:"stationId"`
	Date        time.Time `json:"date"`        // Observation day, normalized to midnight UTC
	WaterLevelM float64   `json:"waterLevelM"` // Level in metres above station datum
	QualityFlag string    `json:"qualityFlag"` // Recorder quality marker, e.g. "GOOD"
	Source      string    `json:"source"`      // Where the reading came from: MOCK, NWDP or BULLETIN
}

// Day returns the reading's observation day normalized to midnight UTC.
// Readings are keyed by (station, day), so comparisons go through this form.
func (r Reading) Day() time.Time {
	return time.Date(r.Date.Year(), r.Date.Month(), r.Date.Day(), 0, 0, 0, 0, time.UTC)
}
