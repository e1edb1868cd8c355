package entities

import (
	"encoding/json"
	"time"
)

// TrendClassification labels the direction of a station's recent level trend
type TrendClassification string

const (
	TrendRecharging TrendClassification = "Recharging"
	TrendStable     TrendClassification = "Stable"
	TrendDepleting  TrendClassification = "Depleting"
)

// TrendStrength grades how pronounced a non-stable trend is
type TrendStrength string

const (
	StrengthLow    TrendStrength = "Low"
	StrengthMedium TrendStrength = "Medium"
	StrengthStrong TrendStrength = "Strong"
)

// TrendResult holds the outcome of the level trend regression for one station
type TrendResult struct {
	StationID      string              `json:"stationId"`
	WindowStart    time.Time           `json:"windowStart"`
	WindowEnd      time.Time           `json:"windowEnd"` // Equals the station's reference date
	SlopeMPerDay   float64             `json:"slopeMPerDay"`
	MagnitudeM     float64             `json:"magnitudeM"` // Slope projected over the full window
	Classification TrendClassification `json:"classification"`
	Strength       TrendStrength       `json:"strength"`
	DataPoints     int                 `json:"dataPoints"` // Readings inside the window
}

// SeasonalReason explains why a seasonal comparison could not be produced
type SeasonalReason string

const (
	ReasonInsufficientHistory SeasonalReason = "InsufficientHistory"
	ReasonMisalignedCalendar  SeasonalReason = "MisalignedCalendar"
)

// SeasonalResult is the seasonal deviation for one station. It is a tagged
// value: when Available is false only Reason and Detail are meaningful, and
// the numeric fields must not be read. Unavailability is an expected state
// for young stations, not an error.
type SeasonalResult struct {
	StationID     string         `json:"stationId"`
	Available     bool           `json:"available"`
	Reason        SeasonalReason `json:"reason,omitempty"`
	Detail        string         `json:"detail,omitempty"` // Specifics, e.g. observed vs required history span
	RecentStart   time.Time      `json:"recentStart"`
	RecentEnd     time.Time      `json:"recentEnd"`
	RecentMeanM   float64        `json:"recentMeanM"`
	BaselineMeanM float64        `json:"baselineMeanM"`
	DeviationM    float64        `json:"deviationM"` // RecentMeanM - BaselineMeanM, positive = wetter than usual
	BaselineYears int            `json:"baselineYears"`
	RecentPoints  int            `json:"recentPoints"`
	SeasonLabel   string         `json:"seasonLabel"`
}

// MarshalJSON hides the numeric fields when the comparison is unavailable so
// that API consumers can never mistake placeholder zeros for real means.
func (s SeasonalResult) MarshalJSON() ([]byte, error) {
	if !s.Available {
		return json.Marshal(struct {
			StationID string         `json:"stationId"`
			Available bool           `json:"available"`
			Reason    SeasonalReason `json:"reason"`
			Detail    string         `json:"detail,omitempty"`
		}{s.StationID, false, s.Reason, s.Detail})
	}
	type available SeasonalResult
	return json.Marshal(available(s))
}

// RiskLevel is the qualitative banding of the composite stress index
type RiskLevel string

const (
	RiskLow      RiskLevel = "Low Risk"
	RiskModerate RiskLevel = "Moderate Risk"
	RiskHigh     RiskLevel = "High Risk"
	RiskCritical RiskLevel = "Critical Risk"
)

// RiskAssessment combines trend and seasonal stress into one 0-100 index.
// When Available is false (no usable trend) the numeric fields stay zero
// and Reason says why.
type RiskAssessment struct {
	StationID      string    `json:"stationId"`
	Available      bool      `json:"available"`
	Reason         string    `json:"reason,omitempty"`
	Index          float64   `json:"index"` // 0 = fully relaxed, 100 = fully stressed
	Level          RiskLevel `json:"level,omitempty"`
	TrendStress    float64   `json:"trendStress"`
	SeasonalStress float64   `json:"seasonalStress"`
	SeasonalUsed   bool      `json:"seasonalUsed"` // False when the trend carried full weight
}

// InsightSignal names an analytics input that contributed to a narrative
type InsightSignal string

const (
	SignalTrend    InsightSignal = "trend"
	SignalSeasonal InsightSignal = "seasonal"
	SignalRisk     InsightSignal = "risk"
)

// Insight is the plain-language reading of a station's analytics
type Insight struct {
	StationID     string          `json:"stationId"`
	ReferenceDate time.Time       `json:"referenceDate"`
	Narrative     string          `json:"narrative"`
	Signals       []InsightSignal `json:"signals"`
}

// StationAnalytics bundles everything the service knows about one station as
// of its reference date. Trend is nil when the window held too few readings;
// TrendUnavailable then carries the worded explanation.
type StationAnalytics struct {
	Station          Station        `json:"station"`
	ReferenceDate    time.Time      `json:"referenceDate"` // Latest reading date, never wall clock
	DataPoints       int            `json:"dataPoints"`    // All stored readings for the station
	Trend            *TrendResult   `json:"trend"`
	TrendUnavailable string         `json:"trendUnavailable,omitempty"`
	Seasonal         SeasonalResult `json:"seasonal"`
	Risk             RiskAssessment `json:"risk"`
	Insight          Insight        `json:"insight"`
}
