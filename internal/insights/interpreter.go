// Package insights turns computed metrics into short narrative text for
// non-technical readers. The mapping is a fixed sentence table keyed by
// trend classification, seasonal deviation bucket and risk level — no
// free-text generation and no language model, so every narrative the
// service can ever produce is enumerable and auditable.
package insights

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/aquiferwatch/groundwater-insight/internal/entities"
)

// Interpreter produces the narrative for one station's analytics.
type Interpreter interface {
	Generate(station entities.Station, referenceDate time.Time,
		trend *entities.TrendResult, seasonal entities.SeasonalResult,
		risk entities.RiskAssessment) entities.Insight
}

// deviationBucket coarsens the seasonal deviation into the three states the
// sentence table distinguishes.
type deviationBucket string

const (
	bucketNormal deviationBucket = "normal"
	bucketAbove  deviationBucket = "above"
	bucketBelow  deviationBucket = "below"
)

// Sentence tables. Placeholders are filled positionally by the builders
// below; adding a vocabulary entry means adding a row here, not branching
// logic elsewhere.
var trendSentences = map[entities.TrendClassification]string{
	entities.TrendRecharging: "Groundwater levels at %s show a %srecharging trend of %.2f m over the past %d days.",
	entities.TrendDepleting:  "Groundwater levels at %s show a %sdepleting trend of %.2f m over the past %d days.",
	entities.TrendStable:     "Groundwater levels at %s have remained relatively stable over the past %d days.",
}

var seasonalSentences = map[deviationBucket]string{
	bucketNormal: "Current levels are consistent with seasonal expectations (baseline: %.2f m).",
	bucketBelow:  "Current levels are %.2f m below the seasonal baseline (%.2f m), indicating lower than expected recharge.",
	bucketAbove:  "Current levels are %.2f m above the seasonal baseline (%.2f m), indicating favorable recharge conditions.",
}

var seasonalUnavailableSentences = map[entities.SeasonalReason]string{
	entities.ReasonInsufficientHistory: "Seasonal comparison unavailable: insufficient historical data.",
	entities.ReasonMisalignedCalendar:  "Seasonal comparison unavailable: no aligned readings in prior years.",
}

var riskSentences = map[entities.RiskLevel]string{
	entities.RiskLow:      "Overall groundwater stress risk is LOW (index: %.1f/100), indicating sustainable conditions.",
	entities.RiskModerate: "Overall groundwater stress risk is MODERATE (index: %.1f/100), suggesting careful monitoring is warranted.",
	entities.RiskHigh:     "Overall groundwater stress risk is HIGH (index: %.1f/100), indicating potential sustainability concerns.",
	entities.RiskCritical: "Overall groundwater stress risk is CRITICAL (index: %.1f/100), requiring immediate attention and management intervention.",
}

const insufficientDataSentence = "Insufficient data for station %s in the selected period ending %s. Please ensure adequate historical readings are available for meaningful analysis."

// RuleInterpreter is the table-driven Interpreter implementation.
type RuleInterpreter struct {
	// bucketThresholdM is the absolute deviation below which levels still
	// count as consistent with seasonal expectations.
	bucketThresholdM float64
}

// NewRuleInterpreter creates an interpreter. A non-positive bucket threshold
// falls back to the standard 0.5 m band.
func NewRuleInterpreter(bucketThresholdM float64) *RuleInterpreter {
	if bucketThresholdM <= 0 {
		bucketThresholdM = 0.5
	}
	return &RuleInterpreter{bucketThresholdM: bucketThresholdM}
}

// Generate builds the narrative and records which signals contributed.
// Identical inputs always yield identical text: the only inputs are the
// argument values and the fixed sentence tables.
func (ri *RuleInterpreter) Generate(station entities.Station, referenceDate time.Time,
	trend *entities.TrendResult, seasonal entities.SeasonalResult,
	risk entities.RiskAssessment) entities.Insight {

	insight := entities.Insight{
		StationID:     station.ID,
		ReferenceDate: referenceDate,
	}

	stationName := station.Name
	if stationName == "" {
		stationName = station.ID
	}

	if trend == nil {
		insight.Narrative = fmt.Sprintf(insufficientDataSentence, stationName, referenceDate.Format("2006-01-02"))
		insight.Signals = []entities.InsightSignal{}
		return insight
	}

	var parts []string
	parts = append(parts, trendSentence(stationName, trend))
	insight.Signals = append(insight.Signals, entities.SignalTrend)

	parts = append(parts, ri.seasonalSentence(seasonal))
	if seasonal.Available {
		insight.Signals = append(insight.Signals, entities.SignalSeasonal)
	}

	if risk.Available {
		parts = append(parts, fmt.Sprintf(riskSentences[risk.Level], risk.Index))
		insight.Signals = append(insight.Signals, entities.SignalRisk)
	}

	insight.Narrative = strings.Join(parts, " ")
	return insight
}

func trendSentence(stationName string, trend *entities.TrendResult) string {
	if trend.Classification == entities.TrendStable {
		return fmt.Sprintf(trendSentences[entities.TrendStable], stationName, windowDays(trend))
	}

	// Low-strength trends read better without a grade qualifier.
	strengthText := ""
	if trend.Strength != entities.StrengthLow {
		strengthText = strings.ToLower(string(trend.Strength)) + "-strength "
	}
	return fmt.Sprintf(trendSentences[trend.Classification],
		stationName, strengthText, math.Abs(trend.MagnitudeM), windowDays(trend))
}

func (ri *RuleInterpreter) seasonalSentence(seasonal entities.SeasonalResult) string {
	if !seasonal.Available {
		if s, ok := seasonalUnavailableSentences[seasonal.Reason]; ok {
			return s
		}
		return seasonalUnavailableSentences[entities.ReasonInsufficientHistory]
	}

	switch ri.bucket(seasonal.DeviationM) {
	case bucketBelow:
		return fmt.Sprintf(seasonalSentences[bucketBelow], math.Abs(seasonal.DeviationM), seasonal.BaselineMeanM)
	case bucketAbove:
		return fmt.Sprintf(seasonalSentences[bucketAbove], seasonal.DeviationM, seasonal.BaselineMeanM)
	default:
		return fmt.Sprintf(seasonalSentences[bucketNormal], seasonal.BaselineMeanM)
	}
}

func (ri *RuleInterpreter) bucket(deviationM float64) deviationBucket {
	switch {
	case math.Abs(deviationM) < ri.bucketThresholdM:
		return bucketNormal
	case deviationM < 0:
		return bucketBelow
	default:
		return bucketAbove
	}
}

func windowDays(trend *entities.TrendResult) int {
	return int(trend.WindowEnd.Sub(trend.WindowStart).Hours() / 24)
}
