package insights

import (
	"strings"
	"testing"
	"time"

	"github.com/aquiferwatch/groundwater-insight/internal/entities"
)

var testStation = entities.Station{
	ID:       "DWLR-001",
	Name:     "Village Well Alpha",
	District: "Pune",
	State:    "Maharashtra",
}

var refDate = time.Date(2023, time.December, 31, 0, 0, 0, 0, time.UTC)

func trendResult(class entities.TrendClassification, strength entities.TrendStrength, magnitude float64) *entities.TrendResult {
	return &entities.TrendResult{
		StationID:      testStation.ID,
		WindowStart:    refDate.AddDate(0, 0, -90),
		WindowEnd:      refDate,
		Classification: class,
		Strength:       strength,
		MagnitudeM:     magnitude,
	}
}

func seasonalAvailable(deviation, baseline float64) entities.SeasonalResult {
	return entities.SeasonalResult{
		StationID:     testStation.ID,
		Available:     true,
		DeviationM:    deviation,
		BaselineMeanM: baseline,
	}
}

func seasonalUnavailable(reason entities.SeasonalReason) entities.SeasonalResult {
	return entities.SeasonalResult{
		StationID: testStation.ID,
		Available: false,
		Reason:    reason,
	}
}

func TestGenerateCoversSentenceTable(t *testing.T) {
	interp := NewRuleInterpreter(0.5)

	tests := []struct {
		name     string
		trend    *entities.TrendResult
		seasonal entities.SeasonalResult
		contains []string
	}{
		{
			name:     "depleting with below-normal seasonal",
			trend:    trendResult(entities.TrendDepleting, entities.StrengthStrong, -0.18),
			seasonal: seasonalAvailable(-1.2, 10.5),
			contains: []string{
				"strong-strength depleting trend of 0.18 m over the past 90 days",
				"1.20 m below the seasonal baseline (10.50 m)",
				"lower than expected recharge",
			},
		},
		{
			name:     "recharging with above-normal seasonal",
			trend:    trendResult(entities.TrendRecharging, entities.StrengthMedium, 0.09),
			seasonal: seasonalAvailable(0.8, 9.7),
			contains: []string{
				"medium-strength recharging trend of 0.09 m",
				"0.80 m above the seasonal baseline (9.70 m)",
				"favorable recharge conditions",
			},
		},
		{
			name:     "stable with normal seasonal",
			trend:    trendResult(entities.TrendStable, entities.StrengthLow, 0.01),
			seasonal: seasonalAvailable(0.1, 11.0),
			contains: []string{
				"remained relatively stable over the past 90 days",
				"consistent with seasonal expectations (baseline: 11.00 m)",
			},
		},
		{
			name:     "low-strength trend drops the grade qualifier",
			trend:    trendResult(entities.TrendDepleting, entities.StrengthLow, -0.03),
			seasonal: seasonalAvailable(0.0, 11.0),
			contains: []string{"show a depleting trend of 0.03 m"},
		},
		{
			name:     "seasonal unavailable for insufficient history",
			trend:    trendResult(entities.TrendStable, entities.StrengthLow, 0),
			seasonal: seasonalUnavailable(entities.ReasonInsufficientHistory),
			contains: []string{"Seasonal comparison unavailable: insufficient historical data."},
		},
		{
			name:     "seasonal unavailable for misaligned calendar",
			trend:    trendResult(entities.TrendStable, entities.StrengthLow, 0),
			seasonal: seasonalUnavailable(entities.ReasonMisalignedCalendar),
			contains: []string{"Seasonal comparison unavailable: no aligned readings in prior years."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			insight := interp.Generate(testStation, refDate, tt.trend, tt.seasonal, entities.RiskAssessment{})
			for _, want := range tt.contains {
				if !strings.Contains(insight.Narrative, want) {
					t.Errorf("Expected narrative to contain %q, got: %s", want, insight.Narrative)
				}
			}
			if !strings.Contains(insight.Narrative, testStation.Name) {
				t.Errorf("Expected narrative to mention the station name, got: %s", insight.Narrative)
			}
		})
	}
}

func TestGenerateRiskSentences(t *testing.T) {
	interp := NewRuleInterpreter(0.5)

	tests := []struct {
		level entities.RiskLevel
		index float64
		want  string
	}{
		{entities.RiskLow, 12.5, "risk is LOW (index: 12.5/100)"},
		{entities.RiskModerate, 45, "risk is MODERATE (index: 45.0/100)"},
		{entities.RiskHigh, 72, "risk is HIGH (index: 72.0/100)"},
		{entities.RiskCritical, 91, "risk is CRITICAL (index: 91.0/100)"},
	}

	for _, tt := range tests {
		risk := entities.RiskAssessment{Available: true, Level: tt.level, Index: tt.index}
		insight := interp.Generate(testStation, refDate,
			trendResult(entities.TrendStable, entities.StrengthLow, 0),
			seasonalAvailable(0, 11), risk)
		if !strings.Contains(insight.Narrative, tt.want) {
			t.Errorf("Expected narrative to contain %q, got: %s", tt.want, insight.Narrative)
		}
	}
}

func TestGenerateTrendUnavailable(t *testing.T) {
	interp := NewRuleInterpreter(0.5)

	insight := interp.Generate(testStation, refDate, nil,
		seasonalUnavailable(entities.ReasonInsufficientHistory), entities.RiskAssessment{})

	if !strings.Contains(insight.Narrative, "Insufficient data for station Village Well Alpha") {
		t.Errorf("Expected the neutral insufficient-data message, got: %s", insight.Narrative)
	}
	if !strings.Contains(insight.Narrative, "2023-12-31") {
		t.Errorf("Expected the reference date in the message, got: %s", insight.Narrative)
	}
	if len(insight.Signals) != 0 {
		t.Errorf("Expected no contributing signals, got %v", insight.Signals)
	}
}

func TestGenerateSignalLists(t *testing.T) {
	interp := NewRuleInterpreter(0.5)

	tests := []struct {
		name     string
		trend    *entities.TrendResult
		seasonal entities.SeasonalResult
		risk     entities.RiskAssessment
		want     []entities.InsightSignal
	}{
		{
			name:     "trend only",
			trend:    trendResult(entities.TrendStable, entities.StrengthLow, 0),
			seasonal: seasonalUnavailable(entities.ReasonInsufficientHistory),
			want:     []entities.InsightSignal{entities.SignalTrend},
		},
		{
			name:     "trend and seasonal and risk",
			trend:    trendResult(entities.TrendDepleting, entities.StrengthStrong, -0.2),
			seasonal: seasonalAvailable(-1, 10),
			risk:     entities.RiskAssessment{Available: true, Level: entities.RiskHigh, Index: 75},
			want:     []entities.InsightSignal{entities.SignalTrend, entities.SignalSeasonal, entities.SignalRisk},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			insight := interp.Generate(testStation, refDate, tt.trend, tt.seasonal, tt.risk)
			if len(insight.Signals) != len(tt.want) {
				t.Fatalf("Expected signals %v, got %v", tt.want, insight.Signals)
			}
			for i := range tt.want {
				if insight.Signals[i] != tt.want[i] {
					t.Errorf("Expected signal %s at position %d, got %s", tt.want[i], i, insight.Signals[i])
				}
			}
		})
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	interp := NewRuleInterpreter(0.5)
	trend := trendResult(entities.TrendDepleting, entities.StrengthStrong, -0.25)
	seasonal := seasonalAvailable(-1.5, 10.2)
	risk := entities.RiskAssessment{Available: true, Level: entities.RiskCritical, Index: 92.4}

	first := interp.Generate(testStation, refDate, trend, seasonal, risk)
	for i := 0; i < 10; i++ {
		again := interp.Generate(testStation, refDate, trend, seasonal, risk)
		if again.Narrative != first.Narrative {
			t.Fatalf("Expected identical narrative on run %d, got:\n%s\nvs\n%s", i, again.Narrative, first.Narrative)
		}
	}
}
