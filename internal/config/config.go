// Package config loads and validates the service configuration from the
// environment. Validation failures are fatal at startup so a misconfigured
// threshold can never surface as a per-request analytics error.
package config

import (
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/aquiferwatch/groundwater-insight/internal/analytics"
	"github.com/aquiferwatch/groundwater-insight/internal/entities"
	"github.com/aquiferwatch/groundwater-insight/internal/integration"
)

// ErrInvalidConfiguration wraps every validation failure so mains can treat
// any configuration problem as one fatal condition.
var ErrInvalidConfiguration = errors.New("invalid configuration")

var validate = validator.New()

// DataMode selects where readings come from.
type DataMode string

const (
	ModeMock     DataMode = "mock"
	ModeAPI      DataMode = "api"
	ModeBulletin DataMode = "bulletin"
)

// AppConfig is the full configuration surface of the service.
type AppConfig struct {
	DataMode DataMode `validate:"required,oneof=mock api bulletin"`
	DBPath   string

	// NWDP API source (DataMode "api").
	NWDPBaseURL string
	NWDPAPIKey  string
	NWDPTimeout time.Duration

	// HTML bulletin source (DataMode "bulletin"). A bulletin page covers a
	// single station, so its identity comes from configuration.
	BulletinURL         string
	BulletinStationID   string
	BulletinStationName string

	Trend    analytics.TrendConfig
	Seasonal analytics.SeasonalConfig
	Risk     analytics.RiskConfig

	// BucketThresholdM sets where a seasonal deviation stops counting as
	// "consistent with seasonal expectations" in the narrative.
	BucketThresholdM float64

	Mock integration.MockConfig

	IngestCron string
	Port       string
	BotToken   string
}

// Load reads configuration from environment with sensible defaults.
// A missing .env file is fine; malformed or inconsistent values are not.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{
		DataMode:    DataMode(getenvDefault("DATA_MODE", "mock")),
		DBPath:      getenvDefault("DB_PATH", ""),
		NWDPBaseURL: getenvDefault("NWDP_API_BASE_URL", "https://api.nwdp.gov.in"),
		NWDPAPIKey:  os.Getenv("NWDP_API_KEY"),
		BulletinURL:         os.Getenv("BULLETIN_URL"),
		BulletinStationID:   getenvDefault("BULLETIN_STATION_ID", "DWLR-100"),
		BulletinStationName: getenvDefault("BULLETIN_STATION_NAME", "Bulletin Well"),
		IngestCron:  getenvDefault("INGEST_CRON", "0 6 * * *"),
		Port:        getenvDefault("PORT", "8080"),
		BotToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
	}

	timeoutStr := getenvDefault("NWDP_API_TIMEOUT", "30s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid NWDP_API_TIMEOUT: %v", ErrInvalidConfiguration, err)
	}
	cfg.NWDPTimeout = timeout

	cfg.Trend = analytics.DefaultTrendConfig()
	cfg.Trend.WindowDays = getenvInt("TREND_WINDOW_DAYS", cfg.Trend.WindowDays)
	cfg.Trend.LowerThresholdM = getenvFloat("TREND_LOWER_THRESHOLD", cfg.Trend.LowerThresholdM)
	cfg.Trend.UpperThresholdM = getenvFloat("TREND_UPPER_THRESHOLD", cfg.Trend.UpperThresholdM)
	cfg.Trend.MinPoints = getenvInt("TREND_MIN_POINTS", cfg.Trend.MinPoints)

	cfg.Seasonal = analytics.DefaultSeasonalConfig()
	cfg.Seasonal.WindowDays = getenvInt("SEASONAL_WINDOW_DAYS", cfg.Seasonal.WindowDays)
	cfg.Seasonal.BaselineYears = getenvInt("SEASONAL_BASELINE_YEARS", cfg.Seasonal.BaselineYears)
	cfg.Seasonal.MinPoints = getenvInt("SEASONAL_MIN_POINTS", cfg.Seasonal.MinPoints)
	cfg.Seasonal.Alignment = analytics.BaselineAlignment(getenvDefault("SEASONAL_ALIGNMENT", string(cfg.Seasonal.Alignment)))
	cfg.BucketThresholdM = getenvFloat("SEASONAL_BUCKET_THRESHOLD_M", 0.5)

	cfg.Risk = analytics.DefaultRiskConfig()
	cfg.Risk.TrendWeight = getenvFloat("RISK_TREND_WEIGHT", cfg.Risk.TrendWeight)
	cfg.Risk.SeasonalWeight = getenvFloat("RISK_SEASONAL_WEIGHT", cfg.Risk.SeasonalWeight)
	cfg.Risk.LowThreshold = getenvFloat("RISK_LOW_THRESHOLD", cfg.Risk.LowThreshold)
	cfg.Risk.ModerateThreshold = getenvFloat("RISK_MODERATE_THRESHOLD", cfg.Risk.ModerateThreshold)
	cfg.Risk.CriticalThreshold = getenvFloat("RISK_CRITICAL_THRESHOLD", cfg.Risk.CriticalThreshold)

	cfg.Mock = integration.DefaultMockConfig()
	cfg.Mock.Seed = int64(getenvInt("MOCK_SEED", int(cfg.Mock.Seed)))
	cfg.Mock.DurationDays = getenvInt("MOCK_DURATION_DAYS", cfg.Mock.DurationDays)
	cfg.Mock.MinLevelM = getenvFloat("MOCK_MIN_LEVEL_M", cfg.Mock.MinLevelM)
	cfg.Mock.MaxLevelM = getenvFloat("MOCK_MAX_LEVEL_M", cfg.Mock.MaxLevelM)
	if s := os.Getenv("MOCK_START_DATE"); s != "" {
		start, err := time.Parse("2006-01-02", s)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid MOCK_START_DATE %q: %v", ErrInvalidConfiguration, s, err)
		}
		cfg.Mock.StartDate = start
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks structural constraints and the cross-field rules the
// validator tags cannot express. Every violation is wrapped in
// ErrInvalidConfiguration.
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}

	if c.Trend.WindowDays <= 0 {
		return fmt.Errorf("%w: trend window must be positive, got %d", ErrInvalidConfiguration, c.Trend.WindowDays)
	}
	if c.Trend.LowerThresholdM >= c.Trend.UpperThresholdM {
		return fmt.Errorf("%w: trend lower threshold %g must be below upper threshold %g",
			ErrInvalidConfiguration, c.Trend.LowerThresholdM, c.Trend.UpperThresholdM)
	}
	if c.Trend.MinPoints < 2 {
		return fmt.Errorf("%w: trend minimum points must be at least 2, got %d", ErrInvalidConfiguration, c.Trend.MinPoints)
	}

	if c.Seasonal.WindowDays <= 0 {
		return fmt.Errorf("%w: seasonal window must be positive, got %d", ErrInvalidConfiguration, c.Seasonal.WindowDays)
	}
	if c.Seasonal.MinPoints < 2 {
		return fmt.Errorf("%w: seasonal minimum points must be at least 2, got %d", ErrInvalidConfiguration, c.Seasonal.MinPoints)
	}
	switch c.Seasonal.Alignment {
	case analytics.AlignmentPriorYear, analytics.AlignmentMultiYear:
	default:
		return fmt.Errorf("%w: unknown seasonal alignment %q", ErrInvalidConfiguration, c.Seasonal.Alignment)
	}
	if c.Seasonal.Alignment == analytics.AlignmentMultiYear && c.Seasonal.BaselineYears < 1 {
		return fmt.Errorf("%w: seasonal baseline years must be at least 1, got %d", ErrInvalidConfiguration, c.Seasonal.BaselineYears)
	}

	if math.Abs(c.Risk.TrendWeight+c.Risk.SeasonalWeight-1.0) > 1e-9 {
		return fmt.Errorf("%w: risk weights must sum to 1, got %g + %g",
			ErrInvalidConfiguration, c.Risk.TrendWeight, c.Risk.SeasonalWeight)
	}
	if !(c.Risk.LowThreshold < c.Risk.ModerateThreshold && c.Risk.ModerateThreshold < c.Risk.CriticalThreshold) {
		return fmt.Errorf("%w: risk level thresholds must ascend, got %g / %g / %g",
			ErrInvalidConfiguration, c.Risk.LowThreshold, c.Risk.ModerateThreshold, c.Risk.CriticalThreshold)
	}

	if c.Mock.DurationDays <= 0 {
		return fmt.Errorf("%w: mock duration must be positive, got %d days", ErrInvalidConfiguration, c.Mock.DurationDays)
	}
	if c.Mock.MinLevelM >= c.Mock.MaxLevelM {
		return fmt.Errorf("%w: mock level clamp min %g must be below max %g",
			ErrInvalidConfiguration, c.Mock.MinLevelM, c.Mock.MaxLevelM)
	}

	return nil
}

// DataSource builds the reading source the configuration selects.
func (c *AppConfig) DataSource() (integration.DataSource, error) {
	switch c.DataMode {
	case ModeMock:
		return integration.NewMockGenerator(c.Mock), nil
	case ModeAPI:
		return integration.NewNWDPClient(c.NWDPBaseURL, c.NWDPAPIKey, c.NWDPTimeout), nil
	case ModeBulletin:
		if c.BulletinURL == "" {
			return nil, fmt.Errorf("%w: BULLETIN_URL is required in bulletin mode", ErrInvalidConfiguration)
		}
		return integration.NewBulletinScraper(c.BulletinURL, entities.Station{
			ID:   c.BulletinStationID,
			Name: c.BulletinStationName,
		}), nil
	default:
		return nil, fmt.Errorf("%w: unknown data mode %q", ErrInvalidConfiguration, c.DataMode)
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
		log.Printf("Warning: ignoring non-integer %s=%q", key, v)
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
		log.Printf("Warning: ignoring non-numeric %s=%q", key, v)
	}
	return def
}
