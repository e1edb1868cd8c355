package integration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/sony/gobreaker"

	"github.com/aquiferwatch/groundwater-insight/internal/entities"
)

var (
	errRateLimited = errors.New("rate limited")
	errServerError = errors.New("server error")
	errUnexpected  = errors.New("unexpected status code")
	errCircuitOpen = errors.New("circuit breaker open")
)

// NWDPClient fetches stations and readings from the National Water Data
// Portal JSON API. Outbound calls go through a circuit breaker with bounded
// exponential-backoff retries so a flapping portal cannot stall an ingest
// run indefinitely.
type NWDPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker

	maxRetries      int
	initialInterval time.Duration
	maxInterval     time.Duration
}

// NewNWDPClient creates a portal client. An empty baseURL falls back to the
// public portal endpoint.
func NewNWDPClient(baseURL, apiKey string, timeout time.Duration) *NWDPClient {
	if baseURL == "" {
		baseURL = "https://api.nwdp.gov.in"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &NWDPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name: "nwdp",
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
		maxRetries:      3,
		initialInterval: 500 * time.Millisecond,
		maxInterval:     5 * time.Second,
	}
}

// nwdpStation is the portal's station envelope entry.
type nwdpStation struct {
	StationID string  `json:"station_id"`
	Name      string  `json:"name"`
	District  string  `json:"district"`
	State     string  `json:"state"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// nwdpReading is the portal's reading envelope entry.
type nwdpReading struct {
	StationID   string  `json:"station_id"`
	Date        string  `json:"date"` // "2006-01-02"
	WaterLevelM float64 `json:"water_level_m"`
	QualityFlag string  `json:"quality_flag"`
}

// FetchStations lists every DWLR station the portal knows about.
func (c *NWDPClient) FetchStations() ([]entities.Station, error) {
	var envelope struct {
		Stations []nwdpStation `json:"stations"`
	}
	if err := c.getJSON("/v1/stations", nil, &envelope); err != nil {
		return nil, fmt.Errorf("failed to fetch NWDP stations: %v", err)
	}

	stations := make([]entities.Station, 0, len(envelope.Stations))
	for _, s := range envelope.Stations {
		stations = append(stations, entities.Station{
			ID:        s.StationID,
			Name:      s.Name,
			District:  s.District,
			State:     s.State,
			Latitude:  s.Latitude,
			Longitude: s.Longitude,
		})
	}
	log.Printf("Successfully fetched %d stations from NWDP", len(stations))
	return stations, nil
}

// FetchReadings retrieves a station's readings, optionally bounded by from
// and to (inclusive observation days). Rows with unparseable dates are
// skipped with a warning rather than failing the whole fetch; the result
// comes back sorted ascending by day.
func (c *NWDPClient) FetchReadings(stationID string, from, to time.Time) ([]entities.Reading, error) {
	params := url.Values{}
	if !from.IsZero() {
		params.Set("from", dayUTC(from).Format("2006-01-02"))
	}
	if !to.IsZero() {
		params.Set("to", dayUTC(to).Format("2006-01-02"))
	}

	var envelope struct {
		Readings []nwdpReading `json:"readings"`
	}
	path := "/v1/stations/" + url.PathEscape(stationID) + "/readings"
	if err := c.getJSON(path, params, &envelope); err != nil {
		return nil, fmt.Errorf("failed to fetch NWDP readings for %s: %v", stationID, err)
	}

	readings := make([]entities.Reading, 0, len(envelope.Readings))
	skipped := 0
	for _, r := range envelope.Readings {
		day, err := time.ParseInLocation("2006-01-02", r.Date, time.UTC)
		if err != nil {
			log.Printf("Warning: skipping NWDP reading with invalid date %q for %s: %v", r.Date, stationID, err)
			skipped++
			continue
		}
		readings = append(readings, entities.Reading{
			StationID:   stationID,
			Date:        day,
			WaterLevelM: r.WaterLevelM,
			QualityFlag: r.QualityFlag,
			Source:      "NWDP",
		})
	}
	sort.Slice(readings, func(i, j int) bool {
		return readings[i].Date.Before(readings[j].Date)
	})

	log.Printf("Successfully fetched %d NWDP readings for station %s (%d skipped)", len(readings), stationID, skipped)
	return readings, nil
}

// getJSON performs a resilient GET against the portal and decodes the JSON
// body into out. Rate limiting and 5xx responses count as retryable
// failures; an open breaker propagates immediately.
func (c *NWDPClient) getJSON(path string, params url.Values, out interface{}) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.client.Timeout*time.Duration(c.maxRetries+1))
	defer cancel()

	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var attempt int
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("failed to build request: %v", err)
		}
		req.Header.Set("Accept", "application/json")
		if c.apiKey != "" {
			req.Header.Set("X-API-Key", c.apiKey)
		}

		result, err := c.breaker.Execute(func() (interface{}, error) {
			resp, execErr := c.client.Do(req)
			if execErr != nil {
				return nil, execErr
			}
			if resp.StatusCode == http.StatusTooManyRequests {
				resp.Body.Close()
				return nil, errRateLimited
			}
			if resp.StatusCode >= 500 {
				resp.Body.Close()
				return nil, errServerError
			}
			if resp.StatusCode != http.StatusOK {
				resp.Body.Close()
				return nil, fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode)
			}
			return resp, nil
		})

		if err == nil {
			resp := result.(*http.Response)
			defer resp.Body.Close()
			if decodeErr := json.NewDecoder(resp.Body).Decode(out); decodeErr != nil {
				return fmt.Errorf("failed to decode response: %v", decodeErr)
			}
			return nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		// Transport failures, 429s and 5xx are retryable; any other
		// unexpected status fails immediately.
		if errors.Is(err, errUnexpected) {
			return err
		}
		if attempt >= c.maxRetries {
			return err
		}

		delay := c.initialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if delay > c.maxInterval {
			delay = c.maxInterval
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		attempt++
	}
}
