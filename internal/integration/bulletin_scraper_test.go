package integration

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aquiferwatch/groundwater-insight/internal/entities"
)

// mockHTMLServer creates a test server that serves a fixed HTML response
func mockHTMLServer(html string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, html)
	}))
}

var bulletinStation = entities.Station{ID: "DWLR-100", Name: "Bulletin Well", District: "Nagpur", State: "Maharashtra"}

func TestFetchReadingsParsesBulletinTable(t *testing.T) {
	// Rows are deliberately unordered and include a header and two
	// malformed rows the scraper must skip.
	mockHTML := `
<!DOCTYPE html>
<html>
<body>
	<h4>DWLR bulletin: weekly groundwater levels</h4>
	<table>
		<tr><td>Date</td><td>Water level (m)</td></tr>
		<tr><td>2023-06-03</td><td>10.412</td></tr>
		<tr><td>2023-06-01</td><td>10.455</td></tr>
		<tr><td>02.06.2023</td><td>10.430</td></tr>
		<tr><td>2023-06-04</td><td>n/a</td></tr>
		<tr><td></td><td>9.999</td></tr>
	</table>
</body>
</html>`

	server := mockHTMLServer(mockHTML)
	defer server.Close()

	scraper := NewBulletinScraper(server.URL, bulletinStation)
	readings, err := scraper.FetchReadings("DWLR-100", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("FetchReadings failed: %v", err)
	}

	if len(readings) != 3 {
		t.Fatalf("Expected 3 valid readings, got %d", len(readings))
	}

	// Sorted ascending regardless of page order, dotted dates included.
	wantDates := []string{"2023-06-01", "2023-06-02", "2023-06-03"}
	wantLevels := []float64{10.455, 10.430, 10.412}
	for i, r := range readings {
		if got := r.Date.Format("2006-01-02"); got != wantDates[i] {
			t.Errorf("Expected date %s at index %d, got %s", wantDates[i], i, got)
		}
		if r.WaterLevelM != wantLevels[i] {
			t.Errorf("Expected level %g at index %d, got %g", wantLevels[i], i, r.WaterLevelM)
		}
		if r.StationID != "DWLR-100" || r.Source != "BULLETIN" {
			t.Errorf("Unexpected reading identity: %+v", r)
		}
	}
}

func TestFetchReadingsHonorsDateBounds(t *testing.T) {
	mockHTML := `
<html><body><table>
	<tr><td>2023-06-01</td><td>10.1</td></tr>
	<tr><td>2023-06-02</td><td>10.2</td></tr>
	<tr><td>2023-06-03</td><td>10.3</td></tr>
</table></body></html>`

	server := mockHTMLServer(mockHTML)
	defer server.Close()

	scraper := NewBulletinScraper(server.URL, bulletinStation)
	from := time.Date(2023, time.June, 2, 0, 0, 0, 0, time.UTC)
	readings, err := scraper.FetchReadings("DWLR-100", from, from)
	if err != nil {
		t.Fatalf("FetchReadings failed: %v", err)
	}
	if len(readings) != 1 {
		t.Fatalf("Expected 1 reading inside the bounds, got %d", len(readings))
	}
	if readings[0].WaterLevelM != 10.2 {
		t.Errorf("Expected the 2023-06-02 reading, got %+v", readings[0])
	}
}

func TestFetchReadingsRejectsWrongStation(t *testing.T) {
	scraper := NewBulletinScraper("http://unused.invalid", bulletinStation)
	if _, err := scraper.FetchReadings("DWLR-999", time.Time{}, time.Time{}); err == nil {
		t.Error("Expected an error for a station the bulletin does not cover")
	}
}

func TestFetchReadingsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	scraper := NewBulletinScraper(server.URL, bulletinStation)
	if _, err := scraper.FetchReadings("DWLR-100", time.Time{}, time.Time{}); err == nil {
		t.Error("Expected an error for a 500 response")
	}
}

func TestFetchStationsReturnsConfiguredStation(t *testing.T) {
	scraper := NewBulletinScraper("http://unused.invalid", bulletinStation)
	stations, err := scraper.FetchStations()
	if err != nil {
		t.Fatalf("FetchStations failed: %v", err)
	}
	if len(stations) != 1 || stations[0].ID != "DWLR-100" {
		t.Errorf("Expected the configured bulletin station, got %+v", stations)
	}
}
