package integration

import (
	"fmt"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/aquiferwatch/groundwater-insight/internal/entities"
)

// BulletinScraper reads daily water levels from a published HTML bulletin
// table. A bulletin covers one station: each data row carries an observation
// date cell and a level cell, and header or malformed rows are skipped.
type BulletinScraper struct {
	bulletinURL string
	station     entities.Station
}

// NewBulletinScraper creates a scraper for one station's bulletin page.
func NewBulletinScraper(bulletinURL string, station entities.Station) *BulletinScraper {
	return &BulletinScraper{
		bulletinURL: bulletinURL,
		station:     station,
	}
}

// FetchStations returns the single station this bulletin covers.
func (bs *BulletinScraper) FetchStations() ([]entities.Station, error) {
	return []entities.Station{bs.station}, nil
}

// FetchReadings downloads and parses the bulletin table, keeping only rows
// with a parseable date and a numeric level. Rows outside [from, to] are
// dropped; the result is sorted ascending by observation day.
func (bs *BulletinScraper) FetchReadings(stationID string, from, to time.Time) ([]entities.Reading, error) {
	if stationID != bs.station.ID {
		return nil, fmt.Errorf("bulletin at %s covers station %s, not %s", bs.bulletinURL, bs.station.ID, stationID)
	}

	log.Printf("Sending HTTP request to bulletin page %s", bs.bulletinURL)
	res, err := http.Get(bs.bulletinURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch the bulletin page: %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode != 200 {
		return nil, fmt.Errorf("unexpected status code: %d %s", res.StatusCode, res.Status)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse the bulletin page: %v", err)
	}

	var readings []entities.Reading
	processedRows := 0
	skippedRows := 0

	doc.Find("table tr").Each(func(index int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() != 2 {
			return
		}
		processedRows++

		dateStr := strings.TrimSpace(cells.Eq(0).Text())
		levelStr := strings.TrimSpace(cells.Eq(1).Text())

		day, ok := parseBulletinDate(dateStr)
		if !ok {
			skippedRows++
			return
		}

		level, parseErr := strconv.ParseFloat(levelStr, 64)
		if parseErr != nil {
			log.Printf("Warning: skipping bulletin row with non-numeric level %q on %s", levelStr, dateStr)
			skippedRows++
			return
		}

		if !from.IsZero() && day.Before(dayUTC(from)) {
			return
		}
		if !to.IsZero() && day.After(dayUTC(to)) {
			return
		}

		readings = append(readings, entities.Reading{
			StationID:   bs.station.ID,
			Date:        day,
			WaterLevelM: level,
			QualityFlag: "UNVERIFIED",
			Source:      "BULLETIN",
		})
	})

	log.Printf("Bulletin for %s: processed %d rows, found %d valid readings, skipped %d invalid rows",
		bs.station.ID, processedRows, len(readings), skippedRows)

	sort.Slice(readings, func(i, j int) bool {
		return readings[i].Date.Before(readings[j].Date)
	})
	return readings, nil
}

// parseBulletinDate accepts the two date formats bulletins are published in:
// ISO "2006-01-02" and the dotted "02.01.2006". Anything else is a header or
// a malformed row.
func parseBulletinDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.ParseInLocation("2006-01-02", s, time.UTC); err == nil {
		return t, true
	}
	if t, err := time.ParseInLocation("02.01.2006", s, time.UTC); err == nil {
		return t, true
	}
	return time.Time{}, false
}
