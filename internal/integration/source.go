// Package integration handles external data sources: the deterministic mock
// generator, the NWDP portal API and scraped HTML bulletins. All three hand
// the rest of the service the same shape — stations plus daily readings in
// the level-above-datum convention — so ingestion never cares which one is
// configured.
package integration

import (
	"time"

	"github.com/aquiferwatch/groundwater-insight/internal/entities"
)

// DataSource supplies stations and their readings. From and to bound the
// requested observation days inclusively; zero values mean unbounded.
type DataSource interface {
	FetchStations() ([]entities.Station, error)
	FetchReadings(stationID string, from, to time.Time) ([]entities.Reading, error)
}

// dayUTC normalizes a timestamp to its observation day at midnight UTC,
// the granularity readings are keyed by.
func dayUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
