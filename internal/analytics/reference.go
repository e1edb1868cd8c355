// Package analytics implements the groundwater computations: reference date
// resolution, level trend regression, seasonal deviation and the composite
// risk index. Every function here is pure — inputs in, results out, no clock
// and no storage access — so the same readings always produce the same
// analytics.
package analytics

import (
	"errors"
	"time"

	"github.com/aquiferwatch/groundwater-insight/internal/entities"
)

// ErrNoData means a station has no readings at all, so no reference date and
// no analytics can exist for it.
var ErrNoData = errors.New("no readings recorded")

// ResolveReferenceDate returns the analytic "now" for a set of readings: the
// most recent observation day. All windows are anchored to this date rather
// than the wall clock, so analytics over a historical archive stay stable no
// matter when they are computed.
func ResolveReferenceDate(readings []entities.Reading) (time.Time, error) {
	if len(readings) == 0 {
		return time.Time{}, ErrNoData
	}
	latest := readings[0].Day()
	for _, r := range readings[1:] {
		if d := r.Day(); d.After(latest) {
			latest = d
		}
	}
	return latest, nil
}
