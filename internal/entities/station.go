// Package entities contains the core domain objects for the groundwater insight service
package entities

// Station represents a single DWLR (Digital Water Level Recorder) monitoring well
type Station struct {
	ID        string  `json:"id"`        // Stable station identifier, e.g. "DWLR-001"
	Name      string  `json:"name"`      // Human-readable well name
	District  string  `json:"district"`  // Administrative district the well sits in
	State     string  `json:"state"`     // State the district belongs to
	Latitude  float64 `json:"latitude"`  // Decimal degrees, 0 when unknown
	Longitude float64 `json:"longitude"` // Decimal degrees, 0 when unknown
}
