package geoimport

import (
	"fmt"

	"github.com/nusalink/coverage-backend/internal/geo"
)

// Record is a candidate coverage site produced by a file importer. The
// importer never touches the store; records flow to the ingestion controller
// after the caller converts them to store models.
type Record struct {
	NetworkType   string       `json:"network_type"`
	SiteID        string       `json:"site_id"`
	HomepassID    string       `json:"homepass_id"`
	Latitude      float64      `json:"latitude"`
	Longitude     float64      `json:"longitude"`
	AreaLatitude  float64      `json:"area_latitude,omitempty"`
	AreaLongitude float64      `json:"area_longitude,omitempty"`
	Polygon       []geo.LatLng `json:"polygon,omitempty"`
	Locality      string       `json:"locality"`
	Status        string       `json:"status"`
}

// Anchor returns the record's coverage-evaluation point.
func (r Record) Anchor() geo.LatLng {
	return geo.LatLng{Lat: r.Latitude, Lng: r.Longitude}
}

// valid rejects out-of-range anchors and the exact (0,0) placeholder many geo
// exports emit for missing coordinates.
func (r Record) valid() bool {
	if !r.Anchor().Valid() {
		return false
	}
	return !(r.Latitude == 0 && r.Longitude == 0)
}

// Summary describes one import run, sufficient for an import-preview screen.
type Summary struct {
	FeaturesSeen     int `json:"features_seen"`
	RecordsExtracted int `json:"records_extracted"`
	PolygonCount     int `json:"polygon_count"`
	PointCount       int `json:"point_count"`
	DroppedInvalid   int `json:"dropped_invalid"`
}

// ImportResult is the record list plus its summary.
type ImportResult struct {
	Records []Record `json:"records"`
	Summary Summary  `json:"summary"`
}

// ParseError marks an unparseable input file. Nothing is written to the store
// when parsing fails.
type ParseError struct {
	Format string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Format, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Format, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
