package coverage

import (
	"fmt"
	"math"
)

// ValidationError rejects a malformed record before any store mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError marks a reference to a non-existent site. Deletes of missing
// rows are idempotent and never produce this.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("coverage site %d not found", e.ID)
}

func finiteInRange(v, limit float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && math.Abs(v) <= limit
}

// validateSite checks the invariants a single-record create/update must hold.
// Coordinates outside the WGS84 range are rejected, never clamped.
func validateSite(s *CoverageSite) error {
	if !finiteInRange(s.Latitude, 90) {
		return &ValidationError{Field: "latitude", Reason: fmt.Sprintf("%v is not a latitude in [-90, 90]", s.Latitude)}
	}
	if !finiteInRange(s.Longitude, 180) {
		return &ValidationError{Field: "longitude", Reason: fmt.Sprintf("%v is not a longitude in [-180, 180]", s.Longitude)}
	}
	if n := len(s.Polygon); n > 0 && n < 3 {
		return &ValidationError{Field: "polygon", Reason: fmt.Sprintf("ring has %d vertices, need at least 3", n)}
	}
	for _, v := range s.Polygon {
		if !v.Valid() {
			return &ValidationError{Field: "polygon", Reason: fmt.Sprintf("vertex (%v, %v) is out of range", v.Lat, v.Lng)}
		}
	}
	return nil
}
