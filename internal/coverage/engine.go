package coverage

import (
	"context"

	"github.com/nusalink/coverage-backend/internal/geo"
	"github.com/nusalink/coverage-backend/internal/settings"
)

// NearestFinder is the slice of the store the classification path needs.
type NearestFinder interface {
	FindNearest(ctx context.Context, point geo.LatLng, networkType string) (*CoverageSite, float64, error)
}

// Classification answers "is this candidate location serviceable". An empty
// store is a normal uncovered result, not an error.
type Classification struct {
	Covered        bool          `json:"covered"`
	DistanceMeters float64       `json:"distance_meters"`
	RadiusMeters   float64       `json:"radius_meters"`
	Nearest        *CoverageSite `json:"nearest_node"`
}

// ClassifyPoint finds the single nearest coverage node and tests the point
// against that node's network-type radius. Coverage is deliberately not the
// union of all overlapping radii: only the closest node's radius counts, even
// when a farther node's larger radius would also reach the point.
func ClassifyPoint(ctx context.Context, point geo.LatLng, networkType string, finder NearestFinder, cfg settings.CoverageSettings) (Classification, error) {
	nearest, dist, err := finder.FindNearest(ctx, point, networkType)
	if err != nil {
		return Classification{}, err
	}
	if nearest == nil {
		return Classification{Covered: false, DistanceMeters: -1}, nil
	}

	radius := cfg.RadiusFor(nearest.NetworkType)
	return Classification{
		Covered:        dist <= radius,
		DistanceMeters: dist,
		RadiusMeters:   radius,
		Nearest:        nearest,
	}, nil
}

// initialPaintLimit bounds the arbitrary prefix served before the map has
// reported its first viewport.
const initialPaintLimit = 100

// FilterForViewport reduces a site list to a renderable subset. Polygon sites
// are always kept and listed first so the point cap cannot starve them;
// point-only sites are culled to the viewport and truncated to maxPoints.
// A nil viewport (initial paint) degrades to a small prefix of the points.
func FilterForViewport(sites []CoverageSite, viewport *geo.Bounds, maxPoints int) []CoverageSite {
	if maxPoints <= 0 {
		maxPoints = initialPaintLimit
	}

	polygons := make([]CoverageSite, 0)
	points := make([]CoverageSite, 0)

	for _, s := range sites {
		if s.HasPolygon() {
			polygons = append(polygons, s)
			continue
		}
		if viewport == nil {
			if len(points) < maxPoints && len(points) < initialPaintLimit {
				points = append(points, s)
			}
			continue
		}
		if viewport.Contains(s.Anchor()) {
			points = append(points, s)
		}
	}

	if len(points) > maxPoints {
		points = points[:maxPoints]
	}

	return append(polygons, points...)
}
