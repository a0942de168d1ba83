package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// LatLng is a WGS84 coordinate in decimal degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

const earthRadiusMeters = 6371000.0

// Valid reports whether the coordinate is finite and within the WGS84 range.
func (p LatLng) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) || math.IsNaN(p.Lng) || math.IsInf(p.Lng, 0) {
		return false
	}
	return math.Abs(p.Lat) <= 90 && math.Abs(p.Lng) <= 180
}

// Point converts to an orb point (orb is longitude-first).
func (p LatLng) Point() orb.Point {
	return orb.Point{p.Lng, p.Lat}
}

// HaversineMeters returns the great-circle distance between a and b in meters.
// Non-finite or out-of-range inputs yield +Inf so nearest-node comparisons
// naturally discard them instead of panicking.
func HaversineMeters(a, b LatLng) float64 {
	if !a.Valid() || !b.Valid() {
		return math.Inf(1)
	}

	const degToRad = math.Pi / 180
	dLat := (b.Lat - a.Lat) * degToRad
	dLng := (b.Lng - a.Lng) * degToRad

	latA := a.Lat * degToRad
	latB := b.Lat * degToRad

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)

	h := sinLat*sinLat + sinLng*sinLng*math.Cos(latA)*math.Cos(latB)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMeters * c
}

// NormalizeAxisOrder fixes rings whose vertices arrived longitude-first.
// Heuristic: a latitude can never exceed 90 in magnitude, so if the first
// vertex's first component does, the whole ring is assumed lng-first and every
// vertex pair is swapped. Rings entirely within |90| on both axes are
// ambiguous and pass through unchanged. Sources that declare their axis order
// (KML is always lng-first) should swap unconditionally instead of calling this.
func NormalizeAxisOrder(vertices [][2]float64) [][2]float64 {
	if len(vertices) == 0 || math.Abs(vertices[0][0]) <= 90 {
		return vertices
	}
	out := make([][2]float64, len(vertices))
	for i, v := range vertices {
		out[i] = [2]float64{v[1], v[0]}
	}
	return out
}

// Bounds is a rectangular lat/lng viewport.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLng float64 `json:"max_lng"`
}

// Contains reports whether p falls inside the viewport rectangle (inclusive).
func (b Bounds) Contains(p LatLng) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat &&
		p.Lng >= b.MinLng && p.Lng <= b.MaxLng
}

// Bound converts to an orb bound.
func (b Bounds) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.MinLng, b.MinLat},
		Max: orb.Point{b.MaxLng, b.MaxLat},
	}
}

// BoundsOf converts an orb bound back to a lat/lng viewport.
func BoundsOf(b orb.Bound) Bounds {
	return Bounds{
		MinLat: b.Min.Lat(),
		MaxLat: b.Max.Lat(),
		MinLng: b.Min.Lon(),
		MaxLng: b.Max.Lon(),
	}
}

// MeanOfRing returns the arithmetic mean of a ring's vertices. This is the
// anchor point for polygon coverage records, deliberately the plain vertex
// mean rather than the area centroid.
func MeanOfRing(ring orb.Ring) LatLng {
	if len(ring) == 0 {
		return LatLng{}
	}
	var sumLat, sumLng float64
	for _, pt := range ring {
		sumLng += pt.Lon()
		sumLat += pt.Lat()
	}
	n := float64(len(ring))
	return LatLng{Lat: sumLat / n, Lng: sumLng / n}
}
