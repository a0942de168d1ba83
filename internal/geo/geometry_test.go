package geo_test

import (
	"math"
	"testing"

	"github.com/paulmach/orb"

	"github.com/nusalink/coverage-backend/internal/geo"
)

// TestHaversineMeters_Symmetry verifies d(A,B) == d(B,A) and d(A,A) == 0.
func TestHaversineMeters_Symmetry(t *testing.T) {
	a := geo.LatLng{Lat: -6.2088, Lng: 106.8456}
	b := geo.LatLng{Lat: -6.9175, Lng: 107.6191}

	ab := geo.HaversineMeters(a, b)
	ba := geo.HaversineMeters(b, a)

	if ab != ba {
		t.Errorf("expected symmetric distance, got %f vs %f", ab, ba)
	}
	if d := geo.HaversineMeters(a, a); d != 0 {
		t.Errorf("expected zero self-distance, got %f", d)
	}
}

// TestHaversineMeters_KnownDistance checks Jakarta→Bandung (~116 km) lands
// within 2% of the expected great-circle distance.
func TestHaversineMeters_KnownDistance(t *testing.T) {
	jakarta := geo.LatLng{Lat: -6.2088, Lng: 106.8456}
	bandung := geo.LatLng{Lat: -6.9175, Lng: 107.6191}

	d := geo.HaversineMeters(jakarta, bandung)
	const want = 116000.0
	if math.Abs(d-want)/want > 0.02 {
		t.Errorf("expected ~%0.f m, got %f", want, d)
	}
}

// TestHaversineMeters_InvalidInputs verifies malformed coordinates yield +Inf
// rather than a panic or a bogus finite distance.
func TestHaversineMeters_InvalidInputs(t *testing.T) {
	good := geo.LatLng{Lat: -6.2, Lng: 106.8}

	cases := []geo.LatLng{
		{Lat: math.NaN(), Lng: 106.8},
		{Lat: -6.2, Lng: math.Inf(1)},
		{Lat: 91, Lng: 106.8},
		{Lat: -6.2, Lng: 181},
	}
	for _, bad := range cases {
		if d := geo.HaversineMeters(good, bad); !math.IsInf(d, 1) {
			t.Errorf("expected +Inf for %+v, got %f", bad, d)
		}
	}
}

// TestNormalizeAxisOrder_Swaps verifies a lng-first ring (first component > 90)
// is swapped vertex-by-vertex.
func TestNormalizeAxisOrder_Swaps(t *testing.T) {
	in := [][2]float64{{107, -6}, {107.1, -6}, {107, -6.1}}
	want := [][2]float64{{-6, 107}, {-6, 107.1}, {-6.1, 107}}

	got := geo.NormalizeAxisOrder(in)
	if len(got) != len(want) {
		t.Fatalf("expected %d vertices, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("vertex %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

// TestNormalizeAxisOrder_AlreadyLatFirst verifies a lat-first ring passes
// through unchanged.
func TestNormalizeAxisOrder_AlreadyLatFirst(t *testing.T) {
	in := [][2]float64{{-6, 107}, {-6, 107.1}, {-6.1, 107}}

	got := geo.NormalizeAxisOrder(in)
	for i := range in {
		if got[i] != in[i] {
			t.Errorf("vertex %d changed: %v -> %v", i, in[i], got[i])
		}
	}
}

// TestBounds_Contains checks inclusive rectangular containment.
func TestBounds_Contains(t *testing.T) {
	b := geo.Bounds{MinLat: -7, MaxLat: -6, MinLng: 106, MaxLng: 107}

	if !b.Contains(geo.LatLng{Lat: -6.5, Lng: 106.5}) {
		t.Error("expected interior point to be contained")
	}
	if !b.Contains(geo.LatLng{Lat: -7, Lng: 106}) {
		t.Error("expected corner point to be contained")
	}
	if b.Contains(geo.LatLng{Lat: -5.9, Lng: 106.5}) {
		t.Error("expected point north of box to be excluded")
	}
	if b.Contains(geo.LatLng{Lat: -6.5, Lng: 107.5}) {
		t.Error("expected point east of box to be excluded")
	}
}

// TestMeanOfRing verifies the anchor point is the plain arithmetic mean of the
// ring vertices.
func TestMeanOfRing(t *testing.T) {
	ring := orb.Ring{
		{106.8, -6.2},
		{106.9, -6.2},
		{106.9, -6.3},
		{106.8, -6.3},
	}

	got := geo.MeanOfRing(ring)
	if math.Abs(got.Lat-(-6.25)) > 1e-9 || math.Abs(got.Lng-106.85) > 1e-9 {
		t.Errorf("expected (-6.25, 106.85), got (%f, %f)", got.Lat, got.Lng)
	}
}
