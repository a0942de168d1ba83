package geoimport_test

import (
	"archive/zip"
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/nusalink/coverage-backend/internal/geoimport"
)

const kmlPointAndPolygon = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
  <Document>
    <Placemark>
      <name>NODE-001</name>
      <description>Tebet</description>
      <Point>
        <coordinates>106.85,-6.21,0</coordinates>
      </Point>
    </Placemark>
    <Placemark>
      <name>AREA-001</name>
      <Polygon>
        <outerBoundaryIs>
          <LinearRing>
            <coordinates>
              106.80,-6.20,0
              106.90,-6.20,0
              106.90,-6.30,0
              106.80,-6.30,0
            </coordinates>
          </LinearRing>
        </outerBoundaryIs>
      </Polygon>
    </Placemark>
  </Document>
</kml>`

func buildKMZ(t *testing.T, entryName, kml string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create(entryName)
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if _, err := f.Write([]byte(kml)); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

// TestParseKMZ_RoundTrip verifies a KMZ with one Point and one 4-vertex
// Polygon yields exactly two records: the point with no polygon, and the
// polygon with a vertex-mean anchor.
func TestParseKMZ_RoundTrip(t *testing.T) {
	data := buildKMZ(t, "doc.kml", kmlPointAndPolygon)

	res, err := geoimport.ParseKMZ(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(res.Records))
	}
	if res.Summary.PointCount != 1 || res.Summary.PolygonCount != 1 {
		t.Errorf("expected 1 point + 1 polygon, got %+v", res.Summary)
	}

	var point, area *geoimport.Record
	for i := range res.Records {
		if len(res.Records[i].Polygon) == 0 {
			point = &res.Records[i]
		} else {
			area = &res.Records[i]
		}
	}
	if point == nil || area == nil {
		t.Fatal("expected one point record and one polygon record")
	}

	if point.Latitude != -6.21 || point.Longitude != 106.85 {
		t.Errorf("expected point anchor (-6.21, 106.85), got (%f, %f)", point.Latitude, point.Longitude)
	}
	if point.SiteID != "NODE-001" || point.Locality != "Tebet" {
		t.Errorf("expected placemark name/description carried over, got %+v", point)
	}

	if len(area.Polygon) != 4 {
		t.Fatalf("expected a 4-vertex polygon, got %d", len(area.Polygon))
	}
	if math.Abs(area.Latitude-(-6.25)) > 1e-9 || math.Abs(area.Longitude-106.85) > 1e-9 {
		t.Errorf("expected vertex-mean anchor (-6.25, 106.85), got (%f, %f)", area.Latitude, area.Longitude)
	}
}

// TestParseKMZ_NoKMLEntry verifies an archive without a .kml entry fails with
// a ParseError before anything else happens.
func TestParseKMZ_NoKMLEntry(t *testing.T) {
	data := buildKMZ(t, "readme.txt", "not kml")

	_, err := geoimport.ParseKMZ(data)
	if err == nil {
		t.Fatal("expected error for archive without KML entry")
	}
	if !strings.Contains(err.Error(), "no .kml entry") {
		t.Errorf("expected a missing-entry parse error, got: %v", err)
	}
}

// TestParseKMZ_CorruptArchive verifies a non-zip payload is rejected.
func TestParseKMZ_CorruptArchive(t *testing.T) {
	if _, err := geoimport.ParseKMZ([]byte("definitely not a zip")); err == nil {
		t.Fatal("expected error for corrupt archive")
	}
}

// TestParseKML_InvalidXML verifies broken XML is a ParseError.
func TestParseKML_InvalidXML(t *testing.T) {
	if _, err := geoimport.ParseKML(strings.NewReader("<kml><unclosed")); err == nil {
		t.Fatal("expected error for invalid XML")
	}
}

// TestParseKML_LineStringExplodes verifies each vertex along a LineString
// becomes its own point record.
func TestParseKML_LineStringExplodes(t *testing.T) {
	kml := `<?xml version="1.0"?>
<kml><Document>
  <Placemark>
    <name>TRUNK-7</name>
    <LineString>
      <coordinates>106.80,-6.20 106.81,-6.21 106.82,-6.22</coordinates>
    </LineString>
  </Placemark>
</Document></kml>`

	res, err := geoimport.ParseKML(strings.NewReader(kml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Records) != 3 {
		t.Fatalf("expected 3 point records, got %d", len(res.Records))
	}
	for _, rec := range res.Records {
		if len(rec.Polygon) != 0 {
			t.Error("expected line vertices to become plain point records")
		}
		if rec.SiteID != "TRUNK-7" {
			t.Errorf("expected shared placemark name, got %q", rec.SiteID)
		}
	}
}

// TestParseKML_MultiPolygonPerConstituent verifies a MultiGeometry with two
// polygons yields one record per constituent, sharing the placemark's
// properties.
func TestParseKML_MultiPolygonPerConstituent(t *testing.T) {
	kml := `<?xml version="1.0"?>
<kml><Document>
  <Placemark>
    <name>CLUSTER-A</name>
    <MultiGeometry>
      <Polygon><outerBoundaryIs><LinearRing>
        <coordinates>106.80,-6.20 106.81,-6.20 106.81,-6.21</coordinates>
      </LinearRing></outerBoundaryIs></Polygon>
      <Polygon><outerBoundaryIs><LinearRing>
        <coordinates>106.90,-6.20 106.91,-6.20 106.91,-6.21</coordinates>
      </LinearRing></outerBoundaryIs></Polygon>
    </MultiGeometry>
  </Placemark>
</Document></kml>`

	res, err := geoimport.ParseKML(strings.NewReader(kml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Records) != 2 {
		t.Fatalf("expected one record per constituent polygon, got %d", len(res.Records))
	}
	for _, rec := range res.Records {
		if rec.SiteID != "CLUSTER-A" {
			t.Errorf("expected constituents to share the placemark name, got %q", rec.SiteID)
		}
		if len(rec.Polygon) != 3 {
			t.Errorf("expected 3-vertex rings, got %d", len(rec.Polygon))
		}
	}
	if res.Summary.PolygonCount != 2 {
		t.Errorf("expected polygon count 2, got %d", res.Summary.PolygonCount)
	}
}

// TestParseKML_DropsInvalidAnchors verifies (0,0) placeholders and
// out-of-range coordinates are dropped and counted, not returned.
func TestParseKML_DropsInvalidAnchors(t *testing.T) {
	kml := `<?xml version="1.0"?>
<kml><Document>
  <Placemark><name>ZERO</name><Point><coordinates>0,0</coordinates></Point></Placemark>
  <Placemark><name>RANGE</name><Point><coordinates>200,95</coordinates></Point></Placemark>
  <Placemark><name>OK</name><Point><coordinates>106.85,-6.21</coordinates></Point></Placemark>
  <Placemark><name>EMPTY</name></Placemark>
</Document></kml>`

	res, err := geoimport.ParseKML(strings.NewReader(kml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Records) != 1 || res.Records[0].SiteID != "OK" {
		t.Fatalf("expected only the valid record to survive, got %+v", res.Records)
	}
	if res.Summary.DroppedInvalid != 2 {
		t.Errorf("expected 2 dropped records, got %d", res.Summary.DroppedInvalid)
	}
	if res.Summary.FeaturesSeen != 4 {
		t.Errorf("expected 4 features seen, got %d", res.Summary.FeaturesSeen)
	}
}
