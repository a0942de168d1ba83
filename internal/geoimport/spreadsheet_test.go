package geoimport_test

import (
	"strings"
	"testing"

	"github.com/nusalink/coverage-backend/internal/geoimport"
)

// TestReadCSV_HeaderAndBOM verifies header parsing strips a UTF-8 BOM and
// whitespace from header cells.
func TestReadCSV_HeaderAndBOM(t *testing.T) {
	csv := "\ufeffSite ID, Latitude ,Longitude\nA-1,-6.21,106.85\n"

	header, rows, err := geoimport.ReadCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if header[0] != "Site ID" || header[1] != "Latitude" {
		t.Errorf("expected trimmed headers, got %v", header)
	}
	if len(rows) != 1 {
		t.Errorf("expected 1 data row, got %d", len(rows))
	}
}

// TestMapRows_CallerMapping verifies columns are projected through the
// caller-supplied mapping and unmapped fields default to ""/0 — rows are
// never dropped at this stage.
func TestMapRows_CallerMapping(t *testing.T) {
	header := []string{"Site ID", "Lat", "Lng", "City"}
	rows := [][]string{
		{"A-1", "-6.21", "106.85", "jakarta selatan"},
		{"A-2", "not-a-number", "", "BANDUNG"},
	}
	mapping := map[string]string{
		"Site ID": geoimport.FieldSiteID,
		"Lat":     geoimport.FieldLatitude,
		"Lng":     geoimport.FieldLongitude,
		"City":    geoimport.FieldLocality,
	}

	recs := geoimport.MapRows(header, rows, mapping)
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}

	if recs[0].SiteID != "A-1" || recs[0].Latitude != -6.21 || recs[0].Longitude != 106.85 {
		t.Errorf("unexpected first record: %+v", recs[0])
	}
	if recs[0].Locality != "Jakarta Selatan" {
		t.Errorf("expected title-cased locality, got %q", recs[0].Locality)
	}
	if recs[0].NetworkType != "" || recs[0].HomepassID != "" {
		t.Errorf("expected unmapped text fields to default to empty, got %+v", recs[0])
	}

	// Unparseable and missing numerics coerce to 0; validation happens later.
	if recs[1].Latitude != 0 || recs[1].Longitude != 0 {
		t.Errorf("expected permissive numeric defaults, got %+v", recs[1])
	}
	if recs[1].Locality != "Bandung" {
		t.Errorf("expected normalized locality, got %q", recs[1].Locality)
	}
}

// TestMapRows_CommaDecimal verifies the permissive parser tolerates a comma
// decimal separator.
func TestMapRows_CommaDecimal(t *testing.T) {
	header := []string{"lat", "lng"}
	rows := [][]string{{"-6,21", "106,85"}}
	mapping := map[string]string{
		"lat": geoimport.FieldLatitude,
		"lng": geoimport.FieldLongitude,
	}

	recs := geoimport.MapRows(header, rows, mapping)
	if recs[0].Latitude != -6.21 || recs[0].Longitude != 106.85 {
		t.Errorf("expected comma decimals parsed, got %+v", recs[0])
	}
}

// TestMapRows_PolygonAxisHeuristic verifies a lng-first polygon cell (first
// component > 90) is swapped into lat-first order; spreadsheets are the one
// source that doesn't declare axis order.
func TestMapRows_PolygonAxisHeuristic(t *testing.T) {
	header := []string{"ring"}
	rows := [][]string{{`[[107,-6],[107.1,-6],[107,-6.1]]`}}
	mapping := map[string]string{"ring": geoimport.FieldPolygon}

	recs := geoimport.MapRows(header, rows, mapping)
	if len(recs[0].Polygon) != 3 {
		t.Fatalf("expected a 3-vertex polygon, got %d", len(recs[0].Polygon))
	}
	first := recs[0].Polygon[0]
	if first.Lat != -6 || first.Lng != 107 {
		t.Errorf("expected swapped vertex (-6, 107), got (%f, %f)", first.Lat, first.Lng)
	}
}

// TestReadCSV_Empty verifies an empty file is a ParseError, not a panic.
func TestReadCSV_Empty(t *testing.T) {
	if _, _, err := geoimport.ReadCSV(strings.NewReader("")); err == nil {
		t.Fatal("expected error for empty file")
	}
}
