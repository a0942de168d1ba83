package geoimport

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nusalink/coverage-backend/internal/geo"
)

// Importable field names a spreadsheet column can be mapped onto.
const (
	FieldNetworkType   = "network_type"
	FieldSiteID        = "site_id"
	FieldHomepassID    = "homepass_id"
	FieldLatitude      = "latitude"
	FieldLongitude     = "longitude"
	FieldAreaLatitude  = "area_latitude"
	FieldAreaLongitude = "area_longitude"
	FieldPolygon       = "polygon"
	FieldLocality      = "locality"
	FieldStatus        = "status"
)

// ReadCSV parses a spreadsheet export into a header row and data rows.
func ReadCSV(r io.Reader) (header []string, rows [][]string, err error) {
	cr := csv.NewReader(bufio.NewReader(r))
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, &ParseError{Format: "csv", Reason: "invalid CSV", Err: err}
	}
	if len(records) == 0 {
		return nil, nil, &ParseError{Format: "csv", Reason: "file is empty"}
	}

	header = records[0]
	// Handle BOM on first header cell
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	return header, records[1:], nil
}

var localityCaser = cases.Title(language.Und)

// MapRows projects spreadsheet rows into candidate records using the
// caller-supplied column-name → field-name mapping; the importer never
// guesses a mapping. Unmapped text fields default to "" and numeric fields to
// 0, and unparseable numbers also become 0 rather than dropping the row —
// invalid coordinates surface later at validation or insert time.
func MapRows(header []string, rows [][]string, mapping map[string]string) []Record {
	fieldCol := map[string]int{}
	for i, col := range header {
		if field, ok := mapping[col]; ok {
			fieldCol[field] = i
		}
	}

	get := func(row []string, field string) string {
		i, ok := fieldCol[field]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec := Record{
			NetworkType:   get(row, FieldNetworkType),
			SiteID:        get(row, FieldSiteID),
			HomepassID:    get(row, FieldHomepassID),
			Latitude:      parseFloatPermissive(get(row, FieldLatitude)),
			Longitude:     parseFloatPermissive(get(row, FieldLongitude)),
			AreaLatitude:  parseFloatPermissive(get(row, FieldAreaLatitude)),
			AreaLongitude: parseFloatPermissive(get(row, FieldAreaLongitude)),
			Polygon:       parsePolygonCell(get(row, FieldPolygon)),
			Locality:      normalizeLocality(get(row, FieldLocality)),
			Status:        strings.ToLower(get(row, FieldStatus)),
		}
		out = append(out, rec)
	}
	return out
}

// parseFloatPermissive coerces spreadsheet numerics, tolerating a comma
// decimal separator. Anything unparseable becomes 0.
func parseFloatPermissive(s string) float64 {
	if s == "" {
		return 0
	}
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// parsePolygonCell decodes a JSON vertex array from an ad-hoc spreadsheet
// cell. Spreadsheets do not declare axis order, so the lng-first heuristic
// applies here (unlike KML, which is always lng-first by definition).
func parsePolygonCell(s string) []geo.LatLng {
	if s == "" {
		return nil
	}
	var raw [][2]float64
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil
	}
	raw = geo.NormalizeAxisOrder(raw)
	out := make([]geo.LatLng, len(raw))
	for i, v := range raw {
		out[i] = geo.LatLng{Lat: v[0], Lng: v[1]}
	}
	return out
}

// normalizeLocality title-cases free-text locality labels so "jakarta
// selatan" and "JAKARTA SELATAN" land in the store as the same string.
func normalizeLocality(s string) string {
	if s == "" {
		return ""
	}
	return localityCaser.String(strings.ToLower(s))
}
