package geoimport

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"github.com/nusalink/coverage-backend/internal/geo"
)

// KML geometry subset per the OGC schema. Placemarks may sit directly under
// the document or nested in folders.
type kmlRoot struct {
	XMLName    xml.Name       `xml:"kml"`
	Document   kmlContainer   `xml:"Document"`
	Placemarks []kmlPlacemark `xml:"Placemark"`
}

type kmlContainer struct {
	Folders    []kmlContainer `xml:"Folder"`
	Placemarks []kmlPlacemark `xml:"Placemark"`
}

type kmlPlacemark struct {
	Name          string       `xml:"name"`
	Description   string       `xml:"description"`
	Point         *kmlGeometry `xml:"Point"`
	LineString    *kmlGeometry `xml:"LineString"`
	Polygon       *kmlPolygon  `xml:"Polygon"`
	MultiGeometry *kmlMulti    `xml:"MultiGeometry"`
}

type kmlGeometry struct {
	Coordinates string `xml:"coordinates"`
}

type kmlPolygon struct {
	OuterRing string `xml:"outerBoundaryIs>LinearRing>coordinates"`
}

type kmlMulti struct {
	Points      []kmlGeometry `xml:"Point"`
	LineStrings []kmlGeometry `xml:"LineString"`
	Polygons    []kmlPolygon  `xml:"Polygon"`
}

// ParseKMZ unpacks a KMZ archive and parses the first .kml entry it contains.
func ParseKMZ(data []byte) (*ImportResult, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &ParseError{Format: "kmz", Reason: "corrupt archive", Err: err}
	}

	for _, f := range zr.File {
		if !strings.HasSuffix(strings.ToLower(f.Name), ".kml") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, &ParseError{Format: "kmz", Reason: "cannot open " + f.Name, Err: err}
		}
		defer rc.Close()
		return ParseKML(rc)
	}

	return nil, &ParseError{Format: "kmz", Reason: "archive contains no .kml entry"}
}

// ParseKML extracts coverage records from a KML document. Points become point
// records, polygons become one record each with the vertex-mean anchor, and
// line strings are approximated as a chain of point records. Records with
// out-of-range or (0,0) anchors are dropped and counted.
func ParseKML(r io.Reader) (*ImportResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ParseError{Format: "kml", Reason: "read failed", Err: err}
	}

	var root kmlRoot
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, &ParseError{Format: "kml", Reason: "invalid XML", Err: err}
	}

	placemarks := root.Placemarks
	placemarks = append(placemarks, collectPlacemarks(root.Document)...)

	res := &ImportResult{Records: []Record{}}
	for _, pm := range placemarks {
		res.Summary.FeaturesSeen++
		for _, rec := range placemarkRecords(pm) {
			if !rec.valid() {
				res.Summary.DroppedInvalid++
				continue
			}
			if len(rec.Polygon) > 0 {
				res.Summary.PolygonCount++
			} else {
				res.Summary.PointCount++
			}
			res.Records = append(res.Records, rec)
		}
	}
	res.Summary.RecordsExtracted = len(res.Records)

	return res, nil
}

func collectPlacemarks(c kmlContainer) []kmlPlacemark {
	out := c.Placemarks
	for _, f := range c.Folders {
		out = append(out, collectPlacemarks(f)...)
	}
	return out
}

// placemarkRecords expands one placemark into candidate records. A
// MultiGeometry yields one record per constituent polygon, each sharing the
// placemark's non-geometric properties. Placemarks without geometry are
// skipped.
func placemarkRecords(pm kmlPlacemark) []Record {
	base := Record{
		SiteID:   strings.TrimSpace(pm.Name),
		Locality: strings.TrimSpace(pm.Description),
	}

	var out []Record

	addPoint := func(g *kmlGeometry) {
		pts := parseKMLCoordinates(g.Coordinates)
		if len(pts) == 0 {
			return
		}
		rec := base
		rec.Latitude = pts[0].Lat()
		rec.Longitude = pts[0].Lon()
		out = append(out, rec)
	}

	// Linear infrastructure is approximated as a chain of point nodes.
	addLine := func(g *kmlGeometry) {
		for _, pt := range parseKMLCoordinates(g.Coordinates) {
			rec := base
			rec.Latitude = pt.Lat()
			rec.Longitude = pt.Lon()
			out = append(out, rec)
		}
	}

	addPolygon := func(p *kmlPolygon) {
		ring := orb.Ring(parseKMLCoordinates(p.OuterRing))
		if len(ring) == 0 {
			return
		}
		rec := base
		rec.Polygon = ringToLatLng(ring)
		anchor := geo.MeanOfRing(ring)
		rec.Latitude = anchor.Lat
		rec.Longitude = anchor.Lng
		out = append(out, rec)
	}

	switch {
	case pm.Point != nil:
		addPoint(pm.Point)
	case pm.Polygon != nil:
		addPolygon(pm.Polygon)
	case pm.LineString != nil:
		addLine(pm.LineString)
	case pm.MultiGeometry != nil:
		for i := range pm.MultiGeometry.Polygons {
			addPolygon(&pm.MultiGeometry.Polygons[i])
		}
		for i := range pm.MultiGeometry.Points {
			addPoint(&pm.MultiGeometry.Points[i])
		}
		for i := range pm.MultiGeometry.LineStrings {
			addLine(&pm.MultiGeometry.LineStrings[i])
		}
	}

	return out
}

// parseKMLCoordinates parses a KML coordinate string. KML declares its axis
// order: always "lon,lat[,alt]" tuples separated by whitespace, so no
// heuristic is needed here.
func parseKMLCoordinates(s string) []orb.Point {
	var pts []orb.Point
	for _, tuple := range strings.Fields(s) {
		parts := strings.Split(tuple, ",")
		if len(parts) < 2 {
			continue
		}
		lng, errLng := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		lat, errLat := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if errLng != nil || errLat != nil {
			continue
		}
		pts = append(pts, orb.Point{lng, lat})
	}
	return pts
}

func ringToLatLng(ring orb.Ring) []geo.LatLng {
	out := make([]geo.LatLng, len(ring))
	for i, pt := range ring {
		out[i] = geo.LatLng{Lat: pt.Lat(), Lng: pt.Lon()}
	}
	return out
}
