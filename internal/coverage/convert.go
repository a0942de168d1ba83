package coverage

import (
	"github.com/nusalink/coverage-backend/internal/geoimport"
)

// SiteFromImport converts an importer candidate record into a store model.
func SiteFromImport(rec geoimport.Record) CoverageSite {
	site := CoverageSite{
		NetworkType: rec.NetworkType,
		SiteID:      rec.SiteID,
		HomepassID:  rec.HomepassID,
		Latitude:    rec.Latitude,
		Longitude:   rec.Longitude,
		Polygon:     Polygon(rec.Polygon),
		Locality:    rec.Locality,
		Status:      rec.Status,
	}
	if rec.AreaLatitude != 0 || rec.AreaLongitude != 0 {
		lat, lng := rec.AreaLatitude, rec.AreaLongitude
		site.AreaLatitude = &lat
		site.AreaLongitude = &lng
	}
	return site
}

// SitesFromImport converts a whole import result.
func SitesFromImport(recs []geoimport.Record) []CoverageSite {
	out := make([]CoverageSite, len(recs))
	for i, r := range recs {
		out[i] = SiteFromImport(r)
	}
	return out
}
