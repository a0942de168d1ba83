package coverage

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nusalink/coverage-backend/internal/geo"
	"github.com/nusalink/coverage-backend/internal/geoimport"
	"github.com/nusalink/coverage-backend/internal/ingest"
	"github.com/nusalink/coverage-backend/internal/settings"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the error taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		http.Error(w, ve.Error(), http.StatusBadRequest)
		return
	}
	var nf *NotFoundError
	if errors.As(err, &nf) {
		http.Error(w, nf.Error(), http.StatusNotFound)
		return
	}
	var pe *geoimport.ParseError
	if errors.As(err, &pe) {
		http.Error(w, pe.Error(), http.StatusUnprocessableEntity)
		return
	}
	http.Error(w, "Internal error: "+err.Error(), http.StatusInternalServerError)
}

func parseFloatParam(r *http.Request, name string) (float64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ListSitesHandler serves the coverage table (paged) and the coverage map
// (bbox mode). Presence of all four bounds params switches into map mode.
func ListSitesHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	search := strings.TrimSpace(q.Get("search"))
	networkType := strings.TrimSpace(q.Get("network_type"))

	minLat, ok1 := parseFloatParam(r, "min_lat")
	maxLat, ok2 := parseFloatParam(r, "max_lat")
	minLng, ok3 := parseFloatParam(r, "min_lng")
	maxLng, ok4 := parseFloatParam(r, "max_lng")

	if ok1 && ok2 && ok3 && ok4 {
		bounds := geo.Bounds{MinLat: minLat, MaxLat: maxLat, MinLng: minLng, MaxLng: maxLng}

		sites, err := store.ListInBounds(r.Context(), bounds, search, networkType)
		if err != nil {
			writeError(w, err)
			return
		}
		total := len(sites)

		// A max_points cap means the caller wants a renderable subset:
		// inactive sites drop out of radius rendering, points get viewport-
		// culled and truncated, polygons always survive.
		if maxPoints, ok := parseFloatParam(r, "max_points"); ok && maxPoints > 0 {
			active := make([]CoverageSite, 0, len(sites))
			for _, s := range sites {
				if s.IsActive() {
					active = append(active, s)
				}
			}
			sites = FilterForViewport(active, &bounds, int(maxPoints))
		}

		writeJSON(w, map[string]any{"sites": sites, "total": total})
		return
	}

	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))

	result, err := store.ListPaged(r.Context(), page, pageSize, search, networkType)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, result)
}

// NearestHandler classifies a candidate subscriber location against the
// nearest coverage node's radius.
func NearestHandler(w http.ResponseWriter, r *http.Request) {
	lat, okLat := parseFloatParam(r, "lat")
	lng, okLng := parseFloatParam(r, "lng")
	if !okLat || !okLng {
		http.Error(w, "lat and lng are required numeric parameters", http.StatusBadRequest)
		return
	}
	point := geo.LatLng{Lat: lat, Lng: lng}
	if !point.Valid() {
		http.Error(w, "lat/lng outside the WGS84 range", http.StatusBadRequest)
		return
	}

	cfg, err := settings.Load(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	cls, err := ClassifyPoint(r.Context(), point, strings.TrimSpace(r.URL.Query().Get("network_type")), store, cfg)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, cls)
}

func CreateSiteHandler(w http.ResponseWriter, r *http.Request) {
	var site CoverageSite
	if err := json.NewDecoder(r.Body).Decode(&site); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	site.ID = 0

	if err := store.Create(r.Context(), &site); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, site)
}

func UpdateSiteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid site id", http.StatusBadRequest)
		return
	}

	var site CoverageSite
	if err := json.NewDecoder(r.Body).Decode(&site); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := store.Update(r.Context(), id, &site); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, site)
}

func DeleteSiteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid site id", http.StatusBadRequest)
		return
	}

	// Idempotent: deleting a missing row is still success.
	if err := store.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func BulkDeleteHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDs []int64 `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := store.DeleteByIDs(r.Context(), body.IDs); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"deleted": len(body.IDs)})
}

// DeleteAllHandler wipes the coverage table. Confirmation is the UI layer's
// job; the API requires nothing beyond authorization.
func DeleteAllHandler(w http.ResponseWriter, r *http.Request) {
	if err := store.DeleteAll(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	log.Printf("[Coverage] all sites deleted")
	writeJSON(w, map[string]any{"status": "ok"})
}

// BulkImportHandler ingests candidate records in bounded chunks. Partial
// failure reports per-chunk errors alongside the processed count; committed
// chunks stay committed.
func BulkImportHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Records []CoverageSite `json:"records"`
		Mode    string         `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if !ingest.ValidMode(body.Mode) {
		http.Error(w, "mode must be \"insert\" or \"upsert\"", http.StatusBadRequest)
		return
	}

	res, err := ingestCtl.Run(r.Context(), store, body.Records, body.Mode)
	if err != nil {
		writeError(w, err)
		return
	}

	log.Printf("[BulkImport] batch %s: %d/%d records, %d failed chunks",
		res.BatchID, res.Processed, res.TotalRequested, len(res.Failures))

	writeJSON(w, map[string]any{
		"batch_id": res.BatchID,
		"count":    res.Processed,
		"total":    res.TotalRequested,
		"errors":   res.Failures,
	})
}

// maxImportUpload bounds a single uploaded geo file.
const maxImportUpload = 50 << 20

// ImportPreviewHandler parses an uploaded KMZ/KML/CSV file into candidate
// records plus a summary, without touching the store. The caller reviews the
// preview and submits the records through the bulk endpoint.
func ImportPreviewHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImportUpload); err != nil {
		http.Error(w, "Invalid multipart body", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImportUpload))
	if err != nil {
		http.Error(w, "Failed to read upload", http.StatusBadRequest)
		return
	}

	var result *geoimport.ImportResult
	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".kmz":
		result, err = geoimport.ParseKMZ(data)
	case ".kml":
		result, err = geoimport.ParseKML(strings.NewReader(string(data)))
	case ".csv":
		result, err = previewCSV(data, r.FormValue("mapping"))
	default:
		http.Error(w, "unsupported file type (expect .kmz, .kml or .csv)", http.StatusBadRequest)
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, result)
}

// previewCSV maps spreadsheet rows with the caller-supplied column mapping
// (a JSON object of column name → field name). Rows are never dropped here;
// the summary only counts shapes.
func previewCSV(data []byte, mappingJSON string) (*geoimport.ImportResult, error) {
	mapping := map[string]string{}
	if mappingJSON != "" {
		if err := json.Unmarshal([]byte(mappingJSON), &mapping); err != nil {
			return nil, &geoimport.ParseError{Format: "csv", Reason: "invalid column mapping", Err: err}
		}
	}

	header, rows, err := geoimport.ReadCSV(strings.NewReader(string(data)))
	if err != nil {
		return nil, err
	}

	records := geoimport.MapRows(header, rows, mapping)
	res := &geoimport.ImportResult{Records: records}
	res.Summary.FeaturesSeen = len(rows)
	res.Summary.RecordsExtracted = len(records)
	for _, rec := range records {
		if len(rec.Polygon) > 0 {
			res.Summary.PolygonCount++
		} else {
			res.Summary.PointCount++
		}
	}
	return res, nil
}
