package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/nusalink/coverage-backend/internal/coverage"
	"github.com/nusalink/coverage-backend/internal/geoimport"
	"github.com/nusalink/coverage-backend/internal/ingest"
)

func main() {
	var (
		filePath = flag.String("file", "", "path to a .kmz, .kml or .csv coverage export")
		dbURL    = flag.String("db", "", "DATABASE_URL")
		mode     = flag.String("mode", ingest.ModeInsert, `import mode: "insert" or "upsert"`)
		mapping  = flag.String("mapping", "", "CSV column mapping as col=field pairs, comma separated (csv only)")
		chunk    = flag.Int("chunk", 0, "override chunk size")
	)
	flag.Parse()

	if *filePath == "" || *dbURL == "" {
		flag.Usage()
		os.Exit(2)
	}
	if !ingest.ValidMode(*mode) {
		log.Fatalf("unknown mode %q (want insert or upsert)", *mode)
	}

	result, err := parseFile(*filePath, *mapping)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("parsed %d features: %d records (%d polygons, %d points, %d dropped)\n",
		result.Summary.FeaturesSeen, result.Summary.RecordsExtracted,
		result.Summary.PolygonCount, result.Summary.PointCount, result.Summary.DroppedInvalid)

	gdb, err := gorm.Open(postgres.Open(*dbURL), &gorm.Config{})
	if err != nil {
		log.Fatal(err)
	}

	store := coverage.NewStore(gdb)
	ctl := ingest.NewController[coverage.CoverageSite]()
	if *chunk > 0 {
		ctl.ChunkSize = *chunk
	}

	res, err := ctl.Run(context.Background(), store, coverage.SitesFromImport(result.Records), *mode)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("batch %s: imported %d of %d records\n", res.BatchID, res.Processed, res.TotalRequested)
	for _, f := range res.Failures {
		fmt.Printf("  chunk %d (%d records) failed: %s\n", f.Chunk, f.Count, f.Error)
	}
	if len(res.Failures) > 0 {
		os.Exit(1)
	}
}

func parseFile(path, mappingFlag string) (*geoimport.ImportResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".kmz":
		return geoimport.ParseKMZ(data)
	case ".kml":
		return geoimport.ParseKML(strings.NewReader(string(data)))
	case ".csv":
		header, rows, err := geoimport.ReadCSV(strings.NewReader(string(data)))
		if err != nil {
			return nil, err
		}
		records := geoimport.MapRows(header, rows, parseMapping(mappingFlag))
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
	default:
		return nil, fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}
}

func parseMapping(s string) map[string]string {
	mapping := map[string]string{}
	for _, pair := range strings.Split(s, ",") {
		col, field, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if ok && col != "" && field != "" {
			mapping[col] = field
		}
	}
	return mapping
}
