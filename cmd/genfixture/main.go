// Command genfixture generates a tabular CSV fixture and its expected
// artifact JSON using the actual domain package, so test data always matches
// real pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genfixture \
//	  -csv-out internal/pipeline/testdata/samples.csv \
//	  -json-out internal/pipeline/testdata/expected_artifact.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidewatch/currentpoint/internal/domain"
)

// baseTime keeps the fixtures reproducible across regenerations.
var baseTime = time.Date(2026, time.March, 14, 18, 0, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	csvOut := flag.String("csv-out", "", "output path for the tabular CSV fixture")
	jsonOut := flag.String("json-out", "", "output path for the expected artifact JSON")
	flag.Parse()

	if *csvOut == "" || *jsonOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -csv-out, -json-out")
	}

	target := domain.GeoPoint{Lat: 37.7477, Lon: -122.3020}
	tier := domain.QueryTier{Hours: 6, BoxKm: 12}

	csvText := buildCSV(target)
	rows := domain.ParseTable(csvText)
	if len(rows) == 0 {
		return fmt.Errorf("generated fixture parsed to zero rows")
	}

	q := domain.Query{
		From: baseTime.Add(-time.Duration(tier.Hours) * time.Hour),
		To:   baseTime,
		Box:  domain.BoundingBoxAround(target, tier.BoxKm),
		UOM:  "cms",
	}
	vec := domain.ResolveVector(target, rows)
	art := domain.NewResultArtifact(target, vec, tier, q, "fixture://samples.csv", baseTime)

	if err := writeFile(*csvOut, []byte(csvText)); err != nil {
		return err
	}

	data, err := json.MarshalIndent(art, "", "  ")
	if err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}
	if err := writeFile(*jsonOut, append(data, '\n')); err != nil {
		return err
	}

	fmt.Printf("wrote %s (%d rows) and %s\n", *csvOut, len(rows), *jsonOut)
	return nil
}

// buildCSV produces a plausible tabular response: comments, a header, a ring
// of grid cells around the target, and one deliberately malformed row. The
// nearest cell moves due north so the derived speed and bearing in the
// expected artifact are exact floats.
func buildCSV(target domain.GeoPoint) string {
	var b strings.Builder
	b.WriteString("# NDBC HF radar tabular fixture\n")
	b.WriteString("# generated by cmd/genfixture\n")
	b.WriteString("time,latitude,longitude,u,v\n")

	ts := baseTime.Add(-30 * time.Minute).Format("2006-01-02 15:04:05")
	offsets := []struct {
		dlat, dlon, u, v float64
	}{
		{0.005, 0.000, 0.0, 15.0},
		{0.000, 0.054, -7.9, 21.6},
		{-0.054, 0.000, 4.2, 4.2},
		{0.000, -0.108, 30.0, -14.5},
	}
	for _, o := range offsets {
		fmt.Fprintf(&b, "%s,%.4f,%.4f,%.1f,%.1f\n", ts, target.Lat+o.dlat, target.Lon+o.dlon, o.u, o.v)
	}
	b.WriteString(ts + ",not-a-lat,-122.3,1.0,2.0\n")
	return b.String()
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
