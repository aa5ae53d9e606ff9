package domain

import (
	"strconv"
	"strings"
)

// SampleRow is one validated record from the tabular response. Time is kept
// as the upstream's literal string; only the numeric fields are parsed.
type SampleRow struct {
	Time string  `json:"time"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	U    float64 `json:"u"`
	V    float64 `json:"v"`
}

// Point returns the row's grid-cell coordinate.
func (r SampleRow) Point() GeoPoint {
	return GeoPoint{Lat: r.Lat, Lon: r.Lon}
}

// ParseTable extracts valid sample rows from raw tabular text. Blank lines
// and '#' comments are discarded, the first surviving line is treated as a
// header and skipped unvalidated, and each remaining line is split on commas.
// Records with fewer than five fields or non-numeric coordinates/components
// are dropped. Input order is preserved. ParseTable never fails: anything
// unusable, including empty input, yields an empty slice.
func ParseTable(text string) []SampleRow {
	var lines []string
	for _, ln := range strings.Split(text, "\n") {
		ln = strings.TrimSpace(ln)
		if ln == "" || strings.HasPrefix(ln, "#") {
			continue
		}
		lines = append(lines, ln)
	}
	if len(lines) < 2 {
		return nil
	}

	rows := make([]SampleRow, 0, len(lines)-1)
	for _, ln := range lines[1:] {
		fields := strings.Split(ln, ",")
		if len(fields) < 5 {
			continue
		}
		lat, err1 := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		lon, err2 := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
		u, err3 := strconv.ParseFloat(strings.TrimSpace(fields[3]), 64)
		v, err4 := strconv.ParseFloat(strings.TrimSpace(fields[4]), 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			continue
		}
		rows = append(rows, SampleRow{
			Time: strings.TrimSpace(fields[0]),
			Lat:  lat,
			Lon:  lon,
			U:    u,
			V:    v,
		})
	}
	return rows
}
