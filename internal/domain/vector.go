package domain

import "math"

// ResolvedVector is the best-estimate current at the target: the nearest
// sample row plus its derived polar form.
type ResolvedVector struct {
	Row     SampleRow
	U       float64
	V       float64
	Speed   float64
	Bearing float64
}

// NearestSample returns the row closest to target by great-circle distance.
// Ties keep the earliest row, so the result is stable for equidistant cells.
// The caller must ensure rows is non-empty.
func NearestSample(target GeoPoint, rows []SampleRow) SampleRow {
	best := rows[0]
	bestDist := HaversineMeters(target, best.Point())
	for _, r := range rows[1:] {
		if d := HaversineMeters(target, r.Point()); d < bestDist {
			best = r
			bestDist = d
		}
	}
	return best
}

// ResolveVector selects the nearest row and derives its speed and compass
// bearing. The caller must ensure rows is non-empty.
func ResolveVector(target GeoPoint, rows []SampleRow) ResolvedVector {
	row := NearestSample(target, rows)
	return ResolvedVector{
		Row:     row,
		U:       row.U,
		V:       row.V,
		Speed:   math.Hypot(row.U, row.V),
		Bearing: CompassBearing(row.U, row.V),
	}
}

// CompassBearing converts east/north velocity components to a heading in
// degrees within [0, 360), with 0° pointing true north.
func CompassBearing(u, v float64) float64 {
	b := math.Atan2(u, v) * 180 / math.Pi
	if b < 0 {
		b += 360
	}
	return b
}
