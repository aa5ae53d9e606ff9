package domain

import "math"

// earthRadiusM is the mean Earth radius used for great-circle distances.
const earthRadiusM = 6371000.0

// kmPerDegree approximates the ground distance of one degree of latitude.
const kmPerDegree = 111.0

// GeoPoint is a WGS-84 coordinate pair in decimal degrees.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// BoundingBox is an axis-aligned lat/lon rectangle. Lat1/Lon1 is the
// southwest corner, Lat2/Lon2 the northeast corner.
type BoundingBox struct {
	Lat1 float64 `json:"lat1"`
	Lon1 float64 `json:"lon1"`
	Lat2 float64 `json:"lat2"`
	Lon2 float64 `json:"lon2"`
}

// BoundingBoxAround returns a box centered on p whose edges sit radiusKm away
// from the center. The longitude half-width is widened by 1/cos(lat) so the
// box covers roughly equal ground distance east-west and north-south. Not
// valid near the poles, where cos(lat) vanishes; the radar network operates
// nowhere near them.
func BoundingBoxAround(p GeoPoint, radiusKm float64) BoundingBox {
	dlat := radiusKm / kmPerDegree
	dlon := radiusKm / (kmPerDegree * math.Cos(p.Lat*math.Pi/180))
	return BoundingBox{
		Lat1: p.Lat - dlat,
		Lon1: p.Lon - dlon,
		Lat2: p.Lat + dlat,
		Lon2: p.Lon + dlon,
	}
}

// HaversineMeters returns the great-circle distance between a and b.
func HaversineMeters(a, b GeoPoint) float64 {
	p1 := a.Lat * math.Pi / 180
	p2 := b.Lat * math.Pi / 180
	dlat := (b.Lat - a.Lat) * math.Pi / 180
	dlon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(p1)*math.Cos(p2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	return 2 * earthRadiusM * math.Asin(math.Sqrt(h))
}
