// Package domain models NDBC high-frequency (HF) radar surface-current data.
//
// # Data Source
//
// Surface current samples come from the NOAA National Data Buoy Center HF
// radar network, queried through the tabular download endpoint at
// https://hfradar.ndbc.noaa.gov/tabdownload.php. The endpoint accepts a UTC
// time range, a lat/lon bounding box, a unit-of-measure code, and a format
// selector, and responds with CSV text.
//
// # Tabular Conventions
//
// Response layout:
//
//	Optional comment lines prefixed with '#', then one header line, then one
//	data line per (grid cell, timestamp) pair. Data lines carry at least five
//	comma-separated fields, interpreted positionally:
//
//	  time, latitude, longitude, u, v
//
//	Extra trailing fields are ignored. Lines with fewer than five fields, or
//	with non-numeric latitude/longitude/u/v, are dropped without failing the
//	whole parse — the upstream occasionally interleaves malformed rows.
//
// Velocity components:
//
//	u is the eastward component and v the northward component, both in the
//	unit requested via the uom query parameter: "cms" (centimeters per
//	second) or "kts" (knots). Components pass through unconverted.
//
// Derived vector:
//
//	speed   = sqrt(u² + v²), in the same unit as u and v
//	bearing = atan2(u, v) in degrees, normalized into [0, 360)
//
//	With u as the sine-like and v as the cosine-like argument this matches
//	the compass convention: 0°/360° is true north, 90° east.
//
// # Geometry
//
// Bounding boxes are axis-aligned rectangles centered on the target point.
// The latitude half-width is radiusKm/111.0 degrees; the longitude half-width
// is scaled by cos(latitude) to approximate equal ground distance. This is a
// small-box flat-earth approximation, which is fine at the ~10-50 km scales
// the radar grid uses but degenerates as the center latitude approaches ±90°.
//
// Distances between the target and sample cells use the haversine formula on
// a sphere of radius 6,371,000 m.
package domain
