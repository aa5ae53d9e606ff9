package domain

import "time"

// timeFormat is the timestamp layout the tabular endpoint expects. Queries
// are always aligned to whole hours.
const timeFormat = "2006-01-02 15:00:00"

// QueryTier is one (time window, box size) step in the escalation ladder.
// Tiers are tried strictly in declared order; later tiers widen the window,
// the box, or both.
type QueryTier struct {
	Hours int     `json:"hours"`
	BoxKm float64 `json:"boxKm"`
}

// Query holds the fully-resolved parameters of one upstream request.
type Query struct {
	From time.Time
	To   time.Time
	Box  BoundingBox
	UOM  string
}

// FormatQueryTime renders t in the upstream's "YYYY-MM-DD HH:00:00" layout.
func FormatQueryTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

// FloorHour truncates t to the start of its UTC hour.
func FloorHour(t time.Time) time.Time {
	return t.UTC().Truncate(time.Hour)
}
