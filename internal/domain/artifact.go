package domain

import "time"

// Artifact is the single JSON record the job leaves behind. Exactly one is
// written per run, in one of three shapes:
//
//   - fresh result (N == 1): nearest row plus derived vector and the tier
//     that produced it;
//   - refreshed prior artifact: a previous run's record re-written with only
//     GeneratedAt updated, signalling job liveness without fresh data;
//   - diagnostic (N == 0): no data in any tier and no prior artifact; Error
//     set, query fields describing the last attempted tier when known.
//
// Success-only scalars are pointers so the diagnostic shape omits them
// instead of claiming a zero-velocity current.
type Artifact struct {
	Target      GeoPoint   `json:"target"`
	Nearest     *SampleRow `json:"nearest,omitempty"`
	From        string     `json:"from,omitempty"`
	To          string     `json:"to,omitempty"`
	Hours       int        `json:"hours,omitempty"`
	BoxKm       float64    `json:"boxKm,omitempty"`
	UOM         string     `json:"uom"`
	N           int        `json:"n"`
	U           *float64   `json:"u,omitempty"`
	V           *float64   `json:"v,omitempty"`
	Speed       *float64   `json:"speed,omitempty"`
	Bearing     *float64   `json:"bearing,omitempty"`
	SourceURL   string     `json:"source_url,omitempty"`
	TierUsed    *QueryTier `json:"tier_used,omitempty"`
	Error       string     `json:"error,omitempty"`
	GeneratedAt time.Time  `json:"generated_at"`
}

// NewResultArtifact builds the success-shaped artifact from a resolved
// vector and the query that produced it. Pure construction, no failure
// modes.
func NewResultArtifact(target GeoPoint, vec ResolvedVector, tier QueryTier, q Query, sourceURL string, now time.Time) Artifact {
	row := vec.Row
	u, v, speed, bearing := vec.U, vec.V, vec.Speed, vec.Bearing
	return Artifact{
		Target:      target,
		Nearest:     &row,
		From:        FormatQueryTime(q.From),
		To:          FormatQueryTime(q.To),
		Hours:       tier.Hours,
		BoxKm:       tier.BoxKm,
		UOM:         q.UOM,
		N:           1,
		U:           &u,
		V:           &v,
		Speed:       &speed,
		Bearing:     &bearing,
		SourceURL:   sourceURL,
		TierUsed:    &tier,
		GeneratedAt: now,
	}
}

// NewDiagnosticArtifact builds the failure-shaped artifact for a run that
// found no data and has no prior artifact to fall back on.
func NewDiagnosticArtifact(target GeoPoint, uom, errMsg string, now time.Time) Artifact {
	return Artifact{
		Target:      target,
		UOM:         uom,
		N:           0,
		Error:       errMsg,
		GeneratedAt: now,
	}
}
