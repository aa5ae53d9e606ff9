package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/tidewatch/currentpoint/internal/domain"
	"github.com/tidewatch/currentpoint/internal/observability"
)

// Fetcher retrieves the tabular body for one query. Implementations must not
// fail: an empty body means the tier has no data, whatever the underlying
// cause. The second return value is the exact URL queried.
type Fetcher interface {
	Fetch(ctx context.Context, q domain.Query) (body string, sourceURL string)
}

// Diagnostic records why a tier produced nothing, kept for the failure
// artifact. Only the last attempted tier's diagnostic survives a run.
type Diagnostic struct {
	Tier       domain.QueryTier
	Query      domain.Query
	SourceURL  string
	TiersTried int
}

// Outcome is the result of one escalation pass: either a resolved vector
// with the tier and query that produced it, or the last tier's diagnostic.
type Outcome struct {
	OK        bool
	Vector    domain.ResolvedVector
	Tier      domain.QueryTier
	Query     domain.Query
	SourceURL string
	Rows      int

	Diagnostic *Diagnostic
}

// Resolver walks the escalation ladder: for each tier it builds the time
// range and bounding box, fetches, parses, and stops at the first tier that
// yields any rows. Tiers run strictly in order with no overlap or merging;
// once one succeeds, later tiers are never attempted.
type Resolver struct {
	fetcher Fetcher
	target  domain.GeoPoint
	uom     string
	tiers   []domain.QueryTier
	clock   clockwork.Clock
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewResolver creates a Resolver over the given tier ladder.
func NewResolver(fetcher Fetcher, target domain.GeoPoint, uom string, tiers []domain.QueryTier, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *Resolver {
	return &Resolver{
		fetcher: fetcher,
		target:  target,
		uom:     uom,
		tiers:   tiers,
		clock:   clock,
		metrics: metrics,
		logger:  logger,
	}
}

// Resolve runs the escalation pass. The query window of every tier ends at
// the current UTC hour boundary and reaches back the tier's hour count.
func (r *Resolver) Resolve(ctx context.Context) Outcome {
	to := domain.FloorHour(r.clock.Now())

	var last *Diagnostic
	for i, tier := range r.tiers {
		q := domain.Query{
			From: to.Add(-tierWindow(tier)),
			To:   to,
			Box:  domain.BoundingBoxAround(r.target, tier.BoxKm),
			UOM:  r.uom,
		}

		body, sourceURL := r.fetcher.Fetch(ctx, q)
		rows := domain.ParseTable(body)
		if len(rows) > 0 {
			vec := domain.ResolveVector(r.target, rows)
			r.metrics.TiersAttempted.Observe(float64(i + 1))
			r.metrics.RowsParsed.Observe(float64(len(rows)))
			r.logger.Info("tier resolved",
				"tier_hours", tier.Hours,
				"tier_box_km", tier.BoxKm,
				"rows", len(rows),
				"speed", vec.Speed,
				"bearing", vec.Bearing,
			)
			return Outcome{
				OK:        true,
				Vector:    vec,
				Tier:      tier,
				Query:     q,
				SourceURL: sourceURL,
				Rows:      len(rows),
			}
		}

		last = &Diagnostic{
			Tier:       tier,
			Query:      q,
			SourceURL:  sourceURL,
			TiersTried: i + 1,
		}
		r.logger.Warn("no rows in tier, escalating",
			"tier_hours", tier.Hours,
			"tier_box_km", tier.BoxKm,
			"from", domain.FormatQueryTime(q.From),
			"to", domain.FormatQueryTime(q.To),
			"url", sourceURL,
		)
	}

	r.metrics.TiersAttempted.Observe(float64(len(r.tiers)))
	return Outcome{Diagnostic: last}
}

func tierWindow(t domain.QueryTier) time.Duration {
	return time.Duration(t.Hours) * time.Hour
}
