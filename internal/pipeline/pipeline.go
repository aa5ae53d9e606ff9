// Package pipeline orchestrates the resolve-and-persist cycle: tier
// escalation against the upstream, artifact assembly on success, and
// degrade-to-last-known-good persistence on total failure.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/tidewatch/currentpoint/internal/domain"
	"github.com/tidewatch/currentpoint/internal/observability"
)

// Store persists the single output artifact. Load reports absence via the
// boolean rather than an error.
type Store interface {
	Load() (domain.Artifact, bool, error)
	Save(domain.Artifact) error
}

// Publisher forwards a freshly resolved artifact to an optional sink.
type Publisher interface {
	Publish(ctx context.Context, a domain.Artifact) error
}

// Pipeline runs the whole job. Each run writes exactly one artifact: a fresh
// result, the prior artifact with a refreshed timestamp, or a diagnostic
// record. Finding no data is not a run failure; only being unable to persist
// is.
type Pipeline struct {
	resolver  *Resolver
	store     Store
	publisher Publisher // nil when the Kafka sink is not configured
	target    domain.GeoPoint
	uom       string
	clock     clockwork.Clock
	metrics   *observability.Metrics
	logger    *slog.Logger
	ready     atomic.Bool

	mu          sync.Mutex
	runs        int64
	lastOutcome string
	lastFresh   time.Time
}

// Status is a point-in-time summary of pipeline progress, served by the ops
// endpoints.
type Status struct {
	Runs        int64     `json:"runs"`
	LastOutcome string    `json:"last_outcome,omitempty"`
	LastFresh   time.Time `json:"last_fresh,omitzero"`
}

// New creates a Pipeline. publisher may be nil.
func New(resolver *Resolver, store Store, publisher Publisher, target domain.GeoPoint, uom string, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		resolver:  resolver,
		store:     store,
		publisher: publisher,
		target:    target,
		uom:       uom,
		clock:     clock,
		metrics:   metrics,
		logger:    logger,
	}
}

// CheckReadiness returns nil once at least one artifact has been persisted.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no artifact persisted yet")
	}
	return nil
}

// Status reports how many runs have completed, how the latest one ended,
// and when fresh data was last resolved.
func (p *Pipeline) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Status{
		Runs:        p.runs,
		LastOutcome: p.lastOutcome,
		LastFresh:   p.lastFresh,
	}
}

func (p *Pipeline) record(outcome string, now time.Time, fresh bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.runs++
	p.lastOutcome = outcome
	if fresh {
		p.lastFresh = now
	}
}

// RunOnce executes one full resolve-and-persist cycle.
func (p *Pipeline) RunOnce(ctx context.Context) error {
	start := p.clock.Now()
	p.metrics.ResolverBusy.Set(1)
	defer p.metrics.ResolverBusy.Set(0)
	defer func() {
		p.metrics.RunDuration.Observe(p.clock.Since(start).Seconds())
	}()

	outcome := p.resolver.Resolve(ctx)
	if !outcome.OK {
		return p.persistFallback(outcome)
	}

	now := p.clock.Now().UTC()
	art := domain.NewResultArtifact(p.target, outcome.Vector, outcome.Tier, outcome.Query, outcome.SourceURL, now)
	if err := p.store.Save(art); err != nil {
		return err
	}
	p.ready.Store(true)
	p.record("fresh", now, true)
	p.metrics.RunsTotal.WithLabelValues("fresh").Inc()
	p.metrics.LastSuccessTimestamp.Set(float64(now.Unix()))
	p.logger.Info("artifact persisted",
		"n", art.N,
		"tier_hours", outcome.Tier.Hours,
		"tier_box_km", outcome.Tier.BoxKm,
		"speed", outcome.Vector.Speed,
		"bearing", outcome.Vector.Bearing,
	)

	p.publish(ctx, art)
	return nil
}

// persistFallback handles the no-data-in-any-tier path: re-persist the prior
// artifact with a refreshed timestamp so the job's liveness stays visible,
// or write a diagnostic record when no prior artifact exists.
func (p *Pipeline) persistFallback(outcome Outcome) error {
	now := p.clock.Now().UTC()

	prior, found, err := p.store.Load()
	if err != nil {
		// An unreadable prior artifact must not kill the run; fall
		// through to the diagnostic shape.
		p.logger.Warn("prior artifact unreadable, writing diagnostic", "error", err)
		found = false
	}

	var art domain.Artifact
	var runOutcome string
	switch {
	case found:
		prior.GeneratedAt = now
		art = prior
		runOutcome = "fallback_prior"
		p.logger.Warn("no fresh data, re-persisting prior artifact")
	case outcome.Diagnostic != nil:
		d := outcome.Diagnostic
		art = domain.NewDiagnosticArtifact(p.target, p.uom, "no data in any tier", now)
		art.From = domain.FormatQueryTime(d.Query.From)
		art.To = domain.FormatQueryTime(d.Query.To)
		art.Hours = d.Tier.Hours
		art.BoxKm = d.Tier.BoxKm
		art.SourceURL = d.SourceURL
		runOutcome = "fallback_diagnostic"
		p.logger.Warn("no fresh data and no prior artifact, writing diagnostic",
			"tiers_tried", d.TiersTried,
		)
	default:
		art = domain.NewDiagnosticArtifact(p.target, p.uom, "no data", now)
		runOutcome = "fallback_diagnostic"
		p.logger.Warn("no fresh data and no diagnostic, writing minimal record")
	}

	if err := p.store.Save(art); err != nil {
		return err
	}
	p.ready.Store(true)
	p.record(runOutcome, now, false)
	p.metrics.RunsTotal.WithLabelValues(runOutcome).Inc()
	return nil
}

// publish forwards the fresh artifact to the optional sink. Publish failures
// are logged, never fatal: the persisted file is the source of truth.
func (p *Pipeline) publish(ctx context.Context, art domain.Artifact) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.Publish(ctx, art); err != nil {
		p.logger.Warn("publish artifact failed", "error", err)
	}
}

// Run executes RunOnce every interval until the context is cancelled. An
// interval of zero or less runs a single cycle, matching the external-cron
// deployment.
func (p *Pipeline) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return p.RunOnce(ctx)
	}

	p.logger.Info("pipeline loop started", "interval", interval)
	for {
		if err := p.RunOnce(ctx); err != nil {
			p.logger.Error("run failed", "error", err)
		}
		if !p.sleep(ctx, interval) {
			p.logger.Info("pipeline loop stopping", "reason", ctx.Err())
			return nil
		}
	}
}

// sleep waits for d or until the context is cancelled. Returns false when
// the loop should stop.
func (p *Pipeline) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-p.clock.After(d):
		return true
	}
}
