package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/wildfire-data-etl/internal/domain"
	"github.com/couchcryptid/wildfire-data-etl/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

// ErrNoDetections is reported when no source produced a single detection.
var ErrNoDetections = errors.New("no fire data available from any source")

// Source is one upstream FIRMS feed.
type Source struct {
	Sensor domain.Sensor
	URL    string
}

// Fetcher retrieves the raw text served at a URL.
type Fetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}

// SnapshotStore is the single-slot persistence for the latest snapshot. Read
// returns nil with no error when nothing is stored.
type SnapshotStore interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, doc []byte) error
}

// Publisher forwards a freshly built snapshot downstream.
type Publisher interface {
	Publish(ctx context.Context, snap domain.Snapshot, cycleID string) error
}

// SourceFailure records why one source contributed no detections.
type SourceFailure struct {
	Sensor domain.Sensor
	Err    error
}

// CycleError is returned when every source came back empty. It matches
// ErrNoDetections and each source's cause under errors.Is/As.
type CycleError struct {
	Region   string
	Failures []SourceFailure
}

func (e *CycleError) Error() string {
	if len(e.Failures) == 0 {
		return ErrNoDetections.Error()
	}
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = fmt.Sprintf("%s: %v", f.Sensor, f.Err)
	}
	return fmt.Sprintf("%s (%s)", ErrNoDetections, strings.Join(parts, "; "))
}

func (e *CycleError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures)+1)
	errs = append(errs, ErrNoDetections)
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

// errEmptySource marks a source that answered but yielded no parsable rows.
var errEmptySource = errors.New("no detections parsed")

// Pipeline orchestrates the fetch, parse, filter, dedupe, estimate and
// persist stages, and owns the current snapshot.
type Pipeline struct {
	fetcher   Fetcher
	store     SnapshotStore
	sources   []Source
	logger    *slog.Logger
	metrics   *observability.Metrics
	estimator *domain.Estimator
	wind      domain.WindProvider
	publisher Publisher
	clock     clockwork.Clock

	fetchTimeout time.Duration
	interval     time.Duration

	cycleMu sync.Mutex // serializes cycles

	mu      sync.RWMutex
	region  string
	current *domain.Snapshot

	ready atomic.Bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRegion sets the initial region. The default is "california".
func WithRegion(region string) Option {
	return func(p *Pipeline) { p.region = region }
}

// WithFetchTimeout bounds each source fetch. Zero means no bound beyond the caller's context.
func WithFetchTimeout(d time.Duration) Option {
	return func(p *Pipeline) { p.fetchTimeout = d }
}

// WithRefreshInterval sets the period between scheduled cycles in Run. Zero
// or negative runs a single cycle.
func WithRefreshInterval(d time.Duration) Option {
	return func(p *Pipeline) { p.interval = d }
}

// WithEstimator replaces the spread estimator.
func WithEstimator(e *domain.Estimator) Option {
	return func(p *Pipeline) { p.estimator = e }
}

// WithWindProvider enables wind enrichment.
func WithWindProvider(w domain.WindProvider) Option {
	return func(p *Pipeline) { p.wind = w }
}

// WithPublisher forwards each new snapshot to pub.
func WithPublisher(pub Publisher) Option {
	return func(p *Pipeline) { p.publisher = pub }
}

// WithClock overrides the clock used for timestamps and scheduling.
func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// New creates a Pipeline fetching from sources in the given order. Earlier
// sources win ties during deduplication.
func New(fetcher Fetcher, store SnapshotStore, sources []Source, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Pipeline {
	p := &Pipeline{
		fetcher:      fetcher,
		store:        store,
		sources:      sources,
		logger:       logger,
		metrics:      metrics,
		estimator:    domain.NewEstimator(nil),
		clock:        clockwork.NewRealClock(),
		fetchTimeout: 30 * time.Second,
		interval:     15 * time.Minute,
		region:       "california",
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Current returns the snapshot being served, if any.
func (p *Pipeline) Current() (domain.Snapshot, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.current == nil {
		return domain.Snapshot{}, false
	}
	return *p.current, true
}

// Region returns the region used by scheduled cycles.
func (p *Pipeline) Region() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.region
}

// CheckReadiness returns nil once a snapshot has been restored or built.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no snapshot available yet")
	}
	return nil
}

// Restore loads the persisted snapshot and serves it until the next cycle
// completes. It reports whether usable data was installed. A snapshot built
// by a cycle is never replaced by the persisted one.
func (p *Pipeline) Restore(ctx context.Context) bool {
	p.cycleMu.Lock()
	defer p.cycleMu.Unlock()

	if _, ok := p.Current(); ok {
		p.logger.Info("snapshot already current, skipping restore")
		return false
	}

	doc, err := p.store.Read(ctx)
	if err != nil {
		p.logger.Warn("snapshot read failed", "error", err)
		return false
	}
	dets := domain.RestoreDetections(doc)
	if dets == nil {
		p.logger.Info("no persisted snapshot to restore")
		return false
	}

	meta, _ := domain.DecodeSnapshot(doc)
	snap := domain.BuildSnapshot(dets, meta.Metadata.Region, p.clock.Now())
	if meta.Metadata.GeneratedAt != "" {
		snap.Metadata.GeneratedAt = meta.Metadata.GeneratedAt
	}

	p.setCurrent(snap, "")
	p.logger.Info("snapshot restored",
		"count", len(dets),
		"region", snap.Metadata.Region,
		"generated_at", snap.Metadata.GeneratedAt,
	)
	return true
}

// RunCycle fetches every source, runs the processing stages for region, and
// makes the result current. On total failure the current snapshot is kept
// and a *CycleError is returned.
func (p *Pipeline) RunCycle(ctx context.Context, region string) (domain.Snapshot, error) {
	p.cycleMu.Lock()
	defer p.cycleMu.Unlock()

	start := p.clock.Now()
	cycleID := uuid.NewString()
	logger := p.logger.With("cycle_id", cycleID, "region", region)
	logger.Info("cycle started", "sources", len(p.sources))

	results := p.fetchAll(ctx, logger)

	var all []domain.Detection
	var failures []SourceFailure
	for i, r := range results {
		switch {
		case r.err != nil:
			failures = append(failures, SourceFailure{Sensor: p.sources[i].Sensor, Err: r.err})
		case len(r.dets) == 0:
			failures = append(failures, SourceFailure{Sensor: p.sources[i].Sensor, Err: errEmptySource})
		}
		all = append(all, r.dets...)
	}

	if len(all) == 0 {
		p.metrics.Cycles.WithLabelValues("no_detections").Inc()
		err := &CycleError{Region: region, Failures: failures}
		logger.Error("cycle produced no detections", "error", err)
		return domain.Snapshot{}, err
	}

	filtered := domain.FilterByRegion(all, region)
	p.metrics.DetectionsFiltered.Add(float64(len(all) - len(filtered)))

	deduped := domain.Dedupe(filtered)
	p.metrics.DuplicatesDropped.Add(float64(len(filtered) - len(deduped)))

	estimated := p.estimator.Estimate(deduped)
	enriched := domain.EnrichWithWind(ctx, estimated, p.wind, logger)

	snap := domain.BuildSnapshot(enriched, region, p.clock.Now())
	p.persist(ctx, snap, logger)
	p.setCurrent(snap, region)

	p.metrics.Cycles.WithLabelValues("success").Inc()
	p.metrics.CycleDuration.Observe(p.clock.Since(start).Seconds())
	logger.Info("cycle complete",
		"fetched", len(all),
		"in_region", len(filtered),
		"count", len(enriched),
	)

	if p.publisher != nil {
		if err := p.publisher.Publish(ctx, snap, cycleID); err != nil {
			logger.Error("snapshot publish failed", "error", err)
		}
	}
	return snap, nil
}

// Run restores the persisted snapshot, runs a cycle immediately, and then one
// per refresh interval until ctx is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "region", p.Region(), "interval", p.interval, "sources", len(p.sources))
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	p.Restore(ctx)
	p.scheduledCycle(ctx)

	if p.interval <= 0 {
		<-ctx.Done()
		p.logger.Info("pipeline stopping", "reason", ctx.Err())
		return nil
	}

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			p.scheduledCycle(ctx)
		}
	}
}

func (p *Pipeline) scheduledCycle(ctx context.Context) {
	if _, err := p.RunCycle(ctx, p.Region()); err != nil && ctx.Err() == nil {
		p.logger.Warn("scheduled cycle failed, keeping previous snapshot", "error", err)
	}
}

type sourceResult struct {
	dets []domain.Detection
	err  error
}

// fetchAll fetches every source concurrently. Each result lands in the slot
// matching its source so concatenation order is stable.
func (p *Pipeline) fetchAll(ctx context.Context, logger *slog.Logger) []sourceResult {
	results := make([]sourceResult, len(p.sources))
	var g errgroup.Group
	for i, src := range p.sources {
		g.Go(func() error {
			results[i] = p.fetchSource(ctx, src, logger)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // per-source errors are carried in results
	return results
}

func (p *Pipeline) fetchSource(ctx context.Context, src Source, logger *slog.Logger) sourceResult {
	fetchCtx := ctx
	if p.fetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, p.fetchTimeout)
		defer cancel()
	}

	sensor := string(src.Sensor)
	text, err := p.fetcher.FetchText(fetchCtx, src.URL)
	outcome := domain.FetchOutcome(err)
	p.metrics.FetchRequests.WithLabelValues(sensor, outcome).Inc()
	if err != nil {
		logger.Warn("source fetch failed", "source", sensor, "outcome", outcome, "error", err)
		return sourceResult{err: err}
	}

	dets, stats := domain.ParseWithStats(text, src.Sensor)
	p.metrics.RowsParsed.WithLabelValues(sensor).Add(float64(stats.Parsed))
	p.metrics.RowsSkipped.WithLabelValues(sensor).Add(float64(stats.Skipped))
	logger.Info("source fetched", "source", sensor, "count", len(dets), "skipped", stats.Skipped)
	return sourceResult{dets: dets}
}

func (p *Pipeline) persist(ctx context.Context, snap domain.Snapshot, logger *slog.Logger) {
	doc, err := domain.MarshalSnapshot(snap)
	if err == nil {
		err = p.store.Write(ctx, doc)
	}
	if err != nil {
		p.metrics.SnapshotWrites.WithLabelValues("error").Inc()
		logger.Error("snapshot write failed", "error", err)
		return
	}
	p.metrics.SnapshotWrites.WithLabelValues("success").Inc()
}

// setCurrent installs snap as the served snapshot. A non-empty region also
// becomes the region for scheduled cycles.
func (p *Pipeline) setCurrent(snap domain.Snapshot, region string) {
	p.mu.Lock()
	p.current = &snap
	if region != "" {
		p.region = region
	}
	p.mu.Unlock()

	p.metrics.SnapshotDetections.Set(float64(len(snap.Features)))
	p.ready.Store(true)
}
