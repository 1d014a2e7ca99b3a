package site

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/handbook/internal/config"
	"git.home.luguber.info/inful/handbook/internal/gitinfo"
	"git.home.luguber.info/inful/handbook/internal/history"
	"git.home.luguber.info/inful/handbook/internal/linkcheck"
	"git.home.luguber.info/inful/handbook/internal/logfields"
	"git.home.luguber.info/inful/handbook/internal/metrics"
	"git.home.luguber.info/inful/handbook/internal/theme"
	"git.home.luguber.info/inful/handbook/internal/version"
)

// Outcome is the final state of a build.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeWarning  Outcome = "warning"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// Report summarizes a build.
type Report struct {
	BuildID string
	Start   time.Time
	End     time.Time
	Outcome Outcome

	Locales             []string
	Pages               int
	Warnings            int
	BrokenLinks         int
	BrokenMarkdownLinks int
	OutputDir           string
	OutputHash          string
	StageDurations      map[StageName]time.Duration
}

// Duration is the wall time of the build.
func (r *Report) Duration() time.Duration { return r.End.Sub(r.Start) }

// Builder runs builds for one configuration. A Builder may run any number
// of builds, one at a time.
type Builder struct {
	cfg        *config.Config
	logger     *slog.Logger
	recorder   metrics.Recorder
	history    history.Store
	publisher  linkcheck.Publisher
	liveReload string
}

// NewBuilder returns a builder for cfg with logging to slog.Default and no
// metrics, history or event publishing.
func NewBuilder(cfg *config.Config) *Builder {
	return &Builder{
		cfg:      cfg,
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
	}
}

// WithLogger sets the logger.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	if l != nil {
		b.logger = l
	}
	return b
}

// WithRecorder sets the metrics recorder.
func (b *Builder) WithRecorder(r metrics.Recorder) *Builder {
	if r != nil {
		b.recorder = r
	}
	return b
}

// WithHistory records every build in s.
func (b *Builder) WithHistory(s history.Store) *Builder {
	b.history = s
	return b
}

// WithPublisher publishes broken links through p instead of connecting to
// the NATS server named by link_events.
func (b *Builder) WithPublisher(p linkcheck.Publisher) *Builder {
	b.publisher = p
	return b
}

// WithLiveReload injects a live reload script subscribing to endpoint into
// every page. An empty endpoint disables it.
func (b *Builder) WithLiveReload(endpoint string) *Builder {
	b.liveReload = endpoint
	return b
}

// Config returns the configuration the builder was created with.
func (b *Builder) Config() *config.Config { return b.cfg }

// buildState carries what the stages of one build share.
type buildState struct {
	cfg    *config.Config
	report *Report
	logger *slog.Logger

	theme   *theme.Theme
	locales []*localeSite
	git     *gitinfo.Repo
	static  []staticFile

	pages  []*Page
	routes map[string]*Page
}

// Build runs all stages and writes the site to the output directory. The
// report is returned even when the build fails.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	report := &Report{
		BuildID:        history.NewBuildID(),
		Start:          time.Now(),
		OutputDir:      b.cfg.OutputDir(),
		StageDurations: map[StageName]time.Duration{},
	}
	bs := &buildState{
		cfg:    b.cfg,
		report: report,
		logger: b.logger.With(logfields.BuildID(report.BuildID)),
		routes: map[string]*Page{},
	}
	bs.logger.Info("Starting build", "version", version.Version, logfields.Path(report.OutputDir))

	err := b.runStages(ctx, bs, b.stages())
	report.End = time.Now()

	switch {
	case err != nil && errors.Is(err, context.Canceled), err != nil && errors.Is(err, context.DeadlineExceeded):
		report.Outcome = OutcomeCanceled
	case err != nil:
		report.Outcome = OutcomeFailed
	case report.Warnings > 0:
		report.Outcome = OutcomeWarning
	default:
		report.Outcome = OutcomeSuccess
	}

	b.recorder.ObserveBuildDuration(report.Duration())
	b.recorder.IncBuildOutcome(metrics.BuildOutcomeLabel(report.Outcome))
	if err == nil {
		b.recorder.SetPages(report.Pages)
	}
	b.recordHistory(ctx, report, err)

	if err != nil {
		bs.logger.Error("Build failed",
			logfields.Error(err),
			logfields.DurationMS(float64(report.Duration().Milliseconds())))
		return report, err
	}
	bs.logger.Info("Build complete",
		"pages", report.Pages,
		"warnings", report.Warnings,
		"broken_links", report.BrokenLinks,
		"output_hash", report.OutputHash,
		logfields.DurationMS(float64(report.Duration().Milliseconds())))
	return report, nil
}

func (b *Builder) recordHistory(ctx context.Context, report *Report, buildErr error) {
	if b.history == nil {
		return
	}
	rec := history.Record{
		BuildID:     report.BuildID,
		StartedAt:   report.Start,
		Duration:    report.Duration(),
		Outcome:     history.OutcomeSuccess,
		Pages:       report.Pages,
		BrokenLinks: report.BrokenLinks + report.BrokenMarkdownLinks,
		Warnings:    report.Warnings,
		OutputHash:  report.OutputHash,
		Version:     version.Version,
	}
	if buildErr != nil {
		rec.Outcome = history.OutcomeFailed
		rec.Error = buildErr.Error()
	}
	if err := b.history.Record(context.WithoutCancel(ctx), rec); err != nil {
		b.logger.Warn("Failed to record build history", logfields.BuildID(report.BuildID), logfields.Error(err))
	}
}
