package aggregator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/gauthierbraillon/creatorpulse/internal/metrics"
	"github.com/gauthierbraillon/creatorpulse/internal/sentiment"
	"github.com/gauthierbraillon/creatorpulse/internal/source"
)

const (
	defaultConcurrency  = 4
	defaultFetchTimeout = 20 * time.Second
)

// Classifier partitions comments into sentiment buckets.
type Classifier interface {
	Classify(ctx context.Context, comments []string) *sentiment.Result
}

// Option configures the Aggregator.
type Option func(*Aggregator)

// WithClock sets the clock used for report timestamps.
func WithClock(clock clockwork.Clock) Option {
	return func(a *Aggregator) {
		a.clock = clock
	}
}

// WithConcurrency sets how many locators are fetched at once. 1 is sequential.
func WithConcurrency(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// WithFetchTimeout bounds each individual fetch. 0 disables the bound.
func WithFetchTimeout(d time.Duration) Option {
	return func(a *Aggregator) {
		if d >= 0 {
			a.fetchTimeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Aggregator) {
		a.logger = logger
	}
}

// Aggregator runs creator analyses. It keeps no state between calls.
type Aggregator struct {
	fetcher      source.Fetcher
	classifier   Classifier
	clock        clockwork.Clock
	concurrency  int
	fetchTimeout time.Duration
	logger       *slog.Logger
}

// New creates an Aggregator.
func New(fetcher source.Fetcher, classifier Classifier, opts ...Option) *Aggregator {
	a := &Aggregator{
		fetcher:      fetcher,
		classifier:   classifier,
		clock:        clockwork.NewRealClock(),
		concurrency:  defaultConcurrency,
		fetchTimeout: defaultFetchTimeout,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// sourceOutcome is what one locator produced, kept per input index so the
// merge runs serially in input order.
type sourceOutcome struct {
	locator string
	title   string
	count   int
	result  *sentiment.Result
	err     error
}

// AnalyzeCreator processes all locators, then all manual entries, and returns
// the report. A failed locator adds one line to Errors and never aborts the
// batch. The report is always returned; Report.Err tells whether it holds data.
func (a *Aggregator) AnalyzeCreator(ctx context.Context, name string, locators []string, manual []ManualEntry) *Report {
	report := &Report{
		CreatorName: name,
		Timestamp:   a.clock.Now(),
		Stats:       newStats(),
		Errors:      []string{},
	}

	for _, out := range a.fetchAll(ctx, locators) {
		if out.err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("Error fetching %s: %s", out.locator, out.err.Error()))
			continue
		}
		report.Stats.merge(out.locator, out.title, source.TagOf(out.locator), out.count, out.result)
	}

	for _, entry := range manual {
		comments, tag, title := entry.normalized()
		if len(comments) == 0 {
			continue
		}
		res := a.classifier.Classify(ctx, comments)
		report.Stats.merge(ManualLocator, title, tag, len(comments), res)
	}

	report.Business = Evaluate(report.Stats)

	metrics.CreatorAnalyses.WithLabelValues(string(report.Business.Category)).Inc()
	a.logger.Info("creator analysis finished",
		"creator", name,
		"sources", len(report.Stats.Sources),
		"errors", len(report.Errors),
		"total_comments", report.Stats.TotalCount,
		"category", report.Business.Category,
		"overall_score", report.Business.OverallScore,
	)

	return report
}

// fetchAll fetches and classifies non-blank locators with bounded
// concurrency. Outcomes come back in input order.
func (a *Aggregator) fetchAll(ctx context.Context, locators []string) []sourceOutcome {
	targets := make([]string, 0, len(locators))
	for _, loc := range locators {
		if strings.TrimSpace(loc) != "" {
			targets = append(targets, loc)
		}
	}

	outcomes := make([]sourceOutcome, len(targets))
	var g errgroup.Group
	g.SetLimit(a.concurrency)
	for i, loc := range targets {
		g.Go(func() error {
			outcomes[i] = a.fetchOne(ctx, loc)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

// fetchOne dispatches the trimmed locator; the outcome keeps the caller's
// string for errors and summaries.
func (a *Aggregator) fetchOne(ctx context.Context, locator string) sourceOutcome {
	out := sourceOutcome{locator: locator}

	fetchCtx := ctx
	if a.fetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, a.fetchTimeout)
		defer cancel()
	}

	res, err := a.fetcher.Fetch(fetchCtx, strings.TrimSpace(locator))
	if err != nil {
		out.err = err
		return out
	}
	if res == nil {
		out.err = fmt.Errorf("no result returned")
		return out
	}

	out.title = res.Title
	out.count = len(res.Comments)
	out.result = a.classifier.Classify(ctx, res.Comments)
	return out
}

// AnalyzeSource fetches and classifies a single locator. Fetch failures are
// returned as they are; a source without comments yields ErrNoComments.
func (a *Aggregator) AnalyzeSource(ctx context.Context, locator string) (*SourceAnalysis, error) {
	out := a.fetchOne(ctx, locator)
	if out.err != nil {
		return nil, out.err
	}
	if out.count == 0 {
		return nil, ErrNoComments
	}
	return &SourceAnalysis{
		Title:    out.title,
		Platform: source.Detect(locator),
		Results:  out.result,
	}, nil
}
