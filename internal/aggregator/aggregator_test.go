package aggregator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/gauthierbraillon/creatorpulse/internal/sentiment"
	"github.com/gauthierbraillon/creatorpulse/internal/source"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// prefixClassifier scores "+..." positive, "-..." negative and anything else neutral.
func prefixClassifier() *sentiment.Classifier {
	scorer := sentiment.ScorerFunc(func(_ context.Context, text string) (float64, error) {
		switch {
		case strings.HasPrefix(text, "+"):
			return 0.8, nil
		case strings.HasPrefix(text, "-"):
			return -0.8, nil
		}
		return 0, nil
	})
	return sentiment.NewClassifier(scorer,
		sentiment.WithCleaner(sentiment.CleanerFunc(func(s string) string { return s })),
		sentiment.WithLogger(quietLogger()),
	)
}

type fakeSource struct {
	result *source.Result
	err    error
	delay  time.Duration
}

func fakeFetcher(sources map[string]fakeSource) source.FetcherFunc {
	return func(ctx context.Context, locator string) (*source.Result, error) {
		s, ok := sources[locator]
		if !ok {
			return nil, &source.DispatchError{Locator: locator}
		}
		if s.delay > 0 {
			select {
			case <-time.After(s.delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		return s.result, s.err
	}
}

func newTestAggregator(fetcher source.Fetcher, opts ...Option) *Aggregator {
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	return New(fetcher, prefixClassifier(), opts...)
}

const (
	ytURL     = "https://www.youtube.com/watch?v=abc"
	redditURL = "https://www.reddit.com/r/x/comments/1/t"
	igURL     = "https://www.instagram.com/p/B/"
)

func assertInvariant(t *testing.T, stats Stats) {
	t.Helper()
	buckets := len(stats.Positive) + len(stats.Negative) + len(stats.Neutral)
	if buckets != stats.TotalCount {
		t.Errorf("bucket sizes %d should equal total_count %d", buckets, stats.TotalCount)
	}
	breakdown := 0
	for _, c := range stats.PlatformBreakdown {
		breakdown += c.Total
		if c.Positive+c.Negative+c.Neutral != c.Total {
			t.Errorf("platform counts should add up: %+v", c)
		}
	}
	if breakdown != stats.TotalCount {
		t.Errorf("platform breakdown total %d should equal total_count %d", breakdown, stats.TotalCount)
	}
}

func TestAC200_Creator_PartialFailureKeepsOtherSources(t *testing.T) {
	fetcher := fakeFetcher(map[string]fakeSource{
		ytURL:     {result: &source.Result{Title: "video", Comments: []string{"+a", "-b", "c"}}},
		redditURL: {err: source.NewFetchError(source.PlatformReddit, source.KindBlocked, nil, "Failed to fetch Reddit data: Status 429")},
		igURL:     {result: &source.Result{Title: "post", Comments: []string{"+d", "+e"}}},
	})

	report := newTestAggregator(fetcher).AnalyzeCreator(context.Background(), "Creator", []string{ytURL, redditURL, igURL}, nil)

	if report.Stats.TotalCount != 5 {
		t.Errorf("total should count only the working sources, got %d", report.Stats.TotalCount)
	}
	if len(report.Errors) != 1 {
		t.Fatalf("expected exactly one error, got %v", report.Errors)
	}
	want := "Error fetching " + redditURL + ": Failed to fetch Reddit data: Status 429"
	if report.Errors[0] != want {
		t.Errorf("error should name the broken locator\n got: %s\nwant: %s", report.Errors[0], want)
	}
	if len(report.Stats.Sources) != 2 {
		t.Errorf("expected 2 source summaries, got %d", len(report.Stats.Sources))
	}
	if err := report.Err(); err != nil {
		t.Errorf("report with data should not fail: %v", err)
	}
	assertInvariant(t, report.Stats)
}

func TestAC201_Creator_ZeroDataIsInsufficient(t *testing.T) {
	fetcher := fakeFetcher(map[string]fakeSource{
		ytURL:     {err: errors.New("timeout")},
		redditURL: {err: errors.New("403")},
	})

	report := newTestAggregator(fetcher).AnalyzeCreator(context.Background(), "Nobody",
		[]string{ytURL, redditURL, "https://example.com/x"}, nil)

	if report.Stats.TotalCount != 0 {
		t.Errorf("expected no comments, got %d", report.Stats.TotalCount)
	}
	if report.Business.Category != CategoryInsufficient {
		t.Errorf("expected insufficient category, got %s", report.Business.Category)
	}
	if len(report.Errors) != 3 {
		t.Errorf("every failed locator should be reported, got %v", report.Errors)
	}
	if !strings.Contains(report.Errors[2], "unsupported platform") {
		t.Errorf("unknown host should be reported as unsupported, got %q", report.Errors[2])
	}
	if !errors.Is(report.Err(), ErrNoUsableData) {
		t.Errorf("zero-data report should surface ErrNoUsableData, got %v", report.Err())
	}
}

func TestAC202_Creator_ConcurrentFetchesKeepInputOrder(t *testing.T) {
	locators := make([]string, 6)
	sources := make(map[string]fakeSource)
	for i := range locators {
		locators[i] = fmt.Sprintf("https://www.youtube.com/watch?v=v%d", i)
		// earlier locators finish last
		s := fakeSource{delay: time.Duration(len(locators)-i) * 5 * time.Millisecond}
		if i%3 == 1 {
			s.err = fmt.Errorf("failure %d", i)
		} else {
			s.result = &source.Result{Title: fmt.Sprintf("video %d", i), Comments: []string{"+x"}}
		}
		sources[locators[i]] = s
	}

	report := newTestAggregator(fakeFetcher(sources), WithConcurrency(6)).
		AnalyzeCreator(context.Background(), "C", locators, nil)

	var titles []string
	for _, s := range report.Stats.Sources {
		titles = append(titles, s.Title)
	}
	if got := strings.Join(titles, ","); got != "video 0,video 2,video 3,video 5" {
		t.Errorf("source summaries should follow input order, got %s", got)
	}
	if len(report.Errors) != 2 || !strings.Contains(report.Errors[0], "v1") || !strings.Contains(report.Errors[1], "v4") {
		t.Errorf("errors should follow input order, got %v", report.Errors)
	}
}

func TestAC202_Creator_ConcurrencyIsBounded(t *testing.T) {
	var inFlight, peak int32
	fetcher := source.FetcherFunc(func(ctx context.Context, locator string) (*source.Result, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return &source.Result{Comments: []string{"x"}}, nil
	})

	locators := make([]string, 8)
	for i := range locators {
		locators[i] = fmt.Sprintf("https://youtu.be/v%d", i)
	}
	newTestAggregator(fetcher, WithConcurrency(2)).AnalyzeCreator(context.Background(), "C", locators, nil)

	if p := atomic.LoadInt32(&peak); p > 2 {
		t.Errorf("at most 2 fetches should run at once, saw %d", p)
	}
}

func TestAC203_Creator_FetchTimeoutIsPerSource(t *testing.T) {
	fetcher := fakeFetcher(map[string]fakeSource{
		ytURL:     {delay: time.Second, result: &source.Result{Comments: []string{"+late"}}},
		redditURL: {result: &source.Result{Title: "fast", Comments: []string{"+quick"}}},
	})

	report := newTestAggregator(fetcher, WithFetchTimeout(20*time.Millisecond)).
		AnalyzeCreator(context.Background(), "C", []string{ytURL, redditURL}, nil)

	if report.Stats.TotalCount != 1 {
		t.Errorf("slow source should not block the fast one, total %d", report.Stats.TotalCount)
	}
	if len(report.Errors) != 1 || !strings.HasPrefix(report.Errors[0], "Error fetching "+ytURL) {
		t.Errorf("slow source should be reported, got %v", report.Errors)
	}
}

func TestAC204_Creator_SkipsEmptyLocators(t *testing.T) {
	fetcher := fakeFetcher(map[string]fakeSource{
		ytURL: {result: &source.Result{Comments: []string{"+a"}}},
	})

	report := newTestAggregator(fetcher).AnalyzeCreator(context.Background(), "C", []string{"", "  ", ytURL}, nil)

	if len(report.Errors) != 0 {
		t.Errorf("empty locators should be skipped silently, got %v", report.Errors)
	}
	if report.Stats.TotalCount != 1 {
		t.Errorf("expected 1 comment, got %d", report.Stats.TotalCount)
	}
}

func TestAC205_Creator_ManualEntriesAfterLocators(t *testing.T) {
	fetcher := fakeFetcher(map[string]fakeSource{
		redditURL: {result: &source.Result{Title: "thread", Comments: []string{"-a"}}},
	})
	manual := []ManualEntry{
		{Platform: "instagram", Title: "Launch post", Text: "+love\n\n -meh \n"},
		{Platform: "youtube", Text: "   \n\n"},
		{Text: "neutral one"},
		{Platform: "YouTube", Title: "Shorts", Text: "+great"},
	}

	report := newTestAggregator(fetcher).AnalyzeCreator(context.Background(), "C", []string{redditURL}, manual)

	if len(report.Stats.Sources) != 4 {
		t.Fatalf("blank manual entries should be skipped, got %d sources", len(report.Stats.Sources))
	}
	first := report.Stats.Sources[0]
	if first.URL != redditURL || first.Platform != source.TagReddit {
		t.Errorf("locators should be processed before manual entries, got %+v", first)
	}
	want := []SourceSummary{
		{URL: ManualLocator, Title: "Launch post (instagram)", Platform: source.TagOther,
			SentimentSummary: sentiment.Counts{Positive: 1, Negative: 1, Total: 2}},
		{URL: ManualLocator, Title: "Manual Entry (other)", Platform: source.TagOther,
			SentimentSummary: sentiment.Counts{Neutral: 1, Total: 1}},
		{URL: ManualLocator, Title: "Shorts (YouTube)", Platform: source.TagYouTube,
			SentimentSummary: sentiment.Counts{Positive: 1, Total: 1}},
	}
	for i, w := range want {
		if got := report.Stats.Sources[i+1]; got != w {
			t.Errorf("manual source %d:\n got %+v\nwant %+v", i, got, w)
		}
	}
	if report.Stats.TotalCount != 5 {
		t.Errorf("expected 5 comments, got %d", report.Stats.TotalCount)
	}
	if report.Stats.Negative[1] != "-meh" {
		t.Errorf("manual lines should be trimmed, got %q", report.Stats.Negative[1])
	}
	assertInvariant(t, report.Stats)
}

func TestAC206_Creator_PlatformBreakdown(t *testing.T) {
	fetcher := fakeFetcher(map[string]fakeSource{
		ytURL:     {result: &source.Result{Comments: []string{"+a", "+b"}}},
		redditURL: {result: &source.Result{Comments: []string{"-c"}}},
		igURL:     {result: &source.Result{Comments: []string{"d", "+e"}}},
	})

	report := newTestAggregator(fetcher).AnalyzeCreator(context.Background(), "C", []string{ytURL, redditURL, igURL}, nil)

	b := report.Stats.PlatformBreakdown
	if b[source.TagYouTube] != (sentiment.Counts{Positive: 2, Total: 2}) {
		t.Errorf("unexpected youtube breakdown %+v", b[source.TagYouTube])
	}
	if b[source.TagReddit] != (sentiment.Counts{Negative: 1, Total: 1}) {
		t.Errorf("unexpected reddit breakdown %+v", b[source.TagReddit])
	}
	if b[source.TagOther] != (sentiment.Counts{Positive: 1, Neutral: 1, Total: 2}) {
		t.Errorf("instagram should land in other, got %+v", b[source.TagOther])
	}
	assertInvariant(t, report.Stats)
}

func TestAC206_Creator_BreakdownAlwaysHasTrackedTags(t *testing.T) {
	report := newTestAggregator(fakeFetcher(nil)).AnalyzeCreator(context.Background(), "C", nil, nil)

	for _, tag := range source.Tags {
		if _, ok := report.Stats.PlatformBreakdown[tag]; !ok {
			t.Errorf("breakdown should include %s even with no data", tag)
		}
	}
	if report.Errors == nil || report.Stats.Sources == nil {
		t.Error("empty report should use empty slices, not nil")
	}
}

func TestAC207_Creator_TimestampFromClock(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(at)

	report := newTestAggregator(fakeFetcher(nil), WithClock(clock)).AnalyzeCreator(context.Background(), "C", nil, nil)

	if !report.Timestamp.Equal(at) {
		t.Errorf("expected timestamp %v, got %v", at, report.Timestamp)
	}
	if report.CreatorName != "C" {
		t.Errorf("unexpected creator name %q", report.CreatorName)
	}
}

func TestAC208_Source_AnalyzesSingleLocator(t *testing.T) {
	fetcher := fakeFetcher(map[string]fakeSource{
		ytURL:     {result: &source.Result{Title: "video", Comments: []string{"+a", "-b"}}},
		redditURL: {result: &source.Result{Title: "empty", Comments: []string{}}},
		igURL:     {err: source.NewFetchError(source.PlatformInstagram, source.KindBlocked, nil, "restricted")},
	})
	agg := newTestAggregator(fetcher)

	res, err := agg.AnalyzeSource(context.Background(), " "+ytURL+" ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Title != "video" || res.Platform != source.PlatformYouTube || res.Results.Counts.Total != 2 {
		t.Errorf("unexpected analysis %+v", res)
	}

	if _, err := agg.AnalyzeSource(context.Background(), redditURL); !errors.Is(err, ErrNoComments) {
		t.Errorf("source without comments should be ErrNoComments, got %v", err)
	}

	_, err = agg.AnalyzeSource(context.Background(), igURL)
	if source.KindOf(err) != source.KindBlocked {
		t.Errorf("fetch errors should pass through, got %v", err)
	}
}

func TestAC209_Creator_FailingLocatorsDoNotBlockHealthyOnes(t *testing.T) {
	const healthy = "https://www.instagram.com/p/public/"
	reg := source.NewRegistry(source.WithLogger(quietLogger()))
	reg.Register(source.PlatformInstagram, source.FetcherFunc(func(_ context.Context, locator string) (*source.Result, error) {
		if locator == healthy {
			return &source.Result{Title: "post", Comments: []string{"+a", "-b"}}, nil
		}
		return nil, source.NewFetchError(source.PlatformInstagram, source.KindBlocked, nil, "Instagram requires login. Copy & Paste manually.")
	}))
	locators := make([]string, 0, 7)
	for i := 0; i < 6; i++ {
		locators = append(locators, fmt.Sprintf("https://www.instagram.com/p/private%d/", i))
	}
	locators = append(locators, healthy)

	report := newTestAggregator(reg, WithConcurrency(1)).AnalyzeCreator(context.Background(), "C", locators, nil)

	if report.Stats.TotalCount != 2 {
		t.Errorf("user should still get the healthy post counted after failures on the same platform, got %d", report.Stats.TotalCount)
	}
	if len(report.Errors) != 6 {
		t.Fatalf("expected one error per failing locator, got %v", report.Errors)
	}
	for _, msg := range report.Errors {
		if !strings.Contains(msg, "Copy & Paste manually") {
			t.Errorf("user should see the adapter's own message, got %q", msg)
		}
	}
	assertInvariant(t, report.Stats)
}

func TestAC210_Creator_ReportsLocatorsAsSupplied(t *testing.T) {
	fetcher := fakeFetcher(map[string]fakeSource{
		ytURL:     {result: &source.Result{Title: "video", Comments: []string{"+a"}}},
		redditURL: {err: source.NewFetchError(source.PlatformReddit, source.KindBlocked, nil, "Status 429")},
	})
	paddedYT := "  " + ytURL + "\t"
	paddedReddit := " " + redditURL + " "

	report := newTestAggregator(fetcher).AnalyzeCreator(context.Background(), "C", []string{paddedYT, paddedReddit}, nil)

	if len(report.Stats.Sources) != 1 || report.Stats.Sources[0].URL != paddedYT {
		t.Errorf("user should see the locator exactly as entered in the summary, got %+v", report.Stats.Sources)
	}
	if len(report.Errors) != 1 || report.Errors[0] != "Error fetching "+paddedReddit+": Status 429" {
		t.Errorf("user should see the locator exactly as entered in the error, got %v", report.Errors)
	}
}
