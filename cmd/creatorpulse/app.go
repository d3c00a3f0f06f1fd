package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gauthierbraillon/creatorpulse/internal/aggregator"
	"github.com/gauthierbraillon/creatorpulse/internal/config"
	"github.com/gauthierbraillon/creatorpulse/internal/events"
	"github.com/gauthierbraillon/creatorpulse/internal/instagram"
	"github.com/gauthierbraillon/creatorpulse/internal/logging"
	"github.com/gauthierbraillon/creatorpulse/internal/reddit"
	"github.com/gauthierbraillon/creatorpulse/internal/sentiment"
	"github.com/gauthierbraillon/creatorpulse/internal/session"
	"github.com/gauthierbraillon/creatorpulse/internal/source"
	"github.com/gauthierbraillon/creatorpulse/internal/youtube"
)

const (
	breakerOpenFor = 30 * time.Second
	scorerTimeout  = 10 * time.Second
)

// app holds the components shared by every command.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	classifier *sentiment.Classifier
	aggregator *aggregator.Aggregator
}

func loadApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := logging.InitLogger(cfg.LogLevel, cfg.LogFormat)

	classifier := sentiment.NewClassifier(newScorer(cfg, logger),
		sentiment.WithThreshold(cfg.SentimentThreshold),
		sentiment.WithLogger(logger),
	)

	agg := aggregator.New(newRegistry(cfg, logger), classifier,
		aggregator.WithConcurrency(cfg.MaxConcurrentFetches),
		aggregator.WithFetchTimeout(cfg.FetchTimeout),
		aggregator.WithLogger(logger),
	)

	return &app{cfg: cfg, logger: logger, classifier: classifier, aggregator: agg}, nil
}

// newScorer picks the remote model when configured. Its breaker stops a
// failing model from being called once per comment; skipped comments score neutral.
func newScorer(cfg *config.Config, logger *slog.Logger) sentiment.Scorer {
	if cfg.ScorerURL == "" {
		return sentiment.NewLexiconScorer()
	}
	return sentiment.NewRemoteScorer(cfg.ScorerURL,
		sentiment.WithHTTPClient(&http.Client{Timeout: scorerTimeout}),
		sentiment.WithBreaker(cfg.BreakerFailures, breakerOpenFor),
		sentiment.WithRemoteLogger(logger),
	)
}

// newRegistry gives each platform its own throttled client so one slow
// platform never delays another.
func newRegistry(cfg *config.Config, logger *slog.Logger) *source.Registry {
	reg := source.NewRegistry(source.WithLogger(logger))

	redditOpts := []reddit.ClientOption{
		reddit.WithHTTPClient(source.NewHTTPClient(cfg.FetchTimeout, cfg.PlatformRPS)),
		reddit.WithUserAgent(cfg.RedditUserAgent),
	}
	if cfg.RedditBaseURL != "" {
		redditOpts = append(redditOpts, reddit.WithBaseURL(cfg.RedditBaseURL))
	}
	reg.Register(source.PlatformReddit, reddit.NewClient(redditOpts...))

	youtubeOpts := []youtube.ClientOption{
		youtube.WithHTTPClient(source.NewHTTPClient(cfg.FetchTimeout, cfg.PlatformRPS)),
	}
	if cfg.YouTubeEndpoint != "" {
		youtubeOpts = append(youtubeOpts, youtube.WithBaseURL(cfg.YouTubeEndpoint))
	}
	reg.Register(source.PlatformYouTube, youtube.NewClient(cfg.YouTubeAPIKey, youtubeOpts...))

	instagramOpts := []instagram.ClientOption{
		instagram.WithHTTPClient(source.NewHTTPClient(cfg.FetchTimeout, cfg.PlatformRPS)),
		instagram.WithAppID(cfg.InstagramAppID),
	}
	if cfg.InstagramBaseURL != "" {
		instagramOpts = append(instagramOpts, instagram.WithBaseURL(cfg.InstagramBaseURL))
	}
	if cfg.InstagramAPIURL != "" {
		instagramOpts = append(instagramOpts, instagram.WithAPIURL(cfg.InstagramAPIURL))
	}
	reg.Register(source.PlatformInstagram, instagram.NewClient(instagramOpts...))

	logger.Debug("platform adapters registered", "platforms", reg.Platforms())
	return reg
}

// openSessionStore connects the configured backend. The returned func
// releases it.
func openSessionStore(ctx context.Context, cfg *config.Config) (session.Store, func(), error) {
	switch cfg.SessionBackend {
	case config.BackendRedis:
		rdb, err := session.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return session.NewRedisStore(rdb, cfg.SessionTTL), func() { _ = rdb.Close() }, nil
	case config.BackendS3:
		client, err := session.OpenS3(ctx, cfg.S3Region)
		if err != nil {
			return nil, nil, err
		}
		return session.NewS3Store(client, cfg.S3Bucket, cfg.S3Prefix), func() {}, nil
	default:
		return session.NewMemoryStore(), func() {}, nil
	}
}

// openPublisher connects to NATS when configured; otherwise events are dropped.
func openPublisher(cfg *config.Config, logger *slog.Logger) (events.Publisher, func(), error) {
	if cfg.NATSURL == "" {
		return events.Noop{}, func() {}, nil
	}
	nc, err := events.Connect(cfg.NATSURL, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect event bus: %w", err)
	}
	return events.NewNATSPublisher(nc, cfg.NATSSubject), func() { _ = nc.Drain() }, nil
}
