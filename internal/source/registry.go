package source

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gauthierbraillon/creatorpulse/internal/metrics"
)

// RegistryOption configures the Registry.
type RegistryOption func(*Registry)

// WithLogger sets the logger used for fetch failures.
func WithLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

// Registry is the dispatch table from platform to adapter. It keeps no
// per-platform failure state, so one locator's outcome never affects another.
type Registry struct {
	adapters map[Platform]Fetcher
	logger   *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		adapters: make(map[Platform]Fetcher),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register installs the adapter for a platform. Register all adapters
// before the first Fetch; the registry is read-only afterwards.
func (r *Registry) Register(p Platform, f Fetcher) {
	r.adapters[p] = f
}

// Platforms returns the registered platforms.
func (r *Registry) Platforms() []Platform {
	platforms := make([]Platform, 0, len(r.adapters))
	for p := range r.adapters {
		platforms = append(platforms, p)
	}
	return platforms
}

// Fetch dispatches the locator to its adapter. Every failure comes back as a
// *DispatchError or a *FetchError; adapter panics are contained.
func (r *Registry) Fetch(ctx context.Context, locator string) (*Result, error) {
	p := Detect(locator)
	adapter, ok := r.adapters[p]
	if !ok {
		metrics.FetchesTotal.WithLabelValues(string(p), "unsupported").Inc()
		return nil, &DispatchError{Locator: locator}
	}

	start := time.Now()
	res, err := safeFetch(ctx, p, adapter, locator)
	metrics.FetchDuration.WithLabelValues(string(p)).Observe(time.Since(start).Seconds())

	if err != nil {
		outcome := "error"
		if errors.Is(err, ErrThrottled) {
			outcome = "throttled"
			err = NewFetchError(p, KindBlocked, err, "%s request throttled: the local rate limit would not allow it before the fetch timeout", p)
		}
		err = asFetchError(p, err)
		metrics.FetchesTotal.WithLabelValues(string(p), outcome).Inc()
		r.logger.Warn("fetch failed", "locator", locator, "platform", p, "kind", KindOf(err), "error", err)
		return nil, err
	}

	metrics.FetchesTotal.WithLabelValues(string(p), "success").Inc()
	return res, nil
}

func safeFetch(ctx context.Context, p Platform, adapter Fetcher, locator string) (res *Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			res = nil
			err = NewFetchError(p, KindMalformed, nil, "%s adapter failed: %v", p, rec)
		}
	}()
	res, err = adapter.Fetch(ctx, locator)
	if err == nil && res == nil {
		return nil, NewFetchError(p, KindMalformed, nil, "%s adapter returned no result", p)
	}
	return res, err
}

// asFetchError makes sure raw transport errors never leave the registry.
func asFetchError(p Platform, err error) error {
	var fe *FetchError
	if errors.As(err, &fe) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewFetchError(p, KindNetwork, err, "%s request timed out", p)
	}
	return NewFetchError(p, KindNetwork, err, "%v", err)
}
