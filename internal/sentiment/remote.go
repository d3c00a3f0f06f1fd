package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"github.com/gauthierbraillon/creatorpulse/internal/metrics"
)

// ErrScorerUnavailable is returned without a request while the breaker is open.
var ErrScorerUnavailable = errors.New("remote scorer unavailable")

// HTTPClient interface for making HTTP requests (allows injection for testing).
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// RemoteOption configures the RemoteScorer.
type RemoteOption func(*RemoteScorer)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient HTTPClient) RemoteOption {
	return func(s *RemoteScorer) {
		s.httpClient = httpClient
	}
}

// WithBreaker opens a circuit breaker after failures consecutive scoring
// errors and keeps it open for openFor. failures == 0 disables it.
func WithBreaker(failures uint32, openFor time.Duration) RemoteOption {
	return func(s *RemoteScorer) {
		s.breakerFailures = failures
		s.breakerOpenFor = openFor
	}
}

// WithRemoteLogger sets the logger used for breaker transitions.
func WithRemoteLogger(logger *slog.Logger) RemoteOption {
	return func(s *RemoteScorer) {
		s.logger = logger
	}
}

// RemoteScorer asks an external polarity model for a score.
type RemoteScorer struct {
	endpoint        string
	httpClient      HTTPClient
	breakerFailures uint32
	breakerOpenFor  time.Duration
	breaker         *gobreaker.CircuitBreaker
	logger          *slog.Logger
}

// NewRemoteScorer creates a scorer that POSTs to endpoint.
func NewRemoteScorer(endpoint string, opts ...RemoteOption) *RemoteScorer {
	s := &RemoteScorer{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.breakerFailures > 0 {
		threshold := s.breakerFailures
		s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "scorer",
			Timeout: s.breakerOpenFor,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				metrics.ScorerBreakerStateChanges.WithLabelValues(to.String()).Inc()
				s.logger.Warn("scorer breaker state changed", "from", from.String(), "to", to.String())
			},
		})
	}
	return s
}

type scoreRequest struct {
	ContentID string `json:"content_id"`
	Text      string `json:"text"`
}

type scoreResponse struct {
	ContentID      string   `json:"content_id"`
	SentimentScore *float64 `json:"sentiment_score"`
	SentimentLabel string   `json:"sentiment_label"`
	Confidence     float64  `json:"confidence"`
}

// Score implements Scorer. While the breaker is open it fails without
// calling the model, and the classifier files the comment as neutral.
func (s *RemoteScorer) Score(ctx context.Context, text string) (float64, error) {
	if s.breaker == nil {
		return s.score(ctx, text)
	}
	out, err := s.breaker.Execute(func() (interface{}, error) {
		return s.score(ctx, text)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return 0, fmt.Errorf("%w: %v", ErrScorerUnavailable, err)
	}
	if err != nil {
		return 0, err
	}
	return out.(float64), nil
}

func (s *RemoteScorer) score(ctx context.Context, text string) (float64, error) {
	payload, err := json.Marshal(scoreRequest{ContentID: uuid.NewString(), Text: text})
	if err != nil {
		return 0, fmt.Errorf("failed to encode score request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("failed to create score request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("score request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return 0, fmt.Errorf("scorer returned status %d", resp.StatusCode)
	}

	var out scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("failed to decode score response: %w", err)
	}
	if out.SentimentScore == nil {
		return 0, fmt.Errorf("score response has no sentiment_score")
	}
	score := *out.SentimentScore
	if math.IsNaN(score) || score < -1 || score > 1 {
		return 0, fmt.Errorf("scorer returned %v outside [-1, 1]", score)
	}
	return score, nil
}
