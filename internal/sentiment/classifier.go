// Package sentiment sorts comments into positive, negative and neutral buckets.
//
// This package enables creatorpulse to:
// - Score cleaned comment text with an injected polarity Scorer
// - Keep the original comment text in the output buckets
// - Contain per-comment failures by classifying them as neutral
package sentiment

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/gauthierbraillon/creatorpulse/internal/metrics"
)

const (
	// DefaultThreshold is the sign test: any positive score is positive,
	// any negative score is negative, and only exactly zero is neutral.
	DefaultThreshold = 0.0

	// DeadbandThreshold treats scores within ±0.05 as neutral.
	DeadbandThreshold = 0.05
)

// Bucket is a sentiment category.
type Bucket string

const (
	Positive Bucket = "positive"
	Negative Bucket = "negative"
	Neutral  Bucket = "neutral"
)

// Scorer returns a compound polarity score in [-1, 1] for cleaned text.
type Scorer interface {
	Score(ctx context.Context, text string) (float64, error)
}

// ScorerFunc adapts a function to the Scorer interface.
type ScorerFunc func(ctx context.Context, text string) (float64, error)

// Score calls f(ctx, text).
func (f ScorerFunc) Score(ctx context.Context, text string) (float64, error) {
	return f(ctx, text)
}

// Cleaner normalizes raw comment text before scoring.
type Cleaner interface {
	Clean(text string) string
}

// CleanerFunc adapts a function to the Cleaner interface.
type CleanerFunc func(text string) string

// Clean calls f(text).
func (f CleanerFunc) Clean(text string) string {
	return f(text)
}

// Counts holds bucket sizes. Positive+Negative+Neutral always equals Total.
type Counts struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
	Total    int `json:"total"`
}

// Result is a stable partition of the input comments.
type Result struct {
	Positive []string `json:"positive"`
	Negative []string `json:"negative"`
	Neutral  []string `json:"neutral"`
	Counts   Counts   `json:"counts"`
}

// Option configures the Classifier.
type Option func(*Classifier)

// WithCleaner sets the text cleaner applied before scoring.
func WithCleaner(cleaner Cleaner) Option {
	return func(c *Classifier) {
		if cleaner != nil {
			c.cleaner = cleaner
		}
	}
}

// WithThreshold sets the classification deadband. Values outside [0, 1) are ignored.
func WithThreshold(threshold float64) Option {
	return func(c *Classifier) {
		if threshold >= 0 && threshold < 1 {
			c.threshold = threshold
		}
	}
}

// WithLogger sets the logger used for contained scoring failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Classifier) {
		c.logger = logger
	}
}

// Classifier assigns each comment to exactly one bucket.
type Classifier struct {
	scorer    Scorer
	cleaner   Cleaner
	threshold float64
	logger    *slog.Logger
}

// NewClassifier creates a classifier around a polarity scorer. Without
// WithCleaner it uses TextCleaner; without WithThreshold it uses DefaultThreshold.
func NewClassifier(scorer Scorer, opts ...Option) *Classifier {
	c := &Classifier{
		scorer:    scorer,
		cleaner:   NewTextCleaner(),
		threshold: DefaultThreshold,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Threshold returns the deadband in use.
func (c *Classifier) Threshold() float64 {
	return c.threshold
}

// Classify partitions comments. Order within each bucket follows input order,
// and the stored text is always the original, uncleaned comment.
func (c *Classifier) Classify(ctx context.Context, comments []string) *Result {
	res := &Result{
		Positive: []string{},
		Negative: []string{},
		Neutral:  []string{},
	}

	for _, comment := range comments {
		switch c.bucket(ctx, comment) {
		case Positive:
			res.Positive = append(res.Positive, comment)
		case Negative:
			res.Negative = append(res.Negative, comment)
		default:
			res.Neutral = append(res.Neutral, comment)
		}
	}

	res.Counts = Counts{
		Positive: len(res.Positive),
		Negative: len(res.Negative),
		Neutral:  len(res.Neutral),
		Total:    len(comments),
	}

	metrics.CommentsClassified.WithLabelValues(string(Positive)).Add(float64(res.Counts.Positive))
	metrics.CommentsClassified.WithLabelValues(string(Negative)).Add(float64(res.Counts.Negative))
	metrics.CommentsClassified.WithLabelValues(string(Neutral)).Add(float64(res.Counts.Neutral))

	return res
}

func (c *Classifier) bucket(ctx context.Context, comment string) Bucket {
	score, err := c.score(ctx, comment)
	if err != nil {
		c.logger.Debug("comment scored as neutral", "error", err)
		return Neutral
	}
	return BucketOf(score, c.threshold)
}

// score never panics; cleaner and scorer panics come back as errors.
func (c *Classifier) score(ctx context.Context, comment string) (score float64, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("scoring panicked: %v", rec)
		}
	}()

	score, err = c.scorer.Score(ctx, c.cleaner.Clean(comment))
	if err != nil {
		return 0, err
	}
	if math.IsNaN(score) || score < -1 || score > 1 {
		return 0, fmt.Errorf("score %v outside [-1, 1]", score)
	}
	return score, nil
}

// BucketOf applies the threshold rule: positive iff score > threshold,
// negative iff score < -threshold, neutral otherwise.
func BucketOf(score, threshold float64) Bucket {
	switch {
	case score > threshold:
		return Positive
	case score < -threshold:
		return Negative
	default:
		return Neutral
	}
}
