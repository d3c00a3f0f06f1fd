// Package aggregator combines classified comments from many sources into one
// creator report.
//
// This package enables creatorpulse to:
// - Fetch several locators and classify their comments
// - Fold manually pasted comments into the same statistics
// - Derive a brand-suitability recommendation from the totals
package aggregator

import (
	"errors"
	"time"

	"github.com/gauthierbraillon/creatorpulse/internal/sentiment"
	"github.com/gauthierbraillon/creatorpulse/internal/source"
)

// ManualLocator marks source summaries that came from pasted text.
const ManualLocator = "manual"

var (
	// ErrNoUsableData means every source failed or yielded nothing.
	ErrNoUsableData = errors.New("no usable data: could not fetch any comments from the provided sources")

	// ErrNoComments means a single fetched source had no comments.
	ErrNoComments = errors.New("no comments found at this URL")
)

// ManualEntry is a block of newline-separated comments supplied by the user.
type ManualEntry struct {
	Platform string `json:"platform" yaml:"platform"`
	Title    string `json:"title" yaml:"title"`
	Text     string `json:"text" yaml:"text"`
}

// SourceSummary records one processed source in processing order.
type SourceSummary struct {
	URL              string           `json:"url"`
	Title            string           `json:"title"`
	Platform         source.Tag       `json:"platform"`
	SentimentSummary sentiment.Counts `json:"sentiment_summary"`
}

// Stats accumulates classified comments across sources.
// TotalCount always equals the sum of bucket lengths and of breakdown totals.
type Stats struct {
	Positive          []string                        `json:"positive"`
	Negative          []string                        `json:"negative"`
	Neutral           []string                        `json:"neutral"`
	TotalCount        int                             `json:"total_count"`
	PlatformBreakdown map[source.Tag]sentiment.Counts `json:"platform_breakdown"`
	Sources           []SourceSummary                 `json:"sources"`
}

func newStats() Stats {
	breakdown := make(map[source.Tag]sentiment.Counts, len(source.Tags))
	for _, tag := range source.Tags {
		breakdown[tag] = sentiment.Counts{}
	}
	return Stats{
		Positive:          []string{},
		Negative:          []string{},
		Neutral:           []string{},
		PlatformBreakdown: breakdown,
		Sources:           []SourceSummary{},
	}
}

// merge folds one classified source into the running totals.
func (s *Stats) merge(url, title string, tag source.Tag, rawCount int, res *sentiment.Result) {
	s.Positive = append(s.Positive, res.Positive...)
	s.Negative = append(s.Negative, res.Negative...)
	s.Neutral = append(s.Neutral, res.Neutral...)
	s.TotalCount += rawCount

	b := s.PlatformBreakdown[tag]
	b.Positive += res.Counts.Positive
	b.Negative += res.Counts.Negative
	b.Neutral += res.Counts.Neutral
	b.Total += rawCount
	s.PlatformBreakdown[tag] = b

	s.Sources = append(s.Sources, SourceSummary{
		URL:              url,
		Title:            title,
		Platform:         tag,
		SentimentSummary: res.Counts,
	})
}

// Category is the brand-suitability verdict.
type Category string

const (
	CategoryExcellent    Category = "excellent"
	CategoryGood         Category = "good"
	CategoryDanger       Category = "danger"
	CategoryInsufficient Category = "insufficient"
)

// Indicator is the cult-following signal.
type Indicator string

const (
	IndicatorHigh   Indicator = "High"
	IndicatorMedium Indicator = "Medium"
	IndicatorLow    Indicator = "Low"
)

// BusinessMetrics is derived once from final Stats. Percentages are rounded
// to one decimal; thresholds are evaluated on full precision.
type BusinessMetrics struct {
	OverallScore           float64   `json:"overall_score"`
	PositivePercentage     float64   `json:"positive_percentage"`
	Category               Category  `json:"category"`
	RecommendationTitle    string    `json:"recommendation_title"`
	RecommendationDetail   string    `json:"recommendation_detail"`
	CultFollowingIndicator Indicator `json:"cult_following_indicator"`
}

// Report is the result of one creator analysis.
type Report struct {
	CreatorName string          `json:"creator_name"`
	Timestamp   time.Time       `json:"timestamp"`
	Stats       Stats           `json:"stats"`
	Business    BusinessMetrics `json:"business_analysis"`
	Errors      []string        `json:"errors"`
}

// Err reports ErrNoUsableData when no source contributed a single comment.
func (r *Report) Err() error {
	if r.Stats.TotalCount == 0 {
		return ErrNoUsableData
	}
	return nil
}

// SourceAnalysis is the result of analyzing a single locator.
type SourceAnalysis struct {
	Title    string            `json:"title"`
	Platform source.Platform   `json:"platform"`
	Results  *sentiment.Result `json:"results"`
}
