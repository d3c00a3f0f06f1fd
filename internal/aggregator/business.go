package aggregator

import "math"

const (
	excellentFloor = 80.0
	goodFloor      = 70.0
	cultHighAbove  = 85.0
	cultMedAbove   = 70.0
)

type recommendation struct {
	title  string
	detail string
}

var recommendations = map[Category]recommendation{
	CategoryExcellent: {
		title: "🌟 Excellent Choice: Potential Cult Following",
		detail: "This creator is HIGHLY RECOMMENDED. The audience is overwhelmingly positive or neutral, " +
			"indicating a loyal 'cult-like' following. Great for brand safety.",
	},
	CategoryGood: {
		title: "✅ Good Choice: Moderate Engagement",
		detail: "This creator has a decent reputation. The audience is generally positive, but there is some mixed feedback. " +
			"Safe for most standard campaigns.",
	},
	CategoryDanger: {
		title: "⛔ Risky Choice: Significant Negative Sentiment",
		detail: "Metric is below 70%. This indicates a polarizing or negative audience reaction. " +
			"Review the negative comments carefully before proceeding.",
	},
	CategoryInsufficient: {
		title:  "Insufficient Data",
		detail: "Not enough comments to analyze.",
	},
}

// Evaluate derives business metrics from final stats. It is pure.
func Evaluate(stats Stats) BusinessMetrics {
	total := stats.TotalCount
	if total == 0 {
		rec := recommendations[CategoryInsufficient]
		return BusinessMetrics{
			Category:               CategoryInsufficient,
			RecommendationTitle:    rec.title,
			RecommendationDetail:   rec.detail,
			CultFollowingIndicator: IndicatorLow,
		}
	}

	positive := float64(len(stats.Positive))
	neutral := float64(len(stats.Neutral))
	brandSafe := 100 * (positive + neutral) / float64(total)
	positivePct := 100 * positive / float64(total)

	category := Categorize(brandSafe)
	rec := recommendations[category]

	return BusinessMetrics{
		OverallScore:           round1(brandSafe),
		PositivePercentage:     round1(positivePct),
		Category:               category,
		RecommendationTitle:    rec.title,
		RecommendationDetail:   rec.detail,
		CultFollowingIndicator: CultFollowing(brandSafe),
	}
}

// Categorize maps a brand-safe percentage to a category. Both floors are inclusive.
func Categorize(brandSafe float64) Category {
	switch {
	case brandSafe >= excellentFloor:
		return CategoryExcellent
	case brandSafe >= goodFloor:
		return CategoryGood
	default:
		return CategoryDanger
	}
}

// CultFollowing is evaluated independently of Categorize, on strict bounds.
func CultFollowing(brandSafe float64) Indicator {
	switch {
	case brandSafe > cultHighAbove:
		return IndicatorHigh
	case brandSafe > cultMedAbove:
		return IndicatorMedium
	default:
		return IndicatorLow
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
