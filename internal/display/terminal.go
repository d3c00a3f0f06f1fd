// Package display provides terminal output formatting for creatorpulse.
package display

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/jonboulle/clockwork"
	"github.com/mattn/go-runewidth"

	"github.com/gauthierbraillon/creatorpulse/internal/aggregator"
	"github.com/gauthierbraillon/creatorpulse/internal/sentiment"
	"github.com/gauthierbraillon/creatorpulse/internal/source"
)

const (
	separator = " • "

	// SampleLimit is the number of example comments shown per bucket.
	SampleLimit = 3
	sampleWidth = 72
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	sectionStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))

	categoryStyles = map[aggregator.Category]lipgloss.Style{
		aggregator.CategoryExcellent:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#04B575")),
		aggregator.CategoryGood:         lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")),
		aggregator.CategoryDanger:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF0000")),
		aggregator.CategoryInsufficient: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#626262")),
	}
)

// TerminalFormatter formats analyses for terminal display.
type TerminalFormatter struct {
	clock clockwork.Clock
}

// NewTerminalFormatter creates a new terminal formatter.
func NewTerminalFormatter() *TerminalFormatter {
	return &TerminalFormatter{clock: clockwork.NewRealClock()}
}

// WithClock returns a copy that measures relative times against clock.
func (f *TerminalFormatter) WithClock(clock clockwork.Clock) *TerminalFormatter {
	return &TerminalFormatter{clock: clock}
}

// FormatReport renders a creator report.
func (f *TerminalFormatter) FormatReport(r *aggregator.Report) string {
	var b strings.Builder
	biz := r.Business

	fmt.Fprintf(&b, "%s%s%s\n", headerStyle.Render(r.CreatorName), separator, mutedStyle.Render(f.FormatTimestamp(r.Timestamp)))
	fmt.Fprintf(&b, "%s\n", categoryStyles[biz.Category].Render(biz.RecommendationTitle))
	fmt.Fprintf(&b, "  %s\n", biz.RecommendationDetail)
	fmt.Fprintf(&b, "  Overall score: %.1f/100%sPositive: %.1f%%%sCult following: %s\n",
		biz.OverallScore, separator, biz.PositivePercentage, separator, biz.CultFollowingIndicator)
	fmt.Fprintf(&b, "  %s analyzed from %s\n",
		pluralizeCount(r.Stats.TotalCount, "comment"), pluralizeCount(len(r.Stats.Sources), "source"))

	b.WriteString("\n" + sectionStyle.Render("Platforms") + "\n")
	for _, tag := range source.Tags {
		c := r.Stats.PlatformBreakdown[tag]
		fmt.Fprintf(&b, "  %-8s %s\n", tag, formatCounts(c))
	}

	if len(r.Stats.Sources) > 0 {
		b.WriteString("\n" + sectionStyle.Render("Sources") + "\n")
		for _, s := range r.Stats.Sources {
			fmt.Fprintf(&b, "  [%s] %s\n", strings.ToUpper(string(s.Platform)), s.Title)
			fmt.Fprintf(&b, "    %s\n", formatCounts(s.SentimentSummary))
			if s.URL != aggregator.ManualLocator {
				fmt.Fprintf(&b, "    %s\n", mutedStyle.Render(s.URL))
			}
		}
	}

	if len(r.Errors) > 0 {
		b.WriteString("\n" + sectionStyle.Render("Errors") + "\n")
		for _, e := range r.Errors {
			fmt.Fprintf(&b, "  %s\n", errorStyle.Render(e))
		}
	}

	f.writeSamples(&b, r.Stats.Positive, r.Stats.Negative, r.Stats.Neutral)
	return b.String()
}

// FormatResult renders a single classified batch.
func (f *TerminalFormatter) FormatResult(title string, res *sentiment.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", headerStyle.Render(title))
	fmt.Fprintf(&b, "  %s\n", formatCounts(res.Counts))
	if res.Counts.Total > 0 {
		fmt.Fprintf(&b, "  %s%s%s%s%s\n",
			percent("positive", res.Counts.Positive, res.Counts.Total), separator,
			percent("negative", res.Counts.Negative, res.Counts.Total), separator,
			percent("neutral", res.Counts.Neutral, res.Counts.Total))
	}

	f.writeSamples(&b, res.Positive, res.Negative, res.Neutral)
	return b.String()
}

func (f *TerminalFormatter) writeSamples(b *strings.Builder, positive, negative, neutral []string) {
	if len(positive)+len(negative)+len(neutral) == 0 {
		b.WriteString("\nNo comments to display.\n")
		return
	}

	b.WriteString("\n" + sectionStyle.Render("Samples") + "\n")
	for _, bucket := range []struct {
		name     string
		comments []string
	}{
		{"Positive", positive},
		{"Negative", negative},
		{"Neutral", neutral},
	} {
		for i, c := range bucket.comments {
			if i == SampleLimit {
				fmt.Fprintf(b, "    %s\n", mutedStyle.Render(fmt.Sprintf("… %d more", len(bucket.comments)-SampleLimit)))
				break
			}
			label := ""
			if i == 0 {
				label = bucket.name
			}
			fmt.Fprintf(b, "  %-9s %q\n", label, f.TruncateText(flatten(c), sampleWidth))
		}
	}
}

func formatCounts(c sentiment.Counts) string {
	return fmt.Sprintf("%s  (+%d / -%d / =%d)", pluralizeCount(c.Total, "comment"), c.Positive, c.Negative, c.Neutral)
}

func percent(label string, n, total int) string {
	return fmt.Sprintf("%.1f%% %s", 100*float64(n)/float64(total), label)
}

func flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// FormatTimestamp formats a timestamp as relative time.
func (f *TerminalFormatter) FormatTimestamp(t time.Time) string {
	diff := f.clock.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return pluralize(int(diff.Minutes()), "minute")
	case diff < 24*time.Hour:
		return pluralize(int(diff.Hours()), "hour")
	case diff < 7*24*time.Hour:
		return pluralize(int(diff.Hours()/24), "day")
	default:
		return t.Format("Jan 2, 2006")
	}
}

// pluralize returns "N unit ago" or "N units ago" based on count.
func pluralize(n int, unit string) string {
	return pluralizeCount(n, unit) + " ago"
}

func pluralizeCount(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// TruncateText truncates text to maxWidth terminal cells, adding "..." if truncated.
func (f *TerminalFormatter) TruncateText(text string, maxWidth int) string {
	if runewidth.StringWidth(text) <= maxWidth {
		return text
	}
	if maxWidth <= 3 {
		return "..."
	}
	return runewidth.Truncate(text, maxWidth, "...")
}
