package aggregator

import (
	"fmt"
	"strings"

	"github.com/gauthierbraillon/creatorpulse/internal/source"
)

const (
	defaultManualTitle    = "Manual Entry"
	defaultManualPlatform = "other"
)

// SplitManualText turns pasted text into comments: one per line, trimmed,
// blank lines dropped.
func SplitManualText(text string) []string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	comments := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			comments = append(comments, line)
		}
	}
	return comments
}

// normalized fills the defaults and returns the comments, aggregation tag and
// summary title for a manual entry.
func (m ManualEntry) normalized() ([]string, source.Tag, string) {
	declared := strings.TrimSpace(m.Platform)
	if declared == "" {
		declared = defaultManualPlatform
	}
	title := strings.TrimSpace(m.Title)
	if title == "" {
		title = defaultManualTitle
	}
	return SplitManualText(m.Text), source.ParseTag(declared), fmt.Sprintf("%s (%s)", title, declared)
}
