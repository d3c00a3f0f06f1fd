package sentiment

import (
	"html"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var (
	urlPattern     = regexp.MustCompile(`(?i)\b(?:https?://|www\.)\S+`)
	mentionPattern = regexp.MustCompile(`(^|\s)@[\p{L}\p{N}_.]+`)
)

// TextCleaner normalizes comments for scoring: HTML entities are unescaped,
// text is NFKC-normalized and case-folded, links and @mentions are removed,
// hashtags lose their '#', and whitespace is collapsed.
type TextCleaner struct{}

// NewTextCleaner returns the default cleaner.
func NewTextCleaner() TextCleaner {
	return TextCleaner{}
}

// Clean implements Cleaner.
func (TextCleaner) Clean(text string) string {
	text = html.UnescapeString(text)
	text = norm.NFKC.String(text)
	// Casers are stateful, so build one per call.
	text = cases.Fold().String(text)
	text = urlPattern.ReplaceAllString(text, " ")
	text = mentionPattern.ReplaceAllString(text, "$1")
	text = strings.ReplaceAll(text, "#", "")
	return strings.Join(strings.Fields(text), " ")
}
