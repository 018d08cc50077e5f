package enrichment

import (
	"regexp"
	"strings"
)

// MaxDescriptionLength caps stored descriptions, in characters.
const MaxDescriptionLength = 600

var markupRules = []struct {
	pattern *regexp.Regexp
	repl    string
}{
	// [[link|label]] and [[link]]
	{regexp.MustCompile(`\[\[(?:[^|\]]*\|)?([^\]]+)\]\]`), "$1"},
	// '''bold''' and ''italic''
	{regexp.MustCompile(`'{2,3}([^']*)'{2,3}`), "$1"},
	// [http://example.org label]
	{regexp.MustCompile(`\[https?://[^\s\]]+\s+([^\]]+)\]`), "$1"},
	{regexp.MustCompile(`\[https?://[^\]]+\]`), ""},
}

// StripWikiMarkup removes the simple wiki markup used in MusicBrainz annotations.
func StripWikiMarkup(text string) string {
	for _, rule := range markupRules {
		text = rule.pattern.ReplaceAllString(text, rule.repl)
	}
	return strings.TrimSpace(text)
}

// FirstParagraph returns the text up to the first blank line, capped at limit characters.
func FirstParagraph(text string, limit int) string {
	text = strings.TrimSpace(text)
	if para, _, ok := strings.Cut(text, "\n\n"); ok {
		text = strings.TrimSpace(para)
	}
	if runes := []rune(text); len(runes) > limit {
		text = strings.TrimSpace(string(runes[:limit]))
	}
	return text
}

// CleanAnnotation strips markup and keeps the first paragraph.
func CleanAnnotation(raw string) string {
	return FirstParagraph(StripWikiMarkup(raw), MaxDescriptionLength)
}
