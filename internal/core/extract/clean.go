package extract

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	spacesRe      = regexp.MustCompile(`[ \t]+`)
	leadSpacesRe  = regexp.MustCompile(`\n[ \t]+`)
	blankLinesRe  = regexp.MustCompile(`\n{3,}`)
	punctOnlyRe   = regexp.MustCompile(`^[\W_]+$`)
	zeroWidthRepl = strings.NewReplacer("\u200b", "", "\ufeff", "", "\r\n", "\n", "\r", "\n")
)

// CleanText normalizes scraped or extracted text: NFKC unicode, unified
// newlines, collapsed whitespace, and noise-only lines dropped.
func CleanText(text string) string {
	text = norm.NFKC.String(text)
	text = zeroWidthRepl.Replace(text)

	text = spacesRe.ReplaceAllString(text, " ")
	text = leadSpacesRe.ReplaceAllString(text, "\n")
	text = blankLinesRe.ReplaceAllString(text, "\n\n")

	// Drop very short or punctuation-only lines (nav/cookie fragments).
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			lines = append(lines, "")
			continue
		}
		if len([]rune(line)) < 3 {
			continue
		}
		if punctOnlyRe.MatchString(line) {
			continue
		}
		lines = append(lines, line)
	}

	cleaned := strings.Join(lines, "\n")
	cleaned = blankLinesRe.ReplaceAllString(cleaned, "\n\n")
	return strings.TrimSpace(cleaned)
}
