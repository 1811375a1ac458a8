package security

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// maxFieldLength bounds every free-text field before validation runs.
const maxFieldLength = 2000

// Complete dangerous element pairs are removed wholesale. Matching is
// case-insensitive and non-greedy so interior content, including newlines,
// is consumed up to the nearest closing tag.
var dangerousElements = []*regexp.Regexp{
	regexp.MustCompile(`(?is)<script\b.*?</script\s*>`),
	regexp.MustCompile(`(?is)<iframe\b.*?</iframe\s*>`),
	regexp.MustCompile(`(?is)<object\b.*?</object\s*>`),
	regexp.MustCompile(`(?is)<embed\b.*?</embed\s*>`),
}

// Sanitize strips dangerous markup from form input, truncates it to the
// field limit and trims surrounding whitespace. Trimming happens last so
// truncation never leaves whitespace padding behind. The result is stable:
// sanitizing an already sanitized string is a no-op.
func Sanitize(input string) string {
	for _, re := range dangerousElements {
		input = re.ReplaceAllString(input, "")
	}

	if utf8.RuneCountInString(input) > maxFieldLength {
		runes := []rune(input)
		input = string(runes[:maxFieldLength])
	}

	return strings.TrimSpace(input)
}
