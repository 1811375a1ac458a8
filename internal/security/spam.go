package security

import (
	"fmt"
	"regexp"
	"strings"
)

// Detector flags likely-spam text using fixed pattern heuristics plus a
// configurable vocabulary. It is a pure predicate: no state is kept between
// calls and false positives are accepted as a cost of the approach.
type Detector struct {
	urlPattern   *regexp.Regexp
	termPattern  *regexp.Regexp
	digitPattern *regexp.Regexp
	capsPattern  *regexp.Regexp

	maxURLs      int
	maxRepeatRun int
}

// NewDetector builds a spam detector around the supplied term vocabulary.
// Terms match as whole words, case-insensitively. An empty list disables
// the vocabulary check but leaves the structural heuristics active.
func NewDetector(terms []string) *Detector {
	d := &Detector{
		urlPattern:   regexp.MustCompile(`https?://\S+`),
		digitPattern: regexp.MustCompile(`[0-9]{15,}`),
		capsPattern:  regexp.MustCompile(`[A-Z]{20,}`),
		maxURLs:      3,
		maxRepeatRun: 11,
	}

	if len(terms) > 0 {
		quoted := make([]string, 0, len(terms))
		for _, term := range terms {
			if trimmed := strings.TrimSpace(term); trimmed != "" {
				quoted = append(quoted, regexp.QuoteMeta(trimmed))
			}
		}
		if len(quoted) > 0 {
			d.termPattern = regexp.MustCompile(fmt.Sprintf(`(?i)\b(%s)\b`, strings.Join(quoted, "|")))
		}
	}

	return d
}

// IsSpam reports whether the combined submission text trips any heuristic:
// three or more URLs, a character repeated eleven or more times in a row,
// a vocabulary term, fifteen consecutive digits, or twenty consecutive
// uppercase letters.
func (d *Detector) IsSpam(text string) bool {
	if len(d.urlPattern.FindAllStringIndex(text, d.maxURLs)) >= d.maxURLs {
		return true
	}

	if hasRepeatedRun(text, d.maxRepeatRun) {
		return true
	}

	if d.termPattern != nil && d.termPattern.MatchString(text) {
		return true
	}

	if d.digitPattern.MatchString(text) {
		return true
	}

	return d.capsPattern.MatchString(text)
}

// hasRepeatedRun scans for a run of the same rune of at least length n.
// RE2 has no backreferences, so this check is done by hand. Line breaks
// reset the run; blank lines are not a spam signal.
func hasRepeatedRun(text string, n int) bool {
	var last rune
	run := 0
	for _, r := range text {
		if r == '\n' || r == '\r' {
			last = 0
			run = 0
			continue
		}
		if r == last {
			run++
		} else {
			last = r
			run = 1
		}
		if run >= n {
			return true
		}
	}
	return false
}
