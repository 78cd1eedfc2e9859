package textscan

import "regexp"

// Match is a single regex match with its submatches materialized.
type Match struct {
	// Text is the full matched text.
	Text string
	// Groups holds the capture groups in order. Groups[0] is the first
	// capture group, not the full match.
	Groups []string
	// Start is the byte offset of the match in the scanned text.
	Start int
}

// Group returns the i-th capture group, or "" when the group did not
// participate in the match.
func (m Match) Group(i int) string {
	if i < 0 || i >= len(m.Groups) {
		return ""
	}
	return m.Groups[i]
}

// FindAllMatches returns every non-overlapping match of pattern in text.
//
// Design decision: match iteration is a pure function over its inputs.
// Stateful scanners (cursor-carrying matchers shared between callers) caused
// skipped matches when two detectors scanned the same text, so every caller
// gets a freshly materialized slice instead.
func FindAllMatches(text string, pattern *regexp.Regexp) []Match {
	idx := pattern.FindAllStringSubmatchIndex(text, -1)
	if idx == nil {
		return nil
	}

	matches := make([]Match, 0, len(idx))
	for _, loc := range idx {
		m := Match{
			Text:   text[loc[0]:loc[1]],
			Start:  loc[0],
			Groups: make([]string, 0, len(loc)/2-1),
		}
		for g := 2; g < len(loc); g += 2 {
			if loc[g] < 0 {
				m.Groups = append(m.Groups, "")
				continue
			}
			m.Groups = append(m.Groups, text[loc[g]:loc[g+1]])
		}
		matches = append(matches, m)
	}
	return matches
}

// CountMatches returns the number of non-overlapping matches of pattern
// in text.
func CountMatches(text string, pattern *regexp.Regexp) int {
	return len(pattern.FindAllStringIndex(text, -1))
}
