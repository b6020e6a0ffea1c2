package trending

import (
	"regexp"
	"strings"
)

var (
	nonWordExpr = regexp.MustCompile(`[^\w\s]`)
	spaceExpr   = regexp.MustCompile(`\s+`)
)

var stopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`the a an and or but in on at to for of with by from
		is are was were be been has have had do does did will would could should may might can
		this that these those it its not no new how what why when who which all just about into
		over your you more`) {
		stopWords[w] = struct{}{}
	}
}

const minKeywordLen = 3

// Normalize lowercases, replaces punctuation with spaces and collapses whitespace.
func Normalize(title string) string {
	s := strings.ToLower(title)
	s = nonWordExpr.ReplaceAllString(s, " ")
	s = spaceExpr.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Keywords returns the significant tokens of a title in order, duplicates kept.
func Keywords(title string) []string {
	var out []string
	for _, tok := range strings.Split(Normalize(title), " ") {
		if len(tok) < minKeywordLen {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// TitlesMatch reports whether two titles share enough keywords to describe
// the same story. The shorter keyword list is checked against the other;
// equal lengths use a as the shorter one.
func TitlesMatch(a, b string) bool {
	ka, kb := Keywords(a), Keywords(b)
	if len(ka) == 0 || len(kb) == 0 {
		return false
	}

	shorter, longer := ka, kb
	if len(ka) > len(kb) {
		shorter, longer = kb, ka
	}

	longerSet := make(map[string]struct{}, len(longer))
	for _, w := range longer {
		longerSet[w] = struct{}{}
	}

	overlap := 0
	for _, w := range shorter {
		if _, ok := longerSet[w]; ok {
			overlap++
		}
	}

	return overlap >= threshold(len(shorter))
}

// threshold is max(2, ceil(0.4*n)) computed in integers.
func threshold(n int) int {
	t := (2*n + 4) / 5
	if t < 2 {
		return 2
	}
	return t
}
