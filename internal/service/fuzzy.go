package service

import "strings"

// FuzzyMatch reports whether a provider's free-text service category matches
// a requested service type. There is no controlled vocabulary, so matching
// tolerates synonyms and typos: substring containment in either direction,
// small absolute edit distance, edit distance relative to the shorter
// string, or equality after stripping trade suffixes ("plumber"/"plumbing").
func FuzzyMatch(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}

	dist := levenshtein(a, b)
	if dist <= 2 {
		return true
	}
	shorter := len(a)
	if len(b) < shorter {
		shorter = len(b)
	}
	if dist <= shorter/5 {
		return true
	}

	sa, sb := stripTradeSuffix(a), stripTradeSuffix(b)
	if sa != a || sb != b {
		if sa == sb || strings.Contains(sa, sb) || strings.Contains(sb, sa) {
			return true
		}
		if levenshtein(sa, sb) <= 2 {
			return true
		}
	}
	return false
}

var tradeSuffixes = []string{"ings", "ing", "ers", "er", "s"}

func stripTradeSuffix(s string) string {
	for _, suffix := range tradeSuffixes {
		if strings.HasSuffix(s, suffix) && len(s) > len(suffix)+2 {
			return strings.TrimSuffix(s, suffix)
		}
	}
	return s
}

func levenshtein(s1, s2 string) int {
	r1 := []rune(s1)
	r2 := []rune(s2)

	prev := make([]int, len(r1)+1)
	curr := make([]int, len(r1)+1)
	for j := 0; j <= len(r1); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(r2); i++ {
		curr[0] = i
		for j := 1; j <= len(r1); j++ {
			cost := 1
			if r1[j-1] == r2[i-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(r1)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
