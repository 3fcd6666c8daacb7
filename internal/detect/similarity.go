package detect

import "strings"

// Similarity returns a normalized string similarity in [0,1]: 1 minus the
// Levenshtein distance over the longer length. Inputs are whitespace-
// normalized and lowercased first so formatting differences don't mask a
// repeated proposal.
func Similarity(a, b string) float64 {
	a = normalizeText(a)
	b = normalizeText(b)
	if a == b {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	longer := len(a)
	if len(b) > longer {
		longer = len(b)
	}
	return 1 - float64(levenshtein(a, b))/float64(longer)
}

// levenshtein computes the edit distance between two strings using the
// two-row dynamic programming form.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// normalizeText lowercases and collapses whitespace runs to single spaces.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
