// Package match implements fuzzy string matching for resolving free-text
// labels against known catalogs.
package match

import "strings"

// DefaultMinScore is the similarity threshold below which a match is
// rejected as noise.
const DefaultMinScore = 0.4

// Candidate pairs a matchable label with the value it resolves to.
type Candidate[T any] struct {
	Label string
	Value T
}

// Match is a successful resolution with its similarity score in [0, 1].
type Match[T any] struct {
	Label string
	Value T
	Score float64
}

// LevenshteinDistance returns the edit distance between a and b using
// two rows of the Wagner-Fischer table, keeping memory proportional to
// the shorter string.
func LevenshteinDistance(a, b string) int {
	if a == b {
		return 0
	}
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}
	if len(ra) < len(rb) {
		ra, rb = rb, ra
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := 0; j <= len(rb); j++ {
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

// Similarity normalizes edit distance into [0, 1], where 1 is an exact
// match. Comparison is case-insensitive.
func Similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == b {
		return 1
	}
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(LevenshteinDistance(a, b))/float64(maxLen)
}

// score combines edit-distance similarity with a substring boost: when
// one label contains the other, the score is raised to at least 0.7 so
// "Logo" still resolves against "Logo Design".
func score(query, label string) float64 {
	s := Similarity(query, label)
	q := strings.ToLower(strings.TrimSpace(query))
	l := strings.ToLower(strings.TrimSpace(label))
	if q != "" && l != "" && (strings.Contains(l, q) || strings.Contains(q, l)) && s < 0.7 {
		s = 0.7
	}
	return s
}

// BestMatch resolves query against candidates, returning the highest
// scoring candidate at or above minScore, or nil when nothing is close
// enough.
func BestMatch[T any](query string, candidates []Candidate[T], minScore float64) *Match[T] {
	var best *Match[T]
	for _, c := range candidates {
		s := score(query, c.Label)
		if s < minScore {
			continue
		}
		if best == nil || s > best.Score {
			best = &Match[T]{Label: c.Label, Value: c.Value, Score: s}
		}
	}
	return best
}
