// Package suggest ranks known directives by their similarity to a mistyped one.
package suggest

import (
	"sort"
	"strings"
)

// threshold is the score a candidate must exceed to be suggested.
const threshold = 0.5

type match struct {
	name  string
	score float64
	order int
}

// FindSimilar returns up to maxResults candidates similar to target, best first. Ties keep the order
// of candidates. A candidate listed more than once, as happens when several options answer to the
// same directive, is suggested once.
func FindSimilar(target string, candidates []string, maxResults int) []string {
	if target == "" || maxResults <= 0 {
		return []string{}
	}

	seen := make(map[string]bool, len(candidates))
	matches := make([]match, 0, len(candidates))
	for i, name := range candidates {
		if seen[name] {
			continue
		}
		seen[name] = true
		if score := similarity(target, name); score > threshold {
			matches = append(matches, match{name: name, score: score, order: i})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score == matches[j].score {
			return matches[i].order < matches[j].order
		}
		return matches[i].score > matches[j].score
	})

	result := make([]string, 0, min(maxResults, len(matches)))
	for _, m := range matches[:min(maxResults, len(matches))] {
		result = append(result, m.name)
	}
	return result
}

// similarity scores a against b between 0 and 1, case-insensitively. A prefix of b scores 0.9.
func similarity(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	if a == b {
		return 1.0
	}
	if strings.HasPrefix(b, a) {
		return 0.9
	}
	longest := max(len(a), len(b))
	return 1.0 - float64(distance(a, b))/float64(longest)
}

// distance is the Levenshtein edit distance between a and b, computed with two rows.
func distance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
