package ui

import (
	"sort"
	"strings"
)

const (
	// DefaultMaxDistance is the default maximum edit distance to consider for fuzzy matching
	DefaultMaxDistance = 3
	// DefaultMaxSuggestions is the default maximum number of suggestions to return
	DefaultMaxSuggestions = 3
)

// FuzzyMatchOptions configures fuzzy matching behavior
type FuzzyMatchOptions struct {
	MaxDistance    int  // Maximum Levenshtein distance to consider (default: 3)
	MaxSuggestions int  // Maximum number of suggestions to return (default: 3)
	CaseSensitive  bool // Whether matching is case-sensitive (default: false)
}

type suggestion struct {
	value    string
	distance int
}

// FindSimilar returns the candidates closest to target, nearest first and by
// name among equals. Dotted candidates such as full entity names also match on
// their last segment, so "Documnt" suggests "io.example.Document".
func FindSimilar(target string, candidates []string, opts *FuzzyMatchOptions) []string {
	o := FuzzyMatchOptions{MaxDistance: DefaultMaxDistance, MaxSuggestions: DefaultMaxSuggestions}
	if opts != nil {
		o = *opts
		if o.MaxDistance == 0 {
			o.MaxDistance = DefaultMaxDistance
		}
		if o.MaxSuggestions == 0 {
			o.MaxSuggestions = DefaultMaxSuggestions
		}
	}

	fold := func(s string) string {
		if o.CaseSensitive {
			return s
		}
		return strings.ToLower(s)
	}
	t := fold(target)

	var found []suggestion
	for _, candidate := range candidates {
		c := fold(candidate)
		dist := LevenshteinDistance(t, c)
		if i := strings.LastIndexByte(c, '.'); i >= 0 {
			dist = min(dist, LevenshteinDistance(t, c[i+1:]))
		}
		if dist <= o.MaxDistance {
			found = append(found, suggestion{value: candidate, distance: dist})
		}
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].distance != found[j].distance {
			return found[i].distance < found[j].distance
		}
		return found[i].value < found[j].value
	})

	result := make([]string, 0, o.MaxSuggestions)
	for i := 0; i < len(found) && i < o.MaxSuggestions; i++ {
		result = append(result, found[i].value)
	}
	return result
}

// LevenshteinDistance returns the number of single-rune insertions, deletions
// or substitutions needed to turn s1 into s2.
func LevenshteinDistance(s1, s2 string) int {
	a, b := []rune(s1), []rune(s2)
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
