package ui

import (
	"reflect"
	"testing"
)

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		s1       string
		s2       string
		expected int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"abc", "abc", 0},
		{"kitten", "sitting", 3},
		{"saturday", "sunday", 3},
		{"Document", "Documnt", 1},
		{"Schema", "Shema", 1},
		{"héllo", "hello", 1},
	}

	for _, tt := range tests {
		t.Run(tt.s1+"_"+tt.s2, func(t *testing.T) {
			result := LevenshteinDistance(tt.s1, tt.s2)
			if result != tt.expected {
				t.Errorf("LevenshteinDistance(%q, %q) = %d; want %d", tt.s1, tt.s2, result, tt.expected)
			}
		})
	}
}

func TestFindSimilar(t *testing.T) {
	candidates := []string{"io.x.Document", "io.x.Info", "io.x.PathItem", "io.x.Parameter"}

	tests := []struct {
		name     string
		target   string
		opts     *FuzzyMatchOptions
		expected []string
	}{
		{
			name:     "typo in last segment",
			target:   "Documnt",
			expected: []string{"io.x.Document"},
		},
		{
			name:     "exact last segment",
			target:   "Info",
			expected: []string{"io.x.Info"},
		},
		{
			name:     "full name",
			target:   "io.x.PathItm",
			expected: []string{"io.x.PathItem"},
		},
		{
			name:     "case insensitive",
			target:   "DOCUMENT",
			opts:     &FuzzyMatchOptions{MaxDistance: 1},
			expected: []string{"io.x.Document"},
		},
		{
			name:     "case sensitive",
			target:   "DOCUMENT",
			opts:     &FuzzyMatchOptions{MaxDistance: 1, CaseSensitive: true},
			expected: []string{},
		},
		{
			name:     "no match too far",
			target:   "Zebra",
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FindSimilar(tt.target, candidates, tt.opts)
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("FindSimilar(%q) = %v; want %v", tt.target, result, tt.expected)
			}
		})
	}
}

func TestFindSimilarOrdersTiesByName(t *testing.T) {
	result := FindSimilar("Ab", []string{"b.Ac", "a.Ad", "Ab"}, &FuzzyMatchOptions{MaxSuggestions: 2})
	want := []string{"Ab", "a.Ad"}
	if !reflect.DeepEqual(result, want) {
		t.Errorf("FindSimilar() = %v; want %v", result, want)
	}
}

func TestFindSimilarEmptyCandidates(t *testing.T) {
	result := FindSimilar("test", []string{}, nil)
	if len(result) != 0 {
		t.Errorf("Expected empty result for empty candidates, got %v", result)
	}
}
