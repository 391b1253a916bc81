package textutil_test

import (
	"math"
	"testing"
	"testing/quick"

	"autotagger/internal/textutil"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"abc", "abc", 0},
		{"abc", "xyz", 3},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"Hello world", "Goodbye world", 7},
		{"héllo", "hello", 1},
	}
	for _, tt := range tests {
		if got := textutil.Levenshtein(tt.a, tt.b); got != tt.want {
			t.Errorf("Levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestLevenshteinMetricProperties(t *testing.T) {
	symmetric := func(a, b string) bool {
		return textutil.Levenshtein(a, b) == textutil.Levenshtein(b, a)
	}
	identity := func(a, b string) bool {
		return (textutil.Levenshtein(a, b) == 0) == (a == b)
	}
	triangle := func(a, b, c string) bool {
		return textutil.Levenshtein(a, c) <= textutil.Levenshtein(a, b)+textutil.Levenshtein(b, c)
	}
	cfg := &quick.Config{MaxCount: 300}
	if err := quick.Check(symmetric, cfg); err != nil {
		t.Fatalf("symmetry: %v", err)
	}
	if err := quick.Check(identity, cfg); err != nil {
		t.Fatalf("identity: %v", err)
	}
	if err := quick.Check(triangle, cfg); err != nil {
		t.Fatalf("triangle inequality: %v", err)
	}
}

func TestSimilarity(t *testing.T) {
	if got := textutil.Similarity("", ""); got != 1 {
		t.Fatalf("expected empty strings identical, got %v", got)
	}
	if got := textutil.Similarity("abc", "xyz"); got != 0 {
		t.Fatalf("expected 0 similarity, got %v", got)
	}
	if got := textutil.Similarity("abcd", "abcf"); math.Abs(got-0.75) > 1e-9 {
		t.Fatalf("expected 0.75, got %v", got)
	}
}
