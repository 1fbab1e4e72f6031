package match_test

import (
	"testing"

	"github.com/vengleap/rateworks/internal/match"
)

func TestLevenshteinDistance(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"logo", "logo", 0},
		{"logo", "lego", 1},
	}
	for _, tc := range cases {
		if got := match.LevenshteinDistance(tc.a, tc.b); got != tc.want {
			t.Errorf("LevenshteinDistance(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestSimilarity(t *testing.T) {
	if got := match.Similarity("Logo Design", "logo design"); got != 1 {
		t.Errorf("case-insensitive exact match score = %v, want 1", got)
	}
	if got := match.Similarity("logo", "lego"); got != 0.75 {
		t.Errorf("Similarity(logo, lego) = %v, want 0.75", got)
	}
}

func TestBestMatch_SubstringBoost(t *testing.T) {
	candidates := []match.Candidate[int64]{
		{Label: "Logo Design", Value: 1},
		{Label: "Web Design", Value: 2},
		{Label: "Social Media Graphics", Value: 3},
	}

	m := match.BestMatch("Logo", candidates, match.DefaultMinScore)
	if m == nil {
		t.Fatal("expected a match for Logo")
	}
	if m.Value != 1 {
		t.Errorf("matched value = %d, want 1 (Logo Design)", m.Value)
	}
	if m.Score < 0.7 {
		t.Errorf("substring match score = %v, want >= 0.7", m.Score)
	}
}

func TestBestMatch_RejectsNoise(t *testing.T) {
	candidates := []match.Candidate[int64]{
		{Label: "Logo Design", Value: 1},
		{Label: "Web Design", Value: 2},
	}

	if m := match.BestMatch("quantum physics", candidates, match.DefaultMinScore); m != nil {
		t.Errorf("expected no match for unrelated query, got %+v", m)
	}
}

func TestBestMatch_PicksHighestScore(t *testing.T) {
	candidates := []match.Candidate[string]{
		{Label: "UI Design", Value: "ui"},
		{Label: "UX Design", Value: "ux"},
	}

	m := match.BestMatch("UI Desgin", candidates, match.DefaultMinScore)
	if m == nil {
		t.Fatal("expected a match despite the typo")
	}
	if m.Value != "ui" {
		t.Errorf("matched value = %q, want ui", m.Value)
	}
}
