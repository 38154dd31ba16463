package search

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestHighlights(t *testing.T) {
	tests := []struct {
		name        string
		terms       []string
		title, desc string
		want        []string
	}{
		{"no terms", nil, "Budget", "Budget.", nil},
		{"title and description", []string{"budget"}, "Budget guide", "One. The budget cycle. Two.",
			[]string{"Budget guide", "The budget cycle."}},
		{"any term", []string{"alpha", "beta"}, "", "Alpha here. Beta there. Gamma.",
			[]string{"Alpha here.", "Beta there."}},
		{"at most three", []string{"x"}, "x", "x one. x two. x three. x four.",
			[]string{"x", "x one.", "x two."}},
		{"no match", []string{"zzz"}, "Title", "Body.", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := highlights(tt.terms, tt.title, tt.desc)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHighlights_Truncated(t *testing.T) {
	long := "término " + strings.Repeat("ñ", 300)
	got := highlights([]string{"término"}, "", long)
	if len(got) != 1 {
		t.Fatalf("got %d highlights", len(got))
	}
	if n := utf8.RuneCountInString(got[0]); n != maxHighlightLength {
		t.Errorf("length = %d runes, want %d", n, maxHighlightLength)
	}
	if !utf8.ValidString(got[0]) {
		t.Error("truncation split a rune")
	}
}
