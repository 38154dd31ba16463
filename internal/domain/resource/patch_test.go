package resource

import (
	"testing"
	"time"

	"github.com/cengkuru/costknowledgehub/internal/domain/lifecycle"
)

func strPtr(s string) *string { return &s }

func TestPatch_IsEmpty(t *testing.T) {
	if !(&Patch{}).IsEmpty() {
		t.Error("zero patch should be empty")
	}
	if (&Patch{Summary: strPtr("s")}).IsEmpty() {
		t.Error("patch with summary should not be empty")
	}
}

func TestPatch_ChangesText(t *testing.T) {
	tags := []string{"a"}
	tests := []struct {
		name string
		p    Patch
		want bool
	}{
		{"title", Patch{Title: strPtr("x")}, true},
		{"description", Patch{Description: strPtr("x")}, true},
		{"tags", Patch{Tags: &tags}, true},
		{"themes", Patch{Themes: &tags}, true},
		{"summary only", Patch{Summary: strPtr("x")}, false},
		{"language only", Patch{Language: strPtr("fr")}, false},
	}
	for _, tt := range tests {
		if got := tt.p.ChangesText(); got != tt.want {
			t.Errorf("%s: ChangesText() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestPatch_ApplyLeavesLifecycle(t *testing.T) {
	r := Resource{
		Title:  "Old",
		Status: lifecycle.Published,
		Clicks: 7,
		Tags:   []string{"keep"},
	}
	themes := []string{"climate"}
	p := Patch{Title: strPtr("New"), Themes: &themes}
	p.Apply(&r)

	if r.Title != "New" {
		t.Errorf("Title = %q", r.Title)
	}
	if len(r.Themes) != 1 || r.Themes[0] != "climate" {
		t.Errorf("Themes = %v", r.Themes)
	}
	if len(r.Tags) != 1 {
		t.Errorf("Tags changed: %v", r.Tags)
	}
	if r.Status != lifecycle.Published || r.Clicks != 7 {
		t.Errorf("lifecycle fields changed: status=%s clicks=%d", r.Status, r.Clicks)
	}
}

func TestPatch_ValidUntil(t *testing.T) {
	old := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	later := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		p    Patch
		want *time.Time
	}{
		{name: "untouched", p: Patch{Summary: strPtr("s")}, want: &old},
		{name: "moved", p: Patch{ValidUntil: &later}, want: &later},
		{name: "cleared", p: Patch{ClearValidUntil: true}, want: nil},
		{name: "clear wins over a date", p: Patch{ValidUntil: &later, ClearValidUntil: true}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			until := old
			r := Resource{ValidUntil: &until}
			if tt.p.IsEmpty() {
				t.Fatal("patch reported empty")
			}
			tt.p.Apply(&r)

			switch {
			case tt.want == nil && r.ValidUntil != nil:
				t.Errorf("ValidUntil = %v, want nil", *r.ValidUntil)
			case tt.want != nil && (r.ValidUntil == nil || !r.ValidUntil.Equal(*tt.want)):
				t.Errorf("ValidUntil = %v, want %v", r.ValidUntil, *tt.want)
			}
		})
	}
}
