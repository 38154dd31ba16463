package resource

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/cengkuru/costknowledgehub/internal/db"
	"github.com/cengkuru/costknowledgehub/internal/domain"
	"github.com/cengkuru/costknowledgehub/internal/domain/lifecycle"
	domres "github.com/cengkuru/costknowledgehub/internal/domain/resource"
)

// recordedOps captures the single JSONUpdate a call makes, keyed by path.
func recordedOps(t *testing.T, ms *mockStore, wantKey string) map[string]db.JSONOp {
	t.Helper()
	got := map[string]db.JSONOp{}
	ms.jsonSetFn = func(_ context.Context, _, path string, _ []byte) error {
		t.Errorf("unexpected JSON.SET %s: partial writes must go through JSONUpdate", path)
		return nil
	}
	ms.jsonUpdateFn = func(_ context.Context, key string, ops []db.JSONOp) error {
		if key != wantKey {
			t.Errorf("key = %s, want %s", key, wantKey)
		}
		for _, op := range ops {
			got[op.Path] = op
		}
		return nil
	}
	return got
}

func paths(ops map[string]db.JSONOp) []string {
	out := make([]string, 0, len(ops))
	for p := range ops {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

func TestTransition_WritesOnlyLifecycleFields(t *testing.T) {
	at := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	reason := "superseded"
	change := lifecycle.StatusChange{Status: lifecycle.Archived, ChangedAt: at, ChangedBy: "editor", Reason: reason}

	tests := []struct {
		name      string
		update    lifecycle.Update
		wantPaths []string
		nulls     []string
	}{
		{
			name:      "archive",
			update:    lifecycle.Update{Status: lifecycle.Archived, Change: change, ArchivedAt: &at, ArchivedReason: &reason},
			wantPaths: []string{"$.archivedAt", "$.archivedReason", "$.status", "$.statusHistory", "$.updatedAt", "$.updatedBy"},
		},
		{
			name:      "republish",
			update:    lifecycle.Update{Status: lifecycle.Published, Change: change, PublishedAt: &at, ClearArchive: true},
			wantPaths: []string{"$.archivedAt", "$.archivedReason", "$.publishedAt", "$.status", "$.statusHistory", "$.updatedAt", "$.updatedBy"},
			nulls:     []string{"$.archivedAt", "$.archivedReason"},
		},
		{
			name:      "submit for review",
			update:    lifecycle.Update{Status: lifecycle.PendingReview, Change: change},
			wantPaths: []string{"$.status", "$.statusHistory", "$.updatedAt", "$.updatedBy"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, ms := newTestRepo(t)
			ops := recordedOps(t, ms, "ckh:resource:res-1")

			if err := repo.Transition(context.Background(), "res-1", &tt.update); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := paths(ops); !slices.Equal(got, tt.wantPaths) {
				t.Fatalf("paths = %v, want %v", got, tt.wantPaths)
			}
			if op := ops["$.statusHistory"]; op.Kind != db.JSONOpAppend {
				t.Errorf("history written with %q, want an append", op.Kind)
			}
			if op := ops["$.status"]; string(op.Value) != `"`+string(tt.update.Status)+`"` {
				t.Errorf("status value = %s", op.Value)
			}
			for _, p := range tt.nulls {
				if string(ops[p].Value) != "null" {
					t.Errorf("%s = %s, want null", p, ops[p].Value)
				}
			}
		})
	}
}

func TestUpdate_WritesOnlyEditedFields(t *testing.T) {
	res := testResource(t)
	title := "Renamed"
	res.Title = title
	res.ValidUntil = nil
	res.UpdatedBy = "editor"

	tests := []struct {
		name       string
		patch      domres.Patch
		reembedded bool
		wantPaths  []string
	}{
		{
			name:      "title without new embedding",
			patch:     domres.Patch{Title: &title},
			wantPaths: []string{"$.title", "$.updatedAt", "$.updatedBy"},
		},
		{
			name:       "title with new embedding",
			patch:      domres.Patch{Title: &title},
			reembedded: true,
			wantPaths:  []string{"$.embedding", "$.hasEmbedding", "$.title", "$.updatedAt", "$.updatedBy"},
		},
		{
			name:      "publication date keeps sort key in step",
			patch:     domres.Patch{PublicationDate: &res.PublicationDate},
			wantPaths: []string{"$.publicationDate", "$.publicationTs", "$.updatedAt", "$.updatedBy"},
		},
		{
			name:      "clear expiry",
			patch:     domres.Patch{ClearValidUntil: true},
			wantPaths: []string{"$.updatedAt", "$.updatedBy", "$.validUntil"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, ms := newTestRepo(t)
			ops := recordedOps(t, ms, "ckh:resource:res-1")

			if err := repo.Update(context.Background(), &res, &tt.patch, tt.reembedded); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := paths(ops); !slices.Equal(got, tt.wantPaths) {
				t.Fatalf("paths = %v, want %v", got, tt.wantPaths)
			}
			for _, owned := range []string{"$.clicks", "$.status", "$.statusHistory", "$"} {
				if _, ok := ops[owned]; ok {
					t.Errorf("edit wrote %s", owned)
				}
			}
		})
	}
}

func TestUpdate_ClearExpiryWritesNull(t *testing.T) {
	repo, ms := newTestRepo(t)
	ops := recordedOps(t, ms, "ckh:resource:res-1")
	res := testResource(t)

	if err := repo.Update(context.Background(), &res, &domres.Patch{ClearValidUntil: true}, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v := string(ops["$.validUntil"].Value); v != "null" {
		t.Errorf("validUntil = %s, want null", v)
	}
}

func TestPartialWrite_Errors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{"missing document", db.ErrKeyNotFound, domain.ErrNotFound},
		{"store failure", &db.Error{Op: db.OpExec, Err: errors.New("OOM")}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, ms := newTestRepo(t)
			ms.jsonUpdateFn = func(_ context.Context, _ string, _ []db.JSONOp) error { return tt.err }

			u := lifecycle.Update{Status: lifecycle.Published}
			err := repo.Transition(context.Background(), "res-1", &u)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			if tt.wantErr == nil && !db.IsError(err) {
				t.Errorf("expected the store error to be wrapped, got %v", err)
			}
		})
	}
}
