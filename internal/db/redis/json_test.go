package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/cengkuru/costknowledgehub/internal/db"
)

func TestJSONSet(t *testing.T) {
	s, c := newMockedStore(t)
	doc := `{"id":"r1","status":"DRAFT"}`
	c.EXPECT().
		Do(gomock.Any(), mock.Match("JSON.SET", "ckh:resource:r1", "$", doc)).
		Return(mock.Result(mock.RedisString("OK")))

	if err := s.JSONSet(context.Background(), "ckh:resource:r1", "$", []byte(doc)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestJSONSet_Failure(t *testing.T) {
	s, c := newMockedStore(t)
	c.EXPECT().Do(gomock.Any(), gomock.Any()).Return(mock.ErrorResult(context.DeadlineExceeded))

	err := s.JSONSet(context.Background(), "ckh:resource:r1", "$", []byte(`{}`))
	var dbErr *db.Error
	if !errors.As(err, &dbErr) || dbErr.Op != db.OpJSONSet {
		t.Fatalf("expected db.Error with op %s, got %v", db.OpJSONSet, err)
	}
}

func TestJSONGet(t *testing.T) {
	tests := []struct {
		name    string
		paths   []string
		want    []string
		reply   rueidis.RedisResult
		wantDoc string
		wantErr error
	}{
		{
			name:    "whole document",
			want:    []string{"JSON.GET", "ckh:taxonomy:topics"},
			reply:   mock.Result(mock.RedisString(`{"topics":[]}`)),
			wantDoc: `{"topics":[]}`,
		},
		{
			name:    "single path",
			paths:   []string{"$.status"},
			want:    []string{"JSON.GET", "ckh:taxonomy:topics", "$.status"},
			reply:   mock.Result(mock.RedisString(`["PUBLISHED"]`)),
			wantDoc: `["PUBLISHED"]`,
		},
		{
			name:    "missing key",
			want:    []string{"JSON.GET", "ckh:taxonomy:topics"},
			reply:   mock.Result(mock.RedisNil()),
			wantErr: db.ErrKeyNotFound,
		},
		{
			name:    "path matches nothing",
			paths:   []string{"$.nope"},
			want:    []string{"JSON.GET", "ckh:taxonomy:topics", "$.nope"},
			reply:   mock.Result(mock.RedisString("[]")),
			wantErr: db.ErrKeyNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, c := newMockedStore(t)
			c.EXPECT().Do(gomock.Any(), mock.Match(tt.want...)).Return(tt.reply)

			got, err := s.JSONGet(context.Background(), "ckh:taxonomy:topics", tt.paths...)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if string(got) != tt.wantDoc {
				t.Errorf("got %q, want %q", got, tt.wantDoc)
			}
		})
	}
}

func TestJSONGet_TransportFailureIsNotMissing(t *testing.T) {
	s, c := newMockedStore(t)
	c.EXPECT().Do(gomock.Any(), gomock.Any()).Return(mock.ErrorResult(context.DeadlineExceeded))

	_, err := s.JSONGet(context.Background(), "k")
	if errors.Is(err, db.ErrKeyNotFound) || !db.IsError(err) {
		t.Fatalf("expected db.Error, got %v", err)
	}
}

func TestJSONNumIncrBy(t *testing.T) {
	tests := []struct {
		name    string
		reply   rueidis.RedisResult
		want    int64
		wantErr error
	}{
		{name: "jsonpath reply", reply: mock.Result(mock.RedisString("[6]")), want: 6},
		{name: "legacy reply", reply: mock.Result(mock.RedisString("12")), want: 12},
		{name: "float reply", reply: mock.Result(mock.RedisString("[3.0]")), want: 3},
		{name: "path is not a number", reply: mock.Result(mock.RedisString("[null]")), wantErr: db.ErrKeyNotFound},
		{name: "missing key", reply: mock.Result(mock.RedisNil()), wantErr: db.ErrKeyNotFound},
		{
			name:    "server says missing",
			reply:   mock.Result(mock.RedisError("ERR could not perform this operation on a key that doesn't exist")),
			wantErr: db.ErrKeyNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, c := newMockedStore(t)
			c.EXPECT().
				Do(gomock.Any(), mock.Match("JSON.NUMINCRBY", "ckh:resource:r1", "$.clicks", "1")).
				Return(tt.reply)

			got, err := s.JSONNumIncrBy(context.Background(), "ckh:resource:r1", "$.clicks", 1)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseNumReply_Garbage(t *testing.T) {
	if _, err := parseNumReply("[abc]"); err == nil || errors.Is(err, db.ErrKeyNotFound) {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestJSONUpdate(t *testing.T) {
	const key = "ckh:resource:r1"
	ops := []db.JSONOp{
		db.SetOp("$.status", []byte(`"PUBLISHED"`)),
		db.AppendOp("$.statusHistory", []byte(`{"status":"PUBLISHED"}`)),
	}
	queued := func() []rueidis.RedisResult {
		return []rueidis.RedisResult{
			mock.Result(mock.RedisString("OK")),
			mock.Result(mock.RedisString("QUEUED")),
			mock.Result(mock.RedisString("QUEUED")),
		}
	}

	tests := []struct {
		name    string
		exec    rueidis.RedisResult
		wantErr func(error) bool
	}{
		{
			name:    "applied",
			exec:    mock.Result(mock.RedisArray(mock.RedisString("OK"), mock.RedisArray(mock.RedisInt64(3)))),
			wantErr: func(err error) bool { return err == nil },
		},
		{
			name: "missing document",
			exec: mock.Result(mock.RedisArray(
				mock.RedisError("ERR new objects must be created at the root"),
				mock.RedisError("ERR could not perform this operation on a key that doesn't exist"),
			)),
			wantErr: func(err error) bool { return errors.Is(err, db.ErrKeyNotFound) },
		},
		{
			name: "append onto a non-array",
			exec: mock.Result(mock.RedisArray(
				mock.RedisString("OK"),
				mock.RedisError("WRONGTYPE wrong type of path value"),
			)),
			wantErr: func(err error) bool {
				var dbErr *db.Error
				return errors.As(err, &dbErr) && dbErr.Op == db.OpJSONArrAppend
			},
		},
		{
			name: "transaction aborted",
			exec: mock.ErrorResult(errors.New("EXECABORT")),
			wantErr: func(err error) bool {
				var dbErr *db.Error
				return errors.As(err, &dbErr) && dbErr.Op == db.OpExec
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, c := newMockedStore(t)
			c.EXPECT().
				DoMulti(gomock.Any(),
					mock.Match("MULTI"),
					mock.Match("JSON.SET", key, "$.status", `"PUBLISHED"`),
					mock.Match("JSON.ARRAPPEND", key, "$.statusHistory", `{"status":"PUBLISHED"}`),
					mock.Match("EXEC"),
				).
				Return(append(queued(), tt.exec))

			if err := s.JSONUpdate(context.Background(), key, ops); !tt.wantErr(err) {
				t.Fatalf("unexpected result: %v", err)
			}
		})
	}
}

func TestJSONUpdate_NoOpsSkipsServer(t *testing.T) {
	s, _ := newMockedStore(t)
	if err := s.JSONUpdate(context.Background(), "ckh:resource:r1", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestJSONUpdate_UnknownOpSkipsServer(t *testing.T) {
	s, _ := newMockedStore(t)
	err := s.JSONUpdate(context.Background(), "ckh:resource:r1", []db.JSONOp{{Kind: "merge", Path: "$"}})
	if err == nil {
		t.Fatal("expected error for unknown op kind")
	}
}
