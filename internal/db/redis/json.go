package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/cengkuru/costknowledgehub/internal/db"
)

// Server error fragments for a JSON write on a missing key or path. A non-root
// JSON.SET on a missing key answers "new objects must be created at the root".
var missingJSONTarget = []string{"does not exist", "could not perform", "created at the root"}

// JSONSet writes data at path, creating the document when path is the root.
func (s *Store) JSONSet(ctx context.Context, key, path string, data []byte) error {
	cmd := s.b().JsonSet().Key(key).Path(path).Value(rueidis.BinaryString(data)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpJSONSet, Err: err}
	}
	return nil
}

// JSONGet reads the document at key, optionally restricted to paths.
// A JSONPath that matches nothing replies "[]", which is reported as not found.
func (s *Store) JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error) {
	cmd := s.b().JsonGet().Key(key).Path(paths...).Build()
	raw, err := s.do(ctx, cmd).ToString()
	switch {
	case rueidis.IsRedisNil(err):
		return nil, db.ErrKeyNotFound
	case err != nil:
		return nil, &db.Error{Op: db.OpJSONGet, Err: err}
	case raw == "" || raw == "[]":
		return nil, db.ErrKeyNotFound
	}
	return []byte(raw), nil
}

// JSONNumIncrBy adds delta to the number at path. JSONPath replies are arrays
// ("[5]"), legacy-path replies are scalars ("5"); both are accepted.
func (s *Store) JSONNumIncrBy(ctx context.Context, key, path string, delta int64) (int64, error) {
	cmd := s.b().JsonNumincrby().Key(key).Path(path).Value(float64(delta)).Build()
	raw, err := s.do(ctx, cmd).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) || missingTarget(err) {
			return 0, db.ErrKeyNotFound
		}
		return 0, &db.Error{Op: db.OpJSONNumIncrBy, Err: err}
	}
	return parseNumReply(raw)
}

// JSONUpdate queues ops between MULTI and EXEC so readers never see half an update.
// On a missing key every op fails server-side and nothing is written.
func (s *Store) JSONUpdate(ctx context.Context, key string, ops []db.JSONOp) error {
	if len(ops) == 0 {
		return nil
	}

	cmds := make([]rueidis.Completed, 0, len(ops)+2)
	cmds = append(cmds, s.b().Multi().Build())
	for _, op := range ops {
		cmd, err := s.jsonOpCmd(key, op)
		if err != nil {
			return err
		}
		cmds = append(cmds, cmd)
	}
	cmds = append(cmds, s.b().Exec().Build())

	resps := s.client.DoMulti(ctx, cmds...)
	for i, resp := range resps[:len(resps)-1] {
		if err := resp.Error(); err != nil {
			return &db.Error{Op: db.OpExec, Err: fmt.Errorf("queue command %d: %w", i, err)}
		}
	}
	replies, err := resps[len(resps)-1].ToArray()
	if err != nil {
		return &db.Error{Op: db.OpExec, Err: err}
	}
	for i := range replies {
		err := replies[i].Error()
		if err == nil {
			continue
		}
		if missingTarget(err) {
			return db.ErrKeyNotFound
		}
		return &db.Error{Op: opName(ops[i].Kind), Err: fmt.Errorf("%s: %w", ops[i].Path, err)}
	}
	return nil
}

func (s *Store) jsonOpCmd(key string, op db.JSONOp) (rueidis.Completed, error) {
	value := rueidis.BinaryString(op.Value)
	switch op.Kind {
	case db.JSONOpSet:
		return s.b().JsonSet().Key(key).Path(op.Path).Value(value).Build(), nil
	case db.JSONOpAppend:
		return s.b().JsonArrappend().Key(key).Path(op.Path).Value(value).Build(), nil
	default:
		return rueidis.Completed{}, fmt.Errorf("unknown json op %q at %s", op.Kind, op.Path)
	}
}

func opName(k db.JSONOpKind) string {
	if k == db.JSONOpAppend {
		return db.OpJSONArrAppend
	}
	return db.OpJSONSet
}

func missingTarget(err error) bool {
	for _, frag := range missingJSONTarget {
		if isRedisErr(err, frag) {
			return true
		}
	}
	return false
}

// parseNumReply reads "5", "[5]" or "[5.0]". "[]" and "[null]" mean the path did not
// resolve to a number.
func parseNumReply(raw string) (int64, error) {
	v := strings.TrimSuffix(strings.TrimPrefix(raw, "["), "]")
	if v == "" || v == "null" {
		return 0, db.ErrKeyNotFound
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s reply %q: %w", db.OpJSONNumIncrBy, raw, err)
	}
	return int64(f), nil
}
