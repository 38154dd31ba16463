package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/cengkuru/costknowledgehub/internal/db"
	"github.com/cengkuru/costknowledgehub/internal/domain/search/filter"
)

const dialect = "2"

// SearchText runs FT.SEARCH. Without Sort, hits come back in weighted text relevance order.
func (s *Store) SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("invalid text query: %w", err)
	}

	cmd := s.b().Arbitrary("FT.SEARCH").Args(searchArgs(q)...).Build()
	reply, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	return parseSearchReply(reply)
}

func searchArgs(q *db.TextQuery) []string {
	args := []string{q.IndexName, BuildQuery(q.Text, q.Filters)}
	if n := len(q.ReturnFields); n > 0 {
		args = append(args, "RETURN", strconv.Itoa(n))
		args = append(args, q.ReturnFields...)
	}
	if q.Sort != nil && q.Sort.Field != "" {
		order := "ASC"
		if q.Sort.Desc {
			order = "DESC"
		}
		args = append(args, "SORTBY", q.Sort.Field, order)
	}
	return append(args, "LIMIT", strconv.Itoa(q.Offset), strconv.Itoa(q.Limit), "DIALECT", dialect)
}

// SearchCount counts the matches of expr without loading any document.
func (s *Store) SearchCount(ctx context.Context, index string, expr filter.Expression) (int, error) {
	reply, err := s.do(ctx, s.countCmd(index, BuildQuery("", expr))).ToArray()
	if err != nil {
		return 0, &db.Error{Op: db.OpSearch, Err: err}
	}
	return replyTotal(reply)
}

// SearchCountMulti pipelines one count per expression; facet counts use it.
func (s *Store) SearchCountMulti(ctx context.Context, index string, exprs []filter.Expression) ([]int, error) {
	if len(exprs) == 0 {
		return nil, nil
	}

	cmds := make([]rueidis.Completed, 0, len(exprs))
	for _, e := range exprs {
		cmds = append(cmds, s.countCmd(index, BuildQuery("", e)))
	}

	counts := make([]int, len(exprs))
	for i, res := range s.client.DoMulti(ctx, cmds...) {
		reply, err := res.ToArray()
		if err != nil {
			return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("count %d of %d: %w", i+1, len(exprs), err)}
		}
		if counts[i], err = replyTotal(reply); err != nil {
			return nil, err
		}
	}
	return counts, nil
}

// TagValues lists the distinct values of a TAG field via FT.TAGVALS.
func (s *Store) TagValues(ctx context.Context, index, field string) ([]string, error) {
	vals, err := s.do(ctx, s.b().Arbitrary("FT.TAGVALS").Args(index, field).Build()).AsStrSlice()
	switch {
	case isRedisErr(err, errUnknownIndex):
		return nil, db.ErrIndexNotFound
	case err != nil:
		return nil, &db.Error{Op: db.OpTagVals, Err: err}
	}
	return vals, nil
}

func (s *Store) countCmd(index, query string) rueidis.Completed {
	return s.b().Arbitrary("FT.SEARCH").Args(index, query, "LIMIT", "0", "0", "DIALECT", dialect).Build()
}

// replyTotal reads the leading match count of an FT.SEARCH reply.
func replyTotal(reply []rueidis.RedisMessage) (int, error) {
	if len(reply) == 0 {
		return 0, nil
	}
	n, err := reply[0].AsInt64()
	if err != nil {
		return 0, fmt.Errorf("parse search total: %w", err)
	}
	return int(n), nil
}

// parseSearchReply decodes [total, key1, [f1, v1, ...], key2, ...]. Malformed hits are skipped.
func parseSearchReply(reply []rueidis.RedisMessage) (*db.SearchResult, error) {
	total, err := replyTotal(reply)
	if err != nil {
		return nil, err
	}
	res := &db.SearchResult{Total: total}
	if total == 0 {
		return res, nil
	}

	hits := reply[1:]
	res.Entries = make([]db.SearchEntry, 0, len(hits)/2)
	for i := 0; i+1 < len(hits); i += 2 {
		key, err := hits[i].ToString()
		if err != nil {
			continue
		}
		pairs, err := hits[i+1].ToArray()
		if err != nil {
			continue
		}
		res.Entries = append(res.Entries, db.SearchEntry{Key: key, Fields: fieldMap(pairs)})
	}
	return res, nil
}

func fieldMap(pairs []rueidis.RedisMessage) map[string]string {
	fields := make(map[string]string, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		name, nerr := pairs[i].ToString()
		value, verr := pairs[i+1].ToString()
		if nerr == nil && verr == nil {
			fields[name] = value
		}
	}
	return fields
}
