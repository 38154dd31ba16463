// Package db declares the storage contracts the repositories depend on.
// internal/db/redis implements them on Redis Stack (RedisJSON plus RediSearch).
package db

import (
	"context"
	"time"

	"github.com/cengkuru/costknowledgehub/internal/domain/search/filter"
)

// Store is everything the service needs from its database. Repositories declare
// narrower interfaces of their own; only wiring code sees the whole facade.
//
//nolint:interfacebloat // wiring facade; repositories depend on narrow interfaces
type Store interface {
	Documents
	Values
	Indexes
	Searcher
	Ping(ctx context.Context) error
	WaitForReady(ctx context.Context, timeout time.Duration) error
	Close()
}

// Documents stores resources and the taxonomy as JSON.
type Documents interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	// JSONGet returns ErrKeyNotFound for a missing key or an empty path match.
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	// JSONNumIncrBy adds delta to the number at path and returns the new value.
	JSONNumIncrBy(ctx context.Context, key, path string, delta int64) (int64, error)
	// JSONUpdate applies ops to an existing document in one transaction. Paths not named
	// by an op are left as stored. Returns ErrKeyNotFound when key does not exist.
	JSONUpdate(ctx context.Context, key string, ops []JSONOp) error
}

// JSONOpKind selects the command of a JSONOp.
type JSONOpKind string

const (
	// JSONOpSet replaces the value at Path.
	JSONOpSet JSONOpKind = "set"
	// JSONOpAppend appends Value to the array at Path.
	JSONOpAppend JSONOpKind = "append"
)

// JSONOp is one write of a partial document update. Value is encoded JSON.
type JSONOp struct {
	Kind  JSONOpKind
	Path  string
	Value []byte
}

// SetOp replaces the value at path.
func SetOp(path string, value []byte) JSONOp {
	return JSONOp{Kind: JSONOpSet, Path: path, Value: value}
}

// AppendOp appends value to the array at path.
func AppendOp(path string, value []byte) JSONOp {
	return JSONOp{Kind: JSONOpAppend, Path: path, Value: value}
}

// Values holds opaque byte values: uniqueness reservations, cached embeddings
// and the index schema fingerprint.
type Values interface {
	// Get returns ErrKeyNotFound for a missing key.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// SetNX reports false when key was already present.
	SetNX(ctx context.Context, key string, value []byte) (bool, error)
	Del(ctx context.Context, key string) error
}

// Indexes manages full-text index definitions.
type Indexes interface {
	// CreateIndex returns ErrIndexExists when name is taken.
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	// DropIndex keeps the indexed documents. Returns ErrIndexNotFound for an unknown name.
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Searcher queries an index.
type Searcher interface {
	SearchText(ctx context.Context, q *TextQuery) (*SearchResult, error)
	// SearchCount counts the documents matching expr.
	SearchCount(ctx context.Context, index string, expr filter.Expression) (int, error)
	// SearchCountMulti counts each of exprs in one pipelined round trip.
	SearchCountMulti(ctx context.Context, index string, exprs []filter.Expression) ([]int, error)
	// TagValues lists the distinct values of a TAG field.
	TagValues(ctx context.Context, index, field string) ([]string, error)
}
