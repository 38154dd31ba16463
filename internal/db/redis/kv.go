package redis

import (
	"context"
	"time"

	"github.com/redis/rueidis"

	"github.com/cengkuru/costknowledgehub/internal/db"
)

// Get returns the value at key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.do(ctx, s.b().Get().Key(key).Build()).AsBytes()
	switch {
	case rueidis.IsRedisNil(err):
		return nil, db.ErrKeyNotFound
	case err != nil:
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return data, nil
}

// Set stores value at key without expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.set(ctx, s.b().Set().Key(key).Value(rueidis.BinaryString(value)).Build())
}

// SetWithTTL stores value at key, expiring after ttl.
func (s *Store) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.set(ctx, s.b().Set().Key(key).Value(rueidis.BinaryString(value)).Ex(ttl).Build())
}

// SetNX stores value only when key is absent. A nil reply means another writer got there first.
func (s *Store) SetNX(ctx context.Context, key string, value []byte) (bool, error) {
	err := s.do(ctx, s.b().Set().Key(key).Value(rueidis.BinaryString(value)).Nx().Build()).Error()
	switch {
	case rueidis.IsRedisNil(err):
		return false, nil
	case err != nil:
		return false, &db.Error{Op: db.OpSet, Err: err}
	}
	return true, nil
}

// Del removes key. Removing a missing key is not an error.
func (s *Store) Del(ctx context.Context, key string) error {
	if err := s.do(ctx, s.b().Del().Key(key).Build()).Error(); err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	return nil
}

func (s *Store) set(ctx context.Context, cmd rueidis.Completed) error {
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}
