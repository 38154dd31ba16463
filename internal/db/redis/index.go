package redis

import (
	"context"
	"fmt"

	"github.com/cengkuru/costknowledgehub/internal/db"
)

// Server error fragments RediSearch uses for index lifecycle conflicts.
const (
	errIndexExists  = "index already exists"
	errUnknownIndex = "unknown index name"
)

// CreateIndex runs FT.CREATE. An existing index yields db.ErrIndexExists.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	args, err := def.Args()
	if err != nil {
		return fmt.Errorf("index definition: %w", err)
	}

	cmd := s.b().Arbitrary("FT.CREATE").Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, errIndexExists) {
			return db.ErrIndexExists
		}
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	return nil
}

// DropIndex runs FT.DROPINDEX, keeping the documents.
func (s *Store) DropIndex(ctx context.Context, name string) error {
	cmd := s.b().Arbitrary("FT.DROPINDEX").Args(name).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, errUnknownIndex) {
			return db.ErrIndexNotFound
		}
		return &db.Error{Op: db.OpDropIndex, Err: err}
	}
	return nil
}

// IndexExists probes FT.INFO.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	cmd := s.b().Arbitrary("FT.INFO").Args(name).Build()
	err := s.do(ctx, cmd).Error()
	switch {
	case err == nil:
		return true, nil
	case isRedisErr(err, errUnknownIndex):
		return false, nil
	default:
		return false, &db.Error{Op: db.OpIndexInfo, Err: err}
	}
}
