// Package embcache caches resource embeddings in the store, keyed by model and text hash.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/cengkuru/costknowledgehub/internal/db"
	"github.com/cengkuru/costknowledgehub/internal/domain"
)

// DefaultTTL bounds how long a cached resource embedding is reused.
const DefaultTTL = 30 * 24 * time.Hour

// store is the consumer interface for the embedding cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Options configure the cache namespace and expiry.
type Options struct {
	// KeyPrefix is the shared store prefix; empty uses domain.DefaultKeyPrefix.
	KeyPrefix string
	// Model scopes keys so a model change never serves stale vectors.
	Model string
	// Dimensions, when set, rejects cached vectors of another length.
	Dimensions int
	TTL        time.Duration
}

// CachedEmbedder decorates an embedder. Edits that leave a resource's text unchanged reuse
// the stored vector, and concurrent misses on the same text share one provider call.
type CachedEmbedder struct {
	inner    domain.Embedder
	store    store
	prefix   string
	dims     int
	ttl      time.Duration
	lookups  *prometheus.CounterVec
	inflight singleflight.Group
	logger   *zap.Logger
}

// New creates a caching decorator. lookups counts by label "result" (hit, miss) and may be nil.
func New(inner domain.Embedder, s store, opts Options, lookups *prometheus.CounterVec, logger *zap.Logger) *CachedEmbedder {
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = domain.DefaultKeyPrefix
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedEmbedder{
		inner:   inner,
		store:   s,
		prefix:  opts.KeyPrefix + "emb_cache:" + opts.Model + ":",
		dims:    opts.Dimensions,
		ttl:     opts.TTL,
		lookups: lookups,
		logger:  logger,
	}
}

// Embed serves the cached vector or embeds and stores it. A hit reports zero tokens.
// Store failures only cost a provider call; they are logged, never returned.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := c.key(text)

	if vec := c.load(ctx, key); vec != nil {
		c.count("hit")
		return domain.EmbeddingResult{Embedding: vec}, nil
	}
	c.count("miss")

	v, err, _ := c.inflight.Do(key, func() (any, error) {
		res, err := c.inner.Embed(ctx, text)
		if err != nil {
			return domain.EmbeddingResult{}, err
		}
		c.save(ctx, key, res.Embedding)
		return res, nil
	})
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}
	return v.(domain.EmbeddingResult), nil
}

func (c *CachedEmbedder) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return c.prefix + hex.EncodeToString(sum[:])
}

func (c *CachedEmbedder) count(result string) {
	if c.lookups != nil {
		c.lookups.WithLabelValues(result).Inc()
	}
}

// load returns nil on any miss: absent, unreadable or of the wrong dimension.
func (c *CachedEmbedder) load(ctx context.Context, key string) []float32 {
	data, err := c.store.Get(ctx, key)
	switch {
	case errors.Is(err, db.ErrKeyNotFound):
		return nil
	case err != nil:
		c.logger.Warn("Failed to read cached embedding", zap.String("key", key), zap.Error(err))
		return nil
	}

	vec, err := decodeVector(data)
	if err != nil {
		c.logger.Warn("Discarding unreadable cached embedding", zap.String("key", key), zap.Error(err))
		return nil
	}
	if len(vec) == 0 || (c.dims > 0 && len(vec) != c.dims) {
		return nil
	}
	return vec
}

func (c *CachedEmbedder) save(ctx context.Context, key string, vec []float32) {
	if len(vec) == 0 {
		return
	}
	if err := c.store.SetWithTTL(ctx, key, encodeVector(vec), c.ttl); err != nil {
		c.logger.Warn("Failed to cache embedding", zap.String("key", key), zap.Error(err))
	}
}

// encodeVector packs float32s little-endian, 4 bytes each.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 0, len(v)*4)
	for _, f := range v {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return buf
}

func decodeVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("cached embedding has %d bytes, not a multiple of 4", len(data))
	}
	vec := make([]float32, 0, len(data)/4)
	for off := 0; off < len(data); off += 4 {
		vec = append(vec, math.Float32frombits(binary.LittleEndian.Uint32(data[off:])))
	}
	return vec, nil
}
