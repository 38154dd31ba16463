// Package embedding throttles and logs calls to the embedding provider.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"

	"github.com/cengkuru/costknowledgehub/internal/domain"
	"github.com/cengkuru/costknowledgehub/internal/metrics"
)

// Limiter throttles provider calls. *rate.Limiter satisfies it.
type Limiter interface {
	Wait(ctx context.Context) error
}

// NewLimiter builds a token bucket of rps with burst. rps <= 0 returns nil: no limit.
func NewLimiter(rps float64, burst int) Limiter {
	if rps <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(rps), max(burst, 1))
}

type unlimited struct{}

func (unlimited) Wait(context.Context) error { return nil }

// InstrumentedEmbedder throttles calls to the provider and logs their outcome.
// Request, latency and token metrics belong to the provider client; this layer
// records only the time spent waiting for a token.
type InstrumentedEmbedder struct {
	inner    domain.Embedder
	provider string
	limiter  Limiter
	logger   *zap.Logger
}

// NewInstrumentedEmbedder wraps inner. A nil limiter means unthrottled.
func NewInstrumentedEmbedder(inner domain.Embedder, provider, model string, limiter Limiter, logger *zap.Logger) *InstrumentedEmbedder {
	if limiter == nil {
		limiter = unlimited{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstrumentedEmbedder{
		inner:    inner,
		provider: provider,
		limiter:  limiter,
		logger:   logger.With(zap.String("provider", provider), zap.String("model", model)),
	}
}

// Embed waits for a token, then calls the provider.
func (e *InstrumentedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	waited := time.Now()
	if err := e.limiter.Wait(ctx); err != nil {
		e.logger.Warn("Gave up waiting for an embedding rate-limit token", zap.Error(err))
		return domain.EmbeddingResult{}, fmt.Errorf("rate limit: %w", err)
	}
	if _, throttled := e.limiter.(unlimited); !throttled {
		metrics.EmbeddingRateLimitWait.WithLabelValues(e.provider).Observe(time.Since(waited).Seconds())
	}

	start := time.Now()
	res, err := e.inner.Embed(ctx, text)
	took := time.Since(start)
	if err != nil {
		e.logger.Log(failureLevel(ctx, err), "Embedding request failed", zap.Duration("duration", took), zap.Error(err))
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	e.logger.Debug("Embedded text",
		zap.Duration("duration", took),
		zap.Int("dimensions", res.Dimensions()),
		zap.Int("total_tokens", res.TotalTokens),
	)
	return res, nil
}

// failureLevel keeps caller mistakes and abandoned requests out of the error log.
func failureLevel(ctx context.Context, err error) zapcore.Level {
	switch {
	case errors.Is(err, domain.ErrValidation), ctx.Err() != nil:
		return zapcore.DebugLevel
	default:
		return zapcore.ErrorLevel
	}
}
