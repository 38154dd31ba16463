// Package openai embeds resource text through an OpenAI-compatible embeddings endpoint.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/cengkuru/costknowledgehub/internal/domain"
	"github.com/cengkuru/costknowledgehub/internal/metrics"
)

var (
	_ domain.Embedder      = (*Embedder)(nil)
	_ domain.HealthChecker = (*Embedder)(nil)
)

// DefaultMaxInputRunes keeps a resource's text under the provider's token window.
const DefaultMaxInputRunes = 16000

// Failure reasons reported on the embedding error counter.
const (
	reasonRateLimited   = "rate_limited"
	reasonServerError   = "server_error"
	reasonAPIError      = "api_error"
	reasonTransport     = "transport_error"
	reasonEmptyResponse = "empty_response"
)

// Config holds the embedding provider settings.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	// MaxInputRunes truncates longer inputs. Zero uses DefaultMaxInputRunes.
	MaxInputRunes int
	Provider      string
	Logger        *zap.Logger
}

// Embedder turns resource text into vectors through an OpenAI-compatible embeddings API.
type Embedder struct {
	client     *openai.Client
	model      string
	dimensions int
	maxRunes   int
	provider   string
	logger     *zap.Logger
}

// NewEmbedder creates an OpenAI-compatible embedding provider.
func NewEmbedder(cfg *Config) *Embedder {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	e := &Embedder{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		maxRunes:   cfg.MaxInputRunes,
		provider:   cfg.Provider,
		logger:     cfg.Logger,
	}
	if e.maxRunes <= 0 {
		e.maxRunes = DefaultMaxInputRunes
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	return e
}

// Embed implements domain.Embedder. Blank text is rejected before any provider call.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if strings.TrimSpace(text) == "" {
		return domain.EmbeddingResult{}, domain.NewValidationError("text", "nothing to embed")
	}

	input, truncated := truncateRunes(text, e.maxRunes)
	if truncated {
		e.logger.Debug("Truncated embedding input",
			zap.Int("runes", utf8.RuneCountInString(text)), zap.Int("max_runes", e.maxRunes))
	}

	req := openai.EmbeddingRequest{
		Input:          []string{input},
		Model:          openai.EmbeddingModel(e.model),
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
		Dimensions:     e.dimensions,
	}

	start := time.Now()
	resp, err := e.client.CreateEmbeddings(ctx, req)
	elapsed := time.Since(start)

	if err != nil {
		reason, wrapped := classify(err)
		e.fail(reason)
		return domain.EmbeddingResult{}, wrapped
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		e.fail(reasonEmptyResponse)
		return domain.EmbeddingResult{}, fmt.Errorf("%s returned no embedding: %w", e.provider, domain.ErrUpstream)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, e.model, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(e.provider, e.model).Observe(elapsed.Seconds())
	if resp.Usage.TotalTokens > 0 {
		metrics.EmbeddingTokensTotal.WithLabelValues(e.provider, e.model, "prompt").Add(float64(resp.Usage.PromptTokens))
		metrics.EmbeddingTokensTotal.WithLabelValues(e.provider, e.model, "total").Add(float64(resp.Usage.TotalTokens))
	}

	return domain.EmbeddingResult{
		Embedding:    resp.Data[0].Embedding,
		PromptTokens: resp.Usage.PromptTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}, nil
}

// HealthCheck lists the provider's models. When the provider publishes a model list,
// the configured model must be on it.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	list, err := e.client.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	if len(list.Models) == 0 {
		return nil
	}
	for _, m := range list.Models {
		if m.ID == e.model {
			return nil
		}
	}
	return fmt.Errorf("model %q not served by %s: %w", e.model, e.provider, domain.ErrUpstream)
}

func (e *Embedder) fail(reason string) {
	metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, e.model, "error").Inc()
	metrics.EmbeddingErrorsTotal.WithLabelValues(e.provider, e.model, reason).Inc()
}

// classify maps a client error to a metric reason and an ErrUpstream-wrapped error
// carrying the most readable message the provider sent.
func classify(err error) (string, error) {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		msg := detailFrom(reqErr.Body)
		if msg == "" {
			msg = strings.TrimSpace(string(reqErr.Body))
		}
		return reasonFor(reqErr.HTTPStatusCode),
			fmt.Errorf("embedding API error %d: %s: %w", reqErr.HTTPStatusCode, msg, domain.ErrUpstream)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return reasonFor(apiErr.HTTPStatusCode),
			fmt.Errorf("embedding API error %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, domain.ErrUpstream)
	}

	return reasonTransport, fmt.Errorf("embedding request failed: %v: %w", err, domain.ErrUpstream)
}

func reasonFor(status int) string {
	switch {
	case status == http.StatusTooManyRequests:
		return reasonRateLimited
	case status >= http.StatusInternalServerError:
		return reasonServerError
	default:
		return reasonAPIError
	}
}

// detailFrom reads the "detail" field some OpenAI-compatible providers use for errors.
func detailFrom(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) != nil {
		return ""
	}
	return parsed.Detail
}

// truncateRunes cuts s to at most n runes without splitting a character.
func truncateRunes(s string, n int) (string, bool) {
	if utf8.RuneCountInString(s) <= n {
		return s, false
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos], true
		}
		i++
	}
	return s, false
}
