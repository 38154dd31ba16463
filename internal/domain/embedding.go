package domain

import (
	"context"
	"fmt"
	"strings"
)

// Embedder turns resource or query text into a dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// HealthChecker is implemented by providers that can report their own availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult is a vector plus the provider's token accounting.
// Cache hits report zero tokens.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Dimensions is the vector length.
func (r EmbeddingResult) Dimensions() int { return len(r.Embedding) }

// InstructionEmbedder prefixes every text with a task instruction, which
// instruction-tuned models use to separate documents from queries.
type InstructionEmbedder struct {
	inner       Embedder
	instruction string
}

// NewInstructionEmbedder wraps inner. A blank instruction returns inner unchanged.
func NewInstructionEmbedder(inner Embedder, instruction string) Embedder {
	if strings.TrimSpace(instruction) == "" {
		return inner
	}
	return &InstructionEmbedder{inner: inner, instruction: instruction}
}

// Embed embeds instruction+text. Blank text is passed through untouched so the
// provider rejects it instead of embedding the bare instruction.
func (e *InstructionEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	if strings.TrimSpace(text) != "" {
		text = e.instruction + text
	}
	res, err := e.inner.Embed(ctx, text)
	if err != nil {
		return EmbeddingResult{}, fmt.Errorf("instruction embed: %w", err)
	}
	return res, nil
}
