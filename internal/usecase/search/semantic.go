package search

import (
	"strings"

	"github.com/cengkuru/costknowledgehub/internal/domain/resource"
)

// Heuristic weights.
const (
	termOccurrenceWeight = 0.1
	embeddingBonus       = 0.2
)

// HeuristicStrategy approximates semantic relevance by term overlap.
// Each substring occurrence of a query term in the resource text adds 0.1;
// carrying an embedding adds 0.2.
type HeuristicStrategy struct{}

// Score implements SemanticStrategy.
func (HeuristicStrategy) Score(terms []string, r *resource.Resource) float64 {
	text := strings.ToLower(r.Text())
	var score float64
	for _, term := range terms {
		if term == "" {
			continue
		}
		score += float64(strings.Count(text, term)) * termOccurrenceWeight
	}
	if r.HasEmbedding() {
		score += embeddingBonus
	}
	return score
}
