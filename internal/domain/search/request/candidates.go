package request

import "github.com/cengkuru/costknowledgehub/internal/domain/search/mode"

// CandidateQuery is a store read over PUBLISHED resources feeding one ranking strategy.
type CandidateQuery struct {
	// Text is matched against the weighted text fields; empty matches everything.
	Text             string
	Filters          Filters
	RequireEmbedding bool
	Sort             mode.Sort
	// Limit caps the candidate pool; ranking and paging happen after retrieval.
	Limit int
}
