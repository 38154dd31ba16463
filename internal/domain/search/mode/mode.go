package mode

// Mode is the search strategy.
type Mode string

// Search mode constants.
const (
	// Hybrid combines semantic and keyword search.
	Hybrid   Mode = "hybrid"
	Semantic Mode = "semantic"
	Keyword  Mode = "keyword"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Hybrid || m == Semantic || m == Keyword
}

// Sort is the keyword strategy ordering preference.
type Sort string

// Sort constants.
const (
	// SortRelevance orders by text-index relevance.
	SortRelevance Sort = "relevance"
	// SortRecency orders by publication date, newest first.
	SortRecency Sort = "recency"
	// SortPopularity orders by click count, highest first.
	SortPopularity Sort = "popularity"
)

// IsValid checks if the sort is one of the supported values.
func (s Sort) IsValid() bool {
	return s == SortRelevance || s == SortRecency || s == SortPopularity
}
