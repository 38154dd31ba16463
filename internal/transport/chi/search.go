package chi

import (
	"context"
	"net/http"

	"github.com/cengkuru/costknowledgehub/internal/domain/search/request"
	"github.com/cengkuru/costknowledgehub/internal/domain/search/result"
)

// Search handles GET /api/v1/search: hybrid ranking with total, facets and paging.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	req, err := s.searchRequestFrom(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	page, err := s.search.Search(r.Context(), &req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	facets := page.Facets
	writeJSON(w, http.StatusOK, searchResponse{
		Results:    hitsToResponse(page.Results),
		Total:      page.Total,
		Page:       page.Page,
		Limit:      req.Limit(),
		TotalPages: page.TotalPages,
		Facets:     &facets,
	})
}

// KeywordSearch handles GET /api/v1/search/keyword.
func (s *Server) KeywordSearch(w http.ResponseWriter, r *http.Request) {
	s.singleStrategy(w, r, s.search.KeywordSearch)
}

// SemanticSearch handles GET /api/v1/search/semantic.
func (s *Server) SemanticSearch(w http.ResponseWriter, r *http.Request) {
	s.singleStrategy(w, r, s.search.SemanticSearch)
}

type strategyFunc func(ctx context.Context, req *request.Request) ([]result.Hit, error)

// singleStrategy runs one ranking strategy and pages its ranked list. Total is the ranked list length.
func (s *Server) singleStrategy(w http.ResponseWriter, r *http.Request, run strategyFunc) {
	req, err := s.searchRequestFrom(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	if req.IsBlank() {
		writeJSON(w, http.StatusOK, searchResponse{
			Results: []hitResponse{},
			Page:    req.Page(),
			Limit:   req.Limit(),
		})
		return
	}

	hits, err := run(r.Context(), &req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Results:    hitsToResponse(result.Paginate(hits, req.Offset(), req.Limit())),
		Total:      len(hits),
		Page:       req.Page(),
		Limit:      req.Limit(),
		TotalPages: result.TotalPages(len(hits), req.Limit()),
	})
}
