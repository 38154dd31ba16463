package chi

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/cengkuru/costknowledgehub/internal/domain"
	logpkg "github.com/cengkuru/costknowledgehub/internal/logger"
)

// CreateResource handles POST /api/v1/resources.
func (s *Server) CreateResource(w http.ResponseWriter, r *http.Request) {
	var req createResourceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	in, err := resourceFromCreate(&req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	created, err := s.resources.Create(r.Context(), &in, actorFrom(r))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/v1/resources/"+url.PathEscape(created.ID))
	writeJSON(w, http.StatusCreated, resourceToResponse(&created))
}

// GetResource handles GET /api/v1/resources/{id}.
func (s *Server) GetResource(w http.ResponseWriter, r *http.Request) {
	res, err := s.resources.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resourceToResponse(&res))
}

// PatchResource handles PATCH /api/v1/resources/{id}. Status is not editable here.
func (s *Server) PatchResource(w http.ResponseWriter, r *http.Request) {
	var req patchResourceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	p, err := patchFromRequest(&req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	res, err := s.resources.Patch(r.Context(), chi.URLParam(r, "id"), &p, actorFrom(r))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resourceToResponse(&res))
}

// TransitionResource handles POST /api/v1/resources/{id}/transitions.
func (s *Server) TransitionResource(w http.ResponseWriter, r *http.Request) {
	var req transitionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Status == "" {
		s.handleDomainError(w, r, domain.NewValidationError("status", "is required"))
		return
	}

	id := chi.URLParam(r, "id")
	r = r.WithContext(logpkg.With(r.Context(), zap.String("resource_id", id), zap.String("to", string(req.Status))))

	res, err := s.lifecycle.Transition(r.Context(), id, req.Status, actorFrom(r), req.Reason)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resourceToResponse(&res))
}

// ListTransitions handles GET /api/v1/resources/{id}/transitions.
func (s *Server) ListTransitions(w http.ResponseWriter, r *http.Request) {
	current, next, err := s.lifecycle.NextStatuses(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transitionsResponse{Status: current, Allowed: nonNil(next)})
}

// RecordClick handles POST /api/v1/resources/{id}/clicks.
func (s *Server) RecordClick(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	clicks, err := s.resources.RecordClick(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, clickResponse{ID: id, Clicks: clicks})
}

// decodeBody reads a size-capped JSON body, answering 400 itself on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}
