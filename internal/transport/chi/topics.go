package chi

import (
	"net/http"

	"github.com/cengkuru/costknowledgehub/internal/repository/taxonomy"
)

// ListTopics handles GET /api/v1/topics.
func (s *Server) ListTopics(w http.ResponseWriter, r *http.Request) {
	topics, err := s.topics.List(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, topicsResponse{Topics: nonNil(topics)})
}

// ReplaceTopics handles PUT /api/v1/topics. Search picks the change up on the next cache refresh.
func (s *Server) ReplaceTopics(w http.ResponseWriter, r *http.Request) {
	var req topicsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Topics == nil {
		req.Topics = []taxonomy.Topic{}
	}
	if err := s.topics.Replace(r.Context(), req.Topics); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, topicsResponse{Topics: req.Topics})
}
