package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/cengkuru/costknowledgehub/internal/domain"
	domlc "github.com/cengkuru/costknowledgehub/internal/domain/lifecycle"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

var errorHandlers = []errorHandler{
	invalidTransitionHandler,
	validationHandler,
	sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
	sentinelHandler(domain.ErrAlreadyExists, http.StatusConflict, codeAlreadyExists),
	sentinelHandler(domain.ErrUpstream, http.StatusBadGateway, codeUpstreamError),
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrAlreadyExists,
		domain.ErrUpstream,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// validationHandler answers 400 with the offending field and reason.
func validationHandler(w http.ResponseWriter, err error, _ string) bool {
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		if !errors.Is(err, domain.ErrValidation) {
			return false
		}
		writeError(w, http.StatusBadRequest, codeValidationFailed, domain.ErrValidation.Error())
		return true
	}
	writeError(w, http.StatusBadRequest, codeValidationFailed, ve.Error())
	return true
}

// invalidTransitionHandler answers 422 listing the states the resource may move to.
func invalidTransitionHandler(w http.ResponseWriter, err error, _ string) bool {
	if !errors.Is(err, domain.ErrInvalidTransition) {
		return false
	}
	var ite *domlc.InvalidTransitionError
	if errors.As(err, &ite) {
		writeJSON(w, http.StatusUnprocessableEntity, invalidTransitionResponse{
			Code:    codeInvalidTransition,
			Message: ite.Error(),
			From:    ite.From,
			To:      ite.To,
			Allowed: nonNil(ite.Allowed),
		})
		return true
	}
	writeError(w, http.StatusUnprocessableEntity, codeInvalidTransition, domain.ErrInvalidTransition.Error())
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := s.requestLogger(r)
	msg := safeDomainMessage(err)
	for _, h := range errorHandlers {
		if h(w, err, msg) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
