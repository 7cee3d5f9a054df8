package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/YelzhanWeb/cafestock/internal/app/counting"
	"github.com/YelzhanWeb/cafestock/internal/domain"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func respondJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

// respondDomainError maps the error taxonomy onto HTTP statuses:
// validation 400, not found 404, conflict 409, transient store 503.
func respondDomainError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: validationErr.Message, Field: validationErr.Field})
		return
	}

	var notFoundErr *domain.NotFoundError
	if errors.As(err, &notFoundErr) {
		respondJSON(w, http.StatusNotFound, ErrorResponse{Error: notFoundErr.Error()})
		return
	}
	if errors.Is(err, counting.ErrSessionNotFound) {
		respondJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}

	var conflictErr *domain.ConflictError
	if errors.As(err, &conflictErr) {
		respondJSON(w, http.StatusConflict, ErrorResponse{Error: conflictErr.Error()})
		return
	}

	var storeErr *domain.TransientStoreError
	if errors.As(err, &storeErr) {
		// Safe for the caller to retry; no optimistic state was
		// presented as durable.
		respondJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "store temporarily unavailable, retry"})
		return
	}

	respondJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}
