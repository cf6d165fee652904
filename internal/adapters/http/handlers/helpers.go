package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/promptforge/promptforge/internal/adapters/http/dto"
	"github.com/promptforge/promptforge/internal/domain"
	"github.com/promptforge/promptforge/internal/ports"
)

// respondJSON writes a JSON response with the given status code
func respondJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error JSON response
func respondError(w http.ResponseWriter, errorType string, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.NewErrorResponse(errorType, message, status))
}

// respondDomainError maps domain sentinels to HTTP status codes.
func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrEmptyTemplate),
		errors.Is(err, domain.ErrDatasetEmpty),
		errors.Is(err, domain.ErrNoDimensions),
		errors.Is(err, domain.ErrInvalidID):
		respondError(w, "invalid_request", err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrPromptNotFound),
		errors.Is(err, domain.ErrVersionNotFound),
		errors.Is(err, domain.ErrNoActiveVersion),
		errors.Is(err, domain.ErrDatasetNotFound),
		errors.Is(err, domain.ErrEvaluationNotFound),
		errors.Is(err, domain.ErrImprovementNotFound),
		errors.Is(err, domain.ErrNotFound):
		respondError(w, "not_found", err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrVersionExists),
		errors.Is(err, domain.ErrPromotionConflict),
		errors.Is(err, domain.ErrInvalidStatusTransition),
		errors.Is(err, domain.ErrImprovementRunning):
		respondError(w, "conflict", err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrExecutionFailed),
		errors.Is(err, domain.ErrJudgeUnavailable),
		errors.Is(err, domain.ErrGenerationFailed):
		respondError(w, "upstream_error", err.Error(), http.StatusBadGateway)
	default:
		respondError(w, "internal_error", "An internal error occurred", http.StatusInternalServerError)
	}
}

// parseIntQuery parses an integer query parameter with a default value
func parseIntQuery(r *http.Request, name string, defaultValue int) int {
	value := r.URL.Query().Get(name)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

// validateURLParam validates and returns a URL parameter
func validateURLParam(r *http.Request, w http.ResponseWriter, paramName, errorField string) (string, bool) {
	value := chi.URLParam(r, paramName)
	if value == "" {
		respondError(w, "invalid_request", errorField+" is required", http.StatusBadRequest)
		return "", false
	}
	return value, true
}

// decodeJSON decodes JSON request body with error handling
func decodeJSON[T any](r *http.Request, w http.ResponseWriter) (*T, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, 1024*1024) // 1MB limit

	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid_request", "Invalid request body", http.StatusBadRequest)
		return nil, false
	}
	return &req, true
}

func toAdHocEntries(entries []dto.AdHocEntry) []ports.AdHocEntry {
	out := make([]ports.AdHocEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, ports.AdHocEntry{
			InputData:      e.InputData,
			ExpectedOutput: e.ExpectedOutput,
			Rubric:         e.Rubric,
		})
	}
	return out
}
