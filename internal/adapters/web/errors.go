package web

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"shopdesk/internal/core"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

// writeJSONStatus writes a JSON response with the given status.
func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeServiceError maps a core error onto its HTTP status. Unknown errors are
// logged with the request id and reported as a generic 500 so storage details
// never reach the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr *core.ValidationError
		stockErr      *core.InsufficientStockError
	)
	switch {
	case errors.As(err, &validationErr):
		writeError(w, r, validationErr.Error(), "VALIDATION_ERROR", http.StatusBadRequest)
	case errors.As(err, &stockErr):
		writeError(w, r, stockErr.Error(), "INSUFFICIENT_STOCK", http.StatusConflict)
	case errors.Is(err, core.ErrNotFound):
		writeError(w, r, err.Error(), "NOT_FOUND", http.StatusNotFound)
	case errors.Is(err, core.ErrDuplicateKey):
		writeError(w, r, err.Error(), "DUPLICATE_KEY", http.StatusConflict)
	case errors.Is(err, core.ErrInvalidCredentials):
		writeError(w, r, err.Error(), "UNAUTHORIZED", http.StatusUnauthorized)
	default:
		log.Printf("request %s: %v", requestIDFromContext(r.Context()), err)
		writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}
