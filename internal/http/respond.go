package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

const internalErrorMessage = "Internal server error"

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// respondError writes the terminal {"error": ...} envelope.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondValidation writes the {"errors": [...]} envelope with field-level
// messages.
func respondValidation(w http.ResponseWriter, errs []FieldError) {
	respondJSON(w, http.StatusBadRequest, map[string][]FieldError{"errors": errs})
}

// respondInternal hides the underlying error from the client and logs it.
func respondInternal(w http.ResponseWriter, r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "Request failed",
		"error", err, "method", r.Method, "path", r.URL.Path)
	respondError(w, http.StatusInternalServerError, internalErrorMessage)
}
