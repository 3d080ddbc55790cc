package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"motion-curator/core/errs"
)

// problemDetail is the JSON error body returned by every endpoint.
type problemDetail struct {
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// writeError maps the core error taxonomy onto HTTP status codes.
// Conflicts are distinguished from validation failures so clients can
// retry with backoff instead of treating them as fatal.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	title := "Internal Server Error"
	detail := "An unexpected error occurred."

	switch {
	case errors.Is(err, errs.ErrValidation):
		status, title, detail = http.StatusBadRequest, "Bad Request", err.Error()
	case errors.Is(err, errs.ErrNotFound):
		status, title, detail = http.StatusNotFound, "Not Found", err.Error()
	case errors.Is(err, errs.ErrConflict):
		status, title, detail = http.StatusConflict, "Conflict", err.Error()
	case errors.Is(err, errs.ErrInvalidState):
		status, title, detail = http.StatusConflict, "Invalid State", err.Error()
	case errors.Is(err, errs.ErrArtifactUnavailable):
		status, title, detail = http.StatusBadGateway, "Artifact Unavailable", err.Error()
	default:
		// Internals are logged, never exposed.
		log.Printf("internal error: %v", err)
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(problemDetail{Title: title, Status: status, Detail: detail}); encErr != nil {
		log.Printf("failed to encode error response: %v", encErr)
	}
}

func writeValidationError(w http.ResponseWriter, detail string) {
	writeError(w, errs.Validationf("%s", detail))
}
