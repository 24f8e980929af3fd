// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ManuGH/oldtube/internal/ingest"
	"github.com/ManuGH/oldtube/internal/library"
	"github.com/ManuGH/oldtube/internal/log"
)

const (
	codeNotFound     = "not_found"
	codeInvalidInput = "invalid_input"
	codeConflict     = "conflict"
	codeUnauthorized = "unauthorized"
	codeForbidden    = "forbidden"
	codeTimeout      = "upload_timeout"
	codeTooLarge     = "too_large"
	codeInternal     = "internal_error"
)

// errorBody is the shape of every JSON error response.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: message, Code: code})
}

// writeUnauthorized writes a 401 Unauthorized response
func writeUnauthorized(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, codeUnauthorized, "Unknown or missing user.")
}

// writeForbidden writes a 403 Forbidden response
func writeForbidden(w http.ResponseWriter) {
	writeError(w, http.StatusForbidden, codeForbidden, "Administrator access required.")
}

// respondError maps domain errors onto HTTP responses. Anything unexpected
// is logged once here and hidden behind a generic 500.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ingest.ValidationError
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Code, verr.Message)
	case errors.As(err, &maxErr):
		writeError(w, http.StatusRequestEntityTooLarge, codeTooLarge, "Upload exceeds the size limit.")
	case errors.Is(err, library.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, codeInvalidInput, inputMessage(err))
	case errors.Is(err, library.ErrNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, "Not found")
	case errors.Is(err, library.ErrForbidden):
		writeError(w, http.StatusForbidden, codeForbidden, "Not allowed.")
	case errors.Is(err, library.ErrConflict):
		writeError(w, http.StatusConflict, codeConflict, "Already exists.")
	default:
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().
			Err(err).
			Str(log.FieldEvent, "api.internal_error").
			Str(log.FieldMethod, r.Method).
			Str(log.FieldPath, r.URL.Path).
			Msg("request failed")
		writeError(w, http.StatusInternalServerError, codeInternal, "Internal server error")
	}
}

// inputMessage strips the sentinel prefix from a wrapped ErrInvalidInput.
func inputMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), library.ErrInvalidInput.Error()+": ")
	if msg == "" {
		return "Invalid input."
	}
	return msg
}
