package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/renova/internal/engine"
	"github.com/erazemk/renova/internal/imaging"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// maxJSONBytes caps JSON request bodies. Inline images arrive base64
// encoded, a third larger than the raw upload cap.
const maxJSONBytes = imaging.MaxUploadBytes/3*4 + maxFormMemory

// decodeJSON decodes a JSON request body of at most maxJSONBytes into the
// given target.
func decodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBytes)
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// invalidBody writes the response for a request body decodeJSON rejected.
func invalidBody(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		jsonError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	jsonError(w, http.StatusBadRequest, "invalid request body")
}

// writeEngineError maps engine errors to HTTP responses.
func writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, engine.ErrItemNotFound),
		errors.Is(err, engine.ErrLoanNotFound):
		jsonError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, engine.ErrItemUnavailable),
		errors.Is(err, engine.ErrDuplicateUsername),
		errors.Is(err, engine.ErrLastAdmin),
		errors.Is(err, engine.ErrSelfDeletion):
		jsonError(w, http.StatusConflict, err.Error())
	case errors.Is(err, engine.ErrInvalidInput):
		jsonError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, engine.ErrForbidden):
		jsonError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, engine.ErrInvalidCredentials):
		jsonError(w, http.StatusUnauthorized, err.Error())
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}
