package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ritzau/org-directory/pkg/hierarchy"
	"github.com/ritzau/org-directory/pkg/loader"
	"github.com/ritzau/org-directory/pkg/spreadsheet"
	"github.com/ritzau/org-directory/pkg/store"
)

var errLoaderUnavailable = errors.New("loading is not enabled on this server")

// requestError is a client mistake (bad JSON, missing field...)
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

type errorResponse struct {
	Error       string   `json:"error"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	var reqErr *requestError
	var maxErr *http.MaxBytesError

	switch {
	case errors.As(err, &reqErr):
		return http.StatusBadRequest
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, hierarchy.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, hierarchy.ErrCyclicHierarchy), errors.Is(err, store.ErrDuplicateName):
		return http.StatusConflict
	case errors.Is(err, store.ErrInvalidEmployee), errors.Is(err, spreadsheet.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, loader.ErrSourceFailed):
		return http.StatusBadGateway
	case errors.Is(err, errLoaderUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeError writes {"error": ...} with the mapped status. Not-found errors
// carry "did you mean" suggestions.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}

	var notFound *hierarchy.NotFoundError
	if errors.As(err, &notFound) {
		resp.Suggestions = s.store.Suggest(notFound.Name, 5)
	}
	if status >= http.StatusInternalServerError {
		log.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}

	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn("could not encode response", "error", err)
	}
}

// decodeJSON reads a JSON request body into v
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil {
		return badRequest("request body is required")
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return badRequest("invalid JSON body: %v", err)
	}
	return nil
}
