package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/garnizeh/showcase/internal/auth"
	"github.com/garnizeh/showcase/internal/content"
	"github.com/garnizeh/showcase/pkg/repository"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// page is the envelope of every list response.
type page[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("encode response", slog.Any("err", err))
	}
}

// writeError maps err onto a status code. Unknown errors are logged and
// reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *content.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, errorResponse{Error: "validation failed", Fields: ve.Fields}, http.StatusBadRequest)
	case errors.Is(err, auth.ErrWeakPassword):
		writeJSON(w, errorResponse{Error: "validation failed", Fields: map[string]string{"password": err.Error()}}, http.StatusBadRequest)
	case errors.Is(err, errNotFound):
		writeJSON(w, errorResponse{Error: "not found"}, http.StatusNotFound)
	case errors.Is(err, repository.ErrConflict):
		writeJSON(w, errorResponse{Error: "already exists"}, http.StatusConflict)
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeJSON(w, errorResponse{Error: err.Error()}, http.StatusUnauthorized)
	case errors.Is(err, auth.ErrInvalidToken):
		writeJSON(w, errorResponse{Error: err.Error()}, http.StatusUnauthorized)
	case errors.Is(err, auth.ErrAccountLocked):
		writeJSON(w, errorResponse{Error: err.Error()}, http.StatusLocked)
	case errors.Is(err, auth.ErrAccountDisabled), errors.Is(err, errForbidden):
		writeJSON(w, errorResponse{Error: err.Error()}, http.StatusForbidden)
	case errors.Is(err, errRateLimited):
		writeJSON(w, errorResponse{Error: err.Error()}, http.StatusTooManyRequests)
	default:
		logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("err", err),
		)
		writeJSON(w, errorResponse{Error: "internal server error"}, http.StatusInternalServerError)
	}
}

func bodyError(msg string) error {
	ve := &content.ValidationError{}
	ve.Add("body", msg)
	return ve
}

// readBody returns the raw request body, bounded by maxBodyBytes.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, bodyError("too large or unreadable")
	}
	return b, nil
}

// decodeJSON decodes the request body into v. Malformed input is reported
// as a validation error on "body".
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	b, err := readBody(w, r)
	if err != nil {
		return err
	}
	return decodeBytes(b, v)
}

func decodeBytes(b []byte, v any) error {
	if err := json.Unmarshal(b, v); err != nil {
		return bodyError("must be valid JSON")
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, errNotFound
	}
	return id, nil
}

// listFilter reads status, category, featured, active, search (or q),
// limit and offset from the query string.
func listFilter(r *http.Request) (repository.ListFilter, error) {
	q := r.URL.Query()
	ve := &content.ValidationError{}
	f := repository.ListFilter{
		Status:   strings.TrimSpace(q.Get("status")),
		Category: strings.TrimSpace(q.Get("category")),
		Search:   strings.TrimSpace(q.Get("search")),
	}
	if f.Search == "" {
		f.Search = strings.TrimSpace(q.Get("q"))
	}
	f.Featured = queryBool(q.Get("featured"), "featured", ve)
	f.Active = queryBool(q.Get("active"), "active", ve)
	f.Limit = queryInt(q.Get("limit"), "limit", ve)
	f.Offset = queryInt(q.Get("offset"), "offset", ve)
	if err := ve.OrNil(); err != nil {
		return f, err
	}
	return f.Normalize(), nil
}

func queryBool(v, name string, ve *content.ValidationError) *bool {
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		ve.Add(name, "must be true or false")
		return nil
	}
	return &b
}

func queryInt(v, name string, ve *content.ValidationError) int {
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		ve.Add(name, "must be a non-negative integer")
		return 0
	}
	return n
}
