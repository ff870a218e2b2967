// Package apierror defines the JSON error envelope pullconfd returns for
// every non-2xx response, grounded on spec.md §6/§7 and
// original_source/server/src/error.rs.
package apierror

import (
	"encoding/json"
	"net/http"
)

// Error is the wire shape of a catalog server failure response:
// {"status", "title", "detail"}.
type Error struct {
	Status int    `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

func (e *Error) Error() string { return e.Title + ": " + e.Detail }

func New(status int, title, detail string) *Error {
	return &Error{Status: status, Title: title, Detail: detail}
}

func Unauthorized(detail string) *Error {
	return New(http.StatusUnauthorized, "unauthorized", detail)
}

func Forbidden(detail string) *Error {
	return New(http.StatusForbidden, "forbidden", detail)
}

func NotFound(detail string) *Error {
	return New(http.StatusNotFound, "not found", detail)
}

func Internal(detail string) *Error {
	return New(http.StatusInternalServerError, "internal error", detail)
}

// Write serializes err as the JSON response body and sets the matching
// status code, regardless of the request's Accept header: the server is the
// sole authority on its own error content-type (spec.md §4.4).
func (e *Error) Write(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status)
	_ = json.NewEncoder(w).Encode(e)
}
