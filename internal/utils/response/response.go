// Package response provides helpers for writing consistent JSON HTTP responses.
//
// Every handler in this application sends JSON back to the client.
// Rather than repeating the same three lines (set header, set status,
// encode JSON) in every handler, we centralise them here.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/aanand-mishra/student-records/internal/store"
)

// ─────────────────────────────────────────────────────────────────────────────
// Response is the standard envelope returned for error cases.
//
// Success responses may return any JSON shape (a student, a list, a count…).
// Error responses always look like:
//
//	{ "status": "error", "error": "no student found with id: 42" }
//
// Validation failures add one message per offending field:
//
//	{ "status": "error", "error": "validation failed: ...",
//	  "fields": { "email": "field email must be a valid email address" } }
//
// ─────────────────────────────────────────────────────────────────────────────
type Response struct {
	Status string            `json:"status"`
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// StatusError is the Status of every error envelope.
const StatusError = "error"

// WriteJSON writes a JSON-encoded response with the given HTTP status code.
//
// IMPORTANT ORDER: Header() → WriteHeader() → body writes.
// Once WriteHeader is called (or the first Write), headers are locked.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// GeneralError wraps any Go error into our standard Response shape.
func GeneralError(err error) Response {
	return Response{
		Status: StatusError,
		Error:  err.Error(),
	}
}

// ValidationError turns a *store.ValidationError into a Response that keeps
// the per-field messages, so a form can mark every bad field at once.
func ValidationError(err *store.ValidationError) Response {
	return Response{
		Status: StatusError,
		Error:  err.Error(),
		Fields: err.Fields,
	}
}
