// Package student contains all HTTP handlers related to the Student resource.
//
// HANDLER PATTERN USED HERE — THE CLOSURE / FACTORY PATTERN:
// ────────────────────────────────────────────────────────────
// Go's router expects handler functions with the signature:
//
//	func(http.ResponseWriter, *http.Request)
//
// That signature has no room for extra parameters like the record store.
// Each exported function here is a factory: it receives its dependencies
// once, at route registration, and returns the handler that runs on every
// request.
//
//	router.HandleFunc("POST /api/students", student.New(records))
package student

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/aanand-mishra/student-records/internal/store"
	"github.com/aanand-mishra/student-records/internal/types"
	"github.com/aanand-mishra/student-records/internal/utils/response"
)

// maxBodyBytes caps request bodies; a student record is a few hundred bytes.
const maxBodyBytes = 1 << 20

// Store is the part of *store.Store the handlers use.
type Store interface {
	Load(ctx context.Context) error
	Find(id string) (types.Student, error)
	Search(query, department string) store.Result
	Departments() []string
	Create(ctx context.Context, in types.StudentInput) (types.Student, error)
	Update(ctx context.Context, id string, in types.StudentInput) (types.Student, error)
	Delete(ctx context.Context, id string) error
}

// ─────────────────────────────────────────────────────────────────────────────
// New handles POST /api/students
// Creates a new student from the JSON request body.
//
// Request body (JSON):
//
//	{ "fullName": "Ana", "studentNumber": "001", "department": "Teknik Informatika",
//	  "enrollmentYear": 2022, "email": "ana@x.com", "phone": "", "address": "" }
//
// Success response (201 Created): the stored student, including its
// generated id and timestamps.
//
// Error responses:
//
//	400 Bad Request  — empty body, malformed JSON, or failed validation
//	500 Internal     — storage error
//
// ─────────────────────────────────────────────────────────────────────────────
func New(records Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating a student")

		in, err := decodeInput(w, r)
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		created, err := records.Create(r.Context(), in)
		if err != nil {
			writeStoreError(w, err)
			return
		}

		slog.Info("student created", slog.String("id", created.ID))
		response.WriteJSON(w, http.StatusCreated, created)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetByID handles GET /api/students/{id}
//
// Error responses:
//
//	404 Not Found — no student with that id
//
// ─────────────────────────────────────────────────────────────────────────────
func GetByID(records Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("getting a student", slog.String("id", id))

		found, err := records.Find(id)
		if err != nil {
			writeStoreError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, found)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetList handles GET /api/students?q=<text>&department=<name>
// Both parameters are optional; without them every student is returned.
//
// Success response (200 OK):
//
//	{ "students": [ ... ], "shown": 1, "total": 2 }
//
// "students" is an empty array (not null) when nothing matches.
// ─────────────────────────────────────────────────────────────────────────────
func GetList(records Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")
		department := r.URL.Query().Get("department")
		slog.Info("listing students",
			slog.String("q", query),
			slog.String("department", department))

		response.WriteJSON(w, http.StatusOK, records.Search(query, department))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Update handles PUT /api/students/{id}
// Replaces ALL fields of an existing student; omitted optional fields
// (phone, address) are cleared.
//
// Error responses:
//
//	400 Bad Request  — empty body, malformed JSON, or failed validation
//	404 Not Found    — no student with that id
//	500 Internal     — storage error
//
// ─────────────────────────────────────────────────────────────────────────────
func Update(records Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("updating a student", slog.String("id", id))

		in, err := decodeInput(w, r)
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		updated, err := records.Update(r.Context(), id, in)
		if err != nil {
			writeStoreError(w, err)
			return
		}

		slog.Info("student updated", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, updated)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Delete handles DELETE /api/students/{id}
// Permanently removes a student. Asking the user to confirm is the
// client's job; this endpoint deletes immediately.
//
// Success response (200 OK):
//
//	{ "status": "deleted" }
//
// ─────────────────────────────────────────────────────────────────────────────
func Delete(records Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("deleting a student", slog.String("id", id))

		if err := records.Delete(r.Context(), id); err != nil {
			writeStoreError(w, err)
			return
		}

		slog.Info("student deleted", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

// Reload handles POST /api/students/reload by re-reading every record
// from the storage backend.
func Reload(records Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("reloading students")

		if err := records.Load(r.Context()); err != nil {
			writeStoreError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, map[string]int{"total": records.Search("", "").Total})
	}
}

// Departments handles GET /api/departments.
//
//	{ "options": [ configured departments ], "inUse": [ departments of stored students ] }
func Departments(records Store, options []string) http.HandlerFunc {
	if options == nil {
		options = []string{}
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusOK, map[string][]string{
			"options": options,
			"inUse":   records.Departments(),
		})
	}
}

func decodeInput(w http.ResponseWriter, r *http.Request) (types.StudentInput, error) {
	var in types.StudentInput

	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&in)
	if errors.Is(err, io.EOF) {
		return in, errors.New("request body is empty")
	}
	return in, err
}

// writeStoreError maps the store's error types to status codes.
func writeStoreError(w http.ResponseWriter, err error) {
	var verr *store.ValidationError
	switch {
	case errors.As(err, &verr):
		response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(verr))
	case errors.Is(err, store.ErrNotFound):
		response.WriteJSON(w, http.StatusNotFound, response.GeneralError(err))
	default:
		slog.Error("store operation failed", slog.String("error", err.Error()))
		response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
	}
}
