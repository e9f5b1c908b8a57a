package store

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound matches every *NotFoundError via errors.Is.
var ErrNotFound = errors.New("student not found")

// ValidationError is returned by Create and Update when the input breaks
// one or more rules. Fields maps the JSON field name to its message.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	msgs := make([]string, 0, len(names))
	for _, name := range names {
		msgs = append(msgs, e.Fields[name])
	}
	return "validation failed: " + strings.Join(msgs, ", ")
}

// NotFoundError is returned by Find, Update and Delete for an unknown id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no student found with id: %s", e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// PersistenceError wraps a failure reported by the storage adapter. The
// in-memory state is never changed when one is returned.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: persistence: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
