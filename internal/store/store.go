// Package store is the in-memory authority for student records.
//
// A Store owns the current set of records and every operation on it:
// create, update, delete, point lookup, listing and search. It knows
// nothing about HTTP and nothing about how records reach disk; durable
// writes are delegated to the storage.Storage it was built with.
//
// Writes follow one rule: the adapter goes first. Memory is only changed
// after the adapter confirms, so a failed write leaves the store exactly
// as it was, and readers never see a record the adapter did not accept.
// Reads never wait on the adapter: while a write is in flight, List and
// Find keep answering from the last committed state.
package store

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/types"
	"github.com/aanand-mishra/student-records/internal/validation"
)

// Operation names passed to the Observer.
const (
	OpLoad   = "load"
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Observer is notified after every mutating operation. internal/metrics
// implements it.
type Observer interface {
	ObserveOperation(op string, err error)
	SetRecordCount(n int)
}

type nopObserver struct{}

func (nopObserver) ObserveOperation(string, error) {}
func (nopObserver) SetRecordCount(int)             {}

// Store holds the authoritative student list.
type Store struct {
	storage   storage.Storage
	validator *validation.Validator
	now       func() time.Time
	log       *slog.Logger
	observer  Observer

	// writeMu serialises mutations end to end (adapter call + commit) so
	// memory applies writes in the order the adapter saw them.
	writeMu sync.Mutex

	mu      sync.RWMutex
	records map[string]types.Student
	order   []string
}

// Option customises a Store.
type Option func(*Store)

// WithClock overrides the clock used for createdAt/updatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(s *Store) { s.log = log }
}

// WithObserver registers an Observer for operation outcomes.
func WithObserver(o Observer) Option {
	return func(s *Store) { s.observer = o }
}

// New returns an empty Store over st. Call Load to pull in what st
// already holds.
func New(st storage.Storage, v *validation.Validator, opts ...Option) *Store {
	s := &Store{
		storage:   st,
		validator: v,
		now:       time.Now,
		log:       slog.Default(),
		observer:  nopObserver{},
		records:   make(map[string]types.Student),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory state with everything the adapter holds.
// On failure the previous state is kept.
func (s *Store) Load(ctx context.Context) (err error) {
	defer func() { s.observer.ObserveOperation(OpLoad, err) }()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	students, err := s.storage.LoadAll(ctx)
	if err != nil {
		s.log.Error("failed to load students", slog.String("error", err.Error()))
		return &PersistenceError{Op: OpLoad, Err: err}
	}

	records := make(map[string]types.Student, len(students))
	order := make([]string, 0, len(students))
	for _, st := range students {
		if _, dup := records[st.ID]; !dup {
			order = append(order, st.ID)
		}
		records[st.ID] = st
	}

	s.mu.Lock()
	s.records = records
	s.order = order
	s.mu.Unlock()

	s.observer.SetRecordCount(len(records))
	s.log.Debug("students loaded", slog.Int("count", len(records)))
	return nil
}

// List returns every record in insertion order. The slice is a fresh copy
// on every call.
func (s *Store) List() []types.Student {
	s.mu.RLock()
	defer s.mu.RUnlock()

	students := make([]types.Student, 0, len(s.order))
	for _, id := range s.order {
		students = append(students, s.records[id])
	}
	return students
}

// Len is the number of records currently held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Find returns the record with the given id or a *NotFoundError.
func (s *Store) Find(id string) (types.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	student, ok := s.records[id]
	if !ok {
		return types.Student{}, &NotFoundError{ID: id}
	}
	return student, nil
}

// Create validates in, has the adapter store it under a fresh id and
// returns the stored record.
func (s *Store) Create(ctx context.Context, in types.StudentInput) (student types.Student, err error) {
	defer func() { s.observer.ObserveOperation(OpCreate, err) }()

	if fields := s.validator.Check(in); fields != nil {
		return types.Student{}, &ValidationError{Fields: fields}
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	now := s.now()
	draft := types.Student{CreatedAt: now, UpdatedAt: now}.Apply(in)

	stored, err := s.storage.Insert(ctx, draft)
	if err != nil {
		s.log.Error("failed to insert student", slog.String("error", err.Error()))
		return types.Student{}, &PersistenceError{Op: OpCreate, Err: err}
	}

	s.commit(stored)
	s.log.Debug("student created", slog.String("id", stored.ID))
	return stored, nil
}

// Update replaces every mutable field of the record with the given id.
// ID and CreatedAt are preserved and UpdatedAt moves strictly forward.
func (s *Store) Update(ctx context.Context, id string, in types.StudentInput) (student types.Student, err error) {
	defer func() { s.observer.ObserveOperation(OpUpdate, err) }()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current, err := s.Find(id)
	if err != nil {
		return types.Student{}, err
	}

	if fields := s.validator.Check(in); fields != nil {
		return types.Student{}, &ValidationError{Fields: fields}
	}

	draft := current.Apply(in)
	draft.UpdatedAt = s.nextUpdate(current.UpdatedAt)

	stored, err := s.storage.Replace(ctx, id, draft)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.evict(id)
			return types.Student{}, &NotFoundError{ID: id}
		}
		s.log.Error("failed to replace student",
			slog.String("id", id),
			slog.String("error", err.Error()))
		return types.Student{}, &PersistenceError{Op: OpUpdate, Err: err}
	}

	s.commit(stored)
	s.log.Debug("student updated", slog.String("id", id))
	return stored, nil
}

// Delete removes the record with the given id. There is no confirmation
// step and no soft delete.
func (s *Store) Delete(ctx context.Context, id string) (err error) {
	defer func() { s.observer.ObserveOperation(OpDelete, err) }()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.Find(id); err != nil {
		return err
	}

	if err := s.storage.Remove(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.evict(id)
			return &NotFoundError{ID: id}
		}
		s.log.Error("failed to remove student",
			slog.String("id", id),
			slog.String("error", err.Error()))
		return &PersistenceError{Op: OpDelete, Err: err}
	}

	s.evict(id)
	s.log.Debug("student deleted", slog.String("id", id))
	return nil
}

// Result is the answer to a Search.
type Result struct {
	Students []types.Student `json:"students"`
	Shown    int             `json:"shown"`
	Total    int             `json:"total"`
}

// Search filters the current list by query and department (see Filter).
func (s *Store) Search(query, department string) Result {
	all := s.List()
	matched := Filter(all, query, department)
	return Result{Students: matched, Shown: len(matched), Total: len(all)}
}

// Departments returns the distinct non-empty departments in use, in the
// order they first appear in the list.
func (s *Store) Departments() []string {
	seen := make(map[string]struct{})
	departments := make([]string, 0)
	for _, st := range s.List() {
		if st.Department == "" {
			continue
		}
		if _, ok := seen[st.Department]; ok {
			continue
		}
		seen[st.Department] = struct{}{}
		departments = append(departments, st.Department)
	}
	return departments
}

// nextUpdate returns now, or just past prev when the clock has not moved
// (or went backwards) since the last write.
func (s *Store) nextUpdate(prev time.Time) time.Time {
	next := s.now()
	if !next.After(prev) {
		next = prev.Add(time.Nanosecond)
	}
	return next
}

func (s *Store) commit(student types.Student) {
	s.mu.Lock()
	if _, exists := s.records[student.ID]; !exists {
		s.order = append(s.order, student.ID)
	}
	s.records[student.ID] = student
	n := len(s.records)
	s.mu.Unlock()

	s.observer.SetRecordCount(n)
}

func (s *Store) evict(id string) {
	s.mu.Lock()
	if _, exists := s.records[id]; exists {
		delete(s.records, id)
		for i, v := range s.order {
			if v == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
	n := len(s.records)
	s.mu.Unlock()

	s.observer.SetRecordCount(n)
}
