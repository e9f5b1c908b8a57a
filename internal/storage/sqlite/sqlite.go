// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// WHY SQLite?
// ───────────
// This is the "local storage" backend: everything lives in a single file
// next to the binary. There is no network, no separate server process,
// and no installation beyond the driver.
//
// The blank import below registers the sqlite3 driver with database/sql.
// The driver's init() function does this automatically when the package
// is loaded; nothing from it is called directly.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aanand-mishra/student-records/internal/config"
	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/types"
	"github.com/google/uuid"

	// Blank import: side-effect only (registers the "sqlite3" driver).
	_ "github.com/mattn/go-sqlite3"
)

var _ storage.Storage = (*SQLite)(nil)

// SQLite is the concrete implementation of storage.Storage.
// It holds a *sql.DB which is a connection pool managed by database/sql.
type SQLite struct {
	Db *sql.DB
}

// columns is shared by every SELECT so Scan order never drifts.
const columns = `id, full_name, student_number, department, enrollment_year,
	email, phone, address, created_at, updated_at`

// New opens the SQLite database at cfg.Storage.SQLitePath, creates the
// students table if it does not already exist, and returns a ready-to-use
// *SQLite.
func New(cfg *config.Config) (*SQLite, error) {
	db, err := sql.Open("sqlite3", cfg.Storage.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// SQLite allows one writer at a time. A single connection turns
	// "database is locked" errors into ordinary queueing inside the pool.
	db.SetMaxOpenConns(1)

	// Schema:
	//   seq     — insertion counter, only used for ORDER BY
	//   id      — UUID assigned on insert, never reused
	//   *_at    — RFC 3339 timestamps with nanoseconds, stored as TEXT
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS students (
			seq             INTEGER PRIMARY KEY AUTOINCREMENT,
			id              TEXT    NOT NULL UNIQUE,
			full_name       TEXT    NOT NULL,
			student_number  TEXT    NOT NULL,
			department      TEXT    NOT NULL,
			enrollment_year INTEGER NOT NULL,
			email           TEXT    NOT NULL,
			phone           TEXT    NOT NULL DEFAULT '',
			address         TEXT    NOT NULL DEFAULT '',
			created_at      TEXT    NOT NULL,
			updated_at      TEXT    NOT NULL
		)
	`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite.New: create table: %w", err)
	}

	return &SQLite{Db: db}, nil
}

// Close releases the underlying connection pool.
func (s *SQLite) Close() error {
	return s.Db.Close()
}

// ─────────────────────────────────────────────────────────────────────────────
// Insert adds a new row to the students table under a freshly generated ID.
//
// Values are bound through ? placeholders, never concatenated into the
// SQL text, so user input is always treated as data.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) Insert(ctx context.Context, student types.Student) (types.Student, error) {
	stmt, err := s.Db.PrepareContext(ctx, `
		INSERT INTO students (id, full_name, student_number, department, enrollment_year,
			email, phone, address, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return types.Student{}, fmt.Errorf("Insert: prepare: %w", err)
	}
	defer stmt.Close()

	student.ID = uuid.NewString()
	_, err = stmt.ExecContext(ctx,
		student.ID,
		student.FullName,
		student.StudentNumber,
		student.Department,
		student.EnrollmentYear,
		student.Email,
		student.Phone,
		student.Address,
		formatTime(student.CreatedAt),
		formatTime(student.UpdatedAt),
	)
	if err != nil {
		return types.Student{}, fmt.Errorf("Insert: exec: %w", err)
	}

	return student, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// LoadAll returns all student rows in insertion order.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) LoadAll(ctx context.Context) ([]types.Student, error) {
	stmt, err := s.Db.PrepareContext(ctx,
		"SELECT "+columns+" FROM students ORDER BY seq",
	)
	if err != nil {
		return nil, fmt.Errorf("LoadAll: prepare: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("LoadAll: query: %w", err)
	}
	defer rows.Close()

	students := make([]types.Student, 0)
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("LoadAll: scan row: %w", err)
		}
		students = append(students, student)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("LoadAll: rows iteration: %w", err)
	}

	return students, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Replace overwrites every column except id, seq and created_at.
// Returns the row as stored so the caller echoes exactly what is on disk.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) Replace(ctx context.Context, id string, student types.Student) (types.Student, error) {
	stmt, err := s.Db.PrepareContext(ctx, `
		UPDATE students
		SET full_name = ?, student_number = ?, department = ?, enrollment_year = ?,
			email = ?, phone = ?, address = ?, updated_at = ?
		WHERE id = ?`,
	)
	if err != nil {
		return types.Student{}, fmt.Errorf("Replace: prepare: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx,
		student.FullName,
		student.StudentNumber,
		student.Department,
		student.EnrollmentYear,
		student.Email,
		student.Phone,
		student.Address,
		formatTime(student.UpdatedAt),
		id,
	)
	if err != nil {
		return types.Student{}, fmt.Errorf("Replace: exec: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return types.Student{}, fmt.Errorf("Replace: rows affected: %w", err)
	}
	if n == 0 {
		return types.Student{}, fmt.Errorf("Replace: %w: %s", storage.ErrNotFound, id)
	}

	return s.getByID(ctx, id)
}

// ─────────────────────────────────────────────────────────────────────────────
// Remove deletes a student row by id.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) Remove(ctx context.Context, id string) error {
	stmt, err := s.Db.PrepareContext(ctx, "DELETE FROM students WHERE id = ?")
	if err != nil {
		return fmt.Errorf("Remove: prepare: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, id)
	if err != nil {
		return fmt.Errorf("Remove: exec: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("Remove: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("Remove: %w: %s", storage.ErrNotFound, id)
	}

	return nil
}

func (s *SQLite) getByID(ctx context.Context, id string) (types.Student, error) {
	stmt, err := s.Db.PrepareContext(ctx,
		"SELECT "+columns+" FROM students WHERE id = ? LIMIT 1",
	)
	if err != nil {
		return types.Student{}, fmt.Errorf("getByID: prepare: %w", err)
	}
	defer stmt.Close()

	student, err := scanStudent(stmt.QueryRowContext(ctx, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Student{}, fmt.Errorf("getByID: %w: %s", storage.ErrNotFound, id)
		}
		return types.Student{}, fmt.Errorf("getByID: scan: %w", err)
	}

	return student, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanStudent(row scanner) (types.Student, error) {
	var (
		student              types.Student
		createdAt, updatedAt string
	)
	if err := row.Scan(
		&student.ID,
		&student.FullName,
		&student.StudentNumber,
		&student.Department,
		&student.EnrollmentYear,
		&student.Email,
		&student.Phone,
		&student.Address,
		&createdAt,
		&updatedAt,
	); err != nil {
		return types.Student{}, err
	}

	var err error
	if student.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return types.Student{}, fmt.Errorf("parse created_at: %w", err)
	}
	if student.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return types.Student{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return student, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
