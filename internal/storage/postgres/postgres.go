// Package postgres stores each student as a JSONB document in Postgres.
//
// This is the "remote document database" backend. Records are not spread
// over columns: the table holds (id, body) pairs, so adding a field to
// types.Student never needs a schema change. A BIGSERIAL column only
// exists to give LoadAll a stable insertion order.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/types"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ storage.Storage = (*Postgres)(nil)

const schema = `
	CREATE TABLE IF NOT EXISTS student_documents (
		seq  BIGSERIAL,
		id   TEXT  PRIMARY KEY,
		body JSONB NOT NULL
	)`

// DB is the subset of *pgxpool.Pool the adapter uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Postgres implements storage.Storage on top of a pgx connection pool.
type Postgres struct {
	db   DB
	pool *pgxpool.Pool
}

// Open connects to dsn, checks the connection and creates the documents
// table if needed.
func Open(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.Open: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.Open: ping: %w", err)
	}

	p, err := New(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	p.pool = pool
	return p, nil
}

// New wraps an existing connection and ensures the schema exists.
func New(ctx context.Context, db DB) (*Postgres, error) {
	if _, err := db.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("postgres.New: create table: %w", err)
	}
	return &Postgres{db: db}, nil
}

// Close releases the pool opened by Open. It is a no-op for adapters
// built with New.
func (p *Postgres) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

func (p *Postgres) LoadAll(ctx context.Context) ([]types.Student, error) {
	rows, err := p.db.Query(ctx, `SELECT id, body FROM student_documents ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("LoadAll: query: %w", err)
	}
	defer rows.Close()

	students := make([]types.Student, 0)
	for rows.Next() {
		var (
			id   string
			body []byte
		)
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("LoadAll: scan row: %w", err)
		}

		var student types.Student
		if err := json.Unmarshal(body, &student); err != nil {
			return nil, fmt.Errorf("LoadAll: decode %s: %w", id, err)
		}
		student.ID = id
		students = append(students, student)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("LoadAll: rows iteration: %w", err)
	}

	return students, nil
}

func (p *Postgres) Insert(ctx context.Context, student types.Student) (types.Student, error) {
	student.ID = uuid.NewString()

	body, err := json.Marshal(student)
	if err != nil {
		return types.Student{}, fmt.Errorf("Insert: encode: %w", err)
	}

	if _, err := p.db.Exec(ctx,
		`INSERT INTO student_documents (id, body) VALUES ($1, $2)`,
		student.ID, body,
	); err != nil {
		return types.Student{}, fmt.Errorf("Insert: exec: %w", err)
	}

	return student, nil
}

func (p *Postgres) Replace(ctx context.Context, id string, student types.Student) (types.Student, error) {
	student.ID = id

	body, err := json.Marshal(student)
	if err != nil {
		return types.Student{}, fmt.Errorf("Replace: encode: %w", err)
	}

	tag, err := p.db.Exec(ctx,
		`UPDATE student_documents SET body = $2 WHERE id = $1`,
		id, body,
	)
	if err != nil {
		return types.Student{}, fmt.Errorf("Replace: exec: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.Student{}, fmt.Errorf("Replace: %w: %s", storage.ErrNotFound, id)
	}

	return student, nil
}

func (p *Postgres) Remove(ctx context.Context, id string) error {
	tag, err := p.db.Exec(ctx, `DELETE FROM student_documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("Remove: exec: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("Remove: %w: %s", storage.ErrNotFound, id)
	}
	return nil
}
