package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/storage/storagetest"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeDB understands exactly the statements the adapter issues, so the
// adapter can be exercised without a server.
type fakeDB struct {
	mu      sync.Mutex
	ids     []string
	docs    map[string][]byte
	execErr error
}

func newFakeDB() *fakeDB { return &fakeDB{docs: make(map[string][]byte)} }

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.execErr != nil {
		return pgconn.CommandTag{}, f.execErr
	}

	sql = strings.TrimSpace(sql)
	switch {
	case strings.HasPrefix(sql, "CREATE TABLE"):
		return pgconn.NewCommandTag("CREATE TABLE"), nil
	case strings.HasPrefix(sql, "INSERT"):
		id := args[0].(string)
		f.ids = append(f.ids, id)
		f.docs[id] = args[1].([]byte)
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	case strings.HasPrefix(sql, "UPDATE"):
		id := args[0].(string)
		if _, ok := f.docs[id]; !ok {
			return pgconn.NewCommandTag("UPDATE 0"), nil
		}
		f.docs[id] = args[1].([]byte)
		return pgconn.NewCommandTag("UPDATE 1"), nil
	case strings.HasPrefix(sql, "DELETE"):
		id := args[0].(string)
		if _, ok := f.docs[id]; !ok {
			return pgconn.NewCommandTag("DELETE 0"), nil
		}
		delete(f.docs, id)
		for i, v := range f.ids {
			if v == id {
				f.ids = append(f.ids[:i], f.ids[i+1:]...)
				break
			}
		}
		return pgconn.NewCommandTag("DELETE 1"), nil
	}
	return pgconn.CommandTag{}, fmt.Errorf("fakeDB: unexpected exec %q", sql)
}

func (f *fakeDB) Query(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !strings.HasPrefix(strings.TrimSpace(sql), "SELECT id, body") {
		return nil, fmt.Errorf("fakeDB: unexpected query %q", sql)
	}
	rows := &fakeRows{idx: -1}
	for _, id := range f.ids {
		rows.data = append(rows.data, [2]any{id, f.docs[id]})
	}
	return rows, nil
}

// fakeRows implements pgx.Rows over (id, body) pairs.
type fakeRows struct {
	data [][2]any
	idx  int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	r.idx++
	return r.idx < len(r.data)
}

func (r *fakeRows) Scan(dest ...any) error {
	if len(dest) != 2 {
		return fmt.Errorf("fakeRows: expected 2 destinations, got %d", len(dest))
	}
	*(dest[0].(*string)) = r.data[r.idx][0].(string)
	*(dest[1].(*[]byte)) = r.data[r.idx][1].([]byte)
	return nil
}

func (r *fakeRows) Values() ([]any, error) {
	return []any{r.data[r.idx][0], r.data[r.idx][1]}, nil
}

func TestPostgres_Contract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Storage {
		p, err := New(context.Background(), newFakeDB())
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		return p
	})
}

func TestPostgres_NewFailsWhenSchemaFails(t *testing.T) {
	db := newFakeDB()
	db.execErr = errors.New("permission denied")
	if _, err := New(context.Background(), db); err == nil || !strings.Contains(err.Error(), "permission denied") {
		t.Fatalf("expected schema error, got %v", err)
	}
}

// TestPostgres_Integration runs the contract against a real server when
// STUDENTS_TEST_POSTGRES_DSN is set. Each sub-test starts from a truncated
// table.
func TestPostgres_Integration(t *testing.T) {
	dsn := os.Getenv("STUDENTS_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("STUDENTS_TEST_POSTGRES_DSN not set")
	}

	storagetest.Run(t, func(t *testing.T) storage.Storage {
		ctx := context.Background()
		p, err := Open(ctx, dsn)
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		t.Cleanup(func() { _ = p.Close() })
		if _, err := p.db.Exec(ctx, `TRUNCATE student_documents`); err != nil {
			t.Fatalf("truncate: %v", err)
		}
		return p
	})
}
