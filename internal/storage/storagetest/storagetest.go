// Package storagetest holds the contract tests every storage.Storage
// implementation must pass. Adapter packages call Run from their own
// _test.go files with a constructor for a fresh, empty adapter.
package storagetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/types"
)

// Factory returns a fresh, empty adapter.
type Factory func(t *testing.T) storage.Storage

func sample(name string, created time.Time) types.Student {
	return types.Student{
		FullName:       name,
		StudentNumber:  "NPM-" + name,
		Department:     "Teknik Informatika",
		EnrollmentYear: 2022,
		Email:          name + "@kampus.ac.id",
		Phone:          "0812",
		Address:        "Jl. Merdeka 1",
		CreatedAt:      created,
		UpdatedAt:      created,
	}
}

// Run executes the storage contract against adapters built by newStorage.
func Run(t *testing.T, newStorage Factory) {
	t.Helper()
	base := time.Date(2025, time.August, 17, 8, 0, 0, 123456789, time.UTC)

	t.Run("EmptyLoadAll", func(t *testing.T) {
		st := newStorage(t)
		got, err := st.LoadAll(context.Background())
		if err != nil {
			t.Fatalf("LoadAll: %v", err)
		}
		if got == nil || len(got) != 0 {
			t.Fatalf("expected empty non-nil slice, got %#v", got)
		}
	})

	t.Run("InsertAssignsIDs", func(t *testing.T) {
		st := newStorage(t)
		ctx := context.Background()

		in := sample("ana", base)
		in.ID = "client-chosen"
		a, err := st.Insert(ctx, in)
		if err != nil {
			t.Fatalf("Insert: %v", err)
		}
		b, err := st.Insert(ctx, sample("budi", base.Add(time.Second)))
		if err != nil {
			t.Fatalf("Insert: %v", err)
		}
		if a.ID == "" || a.ID == "client-chosen" || a.ID == b.ID {
			t.Fatalf("adapter must assign fresh ids, got %q and %q", a.ID, b.ID)
		}

		all, err := st.LoadAll(ctx)
		if err != nil {
			t.Fatalf("LoadAll: %v", err)
		}
		if len(all) != 2 {
			t.Fatalf("expected 2 records, got %d", len(all))
		}
		if all[0].ID != a.ID || all[1].ID != b.ID {
			t.Fatalf("expected insertion order %s,%s got %s,%s", a.ID, b.ID, all[0].ID, all[1].ID)
		}
		assertSame(t, a, all[0])
	})

	t.Run("Replace", func(t *testing.T) {
		st := newStorage(t)
		ctx := context.Background()

		a, err := st.Insert(ctx, sample("ana", base))
		if err != nil {
			t.Fatalf("Insert: %v", err)
		}
		changed := a
		changed.FullName = "Ana Maria"
		changed.Phone = ""
		changed.UpdatedAt = base.Add(time.Hour)

		got, err := st.Replace(ctx, a.ID, changed)
		if err != nil {
			t.Fatalf("Replace: %v", err)
		}
		assertSame(t, changed, got)

		all, _ := st.LoadAll(ctx)
		if len(all) != 1 {
			t.Fatalf("expected 1 record, got %d", len(all))
		}
		assertSame(t, changed, all[0])

		if _, err := st.Replace(ctx, "missing", changed); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Remove", func(t *testing.T) {
		st := newStorage(t)
		ctx := context.Background()

		a, _ := st.Insert(ctx, sample("ana", base))
		b, _ := st.Insert(ctx, sample("budi", base.Add(time.Second)))

		if err := st.Remove(ctx, a.ID); err != nil {
			t.Fatalf("Remove: %v", err)
		}
		if err := st.Remove(ctx, a.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("expected ErrNotFound on second remove, got %v", err)
		}

		all, _ := st.LoadAll(ctx)
		if len(all) != 1 || all[0].ID != b.ID {
			t.Fatalf("expected only %s left, got %v", b.ID, all)
		}
	})
}

func assertSame(t *testing.T, want, got types.Student) {
	t.Helper()
	if want.ID != got.ID ||
		want.FullName != got.FullName ||
		want.StudentNumber != got.StudentNumber ||
		want.Department != got.Department ||
		want.EnrollmentYear != got.EnrollmentYear ||
		want.Email != got.Email ||
		want.Phone != got.Phone ||
		want.Address != got.Address {
		t.Fatalf("record mismatch:\nwant %+v\ngot  %+v", want, got)
	}
	if !want.CreatedAt.Equal(got.CreatedAt) || !want.UpdatedAt.Equal(got.UpdatedAt) {
		t.Fatalf("timestamp mismatch:\nwant %v / %v\ngot  %v / %v",
			want.CreatedAt, want.UpdatedAt, got.CreatedAt, got.UpdatedAt)
	}
}
