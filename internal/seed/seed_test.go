package seed

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aanand-mishra/student-records/internal/storage/memory"
	"github.com/aanand-mishra/student-records/internal/store"
	"github.com/aanand-mishra/student-records/internal/types"
	"github.com/aanand-mishra/student-records/internal/validation"
)

const seedYAML = `
- fullName: Ana Lestari
  studentNumber: "2201001"
  department: Teknik Informatika
  enrollmentYear: 2022
  email: ana@kampus.ac.id
  phone: "0812"
- fullName: Budi Santoso
  studentNumber: "2202002"
  department: Sistem Informasi
  enrollmentYear: "2021"
  email: budi@kampus.ac.id
  address: Jl. Merdeka 1
- fullName: ""
  studentNumber: "2203003"
  department: Teknik Informatika
  enrollmentYear: 1990
  email: broken
`

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newSeedStore() *store.Store {
	clock := func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	v := validation.New(validation.Rules{
		Departments: []string{"Teknik Informatika", "Sistem Informasi"},
		MinYear:     2000,
	}, validation.WithClock(clock))
	return store.New(memory.New(), v, store.WithClock(clock), store.WithLogger(quietLogger()))
}

func writeSeed(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	return path
}

func TestRead(t *testing.T) {
	inputs, err := Read(writeSeed(t, seedYAML))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(inputs) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(inputs))
	}
	if inputs[0].EnrollmentYear != types.Year("2022") || inputs[1].EnrollmentYear != types.Year("2021") {
		t.Errorf("years not decoded as text: %q %q", inputs[0].EnrollmentYear, inputs[1].EnrollmentYear)
	}
	if inputs[0].Phone != "0812" || inputs[1].Address != "Jl. Merdeka 1" {
		t.Errorf("optional fields lost: %+v", inputs[:2])
	}
}

func TestRead_Errors(t *testing.T) {
	if _, err := Read(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
	if _, err := Read(writeSeed(t, "fullName: [unterminated")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestApply(t *testing.T) {
	inputs, err := Read(writeSeed(t, seedYAML))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	s := newSeedStore()

	created, err := Apply(context.Background(), s, inputs, quietLogger())
	if created != 2 {
		t.Fatalf("expected 2 created, got %d", created)
	}
	var verr *store.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected the bad entry's validation error, got %v", err)
	}
	if len(verr.Fields) != 3 {
		t.Errorf("expected fullName, enrollmentYear and email errors, got %v", verr.Fields)
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 records, got %d", s.Len())
	}

	// A second run is a no-op because the store is no longer empty.
	again, err := Apply(context.Background(), s, inputs, quietLogger())
	if again != 0 || err != nil || s.Len() != 2 {
		t.Fatalf("expected no-op, got created=%d err=%v len=%d", again, err, s.Len())
	}
}

func TestApply_ReportsOnce(t *testing.T) {
	inputs, err := Read(writeSeed(t, seedYAML))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	_, _ = Apply(context.Background(), newSeedStore(), inputs, log)

	if n := strings.Count(buf.String(), "seed applied"); n != 1 {
		t.Fatalf("expected one summary line, got %d:\n%s", n, buf.String())
	}
	if !strings.Contains(buf.String(), "created=2 entries=3") {
		t.Errorf("summary missing counts:\n%s", buf.String())
	}
}
