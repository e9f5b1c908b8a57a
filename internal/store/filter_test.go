package store

import (
	"strings"
	"testing"

	"github.com/aanand-mishra/student-records/internal/types"
)

func sampleStudents() []types.Student {
	return []types.Student{
		{ID: "1", FullName: "Ana Lestari", StudentNumber: "2201001", Department: "Teknik Informatika", Email: "ana@kampus.ac.id"},
		{ID: "2", FullName: "Budi Santoso", StudentNumber: "2202002", Department: "Sistem Informasi", Email: "budi@mail.com"},
		{ID: "3", FullName: "Citra Dewi", StudentNumber: "2101003", Department: "Teknik Informatika", Email: "citra@MAIL.com"},
		{ID: "4", FullName: "Dodi", StudentNumber: "2003004", Department: "Teknik Mesin", Email: "dodi@kampus.ac.id"},
	}
}

func ids(students []types.Student) string {
	out := make([]string, 0, len(students))
	for _, s := range students {
		out = append(out, s.ID)
	}
	return strings.Join(out, ",")
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		department string
		want       string
	}{
		{"empty matches all", "", "", "1,2,3,4"},
		{"name case insensitive", "ANA", "", "1"},
		{"student number", "2201", "", "1"},
		{"department text", "informasi", "", "2"},
		{"email", "mail.com", "", "2,3"},
		{"department filter", "", "Teknik Informatika", "1,3"},
		{"department filter is exact", "", "teknik informatika", ""},
		{"department filter is not substring", "", "Teknik", ""},
		{"and combination", "kampus", "Teknik Informatika", "1"},
		{"no match", "zzz", "", ""},
		{"any field matches", "teknik", "", "1,3,4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Filter(sampleStudents(), tt.query, tt.department))
			if got != tt.want {
				t.Fatalf("expected [%s], got [%s]", tt.want, got)
			}
		})
	}
}

func TestFilter_SubsetAndStable(t *testing.T) {
	all := sampleStudents()
	for _, q := range []string{"", "a", "i", "2", "@", "x"} {
		for _, d := range []string{"", "Teknik Informatika", "Sistem Informasi", "none"} {
			got := Filter(all, q, d)

			// Every result satisfies both predicates and appears in input order.
			pos := -1
			for _, st := range got {
				if d != "" && st.Department != d {
					t.Fatalf("q=%q d=%q: %s violates department filter", q, d, st.ID)
				}
				if q != "" && !matches(st, strings.ToLower(q)) {
					t.Fatalf("q=%q d=%q: %s violates query", q, d, st.ID)
				}
				next := -1
				for i := pos + 1; i < len(all); i++ {
					if all[i].ID == st.ID {
						next = i
						break
					}
				}
				if next < 0 {
					t.Fatalf("q=%q d=%q: %s out of order or not in input", q, d, st.ID)
				}
				pos = next
			}
		}
	}
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	all := sampleStudents()
	got := Filter(all, "ana", "")
	got[0].FullName = "changed"
	if all[0].FullName != "Ana Lestari" {
		t.Fatal("Filter must not alias its input")
	}
	if out := Filter(nil, "x", ""); out == nil || len(out) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", out)
	}
}
