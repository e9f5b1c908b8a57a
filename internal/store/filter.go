package store

import (
	"strings"

	"github.com/aanand-mishra/student-records/internal/types"
)

// Filter returns the students that match both conditions, in input order:
//
//   - query: case-insensitive substring of fullName, studentNumber,
//     department or email (any of the four). Empty matches everything.
//   - department: exact match. Empty imposes no constraint.
//
// students is never modified.
func Filter(students []types.Student, query, department string) []types.Student {
	q := strings.ToLower(query)

	out := make([]types.Student, 0, len(students))
	for _, st := range students {
		if department != "" && st.Department != department {
			continue
		}
		if q != "" && !matches(st, q) {
			continue
		}
		out = append(out, st)
	}
	return out
}

func matches(st types.Student, q string) bool {
	for _, field := range [...]string{st.FullName, st.StudentNumber, st.Department, st.Email} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}
