// Package seed fills an empty store from a YAML file at startup.
//
// The file is a list of students in the same shape the API accepts:
//
//	- fullName: Ana Lestari
//	  studentNumber: "2201001"
//	  department: Teknik Informatika
//	  enrollmentYear: 2022
//	  email: ana@kampus.ac.id
//
// Every entry goes through store.Create, so seeds obey the same rules as
// API requests. A bad entry is logged and skipped; the rest still load.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aanand-mishra/student-records/internal/store"
	"github.com/aanand-mishra/student-records/internal/types"
)

// Read parses the seed file at path.
func Read(path string) ([]types.StudentInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("seed.Read: %w", err)
	}

	var inputs []types.StudentInput
	if err := yaml.Unmarshal(data, &inputs); err != nil {
		return nil, fmt.Errorf("seed.Read: decode %s: %w", path, err)
	}
	return inputs, nil
}

// Apply creates inputs in s when s is empty. It returns how many were
// created and the joined errors of the ones that were not.
func Apply(ctx context.Context, s *store.Store, inputs []types.StudentInput, log *slog.Logger) (int, error) {
	if n := s.Len(); n > 0 {
		log.Info("store not empty, skipping seed", slog.Int("records", n))
		return 0, nil
	}

	var (
		created  int
		finalErr error
	)
	for i, in := range inputs {
		if _, err := s.Create(ctx, in); err != nil {
			log.Error("failed to seed student",
				slog.Int("index", i),
				slog.String("studentNumber", in.StudentNumber),
				slog.String("error", err.Error()))
			finalErr = errors.Join(finalErr, fmt.Errorf("entry %d: %w", i, err))
			continue
		}
		created++
	}

	log.Info("seed applied", slog.Int("created", created), slog.Int("entries", len(inputs)))
	return created, finalErr
}
