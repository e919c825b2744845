package store

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed seed_exercises.json
var seedExercises []byte

// SeedExercises loads the default global exercise catalog. It is a no-op
// when global exercises already exist, so it is safe to run on every start.
func (s *Store) SeedExercises(ctx context.Context) (int, error) {
	existing, err := s.CountGlobalExercises(ctx)
	if err != nil {
		return 0, err
	}
	if existing > 0 {
		return 0, nil
	}

	var catalog []struct {
		Name               string   `json:"name"`
		Kind               string   `json:"exercise_kind"`
		PrimaryBodyParts   []string `json:"primary_body_parts"`
		SecondaryBodyParts []string `json:"secondary_body_parts"`
		Category           string   `json:"category"`
	}
	if err := json.Unmarshal(seedExercises, &catalog); err != nil {
		return 0, fmt.Errorf("decode seed catalog: %w", err)
	}

	for _, entry := range catalog {
		ex := &Exercise{
			Name:               entry.Name,
			Kind:               entry.Kind,
			PrimaryBodyParts:   entry.PrimaryBodyParts,
			SecondaryBodyParts: entry.SecondaryBodyParts,
			Category:           entry.Category,
		}
		if err := s.InsertExercise(ctx, ex); err != nil {
			return 0, fmt.Errorf("seed %q: %w", entry.Name, err)
		}
	}
	return len(catalog), nil
}
