package tools

import (
	"context"
	"encoding/json"

	"github.com/forgefit/coach/internal/kinds"
	"github.com/forgefit/coach/internal/store"
)

// CompactExercise is the exercise shape tools accept when building
// templates: an exercise reference plus either an explicit set list or an
// integer set count with per-set defaults.
type CompactExercise struct {
	ExerciseID string          `json:"exercise_id"`
	Sets       json.RawMessage `json:"sets,omitempty"` // integer count or array of CompactSet
	Reps       *int            `json:"reps,omitempty"`
	Weight     *float64        `json:"weight,omitempty"`
	Duration   *float64        `json:"duration,omitempty"`
	Distance   *float64        `json:"distance,omitempty"`
	Notes      string          `json:"notes,omitempty"`
}

// CompactSet is one explicitly prescribed set.
type CompactSet struct {
	SetType  string   `json:"set_type,omitempty"`
	Reps     *int     `json:"reps,omitempty"`
	Weight   *float64 `json:"weight,omitempty"`
	Duration *float64 `json:"duration,omitempty"`
	Distance *float64 `json:"distance,omitempty"`
}

// normalizeSetFields coerces a set prescription to the fields the exercise
// kind allows. Reps-tracked kinds always get a rep count (default 10);
// time/distance kinds with no prescription get a default duration, 10
// minutes for cardio-like kinds and 30 seconds otherwise.
func normalizeSetFields(kind string, reps *int, weight, duration, distance *float64) store.TemplateSet {
	allowed := kinds.Allowed(kind)
	out := store.TemplateSet{SetType: "normal"}

	if allowed[kinds.FieldReps] {
		n := 10
		if reps != nil {
			n = *reps
		}
		out.Reps = &n
	}
	if allowed[kinds.FieldWeight] && weight != nil {
		out.Weight = weight
	}
	if allowed[kinds.FieldDuration] && duration != nil {
		out.Duration = duration
	}
	if allowed[kinds.FieldDistance] && distance != nil {
		out.Distance = distance
	}

	if kinds.TimeOrDistanceOnly(kind) && out.Duration == nil && out.Distance == nil {
		fallback := 30.0
		if allowed[kinds.FieldDistance] {
			fallback = 600.0
		}
		out.Duration = &fallback
	}

	// Safety net for kinds with no matching fields at all.
	if out.Reps == nil && out.Weight == nil && out.Duration == nil && out.Distance == nil {
		n := 10
		if reps != nil {
			n = *reps
		}
		out.Reps = &n
		if weight != nil {
			out.Weight = weight
		}
	}

	return out
}

// buildTemplateExercises converts a compact exercise list into the stored
// template format, resolving each exercise's kind from the store so set
// fields match the kind rules. Entries without an exercise_id are skipped.
func (r *Registry) buildTemplateExercises(ctx context.Context, userID string, items []CompactExercise) ([]store.TemplateExercise, error) {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		if item.ExerciseID != "" {
			ids = append(ids, item.ExerciseID)
		}
	}

	kindMap, err := r.store.ExerciseKinds(ctx, userID, ids)
	if err != nil {
		return nil, err
	}

	var out []store.TemplateExercise
	for i, item := range items {
		if item.ExerciseID == "" {
			continue
		}

		kind := kinds.Normalize(kindMap[item.ExerciseID])

		var sets []store.TemplateSet
		if explicit := decodeSetList(item.Sets); explicit != nil {
			for _, cs := range explicit {
				set := normalizeSetFields(kind, cs.Reps, cs.Weight, cs.Duration, cs.Distance)
				if cs.SetType != "" {
					set.SetType = cs.SetType
				}
				sets = append(sets, set)
			}
		}
		if sets == nil {
			count := setCount(item.Sets, kind)
			base := normalizeSetFields(kind, item.Reps, item.Weight, item.Duration, item.Distance)
			for range count {
				sets = append(sets, base)
			}
		}

		first := sets[0]
		out = append(out, store.TemplateExercise{
			ExerciseID:      item.ExerciseID,
			Order:           i,
			Sets:            sets,
			Notes:           item.Notes,
			DefaultSets:     len(sets),
			DefaultReps:     first.Reps,
			DefaultWeight:   first.Weight,
			DefaultDuration: first.Duration,
			DefaultDistance: first.Distance,
		})
	}
	return out, nil
}

// decodeSetList returns the explicit set array form of a sets value, or
// nil when the value is absent, an integer count, or unparseable.
func decodeSetList(raw json.RawMessage) []CompactSet {
	if len(raw) == 0 {
		return nil
	}
	var sets []CompactSet
	if err := json.Unmarshal(raw, &sets); err != nil || len(sets) == 0 {
		return nil
	}
	return sets
}

// setCount resolves the integer form of a sets value. Absent counts
// default to 3 sets, or 1 for time/distance-only kinds.
func setCount(raw json.RawMessage, kind string) int {
	if len(raw) > 0 {
		var n int
		if err := json.Unmarshal(raw, &n); err == nil {
			if n < 1 {
				return 1
			}
			return n
		}
		return 1
	}
	if kinds.TimeOrDistanceOnly(kind) {
		return 1
	}
	return 3
}
