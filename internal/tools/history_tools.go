package tools

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"

	"github.com/forgefit/coach/internal/kinds"
)

func (r *Registry) registerHistoryTools() {
	r.Register(&Tool{
		Name: "get_workout_history",
		Description: "Get recent completed workouts (summaries). " +
			"Use to understand recent training load and what the user actually did.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"days_back": map[string]any{"type": "integer", "description": "Window size in days (default 14)"},
				"limit":     map[string]any{"type": "integer", "description": "Max sessions to return (default 20)"},
			},
			"required": []string{},
		},
		Handler: r.handleGetWorkoutHistory,
	})

	r.Register(&Tool{
		Name: "get_exercise_history",
		Description: "Get recent performance stats for a specific exercise_id from workout history. " +
			"Returns best stats based on exercise_kind rules (e.g., strength: best_weight/best_e1rm; " +
			"duration: best_duration; cardio: best_distance/best_pace when possible).",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"exercise_id":    map[string]any{"type": "string"},
				"days_back":      map[string]any{"type": "integer", "description": "Window size in days (default 120)"},
				"limit_workouts": map[string]any{"type": "integer", "description": "Max sessions to scan (default 60)"},
			},
			"required": []string{"exercise_id"},
		},
		Handler: r.handleGetExerciseHistory,
	})
}

type workoutHistoryArgs struct {
	DaysBack int `json:"days_back"`
	Limit    int `json:"limit"`
}

func (r *Registry) handleGetWorkoutHistory(ctx context.Context, raw json.RawMessage) (any, error) {
	userID, err := UserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var args workoutHistoryArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	if args.DaysBack == 0 {
		args.DaysBack = 14
	}
	if args.Limit == 0 {
		args.Limit = 20
	}

	workouts, err := r.store.ListCompletedWorkouts(ctx, userID, args.DaysBack, args.Limit)
	if err != nil {
		return nil, err
	}

	summaries := make([]map[string]any, 0, len(workouts))
	for _, w := range workouts {
		var totalVolume float64
		setCount := 0
		for _, ex := range w.Exercises {
			for _, set := range ex.Sets {
				setCount++
				if set.Weight != nil && set.Reps != nil {
					totalVolume += *set.Weight * float64(*set.Reps)
				}
			}
		}

		summary := map[string]any{
			"id":              w.ID,
			"name":            w.Name,
			"started_at":      w.StartedAt.Format(time.RFC3339),
			"exercise_count":  len(w.Exercises),
			"set_count":       setCount,
			"total_volume_kg": math.Round(totalVolume*100) / 100,
			"notes":           w.Notes,
		}
		if w.EndedAt != nil {
			summary["ended_at"] = w.EndedAt.Format(time.RFC3339)
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

type exerciseHistoryArgs struct {
	ExerciseID    string `json:"exercise_id"`
	DaysBack      int    `json:"days_back"`
	LimitWorkouts int    `json:"limit_workouts"`
}

// setSample is one performed set of the target exercise, tagged with the
// session date.
type setSample struct {
	Date     string   `json:"date"`
	Reps     *int     `json:"reps,omitempty"`
	Weight   *float64 `json:"weight,omitempty"`
	Duration *float64 `json:"duration,omitempty"`
	Distance *float64 `json:"distance,omitempty"`
	Calories *int     `json:"calories,omitempty"`
}

func (r *Registry) handleGetExerciseHistory(ctx context.Context, raw json.RawMessage) (any, error) {
	userID, err := UserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var args exerciseHistoryArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	if args.ExerciseID == "" {
		return nil, errors.New("exercise_id is required")
	}
	if args.DaysBack == 0 {
		args.DaysBack = 120
	}
	if args.LimitWorkouts == 0 {
		args.LimitWorkouts = 60
	}

	kind := kinds.DefaultKind
	if ex, err := r.store.GetExercise(ctx, userID, args.ExerciseID); err == nil {
		kind = kinds.Normalize(ex.Kind)
	}
	allowed := kinds.Allowed(kind)

	workouts, err := r.store.ListCompletedWorkouts(ctx, userID, args.DaysBack, args.LimitWorkouts)
	if err != nil {
		return nil, err
	}

	var samples []setSample
	for _, w := range workouts {
		date := w.StartedAt.Format(time.RFC3339)
		for _, ex := range w.Exercises {
			if ex.ExerciseID != args.ExerciseID {
				continue
			}
			for _, set := range ex.Sets {
				samples = append(samples, setSample{
					Date:     date,
					Reps:     set.Reps,
					Weight:   set.Weight,
					Duration: set.Duration,
					Distance: set.Distance,
					Calories: set.Calories,
				})
			}
		}
	}

	out := map[string]any{
		"exercise_id":      args.ExerciseID,
		"exercise_kind":    kind,
		"window_days":      args.DaysBack,
		"workouts_scanned": len(workouts),
		"samples":          len(samples),
		"recent_sets":      recentSets(samples),
	}

	switch {
	case allowed[kinds.FieldReps] && !allowed[kinds.FieldDuration] && !allowed[kinds.FieldDistance]:
		addStrengthStats(out, samples)
	case allowed[kinds.FieldDuration] && !allowed[kinds.FieldReps] && !allowed[kinds.FieldDistance]:
		addDurationStats(out, samples)
	case (allowed[kinds.FieldDuration] || allowed[kinds.FieldDistance]) && !allowed[kinds.FieldReps]:
		addCardioStats(out, samples)
	}
	return out, nil
}

func recentSets(samples []setSample) []setSample {
	if len(samples) > 15 {
		return samples[:15]
	}
	if samples == nil {
		return []setSample{}
	}
	return samples
}

// epley estimates a one-rep max from a weighted set.
func epley(weight float64, reps int) float64 {
	return weight * (1.0 + float64(reps)/30.0)
}

func addStrengthStats(out map[string]any, samples []setSample) {
	var maxWeight, bestE1RM *float64
	var maxReps *int
	var bestSet map[string]any

	for _, s := range samples {
		if s.Reps == nil {
			continue
		}
		reps := *s.Reps

		if maxReps == nil || reps > *maxReps {
			maxReps = &reps
		}

		if s.Weight != nil {
			wt := *s.Weight
			if maxWeight == nil || wt > *maxWeight {
				maxWeight = &wt
			}

			est := wt
			if reps > 0 {
				est = epley(wt, reps)
			}
			if bestE1RM == nil || est > *bestE1RM {
				e := est
				bestE1RM = &e
				bestSet = map[string]any{"date": s.Date, "weight": wt, "reps": reps}
			}
		} else if bestSet == nil || reps > bestSet["reps"].(int) {
			// Reps-only strength, track best reps.
			bestSet = map[string]any{"date": s.Date, "reps": reps}
		}
	}

	out["max_weight"] = maxWeight
	out["max_reps"] = maxReps
	if bestE1RM != nil {
		out["best_e1rm"] = math.Round(*bestE1RM*100) / 100
	} else {
		out["best_e1rm"] = nil
	}
	out["best_set"] = bestSet
}

func addDurationStats(out map[string]any, samples []setSample) {
	var maxDuration *float64
	var bestSet map[string]any

	for _, s := range samples {
		if s.Duration == nil {
			continue
		}
		if maxDuration == nil || *s.Duration > *maxDuration {
			d := *s.Duration
			maxDuration = &d
			bestSet = map[string]any{"date": s.Date, "duration": d}
		}
	}

	out["max_duration_seconds"] = maxDuration
	out["best_set"] = bestSet
}

func addCardioStats(out map[string]any, samples []setSample) {
	var maxDistance, bestPace *float64
	var bestDistanceSet, bestPaceSet map[string]any

	for _, s := range samples {
		if s.Distance != nil {
			if maxDistance == nil || *s.Distance > *maxDistance {
				d := *s.Distance
				maxDistance = &d
				bestDistanceSet = map[string]any{"date": s.Date, "distance_km": d}
				if s.Duration != nil {
					bestDistanceSet["duration_seconds"] = *s.Duration
				}
			}
		}
		if s.Distance != nil && s.Duration != nil && *s.Distance > 0 {
			pace := *s.Duration / *s.Distance // seconds per km, lower is better
			if bestPace == nil || pace < *bestPace {
				p := pace
				bestPace = &p
				bestPaceSet = map[string]any{
					"date":             s.Date,
					"distance_km":      *s.Distance,
					"duration_seconds": *s.Duration,
					"pace_sec_per_km":  math.Round(pace*100) / 100,
				}
			}
		}
	}

	out["max_distance_km"] = maxDistance
	if bestPace != nil {
		out["best_pace_sec_per_km"] = math.Round(*bestPace*100) / 100
	} else {
		out["best_pace_sec_per_km"] = nil
	}
	out["best_distance_set"] = bestDistanceSet
	out["best_pace_set"] = bestPaceSet
}
