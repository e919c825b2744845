package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/forgefit/coach/internal/kinds"
	"github.com/forgefit/coach/internal/store"
)

func exerciseItemSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":                 map[string]any{"type": "string"},
			"exercise_kind":        map[string]any{"type": "string", "enum": kinds.Names()},
			"primary_body_parts":   map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"secondary_body_parts": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"category": map[string]any{
				"type":        "string",
				"description": "Free text (e.g., Strength, Mobility, Core, Cardio)",
			},
			"instructions": map[string]any{"type": "string", "description": "Optional coaching cues/instructions"},
			"image":        map[string]any{"type": "string", "description": "Optional image URL"},
		},
		"required": []string{"name", "exercise_kind", "primary_body_parts"},
	}
}

func (r *Registry) registerExerciseTools() {
	r.Register(&Tool{
		Name: "get_exercises",
		Description: "Fetch ALL available exercises in ONE call (global + user custom). " +
			"Use once, then pick exercise IDs from results. Avoid repeated calls.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"body_part": map[string]any{
					"type":        "string",
					"description": "Optional filter to narrow results (name/body part substring). Empty = all.",
				},
				"limit": map[string]any{
					"type":        "integer",
					"description": "Max number of exercises to return (safety cap).",
				},
			},
			"required": []string{},
		},
		Handler: r.handleGetExercises,
	})

	r.Register(&Tool{
		Name:        "create_exercise",
		Description: "Create a single new exercise. Prefer create_exercises_batch when creating multiple.",
		Parameters:  exerciseItemSchema(),
		Handler:     r.handleCreateExercise,
	})

	r.Register(&Tool{
		Name: "create_exercises_batch",
		Description: "Create multiple new exercises at once. Use this to create ALL missing exercises in a single call. " +
			"IMPORTANT: choose exercise_kind correctly (Duration vs Cardio vs Reps Only etc).",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"exercises": map[string]any{
					"type":        "array",
					"description": "Array of exercises to create",
					"items":       exerciseItemSchema(),
				},
			},
			"required": []string{"exercises"},
		},
		Handler: r.handleCreateExercisesBatch,
	})
}

type getExercisesArgs struct {
	BodyPart string `json:"body_part"`
	Limit    int    `json:"limit"`
}

func (r *Registry) handleGetExercises(ctx context.Context, raw json.RawMessage) (any, error) {
	userID, err := UserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var args getExercisesArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}

	exercises, err := r.store.ListExercises(ctx, userID, args.BodyPart, args.Limit)
	if err != nil {
		return nil, err
	}
	if exercises == nil {
		exercises = []*store.Exercise{}
	}
	return exercises, nil
}

type createExerciseArgs struct {
	Name               string   `json:"name"`
	Kind               string   `json:"exercise_kind"`
	PrimaryBodyParts   []string `json:"primary_body_parts"`
	SecondaryBodyParts []string `json:"secondary_body_parts"`
	Category           string   `json:"category"`
	Instructions       string   `json:"instructions"`
	Image              string   `json:"image"`
}

// createOne inserts an exercise unless a same-named one (ignoring case)
// already exists; the existing id is returned with exists=true.
func (r *Registry) createOne(ctx context.Context, userID string, args createExerciseArgs) (id string, exists bool, err error) {
	name := strings.TrimSpace(args.Name)

	existing, err := r.store.FindExerciseByName(ctx, userID, name)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return "", false, err
	}
	if existing != nil {
		return existing.ID, true, nil
	}

	category := args.Category
	if category == "" {
		category = "Strength"
	}

	ex := &store.Exercise{
		UserID:             userID,
		Name:               name,
		Kind:               kinds.Normalize(args.Kind),
		PrimaryBodyParts:   args.PrimaryBodyParts,
		SecondaryBodyParts: args.SecondaryBodyParts,
		Category:           category,
		Instructions:       args.Instructions,
		Image:              args.Image,
		IsCustom:           true,
	}
	if err := r.store.InsertExercise(ctx, ex); err != nil {
		return "", false, err
	}
	return ex.ID, false, nil
}

func (r *Registry) handleCreateExercise(ctx context.Context, raw json.RawMessage) (any, error) {
	userID, err := UserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var args createExerciseArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	if strings.TrimSpace(args.Name) == "" || len(args.PrimaryBodyParts) == 0 {
		return nil, errors.New("name and primary_body_parts are required")
	}

	id, exists, err := r.createOne(ctx, userID, args)
	if err != nil {
		return nil, err
	}
	if exists {
		return map[string]any{
			"exists":  true,
			"id":      id,
			"name":    strings.TrimSpace(args.Name),
			"message": "Exercise exists",
		}, nil
	}
	return map[string]any{"success": true, "id": id, "name": strings.TrimSpace(args.Name)}, nil
}

type createBatchArgs struct {
	Exercises []createExerciseArgs `json:"exercises"`
}

func (r *Registry) handleCreateExercisesBatch(ctx context.Context, raw json.RawMessage) (any, error) {
	userID, err := UserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var args createBatchArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	if len(args.Exercises) == 0 {
		return nil, errors.New("no exercises provided")
	}

	var results []map[string]any
	for _, item := range args.Exercises {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			continue
		}

		id, exists, err := r.createOne(ctx, userID, item)
		if err != nil {
			return nil, err
		}
		status := "created"
		if exists {
			status = "exists"
		}
		results = append(results, map[string]any{"name": name, "id": id, "status": status})
	}

	return map[string]any{
		"success":   true,
		"exercises": results,
		"message":   fmt.Sprintf("Processed %d exercises", len(results)),
	}, nil
}
