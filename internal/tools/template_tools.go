package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/forgefit/coach/internal/store"
)

func compactExerciseSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"exercise_id": map[string]any{"type": "string"},
			"sets": map[string]any{
				"description": "Array of set objects (preferred) or an integer count of identical sets.",
				"oneOf": []map[string]any{
					{
						"type": "array",
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"set_type": map[string]any{"type": "string", "enum": []string{"normal", "warmup", "cooldown", "failure"}},
								"reps":     map[string]any{"type": "integer"},
								"weight":   map[string]any{"type": "number"},
								"duration": map[string]any{"type": "number"},
								"distance": map[string]any{"type": "number"},
							},
						},
					},
					{"type": "integer"},
				},
			},
			"reps":     map[string]any{"type": "integer", "description": "Default reps per set (used when sets is an integer)"},
			"weight":   map[string]any{"type": "number", "description": "Default weight in kg (used when sets is an integer)"},
			"duration": map[string]any{"type": "number", "description": "Default duration in seconds (used when sets is an integer)"},
			"distance": map[string]any{"type": "number", "description": "Default distance in km (used when sets is an integer)"},
			"notes":    map[string]any{"type": "string"},
		},
		"required": []string{"exercise_id"},
	}
}

func (r *Registry) registerTemplateTools() {
	r.Register(&Tool{
		Name:        "get_user_templates",
		Description: "Fetch the user's existing workout templates (reusable routines).",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
			"required":   []string{},
		},
		Handler: r.handleGetUserTemplates,
	})

	r.Register(&Tool{
		Name: "create_template",
		Description: "Create a reusable workout TEMPLATE only (no scheduling). " +
			"Use this when user wants a routine to do 'by feel' without fixed days, " +
			"or wants a quick-start routine saved in their library. " +
			"Set fields must match exercise_kind rules.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name":  map[string]any{"type": "string", "description": "Template name"},
				"notes": map[string]any{"type": "string", "description": "Template notes/instructions"},
				"exercises": map[string]any{
					"type":        "array",
					"description": "Ordered exercise list (compact form)",
					"items":       compactExerciseSchema(),
				},
			},
			"required": []string{"name", "exercises"},
		},
		Handler: r.handleCreateTemplate,
	})

	r.Register(&Tool{
		Name: "update_template",
		Description: "Update a TEMPLATE in place (affects all future schedules using it). " +
			"Only use if user explicitly wants to change the template itself.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"template_id": map[string]any{"type": "string"},
				"name":        map[string]any{"type": "string"},
				"notes":       map[string]any{"type": "string"},
				"exercises": map[string]any{
					"type":        "array",
					"description": "REPLACES the whole template exercise list (compact form)",
					"items":       compactExerciseSchema(),
				},
			},
			"required": []string{"template_id"},
		},
		Handler: r.handleUpdateTemplate,
	})
}

func (r *Registry) handleGetUserTemplates(ctx context.Context, _ json.RawMessage) (any, error) {
	userID, err := UserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	templates, err := r.store.ListTemplates(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(templates))
	for _, t := range templates {
		ids := make([]string, 0, len(t.Exercises))
		for _, e := range t.Exercises {
			ids = append(ids, e.ExerciseID)
		}
		out = append(out, map[string]any{
			"id":             t.ID,
			"name":           t.Name,
			"notes":          t.Notes,
			"exercise_count": len(t.Exercises),
			"exercise_ids":   ids,
		})
	}
	return out, nil
}

type createTemplateArgs struct {
	Name      string            `json:"name"`
	Notes     string            `json:"notes"`
	Exercises []CompactExercise `json:"exercises"`
}

func (r *Registry) handleCreateTemplate(ctx context.Context, raw json.RawMessage) (any, error) {
	userID, err := UserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var args createTemplateArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(args.Name)
	if name == "" || len(args.Exercises) == 0 {
		return nil, errors.New("name and exercises are required")
	}

	exercises, err := r.buildTemplateExercises(ctx, userID, args.Exercises)
	if err != nil {
		return nil, err
	}
	if len(exercises) == 0 {
		return nil, errors.New("no valid exercises provided")
	}

	notes := args.Notes
	if notes == "" {
		notes = "Created by AI Coach"
	}

	t := &store.Template{
		UserID:    userID,
		Name:      name,
		Notes:     notes,
		Exercises: exercises,
	}
	if err := r.store.InsertTemplate(ctx, t); err != nil {
		return nil, err
	}

	return map[string]any{"success": true, "template_id": t.ID, "message": "Template created"}, nil
}

type updateTemplateArgs struct {
	TemplateID string            `json:"template_id"`
	Name       *string           `json:"name"`
	Notes      *string           `json:"notes"`
	Exercises  []CompactExercise `json:"exercises"`
}

func (r *Registry) handleUpdateTemplate(ctx context.Context, raw json.RawMessage) (any, error) {
	userID, err := UserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var args updateTemplateArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	if args.TemplateID == "" {
		return nil, errors.New("valid template_id is required")
	}

	var exercises []store.TemplateExercise
	if len(args.Exercises) > 0 {
		exercises, err = r.buildTemplateExercises(ctx, userID, args.Exercises)
		if err != nil {
			return nil, err
		}
	}

	if args.Name == nil && args.Notes == nil && exercises == nil {
		return nil, errors.New("no fields to update")
	}

	err = r.store.UpdateTemplate(ctx, userID, args.TemplateID, args.Name, args.Notes, exercises)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errors.New("template not found")
	}
	if err != nil {
		return nil, err
	}

	return map[string]any{"success": true, "message": "Template updated"}, nil
}
