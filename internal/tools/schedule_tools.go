package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/forgefit/coach/internal/store"
)

func (r *Registry) registerScheduleTools() {
	r.Register(&Tool{
		Name: "get_schedule",
		Description: "Fetch planned/scheduled workouts for a date range (including recurring expansion). " +
			"Use this to see what is on the user's calendar.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"start_date": map[string]any{"type": "string", "description": "YYYY-MM-DD"},
				"end_date":   map[string]any{"type": "string", "description": "YYYY-MM-DD"},
			},
			"required": []string{"start_date", "end_date"},
		},
		Handler: r.handleGetSchedule,
	})

	r.Register(&Tool{
		Name: "create_planned_workout",
		Description: "Create a scheduled workout on a specific date (optionally recurring). " +
			"Provide EITHER template_id OR exercises (which will auto-create a template).",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"date":        map[string]any{"type": "string", "description": "YYYY-MM-DD"},
				"name":        map[string]any{"type": "string", "description": "Workout name"},
				"template_id": map[string]any{"type": "string", "description": "Use an existing template"},
				"exercises": map[string]any{
					"type":        "array",
					"description": "If provided, auto-creates a template then schedules it (compact form)",
					"items":       compactExerciseSchema(),
				},
				"type":           map[string]any{"type": "string", "description": "strength/run/mobility/etc"},
				"notes":          map[string]any{"type": "string"},
				"is_recurring":   map[string]any{"type": "boolean"},
				"recurrence_type": map[string]any{
					"type": "string", "enum": []string{"daily", "weekly", "monthly"},
				},
				"recurrence_days": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "integer"},
					"description": "Weekly: [0=Mon..6=Sun]",
				},
				"recurrence_end_date": map[string]any{"type": "string", "description": "YYYY-MM-DD or null for indefinite"},
			},
			"required": []string{"date", "name"},
		},
		Handler: r.handleCreatePlannedWorkout,
	})

	r.Register(&Tool{
		Name: "update_planned_workout",
		Description: "Update a scheduled workout entry (date/name/type/notes/status/template). " +
			"If exercises provided, creates a NEW template and links it.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"workout_id":  map[string]any{"type": "string"},
				"date":        map[string]any{"type": "string"},
				"name":        map[string]any{"type": "string"},
				"template_id": map[string]any{"type": "string"},
				"exercises": map[string]any{
					"type":        "array",
					"description": "If provided, creates a new template and attaches it (compact form)",
					"items":       compactExerciseSchema(),
				},
				"type":  map[string]any{"type": "string"},
				"notes": map[string]any{"type": "string"},
				"status": map[string]any{
					"type": "string", "enum": []string{"planned", "in_progress", "completed", "skipped"},
				},
				"order": map[string]any{"type": "integer"},
			},
			"required": []string{"workout_id"},
		},
		Handler: r.handleUpdatePlannedWorkout,
	})

	r.Register(&Tool{
		Name: "delete_planned_workout",
		Description: "Delete a scheduled workout from the calendar. " +
			"Use the deletable_id from get_schedule.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"workout_id": map[string]any{"type": "string"},
			},
			"required": []string{"workout_id"},
		},
		Handler: r.handleDeletePlannedWorkout,
	})
}

type getScheduleArgs struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func (r *Registry) handleGetSchedule(ctx context.Context, raw json.RawMessage) (any, error) {
	userID, err := UserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var args getScheduleArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	if args.StartDate == "" || args.EndDate == "" {
		return nil, errors.New("start_date and end_date are required")
	}

	workouts, err := r.store.ListPlannedWorkouts(ctx, userID)
	if err != nil {
		return nil, err
	}

	schedule, err := store.ExpandSchedule(workouts, args.StartDate, args.EndDate)
	if err != nil {
		return nil, err
	}
	if schedule == nil {
		schedule = []store.ScheduleEntry{}
	}
	return schedule, nil
}

type createPlannedWorkoutArgs struct {
	Date              string            `json:"date"`
	Name              string            `json:"name"`
	TemplateID        string            `json:"template_id"`
	Exercises         []CompactExercise `json:"exercises"`
	Type              string            `json:"type"`
	Notes             string            `json:"notes"`
	IsRecurring       bool              `json:"is_recurring"`
	RecurrenceType    string            `json:"recurrence_type"`
	RecurrenceDays    []int             `json:"recurrence_days"`
	RecurrenceEndDate string            `json:"recurrence_end_date"`
}

func (r *Registry) handleCreatePlannedWorkout(ctx context.Context, raw json.RawMessage) (any, error) {
	userID, err := UserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var args createPlannedWorkoutArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	if args.Date == "" || args.Name == "" {
		return nil, errors.New("date and name are required")
	}

	existing, err := r.store.FindPlannedWorkoutByDateName(ctx, userID, args.Date, args.Name)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return map[string]any{
			"already_exists": true,
			"id":             existing.ID,
			"template_id":    existing.TemplateID,
			"message":        "Workout already exists for that date/name",
		}, nil
	}

	templateID := args.TemplateID
	createdTemplateID := ""
	if len(args.Exercises) > 0 && templateID == "" {
		exercises, err := r.buildTemplateExercises(ctx, userID, args.Exercises)
		if err != nil {
			return nil, err
		}

		notes := args.Notes
		if notes == "" {
			notes = "Created by AI Coach"
		}
		t := &store.Template{
			UserID:    userID,
			Name:      args.Name,
			Notes:     notes,
			Exercises: exercises,
		}
		if err := r.store.InsertTemplate(ctx, t); err != nil {
			return nil, err
		}
		templateID = t.ID
		createdTemplateID = t.ID
	}

	pw := &store.PlannedWorkout{
		UserID:      userID,
		Date:        args.Date,
		Name:        args.Name,
		TemplateID:  templateID,
		Type:        args.Type,
		Notes:       args.Notes,
		Status:      store.StatusPlanned,
		IsRecurring: args.IsRecurring,
	}
	if args.IsRecurring {
		pw.RecurrenceType = args.RecurrenceType
		pw.RecurrenceDays = args.RecurrenceDays
		pw.RecurrenceEndDate = args.RecurrenceEndDate
	}
	if err := r.store.InsertPlannedWorkout(ctx, pw); err != nil {
		return nil, err
	}

	msg := fmt.Sprintf("Scheduled %q for %s", args.Name, args.Date)
	if createdTemplateID != "" {
		msg += fmt.Sprintf(" (auto-created template %s)", createdTemplateID)
	}

	out := map[string]any{
		"success":     true,
		"id":          pw.ID,
		"template_id": templateID,
		"message":     msg,
	}
	if createdTemplateID != "" {
		out["created_template_id"] = createdTemplateID
	}
	return out, nil
}

type updatePlannedWorkoutArgs struct {
	WorkoutID  string            `json:"workout_id"`
	Date       *string           `json:"date"`
	Name       *string           `json:"name"`
	TemplateID *string           `json:"template_id"`
	Exercises  []CompactExercise `json:"exercises"`
	Type       *string           `json:"type"`
	Notes      *string           `json:"notes"`
	Status     *string           `json:"status"`
	Order      *int              `json:"order"`
}

func (r *Registry) handleUpdatePlannedWorkout(ctx context.Context, raw json.RawMessage) (any, error) {
	userID, err := UserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var args updatePlannedWorkoutArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	if args.WorkoutID == "" {
		return nil, errors.New("valid workout_id is required")
	}

	upd := store.PlannedWorkoutUpdate{
		Date:       args.Date,
		Name:       args.Name,
		TemplateID: args.TemplateID,
		Type:       args.Type,
		Notes:      args.Notes,
		Status:     args.Status,
		Order:      args.Order,
	}

	// A new exercise list always becomes a brand-new template: other
	// planned workouts may still reference the old one.
	if len(args.Exercises) > 0 {
		existing, err := r.store.GetPlannedWorkout(ctx, userID, args.WorkoutID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, errors.New("scheduled workout not found")
		}
		if err != nil {
			return nil, err
		}

		name := existing.Name
		if args.Name != nil && strings.TrimSpace(*args.Name) != "" {
			name = strings.TrimSpace(*args.Name)
		}
		if name == "" {
			name = "Workout"
		}

		exercises, err := r.buildTemplateExercises(ctx, userID, args.Exercises)
		if err != nil {
			return nil, err
		}
		t := &store.Template{
			UserID:    userID,
			Name:      name + " (Modified)",
			Notes:     "Created from scheduled workout modification",
			Exercises: exercises,
		}
		if err := r.store.InsertTemplate(ctx, t); err != nil {
			return nil, err
		}
		upd.TemplateID = &t.ID
	}

	if upd == (store.PlannedWorkoutUpdate{}) {
		return nil, errors.New("no fields to update")
	}

	err = r.store.UpdatePlannedWorkout(ctx, userID, args.WorkoutID, upd)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errors.New("scheduled workout not found")
	}
	if err != nil {
		return nil, err
	}

	out := map[string]any{"success": true, "message": "Schedule updated"}
	if upd.TemplateID != nil {
		out["template_id"] = *upd.TemplateID
	}
	return out, nil
}

type deletePlannedWorkoutArgs struct {
	WorkoutID string `json:"workout_id"`
}

func (r *Registry) handleDeletePlannedWorkout(ctx context.Context, raw json.RawMessage) (any, error) {
	userID, err := UserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var args deletePlannedWorkoutArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	if args.WorkoutID == "" {
		return nil, errors.New("valid workout_id is required")
	}

	deleted, err := r.store.DeletePlannedWorkout(ctx, userID, args.WorkoutID)
	if err != nil {
		return nil, err
	}
	if !deleted {
		return map[string]any{
			"success":         true,
			"already_deleted": true,
			"message":         "Workout already deleted/no-op",
		}, nil
	}
	return map[string]any{
		"success": true,
		"message": fmt.Sprintf("Deleted scheduled workout %s", args.WorkoutID),
	}, nil
}
