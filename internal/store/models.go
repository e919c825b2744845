// Package store provides SQLite-backed persistence for the coaching domain:
// users, profiles, exercises, templates, planned workouts, completed workout
// sessions, and per-user chat state.
package store

import "time"

// User is an account record. Authentication lives elsewhere; the store only
// needs identity and contact fields for context building.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Profile holds the user's physical stats and training background.
type Profile struct {
	UserID      string   `json:"user_id"`
	Sex         string   `json:"sex,omitempty"`
	DateOfBirth string   `json:"date_of_birth,omitempty"` // ISO date, may be empty
	HeightCm    *float64 `json:"height_cm,omitempty"`
	WeightKg    *float64 `json:"weight_kg,omitempty"`
	TrainingAge string   `json:"training_age,omitempty"`
	Goals       string   `json:"goals,omitempty"`
}

// ProfileInsights is the coach's accumulated knowledge about the user.
// Updated field-wise; absent fields are never clobbered.
type ProfileInsights struct {
	UserID        string   `json:"user_id"`
	InjuryTags    []string `json:"injury_tags"`
	CurrentIssues []string `json:"current_issues"`
	StrengthTags  []string `json:"strength_tags"`
	WeakPointTags []string `json:"weak_point_tags"`
	PsychProfile  string   `json:"psych_profile"`
}

// Exercise is a single movement. Global exercises have an empty UserID and
// are visible to everyone; custom exercises belong to one user.
type Exercise struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"-"`
	Name               string    `json:"name"`
	Kind               string    `json:"exercise_kind"`
	PrimaryBodyParts   []string  `json:"primary_body_parts"`
	SecondaryBodyParts []string  `json:"secondary_body_parts"`
	Category           string    `json:"category,omitempty"`
	Instructions       string    `json:"instructions,omitempty"`
	Image              string    `json:"image,omitempty"`
	IsCustom           bool      `json:"is_custom"`
	CreatedAt          time.Time `json:"-"`
}

// TemplateSet is one prescribed set inside a template exercise. Field
// presence follows the exercise kind rules; pointers distinguish "not
// prescribed" from zero.
type TemplateSet struct {
	SetType  string   `json:"set_type"`
	Reps     *int     `json:"reps,omitempty"`
	Weight   *float64 `json:"weight,omitempty"`
	Duration *float64 `json:"duration,omitempty"`
	Distance *float64 `json:"distance,omitempty"`
}

// TemplateExercise is one ordered entry in a template.
type TemplateExercise struct {
	ExerciseID      string        `json:"exercise_id"`
	Order           int           `json:"order"`
	Sets            []TemplateSet `json:"sets"`
	Notes           string        `json:"notes,omitempty"`
	DefaultSets     int           `json:"default_sets"`
	DefaultReps     *int          `json:"default_reps,omitempty"`
	DefaultWeight   *float64      `json:"default_weight,omitempty"`
	DefaultDuration *float64      `json:"default_duration,omitempty"`
	DefaultDistance *float64      `json:"default_distance,omitempty"`
}

// Template is a reusable, named routine.
type Template struct {
	ID        string             `json:"id"`
	UserID    string             `json:"-"`
	Name      string             `json:"name"`
	Notes     string             `json:"notes,omitempty"`
	Exercises []TemplateExercise `json:"exercises"`
	CreatedAt time.Time          `json:"-"`
	UpdatedAt time.Time          `json:"-"`
}

// Planned workout status values.
const (
	StatusPlanned    = "planned"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusSkipped    = "skipped"
)

// PlannedWorkout is a calendar entry, optionally recurring. Recurring
// entries are stored once and expanded into per-date instances at query
// time.
type PlannedWorkout struct {
	ID                string    `json:"id"`
	UserID            string    `json:"-"`
	Date              string    `json:"date"` // YYYY-MM-DD
	Name              string    `json:"name"`
	TemplateID        string    `json:"template_id,omitempty"`
	Type              string    `json:"type,omitempty"`
	Notes             string    `json:"notes,omitempty"`
	Status            string    `json:"status"`
	Order             int       `json:"order"`
	IsRecurring       bool      `json:"is_recurring"`
	RecurrenceType    string    `json:"recurrence_type,omitempty"` // daily, weekly, monthly
	RecurrenceDays    []int     `json:"recurrence_days,omitempty"` // weekly: 0=Mon..6=Sun
	RecurrenceEndDate string    `json:"recurrence_end_date,omitempty"`
	CreatedAt         time.Time `json:"-"`
}

// PlannedWorkoutUpdate carries a partial update; nil fields are untouched.
type PlannedWorkoutUpdate struct {
	Date       *string
	Name       *string
	TemplateID *string
	Type       *string
	Notes      *string
	Status     *string
	Order      *int
}

// WorkoutSet is one performed set in a completed session.
type WorkoutSet struct {
	SetType  string   `json:"set_type,omitempty"`
	Reps     *int     `json:"reps,omitempty"`
	Weight   *float64 `json:"weight,omitempty"`
	Duration *float64 `json:"duration,omitempty"`
	Distance *float64 `json:"distance,omitempty"`
	Calories *int     `json:"calories,omitempty"`
}

// WorkoutExercise is one exercise performed in a session.
type WorkoutExercise struct {
	ExerciseID string       `json:"exercise_id"`
	Order      int          `json:"order"`
	Sets       []WorkoutSet `json:"sets"`
	Notes      string       `json:"notes,omitempty"`
}

// WorkoutSession is a logged workout. Completed sessions have EndedAt set;
// history queries only consider those.
type WorkoutSession struct {
	ID         string            `json:"id"`
	UserID     string            `json:"-"`
	Name       string            `json:"name"`
	TemplateID string            `json:"template_id,omitempty"`
	StartedAt  time.Time         `json:"started_at"`
	EndedAt    *time.Time        `json:"ended_at,omitempty"`
	Notes      string            `json:"notes,omitempty"`
	Exercises  []WorkoutExercise `json:"exercises"`
}
