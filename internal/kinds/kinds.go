// Package kinds defines the exercise-kind rules that decide which set
// fields (reps, weight, duration, distance) apply to an exercise.
//
// The rules are the single source of truth shared by the tool executor
// (set normalization during template synthesis) and the system prompt
// (so the model picks kinds the backend will accept).
package kinds

import (
	"fmt"
	"sort"
	"strings"
)

// Set field names.
const (
	FieldReps     = "reps"
	FieldWeight   = "weight"
	FieldDuration = "duration"
	FieldDistance = "distance"
)

// DefaultKind is the fallback when a tool call supplies an unknown kind.
const DefaultKind = "Machine/Other"

// Rule describes one exercise kind.
type Rule struct {
	Fields      []string
	Description string
}

// Rules maps exercise kind to its allowed set fields.
var Rules = map[string]Rule{
	"Barbell":             {Fields: []string{FieldReps, FieldWeight}, Description: "Use reps + weight (kg)"},
	"Dumbbell":            {Fields: []string{FieldReps, FieldWeight}, Description: "Use reps + weight (kg)"},
	"Machine/Other":       {Fields: []string{FieldReps, FieldWeight}, Description: "Use reps + weight (kg)"},
	"Weighted Bodyweight": {Fields: []string{FieldReps, FieldWeight}, Description: "Use reps + additional weight (kg)"},
	"Assisted Bodyweight": {Fields: []string{FieldReps, FieldWeight}, Description: "Use reps + assistance weight (kg, positive number)"},
	"Reps Only":           {Fields: []string{FieldReps}, Description: "Use reps only, no weight"},
	"Duration":            {Fields: []string{FieldDuration}, Description: "Use duration in seconds"},
	"Cardio":              {Fields: []string{FieldDuration, FieldDistance}, Description: "Use duration (seconds) and/or distance (km)"},
	"Weighted Cardio":     {Fields: []string{FieldDuration, FieldWeight, FieldDistance}, Description: "Use duration (seconds) and/or distance (km) with optional carried weight (kg)"},
	"Weighted Duration":   {Fields: []string{FieldDuration, FieldWeight}, Description: "Use duration (seconds) with optional carried weight (kg)"},

	"EMOM (Every Minute On The Minute)":             {Fields: []string{FieldReps, FieldWeight, FieldDuration}, Description: "Use reps + weight (kg) + duration (seconds)"},
	"ETOT (Every Thirty Seconds on Thirty Seconds)": {Fields: []string{FieldReps, FieldWeight, FieldDuration}, Description: "Use reps + weight (kg) + duration (seconds)"},
}

// Normalize maps an arbitrary kind string to a known kind, falling back
// to DefaultKind for unknown or empty input.
func Normalize(kind string) string {
	if _, ok := Rules[kind]; ok {
		return kind
	}
	return DefaultKind
}

// Allowed returns the set fields permitted for a kind as a lookup set.
// Unknown kinds resolve through Normalize.
func Allowed(kind string) map[string]bool {
	rule := Rules[Normalize(kind)]
	out := make(map[string]bool, len(rule.Fields))
	for _, f := range rule.Fields {
		out[f] = true
	}
	return out
}

// TimeOrDistanceOnly reports whether a kind tracks effort by time or
// distance with no rep counting. Such kinds default to a single set.
func TimeOrDistanceOnly(kind string) bool {
	allowed := Allowed(kind)
	return (allowed[FieldDuration] || allowed[FieldDistance]) && !allowed[FieldReps]
}

// Names returns all kind names in sorted order.
func Names() []string {
	names := make([]string, 0, len(Rules))
	for name := range Rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FormatRules renders the rule table for embedding in the system prompt.
func FormatRules() string {
	var sb strings.Builder
	for _, name := range Names() {
		rule := Rules[name]
		fmt.Fprintf(&sb, "- %s: %s | fields: %s\n", name, rule.Description, strings.Join(rule.Fields, ", "))
	}
	return strings.TrimRight(sb.String(), "\n")
}
