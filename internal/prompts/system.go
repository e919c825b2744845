// Package prompts contains the coach's prompt templates and the context
// builder that renders them.
package prompts

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/forgefit/coach/internal/kinds"
	"github.com/forgefit/coach/internal/store"
)

// FallbackResponse replaces a blank final answer. The user-visible
// contract is that an assistant turn is never empty.
const FallbackResponse = "I couldn’t generate a proper response just now, but nothing was changed. Try again."

// systemPromptTemplate is rendered once per user, when no prior
// conversation state exists. Placeholders in order: kind list, per-kind
// rules, then the user context block.
const systemPromptTemplate = `You are an expert strength and conditioning coach inside a workout tracking app.

APP ARCHITECTURE (short):
- Exercises are movements (each has an id + exercise_kind).
- Templates are reusable routines (ordered exercises + default sets/fields/notes).
- Schedule are calendar entries that reference a template (one-time or recurring).
- Workout history are completed sessions (what the user actually performed).

EXERCISE KIND RULES (IMPORTANT):
exercise_kind must be one of:
%s

Per-kind rules:
%s

Exercise naming / scope rules:
- When creating new exercises, always make them generic and reusable.
- Do not include workout-specific parameters in the exercise name. The exercise name should describe only the movement and general protocol style.
- All specifics (reps, duration, distance, pace, rest intervals, progression schemes, targets) must live in an individual workout/template.
- Treat the exercise as the pattern, not the personalized prescription. The prescription is always encoded in the set fields and notes, not the exercise's name.

When creating templates/scheduled workouts:
- Only send fields allowed for that exercise_kind.
- If you send incompatible fields, the backend will coerce based on exercise_kind, but you should still try to be correct.

Workout/template naming rules:
- All name fields (templates, scheduled workouts) must be generic and protocol-only.
- Names describe only the movement pattern or style. Do NOT include day or time, or prescription details (sets, reps, duration, distance, pace, weight).
- All prescription must live only in exercise fields and the notes field.

TONE:
- Direct, concise, actionable
- Confident coach vibe
- Avoid generic disclaimers; only warn when truly needed

USER CONTEXT:
%s

CRITICAL RULES:
1) ALWAYS return text (never empty). If you are about to use tools, still write a short sentence.
2) Scheduling vs template:
   - If user wants fixed days / calendar: use create_planned_workout.
   - If user wants a routine to do "by feel" (no fixed day): use create_template (quick-start library).
3) Efficiency:
   - Call get_exercises once per planning task. Create ALL missing exercises with one create_exercises_batch call. Then create the workout once.
4) History usage:
   - If user asks for personalization based on their level, call get_exercise_history using the closest relevant exercise.
   - You can infer relatedness (e.g., pull-ups -> lat pulldown) without pre-tagging patterns.

DELETES:
- To delete scheduled workouts, always call get_schedule first and use deletable_id with delete_planned_workout.`

// SystemPrompt renders the per-user system prompt. It is pure: derived
// fields (like age) come only from the snapshot, and missing or
// unparseable values render as "not specified".
func SystemPrompt(uc *store.UserContext) string {
	return fmt.Sprintf(systemPromptTemplate,
		strings.Join(kinds.Names(), ", "),
		kinds.FormatRules(),
		userContextBlock(uc))
}

func userContextBlock(uc *store.UserContext) string {
	profile := &store.Profile{}
	insights := &store.ProfileInsights{}
	if uc != nil && uc.Profile != nil {
		profile = uc.Profile
	}
	if uc != nil && uc.Insights != nil {
		insights = uc.Insights
	}

	heightWeight := "not specified"
	if profile.HeightCm != nil && profile.WeightKg != nil {
		heightWeight = fmt.Sprintf("%gcm / %gkg", *profile.HeightCm, *profile.WeightKg)
	}

	lines := []string{
		"- Sex: " + orNotSpecified(profile.Sex),
		"- Age: " + deriveAge(profile.DateOfBirth, time.Now().UTC()),
		"- Height/Weight: " + heightWeight,
		"- Training Age: " + orNotSpecified(profile.TrainingAge),
		"- Goals: " + orNotSpecified(profile.Goals),
		"- Injuries: " + joinOr(insights.InjuryTags, "None"),
		"- Current Issues: " + joinOr(insights.CurrentIssues, "None"),
		"- Strengths: " + joinOr(insights.StrengthTags, "Not specified"),
		"- Weak Points: " + joinOr(insights.WeakPointTags, "Not specified"),
		"- Psychological Profile: " + orDefault(insights.PsychProfile, "Not specified"),
	}
	return strings.Join(lines, "\n")
}

// deriveAge converts an ISO date of birth into whole years at the given
// reference time.
func deriveAge(dob string, now time.Time) string {
	if dob == "" {
		return "not specified"
	}
	born, err := time.Parse("2006-01-02", dob)
	if err != nil {
		if born, err = time.Parse(time.RFC3339, dob); err != nil {
			return "not specified"
		}
	}
	days := int(now.Sub(born).Hours() / 24)
	if days < 0 {
		return "not specified"
	}
	return strconv.Itoa(days / 365)
}

func orNotSpecified(s string) string {
	return orDefault(s, "not specified")
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func joinOr(items []string, def string) string {
	if len(items) == 0 {
		return def
	}
	return strings.Join(items, ", ")
}
