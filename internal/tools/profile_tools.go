package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/forgefit/coach/internal/store"
)

func (r *Registry) registerProfileTools() {
	r.Register(&Tool{
		Name: "get_user_context",
		Description: "Fetch the complete user profile context (goals, injuries, insights). " +
			"Use when you need background to personalize advice.",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
			"required":   []string{},
		},
		Handler: r.handleGetUserContext,
	})

	r.Register(&Tool{
		Name: "update_profile_insights",
		Description: "Update specific fields in the user's profile insights (injuries, strengths, weaknesses, etc.). " +
			"Use when user shares new lasting info.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"injury_tags":     map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				"current_issues":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				"strength_tags":   map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				"weak_point_tags": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				"psych_profile":   map[string]any{"type": "string"},
			},
			"required": []string{},
		},
		Handler: r.handleUpdateProfileInsights,
	})
}

func (r *Registry) handleGetUserContext(ctx context.Context, _ json.RawMessage) (any, error) {
	userID, err := UserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	uc, err := r.store.GetUserContext(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user not found")
	}

	out := map[string]any{
		"user": map[string]any{"email": uc.User.Email},
	}
	if uc.Profile != nil {
		out["profile"] = uc.Profile
	} else {
		out["profile"] = map[string]any{}
	}
	if uc.Insights != nil {
		out["insights"] = uc.Insights
	} else {
		out["insights"] = map[string]any{}
	}
	return out, nil
}

type updateInsightsArgs struct {
	InjuryTags    []string `json:"injury_tags"`
	CurrentIssues []string `json:"current_issues"`
	StrengthTags  []string `json:"strength_tags"`
	WeakPointTags []string `json:"weak_point_tags"`
	PsychProfile  *string  `json:"psych_profile"`
}

func (r *Registry) handleUpdateProfileInsights(ctx context.Context, raw json.RawMessage) (any, error) {
	userID, err := UserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var args updateInsightsArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}

	updated, err := r.store.MergeInsights(ctx, userID, store.InsightsUpdate{
		InjuryTags:    args.InjuryTags,
		CurrentIssues: args.CurrentIssues,
		StrengthTags:  args.StrengthTags,
		WeakPointTags: args.WeakPointTags,
		PsychProfile:  args.PsychProfile,
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
