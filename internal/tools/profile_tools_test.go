package tools

import (
	"context"
	"testing"

	"github.com/forgefit/coach/internal/store"
)

func TestGetUserContext(t *testing.T) {
	r, st := newTestRegistry(t)
	ctx := context.Background()

	u := &store.User{Email: "alice@example.com"}
	if err := st.InsertUser(ctx, u); err != nil {
		t.Fatal(err)
	}
	userCtx := WithUserID(ctx, u.ID)

	// Profile and insights absent: placeholders, not errors.
	out := execute(t, r, userCtx, "get_user_context", "{}")
	user, _ := out["user"].(map[string]any)
	if user == nil || user["email"] != "alice@example.com" {
		t.Fatalf("user block = %v", out["user"])
	}
	if profile, ok := out["profile"].(map[string]any); !ok || len(profile) != 0 {
		t.Errorf("profile = %v, want an empty object", out["profile"])
	}

	if err := st.UpsertProfile(ctx, &store.Profile{UserID: u.ID, Goals: "get strong"}); err != nil {
		t.Fatal(err)
	}
	out = execute(t, r, userCtx, "get_user_context", "{}")
	profile, _ := out["profile"].(map[string]any)
	if profile["goals"] != "get strong" {
		t.Errorf("profile goals = %v", profile["goals"])
	}

	// Unknown user is a tool error, not a crash.
	out = execute(t, r, WithUserID(ctx, "ghost"), "get_user_context", "{}")
	if out["error"] != "user not found" {
		t.Errorf("got %v, want user not found", out)
	}
}

func TestUpdateProfileInsights(t *testing.T) {
	r, st := newTestRegistry(t)
	ctx := testCtx()

	out := execute(t, r, ctx, "update_profile_insights", `{
		"injury_tags": ["left knee"],
		"psych_profile": "goal driven"
	}`)
	if injuries, _ := out["injury_tags"].([]any); len(injuries) != 1 || injuries[0] != "left knee" {
		t.Fatalf("injury_tags = %v", out["injury_tags"])
	}

	// Absent fields stay untouched across updates.
	out = execute(t, r, ctx, "update_profile_insights", `{"strength_tags": ["squat"]}`)
	if injuries, _ := out["injury_tags"].([]any); len(injuries) != 1 {
		t.Errorf("injury_tags clobbered: %v", out["injury_tags"])
	}
	if out["psych_profile"] != "goal driven" {
		t.Errorf("psych_profile = %v", out["psych_profile"])
	}

	ins, err := st.GetInsights(context.Background(), "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(ins.StrengthTags) != 1 || ins.StrengthTags[0] != "squat" {
		t.Errorf("persisted strength tags = %v", ins.StrengthTags)
	}
}
