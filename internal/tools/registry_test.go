package tools

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/forgefit/coach/internal/store"
)

func newTestRegistry(t *testing.T) (*Registry, *store.Store) {
	t.Helper()

	st, err := store.Open(t.TempDir() + "/coach-test.db")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRegistry(st, logger), st
}

func testCtx() context.Context {
	return WithUserID(context.Background(), "alice")
}

// execute runs a tool and decodes its JSON result into a generic map.
func execute(t *testing.T, r *Registry, ctx context.Context, name, args string) map[string]any {
	t.Helper()

	result := r.Execute(ctx, name, args)
	var out map[string]any
	if err := json.Unmarshal([]byte(result), &out); err != nil {
		t.Fatalf("tool %s returned invalid JSON %q: %v", name, result, err)
	}
	return out
}

func TestRegistryCatalog(t *testing.T) {
	r, _ := newTestRegistry(t)

	want := []string{
		"get_user_context",
		"update_profile_insights",
		"get_exercises",
		"create_exercise",
		"create_exercises_batch",
		"get_user_templates",
		"create_template",
		"update_template",
		"get_schedule",
		"create_planned_workout",
		"update_planned_workout",
		"delete_planned_workout",
		"get_workout_history",
		"get_exercise_history",
	}
	if got := r.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("catalog mismatch:\n got %v\nwant %v", got, want)
	}

	defs := r.List()
	if len(defs) != len(want) {
		t.Fatalf("List returned %d defs, want %d", len(defs), len(want))
	}
	for i, def := range defs {
		if def.Name != want[i] {
			t.Errorf("List[%d] = %s, want %s", i, def.Name, want[i])
		}
		if def.Description == "" {
			t.Errorf("%s has no description", def.Name)
		}
		if def.Parameters == nil {
			t.Errorf("%s has no parameter schema", def.Name)
		}
	}
}

func TestExecute_UnknownTool(t *testing.T) {
	r, _ := newTestRegistry(t)

	out := execute(t, r, testCtx(), "launch_rocket", "{}")
	if msg, _ := out["error"].(string); !strings.Contains(msg, "unknown tool") {
		t.Errorf("got %v, want an unknown-tool error", out)
	}
}

func TestExecute_NoUser(t *testing.T) {
	r, _ := newTestRegistry(t)

	out := execute(t, r, context.Background(), "get_exercises", "{}")
	if msg, _ := out["error"].(string); !strings.Contains(msg, "no authenticated user") {
		t.Errorf("got %v, want a no-user error", out)
	}
}

func TestExecute_HandlerError(t *testing.T) {
	r, _ := newTestRegistry(t)
	r.Register(&Tool{
		Name: "always_fails",
		Handler: func(ctx context.Context, args json.RawMessage) (any, error) {
			return nil, errors.New("boom")
		},
	})

	out := execute(t, r, testCtx(), "always_fails", "{}")
	if out["error"] != "boom" {
		t.Errorf("got %v, want error boom", out)
	}
}

func TestExecute_MalformedArguments(t *testing.T) {
	r, _ := newTestRegistry(t)

	var seen string
	r.Register(&Tool{
		Name: "probe",
		Handler: func(ctx context.Context, args json.RawMessage) (any, error) {
			seen = string(args)
			return map[string]any{"ok": true}, nil
		},
	})

	tests := []struct {
		name string
		args string
		want string
	}{
		{"empty", "", "{}"},
		{"truncated", `{"a":`, "{}"},
		{"not json", "definitely not json", "{}"},
		{"valid passthrough", `{"a":1}`, `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := execute(t, r, testCtx(), "probe", tt.args)
			if out["ok"] != true {
				t.Fatalf("probe failed: %v", out)
			}
			if seen != tt.want {
				t.Errorf("handler saw %q, want %q", seen, tt.want)
			}
		})
	}
}

func TestExecute_RequiredArgumentMissing(t *testing.T) {
	r, _ := newTestRegistry(t)

	// get_exercise_history requires an exercise_id; the failure must come
	// back as an error result, never as a Go error.
	out := execute(t, r, testCtx(), "get_exercise_history", "{}")
	if msg, _ := out["error"].(string); !strings.Contains(msg, "exercise_id") {
		t.Errorf("got %v, want a missing exercise_id error", out)
	}
}
