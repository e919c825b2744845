package store

import (
	"context"
	"errors"
	"testing"
)

func TestPlannedWorkoutRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	pw := &PlannedWorkout{
		UserID:     "alice",
		Date:       "2026-09-07",
		Name:       "Leg Day",
		TemplateID: "tmpl-1",
		Type:       "strength",
		Status:     StatusPlanned,
	}
	if err := s.InsertPlannedWorkout(ctx, pw); err != nil {
		t.Fatal(err)
	}
	if pw.ID == "" {
		t.Fatal("InsertPlannedWorkout did not assign an id")
	}

	got, err := s.GetPlannedWorkout(ctx, "alice", pw.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Leg Day" || got.Date != "2026-09-07" || got.TemplateID != "tmpl-1" {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.Status != StatusPlanned {
		t.Errorf("status = %q, want planned", got.Status)
	}

	if _, err := s.GetPlannedWorkout(ctx, "bob", pw.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("bob fetching alice's workout: got %v, want ErrNotFound", err)
	}
}

func TestFindPlannedWorkoutByDateName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	pw := &PlannedWorkout{UserID: "alice", Date: "2026-09-07", Name: "Leg Day"}
	if err := s.InsertPlannedWorkout(ctx, pw); err != nil {
		t.Fatal(err)
	}

	got, err := s.FindPlannedWorkoutByDateName(ctx, "alice", "2026-09-07", "Leg Day")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != pw.ID {
		t.Errorf("got id %s, want %s", got.ID, pw.ID)
	}

	if _, err := s.FindPlannedWorkoutByDateName(ctx, "alice", "2026-09-08", "Leg Day"); !errors.Is(err, ErrNotFound) {
		t.Errorf("different date: got %v, want ErrNotFound", err)
	}
	if _, err := s.FindPlannedWorkoutByDateName(ctx, "bob", "2026-09-07", "Leg Day"); !errors.Is(err, ErrNotFound) {
		t.Errorf("different user: got %v, want ErrNotFound", err)
	}
}

func TestUpdatePlannedWorkout_Partial(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	pw := &PlannedWorkout{UserID: "alice", Date: "2026-09-07", Name: "Leg Day", Notes: "keep me"}
	if err := s.InsertPlannedWorkout(ctx, pw); err != nil {
		t.Fatal(err)
	}

	upd := PlannedWorkoutUpdate{
		Date:   strPtr("2026-09-08"),
		Status: strPtr(StatusSkipped),
	}
	if err := s.UpdatePlannedWorkout(ctx, "alice", pw.ID, upd); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetPlannedWorkout(ctx, "alice", pw.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Date != "2026-09-08" {
		t.Errorf("date = %q, want 2026-09-08", got.Date)
	}
	if got.Status != StatusSkipped {
		t.Errorf("status = %q, want skipped", got.Status)
	}
	if got.Name != "Leg Day" || got.Notes != "keep me" {
		t.Errorf("untouched fields changed: %+v", got)
	}

	err = s.UpdatePlannedWorkout(ctx, "alice", "no-such-id", upd)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("missing id: got %v, want ErrNotFound", err)
	}
}

func TestDeletePlannedWorkout(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	pw := &PlannedWorkout{UserID: "alice", Date: "2026-09-07", Name: "Leg Day"}
	if err := s.InsertPlannedWorkout(ctx, pw); err != nil {
		t.Fatal(err)
	}

	deleted, err := s.DeletePlannedWorkout(ctx, "alice", pw.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !deleted {
		t.Error("first delete reported nothing removed")
	}

	deleted, err = s.DeletePlannedWorkout(ctx, "alice", pw.ID)
	if err != nil {
		t.Fatal(err)
	}
	if deleted {
		t.Error("second delete reported a removal")
	}
}

func TestPlannedWorkoutRecurrenceFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	pw := &PlannedWorkout{
		UserID:            "alice",
		Date:              "2026-09-07",
		Name:              "Morning Run",
		IsRecurring:       true,
		RecurrenceType:    "weekly",
		RecurrenceDays:    []int{0, 2, 4},
		RecurrenceEndDate: "2026-12-31",
	}
	if err := s.InsertPlannedWorkout(ctx, pw); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetPlannedWorkout(ctx, "alice", pw.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsRecurring || got.RecurrenceType != "weekly" {
		t.Errorf("recurrence not preserved: %+v", got)
	}
	if len(got.RecurrenceDays) != 3 || got.RecurrenceDays[1] != 2 {
		t.Errorf("recurrence days = %v, want [0 2 4]", got.RecurrenceDays)
	}
	if got.RecurrenceEndDate != "2026-12-31" {
		t.Errorf("recurrence end = %q, want 2026-12-31", got.RecurrenceEndDate)
	}
}
