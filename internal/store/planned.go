package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const plannedColumns = `id, user_id, date, name, template_id, type, notes,
	status, sort_order, is_recurring, recurrence_type, recurrence_days,
	recurrence_end_date, created_at`

func scanPlanned(row interface{ Scan(...any) error }) (*PlannedWorkout, error) {
	var pw PlannedWorkout
	var templateID, typ, notes, recurType, recurDays, recurEnd sql.NullString
	err := row.Scan(&pw.ID, &pw.UserID, &pw.Date, &pw.Name, &templateID, &typ,
		&notes, &pw.Status, &pw.Order, &pw.IsRecurring, &recurType, &recurDays,
		&recurEnd, &pw.CreatedAt)
	if err != nil {
		return nil, err
	}
	pw.TemplateID = templateID.String
	pw.Type = typ.String
	pw.Notes = notes.String
	pw.RecurrenceType = recurType.String
	pw.RecurrenceEndDate = recurEnd.String
	if recurDays.Valid {
		if err := unmarshalJSON(recurDays.String, &pw.RecurrenceDays); err != nil {
			return nil, err
		}
	}
	return &pw, nil
}

// ListPlannedWorkouts returns every calendar entry the user owns, recurring
// parents included. Recurrence expansion happens in ExpandSchedule.
func (s *Store) ListPlannedWorkouts(ctx context.Context, userID string) ([]*PlannedWorkout, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+plannedColumns+` FROM planned_workouts
		WHERE user_id = ? ORDER BY date, sort_order`, userID)
	if err != nil {
		return nil, fmt.Errorf("list planned workouts: %w", err)
	}
	defer rows.Close()

	var out []*PlannedWorkout
	for rows.Next() {
		pw, err := scanPlanned(rows)
		if err != nil {
			return nil, fmt.Errorf("scan planned workout: %w", err)
		}
		out = append(out, pw)
	}
	return out, rows.Err()
}

// GetPlannedWorkout fetches one of the user's calendar entries by id.
func (s *Store) GetPlannedWorkout(ctx context.Context, userID, id string) (*PlannedWorkout, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+plannedColumns+` FROM planned_workouts
		WHERE id = ? AND user_id = ?`, id, userID)

	pw, err := scanPlanned(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get planned workout: %w", err)
	}
	return pw, nil
}

// FindPlannedWorkoutByDateName looks up the user's entry for an exact
// (date, name) pair. Creation is idempotent on this pair.
func (s *Store) FindPlannedWorkoutByDateName(ctx context.Context, userID, date, name string) (*PlannedWorkout, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+plannedColumns+` FROM planned_workouts
		WHERE user_id = ? AND date = ? AND name = ? LIMIT 1`, userID, date, name)

	pw, err := scanPlanned(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find planned workout: %w", err)
	}
	return pw, nil
}

// InsertPlannedWorkout stores a new calendar entry and fills in its
// generated id.
func (s *Store) InsertPlannedWorkout(ctx context.Context, pw *PlannedWorkout) error {
	if pw.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generate planned workout id: %w", err)
		}
		pw.ID = id.String()
	}
	if pw.Status == "" {
		pw.Status = StatusPlanned
	}
	if pw.CreatedAt.IsZero() {
		pw.CreatedAt = time.Now().UTC()
	}

	var recurDays any
	if pw.RecurrenceDays != nil {
		encoded, err := marshalJSON(pw.RecurrenceDays)
		if err != nil {
			return err
		}
		recurDays = encoded
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO planned_workouts (id, user_id, date, name, template_id, type,
			notes, status, sort_order, is_recurring, recurrence_type,
			recurrence_days, recurrence_end_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		pw.ID, pw.UserID, pw.Date, pw.Name, nullable(pw.TemplateID), nullable(pw.Type),
		nullable(pw.Notes), pw.Status, pw.Order, pw.IsRecurring,
		nullable(pw.RecurrenceType), recurDays, nullable(pw.RecurrenceEndDate),
		pw.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert planned workout: %w", err)
	}
	return nil
}

// UpdatePlannedWorkout applies a partial update to one of the user's
// entries. Returns ErrNotFound when the id does not belong to the user.
func (s *Store) UpdatePlannedWorkout(ctx context.Context, userID, id string, upd PlannedWorkoutUpdate) error {
	set := ""
	var args []any

	add := func(col string, v any) {
		if set != "" {
			set += ", "
		}
		set += col + " = ?"
		args = append(args, v)
	}

	if upd.Date != nil {
		add("date", *upd.Date)
	}
	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.TemplateID != nil {
		add("template_id", *upd.TemplateID)
	}
	if upd.Type != nil {
		add("type", *upd.Type)
	}
	if upd.Notes != nil {
		add("notes", *upd.Notes)
	}
	if upd.Status != nil {
		add("status", *upd.Status)
	}
	if upd.Order != nil {
		add("sort_order", *upd.Order)
	}
	if set == "" {
		return errors.New("no fields to update")
	}

	args = append(args, id, userID)
	res, err := s.db.ExecContext(ctx,
		`UPDATE planned_workouts SET `+set+` WHERE id = ? AND user_id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update planned workout: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update planned workout: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePlannedWorkout removes a calendar entry. The bool reports whether a
// row was actually deleted; deleting an absent id is not an error.
func (s *Store) DeletePlannedWorkout(ctx context.Context, userID, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM planned_workouts WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete planned workout: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete planned workout: %w", err)
	}
	return n > 0, nil
}

// nullable maps an empty string to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
