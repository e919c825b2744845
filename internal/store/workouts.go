package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ListCompletedWorkouts returns the user's finished sessions started within
// the last daysBack days, newest first. Sessions without an end timestamp
// are still in progress and excluded.
func (s *Store) ListCompletedWorkouts(ctx context.Context, userID string, daysBack, limit int) ([]*WorkoutSession, error) {
	if daysBack < 1 {
		daysBack = 1
	}
	if daysBack > 730 {
		daysBack = 730
	}
	if limit < 1 {
		limit = 1
	}
	if limit > 300 {
		limit = 300
	}

	since := time.Now().UTC().AddDate(0, 0, -daysBack)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, template_id, started_at, ended_at, notes, exercises
		FROM workouts
		WHERE user_id = ? AND ended_at IS NOT NULL AND started_at >= ?
		ORDER BY started_at DESC
		LIMIT ?`, userID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("list completed workouts: %w", err)
	}
	defer rows.Close()

	var out []*WorkoutSession
	for rows.Next() {
		var w WorkoutSession
		var templateID, notes sql.NullString
		var endedAt sql.NullTime
		var exercises string
		err := rows.Scan(&w.ID, &w.UserID, &w.Name, &templateID, &w.StartedAt,
			&endedAt, &notes, &exercises)
		if err != nil {
			return nil, fmt.Errorf("scan workout: %w", err)
		}
		w.TemplateID = templateID.String
		w.Notes = notes.String
		if endedAt.Valid {
			t := endedAt.Time
			w.EndedAt = &t
		}
		if err := unmarshalJSON(exercises, &w.Exercises); err != nil {
			return nil, err
		}
		out = append(out, &w)
	}
	return out, rows.Err()
}

// InsertWorkout stores a logged session and fills in its generated id.
// The AI feature only reads history; this is the write path used by the
// rest of the app and by tests.
func (s *Store) InsertWorkout(ctx context.Context, w *WorkoutSession) error {
	if w.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generate workout id: %w", err)
		}
		w.ID = id.String()
	}
	if w.StartedAt.IsZero() {
		w.StartedAt = time.Now().UTC()
	}

	exercises, err := marshalJSON(w.Exercises)
	if err != nil {
		return err
	}

	var endedAt any
	if w.EndedAt != nil {
		endedAt = *w.EndedAt
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO workouts (id, user_id, name, template_id, started_at, ended_at, notes, exercises)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.UserID, w.Name, nullable(w.TemplateID), w.StartedAt, endedAt,
		nullable(w.Notes), exercises)
	if err != nil {
		return fmt.Errorf("insert workout: %w", err)
	}
	return nil
}
