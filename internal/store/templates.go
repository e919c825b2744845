package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

func scanTemplate(row interface{ Scan(...any) error }) (*Template, error) {
	var t Template
	var notes sql.NullString
	var exercises string
	err := row.Scan(&t.ID, &t.UserID, &t.Name, &notes, &exercises, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Notes = notes.String
	if err := unmarshalJSON(exercises, &t.Exercises); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTemplates returns all templates owned by the user.
func (s *Store) ListTemplates(ctx context.Context, userID string) ([]*Template, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, notes, exercises, created_at, updated_at
		FROM templates WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var out []*Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetTemplate fetches one of the user's templates by id.
func (s *Store) GetTemplate(ctx context.Context, userID, id string) (*Template, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, notes, exercises, created_at, updated_at
		FROM templates WHERE id = ? AND user_id = ?`, id, userID)

	t, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	return t, nil
}

// InsertTemplate stores a new template and fills in its generated id.
func (s *Store) InsertTemplate(ctx context.Context, t *Template) error {
	if t.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generate template id: %w", err)
		}
		t.ID = id.String()
	}
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now

	exercises, err := marshalJSON(t.Exercises)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO templates (id, user_id, name, notes, exercises, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Name, t.Notes, exercises, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert template: %w", err)
	}
	return nil
}

// UpdateTemplate replaces the stored name/notes/exercise list in place.
// nil arguments leave the corresponding column untouched. Returns
// ErrNotFound when the user owns no template with that id.
func (s *Store) UpdateTemplate(ctx context.Context, userID, id string, name, notes *string, exercises []TemplateExercise) error {
	set := "updated_at = ?"
	args := []any{time.Now().UTC()}

	if name != nil {
		set += ", name = ?"
		args = append(args, *name)
	}
	if notes != nil {
		set += ", notes = ?"
		args = append(args, *notes)
	}
	if exercises != nil {
		encoded, err := marshalJSON(exercises)
		if err != nil {
			return err
		}
		set += ", exercises = ?"
		args = append(args, encoded)
	}

	args = append(args, id, userID)
	res, err := s.db.ExecContext(ctx,
		`UPDATE templates SET `+set+` WHERE id = ? AND user_id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update template: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update template: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
