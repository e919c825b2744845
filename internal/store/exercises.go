package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by lookups that match no visible record.
var ErrNotFound = errors.New("not found")

const exerciseColumns = `id, user_id, name, exercise_kind, primary_body_parts,
	secondary_body_parts, category, instructions, image, is_custom, created_at`

// visibleExercises restricts a query to exercises the user may see:
// global ones plus their own. The filter is applied on every read so a
// user can never reach another user's custom movements.
const visibleExercises = `(user_id = '' OR user_id = ?)`

func scanExercise(row interface{ Scan(...any) error }) (*Exercise, error) {
	var ex Exercise
	var primary, secondary string
	var category, instructions, image sql.NullString
	err := row.Scan(&ex.ID, &ex.UserID, &ex.Name, &ex.Kind, &primary,
		&secondary, &category, &instructions, &image, &ex.IsCustom, &ex.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := unmarshalJSON(primary, &ex.PrimaryBodyParts); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(secondary, &ex.SecondaryBodyParts); err != nil {
		return nil, err
	}
	ex.Category = category.String
	ex.Instructions = instructions.String
	ex.Image = image.String
	return &ex, nil
}

// ListExercises returns exercises visible to the user, optionally narrowed
// by a case-insensitive substring match against the name and body-part
// lists. limit caps the result size.
func (s *Store) ListExercises(ctx context.Context, userID, query string, limit int) ([]*Exercise, error) {
	if limit <= 0 {
		limit = 800
	}
	if limit > 1500 {
		limit = 1500
	}

	q := `SELECT ` + exerciseColumns + ` FROM exercises WHERE ` + visibleExercises
	args := []any{userID}

	query = strings.TrimSpace(query)
	if query != "" {
		q += ` AND (instr(lower(name), ?) > 0
			OR instr(lower(primary_body_parts), ?) > 0
			OR instr(lower(secondary_body_parts), ?) > 0)`
		needle := strings.ToLower(query)
		args = append(args, needle, needle, needle)
	}

	q += ` ORDER BY name LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}
	defer rows.Close()

	var out []*Exercise
	for rows.Next() {
		ex, err := scanExercise(rows)
		if err != nil {
			return nil, fmt.Errorf("scan exercise: %w", err)
		}
		out = append(out, ex)
	}
	return out, rows.Err()
}

// FindExerciseByName looks up a visible exercise by exact name, ignoring
// case. Returns ErrNotFound when no match exists.
func (s *Store) FindExerciseByName(ctx context.Context, userID, name string) (*Exercise, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+exerciseColumns+` FROM exercises
		WHERE name = ? COLLATE NOCASE AND `+visibleExercises+`
		LIMIT 1`, name, userID)

	ex, err := scanExercise(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find exercise by name: %w", err)
	}
	return ex, nil
}

// GetExercise fetches a visible exercise by id.
func (s *Store) GetExercise(ctx context.Context, userID, id string) (*Exercise, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+exerciseColumns+` FROM exercises
		WHERE id = ? AND `+visibleExercises, id, userID)

	ex, err := scanExercise(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get exercise: %w", err)
	}
	return ex, nil
}

// ExerciseKinds resolves exercise_kind for a batch of ids in one query.
// Unknown or invisible ids are simply absent from the result map.
func (s *Store) ExerciseKinds(ctx context.Context, userID string, ids []string) (map[string]string, error) {
	kinds := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return kinds, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, 0, len(ids)+1)
	for _, id := range ids {
		args = append(args, id)
	}
	args = append(args, userID)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, exercise_kind FROM exercises
		WHERE id IN (`+placeholders+`) AND `+visibleExercises, args...)
	if err != nil {
		return nil, fmt.Errorf("exercise kinds: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, kind string
		if err := rows.Scan(&id, &kind); err != nil {
			return nil, fmt.Errorf("scan exercise kind: %w", err)
		}
		kinds[id] = kind
	}
	return kinds, rows.Err()
}

// InsertExercise stores a new exercise and fills in its generated id.
func (s *Store) InsertExercise(ctx context.Context, ex *Exercise) error {
	if ex.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generate exercise id: %w", err)
		}
		ex.ID = id.String()
	}
	if ex.CreatedAt.IsZero() {
		ex.CreatedAt = time.Now().UTC()
	}

	primary, err := marshalJSON(ex.PrimaryBodyParts)
	if err != nil {
		return err
	}
	secondary, err := marshalJSON(ex.SecondaryBodyParts)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO exercises (id, user_id, name, exercise_kind, primary_body_parts,
			secondary_body_parts, category, instructions, image, is_custom, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ex.ID, ex.UserID, ex.Name, ex.Kind, primary, secondary,
		ex.Category, ex.Instructions, ex.Image, ex.IsCustom, ex.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert exercise: %w", err)
	}
	return nil
}

// CountGlobalExercises reports how many shared (non-custom) exercises exist.
// The seeder uses it to stay idempotent.
func (s *Store) CountGlobalExercises(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM exercises WHERE user_id = ''`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count global exercises: %w", err)
	}
	return n, nil
}
