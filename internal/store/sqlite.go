package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is a SQLite-backed document store. Nested structures (template and
// session exercise lists, recurrence day lists, chat transcripts) live in
// JSON columns; everything the queries filter on gets its own column.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS profiles (
		user_id TEXT PRIMARY KEY,
		sex TEXT,
		date_of_birth TEXT,
		height_cm REAL,
		weight_kg REAL,
		training_age TEXT,
		goals TEXT,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS profile_insights (
		user_id TEXT PRIMARY KEY,
		injury_tags TEXT NOT NULL DEFAULT '[]',
		current_issues TEXT NOT NULL DEFAULT '[]',
		strength_tags TEXT NOT NULL DEFAULT '[]',
		weak_point_tags TEXT NOT NULL DEFAULT '[]',
		psych_profile TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMP NOT NULL
	);

	-- Exercises: empty user_id means global (visible to everyone).
	CREATE TABLE IF NOT EXISTS exercises (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL,
		exercise_kind TEXT NOT NULL,
		primary_body_parts TEXT NOT NULL DEFAULT '[]',
		secondary_body_parts TEXT NOT NULL DEFAULT '[]',
		category TEXT,
		instructions TEXT,
		image TEXT,
		is_custom BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_exercises_name ON exercises(name COLLATE NOCASE);
	CREATE INDEX IF NOT EXISTS idx_exercises_user ON exercises(user_id);

	CREATE TABLE IF NOT EXISTS templates (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		notes TEXT,
		exercises TEXT NOT NULL DEFAULT '[]',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_templates_user ON templates(user_id);

	CREATE TABLE IF NOT EXISTS planned_workouts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		date TEXT NOT NULL,
		name TEXT NOT NULL,
		template_id TEXT,
		type TEXT,
		notes TEXT,
		status TEXT NOT NULL DEFAULT 'planned',
		sort_order INTEGER NOT NULL DEFAULT 0,
		is_recurring BOOLEAN NOT NULL DEFAULT FALSE,
		recurrence_type TEXT,
		recurrence_days TEXT,
		recurrence_end_date TEXT,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_planned_user_date ON planned_workouts(user_id, date);

	CREATE TABLE IF NOT EXISTS workouts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		template_id TEXT,
		started_at TIMESTAMP NOT NULL,
		ended_at TIMESTAMP,
		notes TEXT,
		exercises TEXT NOT NULL DEFAULT '[]'
	);
	CREATE INDEX IF NOT EXISTS idx_workouts_user_started ON workouts(user_id, started_at);

	-- One transcript per user, replaced wholesale on every save.
	CREATE TABLE IF NOT EXISTS chat_states (
		user_id TEXT PRIMARY KEY,
		messages TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// marshalJSON encodes v for a JSON column, normalizing nil slices to "[]"
// so round-trips never produce SQL NULLs.
func marshalJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode json column: %w", err)
	}
	if string(b) == "null" {
		return "[]", nil
	}
	return string(b), nil
}

func unmarshalJSON(data string, v any) error {
	if data == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return fmt.Errorf("decode json column: %w", err)
	}
	return nil
}
