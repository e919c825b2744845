package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// LoadChatState returns the user's persisted transcript as raw JSON, or
// (nil, nil) when no conversation exists yet. The transcript's message
// shape belongs to the caller; the store treats it as an opaque document.
func (s *Store) LoadChatState(ctx context.Context, userID string) (json.RawMessage, error) {
	var messages string
	err := s.db.QueryRowContext(ctx,
		`SELECT messages FROM chat_states WHERE user_id = ?`, userID).Scan(&messages)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load chat state: %w", err)
	}
	return json.RawMessage(messages), nil
}

// SaveChatState replaces the user's transcript wholesale.
func (s *Store) SaveChatState(ctx context.Context, userID string, transcript json.RawMessage) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_states (user_id, messages, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			messages = excluded.messages,
			updated_at = excluded.updated_at`,
		userID, string(transcript), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save chat state: %w", err)
	}
	return nil
}
