package tools

import (
	"context"
	"errors"
)

type contextKey string

const userIDKey contextKey = "user_id"

// ErrNoUser is returned when a handler runs without an authenticated user
// in its context. Ownership filters depend on it, so no tool proceeds
// without one.
var ErrNoUser = errors.New("no authenticated user in context")

// WithUserID attaches the authenticated user's id to the context. Every
// tool execution is attributed to this id regardless of any id supplied
// in tool arguments.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserIDFromContext extracts the authenticated user id, or ErrNoUser.
func UserIDFromContext(ctx context.Context) (string, error) {
	if id, ok := ctx.Value(userIDKey).(string); ok && id != "" {
		return id, nil
	}
	return "", ErrNoUser
}
