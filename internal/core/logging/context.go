package logging

import "context"

type contextKey string

const (
	sessionIDKey contextKey = "session_id"
	taskIDKey    contextKey = "task_id"
)

// WithSessionID adds a session ID to the context.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// WithTaskID adds a task ID to the context.
func WithTaskID(ctx context.Context, taskID string) context.Context {
	return context.WithValue(ctx, taskIDKey, taskID)
}

// GetSessionID retrieves the session ID from the context.
// Returns empty string if not present.
func GetSessionID(ctx context.Context) string {
	if id, ok := ctx.Value(sessionIDKey).(string); ok {
		return id
	}
	return ""
}

// GetTaskID retrieves the task ID from the context.
// Returns empty string if not present.
func GetTaskID(ctx context.Context) string {
	if id, ok := ctx.Value(taskIDKey).(string); ok {
		return id
	}
	return ""
}
