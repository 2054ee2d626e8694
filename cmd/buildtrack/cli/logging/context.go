package logging

import (
	"context"
)

// Context keys for logging values.
// Using a private type to avoid key collisions.
type contextKey int

const (
	sessionIDKey contextKey = iota
	componentKey
	toolKey
	repoKey
)

// WithSession adds a session ID to the context.
func WithSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// WithComponent adds a component name to the context. Component names
// identify the subsystem generating logs (e.g., "hooks", "store", "resolve").
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, componentKey, component)
}

// WithTool adds the tool name from the hook event to the context.
func WithTool(ctx context.Context, tool string) context.Context {
	return context.WithValue(ctx, toolKey, tool)
}

// WithRepo adds a repo identifier to the context.
func WithRepo(ctx context.Context, repo string) context.Context {
	return context.WithValue(ctx, repoKey, repo)
}

// SessionIDFromContext extracts the session ID from the context.
// Returns empty string if not set.
func SessionIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, sessionIDKey)
}

// ComponentFromContext extracts the component name from the context.
// Returns empty string if not set.
func ComponentFromContext(ctx context.Context) string {
	return stringFromContext(ctx, componentKey)
}

// ToolFromContext extracts the tool name from the context.
// Returns empty string if not set.
func ToolFromContext(ctx context.Context) string {
	return stringFromContext(ctx, toolKey)
}

// RepoFromContext extracts the repo identifier from the context.
// Returns empty string if not set.
func RepoFromContext(ctx context.Context) string {
	return stringFromContext(ctx, repoKey)
}

func stringFromContext(ctx context.Context, key contextKey) string {
	if v := ctx.Value(key); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
