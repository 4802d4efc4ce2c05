package http

import (
	"context"
)

type contextKey string

const (
	intentionIDContextKey contextKey = "intention_id"
	massIDContextKey      contextKey = "mass_id"
	celebrantIDContextKey contextKey = "celebrant_id"
)

// ContextWithIntentionID injects the intention identifier resolved from the request path.
func ContextWithIntentionID(ctx context.Context, intentionID string) context.Context {
	return context.WithValue(ctx, intentionIDContextKey, intentionID)
}

// IntentionIDFromContext extracts an intention identifier previously associated with the context.
func IntentionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(intentionIDContextKey).(string)
	return id, ok
}

// ContextWithMassID injects the mass identifier resolved from the request path.
func ContextWithMassID(ctx context.Context, massID string) context.Context {
	return context.WithValue(ctx, massIDContextKey, massID)
}

// MassIDFromContext extracts a mass identifier previously associated with the context.
func MassIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(massIDContextKey).(string)
	return id, ok
}

// ContextWithCelebrantID injects the celebrant identifier resolved from the request path.
func ContextWithCelebrantID(ctx context.Context, celebrantID string) context.Context {
	return context.WithValue(ctx, celebrantIDContextKey, celebrantID)
}

// CelebrantIDFromContext extracts a celebrant identifier previously associated with the context.
func CelebrantIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(celebrantIDContextKey).(string)
	return id, ok
}
