// Package actorctx propagates the acting identity of a request so the
// stock change log can attribute quantity transitions.
package actorctx

import "context"

type contextKey string

const (
	requestIDKey contextKey = "actor_request_id"
	actorKey     contextKey = "actor"
)

// SystemActor attributes changes made by background jobs.
const SystemActor = "system"

func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	value, _ := ctx.Value(requestIDKey).(string)
	return value
}

func WithActor(ctx context.Context, actor string) context.Context {
	if actor == "" {
		return ctx
	}
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext returns the acting identity, falling back to the
// system actor for unattributed contexts.
func ActorFromContext(ctx context.Context) string {
	value, _ := ctx.Value(actorKey).(string)
	if value == "" {
		return SystemActor
	}
	return value
}
