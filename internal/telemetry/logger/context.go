package logger

import "context"

type contextKey string

const (
	loggerKey    contextKey = "ccm.logger"
	attemptIDKey contextKey = "ccm.attempt_id"
	clusterKey   contextKey = "ccm.cluster"
)

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext extracts the logger from context.
// Returns the default logger if none is set.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerKey).(Logger); ok {
		return l
	}
	return Default()
}

// WithAttemptID tags the context with the ID of a start or stop attempt.
func WithAttemptID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, attemptIDKey, id)
}

// AttemptIDFromContext returns the attempt ID, or "".
func AttemptIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(attemptIDKey).(string); ok {
		return id
	}
	return ""
}

// WithCluster tags the context with the cluster being operated on.
func WithCluster(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, clusterKey, name)
}

// ClusterFromContext returns the cluster name, or "".
func ClusterFromContext(ctx context.Context) string {
	if name, ok := ctx.Value(clusterKey).(string); ok {
		return name
	}
	return ""
}

// L is FromContext enriched with the cluster name and attempt ID carried
// by ctx.
func L(ctx context.Context) Logger {
	l := FromContext(ctx)
	if name := ClusterFromContext(ctx); name != "" {
		l = l.With("cluster", name)
	}
	if id := AttemptIDFromContext(ctx); id != "" {
		l = l.With("attempt_id", id)
	}
	return l.WithContext(ctx)
}
