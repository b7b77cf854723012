package logging

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

const (
	// FieldProblemID is the structured logging key for problem identifiers.
	FieldProblemID = "problem_id"
	// FieldRequestID correlates every log line emitted for one user action.
	FieldRequestID = "request_id"
	// FieldComponent names the emitting component.
	FieldComponent = "component"
)

type requestIDKey struct{}

// NewRequestID returns a fresh correlation id.
func NewRequestID() string {
	return uuid.NewString()
}

// WithRequestID stores id on ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request id stored on ctx, if any.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok && id != ""
}

// WithContext returns logger augmented with the request id carried by ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if id, ok := RequestIDFromContext(ctx); ok {
		return logger.With(slog.String(FieldRequestID, id))
	}
	return logger
}
