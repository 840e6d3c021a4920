package logging

import (
	"context"
	"log/slog"
)

// Structured keys shared by every component.
const (
	FieldComponent     = "component"
	FieldProjectID     = "project_id"
	FieldBuildName     = "build_name"
	FieldBuildNumber   = "build_number"
	FieldDestination   = "destination"
	FieldElapsedMS     = "elapsed_ms"
	FieldCorrelationID = "correlation_id"
	FieldEventType     = "event_type"
	FieldErrorHint     = "error_hint"
)

type correlationKey struct{}

// WithCorrelationID stores the delivery id of the notification being handled.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationID returns the id stored by WithCorrelationID.
func CorrelationID(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(correlationKey{}).(string)
	return id, ok && id != ""
}

// WithContext adds the context's correlation id, if any, to logger.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if id, ok := CorrelationID(ctx); ok {
		return logger.With(slog.String(FieldCorrelationID, id))
	}
	return logger
}
