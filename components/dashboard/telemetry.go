package dashboard

import (
	"context"
	"log/slog"
)

// Telemetry records dashboard events for observability.
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return noopTelemetry{}
	}
	return t
}

// SlogTelemetry writes events to a structured logger. Error events are
// logged at warn level.
type SlogTelemetry struct {
	Logger *slog.Logger
}

// Record logs the event with its payload as attributes.
func (t SlogTelemetry) Record(ctx context.Context, event string, payload map[string]any) {
	logger := t.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attrs := make([]slog.Attr, 0, len(payload))
	for key, value := range payload {
		attrs = append(attrs, slog.Any(key, value))
	}
	level := slog.LevelInfo
	if _, failed := payload["error"]; failed {
		level = slog.LevelWarn
	}
	logger.LogAttrs(ctx, level, event, attrs...)
}
