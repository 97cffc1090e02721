package commands

import (
	"context"

	dashboard "github.com/mozdados/mozdados/components/dashboard"
)

// Telemetry is the event sink shared with the dashboard service.
type Telemetry = dashboard.Telemetry

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return noopTelemetry{}
	}
	return t
}
