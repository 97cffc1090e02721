package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
)

// RefreshDataInput drops the cached dashboard data.
type RefreshDataInput struct {
	// Warm reloads the table and catalog right after the caches are cleared.
	Warm bool
}

type refreshService interface {
	Refresh(ctx context.Context)
	Warm(ctx context.Context) error
}

// RefreshDataCommand clears the spreadsheet, catalog and panel caches.
type RefreshDataCommand struct {
	service   refreshService
	telemetry Telemetry
}

// NewRefreshDataCommand creates the command.
func NewRefreshDataCommand(service refreshService, telemetry Telemetry) *RefreshDataCommand {
	return &RefreshDataCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[RefreshDataInput] = (*RefreshDataCommand)(nil)

// Execute invalidates the caches and optionally warms them again.
func (c *RefreshDataCommand) Execute(ctx context.Context, msg RefreshDataInput) error {
	if c.service == nil {
		return errors.New("refresh command requires service")
	}
	c.service.Refresh(ctx)
	if msg.Warm {
		if err := c.service.Warm(ctx); err != nil {
			return err
		}
	}
	c.telemetry.Record(ctx, "mozdados.command.refresh", map[string]any{"warm": msg.Warm})
	return nil
}
