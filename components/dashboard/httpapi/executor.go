package httpapi

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	"github.com/mozdados/mozdados/components/dashboard"
	"github.com/mozdados/mozdados/components/dashboard/commands"
	"github.com/mozdados/mozdados/components/dashboard/queries"
)

// Executor is the surface transports call into.
type Executor interface {
	LocalLayout(ctx context.Context, input queries.LocalLayoutInput) (dashboard.Layout, error)
	WorldBankLayout(ctx context.Context, input queries.WorldBankLayoutInput) (dashboard.Layout, error)
	SearchCatalog(ctx context.Context, input queries.CatalogSearchInput) ([]dashboard.CatalogEntry, error)
	SendChat(ctx context.Context, input commands.SendChatInput) error
	ResetChat(ctx context.Context, input commands.ResetChatInput) error
	Refresh(ctx context.Context, input commands.RefreshDataInput) error
	ExportLocal(ctx context.Context, req dashboard.LocalRequest, tab string, format dashboard.ExportFormat) (dashboard.Download, error)
	ExportPanel(ctx context.Context, req dashboard.PanelRequest, format dashboard.ExportFormat) (dashboard.Download, error)
}

type exporter interface {
	ExportLocal(ctx context.Context, req dashboard.LocalRequest, tab string, format dashboard.ExportFormat) (dashboard.Download, error)
	ExportPanel(ctx context.Context, req dashboard.PanelRequest, format dashboard.ExportFormat) (dashboard.Download, error)
}

// CommandExecutor dispatches to go-command commanders and queriers.
type CommandExecutor struct {
	LocalLayoutQuery     gocommand.Querier[queries.LocalLayoutInput, dashboard.Layout]
	WorldBankLayoutQuery gocommand.Querier[queries.WorldBankLayoutInput, dashboard.Layout]
	CatalogQuery         gocommand.Querier[queries.CatalogSearchInput, []dashboard.CatalogEntry]
	ChatCommand          gocommand.Commander[commands.SendChatInput]
	ResetCommand         gocommand.Commander[commands.ResetChatInput]
	RefreshCommand       gocommand.Commander[commands.RefreshDataInput]
	Exports              exporter
}

// NewExecutor builds the default commands and queries around service.
func NewExecutor(service *dashboard.Service, telemetry commands.Telemetry) *CommandExecutor {
	return &CommandExecutor{
		LocalLayoutQuery:     queries.NewLocalLayoutQuery(service),
		WorldBankLayoutQuery: queries.NewWorldBankLayoutQuery(service),
		CatalogQuery:         queries.NewCatalogSearchQuery(service),
		ChatCommand:          commands.NewSendChatCommand(service, telemetry),
		ResetCommand:         commands.NewResetChatCommand(service, telemetry),
		RefreshCommand:       commands.NewRefreshDataCommand(service, telemetry),
		Exports:              service,
	}
}

var _ Executor = (*CommandExecutor)(nil)

var errNotConfigured = errors.New("httpapi: operation not configured")

func (e *CommandExecutor) LocalLayout(ctx context.Context, input queries.LocalLayoutInput) (dashboard.Layout, error) {
	if e.LocalLayoutQuery == nil {
		return dashboard.Layout{}, errNotConfigured
	}
	return e.LocalLayoutQuery.Query(ctx, input)
}

func (e *CommandExecutor) WorldBankLayout(ctx context.Context, input queries.WorldBankLayoutInput) (dashboard.Layout, error) {
	if e.WorldBankLayoutQuery == nil {
		return dashboard.Layout{}, errNotConfigured
	}
	return e.WorldBankLayoutQuery.Query(ctx, input)
}

func (e *CommandExecutor) SearchCatalog(ctx context.Context, input queries.CatalogSearchInput) ([]dashboard.CatalogEntry, error) {
	if e.CatalogQuery == nil {
		return nil, errNotConfigured
	}
	return e.CatalogQuery.Query(ctx, input)
}

func (e *CommandExecutor) SendChat(ctx context.Context, input commands.SendChatInput) error {
	if e.ChatCommand == nil {
		return errNotConfigured
	}
	return e.ChatCommand.Execute(ctx, input)
}

func (e *CommandExecutor) ResetChat(ctx context.Context, input commands.ResetChatInput) error {
	if e.ResetCommand == nil {
		return errNotConfigured
	}
	return e.ResetCommand.Execute(ctx, input)
}

func (e *CommandExecutor) Refresh(ctx context.Context, input commands.RefreshDataInput) error {
	if e.RefreshCommand == nil {
		return errNotConfigured
	}
	return e.RefreshCommand.Execute(ctx, input)
}

func (e *CommandExecutor) ExportLocal(ctx context.Context, req dashboard.LocalRequest, tab string, format dashboard.ExportFormat) (dashboard.Download, error) {
	if e.Exports == nil {
		return dashboard.Download{}, errNotConfigured
	}
	return e.Exports.ExportLocal(ctx, req, tab, format)
}

func (e *CommandExecutor) ExportPanel(ctx context.Context, req dashboard.PanelRequest, format dashboard.ExportFormat) (dashboard.Download, error) {
	if e.Exports == nil {
		return dashboard.Download{}, errNotConfigured
	}
	return e.Exports.ExportPanel(ctx, req, format)
}
