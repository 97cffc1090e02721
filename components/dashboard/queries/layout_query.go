package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/mozdados/mozdados/components/dashboard"
)

// LocalLayoutInput identifies a local dashboard request for a viewer.
type LocalLayoutInput struct {
	Viewer  dashboard.ViewerContext
	Request dashboard.LocalRequest
}

// WorldBankLayoutInput identifies a World Bank dashboard request for a viewer.
type WorldBankLayoutInput struct {
	Viewer    dashboard.ViewerContext
	Request   dashboard.PanelRequest
	SessionID string
}

type layoutService interface {
	LocalLayout(ctx context.Context, viewer dashboard.ViewerContext, req dashboard.LocalRequest) (dashboard.Layout, error)
	WorldBankLayout(ctx context.Context, viewer dashboard.ViewerContext, req dashboard.PanelRequest, sessionID string) (dashboard.Layout, error)
}

// LocalLayoutQuery resolves the spreadsheet dashboard.
type LocalLayoutQuery struct {
	service layoutService
}

// NewLocalLayoutQuery builds the query.
func NewLocalLayoutQuery(service layoutService) *LocalLayoutQuery {
	return &LocalLayoutQuery{service: service}
}

var _ gocommand.Querier[LocalLayoutInput, dashboard.Layout] = (*LocalLayoutQuery)(nil)

// Query resolves the local layout for the viewer.
func (q *LocalLayoutQuery) Query(ctx context.Context, input LocalLayoutInput) (dashboard.Layout, error) {
	return q.service.LocalLayout(ctx, input.Viewer, input.Request)
}

// WorldBankLayoutQuery resolves the World Bank dashboard.
type WorldBankLayoutQuery struct {
	service layoutService
}

// NewWorldBankLayoutQuery builds the query.
func NewWorldBankLayoutQuery(service layoutService) *WorldBankLayoutQuery {
	return &WorldBankLayoutQuery{service: service}
}

var _ gocommand.Querier[WorldBankLayoutInput, dashboard.Layout] = (*WorldBankLayoutQuery)(nil)

// Query resolves the World Bank layout for the viewer.
func (q *WorldBankLayoutQuery) Query(ctx context.Context, input WorldBankLayoutInput) (dashboard.Layout, error) {
	return q.service.WorldBankLayout(ctx, input.Viewer, input.Request, input.SessionID)
}
