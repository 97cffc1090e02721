package gorouter

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	router "github.com/goliatone/go-router"

	"github.com/mozdados/mozdados/components/dashboard"
	"github.com/mozdados/mozdados/components/dashboard/commands"
	"github.com/mozdados/mozdados/components/dashboard/httpapi"
	"github.com/mozdados/mozdados/components/dashboard/queries"
)

const (
	contentTypeHTML = "text/html; charset=utf-8"
	formChatSession = "session_id"
	formChatMessage = "message"
	formChatKey     = "api_key"
)

// ViewerResolver converts a router.Context into a dashboard.ViewerContext.
type ViewerResolver func(router.Context) dashboard.ViewerContext

// Config wires go-router with the dashboard controller and API.
type Config[T any] struct {
	Router         router.Router[T]
	Controller     *dashboard.Controller
	API            httpapi.Executor
	Tabs           []dashboard.TabDefinition
	ViewerResolver ViewerResolver
	BasePath       string
	Routes         RouteConfig
}

// RouteConfig customizes the relative paths used for dashboard endpoints.
type RouteConfig struct {
	Local           string
	LocalLayout     string
	LocalExport     string
	WorldBank       string
	WorldBankLayout string
	WorldBankExport string
	Chat            string
	ChatReset       string
	Refresh         string
	Catalog         string
}

// Register mounts the dashboard routes (HTML pages, JSON, exports and chat) on a go-router router.
func Register[T any](cfg Config[T]) error {
	if cfg.Router == nil {
		return errors.New("gorouter: router is required")
	}
	if cfg.Controller == nil {
		return errors.New("gorouter: controller is required")
	}
	routes := cfg.routes()
	base := cfg.BasePath
	if base == "" {
		base = cfg.Controller.BasePath()
	}
	viewerResolver := cfg.ViewerResolver
	if viewerResolver == nil {
		viewerResolver = defaultViewerResolver
	}
	tabs := cfg.Tabs
	if len(tabs) == 0 {
		tabs = dashboard.DefaultTabs()
	}

	group := cfg.Router.Group(base)

	group.Get(routes.Local, router.WrapHandler(func(ctx router.Context) error {
		req, err := dashboard.ParseLocalQuery(queryValues(ctx, tabs), tabs)
		if err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		var buf bytes.Buffer
		if err := cfg.Controller.RenderLocal(ctx.Context(), viewerResolver(ctx), req, &buf); err != nil {
			return respondError(ctx, http.StatusInternalServerError, err)
		}
		ctx.SetHeader("Content-Type", contentTypeHTML)
		return ctx.Send(buf.Bytes())
	}))

	group.Get(routes.WorldBank, router.WrapHandler(func(ctx router.Context) error {
		values := queryValues(ctx, tabs)
		req, err := dashboard.ParsePanelQuery(values)
		if err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		return renderWorldBank(ctx, cfg.Controller, viewerResolver(ctx), req, values.Get(dashboard.ParamSession))
	}))

	if cfg.API != nil {
		registerAPI(group, cfg.API, cfg.Controller, viewerResolver, tabs, routes)
	}

	return nil
}

func registerAPI[T any](r router.Router[T], api httpapi.Executor, controller *dashboard.Controller, resolver ViewerResolver, tabs []dashboard.TabDefinition, routes RouteConfig) {
	r.Get(routes.LocalLayout, router.WrapHandler(func(ctx router.Context) error {
		req, err := dashboard.ParseLocalQuery(queryValues(ctx, tabs), tabs)
		if err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		layout, err := api.LocalLayout(ctx.Context(), queries.LocalLayoutInput{Viewer: resolver(ctx), Request: req})
		if err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusOK, layout)
	}))

	r.Get(routes.WorldBankLayout, router.WrapHandler(func(ctx router.Context) error {
		values := queryValues(ctx, tabs)
		req, err := dashboard.ParsePanelQuery(values)
		if err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		layout, err := api.WorldBankLayout(ctx.Context(), queries.WorldBankLayoutInput{
			Viewer:    resolver(ctx),
			Request:   req,
			SessionID: values.Get(dashboard.ParamSession),
		})
		if err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusOK, layout)
	}))

	r.Get(routes.LocalExport, router.WrapHandler(func(ctx router.Context) error {
		values := queryValues(ctx, tabs)
		req, err := dashboard.ParseLocalQuery(values, tabs)
		if err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		format, err := dashboard.ParseExportFormat(values.Get(dashboard.ParamFormat))
		if err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		download, err := api.ExportLocal(ctx.Context(), req, values.Get(dashboard.ParamTab), format)
		if err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return sendDownload(ctx, download)
	}))

	r.Get(routes.WorldBankExport, router.WrapHandler(func(ctx router.Context) error {
		values := queryValues(ctx, tabs)
		req, err := dashboard.ParsePanelQuery(values)
		if err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		format, err := dashboard.ParseExportFormat(values.Get(dashboard.ParamFormat))
		if err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		download, err := api.ExportPanel(ctx.Context(), req, format)
		if err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return sendDownload(ctx, download)
	}))

	r.Post(routes.Chat, router.WrapHandler(func(ctx router.Context) error {
		if isJSON(ctx) {
			var payload dashboard.ChatRequest
			if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
				return respondError(ctx, http.StatusBadRequest, err)
			}
			var reply dashboard.ChatReply
			if err := api.SendChat(ctx.Context(), commands.SendChatInput{Request: payload, Result: &reply}); err != nil {
				return ctx.JSON(httpapi.StatusFor(err), map[string]string{"error": dashboard.ChatErrorMessage(err)})
			}
			return ctx.JSON(http.StatusOK, httpapi.NewChatResponse(reply))
		}
		filters, form, err := formRequest(ctx, tabs)
		if err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		chatReq := dashboard.ChatRequest{
			SessionID: form.Get(formChatSession),
			Message:   form.Get(formChatMessage),
			APIKey:    form.Get(formChatKey),
			Filters:   filters,
		}
		var reply dashboard.ChatReply
		sessionID := chatReq.SessionID
		var notices []string
		if err := api.SendChat(ctx.Context(), commands.SendChatInput{Request: chatReq, Result: &reply}); err != nil {
			notices = append(notices, dashboard.ChatErrorMessage(err))
		} else if reply.Session != nil {
			sessionID = reply.Session.ID
		}
		return renderWorldBank(ctx, controller, resolver(ctx), filters, sessionID, notices...)
	}))

	r.Post(routes.ChatReset, router.WrapHandler(func(ctx router.Context) error {
		if isJSON(ctx) {
			var payload struct {
				SessionID string `json:"session_id"`
			}
			if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
				return respondError(ctx, http.StatusBadRequest, err)
			}
			if err := api.ResetChat(ctx.Context(), commands.ResetChatInput{SessionID: payload.SessionID}); err != nil {
				return respondError(ctx, httpapi.StatusFor(err), err)
			}
			return ctx.JSON(http.StatusOK, map[string]string{"status": "reset"})
		}
		filters, form, err := formRequest(ctx, tabs)
		if err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		sessionID := form.Get(formChatSession)
		if err := api.ResetChat(ctx.Context(), commands.ResetChatInput{SessionID: sessionID}); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return renderWorldBank(ctx, controller, resolver(ctx), filters, sessionID)
	}))

	r.Post(routes.Refresh, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.RefreshDataInput
		if body := ctx.Body(); len(body) > 0 {
			if err := json.Unmarshal(body, &payload); err != nil {
				return respondError(ctx, http.StatusBadRequest, err)
			}
		}
		if err := api.Refresh(ctx.Context(), payload); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusAccepted, map[string]string{"status": "refreshed"})
	}))

	r.Get(routes.Catalog, router.WrapHandler(func(ctx router.Context) error {
		input, err := httpapi.CatalogInput(ctx.Param("kind"), ctx.Query("q"), ctx.Query("limit"), ctx.Query("topic"))
		if err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		entries, err := api.SearchCatalog(ctx.Context(), input)
		if err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusOK, map[string]any{"kind": input.Kind, "entries": entries})
	}))
}

func renderWorldBank(ctx router.Context, controller *dashboard.Controller, viewer dashboard.ViewerContext, req dashboard.PanelRequest, sessionID string, notices ...string) error {
	var buf bytes.Buffer
	if err := controller.RenderWorldBank(ctx.Context(), viewer, req, sessionID, &buf, notices...); err != nil {
		return respondError(ctx, http.StatusInternalServerError, err)
	}
	ctx.SetHeader("Content-Type", contentTypeHTML)
	return ctx.Send(buf.Bytes())
}

// queryValues collects the dashboard parameters from the request query.
func queryValues(ctx router.Context, tabs []dashboard.TabDefinition) url.Values {
	values := url.Values{}
	for _, key := range dashboard.QueryKeys(tabs) {
		if v := ctx.Query(key); v != "" {
			values.Set(key, v)
		}
	}
	return values
}

// formRequest reads the panel filters from the query and the chat fields from the form body.
func formRequest(ctx router.Context, tabs []dashboard.TabDefinition) (dashboard.PanelRequest, url.Values, error) {
	filters, err := dashboard.ParsePanelQuery(queryValues(ctx, tabs))
	if err != nil {
		return dashboard.PanelRequest{}, nil, err
	}
	form, err := dashboard.ParseRawQuery(string(ctx.Body()))
	if err != nil {
		return dashboard.PanelRequest{}, nil, err
	}
	return filters, form, nil
}

func sendDownload(ctx router.Context, download dashboard.Download) error {
	ctx.SetHeader("Content-Type", download.ContentType)
	ctx.SetHeader("Content-Disposition", httpapi.ContentDisposition(download))
	return ctx.Send(download.Data)
}

func isJSON(ctx router.Context) bool {
	return strings.HasPrefix(strings.ToLower(ctx.Header("Content-Type")), "application/json")
}

func defaultViewerResolver(ctx router.Context) dashboard.ViewerContext {
	var viewer dashboard.ViewerContext
	if v, ok := ctx.Locals("user_id").(string); ok {
		viewer.UserID = v
	}
	viewer.Locale = inferLocale(ctx)
	return viewer
}

func inferLocale(ctx router.Context) string {
	if locale, ok := ctx.Locals("locale").(string); ok && locale != "" {
		return locale
	}
	if locale := strings.TrimSpace(ctx.Query("locale")); locale != "" {
		return strings.ToLower(locale)
	}
	if header := ctx.Header("Accept-Language"); header != "" {
		if lang := parseAcceptLanguage(header); lang != "" {
			return lang
		}
	}
	return ""
}

func parseAcceptLanguage(header string) string {
	for _, token := range strings.Split(header, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if idx := strings.Index(token, ";"); idx >= 0 {
			token = token[:idx]
		}
		if token != "" {
			return strings.ToLower(token)
		}
	}
	return ""
}

func respondError(ctx router.Context, status int, err error) error {
	return ctx.JSON(status, map[string]string{"error": err.Error()})
}

func (cfg Config[T]) routes() RouteConfig {
	return defaultRouteConfig(cfg.Routes)
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	if routes.Local == "" {
		routes.Local = "/local"
	}
	if routes.LocalLayout == "" {
		routes.LocalLayout = "/local/_layout"
	}
	if routes.LocalExport == "" {
		routes.LocalExport = "/local/export"
	}
	if routes.WorldBank == "" {
		routes.WorldBank = "/worldbank"
	}
	if routes.WorldBankLayout == "" {
		routes.WorldBankLayout = "/worldbank/_layout"
	}
	if routes.WorldBankExport == "" {
		routes.WorldBankExport = "/worldbank/export"
	}
	if routes.Chat == "" {
		routes.Chat = "/worldbank/chat"
	}
	if routes.ChatReset == "" {
		routes.ChatReset = "/worldbank/chat/reset"
	}
	if routes.Refresh == "" {
		routes.Refresh = "/refresh"
	}
	if routes.Catalog == "" {
		routes.Catalog = "/catalog/:kind"
	}
	return routes
}
