package gorouter

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	router "github.com/goliatone/go-router"

	"github.com/mozdados/mozdados/components/dashboard"
	"github.com/mozdados/mozdados/components/dashboard/commands"
	"github.com/mozdados/mozdados/components/dashboard/queries"
)

func TestRegisterValidatesConfig(t *testing.T) {
	err := Register(Config[struct{}]{})
	if err == nil {
		t.Fatalf("expected error when router/controller missing")
	}
}

func TestRegisterLocalHTMLRoute(t *testing.T) {
	mock, service, renderer := registerMock(t, &stubExecutor{})

	h, ok := mock.routes["GET:/mozdados/local"]
	if !ok {
		t.Fatalf("expected local route to be registered")
	}
	ctx := newMockContext()
	ctx.query["saude"] = "Inflação;Crédito"
	ctx.query["start"] = "2024-01-01"
	if err := h(ctx); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if len(ctx.body) == 0 || renderer.calls == 0 {
		t.Fatalf("expected rendered page")
	}
	if got := service.lastLocal.Selections["saude"]; len(got) != 2 {
		t.Fatalf("expected selections from query, got %v", got)
	}
	if ctx.headers["Content-Type"] != contentTypeHTML {
		t.Fatalf("expected html content type, got %q", ctx.headers["Content-Type"])
	}
}

func TestRegisterLocalHTMLRejectsBadDate(t *testing.T) {
	mock, _, _ := registerMock(t, &stubExecutor{})
	ctx := newMockContext()
	ctx.query["end"] = "31/12/2024"
	if err := mock.routes["GET:/mozdados/local"](ctx); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if ctx.status != 400 {
		t.Fatalf("expected 400, got %d", ctx.status)
	}
}

func TestRegisterWorldBankRoutes(t *testing.T) {
	api := &stubExecutor{}
	mock, service, _ := registerMock(t, api)

	ctx := newMockContext()
	ctx.query["countries"] = "Mozambique;Malawi"
	ctx.query["session"] = "abc"
	if err := mock.routes["GET:/mozdados/worldbank"](ctx); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if service.lastSession != "abc" || len(service.lastPanel.Countries) != 2 {
		t.Fatalf("unexpected panel request %#v", service.lastPanel)
	}

	ctx = newMockContext()
	ctx.query["filtered"] = "1"
	if err := mock.routes["GET:/mozdados/worldbank/_layout"](ctx); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if ctx.status != 200 {
		t.Fatalf("expected 200, got %d", ctx.status)
	}
	if api.lastPanel.Request.Countries == nil || len(api.lastPanel.Request.Countries) != 0 {
		t.Fatalf("expected empty submitted selection, got %#v", api.lastPanel.Request.Countries)
	}
}

func TestRegisterExportRoute(t *testing.T) {
	api := &stubExecutor{}
	mock, _, _ := registerMock(t, api)

	ctx := newMockContext()
	ctx.query["tab"] = "saude"
	ctx.query["format"] = "xlsx"
	if err := mock.routes["GET:/mozdados/local/export"](ctx); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if ctx.headers["Content-Disposition"] != `attachment; filename="mozdados_saude.xlsx"` {
		t.Fatalf("unexpected disposition %q", ctx.headers["Content-Disposition"])
	}
	if string(ctx.body) != "data" {
		t.Fatalf("expected download body")
	}
}

func TestRegisterChatJSONRoute(t *testing.T) {
	api := &stubExecutor{}
	mock, _, _ := registerMock(t, api)

	ctx := newMockContext()
	ctx.reqHeaders["Content-Type"] = "application/json"
	ctx.body = []byte(`{"message":"Explique o PIB","session_id":"s1"}`)
	if err := mock.routes["POST:/mozdados/worldbank/chat"](ctx); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if ctx.status != 200 {
		t.Fatalf("expected 200, got %d", ctx.status)
	}
	var resp map[string]any
	if err := json.Unmarshal(ctx.body, &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["reply"] != "olá" {
		t.Fatalf("unexpected reply %v", resp)
	}
}

func TestRegisterChatFormRouteRendersPage(t *testing.T) {
	api := &stubExecutor{chatErr: dashboard.ErrMissingAPIKey}
	mock, service, renderer := registerMock(t, api)

	ctx := newMockContext()
	ctx.reqHeaders["Content-Type"] = "application/x-www-form-urlencoded"
	ctx.query["countries"] = "Malawi"
	ctx.body = []byte("session_id=s9&message=ol%C3%A1")
	if err := mock.routes["POST:/mozdados/worldbank/chat"](ctx); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if api.lastChat.Request.Message != "olá" || api.lastChat.Request.Filters.Countries[0] != "Malawi" {
		t.Fatalf("unexpected chat request %#v", api.lastChat.Request)
	}
	if service.lastSession != "s9" {
		t.Fatalf("expected page for session s9, got %q", service.lastSession)
	}
	errs, _ := renderer.lastPayload["errors"].([]string)
	if len(errs) != 1 || !strings.Contains(errs[0], "API Key") {
		t.Fatalf("expected missing key notice, got %v", errs)
	}
}

func TestRegisterCatalogRoute(t *testing.T) {
	api := &stubExecutor{}
	mock, _, _ := registerMock(t, api)

	ctx := newMockContext()
	ctx.params["kind"] = "countries"
	ctx.query["q"] = "moz"
	if err := mock.routes["GET:/mozdados/catalog/:kind"](ctx); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if api.lastCatalog.Kind != "countries" || api.lastCatalog.Term != "moz" {
		t.Fatalf("unexpected catalog input %#v", api.lastCatalog)
	}
}

func TestRegisterRefreshRoute(t *testing.T) {
	api := &stubExecutor{}
	mock, _, _ := registerMock(t, api)

	ctx := newMockContext()
	if err := mock.routes["POST:/mozdados/refresh"](ctx); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if ctx.status != 202 || api.refreshCalls != 1 {
		t.Fatalf("expected refresh to run, got status %d", ctx.status)
	}
}

func TestParseAcceptLanguage(t *testing.T) {
	if got := parseAcceptLanguage("pt-MZ;q=0.9, en"); got != "pt-mz" {
		t.Fatalf("unexpected locale %q", got)
	}
}

// --- Test helpers ---

func registerMock(t *testing.T, api *stubExecutor) (*mockRouter, *stubLayoutResolver, *stubRenderer) {
	t.Helper()
	mock := newMockRouter()
	service := &stubLayoutResolver{}
	renderer := &stubRenderer{}
	controller := dashboard.NewController(dashboard.ControllerOptions{
		Service:  service,
		Renderer: renderer,
	})
	if err := Register(Config[struct{}]{Router: mock, Controller: controller, API: api}); err != nil {
		t.Fatalf("register returned error: %v", err)
	}
	return mock, service, renderer
}

type mockRouter struct {
	router.Router[struct{}]
	prefix string
	routes map[string]router.HandlerFunc
}

func newMockRouter() *mockRouter {
	return &mockRouter{routes: map[string]router.HandlerFunc{}}
}

func (m *mockRouter) Group(prefix string) router.Router[struct{}] {
	return &mockRouter{
		prefix: m.prefix + prefix,
		routes: m.routes,
	}
}

func (m *mockRouter) record(method, path string, handler router.HandlerFunc) {
	full := m.prefix + path
	m.routes[method+":"+full] = handler
}

func (m *mockRouter) Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo {
	m.record(string(router.GET), path, handler)
	return mockRouteInfo{}
}

func (m *mockRouter) Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo {
	m.record(string(router.POST), path, handler)
	return mockRouteInfo{}
}

type mockRouteInfo struct {
	router.RouteInfo
}

// routerContext lets mockContext embed the interface without its field
// name colliding with the Context method.
type routerContext = router.Context

type mockContext struct {
	routerContext
	ctx        context.Context
	headers    map[string]string
	reqHeaders map[string]string
	body       []byte
	locals     map[any]any
	params     map[string]string
	query      map[string]string
	status     int
}

func newMockContext() *mockContext {
	return &mockContext{
		ctx:        context.Background(),
		headers:    map[string]string{},
		reqHeaders: map[string]string{},
		locals:     map[any]any{},
		params:     map[string]string{},
		query:      map[string]string{},
	}
}

func (m *mockContext) Context() context.Context {
	return m.ctx
}

func (m *mockContext) SetHeader(k, v string) router.Context {
	m.headers[k] = v
	return m
}

func (m *mockContext) Header(k string) string {
	return m.reqHeaders[k]
}

func (m *mockContext) Send(b []byte) error {
	if m.status == 0 {
		m.status = 200
	}
	m.body = append([]byte{}, b...)
	return nil
}

func (m *mockContext) JSON(code int, v any) error {
	m.status = code
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.body = data
	return nil
}

func (m *mockContext) Body() []byte { return m.body }

func (m *mockContext) Param(name string, defaultValue ...string) string {
	if v, ok := m.params[name]; ok {
		return v
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (m *mockContext) Query(name string, defaultValue ...string) string {
	if v, ok := m.query[name]; ok {
		return v
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (m *mockContext) Locals(key any, value ...any) any {
	if len(value) == 0 {
		return m.locals[key]
	}
	m.locals[key] = value[0]
	return value[0]
}

type stubLayoutResolver struct {
	lastLocal   dashboard.LocalRequest
	lastPanel   dashboard.PanelRequest
	lastSession string
}

func (s *stubLayoutResolver) LocalLayout(_ context.Context, _ dashboard.ViewerContext, req dashboard.LocalRequest) (dashboard.Layout, error) {
	s.lastLocal = req
	return dashboard.Layout{}, nil
}

func (s *stubLayoutResolver) WorldBankLayout(_ context.Context, _ dashboard.ViewerContext, req dashboard.PanelRequest, sessionID string) (dashboard.Layout, error) {
	s.lastPanel = req
	s.lastSession = sessionID
	return dashboard.Layout{}, nil
}

type stubRenderer struct {
	calls       int
	lastPayload map[string]any
}

func (s *stubRenderer) Render(name string, data any, out ...io.Writer) (string, error) {
	s.calls++
	if payload, ok := data.(map[string]any); ok {
		s.lastPayload = payload
	}
	if len(out) > 0 && out[0] != nil {
		out[0].Write([]byte("ok"))
	}
	return "ok", nil
}

type stubExecutor struct {
	lastPanel    queries.WorldBankLayoutInput
	lastCatalog  queries.CatalogSearchInput
	lastChat     commands.SendChatInput
	chatErr      error
	refreshCalls int
}

func (s *stubExecutor) LocalLayout(context.Context, queries.LocalLayoutInput) (dashboard.Layout, error) {
	return dashboard.Layout{}, nil
}

func (s *stubExecutor) WorldBankLayout(_ context.Context, input queries.WorldBankLayoutInput) (dashboard.Layout, error) {
	s.lastPanel = input
	return dashboard.Layout{}, nil
}

func (s *stubExecutor) SearchCatalog(_ context.Context, input queries.CatalogSearchInput) ([]dashboard.CatalogEntry, error) {
	s.lastCatalog = input
	return nil, nil
}

func (s *stubExecutor) SendChat(_ context.Context, input commands.SendChatInput) error {
	s.lastChat = input
	if s.chatErr != nil {
		return s.chatErr
	}
	*input.Result = dashboard.ChatReply{Session: &dashboard.ChatSession{ID: "s1"}, Reply: "olá"}
	return nil
}

func (s *stubExecutor) ResetChat(context.Context, commands.ResetChatInput) error { return nil }

func (s *stubExecutor) Refresh(context.Context, commands.RefreshDataInput) error {
	s.refreshCalls++
	return nil
}

func (s *stubExecutor) ExportLocal(_ context.Context, _ dashboard.LocalRequest, tab string, format dashboard.ExportFormat) (dashboard.Download, error) {
	return dashboard.Download{FileName: format.FileName(tab), ContentType: format.ContentType(), Data: []byte("data")}, nil
}

func (s *stubExecutor) ExportPanel(_ context.Context, _ dashboard.PanelRequest, format dashboard.ExportFormat) (dashboard.Download, error) {
	return dashboard.Download{FileName: format.FileName(""), ContentType: format.ContentType(), Data: []byte("data")}, nil
}
