package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	defaultCacheTTL = time.Hour
	defaultDataPath = "dados/database.xlsx"
)

const (
	msgDateRange        = "A Data de Início deve ser menor que a Data Fim."
	msgNoSelection      = "Por favor, selecione pelo menos uma variável acima para visualizar."
	msgWaitingData      = "Aguardando carregamento da base de dados."
	msgLoadFailed       = "Erro ao carregar dados: %v"
	msgFileNotFound     = "Arquivo '%s' não encontrado. Por favor, verifique o caminho."
	msgNoCountries      = "Selecione pelo menos um país para continuar."
	msgNoIndicators     = "Selecione pelo menos um indicador para continuar."
	msgUnknownSelection = "Seleção não encontrada no catálogo: %s"
	msgGenericFailure   = "Ocorreu um erro. Por favor, recarregue a página e tente novamente"
	msgMissingKey       = "⚠️ Por favor, insira sua API Key do Google Gemini na barra lateral para começar."
	msgAssistantError   = "⚠️ Ocorreu um erro ao comunicar com a API: %v"
	msgAssistantOffline = "🚫 Não foi possível aceder ao Databot. Por favor, tente novamente mais tarde."
)

// Options configures the dashboard Service. Every collaborator is provided via
// interface so applications can swap implementations.
type Options struct {
	Tables          TableLoader
	Source          IndicatorSource
	Assistant       Assistant
	Sessions        SessionStore
	Providers       ProviderRegistry
	ConfigValidator ConfigValidator
	Telemetry       Telemetry
	Charts          *ChartBuilder
	Tabs            []TabDefinition
	// AssistantKey is the server side assistant key. Requests may carry their own.
	AssistantKey string
	// DataPath names the local spreadsheet in user facing messages.
	DataPath string
	CacheTTL time.Duration
	Now      func() time.Time
	NewID    func() string
}

// Service builds the dashboard layouts and runs exports and chat turns.
type Service struct {
	opts     Options
	tables   *TTLCache[*IndicatorTable]
	catalogs *TTLCache[[]CatalogEntry]
	panels   *TTLCache[PanelFrame]
}

// NewService builds a Service instance with safe defaults.
func NewService(opts Options) *Service {
	if opts.Charts == nil {
		opts.Charts = NewChartBuilder()
	}
	registerProviders := opts.Providers == nil
	if opts.Providers == nil {
		opts.Providers = NewRegistry()
	}
	if opts.ConfigValidator == nil {
		opts.ConfigValidator = NewJSONSchemaValidator()
	}
	if opts.Sessions == nil {
		opts.Sessions = NewInMemorySessionStore()
	}
	if len(opts.Tabs) == 0 {
		opts.Tabs = DefaultTabs()
	}
	if opts.DataPath == "" {
		opts.DataPath = defaultDataPath
	}
	if opts.CacheTTL == 0 {
		opts.CacheTTL = defaultCacheTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	s := &Service{
		opts:     opts,
		tables:   NewTTLCache[*IndicatorTable](opts.CacheTTL),
		catalogs: NewTTLCache[[]CatalogEntry](opts.CacheTTL),
		panels:   NewTTLCache[PanelFrame](opts.CacheTTL),
	}
	if registerProviders {
		_ = RegisterProviders(opts.Providers, opts.Charts)
	}
	return s
}

// Tabs returns the local dashboard tabs.
func (s *Service) Tabs() []TabDefinition {
	return append([]TabDefinition(nil), s.opts.Tabs...)
}

// LocalFilters describes the filter state of the local dashboard.
type LocalFilters struct {
	Start time.Time   `json:"start"`
	End   time.Time   `json:"end"`
	Min   time.Time   `json:"min"`
	Max   time.Time   `json:"max"`
	Tabs  []TabFilter `json:"tabs"`
}

// TabFilter lists the columns a tab offers and the ones selected.
type TabFilter struct {
	Code     string   `json:"code"`
	Name     string   `json:"name"`
	Options  []string `json:"options"`
	Selected []string `json:"selected"`
}

// Tab returns the filter state of one tab.
func (f LocalFilters) Tab(code string) (TabFilter, bool) {
	for _, tab := range f.Tabs {
		if tab.Code == code {
			return tab, true
		}
	}
	return TabFilter{}, false
}

// LocalLayout resolves the four tab areas of the local dashboard for req.
// Data problems are reported on the layout rather than as errors.
func (s *Service) LocalLayout(ctx context.Context, viewer ViewerContext, req LocalRequest) (Layout, error) {
	layout := Layout{Title: localTitle}
	table, err := s.loadTable(ctx)
	if err != nil {
		layout.Errors = append(layout.Errors, s.loadErrorMessage(err))
		s.recordTelemetry(ctx, "mozdados.table.load_error", map[string]any{"error": err.Error()})
		return layout, nil
	}
	if table.Empty() {
		layout.Warning = msgWaitingData
		return layout, nil
	}
	filtered, err := table.Slice(req.Start, req.End)
	if errors.Is(err, ErrInvalidDateRange) {
		layout.Errors = append(layout.Errors, msgDateRange)
	}
	first, last, _ := table.Bounds()
	filters := LocalFilters{
		Start: clampDate(req.Start, first, first, last),
		End:   clampDate(req.End, last, first, last),
		Min:   first,
		Max:   last,
	}
	for _, tab := range s.opts.Tabs {
		selected := s.selection(tab, table, req.Selections)
		filters.Tabs = append(filters.Tabs, TabFilter{
			Code:     tab.Code,
			Name:     tab.Name,
			Options:  tab.Options(table),
			Selected: selected,
		})
		area := Area{Code: tab.Code, Name: tab.Name, Icon: tab.Icon}
		if len(selected) == 0 {
			area.Message = msgNoSelection
			layout.Areas = append(layout.Areas, area)
			continue
		}
		frame := Frame{Local: &LocalFrame{Tab: tab, Table: filtered, Selected: selected}}
		widgets := make([]WidgetInstance, 0, len(tab.Widgets))
		for _, code := range tab.Widgets {
			widgets = append(widgets, WidgetInstance{
				ID:           tab.Code + "." + widgetSuffix(code),
				DefinitionID: code,
				AreaCode:     tab.Code,
			})
		}
		area.Widgets = s.attachProviderData(ctx, viewer, frame, widgets)
		layout.Areas = append(layout.Areas, area)
	}
	layout.Filters = filters
	layout.Complete = len(layout.Errors) == 0
	s.recordTelemetry(ctx, "mozdados.layout.local", map[string]any{
		"viewer": viewer.UserID,
		"rows":   filtered.Len(),
	})
	return layout, nil
}

// LocalTable returns the date filtered table projected onto the tab selection.
func (s *Service) LocalTable(ctx context.Context, req LocalRequest, tabCode string) (*IndicatorTable, TabDefinition, error) {
	tab, ok := s.tab(tabCode)
	if !ok {
		return nil, TabDefinition{}, fmt.Errorf("dashboard: unknown tab %q", tabCode)
	}
	table, err := s.loadTable(ctx)
	if err != nil {
		return nil, tab, err
	}
	filtered, err := table.Slice(req.Start, req.End)
	if err != nil && !errors.Is(err, ErrInvalidDateRange) {
		return nil, tab, err
	}
	return filtered.Select(s.selection(tab, table, req.Selections)), tab, nil
}

// ExportLocal encodes the selection of one tab.
func (s *Service) ExportLocal(ctx context.Context, req LocalRequest, tabCode string, format ExportFormat) (Download, error) {
	table, tab, err := s.LocalTable(ctx, req, tabCode)
	if err != nil {
		return Download{}, err
	}
	download, err := ExportTable(table, tab.Code, format)
	if err != nil {
		return Download{}, err
	}
	s.recordTelemetry(ctx, "mozdados.export", map[string]any{"tab": tab.Code, "format": string(format)})
	return download, nil
}

// PanelFilters describes the filter state of the World Bank dashboard.
type PanelFilters struct {
	Request    PanelRequest   `json:"request"`
	Countries  []CatalogEntry `json:"countries"`
	Indicators []CatalogEntry `json:"indicators"`
	MinYear    int            `json:"min_year"`
	MaxYear    int            `json:"max_year"`
	SearchHint string         `json:"search_hint"`
}

// WorldBankLayout resolves the indicator, assistant and about areas for req.
// An empty country or indicator selection stops rendering with a warning.
func (s *Service) WorldBankLayout(ctx context.Context, viewer ViewerContext, req PanelRequest, sessionID string) (Layout, error) {
	req = NormalizePanelRequest(req)
	layout := Layout{Title: worldBankTitle, Caption: worldBankCaption}
	catalog, err := s.Catalog(ctx)
	if err != nil {
		s.recordTelemetry(ctx, "mozdados.catalog.error", map[string]any{"error": err.Error()})
		return layout, err
	}
	layout.Filters = PanelFilters{
		Request:    req,
		Countries:  catalog.Countries,
		Indicators: catalog.Indicators,
		MinYear:    MinYear,
		MaxYear:    MaxYear,
		SearchHint: SearchHint,
	}
	frame, err := s.ResolvePanel(ctx, req)
	switch {
	case errors.Is(err, ErrNoCountries):
		layout.Warning = msgNoCountries
		return layout, nil
	case errors.Is(err, ErrNoIndicators):
		layout.Warning = msgNoIndicators
		return layout, nil
	case errors.Is(err, ErrUnknownCountry), errors.Is(err, ErrUnknownIndicator):
		layout.Errors = append(layout.Errors, fmt.Sprintf(msgUnknownSelection, selectionName(err)))
		return layout, nil
	case err != nil:
		s.recordTelemetry(ctx, "mozdados.panel.error", map[string]any{"error": err.Error()})
		return layout, err
	}
	session, err := s.chatSession(ctx, sessionID, configHash(req))
	if err != nil {
		return layout, err
	}
	chat := &ChatFrame{Session: session}
	if s.assistantKey("") == "" {
		chat.Notice = msgMissingKey
	}
	for _, def := range WorldBankAreas() {
		area := Area{Code: def.Code, Name: def.Name, Icon: def.Icon, Message: def.Description}
		area.Widgets = s.attachProviderData(ctx, viewer, Frame{Panel: &frame, Chat: chat}, def.Widgets)
		layout.Areas = append(layout.Areas, area)
	}
	layout.Complete = true
	s.recordTelemetry(ctx, "mozdados.layout.world_bank", map[string]any{
		"viewer":     viewer.UserID,
		"countries":  len(req.Countries),
		"indicators": len(req.Indicators),
		"rows":       len(frame.Panel.Rows),
	})
	return layout, nil
}

// NormalizePanelRequest fills defaults: nil lists take the default selection,
// zero years take the default range and a reversed range is swapped.
func NormalizePanelRequest(req PanelRequest) PanelRequest {
	def := DefaultPanelRequest()
	if req.Countries == nil {
		req.Countries = def.Countries
	}
	if req.Indicators == nil {
		req.Indicators = def.Indicators
	}
	if req.StartYear == 0 {
		req.StartYear = def.StartYear
	}
	if req.EndYear == 0 {
		req.EndYear = def.EndYear
	}
	if req.StartYear > req.EndYear {
		req.StartYear, req.EndYear = req.EndYear, req.StartYear
	}
	return req
}

// ResolvePanel fetches and reshapes the observations of req. Results are cached per request.
func (s *Service) ResolvePanel(ctx context.Context, req PanelRequest) (PanelFrame, error) {
	req = NormalizePanelRequest(req)
	if err := ValidatePanelRequest(s.opts.ConfigValidator, req); err != nil {
		return PanelFrame{}, err
	}
	return s.panels.GetOrLoad(configHash(req), func() (PanelFrame, error) {
		catalog, err := s.Catalog(ctx)
		if err != nil {
			return PanelFrame{}, err
		}
		countries, err := catalog.ResolveCountries(req.Countries)
		if err != nil {
			return PanelFrame{}, err
		}
		indicators, err := catalog.ResolveIndicators(req.Indicators)
		if err != nil {
			return PanelFrame{}, err
		}
		source, err := s.source()
		if err != nil {
			return PanelFrame{}, err
		}
		obs, err := source.Observations(ctx, ObservationQuery{
			Countries:  countries.IDs,
			Indicators: indicators.IDs,
			StartYear:  req.StartYear,
			EndYear:    req.EndYear,
		})
		if err != nil {
			return PanelFrame{}, fmt.Errorf("dashboard: fetch observations: %w", err)
		}
		wide := PivotObservations(obs, countries, indicators, req.StartYear, req.EndYear)
		hint := make([]string, 0, len(wide))
		for _, row := range wide {
			hint = append(hint, row.Indicator)
		}
		return PanelFrame{Request: req, Panel: Melt(wide), SearchHint: hint}, nil
	})
}

// ExportPanel encodes the resolved panel of req.
func (s *Service) ExportPanel(ctx context.Context, req PanelRequest, format ExportFormat) (Download, error) {
	frame, err := s.ResolvePanel(ctx, req)
	if err != nil {
		return Download{}, err
	}
	download, err := ExportPanel(frame.Panel, format)
	if err != nil {
		return Download{}, err
	}
	s.recordTelemetry(ctx, "mozdados.export", map[string]any{"tab": "", "format": string(format)})
	return download, nil
}

// Catalog returns the topic, indicator and country lists.
func (s *Service) Catalog(ctx context.Context) (Catalog, error) {
	source, err := s.source()
	if err != nil {
		return Catalog{}, err
	}
	topics, err := s.catalogs.GetOrLoad("topics", func() ([]CatalogEntry, error) { return source.Topics(ctx) })
	if err != nil {
		return Catalog{}, fmt.Errorf("dashboard: load topics: %w", err)
	}
	indicators, err := s.Indicators(ctx, "")
	if err != nil {
		return Catalog{}, err
	}
	countries, err := s.catalogs.GetOrLoad("countries", func() ([]CatalogEntry, error) { return source.Countries(ctx) })
	if err != nil {
		return Catalog{}, fmt.Errorf("dashboard: load countries: %w", err)
	}
	return NewCatalog(topics, indicators, countries), nil
}

// Indicators lists the indicators of a topic, or every indicator when topicID is empty.
func (s *Service) Indicators(ctx context.Context, topicID string) ([]CatalogEntry, error) {
	source, err := s.source()
	if err != nil {
		return nil, err
	}
	entries, err := s.catalogs.GetOrLoad("indicators:"+topicID, func() ([]CatalogEntry, error) {
		return source.Indicators(ctx, topicID)
	})
	if err != nil {
		return nil, fmt.Errorf("dashboard: load indicators: %w", err)
	}
	return entries, nil
}

// ChatRequest is one user turn.
type ChatRequest struct {
	SessionID string       `json:"session_id"`
	Message   string       `json:"message"`
	APIKey    string       `json:"api_key,omitempty"`
	Filters   PanelRequest `json:"filters"`
}

// ChatReply is the outcome of a chat turn.
type ChatReply struct {
	Session *ChatSession `json:"session"`
	Reply   string       `json:"reply"`
}

// SendChat appends the user message and the assistant reply to the session
// bound to req.Filters. On assistant failure the user message is discarded.
func (s *Service) SendChat(ctx context.Context, req ChatRequest) (ChatReply, error) {
	prompt := strings.TrimSpace(req.Message)
	if prompt == "" {
		return ChatReply{}, ErrEmptyPrompt
	}
	key := s.assistantKey(req.APIKey)
	if key == "" {
		return ChatReply{}, ErrMissingAPIKey
	}
	if s.opts.Assistant == nil {
		return ChatReply{}, ErrAssistantUnavailable
	}
	filters := NormalizePanelRequest(req.Filters)
	frame, err := s.ResolvePanel(ctx, filters)
	if err != nil {
		return ChatReply{}, err
	}
	session, err := s.chatSession(ctx, req.SessionID, configHash(filters))
	if err != nil {
		return ChatReply{}, err
	}
	session.Append(RoleUser, prompt, s.opts.Now())
	system := BuildSystemPrompt(frame.Panel.Indicators(), frame.Panel.Countries(), frame.SearchHint)
	reply, err := s.opts.Assistant.Reply(ctx, AssistantRequest{
		APIKey:  key,
		System:  system,
		History: session.History(),
	})
	if err != nil {
		s.recordTelemetry(ctx, "mozdados.chat.error", map[string]any{"session_id": session.ID, "error": err.Error()})
		return ChatReply{}, fmt.Errorf("%w: %w", ErrAssistantUnavailable, err)
	}
	session.Append(RoleAssistant, reply, s.opts.Now())
	if err := s.opts.Sessions.SaveSession(ctx, session); err != nil {
		return ChatReply{}, fmt.Errorf("dashboard: save chat session: %w", err)
	}
	s.recordTelemetry(ctx, "mozdados.chat.send", map[string]any{
		"session_id": session.ID,
		"messages":   len(session.Messages),
	})
	return ChatReply{Session: session, Reply: reply}, nil
}

// ResetChat drops a chat session.
func (s *Service) ResetChat(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return errors.New("dashboard: chat session id is required")
	}
	if err := s.opts.Sessions.DeleteSession(ctx, sessionID); err != nil {
		return err
	}
	s.recordTelemetry(ctx, "mozdados.chat.reset", map[string]any{"session_id": sessionID})
	return nil
}

// Refresh drops every cached table, catalog list and panel.
func (s *Service) Refresh(ctx context.Context) {
	s.tables.Invalidate()
	s.catalogs.Invalidate()
	s.panels.Invalidate()
	s.recordTelemetry(ctx, "mozdados.cache.refresh", nil)
}

// Warm loads the local table and the catalog into the caches. Both loads
// are attempted; the first failure is returned.
func (s *Service) Warm(ctx context.Context) error {
	var errs []error
	if _, err := s.loadTable(ctx); err != nil {
		errs = append(errs, err)
	}
	if s.opts.Source != nil {
		if _, err := s.Catalog(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	s.recordTelemetry(ctx, "mozdados.cache.warm", map[string]any{"failures": len(errs)})
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// ChatErrorMessage maps chat failures onto the message shown to the user.
func ChatErrorMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingAPIKey):
		return msgMissingKey
	case err == ErrAssistantUnavailable:
		return msgAssistantOffline
	case errors.Is(err, ErrAssistantUnavailable):
		return fmt.Sprintf(msgAssistantError, strings.TrimPrefix(err.Error(), ErrAssistantUnavailable.Error()+": "))
	default:
		return msgAssistantOffline
	}
}

// GenericErrorMessage is shown when a page cannot be rendered at all.
func GenericErrorMessage() string {
	return msgGenericFailure
}

// chatSession loads the session bound to filterKey without storing it. A
// session whose filters changed starts over; unknown ids get a fresh one.
// Sessions are persisted by SendChat only.
func (s *Service) chatSession(ctx context.Context, id, filterKey string) (*ChatSession, error) {
	now := s.opts.Now()
	if id == "" {
		return NewChatSession(s.opts.NewID(), filterKey, now), nil
	}
	session, err := s.opts.Sessions.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("dashboard: load chat session: %w", err)
	}
	if session == nil {
		return NewChatSession(id, filterKey, now), nil
	}
	if session.FilterKey != filterKey {
		session.Reset(filterKey, now)
	}
	return session, nil
}

func (s *Service) assistantKey(requestKey string) string {
	if key := strings.TrimSpace(requestKey); key != "" {
		return key
	}
	return s.opts.AssistantKey
}

func (s *Service) loadTable(ctx context.Context) (*IndicatorTable, error) {
	if s.opts.Tables == nil {
		return nil, fmt.Errorf("%w: %s", ErrWorkbookNotFound, s.opts.DataPath)
	}
	return s.tables.GetOrLoad("table", func() (*IndicatorTable, error) {
		return s.opts.Tables.LoadTable(ctx)
	})
}

func (s *Service) loadErrorMessage(err error) string {
	if errors.Is(err, ErrWorkbookNotFound) {
		return fmt.Sprintf(msgFileNotFound, s.opts.DataPath)
	}
	return fmt.Sprintf(msgLoadFailed, err)
}

func (s *Service) source() (IndicatorSource, error) {
	if s.opts.Source == nil {
		return nil, errors.New("dashboard: indicator source not configured")
	}
	return s.opts.Source, nil
}

func (s *Service) tab(code string) (TabDefinition, bool) {
	for _, tab := range s.opts.Tabs {
		if tab.Code == code {
			return tab, true
		}
	}
	return TabDefinition{}, false
}

// selection keeps the requested columns the tab offers. A missing entry
// falls back to the tab default.
func (s *Service) selection(tab TabDefinition, table *IndicatorTable, selections map[string][]string) []string {
	requested, ok := selections[tab.Code]
	if !ok || requested == nil {
		return tab.DefaultSelection(table)
	}
	allowed := map[string]struct{}{}
	for _, col := range tab.Options(table) {
		allowed[col] = struct{}{}
	}
	out := make([]string, 0, len(requested))
	for _, col := range requested {
		if _, ok := allowed[col]; ok {
			out = append(out, col)
		}
	}
	return out
}

func (s *Service) attachProviderData(ctx context.Context, viewer ViewerContext, frame Frame, widgets []WidgetInstance) []WidgetInstance {
	enriched := make([]WidgetInstance, len(widgets))
	copy(enriched, widgets)
	for i, inst := range enriched {
		if enriched[i].Metadata == nil {
			enriched[i].Metadata = map[string]any{}
		}
		if def, ok := s.opts.Providers.Definition(inst.DefinitionID); ok {
			enriched[i].Metadata["title"] = def.NameForLocale(viewer.Locale)
		}
		if err := s.validateConfiguration(inst.DefinitionID, inst.Configuration); err != nil {
			s.recordProviderError(ctx, inst, err)
			enriched[i].Metadata["error"] = err.Error()
			continue
		}
		provider, ok := s.opts.Providers.Provider(inst.DefinitionID)
		if !ok || provider == nil {
			continue
		}
		data, err := provider.Fetch(ctx, WidgetContext{
			Instance: inst,
			Viewer:   viewer,
			Frame:    frame,
		})
		if err != nil {
			s.recordProviderError(ctx, inst, err)
			enriched[i].Metadata["error"] = err.Error()
			continue
		}
		enriched[i].Metadata["data"] = data
	}
	return enriched
}

func (s *Service) recordProviderError(ctx context.Context, inst WidgetInstance, err error) {
	s.recordTelemetry(ctx, "mozdados.widget.provider_error", map[string]any{
		"definition_id": inst.DefinitionID,
		"widget_id":     inst.ID,
		"error":         err.Error(),
	})
}

func (s *Service) validateConfiguration(definitionID string, config map[string]any) error {
	def, ok := s.opts.Providers.Definition(definitionID)
	if !ok {
		return nil
	}
	return s.opts.ConfigValidator.Validate(def, config)
}

func (s *Service) recordTelemetry(ctx context.Context, event string, payload map[string]any) {
	s.opts.Telemetry.Record(ctx, event, payload)
}

func selectionName(err error) string {
	msg := err.Error()
	if idx := strings.LastIndex(msg, ": "); idx >= 0 {
		return msg[idx+2:]
	}
	return msg
}

func widgetSuffix(code string) string {
	if idx := strings.LastIndex(code, "."); idx >= 0 {
		return code[idx+1:]
	}
	return code
}

func clampDate(value *time.Time, fallback, lo, hi time.Time) time.Time {
	if value == nil {
		return fallback
	}
	switch {
	case value.Before(lo):
		return lo
	case value.After(hi):
		return hi
	}
	return *value
}
