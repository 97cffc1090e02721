package dashboard

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrWorkbookNotFound is returned when the local spreadsheet is missing.
	ErrWorkbookNotFound = errors.New("dashboard: workbook not found")
	// ErrInvalidDateRange signals a start date after the end date.
	ErrInvalidDateRange = errors.New("dashboard: start date must not be after end date")
	// ErrNoCountries is returned when a panel request selects no country.
	ErrNoCountries = errors.New("dashboard: at least one country is required")
	// ErrNoIndicators is returned when a panel request selects no indicator.
	ErrNoIndicators = errors.New("dashboard: at least one indicator is required")
	// ErrUnknownCountry is returned for country names missing from the catalog.
	ErrUnknownCountry = errors.New("dashboard: unknown country")
	// ErrUnknownIndicator is returned for indicator names missing from the catalog.
	ErrUnknownIndicator = errors.New("dashboard: unknown indicator")
	// ErrMissingAPIKey is returned when neither the server nor the request carries an assistant key.
	ErrMissingAPIKey = errors.New("dashboard: assistant api key is required")
	// ErrAssistantUnavailable wraps failures talking to the assistant backend.
	ErrAssistantUnavailable = errors.New("dashboard: assistant unavailable")
	// ErrEmptyPrompt is returned when a chat message has no content.
	ErrEmptyPrompt = errors.New("dashboard: chat prompt is empty")
)

// TableLoader loads the local indicator table.
type TableLoader interface {
	LoadTable(ctx context.Context) (*IndicatorTable, error)
}

// TableLoaderFunc adapts a function into a TableLoader.
type TableLoaderFunc func(ctx context.Context) (*IndicatorTable, error)

// LoadTable calls f(ctx).
func (f TableLoaderFunc) LoadTable(ctx context.Context) (*IndicatorTable, error) {
	return f(ctx)
}

// IndicatorSource fetches catalog lists and panel observations from a remote indicator API.
type IndicatorSource interface {
	Topics(ctx context.Context) ([]CatalogEntry, error)
	Indicators(ctx context.Context, topicID string) ([]CatalogEntry, error)
	Countries(ctx context.Context) ([]CatalogEntry, error)
	Observations(ctx context.Context, query ObservationQuery) ([]Observation, error)
}

// Assistant answers chat prompts given a system instruction and the transcript.
type Assistant interface {
	Reply(ctx context.Context, req AssistantRequest) (string, error)
}

// AssistantRequest carries one assistant round trip.
type AssistantRequest struct {
	APIKey  string
	System  string
	History []ChatMessage
}

// SessionStore persists chat sessions keyed by id.
type SessionStore interface {
	GetSession(ctx context.Context, id string) (*ChatSession, error)
	SaveSession(ctx context.Context, session *ChatSession) error
	DeleteSession(ctx context.Context, id string) error
}

// ProviderRegistry stores widget definitions and providers.
type ProviderRegistry interface {
	RegisterDefinition(def WidgetDefinition) error
	RegisterProvider(code string, provider Provider) error
	Definition(code string) (WidgetDefinition, bool)
	Provider(code string) (Provider, bool)
	Definitions() []WidgetDefinition
}

// WidgetAreaDefinition models a dashboard tab.
type WidgetAreaDefinition struct {
	Code        string
	Name        string
	Icon        string
	Description string
	Widgets     []WidgetInstance
}

// WidgetDefinition describes a widget kind and its configuration schema.
type WidgetDefinition struct {
	Code          string            `json:"code" yaml:"code"`
	Name          string            `json:"name" yaml:"name"`
	NameLocalized map[string]string `json:"name_localized,omitempty" yaml:"name_localized,omitempty"`
	Description   string            `json:"description,omitempty" yaml:"description,omitempty"`
	Schema        map[string]any    `json:"schema,omitempty" yaml:"schema,omitempty"`
	Category      string            `json:"category,omitempty" yaml:"category,omitempty"`
}

// WidgetInstance is a widget placed in an area.
type WidgetInstance struct {
	ID            string         `json:"id"`
	DefinitionID  string         `json:"definition_id"`
	AreaCode      string         `json:"area_code"`
	Configuration map[string]any `json:"configuration,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// ViewerContext captures the requesting user and locale.
type ViewerContext struct {
	UserID string
	Locale string
}

// Area is a resolved tab with its widgets.
type Area struct {
	Code    string           `json:"code"`
	Name    string           `json:"name"`
	Icon    string           `json:"icon,omitempty"`
	Message string           `json:"message,omitempty"`
	Widgets []WidgetInstance `json:"widgets"`
}

// Layout describes the resolved areas of one dashboard view.
type Layout struct {
	Title    string   `json:"title"`
	Caption  string   `json:"caption,omitempty"`
	Warning  string   `json:"warning,omitempty"`
	Errors   []string `json:"errors,omitempty"`
	Areas    []Area   `json:"areas"`
	Filters  any      `json:"filters,omitempty"`
	Complete bool     `json:"complete"`
}

// Area returns the area with the given code.
func (l Layout) Area(code string) (Area, bool) {
	for _, area := range l.Areas {
		if area.Code == code {
			return area, true
		}
	}
	return Area{}, false
}

// LocalRequest carries the filters of the local dashboard.
type LocalRequest struct {
	Start *time.Time
	End   *time.Time
	// Selections holds the chosen columns per tab code. A nil entry means
	// "use the default"; an empty non-nil slice means nothing is selected.
	Selections map[string][]string
}

// PanelRequest carries the filters of the World Bank dashboard.
type PanelRequest struct {
	Countries  []string `json:"countries"`
	Indicators []string `json:"indicators"`
	StartYear  int      `json:"start_year"`
	EndYear    int      `json:"end_year"`
}

// ObservationQuery is the resolved (id based) panel query sent to the indicator source.
type ObservationQuery struct {
	Countries  []string
	Indicators []string
	StartYear  int
	EndYear    int
}

// Observation is one value reported by the indicator source.
type Observation struct {
	CountryID   string
	IndicatorID string
	Year        int
	Value       *float64
}

// CatalogEntry is an id/name pair from the indicator source.
type CatalogEntry struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Note      string `json:"note,omitempty"`
	Aggregate bool   `json:"aggregate,omitempty"`
}

// Download is an export payload ready to be streamed to a client.
type Download struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ExportFormat selects the export encoding.
type ExportFormat string

const (
	FormatCSV   ExportFormat = "csv"
	FormatExcel ExportFormat = "xlsx"
)
