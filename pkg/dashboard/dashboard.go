// Package dashboard assembles the Mozdados dashboards from plain settings so
// applications can embed them without touching the individual adapters.
package dashboard

import (
	"fmt"
	"log/slog"
	"time"

	core "github.com/mozdados/mozdados/components/dashboard"
	"github.com/mozdados/mozdados/components/dashboard/httpapi"
	"github.com/mozdados/mozdados/pkg/chatstore"
	"github.com/mozdados/mozdados/pkg/gemini"
	"github.com/mozdados/mozdados/pkg/worldbank"
)

// Service exposes the underlying components/dashboard.Service type.
type Service = core.Service

// Options re-export for convenience.
type Options = core.Options

// NewService proxies to the internal constructor.
func NewService(opts Options) *Service {
	return core.NewService(opts)
}

// Config collects the settings needed to assemble the dashboards.
type Config struct {
	DataPath     string
	ManifestPath string
	BasePath     string
	WorldBankURL string
	GeminiAPIKey string
	GeminiModel  string
	EChartsCDN   string
	ChatDBPath   string // empty keeps sessions in memory
	CacheTTL     time.Duration
	Logger       *slog.Logger
}

// Bundle is an assembled dashboard service with its collaborators.
type Bundle struct {
	Service   *Service
	Tabs      []core.TabDefinition
	Telemetry core.Telemetry
	Store     *chatstore.Store
	// Sessions is the chat session store in use: Store when open, the
	// in-memory store otherwise.
	Sessions core.SessionStore

	basePath string
}

// New wires the World Bank client, the Gemini assistant, the chat store and
// the widget registry into a service.
func New(cfg Config) (*Bundle, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	telemetry := core.SlogTelemetry{Logger: logger}

	chartOpts := []core.ChartOption{}
	if cfg.EChartsCDN != "" {
		chartOpts = append(chartOpts, core.WithChartAssetsHost(cfg.EChartsCDN))
	}
	charts := core.NewChartBuilder(chartOpts...)

	registry := core.NewRegistry()
	if err := core.RegisterProviders(registry, charts); err != nil {
		return nil, fmt.Errorf("dashboard: register providers: %w", err)
	}
	tabs := core.DefaultTabs()
	if cfg.ManifestPath != "" {
		doc, err := core.ReadManifest(cfg.ManifestPath)
		if err != nil {
			return nil, err
		}
		if err := registry.LoadManifestDocument(doc); err != nil {
			return nil, err
		}
		tabs = doc.Tabs
	}
	if err := registry.CheckTabs(tabs); err != nil {
		return nil, err
	}

	opts := Options{
		Tables:       core.FileTableLoader{Path: cfg.DataPath},
		Source:       worldbank.NewClient(worldbank.Config{BaseURL: cfg.WorldBankURL}),
		Assistant:    gemini.NewClient(gemini.Config{Model: cfg.GeminiModel}),
		Providers:    registry,
		Telemetry:    telemetry,
		Charts:       charts,
		Tabs:         tabs,
		AssistantKey: cfg.GeminiAPIKey,
		DataPath:     cfg.DataPath,
		CacheTTL:     cfg.CacheTTL,
	}
	bundle := &Bundle{Tabs: tabs, Telemetry: telemetry, basePath: cfg.BasePath}
	if cfg.ChatDBPath != "" {
		store, err := chatstore.Open(cfg.ChatDBPath)
		if err != nil {
			return nil, err
		}
		opts.Sessions = store
		bundle.Store = store
	} else {
		opts.Sessions = core.NewInMemorySessionStore()
	}
	bundle.Sessions = opts.Sessions
	bundle.Service = NewService(opts)
	return bundle, nil
}

// Executor returns the command/query executor used by the transports.
func (b *Bundle) Executor() *httpapi.CommandExecutor {
	return httpapi.NewExecutor(b.Service, b.Telemetry)
}

// Controller returns the HTML controller rendering with renderer.
func (b *Bundle) Controller(renderer core.Renderer) *core.Controller {
	return core.NewController(core.ControllerOptions{
		Service:  b.Service,
		Renderer: renderer,
		BasePath: b.basePath,
	})
}

// Close releases the chat store, when one is open.
func (b *Bundle) Close() error {
	if b.Store == nil {
		return nil
	}
	return b.Store.Close()
}
