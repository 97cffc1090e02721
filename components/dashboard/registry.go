package dashboard

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry holds the widget definitions a tab may place and the provider
// that fills each one. It starts with the built-in definitions; manifests
// add more through LoadManifestDocument.
type Registry struct {
	mu          sync.RWMutex
	definitions map[string]WidgetDefinition
	providers   map[string]Provider
}

// NewRegistry returns a registry seeded with DefaultWidgetDefinitions.
func NewRegistry() *Registry {
	reg := &Registry{
		definitions: map[string]WidgetDefinition{},
		providers:   map[string]Provider{},
	}
	for _, def := range DefaultWidgetDefinitions() {
		_ = reg.RegisterDefinition(def)
	}
	return reg
}

// RegisterDefinition adds or replaces a definition. Localized names are
// keyed by normalized locale.
func (r *Registry) RegisterDefinition(def WidgetDefinition) error {
	if strings.TrimSpace(def.Code) == "" {
		return fmt.Errorf("dashboard: widget code is required")
	}
	def.NameLocalized = normalizeLocaleMap(def.NameLocalized)
	r.mu.Lock()
	r.definitions[def.Code] = def
	r.mu.Unlock()
	return nil
}

// RegisterProvider binds provider to an already registered definition.
func (r *Registry) RegisterProvider(code string, provider Provider) error {
	if provider == nil {
		return fmt.Errorf("dashboard: nil provider for widget %q", code)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.definitions[code]; !ok {
		return fmt.Errorf("dashboard: unknown widget %q", code)
	}
	r.providers[code] = provider
	return nil
}

// Definition looks up a definition by code.
func (r *Registry) Definition(code string) (WidgetDefinition, bool) {
	r.mu.RLock()
	def, ok := r.definitions[code]
	r.mu.RUnlock()
	return def, ok
}

// Provider looks up the provider bound to code.
func (r *Registry) Provider(code string) (Provider, bool) {
	r.mu.RLock()
	provider, ok := r.providers[code]
	r.mu.RUnlock()
	return provider, ok
}

// Definitions lists every definition ordered by code.
func (r *Registry) Definitions() []WidgetDefinition {
	r.mu.RLock()
	defs := make([]WidgetDefinition, 0, len(r.definitions))
	for _, def := range r.definitions {
		defs = append(defs, def)
	}
	r.mu.RUnlock()
	sort.Slice(defs, func(i, j int) bool { return defs[i].Code < defs[j].Code })
	return defs
}

// CheckTabs reports tabs that place a widget with no definition or no
// provider, so a bad manifest fails at startup instead of on every render.
func (r *Registry) CheckTabs(tabs []TabDefinition) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var problems []string
	for _, tab := range tabs {
		for _, code := range tab.Widgets {
			switch {
			case r.definitions[code].Code == "":
				problems = append(problems, fmt.Sprintf("%s: unknown widget %q", tab.Code, code))
			case r.providers[code] == nil:
				problems = append(problems, fmt.Sprintf("%s: widget %q has no provider", tab.Code, code))
			}
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("dashboard: invalid tabs: %s", strings.Join(problems, "; "))
	}
	return nil
}
