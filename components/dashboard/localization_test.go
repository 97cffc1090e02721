package dashboard

import (
	"context"
	"testing"
)

func TestResolveLocalizedValue(t *testing.T) {
	values := map[string]string{
		"en":    "Time series",
		"en-gb": "Time-series",
	}
	if got := ResolveLocalizedValue(values, "EN-GB", "fallback"); got != "Time-series" {
		t.Fatalf("expected region-specific match, got %q", got)
	}
	if got := ResolveLocalizedValue(values, "en_US", "fallback"); got != "Time series" {
		t.Fatalf("expected base locale fallback, got %q", got)
	}
	if got := ResolveLocalizedValue(values, "pt-br", "Evolução Temporal"); got != "Evolução Temporal" {
		t.Fatalf("expected fallback when locale missing, got %q", got)
	}
	if got := ResolveLocalizedValue(nil, "en", "Evolução Temporal"); got != "Evolução Temporal" {
		t.Fatalf("expected fallback when no localized map, got %q", got)
	}
}

func TestRegistryNormalizesLocalizedNames(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterDefinition(WidgetDefinition{
		Code:          "custom.widget",
		Name:          "Personalizado",
		NameLocalized: map[string]string{" EN ": "Custom", "fr": ""},
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	def, _ := reg.Definition("custom.widget")
	if len(def.NameLocalized) != 1 || def.NameLocalized["en"] != "Custom" {
		t.Fatalf("expected normalized locale keys, got %v", def.NameLocalized)
	}
}

func TestLocalLayoutLocalizesWidgetTitles(t *testing.T) {
	svc := newTestService(t, Options{})
	layout, err := svc.LocalLayout(context.Background(), ViewerContext{Locale: "en-US"}, LocalRequest{})
	if err != nil {
		t.Fatalf("LocalLayout: %v", err)
	}
	area, ok := layout.Area("saude")
	if !ok {
		t.Fatalf("expected saude area")
	}
	titles := map[string]any{}
	for _, w := range area.Widgets {
		titles[w.DefinitionID] = w.Metadata["title"]
	}
	if titles[WidgetLineChart] != "Time series" {
		t.Fatalf("expected english widget title, got %v", titles[WidgetLineChart])
	}

	layout, err = svc.LocalLayout(context.Background(), ViewerContext{Locale: "pt-MZ"}, LocalRequest{})
	if err != nil {
		t.Fatalf("LocalLayout: %v", err)
	}
	area, _ = layout.Area("saude")
	for _, w := range area.Widgets {
		if w.DefinitionID == WidgetLineChart && w.Metadata["title"] != "Evolução Temporal" {
			t.Fatalf("expected portuguese title, got %v", w.Metadata["title"])
		}
	}
}
