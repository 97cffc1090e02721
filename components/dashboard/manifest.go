package dashboard

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/ettle/strcase"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

const (
	manifestVersionV1 = "1"
	// ManifestVersion exposes the current manifest format version for tooling.
	ManifestVersion = manifestVersionV1
)

// TabDefinition describes one tab of the local dashboard.
type TabDefinition struct {
	Code        string `json:"code" yaml:"code"`
	Name        string `json:"name" yaml:"name"`
	Icon        string `json:"icon,omitempty" yaml:"icon,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Columns restricts the selectable indicators. Empty means every column.
	Columns []string `json:"columns,omitempty" yaml:"columns,omitempty"`

	// Widgets lists widget definition codes in render order.
	Widgets []string `json:"widgets,omitempty" yaml:"widgets,omitempty"`
}

// Label returns the tab title with its icon.
func (t TabDefinition) Label() string {
	if t.Icon == "" {
		return t.Name
	}
	return t.Icon + " " + t.Name
}

// Options returns the columns of table this tab may select from, in the
// order declared by the tab (or the table when the tab declares none).
func (t TabDefinition) Options(table *IndicatorTable) []string {
	if len(t.Columns) == 0 {
		return table.Columns()
	}
	out := make([]string, 0, len(t.Columns))
	for _, col := range t.Columns {
		if table.HasColumn(col) {
			out = append(out, col)
		}
	}
	return out
}

// DefaultSelection is the first available option.
func (t TabDefinition) DefaultSelection(table *IndicatorTable) []string {
	options := t.Options(table)
	if len(options) == 0 {
		return nil
	}
	return options[:1]
}

// TabManifestDocument models a YAML manifest describing the local dashboard.
type TabManifestDocument struct {
	Version string             `json:"version" yaml:"version"`
	Title   string             `json:"title,omitempty" yaml:"title,omitempty"`
	Tabs    []TabDefinition    `json:"tabs" yaml:"tabs"`
	Widgets []WidgetDefinition `json:"widgets,omitempty" yaml:"widgets,omitempty"`
	Source  string             `json:"-" yaml:"-"`
}

// LoadManifestDocument registers the widget definitions declared by a manifest.
func (r *Registry) LoadManifestDocument(doc *TabManifestDocument) error {
	if doc == nil {
		return fmt.Errorf("dashboard: manifest document is nil")
	}
	for _, def := range doc.Widgets {
		if err := r.RegisterDefinition(def); err != nil {
			return fmt.Errorf("dashboard: register widget %s from %s: %w", def.Code, doc.Source, err)
		}
	}
	return nil
}

// ReadManifest loads a manifest file from disk.
func ReadManifest(path string) (*TabManifestDocument, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("dashboard: open manifest %s: %w", path, err)
	}
	defer f.Close()
	doc, err := DecodeManifest(f)
	if err != nil {
		return nil, fmt.Errorf("dashboard: decode manifest %s: %w", path, err)
	}
	doc.Source = path
	return doc, nil
}

// DecodeManifest reads a manifest from any reader.
func DecodeManifest(r io.Reader) (*TabManifestDocument, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var doc TabManifestDocument
	if err := decoder.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("dashboard: manifest is empty")
		}
		return nil, fmt.Errorf("dashboard: parse manifest: %w", err)
	}
	doc.applyDefaults()
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate ensures the manifest satisfies required fields.
func (doc *TabManifestDocument) Validate() error {
	if doc.Version != manifestVersionV1 {
		return fmt.Errorf("dashboard: unsupported manifest version %q", doc.Version)
	}
	if len(doc.Tabs) == 0 {
		return fmt.Errorf("dashboard: manifest declares no tabs")
	}
	seen := make(map[string]struct{}, len(doc.Tabs))
	for idx, tab := range doc.Tabs {
		if tab.Name == "" {
			return fmt.Errorf("dashboard: manifest tab at index %d is missing name", idx)
		}
		if tab.Code == "" {
			return fmt.Errorf("dashboard: manifest tab %q has no usable code", tab.Name)
		}
		if _, exists := seen[tab.Code]; exists {
			return fmt.Errorf("dashboard: manifest duplicates tab code %s", tab.Code)
		}
		seen[tab.Code] = struct{}{}
	}
	for idx, def := range doc.Widgets {
		if def.Code == "" {
			return fmt.Errorf("dashboard: manifest widget at index %d is missing code", idx)
		}
		if def.Name == "" {
			return fmt.Errorf("dashboard: manifest widget %s missing name", def.Code)
		}
	}
	return nil
}

func (doc *TabManifestDocument) applyDefaults() {
	if doc.Version == "" {
		doc.Version = manifestVersionV1
	}
	for i := range doc.Tabs {
		if doc.Tabs[i].Code == "" {
			doc.Tabs[i].Code = TabCode(doc.Tabs[i].Name)
		}
		if len(doc.Tabs[i].Widgets) == 0 {
			doc.Tabs[i].Widgets = append([]string(nil), localTabWidgets...)
		}
	}
}

// TabCode derives an ASCII snake case code from a tab name ("Educação" -> "educacao").
func TabCode(name string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), name)
	if err != nil {
		folded = name
	}
	return strcase.ToSnake(strings.TrimSpace(folded))
}
