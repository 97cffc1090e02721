package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ettle/strcase"
	"gopkg.in/yaml.v3"

	"github.com/mozdados/mozdados/components/dashboard"
)

type manifestCmd struct {
	AddTab addTabCmd        `cmd:"" name:"add-tab" help:"Add a tab to a manifest, creating the file when missing."`
	Check  checkManifestCmd `cmd:"" help:"Validate a manifest, its tab widgets and the columns it expects in the spreadsheet."`
}

type addTabCmd struct {
	Path        string   `arg:"" type:"path" help:"Manifest YAML file to update."`
	Name        string   `required:"" help:"Display name of the tab."`
	Code        string   `help:"Tab code; derived from the name when empty."`
	Icon        string   `help:"Emoji shown before the name."`
	Description string   `help:"One-line description."`
	Column      []string `help:"Indicator columns the tab may select (repeatable). Empty allows every column."`
	Overwrite   bool     `help:"Replace an existing tab with the same code."`

	out io.Writer
}

func (cmd *addTabCmd) Run(_ context.Context) error {
	path, err := filepath.Abs(cmd.Path)
	if err != nil {
		return fmt.Errorf("manifest: resolve path: %w", err)
	}
	doc, err := loadOrInitManifest(path)
	if err != nil {
		return err
	}
	tab := dashboard.TabDefinition{
		Code:        strings.TrimSpace(cmd.Code),
		Name:        strings.TrimSpace(cmd.Name),
		Icon:        cmd.Icon,
		Description: cmd.Description,
		Columns:     cmd.Column,
	}
	if tab.Code == "" {
		tab.Code = dashboard.TabCode(tab.Name)
	} else {
		tab.Code = strcase.ToSnake(tab.Code)
	}
	if tab.Code == "" {
		return fmt.Errorf("manifest: tab %q has no usable code", cmd.Name)
	}

	replaced := false
	for idx := range doc.Tabs {
		if doc.Tabs[idx].Code != tab.Code {
			continue
		}
		if !cmd.Overwrite {
			return fmt.Errorf("manifest: %s already defines tab %s (use --overwrite to replace)", path, tab.Code)
		}
		doc.Tabs[idx] = tab
		replaced = true
	}
	if !replaced {
		doc.Tabs = append(doc.Tabs, tab)
	}
	if err := doc.Validate(); err != nil {
		return err
	}
	if err := writeManifest(path, doc); err != nil {
		return err
	}
	fmt.Fprintf(writerOr(cmd.out), "✓ Added tab %s to %s\n", tab.Code, path)
	return nil
}

type checkManifestCmd struct {
	Path string `arg:"" type:"path" help:"Manifest YAML file."`
	Data string `help:"Spreadsheet to check the declared columns against." type:"path"`

	out io.Writer
}

func (cmd *checkManifestCmd) Run(_ context.Context) error {
	doc, err := dashboard.ReadManifest(cmd.Path)
	if err != nil {
		return err
	}
	registry := dashboard.NewRegistry()
	if err := dashboard.RegisterProviders(registry, nil); err != nil {
		return err
	}
	if err := registry.LoadManifestDocument(doc); err != nil {
		return err
	}
	if err := registry.CheckTabs(doc.Tabs); err != nil {
		return err
	}
	out := writerOr(cmd.out)
	var table *dashboard.IndicatorTable
	if cmd.Data != "" {
		if table, err = dashboard.LoadTable(cmd.Data); err != nil {
			return err
		}
	}
	missing := 0
	for _, tab := range doc.Tabs {
		fmt.Fprintf(out, "%s\t%s\n", tab.Code, tab.Label())
		if table == nil {
			continue
		}
		for _, col := range tab.Columns {
			if !table.HasColumn(col) {
				fmt.Fprintf(out, "  missing column %q\n", col)
				missing++
			}
		}
	}
	if missing > 0 {
		return fmt.Errorf("manifest: %d declared columns are missing from %s", missing, cmd.Data)
	}
	return nil
}

func loadOrInitManifest(path string) (*dashboard.TabManifestDocument, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &dashboard.TabManifestDocument{
				Version: dashboard.ManifestVersion,
				Title:   "Mozdados - Dashboard",
				Source:  path,
			}, nil
		}
		return nil, fmt.Errorf("manifest: stat %s: %w", path, err)
	}
	return dashboard.ReadManifest(path)
}

func writeManifest(path string, doc *dashboard.TabManifestDocument) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("manifest: mkdir %s: %w", filepath.Dir(path), err)
	}
	file, err := os.Create(path) //nolint:gosec
	if err != nil {
		return fmt.Errorf("manifest: create %s: %w", path, err)
	}
	defer file.Close()

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("manifest: write %s: %w", path, err)
	}
	return encoder.Close()
}

func writerOr(w io.Writer) io.Writer {
	if w == nil {
		return os.Stdout
	}
	return w
}
