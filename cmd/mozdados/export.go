package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/mozdados/mozdados/components/dashboard"
)

type exportCmd struct {
	Local     exportLocalCmd `cmd:"" help:"Export one tab of the local spreadsheet."`
	WorldBank exportPanelCmd `cmd:"" name:"worldbank" help:"Export a World Bank panel."`
}

type exportLocalCmd struct {
	Tab     string   `arg:"" help:"Tab code (saude, educacao, financas, banca)."`
	Data    string   `help:"Local spreadsheet (.xlsx or .csv)." type:"path" env:"MOZDADOS_DATA"`
	Start   string   `help:"First month (YYYY-MM-DD)."`
	End     string   `help:"Last month (YYYY-MM-DD)."`
	Columns []string `name:"column" short:"c" help:"Indicator columns to include (repeatable). Defaults to the tab default."`
	Format  string   `default:"csv" enum:"csv,xlsx" help:"Output format."`
	Out     string   `short:"o" type:"path" help:"Output file. Defaults to the download name in the working directory."`
}

func (c *exportLocalCmd) Run(ctx context.Context, rt *runtime) error {
	cfg := *rt.cfg
	overrideString(&cfg.DataPath, c.Data)
	a, err := newApp(&cfg, rt.logger)
	if err != nil {
		return err
	}
	defer a.Close()

	values := url.Values{}
	if c.Start != "" {
		values.Set(dashboard.ParamStart, c.Start)
	}
	if c.End != "" {
		values.Set(dashboard.ParamEnd, c.End)
	}
	for _, col := range c.Columns {
		values.Add(c.Tab, col)
	}
	req, err := dashboard.ParseLocalQuery(values, a.Tabs)
	if err != nil {
		return err
	}
	format, err := dashboard.ParseExportFormat(c.Format)
	if err != nil {
		return err
	}
	download, err := a.Service.ExportLocal(ctx, req, c.Tab, format)
	if err != nil {
		return err
	}
	return writeDownload(rt, download, c.Out)
}

type exportPanelCmd struct {
	Countries  []string `name:"country" help:"Country names (repeatable). Defaults to Mozambique."`
	Indicators []string `name:"indicator" help:"Indicator names (repeatable)."`
	StartYear  int      `name:"start-year" help:"First year."`
	EndYear    int      `name:"end-year" help:"Last year."`
	Format     string   `default:"csv" enum:"csv,xlsx" help:"Output format."`
	Out        string   `short:"o" type:"path" help:"Output file."`
}

func (c *exportPanelCmd) Run(ctx context.Context, rt *runtime) error {
	a, err := newApp(rt.cfg, rt.logger)
	if err != nil {
		return err
	}
	defer a.Close()

	values := url.Values{}
	for _, country := range c.Countries {
		values.Add(dashboard.ParamCountries, country)
	}
	for _, indicator := range c.Indicators {
		values.Add(dashboard.ParamIndicators, indicator)
	}
	if c.StartYear != 0 {
		values.Set(dashboard.ParamStartYear, strconv.Itoa(c.StartYear))
	}
	if c.EndYear != 0 {
		values.Set(dashboard.ParamEndYear, strconv.Itoa(c.EndYear))
	}
	req, err := dashboard.ParsePanelQuery(values)
	if err != nil {
		return err
	}
	format, err := dashboard.ParseExportFormat(c.Format)
	if err != nil {
		return err
	}
	download, err := a.Service.ExportPanel(ctx, req, format)
	if err != nil {
		return err
	}
	return writeDownload(rt, download, c.Out)
}

func writeDownload(rt *runtime, download dashboard.Download, out string) error {
	if out == "" {
		out = download.FileName
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(out, download.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	rt.logger.Info("mozdados: export written", "path", out, "bytes", len(download.Data))
	return nil
}
