package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

var errNoFrame = errors.New("dashboard: widget has no data frame")

// RegisterProviders wires the built-in widget providers into reg.
func RegisterProviders(reg ProviderRegistry, charts *ChartBuilder) error {
	if charts == nil {
		charts = NewChartBuilder()
	}
	providers := map[string]Provider{
		WidgetKPICards:  ProviderFunc(kpiProvider),
		WidgetLineChart: chartProvider(charts, ChartLine),
		WidgetAreaChart: chartProvider(charts, ChartArea),
		WidgetHistogram: chartProvider(charts, ChartHistogram),
		WidgetDataTable: ProviderFunc(dataTableProvider),
		WidgetExport:    ProviderFunc(exportProvider),
		WidgetChat:      ProviderFunc(chatProvider),
		WidgetAbout:     ProviderFunc(aboutProvider),
	}
	for code, provider := range providers {
		if err := reg.RegisterProvider(code, provider); err != nil {
			return fmt.Errorf("dashboard: register provider %s: %w", code, err)
		}
	}
	return nil
}

func kpiProvider(_ context.Context, meta WidgetContext) (WidgetData, error) {
	limit := configInt(meta.Instance.Configuration, "limit", maxKPICards)
	switch {
	case meta.Frame.Local != nil:
		frame := meta.Frame.Local
		cards := LocalKPIs(frame.Table, frame.Selected)
		if len(cards) > limit {
			cards = cards[:limit]
		}
		return WidgetData{"heading": "Indicadores Recentes", "groups": []KPIGroup{{Cards: cards}}}, nil
	case meta.Frame.Panel != nil:
		frame := meta.Frame.Panel
		groups := PanelKPIs(frame.Panel, frame.Request.Countries, frame.Request.Indicators, frame.Request.EndYear)
		for i := range groups {
			if len(groups[i].Cards) > limit {
				groups[i].Cards = groups[i].Cards[:limit]
			}
		}
		return WidgetData{"groups": groups}, nil
	}
	return nil, errNoFrame
}

func chartProvider(charts *ChartBuilder, kind string) Provider {
	return ProviderFunc(func(_ context.Context, meta WidgetContext) (WidgetData, error) {
		var spec ChartSpec
		switch {
		case meta.Frame.Local != nil:
			table := meta.Frame.Local.Table.Select(meta.Frame.Local.Selected)
			switch kind {
			case ChartLine:
				spec = LocalLineSpec(table)
			case ChartArea:
				spec = LocalAreaSpec(table)
			default:
				spec = LocalHistogramSpec(table, configInt(meta.Instance.Configuration, "bins", DefaultHistogramBins))
			}
		case meta.Frame.Panel != nil:
			frame := meta.Frame.Panel
			indicators := frame.Request.Indicators
			filtered := frame.Panel.Filter(indicators)
			switch kind {
			case ChartLine:
				spec = PanelLineSpec(filtered, indicators)
			case ChartArea:
				spec = PanelAreaSpec(filtered, indicators)
			default:
				return nil, fmt.Errorf("dashboard: %s chart is not available for panels", kind)
			}
		default:
			return nil, errNoFrame
		}
		spec.Theme = configString(meta.Instance.Configuration, "theme", "")
		spec.Height = configString(meta.Instance.Configuration, "height", "")
		if meta.Instance.ID != "" {
			spec.ChartID = ChartElementID(meta.Instance.ID)
		}
		html, err := charts.Render(spec)
		if err != nil {
			return nil, err
		}
		return WidgetData{
			"chart_type": kind,
			"title":      spec.Title,
			"chart_html": html,
		}, nil
	})
}

func dataTableProvider(_ context.Context, meta WidgetContext) (WidgetData, error) {
	switch {
	case meta.Frame.Local != nil:
		table := meta.Frame.Local.Table.Select(meta.Frame.Local.Selected)
		rows := table.Descending()
		if configString(meta.Instance.Configuration, "order", "desc") == "asc" {
			rows = table.Rows()
		}
		out := make([][]string, len(rows))
		for i, row := range rows {
			cells := make([]string, 0, len(row.Values)+1)
			cells = append(cells, row.Date.Format(time.DateOnly))
			for _, v := range row.Values {
				cells = append(cells, FormatValue(v))
			}
			out[i] = cells
		}
		return WidgetData{
			"title":   "Dados Detalhados",
			"columns": append([]string{DateColumn}, table.Columns()...),
			"rows":    out,
		}, nil
	case meta.Frame.Panel != nil:
		frame := meta.Frame.Panel
		rows := frame.Panel.Rows
		out := make([][]string, len(rows))
		for i, row := range rows {
			out[i] = []string{row.Country, row.Indicator, strconv.Itoa(row.Year), FormatValue(row.Value)}
		}
		if configString(meta.Instance.Configuration, "order", "asc") == "desc" {
			for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
				out[i], out[j] = out[j], out[i]
			}
		}
		title := "Resumo dos dados"
		if len(frame.Request.Countries) > 0 {
			title = fmt.Sprintf("Resumo dos dados %s - %d vs %d", frame.Request.Countries[0], frame.Request.EndYear, frame.Request.EndYear-1)
		}
		return WidgetData{
			"title":   title,
			"columns": []string{panelHeaderCountry, panelHeaderIndicator, panelHeaderYear, panelHeaderValue},
			"rows":    out,
		}, nil
	}
	return nil, errNoFrame
}

type exportLink struct {
	Format string `json:"format"`
	Label  string `json:"label"`
	File   string `json:"file"`
}

func exportProvider(_ context.Context, meta WidgetContext) (WidgetData, error) {
	tab := ""
	switch {
	case meta.Frame.Local != nil:
		tab = meta.Frame.Local.Tab.Code
	case meta.Frame.Panel != nil:
	default:
		return nil, errNoFrame
	}
	formats := configStrings(meta.Instance.Configuration, "formats", []string{string(FormatCSV), string(FormatExcel)})
	links := make([]exportLink, 0, len(formats))
	for _, raw := range formats {
		format, err := ParseExportFormat(raw)
		if err != nil {
			return nil, err
		}
		label := "Baixar CSV"
		if format == FormatExcel {
			label = "Baixar Excel"
		}
		links = append(links, exportLink{Format: string(format), Label: label, File: format.FileName(tab)})
	}
	return WidgetData{"title": "📥 Exportar Dados", "tab": tab, "links": links}, nil
}

func chatProvider(_ context.Context, meta WidgetContext) (WidgetData, error) {
	data := WidgetData{
		"title":   "🤖 Análise Inteligente",
		"caption": "Um assistente virtual para explorar dados e responder sobre economia",
		"tips": []string{
			"📌 Dica: Pergunte sobre indicadores económicos ou tendências nos dados.",
			"Exemplo: *Explique o indicador Agricultural land (sq. km)*",
			"Caso não leve em conta os dados, copie e cole os dados que deseja analisar. Assim que os tiver, posso prosseguir com a análise.",
		},
	}
	if meta.Frame.Chat == nil || meta.Frame.Chat.Session == nil {
		data["messages"] = []ChatMessage{{Role: RoleAssistant, Content: ChatGreeting}}
		return data, nil
	}
	data["session_id"] = meta.Frame.Chat.Session.ID
	data["messages"] = meta.Frame.Chat.Session.Messages
	if meta.Frame.Chat.Notice != "" {
		data["notice"] = meta.Frame.Chat.Notice
	}
	return data, nil
}

func aboutProvider(context.Context, WidgetContext) (WidgetData, error) {
	return WidgetData{"sections": AboutSections}, nil
}

func configInt(cfg map[string]any, key string, fallback int) int {
	switch v := cfg[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	}
	return fallback
}

func configString(cfg map[string]any, key, fallback string) string {
	if v, ok := cfg[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func configStrings(cfg map[string]any, key string, fallback []string) []string {
	switch v := cfg[key].(type) {
	case []string:
		if len(v) > 0 {
			return v
		}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return fallback
}
