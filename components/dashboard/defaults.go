package dashboard

import (
	"github.com/go-echarts/go-echarts/v2/types"
)

// Widget definition codes.
const (
	WidgetKPICards  = "mozdados.widget.kpi_cards"
	WidgetLineChart = "mozdados.widget.line_chart"
	WidgetAreaChart = "mozdados.widget.area_chart"
	WidgetHistogram = "mozdados.widget.histogram"
	WidgetDataTable = "mozdados.widget.data_table"
	WidgetExport    = "mozdados.widget.export"
	WidgetChat      = "mozdados.widget.chat"
	WidgetAbout     = "mozdados.widget.about"
)

// World Bank dashboard defaults.
const (
	DefaultCountry   = "Mozambique"
	DefaultIndicator = "Agricultural land (sq. km)"
	DefaultStartYear = 2000
	DefaultEndYear   = 2020
	MinYear          = 1960
	MaxYear          = 2023
)

// World Bank dashboard area codes.
const (
	AreaIndicators = "indicador"
	AreaAssistant  = "analise_ia"
	AreaAbout      = "sobre"
)

const (
	localTitle     = "Mozdados - Dashboard"
	worldBankTitle = "Mozdados - Banco Mundial"

	worldBankCaption = "ℹ Os dados utilizados neste projecto são fornecidos pelo **Banco Mundial** através da *world bank api*"

	// SearchHint explains how to find indicators by their English names.
	SearchHint = "Por exemplo: Como encontro a inflação? Comece escrevendo com letra maiúscula em inglês na barra de seleção de indicadores: **Inflation** ... e selecione o seu indicador. Noutros casos como **PIB** deve ser GDP... Caso ainda enfrente dificuldade pergunte ao **Chat**"
)

// AboutSections is the static content of the project tab.
var AboutSections = []AboutSection{
	{
		Heading: "",
		Body:    "🌍 O **Mozdados** é mais do que um dashboard: é um passo em direção a uma cultura de **dados abertos e acessíveis**, feita por quem acredita que informação é poder quando compartilhada.",
	},
	{
		Heading: "🧩 Utilidade",
		Items: []string{
			"Permite comparar países e indicadores de forma dinâmica.",
			"Facilita o acesso a dados históricos e tendências recentes.",
			"Apoia pesquisadores, estudantes, jornalistas e cidadãos na análise de informações confiáveis.",
			"Transforma estatísticas complexas em gráficos interativos e compreensíveis.",
		},
	},
	{
		Heading: "👨‍💻 Sobre o Desenvolvedor",
		Body:    "Este projecto foi criado por **Ginelio Hermílio**, desenvolvedor apaixonado por transparência de dados e pelo uso de tecnologia para aproximar a sociedade da informação. Seu foco é construir ferramentas que democratizem o acesso a dados, incentivem o debate público e fortaleçam a tomada de decisão baseada em evidências.",
	},
}

// AboutSection is one block of the project tab.
type AboutSection struct {
	Heading string   `json:"heading,omitempty"`
	Body    string   `json:"body,omitempty"`
	Items   []string `json:"items,omitempty"`
}

var localTabWidgets = []string{
	WidgetKPICards,
	WidgetLineChart,
	WidgetAreaChart,
	WidgetHistogram,
	WidgetDataTable,
	WidgetExport,
}

var defaultTabs = []TabDefinition{
	{Code: "saude", Name: "Saúde", Icon: "🏥"},
	{Code: "educacao", Name: "Educação", Icon: "🎓"},
	{Code: "financas", Name: "Finanças", Icon: "💰"},
	{Code: "banca", Name: "Banca", Icon: "🏦"},
}

var worldBankAreas = []WidgetAreaDefinition{
	{
		Code: AreaIndicators,
		Name: "Indicador",
		Icon: "🏦",
		Widgets: []WidgetInstance{
			{ID: "indicador.kpi_cards", DefinitionID: WidgetKPICards, Configuration: map[string]any{"limit": 4}},
			{ID: "indicador.data_table", DefinitionID: WidgetDataTable, Configuration: map[string]any{"order": "asc"}},
			{ID: "indicador.export", DefinitionID: WidgetExport, Configuration: map[string]any{"formats": []any{"csv", "xlsx"}}},
			{ID: "indicador.line_chart", DefinitionID: WidgetLineChart, Configuration: map[string]any{}},
			{ID: "indicador.area_chart", DefinitionID: WidgetAreaChart, Configuration: map[string]any{}},
		},
	},
	{
		Code:        AreaAssistant,
		Name:        "Análise IA",
		Icon:        "🤖",
		Description: "Um assistente virtual para explorar dados e responder sobre economia",
		Widgets: []WidgetInstance{
			{ID: "analise_ia.chat", DefinitionID: WidgetChat, Configuration: map[string]any{}},
		},
	},
	{
		Code: AreaAbout,
		Name: "Sobre o Projecto",
		Icon: "ℹ️",
		Widgets: []WidgetInstance{
			{ID: "sobre.about", DefinitionID: WidgetAbout, Configuration: map[string]any{}},
		},
	},
}

var chartThemes = []string{
	types.ThemeWesteros,
	types.ThemeWalden,
	types.ThemeWonderland,
	types.ThemeChalk,
	"white",
}

var defaultWidgetDefinitions = []WidgetDefinition{
	{
		Code:          WidgetKPICards,
		Name:          "Indicadores Recentes",
		NameLocalized: map[string]string{"en": "Recent indicators"},
		Description:   "Current value and change versus the previous period",
		Category:      "stats",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"limit": map[string]any{"type": "integer", "minimum": 1, "maximum": maxKPICards, "default": maxKPICards},
			},
			"additionalProperties": false,
		},
	},
	{
		Code:          WidgetLineChart,
		Name:          "Evolução Temporal",
		NameLocalized: map[string]string{"en": "Time series"},
		Description:   "Line chart with markers per indicator",
		Category:      "charts",
		Schema:        chartConfigSchema(nil),
	},
	{
		Code:          WidgetAreaChart,
		Name:          "Volume Acumulado",
		NameLocalized: map[string]string{"en": "Stacked area"},
		Description:   "Stacked area chart per indicator",
		Category:      "charts",
		Schema:        chartConfigSchema(nil),
	},
	{
		Code:          WidgetHistogram,
		Name:          "Distribuição/Frequência",
		NameLocalized: map[string]string{"en": "Distribution"},
		Description:   "Histogram over shared equal-width bins",
		Category:      "charts",
		Schema: chartConfigSchema(map[string]any{
			"bins": map[string]any{"type": "integer", "minimum": 2, "maximum": 100, "default": DefaultHistogramBins},
		}),
	},
	{
		Code:          WidgetDataTable,
		Name:          "Dados Detalhados",
		NameLocalized: map[string]string{"en": "Detailed data"},
		Description:   "Tabular view of the filtered data",
		Category:      "data",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"order": map[string]any{"type": "string", "enum": []string{"asc", "desc"}, "default": "desc"},
			},
			"additionalProperties": false,
		},
	},
	{
		Code:          WidgetExport,
		Name:          "Exportar Dados",
		NameLocalized: map[string]string{"en": "Export data"},
		Description:   "CSV and Excel downloads of the filtered data",
		Category:      "data",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"formats": map[string]any{
					"type":        "array",
					"minItems":    1,
					"uniqueItems": true,
					"items":       map[string]any{"type": "string", "enum": []string{string(FormatCSV), string(FormatExcel)}},
				},
			},
			"additionalProperties": false,
		},
	},
	{
		Code:          WidgetChat,
		Name:          "Análise Inteligente",
		NameLocalized: map[string]string{"en": "Assistant"},
		Description:   "Chat with the Databot assistant about the selected data",
		Category:      "assistant",
		Schema: map[string]any{
			"type":                 "object",
			"properties":           map[string]any{},
			"additionalProperties": false,
		},
	},
	{
		Code:          WidgetAbout,
		Name:          "Sobre o Projecto",
		NameLocalized: map[string]string{"en": "About"},
		Description:   "Static project description",
		Category:      "content",
		Schema: map[string]any{
			"type":                 "object",
			"properties":           map[string]any{},
			"additionalProperties": false,
		},
	},
}

func chartConfigSchema(extra map[string]any) map[string]any {
	props := map[string]any{
		"theme": map[string]any{
			"type": "string",
			"enum": chartThemes,
		},
		"height": map[string]any{
			"type":    "string",
			"pattern": "^[0-9]+(px|%|vh)$",
			"default": defaultChartHeight,
		},
	}
	for key, value := range extra {
		props[key] = value
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
}

// DefaultTabs returns copies of the four local dashboard tabs.
func DefaultTabs() []TabDefinition {
	out := make([]TabDefinition, len(defaultTabs))
	for i, tab := range defaultTabs {
		tab.Widgets = append([]string(nil), localTabWidgets...)
		out[i] = tab
	}
	return out
}

// WorldBankAreas returns copies of the World Bank dashboard areas.
func WorldBankAreas() []WidgetAreaDefinition {
	out := make([]WidgetAreaDefinition, len(worldBankAreas))
	for i, area := range worldBankAreas {
		area.Widgets = append([]WidgetInstance(nil), area.Widgets...)
		for j := range area.Widgets {
			area.Widgets[j].AreaCode = area.Code
		}
		out[i] = area
	}
	return out
}

// DefaultWidgetDefinitions returns copies of built-in widget definitions.
func DefaultWidgetDefinitions() []WidgetDefinition {
	out := make([]WidgetDefinition, len(defaultWidgetDefinitions))
	copy(out, defaultWidgetDefinitions)
	return out
}

// DefaultPanelRequest is the selection shown before the user filters.
func DefaultPanelRequest() PanelRequest {
	return PanelRequest{
		Countries:  []string{DefaultCountry},
		Indicators: []string{DefaultIndicator},
		StartYear:  DefaultStartYear,
		EndYear:    DefaultEndYear,
	}
}
