package dashboard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fetchWidget(t *testing.T, code string, frame Frame, config map[string]any) (WidgetData, error) {
	t.Helper()
	reg := NewRegistry()
	require.NoError(t, RegisterProviders(reg, NewChartBuilder()))
	provider, ok := reg.Provider(code)
	require.True(t, ok, code)
	return provider.Fetch(context.Background(), WidgetContext{
		Instance: WidgetInstance{ID: "w", DefinitionID: code, Configuration: config},
		Frame:    frame,
	})
}

func localFrame(t *testing.T, selected ...string) Frame {
	return Frame{Local: &LocalFrame{Tab: DefaultTabs()[3], Table: sampleTable(t), Selected: selected}}
}

func panelFrame() Frame {
	return Frame{Panel: &PanelFrame{
		Request: PanelRequest{
			Countries:  []string{"Mozambique", "South Africa"},
			Indicators: []string{"Agricultural land", "GDP"},
			StartYear:  2019,
			EndYear:    2020,
		},
		Panel: samplePanel(),
	}}
}

func TestKPIProviderLocal(t *testing.T) {
	data, err := fetchWidget(t, WidgetKPICards, localFrame(t, "Inflação", "Crédito"), map[string]any{"limit": 1})
	require.NoError(t, err)

	groups := data["groups"].([]KPIGroup)
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Cards, 1)
	assert.Equal(t, "Inflação", groups[0].Cards[0].Label)
}

func TestKPIProviderPanelGroupsByCountry(t *testing.T) {
	data, err := fetchWidget(t, WidgetKPICards, panelFrame(), nil)
	require.NoError(t, err)

	groups := data["groups"].([]KPIGroup)
	require.Len(t, groups, 2)
	assert.Contains(t, groups[0].Heading, "Mozambique")
}

func TestChartProviderRendersHTML(t *testing.T) {
	data, err := fetchWidget(t, WidgetLineChart, localFrame(t, "Crédito"), nil)
	require.NoError(t, err)
	assert.Equal(t, ChartLine, data["chart_type"])
	assert.Contains(t, data["chart_html"], "echarts")

	data, err = fetchWidget(t, WidgetAreaChart, panelFrame(), map[string]any{"height": "300px"})
	require.NoError(t, err)
	assert.Contains(t, data["chart_html"], "300px")
}

func TestHistogramProviderRejectsPanels(t *testing.T) {
	_, err := fetchWidget(t, WidgetHistogram, panelFrame(), nil)
	assert.Error(t, err)

	data, err := fetchWidget(t, WidgetHistogram, localFrame(t, "Inflação"), map[string]any{"bins": 3})
	require.NoError(t, err)
	assert.Equal(t, ChartHistogram, data["chart_type"])
}

func TestDataTableProviderOrders(t *testing.T) {
	data, err := fetchWidget(t, WidgetDataTable, localFrame(t, "Inflação"), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{DateColumn, "Inflação"}, data["columns"])
	rows := data["rows"].([][]string)
	require.Len(t, rows, 3)
	assert.Equal(t, "2024-03-01", rows[0][0])

	data, err = fetchWidget(t, WidgetDataTable, panelFrame(), nil)
	require.NoError(t, err)
	assert.Equal(t, "Resumo dos dados Mozambique - 2020 vs 2019", data["title"])
	rows = data["rows"].([][]string)
	assert.Equal(t, "2019", rows[0][2])
}

func TestExportProviderLinks(t *testing.T) {
	data, err := fetchWidget(t, WidgetExport, localFrame(t, "Inflação"), nil)
	require.NoError(t, err)
	assert.Equal(t, "banca", data["tab"])
	links := data["links"].([]exportLink)
	require.Len(t, links, 2)
	assert.Equal(t, "mozdados_banca.csv", links[0].File)
	assert.Equal(t, "mozdados_banca.xlsx", links[1].File)

	data, err = fetchWidget(t, WidgetExport, panelFrame(), map[string]any{"formats": []any{"xlsx"}})
	require.NoError(t, err)
	links = data["links"].([]exportLink)
	require.Len(t, links, 1)
	assert.Equal(t, "mozdados.xlsx", links[0].File)
}

func TestChatProviderWithoutSessionShowsGreeting(t *testing.T) {
	data, err := fetchWidget(t, WidgetChat, Frame{}, nil)
	require.NoError(t, err)
	messages := data["messages"].([]ChatMessage)
	require.Len(t, messages, 1)
	assert.Equal(t, ChatGreeting, messages[0].Content)
}

func TestProvidersRequireFrame(t *testing.T) {
	_, err := fetchWidget(t, WidgetKPICards, Frame{}, nil)
	assert.ErrorIs(t, err, errNoFrame)

	data, err := fetchWidget(t, WidgetAbout, Frame{}, nil)
	require.NoError(t, err)
	assert.Equal(t, AboutSections, data["sections"])
}
