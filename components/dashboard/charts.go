package dashboard

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

const defaultChartHeight = "500px"

// Chart kinds understood by ChartBuilder.
const (
	ChartLine      = "line"
	ChartArea      = "area"
	ChartHistogram = "histogram"
)

// ChartSpec is the renderer independent description of a chart.
type ChartSpec struct {
	Kind        string        `json:"kind"`
	Title       string        `json:"title"`
	XAxisName   string        `json:"x_axis_name,omitempty"`
	YAxisName   string        `json:"y_axis_name,omitempty"`
	LegendTitle string        `json:"legend_title,omitempty"`
	XAxis       []string      `json:"x_axis"`
	Series      []ChartSeries `json:"series"`

	// LegendBottom places the legend horizontally under the plot.
	LegendBottom bool `json:"legend_bottom,omitempty"`

	// Theme and Height override the builder defaults when set.
	Theme  string `json:"theme,omitempty"`
	Height string `json:"height,omitempty"`

	// ChartID names the chart element and its script variables. It must be
	// unique per page; go-echarts generates a random one when empty.
	ChartID string `json:"chart_id,omitempty"`
}

// ChartSeries represents a set of values plotted for a given legend entry.
type ChartSeries struct {
	Name   string     `json:"name"`
	Values []*float64 `json:"values"`
}

// ChartBuilder renders server-side chart HTML with go-echarts.
type ChartBuilder struct {
	cache      *TTLCache[string]
	theme      string
	assetsHost string
	height     string
}

// ChartOption customizes builder behavior.
type ChartOption func(*ChartBuilder)

// WithChartCache injects a render cache. A nil cache disables caching.
func WithChartCache(cache *TTLCache[string]) ChartOption {
	return func(b *ChartBuilder) {
		b.cache = cache
	}
}

// WithChartTheme sets the echarts theme (defaults to westeros).
func WithChartTheme(theme string) ChartOption {
	return func(b *ChartBuilder) {
		b.theme = theme
	}
}

// WithChartAssetsHost rewrites the assets host so ECharts JS loads from a CDN.
func WithChartAssetsHost(host string) ChartOption {
	return func(b *ChartBuilder) {
		b.assetsHost = ensureTrailingSlash(host)
	}
}

// WithChartHeight sets the CSS height of rendered charts.
func WithChartHeight(height string) ChartOption {
	return func(b *ChartBuilder) {
		b.height = height
	}
}

// NewChartBuilder builds a chart renderer.
func NewChartBuilder(options ...ChartOption) *ChartBuilder {
	b := &ChartBuilder{
		cache:  NewChartCache(5 * time.Minute),
		theme:  types.ThemeWesteros,
		height: defaultChartHeight,
	}
	for _, opt := range options {
		opt(b)
	}
	return b
}

// Render converts the spec into echarts markup, memoized by spec hash.
func (b *ChartBuilder) Render(spec ChartSpec) (string, error) {
	if len(spec.Series) == 0 {
		return "", fmt.Errorf("dashboard: chart series is required")
	}
	render := func() (string, error) {
		switch strings.ToLower(spec.Kind) {
		case ChartLine:
			return b.renderLine(spec, false)
		case ChartArea:
			return b.renderLine(spec, true)
		case ChartHistogram:
			return b.renderBars(spec)
		default:
			return "", fmt.Errorf("dashboard: unsupported chart type: %s", spec.Kind)
		}
	}
	if b.cache == nil {
		return render()
	}
	return b.cache.GetOrLoad(spec.Kind+":"+configHash(spec), render)
}

func (b *ChartBuilder) renderLine(spec ChartSpec, area bool) (string, error) {
	line := charts.NewLine()
	line.SetGlobalOptions(b.globalChartOptions(spec)...)
	line.SetXAxis(spec.XAxis)
	for _, s := range spec.Series {
		line.AddSeries(s.Name, toLineData(s.Values))
	}
	if area {
		line.SetSeriesOptions(
			charts.WithLineChartOpts(opts.LineChart{Stack: "total"}),
			charts.WithAreaStyleOpts(opts.AreaStyle{Opacity: 0.4}),
		)
	} else {
		line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(true)}))
	}
	return renderChart(line)
}

func (b *ChartBuilder) renderBars(spec ChartSpec) (string, error) {
	bar := charts.NewBar()
	bar.SetGlobalOptions(b.globalChartOptions(spec)...)
	bar.SetXAxis(spec.XAxis)
	for _, s := range spec.Series {
		bar.AddSeries(s.Name, toBarData(s.Values))
	}
	return renderChart(bar)
}

func renderChart(renderable interface{ Render(io.Writer) error }) (string, error) {
	var buf bytes.Buffer
	if err := renderable.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (b *ChartBuilder) globalChartOptions(spec ChartSpec) []charts.GlobalOpts {
	initOpts := opts.Initialization{
		Theme:     b.theme,
		Width:     "100%",
		Height:    b.height,
		PageTitle: spec.Title,
	}
	if spec.Theme != "" {
		initOpts.Theme = spec.Theme
	}
	if spec.Height != "" {
		initOpts.Height = spec.Height
	}
	if b.assetsHost != "" {
		initOpts.AssetsHost = b.assetsHost
	}
	if spec.ChartID != "" {
		initOpts.ChartID = spec.ChartID
	}
	legend := opts.Legend{Show: opts.Bool(true)}
	if spec.LegendBottom {
		legend.Orient = "horizontal"
		legend.Bottom = "0"
		legend.Left = "center"
	}
	return []charts.GlobalOpts{
		charts.WithTitleOpts(opts.Title{Title: spec.Title, Subtitle: spec.LegendTitle}),
		charts.WithInitializationOpts(initOpts),
		charts.WithLegendOpts(legend),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithToolboxOpts(opts.Toolbox{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: spec.XAxisName}),
		charts.WithYAxisOpts(opts.YAxis{Name: spec.YAxisName}),
	}
}

// ChartElementID turns a widget instance id into an id usable both as an
// element id and inside a script identifier.
func ChartElementID(instanceID string) string {
	var b strings.Builder
	b.WriteString("chart_")
	for _, r := range instanceID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func toLineData(values []*float64) []opts.LineData {
	data := make([]opts.LineData, len(values))
	for i, v := range values {
		if v != nil {
			data[i] = opts.LineData{Value: *v}
		} else {
			data[i] = opts.LineData{Value: "-"}
		}
	}
	return data
}

func toBarData(values []*float64) []opts.BarData {
	data := make([]opts.BarData, len(values))
	for i, v := range values {
		if v != nil {
			data[i] = opts.BarData{Value: *v}
		} else {
			data[i] = opts.BarData{Value: 0}
		}
	}
	return data
}

// LocalLineSpec plots the selected columns of a local frame over time.
func LocalLineSpec(table *IndicatorTable) ChartSpec {
	cols := table.Columns()
	return ChartSpec{
		Kind:        ChartLine,
		Title:       "Evolução Temporal: " + strings.Join(cols, ", "),
		XAxisName:   "Período",
		YAxisName:   "Valor",
		LegendTitle: "Indicadores",
		XAxis:       dateLabels(table.Dates()),
		Series:      tableSeries(table),
	}
}

// LocalAreaSpec stacks the selected columns of a local frame as areas.
func LocalAreaSpec(table *IndicatorTable) ChartSpec {
	cols := table.Columns()
	return ChartSpec{
		Kind:        ChartArea,
		Title:       "Volume Acumulado (Área) " + strings.Join(cols, ", "),
		XAxisName:   "Período",
		YAxisName:   "Valor",
		LegendTitle: "Indicadores",
		XAxis:       dateLabels(table.Dates()),
		Series:      tableSeries(table),
	}
}

// LocalHistogramSpec bins every selected column over shared bins.
func LocalHistogramSpec(table *IndicatorTable, bins int) ChartSpec {
	cols := table.Columns()
	values := make(map[string][]*float64, len(cols))
	for _, col := range cols {
		values[col] = table.Column(col)
	}
	hist := BuildHistogram(cols, values, bins)
	series := make([]ChartSeries, len(hist.Series))
	for i, s := range hist.Series {
		counts := make([]*float64, len(s.Counts))
		for j, c := range s.Counts {
			counts[j] = floatPtr(float64(c))
		}
		series[i] = ChartSeries{Name: s.Name, Values: counts}
	}
	return ChartSpec{
		Kind:        ChartHistogram,
		Title:       "Distribuição/Frequência dos Valores",
		XAxisName:   "Valor",
		YAxisName:   "Frequência",
		LegendTitle: "Indicadores",
		XAxis:       hist.Labels(),
		Series:      series,
	}
}

// PanelLineSpec plots one line per country/indicator legend.
func PanelLineSpec(panel Panel, indicators []string) ChartSpec {
	xAxis, series := panelSeries(panel)
	return ChartSpec{
		Kind:         ChartLine,
		Title:        "Evolução Temporal: " + strings.Join(indicators, ", "),
		XAxisName:    "Ano",
		YAxisName:    "Valor",
		LegendTitle:  "Indicadores",
		XAxis:        xAxis,
		Series:       series,
		LegendBottom: true,
	}
}

// PanelAreaSpec stacks one area per country/indicator legend.
func PanelAreaSpec(panel Panel, indicators []string) ChartSpec {
	xAxis, series := panelSeries(panel)
	return ChartSpec{
		Kind:         ChartArea,
		Title:        "Volume Acumulado (Área): " + strings.Join(indicators, ", "),
		XAxisName:    "Período",
		YAxisName:    "Valor",
		LegendTitle:  "Indicadores",
		XAxis:        xAxis,
		Series:       series,
		LegendBottom: true,
	}
}

func panelSeries(panel Panel) ([]string, []ChartSeries) {
	years := panel.Years()
	xAxis := make([]string, len(years))
	for i, y := range years {
		xAxis[i] = fmt.Sprintf("%d", y)
	}
	var series []ChartSeries
	for _, s := range panel.Series() {
		values := make([]*float64, len(years))
		for i, y := range years {
			values[i] = s.Values[y]
		}
		series = append(series, ChartSeries{Name: s.Legend, Values: values})
	}
	return xAxis, series
}

func tableSeries(table *IndicatorTable) []ChartSeries {
	cols := table.Columns()
	series := make([]ChartSeries, len(cols))
	for i, col := range cols {
		series[i] = ChartSeries{Name: col, Values: table.Column(col)}
	}
	return series
}

func dateLabels(dates []time.Time) []string {
	labels := make([]string, len(dates))
	for i, d := range dates {
		labels[i] = d.Format(time.DateOnly)
	}
	return labels
}
