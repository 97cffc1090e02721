package dashboard

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDelta(t *testing.T) {
	t.Parallel()
	assert.InDelta(t, 10.0, Delta(110, 100), 1e-9)
	assert.InDelta(t, -50.0, Delta(50, 100), 1e-9)
	assert.Equal(t, 0.0, Delta(10, 0))
	assert.Equal(t, 0.0, Delta(10, math.NaN()))
}

func TestFormatValue(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "1,234,567.89", FormatValue(floatPtr(1234567.891)))
	assert.Equal(t, "—", FormatValue(nil))
}

func TestLocalKPIs(t *testing.T) {
	t.Parallel()
	cards := LocalKPIs(sampleTable(t), []string{"Inflação", "Crédito", "missing"})
	require.Len(t, cards, 2)

	assert.Equal(t, "Inflação", cards[0].Label)
	assert.Equal(t, "4.00", cards[0].Value)
	assert.Equal(t, "100.0% (Mês ant.)", cards[0].Delta)
	assert.True(t, cards[0].Positive)

	// previous value missing
	assert.Equal(t, "30.00", cards[1].Value)
	assert.Equal(t, "0.0% (Mês ant.)", cards[1].Delta)
}

func TestLocalKPIsSingleRowAndLimit(t *testing.T) {
	t.Parallel()
	cols := []string{"a", "b", "c", "d", "e"}
	table := NewIndicatorTable(cols)
	table.AppendRow(day(1), []*float64{floatPtr(1), floatPtr(2), floatPtr(3), floatPtr(4), floatPtr(5)})

	cards := LocalKPIs(table, cols)
	require.Len(t, cards, maxKPICards)
	assert.Equal(t, "0.0% (Mês ant.)", cards[0].Delta)
	assert.Empty(t, LocalKPIs(NewIndicatorTable(cols), cols))
}

func TestPanelKPIs(t *testing.T) {
	t.Parallel()
	groups := PanelKPIs(samplePanel(), []string{"Mozambique", "South Africa"}, []string{"Agricultural land", "GDP"}, 2020)
	require.Len(t, groups, 2)

	moz := groups[0]
	assert.Equal(t, "Indicadores Recentes de Mozambique - 2020 vs 2019", moz.Heading)
	require.Len(t, moz.Cards, 2)
	assert.Equal(t, "Agricultural land...", moz.Cards[0].Label)
	assert.Equal(t, "10.0% vs ano ant.", moz.Cards[0].Delta)
	assert.Equal(t, "2020 vs 2019", moz.Cards[0].Period)
	assert.Equal(t, "GDP", moz.Cards[1].Label)
	assert.Empty(t, moz.Cards[1].Delta)
	assert.Equal(t, "2020", moz.Cards[1].Period)

	assert.Empty(t, groups[1].Cards)
}

func TestPanelKPIsNameSkippedYears(t *testing.T) {
	t.Parallel()
	panel := Panel{Rows: []PanelRow{
		{Country: "Mozambique", Indicator: "GDP", Year: 2014, Value: floatPtr(200)},
		{Country: "Mozambique", Indicator: "GDP", Year: 2015},
		{Country: "Mozambique", Indicator: "GDP", Year: 2016},
		{Country: "Mozambique", Indicator: "GDP", Year: 2017, Value: floatPtr(250)},
		{Country: "Mozambique", Indicator: "GDP", Year: 2018},
	}}
	groups := PanelKPIs(panel, []string{"Mozambique"}, []string{"GDP"}, 2018)
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Cards, 1)

	card := groups[0].Cards[0]
	assert.Equal(t, "2017 vs 2014", card.Period)
	assert.Equal(t, "25.0% vs 2014", card.Delta)
	assert.Equal(t, "250.00", card.Value)
}

func TestTruncateLabel(t *testing.T) {
	t.Parallel()
	long := "Agricultural land (sq. km) in the region"
	assert.Equal(t, "Agricultural land (sq. km) in ...", truncateLabel(long))
}
