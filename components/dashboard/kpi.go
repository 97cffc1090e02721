package dashboard

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
)

const (
	maxKPICards      = 4
	kpiLabelMaxRunes = 30
	missingValue     = "—"
)

// KPICard is a current value with its change versus the prior period.
type KPICard struct {
	Label    string   `json:"label"`
	Value    string   `json:"value"`
	Delta    string   `json:"delta,omitempty"`
	Raw      *float64 `json:"raw,omitempty"`
	Change   *float64 `json:"change,omitempty"`
	Positive bool     `json:"positive"`
	// Period names the years compared, e.g. "2020 vs 2019".
	Period string `json:"period,omitempty"`
}

// KPIGroup is a titled row of cards.
type KPIGroup struct {
	Heading string    `json:"heading"`
	Cards   []KPICard `json:"cards"`
}

// Delta returns the percentage change from previous to current. A zero (or
// non finite) previous value yields zero.
func Delta(current, previous float64) float64 {
	if previous == 0 || math.IsNaN(previous) || math.IsInf(previous, 0) {
		return 0
	}
	d := (current - previous) / previous * 100
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return 0
	}
	return d
}

// FormatValue renders a value with thousands separators and two decimals.
func FormatValue(v *float64) string {
	if v == nil || math.IsNaN(*v) {
		return missingValue
	}
	return humanize.FormatFloat("#,###.##", *v)
}

// LocalKPIs builds up to four cards from the last two rows of the table.
// With a single row the previous value equals the current one.
func LocalKPIs(table *IndicatorTable, columns []string) []KPICard {
	n := table.Len()
	if n == 0 {
		return nil
	}
	cards := make([]KPICard, 0, maxKPICards)
	for _, col := range columns {
		if len(cards) == maxKPICards {
			break
		}
		if !table.HasColumn(col) {
			continue
		}
		current := table.Value(n-1, col)
		previous := current
		if n > 1 {
			previous = table.Value(n-2, col)
		}
		card := KPICard{Label: col, Value: FormatValue(current), Raw: current}
		change := 0.0
		if current != nil && previous != nil {
			change = Delta(*current, *previous)
		}
		card.Change = &change
		card.Positive = change >= 0
		card.Delta = fmt.Sprintf("%.1f%% (Mês ant.)", change)
		cards = append(cards, card)
	}
	return cards
}

// PanelKPIs builds one group per country with up to four indicator cards.
// Indicators with two or more observed years show a delta against the
// previous observed year; a single observation shows only the value. Years
// without a value are skipped, so a card names its years when they are not
// consecutive.
func PanelKPIs(panel Panel, countries, indicators []string, endYear int) []KPIGroup {
	groups := make([]KPIGroup, 0, len(countries))
	for _, country := range countries {
		group := KPIGroup{
			Heading: fmt.Sprintf("Indicadores Recentes de %s - %d vs %d", country, endYear, endYear-1),
		}
		for i, indicator := range indicators {
			if i >= maxKPICards {
				break
			}
			observed := panel.Observed(country, indicator)
			switch {
			case len(observed) >= 2:
				last, prior := observed[len(observed)-1], observed[len(observed)-2]
				change := Delta(*last.Value, *prior.Value)
				delta := fmt.Sprintf("%.1f%% vs ano ant.", change)
				if last.Year-prior.Year != 1 {
					delta = fmt.Sprintf("%.1f%% vs %d", change, prior.Year)
				}
				group.Cards = append(group.Cards, KPICard{
					Label:    truncateLabel(indicator),
					Value:    FormatValue(last.Value),
					Delta:    delta,
					Raw:      last.Value,
					Change:   &change,
					Positive: change >= 0,
					Period:   fmt.Sprintf("%d vs %d", last.Year, prior.Year),
				})
			case len(observed) == 1:
				only := observed[0]
				group.Cards = append(group.Cards, KPICard{
					Label:  indicator,
					Value:  FormatValue(only.Value),
					Raw:    only.Value,
					Period: fmt.Sprintf("%d", only.Year),
				})
			}
		}
		groups = append(groups, group)
	}
	return groups
}

func truncateLabel(label string) string {
	if utf8.RuneCountInString(label) <= kpiLabelMaxRunes {
		return label + "..."
	}
	runes := []rune(label)
	return string(runes[:kpiLabelMaxRunes]) + "..."
}
