package dashboard

import (
	"fmt"
	"sort"
)

// WideRow holds one (country, indicator) pair with a value per year, the
// layout the indicator API naturally produces.
type WideRow struct {
	Country   string
	Indicator string
	Years     []int
	Values    map[int]*float64
}

// PanelRow is one (country, indicator, year) observation in long form.
type PanelRow struct {
	Country   string   `json:"country"`
	Indicator string   `json:"indicator"`
	Year      int      `json:"year"`
	Value     *float64 `json:"value"`
}

// Panel is the long-form table of the World Bank dashboard.
type Panel struct {
	Rows []PanelRow `json:"rows"`
}

// NamedSelection maps API ids to display names, in selection order.
type NamedSelection struct {
	IDs   []string
	Names []string
}

// Name returns the display name for id, falling back to the id itself.
func (s NamedSelection) Name(id string) string {
	for i, candidate := range s.IDs {
		if candidate == id && i < len(s.Names) {
			return s.Names[i]
		}
	}
	return id
}

// PivotObservations arranges observations into one wide row per requested
// (country, indicator) pair covering every year of [startYear, endYear].
// Years without an observation hold nil. Ids are replaced by display names.
func PivotObservations(obs []Observation, countries, indicators NamedSelection, startYear, endYear int) []WideRow {
	if endYear < startYear {
		startYear, endYear = endYear, startYear
	}
	years := make([]int, 0, endYear-startYear+1)
	for y := startYear; y <= endYear; y++ {
		years = append(years, y)
	}
	type key struct{ country, indicator string }
	index := make(map[key]int, len(countries.IDs)*len(indicators.IDs))
	rows := make([]WideRow, 0, len(countries.IDs)*len(indicators.IDs))
	for _, c := range countries.IDs {
		for _, i := range indicators.IDs {
			k := key{c, i}
			if _, dup := index[k]; dup {
				continue
			}
			index[k] = len(rows)
			rows = append(rows, WideRow{
				Country:   countries.Name(c),
				Indicator: indicators.Name(i),
				Years:     years,
				Values:    make(map[int]*float64, len(years)),
			})
		}
	}
	for _, o := range obs {
		pos, ok := index[key{o.CountryID, o.IndicatorID}]
		if !ok || o.Year < startYear || o.Year > endYear {
			continue
		}
		rows[pos].Values[o.Year] = o.Value
	}
	return rows
}

// Melt turns wide rows into long panel rows ordered by country, indicator
// and year. Each (country, indicator, year) key appears once.
func Melt(wide []WideRow) Panel {
	type key struct {
		country, indicator string
		year               int
	}
	seen := make(map[key]struct{})
	var rows []PanelRow
	for _, w := range wide {
		for _, year := range w.Years {
			k := key{w.Country, w.Indicator, year}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			rows = append(rows, PanelRow{
				Country:   w.Country,
				Indicator: w.Indicator,
				Year:      year,
				Value:     w.Values[year],
			})
		}
	}
	sort.SliceStable(rows, func(a, b int) bool {
		if rows[a].Country != rows[b].Country {
			return rows[a].Country < rows[b].Country
		}
		if rows[a].Indicator != rows[b].Indicator {
			return rows[a].Indicator < rows[b].Indicator
		}
		return rows[a].Year < rows[b].Year
	})
	return Panel{Rows: rows}
}

// Filter keeps the rows whose indicator is listed.
func (p Panel) Filter(indicators []string) Panel {
	allowed := make(map[string]struct{}, len(indicators))
	for _, ind := range indicators {
		allowed[ind] = struct{}{}
	}
	out := Panel{}
	for _, row := range p.Rows {
		if _, ok := allowed[row.Indicator]; ok {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// Countries returns the distinct countries in order of first appearance.
func (p Panel) Countries() []string {
	return distinct(p.Rows, func(r PanelRow) string { return r.Country })
}

// Indicators returns the distinct indicators in order of first appearance.
func (p Panel) Indicators() []string {
	return distinct(p.Rows, func(r PanelRow) string { return r.Indicator })
}

// Years returns the distinct years in ascending order.
func (p Panel) Years() []int {
	seen := map[int]struct{}{}
	var years []int
	for _, row := range p.Rows {
		if _, ok := seen[row.Year]; ok {
			continue
		}
		seen[row.Year] = struct{}{}
		years = append(years, row.Year)
	}
	sort.Ints(years)
	return years
}

// Observed returns the rows for one country/indicator that carry a value,
// sorted by year.
func (p Panel) Observed(country, indicator string) []PanelRow {
	var rows []PanelRow
	for _, row := range p.Rows {
		if row.Country == country && row.Indicator == indicator && row.Value != nil {
			rows = append(rows, row)
		}
	}
	sort.SliceStable(rows, func(a, b int) bool { return rows[a].Year < rows[b].Year })
	return rows
}

// PanelSeries is one chart line of the panel.
type PanelSeries struct {
	Legend    string
	Country   string
	Indicator string
	Values    map[int]*float64
}

// Series groups the rows by legend "{country} - {indicator}".
func (p Panel) Series() []PanelSeries {
	index := map[string]int{}
	var out []PanelSeries
	for _, row := range p.Rows {
		legend := Legend(row.Country, row.Indicator)
		pos, ok := index[legend]
		if !ok {
			pos = len(out)
			index[legend] = pos
			out = append(out, PanelSeries{
				Legend:    legend,
				Country:   row.Country,
				Indicator: row.Indicator,
				Values:    map[int]*float64{},
			})
		}
		out[pos].Values[row.Year] = row.Value
	}
	return out
}

// Legend formats the chart legend for a country/indicator pair.
func Legend(country, indicator string) string {
	return fmt.Sprintf("%s - %s", country, indicator)
}

func distinct(rows []PanelRow, pick func(PanelRow) string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, row := range rows {
		v := pick(row)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
