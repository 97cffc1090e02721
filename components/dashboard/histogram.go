package dashboard

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
)

// DefaultHistogramBins is the bin count of the distribution chart.
const DefaultHistogramBins = 15

// Histogram holds equal-width bins shared by several series.
type Histogram struct {
	Edges  []float64
	Series []HistogramSeries
}

// HistogramSeries counts one column's values per bin.
type HistogramSeries struct {
	Name   string
	Counts []int
}

// BuildHistogram bins every non-missing value of the named columns into
// bins equal-width buckets spanning the overall min and max. The last bin
// is closed on the right. When all values are equal they land in the first
// bin.
func BuildHistogram(names []string, values map[string][]*float64, bins int) Histogram {
	if bins <= 0 {
		bins = DefaultHistogramBins
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, name := range names {
		for _, v := range values[name] {
			if v == nil || math.IsNaN(*v) {
				continue
			}
			lo = math.Min(lo, *v)
			hi = math.Max(hi, *v)
		}
	}
	h := Histogram{}
	if math.IsInf(lo, 1) {
		for _, name := range names {
			h.Series = append(h.Series, HistogramSeries{Name: name, Counts: make([]int, bins)})
		}
		return h
	}
	width := (hi - lo) / float64(bins)
	h.Edges = make([]float64, bins+1)
	for i := range h.Edges {
		h.Edges[i] = lo + float64(i)*width
	}
	h.Edges[bins] = hi
	for _, name := range names {
		counts := make([]int, bins)
		for _, v := range values[name] {
			if v == nil || math.IsNaN(*v) {
				continue
			}
			idx := 0
			if width > 0 {
				idx = int((*v - lo) / width)
				if idx >= bins {
					idx = bins - 1
				}
			}
			counts[idx]++
		}
		h.Series = append(h.Series, HistogramSeries{Name: name, Counts: counts})
	}
	return h
}

// Labels returns one "lo - hi" label per bin.
func (h Histogram) Labels() []string {
	if len(h.Edges) < 2 {
		if len(h.Series) == 0 {
			return nil
		}
		return make([]string, len(h.Series[0].Counts))
	}
	labels := make([]string, len(h.Edges)-1)
	for i := range labels {
		labels[i] = fmt.Sprintf("%s - %s",
			humanize.FormatFloat("#,###.##", h.Edges[i]),
			humanize.FormatFloat("#,###.##", h.Edges[i+1]))
	}
	return labels
}
