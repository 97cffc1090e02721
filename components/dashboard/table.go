package dashboard

import (
	"fmt"
	"sort"
	"time"
)

// DateColumn is the header of the date index in spreadsheets and exports.
const DateColumn = "Mês"

// IndicatorTable is a date-indexed table of numeric indicators. The index is
// kept sorted, unique and chronological; a nil cell is a missing value.
type IndicatorTable struct {
	dates   []time.Time
	columns []string
	data    map[string][]*float64
}

// NewIndicatorTable builds an empty table with the given columns.
func NewIndicatorTable(columns []string) *IndicatorTable {
	t := &IndicatorTable{
		columns: append([]string(nil), columns...),
		data:    make(map[string][]*float64, len(columns)),
	}
	for _, col := range columns {
		t.data[col] = nil
	}
	return t
}

// AppendRow adds a row. values are matched to columns by position; missing
// trailing values are stored as nil. The index is restored by Normalize.
func (t *IndicatorTable) AppendRow(date time.Time, values []*float64) {
	t.dates = append(t.dates, date)
	for i, col := range t.columns {
		var v *float64
		if i < len(values) {
			v = values[i]
		}
		t.data[col] = append(t.data[col], v)
	}
}

// Normalize sorts rows chronologically and merges duplicate dates (the last
// appended row wins).
func (t *IndicatorTable) Normalize() {
	if len(t.dates) == 0 {
		return
	}
	order := make([]int, len(t.dates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return t.dates[order[a]].Before(t.dates[order[b]])
	})
	dates := make([]time.Time, 0, len(order))
	keep := make([]int, 0, len(order))
	for _, idx := range order {
		if n := len(dates); n > 0 && dates[n-1].Equal(t.dates[idx]) {
			keep[n-1] = idx
			continue
		}
		dates = append(dates, t.dates[idx])
		keep = append(keep, idx)
	}
	for _, col := range t.columns {
		src := t.data[col]
		dst := make([]*float64, len(keep))
		for i, idx := range keep {
			dst[i] = src[idx]
		}
		t.data[col] = dst
	}
	t.dates = dates
}

// Len returns the number of rows.
func (t *IndicatorTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.dates)
}

// Empty reports whether the table has no rows or no columns.
func (t *IndicatorTable) Empty() bool {
	return t.Len() == 0 || len(t.columns) == 0
}

// Dates returns a copy of the date index.
func (t *IndicatorTable) Dates() []time.Time {
	if t == nil {
		return nil
	}
	return append([]time.Time(nil), t.dates...)
}

// Columns returns the column names in table order.
func (t *IndicatorTable) Columns() []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.columns...)
}

// HasColumn reports whether the column exists.
func (t *IndicatorTable) HasColumn(name string) bool {
	if t == nil {
		return false
	}
	_, ok := t.data[name]
	return ok
}

// Column returns a copy of the column values.
func (t *IndicatorTable) Column(name string) []*float64 {
	if t == nil {
		return nil
	}
	return append([]*float64(nil), t.data[name]...)
}

// Value returns the cell at row/column.
func (t *IndicatorTable) Value(row int, column string) *float64 {
	values, ok := t.data[column]
	if !ok || row < 0 || row >= len(values) {
		return nil
	}
	return values[row]
}

// Bounds returns the first and last dates of the index.
func (t *IndicatorTable) Bounds() (time.Time, time.Time, bool) {
	if t.Len() == 0 {
		return time.Time{}, time.Time{}, false
	}
	return t.dates[0], t.dates[len(t.dates)-1], true
}

// Slice returns the rows whose dates fall within [start, end]. Nil bounds
// default to the table bounds and are clamped to them. When start is after
// end the whole table is returned together with ErrInvalidDateRange.
func (t *IndicatorTable) Slice(start, end *time.Time) (*IndicatorTable, error) {
	if t == nil {
		return NewIndicatorTable(nil), nil
	}
	first, last, ok := t.Bounds()
	if !ok {
		return t.clone(0, 0), nil
	}
	from, to := first, last
	if start != nil && start.After(first) {
		from = *start
	}
	if end != nil && end.Before(last) {
		to = *end
	}
	if start != nil && end != nil && start.After(*end) {
		return t.clone(0, t.Len()), fmt.Errorf("%w: %s > %s", ErrInvalidDateRange,
			start.Format(time.DateOnly), end.Format(time.DateOnly))
	}
	lo := sort.Search(len(t.dates), func(i int) bool { return !t.dates[i].Before(from) })
	hi := sort.Search(len(t.dates), func(i int) bool { return t.dates[i].After(to) })
	if hi < lo {
		hi = lo
	}
	return t.clone(lo, hi), nil
}

// Select projects the table onto the requested columns, in request order.
// Unknown and repeated columns are skipped.
func (t *IndicatorTable) Select(columns []string) *IndicatorTable {
	picked := make([]string, 0, len(columns))
	seen := make(map[string]struct{}, len(columns))
	for _, col := range columns {
		if _, dup := seen[col]; dup || !t.HasColumn(col) {
			continue
		}
		seen[col] = struct{}{}
		picked = append(picked, col)
	}
	out := NewIndicatorTable(picked)
	out.dates = t.Dates()
	for _, col := range picked {
		out.data[col] = t.Column(col)
	}
	return out
}

// Descending returns the rows newest first.
func (t *IndicatorTable) Descending() []TableRow {
	rows := t.Rows()
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows
}

// TableRow is one row of the indicator table.
type TableRow struct {
	Date   time.Time  `json:"date"`
	Values []*float64 `json:"values"`
}

// Rows returns the rows in chronological order.
func (t *IndicatorTable) Rows() []TableRow {
	rows := make([]TableRow, t.Len())
	for i := range rows {
		values := make([]*float64, len(t.columns))
		for c, col := range t.columns {
			values[c] = t.data[col][i]
		}
		rows[i] = TableRow{Date: t.dates[i], Values: values}
	}
	return rows
}

func (t *IndicatorTable) clone(lo, hi int) *IndicatorTable {
	out := NewIndicatorTable(t.columns)
	out.dates = append([]time.Time(nil), t.dates[lo:hi]...)
	for _, col := range t.columns {
		out.data[col] = append([]*float64(nil), t.data[col][lo:hi]...)
	}
	return out
}

func floatPtr(v float64) *float64 {
	return &v
}
