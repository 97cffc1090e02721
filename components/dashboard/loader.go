package dashboard

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

var dateLayouts = []string{
	time.DateOnly,
	time.DateTime,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"02/01/2006",
	"2006/01/02",
	"2006-01",
	"01/2006",
}

// FileTableLoader reads the indicator table from a spreadsheet or CSV file.
type FileTableLoader struct {
	Path string
}

// LoadTable reads the configured file.
func (l FileTableLoader) LoadTable(_ context.Context) (*IndicatorTable, error) {
	return LoadTable(l.Path)
}

// LoadTable dispatches on the file extension: .csv files are parsed as CSV,
// everything else as an Excel workbook.
func LoadTable(path string) (*IndicatorTable, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return LoadCSV(path)
	}
	return LoadWorkbook(path)
}

// LoadWorkbook reads the first sheet of an Excel workbook.
func LoadWorkbook(path string) (*IndicatorTable, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, openError(path, err)
	}
	defer f.Close()
	table, err := LoadWorkbookReader(f)
	if err != nil {
		return nil, fmt.Errorf("dashboard: load workbook %s: %w", path, err)
	}
	return table, nil
}

// LoadWorkbookReader reads the first sheet of an Excel workbook from r.
func LoadWorkbookReader(r io.Reader) (*IndicatorTable, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer book.Close()
	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := book.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return tableFromRecords(rows)
}

// LoadCSV reads a comma separated file whose header names the columns.
func LoadCSV(path string) (*IndicatorTable, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, openError(path, err)
	}
	defer f.Close()
	table, err := LoadCSVReader(f)
	if err != nil {
		return nil, fmt.Errorf("dashboard: load csv %s: %w", path, err)
	}
	return table, nil
}

// LoadCSVReader parses CSV records from r.
func LoadCSVReader(r io.Reader) (*IndicatorTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return tableFromRecords(records)
}

func openError(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrWorkbookNotFound, path)
	}
	return fmt.Errorf("dashboard: open %s: %w", path, err)
}

// tableFromRecords uses the Mês column as the date index when present and
// the first column otherwise. Blank rows are skipped.
func tableFromRecords(records [][]string) (*IndicatorTable, error) {
	if len(records) == 0 {
		return NewIndicatorTable(nil), nil
	}
	header := make([]string, len(records[0]))
	for i, name := range records[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
	}
	dateIdx := 0
	for i, name := range header {
		if name == DateColumn {
			dateIdx = i
			break
		}
	}
	var (
		columns   []string
		positions []int
	)
	for i, name := range header {
		if i == dateIdx || name == "" {
			continue
		}
		columns = append(columns, name)
		positions = append(positions, i)
	}
	table := NewIndicatorTable(columns)
	for line, record := range records[1:] {
		if blankRecord(record) {
			continue
		}
		if dateIdx >= len(record) {
			return nil, fmt.Errorf("row %d: missing date", line+2)
		}
		date, err := parseDate(record[dateIdx])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line+2, err)
		}
		values := make([]*float64, len(columns))
		for c, pos := range positions {
			if pos < len(record) {
				values[c] = parseNumber(record[pos])
			}
		}
		table.AppendRow(date, values)
	}
	table.Normalize()
	return table, nil
}

func blankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func parseDate(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, errors.New("empty date")
	}
	if serial, err := strconv.ParseFloat(value, 64); err == nil {
		if serial > 0 && serial < 2958466 {
			return excelize.ExcelDateToTime(serial, false)
		}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}

func parseNumber(raw string) *float64 {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil
	}
	value = strings.ReplaceAll(value, ",", "")
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	return &f
}
