package dashboard

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	exportSheet          = "Dados"
	exportBaseName       = "mozdados"
	contentTypeCSV       = "text/csv"
	contentTypeExcel     = "application/vnd.ms-excel"
	panelHeaderCountry   = "País"
	panelHeaderIndicator = "Indicador"
	panelHeaderYear      = "Ano"
	panelHeaderValue     = "Valor"
)

// ParseExportFormat maps a query value onto a known format.
func ParseExportFormat(raw string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "csv":
		return FormatCSV, nil
	case "xlsx", "excel", "xls":
		return FormatExcel, nil
	default:
		return "", fmt.Errorf("dashboard: unsupported export format %q", raw)
	}
}

// ContentType returns the MIME type sent with the download.
func (f ExportFormat) ContentType() string {
	if f == FormatExcel {
		return contentTypeExcel
	}
	return contentTypeCSV
}

// FileName returns the download name for the given tab code. An empty tab
// yields the panel export name.
func (f ExportFormat) FileName(tab string) string {
	if tab == "" {
		return exportBaseName + "." + string(f)
	}
	return exportBaseName + "_" + tab + "." + string(f)
}

// ExportTable encodes the table with the date column first.
func ExportTable(table *IndicatorTable, tab string, format ExportFormat) (Download, error) {
	records := tableRecords(table)
	return encodeDownload(records, format, format.FileName(tab))
}

// ExportPanel encodes the long-form panel.
func ExportPanel(panel Panel, format ExportFormat) (Download, error) {
	records := make([][]string, 0, len(panel.Rows)+1)
	records = append(records, []string{panelHeaderCountry, panelHeaderIndicator, panelHeaderYear, panelHeaderValue})
	for _, row := range panel.Rows {
		records = append(records, []string{row.Country, row.Indicator, strconv.Itoa(row.Year), formatCell(row.Value)})
	}
	return encodeDownload(records, format, format.FileName(""))
}

func tableRecords(table *IndicatorTable) [][]string {
	cols := table.Columns()
	records := make([][]string, 0, table.Len()+1)
	records = append(records, append([]string{DateColumn}, cols...))
	for _, row := range table.Rows() {
		record := make([]string, 0, len(cols)+1)
		record = append(record, row.Date.Format(time.DateOnly))
		for _, v := range row.Values {
			record = append(record, formatCell(v))
		}
		records = append(records, record)
	}
	return records
}

func encodeDownload(records [][]string, format ExportFormat, name string) (Download, error) {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatCSV:
		data, err = encodeCSV(records)
	case FormatExcel:
		data, err = encodeExcel(records)
	default:
		err = fmt.Errorf("dashboard: unsupported export format %q", format)
	}
	if err != nil {
		return Download{}, err
	}
	return Download{FileName: name, ContentType: format.ContentType(), Data: data}, nil
}

func encodeCSV(records [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(records); err != nil {
		return nil, fmt.Errorf("dashboard: write csv: %w", err)
	}
	return buf.Bytes(), nil
}

// encodeExcel writes numeric looking cells as numbers so spreadsheet users
// can compute on them. The header row and text cells stay strings.
func encodeExcel(records [][]string) ([]byte, error) {
	book := excelize.NewFile()
	defer book.Close()
	if err := book.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, fmt.Errorf("dashboard: rename sheet: %w", err)
	}
	for i, record := range records {
		row := make([]any, len(record))
		for j, cell := range record {
			row[j] = cell
			if i == 0 || cell == "" {
				continue
			}
			if f, err := strconv.ParseFloat(cell, 64); err == nil {
				row[j] = f
			}
		}
		axis, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := book.SetSheetRow(exportSheet, axis, &row); err != nil {
			return nil, fmt.Errorf("dashboard: write row %d: %w", i+1, err)
		}
	}
	var buf bytes.Buffer
	if err := book.Write(&buf); err != nil {
		return nil, fmt.Errorf("dashboard: write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func formatCell(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
