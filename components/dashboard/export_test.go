package dashboard

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExportFormat(t *testing.T) {
	t.Parallel()
	for raw, want := range map[string]ExportFormat{"": FormatCSV, "CSV": FormatCSV, "excel": FormatExcel, "xlsx": FormatExcel} {
		got, err := ParseExportFormat(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}
	_, err := ParseExportFormat("pdf")
	assert.Error(t, err)
}

func TestExportTableCSVRoundTrip(t *testing.T) {
	t.Parallel()
	table := sampleTable(t)

	download, err := ExportTable(table, "financas", FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "mozdados_financas.csv", download.FileName)
	assert.Equal(t, "text/csv", download.ContentType)

	records, err := csv.NewReader(bytes.NewReader(download.Data)).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"Mês", "Inflação", "Crédito"}, records[0])
	assert.Equal(t, []string{"2024-02-01", "2", ""}, records[2])

	loaded, err := LoadCSVReader(bytes.NewReader(download.Data))
	require.NoError(t, err)
	assert.Equal(t, table.Rows(), loaded.Rows())
	assert.Equal(t, table.Columns(), loaded.Columns())
}

func TestExportTableExcelRoundTrip(t *testing.T) {
	t.Parallel()
	table := sampleTable(t)

	download, err := ExportTable(table, "saude", FormatExcel)
	require.NoError(t, err)
	assert.Equal(t, "mozdados_saude.xlsx", download.FileName)
	assert.Equal(t, "application/vnd.ms-excel", download.ContentType)

	loaded, err := LoadWorkbookReader(bytes.NewReader(download.Data))
	require.NoError(t, err)
	assert.Equal(t, table.Columns(), loaded.Columns())
	assert.Equal(t, table.Rows(), loaded.Rows())
}

func TestExportPanel(t *testing.T) {
	t.Parallel()
	download, err := ExportPanel(samplePanel(), FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "mozdados.csv", download.FileName)
	assert.True(t, bytes.HasPrefix(download.Data, []byte("País,Indicador,")), "csv starts with the header, no byte order mark")

	records, err := csv.NewReader(bytes.NewReader(download.Data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 9)
	assert.Equal(t, []string{"País", "Indicador", "Ano", "Valor"}, records[0])
	assert.Equal(t, []string{"Mozambique", "Agricultural land", "2019", "100"}, records[1])

	xlsx, err := ExportPanel(samplePanel(), FormatExcel)
	require.NoError(t, err)
	assert.Equal(t, "mozdados.xlsx", xlsx.FileName)
	assert.NotEmpty(t, xlsx.Data)
}
