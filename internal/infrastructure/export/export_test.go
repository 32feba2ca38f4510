package export_test

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/jhoicas/form-reporting-api/internal/infrastructure/export"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sample() (*entity.ReportDefinition, *entity.ReportResult) {
	def := &entity.ReportDefinition{ReportName: "Horas por fábrica", ReportCode: "HORAS"}
	res := &entity.ReportResult{
		Columns: []entity.ReportColumn{
			{Key: "c0", Label: "Tenant"},
			{Key: "c1", Label: "Horas", FormatString: "N1"},
			{Key: "c2", Label: "Fecha", FormatString: "dd/MM/yyyy"},
		},
		Rows: [][]any{
			{"Fábrica Uno", decimal.RequireFromString("8.25"), time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)},
			{"Fábrica, Dos", nil, nil},
		},
	}
	return def, res
}

func TestCSV_EncabezadoYFormato(t *testing.T) {
	def, res := sample()
	data, err := export.NewCSV().Export(def, res)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}))

	records, err := csv.NewReader(bytes.NewReader(data[3:])).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Tenant", "Horas", "Fecha"},
		{"Fábrica Uno", "8.3", "09/03/2025"},
		{"Fábrica, Dos", "", ""},
	}, records)
}

func TestExcel_CeldasTipadas(t *testing.T) {
	def, res := sample()
	res.Columns[1].FormatString = ""
	data, err := export.NewExcel().Export(def, res)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Reporte")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Tenant", "Horas", "Fecha"}, rows[0])
	assert.Equal(t, "Fábrica Uno", rows[1][0])
	assert.Equal(t, "8.25", rows[1][1])
	assert.Equal(t, "09/03/2025", rows[1][2])
}

func TestPDF_GeneraDocumento(t *testing.T) {
	def, res := sample()
	data, err := export.NewPDF().Export(def, res)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))

	empty, err := export.NewPDF().Export(def, &entity.ReportResult{})
	require.NoError(t, err)
	assert.NotEmpty(t, empty)
}

func TestAll_FormatosUnicos(t *testing.T) {
	seen := map[string]string{}
	for _, e := range export.All() {
		seen[e.Format()] = e.Extension()
	}
	assert.Equal(t, map[string]string{entity.FormatCSV: "csv", entity.FormatExcel: "xlsx", entity.FormatPDF: "pdf"}, seen)
}
