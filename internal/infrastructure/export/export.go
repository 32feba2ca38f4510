// Package export convierte resultados de reportes a CSV, Excel y PDF.
package export

import (
	"github.com/jhoicas/form-reporting-api/internal/application/ports"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/jhoicas/form-reporting-api/internal/domain/reporting"
)

// All exportadores disponibles.
func All() []ports.ReportExporter {
	return []ports.ReportExporter{NewCSV(), NewExcel(), NewPDF()}
}

func header(result *entity.ReportResult) []string {
	out := make([]string, len(result.Columns))
	for i, c := range result.Columns {
		out[i] = c.Label
	}
	return out
}

// cell texto de la celda i de la fila con el formato de su columna.
func cell(result *entity.ReportResult, row []any, i int) string {
	if i >= len(row) {
		return ""
	}
	format := ""
	if i < len(result.Columns) {
		format = result.Columns[i].FormatString
	}
	return reporting.FormatCell(row[i], format)
}
