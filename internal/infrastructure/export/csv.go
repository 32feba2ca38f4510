package export

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
)

// utf8BOM permite que Excel abra el CSV con acentos correctos.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSV exportador de valores separados por comas.
type CSV struct{}

// NewCSV construye el exportador CSV.
func NewCSV() CSV { return CSV{} }

func (CSV) Format() string      { return entity.FormatCSV }
func (CSV) ContentType() string { return "text/csv; charset=utf-8" }
func (CSV) Extension() string   { return "csv" }

func (CSV) Export(_ *entity.ReportDefinition, result *entity.ReportResult) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)
	w := csv.NewWriter(&buf)
	if err := w.Write(header(result)); err != nil {
		return nil, fmt.Errorf("csv: encabezado: %w", err)
	}
	record := make([]string, len(result.Columns))
	for _, row := range result.Rows {
		for i := range record {
			record[i] = cell(result, row, i)
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("csv: fila: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv: %w", err)
	}
	return buf.Bytes(), nil
}
