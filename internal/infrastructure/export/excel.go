package export

import (
	"fmt"
	"time"

	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/jhoicas/form-reporting-api/internal/domain/reporting"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Reporte"

// Excel exportador XLSX.
type Excel struct{}

// NewExcel construye el exportador Excel.
func NewExcel() Excel { return Excel{} }

func (Excel) Format() string { return entity.FormatExcel }
func (Excel) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}
func (Excel) Extension() string { return "xlsx" }

// Export escribe una hoja con encabezado fijo. Números y fechas quedan como celdas tipadas.
func (Excel) Export(def *entity.ReportDefinition, result *entity.ReportResult) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("excel: hoja: %w", err)
	}
	headStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#00467F"}},
	})
	if err != nil {
		return nil, fmt.Errorf("excel: estilo: %w", err)
	}

	for i, col := range result.Columns {
		name, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, name, col.Label); err != nil {
			return nil, fmt.Errorf("excel: encabezado: %w", err)
		}
		letter, _ := excelize.ColumnNumberToName(i + 1)
		width := 18.0
		if col.Width != nil {
			width = float64(*col.Width) / 7
		}
		if err := f.SetColWidth(sheetName, letter, letter, width); err != nil {
			return nil, fmt.Errorf("excel: ancho: %w", err)
		}
	}
	if len(result.Columns) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(result.Columns), 1)
		if err := f.SetCellStyle(sheetName, "A1", last, headStyle); err != nil {
			return nil, fmt.Errorf("excel: estilo: %w", err)
		}
		if err := f.SetPanes(sheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
			return nil, fmt.Errorf("excel: panel: %w", err)
		}
	}

	for r, row := range result.Rows {
		for i := range result.Columns {
			name, err := excelize.CoordinatesToCellName(i+1, r+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheetName, name, excelValue(result, row, i)); err != nil {
				return nil, fmt.Errorf("excel: fila %d: %w", r+1, err)
			}
		}
	}
	if def != nil {
		props := &excelize.DocProperties{Title: def.ReportName, Subject: def.ReportCode, Created: time.Now().UTC().Format(time.RFC3339)}
		if err := f.SetDocProps(props); err != nil {
			return nil, fmt.Errorf("excel: propiedades: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("excel: escribir: %w", err)
	}
	return buf.Bytes(), nil
}

// excelValue números sin formato como float, fechas como fecha, el resto como texto formateado.
func excelValue(result *entity.ReportResult, row []any, i int) any {
	if i >= len(row) || row[i] == nil {
		return nil
	}
	format := result.Columns[i].FormatString
	if d, ok := reporting.Decimal(row[i]); ok && format == "" {
		return d.InexactFloat64()
	}
	if t, ok := row[i].(time.Time); ok && format == "" {
		return t
	}
	return cell(result, row, i)
}
