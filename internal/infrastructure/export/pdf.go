package export

import (
	"fmt"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
	colorStripe  = &props.Color{Red: 240, Green: 244, Blue: 248}
)

// landscapeFrom columnas a partir de las cuales la página va apaisada.
const landscapeFrom = 7

// PDF exportador de tabla A4 con Maroto v2.
type PDF struct {
	now func() time.Time
}

// NewPDF construye el exportador PDF.
func NewPDF() PDF { return PDF{now: time.Now} }

func (PDF) Format() string      { return entity.FormatPDF }
func (PDF) ContentType() string { return "application/pdf" }
func (PDF) Extension() string   { return "pdf" }

// Export genera el documento: encabezado del reporte, tabla y pie con el total de filas.
func (p PDF) Export(def *entity.ReportDefinition, result *entity.ReportResult) ([]byte, error) {
	if def == nil {
		def = &entity.ReportDefinition{}
	}
	now := time.Now
	if p.now != nil {
		now = p.now
	}
	grid := max(len(result.Columns), 1)
	b := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithMaxGridSize(grid).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 8}).
		WithTitle(def.ReportName, true)
	if len(result.Columns) >= landscapeFrom {
		b = b.WithOrientation(orientation.Horizontal)
	}
	m := maroto.New(b.Build())

	m.AddRows(titleRow(def, now(), grid))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	if len(result.Columns) > 0 {
		m.AddRows(tableHeaderRow(result))
		m.AddRows(tableRows(result)...)
	}
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRow(result, grid))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func titleRow(def *entity.ReportDefinition, at time.Time, grid int) core.Row {
	left := max(grid*2/3, 1)
	right := grid - left
	title := col.New(left).Add(
		text.New(def.ReportName, props.Text{Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1}),
		text.New(nonEmpty(def.Description, def.ReportCode), props.Text{Size: 8, Top: 9, Color: colorGray}),
	)
	if right == 0 {
		return row.New(16).Add(title)
	}
	return row.New(16).Add(
		title,
		col.New(right).Add(
			text.New(def.ReportCode, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Top: 1}),
			text.New("Generado: "+at.Format("02/01/2006 15:04"), props.Text{Size: 7, Align: align.Right, Top: 9, Color: colorGray}),
		),
	)
}

func tableHeaderRow(result *entity.ReportResult) core.Row {
	cols := make([]core.Col, 0, len(result.Columns))
	for _, c := range result.Columns {
		cols = append(cols, col.New(1).Add(text.New(c.Label, props.Text{
			Style: fontstyle.Bold, Size: 8, Color: colorWhite, Top: 2, Left: 1, Right: 1,
		})))
	}
	return row.New(8).WithStyle(&props.Cell{BackgroundColor: colorPrimary}).Add(cols...)
}

// tableRows una fila por registro, con fondo alternado.
func tableRows(result *entity.ReportResult) []core.Row {
	out := make([]core.Row, 0, len(result.Rows))
	for r, data := range result.Rows {
		cols := make([]core.Col, 0, len(result.Columns))
		for i := range result.Columns {
			cols = append(cols, col.New(1).Add(text.New(cell(result, data, i), props.Text{
				Size: 7, Top: 1, Left: 1, Right: 1,
			})))
		}
		rw := row.New(6).Add(cols...)
		if r%2 == 1 {
			rw = rw.WithStyle(&props.Cell{BackgroundColor: colorStripe})
		}
		out = append(out, rw)
	}
	return out
}

func footerRow(result *entity.ReportResult, grid int) core.Row {
	msg := fmt.Sprintf("%d filas", len(result.Rows))
	if result.Truncated {
		msg += " (resultado truncado)"
	}
	return row.New(8).Add(col.New(grid).Add(
		text.New(msg, props.Text{Size: 7, Color: colorGray, Top: 2, Align: align.Right}),
	))
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
