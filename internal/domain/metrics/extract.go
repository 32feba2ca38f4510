// Package metrics contiene las reglas puras de población de métricas desde respuestas de formularios:
// extracción de valores, fórmulas, cumplimiento binario, agregaciones y formato.
package metrics

import (
	"strings"
	"time"

	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// DefaultExpectedValue valor esperado cuando un mapeo de cumplimiento no lo define.
const DefaultExpectedValue = "Yes"

// DirectValue valor numérico de una respuesta para un mapeo Direct.
// Orden: numérico, booleano (1/0), texto numérico, Yes/No (1/0). nil si no hay valor utilizable.
func DirectValue(r *entity.FormResponse) *decimal.Decimal {
	if r == nil {
		return nil
	}
	if r.NumericValue != nil {
		v := *r.NumericValue
		return &v
	}
	if r.BooleanValue != nil {
		if *r.BooleanValue {
			v := one
			return &v
		}
		v := decimal.Zero
		return &v
	}
	text := textOf(r)
	if text == "" {
		return nil
	}
	if v, err := decimal.NewFromString(text); err == nil {
		return &v
	}
	switch {
	case strings.EqualFold(text, "Yes"):
		v := one
		return &v
	case strings.EqualFold(text, "No"):
		v := decimal.Zero
		return &v
	}
	return nil
}

// NumericValue valor numérico estricto (número o texto numérico) usado por las fórmulas.
func NumericValue(r *entity.FormResponse) (decimal.Decimal, bool) {
	if r == nil {
		return decimal.Zero, false
	}
	if r.NumericValue != nil {
		return *r.NumericValue, true
	}
	if text := textOf(r); text != "" {
		if v, err := decimal.NewFromString(text); err == nil {
			return v, true
		}
	}
	return decimal.Zero, false
}

// ComplianceValue 100 si la respuesta coincide con el valor esperado (sin distinguir mayúsculas), 0 si no.
// Los booleanos se comparan como Yes/No. nil si la respuesta no tiene valor.
func ComplianceValue(r *entity.FormResponse, expected *string) *decimal.Decimal {
	if r == nil {
		return nil
	}
	want := DefaultExpectedValue
	if expected != nil && strings.TrimSpace(*expected) != "" {
		want = strings.TrimSpace(*expected)
	}
	var actual string
	switch {
	case r.BooleanValue != nil:
		actual = yesNo(*r.BooleanValue)
	case textOf(r) != "":
		actual = textOf(r)
	default:
		return nil
	}
	v := decimal.Zero
	if strings.EqualFold(actual, want) {
		v = hundred
	}
	return &v
}

// SourceValue representación textual de la respuesta para la traza de población.
func SourceValue(r *entity.FormResponse) string {
	if r == nil {
		return ""
	}
	switch {
	case r.NumericValue != nil:
		return r.NumericValue.String()
	case r.BooleanValue != nil:
		return yesNo(*r.BooleanValue)
	case textOf(r) != "":
		return textOf(r)
	case r.DateValue != nil:
		return r.DateValue.Format(time.DateOnly)
	}
	return ""
}

// ReportingPeriod primer día del mes de la fecha dada.
func ReportingPeriod(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func textOf(r *entity.FormResponse) string {
	if r.TextValue == nil {
		return ""
	}
	return strings.TrimSpace(*r.TextValue)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
