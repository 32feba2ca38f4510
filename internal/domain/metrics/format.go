package metrics

import (
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var numberPrinter = message.NewPrinter(language.English)

// FormatValue texto del valor según la unidad (o el tipo de dato) de la métrica:
// Percentage "85.50%", Count "1,234", Status "Yes"/"No".
func FormatValue(v decimal.Decimal, m *entity.MetricDefinition) string {
	if m == nil {
		return v.String()
	}
	kind := m.Unit
	if kind == "" {
		kind = m.DataType
	}
	switch kind {
	case entity.MetricPercentage:
		return v.StringFixed(2) + "%"
	case entity.MetricCount:
		return numberPrinter.Sprintf("%d", v.Round(0).IntPart())
	case entity.MetricStatus:
		if v.Equal(one) {
			return "Yes"
		}
		return "No"
	}
	return v.String()
}

// KPI estados de semáforo.
const (
	KPIGreen  = "Green"
	KPIYellow = "Yellow"
	KPIRed    = "Red"
)

// KPIStatus semáforo de un valor frente a los umbrales (mayor es mejor).
// "" si la métrica no tiene umbral verde ni amarillo.
func KPIStatus(v decimal.Decimal, m *entity.MetricDefinition) string {
	if m == nil || (m.ThresholdGreen == nil && m.ThresholdYellow == nil) {
		return ""
	}
	if m.ThresholdGreen != nil && v.GreaterThanOrEqual(*m.ThresholdGreen) {
		return KPIGreen
	}
	if m.ThresholdYellow != nil && v.GreaterThanOrEqual(*m.ThresholdYellow) {
		return KPIYellow
	}
	return KPIRed
}
