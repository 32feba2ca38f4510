package reporting

import (
	"fmt"
	"strings"

	"github.com/jhoicas/form-reporting-api/internal/domain"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
)

var systemFields = map[string]string{
	entity.SysTenantName:     "Tenant",
	entity.SysTenantCode:     "Código tenant",
	entity.SysTenantType:     "Tipo tenant",
	entity.SysRegionName:     "Región",
	entity.SysTemplateName:   "Plantilla",
	entity.SysReportingYear:  "Año",
	entity.SysReportingMonth: "Mes",
	entity.SysStatus:         "Estado",
	entity.SysSubmittedAt:    "Fecha de envío",
	entity.SysSubmittedBy:    "Enviado por",
}

// SystemFields campos de sistema disponibles con su etiqueta por defecto.
func SystemFields() map[string]string {
	out := make(map[string]string, len(systemFields))
	for k, v := range systemFields {
		out[k] = v
	}
	return out
}

// IsSystemField el nombre corresponde a un campo de sistema.
func IsSystemField(name string) bool {
	_, ok := systemFields[name]
	return ok
}

var operators = map[string]struct{}{
	entity.OpEquals: {}, entity.OpNotEquals: {}, entity.OpGreaterThan: {}, entity.OpGreaterOrEqual: {},
	entity.OpLessThan: {}, entity.OpLessOrEqual: {}, entity.OpContains: {}, entity.OpStartsWith: {},
	entity.OpIn: {}, entity.OpBetween: {}, entity.OpIsNull: {}, entity.OpIsNotNull: {},
}

// ValidOperator operador de filtro soportado.
func ValidOperator(op string) bool {
	_, ok := operators[op]
	return ok
}

// ValidateColumn la referencia apunta a exactamente una fuente coherente con SourceType.
func ValidateColumn(field string, c entity.ColumnRef) error {
	switch c.SourceType {
	case entity.ColumnFormItem:
		if c.ItemID == nil || *c.ItemID == "" {
			return domain.Invalid(field, "FormItem requiere item_id")
		}
	case entity.ColumnMetric:
		if c.MetricID == nil || *c.MetricID == "" {
			return domain.Invalid(field, "Metric requiere metric_id")
		}
	case entity.ColumnSystem:
		if !IsSystemField(c.SystemFieldName) {
			return domain.Invalid(field, "campo de sistema desconocido %q", c.SystemFieldName)
		}
	default:
		return domain.Invalid(field, "source_type debe ser FormItem, Metric o System")
	}
	return nil
}

// ValidateDefinition valida una definición completa antes de persistirla.
func ValidateDefinition(r *entity.ReportDefinition) error {
	var errs domain.ValidationErrors
	if strings.TrimSpace(r.ReportName) == "" {
		errs.Add("report_name", "requerido")
	}
	if strings.TrimSpace(r.ReportCode) == "" {
		errs.Add("report_code", "requerido")
	}
	switch r.ReportType {
	case entity.ReportTabular, entity.ReportSummary, entity.ReportChart:
	default:
		errs.Add("report_type", "debe ser Tabular, Summary o Chart")
	}
	if len(r.Fields) == 0 {
		errs.Add("fields", "el reporte necesita al menos un campo")
	}
	usesItems := false
	for i, f := range r.Fields {
		key := fmt.Sprintf("fields[%d]", i)
		if err := ValidateColumn(key, f.ColumnRef); err != nil {
			errs = append(errs, err.(domain.ValidationErrors)...)
		}
		if f.SourceType == entity.ColumnFormItem {
			usesItems = true
		}
		switch f.AggregationType {
		case "", entity.AggSum, entity.AggAvg, entity.AggCount, entity.AggMin, entity.AggMax:
		default:
			errs.Add(key+".aggregation_type", "agregación no soportada")
		}
	}
	if usesItems && (r.TemplateID == nil || *r.TemplateID == "") {
		errs.Add("template_id", "los campos de formulario requieren una plantilla")
	}
	for i, f := range r.Filters {
		key := fmt.Sprintf("filters[%d]", i)
		if err := ValidateColumn(key, f.ColumnRef); err != nil {
			errs = append(errs, err.(domain.ValidationErrors)...)
		}
		if !ValidOperator(f.Operator) {
			errs.Add(key+".operator", "operador no soportado")
		}
		if f.Operator == entity.OpBetween && len(SplitValues(f.FilterValue)) != 2 && !f.IsParameterized {
			errs.Add(key+".filter_value", "Between requiere dos valores separados por coma")
		}
	}
	for i, g := range r.Groupings {
		if err := ValidateColumn(fmt.Sprintf("groupings[%d]", i), g.ColumnRef); err != nil {
			errs = append(errs, err.(domain.ValidationErrors)...)
		}
	}
	for i, s := range r.Sortings {
		key := fmt.Sprintf("sortings[%d]", i)
		if err := ValidateColumn(key, s.ColumnRef); err != nil {
			errs = append(errs, err.(domain.ValidationErrors)...)
		}
		if d := strings.ToUpper(s.SortDirection); d != "" && d != "ASC" && d != "DESC" {
			errs.Add(key+".sort_direction", "ASC o DESC")
		}
	}
	return errs.OrNil()
}

// ResolveFilterValue valor efectivo de un filtro con los parámetros de ejecución.
// Si el filtro es requerido y queda vacío devuelve error.
func ResolveFilterValue(f entity.ReportFilter, params map[string]string) (string, error) {
	value := f.FilterValue
	if f.IsParameterized || f.AllowUserOverride {
		if v, ok := params[f.ID]; ok {
			value = v
		} else if f.IsParameterized && value == "" {
			value = f.DefaultValue
		}
	}
	if f.Operator == entity.OpIsNull || f.Operator == entity.OpIsNotNull {
		return "", nil
	}
	if strings.TrimSpace(value) == "" && f.IsRequired {
		label := f.ParameterLabel
		if label == "" {
			label = f.ID
		}
		return "", domain.Invalid("parameters", "falta el valor del filtro %q", label)
	}
	return value, nil
}
