package postgres

import (
	"context"
	"fmt"
	"sort"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jhoicas/form-reporting-api/internal/domain"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/jhoicas/form-reporting-api/internal/domain/reporting"
	"github.com/jhoicas/form-reporting-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.ReportQueryRepository = (*ReportQueryRepo)(nil)

// ReportQueryRepo arma con squirrel la consulta de una definición sobre los envíos.
type ReportQueryRepo struct {
	q Querier
}

// NewReportQueryRepository construye el ejecutor de reportes.
func NewReportQueryRepository(q Querier) *ReportQueryRepo {
	return &ReportQueryRepo{q: q}
}

// systemColumns expresión SQL de cada campo de sistema; num != "" si admite comparación numérica.
var systemColumns = map[string]column{
	entity.SysTenantName:     {text: "t.tenant_name"},
	entity.SysTenantCode:     {text: "t.tenant_code"},
	entity.SysTenantType:     {text: "t.tenant_type"},
	entity.SysRegionName:     {text: "rg.region_name"},
	entity.SysTemplateName:   {text: "ft.template_name"},
	entity.SysReportingYear:  {num: "fs.reporting_year", text: "fs.reporting_year::text"},
	entity.SysReportingMonth: {num: "fs.reporting_month", text: "fs.reporting_month::text"},
	entity.SysStatus:         {text: "fs.status"},
	entity.SysSubmittedAt:    {raw: "fs.submitted_at", text: "to_char(fs.submitted_at, 'YYYY-MM-DD HH24:MI:SS')"},
	entity.SysSubmittedBy:    {text: "fs.submitted_by"},
}

// column expresiones de una referencia: num valor numérico, text representación textual,
// raw valor nativo a devolver cuando no hay num (fechas).
type column struct {
	num  string
	text string
	raw  string
}

// plan consulta en construcción: joins de ítems y métricas compartidos por referencia.
type plan struct {
	b       sq.SelectBuilder
	items   map[string]string
	metrics map[string]string
	grouped bool
}

func (p *plan) resolve(ref entity.ColumnRef) (column, error) {
	switch ref.SourceType {
	case entity.ColumnSystem:
		c, ok := systemColumns[ref.SystemFieldName]
		if !ok {
			return column{}, fmt.Errorf("%w: campo de sistema %q", domain.ErrInvalidInput, ref.SystemFieldName)
		}
		return c, nil
	case entity.ColumnFormItem:
		if ref.ItemID == nil {
			return column{}, fmt.Errorf("%w: columna sin item_id", domain.ErrInvalidInput)
		}
		alias, ok := p.items[*ref.ItemID]
		if !ok {
			alias = fmt.Sprintf("r%d", len(p.items))
			p.items[*ref.ItemID] = alias
			p.b = p.b.LeftJoin(fmt.Sprintf("form_responses %[1]s ON %[1]s.submission_id = fs.id AND %[1]s.item_id = ?", alias), *ref.ItemID)
		}
		return column{
			num:  alias + ".numeric_value",
			text: fmt.Sprintf("COALESCE(%[1]s.text_value, %[1]s.numeric_value::text, to_char(%[1]s.date_value, 'YYYY-MM-DD'), %[1]s.boolean_value::text)", alias),
		}, nil
	case entity.ColumnMetric:
		if ref.MetricID == nil {
			return column{}, fmt.Errorf("%w: columna sin metric_id", domain.ErrInvalidInput)
		}
		alias, ok := p.metrics[*ref.MetricID]
		if !ok {
			alias = fmt.Sprintf("m%d", len(p.metrics))
			p.metrics[*ref.MetricID] = alias
			p.b = p.b.LeftJoin(fmt.Sprintf(
				"tenant_metrics %[1]s ON %[1]s.tenant_id = fs.tenant_id AND %[1]s.metric_id = ? "+
					"AND %[1]s.reporting_period = date_trunc('month', fs.submitted_at)::date", alias), *ref.MetricID)
		}
		return column{
			num:  alias + ".numeric_value",
			text: fmt.Sprintf("COALESCE(NULLIF(%[1]s.text_value, ''), %[1]s.numeric_value::text)", alias),
		}, nil
	}
	return column{}, fmt.Errorf("%w: source_type %q", domain.ErrInvalidInput, ref.SourceType)
}

// value expresión a seleccionar cuando no se agrega.
func (c column) value() string {
	switch {
	case c.num != "":
		return c.num
	case c.raw != "":
		return c.raw
	}
	return c.text
}

// output columna seleccionada y cómo convertir sus valores SQL en la celda.
type output struct {
	alias    string
	fallback string // alias de la columna textual alternativa ("" si no hay)
}

// Run ejecuta la definición; el resultado se corta en MaxRows y marca Truncated.
func (r *ReportQueryRepo) Run(ctx context.Context, in repository.ReportQuery) (*entity.ReportResult, error) {
	q, err := buildReportQuery(in)
	if err != nil {
		return nil, err
	}
	result := q.result
	rows, err := r.q.Query(ctx, q.sql, q.args...)
	if err != nil {
		return nil, fmt.Errorf("report query: %w", err)
	}
	defer rows.Close()

	names := rows.FieldDescriptions()
	index := make(map[string]int, len(names))
	for i, fd := range names {
		index[fd.Name] = i
	}
	for rows.Next() {
		if in.MaxRows > 0 && len(result.Rows) == in.MaxRows {
			result.Truncated = true
			break
		}
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("report query: scan: %w", err)
		}
		row := make([]any, len(q.outs))
		for i, o := range q.outs {
			v := normalize(values[index[o.alias]])
			if v == nil && o.fallback != "" {
				v = normalize(values[index[o.fallback]])
			}
			row[i] = v
		}
		result.Rows = append(result.Rows, row)
	}
	return result, rows.Err()
}

// builtQuery SQL listo para ejecutar con las columnas de salida y el resultado vacío.
type builtQuery struct {
	sql    string
	args   []any
	outs   []output
	result *entity.ReportResult
}

func buildReportQuery(in repository.ReportQuery) (*builtQuery, error) {
	def := in.Definition
	p := &plan{
		b: builder().
			Select().
			From("form_submissions fs").
			Join("form_templates ft ON ft.id = fs.template_id").
			LeftJoin("tenants t ON t.id = fs.tenant_id").
			LeftJoin("regions rg ON rg.id = t.region_id"),
		items:   map[string]string{},
		metrics: map[string]string{},
		grouped: len(def.Groupings) > 0,
	}
	if def.TemplateID != nil && *def.TemplateID != "" {
		p.b = p.b.Where(sq.Eq{"fs.template_id": *def.TemplateID})
	}
	if in.TenantIDs != nil {
		p.b = p.b.Where(inIDs("fs.tenant_id", in.TenantIDs))
	}

	fields := visibleFields(def.Fields)
	result := &entity.ReportResult{Columns: make([]entity.ReportColumn, 0, len(fields))}
	outs := make([]output, 0, len(fields))
	labels := reporting.SystemFields()
	var groupBy []string
	for i, f := range fields {
		col, err := p.resolve(f.ColumnRef)
		if err != nil {
			return nil, err
		}
		key := fmt.Sprintf("c%d", i)
		label := f.DisplayName
		if label == "" && f.SourceType == entity.ColumnSystem {
			label = labels[f.SystemFieldName]
		}
		result.Columns = append(result.Columns, entity.ReportColumn{Key: key, Label: label, FormatString: f.FormatString, Width: f.ColumnWidth})

		if p.grouped && f.AggregationType != "" {
			p.b = p.b.Column(aggregate(f.AggregationType, col) + " AS " + key)
			outs = append(outs, output{alias: key})
			continue
		}
		p.b = p.b.Column(col.value() + " AS " + key)
		out := output{alias: key}
		if col.num != "" {
			out.fallback = key + "_t"
			p.b = p.b.Column(col.text + " AS " + out.fallback)
			groupBy = append(groupBy, col.text)
		}
		groupBy = append(groupBy, col.value())
		outs = append(outs, out)
	}
	if len(outs) == 0 {
		return nil, domain.Invalid("fields", "el reporte no tiene campos visibles")
	}

	for _, f := range def.Filters {
		value, err := reporting.ResolveFilterValue(f, in.Parameters)
		if err != nil {
			return nil, err
		}
		col, err := p.resolve(f.ColumnRef)
		if err != nil {
			return nil, err
		}
		if cond := filterCondition(col, f.Operator, value); cond != nil {
			p.b = p.b.Where(cond)
		}
	}

	if p.grouped {
		groupings := append([]entity.ReportGrouping(nil), def.Groupings...)
		sort.SliceStable(groupings, func(i, j int) bool { return groupings[i].GroupOrder < groupings[j].GroupOrder })
		for _, g := range groupings {
			col, err := p.resolve(g.ColumnRef)
			if err != nil {
				return nil, err
			}
			groupBy = append(groupBy, col.value())
			if col.num != "" {
				groupBy = append(groupBy, col.text)
			}
			p.b = p.b.OrderBy(col.value() + " " + direction(g.SortDirection))
		}
		p.b = p.b.GroupBy(dedupe(groupBy)...)
	}

	sortings := append([]entity.ReportSorting(nil), def.Sortings...)
	sort.SliceStable(sortings, func(i, j int) bool { return sortings[i].SortOrder < sortings[j].SortOrder })
	for _, s := range sortings {
		if alias, ok := fieldAlias(fields, s.ColumnRef); ok {
			p.b = p.b.OrderBy(alias + " " + direction(s.SortDirection))
			continue
		}
		if p.grouped {
			continue
		}
		col, err := p.resolve(s.ColumnRef)
		if err != nil {
			return nil, err
		}
		p.b = p.b.OrderBy(col.value() + " " + direction(s.SortDirection))
	}
	if !p.grouped && len(sortings) == 0 {
		p.b = p.b.OrderBy("fs.reporting_year DESC", "fs.reporting_month DESC", "t.tenant_name")
	}
	if in.MaxRows > 0 {
		p.b = p.b.Limit(uint64(in.MaxRows) + 1)
	}

	sql, args, err := p.b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("report query: build: %w", err)
	}
	return &builtQuery{sql: sql, args: args, outs: outs, result: result}, nil
}

func visibleFields(in []entity.ReportField) []entity.ReportField {
	out := make([]entity.ReportField, 0, len(in))
	for _, f := range in {
		if f.IsVisible {
			out = append(out, f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out
}

func fieldAlias(fields []entity.ReportField, ref entity.ColumnRef) (string, bool) {
	for i, f := range fields {
		if sameRef(f.ColumnRef, ref) {
			return fmt.Sprintf("c%d", i), true
		}
	}
	return "", false
}

func sameRef(a, b entity.ColumnRef) bool {
	return a.SourceType == b.SourceType && a.SystemFieldName == b.SystemFieldName &&
		str(a.ItemID) == str(b.ItemID) && str(a.MetricID) == str(b.MetricID)
}

func aggregate(fn string, c column) string {
	if fn == entity.AggCount {
		return "COUNT(" + c.text + ")"
	}
	expr := c.num
	if expr == "" {
		expr = c.text
	}
	return fn + "(" + expr + ")"
}

func direction(d string) string {
	if strings.EqualFold(d, "DESC") {
		return "DESC"
	}
	return "ASC"
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// filterCondition nil si el filtro no aplica (valor vacío).
func filterCondition(c column, op, value string) sq.Sqlizer {
	switch op {
	case entity.OpIsNull:
		return sq.Expr(c.text + " IS NULL")
	case entity.OpIsNotNull:
		return sq.Expr(c.text + " IS NOT NULL")
	}
	if strings.TrimSpace(value) == "" {
		return nil
	}
	numeric := func(v string) (string, any, bool) {
		if c.num == "" {
			return "", nil, false
		}
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return "", nil, false
		}
		return c.num, d, true
	}
	compare := func(sqlOp string) sq.Sqlizer {
		if expr, d, ok := numeric(value); ok {
			return sq.Expr(expr+" "+sqlOp+" ?", d)
		}
		return sq.Expr(c.text+" "+sqlOp+" ?", strings.TrimSpace(value))
	}
	switch op {
	case entity.OpEquals:
		return compare("=")
	case entity.OpNotEquals:
		if expr, d, ok := numeric(value); ok {
			return sq.Expr(expr+" IS DISTINCT FROM ?", d)
		}
		return sq.Expr(c.text+" IS DISTINCT FROM ?", strings.TrimSpace(value))
	case entity.OpGreaterThan:
		return compare(">")
	case entity.OpGreaterOrEqual:
		return compare(">=")
	case entity.OpLessThan:
		return compare("<")
	case entity.OpLessOrEqual:
		return compare("<=")
	case entity.OpContains:
		return sq.Expr(c.text+" ILIKE ?", "%"+escapeLike(strings.TrimSpace(value))+"%")
	case entity.OpStartsWith:
		return sq.Expr(c.text+" ILIKE ?", escapeLike(strings.TrimSpace(value))+"%")
	case entity.OpIn:
		return sq.Eq{c.text: reporting.SplitValues(value)}
	case entity.OpBetween:
		parts := reporting.SplitValues(value)
		if len(parts) != 2 {
			return sq.Expr("FALSE")
		}
		lo, dlo, okLo := numeric(parts[0])
		_, dhi, okHi := numeric(parts[1])
		if okLo && okHi {
			return sq.Expr(lo+" BETWEEN ? AND ?", dlo, dhi)
		}
		return sq.Expr(c.text+" BETWEEN ? AND ?", parts[0], parts[1])
	}
	return sq.Expr("FALSE")
}

// normalize convierte tipos de pgx en los tipos de celda de ReportResult.
func normalize(v any) any {
	switch x := v.(type) {
	case pgtype.Numeric:
		if !x.Valid {
			return nil
		}
		if x.NaN || x.InfinityModifier != pgtype.Finite {
			return nil
		}
		return decimal.NewFromBigInt(x.Int, x.Exp)
	case int32:
		return int(x)
	case int64:
		return int(x)
	case int16:
		return int(x)
	}
	return v
}
