package postgres

import (
	"context"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jhoicas/form-reporting-api/internal/domain"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/jhoicas/form-reporting-api/internal/domain/repository"
)

var _ repository.ReportRepository = (*ReportRepo)(nil)

// ReportRepo definiciones de reporte, programaciones, ejecuciones y accesos.
type ReportRepo struct {
	q Querier
}

// NewReportRepository construye el adaptador de reportes.
func NewReportRepository(q Querier) *ReportRepo {
	return &ReportRepo{q: q}
}

func selectReports() sq.SelectBuilder {
	return builder().
		Select("id", "report_name", "report_code", "description", "template_id", "report_type", "category",
			"chart_type", "chart_configuration", "layout_configuration", "is_public", "is_system", "owner_user_id",
			"version", "is_active", "last_run_at", "run_count", "created_at", "updated_at").
		From("report_definitions")
}

func scanReport(s scanner) (*entity.ReportDefinition, error) {
	var r entity.ReportDefinition
	err := s.Scan(&r.ID, &r.ReportName, &r.ReportCode, &r.Description, &r.TemplateID, &r.ReportType, &r.Category,
		&r.ChartType, &r.ChartConfiguration, &r.LayoutConfiguration, &r.IsPublic, &r.IsSystem, &r.OwnerUserID,
		&r.Version, &r.IsActive, &r.LastRunAt, &r.RunCount, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *ReportRepo) Create(ctx context.Context, d *entity.ReportDefinition) error {
	ensureID(&d.ID)
	stamp(&d.CreatedAt, &d.UpdatedAt)
	_, err := r.q.Exec(ctx, `
		INSERT INTO report_definitions (id, report_name, report_code, description, template_id, report_type, category,
			chart_type, chart_configuration, layout_configuration, is_public, is_system, owner_user_id, version,
			is_active, last_run_at, run_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		d.ID, d.ReportName, d.ReportCode, d.Description, d.TemplateID, d.ReportType, d.Category,
		d.ChartType, d.ChartConfiguration, d.LayoutConfiguration, d.IsPublic, d.IsSystem, d.OwnerUserID, d.Version,
		d.IsActive, d.LastRunAt, d.RunCount, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return wrapErr("insert report", err)
	}
	return r.insertChildren(ctx, d)
}

// Update reemplaza la definición y todos sus hijos.
func (r *ReportRepo) Update(ctx context.Context, d *entity.ReportDefinition) error {
	stamp(&d.UpdatedAt)
	tag, err := r.q.Exec(ctx, `
		UPDATE report_definitions SET report_name = $2, report_code = $3, description = $4, template_id = $5,
			report_type = $6, category = $7, chart_type = $8, chart_configuration = $9, layout_configuration = $10,
			is_public = $11, is_system = $12, owner_user_id = $13, version = $14, is_active = $15, updated_at = $16
		WHERE id = $1`,
		d.ID, d.ReportName, d.ReportCode, d.Description, d.TemplateID,
		d.ReportType, d.Category, d.ChartType, d.ChartConfiguration, d.LayoutConfiguration,
		d.IsPublic, d.IsSystem, d.OwnerUserID, d.Version, d.IsActive, d.UpdatedAt)
	if err := mustAffect(tag, wrapErr("update report", err)); err != nil {
		return err
	}
	for _, table := range []string{"report_fields", "report_filters", "report_groupings", "report_sortings"} {
		if _, err := r.q.Exec(ctx, `DELETE FROM `+table+` WHERE report_id = $1`, d.ID); err != nil {
			return wrapErr("clear "+table, err)
		}
	}
	return r.insertChildren(ctx, d)
}

func (r *ReportRepo) insertChildren(ctx context.Context, d *entity.ReportDefinition) error {
	if len(d.Fields) > 0 {
		ins := builder().Insert("report_fields").
			Columns("id", "report_id", "source_type", "item_id", "metric_id", "system_field_name", "display_name",
				"display_order", "is_visible", "column_width", "aggregation_type", "format_string")
		for i := range d.Fields {
			f := &d.Fields[i]
			ensureID(&f.ID)
			ins = ins.Values(f.ID, d.ID, f.SourceType, f.ItemID, f.MetricID, f.SystemFieldName, f.DisplayName,
				f.DisplayOrder, f.IsVisible, f.ColumnWidth, f.AggregationType, f.FormatString)
		}
		if _, err := exec(ctx, r.q, "insert report fields", ins); err != nil {
			return err
		}
	}
	if len(d.Filters) > 0 {
		ins := builder().Insert("report_filters").
			Columns("id", "report_id", "source_type", "item_id", "metric_id", "system_field_name", "operator",
				"filter_value", "is_required", "allow_user_override", "is_parameterized", "parameter_label",
				"default_value", "display_order")
		for i := range d.Filters {
			f := &d.Filters[i]
			ensureID(&f.ID)
			ins = ins.Values(f.ID, d.ID, f.SourceType, f.ItemID, f.MetricID, f.SystemFieldName, f.Operator,
				f.FilterValue, f.IsRequired, f.AllowUserOverride, f.IsParameterized, f.ParameterLabel,
				f.DefaultValue, f.DisplayOrder)
		}
		if _, err := exec(ctx, r.q, "insert report filters", ins); err != nil {
			return err
		}
	}
	if len(d.Groupings) > 0 {
		ins := builder().Insert("report_groupings").
			Columns("id", "report_id", "source_type", "item_id", "metric_id", "system_field_name", "group_order",
				"sort_direction", "show_subtotals", "show_grand_total")
		for i := range d.Groupings {
			g := &d.Groupings[i]
			ensureID(&g.ID)
			ins = ins.Values(g.ID, d.ID, g.SourceType, g.ItemID, g.MetricID, g.SystemFieldName, g.GroupOrder,
				g.SortDirection, g.ShowSubtotals, g.ShowGrandTotal)
		}
		if _, err := exec(ctx, r.q, "insert report groupings", ins); err != nil {
			return err
		}
	}
	if len(d.Sortings) > 0 {
		ins := builder().Insert("report_sortings").
			Columns("id", "report_id", "source_type", "item_id", "metric_id", "system_field_name", "sort_order", "sort_direction")
		for i := range d.Sortings {
			s := &d.Sortings[i]
			ensureID(&s.ID)
			ins = ins.Values(s.ID, d.ID, s.SourceType, s.ItemID, s.MetricID, s.SystemFieldName, s.SortOrder, s.SortDirection)
		}
		if _, err := exec(ctx, r.q, "insert report sortings", ins); err != nil {
			return err
		}
	}
	return nil
}

// Delete baja lógica.
func (r *ReportRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `UPDATE report_definitions SET is_active = FALSE, updated_at = now() WHERE id = $1`, id)
	return mustAffect(tag, wrapErr("delete report", err))
}

func (r *ReportRepo) GetByID(ctx context.Context, id string) (*entity.ReportDefinition, error) {
	return r.getWithChildren(ctx, "get report", selectReports().Where(sq.Eq{"id": id}))
}

func (r *ReportRepo) GetByCode(ctx context.Context, code string) (*entity.ReportDefinition, error) {
	return r.getWithChildren(ctx, "get report by code", selectReports().Where(sq.Eq{"report_code": code}))
}

func (r *ReportRepo) getWithChildren(ctx context.Context, op string, b sq.SelectBuilder) (*entity.ReportDefinition, error) {
	d, err := selectOne(ctx, r.q, op, b, scanReport)
	if err != nil || d == nil {
		return d, err
	}
	if err := r.loadChildren(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (r *ReportRepo) loadChildren(ctx context.Context, d *entity.ReportDefinition) error {
	fields, err := selectAll(ctx, r.q, "load report fields",
		builder().
			Select("id", "source_type", "item_id", "metric_id", "system_field_name", "display_name", "display_order",
				"is_visible", "column_width", "aggregation_type", "format_string").
			From("report_fields").Where(sq.Eq{"report_id": d.ID}).OrderBy("display_order"),
		func(s scanner) (*entity.ReportField, error) {
			var f entity.ReportField
			err := s.Scan(&f.ID, &f.SourceType, &f.ItemID, &f.MetricID, &f.SystemFieldName, &f.DisplayName, &f.DisplayOrder,
				&f.IsVisible, &f.ColumnWidth, &f.AggregationType, &f.FormatString)
			return &f, err
		})
	if err != nil {
		return err
	}
	filters, err := selectAll(ctx, r.q, "load report filters",
		builder().
			Select("id", "source_type", "item_id", "metric_id", "system_field_name", "operator", "filter_value",
				"is_required", "allow_user_override", "is_parameterized", "parameter_label", "default_value", "display_order").
			From("report_filters").Where(sq.Eq{"report_id": d.ID}).OrderBy("display_order"),
		func(s scanner) (*entity.ReportFilter, error) {
			var f entity.ReportFilter
			err := s.Scan(&f.ID, &f.SourceType, &f.ItemID, &f.MetricID, &f.SystemFieldName, &f.Operator, &f.FilterValue,
				&f.IsRequired, &f.AllowUserOverride, &f.IsParameterized, &f.ParameterLabel, &f.DefaultValue, &f.DisplayOrder)
			return &f, err
		})
	if err != nil {
		return err
	}
	groupings, err := selectAll(ctx, r.q, "load report groupings",
		builder().
			Select("id", "source_type", "item_id", "metric_id", "system_field_name", "group_order", "sort_direction",
				"show_subtotals", "show_grand_total").
			From("report_groupings").Where(sq.Eq{"report_id": d.ID}).OrderBy("group_order"),
		func(s scanner) (*entity.ReportGrouping, error) {
			var g entity.ReportGrouping
			err := s.Scan(&g.ID, &g.SourceType, &g.ItemID, &g.MetricID, &g.SystemFieldName, &g.GroupOrder, &g.SortDirection,
				&g.ShowSubtotals, &g.ShowGrandTotal)
			return &g, err
		})
	if err != nil {
		return err
	}
	sortings, err := selectAll(ctx, r.q, "load report sortings",
		builder().
			Select("id", "source_type", "item_id", "metric_id", "system_field_name", "sort_order", "sort_direction").
			From("report_sortings").Where(sq.Eq{"report_id": d.ID}).OrderBy("sort_order"),
		func(s scanner) (*entity.ReportSorting, error) {
			var x entity.ReportSorting
			err := s.Scan(&x.ID, &x.SourceType, &x.ItemID, &x.MetricID, &x.SystemFieldName, &x.SortOrder, &x.SortDirection)
			return &x, err
		})
	if err != nil {
		return err
	}
	d.Fields = deref(fields)
	d.Filters = deref(filters)
	d.Groupings = deref(groupings)
	d.Sortings = deref(sortings)
	return nil
}

func (r *ReportRepo) List(ctx context.Context, f repository.ReportListFilter) ([]*entity.ReportDefinition, int, error) {
	where := sq.And{sq.Eq{"is_active": true}}
	if f.Category != "" {
		where = append(where, sq.Eq{"category": f.Category})
	}
	if f.TemplateID != "" {
		where = append(where, sq.Eq{"template_id": f.TemplateID})
	}
	if strings.TrimSpace(f.Search) != "" {
		where = append(where, ilike(f.Search, "report_name", "report_code"))
	}
	total, err := count(ctx, r.q, "count reports", builder().Select("COUNT(*)").From("report_definitions").Where(where))
	if err != nil {
		return nil, 0, err
	}
	reports, err := selectAll(ctx, r.q, "list reports", page(selectReports().Where(where).OrderBy("report_name"), f.Limit, f.Offset), scanReport)
	return reports, total, err
}

func (r *ReportRepo) RecordRun(ctx context.Context, id string, at time.Time) error {
	tag, err := r.q.Exec(ctx, `UPDATE report_definitions SET last_run_at = $2, run_count = run_count + 1 WHERE id = $1`, id, at)
	return mustAffect(tag, wrapErr("record report run", err))
}

// ── Programaciones ────────────────────────────────────────────────────────────

func selectSchedules() sq.SelectBuilder {
	return builder().
		Select("id", "report_id", "schedule_name", "schedule_type", "day_of_week", "day_of_month", "execution_time",
			"timezone", "output_format", "include_charts", "page_orientation", "recipients", "is_active",
			"last_run_at", "next_run_at", "last_run_status", "last_run_error", "created_by", "created_at", "updated_at").
		From("report_schedules")
}

func scanSchedule(s scanner) (*entity.ReportSchedule, error) {
	var x entity.ReportSchedule
	err := s.Scan(&x.ID, &x.ReportID, &x.ScheduleName, &x.ScheduleType, &x.DayOfWeek, &x.DayOfMonth, &x.ExecutionTime,
		&x.Timezone, &x.OutputFormat, &x.IncludeCharts, &x.PageOrientation, &x.Recipients, &x.IsActive,
		&x.LastRunAt, &x.NextRunAt, &x.LastRunStatus, &x.LastRunError, &x.CreatedBy, &x.CreatedAt, &x.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &x, nil
}

func (r *ReportRepo) CreateSchedule(ctx context.Context, s *entity.ReportSchedule) error {
	ensureID(&s.ID)
	stamp(&s.CreatedAt, &s.UpdatedAt)
	_, err := r.q.Exec(ctx, `
		INSERT INTO report_schedules (id, report_id, schedule_name, schedule_type, day_of_week, day_of_month,
			execution_time, timezone, output_format, include_charts, page_orientation, recipients, is_active,
			last_run_at, next_run_at, last_run_status, last_run_error, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		s.ID, s.ReportID, s.ScheduleName, s.ScheduleType, s.DayOfWeek, s.DayOfMonth,
		s.ExecutionTime, s.Timezone, s.OutputFormat, s.IncludeCharts, s.PageOrientation, s.Recipients, s.IsActive,
		s.LastRunAt, s.NextRunAt, s.LastRunStatus, s.LastRunError, s.CreatedBy, s.CreatedAt, s.UpdatedAt)
	return wrapErr("insert report schedule", err)
}

func (r *ReportRepo) UpdateSchedule(ctx context.Context, s *entity.ReportSchedule) error {
	stamp(&s.UpdatedAt)
	tag, err := r.q.Exec(ctx, `
		UPDATE report_schedules SET schedule_name = $2, schedule_type = $3, day_of_week = $4, day_of_month = $5,
			execution_time = $6, timezone = $7, output_format = $8, include_charts = $9, page_orientation = $10,
			recipients = $11, is_active = $12, last_run_at = $13, next_run_at = $14, last_run_status = $15,
			last_run_error = $16, updated_at = $17
		WHERE id = $1`,
		s.ID, s.ScheduleName, s.ScheduleType, s.DayOfWeek, s.DayOfMonth,
		s.ExecutionTime, s.Timezone, s.OutputFormat, s.IncludeCharts, s.PageOrientation,
		s.Recipients, s.IsActive, s.LastRunAt, s.NextRunAt, s.LastRunStatus,
		s.LastRunError, s.UpdatedAt)
	return mustAffect(tag, wrapErr("update report schedule", err))
}

func (r *ReportRepo) DeleteSchedule(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM report_schedules WHERE id = $1`, id)
	return wrapErr("delete report schedule", err)
}

func (r *ReportRepo) GetSchedule(ctx context.Context, id string) (*entity.ReportSchedule, error) {
	return selectOne(ctx, r.q, "get report schedule", selectSchedules().Where(sq.Eq{"id": id}), scanSchedule)
}

func (r *ReportRepo) ListSchedules(ctx context.Context, reportID string) ([]*entity.ReportSchedule, error) {
	b := selectSchedules().Where(sq.Eq{"report_id": reportID}).OrderBy("schedule_name")
	return selectAll(ctx, r.q, "list report schedules", b, scanSchedule)
}

func (r *ReportRepo) ListDueSchedules(ctx context.Context, now time.Time) ([]*entity.ReportSchedule, error) {
	b := selectSchedules().
		Where(sq.Eq{"is_active": true}).
		Where(sq.LtOrEq{"next_run_at": now}).
		OrderBy("next_run_at")
	return selectAll(ctx, r.q, "list due schedules", b, scanSchedule)
}

// ── Ejecuciones ───────────────────────────────────────────────────────────────

func (r *ReportRepo) CreateExecution(ctx context.Context, l *entity.ReportExecutionLog) error {
	ensureID(&l.ID)
	stamp(&l.ExecutedAt)
	_, err := r.q.Exec(ctx, `
		INSERT INTO report_execution_logs (id, report_id, executed_by, executed_at, execution_type, schedule_id,
			parameters, status, row_count, error_message, execution_time_ms, query_execution_time_ms,
			rendering_time_ms, output_format, output_size_kb, output_path, from_cache)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		l.ID, l.ReportID, l.ExecutedBy, l.ExecutedAt, l.ExecutionType, l.ScheduleID,
		l.Parameters, l.Status, l.RowCount, l.ErrorMessage, l.ExecutionTimeMs, l.QueryExecutionTimeMs,
		l.RenderingTimeMs, l.OutputFormat, l.OutputSizeKB, l.OutputPath, l.FromCache)
	return wrapErr("insert report execution", err)
}

// ListExecutions más recientes primero.
func (r *ReportRepo) ListExecutions(ctx context.Context, reportID string, limit int) ([]*entity.ReportExecutionLog, error) {
	b := builder().
		Select("id", "report_id", "executed_by", "executed_at", "execution_type", "schedule_id", "parameters", "status",
			"row_count", "error_message", "execution_time_ms", "query_execution_time_ms", "rendering_time_ms",
			"output_format", "output_size_kb", "output_path", "from_cache").
		From("report_execution_logs").
		Where(sq.Eq{"report_id": reportID}).
		OrderBy("executed_at DESC")
	b = page(b, limit, 0)
	return selectAll(ctx, r.q, "list report executions", b, func(s scanner) (*entity.ReportExecutionLog, error) {
		var l entity.ReportExecutionLog
		err := s.Scan(&l.ID, &l.ReportID, &l.ExecutedBy, &l.ExecutedAt, &l.ExecutionType, &l.ScheduleID, &l.Parameters, &l.Status,
			&l.RowCount, &l.ErrorMessage, &l.ExecutionTimeMs, &l.QueryExecutionTimeMs, &l.RenderingTimeMs,
			&l.OutputFormat, &l.OutputSizeKB, &l.OutputPath, &l.FromCache)
		return &l, err
	})
}

// ── Accesos ───────────────────────────────────────────────────────────────────

func (r *ReportRepo) CreateAccess(ctx context.Context, a *entity.ReportAccessControl) error {
	ensureID(&a.ID)
	stamp(&a.GrantedAt)
	_, err := r.q.Exec(ctx, `
		INSERT INTO report_access_controls (id, report_id, access_type, user_id, role_id, department_id,
			permission_level, granted_by, granted_at, expiry_date, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		a.ID, a.ReportID, a.AccessType, a.UserID, a.RoleID, a.DepartmentID,
		a.PermissionLevel, a.GrantedBy, a.GrantedAt, a.ExpiryDate, a.IsActive)
	return wrapErr("insert report access", err)
}

func (r *ReportRepo) RevokeAccess(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `UPDATE report_access_controls SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return wrapErr("revoke report access", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ReportRepo) ListAccess(ctx context.Context, reportID string) ([]*entity.ReportAccessControl, error) {
	b := builder().
		Select("id", "report_id", "access_type", "user_id", "role_id", "department_id", "permission_level",
			"granted_by", "granted_at", "expiry_date", "is_active").
		From("report_access_controls").
		Where(sq.Eq{"report_id": reportID}).
		OrderBy("granted_at")
	return selectAll(ctx, r.q, "list report access", b, func(s scanner) (*entity.ReportAccessControl, error) {
		var a entity.ReportAccessControl
		err := s.Scan(&a.ID, &a.ReportID, &a.AccessType, &a.UserID, &a.RoleID, &a.DepartmentID, &a.PermissionLevel,
			&a.GrantedBy, &a.GrantedAt, &a.ExpiryDate, &a.IsActive)
		return &a, err
	})
}
