package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/form-reporting-api/internal/application/dto"
	"github.com/jhoicas/form-reporting-api/internal/application/ports"
	"github.com/jhoicas/form-reporting-api/internal/domain"
	"github.com/jhoicas/form-reporting-api/internal/domain/access"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/jhoicas/form-reporting-api/internal/domain/reporting"
	"github.com/jhoicas/form-reporting-api/internal/domain/repository"
	"github.com/rs/zerolog/log"
)

// ReportConfig límites de ejecución de reportes.
type ReportConfig struct {
	MaxRows         int
	DefaultTimezone string
}

// ReportUseCase definiciones, ejecución, exportación, programación y permisos de reportes.
type ReportUseCase struct {
	reports   repository.ReportRepository
	query     repository.ReportQueryRepository
	templates repository.FormTemplateRepository
	metrics   repository.MetricDefinitionRepository
	users     repository.UserRepository
	scope     TenantScope
	cache     ports.ReportCache
	storage   ports.ObjectStorage
	exporters map[string]ports.ReportExporter
	cfg       ReportConfig
	now       func() time.Time
}

// NewReportUseCase construye el caso de uso de reportes.
func NewReportUseCase(
	reports repository.ReportRepository,
	query repository.ReportQueryRepository,
	templates repository.FormTemplateRepository,
	metricRepo repository.MetricDefinitionRepository,
	users repository.UserRepository,
	scope TenantScope,
	cache ports.ReportCache,
	storage ports.ObjectStorage,
	exporters []ports.ReportExporter,
	cfg ReportConfig,
) *ReportUseCase {
	byFormat := make(map[string]ports.ReportExporter, len(exporters))
	for _, e := range exporters {
		byFormat[e.Format()] = e
	}
	return &ReportUseCase{
		reports:   reports,
		query:     query,
		templates: templates,
		metrics:   metricRepo,
		users:     users,
		scope:     scope,
		cache:     cache,
		storage:   storage,
		exporters: byFormat,
		cfg:       cfg,
		now:       time.Now,
	}
}

// ── Permisos ──────────────────────────────────────────────────────────────────

func (uc *ReportUseCase) grantee(ctx context.Context, c *access.Claims) (reporting.Grantee, error) {
	g := reporting.Grantee{
		UserID:       c.UserID,
		DepartmentID: c.DepartmentID,
		Manager:      c.HasPermission(entity.PermReportsManage),
	}
	if g.Manager {
		return g, nil
	}
	roles, err := uc.users.ListRoles(ctx, c.UserID)
	if err != nil {
		return g, err
	}
	for _, r := range roles {
		g.RoleIDs = append(g.RoleIDs, r.ID)
	}
	return g, nil
}

func (uc *ReportUseCase) permission(ctx context.Context, g reporting.Grantee, def *entity.ReportDefinition) (string, error) {
	if g.Manager || def.OwnerUserID == g.UserID {
		return entity.PermissionEdit, nil
	}
	grants, err := uc.reports.ListAccess(ctx, def.ID)
	if err != nil {
		return "", err
	}
	return reporting.EffectivePermission(def, g, grants, uc.now()), nil
}

// load definición activa con el nivel de permiso del solicitante.
// ErrNotFound si no existe o no la puede ver; ErrForbidden si la ve pero no alcanza el nivel requerido.
func (uc *ReportUseCase) load(ctx context.Context, c *access.Claims, id, required string) (*entity.ReportDefinition, string, error) {
	def, err := uc.reports.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if def == nil || !def.IsActive {
		return nil, "", domain.ErrNotFound
	}
	g, err := uc.grantee(ctx, c)
	if err != nil {
		return nil, "", err
	}
	level, err := uc.permission(ctx, g, def)
	if err != nil {
		return nil, "", err
	}
	if !reporting.Allows(level, entity.PermissionView) {
		return nil, "", domain.ErrNotFound
	}
	if !reporting.Allows(level, required) {
		return nil, "", domain.ErrForbidden
	}
	return def, level, nil
}

// ── Definiciones ──────────────────────────────────────────────────────────────

// List reportes activos que el solicitante puede ver.
func (uc *ReportUseCase) List(ctx context.Context, c *access.Claims, in dto.ReportListRequest) (dto.ListResponse[dto.ReportResponse], error) {
	in.DefaultPage()
	defs, _, err := uc.reports.List(ctx, repository.ReportListFilter{
		Category:   in.Category,
		TemplateID: in.TemplateID,
		Search:     strings.TrimSpace(in.Search),
	})
	if err != nil {
		return dto.ListResponse[dto.ReportResponse]{}, err
	}
	g, err := uc.grantee(ctx, c)
	if err != nil {
		return dto.ListResponse[dto.ReportResponse]{}, err
	}
	visible := make([]dto.ReportResponse, 0, len(defs))
	for _, d := range defs {
		level, err := uc.permission(ctx, g, d)
		if err != nil {
			return dto.ListResponse[dto.ReportResponse]{}, err
		}
		if reporting.Allows(level, entity.PermissionView) {
			visible = append(visible, toReportResponse(d, level, false))
		}
	}
	total := len(visible)
	start := min(in.Offset, total)
	end := min(start+in.Limit, total)
	return dto.NewList(visible[start:end], in.PageRequest, total), nil
}

// Get definición completa.
func (uc *ReportUseCase) Get(ctx context.Context, c *access.Claims, id string) (*dto.ReportResponse, error) {
	def, level, err := uc.load(ctx, c, id, entity.PermissionView)
	if err != nil {
		return nil, err
	}
	out := toReportResponse(def, level, true)
	return &out, nil
}

// Create alta de reporte propio del solicitante.
func (uc *ReportUseCase) Create(ctx context.Context, c *access.Claims, in dto.ReportRequest) (*dto.ReportResponse, error) {
	now := uc.now()
	def := &entity.ReportDefinition{OwnerUserID: c.UserID, Version: 1, IsActive: true, CreatedAt: now, UpdatedAt: now}
	fillReport(def, in)
	if err := uc.validateReport(ctx, def); err != nil {
		return nil, err
	}
	if err := uc.reports.Create(ctx, def); err != nil {
		return nil, err
	}
	log.Info().Str("report_id", def.ID).Str("code", def.ReportCode).Str("user_id", c.UserID).Msg("reporte creado")
	out := toReportResponse(def, entity.PermissionEdit, true)
	return &out, nil
}

// Update reemplaza la definición, sube la versión y descarta resultados cacheados.
func (uc *ReportUseCase) Update(ctx context.Context, c *access.Claims, id string, in dto.ReportRequest) (*dto.ReportResponse, error) {
	def, level, err := uc.load(ctx, c, id, entity.PermissionEdit)
	if err != nil {
		return nil, err
	}
	if def.IsSystem && !c.HasPermission(entity.PermReportsManage) {
		return nil, domain.ErrForbidden
	}
	fillReport(def, in)
	if err := uc.validateReport(ctx, def); err != nil {
		return nil, err
	}
	def.Version++
	def.UpdatedAt = uc.now()
	if err := uc.reports.Update(ctx, def); err != nil {
		return nil, err
	}
	uc.invalidate(ctx, def.ID)
	out := toReportResponse(def, level, true)
	return &out, nil
}

// Delete baja del reporte. Los reportes de sistema no se eliminan.
func (uc *ReportUseCase) Delete(ctx context.Context, c *access.Claims, id string) error {
	def, _, err := uc.load(ctx, c, id, entity.PermissionEdit)
	if err != nil {
		return err
	}
	if def.IsSystem {
		return fmt.Errorf("%w: reporte de sistema", domain.ErrForbidden)
	}
	if err := uc.reports.Delete(ctx, id); err != nil {
		return err
	}
	uc.invalidate(ctx, id)
	return nil
}

// SystemFields campos de sistema disponibles para columnas y filtros.
func (uc *ReportUseCase) SystemFields() map[string]string {
	return reporting.SystemFields()
}

func (uc *ReportUseCase) invalidate(ctx context.Context, reportID string) {
	if err := uc.cache.InvalidateReport(ctx, reportID); err != nil {
		log.Warn().Err(err).Str("report_id", reportID).Msg("reportes: no se pudo invalidar la cache")
	}
}

func fillReport(def *entity.ReportDefinition, in dto.ReportRequest) {
	def.ReportName = strings.TrimSpace(in.ReportName)
	def.ReportCode = normalizeCode(in.ReportCode)
	def.Description = strings.TrimSpace(in.Description)
	def.TemplateID = emptyToNil(in.TemplateID)
	def.ReportType = in.ReportType
	def.Category = strings.TrimSpace(in.Category)
	def.ChartType = strings.TrimSpace(in.ChartType)
	def.ChartConfiguration = in.ChartConfiguration
	def.LayoutConfiguration = in.LayoutConfiguration
	def.IsPublic = in.IsPublic

	def.Fields = make([]entity.ReportField, 0, len(in.Fields))
	for _, f := range in.Fields {
		visible := f.IsVisible == nil || *f.IsVisible
		def.Fields = append(def.Fields, entity.ReportField{
			ColumnRef:       toColumnRef(f.ColumnInput),
			DisplayName:     strings.TrimSpace(f.DisplayName),
			DisplayOrder:    f.DisplayOrder,
			IsVisible:       visible,
			ColumnWidth:     f.ColumnWidth,
			AggregationType: strings.ToUpper(f.AggregationType),
			FormatString:    f.FormatString,
		})
	}
	sort.SliceStable(def.Fields, func(i, j int) bool { return def.Fields[i].DisplayOrder < def.Fields[j].DisplayOrder })

	def.Filters = make([]entity.ReportFilter, 0, len(in.Filters))
	for _, f := range in.Filters {
		def.Filters = append(def.Filters, entity.ReportFilter{
			ColumnRef:         toColumnRef(f.ColumnInput),
			Operator:          f.Operator,
			FilterValue:       f.FilterValue,
			IsRequired:        f.IsRequired,
			AllowUserOverride: f.AllowUserOverride,
			IsParameterized:   f.IsParameterized,
			ParameterLabel:    strings.TrimSpace(f.ParameterLabel),
			DefaultValue:      f.DefaultValue,
			DisplayOrder:      f.DisplayOrder,
		})
	}
	def.Groupings = make([]entity.ReportGrouping, 0, len(in.Groupings))
	for _, g := range in.Groupings {
		def.Groupings = append(def.Groupings, entity.ReportGrouping{
			ColumnRef:      toColumnRef(g.ColumnInput),
			GroupOrder:     g.GroupOrder,
			SortDirection:  strings.ToUpper(g.SortDirection),
			ShowSubtotals:  g.ShowSubtotals,
			ShowGrandTotal: g.ShowGrandTotal,
		})
	}
	sort.SliceStable(def.Groupings, func(i, j int) bool { return def.Groupings[i].GroupOrder < def.Groupings[j].GroupOrder })
	def.Sortings = make([]entity.ReportSorting, 0, len(in.Sortings))
	for _, s := range in.Sortings {
		dir := strings.ToUpper(s.SortDirection)
		if dir == "" {
			dir = "ASC"
		}
		def.Sortings = append(def.Sortings, entity.ReportSorting{ColumnRef: toColumnRef(s.ColumnInput), SortOrder: s.SortOrder, SortDirection: dir})
	}
	sort.SliceStable(def.Sortings, func(i, j int) bool { return def.Sortings[i].SortOrder < def.Sortings[j].SortOrder })
}

func toColumnRef(in dto.ColumnInput) entity.ColumnRef {
	return entity.ColumnRef{
		SourceType:      in.SourceType,
		ItemID:          emptyToNil(in.ItemID),
		MetricID:        emptyToNil(in.MetricID),
		SystemFieldName: strings.TrimSpace(in.SystemFieldName),
	}
}

// validateReport reglas de la definición, código único, plantilla existente,
// campos de formulario de esa plantilla y métricas existentes.
func (uc *ReportUseCase) validateReport(ctx context.Context, def *entity.ReportDefinition) error {
	var errs domain.ValidationErrors
	if err := reporting.ValidateDefinition(def); err != nil {
		errs = append(errs, err.(domain.ValidationErrors)...)
	}
	byCode, err := uc.reports.GetByCode(ctx, def.ReportCode)
	if err != nil {
		return err
	}
	if byCode != nil && byCode.ID != def.ID {
		errs.Add("report_code", "ya existe un reporte con ese código")
	}
	if def.TemplateID != nil {
		t, err := uc.templates.GetByID(ctx, *def.TemplateID)
		if err != nil {
			return err
		}
		if t == nil {
			errs.Add("template_id", "plantilla inexistente")
		}
	}

	refs := make([]entity.ColumnRef, 0, len(def.Fields)+len(def.Filters)+len(def.Groupings)+len(def.Sortings))
	for _, f := range def.Fields {
		refs = append(refs, f.ColumnRef)
	}
	for _, f := range def.Filters {
		refs = append(refs, f.ColumnRef)
	}
	for _, g := range def.Groupings {
		refs = append(refs, g.ColumnRef)
	}
	for _, s := range def.Sortings {
		refs = append(refs, s.ColumnRef)
	}
	checked := map[string]bool{}
	for _, ref := range refs {
		switch {
		case ref.SourceType == entity.ColumnFormItem && ref.ItemID != nil:
			if _, done := checked[*ref.ItemID]; done {
				continue
			}
			it, err := uc.templates.GetItem(ctx, *ref.ItemID)
			if err != nil {
				return err
			}
			ok := it != nil && def.TemplateID != nil && it.TemplateID == *def.TemplateID
			checked[*ref.ItemID] = ok
			if !ok {
				errs.Add("fields", "el campo "+*ref.ItemID+" no pertenece a la plantilla del reporte")
			}
		case ref.SourceType == entity.ColumnMetric && ref.MetricID != nil:
			if _, done := checked[*ref.MetricID]; done {
				continue
			}
			m, err := uc.metrics.GetByID(ctx, *ref.MetricID)
			if err != nil {
				return err
			}
			checked[*ref.MetricID] = m != nil
			if m == nil {
				errs.Add("fields", "métrica inexistente: "+*ref.MetricID)
			}
		}
	}
	return errs.OrNil()
}

// ── Ejecución ─────────────────────────────────────────────────────────────────

// execution resultado de una ejecución con su traza aún sin persistir.
type execution struct {
	result *entity.ReportResult
	entry  *entity.ReportExecutionLog
	start  time.Time
}

// execute resuelve parámetros y tenants visibles, usa la cache y registra la corrida.
// Una ejecución fallida deja su traza persistida.
func (uc *ReportUseCase) execute(ctx context.Context, c *access.Claims, def *entity.ReportDefinition, in dto.RunReportRequest, execType string, scheduleID *string) (*execution, error) {
	start := uc.now()
	entry := &entity.ReportExecutionLog{
		ID:            uuid.NewString(),
		ReportID:      def.ID,
		ExecutedBy:    c.UserID,
		ExecutedAt:    start.UTC(),
		ExecutionType: execType,
		ScheduleID:    scheduleID,
		Parameters:    encodeParameters(in.Parameters),
	}
	fail := func(err error) (*execution, error) {
		entry.Status = entity.ExecutionFailed
		entry.ErrorMessage = err.Error()
		entry.ExecutionTimeMs = int(uc.now().Sub(start).Milliseconds())
		if lerr := uc.reports.CreateExecution(ctx, entry); lerr != nil {
			log.Warn().Err(lerr).Str("report_id", def.ID).Msg("reportes: no se pudo registrar la ejecución")
		}
		return nil, err
	}

	var errs domain.ValidationErrors
	for _, f := range def.Filters {
		if _, err := reporting.ResolveFilterValue(f, in.Parameters); err != nil {
			errs = append(errs, err.(domain.ValidationErrors)...)
		}
	}
	if err := errs.OrNil(); err != nil {
		return nil, err
	}

	allowed, err := uc.scope.Restriction(ctx, c)
	if err != nil {
		return nil, err
	}
	key := reporting.CacheKey(def.ID, def.Version, allowed, in.Parameters)
	var result *entity.ReportResult
	if !in.NoCache {
		if result, err = uc.cache.Get(ctx, key); err != nil {
			log.Warn().Err(err).Str("report_id", def.ID).Msg("reportes: cache no disponible")
			result = nil
		}
	}
	if result != nil {
		entry.FromCache = true
	} else {
		queryStart := uc.now()
		result, err = uc.query.Run(ctx, repository.ReportQuery{
			Definition: def,
			TenantIDs:  allowed,
			Parameters: in.Parameters,
			MaxRows:    uc.cfg.MaxRows,
		})
		if err != nil {
			return fail(err)
		}
		queryMs := int(uc.now().Sub(queryStart).Milliseconds())
		entry.QueryExecutionTimeMs = &queryMs
		if err := uc.cache.Set(ctx, key, result); err != nil {
			log.Warn().Err(err).Str("report_id", def.ID).Msg("reportes: no se pudo cachear el resultado")
		}
	}
	rows := len(result.Rows)
	entry.RowCount = &rows
	entry.Status = entity.ExecutionSuccess
	if err := uc.reports.RecordRun(ctx, def.ID, start.UTC()); err != nil {
		log.Warn().Err(err).Str("report_id", def.ID).Msg("reportes: no se pudo actualizar el contador")
	}
	return &execution{result: result, entry: entry, start: start}, nil
}

func (uc *ReportUseCase) finish(ctx context.Context, ex *execution) {
	ex.entry.ExecutionTimeMs = int(uc.now().Sub(ex.start).Milliseconds())
	if err := uc.reports.CreateExecution(ctx, ex.entry); err != nil {
		log.Warn().Err(err).Str("report_id", ex.entry.ReportID).Msg("reportes: no se pudo registrar la ejecución")
	}
}

// Run ejecuta el reporte con los tenants visibles del solicitante.
func (uc *ReportUseCase) Run(ctx context.Context, c *access.Claims, id string, in dto.RunReportRequest) (*dto.RunReportResponse, error) {
	def, _, err := uc.load(ctx, c, id, entity.PermissionRun)
	if err != nil {
		return nil, err
	}
	ex, err := uc.execute(ctx, c, def, in, entity.ExecutionManual, nil)
	if err != nil {
		return nil, err
	}
	uc.finish(ctx, ex)
	out := &dto.RunReportResponse{
		ReportID:    def.ID,
		ExecutionID: ex.entry.ID,
		Columns:     make([]dto.ReportColumnResponse, 0, len(ex.result.Columns)),
		Rows:        ex.result.Rows,
		RowCount:    len(ex.result.Rows),
		Truncated:   ex.result.Truncated,
		FromCache:   ex.entry.FromCache,
		ElapsedMs:   ex.entry.ExecutionTimeMs,
	}
	if out.Rows == nil {
		out.Rows = [][]any{}
	}
	for _, col := range ex.result.Columns {
		out.Columns = append(out.Columns, dto.ReportColumnResponse{Key: col.Key, Label: col.Label, FormatString: col.FormatString, Width: col.Width})
	}
	return out, nil
}

// Export ejecuta y convierte el resultado al formato pedido.
func (uc *ReportUseCase) Export(ctx context.Context, c *access.Claims, id string, in dto.ExportReportRequest) (*dto.ExportedFile, error) {
	def, _, err := uc.load(ctx, c, id, entity.PermissionRun)
	if err != nil {
		return nil, err
	}
	exporter, ok := uc.exporters[in.Format]
	if !ok {
		return nil, domain.Invalid("format", "formato no soportado %q", in.Format)
	}
	ex, err := uc.execute(ctx, c, def, in.RunReportRequest, entity.ExecutionExport, nil)
	if err != nil {
		return nil, err
	}
	data, err := uc.render(ex, def, exporter)
	if err != nil {
		return nil, err
	}
	uc.finish(ctx, ex)
	return &dto.ExportedFile{
		FileName:    exportFileName(def, uc.now(), exporter.Extension()),
		ContentType: exporter.ContentType(),
		Data:        data,
	}, nil
}

func (uc *ReportUseCase) render(ex *execution, def *entity.ReportDefinition, exporter ports.ReportExporter) ([]byte, error) {
	began := uc.now()
	data, err := exporter.Export(def, ex.result)
	if err != nil {
		return nil, fmt.Errorf("exportar %s: %w", exporter.Format(), err)
	}
	renderMs := int(uc.now().Sub(began).Milliseconds())
	sizeKB := (len(data) + 1023) / 1024
	ex.entry.RenderingTimeMs = &renderMs
	ex.entry.OutputSizeKB = &sizeKB
	ex.entry.OutputFormat = exporter.Format()
	return data, nil
}

// Executions últimas ejecuciones del reporte.
func (uc *ReportUseCase) Executions(ctx context.Context, c *access.Claims, id string, limit int) ([]dto.ExecutionLogResponse, error) {
	if _, _, err := uc.load(ctx, c, id, entity.PermissionView); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	logs, err := uc.reports.ListExecutions(ctx, id, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ExecutionLogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, dto.ExecutionLogResponse{
			ID:              l.ID,
			ExecutedBy:      l.ExecutedBy,
			ExecutedAt:      l.ExecutedAt,
			ExecutionType:   l.ExecutionType,
			ScheduleID:      l.ScheduleID,
			Status:          l.Status,
			RowCount:        l.RowCount,
			ErrorMessage:    l.ErrorMessage,
			ExecutionTimeMs: l.ExecutionTimeMs,
			OutputFormat:    l.OutputFormat,
			OutputSizeKB:    l.OutputSizeKB,
			OutputPath:      l.OutputPath,
			FromCache:       l.FromCache,
		})
	}
	return out, nil
}

// ── Programación ──────────────────────────────────────────────────────────────

// Schedules programaciones del reporte.
func (uc *ReportUseCase) Schedules(ctx context.Context, c *access.Claims, reportID string) ([]dto.ScheduleResponse, error) {
	if _, _, err := uc.load(ctx, c, reportID, entity.PermissionView); err != nil {
		return nil, err
	}
	items, err := uc.reports.ListSchedules(ctx, reportID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ScheduleResponse, 0, len(items))
	for _, s := range items {
		out = append(out, toScheduleResponse(s))
	}
	return out, nil
}

// CreateSchedule alta de programación; calcula la próxima ejecución.
func (uc *ReportUseCase) CreateSchedule(ctx context.Context, c *access.Claims, reportID string, in dto.ScheduleRequest) (*dto.ScheduleResponse, error) {
	if _, _, err := uc.load(ctx, c, reportID, entity.PermissionEdit); err != nil {
		return nil, err
	}
	now := uc.now()
	s := &entity.ReportSchedule{ReportID: reportID, IsActive: true, CreatedBy: c.UserID, CreatedAt: now}
	if err := uc.fillSchedule(s, in, now); err != nil {
		return nil, err
	}
	if err := uc.reports.CreateSchedule(ctx, s); err != nil {
		return nil, err
	}
	out := toScheduleResponse(s)
	return &out, nil
}

// UpdateSchedule modificación de programación.
func (uc *ReportUseCase) UpdateSchedule(ctx context.Context, c *access.Claims, id string, in dto.ScheduleRequest) (*dto.ScheduleResponse, error) {
	s, err := uc.loadSchedule(ctx, c, id)
	if err != nil {
		return nil, err
	}
	if err := uc.fillSchedule(s, in, uc.now()); err != nil {
		return nil, err
	}
	if err := uc.reports.UpdateSchedule(ctx, s); err != nil {
		return nil, err
	}
	out := toScheduleResponse(s)
	return &out, nil
}

// DeleteSchedule baja de programación.
func (uc *ReportUseCase) DeleteSchedule(ctx context.Context, c *access.Claims, id string) error {
	if _, err := uc.loadSchedule(ctx, c, id); err != nil {
		return err
	}
	return uc.reports.DeleteSchedule(ctx, id)
}

func (uc *ReportUseCase) loadSchedule(ctx context.Context, c *access.Claims, id string) (*entity.ReportSchedule, error) {
	s, err := uc.reports.GetSchedule(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, domain.ErrNotFound
	}
	if _, _, err := uc.load(ctx, c, s.ReportID, entity.PermissionEdit); err != nil {
		return nil, err
	}
	return s, nil
}

func (uc *ReportUseCase) fillSchedule(s *entity.ReportSchedule, in dto.ScheduleRequest, now time.Time) error {
	s.ScheduleName = strings.TrimSpace(in.ScheduleName)
	s.ScheduleType = in.ScheduleType
	s.DayOfWeek = in.DayOfWeek
	s.DayOfMonth = in.DayOfMonth
	s.ExecutionTime = strings.TrimSpace(in.ExecutionTime)
	s.Timezone = strings.TrimSpace(in.Timezone)
	if s.Timezone == "" {
		s.Timezone = uc.cfg.DefaultTimezone
	}
	s.OutputFormat = in.OutputFormat
	s.IncludeCharts = in.IncludeCharts
	s.PageOrientation = in.PageOrientation
	s.Recipients = strings.TrimSpace(in.Recipients)
	if in.IsActive != nil {
		s.IsActive = *in.IsActive
	}
	if err := reporting.ValidateSchedule(s, uc.cfg.DefaultTimezone); err != nil {
		return err
	}
	next, err := reporting.NextRun(s, now, uc.cfg.DefaultTimezone)
	if err != nil {
		return err
	}
	s.NextRunAt = &next
	s.UpdatedAt = now
	return nil
}

// DueSchedules programaciones activas vencidas.
func (uc *ReportUseCase) DueSchedules(ctx context.Context) ([]*entity.ReportSchedule, error) {
	return uc.reports.ListDueSchedules(ctx, uc.now().UTC())
}

// ExecuteSchedule corre una programación con los claims de quien la creó, guarda la salida
// en el almacenamiento de objetos, registra el resultado y agenda la próxima ejecución.
func (uc *ReportUseCase) ExecuteSchedule(ctx context.Context, c *access.Claims, s *entity.ReportSchedule) error {
	runErr := uc.executeSchedule(ctx, c, s)
	now := uc.now()
	at := now.UTC()
	s.LastRunAt = &at
	s.LastRunStatus = entity.ExecutionSuccess
	s.LastRunError = ""
	if runErr != nil {
		s.LastRunStatus = entity.ExecutionFailed
		s.LastRunError = runErr.Error()
	}
	if next, err := reporting.NextRun(s, now, uc.cfg.DefaultTimezone); err == nil {
		s.NextRunAt = &next
	} else {
		s.IsActive = false
		log.Warn().Err(err).Str("schedule_id", s.ID).Msg("reportes: programación inválida, se desactiva")
	}
	s.UpdatedAt = now
	if err := uc.reports.UpdateSchedule(ctx, s); err != nil {
		return err
	}
	return runErr
}

func (uc *ReportUseCase) executeSchedule(ctx context.Context, c *access.Claims, s *entity.ReportSchedule) error {
	if c == nil {
		return fmt.Errorf("%w: el creador de la programación no existe", domain.ErrNotFound)
	}
	def, _, err := uc.load(ctx, c, s.ReportID, entity.PermissionRun)
	if err != nil {
		return err
	}
	exporter, ok := uc.exporters[s.OutputFormat]
	if !ok {
		return fmt.Errorf("%w: formato %q", domain.ErrInvalidInput, s.OutputFormat)
	}
	scheduleID := s.ID
	ex, err := uc.execute(ctx, c, def, dto.RunReportRequest{}, entity.ExecutionScheduled, &scheduleID)
	if err != nil {
		return err
	}
	data, err := uc.render(ex, def, exporter)
	if err != nil {
		ex.entry.Status = entity.ExecutionFailed
		ex.entry.ErrorMessage = err.Error()
		uc.finish(ctx, ex)
		return err
	}
	key := ReportOutputKey(def.ID, ex.start, ex.entry.ID, exporter.Extension())
	if err := uc.storage.Put(ctx, key, exporter.ContentType(), data); err != nil {
		ex.entry.Status = entity.ExecutionFailed
		ex.entry.ErrorMessage = err.Error()
		uc.finish(ctx, ex)
		return err
	}
	ex.entry.OutputPath = key
	uc.finish(ctx, ex)
	log.Info().Str("report_id", def.ID).Str("schedule_id", s.ID).Str("key", key).Int("rows", *ex.entry.RowCount).Msg("reporte programado generado")
	return nil
}

// ReportOutputKey clave de almacenamiento de una salida programada:
// reports/{reportId}/{yyyy}/{mm}/{executionId}.{ext}.
func ReportOutputKey(reportID string, at time.Time, executionID, ext string) string {
	at = at.UTC()
	return fmt.Sprintf("reports/%s/%04d/%02d/%s.%s", reportID, at.Year(), int(at.Month()), executionID, ext)
}

func exportFileName(def *entity.ReportDefinition, at time.Time, ext string) string {
	return strings.ToLower(def.ReportCode) + "_" + at.UTC().Format("20060102_150405") + "." + ext
}

func encodeParameters(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+params[k])
	}
	return strings.Join(parts, "&")
}

// ── Acceso ────────────────────────────────────────────────────────────────────

// AccessList concesiones del reporte.
func (uc *ReportUseCase) AccessList(ctx context.Context, c *access.Claims, reportID string) ([]dto.ReportAccessResponse, error) {
	if _, _, err := uc.load(ctx, c, reportID, entity.PermissionEdit); err != nil {
		return nil, err
	}
	grants, err := uc.reports.ListAccess(ctx, reportID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ReportAccessResponse, 0, len(grants))
	for _, a := range grants {
		out = append(out, toAccessResponse(a))
	}
	return out, nil
}

// GrantAccess concede un nivel a un usuario, rol o departamento.
func (uc *ReportUseCase) GrantAccess(ctx context.Context, c *access.Claims, reportID string, in dto.ReportAccessRequest) (*dto.ReportAccessResponse, error) {
	if _, _, err := uc.load(ctx, c, reportID, entity.PermissionEdit); err != nil {
		return nil, err
	}
	a := &entity.ReportAccessControl{
		ReportID:        reportID,
		AccessType:      in.AccessType,
		PermissionLevel: in.PermissionLevel,
		GrantedBy:       c.UserID,
		GrantedAt:       uc.now().UTC(),
		ExpiryDate:      in.ExpiryDate,
		IsActive:        true,
	}
	var target *string
	switch in.AccessType {
	case entity.AccessUser:
		a.UserID, target = emptyToNil(in.UserID), emptyToNil(in.UserID)
	case entity.AccessRole:
		a.RoleID, target = emptyToNil(in.RoleID), emptyToNil(in.RoleID)
	case entity.AccessDepartment:
		a.DepartmentID, target = emptyToNil(in.DepartmentID), emptyToNil(in.DepartmentID)
	default:
		return nil, domain.Invalid("access_type", "debe ser User, Role o Department")
	}
	if target == nil {
		return nil, domain.Invalid("access_type", "falta el destinatario para %s", in.AccessType)
	}
	if entity.PermissionRank(in.PermissionLevel) == 0 {
		return nil, domain.Invalid("permission_level", "debe ser View, Run o Edit")
	}
	if in.ExpiryDate != nil && !in.ExpiryDate.After(uc.now()) {
		return nil, domain.Invalid("expiry_date", "debe ser futura")
	}
	if a.UserID != nil {
		u, err := uc.users.GetByID(ctx, *a.UserID)
		if err != nil {
			return nil, err
		}
		if u == nil {
			return nil, domain.Invalid("user_id", "usuario inexistente")
		}
	}
	if err := uc.reports.CreateAccess(ctx, a); err != nil {
		return nil, err
	}
	out := toAccessResponse(a)
	return &out, nil
}

// RevokeAccess desactiva una concesión del reporte.
func (uc *ReportUseCase) RevokeAccess(ctx context.Context, c *access.Claims, reportID, accessID string) error {
	if _, _, err := uc.load(ctx, c, reportID, entity.PermissionEdit); err != nil {
		return err
	}
	grants, err := uc.reports.ListAccess(ctx, reportID)
	if err != nil {
		return err
	}
	for _, a := range grants {
		if a.ID == accessID {
			return uc.reports.RevokeAccess(ctx, accessID)
		}
	}
	return domain.ErrNotFound
}

// ── Mapeo a DTO ───────────────────────────────────────────────────────────────

func toColumnResponse(c entity.ColumnRef) dto.ColumnResponse {
	return dto.ColumnResponse{SourceType: c.SourceType, ItemID: c.ItemID, MetricID: c.MetricID, SystemFieldName: c.SystemFieldName}
}

func toReportResponse(d *entity.ReportDefinition, level string, detail bool) dto.ReportResponse {
	out := dto.ReportResponse{
		ID:                  d.ID,
		ReportName:          d.ReportName,
		ReportCode:          d.ReportCode,
		Description:         d.Description,
		TemplateID:          d.TemplateID,
		ReportType:          d.ReportType,
		Category:            d.Category,
		ChartType:           d.ChartType,
		ChartConfiguration:  d.ChartConfiguration,
		LayoutConfiguration: d.LayoutConfiguration,
		IsPublic:            d.IsPublic,
		IsSystem:            d.IsSystem,
		OwnerUserID:         d.OwnerUserID,
		Version:             d.Version,
		LastRunAt:           d.LastRunAt,
		RunCount:            d.RunCount,
		Permission:          level,
		CreatedAt:           d.CreatedAt,
		UpdatedAt:           d.UpdatedAt,
	}
	if !detail {
		return out
	}
	for _, f := range d.Fields {
		out.Fields = append(out.Fields, dto.ReportFieldResponse{
			ColumnResponse:  toColumnResponse(f.ColumnRef),
			ID:              f.ID,
			DisplayName:     f.DisplayName,
			DisplayOrder:    f.DisplayOrder,
			IsVisible:       f.IsVisible,
			ColumnWidth:     f.ColumnWidth,
			AggregationType: f.AggregationType,
			FormatString:    f.FormatString,
		})
	}
	for _, f := range d.Filters {
		out.Filters = append(out.Filters, dto.ReportFilterResponse{
			ColumnResponse:    toColumnResponse(f.ColumnRef),
			ID:                f.ID,
			Operator:          f.Operator,
			FilterValue:       f.FilterValue,
			IsRequired:        f.IsRequired,
			AllowUserOverride: f.AllowUserOverride,
			IsParameterized:   f.IsParameterized,
			ParameterLabel:    f.ParameterLabel,
			DefaultValue:      f.DefaultValue,
			DisplayOrder:      f.DisplayOrder,
		})
	}
	for _, g := range d.Groupings {
		out.Groupings = append(out.Groupings, dto.ReportGroupingResponse{
			ColumnResponse: toColumnResponse(g.ColumnRef),
			ID:             g.ID,
			GroupOrder:     g.GroupOrder,
			SortDirection:  g.SortDirection,
			ShowSubtotals:  g.ShowSubtotals,
			ShowGrandTotal: g.ShowGrandTotal,
		})
	}
	for _, s := range d.Sortings {
		out.Sortings = append(out.Sortings, dto.ReportSortingResponse{
			ColumnResponse: toColumnResponse(s.ColumnRef),
			ID:             s.ID,
			SortOrder:      s.SortOrder,
			SortDirection:  s.SortDirection,
		})
	}
	return out
}

func toScheduleResponse(s *entity.ReportSchedule) dto.ScheduleResponse {
	return dto.ScheduleResponse{
		ID:              s.ID,
		ReportID:        s.ReportID,
		ScheduleName:    s.ScheduleName,
		ScheduleType:    s.ScheduleType,
		DayOfWeek:       s.DayOfWeek,
		DayOfMonth:      s.DayOfMonth,
		ExecutionTime:   s.ExecutionTime,
		Timezone:        s.Timezone,
		OutputFormat:    s.OutputFormat,
		IncludeCharts:   s.IncludeCharts,
		PageOrientation: s.PageOrientation,
		Recipients:      s.Recipients,
		IsActive:        s.IsActive,
		LastRunAt:       s.LastRunAt,
		NextRunAt:       s.NextRunAt,
		LastRunStatus:   s.LastRunStatus,
		LastRunError:    s.LastRunError,
	}
}

func toAccessResponse(a *entity.ReportAccessControl) dto.ReportAccessResponse {
	return dto.ReportAccessResponse{
		ID:              a.ID,
		AccessType:      a.AccessType,
		UserID:          a.UserID,
		RoleID:          a.RoleID,
		DepartmentID:    a.DepartmentID,
		PermissionLevel: a.PermissionLevel,
		GrantedBy:       a.GrantedBy,
		GrantedAt:       a.GrantedAt,
		ExpiryDate:      a.ExpiryDate,
		IsActive:        a.IsActive,
	}
}
