package postgres

import (
	"context"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/jhoicas/form-reporting-api/internal/domain/repository"
)

var (
	_ repository.MetricDefinitionRepository = (*MetricDefinitionRepo)(nil)
	_ repository.MetricMappingRepository    = (*MetricMappingRepo)(nil)
	_ repository.TenantMetricRepository     = (*TenantMetricRepo)(nil)
)

// ── Catálogo ──────────────────────────────────────────────────────────────────

// MetricDefinitionRepo persistencia del catálogo de métricas.
type MetricDefinitionRepo struct {
	q Querier
}

// NewMetricDefinitionRepository construye el adaptador del catálogo.
func NewMetricDefinitionRepository(q Querier) *MetricDefinitionRepo {
	return &MetricDefinitionRepo{q: q}
}

func selectMetrics() sq.SelectBuilder {
	return builder().
		Select("id", "metric_code", "metric_name", "category", "source_type", "data_type", "unit", "aggregation_type",
			"metric_scope", "hierarchy_level", "parent_metric_id", "is_kpi", "threshold_green", "threshold_yellow",
			"threshold_red", "expected_value", "description", "is_active", "created_at", "updated_at").
		From("metric_definitions")
}

func scanMetric(s scanner) (*entity.MetricDefinition, error) {
	var m entity.MetricDefinition
	err := s.Scan(&m.ID, &m.MetricCode, &m.MetricName, &m.Category, &m.SourceType, &m.DataType, &m.Unit, &m.AggregationType,
		&m.MetricScope, &m.HierarchyLevel, &m.ParentMetricID, &m.IsKPI, &m.ThresholdGreen, &m.ThresholdYellow,
		&m.ThresholdRed, &m.ExpectedValue, &m.Description, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MetricDefinitionRepo) Create(ctx context.Context, m *entity.MetricDefinition) error {
	ensureID(&m.ID)
	stamp(&m.CreatedAt, &m.UpdatedAt)
	_, err := r.q.Exec(ctx, `
		INSERT INTO metric_definitions (id, metric_code, metric_name, category, source_type, data_type, unit,
			aggregation_type, metric_scope, hierarchy_level, parent_metric_id, is_kpi, threshold_green,
			threshold_yellow, threshold_red, expected_value, description, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		m.ID, m.MetricCode, m.MetricName, m.Category, m.SourceType, m.DataType, m.Unit,
		m.AggregationType, m.MetricScope, m.HierarchyLevel, m.ParentMetricID, m.IsKPI, m.ThresholdGreen,
		m.ThresholdYellow, m.ThresholdRed, m.ExpectedValue, m.Description, m.IsActive, m.CreatedAt, m.UpdatedAt)
	return wrapErr("insert metric definition", err)
}

func (r *MetricDefinitionRepo) Update(ctx context.Context, m *entity.MetricDefinition) error {
	stamp(&m.UpdatedAt)
	tag, err := r.q.Exec(ctx, `
		UPDATE metric_definitions SET metric_code = $2, metric_name = $3, category = $4, source_type = $5,
			data_type = $6, unit = $7, aggregation_type = $8, metric_scope = $9, hierarchy_level = $10,
			parent_metric_id = $11, is_kpi = $12, threshold_green = $13, threshold_yellow = $14, threshold_red = $15,
			expected_value = $16, description = $17, is_active = $18, updated_at = $19
		WHERE id = $1`,
		m.ID, m.MetricCode, m.MetricName, m.Category, m.SourceType,
		m.DataType, m.Unit, m.AggregationType, m.MetricScope, m.HierarchyLevel,
		m.ParentMetricID, m.IsKPI, m.ThresholdGreen, m.ThresholdYellow, m.ThresholdRed,
		m.ExpectedValue, m.Description, m.IsActive, m.UpdatedAt)
	return mustAffect(tag, wrapErr("update metric definition", err))
}

func (r *MetricDefinitionRepo) GetByID(ctx context.Context, id string) (*entity.MetricDefinition, error) {
	return selectOne(ctx, r.q, "get metric definition", selectMetrics().Where(sq.Eq{"id": id}), scanMetric)
}

func (r *MetricDefinitionRepo) GetByCode(ctx context.Context, code string) (*entity.MetricDefinition, error) {
	return selectOne(ctx, r.q, "get metric definition by code", selectMetrics().Where(sq.Eq{"metric_code": code}), scanMetric)
}

func (r *MetricDefinitionRepo) List(ctx context.Context, f repository.MetricFilter) ([]*entity.MetricDefinition, int, error) {
	where := sq.And{}
	if f.Category != "" {
		where = append(where, sq.Eq{"category": f.Category})
	}
	if f.DataTypes != nil {
		where = append(where, inIDs("data_type", f.DataTypes))
	}
	if f.OnlyKPI {
		where = append(where, sq.Eq{"is_kpi": true})
	}
	if f.OnlyActive {
		where = append(where, sq.Eq{"is_active": true})
	}
	if strings.TrimSpace(f.Search) != "" {
		where = append(where, ilike(f.Search, "metric_name", "metric_code"))
	}
	total, err := count(ctx, r.q, "count metric definitions", builder().Select("COUNT(*)").From("metric_definitions").Where(where))
	if err != nil {
		return nil, 0, err
	}
	b := page(selectMetrics().Where(where).OrderBy("category", "metric_name"), f.Limit, f.Offset)
	metrics, err := selectAll(ctx, r.q, "list metric definitions", b, scanMetric)
	return metrics, total, err
}

// ── Mapeos ────────────────────────────────────────────────────────────────────

// MetricMappingRepo mapeos de ítems, secciones y plantillas a métricas.
type MetricMappingRepo struct {
	q Querier
}

// NewMetricMappingRepository construye el adaptador de mapeos.
func NewMetricMappingRepository(q Querier) *MetricMappingRepo {
	return &MetricMappingRepo{q: q}
}

func selectItemMappings() sq.SelectBuilder {
	return builder().
		Select("m.id", "m.item_id", "m.metric_id", "m.mapping_name", "m.mapping_type", "m.transformation_logic",
			"m.expected_value", "m.is_active", "m.created_by", "m.created_at", "m.updated_at",
			"i.item_code", "i.item_name", "i.template_id", "md.metric_code", "md.metric_name", "md.data_type").
		From("form_item_metric_mappings m").
		Join("form_items i ON i.id = m.item_id").
		Join("metric_definitions md ON md.id = m.metric_id")
}

func scanItemMapping(s scanner) (*entity.FormItemMetricMapping, error) {
	var m entity.FormItemMetricMapping
	err := s.Scan(&m.ID, &m.ItemID, &m.MetricID, &m.MappingName, &m.MappingType, &m.TransformationLogic,
		&m.ExpectedValue, &m.IsActive, &m.CreatedBy, &m.CreatedAt, &m.UpdatedAt,
		&m.ItemCode, &m.ItemName, &m.TemplateID, &m.MetricCode, &m.MetricName, &m.MetricType)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MetricMappingRepo) CreateItemMapping(ctx context.Context, m *entity.FormItemMetricMapping) error {
	ensureID(&m.ID)
	stamp(&m.CreatedAt, &m.UpdatedAt)
	_, err := r.q.Exec(ctx, `
		INSERT INTO form_item_metric_mappings (id, item_id, metric_id, mapping_name, mapping_type, transformation_logic,
			expected_value, is_active, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		m.ID, m.ItemID, m.MetricID, m.MappingName, m.MappingType, m.TransformationLogic,
		m.ExpectedValue, m.IsActive, m.CreatedBy, m.CreatedAt, m.UpdatedAt)
	return wrapErr("insert item mapping", err)
}

func (r *MetricMappingRepo) UpdateItemMapping(ctx context.Context, m *entity.FormItemMetricMapping) error {
	stamp(&m.UpdatedAt)
	tag, err := r.q.Exec(ctx, `
		UPDATE form_item_metric_mappings SET metric_id = $2, mapping_name = $3, mapping_type = $4,
			transformation_logic = $5, expected_value = $6, is_active = $7, updated_at = $8
		WHERE id = $1`,
		m.ID, m.MetricID, m.MappingName, m.MappingType, m.TransformationLogic, m.ExpectedValue, m.IsActive, m.UpdatedAt)
	return mustAffect(tag, wrapErr("update item mapping", err))
}

func (r *MetricMappingRepo) GetItemMapping(ctx context.Context, id string) (*entity.FormItemMetricMapping, error) {
	return selectOne(ctx, r.q, "get item mapping", selectItemMappings().Where(sq.Eq{"m.id": id}), scanItemMapping)
}

func (r *MetricMappingRepo) ListItemMappings(ctx context.Context, templateID string, onlyActive bool) ([]*entity.FormItemMetricMapping, error) {
	b := selectItemMappings().Where(sq.Eq{"i.template_id": templateID})
	if onlyActive {
		b = b.Where(sq.Eq{"m.is_active": true})
	}
	return selectAll(ctx, r.q, "list item mappings", b.OrderBy("i.item_code", "md.metric_code"), scanItemMapping)
}

func (r *MetricMappingRepo) ExistsActiveItemMapping(ctx context.Context, itemID, metricID, excludeID string) (bool, error) {
	b := builder().Select("COUNT(*)").From("form_item_metric_mappings").
		Where(sq.Eq{"item_id": itemID, "metric_id": metricID, "is_active": true})
	if excludeID != "" {
		b = b.Where(sq.NotEq{"id": excludeID})
	}
	n, err := count(ctx, r.q, "exists item mapping", b)
	return n > 0, err
}

// ── Mapeos de sección ─────────────────────────────────────────────────────────

func selectSectionMappings() sq.SelectBuilder {
	return builder().
		Select("m.id", "m.section_id", "m.metric_id", "m.mapping_name", "m.mapping_type", "m.aggregation_type",
			"m.formula", "m.is_active", "m.created_at", "m.updated_at", "s.template_id").
		From("form_section_metric_mappings m").
		Join("form_sections s ON s.id = m.section_id")
}

func scanSectionMapping(s scanner) (*entity.FormSectionMetricMapping, error) {
	var m entity.FormSectionMetricMapping
	err := s.Scan(&m.ID, &m.SectionID, &m.MetricID, &m.MappingName, &m.MappingType, &m.AggregationType,
		&m.Formula, &m.IsActive, &m.CreatedAt, &m.UpdatedAt, &m.TemplateID)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MetricMappingRepo) CreateSectionMapping(ctx context.Context, m *entity.FormSectionMetricMapping) error {
	ensureID(&m.ID)
	stamp(&m.CreatedAt, &m.UpdatedAt)
	_, err := r.q.Exec(ctx, `
		INSERT INTO form_section_metric_mappings (id, section_id, metric_id, mapping_name, mapping_type,
			aggregation_type, formula, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		m.ID, m.SectionID, m.MetricID, m.MappingName, m.MappingType,
		m.AggregationType, m.Formula, m.IsActive, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return wrapErr("insert section mapping", err)
	}
	return r.replaceSectionSources(ctx, m)
}

// UpdateSectionMapping reemplaza también las fuentes.
func (r *MetricMappingRepo) UpdateSectionMapping(ctx context.Context, m *entity.FormSectionMetricMapping) error {
	stamp(&m.UpdatedAt)
	tag, err := r.q.Exec(ctx, `
		UPDATE form_section_metric_mappings SET metric_id = $2, mapping_name = $3, mapping_type = $4,
			aggregation_type = $5, formula = $6, is_active = $7, updated_at = $8
		WHERE id = $1`,
		m.ID, m.MetricID, m.MappingName, m.MappingType, m.AggregationType, m.Formula, m.IsActive, m.UpdatedAt)
	if err := mustAffect(tag, wrapErr("update section mapping", err)); err != nil {
		return err
	}
	return r.replaceSectionSources(ctx, m)
}

func (r *MetricMappingRepo) replaceSectionSources(ctx context.Context, m *entity.FormSectionMetricMapping) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM form_section_metric_sources WHERE section_mapping_id = $1`, m.ID); err != nil {
		return wrapErr("clear section sources", err)
	}
	if len(m.Sources) == 0 {
		return nil
	}
	ins := builder().Insert("form_section_metric_sources").
		Columns("id", "section_mapping_id", "item_mapping_id", "weight", "display_order")
	for i := range m.Sources {
		src := &m.Sources[i]
		ensureID(&src.ID)
		src.SectionMappingID = m.ID
		ins = ins.Values(src.ID, m.ID, src.ItemMappingID, src.Weight, src.DisplayOrder)
	}
	_, err := exec(ctx, r.q, "insert section sources", ins)
	return err
}

func (r *MetricMappingRepo) loadSectionSources(ctx context.Context, maps []*entity.FormSectionMetricMapping) error {
	if len(maps) == 0 {
		return nil
	}
	byID := make(map[string]*entity.FormSectionMetricMapping, len(maps))
	ids := make([]string, 0, len(maps))
	for _, m := range maps {
		byID[m.ID] = m
		ids = append(ids, m.ID)
	}
	b := builder().
		Select("id", "section_mapping_id", "item_mapping_id", "weight", "display_order").
		From("form_section_metric_sources").
		Where(sq.Eq{"section_mapping_id": ids}).
		OrderBy("display_order")
	srcs, err := selectAll(ctx, r.q, "load section sources", b, func(s scanner) (*entity.FormSectionMetricSource, error) {
		var x entity.FormSectionMetricSource
		err := s.Scan(&x.ID, &x.SectionMappingID, &x.ItemMappingID, &x.Weight, &x.DisplayOrder)
		return &x, err
	})
	if err != nil {
		return err
	}
	for _, src := range srcs {
		m := byID[src.SectionMappingID]
		m.Sources = append(m.Sources, *src)
	}
	return nil
}

func (r *MetricMappingRepo) GetSectionMapping(ctx context.Context, id string) (*entity.FormSectionMetricMapping, error) {
	m, err := selectOne(ctx, r.q, "get section mapping", selectSectionMappings().Where(sq.Eq{"m.id": id}), scanSectionMapping)
	if err != nil || m == nil {
		return m, err
	}
	return m, r.loadSectionSources(ctx, []*entity.FormSectionMetricMapping{m})
}

func (r *MetricMappingRepo) ListSectionMappings(ctx context.Context, templateID string, onlyActive bool) ([]*entity.FormSectionMetricMapping, error) {
	b := selectSectionMappings().Where(sq.Eq{"s.template_id": templateID})
	if onlyActive {
		b = b.Where(sq.Eq{"m.is_active": true})
	}
	maps, err := selectAll(ctx, r.q, "list section mappings", b.OrderBy("m.mapping_name"), scanSectionMapping)
	if err != nil {
		return nil, err
	}
	return maps, r.loadSectionSources(ctx, maps)
}

// ── Mapeos de plantilla ───────────────────────────────────────────────────────

func selectTemplateMappings() sq.SelectBuilder {
	return builder().
		Select("id", "template_id", "metric_id", "mapping_name", "mapping_type", "aggregation_type",
			"formula", "is_active", "created_at", "updated_at").
		From("form_template_metric_mappings")
}

func scanTemplateMapping(s scanner) (*entity.FormTemplateMetricMapping, error) {
	var m entity.FormTemplateMetricMapping
	err := s.Scan(&m.ID, &m.TemplateID, &m.MetricID, &m.MappingName, &m.MappingType, &m.AggregationType,
		&m.Formula, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MetricMappingRepo) CreateTemplateMapping(ctx context.Context, m *entity.FormTemplateMetricMapping) error {
	ensureID(&m.ID)
	stamp(&m.CreatedAt, &m.UpdatedAt)
	_, err := r.q.Exec(ctx, `
		INSERT INTO form_template_metric_mappings (id, template_id, metric_id, mapping_name, mapping_type,
			aggregation_type, formula, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		m.ID, m.TemplateID, m.MetricID, m.MappingName, m.MappingType,
		m.AggregationType, m.Formula, m.IsActive, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return wrapErr("insert template mapping", err)
	}
	return r.replaceTemplateSources(ctx, m)
}

func (r *MetricMappingRepo) UpdateTemplateMapping(ctx context.Context, m *entity.FormTemplateMetricMapping) error {
	stamp(&m.UpdatedAt)
	tag, err := r.q.Exec(ctx, `
		UPDATE form_template_metric_mappings SET metric_id = $2, mapping_name = $3, mapping_type = $4,
			aggregation_type = $5, formula = $6, is_active = $7, updated_at = $8
		WHERE id = $1`,
		m.ID, m.MetricID, m.MappingName, m.MappingType, m.AggregationType, m.Formula, m.IsActive, m.UpdatedAt)
	if err := mustAffect(tag, wrapErr("update template mapping", err)); err != nil {
		return err
	}
	return r.replaceTemplateSources(ctx, m)
}

func (r *MetricMappingRepo) replaceTemplateSources(ctx context.Context, m *entity.FormTemplateMetricMapping) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM form_template_metric_sources WHERE template_mapping_id = $1`, m.ID); err != nil {
		return wrapErr("clear template sources", err)
	}
	if len(m.Sources) == 0 {
		return nil
	}
	ins := builder().Insert("form_template_metric_sources").
		Columns("id", "template_mapping_id", "section_mapping_id", "weight", "display_order")
	for i := range m.Sources {
		src := &m.Sources[i]
		ensureID(&src.ID)
		src.TemplateMappingID = m.ID
		ins = ins.Values(src.ID, m.ID, src.SectionMappingID, src.Weight, src.DisplayOrder)
	}
	_, err := exec(ctx, r.q, "insert template sources", ins)
	return err
}

func (r *MetricMappingRepo) loadTemplateSources(ctx context.Context, maps []*entity.FormTemplateMetricMapping) error {
	if len(maps) == 0 {
		return nil
	}
	byID := make(map[string]*entity.FormTemplateMetricMapping, len(maps))
	ids := make([]string, 0, len(maps))
	for _, m := range maps {
		byID[m.ID] = m
		ids = append(ids, m.ID)
	}
	b := builder().
		Select("id", "template_mapping_id", "section_mapping_id", "weight", "display_order").
		From("form_template_metric_sources").
		Where(sq.Eq{"template_mapping_id": ids}).
		OrderBy("display_order")
	srcs, err := selectAll(ctx, r.q, "load template sources", b, func(s scanner) (*entity.FormTemplateMetricSource, error) {
		var x entity.FormTemplateMetricSource
		err := s.Scan(&x.ID, &x.TemplateMappingID, &x.SectionMappingID, &x.Weight, &x.DisplayOrder)
		return &x, err
	})
	if err != nil {
		return err
	}
	for _, src := range srcs {
		m := byID[src.TemplateMappingID]
		m.Sources = append(m.Sources, *src)
	}
	return nil
}

func (r *MetricMappingRepo) GetTemplateMapping(ctx context.Context, id string) (*entity.FormTemplateMetricMapping, error) {
	m, err := selectOne(ctx, r.q, "get template mapping", selectTemplateMappings().Where(sq.Eq{"id": id}), scanTemplateMapping)
	if err != nil || m == nil {
		return m, err
	}
	return m, r.loadTemplateSources(ctx, []*entity.FormTemplateMetricMapping{m})
}

func (r *MetricMappingRepo) ListTemplateMappings(ctx context.Context, templateID string, onlyActive bool) ([]*entity.FormTemplateMetricMapping, error) {
	b := selectTemplateMappings().Where(sq.Eq{"template_id": templateID})
	if onlyActive {
		b = b.Where(sq.Eq{"is_active": true})
	}
	maps, err := selectAll(ctx, r.q, "list template mappings", b.OrderBy("mapping_name"), scanTemplateMapping)
	if err != nil {
		return nil, err
	}
	return maps, r.loadTemplateSources(ctx, maps)
}

// ── Valores y trazas ──────────────────────────────────────────────────────────

// TenantMetricRepo valores poblados de métricas y logs de población.
type TenantMetricRepo struct {
	q Querier
}

// NewTenantMetricRepository construye el adaptador de valores de métricas.
func NewTenantMetricRepository(q Querier) *TenantMetricRepo {
	return &TenantMetricRepo{q: q}
}

func selectTenantMetrics() sq.SelectBuilder {
	return builder().
		Select("tm.id", "tm.tenant_id", "tm.metric_id", "tm.reporting_period", "tm.numeric_value", "tm.text_value",
			"tm.source_type", "tm.source_reference_id", "tm.captured_at", "md.metric_code", "md.metric_name").
		From("tenant_metrics tm").
		Join("metric_definitions md ON md.id = tm.metric_id")
}

func scanTenantMetric(s scanner) (*entity.TenantMetric, error) {
	var m entity.TenantMetric
	err := s.Scan(&m.ID, &m.TenantID, &m.MetricID, &m.ReportingPeriod, &m.NumericValue, &m.TextValue,
		&m.SourceType, &m.SourceReferenceID, &m.CapturedAt, &m.MetricCode, &m.MetricName)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *TenantMetricRepo) Upsert(ctx context.Context, m *entity.TenantMetric) error {
	ensureID(&m.ID)
	stamp(&m.CapturedAt)
	row := r.q.QueryRow(ctx, `
		INSERT INTO tenant_metrics (id, tenant_id, metric_id, reporting_period, numeric_value, text_value,
			source_type, source_reference_id, captured_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (tenant_id, metric_id, reporting_period) DO UPDATE SET
			numeric_value = EXCLUDED.numeric_value,
			text_value = EXCLUDED.text_value,
			source_type = EXCLUDED.source_type,
			source_reference_id = EXCLUDED.source_reference_id,
			captured_at = EXCLUDED.captured_at
		RETURNING id`,
		m.ID, m.TenantID, m.MetricID, m.ReportingPeriod, m.NumericValue, m.TextValue,
		m.SourceType, m.SourceReferenceID, m.CapturedAt)
	if err := row.Scan(&m.ID); err != nil {
		return wrapErr("upsert tenant metric", err)
	}
	return nil
}

func (r *TenantMetricRepo) Get(ctx context.Context, tenantID, metricID string, period time.Time) (*entity.TenantMetric, error) {
	b := selectTenantMetrics().Where(sq.Eq{"tm.tenant_id": tenantID, "tm.metric_id": metricID, "tm.reporting_period": period})
	return selectOne(ctx, r.q, "get tenant metric", b, scanTenantMetric)
}

// List del período más reciente al más antiguo.
func (r *TenantMetricRepo) List(ctx context.Context, f repository.TenantMetricFilter) ([]*entity.TenantMetric, error) {
	b := selectTenantMetrics()
	if f.TenantIDs != nil {
		b = b.Where(inIDs("tm.tenant_id", f.TenantIDs))
	}
	if f.MetricID != "" {
		b = b.Where(sq.Eq{"tm.metric_id": f.MetricID})
	}
	if f.From != nil {
		b = b.Where(sq.GtOrEq{"tm.reporting_period": *f.From})
	}
	if f.To != nil {
		b = b.Where(sq.LtOrEq{"tm.reporting_period": *f.To})
	}
	b = page(b.OrderBy("tm.reporting_period DESC", "md.metric_code"), f.Limit, 0)
	return selectAll(ctx, r.q, "list tenant metrics", b, scanTenantMetric)
}

func (r *TenantMetricRepo) CreateLog(ctx context.Context, l *entity.MetricPopulationLog) error {
	ensureID(&l.ID)
	stamp(&l.PopulatedAt)
	_, err := r.q.Exec(ctx, `
		INSERT INTO metric_population_logs (id, submission_id, metric_id, mapping_id, source_item_id, source_value,
			calculated_value, calculation_formula, status, error_message, processing_time_ms, populated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		l.ID, l.SubmissionID, l.MetricID, l.MappingID, l.SourceItemID, l.SourceValue,
		l.CalculatedValue, l.CalculationFormula, l.Status, l.ErrorMessage, l.ProcessingTimeMs, l.PopulatedAt)
	return wrapErr("insert population log", err)
}

func (r *TenantMetricRepo) DeleteLogs(ctx context.Context, submissionID string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM metric_population_logs WHERE submission_id = $1`, submissionID)
	return wrapErr("delete population logs", err)
}

func (r *TenantMetricRepo) ListLogs(ctx context.Context, submissionID string) ([]*entity.MetricPopulationLog, error) {
	b := builder().
		Select("id", "submission_id", "metric_id", "mapping_id", "source_item_id", "source_value", "calculated_value",
			"calculation_formula", "status", "error_message", "processing_time_ms", "populated_at").
		From("metric_population_logs").
		Where(sq.Eq{"submission_id": submissionID}).
		OrderBy("populated_at")
	return selectAll(ctx, r.q, "list population logs", b, func(s scanner) (*entity.MetricPopulationLog, error) {
		var l entity.MetricPopulationLog
		err := s.Scan(&l.ID, &l.SubmissionID, &l.MetricID, &l.MappingID, &l.SourceItemID, &l.SourceValue, &l.CalculatedValue,
			&l.CalculationFormula, &l.Status, &l.ErrorMessage, &l.ProcessingTimeMs, &l.PopulatedAt)
		return &l, err
	})
}
