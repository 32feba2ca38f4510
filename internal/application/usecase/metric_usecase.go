package usecase

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/jhoicas/form-reporting-api/internal/application/dto"
	"github.com/jhoicas/form-reporting-api/internal/domain"
	"github.com/jhoicas/form-reporting-api/internal/domain/access"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/jhoicas/form-reporting-api/internal/domain/metrics"
	"github.com/jhoicas/form-reporting-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

const maxSuggestedMetrics = 5

// MetricUseCase catálogo de métricas, mapeos desde formularios y consulta de valores poblados.
type MetricUseCase struct {
	metrics      repository.MetricDefinitionRepository
	mappings     repository.MetricMappingRepository
	templates    repository.FormTemplateRepository
	submissions  repository.SubmissionRepository
	values       repository.TenantMetricRepository
	scope        TenantScope
	recalculator MetricRecalculator
	now          func() time.Time
}

// NewMetricUseCase construye el caso de uso de métricas.
func NewMetricUseCase(
	metricRepo repository.MetricDefinitionRepository,
	mappings repository.MetricMappingRepository,
	templates repository.FormTemplateRepository,
	submissions repository.SubmissionRepository,
	values repository.TenantMetricRepository,
	scope TenantScope,
	recalculator MetricRecalculator,
) *MetricUseCase {
	return &MetricUseCase{
		metrics:      metricRepo,
		mappings:     mappings,
		templates:    templates,
		submissions:  submissions,
		values:       values,
		scope:        scope,
		recalculator: recalculator,
		now:          time.Now,
	}
}

// ── Definiciones ──────────────────────────────────────────────────────────────

// ListMetrics catálogo paginado.
func (uc *MetricUseCase) ListMetrics(ctx context.Context, in dto.MetricListRequest) (dto.ListResponse[dto.MetricResponse], error) {
	in.DefaultPage()
	f := repository.MetricFilter{
		Category:   in.Category,
		Search:     strings.TrimSpace(in.Search),
		OnlyKPI:    in.OnlyKPI,
		OnlyActive: in.OnlyActive,
		Limit:      in.Limit,
		Offset:     in.Offset,
	}
	if in.DataType != "" {
		f.DataTypes = []string{in.DataType}
	}
	items, total, err := uc.metrics.List(ctx, f)
	if err != nil {
		return dto.ListResponse[dto.MetricResponse]{}, err
	}
	out := make([]dto.MetricResponse, 0, len(items))
	for _, m := range items {
		out = append(out, toMetricResponse(m))
	}
	return dto.NewList(out, in.PageRequest, total), nil
}

func (uc *MetricUseCase) loadMetric(ctx context.Context, id string) (*entity.MetricDefinition, error) {
	m, err := uc.metrics.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, domain.ErrNotFound
	}
	return m, nil
}

// GetMetric detalle de una métrica.
func (uc *MetricUseCase) GetMetric(ctx context.Context, id string) (*dto.MetricResponse, error) {
	m, err := uc.loadMetric(ctx, id)
	if err != nil {
		return nil, err
	}
	out := toMetricResponse(m)
	return &out, nil
}

// CreateMetric alta de métrica.
func (uc *MetricUseCase) CreateMetric(ctx context.Context, in dto.MetricRequest) (*dto.MetricResponse, error) {
	now := uc.now()
	m := &entity.MetricDefinition{IsActive: true, CreatedAt: now}
	fillMetric(m, in)
	if err := uc.validateMetric(ctx, m); err != nil {
		return nil, err
	}
	m.UpdatedAt = now
	if err := uc.metrics.Create(ctx, m); err != nil {
		return nil, err
	}
	out := toMetricResponse(m)
	return &out, nil
}

// UpdateMetric modificación de métrica.
func (uc *MetricUseCase) UpdateMetric(ctx context.Context, id string, in dto.MetricRequest) (*dto.MetricResponse, error) {
	m, err := uc.loadMetric(ctx, id)
	if err != nil {
		return nil, err
	}
	fillMetric(m, in)
	if err := uc.validateMetric(ctx, m); err != nil {
		return nil, err
	}
	m.UpdatedAt = uc.now()
	if err := uc.metrics.Update(ctx, m); err != nil {
		return nil, err
	}
	out := toMetricResponse(m)
	return &out, nil
}

// DeactivateMetric baja lógica; los valores ya poblados se conservan.
func (uc *MetricUseCase) DeactivateMetric(ctx context.Context, id string) error {
	m, err := uc.loadMetric(ctx, id)
	if err != nil {
		return err
	}
	m.IsActive = false
	m.UpdatedAt = uc.now()
	return uc.metrics.Update(ctx, m)
}

// SuggestThresholds umbrales sugeridos para un tipo de dato y agregación del asistente.
func (uc *MetricUseCase) SuggestThresholds(dataType, aggregation string) dto.ThresholdSuggestionResponse {
	t := metrics.SuggestThresholds(dataType, aggregation)
	return dto.ThresholdSuggestionResponse{Green: t.Green, Yellow: t.Yellow, Red: t.Red}
}

func fillMetric(m *entity.MetricDefinition, in dto.MetricRequest) {
	m.MetricCode = normalizeCode(in.MetricCode)
	m.MetricName = strings.TrimSpace(in.MetricName)
	m.Category = strings.TrimSpace(in.Category)
	m.SourceType = in.SourceType
	if m.SourceType == "" {
		m.SourceType = entity.SourceUserInput
	}
	m.DataType = in.DataType
	m.Unit = strings.TrimSpace(in.Unit)
	m.AggregationType = in.AggregationType
	if m.AggregationType == "" {
		m.AggregationType = entity.AggLastValue
	}
	m.MetricScope = in.MetricScope
	if m.MetricScope == "" {
		m.MetricScope = entity.MetricScopeField
	}
	m.HierarchyLevel = in.HierarchyLevel
	m.ParentMetricID = emptyToNil(in.ParentMetricID)
	m.IsKPI = in.IsKPI
	m.ThresholdGreen, m.ThresholdYellow, m.ThresholdRed = in.ThresholdGreen, in.ThresholdYellow, in.ThresholdRed
	m.ExpectedValue = strings.TrimSpace(in.ExpectedValue)
	m.Description = strings.TrimSpace(in.Description)
	if in.IsActive != nil {
		m.IsActive = *in.IsActive
	}
}

// validateMetric código libre, padre existente distinto de sí mismo y umbrales ordenados (verde ≥ amarillo ≥ rojo).
func (uc *MetricUseCase) validateMetric(ctx context.Context, m *entity.MetricDefinition) error {
	var errs domain.ValidationErrors
	byCode, err := uc.metrics.GetByCode(ctx, m.MetricCode)
	if err != nil {
		return err
	}
	if byCode != nil && byCode.ID != m.ID {
		errs.Add("metric_code", "ya existe una métrica con ese código")
	}
	if m.ParentMetricID != nil {
		if *m.ParentMetricID == m.ID {
			errs.Add("parent_metric_id", "una métrica no puede ser su propio padre")
		} else {
			parent, err := uc.metrics.GetByID(ctx, *m.ParentMetricID)
			if err != nil {
				return err
			}
			if parent == nil {
				errs.Add("parent_metric_id", "métrica padre inexistente")
			}
		}
	}
	if g, y := m.ThresholdGreen, m.ThresholdYellow; g != nil && y != nil && g.LessThan(*y) {
		errs.Add("threshold_green", "el umbral verde no puede ser menor que el amarillo")
	}
	if y, r := m.ThresholdYellow, m.ThresholdRed; y != nil && r != nil && y.LessThan(*r) {
		errs.Add("threshold_yellow", "el umbral amarillo no puede ser menor que el rojo")
	}
	return errs.OrNil()
}

// ── Mapeos de campo ───────────────────────────────────────────────────────────

// Configure vista de configuración: campos con sus mapeos y tipos válidos, y roll-ups.
func (uc *MetricUseCase) Configure(ctx context.Context, templateID string) (*dto.ConfigureResponse, error) {
	t, err := uc.templates.GetByID(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.ErrNotFound
	}
	items, err := uc.templates.ListItems(ctx, templateID)
	if err != nil {
		return nil, err
	}
	itemMappings, err := uc.mappings.ListItemMappings(ctx, templateID, false)
	if err != nil {
		return nil, err
	}
	byItem := make(map[string][]dto.ItemMappingResponse, len(itemMappings))
	for _, m := range itemMappings {
		byItem[m.ItemID] = append(byItem[m.ItemID], toItemMappingResponse(m))
	}
	out := &dto.ConfigureResponse{
		Template:            toTemplateResponse(t),
		Items:               make([]dto.ConfigureItem, 0, len(items)),
		FieldTypeCategories: metrics.FieldTypeCategories(),
		AggregationTypes:    metrics.AllAggregationTypes,
	}
	for _, it := range items {
		mappings := byItem[it.ID]
		if mappings == nil {
			mappings = []dto.ItemMappingResponse{}
		}
		out.Items = append(out.Items, dto.ConfigureItem{
			ItemID:                 it.ID,
			ItemCode:               it.ItemCode,
			ItemName:               it.ItemName,
			SectionID:              it.SectionID,
			SectionName:            it.SectionName,
			DataType:               it.DataType,
			ValidMappingTypes:      metrics.ValidMappingTypes(it.DataType),
			RecommendedMappingType: metrics.RecommendedMappingType(it.DataType),
			Mappings:               mappings,
		})
	}
	sections, err := uc.mappings.ListSectionMappings(ctx, templateID, false)
	if err != nil {
		return nil, err
	}
	out.SectionMappings = make([]dto.RollupMappingResponse, 0, len(sections))
	for _, m := range sections {
		out.SectionMappings = append(out.SectionMappings, toSectionMappingResponse(m))
	}
	tpls, err := uc.mappings.ListTemplateMappings(ctx, templateID, false)
	if err != nil {
		return nil, err
	}
	out.TemplateMappings = make([]dto.RollupMappingResponse, 0, len(tpls))
	for _, m := range tpls {
		out.TemplateMappings = append(out.TemplateMappings, toTemplateMappingResponse(m))
	}
	return out, nil
}

// CreateItemMapping alta de mapeo campo → métrica.
func (uc *MetricUseCase) CreateItemMapping(ctx context.Context, actorID string, in dto.ItemMappingRequest) (*dto.ItemMappingResponse, error) {
	now := uc.now()
	m := &entity.FormItemMetricMapping{IsActive: true, CreatedBy: actorID, CreatedAt: now}
	fillItemMapping(m, in)
	if err := uc.validateItemMapping(ctx, m); err != nil {
		return nil, err
	}
	m.UpdatedAt = now
	if err := uc.mappings.CreateItemMapping(ctx, m); err != nil {
		return nil, err
	}
	return uc.itemMappingResponse(ctx, m.ID)
}

func (uc *MetricUseCase) loadItemMapping(ctx context.Context, id string) (*entity.FormItemMetricMapping, error) {
	m, err := uc.mappings.GetItemMapping(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, domain.ErrNotFound
	}
	return m, nil
}

func (uc *MetricUseCase) itemMappingResponse(ctx context.Context, id string) (*dto.ItemMappingResponse, error) {
	m, err := uc.loadItemMapping(ctx, id)
	if err != nil {
		return nil, err
	}
	out := toItemMappingResponse(m)
	return &out, nil
}

// UpdateItemMapping modificación de mapeo de campo.
func (uc *MetricUseCase) UpdateItemMapping(ctx context.Context, id string, in dto.ItemMappingRequest) (*dto.ItemMappingResponse, error) {
	m, err := uc.loadItemMapping(ctx, id)
	if err != nil {
		return nil, err
	}
	fillItemMapping(m, in)
	if err := uc.validateItemMapping(ctx, m); err != nil {
		return nil, err
	}
	m.UpdatedAt = uc.now()
	if err := uc.mappings.UpdateItemMapping(ctx, m); err != nil {
		return nil, err
	}
	return uc.itemMappingResponse(ctx, id)
}

// DeleteItemMapping baja lógica del mapeo.
func (uc *MetricUseCase) DeleteItemMapping(ctx context.Context, id string) error {
	m, err := uc.loadItemMapping(ctx, id)
	if err != nil {
		return err
	}
	m.IsActive = false
	m.UpdatedAt = uc.now()
	return uc.mappings.UpdateItemMapping(ctx, m)
}

func fillItemMapping(m *entity.FormItemMetricMapping, in dto.ItemMappingRequest) {
	m.ItemID = in.ItemID
	m.MetricID = in.MetricID
	m.MappingName = strings.TrimSpace(in.MappingName)
	m.MappingType = metrics.NormalizeMappingType(strings.TrimSpace(in.MappingType))
	m.TransformationLogic = strings.TrimSpace(in.TransformationLogic)
	m.ExpectedValue = emptyToNil(in.ExpectedValue)
}

// validateItemMapping campo y métrica existentes, tipo válido para el tipo de dato,
// fórmula en Calculated, valor esperado en BinaryCompliance (salvo booleanos, que usan Yes) y un solo mapeo activo por (campo, métrica).
func (uc *MetricUseCase) validateItemMapping(ctx context.Context, m *entity.FormItemMetricMapping) error {
	var errs domain.ValidationErrors
	item, err := uc.templates.GetItem(ctx, m.ItemID)
	if err != nil {
		return err
	}
	if item == nil {
		errs.Add("item_id", "campo inexistente")
	}
	metric, err := uc.metrics.GetByID(ctx, m.MetricID)
	if err != nil {
		return err
	}
	if metric == nil {
		errs.Add("metric_id", "métrica inexistente")
	}
	if item != nil && !metrics.IsValidMappingType(item.DataType, m.MappingType) {
		errs.Add("mapping_type", "el tipo "+m.MappingType+" no es válido para campos "+item.DataType+": "+strings.Join(metrics.ValidMappingTypes(item.DataType), ", "))
	}
	switch m.MappingType {
	case entity.MappingCalculated:
		if _, err := metrics.ParseFormula(m.TransformationLogic); err != nil {
			errs.Add("transformation_logic", err.Error())
		}
	case entity.MappingBinaryCompliance:
		if m.ExpectedValue == nil && (item == nil || item.DataType != entity.DataTypeBoolean) {
			errs.Add("expected_value", domain.ErrMissingExpectedValue.Error())
		}
	}
	if m.IsActive && item != nil && metric != nil {
		dup, err := uc.mappings.ExistsActiveItemMapping(ctx, m.ItemID, m.MetricID, m.ID)
		if err != nil {
			return err
		}
		if dup {
			errs.Add("metric_id", "el campo ya tiene un mapeo activo a esa métrica")
		}
	}
	return errs.OrNil()
}

// TestMapping evalúa un mapeo con valores de prueba por ItemID. Los errores de cálculo
// se informan en la respuesta, no como error.
func (uc *MetricUseCase) TestMapping(ctx context.Context, id string, in dto.TestMappingRequest) (*dto.TestMappingResponse, error) {
	m, err := uc.loadItemMapping(ctx, id)
	if err != nil {
		return nil, err
	}
	value, err := metrics.ItemValue(m, metrics.SampleResponses(in.SampleValues))
	if err != nil {
		return &dto.TestMappingResponse{Success: false, Error: err.Error()}, nil
	}
	out := &dto.TestMappingResponse{Success: true, Result: value}
	if value != nil {
		def, err := uc.metrics.GetByID(ctx, m.MetricID)
		if err != nil {
			return nil, err
		}
		out.Formatted = metrics.FormatValue(*value, def)
	}
	return out, nil
}

// UnmappedFields campos activos sin mapeo activo, con hasta cinco métricas sugeridas
// según su tipo de dato. Orden por sección y orden de visualización.
func (uc *MetricUseCase) UnmappedFields(ctx context.Context, templateID string) ([]dto.UnmappedFieldResponse, error) {
	items, err := uc.templates.ListItems(ctx, templateID)
	if err != nil {
		return nil, err
	}
	mappings, err := uc.mappings.ListItemMappings(ctx, templateID, true)
	if err != nil {
		return nil, err
	}
	mapped := make(map[string]struct{}, len(mappings))
	for _, m := range mappings {
		mapped[m.ItemID] = struct{}{}
	}
	suggestions := map[string][]dto.MetricResponse{}
	out := []dto.UnmappedFieldResponse{}
	for _, it := range items {
		if _, ok := mapped[it.ID]; ok || !it.IsActive {
			continue
		}
		suggested, ok := suggestions[it.DataType]
		if !ok {
			defs, _, err := uc.metrics.List(ctx, repository.MetricFilter{
				DataTypes:  metrics.SuggestedMetricTypes(it.DataType),
				OnlyActive: true,
				Limit:      maxSuggestedMetrics,
			})
			if err != nil {
				return nil, err
			}
			suggested = make([]dto.MetricResponse, 0, len(defs))
			for _, d := range defs {
				suggested = append(suggested, toMetricResponse(d))
			}
			suggestions[it.DataType] = suggested
		}
		out = append(out, dto.UnmappedFieldResponse{
			ItemID:           it.ID,
			ItemCode:         it.ItemCode,
			ItemName:         it.ItemName,
			DataType:         it.DataType,
			SectionID:        it.SectionID,
			SectionName:      it.SectionName,
			DisplayOrder:     it.DisplayOrder,
			SuggestedMetrics: suggested,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SectionName != out[j].SectionName {
			return out[i].SectionName < out[j].SectionName
		}
		return out[i].DisplayOrder < out[j].DisplayOrder
	})
	return out, nil
}

// ── Roll-ups de sección y plantilla ───────────────────────────────────────────

// validateRollup métrica existente, agregación o fórmula según el tipo y fuentes sin repetir.
func (uc *MetricUseCase) validateRollup(ctx context.Context, in dto.RollupMappingRequest, errs *domain.ValidationErrors) error {
	metric, err := uc.metrics.GetByID(ctx, in.MetricID)
	if err != nil {
		return err
	}
	if metric == nil {
		errs.Add("metric_id", "métrica inexistente")
	}
	switch in.MappingType {
	case entity.RollupAggregated:
		if !metrics.ValidRollupAggregation(in.AggregationType) {
			errs.Add("aggregation_type", "agregación requerida: AVG, SUM, COUNT o WeightedAverage")
		}
		if len(in.Sources) == 0 {
			errs.Add("sources", "se requiere al menos una fuente")
		}
	case entity.RollupCalculated:
		if _, err := metrics.ParseFormula(in.Formula); err != nil {
			errs.Add("formula", err.Error())
		}
	default:
		errs.Add("mapping_type", "tipo de mapeo desconocido: "+in.MappingType)
	}
	seen := make(map[string]struct{}, len(in.Sources))
	for _, s := range in.Sources {
		if _, dup := seen[s.MappingID]; dup {
			errs.Add("sources", "fuente repetida: "+s.MappingID)
		}
		seen[s.MappingID] = struct{}{}
		if s.Weight != nil && s.Weight.IsNegative() {
			errs.Add("sources", "el peso no puede ser negativo")
		}
	}
	return nil
}

// CreateSectionMapping alta de mapeo de sección; las fuentes son mapeos de campos de esa sección.
func (uc *MetricUseCase) CreateSectionMapping(ctx context.Context, in dto.RollupMappingRequest) (*dto.RollupMappingResponse, error) {
	now := uc.now()
	m := &entity.FormSectionMetricMapping{IsActive: true, CreatedAt: now}
	if err := uc.fillSectionMapping(ctx, m, in); err != nil {
		return nil, err
	}
	m.UpdatedAt = now
	if err := uc.mappings.CreateSectionMapping(ctx, m); err != nil {
		return nil, err
	}
	out := toSectionMappingResponse(m)
	return &out, nil
}

// UpdateSectionMapping reemplaza configuración y fuentes.
func (uc *MetricUseCase) UpdateSectionMapping(ctx context.Context, id string, in dto.RollupMappingRequest) (*dto.RollupMappingResponse, error) {
	m, err := uc.mappings.GetSectionMapping(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, domain.ErrNotFound
	}
	if err := uc.fillSectionMapping(ctx, m, in); err != nil {
		return nil, err
	}
	m.UpdatedAt = uc.now()
	if err := uc.mappings.UpdateSectionMapping(ctx, m); err != nil {
		return nil, err
	}
	out := toSectionMappingResponse(m)
	return &out, nil
}

// DeleteSectionMapping baja lógica.
func (uc *MetricUseCase) DeleteSectionMapping(ctx context.Context, id string) error {
	m, err := uc.mappings.GetSectionMapping(ctx, id)
	if err != nil {
		return err
	}
	if m == nil {
		return domain.ErrNotFound
	}
	m.IsActive = false
	m.UpdatedAt = uc.now()
	return uc.mappings.UpdateSectionMapping(ctx, m)
}

func (uc *MetricUseCase) fillSectionMapping(ctx context.Context, m *entity.FormSectionMetricMapping, in dto.RollupMappingRequest) error {
	var errs domain.ValidationErrors
	section, err := uc.templates.GetSection(ctx, in.OwnerID)
	if err != nil {
		return err
	}
	if section == nil {
		errs.Add("owner_id", "sección inexistente")
	}
	if err := uc.validateRollup(ctx, in, &errs); err != nil {
		return err
	}
	sources := make([]entity.FormSectionMetricSource, 0, len(in.Sources))
	for _, s := range in.Sources {
		src, err := uc.mappings.GetItemMapping(ctx, s.MappingID)
		if err != nil {
			return err
		}
		if src == nil || !src.IsActive {
			errs.Add("sources", "mapeo de campo inexistente o inactivo: "+s.MappingID)
			continue
		}
		if section != nil {
			item, err := uc.templates.GetItem(ctx, src.ItemID)
			if err != nil {
				return err
			}
			if item == nil || item.SectionID != section.ID {
				errs.Add("sources", "el mapeo "+s.MappingID+" no pertenece a la sección")
				continue
			}
		}
		sources = append(sources, entity.FormSectionMetricSource{ItemMappingID: s.MappingID, Weight: s.Weight, DisplayOrder: s.DisplayOrder})
	}
	if err := errs.OrNil(); err != nil {
		return err
	}
	m.SectionID = in.OwnerID
	m.TemplateID = section.TemplateID
	m.MetricID = in.MetricID
	m.MappingName = strings.TrimSpace(in.MappingName)
	m.MappingType = in.MappingType
	m.AggregationType = in.AggregationType
	m.Formula = strings.TrimSpace(in.Formula)
	m.Sources = sources
	return nil
}

// CreateTemplateMapping alta de mapeo de plantilla; las fuentes son mapeos de sección de esa plantilla.
func (uc *MetricUseCase) CreateTemplateMapping(ctx context.Context, in dto.RollupMappingRequest) (*dto.RollupMappingResponse, error) {
	now := uc.now()
	m := &entity.FormTemplateMetricMapping{IsActive: true, CreatedAt: now}
	if err := uc.fillTemplateMapping(ctx, m, in); err != nil {
		return nil, err
	}
	m.UpdatedAt = now
	if err := uc.mappings.CreateTemplateMapping(ctx, m); err != nil {
		return nil, err
	}
	out := toTemplateMappingResponse(m)
	return &out, nil
}

// UpdateTemplateMapping reemplaza configuración y fuentes.
func (uc *MetricUseCase) UpdateTemplateMapping(ctx context.Context, id string, in dto.RollupMappingRequest) (*dto.RollupMappingResponse, error) {
	m, err := uc.mappings.GetTemplateMapping(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, domain.ErrNotFound
	}
	if err := uc.fillTemplateMapping(ctx, m, in); err != nil {
		return nil, err
	}
	m.UpdatedAt = uc.now()
	if err := uc.mappings.UpdateTemplateMapping(ctx, m); err != nil {
		return nil, err
	}
	out := toTemplateMappingResponse(m)
	return &out, nil
}

// DeleteTemplateMapping baja lógica.
func (uc *MetricUseCase) DeleteTemplateMapping(ctx context.Context, id string) error {
	m, err := uc.mappings.GetTemplateMapping(ctx, id)
	if err != nil {
		return err
	}
	if m == nil {
		return domain.ErrNotFound
	}
	m.IsActive = false
	m.UpdatedAt = uc.now()
	return uc.mappings.UpdateTemplateMapping(ctx, m)
}

func (uc *MetricUseCase) fillTemplateMapping(ctx context.Context, m *entity.FormTemplateMetricMapping, in dto.RollupMappingRequest) error {
	var errs domain.ValidationErrors
	t, err := uc.templates.GetByID(ctx, in.OwnerID)
	if err != nil {
		return err
	}
	if t == nil {
		errs.Add("owner_id", "plantilla inexistente")
	}
	if err := uc.validateRollup(ctx, in, &errs); err != nil {
		return err
	}
	sources := make([]entity.FormTemplateMetricSource, 0, len(in.Sources))
	for _, s := range in.Sources {
		src, err := uc.mappings.GetSectionMapping(ctx, s.MappingID)
		if err != nil {
			return err
		}
		if src == nil || !src.IsActive || src.TemplateID != in.OwnerID {
			errs.Add("sources", "mapeo de sección inexistente, inactivo o de otra plantilla: "+s.MappingID)
			continue
		}
		sources = append(sources, entity.FormTemplateMetricSource{SectionMappingID: s.MappingID, Weight: s.Weight, DisplayOrder: s.DisplayOrder})
	}
	if err := errs.OrNil(); err != nil {
		return err
	}
	m.TemplateID = in.OwnerID
	m.MetricID = in.MetricID
	m.MappingName = strings.TrimSpace(in.MappingName)
	m.MappingType = in.MappingType
	m.AggregationType = in.AggregationType
	m.Formula = strings.TrimSpace(in.Formula)
	m.Sources = sources
	return nil
}

// ── Valores poblados ──────────────────────────────────────────────────────────

// TenantMetrics valores de los tenants visibles con su semáforo KPI.
func (uc *MetricUseCase) TenantMetrics(ctx context.Context, c *access.Claims, in dto.TenantMetricListRequest) ([]dto.TenantMetricResponse, error) {
	allowed, err := uc.scope.Restriction(ctx, c)
	if err != nil {
		return nil, err
	}
	tenantIDs, ok := restrict(allowed, in.TenantID)
	if !ok {
		return nil, domain.ErrForbidden
	}
	f := repository.TenantMetricFilter{TenantIDs: tenantIDs, MetricID: in.MetricID, Limit: in.Limit}
	if in.From != nil {
		from := metrics.ReportingPeriod(*in.From)
		f.From = &from
	}
	if in.To != nil {
		to := metrics.ReportingPeriod(*in.To)
		f.To = &to
	}
	if f.Limit <= 0 {
		f.Limit = 500
	}
	rows, err := uc.values.List(ctx, f)
	if err != nil {
		return nil, err
	}
	defs := map[string]*entity.MetricDefinition{}
	out := make([]dto.TenantMetricResponse, 0, len(rows))
	for _, r := range rows {
		def, ok := defs[r.MetricID]
		if !ok {
			if def, err = uc.metrics.GetByID(ctx, r.MetricID); err != nil {
				return nil, err
			}
			defs[r.MetricID] = def
		}
		item := dto.TenantMetricResponse{
			TenantID:        r.TenantID,
			MetricID:        r.MetricID,
			MetricCode:      r.MetricCode,
			MetricName:      r.MetricName,
			ReportingPeriod: r.ReportingPeriod,
			NumericValue:    r.NumericValue,
			TextValue:       r.TextValue,
			SourceType:      r.SourceType,
			CapturedAt:      r.CapturedAt,
		}
		if r.NumericValue != nil && def != nil && def.IsKPI {
			item.Status = metrics.KPIStatus(*r.NumericValue, def)
		}
		out = append(out, item)
	}
	return out, nil
}

func (uc *MetricUseCase) checkSubmission(ctx context.Context, c *access.Claims, submissionID string) error {
	s, err := uc.submissions.GetByID(ctx, submissionID)
	if err != nil {
		return err
	}
	if s == nil {
		return domain.ErrNotFound
	}
	if s.TenantID == nil {
		if !c.HasGlobalScope() {
			return domain.ErrForbidden
		}
		return nil
	}
	ok, err := uc.scope.CanAccessTenant(ctx, c, *s.TenantID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrForbidden
	}
	return nil
}

// PopulationLogs trazas de población de un envío.
func (uc *MetricUseCase) PopulationLogs(ctx context.Context, c *access.Claims, submissionID string) ([]dto.PopulationLogResponse, error) {
	if err := uc.checkSubmission(ctx, c, submissionID); err != nil {
		return nil, err
	}
	logs, err := uc.values.ListLogs(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PopulationLogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, dto.PopulationLogResponse{
			MetricID:           l.MetricID,
			MappingID:          l.MappingID,
			SourceItemID:       l.SourceItemID,
			SourceValue:        l.SourceValue,
			CalculatedValue:    l.CalculatedValue,
			CalculationFormula: l.CalculationFormula,
			Status:             l.Status,
			ErrorMessage:       l.ErrorMessage,
			ProcessingTimeMs:   l.ProcessingTimeMs,
			PopulatedAt:        l.PopulatedAt,
		})
	}
	return out, nil
}

// Recalculate repuebla las métricas de un envío final.
func (uc *MetricUseCase) Recalculate(ctx context.Context, c *access.Claims, submissionID string) error {
	if err := uc.checkSubmission(ctx, c, submissionID); err != nil {
		return err
	}
	return uc.recalculator.Recalculate(ctx, submissionID)
}

// ── Mapeo a DTO ───────────────────────────────────────────────────────────────

func toMetricResponse(m *entity.MetricDefinition) dto.MetricResponse {
	return dto.MetricResponse{
		ID:              m.ID,
		MetricCode:      m.MetricCode,
		MetricName:      m.MetricName,
		Category:        m.Category,
		SourceType:      m.SourceType,
		DataType:        m.DataType,
		Unit:            m.Unit,
		AggregationType: m.AggregationType,
		MetricScope:     m.MetricScope,
		HierarchyLevel:  m.HierarchyLevel,
		ParentMetricID:  m.ParentMetricID,
		IsKPI:           m.IsKPI,
		ThresholdGreen:  m.ThresholdGreen,
		ThresholdYellow: m.ThresholdYellow,
		ThresholdRed:    m.ThresholdRed,
		ExpectedValue:   m.ExpectedValue,
		Description:     m.Description,
		IsActive:        m.IsActive,
	}
}

func toItemMappingResponse(m *entity.FormItemMetricMapping) dto.ItemMappingResponse {
	return dto.ItemMappingResponse{
		ID:                  m.ID,
		ItemID:              m.ItemID,
		ItemCode:            m.ItemCode,
		ItemName:            m.ItemName,
		MetricID:            m.MetricID,
		MetricCode:          m.MetricCode,
		MetricName:          m.MetricName,
		MetricType:          m.MetricType,
		MappingName:         m.MappingName,
		MappingType:         m.MappingType,
		TransformationLogic: m.TransformationLogic,
		ExpectedValue:       m.ExpectedValue,
		IsActive:            m.IsActive,
	}
}

func rollupSource(mappingID string, weight *decimal.Decimal, order int) dto.RollupSourceResponse {
	return dto.RollupSourceResponse{MappingID: mappingID, Weight: weight, DisplayOrder: order}
}

func toSectionMappingResponse(m *entity.FormSectionMetricMapping) dto.RollupMappingResponse {
	out := dto.RollupMappingResponse{
		ID:              m.ID,
		OwnerID:         m.SectionID,
		MetricID:        m.MetricID,
		MappingName:     m.MappingName,
		MappingType:     m.MappingType,
		AggregationType: m.AggregationType,
		Formula:         m.Formula,
		IsActive:        m.IsActive,
		Sources:         make([]dto.RollupSourceResponse, 0, len(m.Sources)),
	}
	for _, s := range m.Sources {
		out.Sources = append(out.Sources, rollupSource(s.ItemMappingID, s.Weight, s.DisplayOrder))
	}
	return out
}

func toTemplateMappingResponse(m *entity.FormTemplateMetricMapping) dto.RollupMappingResponse {
	out := dto.RollupMappingResponse{
		ID:              m.ID,
		OwnerID:         m.TemplateID,
		MetricID:        m.MetricID,
		MappingName:     m.MappingName,
		MappingType:     m.MappingType,
		AggregationType: m.AggregationType,
		Formula:         m.Formula,
		IsActive:        m.IsActive,
		Sources:         make([]dto.RollupSourceResponse, 0, len(m.Sources)),
	}
	for _, s := range m.Sources {
		out.Sources = append(out.Sources, rollupSource(s.SectionMappingID, s.Weight, s.DisplayOrder))
	}
	return out
}
