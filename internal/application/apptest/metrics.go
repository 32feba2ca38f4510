package apptest

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/form-reporting-api/internal/domain"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/jhoicas/form-reporting-api/internal/domain/repository"
)

// ── Definiciones ──────────────────────────────────────────────────────────────

// MetricDefinitions fake de repository.MetricDefinitionRepository.
type MetricDefinitions struct {
	repository.MetricDefinitionRepository
	mu    sync.Mutex
	Items map[string]*entity.MetricDefinition
}

// NewMetricDefinitions fake vacío.
func NewMetricDefinitions() *MetricDefinitions {
	return &MetricDefinitions{Items: map[string]*entity.MetricDefinition{}}
}

func (r *MetricDefinitions) Create(_ context.Context, m *entity.MetricDefinition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == "" {
		m.ID = newID()
	}
	cp := *m
	r.Items[m.ID] = &cp
	return nil
}

func (r *MetricDefinitions) Update(_ context.Context, m *entity.MetricDefinition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Items[m.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *m
	r.Items[m.ID] = &cp
	return nil
}

func (r *MetricDefinitions) get(id string) *entity.MetricDefinition {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.Items[id]
	if !ok {
		return nil
	}
	cp := *m
	return &cp
}

func (r *MetricDefinitions) GetByID(_ context.Context, id string) (*entity.MetricDefinition, error) {
	return r.get(id), nil
}

func (r *MetricDefinitions) GetByCode(_ context.Context, code string) (*entity.MetricDefinition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.Items {
		if m.MetricCode == code {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *MetricDefinitions) List(_ context.Context, f repository.MetricFilter) ([]*entity.MetricDefinition, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.MetricDefinition
	for _, m := range r.Items {
		if f.Category != "" && m.Category != f.Category {
			continue
		}
		if f.DataTypes != nil && !slices.Contains(f.DataTypes, m.DataType) {
			continue
		}
		if f.OnlyKPI && !m.IsKPI {
			continue
		}
		if f.OnlyActive && !m.IsActive {
			continue
		}
		if f.Search != "" && !contains(m.MetricName, f.Search) && !contains(m.MetricCode, f.Search) {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].MetricName < out[j].MetricName
	})
	return page(out, f.Limit, f.Offset), len(out), nil
}

// ── Mapeos ────────────────────────────────────────────────────────────────────

// Mappings fake de repository.MetricMappingRepository. Completa los campos de JOIN
// desde Templates y MetricDefinitions.
type Mappings struct {
	repository.MetricMappingRepository
	mu        sync.Mutex
	Items     map[string]*entity.FormItemMetricMapping
	Sections  map[string]*entity.FormSectionMetricMapping
	Templates map[string]*entity.FormTemplateMetricMapping
	forms     *Templates
	metrics   *MetricDefinitions
}

// NewMappings fake vacío.
func NewMappings(forms *Templates, metrics *MetricDefinitions) *Mappings {
	return &Mappings{
		Items:     map[string]*entity.FormItemMetricMapping{},
		Sections:  map[string]*entity.FormSectionMetricMapping{},
		Templates: map[string]*entity.FormTemplateMetricMapping{},
		forms:     forms,
		metrics:   metrics,
	}
}

func (r *Mappings) CreateItemMapping(_ context.Context, m *entity.FormItemMetricMapping) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == "" {
		m.ID = newID()
	}
	cp := *m
	r.Items[m.ID] = &cp
	return nil
}

func (r *Mappings) UpdateItemMapping(_ context.Context, m *entity.FormItemMetricMapping) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Items[m.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *m
	r.Items[m.ID] = &cp
	return nil
}

func (r *Mappings) joinItem(m *entity.FormItemMetricMapping) *entity.FormItemMetricMapping {
	cp := *m
	r.forms.mu.Lock()
	if it, ok := r.forms.FormItems[m.ItemID]; ok {
		cp.ItemCode, cp.ItemName, cp.TemplateID = it.ItemCode, it.ItemName, it.TemplateID
	}
	r.forms.mu.Unlock()
	if def := r.metrics.get(m.MetricID); def != nil {
		cp.MetricCode, cp.MetricName, cp.MetricType = def.MetricCode, def.MetricName, def.DataType
	}
	return &cp
}

func (r *Mappings) GetItemMapping(_ context.Context, id string) (*entity.FormItemMetricMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.Items[id]
	if !ok {
		return nil, nil
	}
	return r.joinItem(m), nil
}

func (r *Mappings) ListItemMappings(_ context.Context, templateID string, onlyActive bool) ([]*entity.FormItemMetricMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.FormItemMetricMapping
	for _, m := range r.Items {
		j := r.joinItem(m)
		if j.TemplateID != templateID || (onlyActive && !m.IsActive) {
			continue
		}
		out = append(out, j)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ItemCode != out[j].ItemCode {
			return out[i].ItemCode < out[j].ItemCode
		}
		return out[i].MetricCode < out[j].MetricCode
	})
	return out, nil
}

func (r *Mappings) ExistsActiveItemMapping(_ context.Context, itemID, metricID, excludeID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.Items {
		if m.ID != excludeID && m.IsActive && m.ItemID == itemID && m.MetricID == metricID {
			return true, nil
		}
	}
	return false, nil
}

func (r *Mappings) sectionTemplate(sectionID string) string {
	r.forms.mu.Lock()
	defer r.forms.mu.Unlock()
	if s, ok := r.forms.Sections[sectionID]; ok {
		return s.TemplateID
	}
	return ""
}

func (r *Mappings) CreateSectionMapping(_ context.Context, m *entity.FormSectionMetricMapping) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == "" {
		m.ID = newID()
	}
	cp := *m
	cp.Sources = slices.Clone(m.Sources)
	r.Sections[m.ID] = &cp
	return nil
}

func (r *Mappings) UpdateSectionMapping(_ context.Context, m *entity.FormSectionMetricMapping) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Sections[m.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *m
	cp.Sources = slices.Clone(m.Sources)
	r.Sections[m.ID] = &cp
	return nil
}

func (r *Mappings) GetSectionMapping(_ context.Context, id string) (*entity.FormSectionMetricMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.Sections[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	cp.Sources = slices.Clone(m.Sources)
	cp.TemplateID = r.sectionTemplate(m.SectionID)
	return &cp, nil
}

func (r *Mappings) ListSectionMappings(_ context.Context, templateID string, onlyActive bool) ([]*entity.FormSectionMetricMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.FormSectionMetricMapping
	for _, m := range r.Sections {
		if r.sectionTemplate(m.SectionID) != templateID || (onlyActive && !m.IsActive) {
			continue
		}
		cp := *m
		cp.Sources = slices.Clone(m.Sources)
		cp.TemplateID = templateID
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MappingName < out[j].MappingName })
	return out, nil
}

func (r *Mappings) CreateTemplateMapping(_ context.Context, m *entity.FormTemplateMetricMapping) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == "" {
		m.ID = newID()
	}
	cp := *m
	cp.Sources = slices.Clone(m.Sources)
	r.Templates[m.ID] = &cp
	return nil
}

func (r *Mappings) UpdateTemplateMapping(_ context.Context, m *entity.FormTemplateMetricMapping) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Templates[m.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *m
	cp.Sources = slices.Clone(m.Sources)
	r.Templates[m.ID] = &cp
	return nil
}

func (r *Mappings) GetTemplateMapping(_ context.Context, id string) (*entity.FormTemplateMetricMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.Templates[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	cp.Sources = slices.Clone(m.Sources)
	return &cp, nil
}

func (r *Mappings) ListTemplateMappings(_ context.Context, templateID string, onlyActive bool) ([]*entity.FormTemplateMetricMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.FormTemplateMetricMapping
	for _, m := range r.Templates {
		if m.TemplateID != templateID || (onlyActive && !m.IsActive) {
			continue
		}
		cp := *m
		cp.Sources = slices.Clone(m.Sources)
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MappingName < out[j].MappingName })
	return out, nil
}

// ── Valores ───────────────────────────────────────────────────────────────────

// TenantMetrics fake de repository.TenantMetricRepository.
type TenantMetrics struct {
	repository.TenantMetricRepository
	mu      sync.Mutex
	Items   []*entity.TenantMetric
	Logs    []*entity.MetricPopulationLog
	metrics *MetricDefinitions
}

// NewTenantMetrics fake vacío.
func NewTenantMetrics(metrics *MetricDefinitions) *TenantMetrics {
	return &TenantMetrics{metrics: metrics}
}

func (r *TenantMetrics) Upsert(_ context.Context, m *entity.TenantMetric) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, cur := range r.Items {
		if cur.TenantID == m.TenantID && cur.MetricID == m.MetricID && cur.ReportingPeriod.Equal(m.ReportingPeriod) {
			m.ID = cur.ID
			cp := *m
			r.Items[i] = &cp
			return nil
		}
	}
	if m.ID == "" {
		m.ID = newID()
	}
	cp := *m
	r.Items = append(r.Items, &cp)
	return nil
}

func (r *TenantMetrics) join(m *entity.TenantMetric) *entity.TenantMetric {
	cp := *m
	if def := r.metrics.get(m.MetricID); def != nil {
		cp.MetricCode, cp.MetricName = def.MetricCode, def.MetricName
	}
	return &cp
}

func (r *TenantMetrics) Get(_ context.Context, tenantID, metricID string, period time.Time) (*entity.TenantMetric, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.Items {
		if m.TenantID == tenantID && m.MetricID == metricID && m.ReportingPeriod.Equal(period) {
			return r.join(m), nil
		}
	}
	return nil, nil
}

func (r *TenantMetrics) List(_ context.Context, f repository.TenantMetricFilter) ([]*entity.TenantMetric, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.TenantMetric
	for _, m := range r.Items {
		if f.TenantIDs != nil && !slices.Contains(f.TenantIDs, m.TenantID) {
			continue
		}
		if f.MetricID != "" && m.MetricID != f.MetricID {
			continue
		}
		if f.From != nil && m.ReportingPeriod.Before(*f.From) {
			continue
		}
		if f.To != nil && m.ReportingPeriod.After(*f.To) {
			continue
		}
		out = append(out, r.join(m))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ReportingPeriod.Equal(out[j].ReportingPeriod) {
			return out[i].ReportingPeriod.After(out[j].ReportingPeriod)
		}
		return out[i].MetricCode < out[j].MetricCode
	})
	return page(out, f.Limit, 0), nil
}

func (r *TenantMetrics) CreateLog(_ context.Context, l *entity.MetricPopulationLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l.ID == "" {
		l.ID = newID()
	}
	cp := *l
	r.Logs = append(r.Logs, &cp)
	return nil
}

func (r *TenantMetrics) DeleteLogs(_ context.Context, submissionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Logs = slices.DeleteFunc(r.Logs, func(l *entity.MetricPopulationLog) bool { return l.SubmissionID == submissionID })
	return nil
}

func (r *TenantMetrics) ListLogs(_ context.Context, submissionID string) ([]*entity.MetricPopulationLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.MetricPopulationLog
	for _, l := range r.Logs {
		if l.SubmissionID == submissionID {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}
