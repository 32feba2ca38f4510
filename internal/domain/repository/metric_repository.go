package repository

import (
	"context"
	"time"

	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
)

// MetricFilter criterios de listado de métricas.
type MetricFilter struct {
	Category   string
	DataTypes  []string
	Search     string
	OnlyKPI    bool
	OnlyActive bool
	Limit      int
	Offset     int
}

// MetricDefinitionRepository persistencia del catálogo de métricas.
type MetricDefinitionRepository interface {
	Create(ctx context.Context, m *entity.MetricDefinition) error
	Update(ctx context.Context, m *entity.MetricDefinition) error
	GetByID(ctx context.Context, id string) (*entity.MetricDefinition, error)
	GetByCode(ctx context.Context, code string) (*entity.MetricDefinition, error)
	// List ordenado por categoría y nombre.
	List(ctx context.Context, f MetricFilter) ([]*entity.MetricDefinition, int, error)
}

// MetricMappingRepository persistencia de mapeos campo/sección/plantilla → métrica.
type MetricMappingRepository interface {
	CreateItemMapping(ctx context.Context, m *entity.FormItemMetricMapping) error
	UpdateItemMapping(ctx context.Context, m *entity.FormItemMetricMapping) error
	GetItemMapping(ctx context.Context, id string) (*entity.FormItemMetricMapping, error)
	ListItemMappings(ctx context.Context, templateID string, onlyActive bool) ([]*entity.FormItemMetricMapping, error)
	// ExistsActiveItemMapping hay otro mapeo activo para (ítem, métrica) distinto de excludeID.
	ExistsActiveItemMapping(ctx context.Context, itemID, metricID, excludeID string) (bool, error)

	CreateSectionMapping(ctx context.Context, m *entity.FormSectionMetricMapping) error
	UpdateSectionMapping(ctx context.Context, m *entity.FormSectionMetricMapping) error
	GetSectionMapping(ctx context.Context, id string) (*entity.FormSectionMetricMapping, error)
	ListSectionMappings(ctx context.Context, templateID string, onlyActive bool) ([]*entity.FormSectionMetricMapping, error)

	CreateTemplateMapping(ctx context.Context, m *entity.FormTemplateMetricMapping) error
	UpdateTemplateMapping(ctx context.Context, m *entity.FormTemplateMetricMapping) error
	GetTemplateMapping(ctx context.Context, id string) (*entity.FormTemplateMetricMapping, error)
	ListTemplateMappings(ctx context.Context, templateID string, onlyActive bool) ([]*entity.FormTemplateMetricMapping, error)
}

// TenantMetricFilter criterios de consulta de valores de métricas.
type TenantMetricFilter struct {
	TenantIDs []string
	MetricID  string
	From      *time.Time
	To        *time.Time
	Limit     int
}

// TenantMetricRepository valores poblados y trazas de población.
type TenantMetricRepository interface {
	// Upsert por (tenant, métrica, período); deja en m el ID persistido.
	Upsert(ctx context.Context, m *entity.TenantMetric) error
	Get(ctx context.Context, tenantID, metricID string, period time.Time) (*entity.TenantMetric, error)
	List(ctx context.Context, f TenantMetricFilter) ([]*entity.TenantMetric, error)

	CreateLog(ctx context.Context, l *entity.MetricPopulationLog) error
	DeleteLogs(ctx context.Context, submissionID string) error
	ListLogs(ctx context.Context, submissionID string) ([]*entity.MetricPopulationLog, error)
}
