package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de dato de una métrica.
const (
	MetricInteger    = "Integer"
	MetricDecimal    = "Decimal"
	MetricPercentage = "Percentage"
	MetricBoolean    = "Boolean"
	MetricCount      = "Count"
	MetricCurrency   = "Currency"
	MetricRating     = "Rating"
	MetricStatus     = "Status"
	MetricText       = "Text"
	MetricDuration   = "Duration"
)

// Agregación temporal de una métrica.
const (
	AggSum       = "SUM"
	AggAvg       = "AVG"
	AggMax       = "MAX"
	AggMin       = "MIN"
	AggLastValue = "LAST_VALUE"
	AggCount     = "COUNT"
	AggNone      = "NONE"
)

// Alcance de una métrica.
const (
	MetricScopeField    = "Field"
	MetricScopeSection  = "Section"
	MetricScopeTemplate = "Template"
)

// Origen del valor de una métrica de tenant.
const (
	SourceUserInput        = "UserInput"
	SourceSystemCalculated = "SystemCalculated"
	SourceExternalSystem   = "ExternalSystem"
	SourceComplianceTrack  = "ComplianceTracking"
)

// MetricDefinition KPI o indicador que se alimenta desde formularios.
type MetricDefinition struct {
	ID              string
	MetricCode      string
	MetricName      string
	Category        string
	SourceType      string
	DataType        string
	Unit            string
	AggregationType string
	MetricScope     string
	HierarchyLevel  int
	ParentMetricID  *string
	IsKPI           bool
	ThresholdGreen  *decimal.Decimal
	ThresholdYellow *decimal.Decimal
	ThresholdRed    *decimal.Decimal
	ExpectedValue   string
	Description     string
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TenantMetric valor de una métrica para un tenant en un período (primer día del mes).
type TenantMetric struct {
	ID                string
	TenantID          string
	MetricID          string
	ReportingPeriod   time.Time
	NumericValue      *decimal.Decimal
	TextValue         string
	SourceType        string
	SourceReferenceID string
	CapturedAt        time.Time

	// Solo lectura (JOIN).
	MetricCode string
	MetricName string
}

// Tipos de mapeo ítem → métrica.
const (
	MappingDirect           = "Direct"
	MappingCalculated       = "Calculated"
	MappingBinaryCompliance = "BinaryCompliance"
	MappingDerived          = "Derived"

	// MappingSystemCalculatedAlias nombre histórico aceptado como Calculated.
	MappingSystemCalculatedAlias = "SystemCalculated"
)

// Tipos de mapeo de sección/plantilla.
const (
	RollupAggregated = "Aggregated"
	RollupCalculated = "Calculated"
)

// Agregaciones de sección/plantilla.
const (
	RollupAvg             = "AVG"
	RollupSum             = "SUM"
	RollupCount           = "COUNT"
	RollupWeightedAverage = "WeightedAverage"
)

// FormItemMetricMapping vínculo de un campo con una métrica.
type FormItemMetricMapping struct {
	ID                  string
	ItemID              string
	MetricID            string
	MappingName         string
	MappingType         string
	TransformationLogic string // JSON del constructor de fórmulas (Calculated)
	ExpectedValue       *string
	IsActive            bool
	CreatedBy           string
	CreatedAt           time.Time
	UpdatedAt           time.Time

	// Solo lectura (JOIN).
	ItemCode   string
	ItemName   string
	TemplateID string
	MetricCode string
	MetricName string
	MetricType string // DataType de la métrica
}

// FormSectionMetricMapping agrega mapeos de ítems de una sección.
type FormSectionMetricMapping struct {
	ID              string
	SectionID       string
	MetricID        string
	MappingName     string
	MappingType     string
	AggregationType string
	Formula         string // JSON del constructor cuando MappingType = Calculated
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Sources         []FormSectionMetricSource

	TemplateID string // solo lectura
}

// FormSectionMetricSource mapeo de ítem que alimenta a una sección.
type FormSectionMetricSource struct {
	ID               string
	SectionMappingID string
	ItemMappingID    string
	Weight           *decimal.Decimal
	DisplayOrder     int
}

// FormTemplateMetricMapping agrega mapeos de sección de una plantilla.
type FormTemplateMetricMapping struct {
	ID              string
	TemplateID      string
	MetricID        string
	MappingName     string
	MappingType     string
	AggregationType string
	Formula         string
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Sources         []FormTemplateMetricSource
}

// FormTemplateMetricSource mapeo de sección que alimenta a la plantilla.
type FormTemplateMetricSource struct {
	ID                string
	TemplateMappingID string
	SectionMappingID  string
	Weight            *decimal.Decimal
	DisplayOrder      int
}

// Estado del log de población.
const (
	PopulationSuccess = "Success"
	PopulationFailed  = "Failed"
	PopulationSkipped = "Skipped"
)

// MetricPopulationLog traza de cada mapeo procesado para un envío.
type MetricPopulationLog struct {
	ID                 string
	SubmissionID       string
	MetricID           string
	MappingID          string
	SourceItemID       *string
	SourceValue        string
	CalculatedValue    *decimal.Decimal
	CalculationFormula string
	Status             string
	ErrorMessage       string
	ProcessingTimeMs   int
	PopulatedAt        time.Time
}
