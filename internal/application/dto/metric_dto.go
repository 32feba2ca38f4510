package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ── Definiciones ──────────────────────────────────────────────────────────────

// MetricRequest alta o modificación de una métrica.
type MetricRequest struct {
	MetricCode      string           `json:"metric_code" validate:"required,max=50"`
	MetricName      string           `json:"metric_name" validate:"required,max=200"`
	Category        string           `json:"category" validate:"omitempty,max=100"`
	SourceType      string           `json:"source_type" validate:"omitempty,oneof=UserInput SystemCalculated ExternalSystem ComplianceTracking"`
	DataType        string           `json:"data_type" validate:"required,oneof=Integer Decimal Percentage Boolean Count Currency Rating Status Text Duration"`
	Unit            string           `json:"unit" validate:"omitempty,max=50"`
	AggregationType string           `json:"aggregation_type" validate:"omitempty,oneof=SUM AVG MAX MIN LAST_VALUE COUNT NONE"`
	MetricScope     string           `json:"metric_scope" validate:"omitempty,oneof=Field Section Template"`
	HierarchyLevel  int              `json:"hierarchy_level" validate:"min=0,max=10"`
	ParentMetricID  *string          `json:"parent_metric_id" validate:"omitempty,uuid"`
	IsKPI           bool             `json:"is_kpi"`
	ThresholdGreen  *decimal.Decimal `json:"threshold_green"`
	ThresholdYellow *decimal.Decimal `json:"threshold_yellow"`
	ThresholdRed    *decimal.Decimal `json:"threshold_red"`
	ExpectedValue   string           `json:"expected_value" validate:"omitempty,max=200"`
	Description     string           `json:"description" validate:"omitempty,max=1000"`
	IsActive        *bool            `json:"is_active"`
}

// MetricListRequest filtros del catálogo de métricas.
type MetricListRequest struct {
	PageRequest
	Category   string `query:"category"`
	DataType   string `query:"data_type"`
	OnlyKPI    bool   `query:"only_kpi"`
	OnlyActive bool   `query:"only_active"`
}

// MetricResponse salida de una métrica.
type MetricResponse struct {
	ID              string           `json:"id"`
	MetricCode      string           `json:"metric_code"`
	MetricName      string           `json:"metric_name"`
	Category        string           `json:"category,omitempty"`
	SourceType      string           `json:"source_type"`
	DataType        string           `json:"data_type"`
	Unit            string           `json:"unit,omitempty"`
	AggregationType string           `json:"aggregation_type"`
	MetricScope     string           `json:"metric_scope"`
	HierarchyLevel  int              `json:"hierarchy_level"`
	ParentMetricID  *string          `json:"parent_metric_id,omitempty"`
	IsKPI           bool             `json:"is_kpi"`
	ThresholdGreen  *decimal.Decimal `json:"threshold_green,omitempty"`
	ThresholdYellow *decimal.Decimal `json:"threshold_yellow,omitempty"`
	ThresholdRed    *decimal.Decimal `json:"threshold_red,omitempty"`
	ExpectedValue   string           `json:"expected_value,omitempty"`
	Description     string           `json:"description,omitempty"`
	IsActive        bool             `json:"is_active"`
}

// ThresholdSuggestionResponse umbrales sugeridos.
type ThresholdSuggestionResponse struct {
	Green  *decimal.Decimal `json:"green"`
	Yellow *decimal.Decimal `json:"yellow"`
	Red    *decimal.Decimal `json:"red"`
}

// ── Mapeos ────────────────────────────────────────────────────────────────────

// ItemMappingRequest alta o modificación de un mapeo campo → métrica.
type ItemMappingRequest struct {
	ItemID              string  `json:"item_id" validate:"required,uuid"`
	MetricID            string  `json:"metric_id" validate:"required,uuid"`
	MappingName         string  `json:"mapping_name" validate:"omitempty,max=200"`
	MappingType         string  `json:"mapping_type" validate:"required"`
	TransformationLogic string  `json:"transformation_logic"`
	ExpectedValue       *string `json:"expected_value" validate:"omitempty,max=200"`
}

// ItemMappingResponse salida de un mapeo de campo.
type ItemMappingResponse struct {
	ID                  string  `json:"id"`
	ItemID              string  `json:"item_id"`
	ItemCode            string  `json:"item_code"`
	ItemName            string  `json:"item_name"`
	MetricID            string  `json:"metric_id"`
	MetricCode          string  `json:"metric_code"`
	MetricName          string  `json:"metric_name"`
	MetricType          string  `json:"metric_type"`
	MappingName         string  `json:"mapping_name,omitempty"`
	MappingType         string  `json:"mapping_type"`
	TransformationLogic string  `json:"transformation_logic,omitempty"`
	ExpectedValue       *string `json:"expected_value,omitempty"`
	IsActive            bool    `json:"is_active"`
}

// RollupSourceInput fuente ponderada de un mapeo de sección o plantilla.
type RollupSourceInput struct {
	MappingID    string           `json:"mapping_id" validate:"required,uuid"`
	Weight       *decimal.Decimal `json:"weight"`
	DisplayOrder int              `json:"display_order"`
}

// RollupMappingRequest alta o modificación de un mapeo de sección (OwnerID = sección)
// o de plantilla (OwnerID = plantilla).
type RollupMappingRequest struct {
	OwnerID         string              `json:"owner_id" validate:"required,uuid"`
	MetricID        string              `json:"metric_id" validate:"required,uuid"`
	MappingName     string              `json:"mapping_name" validate:"omitempty,max=200"`
	MappingType     string              `json:"mapping_type" validate:"required,oneof=Aggregated Calculated"`
	AggregationType string              `json:"aggregation_type" validate:"omitempty,oneof=AVG SUM COUNT WeightedAverage"`
	Formula         string              `json:"formula"`
	Sources         []RollupSourceInput `json:"sources" validate:"dive"`
}

// RollupSourceResponse fuente de un roll-up.
type RollupSourceResponse struct {
	MappingID    string           `json:"mapping_id"`
	Weight       *decimal.Decimal `json:"weight,omitempty"`
	DisplayOrder int              `json:"display_order"`
}

// RollupMappingResponse salida de un mapeo de sección o plantilla.
type RollupMappingResponse struct {
	ID              string                 `json:"id"`
	OwnerID         string                 `json:"owner_id"`
	MetricID        string                 `json:"metric_id"`
	MappingName     string                 `json:"mapping_name,omitempty"`
	MappingType     string                 `json:"mapping_type"`
	AggregationType string                 `json:"aggregation_type,omitempty"`
	Formula         string                 `json:"formula,omitempty"`
	IsActive        bool                   `json:"is_active"`
	Sources         []RollupSourceResponse `json:"sources"`
}

// ConfigureItem campo de la vista de configuración con sus mapeos y tipos válidos.
type ConfigureItem struct {
	ItemID                 string                `json:"item_id"`
	ItemCode               string                `json:"item_code"`
	ItemName               string                `json:"item_name"`
	SectionID              string                `json:"section_id"`
	SectionName            string                `json:"section_name"`
	DataType               string                `json:"data_type"`
	ValidMappingTypes      []string              `json:"valid_mapping_types"`
	RecommendedMappingType string                `json:"recommended_mapping_type"`
	Mappings               []ItemMappingResponse `json:"mappings"`
}

// ConfigureResponse vista de configuración de métricas de una plantilla.
type ConfigureResponse struct {
	Template            TemplateResponse        `json:"template"`
	Items               []ConfigureItem         `json:"items"`
	SectionMappings     []RollupMappingResponse `json:"section_mappings"`
	TemplateMappings    []RollupMappingResponse `json:"template_mappings"`
	FieldTypeCategories map[string][]string     `json:"field_type_categories"`
	AggregationTypes    []string                `json:"aggregation_types"`
}

// TestMappingRequest valores de prueba por ItemID.
type TestMappingRequest struct {
	SampleValues map[string]string `json:"sample_values" validate:"required"`
}

// TestMappingResponse resultado de probar un mapeo.
type TestMappingResponse struct {
	Success   bool             `json:"success"`
	Result    *decimal.Decimal `json:"result,omitempty"`
	Formatted string           `json:"formatted,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// UnmappedFieldResponse campo sin mapeo activo con métricas sugeridas.
type UnmappedFieldResponse struct {
	ItemID           string           `json:"item_id"`
	ItemCode         string           `json:"item_code"`
	ItemName         string           `json:"item_name"`
	DataType         string           `json:"data_type"`
	SectionID        string           `json:"section_id"`
	SectionName      string           `json:"section_name"`
	DisplayOrder     int              `json:"display_order"`
	SuggestedMetrics []MetricResponse `json:"suggested_metrics"`
}

// ── Valores ───────────────────────────────────────────────────────────────────

// TenantMetricListRequest consulta de valores poblados.
type TenantMetricListRequest struct {
	TenantID string     `query:"tenant_id" validate:"omitempty,uuid"`
	MetricID string     `query:"metric_id" validate:"omitempty,uuid"`
	From     *time.Time `query:"from"`
	To       *time.Time `query:"to"`
	Limit    int        `query:"limit" validate:"omitempty,min=1,max=1000"`
}

// TenantMetricResponse valor de una métrica para un tenant y período.
type TenantMetricResponse struct {
	TenantID        string           `json:"tenant_id"`
	MetricID        string           `json:"metric_id"`
	MetricCode      string           `json:"metric_code"`
	MetricName      string           `json:"metric_name"`
	ReportingPeriod time.Time        `json:"reporting_period"`
	NumericValue    *decimal.Decimal `json:"numeric_value,omitempty"`
	TextValue       string           `json:"text_value,omitempty"`
	SourceType      string           `json:"source_type"`
	Status          string           `json:"status,omitempty"`
	CapturedAt      time.Time        `json:"captured_at"`
}

// PopulationLogResponse traza de población de un mapeo.
type PopulationLogResponse struct {
	MetricID           string           `json:"metric_id"`
	MappingID          string           `json:"mapping_id"`
	SourceItemID       *string          `json:"source_item_id,omitempty"`
	SourceValue        string           `json:"source_value,omitempty"`
	CalculatedValue    *decimal.Decimal `json:"calculated_value,omitempty"`
	CalculationFormula string           `json:"calculation_formula,omitempty"`
	Status             string           `json:"status"`
	ErrorMessage       string           `json:"error_message,omitempty"`
	ProcessingTimeMs   int              `json:"processing_time_ms"`
	PopulatedAt        time.Time        `json:"populated_at"`
}
