package metrics

import (
	"slices"
	"strings"

	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Agregaciones que ofrece el asistente de mapeo.
const (
	WizardSum        = "Sum"
	WizardAverage    = "Average"
	WizardCount      = "Count"
	WizardMin        = "Min"
	WizardMax        = "Max"
	WizardLatest     = "Latest"
	WizardPercentage = "Percentage"
)

// AllAggregationTypes catálogo del asistente.
var AllAggregationTypes = []string{WizardSum, WizardAverage, WizardCount, WizardMin, WizardMax, WizardLatest, WizardPercentage}

const (
	direct     = entity.MappingDirect
	calculated = entity.MappingCalculated
	compliance = entity.MappingBinaryCompliance
	derived    = entity.MappingDerived
)

var validMappingTypes = map[string][]string{
	entity.DataTypeNumber:      {direct, calculated, derived},
	entity.DataTypeDecimal:     {direct, calculated, derived},
	entity.DataTypeCurrency:    {direct, calculated, derived},
	entity.DataTypePercentage:  {direct, calculated, derived},
	entity.DataTypeRating:      {direct, calculated, derived},
	entity.DataTypeSlider:      {direct, calculated, derived},
	entity.DataTypeBoolean:     {direct, compliance, derived},
	entity.DataTypeDropdown:    {direct, compliance, derived},
	entity.DataTypeRadio:       {direct, compliance, derived},
	entity.DataTypeCheckbox:    {direct, compliance, derived},
	entity.DataTypeText:        {compliance, derived},
	entity.DataTypeDate:        {calculated, derived},
	entity.DataTypeDateTime:    {calculated, derived},
	entity.DataTypeTime:        {calculated, derived},
	entity.DataTypeMultiSelect: {calculated, derived},
	entity.DataTypeFileUpload:  {derived},
	entity.DataTypeImage:       {derived},
	entity.DataTypeSignature:   {derived},
	entity.DataTypeEmail:       {derived},
	entity.DataTypePhone:       {derived},
	entity.DataTypeURL:         {derived},
	entity.DataTypeTextArea:    {derived},
}

var recommendedMappingTypes = map[string]string{
	entity.DataTypeNumber:      direct,
	entity.DataTypeDecimal:     direct,
	entity.DataTypeCurrency:    direct,
	entity.DataTypePercentage:  direct,
	entity.DataTypeRating:      direct,
	entity.DataTypeSlider:      direct,
	entity.DataTypeBoolean:     compliance,
	entity.DataTypeDropdown:    direct,
	entity.DataTypeRadio:       direct,
	entity.DataTypeCheckbox:    compliance,
	entity.DataTypeText:        compliance,
	entity.DataTypeDate:        calculated,
	entity.DataTypeDateTime:    calculated,
	entity.DataTypeTime:        calculated,
	entity.DataTypeMultiSelect: calculated,
}

// NormalizeMappingType acepta SystemCalculated como alias de Calculated.
func NormalizeMappingType(mappingType string) string {
	if strings.EqualFold(mappingType, entity.MappingSystemCalculatedAlias) {
		return entity.MappingCalculated
	}
	for _, t := range []string{direct, calculated, compliance, derived} {
		if strings.EqualFold(mappingType, t) {
			return t
		}
	}
	return mappingType
}

// ValidMappingTypes tipos de mapeo permitidos para un tipo de dato; Derived si es desconocido.
func ValidMappingTypes(dataType string) []string {
	if types, ok := validMappingTypes[dataType]; ok {
		return types
	}
	return []string{derived}
}

// IsValidMappingType el tipo de mapeo (normalizado) es válido para el tipo de dato.
func IsValidMappingType(dataType, mappingType string) bool {
	return slices.Contains(ValidMappingTypes(dataType), NormalizeMappingType(mappingType))
}

// RecommendedMappingType primera opción sugerida para un tipo de dato.
func RecommendedMappingType(dataType string) string {
	if t, ok := recommendedMappingTypes[dataType]; ok {
		return t
	}
	return derived
}

// FieldTypeCategories agrupación de tipos de dato para el asistente.
func FieldTypeCategories() map[string][]string {
	return map[string][]string{
		"Numeric":   {entity.DataTypeNumber, entity.DataTypeDecimal, entity.DataTypeCurrency, entity.DataTypePercentage, entity.DataTypeRating, entity.DataTypeSlider},
		"Selection": {entity.DataTypeBoolean, entity.DataTypeDropdown, entity.DataTypeRadio, entity.DataTypeCheckbox, entity.DataTypeMultiSelect},
		"Text":      {entity.DataTypeText, entity.DataTypeTextArea},
		"Date/Time": {entity.DataTypeDate, entity.DataTypeDateTime, entity.DataTypeTime},
		"Media":     {entity.DataTypeFileUpload, entity.DataTypeImage, entity.DataTypeSignature},
		"Contact":   {entity.DataTypeEmail, entity.DataTypePhone, entity.DataTypeURL},
	}
}

type aggKey struct{ dataType, mappingType string }

var (
	numericAll   = []string{WizardSum, WizardAverage, WizardMin, WizardMax, WizardCount, WizardLatest}
	currencyAggs = []string{WizardSum, WizardAverage, WizardMin, WizardMax, WizardLatest}
	percentAggs  = []string{WizardAverage, WizardMin, WizardMax, WizardLatest}
	ratingAggs   = []string{WizardAverage, WizardMin, WizardMax, WizardCount}
	sliderAggs   = []string{WizardAverage, WizardMin, WizardMax}
	choiceAggs   = []string{WizardAverage, WizardCount, WizardLatest}
	expectedAggs = []string{WizardPercentage, WizardCount, WizardSum}
	dateAggs     = []string{WizardCount, WizardLatest, WizardMin, WizardMax}
	contactAggs  = []string{WizardCount, WizardLatest}
)

var validAggregations = map[aggKey][]string{
	{entity.DataTypeNumber, direct}:          numericAll,
	{entity.DataTypeDecimal, direct}:         numericAll,
	{entity.DataTypeCurrency, direct}:        currencyAggs,
	{entity.DataTypePercentage, direct}:      percentAggs,
	{entity.DataTypeRating, direct}:          ratingAggs,
	{entity.DataTypeSlider, direct}:          sliderAggs,
	{entity.DataTypeNumber, calculated}:      numericAll,
	{entity.DataTypeDecimal, calculated}:     numericAll,
	{entity.DataTypeCurrency, calculated}:    currencyAggs,
	{entity.DataTypePercentage, calculated}:  percentAggs,
	{entity.DataTypeRating, calculated}:      ratingAggs,
	{entity.DataTypeSlider, calculated}:      sliderAggs,
	{entity.DataTypeBoolean, direct}:         {WizardAverage, WizardSum, WizardCount},
	{entity.DataTypeDropdown, direct}:        choiceAggs,
	{entity.DataTypeRadio, direct}:           choiceAggs,
	{entity.DataTypeCheckbox, direct}:        {WizardSum, WizardCount, WizardAverage},
	{entity.DataTypeBoolean, compliance}:     expectedAggs,
	{entity.DataTypeDropdown, compliance}:    expectedAggs,
	{entity.DataTypeRadio, compliance}:       expectedAggs,
	{entity.DataTypeCheckbox, compliance}:    expectedAggs,
	{entity.DataTypeText, compliance}:        {WizardPercentage, WizardCount},
	{entity.DataTypeDate, calculated}:        dateAggs,
	{entity.DataTypeDateTime, calculated}:    dateAggs,
	{entity.DataTypeTime, calculated}:        {WizardCount, WizardAverage},
	{entity.DataTypeMultiSelect, calculated}: {WizardCount, WizardSum, WizardAverage},
	{entity.DataTypeFileUpload, derived}:     {WizardCount, WizardSum},
	{entity.DataTypeImage, derived}:          {WizardCount},
	{entity.DataTypeSignature, derived}:      {WizardCount},
	{entity.DataTypeEmail, derived}:          contactAggs,
	{entity.DataTypePhone, derived}:          contactAggs,
	{entity.DataTypeURL, derived}:            contactAggs,
	{entity.DataTypeTextArea, derived}:       contactAggs,
}

// ValidAggregationTypes agregaciones válidas para (tipo de dato, tipo de mapeo); Count y Latest si no está tabulado.
func ValidAggregationTypes(dataType, mappingType string) []string {
	if aggs, ok := validAggregations[aggKey{dataType, NormalizeMappingType(mappingType)}]; ok {
		return aggs
	}
	return []string{WizardCount, WizardLatest}
}

// IsValidAggregationType la agregación es válida para la combinación.
func IsValidAggregationType(dataType, mappingType, aggregation string) bool {
	return slices.Contains(ValidAggregationTypes(dataType, mappingType), aggregation)
}

// RecommendedAggregationType primera opción sugerida; Count si no está tabulado.
func RecommendedAggregationType(dataType, mappingType string) string {
	mt := NormalizeMappingType(mappingType)
	switch mt {
	case compliance:
		return WizardPercentage
	case derived:
		return WizardCount
	}
	switch dataType {
	case entity.DataTypeNumber, entity.DataTypeDecimal, entity.DataTypeCurrency:
		return WizardSum
	case entity.DataTypePercentage, entity.DataTypeRating, entity.DataTypeSlider,
		entity.DataTypeDropdown, entity.DataTypeRadio, entity.DataTypeBoolean, entity.DataTypeTime:
		return WizardAverage
	}
	return WizardCount
}

// Thresholds umbrales sugeridos; todos nil cuando no hay un valor razonable por defecto.
type Thresholds struct {
	Green  *decimal.Decimal `json:"green"`
	Yellow *decimal.Decimal `json:"yellow"`
	Red    *decimal.Decimal `json:"red"`
}

func thresholds(g, y, r string) Thresholds {
	gd, yd, rd := decimal.RequireFromString(g), decimal.RequireFromString(y), decimal.RequireFromString(r)
	return Thresholds{Green: &gd, Yellow: &yd, Red: &rd}
}

// SuggestThresholds según tipo de dato de la métrica y agregación del asistente.
func SuggestThresholds(dataType, aggregation string) Thresholds {
	switch {
	case dataType == entity.MetricPercentage || aggregation == WizardPercentage:
		return thresholds("90", "60", "30")
	case dataType == entity.MetricRating:
		return thresholds("4", "3", "2")
	case dataType == entity.MetricBoolean:
		return thresholds("0.9", "0.6", "0.3")
	}
	return Thresholds{}
}

// SuggestedMetricTypes tipos de dato de métrica compatibles con un tipo de ítem (sugerencias de campos sin mapear).
func SuggestedMetricTypes(itemDataType string) []string {
	switch itemDataType {
	case entity.DataTypeNumber:
		return []string{entity.MetricInteger, entity.MetricCount, entity.MetricDecimal}
	case entity.DataTypeDecimal, entity.DataTypeSlider:
		return []string{entity.MetricDecimal, entity.MetricInteger}
	case entity.DataTypeCurrency:
		return []string{entity.MetricCurrency, entity.MetricDecimal}
	case entity.DataTypePercentage:
		return []string{entity.MetricPercentage, entity.MetricDecimal}
	case entity.DataTypeRating:
		return []string{entity.MetricRating, entity.MetricDecimal}
	case entity.DataTypeBoolean, entity.DataTypeDropdown, entity.DataTypeRadio, entity.DataTypeCheckbox, entity.DataTypeText:
		return []string{entity.MetricPercentage, entity.MetricBoolean, entity.MetricStatus}
	case entity.DataTypeDate, entity.DataTypeDateTime, entity.DataTypeTime:
		return []string{entity.MetricDuration, entity.MetricInteger}
	case entity.DataTypeMultiSelect:
		return []string{entity.MetricCount, entity.MetricInteger}
	}
	return []string{entity.MetricCount}
}
