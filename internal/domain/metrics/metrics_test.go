package metrics_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jhoicas/form-reporting-api/internal/domain"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/jhoicas/form-reporting-api/internal/domain/metrics"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string { return &s }
func boolp(b bool) *bool { return &b }
func decp(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// ── Extracción directa ───────────────────────────────────────────────────────

func TestDirectValue_OrdenDeExtraccion(t *testing.T) {
	cases := []struct {
		name string
		resp *entity.FormResponse
		want *decimal.Decimal
	}{
		{"numérico primero", &entity.FormResponse{NumericValue: decp("12.5"), TextValue: strp("99")}, decp("12.5")},
		{"booleano verdadero", &entity.FormResponse{BooleanValue: boolp(true)}, decp("1")},
		{"booleano falso", &entity.FormResponse{BooleanValue: boolp(false)}, decp("0")},
		{"texto numérico", &entity.FormResponse{TextValue: strp(" 42 ")}, decp("42")},
		{"yes", &entity.FormResponse{TextValue: strp("YES")}, decp("1")},
		{"no", &entity.FormResponse{TextValue: strp("no")}, decp("0")},
		{"texto libre", &entity.FormResponse{TextValue: strp("quizás")}, nil},
		{"sin respuesta", nil, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := metrics.DirectValue(tc.resp)
			if tc.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, tc.want.Equal(*got), "esperado %s, obtenido %s", tc.want, got)
		})
	}
}

func TestComplianceValue_CoincidenciaSinMayusculas(t *testing.T) {
	got := metrics.ComplianceValue(&entity.FormResponse{TextValue: strp("yes")}, nil)
	require.NotNil(t, got)
	assert.True(t, got.Equal(decimal.NewFromInt(100)))

	got = metrics.ComplianceValue(&entity.FormResponse{BooleanValue: boolp(false)}, strp("Yes"))
	require.NotNil(t, got)
	assert.True(t, got.IsZero())

	got = metrics.ComplianceValue(&entity.FormResponse{TextValue: strp("Compliant")}, strp("compliant"))
	require.NotNil(t, got)
	assert.True(t, got.Equal(decimal.NewFromInt(100)))

	assert.Nil(t, metrics.ComplianceValue(&entity.FormResponse{}, nil))
}

func TestReportingPeriod_PrimerDiaDelMes(t *testing.T) {
	got := metrics.ReportingPeriod(time.Date(2025, 3, 17, 15, 4, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), got)
}

// ── Fórmulas ─────────────────────────────────────────────────────────────────

func TestFormula_EvaluaRedondeaYAcota(t *testing.T) {
	f, err := metrics.ParseFormula(`{"formula":"(working / total) * 100","itemAliases":{"working":"i1","total":"i2"},"roundTo":2,"maxValue":100}`)
	require.NoError(t, err)

	got, err := f.Evaluate(map[string]decimal.Decimal{
		"working": decimal.NewFromInt(2),
		"total":   decimal.NewFromInt(3),
	})
	require.NoError(t, err)
	assert.Equal(t, "66.67", got.StringFixed(2))

	got, err = f.Evaluate(map[string]decimal.Decimal{
		"working": decimal.NewFromInt(5),
		"total":   decimal.NewFromInt(4),
	})
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.NewFromInt(100)), "se acota al máximo")
}

func TestFormula_DivisionPorCero(t *testing.T) {
	f, err := metrics.ParseFormula(`{"formula":"a / b","itemAliases":{"a":"i1","b":"i2"}}`)
	require.NoError(t, err)

	_, err = f.Evaluate(map[string]decimal.Decimal{"a": decimal.NewFromInt(1), "b": decimal.Zero})
	assert.True(t, errors.Is(err, domain.ErrDivisionByZero))
}

func TestFormula_AritmeticaDecimalExacta(t *testing.T) {
	f, err := metrics.ParseFormula(`{"formula":"a + b","itemAliases":{"a":"i1","b":"i2"}}`)
	require.NoError(t, err)

	got, err := f.Evaluate(map[string]decimal.Decimal{
		"a": decimal.RequireFromString("0.1"),
		"b": decimal.RequireFromString("0.2"),
	})
	require.NoError(t, err)
	assert.Equal(t, "0.3", got.String())

	f, err = metrics.ParseFormula(`{"formula":"a + 0 + 0.1","itemAliases":{"a":"i1"}}`)
	require.NoError(t, err)
	got, err = f.Evaluate(map[string]decimal.Decimal{"a": decimal.RequireFromString("12345678901234.5678")})
	require.NoError(t, err)
	assert.Equal(t, "12345678901234.6678", got.String())
}

func TestFormula_DivisionPorCeroDentroDeCondicion(t *testing.T) {
	f, err := metrics.ParseFormula(`{"formula":"a / b > 1 ? 1 : 0","itemAliases":{"a":"i1","b":"i2"}}`)
	require.NoError(t, err)

	_, err = f.Evaluate(map[string]decimal.Decimal{"a": decimal.NewFromInt(5), "b": decimal.Zero})
	assert.True(t, errors.Is(err, domain.ErrDivisionByZero))

	got, err := f.Evaluate(map[string]decimal.Decimal{"a": decimal.NewFromInt(5), "b": decimal.NewFromInt(2)})
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.NewFromInt(1)))
}

func TestFormula_ValidacionDeDivisorDesactivada(t *testing.T) {
	raw := `{"formula":"b == 0 ? 0 : a / b","itemAliases":{"a":"i1","b":"i2"},"validateDivisionByZero":%t}`
	vars := map[string]decimal.Decimal{"a": decimal.NewFromInt(5), "b": decimal.Zero}

	f, err := metrics.ParseFormula(fmt.Sprintf(raw, true))
	require.NoError(t, err)
	_, err = f.Evaluate(vars)
	assert.True(t, errors.Is(err, domain.ErrDivisionByZero), "cualquier divisor en cero se rechaza")

	f, err = metrics.ParseFormula(fmt.Sprintf(raw, false))
	require.NoError(t, err)
	got, err := f.Evaluate(vars)
	require.NoError(t, err)
	assert.True(t, got.IsZero(), "la rama protegida no se evalúa")
}

func TestFormula_FuncionesYLiterales(t *testing.T) {
	f, err := metrics.ParseFormula(`{"formula":"max(a, b) - min(a, b) + abs(-1.5) * 2","itemAliases":{"a":"i1","b":"i2"}}`)
	require.NoError(t, err)

	got, err := f.Evaluate(map[string]decimal.Decimal{"a": decimal.NewFromInt(3), "b": decimal.RequireFromString("7.25")})
	require.NoError(t, err)
	assert.Equal(t, "7.25", got.String())
}

func TestFormula_FaltaVariable(t *testing.T) {
	f, err := metrics.ParseFormula(`{"formula":"a + b","itemAliases":{"a":"i1","b":"i2"}}`)
	require.NoError(t, err)

	_, err = f.Evaluate(map[string]decimal.Decimal{"a": decimal.NewFromInt(1)})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestParseFormula_Errores(t *testing.T) {
	_, err := metrics.ParseFormula("")
	assert.True(t, errors.Is(err, domain.ErrMissingFormula))

	_, err = metrics.ParseFormula(`{"formula":"","itemAliases":{"a":"i1"}}`)
	assert.True(t, errors.Is(err, domain.ErrMissingFormula))

	_, err = metrics.ParseFormula(`{no es json`)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = metrics.ParseFormula(`{"formula":"a + desconocida","itemAliases":{"a":"i1"}}`)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput), "variables no declaradas fallan al compilar")
}

// ── Reglas de mapeo ──────────────────────────────────────────────────────────

func TestIsValidMappingType_PorTipoDeDato(t *testing.T) {
	assert.True(t, metrics.IsValidMappingType(entity.DataTypeNumber, entity.MappingDirect))
	assert.True(t, metrics.IsValidMappingType(entity.DataTypeNumber, "SystemCalculated"), "alias de Calculated")
	assert.False(t, metrics.IsValidMappingType(entity.DataTypeNumber, entity.MappingBinaryCompliance))
	assert.True(t, metrics.IsValidMappingType(entity.DataTypeDropdown, entity.MappingBinaryCompliance))
	assert.False(t, metrics.IsValidMappingType(entity.DataTypeText, entity.MappingDirect))
	assert.Equal(t, []string{entity.MappingDerived}, metrics.ValidMappingTypes(entity.DataTypeSignature))
	assert.Equal(t, []string{entity.MappingDerived}, metrics.ValidMappingTypes("Desconocido"))
}

func TestValidAggregationTypes_FallbackYRecomendadas(t *testing.T) {
	assert.Contains(t, metrics.ValidAggregationTypes(entity.DataTypeCurrency, entity.MappingDirect), metrics.WizardSum)
	assert.NotContains(t, metrics.ValidAggregationTypes(entity.DataTypeCurrency, entity.MappingDirect), metrics.WizardCount)
	assert.Equal(t, []string{metrics.WizardCount, metrics.WizardLatest}, metrics.ValidAggregationTypes(entity.DataTypeText, entity.MappingDirect))
	assert.Equal(t, metrics.WizardPercentage, metrics.RecommendedAggregationType(entity.DataTypeRadio, entity.MappingBinaryCompliance))
	assert.Equal(t, metrics.WizardSum, metrics.RecommendedAggregationType(entity.DataTypeNumber, entity.MappingDirect))
}

func TestSuggestThresholds(t *testing.T) {
	th := metrics.SuggestThresholds(entity.MetricPercentage, "")
	require.NotNil(t, th.Green)
	assert.Equal(t, "90", th.Green.String())
	assert.Equal(t, "30", th.Red.String())

	th = metrics.SuggestThresholds(entity.MetricDecimal, metrics.WizardPercentage)
	assert.Equal(t, "60", th.Yellow.String())

	th = metrics.SuggestThresholds(entity.MetricRating, "")
	assert.Equal(t, "4", th.Green.String())

	th = metrics.SuggestThresholds(entity.MetricBoolean, "")
	assert.Equal(t, "0.9", th.Green.String())

	th = metrics.SuggestThresholds(entity.MetricCount, metrics.WizardSum)
	assert.Nil(t, th.Green)
	assert.Nil(t, th.Yellow)
	assert.Nil(t, th.Red)
}

// ── Formato, semáforo y roll-ups ─────────────────────────────────────────────

func TestFormatValue_PorUnidad(t *testing.T) {
	v := decimal.RequireFromString("85.5")
	assert.Equal(t, "85.50%", metrics.FormatValue(v, &entity.MetricDefinition{DataType: entity.MetricPercentage}))
	assert.Equal(t, "1,235", metrics.FormatValue(decimal.RequireFromString("1234.6"), &entity.MetricDefinition{Unit: entity.MetricCount}))
	assert.Equal(t, "Yes", metrics.FormatValue(decimal.NewFromInt(1), &entity.MetricDefinition{DataType: entity.MetricStatus}))
	assert.Equal(t, "No", metrics.FormatValue(decimal.Zero, &entity.MetricDefinition{DataType: entity.MetricStatus}))
	assert.Equal(t, "85.5", metrics.FormatValue(v, &entity.MetricDefinition{DataType: entity.MetricDecimal}))
}

func TestKPIStatus(t *testing.T) {
	m := &entity.MetricDefinition{ThresholdGreen: decp("90"), ThresholdYellow: decp("60"), ThresholdRed: decp("30")}
	assert.Equal(t, metrics.KPIGreen, metrics.KPIStatus(decimal.NewFromInt(95), m))
	assert.Equal(t, metrics.KPIYellow, metrics.KPIStatus(decimal.NewFromInt(60), m))
	assert.Equal(t, metrics.KPIRed, metrics.KPIStatus(decimal.NewFromInt(10), m))
	assert.Equal(t, "", metrics.KPIStatus(decimal.NewFromInt(10), &entity.MetricDefinition{}))
}

func TestAggregate(t *testing.T) {
	values := []metrics.WeightedValue{
		{Value: decimal.NewFromInt(100), Weight: decp("3")},
		{Value: decimal.NewFromInt(50)},
	}
	cases := map[string]string{
		entity.RollupSum:             "150",
		entity.RollupAvg:             "75",
		entity.RollupCount:           "2",
		entity.RollupWeightedAverage: "87.5",
	}
	for agg, want := range cases {
		got, err := metrics.Aggregate(agg, values)
		require.NoError(t, err, agg)
		require.NotNil(t, got, agg)
		assert.True(t, decimal.RequireFromString(want).Equal(*got), "%s: %s", agg, got)
	}

	got, err := metrics.Aggregate(entity.RollupSum, nil)
	assert.NoError(t, err)
	assert.Nil(t, got)

	_, err = metrics.Aggregate("MEDIAN", values)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

// ── Valores de mapeo ─────────────────────────────────────────────────────────

func TestItemValue_PorTipoDeMapeo(t *testing.T) {
	responses := metrics.IndexResponses([]*entity.FormResponse{
		{ItemID: "working", NumericValue: decp("8")},
		{ItemID: "total", TextValue: strp("10")},
		{ItemID: "ok", BooleanValue: boolp(true)},
	})

	v, err := metrics.ItemValue(&entity.FormItemMetricMapping{ItemID: "working", MappingType: entity.MappingDirect}, responses)
	require.NoError(t, err)
	assert.Equal(t, "8", v.String())

	v, err = metrics.ItemValue(&entity.FormItemMetricMapping{ItemID: "ok", MappingType: entity.MappingBinaryCompliance}, responses)
	require.NoError(t, err)
	assert.Equal(t, "100", v.String())

	calc := &entity.FormItemMetricMapping{
		ItemID:              "working",
		MappingType:         entity.MappingSystemCalculatedAlias,
		TransformationLogic: `{"formula":"w / t * 100","itemAliases":{"w":"working","t":"total"}}`,
	}
	v, err = metrics.ItemValue(calc, responses)
	require.NoError(t, err)
	assert.Equal(t, "80", v.String())

	calc.TransformationLogic = `{"formula":"w / t","itemAliases":{"w":"working","t":"missing"}}`
	_, err = metrics.ItemValue(calc, responses)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	v, err = metrics.ItemValue(&entity.FormItemMetricMapping{ItemID: "working", MappingType: entity.MappingDerived}, responses)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestRollupValue_AgregadoYCalculado(t *testing.T) {
	values := map[string]decimal.Decimal{"m1": decimal.NewFromInt(80), "m2": decimal.NewFromInt(40)}
	sources := []metrics.Source{{MappingID: "m1", Weight: decp("3")}, {MappingID: "m2"}, {MappingID: "sin-valor"}}

	v, err := metrics.RollupValue(entity.RollupAggregated, entity.RollupWeightedAverage, "", sources, values)
	require.NoError(t, err)
	assert.Equal(t, "70", v.String())

	v, err = metrics.RollupValue(entity.RollupAggregated, entity.RollupCount, "", sources, values)
	require.NoError(t, err)
	assert.Equal(t, "2", v.String())

	v, err = metrics.RollupValue(entity.RollupCalculated, "", `{"formula":"a - b","itemAliases":{"a":"m1","b":"m2"}}`, nil, values)
	require.NoError(t, err)
	assert.Equal(t, "40", v.String())

	_, err = metrics.RollupValue(entity.RollupCalculated, "", `{"formula":"a","itemAliases":{"a":"sin-valor"}}`, nil, values)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSampleResponses_DirectoYCumplimiento(t *testing.T) {
	responses := metrics.SampleResponses(map[string]string{"i1": "12", "i2": "no"})
	assert.Equal(t, "12", metrics.DirectValue(responses["i1"]).String())
	got := metrics.ComplianceValue(responses["i2"], nil)
	require.NotNil(t, got)
	assert.True(t, got.IsZero())
}
