package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/jhoicas/form-reporting-api/internal/application/dto"
	"github.com/jhoicas/form-reporting-api/internal/application/usecase"
	"github.com/jhoicas/form-reporting-api/internal/domain"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/jhoicas/form-reporting-api/internal/domain/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recalculator struct{ ids []string }

func (r *recalculator) Recalculate(_ context.Context, submissionID string) error {
	r.ids = append(r.ids, submissionID)
	return nil
}

type metricEnv struct {
	*fixture
	uc    *usecase.MetricUseCase
	recal *recalculator
	tpl   seededTemplate
}

func newMetricEnv(t *testing.T) *metricEnv {
	t.Helper()
	f := newFixture(t)
	env := &metricEnv{fixture: f, recal: &recalculator{}}
	s := f.store
	env.uc = usecase.NewMetricUseCase(s.Metrics, s.Mappings, s.Templates, s.Submissions, s.Values, f.scope, env.recal)
	env.tpl = seedTemplate(t, f, "MET", false)
	return env
}

func (e *metricEnv) metric(t *testing.T, code, dataType string) string {
	t.Helper()
	out, err := e.uc.CreateMetric(context.Background(), dto.MetricRequest{MetricCode: code, MetricName: "Métrica " + code, DataType: dataType})
	require.NoError(t, err)
	return out.ID
}

func TestMetricCreate_DefaultsYCodigoUnico(t *testing.T) {
	env := newMetricEnv(t)
	ctx := context.Background()

	out, err := env.uc.CreateMetric(ctx, dto.MetricRequest{MetricCode: " uptime ", MetricName: "Disponibilidad", DataType: entity.MetricPercentage})
	require.NoError(t, err)
	assert.Equal(t, "UPTIME", out.MetricCode)
	assert.Equal(t, entity.SourceUserInput, out.SourceType)
	assert.Equal(t, entity.AggLastValue, out.AggregationType)
	assert.Equal(t, entity.MetricScopeField, out.MetricScope)
	assert.True(t, out.IsActive)

	_, err = env.uc.CreateMetric(ctx, dto.MetricRequest{MetricCode: "UPTIME", MetricName: "Otra", DataType: entity.MetricDecimal})
	var verrs domain.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "metric_code", verrs[0].Field)
}

func TestMetricUpdate_PadreYUmbrales(t *testing.T) {
	env := newMetricEnv(t)
	ctx := context.Background()
	id := env.metric(t, "KPI", entity.MetricPercentage)

	_, err := env.uc.UpdateMetric(ctx, id, dto.MetricRequest{MetricCode: "KPI", MetricName: "KPI", DataType: entity.MetricPercentage, ParentMetricID: &id})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = env.uc.UpdateMetric(ctx, id, dto.MetricRequest{
		MetricCode: "KPI", MetricName: "KPI", DataType: entity.MetricPercentage,
		ThresholdGreen: decp("50"), ThresholdYellow: decp("80"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	out, err := env.uc.UpdateMetric(ctx, id, dto.MetricRequest{
		MetricCode: "KPI", MetricName: "KPI", DataType: entity.MetricPercentage, IsKPI: true,
		ThresholdGreen: decp("90"), ThresholdYellow: decp("60"), ThresholdRed: decp("30"),
	})
	require.NoError(t, err)
	assert.True(t, out.IsKPI)

	require.NoError(t, env.uc.DeactivateMetric(ctx, id))
	got, err := env.uc.GetMetric(ctx, id)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	_, err = env.uc.GetMetric(ctx, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMetricSuggestThresholds(t *testing.T) {
	env := newMetricEnv(t)
	out := env.uc.SuggestThresholds(entity.MetricPercentage, "")
	require.NotNil(t, out.Green)
	assert.Equal(t, "90", out.Green.String())
	assert.Nil(t, env.uc.SuggestThresholds(entity.MetricText, "").Green)
}

func TestMetricItemMapping_Validaciones(t *testing.T) {
	env := newMetricEnv(t)
	ctx := context.Background()
	hours := env.metric(t, "HOURS", entity.MetricDecimal)

	cases := []struct {
		name  string
		in    dto.ItemMappingRequest
		field string
	}{
		{"tipo inválido para el campo", dto.ItemMappingRequest{ItemID: env.tpl.Hours, MetricID: hours, MappingType: entity.MappingBinaryCompliance}, "mapping_type"},
		{"calculado sin fórmula", dto.ItemMappingRequest{ItemID: env.tpl.Hours, MetricID: hours, MappingType: entity.MappingCalculated}, "transformation_logic"},
		{"cumplimiento sin valor esperado", dto.ItemMappingRequest{ItemID: env.tpl.Rating, MetricID: hours, MappingType: entity.MappingBinaryCompliance}, "expected_value"},
		{"campo inexistente", dto.ItemMappingRequest{ItemID: "no-existe", MetricID: hours, MappingType: entity.MappingDirect}, "item_id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.uc.CreateItemMapping(ctx, userAdmin, tc.in)
			var verrs domain.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			fields := make([]string, 0, len(verrs))
			for _, v := range verrs {
				fields = append(fields, v.Field)
			}
			assert.Contains(t, fields, tc.field)
		})
	}
}

func TestMetricItemMapping_AliasYDuplicado(t *testing.T) {
	env := newMetricEnv(t)
	ctx := context.Background()
	hours := env.metric(t, "HOURS", entity.MetricDecimal)

	out, err := env.uc.CreateItemMapping(ctx, userAdmin, dto.ItemMappingRequest{
		ItemID: env.tpl.Hours, MetricID: hours, MappingType: entity.MappingSystemCalculatedAlias,
		TransformationLogic: `{"formula":"h * 2","itemAliases":{"h":"` + env.tpl.Hours + `"}}`,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.MappingCalculated, out.MappingType)
	assert.Equal(t, "HOURS", out.MetricCode)

	_, err = env.uc.CreateItemMapping(ctx, userAdmin, dto.ItemMappingRequest{ItemID: env.tpl.Hours, MetricID: hours, MappingType: entity.MappingDirect})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	require.NoError(t, env.uc.DeleteItemMapping(ctx, out.ID))
	_, err = env.uc.CreateItemMapping(ctx, userAdmin, dto.ItemMappingRequest{ItemID: env.tpl.Hours, MetricID: hours, MappingType: entity.MappingDirect})
	assert.NoError(t, err, "un mapeo inactivo no bloquea uno nuevo")
}

func TestMetricTestMapping(t *testing.T) {
	env := newMetricEnv(t)
	ctx := context.Background()
	pct := env.metric(t, "PCT", entity.MetricPercentage)

	m, err := env.uc.CreateItemMapping(ctx, userAdmin, dto.ItemMappingRequest{
		ItemID: env.tpl.Hours, MetricID: pct, MappingType: entity.MappingCalculated,
		TransformationLogic: `{"formula":"h / 8 * 100","itemAliases":{"h":"` + env.tpl.Hours + `"},"roundTo":1}`,
	})
	require.NoError(t, err)

	out, err := env.uc.TestMapping(ctx, m.ID, dto.TestMappingRequest{SampleValues: map[string]string{env.tpl.Hours: "6"}})
	require.NoError(t, err)
	assert.True(t, out.Success)
	require.NotNil(t, out.Result)
	assert.Equal(t, "75", out.Result.String())
	assert.Equal(t, "75.00%", out.Formatted)

	out, err = env.uc.TestMapping(ctx, m.ID, dto.TestMappingRequest{SampleValues: map[string]string{env.tpl.Hours: "seis"}})
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.NotEmpty(t, out.Error)
}

func TestMetricUnmappedFields_SugerenciasPorTipo(t *testing.T) {
	env := newMetricEnv(t)
	ctx := context.Background()
	count := env.metric(t, "COUNT", entity.MetricCount)
	env.metric(t, "RATE", entity.MetricPercentage)

	out, err := env.uc.UnmappedFields(ctx, env.tpl.ID)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, env.tpl.Hours, out[0].ItemID)
	require.Len(t, out[0].SuggestedMetrics, 1)
	assert.Equal(t, "COUNT", out[0].SuggestedMetrics[0].MetricCode)

	_, err = env.uc.CreateItemMapping(ctx, userAdmin, dto.ItemMappingRequest{ItemID: env.tpl.Hours, MetricID: count, MappingType: entity.MappingDirect})
	require.NoError(t, err)
	out, err = env.uc.UnmappedFields(ctx, env.tpl.ID)
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestMetricRollups_FuentesDeLaSeccionYPlantilla(t *testing.T) {
	env := newMetricEnv(t)
	ctx := context.Background()
	hours := env.metric(t, "HOURS", entity.MetricDecimal)
	secMetric := env.metric(t, "SEC", entity.MetricDecimal)
	tplMetric := env.metric(t, "TPL", entity.MetricDecimal)

	item, err := env.uc.CreateItemMapping(ctx, userAdmin, dto.ItemMappingRequest{ItemID: env.tpl.Hours, MetricID: hours, MappingType: entity.MappingDirect})
	require.NoError(t, err)

	_, err = env.uc.CreateSectionMapping(ctx, dto.RollupMappingRequest{OwnerID: env.tpl.SectionID, MetricID: secMetric, MappingType: entity.RollupAggregated, AggregationType: "MEDIAN", Sources: []dto.RollupSourceInput{{MappingID: item.ID}}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "agregación no válida")

	sec, err := env.uc.CreateSectionMapping(ctx, dto.RollupMappingRequest{
		OwnerID: env.tpl.SectionID, MetricID: secMetric, MappingName: "sección",
		MappingType: entity.RollupAggregated, AggregationType: entity.RollupAvg,
		Sources: []dto.RollupSourceInput{{MappingID: item.ID}},
	})
	require.NoError(t, err)
	assert.Equal(t, env.tpl.SectionID, sec.OwnerID)
	require.Len(t, sec.Sources, 1)

	_, err = env.uc.CreateTemplateMapping(ctx, dto.RollupMappingRequest{
		OwnerID: env.tpl.ID, MetricID: tplMetric, MappingType: entity.RollupAggregated, AggregationType: entity.RollupSum,
		Sources: []dto.RollupSourceInput{{MappingID: item.ID}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "un mapeo de campo no es fuente de plantilla")

	tpl, err := env.uc.CreateTemplateMapping(ctx, dto.RollupMappingRequest{
		OwnerID: env.tpl.ID, MetricID: tplMetric, MappingType: entity.RollupAggregated, AggregationType: entity.RollupWeightedAverage,
		Sources: []dto.RollupSourceInput{{MappingID: sec.ID, Weight: decp("2")}},
	})
	require.NoError(t, err)

	cfg, err := env.uc.Configure(ctx, env.tpl.ID)
	require.NoError(t, err)
	require.Len(t, cfg.Items, 3)
	assert.Len(t, cfg.Items[0].Mappings, 1)
	assert.Equal(t, metrics.RecommendedMappingType(entity.DataTypeNumber), cfg.Items[0].RecommendedMappingType)
	assert.Len(t, cfg.SectionMappings, 1)
	assert.Len(t, cfg.TemplateMappings, 1)

	require.NoError(t, env.uc.DeleteTemplateMapping(ctx, tpl.ID))
	require.NoError(t, env.uc.DeleteSectionMapping(ctx, sec.ID))
	cfg, err = env.uc.Configure(ctx, env.tpl.ID)
	require.NoError(t, err)
	assert.False(t, cfg.SectionMappings[0].IsActive)
}

func TestMetricTenantMetrics_AlcanceYSemaforo(t *testing.T) {
	env := newMetricEnv(t)
	ctx := context.Background()
	out, err := env.uc.CreateMetric(ctx, dto.MetricRequest{
		MetricCode: "UP", MetricName: "Disponibilidad", DataType: entity.MetricPercentage, IsKPI: true,
		ThresholdGreen: decp("90"), ThresholdYellow: decp("60"),
	})
	require.NoError(t, err)
	period := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for tenant, v := range map[string]string{tenantF1: "95", tenantHO: "40"} {
		require.NoError(t, env.store.Values.Upsert(ctx, &entity.TenantMetric{TenantID: tenant, MetricID: out.ID, ReportingPeriod: period, NumericValue: decp(v), SourceType: entity.MappingDirect}))
	}

	all, err := env.uc.TenantMetrics(ctx, env.admin, dto.TenantMetricListRequest{MetricID: out.ID})
	require.NoError(t, err)
	require.Len(t, all, 2)
	status := map[string]string{}
	for _, m := range all {
		status[m.TenantID] = m.Status
	}
	assert.Equal(t, metrics.KPIGreen, status[tenantF1])
	assert.Equal(t, metrics.KPIRed, status[tenantHO])

	local, err := env.uc.TenantMetrics(ctx, env.local, dto.TenantMetricListRequest{})
	require.NoError(t, err)
	require.Len(t, local, 1)
	assert.Equal(t, tenantF1, local[0].TenantID)

	_, err = env.uc.TenantMetrics(ctx, env.local, dto.TenantMetricListRequest{TenantID: tenantHO})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestMetricRecalculate_VerificaAcceso(t *testing.T) {
	env := newMetricEnv(t)
	ctx := context.Background()
	submitted := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	own := &entity.FormSubmission{TemplateID: env.tpl.ID, TenantID: strp(tenantF1), ReportingYear: 2025, ReportingMonth: 3, Status: entity.SubmissionSubmitted, SubmittedAt: &submitted}
	require.NoError(t, env.store.Submissions.Create(ctx, own))
	other := &entity.FormSubmission{TemplateID: env.tpl.ID, TenantID: strp(tenantHO), ReportingYear: 2025, ReportingMonth: 3, Status: entity.SubmissionSubmitted, SubmittedAt: &submitted}
	require.NoError(t, env.store.Submissions.Create(ctx, other))

	require.NoError(t, env.uc.Recalculate(ctx, env.local, own.ID))
	assert.ErrorIs(t, env.uc.Recalculate(ctx, env.local, other.ID), domain.ErrForbidden)
	assert.ErrorIs(t, env.uc.Recalculate(ctx, env.admin, "no-existe"), domain.ErrNotFound)
	assert.Equal(t, []string{own.ID}, env.recal.ids)

	logs, err := env.uc.PopulationLogs(ctx, env.local, own.ID)
	require.NoError(t, err)
	assert.Empty(t, logs)
}
