package population_test

import (
	"context"
	"testing"
	"time"

	"github.com/jhoicas/form-reporting-api/internal/application/apptest"
	"github.com/jhoicas/form-reporting-api/internal/application/population"
	"github.com/jhoicas/form-reporting-api/internal/domain"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tenantID = "44444444-4444-4444-4444-444444444444"

func strp(s string) *string { return &s }

func decp(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

type scenario struct {
	store      *apptest.Store
	engine     *population.Engine
	submission string
	metric     map[string]string // código → ID
}

func newScenario(t *testing.T, tenant *string) *scenario {
	t.Helper()
	ctx := context.Background()
	s := apptest.NewStore()
	sc := &scenario{store: s, metric: map[string]string{}}
	sc.engine = population.NewEngine(s.Submissions, s.Mappings, s.Metrics, s.Values)

	tpl := &entity.FormTemplate{TemplateCode: "OPS", TemplateName: "Operación", Version: 1, PublishStatus: entity.PublishPublished, IsActive: true}
	require.NoError(t, s.Templates.Create(ctx, tpl))
	sec := &entity.FormSection{TemplateID: tpl.ID, SectionName: "Equipos", Weight: decimal.NewFromInt(1), IsActive: true}
	require.NoError(t, s.Templates.CreateSection(ctx, sec))
	item := func(code, dataType string) string {
		it := &entity.FormItem{TemplateID: tpl.ID, SectionID: sec.ID, ItemCode: code, ItemName: code, DataType: dataType, Weight: decimal.NewFromInt(1), IsActive: true}
		require.NoError(t, s.Templates.CreateItem(ctx, it))
		return it.ID
	}
	total, working, backup := item("TOTAL", entity.DataTypeNumber), item("WORKING", entity.DataTypeNumber), item("BACKUP", entity.DataTypeBoolean)

	for code, dataType := range map[string]string{"PCS": entity.MetricCount, "UPTIME": entity.MetricPercentage, "BACKUP": entity.MetricPercentage, "BROKEN": entity.MetricDecimal, "EQUIP": entity.MetricPercentage, "SITE": entity.MetricPercentage} {
		m := &entity.MetricDefinition{MetricCode: code, MetricName: code, DataType: dataType, IsActive: true}
		require.NoError(t, s.Metrics.Create(ctx, m))
		sc.metric[code] = m.ID
	}

	mapping := func(itemID, metric, mappingType, logic string) string {
		m := &entity.FormItemMetricMapping{ItemID: itemID, MetricID: sc.metric[metric], MappingType: mappingType, TransformationLogic: logic, IsActive: true}
		require.NoError(t, s.Mappings.CreateItemMapping(ctx, m))
		return m.ID
	}
	mapping(total, "PCS", entity.MappingDirect, "")
	uptime := mapping(working, "UPTIME", entity.MappingCalculated, `{"formula":"w / t * 100","itemAliases":{"w":"`+working+`","t":"`+total+`"},"roundTo":2}`)
	compliance := mapping(backup, "BACKUP", entity.MappingBinaryCompliance, "")
	mapping(working, "BROKEN", entity.MappingCalculated, `{"formula":"w / x","itemAliases":{"w":"`+working+`","x":"no-existe"}}`)

	secMapping := &entity.FormSectionMetricMapping{
		SectionID: sec.ID, MetricID: sc.metric["EQUIP"], MappingName: "equipos", MappingType: entity.RollupAggregated,
		AggregationType: entity.RollupAvg, IsActive: true,
		Sources: []entity.FormSectionMetricSource{{ItemMappingID: uptime}, {ItemMappingID: compliance}},
	}
	require.NoError(t, s.Mappings.CreateSectionMapping(ctx, secMapping))
	require.NoError(t, s.Mappings.CreateTemplateMapping(ctx, &entity.FormTemplateMetricMapping{
		TemplateID: tpl.ID, MetricID: sc.metric["SITE"], MappingName: "sitio", MappingType: entity.RollupAggregated,
		AggregationType: entity.RollupWeightedAverage, IsActive: true,
		Sources: []entity.FormTemplateMetricSource{{SectionMappingID: secMapping.ID, Weight: decp("2")}},
	}))

	submitted := time.Date(2025, 3, 17, 10, 0, 0, 0, time.UTC)
	sub := &entity.FormSubmission{TemplateID: tpl.ID, TenantID: tenant, ReportingYear: 2025, ReportingMonth: 3, Status: entity.SubmissionSubmitted, SubmittedAt: &submitted}
	require.NoError(t, s.Submissions.Create(ctx, sub))
	sc.submission = sub.ID
	yes := true
	for _, r := range []*entity.FormResponse{
		{SubmissionID: sub.ID, ItemID: total, NumericValue: decp("40")},
		{SubmissionID: sub.ID, ItemID: working, NumericValue: decp("30")},
		{SubmissionID: sub.ID, ItemID: backup, BooleanValue: &yes},
	} {
		require.NoError(t, s.Submissions.UpsertResponse(ctx, r))
	}
	return sc
}

func (sc *scenario) value(t *testing.T, code string) *entity.TenantMetric {
	t.Helper()
	m, err := sc.store.Values.Get(context.Background(), tenantID, sc.metric[code], time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return m
}

func TestPopulateSubmission_CamposYRollups(t *testing.T) {
	sc := newScenario(t, strp(tenantID))
	require.NoError(t, sc.engine.PopulateSubmission(context.Background(), sc.submission))

	pcs := sc.value(t, "PCS")
	require.NotNil(t, pcs)
	assert.Equal(t, "40", pcs.NumericValue.String())
	assert.Equal(t, "40", pcs.TextValue)
	assert.Equal(t, entity.MappingDirect, pcs.SourceType)
	assert.Equal(t, sc.submission, pcs.SourceReferenceID)

	uptime := sc.value(t, "UPTIME")
	require.NotNil(t, uptime)
	assert.Equal(t, "75.00%", uptime.TextValue)

	backup := sc.value(t, "BACKUP")
	require.NotNil(t, backup)
	assert.Equal(t, "100", backup.NumericValue.String())

	assert.Nil(t, sc.value(t, "BROKEN"), "la fórmula sin valor no se guarda")

	equip := sc.value(t, "EQUIP")
	require.NotNil(t, equip)
	assert.Equal(t, "87.5", equip.NumericValue.String())
	site := sc.value(t, "SITE")
	require.NotNil(t, site)
	assert.Equal(t, "87.5", site.NumericValue.String())
}

func TestPopulateSubmission_TrazaPorMapeo(t *testing.T) {
	sc := newScenario(t, strp(tenantID))
	ctx := context.Background()
	require.NoError(t, sc.engine.PopulateSubmission(ctx, sc.submission))

	logs, err := sc.store.Values.ListLogs(ctx, sc.submission)
	require.NoError(t, err)
	require.Len(t, logs, 6)
	statuses := map[string]int{}
	for _, l := range logs {
		statuses[l.Status]++
		if l.Status == entity.PopulationFailed {
			assert.Equal(t, sc.metric["BROKEN"], l.MetricID)
			assert.NotEmpty(t, l.ErrorMessage)
			assert.Equal(t, "w / x", l.CalculationFormula)
		}
	}
	assert.Equal(t, 5, statuses[entity.PopulationSuccess])
	assert.Equal(t, 1, statuses[entity.PopulationFailed])

	require.NoError(t, sc.engine.Recalculate(ctx, sc.submission))
	logs, err = sc.store.Values.ListLogs(ctx, sc.submission)
	require.NoError(t, err)
	assert.Len(t, logs, 6, "recalcular reemplaza las trazas")
	assert.Len(t, sc.store.Values.Items, 5, "upsert por (tenant, métrica, período)")
}

func TestPopulateSubmission_SinTenantSeOmite(t *testing.T) {
	sc := newScenario(t, nil)
	ctx := context.Background()
	require.NoError(t, sc.engine.PopulateSubmission(ctx, sc.submission))
	assert.Empty(t, sc.store.Values.Items)
	assert.Empty(t, sc.store.Values.Logs)
}

func TestPopulateSubmission_EnvioInexistente(t *testing.T) {
	sc := newScenario(t, strp(tenantID))
	err := sc.engine.PopulateSubmission(context.Background(), "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
