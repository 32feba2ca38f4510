package postgres

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/jhoicas/form-reporting-api/internal/domain/repository"
)

func strp(s string) *string { return &s }

func TestBuildReportQuery_MetricaPorMesDeEnvio(t *testing.T) {
	def := &entity.ReportDefinition{
		TemplateID: strp("tpl-1"),
		Fields: []entity.ReportField{
			{ColumnRef: entity.ColumnRef{SourceType: entity.ColumnSystem, SystemFieldName: entity.SysTenantName}, IsVisible: true, DisplayOrder: 1},
			{ColumnRef: entity.ColumnRef{SourceType: entity.ColumnMetric, MetricID: strp("met-1")}, IsVisible: true, DisplayOrder: 2},
		},
	}

	q, err := buildReportQuery(repository.ReportQuery{Definition: def, TenantIDs: []string{"t1"}, MaxRows: 10})
	require.NoError(t, err)

	assert.Contains(t, q.sql, "m0.reporting_period = date_trunc('month', fs.submitted_at)::date")
	assert.NotContains(t, q.sql, "make_date")
	assert.Contains(t, q.sql, "LIMIT 11")
	assert.Contains(t, q.args, "met-1")
	assert.Contains(t, q.args, "tpl-1")
	require.Len(t, q.outs, 2)
	assert.Equal(t, "c1_t", q.outs[1].fallback)
}

func TestBuildReportQuery_MetricaRepetidaUnSoloJoin(t *testing.T) {
	ref := entity.ColumnRef{SourceType: entity.ColumnMetric, MetricID: strp("met-1")}
	def := &entity.ReportDefinition{
		Fields:  []entity.ReportField{{ColumnRef: ref, IsVisible: true}},
		Filters: []entity.ReportFilter{{ColumnRef: ref, Operator: entity.OpGreaterThan, FilterValue: "5"}},
	}

	q, err := buildReportQuery(repository.ReportQuery{Definition: def})
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(q.sql, "LEFT JOIN tenant_metrics"))
	assert.Contains(t, q.sql, "m0.numeric_value > $")
}

func TestBuildReportQuery_SinCamposVisibles(t *testing.T) {
	def := &entity.ReportDefinition{Fields: []entity.ReportField{
		{ColumnRef: entity.ColumnRef{SourceType: entity.ColumnSystem, SystemFieldName: entity.SysTenantName}},
	}}
	_, err := buildReportQuery(repository.ReportQuery{Definition: def})
	assert.Error(t, err)
}
