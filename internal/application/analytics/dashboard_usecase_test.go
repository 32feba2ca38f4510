package analytics

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jhoicas/form-reporting-api/internal/application/dto"
	"github.com/jhoicas/form-reporting-api/internal/domain"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/jhoicas/form-reporting-api/internal/domain/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDashboards(f *fixture, extra ...Provider) *DashboardUseCase {
	s := f.store
	providers := append(extra,
		NewFormProvider(s.Analytics, s.Submissions, s.Templates),
		NewScoringProvider(s.Templates, s.Submissions),
		NewOrganizationProvider(s.Analytics, s.Regions, s.Tenants, s.Snapshots),
	)
	return NewDashboardUseCase(DefaultRegistry(), providers, f.scope, s.Tenants, s.Templates)
}

func widgetOf(t *testing.T, d *dto.DashboardResponse, key string) dto.WidgetResponse {
	t.Helper()
	for _, w := range d.Widgets {
		if w.Key == key {
			return w
		}
	}
	t.Fatalf("widget %s no encontrado", key)
	return dto.WidgetResponse{}
}

func card(t *testing.T, w dto.WidgetResponse) dto.StatCardData {
	t.Helper()
	require.Equal(t, StatusSuccess, w.Status, w.ErrorMessage)
	c, ok := w.Data.(dto.StatCardData)
	require.True(t, ok, "data %T", w.Data)
	return c
}

type panicProvider struct{}

func (panicProvider) Key() string        { return "panic" }
func (panicProvider) Supports() []string { return []string{"form-template-count"} }
func (panicProvider) Data(context.Context, string, WidgetQuery) (any, error) {
	panic("boom")
}

// concurrencyProvider registra cuántas llamadas corren a la vez.
type concurrencyProvider struct {
	keys    []string
	current atomic.Int32
	peak    atomic.Int32
}

func (p *concurrencyProvider) Key() string        { return "concurrency" }
func (p *concurrencyProvider) Supports() []string { return p.keys }
func (p *concurrencyProvider) Data(context.Context, string, WidgetQuery) (any, error) {
	n := p.current.Add(1)
	defer p.current.Add(-1)
	for {
		peak := p.peak.Load()
		if n <= peak || p.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	time.Sleep(20 * time.Millisecond)
	return nil, nil
}

func TestDashboardGet_LimitaProveedoresConcurrentes(t *testing.T) {
	f := newFixture(t)
	d, ok := DefaultRegistry().Get("Form-Statistics")
	require.True(t, ok)
	p := &concurrencyProvider{}
	for _, w := range d.Widgets {
		p.keys = append(p.keys, w.Key)
	}
	uc := newDashboards(f, p)
	uc.parallel = 2

	out, err := uc.Get(context.Background(), f.admin, "Form-Statistics", dto.DashboardFilter{ContextID: templateID})
	require.NoError(t, err)
	assert.Len(t, out.Widgets, len(d.Widgets))
	assert.LessOrEqual(t, p.peak.Load(), int32(2))
	assert.Positive(t, p.peak.Load())
}

func TestDashboardGet_EstadisticasDeFormulario(t *testing.T) {
	f := newFixture(t)
	uc := newDashboards(f)

	d, err := uc.Get(context.Background(), f.admin, "Form-Statistics", dto.DashboardFilter{ContextID: templateID})
	require.NoError(t, err)
	assert.Equal(t, "form-statistics", d.Key)
	assert.Equal(t, templateID, d.ContextID)
	require.Len(t, d.Widgets, 8)
	for i, w := range d.Widgets {
		assert.Equal(t, i+1, w.Order)
	}
	assert.Equal(t, 3, d.Widgets[0].ColSpan)

	assert.Equal(t, "1", card(t, widgetOf(t, d, "form-template-count")).Value)
	assert.Equal(t, "4", card(t, widgetOf(t, d, "form-submission-count")).Value)
	rate := card(t, widgetOf(t, d, "form-completion-rate"))
	assert.Equal(t, "50.0%", rate.Value)
	assert.Equal(t, "warning", rate.IconColor)
	assert.Equal(t, "1", card(t, widgetOf(t, d, "form-pending-count")).Value)

	trend := widgetOf(t, d, "form-submissions-trend").Data.(dto.ChartData)
	assert.Equal(t, []string{"2025-02", "2025-03"}, trend.Labels)

	byStatus := widgetOf(t, d, "form-submissions-by-status").Data.(dto.ChartData)
	assert.Equal(t, []string{entity.SubmissionDraft, entity.SubmissionSubmitted, entity.SubmissionApproved, entity.SubmissionRejected}, byStatus.Labels)

	byTenant := widgetOf(t, d, "form-submissions-by-tenant").Data.(dto.ChartData)
	require.Len(t, byTenant.Datasets, 2)
	assert.Equal(t, []string{"Casa Matriz", "Fábrica Uno"}, byTenant.Labels)
	assert.True(t, byTenant.Datasets[1].Data[0].Equal(decimal.NewFromInt(1)))

	recent := widgetOf(t, d, "form-recent-submissions").Data.(dto.TableData)
	assert.Len(t, recent.Rows, 4)
}

func TestDashboardGet_RecortaPorAlcance(t *testing.T) {
	f := newFixture(t)
	uc := newDashboards(f)
	ctx := context.Background()

	d, err := uc.Get(ctx, f.local, "form-statistics", dto.DashboardFilter{})
	require.NoError(t, err)
	assert.Equal(t, "2", card(t, widgetOf(t, d, "form-submission-count")).Value)
	assert.Equal(t, []string{"Fábrica Uno"}, widgetOf(t, d, "form-submissions-by-tenant").Data.(dto.ChartData).Labels)

	_, err = uc.Get(ctx, f.local, "form-statistics", dto.DashboardFilter{TenantID: tenantHO})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = uc.Get(ctx, f.local, "organization-overview", dto.DashboardFilter{ContextType: ContextTenant, ContextID: tenantHO})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestDashboardGet_ContextoRegionIntersectaAlcance(t *testing.T) {
	f := newFixture(t)
	uc := newDashboards(f)

	d, err := uc.Get(context.Background(), f.local, "form-statistics", dto.DashboardFilter{ContextType: ContextRegion, ContextID: regionNorte})
	require.NoError(t, err)
	w := widgetOf(t, d, "form-submission-count")
	assert.Equal(t, "0", card(t, w).Value)
	assert.Equal(t, StatusEmpty, widgetOf(t, d, "form-recent-submissions").Status)
}

func TestDashboardGet_FiltroDeFechasYTendencia(t *testing.T) {
	f := newFixture(t)
	uc := newDashboards(f)
	ctx := context.Background()

	d, err := uc.Get(ctx, f.admin, "form-statistics", dto.DashboardFilter{From: "2025-03-10", To: "2025-03-10"})
	require.NoError(t, err)
	c := card(t, widgetOf(t, d, "form-submission-count"))
	assert.Equal(t, "4", c.Value)
	assert.Nil(t, c.TrendValue)

	d, err = uc.Get(ctx, f.admin, "form-statistics", dto.DashboardFilter{From: "2025-03-11", To: "2025-03-31"})
	require.NoError(t, err)
	assert.Equal(t, "0", card(t, widgetOf(t, d, "form-submission-count")).Value)
	assert.Equal(t, StatusEmpty, widgetOf(t, d, "form-submissions-by-status").Status)

	_, err = uc.Get(ctx, f.admin, "form-statistics", dto.DashboardFilter{From: "10/03/2025"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = uc.Get(ctx, f.admin, "form-statistics", dto.DashboardFilter{From: "2025-04-01", To: "2025-03-01"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDashboardGet_ErroresQuedanEnElWidget(t *testing.T) {
	f := newFixture(t)
	f.store.Analytics.Err = errors.New("db caída")
	uc := newDashboards(f, panicProvider{})

	d, err := uc.Get(context.Background(), f.admin, "form-statistics", dto.DashboardFilter{})
	require.NoError(t, err)

	failed := widgetOf(t, d, "form-submission-count")
	assert.Equal(t, StatusError, failed.Status)
	assert.Equal(t, widgetErrorMessage, failed.ErrorMessage)
	assert.Nil(t, failed.Data)

	panicked := widgetOf(t, d, "form-template-count")
	assert.Equal(t, StatusError, panicked.Status)

	assert.Equal(t, StatusSuccess, widgetOf(t, d, "form-recent-submissions").Status)
}

func TestDashboardGet_NoExiste(t *testing.T) {
	f := newFixture(t)
	_, err := newDashboards(f).Get(context.Background(), f.admin, "ventas", dto.DashboardFilter{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDashboardGet_Puntajes(t *testing.T) {
	f := newFixture(t)
	uc := newDashboards(f)
	ctx := context.Background()

	d, err := uc.Get(ctx, f.admin, "form-scoring", dto.DashboardFilter{})
	require.NoError(t, err)
	for _, w := range d.Widgets {
		assert.Equal(t, StatusEmpty, w.Status, w.Key)
	}

	d, err = uc.Get(ctx, f.admin, "form-scoring", dto.DashboardFilter{ContextID: templateID})
	require.NoError(t, err)

	gauge := widgetOf(t, d, "score-average").Data.(dto.GaugeData)
	assert.Equal(t, "65", gauge.Value.String())
	assert.Equal(t, "warning", gauge.Color)

	dist := widgetOf(t, d, "score-distribution").Data.(dto.ChartData)
	require.Len(t, dist.Datasets[0].Data, 3)
	assert.Equal(t, "1", dist.Datasets[0].Data[0].String())
	assert.Equal(t, "0", dist.Datasets[0].Data[1].String())
	assert.Equal(t, "1", dist.Datasets[0].Data[2].String())

	byTenant := widgetOf(t, d, "score-by-tenant").Data.(dto.ChartData)
	assert.Equal(t, []string{"Casa Matriz", "Fábrica Uno"}, byTenant.Labels)

	bySection := widgetOf(t, d, "score-by-section").Data.(dto.ChartData)
	assert.Equal(t, []string{"Seguridad"}, bySection.Labels)

	stats := widgetOf(t, d, "score-item-stats").Data.(dto.TableData)
	require.Len(t, stats.Rows, 1)
	assert.Equal(t, 2, stats.Rows[0]["responses"])

	local, err := uc.Get(ctx, f.local, "form-scoring", dto.DashboardFilter{ContextID: templateID})
	require.NoError(t, err)
	assert.Equal(t, "40", widgetOf(t, local, "score-average").Data.(dto.GaugeData).Value.String())
}

func TestDashboardGet_Organizacion(t *testing.T) {
	f := newFixture(t)
	f.store.Analytics.Org = repository.OrganizationCounts{Regions: 2, Tenants: 2, Departments: 5, Users: 12000}
	month := time.Date(time.Now().Year(), time.Now().Month(), 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, f.store.Snapshots.UpsertRegionalSnapshot(context.Background(), &entity.RegionalMonthlySnapshot{
		RegionID: regionNorte, YearMonth: month, TotalTenants: 1, AvgComplianceScore: dec("81.25"),
	}))
	uc := newDashboards(f)

	d, err := uc.Get(context.Background(), f.admin, "organization-overview", dto.DashboardFilter{})
	require.NoError(t, err)
	assert.Equal(t, "5", card(t, widgetOf(t, d, "org-department-count")).Value)
	assert.Equal(t, "12.000", card(t, widgetOf(t, d, "org-user-count")).Value)

	types := widgetOf(t, d, "org-tenants-by-type").Data.(dto.ChartData)
	assert.Equal(t, []string{entity.TenantFactory, entity.TenantHeadOffice}, types.Labels)

	compliance := widgetOf(t, d, "org-compliance-by-region").Data.(dto.ChartData)
	assert.Equal(t, []string{"Norte"}, compliance.Labels)
	assert.Equal(t, "81.3", compliance.Datasets[0].Data[0].String())

	local, err := uc.Get(context.Background(), f.local, "organization-overview", dto.DashboardFilter{})
	require.NoError(t, err)
	assert.Equal(t, StatusEmpty, widgetOf(t, local, "org-compliance-by-region").Status)
}

func TestDashboardWidget_Suelto(t *testing.T) {
	f := newFixture(t)
	uc := newDashboards(f)
	ctx := context.Background()

	w, err := uc.Widget(ctx, f.admin, "FORM-PENDING-COUNT", dto.DashboardFilter{})
	require.NoError(t, err)
	assert.Equal(t, "form-pending-count", w.Key)
	assert.Equal(t, "1", card(t, *w).Value)

	_, err = uc.Widget(ctx, f.admin, "no-existe", dto.DashboardFilter{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDashboardContextOptions(t *testing.T) {
	f := newFixture(t)
	uc := newDashboards(f)
	ctx := context.Background()

	opts, err := uc.ContextOptions(ctx, f.local, ContextTenant)
	require.NoError(t, err)
	require.Len(t, opts, 1)
	assert.Equal(t, tenantF1, opts[0].ID)

	opts, err = uc.ContextOptions(ctx, f.admin, ContextRegion)
	require.NoError(t, err)
	assert.Len(t, opts, 2)

	opts, err = uc.ContextOptions(ctx, f.admin, ContextFormTemplate)
	require.NoError(t, err)
	require.Len(t, opts, 1)
	assert.Equal(t, "AUD", opts[0].Group)

	opts, err = uc.ContextOptions(ctx, f.admin, ContextNone)
	require.NoError(t, err)
	assert.Empty(t, opts)

	_, err = uc.ContextOptions(ctx, f.admin, "Planeta")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDashboardList(t *testing.T) {
	f := newFixture(t)
	list := newDashboards(f).List()
	require.Len(t, list, 3)
	assert.Equal(t, "form-statistics", list[0].Key)
	assert.Equal(t, ContextRegion, list[2].ContextType)
}
