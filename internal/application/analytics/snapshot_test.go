package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jhoicas/form-reporting-api/internal/application/dto"
	"github.com/jhoicas/form-reporting-api/internal/domain"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSnapshots(t *testing.T, f *fixture) *SnapshotService {
	t.Helper()
	s := f.store
	ctx := context.Background()
	require.NoError(t, s.Metrics.Create(ctx, &entity.MetricDefinition{ID: "m-horas", MetricCode: "HORAS", MetricName: "Horas"}))
	require.NoError(t, s.Values.Upsert(ctx, &entity.TenantMetric{
		TenantID:        tenantHO,
		MetricID:        "m-horas",
		ReportingPeriod: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		NumericValue:    dec("12"),
	}))
	require.NoError(t, s.Values.Upsert(ctx, &entity.TenantMetric{
		TenantID:        tenantHO,
		MetricID:        "m-texto",
		ReportingPeriod: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		TextValue:       "n/a",
	}))
	svc := NewSnapshotService(s.Tenants, s.Regions, s.Templates, s.Submissions, s.Values, s.Analytics, s.Snapshots, f.scope)
	svc.now = func() time.Time { return time.Date(2025, 4, 2, 8, 0, 0, 0, time.UTC) }
	return svc
}

func TestSnapshotRange(t *testing.T) {
	date := time.Date(2025, 3, 10, 15, 30, 0, 0, time.UTC)

	from, to := SnapshotRange(date, entity.SnapshotDaily)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), to)

	from, to = SnapshotRange(date, entity.SnapshotMonthly)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), to)
}

func TestTenantSnapshot_ConteosMetricasYPuntaje(t *testing.T) {
	f := newFixture(t)
	svc := newSnapshots(t, f)
	ctx := context.Background()

	snap, err := svc.TenantSnapshot(ctx, tenantHO, day, entity.SnapshotDaily, "admin")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), snap.SnapshotDate)
	assert.Equal(t, 2, snap.TotalSubmissions)
	assert.Equal(t, 1, snap.ApprovedSubmissions)
	assert.Equal(t, 0, snap.PendingSubmissions)
	require.NotNil(t, snap.ComplianceScore)
	assert.True(t, snap.ComplianceScore.Equal(decimal.NewFromInt(90)))
	assert.Equal(t, map[string]decimal.Decimal{"HORAS": decimal.NewFromInt(12)}, snap.MetricsData)
	assert.Equal(t, "admin", snap.GeneratedBy)

	again, err := svc.TenantSnapshot(ctx, tenantHO, day, entity.SnapshotDaily, "admin")
	require.NoError(t, err)
	assert.Equal(t, snap.ID, again.ID)
	assert.Len(t, f.store.Snapshots.Tenant, 1)

	f1, err := svc.TenantSnapshot(ctx, tenantF1, day, entity.SnapshotMonthly, "admin")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), f1.SnapshotDate)
	assert.Equal(t, 1, f1.PendingSubmissions)
	assert.True(t, f1.ComplianceScore.Equal(decimal.NewFromInt(40)))
	assert.Empty(t, f1.MetricsData)
}

func TestTenantSnapshot_SinEnviosSinPuntaje(t *testing.T) {
	f := newFixture(t)
	svc := newSnapshots(t, f)

	snap, err := svc.TenantSnapshot(context.Background(), tenantHO, day.AddDate(0, 1, 0), "Semanal", "admin")
	require.NoError(t, err)
	assert.Equal(t, entity.SnapshotDaily, snap.SnapshotType)
	assert.Zero(t, snap.TotalSubmissions)
	assert.Nil(t, snap.ComplianceScore)
}

func TestGenerateTenantSnapshots_UnFalloNoDetieneAlResto(t *testing.T) {
	f := newFixture(t)
	svc := newSnapshots(t, f)
	ctx := context.Background()

	generated, failed, err := svc.GenerateTenantSnapshots(ctx, day, entity.SnapshotDaily, "admin")
	require.NoError(t, err)
	assert.Equal(t, 2, generated)
	assert.Zero(t, failed)

	f.store.Analytics.Err = errors.New("timeout")
	generated, failed, err = svc.GenerateTenantSnapshots(ctx, day, entity.SnapshotDaily, "admin")
	require.NoError(t, err)
	assert.Zero(t, generated)
	assert.Equal(t, 2, failed)
}

func TestRegionalSnapshot_ConsolidaTenantsDeLaRegion(t *testing.T) {
	f := newFixture(t)
	svc := newSnapshots(t, f)

	snap, err := svc.RegionalSnapshot(context.Background(), regionNorte, day)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), snap.YearMonth)
	assert.Equal(t, 1, snap.TotalTenants)
	assert.Equal(t, 1, snap.ReportingTenants)
	assert.Equal(t, 2, snap.TotalSubmissions)
	require.NotNil(t, snap.AvgComplianceScore)
	assert.True(t, snap.AvgComplianceScore.Equal(decimal.NewFromInt(90)))
}

func TestGenerate_CorridaCompleta(t *testing.T) {
	f := newFixture(t)
	svc := newSnapshots(t, f)
	ctx := context.Background()

	out, err := svc.Generate(ctx, f.admin, dto.GenerateSnapshotsRequest{Date: "2025-03-10", SnapshotType: entity.SnapshotMonthly, Regional: true})
	require.NoError(t, err)
	assert.Equal(t, "2025-03-01", out.SnapshotDate)
	assert.Equal(t, 2, out.Generated)
	assert.Equal(t, 2, out.Regions)
	assert.Len(t, f.store.Snapshots.Regional, 2)

	out, err = svc.Generate(ctx, f.admin, dto.GenerateSnapshotsRequest{})
	require.NoError(t, err)
	assert.Equal(t, "2025-04-02", out.SnapshotDate)
	assert.Equal(t, entity.SnapshotDaily, out.SnapshotType)
	assert.Zero(t, out.Regions)

	_, err = svc.Generate(ctx, f.admin, dto.GenerateSnapshotsRequest{Date: "10-03-2025"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSnapshotConsultas_RespetanAlcance(t *testing.T) {
	f := newFixture(t)
	svc := newSnapshots(t, f)
	ctx := context.Background()
	_, err := svc.Generate(ctx, f.admin, dto.GenerateSnapshotsRequest{Date: "2025-03-10", SnapshotType: entity.SnapshotMonthly, Regional: true})
	require.NoError(t, err)

	_, err = svc.TenantSnapshots(ctx, f.local, tenantHO, dto.SnapshotRangeRequest{})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	items, err := svc.TenantSnapshots(ctx, f.local, tenantF1, dto.SnapshotRangeRequest{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "2025-03-01", items[0].SnapshotDate)

	items, err = svc.TenantSnapshots(ctx, f.local, tenantF1, dto.SnapshotRangeRequest{From: "2025-03-02", To: "2025-03-31"})
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = svc.RegionalSnapshots(ctx, f.local, regionNorte, dto.SnapshotRangeRequest{})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	regional, err := svc.RegionalSnapshots(ctx, f.local, regionSur, dto.SnapshotRangeRequest{})
	require.NoError(t, err)
	require.Len(t, regional, 1)
	assert.Equal(t, "2025-03", regional[0].YearMonth)

	regional, err = svc.RegionalSnapshots(ctx, f.admin, regionNorte, dto.SnapshotRangeRequest{})
	require.NoError(t, err)
	assert.Len(t, regional, 1)

	_, err = svc.TenantSnapshots(ctx, f.admin, tenantHO, dto.SnapshotRangeRequest{From: "2025-05-01", To: "2025-04-01"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
