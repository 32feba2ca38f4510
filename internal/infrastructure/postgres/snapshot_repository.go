package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/jhoicas/form-reporting-api/internal/domain/repository"
)

var _ repository.SnapshotRepository = (*SnapshotRepo)(nil)

// SnapshotRepo upserts idempotentes por clave natural.
type SnapshotRepo struct {
	q Querier
}

func NewSnapshotRepository(q Querier) *SnapshotRepo {
	return &SnapshotRepo{q: q}
}

// UpsertTenantSnapshot reemplaza la foto de (tenant, fecha, tipo) e incrementa data_version.
func (r *SnapshotRepo) UpsertTenantSnapshot(ctx context.Context, s *entity.TenantPerformanceSnapshot) error {
	ensureID(&s.ID)
	stamp(&s.GeneratedAt)
	data, err := json.Marshal(s.MetricsData)
	if err != nil {
		return fmt.Errorf("upsert tenant snapshot: metrics_data: %w", err)
	}
	row := r.q.QueryRow(ctx, `
		INSERT INTO tenant_performance_snapshots (id, tenant_id, snapshot_date, snapshot_type, metrics_data,
			total_submissions, approved_submissions, pending_submissions, compliance_score, generated_at, generated_by, data_version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 1)
		ON CONFLICT (tenant_id, snapshot_date, snapshot_type) DO UPDATE SET
			metrics_data = EXCLUDED.metrics_data,
			total_submissions = EXCLUDED.total_submissions,
			approved_submissions = EXCLUDED.approved_submissions,
			pending_submissions = EXCLUDED.pending_submissions,
			compliance_score = EXCLUDED.compliance_score,
			generated_at = EXCLUDED.generated_at,
			generated_by = EXCLUDED.generated_by,
			data_version = tenant_performance_snapshots.data_version + 1
		RETURNING id, data_version`,
		s.ID, s.TenantID, s.SnapshotDate, s.SnapshotType, data,
		s.TotalSubmissions, s.ApprovedSubmissions, s.PendingSubmissions, s.ComplianceScore, s.GeneratedAt, s.GeneratedBy)
	if err := row.Scan(&s.ID, &s.DataVersion); err != nil {
		return wrapErr("upsert tenant snapshot", err)
	}
	return nil
}

func (r *SnapshotRepo) UpsertRegionalSnapshot(ctx context.Context, s *entity.RegionalMonthlySnapshot) error {
	ensureID(&s.ID)
	stamp(&s.LastUpdated)
	row := r.q.QueryRow(ctx, `
		INSERT INTO regional_monthly_snapshots (id, region_id, year_month, total_tenants, reporting_tenants,
			total_submissions, avg_compliance_score, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (region_id, year_month) DO UPDATE SET
			total_tenants = EXCLUDED.total_tenants,
			reporting_tenants = EXCLUDED.reporting_tenants,
			total_submissions = EXCLUDED.total_submissions,
			avg_compliance_score = EXCLUDED.avg_compliance_score,
			last_updated = EXCLUDED.last_updated
		RETURNING id`,
		s.ID, s.RegionID, s.YearMonth, s.TotalTenants, s.ReportingTenants,
		s.TotalSubmissions, s.AvgComplianceScore, s.LastUpdated)
	if err := row.Scan(&s.ID); err != nil {
		return wrapErr("upsert regional snapshot", err)
	}
	return nil
}

// ListTenantSnapshots rango inclusivo en ambos extremos, en orden cronológico.
func (r *SnapshotRepo) ListTenantSnapshots(ctx context.Context, tenantID string, from, to time.Time) ([]*entity.TenantPerformanceSnapshot, error) {
	b := builder().
		Select("id", "tenant_id", "snapshot_date", "snapshot_type", "metrics_data", "total_submissions",
			"approved_submissions", "pending_submissions", "compliance_score", "generated_at", "generated_by", "data_version").
		From("tenant_performance_snapshots").
		Where(sq.Eq{"tenant_id": tenantID}).
		Where(sq.GtOrEq{"snapshot_date": from}).
		Where(sq.LtOrEq{"snapshot_date": to}).
		OrderBy("snapshot_date", "snapshot_type")
	return selectAll(ctx, r.q, "list tenant snapshots", b, func(s scanner) (*entity.TenantPerformanceSnapshot, error) {
		var x entity.TenantPerformanceSnapshot
		var data []byte
		err := s.Scan(&x.ID, &x.TenantID, &x.SnapshotDate, &x.SnapshotType, &data, &x.TotalSubmissions,
			&x.ApprovedSubmissions, &x.PendingSubmissions, &x.ComplianceScore, &x.GeneratedAt, &x.GeneratedBy, &x.DataVersion)
		if err != nil {
			return nil, err
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &x.MetricsData); err != nil {
				return nil, fmt.Errorf("metrics_data: %w", err)
			}
		}
		return &x, nil
	})
}

func (r *SnapshotRepo) ListRegionalSnapshots(ctx context.Context, regionID string, from, to time.Time) ([]*entity.RegionalMonthlySnapshot, error) {
	b := builder().
		Select("id", "region_id", "year_month", "total_tenants", "reporting_tenants", "total_submissions",
			"avg_compliance_score", "last_updated").
		From("regional_monthly_snapshots").
		Where(sq.Eq{"region_id": regionID}).
		Where(sq.GtOrEq{"year_month": from}).
		Where(sq.LtOrEq{"year_month": to}).
		OrderBy("year_month")
	return selectAll(ctx, r.q, "list regional snapshots", b, func(s scanner) (*entity.RegionalMonthlySnapshot, error) {
		var x entity.RegionalMonthlySnapshot
		err := s.Scan(&x.ID, &x.RegionID, &x.YearMonth, &x.TotalTenants, &x.ReportingTenants, &x.TotalSubmissions,
			&x.AvgComplianceScore, &x.LastUpdated)
		return &x, err
	})
}
