package postgres

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/jhoicas/form-reporting-api/internal/domain/repository"
)

var _ repository.AnalyticsRepository = (*AnalyticsRepo)(nil)

// AnalyticsRepo consultas de solo lectura para tableros y snapshots.
type AnalyticsRepo struct {
	q Querier
}

// NewAnalyticsRepository construye el adaptador de analítica.
func NewAnalyticsRepository(q Querier) *AnalyticsRepo {
	return &AnalyticsRepo{q: q}
}

// analyticsWhere recorte común sobre form_submissions fs; To exclusivo.
func analyticsWhere(f repository.AnalyticsFilter) sq.And {
	where := sq.And{}
	if f.TemplateID != "" {
		where = append(where, sq.Eq{"fs.template_id": f.TemplateID})
	}
	if f.TenantIDs != nil {
		where = append(where, inIDs("fs.tenant_id", f.TenantIDs))
	}
	if f.From != nil {
		where = append(where, sq.GtOrEq{"fs.created_at": *f.From})
	}
	if f.To != nil {
		where = append(where, sq.Lt{"fs.created_at": *f.To})
	}
	return where
}

func (r *AnalyticsRepo) CountSubmissionsByStatus(ctx context.Context, f repository.AnalyticsFilter) ([]repository.StatusCount, error) {
	b := builder().
		Select("fs.status", "COUNT(*)").
		From("form_submissions fs").
		Where(analyticsWhere(f)).
		GroupBy("fs.status").
		OrderBy("fs.status")
	out, err := selectAll(ctx, r.q, "analytics.CountSubmissionsByStatus", b, func(s scanner) (*repository.StatusCount, error) {
		var x repository.StatusCount
		return &x, s.Scan(&x.Status, &x.Count)
	})
	return deref(out), err
}

// CountSubmissionsByPeriod toma los últimos `months` períodos y los devuelve en orden cronológico.
func (r *AnalyticsRepo) CountSubmissionsByPeriod(ctx context.Context, f repository.AnalyticsFilter, months int) ([]repository.PeriodCount, error) {
	b := builder().
		Select("fs.reporting_year", "fs.reporting_month", "COUNT(*)").
		From("form_submissions fs").
		Where(analyticsWhere(f)).
		GroupBy("fs.reporting_year", "fs.reporting_month").
		OrderBy("fs.reporting_year DESC", "fs.reporting_month DESC")
	if months > 0 {
		b = b.Limit(uint64(months))
	}
	rows, err := selectAll(ctx, r.q, "analytics.CountSubmissionsByPeriod", b, func(s scanner) (*repository.PeriodCount, error) {
		var x repository.PeriodCount
		return &x, s.Scan(&x.Year, &x.Month, &x.Count)
	})
	if err != nil {
		return nil, err
	}
	out := make([]repository.PeriodCount, len(rows))
	for i, p := range rows {
		out[len(rows)-1-i] = *p
	}
	return out, nil
}

func (r *AnalyticsRepo) CountSubmissionsByTenant(ctx context.Context, f repository.AnalyticsFilter, limit int) ([]repository.TenantSubmissionCount, error) {
	b := builder().
		Select("fs.tenant_id::text", "COALESCE(t.tenant_name, '')", "COUNT(*)",
			fmt.Sprintf("COUNT(*) FILTER (WHERE fs.status IN ('%s', '%s'))", entity.SubmissionSubmitted, entity.SubmissionApproved)).
		From("form_submissions fs").
		LeftJoin("tenants t ON t.id = fs.tenant_id").
		Where(analyticsWhere(f)).
		Where("fs.tenant_id IS NOT NULL").
		GroupBy("fs.tenant_id", "t.tenant_name").
		OrderBy("COUNT(*) DESC", "t.tenant_name")
	b = page(b, limit, 0)
	out, err := selectAll(ctx, r.q, "analytics.CountSubmissionsByTenant", b, func(s scanner) (*repository.TenantSubmissionCount, error) {
		var x repository.TenantSubmissionCount
		return &x, s.Scan(&x.TenantID, &x.TenantName, &x.Total, &x.Final)
	})
	return deref(out), err
}

// ── Organización ──────────────────────────────────────────────────────────────

// CountOrganization cuenta solo registros activos. Con tenantIDs, las regiones son las de esos tenants.
func (r *AnalyticsRepo) CountOrganization(ctx context.Context, tenantIDs []string) (repository.OrganizationCounts, error) {
	var out repository.OrganizationCounts
	var err error

	regions := builder().Select("COUNT(*)").From("regions").Where(sq.Eq{"is_active": true})
	if tenantIDs != nil {
		regions = builder().Select("COUNT(DISTINCT region_id)").From("tenants").
			Where(sq.Eq{"is_active": true}).Where(inIDs("id", tenantIDs))
	}
	if out.Regions, err = count(ctx, r.q, "analytics.count regions", regions); err != nil {
		return out, err
	}

	scoped := func(table, col string) sq.SelectBuilder {
		b := builder().Select("COUNT(*)").From(table).Where(sq.Eq{"is_active": true})
		if tenantIDs != nil {
			b = b.Where(inIDs(col, tenantIDs))
		}
		return b
	}
	if out.Tenants, err = count(ctx, r.q, "analytics.count tenants", scoped("tenants", "id")); err != nil {
		return out, err
	}
	if out.Departments, err = count(ctx, r.q, "analytics.count departments", scoped("departments", "tenant_id")); err != nil {
		return out, err
	}
	out.Users, err = count(ctx, r.q, "analytics.count users", scoped("users", "tenant_id"))
	return out, err
}

func (r *AnalyticsRepo) CountTenantsByType(ctx context.Context, tenantIDs []string) ([]repository.TenantTypeCount, error) {
	b := builder().
		Select("tenant_type", "COUNT(*)").
		From("tenants").
		Where(sq.Eq{"is_active": true}).
		GroupBy("tenant_type").
		OrderBy("tenant_type")
	if tenantIDs != nil {
		b = b.Where(inIDs("id", tenantIDs))
	}
	out, err := selectAll(ctx, r.q, "analytics.CountTenantsByType", b, func(s scanner) (*repository.TenantTypeCount, error) {
		var x repository.TenantTypeCount
		return &x, s.Scan(&x.TenantType, &x.Count)
	})
	return deref(out), err
}

// ── Snapshots ─────────────────────────────────────────────────────────────────

// SubmissionStats cuenta por fecha de creación en [from, to).
func (r *AnalyticsRepo) SubmissionStats(ctx context.Context, tenantID string, from, to time.Time) (repository.SubmissionStats, error) {
	var st repository.SubmissionStats
	err := r.q.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = $4),
		       COUNT(*) FILTER (WHERE status IN ($5, $6))
		FROM form_submissions
		WHERE tenant_id = $1 AND created_at >= $2 AND created_at < $3`,
		tenantID, from, to, entity.SubmissionApproved, entity.SubmissionSubmitted, entity.SubmissionInApproval,
	).Scan(&st.Total, &st.Approved, &st.Pending)
	if err != nil {
		return st, fmt.Errorf("analytics.SubmissionStats: %w", err)
	}
	return st, nil
}
