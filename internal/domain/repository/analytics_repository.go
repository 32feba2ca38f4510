package repository

import (
	"context"
	"time"

	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
)

// StatusCount envíos por estado.
type StatusCount struct {
	Status string
	Count  int
}

// PeriodCount envíos por período (año/mes de reporte).
type PeriodCount struct {
	Year  int
	Month int
	Count int
}

// TenantSubmissionCount envíos por tenant.
type TenantSubmissionCount struct {
	TenantID   string
	TenantName string
	Total      int
	Final      int
}

// OrganizationCounts totales de la estructura organizacional visible.
type OrganizationCounts struct {
	Regions     int
	Tenants     int
	Departments int
	Users       int
}

// TenantTypeCount tenants por tipo.
type TenantTypeCount struct {
	TenantType string
	Count      int
}

// SubmissionStats conteos de envíos de un tenant en un rango.
type SubmissionStats struct {
	Total    int
	Approved int
	Pending  int
}

// AnalyticsFilter recorte de los envíos considerados por un tablero.
type AnalyticsFilter struct {
	TemplateID string
	// TenantIDs nil = sin restricción; vacío = sin datos.
	TenantIDs []string
	// From/To sobre la fecha de creación del envío, To exclusivo.
	From *time.Time
	To   *time.Time
}

// AnalyticsRepository consultas de solo lectura para tableros y snapshots.
// tenantIDs nil = sin restricción; vacío = sin datos.
type AnalyticsRepository interface {
	CountSubmissionsByStatus(ctx context.Context, f AnalyticsFilter) ([]StatusCount, error)

	// CountSubmissionsByPeriod últimos `months` períodos con datos, en orden cronológico.
	CountSubmissionsByPeriod(ctx context.Context, f AnalyticsFilter, months int) ([]PeriodCount, error)

	// CountSubmissionsByTenant ordenados por total descendente.
	CountSubmissionsByTenant(ctx context.Context, f AnalyticsFilter, limit int) ([]TenantSubmissionCount, error)

	// ── Organización ──────────────────────────────────────────────────────────

	CountOrganization(ctx context.Context, tenantIDs []string) (OrganizationCounts, error)
	CountTenantsByType(ctx context.Context, tenantIDs []string) ([]TenantTypeCount, error)

	// ── Snapshots ─────────────────────────────────────────────────────────────

	SubmissionStats(ctx context.Context, tenantID string, from, to time.Time) (SubmissionStats, error)
}

// SnapshotRepository persistencia idempotente de snapshots.
type SnapshotRepository interface {
	UpsertTenantSnapshot(ctx context.Context, s *entity.TenantPerformanceSnapshot) error
	UpsertRegionalSnapshot(ctx context.Context, s *entity.RegionalMonthlySnapshot) error
	ListTenantSnapshots(ctx context.Context, tenantID string, from, to time.Time) ([]*entity.TenantPerformanceSnapshot, error)
	ListRegionalSnapshots(ctx context.Context, regionID string, from, to time.Time) ([]*entity.RegionalMonthlySnapshot, error)
}
