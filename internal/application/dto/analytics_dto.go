package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ── Query parameters ──────────────────────────────────────────────────────────

// GenerateSnapshotsRequest cuerpo de POST /api/snapshots/generate.
type GenerateSnapshotsRequest struct {
	Date         string `json:"date"` // YYYY-MM-DD; por defecto hoy
	SnapshotType string `json:"snapshot_type" validate:"omitempty,oneof=Daily Monthly"`
	// Regional además consolida el mes por región.
	Regional bool `json:"regional"`
}

// SnapshotRangeRequest parámetros de consulta de snapshots.
type SnapshotRangeRequest struct {
	From string `query:"from"` // YYYY-MM-DD; por defecto hace 12 meses
	To   string `query:"to"`   // YYYY-MM-DD; por defecto hoy
}

// ── Resultados ────────────────────────────────────────────────────────────────

// SnapshotRunResponse resumen de una generación.
type SnapshotRunResponse struct {
	SnapshotDate string `json:"snapshot_date"`
	SnapshotType string `json:"snapshot_type"`
	Generated    int    `json:"generated"`
	Failed       int    `json:"failed"`
	Regions      int    `json:"regions"`
}

// TenantSnapshotResponse foto de desempeño de un tenant.
type TenantSnapshotResponse struct {
	ID                  string                     `json:"id"`
	TenantID            string                     `json:"tenant_id"`
	SnapshotDate        string                     `json:"snapshot_date"`
	SnapshotType        string                     `json:"snapshot_type"`
	Metrics             map[string]decimal.Decimal `json:"metrics"` // código de métrica → valor
	TotalSubmissions    int                        `json:"total_submissions"`
	ApprovedSubmissions int                        `json:"approved_submissions"`
	PendingSubmissions  int                        `json:"pending_submissions"`
	ComplianceScore     *decimal.Decimal           `json:"compliance_score,omitempty"`
	GeneratedAt         time.Time                  `json:"generated_at"`
}

// RegionalSnapshotResponse consolidado mensual de una región.
type RegionalSnapshotResponse struct {
	ID                 string           `json:"id"`
	RegionID           string           `json:"region_id"`
	YearMonth          string           `json:"year_month"` // YYYY-MM
	TotalTenants       int              `json:"total_tenants"`
	ReportingTenants   int              `json:"reporting_tenants"`
	TotalSubmissions   int              `json:"total_submissions"`
	AvgComplianceScore *decimal.Decimal `json:"avg_compliance_score,omitempty"`
	LastUpdated        time.Time        `json:"last_updated"`
}
