package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de snapshot de tenant.
const (
	SnapshotDaily   = "Daily"
	SnapshotMonthly = "Monthly"
)

// TenantPerformanceSnapshot foto de desempeño de un tenant en una fecha.
type TenantPerformanceSnapshot struct {
	ID                  string
	TenantID            string
	SnapshotDate        time.Time
	SnapshotType        string
	MetricsData         map[string]decimal.Decimal // código de métrica → valor
	TotalSubmissions    int
	ApprovedSubmissions int
	PendingSubmissions  int
	ComplianceScore     *decimal.Decimal
	GeneratedAt         time.Time
	GeneratedBy         string
	DataVersion         int
}

// RegionalMonthlySnapshot consolidado mensual por región.
type RegionalMonthlySnapshot struct {
	ID                 string
	RegionID           string
	YearMonth          time.Time // primer día del mes
	TotalTenants       int
	ReportingTenants   int
	TotalSubmissions   int
	AvgComplianceScore *decimal.Decimal
	LastUpdated        time.Time
}
