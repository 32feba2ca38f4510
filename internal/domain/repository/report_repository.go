package repository

import (
	"context"
	"time"

	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
)

// ReportListFilter criterios de listado de reportes.
type ReportListFilter struct {
	Category   string
	TemplateID string
	Search     string
	Limit      int
	Offset     int
}

// ReportRepository persistencia de definiciones de reporte y sus hijos.
type ReportRepository interface {
	// Create persiste la definición con campos, filtros, agrupaciones y ordenamientos.
	Create(ctx context.Context, r *entity.ReportDefinition) error
	// Update reemplaza la definición y todos sus hijos.
	Update(ctx context.Context, r *entity.ReportDefinition) error
	Delete(ctx context.Context, id string) error
	// GetByID carga la definición con sus hijos.
	GetByID(ctx context.Context, id string) (*entity.ReportDefinition, error)
	GetByCode(ctx context.Context, code string) (*entity.ReportDefinition, error)
	// List sin hijos, activos, ordenados por nombre.
	List(ctx context.Context, f ReportListFilter) ([]*entity.ReportDefinition, int, error)
	RecordRun(ctx context.Context, id string, at time.Time) error

	CreateSchedule(ctx context.Context, s *entity.ReportSchedule) error
	UpdateSchedule(ctx context.Context, s *entity.ReportSchedule) error
	DeleteSchedule(ctx context.Context, id string) error
	GetSchedule(ctx context.Context, id string) (*entity.ReportSchedule, error)
	ListSchedules(ctx context.Context, reportID string) ([]*entity.ReportSchedule, error)
	// ListDueSchedules activas con NextRunAt <= now.
	ListDueSchedules(ctx context.Context, now time.Time) ([]*entity.ReportSchedule, error)

	CreateExecution(ctx context.Context, l *entity.ReportExecutionLog) error
	ListExecutions(ctx context.Context, reportID string, limit int) ([]*entity.ReportExecutionLog, error)

	CreateAccess(ctx context.Context, a *entity.ReportAccessControl) error
	RevokeAccess(ctx context.Context, id string) error
	ListAccess(ctx context.Context, reportID string) ([]*entity.ReportAccessControl, error)
}

// ReportQuery ejecución de una definición ya resuelta.
type ReportQuery struct {
	Definition *entity.ReportDefinition
	// TenantIDs tenants accesibles; nil = sin restricción.
	TenantIDs []string
	// Parameters valores que reemplazan filtros parametrizables (clave = ID del filtro).
	Parameters map[string]string
	MaxRows    int
}

// ReportQueryRepository ejecuta consultas dinámicas de reportes.
type ReportQueryRepository interface {
	Run(ctx context.Context, q ReportQuery) (*entity.ReportResult, error)
}
