package ports

import (
	"context"

	"github.com/jhoicas/form-reporting-api/internal/domain/repository"
)

// Repos repositorios atados a una misma transacción.
type Repos struct {
	Users         repository.UserRepository
	Roles         repository.RoleRepository
	Regions       repository.RegionRepository
	Tenants       repository.TenantRepository
	Departments   repository.DepartmentRepository
	Groups        repository.TenantGroupRepository
	Templates     repository.FormTemplateRepository
	Submissions   repository.SubmissionRepository
	Mappings      repository.MetricMappingRepository
	TenantMetrics repository.TenantMetricRepository
	Reports       repository.ReportRepository
	Options       repository.OptionTemplateRepository
}

// TxRunner ejecuta fn dentro de una transacción de BD. Si fn devuelve error se hace rollback.
type TxRunner interface {
	Run(ctx context.Context, fn func(r Repos) error) error
}
