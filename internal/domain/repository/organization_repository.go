package repository

import (
	"context"

	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
)

// RegionRepository persistencia de regiones.
type RegionRepository interface {
	Create(ctx context.Context, region *entity.Region) error
	Update(ctx context.Context, region *entity.Region) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*entity.Region, error)
	GetByCode(ctx context.Context, code string) (*entity.Region, error)
	GetByNumber(ctx context.Context, number int) (*entity.Region, error)
	// List ordenado por número de región. IDs nil = todas.
	List(ctx context.Context, ids []string, p ListParams) ([]*entity.Region, int, error)
	CountTenants(ctx context.Context, regionID string) (int, error)
}

// TenantFilter criterios de listado de tenants. IDs nil = sin restricción.
type TenantFilter struct {
	IDs        []string
	RegionID   string
	TenantType string
	Search     string
	OnlyActive bool
	Limit      int
	Offset     int
}

// TenantRepository persistencia de tenants.
type TenantRepository interface {
	Create(ctx context.Context, tenant *entity.Tenant) error
	Update(ctx context.Context, tenant *entity.Tenant) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*entity.Tenant, error)
	// GetByCode comparación sin distinguir mayúsculas.
	GetByCode(ctx context.Context, code string) (*entity.Tenant, error)
	// List ordenado por nombre de región y nombre de tenant.
	List(ctx context.Context, f TenantFilter) ([]*entity.Tenant, int, error)
	CountByType(ctx context.Context, tenantType string) (int, error)
	ListActiveIDs(ctx context.Context) ([]string, error)
	ListActiveIDsByRegion(ctx context.Context, regionID string) ([]string, error)
}

// DepartmentRepository persistencia de departamentos.
type DepartmentRepository interface {
	Create(ctx context.Context, dept *entity.Department) error
	Update(ctx context.Context, dept *entity.Department) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*entity.Department, error)
	// GetByCode código único por tenant, sin distinguir mayúsculas.
	GetByCode(ctx context.Context, tenantID, code string) (*entity.Department, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*entity.Department, error)
	CountChildren(ctx context.Context, id string) (int, error)
}

// TenantGroupRepository persistencia de grupos de tenants y su membresía.
type TenantGroupRepository interface {
	Create(ctx context.Context, group *entity.TenantGroup) error
	Update(ctx context.Context, group *entity.TenantGroup) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*entity.TenantGroup, error)
	GetByCode(ctx context.Context, code string) (*entity.TenantGroup, error)
	List(ctx context.Context, p ListParams) ([]*entity.TenantGroup, int, error)
	AddMember(ctx context.Context, m *entity.TenantGroupMember) error
	RemoveMember(ctx context.Context, groupID, tenantID string) error
	ListMembers(ctx context.Context, groupID string) ([]*entity.Tenant, error)
}
