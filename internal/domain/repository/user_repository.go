package repository

import (
	"context"

	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
)

// UserFilter criterios de listado de usuarios.
// TenantIDs nil = sin restricción; vacío (no nil) = ningún tenant.
type UserFilter struct {
	TenantIDs    []string
	DepartmentID string
	UserID       string
	Search       string
	OnlyActive   bool
	Limit        int
	Offset       int
}

// UserRepository define el puerto de persistencia para User (DIP).
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	Update(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	// GetByLogin busca por nombre de usuario o email (sin distinguir mayúsculas).
	GetByLogin(ctx context.Context, login string) (*entity.User, error)
	ExistsUserName(ctx context.Context, userName, excludeID string) (bool, error)
	ExistsEmail(ctx context.Context, email, excludeID string) (bool, error)
	// List devuelve la página y el total; orden por nombre y apellido.
	List(ctx context.Context, f UserFilter) ([]*entity.User, int, error)
	CountByTenant(ctx context.Context, tenantID string) (int, error)
	CountByDepartment(ctx context.Context, departmentID string) (int, error)

	// ── Roles y permisos ──────────────────────────────────────────────────────

	// ListRoles roles activos del usuario con su nivel de alcance.
	ListRoles(ctx context.Context, userID string) ([]*entity.Role, error)
	ReplaceRoles(ctx context.Context, userID string, roleIDs []string, assignedBy string) error
	// ListPermissionCodes códigos distintos de permisos activos alcanzables por roles activos.
	ListPermissionCodes(ctx context.Context, userID string) ([]string, error)

	// ── Excepciones de acceso a tenants ───────────────────────────────────────

	ListTenantAccess(ctx context.Context, userID string) ([]*entity.UserTenantAccess, error)
	GrantTenantAccess(ctx context.Context, access *entity.UserTenantAccess) error
	RevokeTenantAccess(ctx context.Context, userID, tenantID string) error
}
