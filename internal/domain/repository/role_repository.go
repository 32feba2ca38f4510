package repository

import (
	"context"

	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
)

// ListParams búsqueda y paginación comunes.
type ListParams struct {
	Search     string
	OnlyActive bool
	Limit      int
	Offset     int
}

// RoleRepository persistencia de roles, permisos, módulos y niveles de alcance.
type RoleRepository interface {
	Create(ctx context.Context, role *entity.Role) error
	Update(ctx context.Context, role *entity.Role) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*entity.Role, error)
	GetByCode(ctx context.Context, code string) (*entity.Role, error)
	GetByName(ctx context.Context, name string) (*entity.Role, error)
	List(ctx context.Context, p ListParams) ([]*entity.Role, int, error)
	CountUsers(ctx context.Context, roleID string) (int, error)
	ListUserIDs(ctx context.Context, roleID string) ([]string, error)
	AssignUsers(ctx context.Context, roleID string, userIDs []string, assignedBy string) error

	ListPermissionIDs(ctx context.Context, roleID string) ([]string, error)
	SetPermissions(ctx context.Context, roleID string, permissionIDs []string) error
	ListModules(ctx context.Context) ([]*entity.Module, error)
	ListPermissions(ctx context.Context) ([]*entity.Permission, error)

	ListScopeLevels(ctx context.Context) ([]*entity.ScopeLevel, error)
	GetScopeLevel(ctx context.Context, id string) (*entity.ScopeLevel, error)
}
