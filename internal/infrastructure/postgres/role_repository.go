package postgres

import (
	"context"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/jhoicas/form-reporting-api/internal/domain/repository"
)

var _ repository.RoleRepository = (*RoleRepo)(nil)

// RoleRepo roles, permisos, módulos y niveles de alcance sobre PostgreSQL.
type RoleRepo struct {
	q Querier
}

// NewRoleRepository construye el adaptador de persistencia para roles.
func NewRoleRepository(q Querier) *RoleRepo {
	return &RoleRepo{q: q}
}

func selectRoles() sq.SelectBuilder {
	return builder().
		Select("r.id", "r.role_name", "r.role_code", "r.description", "r.scope_level_id", "r.is_active",
			"r.created_at", "r.updated_at", "s.scope_code", "s.level",
			"(SELECT COUNT(*) FROM user_roles x WHERE x.role_id = r.id)").
		From("roles r").
		Join("scope_levels s ON s.id = r.scope_level_id")
}

func scanRole(s scanner) (*entity.Role, error) {
	var r entity.Role
	err := s.Scan(&r.ID, &r.RoleName, &r.RoleCode, &r.Description, &r.ScopeLevelID, &r.IsActive,
		&r.CreatedAt, &r.UpdatedAt, &r.ScopeCode, &r.ScopeLevel, &r.UserCount)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *RoleRepo) Create(ctx context.Context, role *entity.Role) error {
	ensureID(&role.ID)
	stamp(&role.CreatedAt, &role.UpdatedAt)
	_, err := r.q.Exec(ctx, `
		INSERT INTO roles (id, role_name, role_code, description, scope_level_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		role.ID, role.RoleName, role.RoleCode, role.Description, role.ScopeLevelID, role.IsActive, role.CreatedAt, role.UpdatedAt)
	return wrapErr("insert role", err)
}

func (r *RoleRepo) Update(ctx context.Context, role *entity.Role) error {
	stamp(&role.UpdatedAt)
	tag, err := r.q.Exec(ctx, `
		UPDATE roles SET role_name = $2, role_code = $3, description = $4, scope_level_id = $5, is_active = $6, updated_at = $7
		WHERE id = $1`,
		role.ID, role.RoleName, role.RoleCode, role.Description, role.ScopeLevelID, role.IsActive, role.UpdatedAt)
	return mustAffect(tag, wrapErr("update role", err))
}

// Delete borra el rol y sus permisos; ErrConflict si aún tiene usuarios.
func (r *RoleRepo) Delete(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	return wrapErr("delete role", err)
}

func (r *RoleRepo) GetByID(ctx context.Context, id string) (*entity.Role, error) {
	return selectOne(ctx, r.q, "get role", selectRoles().Where(sq.Eq{"r.id": id}), scanRole)
}

func (r *RoleRepo) GetByCode(ctx context.Context, code string) (*entity.Role, error) {
	return selectOne(ctx, r.q, "get role by code", selectRoles().Where(sq.Eq{"r.role_code": code}), scanRole)
}

func (r *RoleRepo) GetByName(ctx context.Context, name string) (*entity.Role, error) {
	b := selectRoles().Where(sq.Expr("lower(r.role_name) = lower(?)", strings.TrimSpace(name)))
	return selectOne(ctx, r.q, "get role by name", b, scanRole)
}

// List roles ordenados por nombre con su cantidad de usuarios.
func (r *RoleRepo) List(ctx context.Context, p repository.ListParams) ([]*entity.Role, int, error) {
	where := sq.And{}
	if p.OnlyActive {
		where = append(where, sq.Eq{"r.is_active": true})
	}
	if strings.TrimSpace(p.Search) != "" {
		where = append(where, ilike(p.Search, "r.role_name", "r.role_code"))
	}
	total, err := count(ctx, r.q, "count roles", builder().Select("COUNT(*)").From("roles r").Where(where))
	if err != nil {
		return nil, 0, err
	}
	roles, err := selectAll(ctx, r.q, "list roles", page(selectRoles().Where(where).OrderBy("r.role_name"), p.Limit, p.Offset), scanRole)
	return roles, total, err
}

func (r *RoleRepo) CountUsers(ctx context.Context, roleID string) (int, error) {
	return count(ctx, r.q, "count role users", builder().Select("COUNT(*)").From("user_roles").Where(sq.Eq{"role_id": roleID}))
}

func (r *RoleRepo) ListUserIDs(ctx context.Context, roleID string) ([]string, error) {
	return selectStrings(ctx, r.q, "list role users", `SELECT user_id FROM user_roles WHERE role_id = $1 ORDER BY assigned_at`, roleID)
}

// AssignUsers agrega usuarios al rol; las asignaciones existentes se conservan.
func (r *RoleRepo) AssignUsers(ctx context.Context, roleID string, userIDs []string, assignedBy string) error {
	if len(userIDs) == 0 {
		return nil
	}
	now := time.Now().UTC()
	ins := builder().Insert("user_roles").Columns("user_id", "role_id", "assigned_by", "assigned_at")
	for _, id := range userIDs {
		ins = ins.Values(id, roleID, assignedBy, now)
	}
	_, err := exec(ctx, r.q, "assign role users", ins.Suffix("ON CONFLICT DO NOTHING"))
	return err
}

func (r *RoleRepo) ListPermissionIDs(ctx context.Context, roleID string) ([]string, error) {
	return selectStrings(ctx, r.q, "list role permissions", `SELECT permission_id FROM role_permissions WHERE role_id = $1`, roleID)
}

// SetPermissions reemplaza el conjunto de permisos del rol.
func (r *RoleRepo) SetPermissions(ctx context.Context, roleID string, permissionIDs []string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
		return wrapErr("clear role permissions", err)
	}
	if len(permissionIDs) == 0 {
		return nil
	}
	ins := builder().Insert("role_permissions").Columns("role_id", "permission_id")
	for _, id := range permissionIDs {
		ins = ins.Values(roleID, id)
	}
	_, err := exec(ctx, r.q, "insert role permissions", ins.Suffix("ON CONFLICT DO NOTHING"))
	return err
}

func (r *RoleRepo) ListModules(ctx context.Context) ([]*entity.Module, error) {
	b := builder().
		Select("id", "module_name", "module_code", "description", "icon", "display_order", "is_active").
		From("modules").
		OrderBy("display_order", "module_name")
	return selectAll(ctx, r.q, "list modules", b, func(s scanner) (*entity.Module, error) {
		var m entity.Module
		err := s.Scan(&m.ID, &m.ModuleName, &m.ModuleCode, &m.Description, &m.Icon, &m.DisplayOrder, &m.IsActive)
		return &m, err
	})
}

func (r *RoleRepo) ListPermissions(ctx context.Context) ([]*entity.Permission, error) {
	b := builder().
		Select("id", "module_id", "permission_name", "permission_code", "permission_type", "description", "is_active").
		From("permissions").
		OrderBy("permission_code")
	return selectAll(ctx, r.q, "list permissions", b, func(s scanner) (*entity.Permission, error) {
		var p entity.Permission
		err := s.Scan(&p.ID, &p.ModuleID, &p.PermissionName, &p.PermissionCode, &p.PermissionType, &p.Description, &p.IsActive)
		return &p, err
	})
}

func selectScopeLevels() sq.SelectBuilder {
	return builder().
		Select("id", "scope_name", "scope_code", "level", "description", "is_active", "created_at").
		From("scope_levels")
}

func scanScopeLevel(s scanner) (*entity.ScopeLevel, error) {
	var l entity.ScopeLevel
	if err := s.Scan(&l.ID, &l.ScopeName, &l.ScopeCode, &l.Level, &l.Description, &l.IsActive, &l.CreatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *RoleRepo) ListScopeLevels(ctx context.Context) ([]*entity.ScopeLevel, error) {
	return selectAll(ctx, r.q, "list scope levels", selectScopeLevels().OrderBy("level"), scanScopeLevel)
}

func (r *RoleRepo) GetScopeLevel(ctx context.Context, id string) (*entity.ScopeLevel, error) {
	return selectOne(ctx, r.q, "get scope level", selectScopeLevels().Where(sq.Eq{"id": id}), scanScopeLevel)
}
