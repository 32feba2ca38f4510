package postgres

import (
	"context"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jhoicas/form-reporting-api/internal/domain"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/jhoicas/form-reporting-api/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo implementación del puerto UserRepository sobre PostgreSQL.
type UserRepo struct {
	q Querier
}

// NewUserRepository construye el adaptador de persistencia para usuarios.
func NewUserRepository(q Querier) *UserRepo {
	return &UserRepo{q: q}
}

var userColumns = []string{
	"u.id", "u.tenant_id", "u.department_id", "u.user_name", "u.email", "u.password_hash",
	"u.first_name", "u.last_name", "u.employee_number", "u.phone_number", "u.is_active",
	"u.last_login_at", "u.lockout_end", "u.access_failed_count", "u.created_at", "u.updated_at",
	"t.tenant_name", "t.region_id", "COALESCE(d.department_name, '')",
}

func (r *UserRepo) selectUsers() sq.SelectBuilder {
	return builder().Select(userColumns...).
		From("users u").
		Join("tenants t ON t.id = u.tenant_id").
		LeftJoin("departments d ON d.id = u.department_id")
}

func scanUser(s scanner) (*entity.User, error) {
	var u entity.User
	err := s.Scan(
		&u.ID, &u.TenantID, &u.DepartmentID, &u.UserName, &u.Email, &u.PasswordHash,
		&u.FirstName, &u.LastName, &u.EmployeeNumber, &u.PhoneNumber, &u.IsActive,
		&u.LastLoginAt, &u.LockoutEnd, &u.AccessFailedCount, &u.CreatedAt, &u.UpdatedAt,
		&u.TenantName, &u.RegionID, &u.DepartmentName,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create persiste un nuevo usuario.
func (r *UserRepo) Create(ctx context.Context, user *entity.User) error {
	ensureID(&user.ID)
	stamp(&user.CreatedAt, &user.UpdatedAt)
	query := `
		INSERT INTO users (id, tenant_id, department_id, user_name, email, password_hash, first_name, last_name,
			employee_number, phone_number, is_active, last_login_at, lockout_end, access_failed_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := r.q.Exec(ctx, query,
		user.ID, user.TenantID, user.DepartmentID, user.UserName, user.Email, user.PasswordHash,
		user.FirstName, user.LastName, user.EmployeeNumber, user.PhoneNumber, user.IsActive,
		user.LastLoginAt, user.LockoutEnd, user.AccessFailedCount, user.CreatedAt, user.UpdatedAt,
	)
	return wrapErr("insert user", err)
}

// Update reemplaza los campos editables, incluidos los de bloqueo y último login.
func (r *UserRepo) Update(ctx context.Context, user *entity.User) error {
	stamp(&user.UpdatedAt)
	query := `
		UPDATE users SET tenant_id = $2, department_id = $3, user_name = $4, email = $5, password_hash = $6,
			first_name = $7, last_name = $8, employee_number = $9, phone_number = $10, is_active = $11,
			last_login_at = $12, lockout_end = $13, access_failed_count = $14, updated_at = $15
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		user.ID, user.TenantID, user.DepartmentID, user.UserName, user.Email, user.PasswordHash,
		user.FirstName, user.LastName, user.EmployeeNumber, user.PhoneNumber, user.IsActive,
		user.LastLoginAt, user.LockoutEnd, user.AccessFailedCount, user.UpdatedAt,
	)
	return mustAffect(tag, wrapErr("update user", err))
}

// GetByID obtiene un usuario por ID.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return selectOne(ctx, r.q, "get user", r.selectUsers().Where(sq.Eq{"u.id": id}), scanUser)
}

// GetByLogin busca por user_name o email.
func (r *UserRepo) GetByLogin(ctx context.Context, login string) (*entity.User, error) {
	login = strings.ToLower(strings.TrimSpace(login))
	b := r.selectUsers().Where(sq.Or{
		sq.Expr("lower(u.user_name) = ?", login),
		sq.Expr("lower(u.email) = ?", login),
	}).Limit(1)
	return selectOne(ctx, r.q, "get user by login", b, scanUser)
}

func (r *UserRepo) exists(ctx context.Context, col, value, excludeID string) (bool, error) {
	b := builder().Select("COUNT(*)").From("users").Where(sq.Expr("lower("+col+") = lower(?)", value))
	if excludeID != "" {
		b = b.Where(sq.NotEq{"id": excludeID})
	}
	n, err := count(ctx, r.q, "exists user "+col, b)
	return n > 0, err
}

func (r *UserRepo) ExistsUserName(ctx context.Context, userName, excludeID string) (bool, error) {
	return r.exists(ctx, "user_name", userName, excludeID)
}

func (r *UserRepo) ExistsEmail(ctx context.Context, email, excludeID string) (bool, error) {
	return r.exists(ctx, "email", email, excludeID)
}

// List página de usuarios y total según el filtro.
func (r *UserRepo) List(ctx context.Context, f repository.UserFilter) ([]*entity.User, int, error) {
	where := sq.And{}
	if f.TenantIDs != nil {
		where = append(where, inIDs("u.tenant_id", f.TenantIDs))
	}
	if f.DepartmentID != "" {
		where = append(where, sq.Eq{"u.department_id": f.DepartmentID})
	}
	if f.UserID != "" {
		where = append(where, sq.Eq{"u.id": f.UserID})
	}
	if f.OnlyActive {
		where = append(where, sq.Eq{"u.is_active": true})
	}
	if strings.TrimSpace(f.Search) != "" {
		where = append(where, ilike(f.Search, "u.first_name", "u.last_name", "u.email", "u.user_name", "u.employee_number"))
	}

	total, err := count(ctx, r.q, "count users", builder().Select("COUNT(*)").From("users u").Where(where))
	if err != nil {
		return nil, 0, err
	}
	b := page(r.selectUsers().Where(where).OrderBy("u.first_name", "u.last_name"), f.Limit, f.Offset)
	users, err := selectAll(ctx, r.q, "list users", b, scanUser)
	return users, total, err
}

func (r *UserRepo) CountByTenant(ctx context.Context, tenantID string) (int, error) {
	return count(ctx, r.q, "count users by tenant", builder().Select("COUNT(*)").From("users").Where(sq.Eq{"tenant_id": tenantID}))
}

func (r *UserRepo) CountByDepartment(ctx context.Context, departmentID string) (int, error) {
	return count(ctx, r.q, "count users by department", builder().Select("COUNT(*)").From("users").Where(sq.Eq{"department_id": departmentID}))
}

// ── Roles y permisos ──────────────────────────────────────────────────────────

// ListRoles roles activos del usuario con su alcance.
func (r *UserRepo) ListRoles(ctx context.Context, userID string) ([]*entity.Role, error) {
	b := selectRoles().
		Join("user_roles ur ON ur.role_id = r.id").
		Where(sq.Eq{"ur.user_id": userID, "r.is_active": true}).
		OrderBy("s.level", "r.role_name")
	return selectAll(ctx, r.q, "list user roles", b, scanRole)
}

// ReplaceRoles borra las asignaciones actuales e inserta las nuevas.
func (r *UserRepo) ReplaceRoles(ctx context.Context, userID string, roleIDs []string, assignedBy string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID); err != nil {
		return wrapErr("clear user roles", err)
	}
	if len(roleIDs) == 0 {
		return nil
	}
	now := time.Now().UTC()
	ins := builder().Insert("user_roles").Columns("user_id", "role_id", "assigned_by", "assigned_at")
	for _, id := range roleIDs {
		ins = ins.Values(userID, id, assignedBy, now)
	}
	ins = ins.Suffix("ON CONFLICT DO NOTHING")
	_, err := exec(ctx, r.q, "insert user roles", ins)
	return err
}

// ListPermissionCodes códigos de permisos activos de los roles activos del usuario.
func (r *UserRepo) ListPermissionCodes(ctx context.Context, userID string) ([]string, error) {
	query := `
		SELECT DISTINCT p.permission_code
		FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id AND r.is_active
		JOIN role_permissions rp ON rp.role_id = r.id
		JOIN permissions p ON p.id = rp.permission_id AND p.is_active
		WHERE ur.user_id = $1
		ORDER BY p.permission_code`
	return selectStrings(ctx, r.q, "list permission codes", query, userID)
}

// ── Excepciones de acceso a tenants ───────────────────────────────────────────

func scanTenantAccess(s scanner) (*entity.UserTenantAccess, error) {
	var a entity.UserTenantAccess
	if err := s.Scan(&a.ID, &a.UserID, &a.TenantID, &a.GrantedBy, &a.GrantedAt, &a.ExpiryDate, &a.Reason, &a.IsActive); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *UserRepo) ListTenantAccess(ctx context.Context, userID string) ([]*entity.UserTenantAccess, error) {
	b := builder().
		Select("id", "user_id", "tenant_id", "granted_by", "granted_at", "expiry_date", "reason", "is_active").
		From("user_tenant_access").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("granted_at DESC")
	return selectAll(ctx, r.q, "list tenant access", b, scanTenantAccess)
}

// GrantTenantAccess ErrDuplicate si ya hay una concesión activa para el par.
func (r *UserRepo) GrantTenantAccess(ctx context.Context, a *entity.UserTenantAccess) error {
	ensureID(&a.ID)
	stamp(&a.GrantedAt)
	query := `
		INSERT INTO user_tenant_access (id, user_id, tenant_id, granted_by, granted_at, expiry_date, reason, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query, a.ID, a.UserID, a.TenantID, a.GrantedBy, a.GrantedAt, a.ExpiryDate, a.Reason, a.IsActive)
	return wrapErr("grant tenant access", err)
}

// RevokeTenantAccess desactiva la concesión activa del par.
func (r *UserRepo) RevokeTenantAccess(ctx context.Context, userID, tenantID string) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE user_tenant_access SET is_active = FALSE WHERE user_id = $1 AND tenant_id = $2 AND is_active`,
		userID, tenantID)
	if err != nil {
		return wrapErr("revoke tenant access", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
