package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/jhoicas/form-reporting-api/internal/application/dto"
	"github.com/jhoicas/form-reporting-api/internal/domain"
	"github.com/jhoicas/form-reporting-api/internal/domain/access"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/jhoicas/form-reporting-api/internal/domain/repository"
	"golang.org/x/crypto/bcrypt"
)

// UserUseCase aplica reglas de negocio para usuarios.
type UserUseCase struct {
	repo        repository.UserRepository
	tenants     repository.TenantRepository
	departments repository.DepartmentRepository
	roles       repository.RoleRepository
	scope       TenantScope
	claims      ClaimsInvalidator
	now         func() time.Time
}

// NewUserUseCase construye el caso de uso con sus puertos.
func NewUserUseCase(repo repository.UserRepository, tenants repository.TenantRepository, departments repository.DepartmentRepository, roles repository.RoleRepository, scope TenantScope, claims ClaimsInvalidator) *UserUseCase {
	return &UserUseCase{repo: repo, tenants: tenants, departments: departments, roles: roles, scope: scope, claims: claims, now: time.Now}
}

// List usuarios visibles para el solicitante, paginados.
func (uc *UserUseCase) List(ctx context.Context, c *access.Claims, in dto.UserListRequest) (dto.ListResponse[dto.UserResponse], error) {
	in.DefaultPage()
	allowed, err := uc.scope.Restriction(ctx, c)
	if err != nil {
		return dto.ListResponse[dto.UserResponse]{}, err
	}
	tenantIDs, ok := restrict(allowed, in.TenantID)
	if !ok {
		return dto.ListResponse[dto.UserResponse]{}, domain.ErrForbidden
	}
	users, total, err := uc.repo.List(ctx, repository.UserFilter{
		TenantIDs:    tenantIDs,
		DepartmentID: in.DepartmentID,
		Search:       strings.TrimSpace(in.Search),
		OnlyActive:   in.OnlyActive,
		Limit:        in.Limit,
		Offset:       in.Offset,
	})
	if err != nil {
		return dto.ListResponse[dto.UserResponse]{}, err
	}
	out := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, *toUserResponse(u))
	}
	return dto.NewList(out, in.PageRequest, total), nil
}

// Lookup selector de usuarios según el alcance del solicitante.
func (uc *UserUseCase) Lookup(ctx context.Context, c *access.Claims, search string, limit int) ([]dto.UserSummary, error) {
	users, err := uc.scope.AccessibleUsers(ctx, c, search, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.UserSummary, 0, len(users))
	for _, u := range users {
		out = append(out, dto.UserSummary{
			ID:             u.ID,
			UserName:       u.UserName,
			FullName:       u.FullName(),
			Email:          u.Email,
			EmployeeNumber: u.EmployeeNumber,
			TenantName:     u.TenantName,
		})
	}
	return out, nil
}

// GetByID obtiene un usuario visible para el solicitante.
func (uc *UserUseCase) GetByID(ctx context.Context, c *access.Claims, id string) (*dto.UserResponse, error) {
	user, err := uc.load(ctx, c, id)
	if err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

// load busca el usuario y verifica que su tenant esté en el alcance (o que sea el propio usuario).
func (uc *UserUseCase) load(ctx context.Context, c *access.Claims, id string) (*entity.User, error) {
	user, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	if c.UserID == user.ID {
		return user, nil
	}
	ok, err := uc.scope.CanAccessTenant(ctx, c, user.TenantID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrForbidden
	}
	return user, nil
}

// Create alta de usuario: tenant accesible, departamento del mismo tenant y usuario/email únicos.
func (uc *UserUseCase) Create(ctx context.Context, c *access.Claims, in dto.CreateUserRequest) (*dto.UserResponse, error) {
	user := &entity.User{
		TenantID:       in.TenantID,
		DepartmentID:   in.DepartmentID,
		UserName:       strings.TrimSpace(in.UserName),
		Email:          strings.TrimSpace(in.Email),
		FirstName:      strings.TrimSpace(in.FirstName),
		LastName:       strings.TrimSpace(in.LastName),
		EmployeeNumber: strings.TrimSpace(in.EmployeeNumber),
		PhoneNumber:    strings.TrimSpace(in.PhoneNumber),
		IsActive:       true,
	}
	if err := uc.checkPlacement(ctx, c, user); err != nil {
		return nil, err
	}
	if err := uc.checkUnique(ctx, user); err != nil {
		return nil, err
	}
	if err := uc.checkRoles(ctx, in.RoleIDs); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	user.PasswordHash = string(hash)
	user.CreatedAt = now
	user.UpdatedAt = now
	if err := uc.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	if len(in.RoleIDs) > 0 {
		if err := uc.repo.ReplaceRoles(ctx, user.ID, in.RoleIDs, c.UserID); err != nil {
			return nil, err
		}
	}
	return toUserResponse(user), nil
}

// Update modificación de datos; invalida los claims cacheados del usuario.
func (uc *UserUseCase) Update(ctx context.Context, c *access.Claims, id string, in dto.UpdateUserRequest) (*dto.UserResponse, error) {
	user, err := uc.load(ctx, c, id)
	if err != nil {
		return nil, err
	}
	user.TenantID = in.TenantID
	user.DepartmentID = in.DepartmentID
	user.UserName = strings.TrimSpace(in.UserName)
	user.Email = strings.TrimSpace(in.Email)
	user.FirstName = strings.TrimSpace(in.FirstName)
	user.LastName = strings.TrimSpace(in.LastName)
	user.EmployeeNumber = strings.TrimSpace(in.EmployeeNumber)
	user.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	if err := uc.checkPlacement(ctx, c, user); err != nil {
		return nil, err
	}
	if err := uc.checkUnique(ctx, user); err != nil {
		return nil, err
	}
	user.UpdatedAt = uc.now()
	if err := uc.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	uc.claims.Invalidate(ctx, user.ID)
	return toUserResponse(user), nil
}

// SetActive activa o desactiva un usuario.
func (uc *UserUseCase) SetActive(ctx context.Context, c *access.Claims, id string, active bool) error {
	user, err := uc.load(ctx, c, id)
	if err != nil {
		return err
	}
	if !active && user.ID == c.UserID {
		return domain.Invalid("is_active", "no puede desactivar su propia cuenta")
	}
	user.IsActive = active
	user.UpdatedAt = uc.now()
	if err := uc.repo.Update(ctx, user); err != nil {
		return err
	}
	uc.claims.Invalidate(ctx, user.ID)
	return nil
}

// ResetPassword fija una contraseña nueva y desbloquea la cuenta.
func (uc *UserUseCase) ResetPassword(ctx context.Context, c *access.Claims, id string, in dto.ResetPasswordRequest) error {
	user, err := uc.load(ctx, c, id)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hash)
	user.LockoutEnd = nil
	user.AccessFailedCount = 0
	user.UpdatedAt = uc.now()
	return uc.repo.Update(ctx, user)
}

// Unlock quita el bloqueo por intentos fallidos.
func (uc *UserUseCase) Unlock(ctx context.Context, c *access.Claims, id string) error {
	user, err := uc.load(ctx, c, id)
	if err != nil {
		return err
	}
	user.LockoutEnd = nil
	user.AccessFailedCount = 0
	user.UpdatedAt = uc.now()
	return uc.repo.Update(ctx, user)
}

// AssignRoles reemplaza el conjunto de roles del usuario.
func (uc *UserUseCase) AssignRoles(ctx context.Context, c *access.Claims, id string, in dto.AssignRolesRequest) error {
	user, err := uc.load(ctx, c, id)
	if err != nil {
		return err
	}
	if err := uc.checkRoles(ctx, in.RoleIDs); err != nil {
		return err
	}
	if err := uc.repo.ReplaceRoles(ctx, user.ID, in.RoleIDs, c.UserID); err != nil {
		return err
	}
	uc.claims.Invalidate(ctx, user.ID)
	return nil
}

// ListTenantAccess excepciones de acceso del usuario (vigentes e históricas).
func (uc *UserUseCase) ListTenantAccess(ctx context.Context, c *access.Claims, id string) ([]dto.TenantAccessResponse, error) {
	if _, err := uc.load(ctx, c, id); err != nil {
		return nil, err
	}
	rows, err := uc.repo.ListTenantAccess(ctx, id)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	out := make([]dto.TenantAccessResponse, 0, len(rows))
	for _, a := range rows {
		out = append(out, dto.TenantAccessResponse{
			ID:          a.ID,
			TenantID:    a.TenantID,
			GrantedBy:   a.GrantedBy,
			GrantedAt:   a.GrantedAt,
			ExpiryDate:  a.ExpiryDate,
			Reason:      a.Reason,
			IsActive:    a.IsActive,
			IsEffective: a.IsEffective(now),
		})
	}
	return out, nil
}

// GrantTenantAccess concede al usuario un tenant fuera de su alcance.
func (uc *UserUseCase) GrantTenantAccess(ctx context.Context, c *access.Claims, id string, in dto.GrantTenantAccessRequest) error {
	user, err := uc.load(ctx, c, id)
	if err != nil {
		return err
	}
	tenant, err := uc.tenants.GetByID(ctx, in.TenantID)
	if err != nil {
		return err
	}
	if tenant == nil {
		return domain.Invalid("tenant_id", "tenant inexistente")
	}
	if tenant.ID == user.TenantID {
		return domain.Invalid("tenant_id", "es el tenant principal del usuario")
	}
	now := uc.now()
	if in.ExpiryDate != nil && !in.ExpiryDate.After(now) {
		return domain.Invalid("expiry_date", "debe ser futura")
	}
	if err := uc.repo.GrantTenantAccess(ctx, &entity.UserTenantAccess{
		UserID:     user.ID,
		TenantID:   tenant.ID,
		GrantedBy:  c.UserID,
		GrantedAt:  now,
		ExpiryDate: in.ExpiryDate,
		Reason:     strings.TrimSpace(in.Reason),
		IsActive:   true,
	}); err != nil {
		return err
	}
	uc.claims.Invalidate(ctx, user.ID)
	return nil
}

// RevokeTenantAccess desactiva la excepción de acceso al tenant.
func (uc *UserUseCase) RevokeTenantAccess(ctx context.Context, c *access.Claims, id, tenantID string) error {
	user, err := uc.load(ctx, c, id)
	if err != nil {
		return err
	}
	if err := uc.repo.RevokeTenantAccess(ctx, user.ID, tenantID); err != nil {
		return err
	}
	uc.claims.Invalidate(ctx, user.ID)
	return nil
}

// checkPlacement tenant existente y accesible; departamento del mismo tenant.
func (uc *UserUseCase) checkPlacement(ctx context.Context, c *access.Claims, user *entity.User) error {
	tenant, err := uc.tenants.GetByID(ctx, user.TenantID)
	if err != nil {
		return err
	}
	if tenant == nil {
		return domain.Invalid("tenant_id", "tenant inexistente")
	}
	ok, err := uc.scope.CanAccessTenant(ctx, c, tenant.ID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrForbidden
	}
	if user.DepartmentID == nil || *user.DepartmentID == "" {
		user.DepartmentID = nil
		return nil
	}
	dept, err := uc.departments.GetByID(ctx, *user.DepartmentID)
	if err != nil {
		return err
	}
	if dept == nil || dept.TenantID != tenant.ID {
		return domain.Invalid("department_id", "el departamento no pertenece al tenant")
	}
	return nil
}

func (uc *UserUseCase) checkUnique(ctx context.Context, user *entity.User) error {
	var errs domain.ValidationErrors
	taken, err := uc.repo.ExistsUserName(ctx, user.UserName, user.ID)
	if err != nil {
		return err
	}
	if taken {
		errs.Add("user_name", "ya está en uso")
	}
	taken, err = uc.repo.ExistsEmail(ctx, user.Email, user.ID)
	if err != nil {
		return err
	}
	if taken {
		errs.Add("email", "ya está en uso")
	}
	return errs.OrNil()
}

func (uc *UserUseCase) checkRoles(ctx context.Context, roleIDs []string) error {
	for _, id := range roleIDs {
		role, err := uc.roles.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if role == nil || !role.IsActive {
			return domain.Invalid("role_ids", "rol inexistente o inactivo: %s", id)
		}
	}
	return nil
}

func toUserResponse(u *entity.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	return &dto.UserResponse{
		ID:                u.ID,
		TenantID:          u.TenantID,
		TenantName:        u.TenantName,
		DepartmentID:      u.DepartmentID,
		DepartmentName:    u.DepartmentName,
		UserName:          u.UserName,
		Email:             u.Email,
		FirstName:         u.FirstName,
		LastName:          u.LastName,
		FullName:          u.FullName(),
		EmployeeNumber:    u.EmployeeNumber,
		PhoneNumber:       u.PhoneNumber,
		IsActive:          u.IsActive,
		IsLocked:          u.LockoutEnd != nil && u.LockoutEnd.After(time.Now()),
		LastLoginAt:       u.LastLoginAt,
		AccessFailedCount: u.AccessFailedCount,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}
