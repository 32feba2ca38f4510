package usecase

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/jhoicas/form-reporting-api/internal/application/dto"
	"github.com/jhoicas/form-reporting-api/internal/application/ports"
	"github.com/jhoicas/form-reporting-api/internal/domain"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/jhoicas/form-reporting-api/internal/domain/repository"
)

// RoleUseCase roles, permisos, módulos y niveles de alcance.
type RoleUseCase struct {
	repo   repository.RoleRepository
	tx     ports.TxRunner
	claims ClaimsInvalidator
	now    func() time.Time
}

// NewRoleUseCase construye el caso de uso de roles.
func NewRoleUseCase(repo repository.RoleRepository, tx ports.TxRunner, claims ClaimsInvalidator) *RoleUseCase {
	return &RoleUseCase{repo: repo, tx: tx, claims: claims, now: time.Now}
}

// List roles paginados con su cantidad de usuarios.
func (uc *RoleUseCase) List(ctx context.Context, in dto.PageRequest) (dto.ListResponse[dto.RoleResponse], error) {
	in.DefaultPage()
	roles, total, err := uc.repo.List(ctx, repository.ListParams{Search: strings.TrimSpace(in.Search), Limit: in.Limit, Offset: in.Offset})
	if err != nil {
		return dto.ListResponse[dto.RoleResponse]{}, err
	}
	out := make([]dto.RoleResponse, 0, len(roles))
	for _, r := range roles {
		out = append(out, toRoleResponse(r, nil))
	}
	return dto.NewList(out, in, total), nil
}

// GetByID rol con los IDs de sus permisos.
func (uc *RoleUseCase) GetByID(ctx context.Context, id string) (*dto.RoleResponse, error) {
	role, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	perms, err := uc.repo.ListPermissionIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	count, err := uc.repo.CountUsers(ctx, id)
	if err != nil {
		return nil, err
	}
	role.UserCount = count
	out := toRoleResponse(role, perms)
	return &out, nil
}

func (uc *RoleUseCase) load(ctx context.Context, id string) (*entity.Role, error) {
	role, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, domain.ErrNotFound
	}
	return role, nil
}

// Create alta de rol con permisos y usuarios en una sola transacción.
// Un código o nombre repetido es un error de validación.
func (uc *RoleUseCase) Create(ctx context.Context, actorID string, in dto.CreateRoleRequest) (*dto.RoleResponse, error) {
	now := uc.now()
	role := &entity.Role{
		RoleName:     strings.TrimSpace(in.RoleName),
		RoleCode:     strings.ToUpper(strings.TrimSpace(in.RoleCode)),
		Description:  strings.TrimSpace(in.Description),
		ScopeLevelID: in.ScopeLevelID,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.validate(ctx, role); err != nil {
		return nil, err
	}
	err := uc.tx.Run(ctx, func(r ports.Repos) error {
		if err := r.Roles.Create(ctx, role); err != nil {
			return err
		}
		if len(in.PermissionIDs) > 0 {
			if err := r.Roles.SetPermissions(ctx, role.ID, in.PermissionIDs); err != nil {
				return err
			}
		}
		if len(in.UserIDs) > 0 {
			return r.Roles.AssignUsers(ctx, role.ID, in.UserIDs, actorID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.claims.Invalidate(ctx, in.UserIDs...)
	role.UserCount = len(in.UserIDs)
	out := toRoleResponse(role, in.PermissionIDs)
	return &out, nil
}

// Update modificación de rol. Un rol de sistema no puede cambiar de código.
func (uc *RoleUseCase) Update(ctx context.Context, id string, in dto.UpdateRoleRequest) (*dto.RoleResponse, error) {
	role, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	code := strings.ToUpper(strings.TrimSpace(in.RoleCode))
	if entity.IsProtectedRole(role.RoleCode) && code != role.RoleCode {
		return nil, domain.ErrProtectedRole
	}
	role.RoleName = strings.TrimSpace(in.RoleName)
	role.RoleCode = code
	role.Description = strings.TrimSpace(in.Description)
	role.ScopeLevelID = in.ScopeLevelID
	if in.IsActive != nil {
		role.IsActive = *in.IsActive
	}
	if err := uc.validate(ctx, role); err != nil {
		return nil, err
	}
	role.UpdatedAt = uc.now()
	if err := uc.repo.Update(ctx, role); err != nil {
		return nil, err
	}
	uc.invalidateMembers(ctx, role.ID)
	out := toRoleResponse(role, nil)
	return &out, nil
}

// Delete elimina un rol que no sea de sistema y no tenga usuarios.
func (uc *RoleUseCase) Delete(ctx context.Context, id string) error {
	role, err := uc.load(ctx, id)
	if err != nil {
		return err
	}
	if entity.IsProtectedRole(role.RoleCode) {
		return domain.ErrProtectedRole
	}
	count, err := uc.repo.CountUsers(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return domain.ErrRoleInUse
	}
	return uc.repo.Delete(ctx, id)
}

// SetPermissions reemplaza los permisos del rol.
func (uc *RoleUseCase) SetPermissions(ctx context.Context, id string, in dto.SetPermissionsRequest) error {
	if _, err := uc.load(ctx, id); err != nil {
		return err
	}
	if err := uc.repo.SetPermissions(ctx, id, in.PermissionIDs); err != nil {
		return err
	}
	uc.invalidateMembers(ctx, id)
	return nil
}

// AssignUsers agrega usuarios al rol.
func (uc *RoleUseCase) AssignUsers(ctx context.Context, actorID, id string, in dto.AssignUsersRequest) error {
	if _, err := uc.load(ctx, id); err != nil {
		return err
	}
	if err := uc.repo.AssignUsers(ctx, id, in.UserIDs, actorID); err != nil {
		return err
	}
	uc.claims.Invalidate(ctx, in.UserIDs...)
	return nil
}

// ListModules módulos activos con sus permisos activos, en orden de visualización.
func (uc *RoleUseCase) ListModules(ctx context.Context) ([]dto.ModuleResponse, error) {
	modules, err := uc.repo.ListModules(ctx)
	if err != nil {
		return nil, err
	}
	perms, err := uc.repo.ListPermissions(ctx)
	if err != nil {
		return nil, err
	}
	byModule := make(map[string][]dto.PermissionResponse)
	for _, p := range perms {
		if !p.IsActive {
			continue
		}
		byModule[p.ModuleID] = append(byModule[p.ModuleID], dto.PermissionResponse{
			ID:             p.ID,
			PermissionName: p.PermissionName,
			PermissionCode: p.PermissionCode,
			PermissionType: p.PermissionType,
			Description:    p.Description,
		})
	}
	sort.SliceStable(modules, func(i, j int) bool { return modules[i].DisplayOrder < modules[j].DisplayOrder })
	out := make([]dto.ModuleResponse, 0, len(modules))
	for _, m := range modules {
		if !m.IsActive {
			continue
		}
		ps := byModule[m.ID]
		if ps == nil {
			ps = []dto.PermissionResponse{}
		}
		out = append(out, dto.ModuleResponse{
			ID:           m.ID,
			ModuleName:   m.ModuleName,
			ModuleCode:   m.ModuleCode,
			Description:  m.Description,
			Icon:         m.Icon,
			DisplayOrder: m.DisplayOrder,
			Permissions:  ps,
		})
	}
	return out, nil
}

// ListScopeLevels catálogo de niveles de alcance ordenado por nivel.
func (uc *RoleUseCase) ListScopeLevels(ctx context.Context) ([]dto.ScopeLevelResponse, error) {
	levels, err := uc.repo.ListScopeLevels(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(levels, func(i, j int) bool { return levels[i].Level < levels[j].Level })
	out := make([]dto.ScopeLevelResponse, 0, len(levels))
	for _, l := range levels {
		if !l.IsActive {
			continue
		}
		out = append(out, dto.ScopeLevelResponse{ID: l.ID, ScopeName: l.ScopeName, ScopeCode: l.ScopeCode, Level: l.Level, Description: l.Description})
	}
	return out, nil
}

// validate formato y unicidad de código y nombre, nivel de alcance existente.
func (uc *RoleUseCase) validate(ctx context.Context, role *entity.Role) error {
	var errs domain.ValidationErrors
	if !entity.ValidRoleCode(role.RoleCode) {
		errs.Add("role_code", "solo letras mayúsculas y guion bajo")
	}
	byCode, err := uc.repo.GetByCode(ctx, role.RoleCode)
	if err != nil {
		return err
	}
	if byCode != nil && byCode.ID != role.ID {
		errs.Add("role_code", "ya existe un rol con ese código")
	}
	byName, err := uc.repo.GetByName(ctx, role.RoleName)
	if err != nil {
		return err
	}
	if byName != nil && byName.ID != role.ID {
		errs.Add("role_name", "ya existe un rol con ese nombre")
	}
	level, err := uc.repo.GetScopeLevel(ctx, role.ScopeLevelID)
	if err != nil {
		return err
	}
	if level == nil {
		errs.Add("scope_level_id", "nivel de alcance inexistente")
	} else {
		role.ScopeCode = level.ScopeCode
		role.ScopeLevel = level.Level
	}
	return errs.OrNil()
}

func (uc *RoleUseCase) invalidateMembers(ctx context.Context, roleID string) {
	ids, err := uc.repo.ListUserIDs(ctx, roleID)
	if err != nil {
		return
	}
	uc.claims.Invalidate(ctx, ids...)
}

func toRoleResponse(r *entity.Role, permissionIDs []string) dto.RoleResponse {
	return dto.RoleResponse{
		ID:            r.ID,
		RoleName:      r.RoleName,
		RoleCode:      r.RoleCode,
		Description:   r.Description,
		ScopeLevelID:  r.ScopeLevelID,
		ScopeCode:     r.ScopeCode,
		ScopeLevel:    r.ScopeLevel,
		IsActive:      r.IsActive,
		IsProtected:   entity.IsProtectedRole(r.RoleCode),
		UserCount:     r.UserCount,
		PermissionIDs: permissionIDs,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}
