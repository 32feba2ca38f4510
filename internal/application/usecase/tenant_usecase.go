package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/jhoicas/form-reporting-api/internal/application/dto"
	"github.com/jhoicas/form-reporting-api/internal/application/ports"
	"github.com/jhoicas/form-reporting-api/internal/domain"
	"github.com/jhoicas/form-reporting-api/internal/domain/access"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/jhoicas/form-reporting-api/internal/domain/repository"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TenantUseCase reglas de negocio de tenants: una sola oficina central, códigos únicos
// y alta transaccional con departamentos y grupos.
type TenantUseCase struct {
	tenants     repository.TenantRepository
	departments repository.DepartmentRepository
	regions     repository.RegionRepository
	groups      repository.TenantGroupRepository
	users       repository.UserRepository
	tx          ports.TxRunner
	scope       TenantScope
	claims      ClaimsInvalidator
	now         func() time.Time
}

// NewTenantUseCase construye el caso de uso de tenants.
func NewTenantUseCase(tenants repository.TenantRepository, departments repository.DepartmentRepository, regions repository.RegionRepository, groups repository.TenantGroupRepository, users repository.UserRepository, tx ports.TxRunner, scope TenantScope, claims ClaimsInvalidator) *TenantUseCase {
	return &TenantUseCase{tenants: tenants, departments: departments, regions: regions, groups: groups, users: users, tx: tx, scope: scope, claims: claims, now: time.Now}
}

// normalizeCode códigos en mayúsculas sin espacios alrededor.
func normalizeCode(code string) string {
	return cases.Upper(language.Und).String(strings.TrimSpace(code))
}

// List tenants visibles para el solicitante.
func (uc *TenantUseCase) List(ctx context.Context, c *access.Claims, in dto.TenantListRequest) (dto.ListResponse[dto.TenantResponse], error) {
	in.DefaultPage()
	allowed, err := uc.scope.Restriction(ctx, c)
	if err != nil {
		return dto.ListResponse[dto.TenantResponse]{}, err
	}
	tenants, total, err := uc.tenants.List(ctx, repository.TenantFilter{
		IDs:        allowed,
		RegionID:   in.RegionID,
		TenantType: in.TenantType,
		Search:     strings.TrimSpace(in.Search),
		OnlyActive: in.OnlyActive,
		Limit:      in.Limit,
		Offset:     in.Offset,
	})
	if err != nil {
		return dto.ListResponse[dto.TenantResponse]{}, err
	}
	out := make([]dto.TenantResponse, 0, len(tenants))
	for _, t := range tenants {
		out = append(out, toTenantResponse(t, nil))
	}
	return dto.NewList(out, in.PageRequest, total), nil
}

// GetByID tenant con sus departamentos.
func (uc *TenantUseCase) GetByID(ctx context.Context, c *access.Claims, id string) (*dto.TenantResponse, error) {
	ok, err := uc.scope.CanAccessTenant(ctx, c, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrForbidden
	}
	tenant, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	depts, err := uc.departments.ListByTenant(ctx, id)
	if err != nil {
		return nil, err
	}
	out := toTenantResponse(tenant, depts)
	return &out, nil
}

func (uc *TenantUseCase) load(ctx context.Context, id string) (*entity.Tenant, error) {
	tenant, err := uc.tenants.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, domain.ErrNotFound
	}
	return tenant, nil
}

// Create alta de tenant. Departamentos y membresías de grupos se crean en la misma transacción.
func (uc *TenantUseCase) Create(ctx context.Context, actorID string, in dto.CreateTenantRequest) (*dto.TenantResponse, error) {
	now := uc.now()
	tenant := &entity.Tenant{
		TenantType:       in.TenantType,
		TenantCode:       normalizeCode(in.TenantCode),
		TenantName:       strings.TrimSpace(in.TenantName),
		RegionID:         emptyToNil(in.RegionID),
		Location:         strings.TrimSpace(in.Location),
		Latitude:         in.Latitude,
		Longitude:        in.Longitude,
		ContactPhone:     strings.TrimSpace(in.ContactPhone),
		ContactEmail:     strings.TrimSpace(in.ContactEmail),
		ManagerUserID:    emptyToNil(in.ManagerUserID),
		ICTSupportUserID: emptyToNil(in.ICTSupportUserID),
		IsActive:         true,
		CreatedBy:        actorID,
		UpdatedBy:        actorID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := uc.validate(ctx, tenant, ""); err != nil {
		return nil, err
	}

	inputs := in.Departments
	if len(inputs) == 0 && in.CreateDefaultDepartments {
		for _, d := range entity.DefaultDepartments {
			inputs = append(inputs, dto.DepartmentInput{DepartmentCode: d.Code, DepartmentName: d.Name})
		}
	}
	seen := make(map[string]struct{}, len(inputs))
	depts := make([]*entity.Department, 0, len(inputs))
	for i, d := range inputs {
		code := normalizeCode(d.DepartmentCode)
		if _, dup := seen[code]; dup {
			return nil, domain.Invalid("departments", "código de departamento repetido en la posición %d", i)
		}
		seen[code] = struct{}{}
		depts = append(depts, &entity.Department{
			DepartmentCode: code,
			DepartmentName: strings.TrimSpace(d.DepartmentName),
			Description:    strings.TrimSpace(d.Description),
			IsActive:       true,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}
	for _, gid := range in.GroupIDs {
		g, err := uc.groups.GetByID(ctx, gid)
		if err != nil {
			return nil, err
		}
		if g == nil {
			return nil, domain.Invalid("group_ids", "grupo inexistente: %s", gid)
		}
	}

	err := uc.tx.Run(ctx, func(r ports.Repos) error {
		if err := r.Tenants.Create(ctx, tenant); err != nil {
			return err
		}
		for _, d := range depts {
			d.TenantID = tenant.ID
			if err := r.Departments.Create(ctx, d); err != nil {
				return err
			}
		}
		for _, gid := range in.GroupIDs {
			if err := r.Groups.AddMember(ctx, &entity.TenantGroupMember{GroupID: gid, TenantID: tenant.ID, AddedBy: actorID, AddedAt: now}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := toTenantResponse(tenant, depts)
	return &out, nil
}

// Update modificación de tenant. La única oficina central no puede cambiar de tipo.
func (uc *TenantUseCase) Update(ctx context.Context, actorID, id string, in dto.UpdateTenantRequest) (*dto.TenantResponse, error) {
	tenant, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	previousType := tenant.TenantType
	previousRegion := str(tenant.RegionID)
	tenant.TenantType = in.TenantType
	tenant.TenantCode = normalizeCode(in.TenantCode)
	tenant.TenantName = strings.TrimSpace(in.TenantName)
	tenant.RegionID = emptyToNil(in.RegionID)
	tenant.Location = strings.TrimSpace(in.Location)
	tenant.Latitude = in.Latitude
	tenant.Longitude = in.Longitude
	tenant.ContactPhone = strings.TrimSpace(in.ContactPhone)
	tenant.ContactEmail = strings.TrimSpace(in.ContactEmail)
	tenant.ManagerUserID = emptyToNil(in.ManagerUserID)
	tenant.ICTSupportUserID = emptyToNil(in.ICTSupportUserID)
	if in.IsActive != nil {
		tenant.IsActive = *in.IsActive
	}
	if previousType == entity.TenantHeadOffice && tenant.TenantType != entity.TenantHeadOffice {
		if err := uc.checkNotLastHeadOffice(ctx); err != nil {
			return nil, err
		}
	}
	if err := uc.validate(ctx, tenant, previousType); err != nil {
		return nil, err
	}
	tenant.UpdatedBy = actorID
	tenant.UpdatedAt = uc.now()
	if err := uc.tenants.Update(ctx, tenant); err != nil {
		return nil, err
	}
	// Tipo y región viajan en los claims de los usuarios del tenant.
	if previousType != tenant.TenantType || previousRegion != str(tenant.RegionID) {
		if err := uc.invalidateUsers(ctx, tenant.ID); err != nil {
			return nil, err
		}
	}
	out := toTenantResponse(tenant, nil)
	return &out, nil
}

func (uc *TenantUseCase) invalidateUsers(ctx context.Context, tenantID string) error {
	users, _, err := uc.users.List(ctx, repository.UserFilter{TenantIDs: []string{tenantID}})
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	if len(ids) > 0 {
		uc.claims.Invalidate(ctx, ids...)
	}
	return nil
}

// Delete elimina un tenant sin usuarios junto con sus departamentos.
// La única oficina central no se puede eliminar.
func (uc *TenantUseCase) Delete(ctx context.Context, id string) error {
	tenant, err := uc.load(ctx, id)
	if err != nil {
		return err
	}
	if tenant.TenantType == entity.TenantHeadOffice {
		if err := uc.checkNotLastHeadOffice(ctx); err != nil {
			return err
		}
	}
	users, err := uc.users.CountByTenant(ctx, id)
	if err != nil {
		return err
	}
	if users > 0 {
		return domain.ErrHasDependents
	}
	return uc.tx.Run(ctx, func(r ports.Repos) error {
		depts, err := r.Departments.ListByTenant(ctx, id)
		if err != nil {
			return err
		}
		for _, d := range leavesFirst(depts) {
			if err := r.Departments.Delete(ctx, d.ID); err != nil {
				return err
			}
		}
		return r.Tenants.Delete(ctx, id)
	})
}

func (uc *TenantUseCase) checkNotLastHeadOffice(ctx context.Context) error {
	n, err := uc.tenants.CountByType(ctx, entity.TenantHeadOffice)
	if err != nil {
		return err
	}
	if n <= 1 {
		return domain.ErrLastHeadOffice
	}
	return nil
}

// validate tipo, código único, región existente y unicidad de la oficina central.
func (uc *TenantUseCase) validate(ctx context.Context, t *entity.Tenant, previousType string) error {
	var errs domain.ValidationErrors
	if !entity.ValidTenantType(t.TenantType) {
		errs.Add("tenant_type", "debe ser HeadOffice, Factory o Subsidiary")
	}
	byCode, err := uc.tenants.GetByCode(ctx, t.TenantCode)
	if err != nil {
		return err
	}
	if byCode != nil && byCode.ID != t.ID {
		errs.Add("tenant_code", "ya existe un tenant con ese código")
	}
	if t.RegionID != nil {
		region, err := uc.regions.GetByID(ctx, *t.RegionID)
		if err != nil {
			return err
		}
		if region == nil {
			errs.Add("region_id", "región inexistente")
		}
	}
	if err := errs.OrNil(); err != nil {
		return err
	}
	if t.TenantType == entity.TenantHeadOffice && previousType != entity.TenantHeadOffice {
		n, err := uc.tenants.CountByType(ctx, entity.TenantHeadOffice)
		if err != nil {
			return err
		}
		if n > 0 {
			return domain.ErrHeadOfficeExists
		}
	}
	return nil
}

func emptyToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func toTenantResponse(t *entity.Tenant, depts []*entity.Department) dto.TenantResponse {
	out := dto.TenantResponse{
		ID:               t.ID,
		TenantType:       t.TenantType,
		TenantCode:       t.TenantCode,
		TenantName:       t.TenantName,
		RegionID:         t.RegionID,
		RegionName:       t.RegionName,
		Location:         t.Location,
		Latitude:         t.Latitude,
		Longitude:        t.Longitude,
		ContactPhone:     t.ContactPhone,
		ContactEmail:     t.ContactEmail,
		ManagerUserID:    t.ManagerUserID,
		ICTSupportUserID: t.ICTSupportUserID,
		IsActive:         t.IsActive,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
	for _, d := range depts {
		out.Departments = append(out.Departments, toDepartmentResponse(d))
	}
	return out
}
