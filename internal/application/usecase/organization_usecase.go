package usecase

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/jhoicas/form-reporting-api/internal/application/dto"
	"github.com/jhoicas/form-reporting-api/internal/domain"
	"github.com/jhoicas/form-reporting-api/internal/domain/access"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/jhoicas/form-reporting-api/internal/domain/repository"
)

// ── Regiones ──────────────────────────────────────────────────────────────────

// RegionUseCase alta, baja y consulta de regiones.
type RegionUseCase struct {
	repo repository.RegionRepository
	now  func() time.Time
}

// NewRegionUseCase construye el caso de uso de regiones.
func NewRegionUseCase(repo repository.RegionRepository) *RegionUseCase {
	return &RegionUseCase{repo: repo, now: time.Now}
}

// List regiones ordenadas por número.
func (uc *RegionUseCase) List(ctx context.Context, in dto.PageRequest) (dto.ListResponse[dto.RegionResponse], error) {
	in.DefaultPage()
	regions, total, err := uc.repo.List(ctx, nil, repository.ListParams{Search: strings.TrimSpace(in.Search), Limit: in.Limit, Offset: in.Offset})
	if err != nil {
		return dto.ListResponse[dto.RegionResponse]{}, err
	}
	out := make([]dto.RegionResponse, 0, len(regions))
	for _, r := range regions {
		out = append(out, toRegionResponse(r, 0))
	}
	return dto.NewList(out, in, total), nil
}

// GetByID región con la cantidad de tenants activos.
func (uc *RegionUseCase) GetByID(ctx context.Context, id string) (*dto.RegionResponse, error) {
	region, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	n, err := uc.repo.CountTenants(ctx, id)
	if err != nil {
		return nil, err
	}
	out := toRegionResponse(region, n)
	return &out, nil
}

func (uc *RegionUseCase) load(ctx context.Context, id string) (*entity.Region, error) {
	region, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if region == nil {
		return nil, domain.ErrNotFound
	}
	return region, nil
}

// Create alta de región; número y código únicos.
func (uc *RegionUseCase) Create(ctx context.Context, in dto.RegionRequest) (*dto.RegionResponse, error) {
	now := uc.now()
	region := &entity.Region{
		RegionNumber:          in.RegionNumber,
		RegionName:            strings.TrimSpace(in.RegionName),
		RegionCode:            normalizeCode(in.RegionCode),
		RegionalManagerUserID: emptyToNil(in.RegionalManagerUserID),
		IsActive:              true,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := uc.validate(ctx, region); err != nil {
		return nil, err
	}
	if err := uc.repo.Create(ctx, region); err != nil {
		return nil, err
	}
	out := toRegionResponse(region, 0)
	return &out, nil
}

// Update modificación de región.
func (uc *RegionUseCase) Update(ctx context.Context, id string, in dto.RegionRequest) (*dto.RegionResponse, error) {
	region, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	region.RegionNumber = in.RegionNumber
	region.RegionName = strings.TrimSpace(in.RegionName)
	region.RegionCode = normalizeCode(in.RegionCode)
	region.RegionalManagerUserID = emptyToNil(in.RegionalManagerUserID)
	if in.IsActive != nil {
		region.IsActive = *in.IsActive
	}
	if err := uc.validate(ctx, region); err != nil {
		return nil, err
	}
	region.UpdatedAt = uc.now()
	if err := uc.repo.Update(ctx, region); err != nil {
		return nil, err
	}
	out := toRegionResponse(region, 0)
	return &out, nil
}

// Delete elimina una región sin tenants.
func (uc *RegionUseCase) Delete(ctx context.Context, id string) error {
	if _, err := uc.load(ctx, id); err != nil {
		return err
	}
	n, err := uc.repo.CountTenants(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return domain.ErrHasDependents
	}
	return uc.repo.Delete(ctx, id)
}

func (uc *RegionUseCase) validate(ctx context.Context, region *entity.Region) error {
	var errs domain.ValidationErrors
	byNumber, err := uc.repo.GetByNumber(ctx, region.RegionNumber)
	if err != nil {
		return err
	}
	if byNumber != nil && byNumber.ID != region.ID {
		errs.Add("region_number", "ya existe una región con ese número")
	}
	byCode, err := uc.repo.GetByCode(ctx, region.RegionCode)
	if err != nil {
		return err
	}
	if byCode != nil && byCode.ID != region.ID {
		errs.Add("region_code", "ya existe una región con ese código")
	}
	return errs.OrNil()
}

func toRegionResponse(r *entity.Region, tenantCount int) dto.RegionResponse {
	return dto.RegionResponse{
		ID:                    r.ID,
		RegionNumber:          r.RegionNumber,
		RegionName:            r.RegionName,
		RegionCode:            r.RegionCode,
		RegionalManagerUserID: r.RegionalManagerUserID,
		IsActive:              r.IsActive,
		TenantCount:           tenantCount,
		CreatedAt:             r.CreatedAt,
		UpdatedAt:             r.UpdatedAt,
	}
}

// ── Departamentos ─────────────────────────────────────────────────────────────

// DepartmentUseCase departamentos jerárquicos dentro de un tenant.
type DepartmentUseCase struct {
	repo    repository.DepartmentRepository
	tenants repository.TenantRepository
	users   repository.UserRepository
	scope   TenantScope
	now     func() time.Time
}

// NewDepartmentUseCase construye el caso de uso de departamentos.
func NewDepartmentUseCase(repo repository.DepartmentRepository, tenants repository.TenantRepository, users repository.UserRepository, scope TenantScope) *DepartmentUseCase {
	return &DepartmentUseCase{repo: repo, tenants: tenants, users: users, scope: scope, now: time.Now}
}

func (uc *DepartmentUseCase) checkTenant(ctx context.Context, c *access.Claims, tenantID string) error {
	ok, err := uc.scope.CanAccessTenant(ctx, c, tenantID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrForbidden
	}
	return nil
}

// ListByTenant departamentos de un tenant, planos.
func (uc *DepartmentUseCase) ListByTenant(ctx context.Context, c *access.Claims, tenantID string) ([]dto.DepartmentResponse, error) {
	if err := uc.checkTenant(ctx, c, tenantID); err != nil {
		return nil, err
	}
	depts, err := uc.repo.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.DepartmentResponse, 0, len(depts))
	for _, d := range depts {
		out = append(out, toDepartmentResponse(d))
	}
	return out, nil
}

// Tree departamentos de un tenant como árbol. Los huérfanos quedan como raíces.
func (uc *DepartmentUseCase) Tree(ctx context.Context, c *access.Claims, tenantID string) ([]*dto.DepartmentNode, error) {
	if err := uc.checkTenant(ctx, c, tenantID); err != nil {
		return nil, err
	}
	depts, err := uc.repo.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	nodes := make(map[string]*dto.DepartmentNode, len(depts))
	for _, d := range depts {
		nodes[d.ID] = &dto.DepartmentNode{DepartmentResponse: toDepartmentResponse(d), Children: []*dto.DepartmentNode{}}
	}
	roots := []*dto.DepartmentNode{}
	for _, d := range depts {
		n := nodes[d.ID]
		if d.ParentDepartmentID != nil {
			if parent, ok := nodes[*d.ParentDepartmentID]; ok {
				parent.Children = append(parent.Children, n)
				continue
			}
		}
		roots = append(roots, n)
	}
	return roots, nil
}

// GetByID departamento individual.
func (uc *DepartmentUseCase) GetByID(ctx context.Context, c *access.Claims, id string) (*dto.DepartmentResponse, error) {
	d, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := uc.checkTenant(ctx, c, d.TenantID); err != nil {
		return nil, err
	}
	out := toDepartmentResponse(d)
	return &out, nil
}

func (uc *DepartmentUseCase) load(ctx context.Context, id string) (*entity.Department, error) {
	d, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, domain.ErrNotFound
	}
	return d, nil
}

// Create alta de departamento; código único dentro del tenant.
func (uc *DepartmentUseCase) Create(ctx context.Context, c *access.Claims, in dto.DepartmentRequest) (*dto.DepartmentResponse, error) {
	if err := uc.checkTenant(ctx, c, in.TenantID); err != nil {
		return nil, err
	}
	now := uc.now()
	d := &entity.Department{
		TenantID:           in.TenantID,
		ParentDepartmentID: emptyToNil(in.ParentDepartmentID),
		DepartmentCode:     normalizeCode(in.DepartmentCode),
		DepartmentName:     strings.TrimSpace(in.DepartmentName),
		Description:        strings.TrimSpace(in.Description),
		IsActive:           true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := uc.validate(ctx, d); err != nil {
		return nil, err
	}
	if err := uc.repo.Create(ctx, d); err != nil {
		return nil, err
	}
	out := toDepartmentResponse(d)
	return &out, nil
}

// Update modificación de departamento. El padre no puede ser un descendiente.
func (uc *DepartmentUseCase) Update(ctx context.Context, c *access.Claims, id string, in dto.DepartmentRequest) (*dto.DepartmentResponse, error) {
	d, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := uc.checkTenant(ctx, c, d.TenantID); err != nil {
		return nil, err
	}
	if in.TenantID != d.TenantID {
		return nil, domain.Invalid("tenant_id", "un departamento no puede cambiar de tenant")
	}
	d.ParentDepartmentID = emptyToNil(in.ParentDepartmentID)
	d.DepartmentCode = normalizeCode(in.DepartmentCode)
	d.DepartmentName = strings.TrimSpace(in.DepartmentName)
	d.Description = strings.TrimSpace(in.Description)
	if in.IsActive != nil {
		d.IsActive = *in.IsActive
	}
	if err := uc.validate(ctx, d); err != nil {
		return nil, err
	}
	d.UpdatedAt = uc.now()
	if err := uc.repo.Update(ctx, d); err != nil {
		return nil, err
	}
	out := toDepartmentResponse(d)
	return &out, nil
}

// Delete elimina un departamento sin usuarios ni subdepartamentos.
func (uc *DepartmentUseCase) Delete(ctx context.Context, c *access.Claims, id string) error {
	d, err := uc.load(ctx, id)
	if err != nil {
		return err
	}
	if err := uc.checkTenant(ctx, c, d.TenantID); err != nil {
		return err
	}
	users, err := uc.users.CountByDepartment(ctx, id)
	if err != nil {
		return err
	}
	children, err := uc.repo.CountChildren(ctx, id)
	if err != nil {
		return err
	}
	if users > 0 || children > 0 {
		return domain.ErrHasDependents
	}
	return uc.repo.Delete(ctx, id)
}

func (uc *DepartmentUseCase) validate(ctx context.Context, d *entity.Department) error {
	tenant, err := uc.tenants.GetByID(ctx, d.TenantID)
	if err != nil {
		return err
	}
	if tenant == nil {
		return domain.Invalid("tenant_id", "tenant inexistente")
	}
	var errs domain.ValidationErrors
	byCode, err := uc.repo.GetByCode(ctx, d.TenantID, d.DepartmentCode)
	if err != nil {
		return err
	}
	if byCode != nil && byCode.ID != d.ID {
		errs.Add("department_code", "ya existe un departamento con ese código en el tenant")
	}
	if d.ParentDepartmentID != nil {
		msg, err := uc.checkParent(ctx, d)
		if err != nil {
			return err
		}
		if msg != "" {
			errs.Add("parent_department_id", msg)
		}
	}
	return errs.OrNil()
}

// checkParent el padre existe, pertenece al mismo tenant y no genera ciclos.
// Devuelve el motivo del rechazo o "" si es válido.
func (uc *DepartmentUseCase) checkParent(ctx context.Context, d *entity.Department) (string, error) {
	depts, err := uc.repo.ListByTenant(ctx, d.TenantID)
	if err != nil {
		return "", err
	}
	byID := make(map[string]*entity.Department, len(depts))
	for _, x := range depts {
		byID[x.ID] = x
	}
	parentID := *d.ParentDepartmentID
	if _, ok := byID[parentID]; !ok {
		return "el padre debe ser un departamento del mismo tenant", nil
	}
	for cur, hops := parentID, 0; hops <= len(depts); hops++ {
		if cur == d.ID {
			return "la jerarquía no puede tener ciclos", nil
		}
		p := byID[cur]
		if p == nil || p.ParentDepartmentID == nil {
			break
		}
		cur = *p.ParentDepartmentID
	}
	return "", nil
}

// leavesFirst ordena departamentos de modo que cada hijo preceda a su padre.
func leavesFirst(depts []*entity.Department) []*entity.Department {
	byID := make(map[string]*entity.Department, len(depts))
	for _, d := range depts {
		byID[d.ID] = d
	}
	depth := make(map[string]int, len(depts))
	for _, d := range depts {
		n := 0
		for p := d; p.ParentDepartmentID != nil && n <= len(depts); n++ {
			next, ok := byID[*p.ParentDepartmentID]
			if !ok {
				break
			}
			p = next
		}
		depth[d.ID] = n
	}
	out := append([]*entity.Department(nil), depts...)
	sort.SliceStable(out, func(i, j int) bool { return depth[out[i].ID] > depth[out[j].ID] })
	return out
}

func toDepartmentResponse(d *entity.Department) dto.DepartmentResponse {
	return dto.DepartmentResponse{
		ID:                 d.ID,
		TenantID:           d.TenantID,
		ParentDepartmentID: d.ParentDepartmentID,
		DepartmentCode:     d.DepartmentCode,
		DepartmentName:     d.DepartmentName,
		Description:        d.Description,
		IsActive:           d.IsActive,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}
}

// ── Grupos de tenants ─────────────────────────────────────────────────────────

// TenantGroupUseCase grupos libres de tenants.
type TenantGroupUseCase struct {
	repo    repository.TenantGroupRepository
	tenants repository.TenantRepository
	now     func() time.Time
}

// NewTenantGroupUseCase construye el caso de uso de grupos.
func NewTenantGroupUseCase(repo repository.TenantGroupRepository, tenants repository.TenantRepository) *TenantGroupUseCase {
	return &TenantGroupUseCase{repo: repo, tenants: tenants, now: time.Now}
}

// List grupos paginados sin miembros.
func (uc *TenantGroupUseCase) List(ctx context.Context, in dto.PageRequest) (dto.ListResponse[dto.TenantGroupResponse], error) {
	in.DefaultPage()
	groups, total, err := uc.repo.List(ctx, repository.ListParams{Search: strings.TrimSpace(in.Search), Limit: in.Limit, Offset: in.Offset})
	if err != nil {
		return dto.ListResponse[dto.TenantGroupResponse]{}, err
	}
	out := make([]dto.TenantGroupResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, toGroupResponse(g, nil))
	}
	return dto.NewList(out, in, total), nil
}

// GetByID grupo con sus miembros.
func (uc *TenantGroupUseCase) GetByID(ctx context.Context, id string) (*dto.TenantGroupResponse, error) {
	g, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	members, err := uc.repo.ListMembers(ctx, id)
	if err != nil {
		return nil, err
	}
	out := toGroupResponse(g, members)
	return &out, nil
}

func (uc *TenantGroupUseCase) load(ctx context.Context, id string) (*entity.TenantGroup, error) {
	g, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, domain.ErrNotFound
	}
	return g, nil
}

// Create alta de grupo; código único.
func (uc *TenantGroupUseCase) Create(ctx context.Context, actorID string, in dto.TenantGroupRequest) (*dto.TenantGroupResponse, error) {
	now := uc.now()
	g := &entity.TenantGroup{
		GroupName:   strings.TrimSpace(in.GroupName),
		GroupCode:   normalizeCode(in.GroupCode),
		Description: strings.TrimSpace(in.Description),
		IsActive:    true,
		CreatedBy:   actorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.checkCode(ctx, g); err != nil {
		return nil, err
	}
	if err := uc.repo.Create(ctx, g); err != nil {
		return nil, err
	}
	out := toGroupResponse(g, nil)
	return &out, nil
}

// Update modificación de grupo.
func (uc *TenantGroupUseCase) Update(ctx context.Context, id string, in dto.TenantGroupRequest) (*dto.TenantGroupResponse, error) {
	g, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	g.GroupName = strings.TrimSpace(in.GroupName)
	g.GroupCode = normalizeCode(in.GroupCode)
	g.Description = strings.TrimSpace(in.Description)
	if in.IsActive != nil {
		g.IsActive = *in.IsActive
	}
	if err := uc.checkCode(ctx, g); err != nil {
		return nil, err
	}
	g.UpdatedAt = uc.now()
	if err := uc.repo.Update(ctx, g); err != nil {
		return nil, err
	}
	out := toGroupResponse(g, nil)
	return &out, nil
}

// Delete elimina el grupo y sus membresías.
func (uc *TenantGroupUseCase) Delete(ctx context.Context, id string) error {
	if _, err := uc.load(ctx, id); err != nil {
		return err
	}
	return uc.repo.Delete(ctx, id)
}

// AddMembers agrega tenants existentes al grupo.
func (uc *TenantGroupUseCase) AddMembers(ctx context.Context, actorID, id string, in dto.GroupMembersRequest) error {
	if _, err := uc.load(ctx, id); err != nil {
		return err
	}
	now := uc.now()
	for _, tid := range in.TenantIDs {
		t, err := uc.tenants.GetByID(ctx, tid)
		if err != nil {
			return err
		}
		if t == nil {
			return domain.Invalid("tenant_ids", "tenant inexistente: %s", tid)
		}
		if err := uc.repo.AddMember(ctx, &entity.TenantGroupMember{GroupID: id, TenantID: tid, AddedBy: actorID, AddedAt: now}); err != nil {
			return err
		}
	}
	return nil
}

// RemoveMember quita un tenant del grupo.
func (uc *TenantGroupUseCase) RemoveMember(ctx context.Context, id, tenantID string) error {
	if _, err := uc.load(ctx, id); err != nil {
		return err
	}
	return uc.repo.RemoveMember(ctx, id, tenantID)
}

func (uc *TenantGroupUseCase) checkCode(ctx context.Context, g *entity.TenantGroup) error {
	byCode, err := uc.repo.GetByCode(ctx, g.GroupCode)
	if err != nil {
		return err
	}
	if byCode != nil && byCode.ID != g.ID {
		return domain.Invalid("group_code", "ya existe un grupo con ese código")
	}
	return nil
}

func toGroupResponse(g *entity.TenantGroup, members []*entity.Tenant) dto.TenantGroupResponse {
	out := dto.TenantGroupResponse{
		ID:          g.ID,
		GroupName:   g.GroupName,
		GroupCode:   g.GroupCode,
		Description: g.Description,
		IsActive:    g.IsActive,
		CreatedAt:   g.CreatedAt,
	}
	for _, m := range members {
		out.Members = append(out.Members, toTenantResponse(m, nil))
	}
	return out
}
