package postgres

import (
	"context"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/jhoicas/form-reporting-api/internal/domain/repository"
)

var (
	_ repository.RegionRepository      = (*RegionRepo)(nil)
	_ repository.TenantRepository      = (*TenantRepo)(nil)
	_ repository.DepartmentRepository  = (*DepartmentRepo)(nil)
	_ repository.TenantGroupRepository = (*TenantGroupRepo)(nil)
)

// ── Regiones ──────────────────────────────────────────────────────────────────

// RegionRepo persistencia de regiones.
type RegionRepo struct {
	q Querier
}

// NewRegionRepository construye el adaptador de regiones.
func NewRegionRepository(q Querier) *RegionRepo {
	return &RegionRepo{q: q}
}

func selectRegions() sq.SelectBuilder {
	return builder().
		Select("id", "region_number", "region_name", "region_code", "regional_manager_user_id", "is_active", "created_at", "updated_at").
		From("regions")
}

func scanRegion(s scanner) (*entity.Region, error) {
	var r entity.Region
	err := s.Scan(&r.ID, &r.RegionNumber, &r.RegionName, &r.RegionCode, &r.RegionalManagerUserID, &r.IsActive, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *RegionRepo) Create(ctx context.Context, region *entity.Region) error {
	ensureID(&region.ID)
	stamp(&region.CreatedAt, &region.UpdatedAt)
	_, err := r.q.Exec(ctx, `
		INSERT INTO regions (id, region_number, region_name, region_code, regional_manager_user_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		region.ID, region.RegionNumber, region.RegionName, region.RegionCode, region.RegionalManagerUserID,
		region.IsActive, region.CreatedAt, region.UpdatedAt)
	return wrapErr("insert region", err)
}

func (r *RegionRepo) Update(ctx context.Context, region *entity.Region) error {
	stamp(&region.UpdatedAt)
	tag, err := r.q.Exec(ctx, `
		UPDATE regions SET region_number = $2, region_name = $3, region_code = $4, regional_manager_user_id = $5,
			is_active = $6, updated_at = $7
		WHERE id = $1`,
		region.ID, region.RegionNumber, region.RegionName, region.RegionCode, region.RegionalManagerUserID,
		region.IsActive, region.UpdatedAt)
	return mustAffect(tag, wrapErr("update region", err))
}

func (r *RegionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM regions WHERE id = $1`, id)
	return wrapErr("delete region", err)
}

func (r *RegionRepo) GetByID(ctx context.Context, id string) (*entity.Region, error) {
	return selectOne(ctx, r.q, "get region", selectRegions().Where(sq.Eq{"id": id}), scanRegion)
}

func (r *RegionRepo) GetByCode(ctx context.Context, code string) (*entity.Region, error) {
	b := selectRegions().Where(sq.Expr("lower(region_code) = lower(?)", strings.TrimSpace(code)))
	return selectOne(ctx, r.q, "get region by code", b, scanRegion)
}

func (r *RegionRepo) GetByNumber(ctx context.Context, number int) (*entity.Region, error) {
	return selectOne(ctx, r.q, "get region by number", selectRegions().Where(sq.Eq{"region_number": number}), scanRegion)
}

func (r *RegionRepo) List(ctx context.Context, ids []string, p repository.ListParams) ([]*entity.Region, int, error) {
	where := sq.And{}
	if ids != nil {
		where = append(where, inIDs("id", ids))
	}
	if p.OnlyActive {
		where = append(where, sq.Eq{"is_active": true})
	}
	if strings.TrimSpace(p.Search) != "" {
		where = append(where, ilike(p.Search, "region_name", "region_code"))
	}
	total, err := count(ctx, r.q, "count regions", builder().Select("COUNT(*)").From("regions").Where(where))
	if err != nil {
		return nil, 0, err
	}
	regions, err := selectAll(ctx, r.q, "list regions", page(selectRegions().Where(where).OrderBy("region_number"), p.Limit, p.Offset), scanRegion)
	return regions, total, err
}

// CountTenants tenants activos de la región.
func (r *RegionRepo) CountTenants(ctx context.Context, regionID string) (int, error) {
	b := builder().Select("COUNT(*)").From("tenants").Where(sq.Eq{"region_id": regionID, "is_active": true})
	return count(ctx, r.q, "count region tenants", b)
}

// ── Tenants ───────────────────────────────────────────────────────────────────

// TenantRepo persistencia de tenants.
type TenantRepo struct {
	q Querier
}

// NewTenantRepository construye el adaptador de tenants.
func NewTenantRepository(q Querier) *TenantRepo {
	return &TenantRepo{q: q}
}

func selectTenants() sq.SelectBuilder {
	return builder().
		Select("t.id", "t.tenant_type", "t.tenant_code", "t.tenant_name", "t.region_id", "t.location",
			"t.latitude", "t.longitude", "t.contact_phone", "t.contact_email", "t.manager_user_id",
			"t.ict_support_user_id", "t.is_active", "t.created_by", "t.updated_by", "t.created_at", "t.updated_at",
			"COALESCE(r.region_name, '')").
		From("tenants t").
		LeftJoin("regions r ON r.id = t.region_id")
}

func scanTenant(s scanner) (*entity.Tenant, error) {
	var t entity.Tenant
	err := s.Scan(&t.ID, &t.TenantType, &t.TenantCode, &t.TenantName, &t.RegionID, &t.Location,
		&t.Latitude, &t.Longitude, &t.ContactPhone, &t.ContactEmail, &t.ManagerUserID,
		&t.ICTSupportUserID, &t.IsActive, &t.CreatedBy, &t.UpdatedBy, &t.CreatedAt, &t.UpdatedAt,
		&t.RegionName)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TenantRepo) Create(ctx context.Context, t *entity.Tenant) error {
	ensureID(&t.ID)
	stamp(&t.CreatedAt, &t.UpdatedAt)
	_, err := r.q.Exec(ctx, `
		INSERT INTO tenants (id, tenant_type, tenant_code, tenant_name, region_id, location, latitude, longitude,
			contact_phone, contact_email, manager_user_id, ict_support_user_id, is_active, created_by, updated_by,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		t.ID, t.TenantType, t.TenantCode, t.TenantName, t.RegionID, t.Location, t.Latitude, t.Longitude,
		t.ContactPhone, t.ContactEmail, t.ManagerUserID, t.ICTSupportUserID, t.IsActive, t.CreatedBy, t.UpdatedBy,
		t.CreatedAt, t.UpdatedAt)
	return wrapErr("insert tenant", err)
}

func (r *TenantRepo) Update(ctx context.Context, t *entity.Tenant) error {
	stamp(&t.UpdatedAt)
	tag, err := r.q.Exec(ctx, `
		UPDATE tenants SET tenant_type = $2, tenant_code = $3, tenant_name = $4, region_id = $5, location = $6,
			latitude = $7, longitude = $8, contact_phone = $9, contact_email = $10, manager_user_id = $11,
			ict_support_user_id = $12, is_active = $13, updated_by = $14, updated_at = $15
		WHERE id = $1`,
		t.ID, t.TenantType, t.TenantCode, t.TenantName, t.RegionID, t.Location,
		t.Latitude, t.Longitude, t.ContactPhone, t.ContactEmail, t.ManagerUserID,
		t.ICTSupportUserID, t.IsActive, t.UpdatedBy, t.UpdatedAt)
	return mustAffect(tag, wrapErr("update tenant", err))
}

func (r *TenantRepo) Delete(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM tenants WHERE id = $1`, id)
	return wrapErr("delete tenant", err)
}

func (r *TenantRepo) GetByID(ctx context.Context, id string) (*entity.Tenant, error) {
	return selectOne(ctx, r.q, "get tenant", selectTenants().Where(sq.Eq{"t.id": id}), scanTenant)
}

func (r *TenantRepo) GetByCode(ctx context.Context, code string) (*entity.Tenant, error) {
	b := selectTenants().Where(sq.Expr("lower(t.tenant_code) = lower(?)", strings.TrimSpace(code)))
	return selectOne(ctx, r.q, "get tenant by code", b, scanTenant)
}

func (r *TenantRepo) List(ctx context.Context, f repository.TenantFilter) ([]*entity.Tenant, int, error) {
	where := sq.And{}
	if f.IDs != nil {
		where = append(where, inIDs("t.id", f.IDs))
	}
	if f.RegionID != "" {
		where = append(where, sq.Eq{"t.region_id": f.RegionID})
	}
	if f.TenantType != "" {
		where = append(where, sq.Eq{"t.tenant_type": f.TenantType})
	}
	if f.OnlyActive {
		where = append(where, sq.Eq{"t.is_active": true})
	}
	if strings.TrimSpace(f.Search) != "" {
		where = append(where, ilike(f.Search, "t.tenant_name", "t.tenant_code", "t.location"))
	}
	total, err := count(ctx, r.q, "count tenants", builder().Select("COUNT(*)").From("tenants t").Where(where))
	if err != nil {
		return nil, 0, err
	}
	b := page(selectTenants().Where(where).OrderBy("COALESCE(r.region_name, '')", "t.tenant_name"), f.Limit, f.Offset)
	tenants, err := selectAll(ctx, r.q, "list tenants", b, scanTenant)
	return tenants, total, err
}

func (r *TenantRepo) CountByType(ctx context.Context, tenantType string) (int, error) {
	return count(ctx, r.q, "count tenants by type", builder().Select("COUNT(*)").From("tenants").Where(sq.Eq{"tenant_type": tenantType}))
}

func (r *TenantRepo) ListActiveIDs(ctx context.Context) ([]string, error) {
	return selectStrings(ctx, r.q, "list active tenants", `SELECT id::text FROM tenants WHERE is_active ORDER BY id`)
}

func (r *TenantRepo) ListActiveIDsByRegion(ctx context.Context, regionID string) ([]string, error) {
	return selectStrings(ctx, r.q, "list active tenants by region",
		`SELECT id::text FROM tenants WHERE is_active AND region_id = $1 ORDER BY id`, regionID)
}

// ── Departamentos ─────────────────────────────────────────────────────────────

// DepartmentRepo persistencia de departamentos.
type DepartmentRepo struct {
	q Querier
}

// NewDepartmentRepository construye el adaptador de departamentos.
func NewDepartmentRepository(q Querier) *DepartmentRepo {
	return &DepartmentRepo{q: q}
}

func selectDepartments() sq.SelectBuilder {
	return builder().
		Select("id", "tenant_id", "parent_department_id", "department_name", "department_code", "description",
			"is_active", "created_at", "updated_at").
		From("departments")
}

func scanDepartment(s scanner) (*entity.Department, error) {
	var d entity.Department
	err := s.Scan(&d.ID, &d.TenantID, &d.ParentDepartmentID, &d.DepartmentName, &d.DepartmentCode, &d.Description,
		&d.IsActive, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DepartmentRepo) Create(ctx context.Context, d *entity.Department) error {
	ensureID(&d.ID)
	stamp(&d.CreatedAt, &d.UpdatedAt)
	_, err := r.q.Exec(ctx, `
		INSERT INTO departments (id, tenant_id, parent_department_id, department_name, department_code, description,
			is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		d.ID, d.TenantID, d.ParentDepartmentID, d.DepartmentName, d.DepartmentCode, d.Description,
		d.IsActive, d.CreatedAt, d.UpdatedAt)
	return wrapErr("insert department", err)
}

func (r *DepartmentRepo) Update(ctx context.Context, d *entity.Department) error {
	stamp(&d.UpdatedAt)
	tag, err := r.q.Exec(ctx, `
		UPDATE departments SET parent_department_id = $2, department_name = $3, department_code = $4,
			description = $5, is_active = $6, updated_at = $7
		WHERE id = $1`,
		d.ID, d.ParentDepartmentID, d.DepartmentName, d.DepartmentCode, d.Description, d.IsActive, d.UpdatedAt)
	return mustAffect(tag, wrapErr("update department", err))
}

func (r *DepartmentRepo) Delete(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM departments WHERE id = $1`, id)
	return wrapErr("delete department", err)
}

func (r *DepartmentRepo) GetByID(ctx context.Context, id string) (*entity.Department, error) {
	return selectOne(ctx, r.q, "get department", selectDepartments().Where(sq.Eq{"id": id}), scanDepartment)
}

func (r *DepartmentRepo) GetByCode(ctx context.Context, tenantID, code string) (*entity.Department, error) {
	b := selectDepartments().
		Where(sq.Eq{"tenant_id": tenantID}).
		Where(sq.Expr("lower(department_code) = lower(?)", strings.TrimSpace(code)))
	return selectOne(ctx, r.q, "get department by code", b, scanDepartment)
}

func (r *DepartmentRepo) ListByTenant(ctx context.Context, tenantID string) ([]*entity.Department, error) {
	b := selectDepartments().Where(sq.Eq{"tenant_id": tenantID}).OrderBy("department_name")
	return selectAll(ctx, r.q, "list departments", b, scanDepartment)
}

func (r *DepartmentRepo) CountChildren(ctx context.Context, id string) (int, error) {
	return count(ctx, r.q, "count child departments", builder().Select("COUNT(*)").From("departments").Where(sq.Eq{"parent_department_id": id}))
}

// ── Grupos de tenants ─────────────────────────────────────────────────────────

// TenantGroupRepo persistencia de grupos de tenants.
type TenantGroupRepo struct {
	q Querier
}

// NewTenantGroupRepository construye el adaptador de grupos.
func NewTenantGroupRepository(q Querier) *TenantGroupRepo {
	return &TenantGroupRepo{q: q}
}

func selectGroups() sq.SelectBuilder {
	return builder().
		Select("id", "group_name", "group_code", "description", "is_active", "created_by", "created_at", "updated_at").
		From("tenant_groups")
}

func scanGroup(s scanner) (*entity.TenantGroup, error) {
	var g entity.TenantGroup
	if err := s.Scan(&g.ID, &g.GroupName, &g.GroupCode, &g.Description, &g.IsActive, &g.CreatedBy, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *TenantGroupRepo) Create(ctx context.Context, g *entity.TenantGroup) error {
	ensureID(&g.ID)
	stamp(&g.CreatedAt, &g.UpdatedAt)
	_, err := r.q.Exec(ctx, `
		INSERT INTO tenant_groups (id, group_name, group_code, description, is_active, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		g.ID, g.GroupName, g.GroupCode, g.Description, g.IsActive, g.CreatedBy, g.CreatedAt, g.UpdatedAt)
	return wrapErr("insert tenant group", err)
}

func (r *TenantGroupRepo) Update(ctx context.Context, g *entity.TenantGroup) error {
	stamp(&g.UpdatedAt)
	tag, err := r.q.Exec(ctx, `
		UPDATE tenant_groups SET group_name = $2, group_code = $3, description = $4, is_active = $5, updated_at = $6
		WHERE id = $1`,
		g.ID, g.GroupName, g.GroupCode, g.Description, g.IsActive, g.UpdatedAt)
	return mustAffect(tag, wrapErr("update tenant group", err))
}

// Delete borra el grupo; la membresía cae en cascada.
func (r *TenantGroupRepo) Delete(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM tenant_groups WHERE id = $1`, id)
	return wrapErr("delete tenant group", err)
}

func (r *TenantGroupRepo) GetByID(ctx context.Context, id string) (*entity.TenantGroup, error) {
	return selectOne(ctx, r.q, "get tenant group", selectGroups().Where(sq.Eq{"id": id}), scanGroup)
}

func (r *TenantGroupRepo) GetByCode(ctx context.Context, code string) (*entity.TenantGroup, error) {
	b := selectGroups().Where(sq.Expr("lower(group_code) = lower(?)", strings.TrimSpace(code)))
	return selectOne(ctx, r.q, "get tenant group by code", b, scanGroup)
}

func (r *TenantGroupRepo) List(ctx context.Context, p repository.ListParams) ([]*entity.TenantGroup, int, error) {
	where := sq.And{}
	if p.OnlyActive {
		where = append(where, sq.Eq{"is_active": true})
	}
	if strings.TrimSpace(p.Search) != "" {
		where = append(where, ilike(p.Search, "group_name", "group_code"))
	}
	total, err := count(ctx, r.q, "count tenant groups", builder().Select("COUNT(*)").From("tenant_groups").Where(where))
	if err != nil {
		return nil, 0, err
	}
	groups, err := selectAll(ctx, r.q, "list tenant groups", page(selectGroups().Where(where).OrderBy("group_name"), p.Limit, p.Offset), scanGroup)
	return groups, total, err
}

// AddMember ErrDuplicate si el tenant ya pertenece al grupo.
func (r *TenantGroupRepo) AddMember(ctx context.Context, m *entity.TenantGroupMember) error {
	if m.AddedAt.IsZero() {
		m.AddedAt = time.Now().UTC()
	}
	_, err := r.q.Exec(ctx,
		`INSERT INTO tenant_group_members (group_id, tenant_id, added_by, added_at) VALUES ($1, $2, $3, $4)`,
		m.GroupID, m.TenantID, m.AddedBy, m.AddedAt)
	return wrapErr("add tenant group member", err)
}

func (r *TenantGroupRepo) RemoveMember(ctx context.Context, groupID, tenantID string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM tenant_group_members WHERE group_id = $1 AND tenant_id = $2`, groupID, tenantID)
	return wrapErr("remove tenant group member", err)
}

// ListMembers tenants del grupo en orden de incorporación.
func (r *TenantGroupRepo) ListMembers(ctx context.Context, groupID string) ([]*entity.Tenant, error) {
	b := selectTenants().
		Join("tenant_group_members m ON m.tenant_id = t.id").
		Where(sq.Eq{"m.group_id": groupID}).
		OrderBy("m.added_at", "t.tenant_name")
	return selectAll(ctx, r.q, "list tenant group members", b, scanTenant)
}
