// Package apptest repositorios y puertos en memoria para los tests de casos de uso.
// Cada fake embebe la interfaz que implementa: un método no sobrescrito provoca panic.
package apptest

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jhoicas/form-reporting-api/internal/domain"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/jhoicas/form-reporting-api/internal/domain/repository"
)

func newID() string { return uuid.New().String() }

func page[T any](items []T, limit, offset int) []T {
	if offset > len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func contains(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// ── Usuarios ──────────────────────────────────────────────────────────────────

// Users fake de repository.UserRepository.
type Users struct {
	repository.UserRepository
	mu          sync.Mutex
	Items       map[string]*entity.User
	Roles       map[string][]*entity.Role
	Permissions map[string][]string
	Access      map[string][]*entity.UserTenantAccess
	Updates     int
}

// NewUsers fake vacío.
func NewUsers() *Users {
	return &Users{
		Items:       map[string]*entity.User{},
		Roles:       map[string][]*entity.Role{},
		Permissions: map[string][]string{},
		Access:      map[string][]*entity.UserTenantAccess{},
	}
}

func (r *Users) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == "" {
		u.ID = newID()
	}
	cp := *u
	r.Items[u.ID] = &cp
	return nil
}

func (r *Users) Update(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Items[u.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *u
	r.Items[u.ID] = &cp
	r.Updates++
	return nil
}

func (r *Users) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.Items[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *Users) GetByLogin(_ context.Context, login string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.Items {
		if strings.EqualFold(u.UserName, login) || strings.EqualFold(u.Email, login) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *Users) ExistsUserName(_ context.Context, userName, excludeID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.Items {
		if u.ID != excludeID && strings.EqualFold(u.UserName, userName) {
			return true, nil
		}
	}
	return false, nil
}

func (r *Users) ExistsEmail(_ context.Context, email, excludeID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.Items {
		if u.ID != excludeID && strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (r *Users) List(_ context.Context, f repository.UserFilter) ([]*entity.User, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.User
	for _, u := range r.Items {
		if f.TenantIDs != nil && !slices.Contains(f.TenantIDs, u.TenantID) {
			continue
		}
		if f.DepartmentID != "" && (u.DepartmentID == nil || *u.DepartmentID != f.DepartmentID) {
			continue
		}
		if f.UserID != "" && u.ID != f.UserID {
			continue
		}
		if f.OnlyActive && !u.IsActive {
			continue
		}
		if f.Search != "" && !contains(u.FirstName, f.Search) && !contains(u.LastName, f.Search) &&
			!contains(u.Email, f.Search) && !contains(u.UserName, f.Search) && !contains(u.EmployeeNumber, f.Search) {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FirstName != out[j].FirstName {
			return out[i].FirstName < out[j].FirstName
		}
		return out[i].LastName < out[j].LastName
	})
	return page(out, f.Limit, f.Offset), len(out), nil
}

func (r *Users) CountByTenant(_ context.Context, tenantID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, u := range r.Items {
		if u.TenantID == tenantID {
			n++
		}
	}
	return n, nil
}

func (r *Users) CountByDepartment(_ context.Context, departmentID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, u := range r.Items {
		if u.DepartmentID != nil && *u.DepartmentID == departmentID {
			n++
		}
	}
	return n, nil
}

func (r *Users) ListRoles(_ context.Context, userID string) ([]*entity.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Roles[userID], nil
}

func (r *Users) ReplaceRoles(_ context.Context, userID string, roleIDs []string, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	roles := make([]*entity.Role, 0, len(roleIDs))
	for _, id := range roleIDs {
		roles = append(roles, &entity.Role{ID: id, IsActive: true})
	}
	r.Roles[userID] = roles
	return nil
}

func (r *Users) ListPermissionCodes(_ context.Context, userID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Permissions[userID], nil
}

func (r *Users) ListTenantAccess(_ context.Context, userID string) ([]*entity.UserTenantAccess, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Access[userID], nil
}

func (r *Users) GrantTenantAccess(_ context.Context, a *entity.UserTenantAccess) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ex := range r.Access[a.UserID] {
		if ex.TenantID == a.TenantID && ex.IsActive {
			return domain.ErrDuplicate
		}
	}
	if a.ID == "" {
		a.ID = newID()
	}
	r.Access[a.UserID] = append(r.Access[a.UserID], a)
	return nil
}

func (r *Users) RevokeTenantAccess(_ context.Context, userID, tenantID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ex := range r.Access[userID] {
		if ex.TenantID == tenantID && ex.IsActive {
			ex.IsActive = false
			return nil
		}
	}
	return domain.ErrNotFound
}

// ── Roles ─────────────────────────────────────────────────────────────────────

// Roles fake de repository.RoleRepository.
type Roles struct {
	repository.RoleRepository
	mu          sync.Mutex
	Items       map[string]*entity.Role
	Users       map[string][]string
	Perms       map[string][]string
	Modules     []*entity.Module
	Permissions []*entity.Permission
	Scopes      []*entity.ScopeLevel
}

// NewRoles fake con el catálogo de alcances por defecto.
func NewRoles() *Roles {
	r := &Roles{Items: map[string]*entity.Role{}, Users: map[string][]string{}, Perms: map[string][]string{}}
	for i := range entity.DefaultScopeLevels {
		sl := entity.DefaultScopeLevels[i]
		sl.ID = strings.ToLower(sl.ScopeCode)
		sl.IsActive = true
		r.Scopes = append(r.Scopes, &sl)
	}
	return r
}

func (r *Roles) Create(_ context.Context, role *entity.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if role.ID == "" {
		role.ID = newID()
	}
	cp := *role
	r.Items[role.ID] = &cp
	return nil
}

func (r *Roles) Update(_ context.Context, role *entity.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *role
	r.Items[role.ID] = &cp
	return nil
}

func (r *Roles) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.Items, id)
	return nil
}

func (r *Roles) GetByID(_ context.Context, id string) (*entity.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if role, ok := r.Items[id]; ok {
		cp := *role
		return &cp, nil
	}
	return nil, nil
}

func (r *Roles) GetByCode(_ context.Context, code string) (*entity.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, role := range r.Items {
		if role.RoleCode == code {
			cp := *role
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *Roles) GetByName(_ context.Context, name string) (*entity.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, role := range r.Items {
		if strings.EqualFold(role.RoleName, name) {
			cp := *role
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *Roles) List(_ context.Context, p repository.ListParams) ([]*entity.Role, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Role
	for _, role := range r.Items {
		if p.OnlyActive && !role.IsActive {
			continue
		}
		if p.Search != "" && !contains(role.RoleName, p.Search) && !contains(role.RoleCode, p.Search) {
			continue
		}
		cp := *role
		cp.UserCount = len(r.Users[role.ID])
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoleName < out[j].RoleName })
	return page(out, p.Limit, p.Offset), len(out), nil
}

func (r *Roles) CountUsers(_ context.Context, roleID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Users[roleID]), nil
}

func (r *Roles) ListUserIDs(_ context.Context, roleID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Users[roleID], nil
}

func (r *Roles) AssignUsers(_ context.Context, roleID string, userIDs []string, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range userIDs {
		if !slices.Contains(r.Users[roleID], id) {
			r.Users[roleID] = append(r.Users[roleID], id)
		}
	}
	return nil
}

func (r *Roles) ListPermissionIDs(_ context.Context, roleID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Perms[roleID], nil
}

func (r *Roles) SetPermissions(_ context.Context, roleID string, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Perms[roleID] = slices.Clone(ids)
	return nil
}

func (r *Roles) ListModules(context.Context) ([]*entity.Module, error) { return r.Modules, nil }

func (r *Roles) ListPermissions(context.Context) ([]*entity.Permission, error) {
	return r.Permissions, nil
}

func (r *Roles) ListScopeLevels(context.Context) ([]*entity.ScopeLevel, error) { return r.Scopes, nil }

func (r *Roles) GetScopeLevel(_ context.Context, id string) (*entity.ScopeLevel, error) {
	for _, sl := range r.Scopes {
		if sl.ID == id {
			return sl, nil
		}
	}
	return nil, nil
}

// ── Regiones ──────────────────────────────────────────────────────────────────

// Regions fake de repository.RegionRepository. Tenants se usa para CountTenants.
type Regions struct {
	repository.RegionRepository
	mu      sync.Mutex
	Items   map[string]*entity.Region
	Tenants *Tenants
}

// NewRegions fake vacío enlazado al fake de tenants.
func NewRegions(tenants *Tenants) *Regions {
	return &Regions{Items: map[string]*entity.Region{}, Tenants: tenants}
}

func (r *Regions) Create(_ context.Context, region *entity.Region) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if region.ID == "" {
		region.ID = newID()
	}
	cp := *region
	r.Items[region.ID] = &cp
	return nil
}

func (r *Regions) Update(_ context.Context, region *entity.Region) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *region
	r.Items[region.ID] = &cp
	return nil
}

func (r *Regions) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.Items, id)
	return nil
}

func (r *Regions) GetByID(_ context.Context, id string) (*entity.Region, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if region, ok := r.Items[id]; ok {
		cp := *region
		return &cp, nil
	}
	return nil, nil
}

func (r *Regions) GetByCode(_ context.Context, code string) (*entity.Region, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, region := range r.Items {
		if strings.EqualFold(region.RegionCode, code) {
			cp := *region
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *Regions) GetByNumber(_ context.Context, number int) (*entity.Region, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, region := range r.Items {
		if region.RegionNumber == number {
			cp := *region
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *Regions) List(_ context.Context, ids []string, p repository.ListParams) ([]*entity.Region, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Region
	for _, region := range r.Items {
		if ids != nil && !slices.Contains(ids, region.ID) {
			continue
		}
		if p.OnlyActive && !region.IsActive {
			continue
		}
		if p.Search != "" && !contains(region.RegionName, p.Search) && !contains(region.RegionCode, p.Search) {
			continue
		}
		cp := *region
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegionNumber < out[j].RegionNumber })
	return page(out, p.Limit, p.Offset), len(out), nil
}

func (r *Regions) CountTenants(ctx context.Context, regionID string) (int, error) {
	ids, err := r.Tenants.ListActiveIDsByRegion(ctx, regionID)
	return len(ids), err
}

// ── Tenants ───────────────────────────────────────────────────────────────────

// Tenants fake de repository.TenantRepository.
type Tenants struct {
	repository.TenantRepository
	mu    sync.Mutex
	Items map[string]*entity.Tenant
}

// NewTenants fake vacío.
func NewTenants() *Tenants { return &Tenants{Items: map[string]*entity.Tenant{}} }

func (r *Tenants) Create(_ context.Context, t *entity.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ex := range r.Items {
		if strings.EqualFold(ex.TenantCode, t.TenantCode) {
			return domain.ErrDuplicate
		}
	}
	if t.ID == "" {
		t.ID = newID()
	}
	cp := *t
	r.Items[t.ID] = &cp
	return nil
}

func (r *Tenants) Update(_ context.Context, t *entity.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	r.Items[t.ID] = &cp
	return nil
}

func (r *Tenants) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.Items, id)
	return nil
}

func (r *Tenants) GetByID(_ context.Context, id string) (*entity.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.Items[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, nil
}

func (r *Tenants) GetByCode(_ context.Context, code string) (*entity.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.Items {
		if strings.EqualFold(t.TenantCode, code) {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *Tenants) List(_ context.Context, f repository.TenantFilter) ([]*entity.Tenant, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Tenant
	for _, t := range r.Items {
		if f.IDs != nil && !slices.Contains(f.IDs, t.ID) {
			continue
		}
		if f.RegionID != "" && (t.RegionID == nil || *t.RegionID != f.RegionID) {
			continue
		}
		if f.TenantType != "" && t.TenantType != f.TenantType {
			continue
		}
		if f.OnlyActive && !t.IsActive {
			continue
		}
		if f.Search != "" && !contains(t.TenantName, f.Search) && !contains(t.TenantCode, f.Search) && !contains(t.Location, f.Search) {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RegionName != out[j].RegionName {
			return out[i].RegionName < out[j].RegionName
		}
		return out[i].TenantName < out[j].TenantName
	})
	return page(out, f.Limit, f.Offset), len(out), nil
}

func (r *Tenants) CountByType(_ context.Context, tenantType string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.Items {
		if t.TenantType == tenantType {
			n++
		}
	}
	return n, nil
}

func (r *Tenants) ListActiveIDs(context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, t := range r.Items {
		if t.IsActive {
			out = append(out, t.ID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *Tenants) ListActiveIDsByRegion(_ context.Context, regionID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, t := range r.Items {
		if t.IsActive && t.RegionID != nil && *t.RegionID == regionID {
			out = append(out, t.ID)
		}
	}
	sort.Strings(out)
	return out, nil
}

// ── Departamentos ─────────────────────────────────────────────────────────────

// Departments fake de repository.DepartmentRepository.
type Departments struct {
	repository.DepartmentRepository
	mu    sync.Mutex
	Items map[string]*entity.Department
}

// NewDepartments fake vacío.
func NewDepartments() *Departments { return &Departments{Items: map[string]*entity.Department{}} }

func (r *Departments) Create(_ context.Context, d *entity.Department) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d.ID == "" {
		d.ID = newID()
	}
	cp := *d
	r.Items[d.ID] = &cp
	return nil
}

func (r *Departments) Update(_ context.Context, d *entity.Department) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *d
	r.Items[d.ID] = &cp
	return nil
}

func (r *Departments) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.Items, id)
	return nil
}

func (r *Departments) GetByID(_ context.Context, id string) (*entity.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.Items[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, nil
}

func (r *Departments) GetByCode(_ context.Context, tenantID, code string) (*entity.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.Items {
		if d.TenantID == tenantID && strings.EqualFold(d.DepartmentCode, code) {
			cp := *d
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *Departments) ListByTenant(_ context.Context, tenantID string) ([]*entity.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Department
	for _, d := range r.Items {
		if d.TenantID == tenantID {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DepartmentName < out[j].DepartmentName })
	return out, nil
}

func (r *Departments) CountChildren(_ context.Context, id string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, d := range r.Items {
		if d.ParentDepartmentID != nil && *d.ParentDepartmentID == id {
			n++
		}
	}
	return n, nil
}

// ── Grupos de tenants ─────────────────────────────────────────────────────────

// Groups fake de repository.TenantGroupRepository.
type Groups struct {
	repository.TenantGroupRepository
	mu      sync.Mutex
	Items   map[string]*entity.TenantGroup
	Members map[string][]string
	Tenants *Tenants
}

// NewGroups fake vacío enlazado al fake de tenants.
func NewGroups(tenants *Tenants) *Groups {
	return &Groups{Items: map[string]*entity.TenantGroup{}, Members: map[string][]string{}, Tenants: tenants}
}

func (r *Groups) Create(_ context.Context, g *entity.TenantGroup) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g.ID == "" {
		g.ID = newID()
	}
	cp := *g
	r.Items[g.ID] = &cp
	return nil
}

func (r *Groups) Update(_ context.Context, g *entity.TenantGroup) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *g
	r.Items[g.ID] = &cp
	return nil
}

func (r *Groups) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.Items, id)
	delete(r.Members, id)
	return nil
}

func (r *Groups) GetByID(_ context.Context, id string) (*entity.TenantGroup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok := r.Items[id]; ok {
		cp := *g
		return &cp, nil
	}
	return nil, nil
}

func (r *Groups) GetByCode(_ context.Context, code string) (*entity.TenantGroup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, g := range r.Items {
		if strings.EqualFold(g.GroupCode, code) {
			cp := *g
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *Groups) List(_ context.Context, p repository.ListParams) ([]*entity.TenantGroup, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.TenantGroup
	for _, g := range r.Items {
		if p.OnlyActive && !g.IsActive {
			continue
		}
		cp := *g
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GroupName < out[j].GroupName })
	return page(out, p.Limit, p.Offset), len(out), nil
}

func (r *Groups) AddMember(_ context.Context, m *entity.TenantGroupMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if slices.Contains(r.Members[m.GroupID], m.TenantID) {
		return domain.ErrDuplicate
	}
	r.Members[m.GroupID] = append(r.Members[m.GroupID], m.TenantID)
	return nil
}

func (r *Groups) RemoveMember(_ context.Context, groupID, tenantID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Members[groupID] = slices.DeleteFunc(r.Members[groupID], func(id string) bool { return id == tenantID })
	return nil
}

func (r *Groups) ListMembers(ctx context.Context, groupID string) ([]*entity.Tenant, error) {
	r.mu.Lock()
	ids := slices.Clone(r.Members[groupID])
	r.mu.Unlock()
	var out []*entity.Tenant
	for _, id := range ids {
		t, _ := r.Tenants.GetByID(ctx, id)
		if t != nil {
			out = append(out, t)
		}
	}
	return out, nil
}
