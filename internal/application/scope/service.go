// Package scope resuelve qué tenants, usuarios y regiones puede ver un usuario
// a partir de su alcance (claims.ScopeCode + claims.TenantAccess) y sus excepciones.
package scope

import (
	"context"
	"slices"
	"strings"

	"github.com/jhoicas/form-reporting-api/internal/domain/access"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/jhoicas/form-reporting-api/internal/domain/repository"
)

// DefaultUserLimit tamaño por defecto de los selectores de usuarios.
const DefaultUserLimit = 20

// minSearchLen búsquedas más cortas se ignoran.
const minSearchLen = 2

// Service resolución de alcance sobre los repositorios de organización.
type Service struct {
	tenants     repository.TenantRepository
	departments repository.DepartmentRepository
	regions     repository.RegionRepository
	users       repository.UserRepository
}

// NewService construye el servicio de alcance.
func NewService(tenants repository.TenantRepository, departments repository.DepartmentRepository, regions repository.RegionRepository, users repository.UserRepository) *Service {
	return &Service{tenants: tenants, departments: departments, regions: regions, users: users}
}

// AccessibleTenantIDs tenants visibles según el alcance más las excepciones vigentes, sin duplicados.
// Vacío si faltan el código de alcance o el valor TenantAccess.
func (s *Service) AccessibleTenantIDs(ctx context.Context, c *access.Claims) ([]string, error) {
	if c == nil || c.ScopeCode == "" || c.TenantAccess == "" {
		return []string{}, nil
	}
	var ids []string
	switch c.NormalizedScope() {
	case entity.ScopeGlobal:
		all, err := s.tenants.ListActiveIDs(ctx)
		if err != nil {
			return nil, err
		}
		ids = all
	case entity.ScopeRegional:
		if regionID, ok := access.Parse(c.TenantAccess, access.PrefixRegion); ok {
			byRegion, err := s.tenants.ListActiveIDsByRegion(ctx, regionID)
			if err != nil {
				return nil, err
			}
			ids = byRegion
		}
	case entity.ScopeTenant, entity.ScopeTeam:
		if tenantID, ok := access.Parse(c.TenantAccess, access.PrefixTenant); ok {
			ids = []string{tenantID}
		}
	case entity.ScopeDepartment, entity.ScopeDeptGroup:
		tenantID, err := s.departmentTenant(ctx, c.TenantAccess)
		if err != nil {
			return nil, err
		}
		if tenantID != "" {
			ids = []string{tenantID}
		}
	}
	return dedupe(append(ids, c.TenantAccessExceptions...)), nil
}

// departmentTenant tenant del departamento de "Department:{id}"; acepta también "Tenant:{id}"
// (alcance de departamento sin departamento asignado).
func (s *Service) departmentTenant(ctx context.Context, tenantAccess string) (string, error) {
	if tenantID, ok := access.Parse(tenantAccess, access.PrefixTenant); ok {
		return tenantID, nil
	}
	deptID, ok := access.Parse(tenantAccess, access.PrefixDepartment)
	if !ok {
		return "", nil
	}
	dept, err := s.departments.GetByID(ctx, deptID)
	if err != nil {
		return "", err
	}
	if dept == nil {
		return "", nil
	}
	return dept.TenantID, nil
}

// Restriction filtro de tenants para los repositorios: nil = sin restricción (alcance GLOBAL),
// vacío = ningún tenant.
func (s *Service) Restriction(ctx context.Context, c *access.Claims) ([]string, error) {
	if c.HasGlobalScope() && c.TenantAccess == access.AccessAll {
		return nil, nil
	}
	ids, err := s.AccessibleTenantIDs(ctx, c)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// CanAccessTenant el tenant está dentro del alcance o de las excepciones del usuario.
func (s *Service) CanAccessTenant(ctx context.Context, c *access.Claims, tenantID string) (bool, error) {
	if tenantID == "" || c == nil {
		return false, nil
	}
	if c.HasGlobalScope() {
		return true, nil
	}
	ids, err := s.AccessibleTenantIDs(ctx, c)
	if err != nil {
		return false, err
	}
	return slices.Contains(ids, tenantID), nil
}

// AccessibleUsers usuarios activos visibles, ordenados por nombre y apellido.
func (s *Service) AccessibleUsers(ctx context.Context, c *access.Claims, search string, limit int) ([]*entity.User, error) {
	if c == nil {
		return []*entity.User{}, nil
	}
	if limit <= 0 {
		limit = DefaultUserLimit
	}
	f := repository.UserFilter{Search: normalizeSearch(search), OnlyActive: true, Limit: limit}
	switch c.NormalizedScope() {
	case entity.ScopeGlobal:
	case entity.ScopeRegional, entity.ScopeTenant, entity.ScopeTeam:
		ids, err := s.AccessibleTenantIDs(ctx, c)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return []*entity.User{}, nil
		}
		f.TenantIDs = ids
	case entity.ScopeDepartment, entity.ScopeDeptGroup:
		if c.DepartmentID == "" {
			return []*entity.User{}, nil
		}
		f.DepartmentID = c.DepartmentID
	case entity.ScopeIndividual:
		f.UserID = c.UserID
	default:
		return []*entity.User{}, nil
	}
	users, _, err := s.users.List(ctx, f)
	return users, err
}

// AccessibleTenants tenants activos visibles ordenados por región y nombre.
// Fuera de GLOBAL y REGIONAL solo el tenant principal.
func (s *Service) AccessibleTenants(ctx context.Context, c *access.Claims, search string) ([]*entity.Tenant, error) {
	if c == nil {
		return []*entity.Tenant{}, nil
	}
	f := repository.TenantFilter{Search: normalizeSearch(search), OnlyActive: true}
	switch c.NormalizedScope() {
	case entity.ScopeGlobal:
	case entity.ScopeRegional:
		regionID := regionOf(c)
		if regionID == "" {
			return []*entity.Tenant{}, nil
		}
		f.RegionID = regionID
	default:
		if c.TenantID == "" {
			return []*entity.Tenant{}, nil
		}
		f.IDs = []string{c.TenantID}
	}
	tenants, _, err := s.tenants.List(ctx, f)
	return tenants, err
}

// AccessibleRegions GLOBAL todas; el resto la región propia o la del tenant principal.
func (s *Service) AccessibleRegions(ctx context.Context, c *access.Claims) ([]*entity.Region, error) {
	if c == nil {
		return []*entity.Region{}, nil
	}
	if c.HasGlobalScope() {
		regions, _, err := s.regions.List(ctx, nil, repository.ListParams{OnlyActive: true})
		return regions, err
	}
	regionID := regionOf(c)
	if regionID == "" {
		return []*entity.Region{}, nil
	}
	regions, _, err := s.regions.List(ctx, []string{regionID}, repository.ListParams{OnlyActive: true})
	return regions, err
}

func regionOf(c *access.Claims) string {
	if c.NormalizedScope() == entity.ScopeRegional {
		if id, ok := access.Parse(c.TenantAccess, access.PrefixRegion); ok {
			return id
		}
	}
	return c.RegionID
}

func normalizeSearch(s string) string {
	s = strings.TrimSpace(s)
	if len([]rune(s)) < minSearchLen {
		return ""
	}
	return s
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
