// Package access modela los claims de un usuario autenticado y la regla que traduce
// su alcance organizacional (GLOBAL, REGIONAL, TENANT...) en un valor de acceso a tenants.
package access

import (
	"slices"
	"strings"

	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
)

// Prefijos y comodín del valor TenantAccess.
const (
	AccessAll        = "*"
	PrefixRegion     = "Region"
	PrefixTenant     = "Tenant"
	PrefixDepartment = "Department"
	PrefixUser       = "User"
)

// Claims conjunto completo de datos de identidad y autorización de un usuario.
type Claims struct {
	UserID         string   `json:"user_id"`
	UserName       string   `json:"user_name"`
	Email          string   `json:"email"`
	FullName       string   `json:"full_name"`
	EmployeeNumber string   `json:"employee_number,omitempty"`
	TenantID       string   `json:"tenant_id"`
	TenantName     string   `json:"tenant_name,omitempty"`
	RegionID       string   `json:"region_id,omitempty"`
	DepartmentID   string   `json:"department_id,omitempty"`
	DepartmentName string   `json:"department_name,omitempty"`
	Roles          []string `json:"roles"`
	Permissions    []string `json:"permissions"`
	ScopeName      string   `json:"scope_name,omitempty"`
	ScopeCode      string   `json:"scope_code,omitempty"`
	ScopeLevel     int      `json:"scope_level,omitempty"`
	TenantAccess   string   `json:"tenant_access,omitempty"`
	// TenantAccessExceptions tenants concedidos explícitamente fuera del alcance.
	TenantAccessExceptions []string `json:"tenant_access_exceptions,omitempty"`
}

// HasRole el usuario tiene el rol indicado.
func (c *Claims) HasRole(code string) bool {
	return c != nil && slices.Contains(c.Roles, code)
}

// HasPermission SYSTEM_ADMIN tiene todos los permisos.
func (c *Claims) HasPermission(code string) bool {
	if c == nil {
		return false
	}
	if c.HasRole(entity.RoleSystemAdmin) {
		return true
	}
	return slices.Contains(c.Permissions, code)
}

// HasGlobalScope alcance GLOBAL.
func (c *Claims) HasGlobalScope() bool {
	return c != nil && strings.EqualFold(c.ScopeCode, entity.ScopeGlobal)
}

// NormalizedScope código de alcance en mayúsculas.
func (c *Claims) NormalizedScope() string {
	if c == nil {
		return ""
	}
	return strings.ToUpper(strings.TrimSpace(c.ScopeCode))
}

// HighestScope devuelve el nivel de alcance más amplio (menor Level) entre los roles activos.
// ok = false si ningún rol activo tiene alcance.
func HighestScope(roles []*entity.Role) (code string, level int, ok bool) {
	for _, r := range roles {
		if r == nil || !r.IsActive || r.ScopeCode == "" {
			continue
		}
		if !ok || r.ScopeLevel < level {
			code, level, ok = strings.ToUpper(r.ScopeCode), r.ScopeLevel, true
		}
	}
	return code, level, ok
}

// Subject datos del usuario necesarios para calcular TenantAccess.
type Subject struct {
	UserID       string
	TenantID     string
	RegionID     string
	DepartmentID string
}

// BuildTenantAccess traduce el alcance en el valor TenantAccess.
// Devuelve "" cuando el alcance es REGIONAL y el tenant no tiene región.
func BuildTenantAccess(scopeCode string, s Subject) string {
	switch strings.ToUpper(scopeCode) {
	case entity.ScopeGlobal:
		return AccessAll
	case entity.ScopeRegional:
		if s.RegionID == "" {
			return ""
		}
		return Format(PrefixRegion, s.RegionID)
	case entity.ScopeTenant, entity.ScopeTeam:
		return Format(PrefixTenant, s.TenantID)
	case entity.ScopeDepartment, entity.ScopeDeptGroup:
		if s.DepartmentID != "" {
			return Format(PrefixDepartment, s.DepartmentID)
		}
		return Format(PrefixTenant, s.TenantID)
	default:
		return Format(PrefixUser, s.UserID)
	}
}

// Format construye "Prefijo:id".
func Format(prefix, id string) string {
	return prefix + ":" + id
}

// Parse extrae el id si el valor tiene el prefijo dado.
func Parse(value, prefix string) (string, bool) {
	id, found := strings.CutPrefix(value, prefix+":")
	if !found || id == "" {
		return "", false
	}
	return id, true
}

// EffectiveExceptions ids de tenant de las excepciones vigentes, sin duplicados.
func EffectiveExceptions(rows []*entity.UserTenantAccess, isEffective func(*entity.UserTenantAccess) bool) []string {
	seen := make(map[string]struct{}, len(rows))
	var out []string
	for _, r := range rows {
		if r == nil || !isEffective(r) {
			continue
		}
		if _, dup := seen[r.TenantID]; dup {
			continue
		}
		seen[r.TenantID] = struct{}{}
		out = append(out, r.TenantID)
	}
	return out
}
