package entity

import (
	"regexp"
	"time"
)

// Códigos de alcance (ScopeLevel.ScopeCode).
const (
	ScopeGlobal     = "GLOBAL"
	ScopeRegional   = "REGIONAL"
	ScopeTenant     = "TENANT"
	ScopeDepartment = "DEPARTMENT"
	ScopeDeptGroup  = "DEPT_GROUP"
	ScopeTeam       = "TEAM"
	ScopeIndividual = "INDIVIDUAL"
)

// ScopeLevel amplitud de datos que permite un rol. Menor Level = mayor alcance.
type ScopeLevel struct {
	ID          string
	ScopeName   string
	ScopeCode   string
	Level       int
	Description string
	IsActive    bool
	CreatedAt   time.Time
}

// DefaultScopeLevels catálogo base (Global=1 ... Individual=6).
var DefaultScopeLevels = []ScopeLevel{
	{ScopeName: "Global", ScopeCode: ScopeGlobal, Level: 1, Description: "Acceso a toda la organización"},
	{ScopeName: "Regional", ScopeCode: ScopeRegional, Level: 2, Description: "Acceso a los tenants de una región"},
	{ScopeName: "Tenant", ScopeCode: ScopeTenant, Level: 3, Description: "Acceso a un tenant"},
	{ScopeName: "Department", ScopeCode: ScopeDepartment, Level: 4, Description: "Acceso a un departamento"},
	{ScopeName: "Team", ScopeCode: ScopeTeam, Level: 5, Description: "Acceso a un equipo"},
	{ScopeName: "Individual", ScopeCode: ScopeIndividual, Level: 6, Description: "Solo datos propios"},
}

// Role agrupa permisos y define un alcance.
type Role struct {
	ID           string
	RoleName     string
	RoleCode     string
	Description  string
	ScopeLevelID string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Solo lectura (JOIN con scope_levels).
	ScopeCode  string
	ScopeLevel int
	UserCount  int
}

// Roles de sistema que no se pueden eliminar ni recodificar.
const (
	RoleSystemAdmin  = "SYSTEM_ADMIN"
	RoleHOICTManager = "HO_ICT_MGR"
	RoleEmployee     = "EMPLOYEE"
	RoleExecutive    = "EXECUTIVE"
	RoleAuditor      = "AUDITOR"
)

var protectedRoles = map[string]struct{}{
	RoleSystemAdmin:  {},
	RoleHOICTManager: {},
	RoleEmployee:     {},
	RoleExecutive:    {},
	RoleAuditor:      {},
}

// IsProtectedRole indica si el código corresponde a un rol de sistema.
func IsProtectedRole(code string) bool {
	_, ok := protectedRoles[code]
	return ok
}

var roleCodePattern = regexp.MustCompile(`^[A-Z_]+$`)

// ValidRoleCode solo mayúsculas y guion bajo.
func ValidRoleCode(code string) bool {
	return roleCodePattern.MatchString(code)
}

// Module agrupa permisos por área funcional.
type Module struct {
	ID           string
	ModuleName   string
	ModuleCode   string
	Description  string
	Icon         string
	DisplayOrder int
	IsActive     bool
}

// Permission acción autorizable dentro de un módulo (ej. "Users.Create").
type Permission struct {
	ID             string
	ModuleID       string
	PermissionName string
	PermissionCode string
	PermissionType string // View, Create, Edit, Delete, Approve, Export
	Description    string
	IsActive       bool
}

// Códigos de permiso usados por la API.
const (
	PermUsersView         = "Users.View"
	PermUsersManage       = "Users.Manage"
	PermRolesManage       = "Roles.Manage"
	PermOrgView           = "Organization.View"
	PermOrgManage         = "Organization.Manage"
	PermFormsManage       = "Forms.Manage"
	PermSubmissionsFill   = "Submissions.Fill"
	PermSubmissionsReview = "Submissions.Review"
	PermMetricsManage     = "Metrics.Manage"
	PermReportsView       = "Reports.View"
	PermReportsManage     = "Reports.Manage"
	PermDashboardsView    = "Dashboards.View"
)
