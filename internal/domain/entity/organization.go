package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de tenant.
const (
	TenantHeadOffice = "HeadOffice"
	TenantFactory    = "Factory"
	TenantSubsidiary = "Subsidiary"
)

// ValidTenantType indica si el tipo es uno de los soportados.
func ValidTenantType(t string) bool {
	switch t {
	case TenantHeadOffice, TenantFactory, TenantSubsidiary:
		return true
	}
	return false
}

// Region agrupa tenants geográficamente.
type Region struct {
	ID                    string
	RegionNumber          int
	RegionName            string
	RegionCode            string
	RegionalManagerUserID *string
	IsActive              bool
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Tenant unidad organizacional (oficina central, fábrica, subsidiaria) dueña de departamentos y usuarios.
type Tenant struct {
	ID               string
	TenantType       string
	TenantCode       string
	TenantName       string
	RegionID         *string
	Location         string
	Latitude         *decimal.Decimal
	Longitude        *decimal.Decimal
	ContactPhone     string
	ContactEmail     string
	ManagerUserID    *string
	ICTSupportUserID *string
	IsActive         bool
	CreatedBy        string
	UpdatedBy        string
	CreatedAt        time.Time
	UpdatedAt        time.Time

	// RegionName solo lectura (JOIN), vacío si no tiene región.
	RegionName string
}

// Department subdivisión de un tenant; jerárquica.
type Department struct {
	ID                 string
	TenantID           string
	ParentDepartmentID *string
	DepartmentName     string
	DepartmentCode     string
	Description        string
	IsActive           bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// DefaultDepartments departamentos creados con un tenant nuevo cuando se pide.
var DefaultDepartments = []struct{ Code, Name string }{
	{"GEN", "General"},
	{"ICT", "ICT Department"},
	{"FIN", "Finance Department"},
	{"OPS", "Operations Department"},
}

// TenantGroup agrupación libre de tenants (ej. "Fábricas de té").
type TenantGroup struct {
	ID          string
	GroupName   string
	GroupCode   string
	Description string
	IsActive    bool
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TenantGroupMember pertenencia de un tenant a un grupo.
type TenantGroupMember struct {
	GroupID  string
	TenantID string
	AddedBy  string
	AddedAt  time.Time
}
