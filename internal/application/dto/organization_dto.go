package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ── Regiones ──────────────────────────────────────────────────────────────────

// RegionRequest alta o modificación de región.
type RegionRequest struct {
	RegionNumber          int     `json:"region_number" validate:"required,min=1"`
	RegionName            string  `json:"region_name" validate:"required,max=100"`
	RegionCode            string  `json:"region_code" validate:"required,max=20"`
	RegionalManagerUserID *string `json:"regional_manager_user_id" validate:"omitempty,uuid"`
	IsActive              *bool   `json:"is_active"`
}

// RegionResponse salida de una región.
type RegionResponse struct {
	ID                    string    `json:"id"`
	RegionNumber          int       `json:"region_number"`
	RegionName            string    `json:"region_name"`
	RegionCode            string    `json:"region_code"`
	RegionalManagerUserID *string   `json:"regional_manager_user_id,omitempty"`
	IsActive              bool      `json:"is_active"`
	TenantCount           int       `json:"tenant_count"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// ── Tenants ───────────────────────────────────────────────────────────────────

// DepartmentInput departamento creado junto con un tenant.
type DepartmentInput struct {
	DepartmentCode string `json:"department_code" validate:"required,max=20"`
	DepartmentName string `json:"department_name" validate:"required,max=100"`
	Description    string `json:"description" validate:"omitempty,max=500"`
}

// CreateTenantRequest alta de tenant con departamentos y grupos.
type CreateTenantRequest struct {
	TenantType       string           `json:"tenant_type" validate:"required,oneof=HeadOffice Factory Subsidiary"`
	TenantCode       string           `json:"tenant_code" validate:"required,max=20"`
	TenantName       string           `json:"tenant_name" validate:"required,max=200"`
	RegionID         *string          `json:"region_id" validate:"omitempty,uuid"`
	Location         string           `json:"location" validate:"omitempty,max=200"`
	Latitude         *decimal.Decimal `json:"latitude"`
	Longitude        *decimal.Decimal `json:"longitude"`
	ContactPhone     string           `json:"contact_phone" validate:"omitempty,max=30"`
	ContactEmail     string           `json:"contact_email" validate:"omitempty,email,max=256"`
	ManagerUserID    *string          `json:"manager_user_id" validate:"omitempty,uuid"`
	ICTSupportUserID *string          `json:"ict_support_user_id" validate:"omitempty,uuid"`

	CreateDefaultDepartments bool              `json:"create_default_departments"` // GEN, ICT, FIN, OPS
	Departments              []DepartmentInput `json:"departments" validate:"omitempty,dive"`
	GroupIDs                 []string          `json:"group_ids" validate:"omitempty,dive,uuid"`
}

// UpdateTenantRequest modificación de tenant.
type UpdateTenantRequest struct {
	TenantType       string           `json:"tenant_type" validate:"required,oneof=HeadOffice Factory Subsidiary"`
	TenantCode       string           `json:"tenant_code" validate:"required,max=20"`
	TenantName       string           `json:"tenant_name" validate:"required,max=200"`
	RegionID         *string          `json:"region_id" validate:"omitempty,uuid"`
	Location         string           `json:"location" validate:"omitempty,max=200"`
	Latitude         *decimal.Decimal `json:"latitude"`
	Longitude        *decimal.Decimal `json:"longitude"`
	ContactPhone     string           `json:"contact_phone" validate:"omitempty,max=30"`
	ContactEmail     string           `json:"contact_email" validate:"omitempty,email,max=256"`
	ManagerUserID    *string          `json:"manager_user_id" validate:"omitempty,uuid"`
	ICTSupportUserID *string          `json:"ict_support_user_id" validate:"omitempty,uuid"`
	IsActive         *bool            `json:"is_active"`
}

// TenantListRequest filtros del listado de tenants.
type TenantListRequest struct {
	PageRequest
	RegionID   string `query:"region_id" validate:"omitempty,uuid"`
	TenantType string `query:"tenant_type" validate:"omitempty,oneof=HeadOffice Factory Subsidiary"`
	OnlyActive bool   `query:"only_active"`
}

// TenantResponse salida de un tenant.
type TenantResponse struct {
	ID               string           `json:"id"`
	TenantType       string           `json:"tenant_type"`
	TenantCode       string           `json:"tenant_code"`
	TenantName       string           `json:"tenant_name"`
	RegionID         *string          `json:"region_id,omitempty"`
	RegionName       string           `json:"region_name,omitempty"`
	Location         string           `json:"location,omitempty"`
	Latitude         *decimal.Decimal `json:"latitude,omitempty"`
	Longitude        *decimal.Decimal `json:"longitude,omitempty"`
	ContactPhone     string           `json:"contact_phone,omitempty"`
	ContactEmail     string           `json:"contact_email,omitempty"`
	ManagerUserID    *string          `json:"manager_user_id,omitempty"`
	ICTSupportUserID *string          `json:"ict_support_user_id,omitempty"`
	IsActive         bool             `json:"is_active"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`

	Departments []DepartmentResponse `json:"departments,omitempty"`
}

// ── Departamentos ─────────────────────────────────────────────────────────────

// DepartmentRequest alta o modificación de departamento.
type DepartmentRequest struct {
	TenantID           string  `json:"tenant_id" validate:"required,uuid"`
	ParentDepartmentID *string `json:"parent_department_id" validate:"omitempty,uuid"`
	DepartmentCode     string  `json:"department_code" validate:"required,max=20"`
	DepartmentName     string  `json:"department_name" validate:"required,max=100"`
	Description        string  `json:"description" validate:"omitempty,max=500"`
	IsActive           *bool   `json:"is_active"`
}

// DepartmentResponse salida de un departamento.
type DepartmentResponse struct {
	ID                 string    `json:"id"`
	TenantID           string    `json:"tenant_id"`
	ParentDepartmentID *string   `json:"parent_department_id,omitempty"`
	DepartmentCode     string    `json:"department_code"`
	DepartmentName     string    `json:"department_name"`
	Description        string    `json:"description,omitempty"`
	IsActive           bool      `json:"is_active"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// DepartmentNode nodo del árbol de departamentos de un tenant.
type DepartmentNode struct {
	DepartmentResponse
	Children []*DepartmentNode `json:"children"`
}

// ── Grupos de tenants ─────────────────────────────────────────────────────────

// TenantGroupRequest alta o modificación de grupo.
type TenantGroupRequest struct {
	GroupName   string `json:"group_name" validate:"required,max=100"`
	GroupCode   string `json:"group_code" validate:"required,max=20"`
	Description string `json:"description" validate:"omitempty,max=500"`
	IsActive    *bool  `json:"is_active"`
}

// GroupMembersRequest tenants a agregar a un grupo.
type GroupMembersRequest struct {
	TenantIDs []string `json:"tenant_ids" validate:"required,min=1,dive,uuid"`
}

// TenantGroupResponse salida de un grupo con sus miembros.
type TenantGroupResponse struct {
	ID          string           `json:"id"`
	GroupName   string           `json:"group_name"`
	GroupCode   string           `json:"group_code"`
	Description string           `json:"description,omitempty"`
	IsActive    bool             `json:"is_active"`
	Members     []TenantResponse `json:"members,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}
