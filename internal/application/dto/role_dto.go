package dto

import "time"

// CreateRoleRequest alta de rol con permisos y usuarios opcionales.
type CreateRoleRequest struct {
	RoleName      string   `json:"role_name" validate:"required,max=100"`
	RoleCode      string   `json:"role_code" validate:"required,max=50"` // solo A-Z y _
	Description   string   `json:"description" validate:"omitempty,max=500"`
	ScopeLevelID  string   `json:"scope_level_id" validate:"required"`
	PermissionIDs []string `json:"permission_ids"`
	UserIDs       []string `json:"user_ids" validate:"omitempty,dive,uuid"`
}

// UpdateRoleRequest modificación de rol. Los roles de sistema no cambian de código.
type UpdateRoleRequest struct {
	RoleName     string `json:"role_name" validate:"required,max=100"`
	RoleCode     string `json:"role_code" validate:"required,max=50"`
	Description  string `json:"description" validate:"omitempty,max=500"`
	ScopeLevelID string `json:"scope_level_id" validate:"required"`
	IsActive     *bool  `json:"is_active"`
}

// SetPermissionsRequest reemplaza los permisos de un rol.
type SetPermissionsRequest struct {
	PermissionIDs []string `json:"permission_ids"`
}

// AssignUsersRequest agrega usuarios a un rol.
type AssignUsersRequest struct {
	UserIDs []string `json:"user_ids" validate:"required,min=1,dive,uuid"`
}

// RoleResponse salida de un rol.
type RoleResponse struct {
	ID            string    `json:"id"`
	RoleName      string    `json:"role_name"`
	RoleCode      string    `json:"role_code"`
	Description   string    `json:"description,omitempty"`
	ScopeLevelID  string    `json:"scope_level_id"`
	ScopeCode     string    `json:"scope_code,omitempty"`
	ScopeLevel    int       `json:"scope_level,omitempty"`
	IsActive      bool      `json:"is_active"`
	IsProtected   bool      `json:"is_protected"`
	UserCount     int       `json:"user_count"`
	PermissionIDs []string  `json:"permission_ids,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// PermissionResponse permiso de un módulo.
type PermissionResponse struct {
	ID             string `json:"id"`
	PermissionName string `json:"permission_name"`
	PermissionCode string `json:"permission_code"`
	PermissionType string `json:"permission_type"`
	Description    string `json:"description,omitempty"`
}

// ModuleResponse módulo con sus permisos activos.
type ModuleResponse struct {
	ID           string               `json:"id"`
	ModuleName   string               `json:"module_name"`
	ModuleCode   string               `json:"module_code"`
	Description  string               `json:"description,omitempty"`
	Icon         string               `json:"icon,omitempty"`
	DisplayOrder int                  `json:"display_order"`
	Permissions  []PermissionResponse `json:"permissions"`
}

// ScopeLevelResponse nivel de alcance (1 = Global ... 6 = Individual).
type ScopeLevelResponse struct {
	ID          string `json:"id"`
	ScopeName   string `json:"scope_name"`
	ScopeCode   string `json:"scope_code"`
	Level       int    `json:"level"`
	Description string `json:"description,omitempty"`
}
