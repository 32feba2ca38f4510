package dto

import "time"

// LoginRequest usuario o email más contraseña.
type LoginRequest struct {
	Login    string `json:"login" validate:"required,max=256"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse token JWT y claims del usuario.
type LoginResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	User      *ClaimsResponse `json:"user"`
}

// ChangePasswordRequest cambio de contraseña del usuario autenticado.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
}

// ClaimsResponse conjunto de claims expuesto en /api/auth/me.
type ClaimsResponse struct {
	UserID                 string   `json:"user_id"`
	UserName               string   `json:"user_name"`
	Email                  string   `json:"email"`
	FullName               string   `json:"full_name"`
	EmployeeNumber         string   `json:"employee_number,omitempty"`
	TenantID               string   `json:"tenant_id"`
	TenantName             string   `json:"tenant_name,omitempty"`
	RegionID               string   `json:"region_id,omitempty"`
	DepartmentID           string   `json:"department_id,omitempty"`
	DepartmentName         string   `json:"department_name,omitempty"`
	Roles                  []string `json:"roles"`
	Permissions            []string `json:"permissions"`
	ScopeCode              string   `json:"scope_code,omitempty"`
	ScopeLevel             int      `json:"scope_level,omitempty"`
	TenantAccess           string   `json:"tenant_access,omitempty"`
	TenantAccessExceptions []string `json:"tenant_access_exceptions"`
}

// CreateUserRequest alta de usuario (password en texto, se hashea en el caso de uso).
type CreateUserRequest struct {
	TenantID       string   `json:"tenant_id" validate:"required,uuid"`
	DepartmentID   *string  `json:"department_id" validate:"omitempty,uuid"`
	UserName       string   `json:"user_name" validate:"required,min=3,max=100"`
	Email          string   `json:"email" validate:"required,email,max=256"`
	Password       string   `json:"password" validate:"required,min=8,max=128"`
	FirstName      string   `json:"first_name" validate:"required,max=100"`
	LastName       string   `json:"last_name" validate:"required,max=100"`
	EmployeeNumber string   `json:"employee_number" validate:"omitempty,max=50"`
	PhoneNumber    string   `json:"phone_number" validate:"omitempty,max=30"`
	RoleIDs        []string `json:"role_ids" validate:"omitempty,dive,uuid"`
}

// UpdateUserRequest modificación de datos de usuario.
type UpdateUserRequest struct {
	TenantID       string  `json:"tenant_id" validate:"required,uuid"`
	DepartmentID   *string `json:"department_id" validate:"omitempty,uuid"`
	UserName       string  `json:"user_name" validate:"required,min=3,max=100"`
	Email          string  `json:"email" validate:"required,email,max=256"`
	FirstName      string  `json:"first_name" validate:"required,max=100"`
	LastName       string  `json:"last_name" validate:"required,max=100"`
	EmployeeNumber string  `json:"employee_number" validate:"omitempty,max=50"`
	PhoneNumber    string  `json:"phone_number" validate:"omitempty,max=30"`
}

// ResetPasswordRequest contraseña nueva fijada por un administrador.
type ResetPasswordRequest struct {
	NewPassword string `json:"new_password" validate:"required,min=8,max=128"`
}

// AssignRolesRequest reemplaza el conjunto de roles de un usuario.
type AssignRolesRequest struct {
	RoleIDs []string `json:"role_ids" validate:"dive,uuid"`
}

// GrantTenantAccessRequest excepción de acceso a un tenant.
type GrantTenantAccessRequest struct {
	TenantID   string     `json:"tenant_id" validate:"required,uuid"`
	ExpiryDate *time.Time `json:"expiry_date"`
	Reason     string     `json:"reason" validate:"omitempty,max=500"`
}

// UserListRequest filtros del listado de usuarios.
type UserListRequest struct {
	PageRequest
	TenantID     string `query:"tenant_id" validate:"omitempty,uuid"`
	DepartmentID string `query:"department_id" validate:"omitempty,uuid"`
	OnlyActive   bool   `query:"only_active"`
}

// UserResponse salida de un usuario (sin password).
type UserResponse struct {
	ID                string     `json:"id"`
	TenantID          string     `json:"tenant_id"`
	TenantName        string     `json:"tenant_name,omitempty"`
	DepartmentID      *string    `json:"department_id,omitempty"`
	DepartmentName    string     `json:"department_name,omitempty"`
	UserName          string     `json:"user_name"`
	Email             string     `json:"email"`
	FirstName         string     `json:"first_name"`
	LastName          string     `json:"last_name"`
	FullName          string     `json:"full_name"`
	EmployeeNumber    string     `json:"employee_number,omitempty"`
	PhoneNumber       string     `json:"phone_number,omitempty"`
	IsActive          bool       `json:"is_active"`
	IsLocked          bool       `json:"is_locked"`
	LastLoginAt       *time.Time `json:"last_login_at,omitempty"`
	AccessFailedCount int        `json:"access_failed_count"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// UserSummary versión corta para selectores.
type UserSummary struct {
	ID             string `json:"id"`
	UserName       string `json:"user_name"`
	FullName       string `json:"full_name"`
	Email          string `json:"email"`
	EmployeeNumber string `json:"employee_number,omitempty"`
	TenantName     string `json:"tenant_name,omitempty"`
}

// TenantAccessResponse excepción de acceso vigente o histórica.
type TenantAccessResponse struct {
	ID          string     `json:"id"`
	TenantID    string     `json:"tenant_id"`
	GrantedBy   string     `json:"granted_by"`
	GrantedAt   time.Time  `json:"granted_at"`
	ExpiryDate  *time.Time `json:"expiry_date,omitempty"`
	Reason      string     `json:"reason,omitempty"`
	IsActive    bool       `json:"is_active"`
	IsEffective bool       `json:"is_effective"`
}
