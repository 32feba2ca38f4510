package entity

import (
	"strings"
	"time"
)

// User representa un usuario del sistema. Pertenece siempre a un tenant y opcionalmente a un departamento.
type User struct {
	ID                string
	TenantID          string
	DepartmentID      *string
	UserName          string
	Email             string
	PasswordHash      string // bcrypt hash
	FirstName         string
	LastName          string
	EmployeeNumber    string
	PhoneNumber       string
	IsActive          bool
	LastLoginAt       *time.Time
	LockoutEnd        *time.Time
	AccessFailedCount int
	CreatedAt         time.Time
	UpdatedAt         time.Time

	// Solo lectura (JOIN).
	TenantName     string
	RegionID       *string
	DepartmentName string
}

// FullName nombre y apellido separados por espacio.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// IsLockedOut indica si la cuenta sigue bloqueada en el instante dado.
func (u *User) IsLockedOut(now time.Time) bool {
	return u.LockoutEnd != nil && u.LockoutEnd.After(now)
}

// UserRole asignación de un rol a un usuario.
type UserRole struct {
	UserID     string
	RoleID     string
	AssignedBy string
	AssignedAt time.Time
}

// UserTenantAccess excepción de acceso: concede a un usuario un tenant fuera de su alcance normal.
type UserTenantAccess struct {
	ID         string
	UserID     string
	TenantID   string
	GrantedBy  string
	GrantedAt  time.Time
	ExpiryDate *time.Time // nil = sin vencimiento
	Reason     string
	IsActive   bool
}

// IsEffective activa y sin vencer en el instante dado.
func (a *UserTenantAccess) IsEffective(now time.Time) bool {
	if !a.IsActive {
		return false
	}
	return a.ExpiryDate == nil || a.ExpiryDate.After(now)
}
