package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de asignación de una plantilla.
const (
	AssignAll            = "All"
	AssignTenantType     = "TenantType"
	AssignTenantGroup    = "TenantGroup"
	AssignSpecificTenant = "SpecificTenant"
	AssignRole           = "Role"
	AssignDepartment     = "Department"
	AssignSpecificUser   = "SpecificUser"
)

// ValidAssignmentType indica si el tipo de asignación es soportado.
func ValidAssignmentType(t string) bool {
	switch t {
	case AssignAll, AssignTenantType, AssignTenantGroup, AssignSpecificTenant,
		AssignRole, AssignDepartment, AssignSpecificUser:
		return true
	}
	return false
}

// IsTenantAssignment tipos que se resuelven contra el tenant del envío.
func IsTenantAssignment(t string) bool {
	switch t {
	case AssignTenantType, AssignTenantGroup, AssignSpecificTenant:
		return true
	}
	return false
}

// Estados de una asignación.
const (
	AssignmentActive    = "Active"
	AssignmentSuspended = "Suspended"
	AssignmentRevoked   = "Revoked"
)

// FormAssignment define a quién aplica una plantilla y durante qué período.
type FormAssignment struct {
	ID             string
	TemplateID     string
	AssignmentType string
	TenantType     *string
	TenantGroupID  *string
	TenantID       *string
	RoleID         *string
	DepartmentID   *string
	UserID         *string
	EffectiveFrom  time.Time
	EffectiveUntil *time.Time
	AllowAnonymous bool
	Status         string
	AssignedBy     string
	AssignedAt     time.Time
	CancelledBy    *string
	CancelledAt    *time.Time
	CancelReason   string
	Notes          string
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// Solo lectura (JOIN).
	TemplateName string
}

// IsEffective activa y dentro del período a la fecha dada.
func (a *FormAssignment) IsEffective(at time.Time) bool {
	if a.Status != AssignmentActive || a.EffectiveFrom.After(at) {
		return false
	}
	return a.EffectiveUntil == nil || !a.EffectiveUntil.Before(at)
}

// IsExpired el período terminó antes de la fecha dada.
func (a *FormAssignment) IsExpired(at time.Time) bool {
	return a.EffectiveUntil != nil && a.EffectiveUntil.Before(at)
}

// Frecuencias de una regla de envío.
const (
	RuleDaily     = "Daily"
	RuleWeekly    = "Weekly"
	RuleMonthly   = "Monthly"
	RuleQuarterly = "Quarterly"
	RuleAnnually  = "Annually"
	RuleOnce      = "Once"
)

// Estados de una regla de envío.
const (
	RuleActive    = "Active"
	RuleSuspended = "Suspended"
	RuleArchived  = "Archived"
)

// LastDayOfMonth DueDay que apunta al último día del mes.
const LastDayOfMonth = -1

// SubmissionRule fecha límite de envío de una plantilla.
type SubmissionRule struct {
	ID                  string
	TemplateID          string
	RuleName            string
	Description         string
	Frequency           string
	DueDay              *int // 0-6 semanal (domingo = 0), 1-31 o -1 mensual/trimestral/anual
	DueMonth            *int
	DueTime             *string // HH:MM
	SpecificDueDate     *time.Time
	GracePeriodDays     int
	AllowLateSubmission bool
	ReminderDaysBefore  string // "7,3,1"
	Status              string
	CreatedBy           string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// OptionTemplate catálogo reutilizable de opciones para ítems de selección.
type OptionTemplate struct {
	ID                   string
	TemplateName         string
	TemplateCode         string
	Category             string
	SubCategory          string
	Description          string
	UsageCount           int
	DisplayOrder         int
	ApplicableFieldTypes string // separado por comas
	RecommendedFor       string
	HasScoring           bool
	ScoringType          string
	IsSystemTemplate     bool
	TenantID             *string
	IsActive             bool
	CreatedBy            string
	CreatedAt            time.Time
	UpdatedAt            time.Time

	Items []*OptionTemplateItem
}

// OptionTemplateItem opción de un catálogo reutilizable.
type OptionTemplateItem struct {
	ID           string
	TemplateID   string
	OptionValue  string
	OptionLabel  string
	DisplayOrder int
	ScoreValue   *decimal.Decimal
	ScoreWeight  *decimal.Decimal
	IconClass    string
	ColorHint    string
	IsDefault    bool
}
