package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ── Asignaciones ──────────────────────────────────────────────────────────────

// AssignmentRequest alta de asignación. Según el tipo se exige el destino correspondiente.
type AssignmentRequest struct {
	TemplateID     string     `json:"template_id" validate:"required,uuid"`
	AssignmentType string     `json:"assignment_type" validate:"required,oneof=All TenantType TenantGroup SpecificTenant Role Department SpecificUser"`
	TenantType     *string    `json:"tenant_type" validate:"omitempty,oneof=HeadOffice Factory Subsidiary"`
	TenantGroupID  *string    `json:"tenant_group_id" validate:"omitempty,uuid"`
	TenantID       *string    `json:"tenant_id" validate:"omitempty,uuid"`
	RoleID         *string    `json:"role_id" validate:"omitempty,uuid"`
	DepartmentID   *string    `json:"department_id" validate:"omitempty,uuid"`
	UserID         *string    `json:"user_id" validate:"omitempty,uuid"`
	EffectiveFrom  *time.Time `json:"effective_from"`
	EffectiveUntil *time.Time `json:"effective_until"`
	AllowAnonymous bool       `json:"allow_anonymous"`
	Notes          string     `json:"notes" validate:"omitempty,max=2000"`
}

// UpdateAssignmentRequest período, anonimato, estado y notas de una asignación.
type UpdateAssignmentRequest struct {
	EffectiveFrom  time.Time  `json:"effective_from" validate:"required"`
	EffectiveUntil *time.Time `json:"effective_until"`
	AllowAnonymous bool       `json:"allow_anonymous"`
	Status         string     `json:"status" validate:"required,oneof=Active Suspended Revoked"`
	Notes          string     `json:"notes" validate:"omitempty,max=2000"`
}

// AssignmentListRequest filtros del listado de asignaciones.
type AssignmentListRequest struct {
	PageRequest
	TemplateID     string `query:"template_id" validate:"omitempty,uuid"`
	AssignmentType string `query:"assignment_type" validate:"omitempty,oneof=All TenantType TenantGroup SpecificTenant Role Department SpecificUser"`
	Status         string `query:"status" validate:"omitempty,oneof=Active Suspended Revoked"`
	EffectiveOnly  bool   `query:"effective_only"`
	ExpiredOnly    bool   `query:"expired_only"`
}

// ReasonRequest motivo de cancelación o suspensión.
type ReasonRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// ExtendAssignmentRequest nueva fecha de fin de vigencia.
type ExtendAssignmentRequest struct {
	EffectiveUntil time.Time `json:"effective_until" validate:"required"`
}

// BulkExtendRequest extiende varias asignaciones a la misma fecha.
type BulkExtendRequest struct {
	IDs            []string  `json:"ids" validate:"required,min=1,dive,uuid"`
	EffectiveUntil time.Time `json:"effective_until" validate:"required"`
}

// BulkCancelRequest cancela varias asignaciones con el mismo motivo.
type BulkCancelRequest struct {
	IDs    []string `json:"ids" validate:"required,min=1,dive,uuid"`
	Reason string   `json:"reason" validate:"required,max=500"`
}

// BulkResultResponse cuántas asignaciones cambiaron y cuáles fallaron.
type BulkResultResponse struct {
	Updated int               `json:"updated"`
	Failed  map[string]string `json:"failed,omitempty"`
}

// AssignmentResponse salida de una asignación.
type AssignmentResponse struct {
	ID             string     `json:"id"`
	TemplateID     string     `json:"template_id"`
	TemplateName   string     `json:"template_name,omitempty"`
	AssignmentType string     `json:"assignment_type"`
	Target         string     `json:"target"`
	TenantType     *string    `json:"tenant_type,omitempty"`
	TenantGroupID  *string    `json:"tenant_group_id,omitempty"`
	TenantID       *string    `json:"tenant_id,omitempty"`
	RoleID         *string    `json:"role_id,omitempty"`
	DepartmentID   *string    `json:"department_id,omitempty"`
	UserID         *string    `json:"user_id,omitempty"`
	EffectiveFrom  time.Time  `json:"effective_from"`
	EffectiveUntil *time.Time `json:"effective_until,omitempty"`
	AllowAnonymous bool       `json:"allow_anonymous"`
	Status         string     `json:"status"`
	IsEffective    bool       `json:"is_effective"`
	IsExpired      bool       `json:"is_expired"`
	AssignedBy     string     `json:"assigned_by"`
	AssignedAt     time.Time  `json:"assigned_at"`
	CancelledBy    *string    `json:"cancelled_by,omitempty"`
	CancelledAt    *time.Time `json:"cancelled_at,omitempty"`
	CancelReason   string     `json:"cancel_reason,omitempty"`
	Notes          string     `json:"notes,omitempty"`
}

// AssignmentDetailResponse asignación con su alcance y avance de envíos.
type AssignmentDetailResponse struct {
	AssignmentResponse
	TargetCount          int `json:"target_count"`
	CompletedSubmissions int `json:"completed_submissions"`
	PendingSubmissions   int `json:"pending_submissions"`
}

// AssignmentTargetResponse tenant o usuario alcanzado por una asignación.
type AssignmentTargetResponse struct {
	Kind string `json:"kind"` // Tenant | User
	ID   string `json:"id"`
	Code string `json:"code,omitempty"`
	Name string `json:"name"`
}

// AssignmentStatsResponse agregados de asignaciones.
type AssignmentStatsResponse struct {
	Total     int            `json:"total"`
	Active    int            `json:"active"`
	Suspended int            `json:"suspended"`
	Revoked   int            `json:"revoked"`
	Expired   int            `json:"expired"`
	Effective int            `json:"effective"`
	Anonymous int            `json:"anonymous"`
	ByType    map[string]int `json:"by_type"`
}

// MyAssignmentResponse plantilla asignada al usuario y su estado en el período consultado.
type MyAssignmentResponse struct {
	AssignmentID   string     `json:"assignment_id"`
	TemplateID     string     `json:"template_id"`
	TemplateName   string     `json:"template_name"`
	EffectiveUntil *time.Time `json:"effective_until,omitempty"`
	SubmissionID   *string    `json:"submission_id,omitempty"`
	Status         string     `json:"status"` // estado del envío o Pending
	DueDate        *time.Time `json:"due_date,omitempty"`
}

// MyAssignmentsRequest período consultado; por defecto el mes actual.
type MyAssignmentsRequest struct {
	ReportingYear  int  `query:"reporting_year" validate:"omitempty,min=2000,max=2100"`
	ReportingMonth int  `query:"reporting_month" validate:"omitempty,min=1,max=12"`
	PendingOnly    bool `query:"pending_only"`
}

// ── Reglas de envío ───────────────────────────────────────────────────────────

// SubmissionRuleRequest alta o modificación de una fecha límite.
type SubmissionRuleRequest struct {
	RuleName            string     `json:"rule_name" validate:"required,max=100"`
	Description         string     `json:"description" validate:"omitempty,max=500"`
	Frequency           string     `json:"frequency" validate:"omitempty,oneof=Daily Weekly Monthly Quarterly Annually Once"`
	DueDay              *int       `json:"due_day"`
	DueMonth            *int       `json:"due_month"`
	DueTime             *string    `json:"due_time"`
	SpecificDueDate     *time.Time `json:"specific_due_date"`
	GracePeriodDays     int        `json:"grace_period_days" validate:"min=0,max=365"`
	AllowLateSubmission *bool      `json:"allow_late_submission"`
	ReminderDaysBefore  string     `json:"reminder_days_before" validate:"omitempty,max=50"`
	Status              string     `json:"status" validate:"omitempty,oneof=Active Suspended Archived"`
}

// SubmissionRuleResponse salida de una regla con su próxima fecha límite.
type SubmissionRuleResponse struct {
	ID                  string     `json:"id"`
	TemplateID          string     `json:"template_id"`
	RuleName            string     `json:"rule_name"`
	Description         string     `json:"description,omitempty"`
	Frequency           string     `json:"frequency,omitempty"`
	DueDay              *int       `json:"due_day,omitempty"`
	DueMonth            *int       `json:"due_month,omitempty"`
	DueTime             *string    `json:"due_time,omitempty"`
	SpecificDueDate     *time.Time `json:"specific_due_date,omitempty"`
	NextDueDate         *time.Time `json:"next_due_date,omitempty"`
	GracePeriodDays     int        `json:"grace_period_days"`
	AllowLateSubmission bool       `json:"allow_late_submission"`
	ReminderDaysBefore  string     `json:"reminder_days_before,omitempty"`
	ReminderDays        []int      `json:"reminder_days,omitempty"`
	Status              string     `json:"status"`
	CreatedBy           string     `json:"created_by"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// TimingRequest período y momento a evaluar; At por defecto ahora.
type TimingRequest struct {
	ReportingYear  int        `query:"reporting_year" validate:"required,min=2000,max=2100"`
	ReportingMonth int        `query:"reporting_month" validate:"required,min=1,max=12"`
	At             *time.Time `query:"at"`
}

// ReminderRequest fecha para la que se buscan recordatorios; por defecto hoy.
type ReminderRequest struct {
	Date *time.Time `query:"date"`
}

// TimingResponse evaluación de un envío contra la fecha límite.
type TimingResponse struct {
	CanSubmit      bool       `json:"can_submit"`
	IsLate         bool       `json:"is_late"`
	WithinGrace    bool       `json:"within_grace"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	GracePeriodEnd *time.Time `json:"grace_period_end,omitempty"`
	Message        string     `json:"message"`
}

// ── Catálogos de opciones ─────────────────────────────────────────────────────

// OptionTemplateItemInput opción de un catálogo reutilizable.
type OptionTemplateItemInput struct {
	OptionValue  string           `json:"option_value" validate:"required,max=200"`
	OptionLabel  string           `json:"option_label" validate:"required,max=200"`
	DisplayOrder int              `json:"display_order"`
	ScoreValue   *decimal.Decimal `json:"score_value"`
	ScoreWeight  *decimal.Decimal `json:"score_weight"`
	IconClass    string           `json:"icon_class" validate:"omitempty,max=50"`
	ColorHint    string           `json:"color_hint" validate:"omitempty,max=20"`
	IsDefault    bool             `json:"is_default"`
}

// OptionTemplateRequest alta o modificación de un catálogo de opciones.
type OptionTemplateRequest struct {
	TemplateName         string                    `json:"template_name" validate:"required,max=100"`
	TemplateCode         string                    `json:"template_code" validate:"required,max=50"`
	Category             string                    `json:"category" validate:"required,max=50"`
	SubCategory          string                    `json:"sub_category" validate:"omitempty,max=50"`
	Description          string                    `json:"description" validate:"omitempty,max=500"`
	DisplayOrder         int                       `json:"display_order" validate:"min=0"`
	ApplicableFieldTypes string                    `json:"applicable_field_types" validate:"omitempty,max=200"`
	RecommendedFor       string                    `json:"recommended_for" validate:"omitempty,max=500"`
	HasScoring           bool                      `json:"has_scoring"`
	ScoringType          string                    `json:"scoring_type" validate:"omitempty,max=30"`
	IsActive             *bool                     `json:"is_active"`
	Items                []OptionTemplateItemInput `json:"items" validate:"required,min=1,dive"`
}

// OptionTemplateListRequest filtros del listado de catálogos.
type OptionTemplateListRequest struct {
	PageRequest
	Category   string `query:"category" validate:"omitempty,max=50"`
	FieldType  string `query:"field_type" validate:"omitempty,max=20"`
	OnlyActive bool   `query:"only_active"`
}

// OptionTemplateItemResponse salida de una opción de catálogo.
type OptionTemplateItemResponse struct {
	ID           string           `json:"id"`
	OptionValue  string           `json:"option_value"`
	OptionLabel  string           `json:"option_label"`
	DisplayOrder int              `json:"display_order"`
	ScoreValue   *decimal.Decimal `json:"score_value,omitempty"`
	ScoreWeight  *decimal.Decimal `json:"score_weight,omitempty"`
	IconClass    string           `json:"icon_class,omitempty"`
	ColorHint    string           `json:"color_hint,omitempty"`
	IsDefault    bool             `json:"is_default"`
}

// OptionTemplateResponse salida de un catálogo; Items solo en el detalle.
type OptionTemplateResponse struct {
	ID                   string                       `json:"id"`
	TemplateName         string                       `json:"template_name"`
	TemplateCode         string                       `json:"template_code"`
	Category             string                       `json:"category"`
	SubCategory          string                       `json:"sub_category,omitempty"`
	Description          string                       `json:"description,omitempty"`
	UsageCount           int                          `json:"usage_count"`
	DisplayOrder         int                          `json:"display_order"`
	ApplicableFieldTypes []string                     `json:"applicable_field_types,omitempty"`
	RecommendedFor       string                       `json:"recommended_for,omitempty"`
	HasScoring           bool                         `json:"has_scoring"`
	ScoringType          string                       `json:"scoring_type,omitempty"`
	IsSystemTemplate     bool                         `json:"is_system_template"`
	IsActive             bool                         `json:"is_active"`
	Items                []OptionTemplateItemResponse `json:"items,omitempty"`
	CreatedAt            time.Time                    `json:"created_at"`
	UpdatedAt            time.Time                    `json:"updated_at"`
}

// ApplyOptionTemplateRequest ítem cuyo catálogo de opciones se reemplaza.
type ApplyOptionTemplateRequest struct {
	ItemID string `json:"item_id" validate:"required,uuid"`
}
