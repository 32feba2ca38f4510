package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateSubmissionRequest abre un envío en borrador para (plantilla, tenant, período).
type CreateSubmissionRequest struct {
	TemplateID     string `json:"template_id" validate:"required,uuid"`
	TenantID       string `json:"tenant_id" validate:"required,uuid"`
	ReportingYear  int    `json:"reporting_year" validate:"required,min=2000,max=2100"`
	ReportingMonth int    `json:"reporting_month" validate:"required,min=1,max=12"`
}

// ResponseInput valor para un ítem. Se usa el campo acorde al tipo de dato.
type ResponseInput struct {
	ItemID       string           `json:"item_id" validate:"required,uuid"`
	Value        *string          `json:"value"`
	NumericValue *decimal.Decimal `json:"numeric_value"`
	BooleanValue *bool            `json:"boolean_value"`
	DateValue    *time.Time       `json:"date_value"`
	OptionID     *string          `json:"option_id" validate:"omitempty,uuid"`
	OptionIDs    []string         `json:"option_ids" validate:"omitempty,dive,uuid"`
}

// SaveResponsesRequest guarda respuestas de un envío editable.
type SaveResponsesRequest struct {
	Responses []ResponseInput `json:"responses" validate:"required,min=1,dive"`
}

// ReviewRequest aprobación o rechazo de un envío en aprobación.
type ReviewRequest struct {
	Approve  bool   `json:"approve"`
	Comments string `json:"comments" validate:"omitempty,max=2000"`
}

// SubmissionListRequest filtros del listado de envíos.
type SubmissionListRequest struct {
	PageRequest
	TemplateID     string     `query:"template_id" validate:"omitempty,uuid"`
	TenantID       string     `query:"tenant_id" validate:"omitempty,uuid"`
	Status         string     `query:"status" validate:"omitempty,oneof=Draft Submitted InApproval Approved Rejected"`
	ReportingYear  int        `query:"reporting_year" validate:"omitempty,min=2000,max=2100"`
	ReportingMonth int        `query:"reporting_month" validate:"omitempty,min=1,max=12"`
	SubmittedFrom  *time.Time `query:"submitted_from"`
	SubmittedTo    *time.Time `query:"submitted_to"`
}

// SubmissionResponse cabecera de un envío.
type SubmissionResponse struct {
	ID             string     `json:"id"`
	TemplateID     string     `json:"template_id"`
	TemplateName   string     `json:"template_name,omitempty"`
	TenantID       *string    `json:"tenant_id,omitempty"`
	TenantName     string     `json:"tenant_name,omitempty"`
	ReportingYear  int        `json:"reporting_year"`
	ReportingMonth int        `json:"reporting_month"`
	Period         string     `json:"period"`
	Status         string     `json:"status"`
	SubmittedBy    *string    `json:"submitted_by,omitempty"`
	SubmittedAt    *time.Time `json:"submitted_at,omitempty"`
	ReviewedBy     *string    `json:"reviewed_by,omitempty"`
	ReviewedAt     *time.Time `json:"reviewed_at,omitempty"`
	ReviewComments string     `json:"review_comments,omitempty"`
	IsLate         bool       `json:"is_late"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// AnswerResponse respuesta guardada de un ítem.
type AnswerResponse struct {
	ItemID           string           `json:"item_id"`
	ItemCode         string           `json:"item_code"`
	ItemName         string           `json:"item_name"`
	DataType         string           `json:"data_type"`
	DisplayValue     string           `json:"display_value"`
	NumericValue     *decimal.Decimal `json:"numeric_value,omitempty"`
	BooleanValue     *bool            `json:"boolean_value,omitempty"`
	DateValue        *time.Time       `json:"date_value,omitempty"`
	SelectedOptionID *string          `json:"selected_option_id,omitempty"`
	WeightedScore    *decimal.Decimal `json:"weighted_score,omitempty"`
}

// SubmissionDetailResponse envío con respuestas y puntaje general.
type SubmissionDetailResponse struct {
	SubmissionResponse
	Answers      []AnswerResponse `json:"answers"`
	OverallScore *decimal.Decimal `json:"overall_score,omitempty"`
}

// FileResponse clave de un archivo subido.
type FileResponse struct {
	ItemID string `json:"item_id"`
	Key    string `json:"key"`
	Size   int    `json:"size"`
}

// FieldScoreResponse puntaje de un campo.
type FieldScoreResponse struct {
	ItemID      string           `json:"item_id"`
	ItemName    string           `json:"item_name"`
	SectionName string           `json:"section_name"`
	Score       *decimal.Decimal `json:"score,omitempty"`
	Weight      decimal.Decimal  `json:"weight"`
}

// SectionScoreResponse puntaje de una sección; Score ausente si no tiene respuestas puntuadas.
type SectionScoreResponse struct {
	SectionID   string           `json:"section_id"`
	SectionName string           `json:"section_name"`
	Score       *decimal.Decimal `json:"score,omitempty"`
	Weight      decimal.Decimal  `json:"weight"`
}

// ScoreBreakdownResponse desglose de puntajes de un envío.
type ScoreBreakdownResponse struct {
	SubmissionID string                 `json:"submission_id"`
	OverallScore *decimal.Decimal       `json:"overall_score,omitempty"`
	Sections     []SectionScoreResponse `json:"sections"`
	Fields       []FieldScoreResponse   `json:"fields"`
}

// FieldPerformanceResponse estadísticas de un campo sobre envíos finales.
type FieldPerformanceResponse struct {
	ItemID        string           `json:"item_id"`
	ItemCode      string           `json:"item_code"`
	ItemName      string           `json:"item_name"`
	SectionName   string           `json:"section_name"`
	DataType      string           `json:"data_type"`
	ResponseCount int              `json:"response_count"`
	Average       *decimal.Decimal `json:"average,omitempty"`
	Minimum       *decimal.Decimal `json:"minimum,omitempty"`
	Maximum       *decimal.Decimal `json:"maximum,omitempty"`
}
