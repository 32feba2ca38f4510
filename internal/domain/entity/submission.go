package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un envío de formulario.
const (
	SubmissionDraft      = "Draft"
	SubmissionSubmitted  = "Submitted"
	SubmissionInApproval = "InApproval"
	SubmissionApproved   = "Approved"
	SubmissionRejected   = "Rejected"
)

// FormSubmission envío de una plantilla por un tenant para un período.
type FormSubmission struct {
	ID             string
	TemplateID     string
	TenantID       *string
	ReportingYear  int
	ReportingMonth int
	Status         string
	SubmittedBy    *string
	SubmittedAt    *time.Time
	ReviewedBy     *string
	ReviewedAt     *time.Time
	ReviewComments string
	// IsLate enviado después de la fecha límite del período.
	IsLate         bool
	CreatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// Solo lectura (JOIN).
	TemplateName string
	TenantName   string
}

// IsEditable se pueden guardar respuestas en borrador o tras un rechazo.
func (s *FormSubmission) IsEditable() bool {
	return s.Status == SubmissionDraft || s.Status == SubmissionRejected
}

// IsFinal estados que disparan la población de métricas.
func (s *FormSubmission) IsFinal() bool {
	return s.Status == SubmissionSubmitted || s.Status == SubmissionApproved
}

// FormResponse respuesta tipada a un ítem.
type FormResponse struct {
	ID                  string
	SubmissionID        string
	ItemID              string
	TextValue           *string
	NumericValue        *decimal.Decimal
	DateValue           *time.Time
	BooleanValue        *bool
	SelectedOptionID    *string
	SelectedScoreValue  *decimal.Decimal
	SelectedScoreWeight *decimal.Decimal
	WeightedScore       *decimal.Decimal
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// IsAnswered la respuesta tiene algún valor.
func (r *FormResponse) IsAnswered() bool {
	if r == nil {
		return false
	}
	if r.TextValue != nil && *r.TextValue != "" {
		return true
	}
	return r.NumericValue != nil || r.DateValue != nil || r.BooleanValue != nil || r.SelectedOptionID != nil
}

// ApplyOption fija la opción elegida y su puntaje ponderado (ScoreValue × ScoreWeight).
func (r *FormResponse) ApplyOption(opt *FormItemOption) {
	if opt == nil {
		r.SelectedOptionID = nil
		r.SelectedScoreValue = nil
		r.SelectedScoreWeight = nil
		r.WeightedScore = nil
		return
	}
	id := opt.ID
	value := opt.OptionValue
	r.SelectedOptionID = &id
	r.TextValue = &value
	r.SelectedScoreValue = opt.ScoreValue
	r.SelectedScoreWeight = opt.ScoreWeight
	r.WeightedScore = nil
	if opt.ScoreValue != nil {
		w := decimal.NewFromInt(1)
		if opt.ScoreWeight != nil {
			w = *opt.ScoreWeight
		}
		ws := opt.ScoreValue.Mul(w)
		r.WeightedScore = &ws
	}
}
