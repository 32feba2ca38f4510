package repository

import (
	"context"
	"time"

	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// SubmissionFilter criterios de listado de envíos. TenantIDs nil = sin restricción.
type SubmissionFilter struct {
	TemplateID     string
	TenantIDs      []string
	Status         string
	ReportingYear  int
	ReportingMonth int
	SubmittedFrom  *time.Time
	SubmittedTo    *time.Time
	Limit          int
	Offset         int
}

// ItemStatResult agregados numéricos de las respuestas de un ítem.
type ItemStatResult struct {
	ItemID        string
	ItemCode      string
	ItemName      string
	SectionName   string
	DataType      string
	ResponseCount int
	Average       *decimal.Decimal
	Minimum       *decimal.Decimal
	Maximum       *decimal.Decimal
}

// SubmissionRepository persistencia de envíos y respuestas.
type SubmissionRepository interface {
	Create(ctx context.Context, s *entity.FormSubmission) error
	Update(ctx context.Context, s *entity.FormSubmission) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*entity.FormSubmission, error)
	GetByPeriod(ctx context.Context, templateID, tenantID string, year, month int) (*entity.FormSubmission, error)
	// List más recientes primero.
	List(ctx context.Context, f SubmissionFilter) ([]*entity.FormSubmission, int, error)

	ListResponses(ctx context.Context, submissionID string) ([]*entity.FormResponse, error)
	// UpsertResponse inserta o reemplaza la respuesta de (envío, ítem).
	UpsertResponse(ctx context.Context, r *entity.FormResponse) error

	// ItemStats estadísticas por ítem sobre envíos finales de la plantilla.
	ItemStats(ctx context.Context, templateID string, tenantIDs []string) ([]ItemStatResult, error)
}
