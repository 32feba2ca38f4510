package repository

import (
	"context"
	"time"

	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
)

// AssignmentFilter criterios de listado de asignaciones.
// EffectiveAt filtra las vigentes a esa fecha; ExpiredAt las vencidas antes de ella.
type AssignmentFilter struct {
	TemplateID     string
	AssignmentType string
	Status         string
	EffectiveAt    *time.Time
	ExpiredAt      *time.Time
	Limit          int
	Offset         int
}

// AssignmentCounts agregados de asignaciones a una fecha.
type AssignmentCounts struct {
	Total     int
	Active    int
	Suspended int
	Revoked   int
	Expired   int
	Effective int
	Anonymous int
	ByType    map[string]int
}

// FormAssignmentRepository persistencia de asignaciones de plantillas.
type FormAssignmentRepository interface {
	Create(ctx context.Context, a *entity.FormAssignment) error
	Update(ctx context.Context, a *entity.FormAssignment) error
	GetByID(ctx context.Context, id string) (*entity.FormAssignment, error)
	List(ctx context.Context, f AssignmentFilter) ([]*entity.FormAssignment, int, error)
	// ListByTemplate todas las asignaciones de una plantilla, sin importar su estado.
	ListByTemplate(ctx context.Context, templateID string) ([]*entity.FormAssignment, error)
	// ListEffective vigentes a la fecha, de todas las plantillas publicadas y activas.
	ListEffective(ctx context.Context, at time.Time) ([]*entity.FormAssignment, error)
	// RevokeExpired pasa a Revoked las activas vencidas antes de at y devuelve cuántas cambió.
	RevokeExpired(ctx context.Context, at time.Time, reason string) (int, error)
	Counts(ctx context.Context, templateID string, at time.Time) (*AssignmentCounts, error)
}

// SubmissionRuleRepository persistencia de fechas límite de plantillas.
type SubmissionRuleRepository interface {
	Create(ctx context.Context, r *entity.SubmissionRule) error
	Update(ctx context.Context, r *entity.SubmissionRule) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*entity.SubmissionRule, error)
	// ListByTemplate reglas de la plantilla ordenadas por nombre.
	ListByTemplate(ctx context.Context, templateID string) ([]*entity.SubmissionRule, error)
	// ListActive reglas activas de todas las plantillas.
	ListActive(ctx context.Context) ([]*entity.SubmissionRule, error)
}

// OptionTemplateFilter criterios de listado de catálogos de opciones.
type OptionTemplateFilter struct {
	Search     string
	Category   string
	FieldType  string
	OnlyActive bool
	Limit      int
	Offset     int
}

// OptionTemplateRepository persistencia de catálogos reutilizables de opciones.
type OptionTemplateRepository interface {
	Create(ctx context.Context, t *entity.OptionTemplate) error
	Update(ctx context.Context, t *entity.OptionTemplate) error
	Delete(ctx context.Context, id string) error
	// GetByID carga el catálogo con sus opciones.
	GetByID(ctx context.Context, id string) (*entity.OptionTemplate, error)
	GetByCode(ctx context.Context, code string) (*entity.OptionTemplate, error)
	List(ctx context.Context, f OptionTemplateFilter) ([]*entity.OptionTemplate, int, error)
	Categories(ctx context.Context) ([]string, error)
	ReplaceItems(ctx context.Context, templateID string, items []*entity.OptionTemplateItem) error
	IncrementUsage(ctx context.Context, id string) error
}
