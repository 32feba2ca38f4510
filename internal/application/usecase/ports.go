package usecase

import (
	"context"
	"slices"
	"time"

	"github.com/jhoicas/form-reporting-api/internal/domain/access"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
)

// TenantScope resolución de tenants visibles (implementado por scope.Service).
type TenantScope interface {
	// Restriction nil = sin restricción; vacío = ningún tenant.
	Restriction(ctx context.Context, c *access.Claims) ([]string, error)
	CanAccessTenant(ctx context.Context, c *access.Claims, tenantID string) (bool, error)
	AccessibleUsers(ctx context.Context, c *access.Claims, search string, limit int) ([]*entity.User, error)
}

// ClaimsInvalidator descarta claims cacheados (implementado por auth.ClaimsBuilder).
type ClaimsInvalidator interface {
	Invalidate(ctx context.Context, userIDs ...string)
}

// restrict intersecta el filtro pedido con la restricción de alcance.
// Devuelve ok = false si el tenant pedido queda fuera del alcance.
func restrict(allowed []string, requested string) (ids []string, ok bool) {
	if requested == "" {
		return allowed, true
	}
	if allowed != nil && !slices.Contains(allowed, requested) {
		return nil, false
	}
	return []string{requested}, true
}

// MetricPopulator población de métricas de un envío final (implementado por population.Engine).
type MetricPopulator interface {
	PopulateSubmission(ctx context.Context, submissionID string) error
}

// MetricRecalculator repoblación de un envío (implementado por population.Engine).
type MetricRecalculator interface {
	Recalculate(ctx context.Context, submissionID string) error
}

// AssignmentGate verifica que la plantilla esté asignada al solicitante (implementado por AssignmentUseCase).
type AssignmentGate interface {
	CheckSubmission(ctx context.Context, c *access.Claims, templateID, tenantID string) error
}

// SubmissionTiming fecha límite del período de un envío (implementado por SubmissionRuleUseCase).
type SubmissionTiming interface {
	// CheckTiming devuelve si el envío es tardío, o error si el plazo está cerrado.
	CheckTiming(ctx context.Context, s *entity.FormSubmission, at time.Time) (bool, error)
}
