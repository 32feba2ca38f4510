// Package ports define los puertos de salida de la capa de aplicación que no son
// repositorios: caches, almacenamiento de objetos y exportadores de reportes.
// Los adaptadores concretos viven en internal/infrastructure.
package ports

import (
	"context"
	"time"

	"github.com/jhoicas/form-reporting-api/internal/domain/access"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
)

// ClaimsCache cache de claims por usuario.
// Get devuelve (nil, nil) si no hay entrada.
type ClaimsCache interface {
	Get(ctx context.Context, userID string) (*access.Claims, error)
	Set(ctx context.Context, claims *access.Claims) error
	Invalidate(ctx context.Context, userIDs ...string) error
}

// ReportCache resultados de ejecución de reportes.
// Get devuelve (nil, nil) si no hay entrada.
type ReportCache interface {
	Get(ctx context.Context, key string) (*entity.ReportResult, error)
	Set(ctx context.Context, key string, result *entity.ReportResult) error
	// InvalidateReport borra todas las entradas del reporte.
	InvalidateReport(ctx context.Context, reportID string) error
}

// TokenBlacklist tokens revocados por logout hasta su expiración.
type TokenBlacklist interface {
	Add(ctx context.Context, token string, expiresAt time.Time) error
	Contains(ctx context.Context, token string) (bool, error)
}
