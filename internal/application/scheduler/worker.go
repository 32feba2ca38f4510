package scheduler

import (
	"context"
	"time"

	"github.com/jhoicas/form-reporting-api/internal/domain/access"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/rs/zerolog/log"
)

// ReportRunner ejecuta programaciones de reportes vencidas.
type ReportRunner interface {
	DueSchedules(ctx context.Context) ([]*entity.ReportSchedule, error)
	ExecuteSchedule(ctx context.Context, c *access.Claims, s *entity.ReportSchedule) error
}

// ClaimsSource claims del creador de una programación.
type ClaimsSource interface {
	Get(ctx context.Context, userID string) (*access.Claims, error)
}

// AssignmentExpirer revoca asignaciones de plantillas cuya vigencia terminó.
type AssignmentExpirer interface {
	ExpireOverdue(ctx context.Context) (int, error)
}

// Worker corre periódicamente las programaciones de reportes vencidas.
type Worker struct {
	runner   ReportRunner
	claims   ClaimsSource
	expirer  AssignmentExpirer
	interval time.Duration
}

// NewWorker construye el worker; interval <= 0 usa un minuto.
func NewWorker(runner ReportRunner, claims ClaimsSource, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Worker{runner: runner, claims: claims, interval: interval}
}

// WithAssignmentExpiry revoca en cada ciclo las asignaciones vencidas.
func (w *Worker) WithAssignmentExpiry(e AssignmentExpirer) *Worker {
	w.expirer = e
	return w
}

// Start bloquea hasta que se cancele ctx.
func (w *Worker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("scheduler de reportes iniciado")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("scheduler de reportes detenido")
			return
		case <-ticker.C:
			w.Tick(ctx)
		}
	}
}

// Tick corre una vez las programaciones vencidas y devuelve cuántas terminaron bien.
// Un fallo no detiene las demás.
func (w *Worker) Tick(ctx context.Context) int {
	if w.expirer != nil {
		if _, err := w.expirer.ExpireOverdue(ctx); err != nil {
			log.Error().Err(err).Msg("scheduler: no se pudieron revocar asignaciones vencidas")
		}
	}
	due, err := w.runner.DueSchedules(ctx)
	if err != nil {
		log.Error().Err(err).Msg("scheduler: no se pudieron leer las programaciones")
		return 0
	}
	ok := 0
	for _, s := range due {
		if ctx.Err() != nil {
			break
		}
		claims, err := w.claims.Get(ctx, s.CreatedBy)
		if err != nil {
			// Sin claims la corrida queda registrada como fallida.
			log.Warn().Err(err).Str("schedule_id", s.ID).Str("user_id", s.CreatedBy).Msg("scheduler: claims del creador no disponibles")
			claims = nil
		}
		if err := w.runner.ExecuteSchedule(ctx, claims, s); err != nil {
			log.Error().Err(err).Str("schedule_id", s.ID).Str("report_id", s.ReportID).Msg("scheduler: ejecución fallida")
			continue
		}
		ok++
	}
	if len(due) > 0 {
		log.Info().Int("due", len(due)).Int("ok", ok).Msg("scheduler: ciclo completado")
	}
	return ok
}
