// Package population puebla los valores de métricas de tenant a partir de envíos finales:
// primero los mapeos de campo, luego los roll-ups de sección y de plantilla.
package population

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/form-reporting-api/internal/domain"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/jhoicas/form-reporting-api/internal/domain/metrics"
	"github.com/jhoicas/form-reporting-api/internal/domain/repository"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Engine motor de población de métricas.
type Engine struct {
	submissions repository.SubmissionRepository
	mappings    repository.MetricMappingRepository
	definitions repository.MetricDefinitionRepository
	values      repository.TenantMetricRepository
	now         func() time.Time
}

// NewEngine construye el motor.
func NewEngine(submissions repository.SubmissionRepository, mappings repository.MetricMappingRepository, definitions repository.MetricDefinitionRepository, values repository.TenantMetricRepository) *Engine {
	return &Engine{
		submissions: submissions,
		mappings:    mappings,
		definitions: definitions,
		values:      values,
		now:         time.Now,
	}
}

// run estado de una población: envío, período y valores calculados por ID de mapeo.
type run struct {
	submission *entity.FormSubmission
	period     time.Time
	defs       map[string]*entity.MetricDefinition
	items      map[string]decimal.Decimal
	sections   map[string]decimal.Decimal
	processed  int
	failed     int
}

// PopulateSubmission puebla las métricas de un envío. Los envíos sin tenant se omiten.
// Un mapeo que falla queda registrado en el log y no detiene a los demás.
func (e *Engine) PopulateSubmission(ctx context.Context, submissionID string) error {
	start := e.now()
	s, err := e.submissions.GetByID(ctx, submissionID)
	if err != nil {
		return err
	}
	if s == nil {
		return fmt.Errorf("%w: envío %s", domain.ErrNotFound, submissionID)
	}
	if s.TenantID == nil {
		return nil
	}
	itemMappings, err := e.mappings.ListItemMappings(ctx, s.TemplateID, true)
	if err != nil {
		return err
	}
	sectionMappings, err := e.mappings.ListSectionMappings(ctx, s.TemplateID, true)
	if err != nil {
		return err
	}
	templateMappings, err := e.mappings.ListTemplateMappings(ctx, s.TemplateID, true)
	if err != nil {
		return err
	}
	if len(itemMappings)+len(sectionMappings)+len(templateMappings) == 0 {
		return nil
	}
	responses, err := e.submissions.ListResponses(ctx, s.ID)
	if err != nil {
		return err
	}

	submitted := e.now()
	if s.SubmittedAt != nil {
		submitted = *s.SubmittedAt
	}
	r := &run{
		submission: s,
		period:     metrics.ReportingPeriod(submitted),
		defs:       map[string]*entity.MetricDefinition{},
		items:      map[string]decimal.Decimal{},
		sections:   map[string]decimal.Decimal{},
	}
	byItem := metrics.IndexResponses(responses)

	for _, m := range itemMappings {
		began := e.now()
		value, err := metrics.ItemValue(m, byItem)
		itemID := m.ItemID
		entry := &entity.MetricPopulationLog{
			MappingID:          m.ID,
			MetricID:           m.MetricID,
			SourceItemID:       &itemID,
			SourceValue:        metrics.SourceValue(byItem[m.ItemID]),
			CalculationFormula: metrics.FormulaExpression(m.TransformationLogic),
		}
		if err == nil && value != nil {
			r.items[m.ID] = *value
		}
		e.record(ctx, r, entry, m.MappingType, value, err, began)
	}

	for _, m := range sectionMappings {
		began := e.now()
		sources := make([]metrics.Source, 0, len(m.Sources))
		for _, src := range m.Sources {
			sources = append(sources, metrics.Source{MappingID: src.ItemMappingID, Weight: src.Weight})
		}
		value, err := metrics.RollupValue(m.MappingType, m.AggregationType, m.Formula, sources, r.items)
		entry := &entity.MetricPopulationLog{
			MappingID:          m.ID,
			MetricID:           m.MetricID,
			SourceValue:        fmt.Sprintf("%d fuentes", len(sources)),
			CalculationFormula: rollupFormula(m.MappingType, m.AggregationType, m.Formula),
		}
		if err == nil && value != nil {
			r.sections[m.ID] = *value
		}
		e.record(ctx, r, entry, m.MappingType, value, err, began)
	}

	for _, m := range templateMappings {
		began := e.now()
		sources := make([]metrics.Source, 0, len(m.Sources))
		for _, src := range m.Sources {
			sources = append(sources, metrics.Source{MappingID: src.SectionMappingID, Weight: src.Weight})
		}
		value, err := metrics.RollupValue(m.MappingType, m.AggregationType, m.Formula, sources, r.sections)
		entry := &entity.MetricPopulationLog{
			MappingID:          m.ID,
			MetricID:           m.MetricID,
			SourceValue:        fmt.Sprintf("%d fuentes", len(sources)),
			CalculationFormula: rollupFormula(m.MappingType, m.AggregationType, m.Formula),
		}
		e.record(ctx, r, entry, m.MappingType, value, err, began)
	}

	log.Debug().
		Str("submission_id", s.ID).
		Int("processed", r.processed).
		Int("failed", r.failed).
		Dur("elapsed", e.now().Sub(start)).
		Msg("población de métricas")
	return nil
}

// Recalculate borra las trazas del envío y lo vuelve a poblar.
func (e *Engine) Recalculate(ctx context.Context, submissionID string) error {
	if err := e.values.DeleteLogs(ctx, submissionID); err != nil {
		return err
	}
	return e.PopulateSubmission(ctx, submissionID)
}

// record guarda el valor (si hay) y la traza del mapeo.
func (e *Engine) record(ctx context.Context, r *run, entry *entity.MetricPopulationLog, sourceType string, value *decimal.Decimal, calcErr error, began time.Time) {
	entry.SubmissionID = r.submission.ID
	entry.PopulatedAt = e.now()
	r.processed++

	switch {
	case calcErr != nil:
		entry.Status = entity.PopulationFailed
		entry.ErrorMessage = calcErr.Error()
	case value == nil:
		entry.Status = entity.PopulationSkipped
	default:
		entry.CalculatedValue = value
		if err := e.upsert(ctx, r, entry.MetricID, sourceType, *value); err != nil {
			entry.Status = entity.PopulationFailed
			entry.ErrorMessage = err.Error()
		} else {
			entry.Status = entity.PopulationSuccess
		}
	}
	if entry.Status == entity.PopulationFailed {
		r.failed++
	}
	entry.ProcessingTimeMs = int(e.now().Sub(began).Milliseconds())
	if err := e.values.CreateLog(ctx, entry); err != nil {
		log.Warn().Err(err).Str("mapping_id", entry.MappingID).Msg("población: no se pudo registrar la traza")
	}
}

func (e *Engine) upsert(ctx context.Context, r *run, metricID, sourceType string, value decimal.Decimal) error {
	def, err := e.definition(ctx, r, metricID)
	if err != nil {
		return err
	}
	v := value
	return e.values.Upsert(ctx, &entity.TenantMetric{
		TenantID:          *r.submission.TenantID,
		MetricID:          metricID,
		ReportingPeriod:   r.period,
		NumericValue:      &v,
		TextValue:         metrics.FormatValue(value, def),
		SourceType:        sourceType,
		SourceReferenceID: r.submission.ID,
		CapturedAt:        e.now().UTC(),
	})
}

func (e *Engine) definition(ctx context.Context, r *run, metricID string) (*entity.MetricDefinition, error) {
	if def, ok := r.defs[metricID]; ok {
		return def, nil
	}
	def, err := e.definitions.GetByID(ctx, metricID)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, fmt.Errorf("%w: métrica %s", domain.ErrNotFound, metricID)
	}
	r.defs[metricID] = def
	return def, nil
}

func rollupFormula(mappingType, aggregation, formula string) string {
	if mappingType == entity.RollupCalculated {
		return metrics.FormulaExpression(formula)
	}
	return aggregation
}
